package api

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"github.com/stake-plus/govcomms-suggestions/src/actions/core"
	sharedconfig "github.com/stake-plus/govcomms-suggestions/src/config"
)

var _ core.Module = (*Module)(nil)

// Module serves the read API for as long as the process runs.
type Module struct {
	config   *sharedconfig.APIConfig
	server   *http.Server
	listener net.Listener
	done     chan struct{}
	log      *logrus.Entry
}

func NewModule(cfg *sharedconfig.APIConfig, handler http.Handler, log *logrus.Entry) *Module {
	if log == nil {
		log = logrus.WithField("module", "api")
	}
	return &Module{
		config: cfg,
		server: &http.Server{
			Addr:              cfg.Listen,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Name implements actions.Module.
func (m *Module) Name() string { return "api" }

// Start binds the listen address before returning so that a taken port fails startup.
func (m *Module) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", m.config.Listen)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", m.config.Listen)
	}
	m.listener = ln
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)
		if err := m.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.log.WithError(err).Error("api: server stopped")
		}
	}()
	m.log.Infof("api: listening on %s", ln.Addr())
	return nil
}

// Addr is the bound address, useful when listening on port 0.
func (m *Module) Addr() string {
	if m.listener == nil {
		return ""
	}
	return m.listener.Addr().String()
}

func (m *Module) Stop(ctx context.Context) {
	if m.done == nil {
		return
	}
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := m.server.Shutdown(shutCtx); err != nil {
		m.log.WithError(err).Warn("api: shutdown incomplete")
	}
	<-m.done
	m.done = nil
}
