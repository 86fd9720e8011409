package core

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
)

// Module represents a self-contained action that can be started and stopped.
type Module interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context)
}

// Manager coordinates lifecycle of all registered modules.
type Manager struct {
	modules []Module
	mu      sync.Mutex
	started bool
	log     *logrus.Entry
}

// NewManager creates a new manager with the provided modules.
func NewManager(mods ...Module) *Manager {
	return &Manager{
		modules: mods,
		log:     logrus.WithField("module", "actions"),
	}
}

// SetLogger replaces the manager's logger.
func (m *Manager) SetLogger(log *logrus.Entry) {
	m.mu.Lock()
	m.log = log
	m.mu.Unlock()
}

// Add registers additional modules before Start is invoked.
func (m *Manager) Add(mod Module) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return errors.New("actions.Manager: cannot add modules after start")
	}
	m.modules = append(m.modules, mod)
	return nil
}

// Len reports the number of registered modules.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.modules)
}

// Start initializes all modules. If any module fails, previously started modules are stopped.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return errors.New("actions.Manager already started")
	}

	started := make([]Module, 0, len(m.modules))
	for _, mod := range m.modules {
		if mod == nil {
			continue
		}
		if err := mod.Start(ctx); err != nil {
			for i := len(started) - 1; i >= 0; i-- {
				started[i].Stop(ctx)
			}
			return errors.Wrapf(err, "module %s failed", mod.Name())
		}
		m.log.Infof("actions: %s module started", mod.Name())
		started = append(started, mod)
	}

	m.started = true
	return nil
}

// Stop shuts down all modules in reverse order.
func (m *Manager) Stop(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return
	}
	for i := len(m.modules) - 1; i >= 0; i-- {
		if mod := m.modules[i]; mod != nil {
			mod.Stop(ctx)
			m.log.Infof("actions: %s module stopped", mod.Name())
		}
	}
	m.started = false
}
