package webserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/stake-plus/govcomms-suggestions/src/suggestions"
)

// Source is the read side of the suggestion engine.
type Source interface {
	List(ctx context.Context) ([]suggestions.Group, error)
	Get(ctx context.Context, id uint64) (*suggestions.Suggestion, error)
	Link(s *suggestions.Suggestion) string
}

// Options configures the router.
type Options struct {
	JWTSecret    string
	AllowOrigins []string
	// Ping checks the backing store for /healthz.
	Ping     func(ctx context.Context) error
	Gatherer prometheus.Gatherer
	Logger   *logrus.Entry
	// RateLimit is the number of /v1 requests per caller per RateWindow; zero disables limiting.
	RateLimit  int
	RateWindow time.Duration
}

// New builds the HTTP handler of the read API.
func New(src Source, opts Options) *gin.Engine {
	r := gin.New()
	log := opts.Logger
	if log == nil {
		log = logrus.WithField("module", "api")
	}
	r.Use(gin.Recovery(), requestLogger(log))
	attachRoutes(r, src, opts)
	return r
}

func attachRoutes(r *gin.Engine, src Source, opts Options) {
	origins := opts.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Authorization", "If-None-Match"},
		ExposeHeaders: []string{"Content-Length", "ETag"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 1 && origins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
	}
	r.Use(cors.New(corsCfg))

	health := NewHealth(opts.Ping)
	r.GET("/healthz", health.Check)

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := r.Group("/v1")
	if opts.JWTSecret != "" {
		v1.Use(JWTMiddleware([]byte(opts.JWTSecret)))
	}
	if opts.RateLimit > 0 {
		window := opts.RateWindow
		if window <= 0 {
			window = time.Minute
		}
		v1.Use(RateLimitMiddleware(NewRateLimiter(opts.RateLimit, window)))
	}

	sugH := NewSuggestions(src)
	v1.GET("/suggestions", sugH.List)
	v1.GET("/suggestions/:id", sugH.Get)
}

func requestLogger(log *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)
		c.Next()

		entry := log.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"duration":   time.Since(start),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Error("api: request failed")
			return
		}
		entry.Debug("api: request served")
	}
}
