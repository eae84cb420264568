package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/mumblebot/internal/config"
)

// NewServer builds the read-only status server. A nil gatherer serves the
// default Prometheus registry.
func NewServer(src Source, gatherer prometheus.Gatherer, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.StatusAddr,
		Handler:           NewRouter(src, gatherer, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter registers the status routes on a fresh gin engine.
func NewRouter(src Source, gatherer prometheus.Gatherer, logger *zerolog.Logger) *gin.Engine {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery(), LoggerMiddleware(logger))

	r.GET("/health", healthHandler)

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	h := NewStatusHandlers(src, logger)
	api := r.Group("/api")
	{
		api.GET("/session", h.Session)
		api.GET("/users", h.ListUsers)
		api.GET("/users/:session", h.GetUser)
		api.GET("/channels", h.ListChannels)
		api.GET("/channels/:id", h.GetChannel)
		api.GET("/permissions", h.ListPermissions)
	}

	return r
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
