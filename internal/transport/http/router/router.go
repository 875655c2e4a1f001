package router

import (
	"time"

	"intent-service/internal/common/logger"
	"intent-service/internal/transport/http/handler"
	"intent-service/internal/transport/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options configures the HTTP surface.
type Options struct {
	MaxBodyBytes   int64
	MaxBatchSize   int
	RequestTimeout time.Duration
	Checks         map[string]handler.Check
}

// Setup creates and configures the Gin router
func Setup(backend *handler.Backend, opts Options, log logger.Logger) (*gin.Engine, error) {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))

	healthHandler := handler.NewHealthHandler(backend, opts.Checks)
	router.GET("/test", healthHandler.Test)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	classifyHandler, err := handler.NewClassifyHandler(backend, opts.MaxBatchSize, opts.RequestTimeout)
	if err != nil {
		return nil, err
	}

	classify := router.Group("/classify", middleware.BodyLimit(opts.MaxBodyBytes))
	{
		classify.POST("", classifyHandler.Classify)
		classify.POST("/batch", classifyHandler.ClassifyBatch)
	}

	return router, nil
}
