package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"intent-service/internal/common/camunda"
	"intent-service/internal/common/config"
	"intent-service/internal/common/database"
	"intent-service/internal/common/logger"
	"intent-service/internal/common/observability"
	"intent-service/internal/embedding"
	"intent-service/internal/intent"
	"intent-service/internal/transport/http/handler"
	"intent-service/internal/transport/http/router"
	classifymessage "intent-service/internal/workers/classify-message"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", "console", "stderr")
		boot.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting intent service",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
		zap.String("embeddingProvider", cfg.Embedding.Provider),
		zap.Float64("minConfidence", cfg.Classifier.MinConfidence),
	)

	obs := observability.New(cfg.Observability.ServiceName)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	base, err := embedding.New(cfg.Embedding)
	if err != nil {
		zapLog.Fatal("embedding backend", zap.Error(err))
	}
	var emb embedding.Embedder = embedding.NewInstrumented(base)

	checks := map[string]handler.Check{}

	if cfg.Cache.Enabled {
		rdb, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			zapLog.Fatal("redis client", zap.Error(err))
		}
		defer rdb.Close()
		if err := rdb.Ping(ctx); err != nil {
			zapLog.Warn("redis unreachable, embeddings will not be cached until it recovers", zap.Error(err))
		}
		emb = embedding.NewCachedEmbedder(emb, rdb.Cmdable(), time.Duration(cfg.Cache.TTL)*time.Second, cfg.Cache.KeyPrefix, log)
		checks["cache"] = rdb.Ping
	}

	refs, err := loadReferences(cfg.Classifier.ReferencesPath)
	if err != nil {
		zapLog.Fatal("reference set", zap.Error(err))
	}

	backend := handler.NewBackend()

	var zeebe *camunda.Client
	if cfg.Camunda.Enabled {
		zeebe, err = camunda.NewClientWithConfig(camunda.ConfigFromApp(cfg.Camunda))
		if err != nil {
			zapLog.Fatal("zeebe client", zap.Error(err))
		}
		defer zeebe.Close()
		checks["zeebe"] = zeebe.HealthCheck
	}

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine, err := router.Setup(backend, router.Options{
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		MaxBatchSize:   cfg.Server.MaxBatchSize,
		RequestTimeout: config.GetDuration(cfg.Server.RequestTimeout),
		Checks:         checks,
	}, log)
	if err != nil {
		zapLog.Fatal("router setup", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      engine,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}
	go func() {
		zapLog.Info("http server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	var metricsSrv *http.Server
	if cfg.Observability.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: cfg.Observability.MetricsAddress, Handler: mux}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zapLog.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	// The listener is up before warm-up so /health answers and /ready reports loading.
	idx, err := buildIndex(ctx, emb, refs, cfg.Embedding.StartupRetries,
		config.GetDuration(cfg.Embedding.StartupBackoff), logger.ForComponent(log, "warmup"))
	if err != nil {
		if ctx.Err() == nil {
			zapLog.Fatal("reference index", zap.Error(err))
		}
	} else {
		classifier := intent.NewClassifier(idx, emb, cfg.Classifier.MinConfidence)
		extractor := intent.NewExtractor(cfg.Extractor.BareNumberMinDigits)
		svc := intent.NewService(classifier, extractor, obs, log)
		backend.Set(svc)

		zapLog.Info("reference index ready",
			zap.String("version", idx.Version()),
			zap.Int("anchors", idx.Size()),
			zap.Int("dimensions", idx.Dim()),
			zap.Strings("extractorRules", extractor.Rules()),
		)

		if zeebe != nil {
			wcfg := classifymessage.ConfigFromApp(cfg)
			if wcfg.Enabled {
				h, err := classifymessage.NewHandler(wcfg, svc, log)
				if err != nil {
					zapLog.Fatal("classify-message handler", zap.Error(err))
				}
				w := camunda.NewWorker(zeebe.GetClient(), camunda.WorkerOptions{
					TaskType:      classifymessage.TaskType,
					MaxJobsActive: wcfg.MaxJobsActive,
					Timeout:       wcfg.Timeout,
				}, h, log)
				defer w.Stop()
			} else {
				zapLog.Info("worker disabled", zap.String("taskType", classifymessage.TaskType))
			}
		}
	}

	<-ctx.Done()
	zapLog.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown", zap.Error(err))
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	zapLog.Info("intent service stopped")
}
