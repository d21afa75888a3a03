package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	httpAdapter "github.com/khoahotran/provenpro/adapters/http"
	"github.com/khoahotran/provenpro/internal/bootstrap"
	"github.com/khoahotran/provenpro/internal/config"
	"github.com/khoahotran/provenpro/pkg/logger"
	"github.com/khoahotran/provenpro/pkg/tracing"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()
	appLogger.Info("Start ProvenPro companion server...")

	tp, err := tracing.NewTracerProvider(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot init tracing", err)
	}
	defer tracing.Shutdown(tp, appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Sync core: profile API client, cache, drafts, use cases
	core, err := bootstrap.New(ctx, cfg, appLogger, bootstrap.Options{})
	if err != nil {
		appLogger.Fatal("Cannot build sync core", err)
	}
	defer core.Close()

	// HTTP Handlers
	sessionHandler := httpAdapter.NewSessionHandler(core.Session, appLogger)
	profileHandler := httpAdapter.NewProfileHandler(core.Profile, appLogger)
	draftHandler := httpAdapter.NewDraftHandler(core.Workspace, core.Sync, core.Delete, appLogger)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		Session: sessionHandler,
		Profile: profileHandler,
		Draft:   draftHandler,
		Metrics: core.Metrics.Handler(),
		Logger:  appLogger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("Server running", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Cannot run server", err)
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", err)
	}
}
