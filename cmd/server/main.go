package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/agroyield/internal/config"
	"github.com/mamadbah2/agroyield/internal/repository/mongodb"
	"github.com/mamadbah2/agroyield/internal/repository/sheets"
	"github.com/mamadbah2/agroyield/internal/scheduler"
	"github.com/mamadbah2/agroyield/internal/server/handlers"
	"github.com/mamadbah2/agroyield/internal/server/router"
	advisorsvc "github.com/mamadbah2/agroyield/internal/service/advisor"
	estimationsvc "github.com/mamadbah2/agroyield/internal/service/estimation"
	reportingsvc "github.com/mamadbah2/agroyield/internal/service/reporting"
	"github.com/mamadbah2/agroyield/internal/service/tools"
	"github.com/mamadbah2/agroyield/pkg/clients/gemini"
	"github.com/mamadbah2/agroyield/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	mongoRepo, err := mongodb.NewMongoRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	// Sheets export is optional; the digest runs without it.
	var sheetRepo sheets.Repository
	if cfg.Sheets.SpreadsheetID != "" {
		sheetRepo, err = sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		baseLogger.Info("sheets history export enabled")
	} else {
		baseLogger.Warn("sheets credentials missing, history export disabled")
	}

	marketAdapter := tools.NewMarketPriceAdapter(cfg.Market, baseLogger.Named("tools.market"))
	weatherAdapter := tools.NewWeatherAdapter(cfg.Weather, baseLogger.Named("tools.weather"))
	toolRegistry := tools.NewRegistry(marketAdapter, weatherAdapter, baseLogger.Named("tools.registry"))

	aiClient := gemini.NewClient(cfg.AI.GeminiKey, cfg.AI.Model)

	estimationSvc := estimationsvc.NewService(aiClient, toolRegistry, mongoRepo, cfg.AI.MaxOutputTokens, baseLogger.Named("svc.estimation"))
	advisorSvc := advisorsvc.NewService(aiClient, cfg.AI.MaxOutputTokens, baseLogger.Named("svc.advisor"))
	reportingSvc := reportingsvc.NewService(mongoRepo, sheetRepo, cfg.Digest.RetentionDays, baseLogger.Named("svc.reporting"))

	estimationHandler := handlers.NewEstimationHandler(estimationSvc, advisorSvc, mongoRepo, baseLogger.Named("handlers.estimation"))
	engine := router.New(estimationHandler, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Digest, reportingSvc, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
