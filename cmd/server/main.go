package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jengzang/tableviz/internal/api"
	"github.com/jengzang/tableviz/internal/config"
	"github.com/jengzang/tableviz/internal/database"
	"github.com/jengzang/tableviz/internal/handler"
	"github.com/jengzang/tableviz/internal/loader"
	"github.com/jengzang/tableviz/internal/logger"
	"github.com/jengzang/tableviz/internal/repository"
	"github.com/jengzang/tableviz/internal/scheduler"
	"github.com/jengzang/tableviz/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Setup(cfg.Log.Level, cfg.Log.Format)
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化数据库
	if err := database.Init(database.Config{Path: cfg.Database.Path}); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	timeout := time.Duration(cfg.Loader.TimeoutSeconds) * time.Second
	datasetService := service.NewDatasetService(
		repository.NewDatasetRepository(database.GetDB()),
		loader.New(loader.NewHTTPFetcher(timeout, cfg.Loader.MaxBytes)),
		service.Options{
			NoDataValue: cfg.Loader.NoDataValue,
			FontPath:    cfg.Legend.FontPath,
		},
	)

	if cfg.Refresh.Enabled {
		refresh, err := scheduler.NewRefreshScheduler(datasetService, cfg.Refresh.Schedule, 10*timeout)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create refresh scheduler")
		}
		if err := refresh.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start refresh scheduler")
		}
		defer refresh.Stop()
	}

	// 初始化路由
	router := api.SetupRouter(ctx, cfg, api.Handlers{
		Dataset: handler.NewDatasetHandler(datasetService, cfg.Loader.MaxBytes),
	})

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		// 启动服务器
		log.Info().Str("addr", cfg.Server.Port).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
}
