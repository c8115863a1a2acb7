package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/api/handlers"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/database"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-autoplay/internal/services/tetris"
)

func main() {
	logger := log.Default().WithPrefix("api")

	if err := config.LoadDotEnv(); err != nil {
		logger.Warn("continuing without .env", "err", err)
	}

	cfg, err := config.Load("")
	if err != nil {
		logger.Fatal("設定の読み込みに失敗しました", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// データベースは任意。未設定の場合は結果を保存しない
	var resultRepo database.ResultRepository
	if cfg.Server.DatabaseURL != "" {
		db, err := database.NewDatabaseService(ctx, cfg.Server.DatabaseURL)
		if err != nil {
			logger.Fatal("データベースに接続できません", "err", err)
		}
		defer db.Close()
		if err := db.EnsureSchema(ctx); err != nil {
			logger.Fatal("スキーマの準備に失敗しました", "err", err)
		}
		resultRepo = database.NewResultRepository(db.DB)
	} else {
		logger.Warn("DATABASE_URL が設定されていないため、結果は保存されません")
	}

	sessionManager := tetris.NewSessionManager(cfg.Simulation, resultRepo, log.Default())
	go sessionManager.Run(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handlers.NewRouter(cfg.Server, sessionManager, resultRepo),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "addr", srv.Addr, "interval", cfg.Simulation.StepInterval.Duration)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("サーバーの起動に失敗しました", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
	sessionManager.Shutdown()
}
