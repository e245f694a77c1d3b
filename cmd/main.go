package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"vector-area/config"
	"vector-area/internal/api/telegram"
	"vector-area/internal/api/web"
	"vector-area/internal/container"
	"vector-area/internal/infrastructure/storage"
	"vector-area/internal/logger"
)

const (
	shutdownTimeout = 10 * time.Second
	exitTimeout     = 15 * time.Second
)

func startHTTPServer(cfg *config.Config, c *container.Container, log *logrus.Logger, g *errgroup.Group, groupCtx context.Context) {
	if cfg.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	server := web.NewServer(c.MeasurementService, c.Rasterizer, c.Metrics.Handler(), cfg.Server.MaxUploadBytes, log)
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		log.Infof("http server listening on %s", cfg.Server.Addr)

		go func() {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				log.WithError(err).Error("http server shutdown")
			} else {
				log.Info("http server stopped")
			}
		}()

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	})
}

func startBot(cfg *config.Config, c *container.Container, log *logrus.Logger, g *errgroup.Group, groupCtx context.Context) error {
	if !cfg.TelegramEnabled() {
		log.Info("telegram token is not set, bot disabled")
		return nil
	}

	bot, err := telegram.NewBot(cfg.Telegram.Token, c.UserService, c.MeasurementService, cfg.Server.MaxUploadBytes, log)
	if err != nil {
		return err
	}

	g.Go(func() error {
		log.Info("telegram bot is running")
		return bot.Run(groupCtx)
	})
	return nil
}

// sweepWorkspace периодически удаляет каталоги, оставшиеся после аварийного завершения
func sweepWorkspace(cfg *config.Config, c *container.Container, log *logrus.Logger, g *errgroup.Group, groupCtx context.Context) {
	if cfg.Workspace.StaleAge <= 0 {
		return
	}

	g.Go(func() error {
		ticker := time.NewTicker(cfg.Workspace.StaleAge)
		defer ticker.Stop()

		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
				if n, err := c.Workspace.Sweep(cfg.Workspace.StaleAge); err != nil {
					log.WithError(err).Warn("workspace sweep")
				} else if n > 0 {
					log.Infof("removed %d stale scratch directories", n)
				}
			}
		}
	})
}

func gracefulShutdown(cancel context.CancelFunc, log *logrus.Logger, g *errgroup.Group, groupCtx context.Context) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		log.Infof("received %v, shutting down", sig)
	case <-groupCtx.Done():
		log.Warn("a service stopped, shutting down")
	}

	cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			log.WithError(err).Error("shutdown finished with error")
			os.Exit(1)
		}
		log.Info("all services stopped")
	case <-time.After(exitTimeout):
		log.Error("shutdown timed out")
		os.Exit(1)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		logrus.Fatalf("failed to init logger: %v", err)
	}

	c, err := container.New(cfg, storage.NewMemoryUserRepository(), log)
	if err != nil {
		log.Fatalf("failed to build services: %+v", err)
	}

	if err := c.Rasterizer.Available(); err != nil {
		log.WithError(err).Warn("converter is not available, measurements will fail until it is installed")
	}

	if cfg.Workspace.StaleAge > 0 {
		if n, err := c.Workspace.Sweep(cfg.Workspace.StaleAge); err != nil {
			log.WithError(err).Warn("workspace sweep")
		} else if n > 0 {
			log.Infof("removed %d stale scratch directories", n)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, groupCtx := errgroup.WithContext(ctx)

	startHTTPServer(cfg, c, log, g, groupCtx)
	if err := startBot(cfg, c, log, g, groupCtx); err != nil {
		log.Fatalf("failed to start telegram bot: %+v", err)
	}
	sweepWorkspace(cfg, c, log, g, groupCtx)

	gracefulShutdown(cancel, log, g, groupCtx)
}
