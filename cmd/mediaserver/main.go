package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sir_venger/vidstream/internal/app/mediahttp"
	"github.com/sir_venger/vidstream/internal/config"
	"github.com/sir_venger/vidstream/internal/logging"
	"github.com/sir_venger/vidstream/internal/repo"
	"github.com/sir_venger/vidstream/internal/tracing"
	"github.com/sir_venger/vidstream/internal/usecase/videosvc"
)

const shutdownTimeout = 15 * time.Second

// main поднимает медиасервер и фоновую уборку временных файлов, завершается по SIGINT/SIGTERM.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}

	log := logging.New(cfg.ServiceName+"-media", cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.ServiceName+"-media", cfg.OTLPEndpoint)
	if err != nil {
		log.WithError(err).Fatal("init tracing")
	}

	dir, err := repo.OpenVideoDir(cfg.VideosDir)
	if err != nil {
		log.WithError(err).Fatal("open videos dir")
	}

	videos := videosvc.New(videosvc.Deps{
		Dir:               dir,
		MaxUploadBytes:    cfg.MaxUploadBytes,
		AllowedExtensions: cfg.AllowedExtensions,
		Log:               log,
	})

	// Остатки прерванных загрузок с прошлого запуска.
	if n, err := videos.SweepUploads(cfg.UploadGCTTL); err != nil {
		log.WithError(err).Warn("startup upload gc")
	} else if n > 0 {
		log.WithField("removed", n).Info("startup upload gc")
	}

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mediahttp.New(cfg, videos, log),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithFields(logrus.Fields{
			"addr":       cfg.ListenAddr,
			"videos_dir": dir.Root(),
			"max_upload": cfg.MaxUploadBytes,
			"extensions": cfg.AllowedExtensions,
		}).Info("media server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return mediahttp.RunGC(gctx, videos, cfg.UploadGCTTL, cfg.UploadGCInterval, log)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("media server shutdown")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("media server stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.WithError(err).Warn("tracing shutdown")
	}
	log.Info("media server stopped")
}
