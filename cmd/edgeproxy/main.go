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

	"github.com/sir_venger/vidstream/internal/app/proxyhttp"
	"github.com/sir_venger/vidstream/internal/auth"
	"github.com/sir_venger/vidstream/internal/config"
	"github.com/sir_venger/vidstream/internal/logging"
	"github.com/sir_venger/vidstream/internal/tracing"
	"github.com/sir_venger/vidstream/pkg/mediaclient"
)

const shutdownTimeout = 15 * time.Second

// main поднимает edge-прокси перед медиасервером.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}

	log := logging.New(cfg.ServiceName+"-proxy", cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.ServiceName+"-proxy", cfg.OTLPEndpoint)
	if err != nil {
		log.WithError(err).Fatal("init tracing")
	}

	if cfg.SessionSecret == "" {
		log.Warn("SESSION_SECRET is empty: using a random key, sessions reset on restart")
	}
	gate, err := auth.NewJWTGate(auth.Options{
		Username: cfg.AdminUsername,
		Password: cfg.AdminPassword,
		Secret:   cfg.SessionSecret,
		Secure:   cfg.SecureCookies,
	})
	if err != nil {
		log.WithError(err).Fatal("init auth")
	}

	media := mediaclient.New(cfg.MediaBaseURL)
	probeCtx, cancelProbe := context.WithTimeout(ctx, 3*time.Second)
	if err := media.Probe(probeCtx); err != nil {
		log.WithError(err).WithField("media", cfg.MediaBaseURL).Warn("media server is not reachable yet")
	}
	cancelProbe()

	server := &http.Server{
		Addr:              cfg.ProxyListenAddr,
		Handler:           proxyhttp.New(cfg, media, gate, log),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithFields(logrus.Fields{
			"addr":  cfg.ProxyListenAddr,
			"media": cfg.MediaBaseURL,
		}).Info("edge proxy listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("edge proxy shutdown")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("edge proxy stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.WithError(err).Warn("tracing shutdown")
	}
	log.Info("edge proxy stopped")
}
