// Package proxyhttp реализует edge-прокси перед медиасервером. Он пробрасывает /api/video/* на
// {media}/api/*, пропуская только заголовки выдачи медиа, и держит маршруты входа.
// Загрузка (POST) закрыта сессией.
package proxyhttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sir_venger/vidstream/internal/auth"
	"github.com/sir_venger/vidstream/internal/config"
	"github.com/sir_venger/vidstream/internal/logging"
	"github.com/sir_venger/vidstream/internal/models"
	"github.com/sir_venger/vidstream/pkg/httperrors"
	"github.com/sir_venger/vidstream/pkg/mediaclient"
	"github.com/sir_venger/vidstream/pkg/mediaproto"
)

const (
	// mountPrefix: всё, что под ним, уходит на медиасервер как /api/{остаток}.
	mountPrefix    = "/api/video/"
	upstreamPrefix = "/api/"
)

type Server struct {
	media       mediaclient.Client
	gate        auth.Gate
	auth        *auth.Handlers
	log         logrus.FieldLogger
	corsOrigins []string
}

// New собирает обработчик прокси. gate защищает загрузку; для локального запуска подходит auth.NoopGate.
func New(cfg *config.Config, media mediaclient.Client, gate auth.Gate, log logrus.FieldLogger) http.Handler {
	srv := &Server{
		media:       media,
		gate:        gate,
		auth:        &auth.Handlers{Gate: gate, Secure: cfg.SecureCookies, Log: log},
		log:         log,
		corsOrigins: cfg.CORSOrigins,
	}

	return srv.routes()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, logging.Requests(s.log), middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   s.corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   mediaproto.RelayHeaders,
		AllowCredentials: true,
	}).Handler)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.Write(w, models.ErrNotFound)
	})

	r.Route("/api/auth", func(ar chi.Router) {
		ar.Post("/login", s.auth.Login)
		ar.Get("/check", s.auth.Check)
		ar.Post("/logout", s.auth.Logout)
	})

	r.Get(mountPrefix+"*", s.relayGet)
	r.Head(mountPrefix+"*", s.relayGet)
	r.With(s.gate.Middleware).Post(mountPrefix+"*", s.relayPost)

	r.Get(mediaproto.HealthPath, s.health)

	return otelhttp.NewHandler(r, "proxyhttp")
}
