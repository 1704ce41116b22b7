package mediahttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sir_venger/vidstream/internal/config"
	"github.com/sir_venger/vidstream/internal/logging"
	"github.com/sir_venger/vidstream/internal/models"
	"github.com/sir_venger/vidstream/internal/usecase/videosvc"
	"github.com/sir_venger/vidstream/pkg/httperrors"
	"github.com/sir_venger/vidstream/pkg/mediaproto"
)

// multipartOverhead: запас на заголовки multipart сверх лимита размера файла.
const multipartOverhead = 1 << 20

// Server serves the media HTTP API on top of the local filesystem.
type Server struct {
	videos         videosvc.Service
	log            logrus.FieldLogger
	maxUploadBytes int64
	corsOrigins    []string
}

// New создаёт HTTP-обработчик медиасервера поверх сервиса видео.
func New(cfg *config.Config, videos videosvc.Service, log logrus.FieldLogger) http.Handler {
	srv := &Server{
		videos:         videos,
		log:            log,
		maxUploadBytes: cfg.MaxUploadBytes,
		corsOrigins:    cfg.CORSOrigins,
	}

	return srv.routes()
}

// routes регистрирует обработчики каталога, выдачи, загрузки, здоровья и GC.
func (a *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, logging.Requests(a.log), middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: a.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: mediaproto.RelayHeaders,
	}).Handler)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.Write(w, models.ErrNotFound)
	})

	r.Get(mediaproto.VideosPath, a.listVideos)
	r.Route(mediaproto.VideoPathPrefix+"{filename}", func(vr chi.Router) {
		vr.Get("/", a.fetchVideo)
		vr.Head("/", a.fetchVideo)
	})
	r.Post(mediaproto.UploadPath, a.uploadVideo)

	r.Get(mediaproto.HealthPath, a.health)
	r.Post("/admin/gc", a.gcOnce)

	return otelhttp.NewHandler(r, "mediahttp")
}
