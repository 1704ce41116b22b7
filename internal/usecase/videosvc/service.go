package videosvc

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/sir_venger/vidstream/internal/models"
	"github.com/sir_venger/vidstream/internal/repo"
)

var tracer = otel.Tracer("vidstream-videosvc")

type (
	// Service объединяет операции каталога, выдачи и загрузки видео.
	Service interface {
		List(ctx context.Context) ([]models.Video, error)
		Open(ctx context.Context, filename, rangeSpec string) (*Media, error)
		Stream(ctx context.Context, w io.Writer, m *Media) (int64, error)
		Upload(ctx context.Context, req models.UploadRequest, r io.Reader) (models.UploadResult, error)
		SweepUploads(ttl time.Duration) (int, error)
	}
)

type Deps struct {
	Dir               *repo.VideoDir
	MaxUploadBytes    int64
	AllowedExtensions []string
	Log               logrus.FieldLogger
	// Now подменяется в тестах; по умолчанию time.Now.
	Now func() time.Time
}

type Videos struct {
	Deps
	allowed map[string]struct{}
}

// New конструирует сервис видео с заданными зависимостями.
func New(deps Deps) *Videos {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}

	allowed := make(map[string]struct{}, len(deps.AllowedExtensions))
	for _, e := range deps.AllowedExtensions {
		allowed["."+strings.ToLower(strings.TrimPrefix(e, "."))] = struct{}{}
	}

	return &Videos{Deps: deps, allowed: allowed}
}

var _ Service = (*Videos)(nil)

// allowedExt сообщает, входит ли расширение (с точкой) в разрешённый набор.
func (s *Videos) allowedExt(ext string) bool {
	_, ok := s.allowed[strings.ToLower(ext)]
	return ok
}

// SweepUploads удаляет брошенные временные файлы загрузок.
func (s *Videos) SweepUploads(ttl time.Duration) (int, error) {
	n, err := s.Dir.SweepTemp(ttl)
	if n > 0 {
		s.Log.WithField("removed", n).Info("stale uploads swept")
	}
	return n, err
}
