package mediahttp

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sir_venger/vidstream/internal/usecase/videosvc"
	"github.com/sir_venger/vidstream/pkg/httperrors"
)

const manualGCTTL = time.Hour

type gcResponse struct {
	Removed int `json:"removed"`
}

// gcOnce вручную запускает уборку временных файлов старше часа.
func (a *Server) gcOnce(w http.ResponseWriter, _ *http.Request) {
	n, err := a.videos.SweepUploads(manualGCTTL)
	if err != nil {
		a.log.WithError(err).Warn("manual gc")
	}
	httperrors.JSON(w, http.StatusOK, gcResponse{Removed: n})
}

// RunGC периодически удаляет брошенные временные файлы загрузок до отмены ctx.
func RunGC(ctx context.Context, videos videosvc.Service, ttl, every time.Duration, log logrus.FieldLogger) error {
	if every <= 0 || ttl <= 0 {
		return nil
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := videos.SweepUploads(ttl); err != nil {
				log.WithError(err).Warn("upload gc")
			}
		case <-ctx.Done():
			return nil
		}
	}
}
