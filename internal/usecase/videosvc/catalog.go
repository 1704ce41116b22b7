package videosvc

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/sir_venger/vidstream/internal/models"
)

// List перечитывает директорию и возвращает видеофайлы с разрешёнными расширениями.
// Индекс не кэшируется: каждый вызов отражает текущее состояние диска.
func (s *Videos) List(ctx context.Context) ([]models.Video, error) {
	ctx, span := tracer.Start(ctx, "videosvc.list")
	defer span.End()

	entries, err := s.Dir.List(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %v", models.ErrListFailed, err)
	}

	videos := make([]models.Video, 0, len(entries))
	for _, e := range entries {
		ext := filepath.Ext(e.Name)
		if !s.allowedExt(ext) {
			continue
		}
		videos = append(videos, models.Video{
			ID:        e.Name,
			Name:      strings.TrimSuffix(e.Name, ext),
			Filename:  e.Name,
			Size:      e.Size,
			CreatedAt: e.CreatedAt,
		})
	}

	span.SetAttributes(attribute.Int("video_count", len(videos)))
	return videos, nil
}
