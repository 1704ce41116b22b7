package videosvc

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sir_venger/vidstream/internal/models"
	"github.com/sir_venger/vidstream/pkg/mediaproto"
)

const commitAttempts = 3

// Upload проверяет тип файла, пишет поток во временный файл и переименовывает его
// в уникальное имя video-{ts}-{rand}{ext}. При любой ошибке временный файл удаляется.
func (s *Videos) Upload(ctx context.Context, req models.UploadRequest, r io.Reader) (models.UploadResult, error) {
	ctx, span := tracer.Start(ctx, "videosvc.upload")
	defer span.End()
	span.SetAttributes(
		attribute.String("original_name", req.OriginalName),
		attribute.String("content_type", req.ContentType),
	)

	ext := strings.ToLower(filepath.Ext(req.OriginalName))
	if !s.allowedExt(ext) || !s.allowedMIME(req.ContentType) {
		return models.UploadResult{}, fmt.Errorf("%w: %q (%s)", models.ErrValidation, req.OriginalName, req.ContentType)
	}
	if req.Size > s.MaxUploadBytes {
		return models.UploadResult{}, fmt.Errorf("%w: declared %d bytes", models.ErrTooLarge, req.Size)
	}

	tmp, err := s.Dir.CreateTemp()
	if err != nil {
		span.RecordError(err)
		return models.UploadResult{}, fmt.Errorf("%w: %v", models.ErrUploadFailed, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	// Читаем на байт больше лимита, чтобы отличить "ровно лимит" от превышения.
	limited := &io.LimitedReader{R: ctxReader{ctx: ctx, r: r}, N: s.MaxUploadBytes + 1}
	size, err := io.Copy(tmp, limited)
	if err != nil {
		if isTooLarge(err) {
			return models.UploadResult{}, fmt.Errorf("%w: %v", models.ErrTooLarge, err)
		}
		span.RecordError(err)
		return models.UploadResult{}, fmt.Errorf("%w: %v", models.ErrUploadFailed, err)
	}
	if size > s.MaxUploadBytes {
		return models.UploadResult{}, fmt.Errorf("%w: more than %d bytes", models.ErrTooLarge, s.MaxUploadBytes)
	}
	if err := tmp.Sync(); err != nil {
		return models.UploadResult{}, fmt.Errorf("%w: %v", models.ErrUploadFailed, err)
	}
	if err := tmp.Close(); err != nil {
		return models.UploadResult{}, fmt.Errorf("%w: %v", models.ErrUploadFailed, err)
	}

	var name string
	for i := 0; i < commitAttempts; i++ {
		name = s.generateName(ext)
		err = s.Dir.Commit(tmpName, name)
		if !errors.Is(err, fs.ErrExist) {
			break
		}
	}
	if err != nil {
		span.RecordError(err)
		return models.UploadResult{}, fmt.Errorf("%w: %v", models.ErrUploadFailed, err)
	}
	committed = true

	span.SetAttributes(attribute.String("filename", name), attribute.Int64("size", size))
	s.Log.WithFields(logrus.Fields{
		"filename": name,
		"original": req.OriginalName,
		"size":     size,
	}).Info("video uploaded")

	return models.UploadResult{
		Filename: name,
		Size:     size,
		Path:     mediaproto.VideoPath(name),
	}, nil
}

// allowedMIME проверяет, что подтип заявленного MIME входит в набор расширений
// (video/mp4, video/webm, video/ogg, application/ogg и т.п.).
func (s *Videos) allowedMIME(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	_, sub, ok := strings.Cut(mt, "/")
	if !ok {
		return false
	}
	return s.allowedExt("." + sub)
}

// generateName строит имя вида video-{unixMillis}-{0..1e9}{ext}.
func (s *Videos) generateName(ext string) string {
	id := uuid.New()
	suffix := binary.BigEndian.Uint64(id[:8]) % 1_000_000_000
	return fmt.Sprintf("video-%d-%d%s", s.Now().UnixMilli(), suffix, ext)
}

// isTooLarge распознаёт срабатывание http.MaxBytesReader на теле запроса.
func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
