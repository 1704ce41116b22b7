package videosvc

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/sir_venger/vidstream/internal/models"
	"github.com/sir_venger/vidstream/pkg/byterange"
)

const (
	streamBufferSize   = 64 << 10
	defaultContentType = "video/mp4"
)

var contentTypes = map[string]string{
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".ogg":  "video/ogg",
}

// ContentType возвращает MIME по расширению файла, по умолчанию video/mp4.
func ContentType(filename string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return defaultContentType
}

// Media: открытый файл вместе с вычисленным диапазоном выдачи.
type Media struct {
	Filename    string
	ContentType string
	ModTime     time.Time
	Range       byterange.Range

	file *os.File
}

// Close освобождает файловый дескриптор.
func (m *Media) Close() error {
	if m == nil || m.file == nil {
		return nil
	}
	return m.file.Close()
}

// Open находит файл в каталоге и сопоставляет ему заголовок Range.
// Ошибки: ErrNotFound для отсутствующих/небезопасных имён, *models.RangeError для невыполнимых диапазонов.
func (s *Videos) Open(ctx context.Context, filename, rangeSpec string) (*Media, error) {
	_, span := tracer.Start(ctx, "videosvc.open")
	defer span.End()
	span.SetAttributes(attribute.String("filename", filename), attribute.String("range", rangeSpec))

	f, info, err := s.Dir.Open(filename)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			span.RecordError(err)
		}
		return nil, err
	}

	size := info.Size()
	rng, err := byterange.Resolve(rangeSpec, size)
	if err != nil {
		_ = f.Close()
		return nil, &models.RangeError{Length: size, Err: err}
	}

	span.SetAttributes(
		attribute.Int64("file_size", size),
		attribute.Bool("partial", rng.Partial),
	)

	return &Media{
		Filename:    filename,
		ContentType: ContentType(filename),
		ModTime:     info.ModTime(),
		Range:       rng,
		file:        f,
	}, nil
}

// Stream пишет в w байты [Start, End] без чтения файла в память целиком.
// Отмена ctx (обрыв соединения клиентом) прерывает копирование.
func (s *Videos) Stream(ctx context.Context, w io.Writer, m *Media) (int64, error) {
	ctx, span := tracer.Start(ctx, "videosvc.stream")
	defer span.End()

	n := m.Range.ChunkSize()
	if n == 0 {
		return 0, nil
	}

	section := io.NewSectionReader(m.file, m.Range.Start, n)
	buf := make([]byte, streamBufferSize)
	written, err := io.CopyBuffer(w, ctxReader{ctx: ctx, r: section}, buf)
	span.SetAttributes(attribute.Int64("bytes_written", written))
	if err != nil {
		span.RecordError(err)
		return written, err
	}

	return written, nil
}

// ctxReader прекращает чтение после отмены контекста.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
