// Package mediaclient содержит HTTP-клиент медиасервера. Используется edge-прокси
// (проксирование без разбора тела) и CLI-загрузчиком (с индикатором прогресса).
package mediaclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sir_venger/vidstream/internal/models"
	"github.com/sir_venger/vidstream/pkg/mediaproto"
)

const probeTimeout = 2 * time.Second

// Client описывает обращения к медиасерверу.
type Client interface {
	// Fetch выполняет GET или HEAD {base}{path}?{query} с заголовком Range. Тело закрывает вызывающий.
	Fetch(ctx context.Context, method, path, rawQuery, rangeHeader string) (*http.Response, error)
	// Post пересылает готовое тело (обычно multipart) на {base}{path} как есть.
	Post(ctx context.Context, path string, body io.Reader, contentType string, size int64) (*http.Response, error)
	// List возвращает каталог.
	List(ctx context.Context) ([]models.Video, error)
	// Probe проверяет /health медиасервера.
	Probe(ctx context.Context) error
}

type Option func(*HTTPClient)

// WithHTTPClient подменяет транспорт (тесты, таймауты).
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) { h.c = c }
}

// WithProgress включает индикатор прогресса в out (обычно os.Stdout для CLI).
func WithProgress(out io.Writer) Option {
	return func(h *HTTPClient) { h.progressOut = out }
}

// HTTPClient: реализация Client поверх net/http.
type HTTPClient struct {
	base        string
	c           *http.Client
	probe       *http.Client
	progressOut io.Writer
}

// New создаёт клиент к медиасерверу по адресу baseURL. Запросы трассируются через otelhttp.
func New(baseURL string, opts ...Option) *HTTPClient {
	h := &HTTPClient{
		base: strings.TrimRight(baseURL, "/"),
		c:    &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, o := range opts {
		o(h)
	}
	h.probe = &http.Client{Transport: h.c.Transport, Timeout: probeTimeout}

	return h
}

func (h *HTTPClient) BaseURL() string { return h.base }

func (h *HTTPClient) url(path, rawQuery string) string {
	u := h.base + path
	if rawQuery != "" {
		u += "?" + rawQuery
	}
	return u
}

func (h *HTTPClient) Fetch(ctx context.Context, method, path, rawQuery, rangeHeader string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, h.url(path, rawQuery), nil)
	if err != nil {
		return nil, err
	}
	if rangeHeader != "" {
		req.Header.Set(mediaproto.HeaderRange, rangeHeader)
	}

	return h.c.Do(req)
}

func (h *HTTPClient) Post(ctx context.Context, path string, body io.Reader, contentType string, size int64) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url(path, ""), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set(mediaproto.HeaderContentType, contentType)
	if size > 0 {
		req.ContentLength = size
	}

	return h.c.Do(req)
}

func (h *HTTPClient) List(ctx context.Context) ([]models.Video, error) {
	resp, err := h.Fetch(ctx, http.MethodGet, mediaproto.VideosPath, "", "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError("list", resp)
	}

	var videos []models.Video
	if err := json.NewDecoder(resp.Body).Decode(&videos); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	return videos, nil
}

func (h *HTTPClient) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url(mediaproto.HealthPath, ""), nil)
	if err != nil {
		return err
	}

	resp, err := h.probe.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: %s", resp.Status)
	}

	var payload mediaproto.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return err
	}
	if payload.Status != "ok" {
		return fmt.Errorf("media server status %q", payload.Status)
	}

	return nil
}

// Download сохраняет файл (или диапазон rangeHeader) в w, показывая прогресс.
func (h *HTTPClient) Download(ctx context.Context, filename, rangeHeader string, w io.Writer) (int64, error) {
	resp, err := h.Fetch(ctx, http.MethodGet, mediaproto.VideoPath(filename), "", rangeHeader)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return 0, responseError("download", resp)
	}

	if h.progressOut == nil {
		return io.Copy(w, resp.Body)
	}

	bar := newProgress(h.progressOut, "Downloading "+filename, resp.ContentLength)
	n, err := io.Copy(w, io.TeeReader(resp.Body, bar))
	bar.End(err)
	return n, err
}

// responseError достаёт {"error": "..."} из ответа, если он есть.
func responseError(op string, resp *http.Response) error {
	var eb mediaproto.ErrorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<10)).Decode(&eb); err == nil && eb.Error != "" {
		return fmt.Errorf("%s: %s: %s", op, resp.Status, eb.Error)
	}
	return fmt.Errorf("%s: %s", op, resp.Status)
}

func fileSize(f *os.File) int64 {
	st, err := f.Stat()
	if err != nil {
		return -1
	}
	return st.Size()
}
