// Package mediaproto описывает HTTP-протокол медиасервера: пути, заголовки и формы ответов.
package mediaproto

import "net/url"

// Пути REST-протокола медиасервера.
const (
	VideosPath      = "/api/videos"
	VideoPathPrefix = "/api/video/"
	UploadPath      = "/api/upload"
	HealthPath      = "/health"

	// UploadField: имя multipart-поля с файлом.
	UploadField = "video"
)

// Заголовки, которые относятся к выдаче медиа и пропускаются через edge-прокси.
const (
	HeaderRange              = "Range"
	HeaderContentType        = "Content-Type"
	HeaderContentLength      = "Content-Length"
	HeaderContentRange       = "Content-Range"
	HeaderAcceptRanges       = "Accept-Ranges"
	HeaderContentDisposition = "Content-Disposition"
)

// RelayHeaders: allow-list заголовков ответа, которые прокси копирует клиенту.
var RelayHeaders = []string{
	HeaderContentType,
	HeaderContentLength,
	HeaderContentRange,
	HeaderAcceptRanges,
	HeaderContentDisposition,
}

// VideoPath возвращает путь для выдачи файла filename.
func VideoPath(filename string) string {
	return VideoPathPrefix + url.PathEscape(filename)
}

// ErrorBody: JSON-тело всех ошибок API.
type ErrorBody struct {
	Error string `json:"error"`
}

// UploadResponse: ответ POST /api/upload.
type UploadResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Path     string `json:"path"`
}

// HealthResponse: ответ GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Upstream  string `json:"upstream,omitempty"`
}
