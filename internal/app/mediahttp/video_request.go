package mediahttp

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/sir_venger/vidstream/internal/models"
)

// videoFilename достаёт имя файла из path-параметра Chi.
// Chi маршрутизирует по RawPath, если он есть, иначе по уже декодированному Path,
// поэтому экранирование снимается только в первом случае.
// Проверку на выход за пределы директории делает хранилище.
func videoFilename(r *http.Request) (string, error) {
	name := chi.URLParam(r, "filename")
	if name == "" {
		return "", models.ErrNotFound
	}
	if r.URL.RawPath == "" {
		return name, nil
	}

	name, err := url.PathUnescape(name)
	if err != nil {
		return "", models.ErrNotFound
	}

	return name, nil
}
