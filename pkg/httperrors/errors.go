package httperrors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"syscall"

	"github.com/sir_venger/vidstream/internal/models"
	"github.com/sir_venger/vidstream/pkg/byterange"
	"github.com/sir_venger/vidstream/pkg/mediaproto"
)

// Write переводит доменную ошибку в HTTP-статус и JSON {"error": "..."}.
// Для невыполнимого диапазона дополнительно выставляет Content-Range: bytes */L.
func Write(w http.ResponseWriter, err error) {
	status, msg := Classify(err)

	var re *models.RangeError
	if errors.As(err, &re) {
		w.Header().Set(mediaproto.HeaderContentRange, byterange.Unsatisfied(re.Length))
	}

	JSON(w, status, mediaproto.ErrorBody{Error: msg})
}

// Classify возвращает статус и сообщение для клиента; детали ошибки наружу не уходят.
func Classify(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "Video not found"
	case errors.Is(err, models.ErrInvalidRange):
		return http.StatusRequestedRangeNotSatisfiable, "Requested range not satisfiable"
	case errors.Is(err, models.ErrNoFile):
		return http.StatusBadRequest, "No video file uploaded"
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, "Only video files are allowed"
	case errors.Is(err, models.ErrTooLarge):
		return http.StatusBadRequest, "File too large"
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, models.ErrListFailed):
		return http.StatusInternalServerError, "Failed to list videos"
	case errors.Is(err, models.ErrUploadFailed):
		return http.StatusInternalServerError, "Failed to upload video"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// JSON пишет v как JSON с заданным статусом.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(mediaproto.HeaderContentType, "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ClientGone сообщает, что ошибка записи тела вызвана уходом клиента: отменой запроса
// или обрывом соединения (EPIPE, ECONNRESET). Плеер так закрывает поток при каждой перемотке.
func ClientGone(r *http.Request, err error) bool {
	if r.Context().Err() != nil {
		return true
	}
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNRESET)
}
