package mediahttp

import (
	"net/http"
	"time"

	"github.com/sir_venger/vidstream/pkg/httperrors"
	"github.com/sir_venger/vidstream/pkg/mediaproto"
)

// health отвечает на проверки живости.
func (a *Server) health(w http.ResponseWriter, _ *http.Request) {
	httperrors.JSON(w, http.StatusOK, mediaproto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}
