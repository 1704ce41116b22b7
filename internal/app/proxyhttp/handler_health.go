package proxyhttp

import (
	"net/http"
	"time"

	"github.com/sir_venger/vidstream/pkg/httperrors"
	"github.com/sir_venger/vidstream/pkg/mediaproto"
)

// health сообщает о живости прокси и доступности медиасервера.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	resp := mediaproto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Upstream:  "ok",
	}
	status := http.StatusOK

	if err := s.media.Probe(r.Context()); err != nil {
		s.log.WithError(err).Warn("media server health probe failed")
		resp.Status = "degraded"
		resp.Upstream = "unavailable"
		status = http.StatusServiceUnavailable
	}

	httperrors.JSON(w, status, resp)
}
