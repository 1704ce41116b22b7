package mediahttp

import (
	"net/http"

	"github.com/sir_venger/vidstream/pkg/httperrors"
)

// listVideos отдаёт каталог, перечитывая директорию на каждый запрос.
func (a *Server) listVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := a.videos.List(r.Context())
	if err != nil {
		a.log.WithError(err).Error("list videos")
		httperrors.Write(w, err)
		return
	}

	httperrors.JSON(w, http.StatusOK, videos)
}
