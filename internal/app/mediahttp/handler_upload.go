package mediahttp

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sir_venger/vidstream/internal/models"
	"github.com/sir_venger/vidstream/pkg/httperrors"
	"github.com/sir_venger/vidstream/pkg/mediaproto"
)

// uploadVideo читает multipart потоково и передаёт часть "video" сервису, не буферизуя файл целиком.
func (a *Server) uploadVideo(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.maxUploadBytes+multipartOverhead)

	mr, err := r.MultipartReader()
	if err != nil {
		httperrors.Write(w, fmt.Errorf("%w: %v", models.ErrNoFile, err))
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			httperrors.Write(w, models.ErrNoFile)
			return
		}
		if err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				httperrors.Write(w, fmt.Errorf("%w: %v", models.ErrTooLarge, err))
				return
			}
			httperrors.Write(w, fmt.Errorf("%w: %v", models.ErrNoFile, err))
			return
		}

		if part.FormName() != mediaproto.UploadField || part.FileName() == "" {
			_ = part.Close()
			continue
		}

		res, err := a.videos.Upload(r.Context(), models.UploadRequest{
			OriginalName: part.FileName(),
			ContentType:  part.Header.Get(mediaproto.HeaderContentType),
			Size:         -1,
		}, part)
		_ = part.Close()
		if err != nil {
			a.log.WithError(err).WithField("original", part.FileName()).Warn("upload rejected")
			httperrors.Write(w, err)
			return
		}

		httperrors.JSON(w, http.StatusOK, mediaproto.UploadResponse{
			Message:  "Video uploaded successfully",
			Filename: res.Filename,
			Size:     res.Size,
			Path:     res.Path,
		})
		return
	}
}
