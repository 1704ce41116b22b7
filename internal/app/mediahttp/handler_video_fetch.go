package mediahttp

import (
	"net/http"
	"strconv"

	"github.com/sir_venger/vidstream/pkg/httperrors"
	"github.com/sir_venger/vidstream/pkg/mediaproto"
)

// fetchVideo обслуживает GET/HEAD: весь файл (200) или диапазон из заголовка Range (206).
func (a *Server) fetchVideo(w http.ResponseWriter, r *http.Request) {
	name, err := videoFilename(r)
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	m, err := a.videos.Open(r.Context(), name, r.Header.Get(mediaproto.HeaderRange))
	if err != nil {
		httperrors.Write(w, err)
		return
	}
	defer m.Close()

	h := w.Header()
	h.Set(mediaproto.HeaderContentType, m.ContentType)
	h.Set(mediaproto.HeaderAcceptRanges, "bytes")
	h.Set(mediaproto.HeaderContentLength, strconv.FormatInt(m.Range.ChunkSize(), 10))

	status := http.StatusOK
	if m.Range.Partial {
		h.Set(mediaproto.HeaderContentRange, m.Range.ContentRange())
		status = http.StatusPartialContent
	}
	w.WriteHeader(status)

	if r.Method == http.MethodHead {
		return
	}

	// После WriteHeader статус уже не поменять: ошибку можно только залогировать и оборвать ответ.
	n, err := a.videos.Stream(r.Context(), w, m)
	if err != nil {
		entry := a.log.WithError(err).WithField("filename", name).WithField("written", n)
		if httperrors.ClientGone(r, err) {
			entry.Debug("client went away during stream")
			return
		}
		entry.Warn("stream aborted")
		panic(http.ErrAbortHandler)
	}
}
