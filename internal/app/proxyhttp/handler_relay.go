package proxyhttp

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sir_venger/vidstream/internal/models"
	"github.com/sir_venger/vidstream/pkg/httperrors"
	"github.com/sir_venger/vidstream/pkg/mediaproto"
)

const maxUpstreamJSON = 1 << 20

// upstreamPath переводит /api/video/{rest} в /api/{rest}, сохраняя экранирование.
// Сегменты ".." не пропускаем: прокси не должен открывать пути вне /api.
func upstreamPath(r *http.Request) (string, bool) {
	rest := strings.TrimPrefix(r.URL.EscapedPath(), mountPrefix)
	if rest == "" {
		return "", false
	}
	dec, err := url.PathUnescape(rest)
	if err != nil {
		return "", false
	}
	for _, seg := range strings.Split(dec, "/") {
		if seg == ".." {
			return "", false
		}
	}

	return upstreamPrefix + rest, true
}

// relayGet проксирует GET и HEAD: статус и allow-list заголовков копируются, тело идёт потоком.
func (s *Server) relayGet(w http.ResponseWriter, r *http.Request) {
	path, ok := upstreamPath(r)
	if !ok {
		httperrors.Write(w, models.ErrNotFound)
		return
	}

	resp, err := s.media.Fetch(r.Context(), r.Method, path, r.URL.RawQuery, r.Header.Get(mediaproto.HeaderRange))
	if err != nil {
		s.log.WithError(err).WithField("upstream_path", path).Error("proxy video request")
		httperrors.JSON(w, http.StatusInternalServerError, mediaproto.ErrorBody{Error: "Failed to stream video"})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if cr := resp.Header.Get(mediaproto.HeaderContentRange); cr != "" {
			w.Header().Set(mediaproto.HeaderContentRange, cr)
		}
		httperrors.JSON(w, resp.StatusCode, mediaproto.ErrorBody{Error: "Video not found"})
		return
	}

	for _, h := range mediaproto.RelayHeaders {
		if v := resp.Header.Get(h); v != "" {
			w.Header().Set(h, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if r.Method == http.MethodHead {
		return
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		entry := s.log.WithError(err).WithField("upstream_path", path).WithField("written", n)
		if httperrors.ClientGone(r, err) {
			entry.Debug("client went away during relay")
			return
		}
		entry.Warn("relay aborted")
		panic(http.ErrAbortHandler)
	}
}

// relayPost пересылает multipart как есть (с исходным boundary) и возвращает JSON медиасервера.
func (s *Server) relayPost(w http.ResponseWriter, r *http.Request) {
	path, ok := upstreamPath(r)
	if !ok {
		httperrors.Write(w, models.ErrNotFound)
		return
	}

	resp, err := s.media.Post(r.Context(), path, r.Body, r.Header.Get(mediaproto.HeaderContentType), r.ContentLength)
	if err != nil {
		s.log.WithError(err).WithField("upstream_path", path).Error("proxy upload request")
		httperrors.JSON(w, http.StatusInternalServerError, mediaproto.ErrorBody{Error: "Failed to upload video"})
		return
	}
	defer resp.Body.Close()

	var body json.RawMessage
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxUpstreamJSON)).Decode(&body); err != nil {
		s.log.WithError(err).WithField("status", resp.StatusCode).Error("upstream upload answer is not JSON")
		httperrors.JSON(w, http.StatusInternalServerError, mediaproto.ErrorBody{Error: "Failed to upload video"})
		return
	}

	w.Header().Set(mediaproto.HeaderContentType, "application/json")
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(append(bytes.TrimSpace(body), '\n'))
}
