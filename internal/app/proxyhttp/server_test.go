package proxyhttp

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sir_venger/vidstream/internal/auth"
	"github.com/sir_venger/vidstream/internal/config"
	"github.com/sir_venger/vidstream/pkg/mediaclient"
	"github.com/sir_venger/vidstream/pkg/mediaproto"
)

type seen struct {
	mu          sync.Mutex
	method      string
	path        string
	rawQuery    string
	rangeHeader string
	contentType string
	body        string
}

func (s *seen) record(r *http.Request) {
	b, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.method = r.Method
	s.path = r.URL.EscapedPath()
	s.rawQuery = r.URL.RawQuery
	s.rangeHeader = r.Header.Get("Range")
	s.contentType = r.Header.Get("Content-Type")
	s.body = string(b)
}

func (s *seen) get() seen {
	s.mu.Lock()
	defer s.mu.Unlock()
	return seen{method: s.method, path: s.path, rawQuery: s.rawQuery, rangeHeader: s.rangeHeader, contentType: s.contentType, body: s.body}
}

// fakeMedia имитирует медиасервер: /api/video/clip.mp4 отдаёт 206, upload отвечает JSON.
func fakeMedia(t *testing.T, rec *seen) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		switch {
		case r.URL.Path == "/health":
			_ = json.NewEncoder(w).Encode(mediaproto.HealthResponse{Status: "ok"})
		case r.URL.Path == "/api/videos":
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `[]`)
		case r.URL.Path == "/api/video/clip.mp4":
			w.Header().Set("Content-Type", "video/mp4")
			w.Header().Set("Content-Range", "bytes 0-3/10")
			w.Header().Set("Accept-Ranges", "bytes")
			w.Header().Set("X-Internal-Node", "media-1")
			w.Header().Set("Set-Cookie", "leak=1")
			w.WriteHeader(http.StatusPartialContent)
			_, _ = io.WriteString(w, "abcd")
		case r.URL.Path == "/api/video/short.mp4":
			w.Header().Set("Content-Range", "bytes */10")
			w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		case r.URL.Path == "/api/upload" && r.Method == http.MethodPost:
			_, _ = io.WriteString(w, `{"message":"Video uploaded successfully","filename":"video-1-2.mp4","size":3,"path":"/api/video/video-1-2.mp4"}`)
		case r.URL.Path == "/api/broken":
			_, _ = io.WriteString(w, "<html>oops</html>")
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":"Video not found"}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newProxy(t *testing.T, mediaURL string, gate auth.Gate) *httptest.Server {
	t.Helper()
	log, _ := test.NewNullLogger()
	cfg := config.Default()
	cfg.MediaBaseURL = mediaURL

	p := httptest.NewServer(New(cfg, mediaclient.New(mediaURL), gate, log))
	t.Cleanup(p.Close)
	return p
}

func doGet(t *testing.T, url, rng string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if rng != "" {
		req.Header.Set("Range", rng)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestRelayHead_ForwardsMethodWithoutBody(t *testing.T) {
	rec := &seen{}
	media := fakeMedia(t, rec)
	p := newProxy(t, media.URL, auth.NoopGate{})

	req, err := http.NewRequest(http.MethodHead, p.URL+"/api/video/video/clip.mp4", nil)
	require.NoError(t, err)
	req.Header.Set("Range", "bytes=0-3")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusPartialContent, resp.StatusCode)
	assert.Equal(t, "bytes 0-3/10", resp.Header.Get("Content-Range"))
	assert.Equal(t, "video/mp4", resp.Header.Get("Content-Type"))

	got := rec.get()
	assert.Equal(t, http.MethodHead, got.method)
	assert.Equal(t, "/api/video/clip.mp4", got.path)
	assert.Equal(t, "bytes=0-3", got.rangeHeader)
}

func TestRelayGet_RangeAndHeaderAllowList(t *testing.T) {
	rec := &seen{}
	media := fakeMedia(t, rec)
	p := newProxy(t, media.URL, auth.NoopGate{})

	resp := doGet(t, p.URL+"/api/video/video/clip.mp4?t=5", "bytes=0-3")
	require.Equal(t, http.StatusPartialContent, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(body))

	assert.Equal(t, "bytes 0-3/10", resp.Header.Get("Content-Range"))
	assert.Equal(t, "video/mp4", resp.Header.Get("Content-Type"))
	assert.Equal(t, "bytes", resp.Header.Get("Accept-Ranges"))
	assert.Equal(t, "4", resp.Header.Get("Content-Length"))
	assert.Empty(t, resp.Header.Get("X-Internal-Node"))
	assert.Empty(t, resp.Header.Get("Set-Cookie"))

	got := rec.get()
	assert.Equal(t, "/api/video/clip.mp4", got.path)
	assert.Equal(t, "t=5", got.rawQuery)
	assert.Equal(t, "bytes=0-3", got.rangeHeader)
}

func TestRelayGet_Catalog(t *testing.T) {
	rec := &seen{}
	p := newProxy(t, fakeMedia(t, rec).URL, auth.NoopGate{})

	resp := doGet(t, p.URL+"/api/video/videos", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(b))
	assert.Equal(t, "/api/videos", rec.get().path)
}

func TestRelayGet_UpstreamErrors(t *testing.T) {
	p := newProxy(t, fakeMedia(t, &seen{}).URL, auth.NoopGate{})

	resp := doGet(t, p.URL+"/api/video/video/missing.mp4", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var eb mediaproto.ErrorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&eb))
	assert.Equal(t, "Video not found", eb.Error)

	resp = doGet(t, p.URL+"/api/video/video/short.mp4", "bytes=50-")
	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, resp.StatusCode)
	assert.Equal(t, "bytes */10", resp.Header.Get("Content-Range"))
}

func TestRelayGet_UpstreamDown(t *testing.T) {
	media := fakeMedia(t, &seen{})
	p := newProxy(t, media.URL, auth.NoopGate{})
	media.Close()

	resp := doGet(t, p.URL+"/api/video/video/clip.mp4", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var eb mediaproto.ErrorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&eb))
	assert.Equal(t, "Failed to stream video", eb.Error)
}

func TestRelayGet_RejectsDotDot(t *testing.T) {
	rec := &seen{}
	p := newProxy(t, fakeMedia(t, rec).URL, auth.NoopGate{})

	for _, path := range []string{"/api/video/..%2Fadmin%2Fgc", "/api/video/video/..%2F..%2Fhealth", "/api/video/"} {
		resp := doGet(t, p.URL+path, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
	assert.Empty(t, rec.get().path)
}

func TestRelayPost_RequiresSession(t *testing.T) {
	rec := &seen{}
	media := fakeMedia(t, rec)
	gate, err := auth.NewJWTGate(auth.Options{Username: "admin", Password: "password123", Secret: "k"})
	require.NoError(t, err)
	p := newProxy(t, media.URL, gate)

	const ct = "multipart/form-data; boundary=XYZ"
	form := "--XYZ\r\nContent-Disposition: form-data; name=\"video\"; filename=\"a.mp4\"\r\nContent-Type: video/mp4\r\n\r\nabc\r\n--XYZ--\r\n"

	resp, err := http.Post(p.URL+"/api/video/upload", ct, strings.NewReader(form))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, rec.get().path)

	login, err := http.Post(p.URL+"/api/auth/login", "application/json",
		strings.NewReader(`{"username":"admin","password":"password123"}`))
	require.NoError(t, err)
	defer login.Body.Close()
	require.Equal(t, http.StatusOK, login.StatusCode)
	cookies := login.Cookies()
	require.NotEmpty(t, cookies)

	req, err := http.NewRequest(http.MethodPost, p.URL+"/api/video/upload", strings.NewReader(form))
	require.NoError(t, err)
	req.Header.Set("Content-Type", ct)
	req.AddCookie(cookies[0])
	up, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer up.Body.Close()
	require.Equal(t, http.StatusOK, up.StatusCode)

	var ur mediaproto.UploadResponse
	require.NoError(t, json.NewDecoder(up.Body).Decode(&ur))
	assert.Equal(t, "video-1-2.mp4", ur.Filename)

	got := rec.get()
	assert.Equal(t, "/api/upload", got.path)
	assert.Equal(t, ct, got.contentType)
	assert.Equal(t, form, got.body)
}

func TestRelayPost_Failures(t *testing.T) {
	media := fakeMedia(t, &seen{})
	p := newProxy(t, media.URL, auth.NoopGate{})

	resp, err := http.Post(p.URL+"/api/video/broken", "multipart/form-data; boundary=x", strings.NewReader("--x--"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	media.Close()
	resp2, err := http.Post(p.URL+"/api/video/upload", "multipart/form-data; boundary=x", strings.NewReader("--x--"))
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp2.StatusCode)
	var eb mediaproto.ErrorBody
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&eb))
	assert.Equal(t, "Failed to upload video", eb.Error)
}

func TestHealth_ReportsUpstream(t *testing.T) {
	media := fakeMedia(t, &seen{})
	p := newProxy(t, media.URL, auth.NoopGate{})

	resp := doGet(t, p.URL+"/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var hr mediaproto.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&hr))
	assert.Equal(t, "ok", hr.Upstream)

	media.Close()
	resp = doGet(t, p.URL+"/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	hr = mediaproto.HealthResponse{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&hr))
	assert.Equal(t, "degraded", hr.Status)
	assert.Equal(t, "unavailable", hr.Upstream)
}
