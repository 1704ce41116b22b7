package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/sir_venger/vidstream/internal/app/mediahttp"
	"github.com/sir_venger/vidstream/internal/app/proxyhttp"
	"github.com/sir_venger/vidstream/internal/auth"
	"github.com/sir_venger/vidstream/internal/config"
	"github.com/sir_venger/vidstream/internal/repo"
	"github.com/sir_venger/vidstream/internal/usecase/videosvc"
	"github.com/sir_venger/vidstream/pkg/mediaclient"
	"github.com/sir_venger/vidstream/pkg/mediaproto"
)

// stack: медиасервер на временной директории и edge-прокси перед ним.
type stack struct {
	cfg    *config.Config
	dir    *repo.VideoDir
	videos *videosvc.Videos
	media  *httptest.Server
	proxy  *httptest.Server
}

func newStack(t *testing.T) *stack {
	t.Helper()

	log, _ := test.NewNullLogger()
	cfg := config.Default()
	cfg.VideosDir = t.TempDir()
	cfg.MaxUploadBytes = 8 << 20
	cfg.SessionSecret = "integration-secret"

	dir, err := repo.OpenVideoDir(cfg.VideosDir)
	require.NoError(t, err)

	videos := videosvc.New(videosvc.Deps{
		Dir:               dir,
		MaxUploadBytes:    cfg.MaxUploadBytes,
		AllowedExtensions: cfg.AllowedExtensions,
		Log:               log,
	})
	media := httptest.NewServer(mediahttp.New(cfg, videos, log))
	t.Cleanup(media.Close)
	cfg.MediaBaseURL = media.URL

	gate, err := auth.NewJWTGate(auth.Options{
		Username: cfg.AdminUsername,
		Password: cfg.AdminPassword,
		Secret:   cfg.SessionSecret,
	})
	require.NoError(t, err)

	proxy := httptest.NewServer(proxyhttp.New(cfg, mediaclient.New(media.URL), gate, log))
	t.Cleanup(proxy.Close)

	return &stack{cfg: cfg, dir: dir, videos: videos, media: media, proxy: proxy}
}

// login входит через прокси и возвращает cookie сессии.
func (s *stack) login(t *testing.T) *http.Cookie {
	t.Helper()

	body := `{"username":"` + s.cfg.AdminUsername + `","password":"` + s.cfg.AdminPassword + `"}`
	resp, err := http.Post(s.proxy.URL+"/api/auth/login", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, c := range resp.Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in login response", auth.CookieName)
	return nil
}

// uploadViaProxy отправляет файл в поле "video" через /api/video/upload.
func (s *stack) uploadViaProxy(t *testing.T, cookie *http.Cookie, filename, contentType string, data []byte) (*http.Response, []byte) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="video"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	pw, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = pw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, s.proxy.URL+"/api/video/upload", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, b
}

func decodeUpload(t *testing.T, b []byte) mediaproto.UploadResponse {
	t.Helper()
	var ur mediaproto.UploadResponse
	require.NoError(t, json.Unmarshal(b, &ur), string(b))
	return ur
}
