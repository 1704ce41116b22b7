package mediaclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/sir_venger/vidstream/pkg/mediaproto"
)

// UploadFile отправляет локальный файл в поле "video" multipart-формы.
// Тело собирается на лету через io.Pipe, файл в память не читается.
func (h *HTTPClient) UploadFile(ctx context.Context, path string) (mediaproto.UploadResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return mediaproto.UploadResponse{}, err
	}
	defer f.Close()

	name := filepath.Base(path)
	var bar *progress
	src := io.Reader(f)
	if h.progressOut != nil {
		bar = newProgress(h.progressOut, "Uploading "+name, fileSize(f))
		src = io.TeeReader(f, bar)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeVideoPart(mw, name, src))
	}()

	resp, err := h.Post(ctx, mediaproto.UploadPath, pr, mw.FormDataContentType(), -1)
	if err != nil {
		_ = pr.CloseWithError(err)
		bar.End(err)
		return mediaproto.UploadResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = responseError("upload", resp)
		bar.End(err)
		return mediaproto.UploadResponse{}, err
	}

	var out mediaproto.UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		bar.End(err)
		return mediaproto.UploadResponse{}, fmt.Errorf("decode upload response: %w", err)
	}
	bar.End(nil)

	return out, nil
}

func writeVideoPart(mw *multipart.Writer, name string, src io.Reader) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, mediaproto.UploadField, name))
	h.Set(mediaproto.HeaderContentType, partContentType(name))

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, src); err != nil {
		return err
	}

	return mw.Close()
}

// partContentType: video/<расширение>, сервер сверяет подтип со списком разрешённых.
func partContentType(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		return "application/octet-stream"
	}
	return "video/" + ext
}
