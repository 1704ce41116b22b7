package httperrors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sir_venger/vidstream/internal/models"
	"github.com/sir_venger/vidstream/pkg/byterange"
	"github.com/sir_venger/vidstream/pkg/mediaproto"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{models.ErrNotFound, http.StatusNotFound, "Video not found"},
		{fmt.Errorf("%w: x", models.ErrValidation), http.StatusBadRequest, "Only video files are allowed"},
		{fmt.Errorf("%w: x", models.ErrTooLarge), http.StatusBadRequest, "File too large"},
		{models.ErrNoFile, http.StatusBadRequest, "No video file uploaded"},
		{fmt.Errorf("%w: disk", models.ErrListFailed), http.StatusInternalServerError, "Failed to list videos"},
		{fmt.Errorf("%w: disk", models.ErrUploadFailed), http.StatusInternalServerError, "Failed to upload video"},
		{models.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range cases {
		status, msg := Classify(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.msg, msg)
	}
}

func TestWrite_RangeErrorSetsContentRange(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, &models.RangeError{Length: 1000, Err: byterange.ErrInvalidRange})

	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.Code)
	assert.Equal(t, "bytes */1000", rec.Header().Get("Content-Range"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body mediaproto.ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Requested range not satisfiable", body.Error)
}

func TestClientGone(t *testing.T) {
	live := httptest.NewRequest(http.MethodGet, "/api/video/clip.mp4", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cancelled := live.WithContext(ctx)

	pipe := &net.OpError{Op: "write", Net: "tcp", Err: os.NewSyscallError("write", syscall.EPIPE)}
	reset := &net.OpError{Op: "write", Net: "tcp", Err: os.NewSyscallError("write", syscall.ECONNRESET)}

	assert.True(t, ClientGone(live, pipe))
	assert.True(t, ClientGone(live, reset))
	assert.True(t, ClientGone(live, fmt.Errorf("stream: %w", context.Canceled)))
	assert.True(t, ClientGone(cancelled, errors.New("short write")))

	assert.False(t, ClientGone(live, errors.New("read /videos/clip.mp4: input/output error")))
}
