package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/sir_venger/vidstream/pkg/httperrors"
)

const maxLoginBody = 4 << 10

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type checkResponse struct {
	Authenticated bool `json:"authenticated"`
}

// Handlers обслуживает /api/auth/login, /api/auth/check и /api/auth/logout.
type Handlers struct {
	Gate   Gate
	Secure bool
	Log    logrus.FieldLogger
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBody)).Decode(&req); err != nil {
		httperrors.JSON(w, http.StatusBadRequest, loginResponse{Error: "Invalid request"})
		return
	}

	token, err := h.Gate.Login(req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			h.Log.WithError(err).Error("issue session token")
			httperrors.JSON(w, http.StatusInternalServerError, loginResponse{Error: "Internal server error"})
			return
		}
		h.Log.WithField("username", req.Username).Warn("login failed")
		httperrors.JSON(w, http.StatusUnauthorized, loginResponse{Error: "Invalid credentials"})
		return
	}

	http.SetCookie(w, sessionCookie(token, int(SessionTTL.Seconds()), h.Secure))
	httperrors.JSON(w, http.StatusOK, loginResponse{Success: true})
}

func (h *Handlers) Check(w http.ResponseWriter, r *http.Request) {
	httperrors.JSON(w, http.StatusOK, checkResponse{Authenticated: h.Gate.Authenticated(r)})
}

func (h *Handlers) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, sessionCookie("", -1, h.Secure))
	httperrors.JSON(w, http.StatusOK, loginResponse{Success: true})
}
