// Package auth даёт простую сессионную защиту для edge-прокси. Администратор один,
// сессия хранится как JWT в httpOnly cookie.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sir_venger/vidstream/internal/models"
	"github.com/sir_venger/vidstream/pkg/httperrors"
)

const (
	CookieName = "video_app_auth"
	SessionTTL = 7 * 24 * time.Hour

	issuer = "vidstream"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Gate решает, пропускать ли запрос к защищённым маршрутам.
type Gate interface {
	Login(username, password string) (string, error)
	Authenticated(r *http.Request) bool
	Middleware(next http.Handler) http.Handler
}

type Options struct {
	Username string
	Password string
	Secret   string
	Secure   bool
	Now      func() time.Time
}

// JWTGate выдаёт HS256-токены на 7 дней и проверяет их по cookie.
type JWTGate struct {
	username []byte
	password []byte
	secret   []byte
	secure   bool
	now      func() time.Time
}

type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// NewJWTGate создаёт гейт. Пустой секрет заменяется случайным:
// сессии тогда не переживают перезапуск процесса.
func NewJWTGate(opts Options) (*JWTGate, error) {
	if opts.Username == "" || opts.Password == "" {
		return nil, errors.New("auth: admin credentials are not configured")
	}

	secret := []byte(opts.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("auth: generate secret: %w", err)
		}
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &JWTGate{
		username: []byte(opts.Username),
		password: []byte(opts.Password),
		secret:   secret,
		secure:   opts.Secure,
		now:      now,
	}, nil
}

func (g *JWTGate) Login(username, password string) (string, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), g.username) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), g.password) == 1
	if !userOK || !passOK {
		return "", ErrInvalidCredentials
	}

	now := g.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
		},
	})

	return tok.SignedString(g.secret)
}

// Verify проверяет подпись, алгоритм и срок действия токена.
func (g *JWTGate) Verify(token string) error {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (any, error) {
		return g.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return models.ErrUnauthorized
	}

	return nil
}

func (g *JWTGate) Authenticated(r *http.Request) bool {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return false
	}

	return g.Verify(c.Value) == nil
}

func (g *JWTGate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.Authenticated(r) {
			httperrors.Write(w, models.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// sessionCookie строит cookie с токеном; maxAge < 0 удаляет её.
func sessionCookie(token string, maxAge int, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// NoopGate пропускает всё. Для тестов и локального запуска.
type NoopGate struct{}

func (NoopGate) Login(string, string) (string, error) { return "noop", nil }

func (NoopGate) Authenticated(*http.Request) bool { return true }

func (NoopGate) Middleware(next http.Handler) http.Handler { return next }
