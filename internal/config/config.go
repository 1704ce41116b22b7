package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultListenAddr      = ":8080"
	defaultProxyListenAddr = ":3000"
	defaultVideosDir       = "./videos"
	defaultMaxUploadBytes  = 500 << 20
	defaultMediaBaseURL    = "http://localhost:8080"
	defaultAdminUsername   = "admin"
	defaultAdminPassword   = "password123"
	defaultServiceName     = "vidstream"
	defaultGCTTL           = 24 * time.Hour
	defaultGCInterval      = 30 * time.Minute
)

// DefaultAllowedExtensions: расширения, которые принимает загрузка и показывает каталог.
var DefaultAllowedExtensions = []string{"mp4", "webm", "ogg"}

type Config struct {
	ListenAddr        string        `yaml:"listen_addr" json:"listen_addr"`
	ProxyListenAddr   string        `yaml:"proxy_listen_addr" json:"proxy_listen_addr"`
	VideosDir         string        `yaml:"videos_dir" json:"videos_dir"`
	MaxUploadBytes    int64         `yaml:"max_upload_bytes" json:"max_upload_bytes"`
	AllowedExtensions []string      `yaml:"allowed_extensions" json:"allowed_extensions"`
	UploadGCTTL       time.Duration `yaml:"upload_gc_ttl" json:"upload_gc_ttl"`
	UploadGCInterval  time.Duration `yaml:"upload_gc_interval" json:"upload_gc_interval"`

	MediaBaseURL  string   `yaml:"media_base_url" json:"media_base_url"`
	PublicBaseURL string   `yaml:"public_base_url" json:"public_base_url"`
	CORSOrigins   []string `yaml:"cors_origins" json:"cors_origins"`

	AdminUsername string `yaml:"admin_username" json:"-"`
	AdminPassword string `yaml:"admin_password" json:"-"`
	SessionSecret string `yaml:"session_secret" json:"-"`
	SecureCookies bool   `yaml:"secure_cookies" json:"secure_cookies"`

	ServiceName  string `yaml:"service_name" json:"service_name"`
	LogLevel     string `yaml:"log_level" json:"log_level"`
	LogFormat    string `yaml:"log_format" json:"log_format"`
	OTLPEndpoint string `yaml:"otlp_endpoint" json:"otlp_endpoint"`
}

// Default возвращает конфигурацию со значениями по умолчанию.
func Default() *Config {
	return &Config{
		ListenAddr:        defaultListenAddr,
		ProxyListenAddr:   defaultProxyListenAddr,
		VideosDir:         defaultVideosDir,
		MaxUploadBytes:    defaultMaxUploadBytes,
		AllowedExtensions: append([]string{}, DefaultAllowedExtensions...),
		UploadGCTTL:       defaultGCTTL,
		UploadGCInterval:  defaultGCInterval,
		MediaBaseURL:      defaultMediaBaseURL,
		CORSOrigins:       []string{"*"},
		AdminUsername:     defaultAdminUsername,
		AdminPassword:     defaultAdminPassword,
		ServiceName:       defaultServiceName,
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

// Load подгружает .env, читает YAML-конфигурацию (если файл есть), применяет ENV-переопределения
// и возвращает актуальную структуру.
func Load() (*Config, error) {
	c := Default()

	// .env не перекрывает уже выставленные переменные окружения и может задать CONFIG_PATH.
	_ = godotenv.Load()

	path := getenv("CONFIG_PATH", "./config.yaml")
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Файл конфигурации необязателен.
	default:
		return nil, err
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) applyEnv() error {
	// ENV override
	if v := os.Getenv("PORT"); v != "" {
		c.ListenAddr = ":" + v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("PROXY_LISTEN_ADDR"); v != "" {
		c.ProxyListenAddr = v
	}
	if v := os.Getenv("VIDEOS_DIR"); v != "" {
		c.VideosDir = v
	}
	if v := os.Getenv("MAX_UPLOAD_MB"); v != "" {
		mb, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_UPLOAD_MB: %w", err)
		}
		c.MaxUploadBytes = mb << 20
	}
	if v := os.Getenv("ALLOWED_EXTENSIONS"); v != "" {
		c.AllowedExtensions = splitList(v)
	}
	if v := os.Getenv("UPLOAD_GC_TTL_MIN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("UPLOAD_GC_TTL_MIN: %w", err)
		}
		c.UploadGCTTL = time.Duration(n) * time.Minute
	}
	if v := os.Getenv("UPLOAD_GC_INTERVAL_MIN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("UPLOAD_GC_INTERVAL_MIN: %w", err)
		}
		c.UploadGCInterval = time.Duration(n) * time.Minute
	}
	if v := os.Getenv("VIDEO_SERVER_URL"); v != "" {
		c.MediaBaseURL = v
	}
	if v := os.Getenv("PUBLIC_BASE_URL"); v != "" {
		c.PublicBaseURL = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("ADMIN_USERNAME"); v != "" {
		c.AdminUsername = v
	}
	if v := os.Getenv("ADMIN_PASSWORD"); v != "" {
		c.AdminPassword = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		c.SessionSecret = v
	}
	if v := os.Getenv("SECURE_COOKIES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SECURE_COOKIES: %w", err)
		}
		c.SecureCookies = b
	}
	if v := os.Getenv("SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("OTLP_ENDPOINT"); v != "" {
		c.OTLPEndpoint = v
	}

	return nil
}

// Validate проверяет обязательные поля и нормализует список расширений.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.VideosDir) == "" {
		return fmt.Errorf("videos_dir is not configured")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be > 0")
	}

	exts := make([]string, 0, len(c.AllowedExtensions))
	for _, e := range c.AllowedExtensions {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			exts = append(exts, e)
		}
	}
	if len(exts) == 0 {
		return fmt.Errorf("allowed_extensions is empty")
	}
	c.AllowedExtensions = exts

	return nil
}

// splitList понимает и "mp4|webm|ogg", и "mp4,webm,ogg".
func splitList(s string) []string {
	var out []string
	for _, p := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '|' }) {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}

	return def
}
