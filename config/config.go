package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var ErrInvalidConfig = errors.New("invalid configuration")

const (
	BackendCloudinary = "cloudinary"
	BackendWebDAV     = "webdav"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Widget   WidgetConfig
	WebDAV   WebDAVConfig
	Session  SessionConfig
	Security SecurityConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port               int
	Mode               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
	MaxMultipartMemory int64
}

// WidgetConfig carries the upload widget options. AccountID and
// UploadPresetID are the Cloudinary cloud name and upload preset.
type WidgetConfig struct {
	Backend        string
	AccountID      string
	UploadPresetID string
	APIKey         string
	APISecret      string
	MaxFileSize    int64
	AllowedFormats []string
	UploadTimeout  time.Duration
}

type WebDAVConfig struct {
	URL      string
	User     string
	Password string
}

type SessionConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

type SecurityConfig struct {
	RateLimitPerMinute float64
	AllowedDomains     []string
	RateLimitIPLookups []string
	TurnstileSecret    string
	TurnstileSiteKey   string
	TestToken          string
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnvAsInt("PORT", 8080),
			Mode:               getEnv("GIN_MODE", "debug"),
			ReadTimeout:        getEnvAsDuration("READ_TIMEOUT", 30*time.Second),
			WriteTimeout:       getEnvAsDuration("WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout:    getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
			MaxMultipartMemory: int64(getEnvAsInt("MAX_MULTIPART_MEMORY", 8<<20)),
		},
		Widget: WidgetConfig{
			Backend:        strings.ToLower(getEnv("UPLOAD_BACKEND", BackendCloudinary)),
			AccountID:      getEnv("CLOUDINARY_CLOUD_NAME", ""),
			UploadPresetID: getEnv("CLOUDINARY_UPLOAD_PRESET", ""),
			APIKey:         getEnv("CLOUDINARY_API_KEY", ""),
			APISecret:      getEnv("CLOUDINARY_API_SECRET", ""),
			MaxFileSize:    int64(getEnvAsInt("MAX_FILE_SIZE", 10*1024*1024)),
			AllowedFormats: getEnvAsList("ALLOWED_FORMATS", []string{"pdf", "jpg", "jpeg", "png"}),
			UploadTimeout:  getEnvAsDuration("UPLOAD_TIMEOUT", 2*time.Minute),
		},
		WebDAV: WebDAVConfig{
			URL:      getEnv("WEBDAV_URL", ""),
			User:     getEnv("WEBDAV_USER", ""),
			Password: getEnv("WEBDAV_PASSWORD", ""),
		},
		Session: SessionConfig{
			TTL:             getEnvAsDuration("SESSION_TTL", 2*time.Hour),
			CleanupInterval: getEnvAsDuration("CLEANUP_INTERVAL", 10*time.Minute),
		},
		Security: SecurityConfig{
			RateLimitPerMinute: getEnvAsFloat("RATE_LIMIT_PER_MINUTE", 60),
			AllowedDomains:     getEnvAsList("ALLOWED_DOMAINS", nil),
			RateLimitIPLookups: getEnvAsList("RATE_LIMIT_IP_LOOKUPS", []string{"RemoteAddr", "X-Forwarded-For", "X-Real-IP"}),
			TurnstileSecret:    getEnv("TURNSTILE_SECRET_KEY", ""),
			TurnstileSiteKey:   getEnv("TURNSTILE_SITE_KEY", ""),
			TestToken:          getEnv("TEST_TOKEN", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	// The browser widget needs the account and preset whichever backend
	// stores server-side uploads.
	if c.Widget.AccountID == "" {
		return fmt.Errorf("%w: CLOUDINARY_CLOUD_NAME is required", ErrInvalidConfig)
	}
	if c.Widget.UploadPresetID == "" {
		return fmt.Errorf("%w: CLOUDINARY_UPLOAD_PRESET is required", ErrInvalidConfig)
	}

	switch c.Widget.Backend {
	case BackendCloudinary:
	case BackendWebDAV:
		if c.WebDAV.URL == "" {
			return fmt.Errorf("%w: WEBDAV_URL is required for the webdav backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown UPLOAD_BACKEND %q", ErrInvalidConfig, c.Widget.Backend)
	}

	// The form page cannot produce tokens without a site key.
	if c.Security.TurnstileSecret != "" && c.Security.TurnstileSiteKey == "" {
		return fmt.Errorf("%w: TURNSTILE_SITE_KEY is required with TURNSTILE_SECRET_KEY", ErrInvalidConfig)
	}

	if c.Session.TTL <= 0 || c.Session.CleanupInterval <= 0 {
		return fmt.Errorf("%w: SESSION_TTL and CLEANUP_INTERVAL must be positive", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) Release() bool {
	return c.Server.Mode == "release"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
