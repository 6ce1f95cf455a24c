package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2/styles"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const (
	AuthModeBackend = "backend"
	AuthModeGitHub  = "github"

	MediaBackendLocal = "local"
	MediaBackendS3    = "s3"
)

type Config struct {
	Addr          string `env:"ADDR" envDefault:":8080"`
	AppURL        string `env:"APP_URL" envDefault:"http://localhost:8080"`
	Debug         bool   `env:"DEBUG" envDefault:"false"`
	SessionSecret string `env:"SESSION_SECRET" envDefault:"change-me-in-production"`

	Content ContentConfig
	Auth    AuthConfig
	Backend BackendConfig
	Media   MediaConfig
}

type ContentConfig struct {
	Dir             string `env:"CONTENT_DIR" envDefault:"./articles"`
	ListConcurrency int    `env:"LIST_CONCURRENCY" envDefault:"20"`
	HighlightStyle  string `env:"HIGHLIGHT_STYLE" envDefault:"onedark"`
}

type AuthConfig struct {
	Mode               string        `env:"AUTH_MODE" envDefault:"backend"`
	GithubClientID     string        `env:"GITHUB_CLIENT_ID"`
	GithubClientSecret string        `env:"GITHUB_CLIENT_SECRET"`
	GithubRedirectURL  string        `env:"GITHUB_REDIRECT_URL"`
	JWTSecret          string        `env:"JWT_SECRET"`
	JWTTTL             time.Duration `env:"JWT_TTL" envDefault:"168h"`
	AdminLogins        []string      `env:"ADMIN_LOGINS" envSeparator:","`
}

type BackendConfig struct {
	URL          string        `env:"API_URL" envDefault:"http://localhost:5657"`
	Timeout      time.Duration `env:"API_TIMEOUT" envDefault:"10s"`
	BlogFallback bool          `env:"BLOG_FALLBACK" envDefault:"false"`
}

type MediaConfig struct {
	Backend       string `env:"MEDIA_BACKEND" envDefault:"local"`
	Dir           string `env:"MEDIA_DIR" envDefault:"./uploads"`
	PublicURL     string `env:"MEDIA_PUBLIC_URL" envDefault:"/media"`
	S3Endpoint    string `env:"S3_ENDPOINT"`
	S3Region      string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Bucket      string `env:"S3_BUCKET" envDefault:"iris-media"`
	S3AccessKey   string `env:"S3_ACCESS_KEY"`
	S3SecretKey   string `env:"S3_SECRET_KEY"`
	S3PublicURL   string `env:"S3_PUBLIC_URL"`
	MaxUploadSize int64  `env:"MEDIA_MAX_UPLOAD" envDefault:"33554432"`
}

// Load reads .env (if present) and parses the environment into a Config.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()
	return parse(env.Options{})
}

// LoadFrom parses the given variables only, ignoring the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Auth.Mode {
	case AuthModeBackend, AuthModeGitHub:
	default:
		return fmt.Errorf("invalid AUTH_MODE %q", c.Auth.Mode)
	}
	switch c.Media.Backend {
	case MediaBackendLocal, MediaBackendS3:
	default:
		return fmt.Errorf("invalid MEDIA_BACKEND %q", c.Media.Backend)
	}
	if _, ok := styles.Registry[c.Content.HighlightStyle]; !ok {
		return fmt.Errorf("unknown HIGHLIGHT_STYLE %q", c.Content.HighlightStyle)
	}
	if c.Content.ListConcurrency < 1 {
		c.Content.ListConcurrency = 1
	}
	c.AppURL = strings.TrimRight(c.AppURL, "/")
	c.Backend.URL = strings.TrimRight(c.Backend.URL, "/")
	return nil
}

// OAuth returns the GitHub OAuth2 client configuration used in github auth mode.
func (c *Config) OAuth() *oauth2.Config {
	redirectURL := c.Auth.GithubRedirectURL
	if redirectURL == "" {
		redirectURL = c.AppURL + "/auth/callback"
	}
	return &oauth2.Config{
		ClientID:     c.Auth.GithubClientID,
		ClientSecret: c.Auth.GithubClientSecret,
		Scopes:       []string{"user:email"},
		Endpoint:     github.Endpoint,
		RedirectURL:  redirectURL,
	}
}

// IsAdminLogin reports whether a GitHub login is configured as an administrator.
func (c *Config) IsAdminLogin(login string) bool {
	for _, l := range c.Auth.AdminLogins {
		if strings.EqualFold(strings.TrimSpace(l), login) {
			return true
		}
	}
	return false
}
