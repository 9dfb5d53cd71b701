package config

import (
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

const (
	publicFile  = "public.yaml"
	privateFile = "private.yaml"

	// EnvURL overrides Public.URL when set.
	EnvURL = "STRAPI_URL"
)

type Config struct {
	Public  Public
	private Private
}

type Public struct {
	URL            string        `yaml:"url" validate:"required,url"`
	Prefix         string        `yaml:"prefix" validate:"required"`
	Admin          string        `yaml:"admin" validate:"required"`
	Version        string        `yaml:"version" validate:"required"`
	CookieName     string        `yaml:"cookie_name" validate:"required"`
	LoggedUserKey  string        `yaml:"logged_user_key" validate:"required"`
	LoggedUserTTL  time.Duration `yaml:"logged_user_ttl"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	Log            Log           `yaml:"log"`
	Store          Store         `yaml:"store"`
	Frontend       Frontend      `yaml:"frontend"`
	Tracing        Tracing       `yaml:"tracing"`
}

type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type Store struct {
	Backend    string `yaml:"backend" validate:"oneof=memory redis sqlite"`
	RedisAddr  string `yaml:"redis_addr" validate:"required_if=Backend redis"`
	RedisDB    int    `yaml:"redis_db"`
	SqlitePath string `yaml:"sqlite_path" validate:"required_if=Backend sqlite"`
}

type Frontend struct {
	Port           string        `yaml:"port"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	SecureCookies  bool          `yaml:"secure_cookies"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes" validate:"gte=0"`
	// ServerSessions keeps the token and user in the configured store
	// instead of browser cookies; the browser only holds SessionCookie.
	ServerSessions bool          `yaml:"server_sessions"`
	SessionCookie  string        `yaml:"session_cookie" validate:"required_if=ServerSessions true"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
}

type Tracing struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint" validate:"required_if=Enabled true"`
}

type Private struct {
	RedisPassword string `yaml:"redis_password"`
}

func (c *Config) RedisPassword() string {
	return c.private.RedisPassword
}

// UserURL is the base of the end-user API: {url}/{prefix}.
func (p Public) UserURL() string {
	return strings.TrimRight(p.URL, "/") + "/" + strings.Trim(p.Prefix, "/")
}

// AdminURL is the base of the admin API, which is the server root.
func (p Public) AdminURL() string {
	return strings.TrimRight(p.URL, "/")
}

// MediaURL joins an uploaded file path onto the server root.
// Absolute URLs (e.g. files served by an external provider) are returned as is.
func (p Public) MediaURL(mediaPath string) string {
	if strings.HasPrefix(mediaPath, "http://") || strings.HasPrefix(mediaPath, "https://") {
		return mediaPath
	}
	if mediaPath == "" {
		return p.AdminURL()
	}
	return p.AdminURL() + "/" + strings.TrimLeft(mediaPath, "/")
}

// Default returns the hardcoded defaults every loaded config starts from.
func Default() *Config {
	return &Config{
		Public: Public{
			URL:            "http://localhost:1337",
			Prefix:         "api",
			Admin:          "admin",
			Version:        "v4",
			CookieName:     "strapi_jwt",
			LoggedUserKey:  "loggedUser",
			LoggedUserTTL:  90 * 24 * time.Hour,
			RequestTimeout: 30 * time.Second,
			Log:            Log{Level: "info"},
			Store:          Store{Backend: "memory", SqlitePath: "strapikit.db"},
			Frontend:       Frontend{Port: "8081", MaxUploadBytes: 50 << 20, SessionCookie: "strapikit_sid", SessionTTL: 30 * 24 * time.Hour},
		},
	}
}

func loadPath(configPath string, output interface{}, required bool) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if required {
			return fmt.Errorf("config file does not exist: %s", configPath)
		}
		return nil
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("can't read config file %s: %w", configPath, err)
	}
	if err := yaml.Unmarshal(configFile, output); err != nil {
		return fmt.Errorf("can't unmarshal config file %s: %w", configPath, err)
	}
	return nil
}

// Load reads public.yaml (required) and private.yaml (optional) from
// configFolder over the defaults, then applies the STRAPI_URL override.
func Load(configFolder string) (*Config, error) {
	cfg := Default()
	if err := loadPath(path.Join(configFolder, publicFile), &cfg.Public, true); err != nil {
		return nil, err
	}
	if err := loadPath(path.Join(configFolder, privateFile), &cfg.private, false); err != nil {
		return nil, err
	}
	if url := os.Getenv(EnvURL); url != "" {
		cfg.Public.URL = url
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad(configFolder string) *Config {
	cfg, err := Load(configFolder)
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c.Public); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
