package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Port            int           `yaml:"port" envconfig:"HTTP_PORT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"HTTP_REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"HTTP_SHUTDOWN_TIMEOUT"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" envconfig:"HTTP_MAX_BODY_BYTES"`
	CORSOrigins     []string      `yaml:"cors_origins" envconfig:"HTTP_CORS_ORIGINS"`
}

type WhatsAppConfig struct {
	APIURL        string        `yaml:"api_url" envconfig:"WHATSAPP_API_URL"`
	APIVersion    string        `yaml:"api_version" envconfig:"WHATSAPP_API_VERSION"`
	PhoneNumberID string        `yaml:"phone_number_id" envconfig:"WHATSAPP_PHONE_NUMBER_ID"`
	AccessToken   string        `yaml:"access_token" envconfig:"WHATSAPP_ACCESS_TOKEN"`
	VerifyToken   string        `yaml:"verify_token" envconfig:"WHATSAPP_VERIFY_TOKEN"`
	AppSecret     string        `yaml:"app_secret" envconfig:"WHATSAPP_APP_SECRET"` // enables X-Hub-Signature-256 checks
	RatePerSecond float64       `yaml:"rate_per_second" envconfig:"WHATSAPP_RATE_PER_SECOND"`
	Burst         int           `yaml:"burst" envconfig:"WHATSAPP_BURST"`
	Async         *bool         `yaml:"async" envconfig:"WHATSAPP_ASYNC"`
	Workers       int           `yaml:"workers" envconfig:"WHATSAPP_WORKERS"`
	QueueSize     int           `yaml:"queue_size" envconfig:"WHATSAPP_QUEUE_SIZE"`
	Timeout       time.Duration `yaml:"timeout" envconfig:"WHATSAPP_TIMEOUT"`
	// InboundPerMinute caps messages per sender per minute; needs redis. 0 disables.
	InboundPerMinute int `yaml:"inbound_per_minute" envconfig:"WHATSAPP_INBOUND_PER_MINUTE"`
}

type AppConfig struct {
	UploadDir     string `yaml:"upload_dir" envconfig:"APP_UPLOAD_DIR"`
	APIBaseURL    string `yaml:"api_base_url" envconfig:"APP_API_BASE_URL"`
	MaxImageBytes int64  `yaml:"max_image_bytes" envconfig:"APP_MAX_IMAGE_BYTES"`
	Version       string `yaml:"version" envconfig:"APP_VERSION"`
	Commit        string `yaml:"commit" envconfig:"APP_COMMIT"`
}

type CatalogConfig struct {
	RollbackOnImageFailure bool          `yaml:"rollback_on_image_failure" envconfig:"CATALOG_ROLLBACK_ON_IMAGE_FAILURE"`
	DefaultImageURL        string        `yaml:"default_image_url" envconfig:"CATALOG_DEFAULT_IMAGE_URL"`
	CacheTTL               time.Duration `yaml:"cache_ttl" envconfig:"CATALOG_CACHE_TTL"`
}

type StateConfig struct {
	Backend       string        `yaml:"backend" envconfig:"STATE_BACKEND"` // memory | redis
	IdleTimeout   time.Duration `yaml:"idle_timeout" envconfig:"STATE_IDLE_TIMEOUT"`
	SweepInterval time.Duration `yaml:"sweep_interval" envconfig:"STATE_SWEEP_INTERVAL"`
	LockTTL       time.Duration `yaml:"lock_ttl" envconfig:"STATE_LOCK_TTL"`
}

type LogConfig struct {
	Level    string `yaml:"level" envconfig:"LOG_LEVEL"`       // trace|debug|info|warn|error
	Format   string `yaml:"format" envconfig:"LOG_FORMAT"`     // json|console
	Sampling bool   `yaml:"sampling" envconfig:"LOG_SAMPLING"` // enable sampling in prod
}

type AdminConfig struct {
	JWTSecret string        `yaml:"jwt_secret" envconfig:"ADMIN_JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl" envconfig:"ADMIN_TOKEN_TTL"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url" envconfig:"DATABASE_URL"` // empty selects the in-memory repository
	MaxConns int32  `yaml:"max_conns" envconfig:"DATABASE_MAX_CONNS"`
	Migrate  bool   `yaml:"migrate" envconfig:"DATABASE_MIGRATE"`
}

type RedisConfig struct {
	URL      string        `yaml:"url" envconfig:"REDIS_URL"`
	Password string        `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" envconfig:"REDIS_DB"`
	TTL      time.Duration `yaml:"ttl" envconfig:"REDIS_TTL"`
}

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	WhatsApp WhatsAppConfig `yaml:"whatsapp"`
	App      AppConfig      `yaml:"app"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	State    StateConfig    `yaml:"state"`
	Log      LogConfig      `yaml:"log"`
	Admin    AdminConfig    `yaml:"admin"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`

	Runtime RuntimeConfig `yaml:"-" ignored:"true"`
}

// ParseFlags reads -config and -dev from the command line.
func ParseFlags() (path string, dev bool) {
	flag.StringVar(&path, "config", "config.yaml", "path to config yaml")
	flag.BoolVar(&dev, "dev", false, "development mode")
	flag.Parse()
	return path, dev
}

// LoadConfig reads the yaml file at path (a missing file is fine when the
// environment carries the settings), then .env, then environment overrides
// such as WHATSAPP_ACCESS_TOKEN or DATABASE_URL.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}

	cfg.applyDefaults()
	cfg.Runtime.Dev = dev
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.RequestTimeout <= 0 {
		c.HTTP.RequestTimeout = 60 * time.Second
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = 1 << 20
	}

	if c.WhatsApp.APIURL == "" {
		c.WhatsApp.APIURL = "https://graph.facebook.com"
	}
	c.WhatsApp.APIURL = strings.TrimRight(c.WhatsApp.APIURL, "/")
	if c.WhatsApp.APIVersion == "" {
		c.WhatsApp.APIVersion = "v18.0"
	}
	if c.WhatsApp.RatePerSecond <= 0 {
		c.WhatsApp.RatePerSecond = 20
	}
	if c.WhatsApp.Burst <= 0 {
		c.WhatsApp.Burst = 10
	}
	if c.WhatsApp.Async == nil {
		async := true
		c.WhatsApp.Async = &async
	}
	if c.WhatsApp.Workers <= 0 {
		c.WhatsApp.Workers = 4
	}
	if c.WhatsApp.QueueSize <= 0 {
		c.WhatsApp.QueueSize = c.WhatsApp.Workers * 64
	}
	if c.WhatsApp.Timeout <= 0 {
		c.WhatsApp.Timeout = 15 * time.Second
	}

	if c.App.UploadDir == "" {
		c.App.UploadDir = "./uploads"
	}
	c.App.APIBaseURL = strings.TrimRight(c.App.APIBaseURL, "/")
	if c.App.MaxImageBytes <= 0 {
		c.App.MaxImageBytes = 16 << 20
	}
	if c.App.Version == "" {
		c.App.Version = "dev"
	}

	if c.Catalog.CacheTTL <= 0 {
		c.Catalog.CacheTTL = 10 * time.Minute
	}

	if c.State.Backend == "" {
		c.State.Backend = "memory"
	}
	c.State.Backend = strings.ToLower(c.State.Backend)
	if c.State.IdleTimeout <= 0 {
		c.State.IdleTimeout = 30 * time.Minute
	}
	if c.State.SweepInterval <= 0 {
		c.State.SweepInterval = time.Minute
	}
	if c.State.LockTTL <= 0 {
		c.State.LockTTL = 2 * time.Minute
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}

	if c.Admin.TokenTTL <= 0 {
		c.Admin.TokenTTL = 24 * time.Hour
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 8
	}
	c.Redis.TTL = normalizeTTL(c.Redis.TTL)
}

// Validate performs the minimal checks needed to boot.
func (c *Config) Validate() error {
	if c.WhatsApp.VerifyToken == "" {
		return errors.New("whatsapp.verify_token is required")
	}
	if c.App.APIBaseURL == "" {
		return errors.New("app.api_base_url is required")
	}
	if !c.Runtime.Dev {
		if c.WhatsApp.PhoneNumberID == "" {
			return errors.New("whatsapp.phone_number_id is required")
		}
		if c.WhatsApp.AccessToken == "" {
			return errors.New("whatsapp.access_token is required")
		}
	}
	switch c.State.Backend {
	case "memory":
	case "redis":
		if c.Redis.URL == "" {
			return errors.New("redis.url is required for state.backend=redis")
		}
	default:
		return fmt.Errorf("state.backend must be memory or redis, got %q", c.State.Backend)
	}
	return nil
}

// AsyncOutbound reports whether replies go through the worker queue.
func (c *Config) AsyncOutbound() bool {
	return c.WhatsApp.Async != nil && *c.WhatsApp.Async
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
