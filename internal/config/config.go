package config

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes every environment variable read by the dashboard.
const EnvPrefix = "DASHBOARD"

// Config captures runtime configuration for the dashboard.
type Config struct {
	// ListenAddr is where the dashboard server listens.
	ListenAddr string `mapstructure:"listen_addr"`
	// BackendOrigin hosts the /api/process endpoint tried first.
	BackendOrigin string `mapstructure:"backend_origin"`
	// ProxyOrigin is the same-origin fallback. The dashboard server itself
	// forwards /api to ProxyTarget, so by default it points back at ListenAddr.
	ProxyOrigin string `mapstructure:"proxy_origin"`
	// ProxyTarget is where the /api reverse proxy forwards requests.
	ProxyTarget string `mapstructure:"proxy_target"`
	// PrimaryTimeout bounds requests to BackendOrigin only.
	PrimaryTimeout time.Duration `mapstructure:"primary_timeout"`
	// AutoFetch loads the default dataset on start.
	AutoFetch bool `mapstructure:"auto_fetch"`
	// PayloadFile serves a saved payload instead of calling the backend.
	PayloadFile string `mapstructure:"payload_file"`

	Fetch FetchConfig `mapstructure:"fetch"`
	Chart ChartConfig `mapstructure:"chart"`
	Log   LogConfig   `mapstructure:"log"`
}

// FetchConfig throttles fetches triggered through the web UI.
type FetchConfig struct {
	RatePerSec float64 `mapstructure:"rate_per_sec"`
	Burst      int     `mapstructure:"burst"`
}

// ChartConfig sets the rendered chart size in pixels.
type ChartConfig struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// FromEnv creates a configuration sourced from .env, the environment and an
// optional dashboard.yaml in the working directory.
func FromEnv() (Config, error) {
	return Load("")
}

// Load is FromEnv with an explicit config file. An empty path searches the
// working directory for dashboard.yaml and tolerates its absence.
func Load(configFile string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("dashboard")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen_addr", ":3000")
	v.SetDefault("backend_origin", "http://localhost:8000")
	v.SetDefault("proxy_origin", "http://localhost:3000")
	v.SetDefault("proxy_target", "http://localhost:8000")
	v.SetDefault("primary_timeout", 10*time.Second)
	v.SetDefault("auto_fetch", true)
	v.SetDefault("payload_file", "")
	v.SetDefault("fetch.rate_per_sec", 2.0)
	v.SetDefault("fetch.burst", 4)
	v.SetDefault("chart.width", 960)
	v.SetDefault("chart.height", 480)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, eris.Wrap(err, "config: unmarshal")
	}
	cfg.BackendOrigin = strings.TrimRight(cfg.BackendOrigin, "/")
	cfg.ProxyOrigin = strings.TrimRight(cfg.ProxyOrigin, "/")
	cfg.ProxyTarget = strings.TrimRight(cfg.ProxyTarget, "/")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return eris.New("config: listen_addr is required")
	}
	for key, origin := range map[string]string{
		"backend_origin": c.BackendOrigin,
		"proxy_origin":   c.ProxyOrigin,
		"proxy_target":   c.ProxyTarget,
	} {
		u, err := url.Parse(origin)
		if err != nil {
			return eris.Wrapf(err, "config: parse %s", key)
		}
		if u.Scheme == "" || u.Host == "" {
			return eris.Errorf("config: %s must be an absolute URL, got %q", key, origin)
		}
	}
	if c.PrimaryTimeout <= 0 {
		return eris.Errorf("config: primary_timeout must be positive, got %s", c.PrimaryTimeout)
	}
	if c.Fetch.RatePerSec <= 0 || c.Fetch.Burst < 1 {
		return eris.Errorf("config: fetch rate %.2f/s burst %d is invalid", c.Fetch.RatePerSec, c.Fetch.Burst)
	}
	if c.Chart.Width <= 0 || c.Chart.Height <= 0 {
		return eris.Errorf("config: chart size %dx%d is invalid", c.Chart.Width, c.Chart.Height)
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
