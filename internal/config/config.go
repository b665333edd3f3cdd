package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Redis     RedisConfig     `mapstructure:"redis"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Session   SessionConfig   `mapstructure:"session"`
	Callback  CallbackConfig  `mapstructure:"callback"`
	Persona   PersonaConfig   `mapstructure:"persona"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	Debug       bool   `mapstructure:"debug"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	HTTPPort        int           `mapstructure:"http_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
}

type AuthConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
}

type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type NATSConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	URL        string `mapstructure:"url"`
	StreamName string `mapstructure:"stream_name"`
}

// EngineConfig carries the tunable thresholds of the callback decision
// protocol. Zero values are replaced by defaults at load time.
type EngineConfig struct {
	ScamConfidenceFloor     float64 `mapstructure:"scam_confidence_floor"`
	HighConfidenceThreshold float64 `mapstructure:"high_confidence_threshold"`
	EarlyTriggerWindow      int     `mapstructure:"early_trigger_window"`
	MinIntelligenceItems    int     `mapstructure:"min_intelligence_items"`
	MinEngagementTurns      int     `mapstructure:"min_engagement_turns"`
	HardCeilingTurns        int     `mapstructure:"hard_ceiling_turns"`
}

type SessionConfig struct {
	MaxSessions int           `mapstructure:"max_sessions"`
	IdleTTL     time.Duration `mapstructure:"idle_ttl"`
}

type CallbackConfig struct {
	URL        string        `mapstructure:"url"`
	AuthToken  string        `mapstructure:"auth_token"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

type PersonaConfig struct {
	Name     string `mapstructure:"name"`
	Language string `mapstructure:"language"` // force language, empty = auto
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/lurelab")
	}

	v.SetEnvPrefix("LURELAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind nested env vars explicitly (viper doesn't auto-bind nested struct fields)
	v.BindEnv("auth.api_key", "LURELAB_AUTH_API_KEY")
	v.BindEnv("callback.url", "LURELAB_CALLBACK_URL")
	v.BindEnv("callback.auth_token", "LURELAB_CALLBACK_AUTH_TOKEN")
	v.BindEnv("redis.enabled", "LURELAB_REDIS_ENABLED")
	v.BindEnv("redis.host", "LURELAB_REDIS_HOST")
	v.BindEnv("redis.port", "LURELAB_REDIS_PORT")
	v.BindEnv("redis.password", "LURELAB_REDIS_PASSWORD")
	v.BindEnv("nats.enabled", "LURELAB_NATS_ENABLED")
	v.BindEnv("nats.url", "LURELAB_NATS_URL")
	v.BindEnv("app.environment", "LURELAB_APP_ENVIRONMENT")

	if err := v.ReadInConfig(); err != nil {
		// A missing default config file is fine, env vars and defaults
		// carry the setup. An explicitly named file must exist.
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// LoadDefault loads configuration with default path
func LoadDefault() (*Config, error) {
	return Load("")
}

// ApplyDefaults fills zero-valued tunables with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = 8080
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	c.Engine = c.Engine.withDefaults()
	if c.Session.MaxSessions == 0 {
		c.Session.MaxSessions = 10000
	}
	if c.Session.IdleTTL == 0 {
		c.Session.IdleTTL = 2 * time.Hour
	}
	if c.Callback.Timeout == 0 {
		c.Callback.Timeout = 10 * time.Second
	}
	if c.Callback.MaxRetries == 0 {
		c.Callback.MaxRetries = 2
	}
	if c.Callback.RetryDelay == 0 {
		c.Callback.RetryDelay = time.Second
	}
	if c.RateLimit.RequestsPerMinute == 0 {
		c.RateLimit.RequestsPerMinute = 120
	}
}

func (e EngineConfig) withDefaults() EngineConfig {
	if e.ScamConfidenceFloor == 0 {
		e.ScamConfidenceFloor = 30
	}
	if e.HighConfidenceThreshold == 0 {
		e.HighConfidenceThreshold = 75
	}
	if e.EarlyTriggerWindow == 0 {
		e.EarlyTriggerWindow = 4
	}
	if e.MinIntelligenceItems == 0 {
		e.MinIntelligenceItems = 2
	}
	if e.MinEngagementTurns == 0 {
		e.MinEngagementTurns = 6
	}
	if e.HardCeilingTurns == 0 {
		e.HardCeilingTurns = 10
	}
	return e
}

// DefaultEngineConfig returns the default decision thresholds.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{}.withDefaults()
}
