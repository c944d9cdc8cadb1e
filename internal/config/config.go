package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application. Values are read from app.env in the given path
// and can be overridden by environment variables of the same name.
type Config struct {
	ServerAddress string `mapstructure:"SERVER_ADDRESS"`
	DBSource      string `mapstructure:"DB_SOURCE"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`
	LogPretty     bool   `mapstructure:"LOG_PRETTY"`

	GeocoderURL      string        `mapstructure:"GEOCODER_URL"`
	GeocoderTimeout  time.Duration `mapstructure:"GEOCODER_TIMEOUT"`
	GeocodeDelay     time.Duration `mapstructure:"GEOCODE_DELAY"`
	BreakerThreshold int           `mapstructure:"BREAKER_THRESHOLD"`
	BreakerReset     time.Duration `mapstructure:"BREAKER_RESET"`

	EnvSettleDelay        time.Duration `mapstructure:"ENV_SETTLE_DELAY"`
	ContainerInitialDelay time.Duration `mapstructure:"CONTAINER_INITIAL_DELAY"`
	ContainerPollInterval time.Duration `mapstructure:"CONTAINER_POLL_INTERVAL"`
	ContainerMaxRetries   int           `mapstructure:"CONTAINER_MAX_RETRIES"`
	SessionTTL            time.Duration `mapstructure:"SESSION_TTL"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_ADDRESS", "0.0.0.0:8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)

	v.SetDefault("GEOCODER_TIMEOUT", 10*time.Second)
	v.SetDefault("GEOCODE_DELAY", time.Second)
	v.SetDefault("BREAKER_THRESHOLD", 3)
	v.SetDefault("BREAKER_RESET", time.Minute)

	v.SetDefault("ENV_SETTLE_DELAY", 100*time.Millisecond)
	v.SetDefault("CONTAINER_INITIAL_DELAY", 10*time.Millisecond)
	v.SetDefault("CONTAINER_POLL_INTERVAL", 200*time.Millisecond)
	v.SetDefault("CONTAINER_MAX_RETRIES", 10)
	v.SetDefault("SESSION_TTL", 30*time.Minute)
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range []string{"DB_SOURCE", "GEOCODER_URL"} {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("config: failed to bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate rejects settings the map pipeline and backfill cannot run with.
func (c Config) Validate() error {
	if c.ContainerMaxRetries < 0 {
		return fmt.Errorf("config: CONTAINER_MAX_RETRIES must not be negative, got %d", c.ContainerMaxRetries)
	}
	if c.BreakerThreshold < 1 {
		return fmt.Errorf("config: BREAKER_THRESHOLD must be at least 1, got %d", c.BreakerThreshold)
	}
	if c.ContainerPollInterval <= 0 {
		return fmt.Errorf("config: CONTAINER_POLL_INTERVAL must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("config: SESSION_TTL must be positive")
	}
	return nil
}
