package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

const EnvPrefix = "LRH"

type Config struct {
	Mode           string   `mapstructure:"mode"`
	Port           int      `mapstructure:"port"`
	IdentitySecret string   `mapstructure:"identity_secret"`
	TrustProxy     bool     `mapstructure:"trust_proxy"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	HeroCatalog    string   `mapstructure:"hero_catalog"`

	RollDelay     time.Duration `mapstructure:"roll_delay"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`

	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	OutboxSize     int           `mapstructure:"outbox_size"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// Source is the config file that was read, empty when only defaults and
	// environment applied.
	Source string `mapstructure:"-"`
}

func (c *Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }

func (c *Config) Dev() bool { return c.Mode == "dev" || c.Mode == "debug" }

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 3010)
	v.SetDefault("identity_secret", "")
	v.SetDefault("trust_proxy", false)
	v.SetDefault("allowed_origins", []string{})
	v.SetDefault("hero_catalog", "")
	v.SetDefault("roll_delay", "2s")
	v.SetDefault("sweep_interval", "30s")
	v.SetDefault("idle_timeout", "180s")
	v.SetDefault("rate_limit_rps", 20.0)
	v.SetDefault("rate_limit_burst", 40)
	v.SetDefault("outbox_size", 16)
	v.SetDefault("write_timeout", "3s")
	v.SetDefault("read_timeout", "0s")
	v.SetDefault("shutdown_timeout", "10s")
}

// Load reads an optional .env, then config/config.<CONFIG_ENV>.yaml (dev by
// default), then LRH_* environment variables, later sources winning.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)
	v.SetConfigFile(fileName)

	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	source := fileName
	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", fileName, err)
		}
		source = ""
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Source = source

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var err error
	if c.Port <= 0 || c.Port > 65535 {
		err = multierr.Append(err, fmt.Errorf("port %d out of range", c.Port))
	}
	for name, d := range map[string]time.Duration{
		"roll_delay":       c.RollDelay,
		"sweep_interval":   c.SweepInterval,
		"idle_timeout":     c.IdleTimeout,
		"write_timeout":    c.WriteTimeout,
		"shutdown_timeout": c.ShutdownTimeout,
	} {
		if d <= 0 {
			err = multierr.Append(err, fmt.Errorf("%s must be positive", name))
		}
	}
	if c.ReadTimeout < 0 {
		err = multierr.Append(err, errors.New("read_timeout must not be negative"))
	}
	if c.OutboxSize <= 0 {
		err = multierr.Append(err, errors.New("outbox_size must be positive"))
	}
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
