package config

import (
	"log/slog"
	"net"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"

	"github.com/angeloszaimis/lbhealth/internal/healthcheck"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

const (
	EnvPrefix = "LBHEALTH"

	DefaultChecksFile     = "/etc/lbhealth.json"
	DefaultKillSwitchPath = "/etc/lbhealth.kill"
)

type ServerConfig struct {
	Address     string `mapstructure:"address"`
	Environment string `mapstructure:"environment"`
}

type ChecksConfig struct {
	File    string `mapstructure:"file"`
	Shell   string `mapstructure:"shell"`
	Timeout string `mapstructure:"timeout"`
}

type KillSwitchConfig struct {
	Path string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Checks     ChecksConfig     `mapstructure:"checks"`
	KillSwitch KillSwitchConfig `mapstructure:"kill_switch"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// SetDefaults registers the default value of every key on the global viper.
func SetDefaults() {
	viper.SetDefault("server.environment", EnvProd)
	viper.SetDefault("server.address", ":9000")
	viper.SetDefault("checks.file", DefaultChecksFile)
	viper.SetDefault("checks.shell", healthcheck.DefaultShell)
	viper.SetDefault("checks.timeout", "30s")
	viper.SetDefault("kill_switch.path", DefaultKillSwitchPath)
	viper.SetDefault("logging.level", LogLevelError)
}

// Load reads settings from defaults, an optional lbhealth.yaml, LBHEALTH_*
// environment variables and any flags bound to the global viper. defaults
// replaces built-in defaults for the given keys.
func Load(defaults map[string]any) (*Config, error) {
	SetDefaults()
	for key, value := range defaults {
		viper.SetDefault(key, value)
	}

	viper.SetConfigName("lbhealth")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/lbhealth")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Debug("config file not found, using defaults and environment variables")
	} else {
		slog.Debug("loaded config file", slog.String("file", viper.ConfigFileUsed()))
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	cfg.Logging.Level = NormalizeLevel(cfg.Logging.Level)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

// NormalizeLevel lowercases level and maps the WARNING and CRITICAL names
// used by older deployments onto warn and error.
func NormalizeLevel(level string) string {
	level = strings.ToLower(strings.TrimSpace(level))
	switch level {
	case "warning":
		return LogLevelWarn
	case "critical", "fatal":
		return LogLevelError
	default:
		return level
	}
}

// CheckTimeout returns the per-check deadline. Zero disables it.
func (c *Config) CheckTimeout() time.Duration {
	d, err := time.ParseDuration(c.Checks.Timeout)
	if err != nil {
		return 0
	}
	return d
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ServerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ServerConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Environment,
						validation.Required,
						validation.In(EnvDev, EnvStaging, EnvProd),
					),
					validation.Field(&sc.Address,
						validation.Required,
						validation.By(validateHostPort),
					),
				)
			}),
		),
		validation.Field(&c.Logging,
			validation.Required,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
				)
			}),
		),
		validation.Field(&c.Checks,
			validation.Required,
			validation.By(func(value interface{}) error {
				cc, ok := value.(ChecksConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ChecksConfig")
				}
				return validation.ValidateStruct(&cc,
					validation.Field(&cc.File, validation.Required),
					validation.Field(&cc.Shell, validation.Required),
					validation.Field(&cc.Timeout,
						validation.Required,
						validation.By(validateDuration),
					),
				)
			}),
		),
	)
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 10s, 1m, 0s)")
	}

	if d < 0 {
		return validation.NewError("validation_negative_duration", "must not be negative")
	}

	return nil
}
