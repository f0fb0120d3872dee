// Package config loads the command line tool configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Log configures logging.
type Log struct {
	Level string `mapstructure:"level"`
	// File enables JSON logging into a rotated file.
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// Clock configures the reference clock of message expirations.
type Clock struct {
	// Type is "system" or "ntp".
	Type         string        `mapstructure:"type"`
	NTPServer    string        `mapstructure:"ntp_server"`
	SyncInterval time.Duration `mapstructure:"sync_interval"`
}

// Message configures message construction.
type Message struct {
	// Timeout is the default expiration timeout, in seconds.
	Timeout   uint32 `mapstructure:"timeout"`
	Workchain int8   `mapstructure:"workchain"`
}

// Output configures result printing.
type Output struct {
	// Canonical prints results as canonical JSON (RFC 8785).
	Canonical bool `mapstructure:"canonical"`
}

// Configuration is the root configuration.
type Configuration struct {
	Log     Log     `mapstructure:"log"`
	Clock   Clock   `mapstructure:"clock"`
	Message Message `mapstructure:"message"`
	Output  Output  `mapstructure:"output"`
}

// EnvPrefix prefixes environment overrides, e.g. TVMABI_LOG_LEVEL.
const EnvPrefix = "TVMABI"

// NewConfiguration returns the default configuration.
func NewConfiguration() Configuration {
	return Configuration{
		Log: Log{
			Level:      "warn",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
		},
		Clock: Clock{
			Type:         "system",
			NTPServer:    "pool.ntp.org",
			SyncInterval: 10 * time.Minute,
		},
		Message: Message{
			Timeout: 60,
		},
	}
}

func setDefaults(vp *viper.Viper, cfg Configuration) {
	vp.SetDefault("log.level", cfg.Log.Level)
	vp.SetDefault("log.file", cfg.Log.File)
	vp.SetDefault("log.max_size", cfg.Log.MaxSize)
	vp.SetDefault("log.max_backups", cfg.Log.MaxBackups)
	vp.SetDefault("log.max_age", cfg.Log.MaxAge)
	vp.SetDefault("log.compress", cfg.Log.Compress)
	vp.SetDefault("clock.type", cfg.Clock.Type)
	vp.SetDefault("clock.ntp_server", cfg.Clock.NTPServer)
	vp.SetDefault("clock.sync_interval", cfg.Clock.SyncInterval)
	vp.SetDefault("message.timeout", cfg.Message.Timeout)
	vp.SetDefault("message.workchain", cfg.Message.Workchain)
	vp.SetDefault("output.canonical", cfg.Output.Canonical)
}

// Load reads the configuration from path, when given, then from the environment, over the defaults.
func Load(path string) (Configuration, error) {
	vp := viper.New()
	setDefaults(vp, NewConfiguration())

	vp.SetEnvPrefix(EnvPrefix)
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()

	if path != "" {
		vp.SetConfigFile(path)
		if err := vp.ReadInConfig(); err != nil {
			return Configuration{}, fmt.Errorf("failed to load configuration from file: %w", err)
		}
	}

	var cfg Configuration
	if err := vp.Unmarshal(&cfg); err != nil {
		return Configuration{}, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Configuration{}, err
	}
	return cfg, nil
}

// Validate checks the values that have a closed set of choices.
func (c Configuration) Validate() error {
	switch c.Clock.Type {
	case "system", "ntp":
	default:
		return fmt.Errorf("unknown clock type %q", c.Clock.Type)
	}
	if c.Clock.Type == "ntp" && c.Clock.NTPServer == "" {
		return fmt.Errorf("clock.ntp_server is required for the ntp clock")
	}
	return nil
}
