// Package config loads schedpdf settings from an optional schedpdf.yaml and
// SCHEDPDF_* environment overrides using viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the configuration for the application.
type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	Database    struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
	Server struct {
		Addr           string        `mapstructure:"addr"`
		AllowedOrigins []string      `mapstructure:"allowed_origins"`
		ReadTimeout    time.Duration `mapstructure:"read_timeout"`
		WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	} `mapstructure:"server"`
	Upload struct {
		MaxFileSize      int64    `mapstructure:"max_file_size"`
		AllowedFileTypes []string `mapstructure:"allowed_file_types"`
	} `mapstructure:"upload"`
	Fonts struct {
		Candidates []string `mapstructure:"candidates"`
	} `mapstructure:"fonts"`
	Output struct {
		Dir string `mapstructure:"dir"`
	} `mapstructure:"output"`
}

// EnvPrefix prefixes every environment override, e.g. SCHEDPDF_SERVER_ADDR.
const EnvPrefix = "SCHEDPDF"

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("database.path", "schedpdf.db")
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("upload.max_file_size", 10<<20)
	v.SetDefault("upload.allowed_file_types", []string{"application/pdf"})
	v.SetDefault("fonts.candidates", []string{})
	v.SetDefault("output.dir", "")
}

// Load reads the configuration. When path is set that file must exist;
// otherwise schedpdf.yaml is looked up in . and ./config and is optional.
// Environment variables override both.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("schedpdf")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Server.AllowedOrigins = splitList(cfg.Server.AllowedOrigins)
	cfg.Upload.AllowedFileTypes = splitList(cfg.Upload.AllowedFileTypes)
	cfg.Fonts.Candidates = splitList(cfg.Fonts.Candidates)

	if cfg.Upload.MaxFileSize <= 0 {
		return nil, fmt.Errorf("upload.max_file_size must be positive, got %d", cfg.Upload.MaxFileSize)
	}
	return &cfg, nil
}

// splitList accepts both list values and single comma-separated strings
// ("a, b") and drops blanks.
func splitList(in []string) []string {
	out := []string{}
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
