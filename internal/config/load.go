package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load,
// e.g. ALTSCRIBE_SERVER_PORT or ALTSCRIBE_AUTH_SESSION_SECRET.
const EnvPrefix = "ALTSCRIBE"

// defaults lists every configuration key. Viper only binds environment
// variables for keys it already knows about, so each key needs an entry.
var defaults = map[string]any{
	"environment": EnvDevelopment,

	"server.port":         8000,
	"server.log_level":    "info",
	"server.cors_origins": []string{"http://localhost:3000"},

	"auth.session_secret":      "",
	"auth.session_ttl_seconds": 86400,

	"storage.redis_url":    "redis://localhost:6379/0",
	"storage.database_url": "",

	"webflow.api_token":          "",
	"webflow.collection_id":      "",
	"webflow.base_url":           "https://api.webflow.com/v2",
	"webflow.page_size":          100,
	"webflow.max_attempts":       3,
	"webflow.retry_base_seconds": 2,
	"webflow.retry_max_seconds":  60,
	"webflow.timeout_seconds":    30,

	"llm.provider":            "auto",
	"llm.openai_api_key":      "",
	"llm.openai_model":        "gpt-4o-mini",
	"llm.openai_base_url":     "https://api.openai.com/v1",
	"llm.gemini_api_key":      "",
	"llm.gemini_model":        "gemini-2.0-flash",
	"llm.max_alt_text_length": 125,
	"llm.timeout_seconds":     60,

	"task.queue":                            "redis",
	"task.worker_count":                     2,
	"task.queue_size":                       100,
	"task.job_timeout_minutes":              30,
	"task.stuck_job_age_minutes":            15,
	"task.stuck_job_check_interval_minutes": 5,
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile behaves like Load but reads the given YAML file instead of
// searching for config.yaml in the working directory.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Comma separated origins arrive from the environment as one string.
	if len(cfg.Server.CORSOrigins) == 1 && strings.Contains(cfg.Server.CORSOrigins[0], ",") {
		cfg.Server.CORSOrigins = splitList(cfg.Server.CORSOrigins[0])
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the struct tags of cfg.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
