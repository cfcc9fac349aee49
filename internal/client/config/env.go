package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/v2"
)

const EnvPrefix = "MDD_"

// parseEnv overlays cfg with MDD_* variables: MDD_API_BASE_URL,
// MDD_DATABASE_PATH, MDD_REQUEST_TIMEOUT ("10s" or whole seconds),
// MDD_LOG_LEVEL, MDD_LOG_FORMAT.
func parseEnv(cfg *Config) error {
	k := koanf.New(".")

	err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			// MDD_API_BASE_URL -> api_base_url
			return strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), value
		},
	}), nil)
	if err != nil {
		return fmt.Errorf("load env variables failed: %w", err)
	}

	if v := k.String("api_base_url"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := k.String("database_path"); v != "" {
		cfg.DatabasePath = v
	}
	if v := k.String("request_timeout"); v != "" {
		d, err := parseTimeout(v)
		if err != nil {
			return fmt.Errorf("%srequest_timeout: %w", EnvPrefix, err)
		}
		cfg.RequestTimeout = d
	}
	if v := k.String("log_level"); v != "" {
		cfg.LogLevel = v
	}
	if v := k.String("log_format"); v != "" {
		cfg.LogFormat = v
	}
	return nil
}

func parseTimeout(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("must be positive, got %d", secs)
		}
		return time.Duration(secs) * time.Second, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	return d, nil
}
