// Package config loads runtime configuration for the MDD client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via flags: -c or -config.
//  3. Environment variables with the MDD_ prefix, read through koanf.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the backend REST API
//	-d string   path of the local session database
//	-t int      request timeout (seconds)
//	-l string   log level
//
// # JSON schema
//
// The JSON loader uses timex.Duration for the timeout, so the value can be
// either a string like "10s" or integer nanoseconds:
//
//	{
//	  "api_base_url": "http://localhost:8080",
//	  "database_path": "mdd.db",
//	  "request_timeout": "10s",
//	  "log_level": "info",
//	  "log_format": "text"
//	}
//
// # Environment
//
//	MDD_API_BASE_URL, MDD_DATABASE_PATH, MDD_REQUEST_TIMEOUT,
//	MDD_LOG_LEVEL, MDD_LOG_FORMAT
//
// Primary API
//
//   - type Config                         — the runtime settings
//   - func Load(args) (*Config, error)    — defaults, JSON, env, then flags
//   - func LoadConfig() *Config           — Load over os.Args, panics on error
//   - func (*Config) LoadDefaults()       — sets sensible defaults
package config
