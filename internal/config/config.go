// Package config reads the service settings from FORMKIT_* environment
// variables. Every field names its variable in an env struct tag.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strconv"
	"strings"
)

const (
	StoreMemory = "memory"
	StoreBolt   = "bolt"
)

type Config struct {
	Addr string `env:"FORMKIT_ADDR"`

	Store    string `env:"FORMKIT_STORE"`
	BoltPath string `env:"FORMKIT_BOLT_PATH"`

	// FormsDir is loaded into the store on start when set.
	FormsDir string `env:"FORMKIT_FORMS_DIR"`

	BackendURL     string `env:"FORMKIT_BACKEND_URL"`
	BackendRetries int    `env:"FORMKIT_BACKEND_RETRIES"`
	BackendToken   string `env:"FORMKIT_BACKEND_TOKEN"`

	LogLevel string `env:"FORMKIT_LOG_LEVEL"`
}

// Default returns the settings used when nothing is set.
func Default() Config {
	return Config{
		Addr:           ":8080",
		Store:          StoreMemory,
		BoltPath:       "formkit.db",
		BackendRetries: 3,
		LogLevel:       "info",
	}
}

// Read starts from Default and applies the process environment.
func Read() (Config, error) {
	return ReadFrom(os.LookupEnv)
}

// ReadFrom is Read with a custom variable lookup.
func ReadFrom(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if err := envConfig("env", &cfg, lookup); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	var errs []error
	switch c.Store {
	case StoreMemory:
	case StoreBolt:
		if strings.TrimSpace(c.BoltPath) == "" {
			errs = append(errs, errors.New("FORMKIT_BOLT_PATH is required for the bolt store"))
		}
	default:
		errs = append(errs, fmt.Errorf("FORMKIT_STORE must be %q or %q, got %q", StoreMemory, StoreBolt, c.Store))
	}
	if c.BackendRetries < 0 {
		errs = append(errs, fmt.Errorf("FORMKIT_BACKEND_RETRIES must not be negative, got %d", c.BackendRetries))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Level is the slog level named by LogLevel, info when it is invalid.
func (c Config) Level() slog.Level {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseLevel accepts debug, info, warn and error in any case.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}

// envConfig assigns every tagged field from its variable. Unset or empty
// variables keep the current value.
func envConfig(key string, s any, lookup func(string) (string, bool)) error {
	v := reflect.ValueOf(s).Elem()
	typeParam := v.Type()
	for i := 0; i < v.NumField(); i++ {
		fName := typeParam.Field(i).Name
		fEnvTag := typeParam.Field(i).Tag.Get(key)
		if fEnvTag == "" {
			continue
		}
		raw, ok := lookup(fEnvTag)
		raw = strings.TrimSpace(raw)
		if !ok || raw == "" {
			continue
		}

		logValue := raw
		if lower := strings.ToLower(fName); strings.Contains(lower, "token") || strings.Contains(lower, "secret") {
			logValue = mask(raw)
		}
		slog.Debug("Set config value",
			slog.String("key", typeParam.Name()+"."+fName),
			slog.String("value", logValue),
			slog.String("source", "ENVIRONMENT"),
		)

		field := v.Field(i)
		switch field.Kind() {
		case reflect.String:
			field.SetString(raw)
		case reflect.Int:
			n, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("config: %s: %q is not an integer", fEnvTag, raw)
			}
			field.SetInt(int64(n))
		case reflect.Bool:
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return fmt.Errorf("config: %s: %q is not a boolean", fEnvTag, raw)
			}
			field.SetBool(b)
		}
	}
	return nil
}

func mask(secret string) string {
	if len(secret) <= 2 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:1] + strings.Repeat("*", len(secret)-2) + secret[len(secret)-1:]
}
