// Package config reads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	PolicyFile  string

	SessionTTL       time.Duration
	SessionCacheSize int
	SessionCacheTTL  time.Duration
	CookieSecure     bool
	AllowedOrigins   []string
	LoginRatePerMin  int

	AttendanceURL string
	UploadDir     string
	AIAPIURL      string
	AIAPIKey      string

	// parse errors collected by LoadFromEnv, reported by Validate
	errs []error
}

var defaultOrigins = []string{"http://localhost:5173", "http://localhost:3000"}

func LoadFromEnv() *Config {
	c := &Config{
		Port:        getEnv("PORT", "5050"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		PolicyFile:  getEnv("POLICY_FILE", ""),

		AttendanceURL: getEnv("ATTENDANCE_URL", ""),
		UploadDir:     getEnv("UPLOAD_DIR", "./uploads"),
		AIAPIURL:      getEnv("AI_API_URL", ""),
		AIAPIKey:      getEnv("AI_API_KEY", ""),
	}

	c.SessionTTL = c.duration("SESSION_TTL", 6*time.Hour)
	c.SessionCacheSize = c.integer("SESSION_CACHE_SIZE", 1024)
	c.SessionCacheTTL = c.duration("SESSION_CACHE_TTL", 5*time.Minute)
	c.CookieSecure = c.boolean("COOKIE_SECURE", false)
	c.LoginRatePerMin = c.integer("LOGIN_RATE_PER_MIN", 10)
	c.AllowedOrigins = splitList(getEnv("ALLOWED_ORIGINS", ""))
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = defaultOrigins
	}

	return c
}

// Validate reports every malformed or missing setting at once.
func (c *Config) Validate() error {
	errs := append([]error(nil), c.errs...)

	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("PORT: %q is not a number", c.Port))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.SessionCacheSize <= 0 {
		errs = append(errs, errors.New("SESSION_CACHE_SIZE must be positive"))
	}
	if c.SessionCacheTTL <= 0 {
		errs = append(errs, errors.New("SESSION_CACHE_TTL must be positive"))
	}
	if c.LoginRatePerMin <= 0 {
		errs = append(errs, errors.New("LOGIN_RATE_PER_MIN must be positive"))
	}
	for key, raw := range map[string]string{"ATTENDANCE_URL": c.AttendanceURL, "AI_API_URL": c.AIAPIURL} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s: %q is not an absolute URL", key, raw))
		}
	}

	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && strings.TrimSpace(val) != "" {
		return strings.TrimSpace(val)
	}
	return fallback
}

func (c *Config) integer(key string, fallback int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		c.errs = append(c.errs, fmt.Errorf("%s: %q is not an integer", key, raw))
		return fallback
	}
	return n
}

func (c *Config) duration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		c.errs = append(c.errs, fmt.Errorf("%s: %q is not a duration", key, raw))
		return fallback
	}
	return d
}

func (c *Config) boolean(key string, fallback bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		c.errs = append(c.errs, fmt.Errorf("%s: %q is not a boolean", key, raw))
		return fallback
	}
	return b
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
