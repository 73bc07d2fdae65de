package config

import (
	"fmt"
	"net/url"
)

// Validate checks configuration correctness.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	for _, u := range cfg.Basic.URLs {
		if err := checkHTTPURL("basic.urls", u); err != nil {
			return err
		}
	}
	if cfg.Basic.Points < 0 {
		return fmt.Errorf("basic.points must not be negative")
	}

	for field, u := range map[string]string{
		"extended.url":                  cfg.Extended.URL,
		"extended.invalid_host_url":     cfg.Extended.InvalidHostURL,
		"extended.missing_resource_url": cfg.Extended.MissingResourceURL,
	} {
		if u == "" {
			continue
		}
		if err := checkHTTPURL(field, u); err != nil {
			return err
		}
	}

	for field, v := range map[string]*int{
		"timeouts.test_ms":    cfg.Timeouts.TestMs,
		"timeouts.grace_ms":   cfg.Timeouts.GraceMs,
		"timeouts.startup_ms": cfg.Timeouts.StartupMs,
		"timeouts.restart_ms": cfg.Timeouts.RestartMs,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s must not be negative", field)
		}
	}
	if cfg.Timeouts.TestMs != nil && *cfg.Timeouts.TestMs == 0 {
		return fmt.Errorf("timeouts.test_ms must be greater than zero")
	}

	for _, h := range cfg.VolatileHeaders {
		if h == "" {
			return fmt.Errorf("volatile_headers must not contain empty names")
		}
	}
	return nil
}

func checkHTTPURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: invalid URL %q: %w", field, raw, err)
	}
	if u.Scheme != "http" || u.Host == "" {
		return fmt.Errorf("%s: %q is not an absolute http URL", field, raw)
	}
	return nil
}
