// Package config holds the optional YAML description of the suite: which pages the basic suite
// fetches, which requests the extended suite sends, and the timing parameters of the run.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Basic           BasicConfig    `yaml:"basic"`
	Extended        ExtendedConfig `yaml:"extended"`
	VolatileHeaders []string       `yaml:"volatile_headers"`
	Timeouts        TimeoutConfig  `yaml:"timeouts"`
}

// ---- BASIC ----

type BasicConfig struct {
	URLs   []string `yaml:"urls"`
	Points int      `yaml:"points"` // per URL
}

// ---- EXTENDED ----

type ExtendedConfig struct {
	URL                string `yaml:"url"`                  // target of the malformed requests
	InvalidHostURL     string `yaml:"invalid_host_url"`     // must not resolve
	MismatchedHost     string `yaml:"mismatched_host"`      // Host header that disagrees with url
	MissingResourceURL string `yaml:"missing_resource_url"` // must produce a 404 from its origin
}

// ---- TIMEOUTS ----

// Unset values fall back to the defaults; an explicit 0 is kept.
type TimeoutConfig struct {
	TestMs    *int `yaml:"test_ms"`
	GraceMs   *int `yaml:"grace_ms"`
	StartupMs *int `yaml:"startup_ms"`
	RestartMs *int `yaml:"restart_ms"`
}

// Timings are the resolved timeout values.
type Timings struct {
	Test    time.Duration
	Grace   time.Duration
	Startup time.Duration
	Restart time.Duration
}

const (
	DefaultTestMs    = 30000
	DefaultGraceMs   = 500
	DefaultStartupMs = 2000
	DefaultRestartMs = 3000

	DefaultBasicPoints = 5
)

// DefaultBasicURLs are public plain-HTTP pages that are stable enough to compare.
var DefaultBasicURLs = []string{
	"http://www.testingmcafeesites.com/",
	"http://help.websiteos.com/websiteos/example_of_a_simple_html_page.htm",
	"http://neverssl.com",
	"http://otl.kaist.ac.kr/timetable/",
}

// Default returns the standard suite.
func Default() *Config {
	cfg := &Config{}
	Normalize(cfg)
	return cfg
}

// Load reads a YAML file, then validates and normalizes it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	Normalize(&cfg)
	return &cfg, nil
}

// Timings resolves the timeout settings. Call it after Normalize.
func (c *Config) Timings() Timings {
	ms := func(v *int, def int) time.Duration {
		return time.Duration(ldvalue.NewOptionalIntFromPointer(v).OrElse(def)) * time.Millisecond
	}
	return Timings{
		Test:    ms(c.Timeouts.TestMs, DefaultTestMs),
		Grace:   ms(c.Timeouts.GraceMs, DefaultGraceMs),
		Startup: ms(c.Timeouts.StartupMs, DefaultStartupMs),
		Restart: ms(c.Timeouts.RestartMs, DefaultRestartMs),
	}
}
