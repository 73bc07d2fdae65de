package config

// Normalize fills in defaults for anything left unset.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if len(cfg.Basic.URLs) == 0 {
		cfg.Basic.URLs = append([]string(nil), DefaultBasicURLs...)
	}
	if cfg.Basic.Points == 0 {
		cfg.Basic.Points = DefaultBasicPoints
	}

	if cfg.Extended.URL == "" {
		cfg.Extended.URL = "http://www.example.com"
	}
	if cfg.Extended.InvalidHostURL == "" {
		cfg.Extended.InvalidHostURL = "http://www.sjisthanosifyoudidntknow.com"
	}
	if cfg.Extended.MismatchedHost == "" {
		cfg.Extended.MismatchedHost = "www.google.com"
	}
	if cfg.Extended.MissingResourceURL == "" {
		cfg.Extended.MissingResourceURL = "http://www.google.com/giveme404"
	}

	if len(cfg.VolatileHeaders) == 0 {
		cfg.VolatileHeaders = []string{"Date"}
	}
}
