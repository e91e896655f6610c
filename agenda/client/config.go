package client

import (
	"strings"
	"time"

	"github.com/Termicotra/agendamiento/agenda/constants"
	"github.com/Termicotra/agendamiento/conf"
)

// Config locates the API. Auth endpoints hang off BaseURL directly; resource
// endpoints hang off BaseURL+Prefix.
type Config struct {
	BaseURL string
	Prefix  string
	Timeout time.Duration
}

// ConfigFromEnv reads AGENDA_API_BASE_URL, AGENDA_API_PREFIX and AGENDA_API_TIMEOUT_MS.
func ConfigFromEnv() Config {
	cfg := Config{
		BaseURL: conf.GetEnv("AGENDA_API_BASE_URL"),
		Prefix:  constants.DefaultAPIPrefix,
		Timeout: constants.DefaultTimeout,
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = constants.DefaultBaseURL
	}
	if prefix, ok := conf.LookupEnv("AGENDA_API_PREFIX"); ok {
		cfg.Prefix = prefix
	}
	if ms := conf.GetEnvInt("AGENDA_API_TIMEOUT_MS", 0); ms > 0 {
		cfg.Timeout = time.Duration(ms) * time.Millisecond
	}
	return cfg
}

func (c Config) authBase() string {
	return strings.TrimRight(c.BaseURL, "/")
}

func (c Config) apiBase() string {
	return c.authBase() + "/" + strings.Trim(c.Prefix, "/")
}
