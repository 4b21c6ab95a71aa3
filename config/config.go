// Package config provides YAML configuration parsing for the fvemon binary.
//
// This package enables running fvemon as a standalone daemon with a
// configuration file, as an alternative to the programmatic SDK approach.
// Files are loaded with cleanenv, so every value can be overridden through
// the environment — most importantly the access token via FVEMON_TOKEN.
//
// Example configuration:
//
//	endpoint:
//	  url: https://monitor.example.com/data
//	  client_id: client-1
//	  token: ${FVE_TOKEN}
//
//	poll_interval: 5s
//	request_timeout: 4s
//
//	status:
//	  addr: ":8080"
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// minPollInterval prevents accidental DoS of the endpoint with overly
// aggressive polling.
const minPollInterval = 1 * time.Second

// Config is the root configuration structure for the fvemon daemon.
// Use [Load] to create one from a YAML file.
type Config struct {
	// Endpoint identifies the monitored FVE system.
	Endpoint EndpointConfig `yaml:"endpoint"`

	// PollInterval is the time between poll cycles. Defaults to 5s.
	PollInterval Duration `yaml:"poll_interval" env:"FVEMON_POLL_INTERVAL" env-default:"5s"`

	// RequestTimeout bounds each poll request. Must be shorter than
	// PollInterval. Defaults to 4s.
	RequestTimeout Duration `yaml:"request_timeout" env:"FVEMON_REQUEST_TIMEOUT" env-default:"4s"`

	// FailureThreshold is the consecutive-failure count at which the
	// status API reports the system unavailable. Defaults to 3.
	FailureThreshold int `yaml:"failure_threshold" env:"FVEMON_FAILURE_THRESHOLD" env-default:"3"`

	// Status configures the optional read-only status API.
	Status StatusConfig `yaml:"status"`

	// Log configures the daemon logger.
	Log LogConfig `yaml:"log"`
}

// EndpointConfig carries the monitored endpoint's credentials.
type EndpointConfig struct {
	// URL is the monitoring endpoint. Supports ${VAR} and ${VAR:-default}
	// environment substitution.
	URL string `yaml:"url" env:"FVEMON_URL"`

	// ClientID is sent as the c_monitor request parameter.
	ClientID string `yaml:"client_id" env:"FVEMON_CLIENT_ID"`

	// Token is sent as the t_monitor request parameter. Supports ${VAR}
	// substitution; prefer the FVEMON_TOKEN environment variable over
	// writing secrets into the file.
	Token string `yaml:"token" env:"FVEMON_TOKEN"`
}

// StatusConfig configures the status API server.
type StatusConfig struct {
	// Addr is the listen address (e.g. ":8080"). Empty disables the API.
	Addr string `yaml:"addr" env:"FVEMON_STATUS_ADDR"`
}

// LogConfig configures the daemon logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string `yaml:"level" env:"FVEMON_LOG_LEVEL" env-default:"info"`

	// Format is "json" or "text". Defaults to json.
	Format string `yaml:"format" env:"FVEMON_LOG_FORMAT" env-default:"json"`
}

// Duration wraps time.Duration for YAML and environment unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.SetValue(s)
}

// SetValue implements cleanenv.Setter so Duration fields can be filled from
// environment variables and env-default tags.
func (d *Duration) SetValue(s string) error {
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with
// environment values. A reference to an unset variable without a default is
// an error rather than an empty string.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads a YAML configuration file, applies environment overrides,
// expands ${VAR} references and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	expanded, err := expandEnvVars(c.Endpoint.URL)
	if err != nil {
		return fmt.Errorf("endpoint.url: %w", err)
	}
	c.Endpoint.URL = expanded

	expanded, err = expandEnvVars(c.Endpoint.Token)
	if err != nil {
		return fmt.Errorf("endpoint.token: %w", err)
	}
	c.Endpoint.Token = expanded

	if c.Endpoint.URL == "" {
		return fmt.Errorf("endpoint.url is required")
	}
	parsedURL, err := url.Parse(c.Endpoint.URL)
	if err != nil {
		return fmt.Errorf("endpoint.url: invalid url: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("endpoint.url: scheme must be http or https, got %q", parsedURL.Scheme)
	}

	if c.Endpoint.ClientID == "" {
		return fmt.Errorf("endpoint.client_id is required")
	}
	if c.Endpoint.Token == "" {
		return fmt.Errorf("endpoint.token is required")
	}

	if c.PollInterval.Duration() < minPollInterval {
		return fmt.Errorf("poll_interval must be at least %s, got %s", minPollInterval, c.PollInterval.Duration())
	}
	if c.RequestTimeout.Duration() <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout.Duration())
	}
	if c.RequestTimeout.Duration() >= c.PollInterval.Duration() {
		return fmt.Errorf("request_timeout (%s) must be shorter than poll_interval (%s)",
			c.RequestTimeout.Duration(), c.PollInterval.Duration())
	}

	if c.FailureThreshold <= 0 {
		return fmt.Errorf("failure_threshold must be positive, got %d", c.FailureThreshold)
	}

	switch c.Log.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}

	return nil
}
