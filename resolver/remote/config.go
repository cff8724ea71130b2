package remote

import (
	"fmt"

	"github.com/viant/flagly/service/secret"
)

const (
	defaultRefreshMs = 10000
	defaultTimeoutMs = 5000
)

// Config describes the flag server to poll.
type Config struct {
	// URL is the control plane base URL, e.g. https://flags.example.com
	URL string `yaml:"url" json:"url"`

	// Project scopes the feature set; an empty project fails each poll
	// rather than construction, so a partially configured instance keeps
	// serving defaults.
	Project string `yaml:"project" json:"project"`

	// Refresh is the delay between polls in milliseconds, measured from the
	// end of one poll to the start of the next.
	Refresh int `yaml:"refresh" json:"refresh"`

	// Timeout caps a single fetch in milliseconds.
	Timeout int `yaml:"timeout" json:"timeout"`

	// Fallback clears the cached generation on poll failure; when false the
	// last known-good generation keeps serving.
	Fallback bool `yaml:"fallback" json:"fallback"`

	// SnapshotURL optionally points at a store location used to persist the
	// fetched generation and to bootstrap the cache on startup.
	SnapshotURL string `yaml:"snapshotURL" json:"snapshotURL"`

	Auth secret.Auth `yaml:"auth" json:"auth"`
}

// Init applies defaults
func (c *Config) Init() {
	if c.Refresh == 0 {
		c.Refresh = defaultRefreshMs
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeoutMs
	}
}

// Validate checks required fields
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("server URL was empty")
	}
	if c.Refresh < 0 {
		return fmt.Errorf("invalid refresh: %v", c.Refresh)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid timeout: %v", c.Timeout)
	}
	return nil
}
