package flagly

import (
	"fmt"

	"github.com/viant/flagly/resolver/remote"
)

// Provider names accepted by SourceConfig.Provider.
const (
	// ProviderLocal serves flows from the static Flags map.
	ProviderLocal = "local"

	// ProviderServer polls a remote control plane for flow assignments.
	ProviderServer = "server"
)

// OverridesEnvKey names the environment variable read once at engine start
// for an extra override expression (feature=flow[,feature=flow...]).
const OverridesEnvKey = "FLAGLY_FLAGS"

// Config is a serialisable representation of the engine configuration. It can
// be populated from JSON, YAML, environment variables, etc. The zero value
// behaves as the local provider with no flags: every feature resolves to the
// default flow.
type Config struct {
	Source SourceConfig `json:"source" yaml:"source"`

	// Flags backs the local provider; the server provider ignores it.
	Flags map[string]string `json:"flags,omitempty" yaml:"flags,omitempty"`

	// Overrides is an optional expression consulted before the configured
	// provider, e.g. "checkout=v3, search=ranked".
	Overrides string `json:"overrides,omitempty" yaml:"overrides,omitempty"`

	Events EventConfig `json:"events,omitempty" yaml:"events,omitempty"`
}

// SourceConfig selects and configures the flow resolution strategy.
type SourceConfig struct {
	Provider string         `json:"provider" yaml:"provider"`
	Server   *remote.Config `json:"server,omitempty" yaml:"server,omitempty"`
}

// EventConfig configures the optional flag change event bus.
type EventConfig struct {
	// Vendor selects the queue fabric: memory or fs.
	Vendor string `json:"vendor,omitempty" yaml:"vendor,omitempty"`

	// URL is the fs vendor base location; any afs scheme works.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

// DefaultConfig returns a Config for the local provider with no flags.
// Callers may modify the returned struct before passing it to New.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{Provider: ProviderLocal},
		Flags:  map[string]string{},
	}
}

// Init applies defaults.
func (c *Config) Init() {
	if c.Source.Provider == "" {
		c.Source.Provider = ProviderLocal
	}
	if c.Source.Server != nil {
		c.Source.Server.Init()
	}
}

// Validate returns an error describing invalid settings or nil. An unknown
// provider is an error; the engine never silently falls back to another
// strategy.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	switch c.Source.Provider {
	case "", ProviderLocal:
	case ProviderServer:
		if c.Source.Server == nil {
			return fmt.Errorf("source.server was empty for provider %v", ProviderServer)
		}
		if err := c.Source.Server.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported source provider: %v", c.Source.Provider)
	}
	switch c.Events.Vendor {
	case "", "memory":
	case "fs":
		if c.Events.URL == "" {
			return fmt.Errorf("events.url was empty for vendor fs")
		}
	default:
		return fmt.Errorf("unsupported events vendor: %v", c.Events.Vendor)
	}
	return nil
}

// project returns the identifier stamped on stats and change events.
func (c *Config) project() string {
	if c.Source.Server != nil && c.Source.Server.Project != "" {
		return c.Source.Server.Project
	}
	return ProviderLocal
}
