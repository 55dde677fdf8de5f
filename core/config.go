package core

import (
	"fmt"
	"strings"
	"time"
)

type ResourceConfig struct {
	Audience string `koanf:"audience" mapstructure:"audience"`
	Scope    string `koanf:"scope" mapstructure:"scope"`
}

type Config struct {
	ServiceName         string            `koanf:"service_name" mapstructure:"service_name"`
	InteractionBasePath string            `koanf:"interaction_base_path" mapstructure:"interaction_base_path"`
	ChallengeTTL        time.Duration     `koanf:"challenge_ttl" mapstructure:"challenge_ttl"`
	DefaultResource     ResourceConfig    `koanf:"default_resource" mapstructure:"default_resource"`
	Resources           []ResourceConfig  `koanf:"resources" mapstructure:"resources"`
	ScopeDescriptions   map[string]string `koanf:"scope_descriptions" mapstructure:"scope_descriptions"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName:         "bankauth",
		InteractionBasePath: "/interaction",
		ChallengeTTL:        5 * time.Minute,
		DefaultResource: ResourceConfig{
			Audience: "https://api.bank.local/fdx",
			Scope:    "fdx:accountbasic:read fdx:accountdetailed:read fdx:transactions:read fdx:paymentsupport:read",
		},
		ScopeDescriptions: map[string]string{
			"openid":                   "Confirm your identity",
			"profile":                  "View your name and date of birth",
			"email":                    "View your email address",
			"address":                  "View your phone number and address",
			"fdx:accountbasic:read":    "View basic account information",
			"fdx:accountdetailed:read": "View detailed account information",
			"fdx:transactions:read":    "View account transactions",
			"fdx:paymentsupport:read":  "View payment support details",
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.InteractionBasePath) == "" {
		return fmt.Errorf("core: interaction_base_path is required")
	}
	if strings.TrimSpace(c.DefaultResource.Audience) == "" {
		return fmt.Errorf("core: default_resource.audience is required")
	}
	return nil
}

// ResourceFor returns the resource server matching the indicator, falling
// back to the default audience for any unknown, empty, or mistyped value so
// clients that omit the parameter keep working.
func (c Config) ResourceFor(indicator string) ResourceConfig {
	trimmed := strings.TrimSpace(indicator)
	if trimmed != "" {
		if strings.EqualFold(trimmed, strings.TrimSpace(c.DefaultResource.Audience)) {
			return c.DefaultResource
		}
		for _, resource := range c.Resources {
			if strings.EqualFold(trimmed, strings.TrimSpace(resource.Audience)) {
				return resource
			}
		}
	}
	return c.DefaultResource
}
