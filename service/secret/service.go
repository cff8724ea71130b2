// Package secret resolves control plane credentials using viant/scy so that
// API keys never have to live in plain configuration files.
package secret

import (
	"context"
	"fmt"

	"github.com/viant/scy"
	"github.com/viant/scy/cred"
	"github.com/viant/toolbox"
)

// Auth describes how the control plane API key is obtained. APIKey holds the
// literal value and always wins; APIKeyURL points at a scy resource (file,
// mem, blackbox, cloud secret manager, ...) revealed at startup.
type Auth struct {
	APIKey    string `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`
	APIKeyURL string `json:"apiKeyURL,omitempty" yaml:"apiKeyURL,omitempty"`
	Target    string `json:"target,omitempty" yaml:"target,omitempty"`
	Key       string `json:"key,omitempty" yaml:"key,omitempty"`
}

// Service provides credential resolution using viant/scy
type Service struct {
	scyService *scy.Service
}

// New creates a new secret service
func New() *Service {
	return &Service{
		scyService: scy.New(),
	}
}

// APIKey resolves the API key described by auth. An empty Auth yields an
// empty key; the x-api-key header is then sent with an empty value, which
// the control plane is free to reject.
func (s *Service) APIKey(ctx context.Context, auth Auth) (string, error) {
	if auth.APIKey != "" {
		return auth.APIKey, nil
	}
	if auth.APIKeyURL == "" {
		return "", nil
	}

	var target interface{}
	if auth.Target != "" && auth.Target != "raw" {
		targetType, err := cred.TargetType(auth.Target)
		if err != nil {
			return "", fmt.Errorf("invalid target type '%s': %w", auth.Target, err)
		}
		if targetType != nil {
			target = targetType
		}
	}

	resource := scy.NewResource(target, auth.APIKeyURL, auth.Key)
	secret, err := s.scyService.Load(ctx, resource)
	if err != nil {
		return "", fmt.Errorf("failed to load api key from %s: %w", auth.APIKeyURL, err)
	}

	if !secret.IsPlain && secret.Target != nil {
		aMap := map[string]interface{}{}
		if err = toolbox.DefaultConverter.AssignConverted(&aMap, secret.Target); err != nil {
			return "", fmt.Errorf("failed to convert secret data: %w", err)
		}
		aMap = toolbox.DeleteEmptyKeys(aMap)
		for _, candidate := range []string{"apiKey", "api-key", "key", "secret", "password"} {
			if value, ok := aMap[candidate]; ok {
				return toolbox.AsString(value), nil
			}
		}
		return "", fmt.Errorf("secret %s holds no api key field", auth.APIKeyURL)
	}
	return secret.String(), nil
}
