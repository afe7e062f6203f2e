package llm

import (
	"fmt"

	"github.com/local/readcompanion/internal/settings"
)

// Provider identifies the LLM vendor API family. The set is closed; the
// dispatcher switches over it exhaustively so a new provider shows up as a
// compile-time hole, not a runtime string mismatch.
type Provider int

const (
	ProviderBedrock Provider = iota
	ProviderOpenAI
)

func (p Provider) String() string {
	switch p {
	case ProviderBedrock:
		return "bedrock"
	case ProviderOpenAI:
		return "openai"
	}
	return "unknown"
}

// ParseProvider maps a settings value to a Provider.
func ParseProvider(s string) (Provider, error) {
	switch s {
	case "bedrock":
		return ProviderBedrock, nil
	case "openai", "openai-compatible":
		return ProviderOpenAI, nil
	}
	return ProviderBedrock, fmt.Errorf("unsupported provider: %q", s)
}

// Config holds the resolved settings for one provider call.
type Config struct {
	Provider Provider
	APIKey   string
	ModelID  string
	Region   string // bedrock only
	Endpoint string // openai-compatible only
}

const (
	defaultProvider       = "bedrock"
	defaultBedrockModel   = "anthropic.claude-3-5-sonnet-20240620-v1:0"
	defaultBedrockRegion  = "us-east-1"
	defaultOpenAIModel    = "gpt-4o"
	defaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"
)

// ResolveConfig reads the active provider and its credentials from the
// settings store. It is called fresh on every model call; configs are never
// cached because settings may change between calls.
func ResolveConfig(s settings.Store) (Config, error) {
	p, err := ParseProvider(s.Get("provider", defaultProvider))
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	switch p {
	case ProviderBedrock:
		cfg = Config{
			Provider: p,
			APIKey:   s.Get("bedrock.apiKey", ""),
			ModelID:  s.Get("bedrock.modelId", defaultBedrockModel),
			Region:   s.Get("bedrock.region", defaultBedrockRegion),
		}
	case ProviderOpenAI:
		cfg = Config{
			Provider: p,
			APIKey:   s.Get("openai.apiKey", ""),
			ModelID:  s.Get("openai.modelId", defaultOpenAIModel),
			Endpoint: s.Get("openai.endpoint", defaultOpenAIEndpoint),
		}
	}

	if cfg.APIKey == "" {
		return Config{}, &ConfigError{Provider: p}
	}
	return cfg, nil
}
