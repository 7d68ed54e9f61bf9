package chatclient

import "os"

// ProviderSpec is one entry of a JSON-config-driven provider chain:
// explicit key/env-hint override fields, resolved via ResolveKey
// (spec.md §6).
type ProviderSpec struct {
	Name        ProviderName `json:"name"`
	ConfigKey   string       `json:"config_key,omitempty"`
	EnvHint     string       `json:"env_hint,omitempty"`
	BaseURL     string       `json:"base_url,omitempty"`
	Model       string       `json:"model,omitempty"`
}

// BuildChain constructs concrete providers for specs whose key resolves to
// a non-empty value, preserving order. Entries with no resolvable key are
// skipped, the same way the teacher's DetectProvider falls through
// providers lacking credentials (internal/perception/client_factory.go).
func BuildChain(specs []ProviderSpec) []Client {
	var chain []Client
	for _, spec := range specs {
		key := ResolveKey(spec.Name, spec.ConfigKey, spec.EnvHint)
		if key == "" {
			continue
		}
		chain = append(chain, NewOpenAIProvider(spec.Name, key, spec.BaseURL, spec.Model))
	}
	return chain
}

// DefaultChain builds specs from DefaultPriority with no overrides; each
// provider resolves its key purely from its default env var name.
func DefaultChain() []Client {
	specs := make([]ProviderSpec, len(DefaultPriority))
	for i, name := range DefaultPriority {
		specs[i] = ProviderSpec{Name: name}
	}
	return BuildChain(specs)
}

// ConfigPathEnvVar is the environment variable naming a JSON provider-chain
// config file, per spec.md §6 ("path from environment").
const ConfigPathEnvVar = "FORGE_PROVIDERS_CONFIG"

// ConfigPath returns the configured providers file path, or "" if unset.
func ConfigPath() string {
	return os.Getenv(ConfigPathEnvVar)
}
