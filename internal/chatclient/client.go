// Package chatclient implements the ChatClient trait (SPEC_FULL.md §6):
// an abstract LLM provider plus a fallback router, grounded on the
// teacher's provider factory (internal/perception/client_factory.go,
// client_openai.go) generalized from single-session provider detection to
// a pure fallback chain over configured providers.
package chatclient

import (
	"context"
	"fmt"
	"os"

	"forge/internal/forgeerr"
)

// Response is the ChatClient trait's return shape (spec.md §6).
type Response struct {
	LLMName   string
	Content   string
	TokenCost int
}

// Client is the abstract provider trait: chat_completion(system, user).
type Client interface {
	Name() string
	ChatCompletion(ctx context.Context, systemPrompt, userPrompt string) (Response, error)
}

// ProviderName identifies one entry in the default priority list
// (spec.md §6).
type ProviderName string

const (
	ProviderOpenAIAuth       ProviderName = "openai-auth"
	ProviderOpenRouter       ProviderName = "openrouter"
	ProviderOpenAI           ProviderName = "openai"
	ProviderAnthropic        ProviderName = "anthropic"
	ProviderGemini           ProviderName = "gemini"
	ProviderOpenAICompatible ProviderName = "openai-compatible"
)

// DefaultPriority is the default fallback chain when no JSON config file
// is configured (spec.md §6).
var DefaultPriority = []ProviderName{
	ProviderOpenAIAuth, ProviderOpenRouter, ProviderOpenAI,
	ProviderAnthropic, ProviderGemini, ProviderOpenAICompatible,
}

// defaultEnvVar maps each provider to its default environment variable
// name, used when no explicit config field or env hint is given.
var defaultEnvVar = map[ProviderName]string{
	ProviderOpenAIAuth:       "OPENAI_API_KEY",
	ProviderOpenRouter:       "OPENROUTER_API_KEY",
	ProviderOpenAI:           "OPENAI_API_KEY",
	ProviderAnthropic:        "ANTHROPIC_API_KEY",
	ProviderGemini:           "GEMINI_API_KEY",
	ProviderOpenAICompatible: "OPENAI_COMPATIBLE_API_KEY",
}

// ResolveKey reads a provider's key from, in order: an explicit config
// field, an env hint name, or the provider's default env var name
// (spec.md §6).
func ResolveKey(name ProviderName, configField, envHint string) string {
	if configField != "" {
		return configField
	}
	if envHint != "" {
		if v := os.Getenv(envHint); v != "" {
			return v
		}
	}
	if envName, ok := defaultEnvVar[name]; ok {
		return os.Getenv(envName)
	}
	return ""
}

// Router implements Client with a fallback chain over configured
// providers. Provider construction order comes from either a JSON config
// file (ConfigPath) or DefaultPriority.
type Router struct {
	providers []Client
}

// NewRouter builds a router over an ordered, pre-constructed provider
// chain (callers resolve each provider's concrete Client via its own
// key-resolution and construction logic before handing the chain here).
func NewRouter(providers []Client) *Router {
	return &Router{providers: providers}
}

// Name identifies the router itself as the active ChatClient.
func (r *Router) Name() string { return "router" }

// ChatCompletion tries each provider in order; a ProviderError is
// repairable (the router tries the next provider), but an exhausted chain
// surfaces to the caller (spec.md §7).
func (r *Router) ChatCompletion(ctx context.Context, systemPrompt, userPrompt string) (Response, error) {
	var lastErr error
	for _, p := range r.providers {
		resp, err := p.ChatCompletion(ctx, systemPrompt, userPrompt)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no providers configured")
	}
	return Response{}, forgeerr.New(forgeerr.ProviderError, "chat_completion", lastErr)
}
