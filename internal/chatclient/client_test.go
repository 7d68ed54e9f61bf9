package chatclient

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forge/internal/forgeerr"
)

type fakeClient struct {
	name string
	fail bool
}

func (f fakeClient) Name() string { return f.name }

func (f fakeClient) ChatCompletion(ctx context.Context, system, user string) (Response, error) {
	if f.fail {
		return Response{}, fmt.Errorf("fake failure")
	}
	return Response{LLMName: f.name, Content: "ok", TokenCost: 1}, nil
}

func TestRouterFallsBackToNextProvider(t *testing.T) {
	r := NewRouter([]Client{
		fakeClient{name: "first", fail: true},
		fakeClient{name: "second", fail: false},
	})
	resp, err := r.ChatCompletion(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "second", resp.LLMName)
}

func TestRouterSurfacesErrorWhenChainExhausted(t *testing.T) {
	r := NewRouter([]Client{
		fakeClient{name: "first", fail: true},
		fakeClient{name: "second", fail: true},
	})
	_, err := r.ChatCompletion(context.Background(), "sys", "user")
	require.Error(t, err)
	assert.True(t, forgeerr.Is(err, forgeerr.ProviderError))
}

func TestResolveKeyPrefersConfigFieldOverEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-value")
	key := ResolveKey(ProviderOpenAI, "config-value", "")
	assert.Equal(t, "config-value", key)
}

func TestResolveKeyFallsBackToEnvHint(t *testing.T) {
	t.Setenv("MY_HINT", "hint-value")
	key := ResolveKey(ProviderOpenAI, "", "MY_HINT")
	assert.Equal(t, "hint-value", key)
}

func TestResolveKeyFallsBackToDefaultEnvVar(t *testing.T) {
	os.Unsetenv("OPENROUTER_API_KEY")
	t.Setenv("OPENROUTER_API_KEY", "default-value")
	key := ResolveKey(ProviderOpenRouter, "", "")
	assert.Equal(t, "default-value", key)
}

func TestBuildChainSkipsProvidersWithoutKeys(t *testing.T) {
	os.Unsetenv("ANTHROPIC_API_KEY")
	chain := BuildChain([]ProviderSpec{
		{Name: ProviderAnthropic},
		{Name: ProviderOpenAI, ConfigKey: "explicit-key"},
	})
	require.Len(t, chain, 1)
	assert.Equal(t, "openai", chain[0].Name())
}
