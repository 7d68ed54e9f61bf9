package chatclient

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider is the one concrete ChatClient implementation wired in
// this build, grounded on smilemakc-mbflow's use of
// github.com/sashabaranov/go-openai and the teacher's
// CompleteWithSystem(system, user) call shape
// (internal/perception/client_openai.go).
type OpenAIProvider struct {
	name   ProviderName
	model  string
	client *openai.Client
}

// NewOpenAIProvider constructs a provider for one named slot in the
// fallback chain (openai-auth, openai, or openai-compatible all speak the
// same chat-completions protocol; only baseURL/key differ).
func NewOpenAIProvider(name ProviderName, apiKey, baseURL, model string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIProvider{name: name, model: model, client: openai.NewClientWithConfig(cfg)}
}

// Name identifies which priority-list slot this provider fills.
func (p *OpenAIProvider) Name() string { return string(p.name) }

// ChatCompletion issues one chat-completions request.
func (p *OpenAIProvider) ChatCompletion(ctx context.Context, systemPrompt, userPrompt string) (Response, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return Response{}, fmt.Errorf("chatclient: openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("chatclient: openai returned no choices")
	}
	return Response{
		LLMName:   string(p.name),
		Content:   resp.Choices[0].Message.Content,
		TokenCost: resp.Usage.TotalTokens,
	}, nil
}
