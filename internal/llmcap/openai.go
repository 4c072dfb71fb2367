package llmcap

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/packages/param"
	"github.com/openai/openai-go/v2/shared"

	"github.com/intelligencedev/transcriptlens/internal/jobtypes"
)

// OpenAIProvider dispatches Complete calls to the OpenAI chat-completions
// API, ported from the teacher's internal/llm/openai_client.go CallLLM.
type OpenAIProvider struct {
	client openai.Client
}

// NewOpenAIProvider builds a provider against apiKey, optionally pointed at
// a non-default endpoint (for OpenAI-compatible local servers).
func NewOpenAIProvider(apiKey, endpoint string) *OpenAIProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if endpoint != "" {
		opts = append(opts, option.WithBaseURL(endpoint))
	}
	return &OpenAIProvider{client: openai.NewClient(opts...)}
}

func (p *OpenAIProvider) Name() string { return "gpt" }

// isThinkingModel recognizes the "o<int>-*" reasoning-model family, which
// takes max_completion_tokens instead of max_tokens.
func isThinkingModel(model string) bool {
	model = strings.ToLower(model)
	if !strings.HasPrefix(model, "o") {
		return false
	}
	rest := model[1:]
	i := 0
	for ; i < len(rest) && rest[i] >= '0' && rest[i] <= '9'; i++ {
	}
	return i > 0 && i < len(rest) && rest[i] == '-'
}

func (p *OpenAIProvider) Complete(ctx context.Context, prompt, system string, opts CompletionOptions) (string, jobtypes.TokenUsage, error) {
	var msgs []openai.ChatCompletionMessageParamUnion
	if system != "" {
		msgs = append(msgs, openai.SystemMessage(system))
	}
	msgs = append(msgs, openai.UserMessage(prompt))

	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(opts.Model),
		Messages:    msgs,
		Temperature: param.NewOpt(opts.Temperature),
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	if isThinkingModel(opts.Model) {
		params.MaxCompletionTokens = param.NewOpt(int64(maxTokens))
	} else {
		params.MaxTokens = param.NewOpt(int64(maxTokens))
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", jobtypes.TokenUsage{}, err
	}
	if len(resp.Choices) == 0 {
		return "", jobtypes.TokenUsage{}, fmt.Errorf("openai: no choices returned")
	}
	usage := jobtypes.TokenUsage{
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}
	return resp.Choices[0].Message.Content, usage, nil
}
