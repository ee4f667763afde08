package llms

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/lexalign/concordance/config"
	"github.com/lexalign/concordance/pkg/models"
	"github.com/sashabaranov/go-openai"
)

const OpenAIAPIKeyNotSetError = "CONCORDANCE_OPENAI_API_KEY is not set" //nolint:gosec

// chatCompleter is the subset of the go-openai client used here.
type chatCompleter interface {
	CreateChatCompletion(
		ctx context.Context,
		request openai.ChatCompletionRequest,
	) (openai.ChatCompletionResponse, error)
}

// OpenAIGenerator renders a local prompt for the request purpose and sends it
// to an OpenAI-compatible chat completion endpoint.
type OpenAIGenerator struct {
	client chatCompleter
	model  string
}

var _ models.Generator = &OpenAIGenerator{}

func NewOpenAIGenerator(cfg *config.Config, httpClient *http.Client) (*OpenAIGenerator, error) {
	if cfg.LLM.OpenAIAPIKey == "" {
		return nil, errors.New(OpenAIAPIKeyNotSetError)
	}
	clientConfig := openai.DefaultConfig(cfg.LLM.OpenAIAPIKey)
	if cfg.LLM.OpenAIEndpoint != "" {
		clientConfig.BaseURL = cfg.LLM.OpenAIEndpoint
	}
	if httpClient != nil {
		clientConfig.HTTPClient = httpClient
	}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.LLM.Model,
	}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req models.GenerationRequest) (string, error) {
	prompt, err := RenderPrompt(req.Purpose, req.PromptVariables)
	if err != nil {
		return "", err
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: DefaultTemperature,
	})
	if err != nil {
		return "", asUpstreamError(err)
	}
	if len(resp.Choices) == 0 {
		log.Debugf("chat completion for %s returned no choices", req.Purpose)
		return "", nil
	}

	return resp.Choices[0].Message.Content, nil
}

const DefaultTemperature = 0.0

func asUpstreamError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return models.NewUpstreamError(apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return models.NewUpstreamError(reqErr.HTTPStatusCode, "", err)
	}
	return models.NewUpstreamError(0, "", fmt.Errorf("chat completion: %w", err))
}
