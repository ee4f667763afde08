package llms

import (
	"fmt"

	"github.com/lexalign/concordance/config"
	"github.com/lexalign/concordance/pkg/models"
)

// NewGenerator builds the generator for the configured LLM service, wrapped in
// the configured retry policy.
func NewGenerator(cfg *config.Config) (models.Generator, error) {
	httpClient := NewRetryableHTTPClient(cfg.Retry.HTTPRetryMax, cfg.LLM.Timeout).StandardClient()

	var gen models.Generator
	switch cfg.LLM.Service {
	case "watsonx", "":
		tokens := NewTokenProvider(cfg.Watsonx.IdentityURL, httpClient)
		gen = NewWatsonxGenerator(tokens, cfg.Watsonx.APIKey, cfg.Watsonx.Deployments, httpClient)
	case "openai":
		openaiGen, err := NewOpenAIGenerator(cfg, httpClient)
		if err != nil {
			return nil, err
		}
		gen = openaiGen
	default:
		return nil, fmt.Errorf("invalid LLM service: %s", cfg.LLM.Service)
	}

	return WithRetry(gen, RetryPolicyFromConfig(cfg.Retry)), nil
}
