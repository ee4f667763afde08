package llms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/lexalign/concordance/config"
	"github.com/lexalign/concordance/internal"
	"github.com/lexalign/concordance/pkg/models"
)

const maxGenerationBody = 8 << 20

// WatsonxGenerator calls hosted prompt deployments. Each call fetches a fresh
// token and posts the prompt variables to the deployment URL.
type WatsonxGenerator struct {
	tokens      TokenFetcher
	apiKey      string
	deployments config.DeploymentsConfig
	client      *http.Client
}

var _ models.Generator = &WatsonxGenerator{}

func NewWatsonxGenerator(
	tokens TokenFetcher,
	apiKey string,
	deployments config.DeploymentsConfig,
	client *http.Client,
) *WatsonxGenerator {
	if client == nil {
		client = http.DefaultClient
	}
	return &WatsonxGenerator{
		tokens:      tokens,
		apiKey:      apiKey,
		deployments: deployments,
		client:      client,
	}
}

type deploymentRequest struct {
	Parameters deploymentParameters `json:"parameters"`
}

type deploymentParameters struct {
	PromptVariables map[string]string `json:"prompt_variables"`
}

type deploymentResponse struct {
	Results []struct {
		GeneratedText string `json:"generated_text"`
	} `json:"results"`
}

func (g *WatsonxGenerator) Generate(ctx context.Context, req models.GenerationRequest) (string, error) {
	deploymentURL := req.DeploymentURL
	if deploymentURL == "" {
		deploymentURL = DeploymentURL(g.deployments, req.Purpose)
	}
	if deploymentURL == "" {
		return "", models.NewUpstreamError(
			0, "", fmt.Errorf("no deployment configured for %q", req.Purpose),
		)
	}

	token, err := g.tokens.FetchToken(ctx, g.apiKey)
	if err != nil {
		return "", err
	}

	vars := req.PromptVariables
	if vars == nil {
		vars = map[string]string{}
	}
	payload, err := json.Marshal(deploymentRequest{
		Parameters: deploymentParameters{PromptVariables: vars},
	})
	if err != nil {
		return "", fmt.Errorf("encoding deployment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		deploymentURL,
		bytes.NewReader(payload),
	)
	if err != nil {
		return "", models.NewUpstreamError(0, "", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", models.NewUpstreamError(0, "", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp, maxGenerationBody)
	if err != nil {
		return "", models.NewUpstreamError(resp.StatusCode, "", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", models.NewUpstreamError(resp.StatusCode, internal.Truncate(body, maxErrorBody), nil)
	}

	var dr deploymentResponse
	if err := json.Unmarshal([]byte(body), &dr); err != nil {
		return "", models.NewUpstreamError(resp.StatusCode, internal.Truncate(body, maxErrorBody), err)
	}
	if len(dr.Results) == 0 {
		log.Debugf("deployment %s returned no results", req.Purpose)
		return "", nil
	}

	return dr.Results[0].GeneratedText, nil
}

// DeploymentURL returns the configured URL for a purpose, or "".
func DeploymentURL(d config.DeploymentsConfig, purpose models.Purpose) string {
	switch purpose {
	case models.PurposeAnalyzeV1:
		return d.AnalyzeV1
	case models.PurposeAnalyzeV2:
		return d.AnalyzeV2
	case models.PurposeJudge:
		return d.Judge
	case models.PurposeTestGenerator:
		return d.TestGenerator
	default:
		return ""
	}
}
