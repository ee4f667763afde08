package llms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/lexalign/concordance/pkg/models"
)

const (
	apiKeyGrantType = "urn:ibm:params:oauth:grant-type:apikey"
	maxTokenBody    = 64 << 10
)

// TokenFetcher exchanges an API key for a bearer token.
type TokenFetcher interface {
	FetchToken(ctx context.Context, apiKey string) (string, error)
}

// TokenProvider fetches IAM access tokens. Tokens are not cached; every call
// hits the identity endpoint.
type TokenProvider struct {
	identityURL string
	client      *http.Client
}

var _ TokenFetcher = &TokenProvider{}

func NewTokenProvider(identityURL string, client *http.Client) *TokenProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &TokenProvider{identityURL: identityURL, client: client}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

func (p *TokenProvider) FetchToken(ctx context.Context, apiKey string) (string, error) {
	if apiKey == "" {
		return "", models.NewAuthError("api key is not set", nil)
	}

	form := url.Values{}
	form.Set("grant_type", apiKeyGrantType)
	form.Set("apikey", apiKey)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		p.identityURL,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return "", models.NewAuthError("building token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", models.NewAuthError("token request failed", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp, maxTokenBody)
	if err != nil {
		return "", models.NewAuthError("token request failed", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", models.NewAuthError(
			fmt.Sprintf("identity service returned status %d", resp.StatusCode),
			nil,
		)
	}

	var tr tokenResponse
	if err := json.Unmarshal([]byte(body), &tr); err != nil {
		return "", models.NewAuthError("decoding token response", err)
	}
	if tr.AccessToken == "" {
		return "", models.NewAuthError("token response has no access_token", nil)
	}

	return tr.AccessToken, nil
}
