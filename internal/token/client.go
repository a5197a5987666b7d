package token

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/stockboard/marketdata-go/internal/config"
)

// ExchangeClient performs the upstream credential exchange. It deliberately
// does not retry: the upstream throttles issuance to about one call per
// minute deployment-wide, so a retry storm is worse than a clean failure.
type ExchangeClient struct {
	HTTPClient *http.Client
	BaseURL    string
	appKey     string
	appSecret  string
}

// tokenResponse is the upstream issuance payload. expires_in is the
// authoritative lifetime; the formatted timestamp is a cross-check only.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	ExpiredAt   string `json:"access_token_token_expired"`
}

type tokenRequest struct {
	GrantType string `json:"grant_type"`
	AppKey    string `json:"appkey"`
	AppSecret string `json:"appsecret"`
}

func NewExchangeClient(cfg config.UpstreamConfig) *ExchangeClient {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &ExchangeClient{
		HTTPClient: &http.Client{Timeout: timeout},
		BaseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		appKey:     cfg.AppKey,
		appSecret:  cfg.AppSecret,
	}
}

// Exchange requests a fresh bearer token. Every validation failure is an
// error: an invalid token makes all downstream market-data calls
// meaningless, so this path fails closed instead of degrading.
func (c *ExchangeClient) Exchange(ctx context.Context) (CachedToken, error) {
	body, err := json.Marshal(tokenRequest{
		GrantType: "client_credentials",
		AppKey:    c.appKey,
		AppSecret: c.appSecret,
	})
	if err != nil {
		return CachedToken{}, fmt.Errorf("failed to marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/oauth2/tokenP", bytes.NewBuffer(body))
	if err != nil {
		return CachedToken{}, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return CachedToken{}, fmt.Errorf("credential exchange failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return CachedToken{}, fmt.Errorf("credential exchange returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return CachedToken{}, fmt.Errorf("failed to decode token response: %w", err)
	}

	if tr.AccessToken == "" {
		return CachedToken{}, fmt.Errorf("token response missing access_token")
	}
	if tr.ExpiresIn <= 0 {
		return CachedToken{}, fmt.Errorf("token response has invalid expires_in %d", tr.ExpiresIn)
	}

	return CachedToken{
		Value:     tr.AccessToken,
		ExpiresAt: time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second),
	}, nil
}
