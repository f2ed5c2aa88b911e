package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/GarvGoel08/DocOnGo/internal/observability"
	"github.com/GarvGoel08/DocOnGo/models"
)

// AuthClient talks to the auth backend: accounts, profiles and the
// server-side Gemini API key storage for logged-in users. Unlike the
// conversation client it takes the token explicitly per call, because
// it is itself the thing that produces tokens.
type AuthClient struct {
	http *resty.Client
	log  *slog.Logger
}

// NewAuthClient creates an auth client rooted at baseURL, e.g.
// "http://localhost:5000/api".
func NewAuthClient(baseURL string, timeout time.Duration) *AuthClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := resty.New()
	httpClient.SetBaseURL(baseURL)
	httpClient.SetTimeout(timeout)
	httpClient.SetHeader("Content-Type", "application/json")

	return &AuthClient{
		http: httpClient,
		log:  observability.WithFields("component", "auth_api"),
	}
}

// Register creates an account and returns its first token.
func (c *AuthClient) Register(ctx context.Context, in models.RegisterRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	resp, err := c.http.R().SetContext(ctx).SetBody(in).SetResult(&out).Post("/auth/register")
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if resp.IsError() {
		return nil, decodeAPIError(resp)
	}
	return &out, nil
}

// Login authenticates an account.
func (c *AuthClient) Login(ctx context.Context, in models.LoginRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	resp, err := c.http.R().SetContext(ctx).SetBody(in).SetResult(&out).Post("/auth/login")
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if resp.IsError() {
		return nil, decodeAPIError(resp)
	}
	c.log.Info("logged in", "email", in.Email)
	return &out, nil
}

// Profile fetches the account behind the token.
func (c *AuthClient) Profile(ctx context.Context, token string) (*models.User, error) {
	var out models.User
	resp, err := c.http.R().SetContext(ctx).SetAuthToken(token).SetResult(&out).Get("/auth/profile")
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	if resp.IsError() {
		return nil, decodeAPIError(resp)
	}
	return &out, nil
}

// UpdateProfile renames the account.
func (c *AuthClient) UpdateProfile(ctx context.Context, token, name string) (*models.User, error) {
	var out models.User
	resp, err := c.http.R().SetContext(ctx).SetAuthToken(token).
		SetBody(map[string]string{"name": name}).
		SetResult(&out).
		Put("/auth/profile")
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if resp.IsError() {
		return nil, decodeAPIError(resp)
	}
	return &out, nil
}

// SetAPIKey stores the Gemini API key server-side for the account.
func (c *AuthClient) SetAPIKey(ctx context.Context, token, apiKey string) error {
	resp, err := c.http.R().SetContext(ctx).SetAuthToken(token).
		SetBody(models.APIKeyRequest{APIKey: apiKey}).
		Post("/auth/api-key")
	if err != nil {
		return fmt.Errorf("set api key: %w", err)
	}
	if resp.IsError() {
		return decodeAPIError(resp)
	}
	return nil
}

// CheckAPIKey reports whether the account has a stored key.
func (c *AuthClient) CheckAPIKey(ctx context.Context, token string) (bool, error) {
	var out models.APIKeyCheckResponse
	resp, err := c.http.R().SetContext(ctx).SetAuthToken(token).SetResult(&out).Get("/auth/api-key/check")
	if err != nil {
		return false, fmt.Errorf("check api key: %w", err)
	}
	if resp.IsError() {
		return false, decodeAPIError(resp)
	}
	return out.HasAPIKey, nil
}

// GetAPIKey fetches the account's stored key for use in requests.
func (c *AuthClient) GetAPIKey(ctx context.Context, token string) (string, error) {
	var out models.APIKeyResponse
	resp, err := c.http.R().SetContext(ctx).SetAuthToken(token).SetResult(&out).Get("/auth/api-key")
	if err != nil {
		return "", fmt.Errorf("get api key: %w", err)
	}
	if resp.IsError() {
		return "", decodeAPIError(resp)
	}
	return out.APIKey, nil
}
