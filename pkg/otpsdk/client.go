package otpsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a client for the otpgate service. The zero value is not usable;
// construct one with NewClient.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new otpgate client.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// BeginChallenge starts the OTP step for a principal. A "passed" status means
// the principal is not enrolled and no challenge was issued.
func (c *Client) BeginChallenge(ctx context.Context, req BeginChallengeRequest) (*BeginChallengeResponse, error) {
	var out BeginChallengeResponse
	if err := c.postJSON(ctx, "/v1/challenge", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitCode submits a user-entered code against an open challenge.
func (c *Client) SubmitCode(ctx context.Context, challengeID, code string) (*SubmitCodeResponse, error) {
	var out SubmitCodeResponse
	path := "/v1/challenge/" + challengeID
	if err := c.postJSON(ctx, path, SubmitCodeRequest{OTP: code}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResendCode asks the service to deliver a fresh code for an open challenge.
func (c *Client) ResendCode(ctx context.Context, challengeID string) (*SubmitCodeResponse, error) {
	var out SubmitCodeResponse
	path := "/v1/challenge/" + challengeID
	if err := c.postJSON(ctx, path, SubmitCodeRequest{Resend: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePrincipal registers a principal the host flow can later challenge.
func (c *Client) CreatePrincipal(ctx context.Context, req CreatePrincipalRequest) (*CreatePrincipalResponse, error) {
	var out CreatePrincipalResponse
	if err := c.postJSON(ctx, "/v1/principals", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Livez checks service liveness.
func (c *Client) Livez(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.getJSON(ctx, "/livez", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Readyz checks service readiness including its dependencies.
func (c *Client) Readyz(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.getJSON(ctx, "/readyz", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) url(path string) string {
	return c.BaseURL + path
}

func (c *Client) postJSON(ctx context.Context, path string, body, target any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	return decodeJSON(resp, target)
}

func (c *Client) getJSON(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	return decodeJSON(resp, target)
}

// decodeJSON decodes a JSON response into the target. Non-2xx responses are
// turned into a typed *APIError.
func decodeJSON(resp *http.Response, target any) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := parseErrorResponse(resp, bodyBytes); err != nil {
		return err
	}

	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
