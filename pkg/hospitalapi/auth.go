package hospitalapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Login posts credentials to the backend and returns its discriminated
// login payload. Interpretation of the payload (MFA enrollment, MFA
// challenge, or completed authentication) is the caller's job.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginData, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode login request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var data LoginData
	if _, err := decodeEnvelope(resp, &data); err != nil {
		return nil, err
	}

	return &data, nil
}

// Register posts a registration request. The backend outcome is passed
// through untouched; no tokens are issued by this endpoint.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode register request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/register", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	env, err := decodeEnvelope(resp, nil)
	if err != nil {
		return nil, err
	}

	return &RegisterResult{
		StatusCode: env.StatusCode,
		IntCode:    env.Body.IntCode,
	}, nil
}

// GetProfile calls the "who am I" endpoint using the stored bearer
// token. It is the startup check that decides whether a stored token is
// still good.
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/usuarios/perfil", nil)
	if err != nil {
		return nil, err
	}

	var profile Profile
	if err := decodeJSON(resp, &profile); err != nil {
		return nil, err
	}

	return &profile, nil
}

// Logout notifies the backend that the session is over. Callers treat
// this as best-effort; local cleanup must not depend on it succeeding.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/logout", bytes.NewReader([]byte(`{}`)))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return parseErrorResponse(resp, bodyBytes)
	}

	return nil
}
