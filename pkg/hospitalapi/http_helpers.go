package hospitalapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// decodeEnvelope reads an envelope-wrapped response and unmarshals the
// first element of body.data into target. The backend returns payloads
// as single-element arrays; an empty array is an invalid response.
func decodeEnvelope(resp *http.Response, target any) (*envelope, error) {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseErrorResponse(resp, bodyBytes)
	}

	var env envelope
	if err := json.Unmarshal(bodyBytes, &env); err != nil {
		return nil, fmt.Errorf("failed to decode response envelope: %w", err)
	}

	if target != nil {
		var items []json.RawMessage
		if err := json.Unmarshal(env.Body.Data, &items); err != nil || len(items) == 0 {
			return nil, fmt.Errorf("invalid response from server: empty data payload")
		}
		if err := json.Unmarshal(items[0], target); err != nil {
			return nil, fmt.Errorf("failed to decode response payload: %w", err)
		}
	}

	return &env, nil
}

// decodeJSON reads a bare (non-envelope) JSON response into target.
func decodeJSON(resp *http.Response, target any) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseErrorResponse(resp, bodyBytes)
	}

	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
