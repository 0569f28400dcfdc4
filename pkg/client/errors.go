package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type tokenKey struct{}

// WithBearerToken attaches the caller's identity token to outgoing requests.
func WithBearerToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey{}, token)
}

func BearerToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// APIError is a non-2xx backend answer. Name and Message come from the
// backend's JSON error body when present.
type APIError struct {
	Status  int    `json:"status"`
	Name    string `json:"name,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend responded %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend responded %d", e.Status)
}

func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// checkResponse turns a failed response into an *APIError.
func checkResponse(resp *Response) error {
	if resp.OK() {
		return nil
	}
	apiErr := &APIError{Status: resp.StatusCode}

	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Code    string `json:"code"`
		Name    string `json:"name"`
	}
	if err := resp.DecodeJSON(&body); err == nil {
		apiErr.Name = body.Name
		apiErr.Code = body.Code
		apiErr.Message = body.Message
		if apiErr.Message == "" {
			apiErr.Message = body.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func decode[T any](resp *Response, what string) (T, error) {
	var out T
	if err := checkResponse(resp); err != nil {
		return out, err
	}
	if len(resp.Body) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return out, fmt.Errorf("could not decode %s: %w", what, err)
	}
	return out, nil
}
