package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"mcpadmin/models"
	"mcpadmin/utils/logger"

	"github.com/tidwall/gjson"
)

const maxResponseBody = 1 << 20

// APIClient performs JSON requests against the backend
type APIClient struct {
	baseURL string
	client  *http.Client
	logger  logger.Logger
}

// apiResult is a completed HTTP exchange, successful or not
type apiResult struct {
	StatusCode int
	Body       []byte
}

func (r *apiResult) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// NewAPIClient creates a client for baseURL. The http.Client decides how the
// session credential and bearer token are attached.
func NewAPIClient(baseURL string, client *http.Client, log logger.Logger) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  log,
	}
}

// HTTPClient returns the underlying client
func (c *APIClient) HTTPClient() *http.Client {
	return c.client
}

// send executes one request. Transport failures are returned as errors;
// non-2xx responses are returned as results for the caller to map.
func (c *APIClient) send(ctx context.Context, method, path string, body interface{}, bearer string) (*apiResult, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &apiResult{StatusCode: resp.StatusCode, Body: data}, nil
}

func (r *apiResult) decode(out interface{}) error {
	if out == nil || len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// ErrorMessage extracts the backend's error message from a response body.
// It looks at detail (string), detail.0.msg (validation list), message and
// error in that order, and returns fallback when none is present.
func ErrorMessage(body []byte, fallback string) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return fallback
	}
	for _, path := range []string{"detail", "detail.0.msg", "message", "error"} {
		v := gjson.GetBytes(body, path)
		if v.Type == gjson.String && v.String() != "" {
			return v.String()
		}
	}
	// {"error": {"message": "..."}}
	if v := gjson.GetBytes(body, "error.message"); v.Type == gjson.String && v.String() != "" {
		return v.String()
	}
	return fallback
}

// requestError maps a failed exchange onto the error taxonomy. 401 and 403
// always become ErrAuthRequired; everything else takes kind.
func requestError(op string, kind error, res *apiResult, fallback string) *models.RequestError {
	if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
		kind = models.ErrAuthRequired
	}
	return &models.RequestError{
		Kind:       kind,
		Op:         op,
		StatusCode: res.StatusCode,
		Message:    ErrorMessage(res.Body, fallback),
	}
}

func transportError(op string, kind error, err error) *models.RequestError {
	// the bearer transport fails before sending when no token is held
	if errors.Is(err, models.ErrNotAuthenticated) {
		kind = models.ErrNotAuthenticated
	}
	return &models.RequestError{
		Kind:    kind,
		Op:      op,
		Message: err.Error(),
	}
}
