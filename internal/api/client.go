package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	httpTimeoutEnvKey  = "PORTRAIT_HTTP_TIMEOUT"
	apiTokenEnvKey     = "PORTRAIT_API_TOKEN"

	profileImagePath = "/api/profile-image"
)

// Client is a simple HTTP client for the portrait API.
type Client struct {
	baseURL   string
	http      *http.Client
	authToken string
}

// NewClient creates a new API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: httpTimeoutFromEnv()},
		authToken: strings.TrimSpace(os.Getenv(apiTokenEnvKey)),
	}
}

// WithToken returns a copy of c that authenticates with token.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.authToken = strings.TrimSpace(token)
	return &clone
}

// WithHTTPClient returns a copy of c using hc for requests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	clone := *c
	if hc != nil {
		clone.http = hc
	}
	return &clone
}

// Ping checks whether the API server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// GetProfileImage returns the stored image. ok is false when the server reports null.
func (c *Client) GetProfileImage(ctx context.Context) (string, bool, error) {
	var resp ProfileImageResponse
	if err := c.do(ctx, http.MethodGet, profileImagePath, nil, &resp); err != nil {
		return "", false, err
	}
	if resp.Image == nil || *resp.Image == "" {
		return "", false, nil
	}
	return *resp.Image, true, nil
}

// SaveProfileImage uploads a new image value.
func (c *Client) SaveProfileImage(ctx context.Context, image string) (ProfileImageSaveResponse, error) {
	var resp ProfileImageSaveResponse
	err := c.do(ctx, http.MethodPost, profileImagePath, ProfileImageSaveRequest{Image: image}, &resp)
	return resp, err
}

// AuthMe reports whether the client's credentials are accepted.
func (c *Client) AuthMe(ctx context.Context) (AuthMeResponse, error) {
	var resp AuthMeResponse
	err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &resp)
	return resp, err
}

// Login exchanges the operator password for a session. The session cookie is
// only kept when the underlying http.Client has a cookie jar.
func (c *Client) Login(ctx context.Context, password string) (AuthMeResponse, error) {
	var resp AuthMeResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", AuthLoginRequest{Password: password}, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	endpoint := c.baseURL + path

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setAuthHeader(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
		apiErr.Code = errResp.Code
		apiErr.ErrorCode = errResp.ErrorCode
		apiErr.Message = errResp.Error
		return apiErr
	}
	apiErr.Message = fmt.Sprintf("api error: %s", resp.Status)
	return apiErr
}

func (c *Client) setAuthHeader(req *http.Request) {
	if c.authToken == "" || req == nil {
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.authToken)
}

func httpTimeoutFromEnv() time.Duration {
	value := strings.TrimSpace(os.Getenv(httpTimeoutEnvKey))
	if value == "" {
		return defaultHTTPTimeout
	}

	if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
		return duration
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	return defaultHTTPTimeout
}
