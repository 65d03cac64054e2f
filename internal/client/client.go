// Package client talks to the chat service over HTTP: login, job submission
// and status polling.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"school-assistant/internal/domain/model"
)

var (
	ErrJobNotFound    = errors.New("job not found or expired")
	ErrSessionExpired = errors.New("session expired; please log in again")
)

const sessionCookie = "app_session"

type Client struct {
	base  string
	http  *http.Client
	token string
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// SetToken uses an existing session token for later calls.
func (c *Client) SetToken(token string) { c.token = token }

func (c *Client) Token() string { return c.token }

// LoginAdmin exchanges the admin password for a session token.
func (c *Client) LoginAdmin(ctx context.Context, password string) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/auth-admin", map[string]string{"password": password})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return readError(resp)
	}
	for _, ck := range resp.Cookies() {
		if ck.Name == sessionCookie && ck.Value != "" {
			c.token = ck.Value
			return nil
		}
	}
	return errors.New("login succeeded but no session cookie was returned")
}

// Submit starts a job and returns its ID.
func (c *Client) Submit(ctx context.Context, messages []model.ChatMessage, modelName string) (string, error) {
	body := map[string]any{"messages": messages}
	if modelName != "" {
		body["model"] = modelName
	}
	resp, err := c.do(ctx, http.MethodPost, "/api/chat/start", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusAccepted, http.StatusOK:
	case http.StatusUnauthorized:
		return "", ErrSessionExpired
	default:
		return "", readError(resp)
	}
	var out struct {
		JobID string `json:"jobId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode submit response: %w", err)
	}
	if out.JobID == "" {
		return "", errors.New("server returned no job id")
	}
	return out.JobID, nil
}

// Status reads one snapshot of the job.
func (c *Client) Status(ctx context.Context, jobID string) (model.JobSnapshot, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/chat/status?id="+url.QueryEscape(jobID), nil)
	if err != nil {
		return model.JobSnapshot{}, err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return model.JobSnapshot{}, ErrJobNotFound
	case http.StatusUnauthorized:
		return model.JobSnapshot{}, ErrSessionExpired
	default:
		return model.JobSnapshot{}, readError(resp)
	}
	var snap model.JobSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return model.JobSnapshot{}, fmt.Errorf("decode status: %w", err)
	}
	return snap, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.http.Do(req)
}

func readError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		return fmt.Errorf("%s: %s", resp.Status, body.Error)
	}
	return fmt.Errorf("request failed with status %s", resp.Status)
}
