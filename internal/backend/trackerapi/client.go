// Package trackerapi implements the service.Service interface over the
// tracker backend's HTTP API.
package trackerapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"taskgrid/internal/config"
	"taskgrid/internal/service"
)

const (
	listPath   = "/api/jira"
	updatePath = "/api/update"
	createPath = "/api/create-tasks"
	importPath = "/api/import-excel"

	// importField is the multipart field the backend reads the file from.
	importField = "file"

	contentTypeJSON = "application/json"
)

// Client implements service.Service against the tracker backend.
type Client struct {
	http    *http.Client
	baseURL string
}

// New creates a client for the configured backend.
// When a token has been stored with `taskgrid login`, every request carries
// it as a bearer token.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	httpClient := &http.Client{}

	if cfg.HasToken() {
		tokenData, err := os.ReadFile(cfg.TokenPath())
		if err != nil {
			return nil, fmt.Errorf("failed to read token.json: %w", err)
		}

		var token oauth2.Token
		if err := json.Unmarshal(tokenData, &token); err != nil {
			return nil, fmt.Errorf("invalid token.json: %w", err)
		}
		if token.AccessToken == "" {
			return nil, fmt.Errorf("invalid token.json: empty token")
		}

		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&token))
	}
	httpClient.Timeout = cfg.Settings.HTTPTimeout

	return NewWithHTTPClient(cfg.Settings.BackendURL, httpClient), nil
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// ListTasks returns all tasks reported by the tracker.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, listPath, nil, &raw); err != nil {
		return nil, err
	}

	if !isJSONArray(raw) {
		return nil, fmt.Errorf("%w: expected a list of tasks", service.ErrMalformed)
	}

	var tasks []service.Task
	if err := json.Unmarshal(raw, &tasks); err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrMalformed, err)
	}
	return tasks, nil
}

// UpdateTasks sends committed tasks to the update endpoint.
func (c *Client) UpdateTasks(ctx context.Context, tasks []service.Task) error {
	req := struct {
		Data []service.Task `json:"data"`
	}{Data: tasks}

	return c.doJSON(ctx, http.MethodPost, updatePath, req, nil)
}

// CreateTasks sends pending tasks to the create endpoint.
// A response without created_tasks maps nothing.
func (c *Client) CreateTasks(ctx context.Context, tasks []service.Task) ([]service.CreatedTask, error) {
	req := struct {
		Tasks []service.Task `json:"tasks"`
	}{Tasks: tasks}

	var resp struct {
		CreatedTasks []service.CreatedTask `json:"created_tasks"`
	}
	if err := c.doJSON(ctx, http.MethodPost, createPath, req, &resp); err != nil {
		return nil, err
	}
	return resp.CreatedTasks, nil
}

// ImportSpreadsheet uploads a spreadsheet as multipart form data.
func (c *Client) ImportSpreadsheet(ctx context.Context, filename string, r io.Reader) ([]service.Task, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile(importField, filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+importPath, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", contentTypeJSON)

	var resp struct {
		Tasks json.RawMessage `json:"tasks"`
	}
	if err := c.send(req, &resp); err != nil {
		return nil, err
	}
	if !isJSONArray(resp.Tasks) {
		return nil, fmt.Errorf("%w: expected a list of tasks", service.ErrMalformed)
	}

	var tasks []service.Task
	if err := json.Unmarshal(resp.Tasks, &tasks); err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrMalformed, err)
	}
	return tasks, nil
}

// doJSON sends in (when not nil) as a JSON body and decodes the response
// into out (when not nil).
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set("Content-Type", contentTypeJSON)

	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	log := zerolog.Ctx(req.Context())
	log.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Msg("backend request")

	resp, err := c.http.Do(req)
	if err != nil {
		return wrapError(err)
	}
	defer resp.Body.Close()

	log.Debug().
		Int("status", resp.StatusCode).
		Str("url", req.URL.String()).
		Msg("backend response")

	if err := googleapi.CheckResponse(resp); err != nil {
		return wrapError(err)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", service.ErrMalformed, err)
	}
	return nil
}

// isJSONArray reports whether raw holds a JSON array.
func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// wrapError classifies a failed call as a status or transport error.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %d %s", service.ErrStatus, apiErr.Code, backendMessage(apiErr))
	}

	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
		return fmt.Errorf("%w: request timed out", service.ErrTransport)
	}
	return fmt.Errorf("%w: %v", service.ErrTransport, err)
}

// backendMessage extracts the backend's {"error": "..."} text, falling back
// to the status text.
func backendMessage(apiErr *googleapi.Error) string {
	if apiErr.Message != "" {
		return apiErr.Message
	}

	var reply struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(apiErr.Body), &reply); err == nil && reply.Error != "" {
		return reply.Error
	}
	return http.StatusText(apiErr.Code)
}
