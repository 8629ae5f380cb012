package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/models"
)

// APIError is a non-2xx answer from the task API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("task api returned %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) FetchTasks(ctx context.Context) ([]map[string]any, error) {
	var response struct {
		Tasks []map[string]any `json:"tasks"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &response); err != nil {
		return nil, fmt.Errorf("fetching tasks: %w", err)
	}
	return response.Tasks, nil
}

func (c *Client) CreateTask(ctx context.Context, request models.CreateTaskRequest) (map[string]any, error) {
	var response struct {
		Task map[string]any `json:"task"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/tasks", request, &response); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	return response.Task, nil
}

func (c *Client) UpdateTask(ctx context.Context, id string, updates map[string]any) (map[string]any, error) {
	var response struct {
		Task map[string]any `json:"task"`
	}
	if err := c.do(ctx, http.MethodPatch, "/api/tasks/"+url.PathEscape(id), updates, &response); err != nil {
		return nil, fmt.Errorf("updating task %s: %w", id, err)
	}
	return response.Task, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func errorMessage(data []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(data))
}
