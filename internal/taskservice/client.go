// Package taskservice provides the client for the external task service,
// which owns task CRUD and authorization. The coordinator depends only
// on this narrow contract: creating a task (for recurrence) and listing
// tasks due within a window (for the reminder scan).
package taskservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/phrazzld/taskflow/internal/domain"
)

// Client is the task service contract the coordinator depends on.
type Client interface {
	// CreateTask asks the task service to create a new task and returns
	// the created record.
	CreateTask(ctx context.Context, task domain.NewTask) (*domain.TaskRecord, error)

	// GetDueTasks returns tasks whose due date falls within the given
	// window from now.
	GetDueTasks(ctx context.Context, within time.Duration) ([]domain.TaskRecord, error)
}

// HTTPClient implements Client over the task service's internal HTTP API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a task service client for the given base URL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// CreateTask posts the new task to the task service.
func (c *HTTPClient) CreateTask(ctx context.Context, task domain.NewTask) (*domain.TaskRecord, error) {
	body, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("failed to encode task: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/internal/tasks", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build create task request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create task request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("create task returned status %d: %s", resp.StatusCode, data)
	}

	var created domain.TaskRecord
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("failed to decode created task: %w", err)
	}
	return &created, nil
}

// GetDueTasks fetches tasks due within the window.
func (c *HTTPClient) GetDueTasks(ctx context.Context, within time.Duration) ([]domain.TaskRecord, error) {
	url := fmt.Sprintf("%s/internal/tasks/due?within_minutes=%d", c.baseURL, int(within.Minutes()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build due tasks request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("due tasks request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("due tasks returned status %d: %s", resp.StatusCode, data)
	}

	var tasks []domain.TaskRecord
	if err := json.NewDecoder(resp.Body).Decode(&tasks); err != nil {
		return nil, fmt.Errorf("failed to decode due tasks: %w", err)
	}
	return tasks, nil
}
