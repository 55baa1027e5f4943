package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Strob0t/Overseer/internal/resilience"
)

// Client talks to one remote agent endpoint.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates a client for the agent at baseURL.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// SendMessage submits a message to a task, creating the task if the
// remote has not seen the ID before. It returns the task's state after
// the send; a long-running remote answers "working" immediately.
func (c *Client) SendMessage(ctx context.Context, taskID string, msg Message) (*Task, error) {
	body, err := json.Marshal(struct {
		ID      string  `json:"id"`
		Message Message `json:"message"`
	}{ID: taskID, Message: msg})
	if err != nil {
		return nil, fmt.Errorf("marshal send: %w", err)
	}

	data, err := c.doRequest(ctx, http.MethodPost, "/tasks/send", body)
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	return decodeTask(data)
}

// GetTask fetches the current state of a task.
func (c *Client) GetTask(ctx context.Context, taskID string) (*Task, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/tasks/"+taskID, nil)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return decodeTask(data)
}

// CancelTask asks the remote to cancel a task.
func (c *Client) CancelTask(ctx context.Context, taskID string) (*Task, error) {
	data, err := c.doRequest(ctx, http.MethodPost, "/tasks/"+taskID+"/cancel", nil)
	if err != nil {
		return nil, fmt.Errorf("cancel task: %w", err)
	}
	return decodeTask(data)
}

func decodeTask(data []byte) (*Task, error) {
	var t Task
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("unmarshal task: %w", err)
	}
	return &t, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var result []byte
	call := func() error {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode >= 400 {
			return fmt.Errorf("remote agent error %d: %s", resp.StatusCode, string(data))
		}

		result = data
		return nil
	}

	if c.breaker != nil {
		if err := c.breaker.Execute(call); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := call(); err != nil {
		return nil, err
	}
	return result, nil
}
