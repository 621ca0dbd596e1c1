// Package tasks is the task-backend boundary: a thin Google Tasks REST v1
// client plus the tool definitions the agent dispatcher calls through.
package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/novatasks/nova/internal/config"
	"github.com/novatasks/nova/internal/errors"
)

// Task statuses as the backend spells them.
const (
	StatusNeedsAction = "needsAction"
	StatusCompleted   = "completed"
)

type Task struct {
	ID     string `json:"id,omitempty"`
	Title  string `json:"title,omitempty"`
	Notes  string `json:"notes,omitempty"`
	Due    string `json:"due,omitempty"`
	Status string `json:"status,omitempty"`
}

// Service is the CRUD surface against the task backend.
type Service interface {
	List(ctx context.Context, listID string) ([]Task, error)
	Insert(ctx context.Context, listID string, t Task) (*Task, error)
	Patch(ctx context.Context, listID, taskID string, t Task) (*Task, error)
	Delete(ctx context.Context, listID, taskID string) error
}

// RestService talks to the Google Tasks REST API with a bearer token read
// from the materialized token file on each request, so an externally
// refreshed token is picked up without a restart.
type RestService struct {
	baseURL   string
	tokenPath string
	client    *http.Client
}

func NewRestService(baseURL, tokenPath string, timeout time.Duration) *RestService {
	if baseURL == "" {
		baseURL = config.DefaultTasksBaseURL
	}
	return &RestService{
		baseURL:   baseURL,
		tokenPath: tokenPath,
		client:    &http.Client{Timeout: timeout},
	}
}

type listResponse struct {
	Items []Task `json:"items"`
}

func (s *RestService) List(ctx context.Context, listID string) ([]Task, error) {
	var out listResponse
	path := fmt.Sprintf("/lists/%s/tasks", url.PathEscape(listID))
	if err := s.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (s *RestService) Insert(ctx context.Context, listID string, t Task) (*Task, error) {
	var out Task
	path := fmt.Sprintf("/lists/%s/tasks", url.PathEscape(listID))
	if err := s.do(ctx, http.MethodPost, path, &t, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *RestService) Patch(ctx context.Context, listID, taskID string, t Task) (*Task, error) {
	var out Task
	path := fmt.Sprintf("/lists/%s/tasks/%s", url.PathEscape(listID), url.PathEscape(taskID))
	if err := s.do(ctx, http.MethodPatch, path, &t, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *RestService) Delete(ctx context.Context, listID, taskID string) error {
	path := fmt.Sprintf("/lists/%s/tasks/%s", url.PathEscape(listID), url.PathEscape(taskID))
	return s.do(ctx, http.MethodDelete, path, nil, nil)
}

func (s *RestService) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := s.accessToken()
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "tasks backend request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return errors.Wrap(fmt.Errorf("status %d", resp.StatusCode), "tasks backend unauthorized")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Transient(fmt.Sprintf("tasks backend returned %d: %s", resp.StatusCode, snippet))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// tokenFile holds the fields we accept in token.json. Both the google-auth
// snapshot key ("token") and the raw OAuth key ("access_token") occur in the
// wild.
type tokenFile struct {
	Token       string `json:"token"`
	AccessToken string `json:"access_token"`
}

func (s *RestService) accessToken() (string, error) {
	data, err := os.ReadFile(s.tokenPath)
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}

	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return "", fmt.Errorf("parse token file: %w", err)
	}

	if tf.AccessToken != "" {
		return tf.AccessToken, nil
	}
	if tf.Token != "" {
		return tf.Token, nil
	}
	return "", errors.InvalidInput("token file has no access token")
}
