package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrNotConfigured is returned when no API token is set
var ErrNotConfigured = errors.New("github token is not configured")

const defaultBaseURL = "https://api.github.com"

// Run is a GitHub Actions workflow run
type Run struct {
	ID         int64     `json:"id"`
	Event      string    `json:"event"`
	Status     string    `json:"status"`
	Conclusion string    `json:"conclusion"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	HTMLURL    string    `json:"html_url"`
}

type Step struct {
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	Conclusion  string     `json:"conclusion"`
	Number      int        `json:"number"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

type Job struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	Conclusion  string     `json:"conclusion"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	Steps       []Step     `json:"steps"`
}

type Config struct {
	Token      string
	Owner      string
	Repo       string
	WorkflowID string
	Ref        string
	BaseURL    string
}

// Client drives a single workflow of a single repository
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{cfg: cfg, httpClient: httpClient}
}

// ActionsURL is the human-facing page listing the repository's runs
func (c *Client) ActionsURL() string {
	return fmt.Sprintf("https://github.com/%s/%s/actions", c.cfg.Owner, c.cfg.Repo)
}

// DispatchWorkflow fires workflow_dispatch with the given inputs on the configured ref
func (c *Client) DispatchWorkflow(ctx context.Context, inputs map[string]string) error {
	body, err := json.Marshal(map[string]any{"ref": c.cfg.Ref, "inputs": inputs})
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/repos/%s/%s/actions/workflows/%s/dispatches", c.cfg.Owner, c.cfg.Repo, url.PathEscape(c.cfg.WorkflowID))
	resp, err := c.do(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("dispatch workflow: %w", err)
	}
	resp.Body.Close()
	return nil
}

// ListRuns returns the newest runs of the workflow first
func (c *Client) ListRuns(ctx context.Context, perPage int) ([]Run, error) {
	path := fmt.Sprintf("/repos/%s/%s/actions/workflows/%s/runs?per_page=%d", c.cfg.Owner, c.cfg.Repo, url.PathEscape(c.cfg.WorkflowID), perPage)
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("list workflow runs: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		WorkflowRuns []Run `json:"workflow_runs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode workflow runs: %w", err)
	}
	return out.WorkflowRuns, nil
}

func (c *Client) ListJobs(ctx context.Context, runID int64) ([]Job, error) {
	path := fmt.Sprintf("/repos/%s/%s/actions/runs/%d/jobs", c.cfg.Owner, c.cfg.Repo, runID)
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("list run jobs: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		Jobs []Job `json:"jobs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode run jobs: %w", err)
	}
	return out.Jobs, nil
}

// JobLog downloads the plain-text log of a job
func (c *Client) JobLog(ctx context.Context, jobID int64) (string, error) {
	path := "/repos/" + c.cfg.Owner + "/" + c.cfg.Repo + "/actions/jobs/" + strconv.FormatInt(jobID, 10) + "/logs"
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", fmt.Errorf("fetch job log: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read job log: %w", err)
	}
	return string(raw), nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	if c.cfg.Token == "" {
		return nil, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "token "+c.cfg.Token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("github returned %d: %s", resp.StatusCode, text)
	}
	return resp, nil
}
