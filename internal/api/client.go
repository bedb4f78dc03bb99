// Package api is the HTTP client for the drone tasking backend: pre-signed
// upload URL issuance, task state transitions and the classification
// endpoints.
package api

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

	"github.com/aerialops/uplink/internal/classify"
	"github.com/aerialops/uplink/internal/logging"
	"github.com/aerialops/uplink/internal/models"
)

// ErrAuthorization marks a failed upload-URL request. The caller must not
// start uploading; nothing has been sent yet.
var ErrAuthorization = errors.New("upload authorization failed")

// UploadURLRequest asks the backend for one pre-signed PUT URL per image
// name. Expiry is in minutes. Replace tells the backend the new imagery
// replaces what the task already has instead of adding to it.
type UploadURLRequest struct {
	Expiry     int      `json:"expiry"`
	TaskID     string   `json:"task_id"`
	ProjectID  string   `json:"project_id"`
	ImageNames []string `json:"image_name"`
	Replace    bool     `json:"replace"`
}

type signedURL struct {
	URL string `json:"url"`
}

type transitionRequest struct {
	Event     string `json:"event"`
	UpdatedAt string `json:"updated_at"`
}

type classifyResponse struct {
	JobID   string `json:"job_id"`
	Message string `json:"message"`
}

type Client struct {
	baseURL string
	httpc   *http.Client
	log     logging.Logger
}

func New(baseURL string, httpc *http.Client, log logging.Logger) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpc: httpc, log: log}
}

// UploadURLs returns one pre-signed URL per requested image name,
// order-correlated with the input list. The backend is trusted to preserve
// order; the client does not re-validate by name.
func (c *Client) UploadURLs(ctx context.Context, req UploadURLRequest) ([]string, error) {
	path := fmt.Sprintf("/projects/%s/tasks/%s/upload-urls/", req.ProjectID, req.TaskID)

	var out []signedURL
	if err := c.doJSON(ctx, http.MethodPost, path, nil, req, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthorization, err)
	}
	if len(out) != len(req.ImageNames) {
		return nil, fmt.Errorf("%w: got %d urls for %d names", ErrAuthorization, len(out), len(req.ImageNames))
	}

	urls := make([]string, len(out))
	for i, u := range out {
		urls[i] = u.URL
	}
	return urls, nil
}

// TransitionTask records a task lifecycle event on the backend.
func (c *Client) TransitionTask(ctx context.Context, projectID, taskID, event string, updatedAt time.Time) error {
	path := fmt.Sprintf("/projects/%s/tasks/%s/event/", projectID, taskID)
	body := transitionRequest{Event: event, UpdatedAt: updatedAt.UTC().Format(time.RFC3339)}
	return c.doJSON(ctx, http.MethodPost, path, nil, body, nil)
}

// StartClassification kicks off a classification job for the batch and
// returns the server-issued job id.
func (c *Client) StartClassification(ctx context.Context, projectID, batchID string) (string, error) {
	path := fmt.Sprintf("/projects/%s/classify-batch/", projectID)
	q := url.Values{"batch_id": {batchID}}

	var out classifyResponse
	if err := c.doJSON(ctx, http.MethodPost, path, q, nil, &out); err != nil {
		return "", err
	}
	return out.JobID, nil
}

// BatchStatus returns the per-status image counts for the batch.
func (c *Client) BatchStatus(ctx context.Context, projectID, batchID string) (classify.Summary, error) {
	path := fmt.Sprintf("/projects/%s/batch/%s/status/", projectID, batchID)

	var out classify.Summary
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return classify.Summary{}, err
	}
	return out, nil
}

// BatchImages returns image records changed since the given watermark
// (uploaded_at of the newest record already seen; "" for everything).
func (c *Client) BatchImages(ctx context.Context, projectID, batchID, since string) ([]models.ImageRecord, error) {
	path := fmt.Sprintf("/projects/%s/batch/%s/images/", projectID, batchID)
	q := url.Values{}
	if since != "" {
		q.Set("last_timestamp", since)
	}

	var out []models.ImageRecord
	if err := c.doJSON(ctx, http.MethodGet, path, q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, string(b))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", path, err)
	}
	return nil
}
