package faceclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client calls the external face-matching service. The service is
// reachable only through its URL; matching itself never runs in this
// process. With Skip set every call succeeds with mock values, which is
// how dev environments run without the service.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// New creates a client. Face processing can take a while, hence the
// generous timeout; callers bound individual calls with their context.
func New(baseURL string, skip bool) *Client {
	return &Client{
		BaseURL: baseURL,
		Skip:    skip,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Verify runs a 1:1 check of the check-in photo against the student's
// enrolled face. The engine treats the result as an opaque yes/no.
func (c *Client) Verify(ctx context.Context, studentID, imageURL string) (bool, error) {
	if c.Skip {
		return true, nil
	}
	if studentID == "" || imageURL == "" {
		return false, fmt.Errorf("student id and image url required")
	}

	var out struct {
		Verified   bool    `json:"verified"`
		Similarity float64 `json:"similarity"`
	}
	if err := c.post(ctx, "/verify", map[string]string{"user_id": studentID, "image_url": imageURL}, &out); err != nil {
		return false, err
	}
	return out.Verified, nil
}

// AuditScore asks the service for a detection-confidence score on a
// stored check-in photo. Used by the worker after commit, never on the
// check-in path.
func (c *Client) AuditScore(ctx context.Context, imageURL string) (float64, error) {
	if c.Skip {
		return 0.95, nil
	}
	if imageURL == "" {
		return 0, fmt.Errorf("image url required")
	}

	var out struct {
		Score         float64 `json:"score"`
		FacesDetected int     `json:"faces_detected"`
	}
	if err := c.post(ctx, "/embed", map[string]string{"image_url": imageURL}, &out); err != nil {
		return 0, err
	}
	if out.FacesDetected == 0 {
		return 0, fmt.Errorf("no face detected in image")
	}
	return out.Score, nil
}

// Health checks if the face service is available.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("face service unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("face service unhealthy: %s", resp.Status)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("face service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("face service error %s: %s", resp.Status, string(respBody))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
