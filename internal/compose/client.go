package compose

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// CreateRequest is the payload for registering a tracked message
type CreateRequest struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject,omitempty"`
	Sender    string `json:"sender,omitempty"`
}

// CreatedMessage is the service's view of a freshly created tracked message
type CreatedMessage struct {
	ID           string `json:"id"`
	Recipient    string `json:"recipient"`
	Subject      string `json:"subject"`
	Sender       string `json:"sender"`
	TrackingURL  string `json:"tracking_url"`
	TrackingHTML string `json:"tracking_html"`
}

// TrackerClient creates tracked messages on the tracking service
type TrackerClient interface {
	Create(ctx context.Context, req CreateRequest) (*CreatedMessage, error)
}

// HTTPTrackerClient talks to the tracking service over its HTTP API
type HTTPTrackerClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPTrackerClient creates a client for the service at baseURL. The api
// key is optional; when empty no Authorization header is sent.
func NewHTTPTrackerClient(baseURL, apiKey string, timeout time.Duration) *HTTPTrackerClient {
	if timeout == 0 {
		timeout = trackingCallTimeout
	}
	return &HTTPTrackerClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Create registers a tracked message via POST /api/emails
func (c *HTTPTrackerClient) Create(ctx context.Context, req CreateRequest) (*CreatedMessage, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode create request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/emails", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call tracking service: %w", err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Success bool            `json:"success"`
		Data    *CreatedMessage `json:"data"`
		Error   string          `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode tracking response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated || !envelope.Success || envelope.Data == nil {
		if envelope.Error != "" {
			return nil, fmt.Errorf("tracking service rejected create: %s", envelope.Error)
		}
		return nil, fmt.Errorf("tracking service returned status %d", resp.StatusCode)
	}
	return envelope.Data, nil
}
