package workorder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/fablepress/fulfillment/internal/usecase"
)

// Client implements usecase.WorkOrderClient against the fulfillment ticketing
// service. Create must only report success once the ticket is durably
// recorded on the remote side; anything ambiguous is an error.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new work order client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type createRequest struct {
	Category string         `json:"category"`
	OwnerID  string         `json:"owner_id"`
	StoryID  string         `json:"story_id"`
	Cost     int64          `json:"cost"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type createResponse struct {
	ID string `json:"id"`
}

// Create opens a work order ticket and returns its external ID.
func (c *Client) Create(ctx context.Context, order usecase.WorkOrder) (string, error) {
	body, err := json.Marshal(createRequest{
		Category: order.Category,
		OwnerID:  order.OwnerID,
		StoryID:  order.StoryID,
		Cost:     order.Cost,
		Metadata: order.Metadata,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/work-orders", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	// Correlation ID lets the ticketing side tie retries together.
	req.Header.Set("X-Correlation-ID", uuid.New().String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("work order request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("work order service returned %d: %s", resp.StatusCode, payload)
	}

	var created createResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("failed to decode work order response: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("work order service returned empty id")
	}

	return created.ID, nil
}
