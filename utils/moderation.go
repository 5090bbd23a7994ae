package utils

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
)

// ModerationClient talks to an external content moderation HTTP API. The
// client is constructed once and injected into controllers so tests can point
// it at an httptest server.
type ModerationClient struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

type moderationRequest struct {
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"` // base64
}

type moderationResponse struct {
	Flagged bool   `json:"flagged"`
	Reason  string `json:"reason,omitempty"`
}

// NewModerationClient reads MODERATION_API_URL and MODERATION_API_KEY. When
// the URL is unset the client is nil and callers must treat moderation as
// disabled (everything passes).
func NewModerationClient() *ModerationClient {
	base := os.Getenv("MODERATION_API_URL")
	if base == "" {
		return nil
	}
	return &ModerationClient{
		BaseURL: base,
		APIKey:  os.Getenv("MODERATION_API_KEY"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// CheckText returns true when the text is acceptable. Failures of the
// moderation service itself are logged and treated as acceptable so that an
// outage does not block posting.
func (c *ModerationClient) CheckText(text string) (bool, error) {
	if c == nil {
		return true, nil
	}
	flagged, err := c.check(moderationRequest{Text: text})
	if err != nil {
		log.Printf("[MODERATION] text check failed, allowing content: %v", err)
		return true, nil
	}
	return !flagged, nil
}

// CheckImage returns true when the image is acceptable. Same fail-open
// behavior as CheckText.
func (c *ModerationClient) CheckImage(data []byte) (bool, error) {
	if c == nil {
		return true, nil
	}
	flagged, err := c.check(moderationRequest{Image: base64.StdEncoding.EncodeToString(data)})
	if err != nil {
		log.Printf("[MODERATION] image check failed, allowing content: %v", err)
		return true, nil
	}
	return !flagged, nil
}

func (c *ModerationClient) check(body moderationRequest) (bool, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return false, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", c.BaseURL+"/v1/moderate", bytes.NewBuffer(jsonData))
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
	}

	httpc := c.HTTP
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := httpc.Do(req)
	if err != nil {
		return false, fmt.Errorf("moderation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("moderation API returned status %d", resp.StatusCode)
	}

	var out moderationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("failed to decode moderation response: %w", err)
	}
	return out.Flagged, nil
}
