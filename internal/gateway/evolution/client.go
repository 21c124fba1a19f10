// internal/gateway/evolution/client.go
package evolution

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	commonhttp "evocrm/internal/common/http"
	"evocrm/internal/common/logger"
	"evocrm/internal/common/metrics"
	"evocrm/internal/models"
)

// Client issues HTTP calls to the Evolution messaging gateway. Every call is
// scoped by an instance name and API key resolved from a user's credential.
type Client struct {
	baseURL     string
	sendClient  *commonhttp.Client
	queryClient *commonhttp.Client
	logger      logger.Logger
}

// SendResult is the gateway's answer for a single recipient.
type SendResult struct {
	Status    string
	MessageID string
	HTTPCode  int
}

// QueryResult carries a raw upstream payload plus the HTTP status it came with.
type QueryResult struct {
	HTTPCode int
	Payload  interface{}
}

// NewClient creates a gateway client. Send operations use sendTimeout (default
// 30s); state and contact queries use queryTimeout (default 15s).
func NewClient(baseURL string, sendTimeout, queryTimeout time.Duration, log logger.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		sendClient:  commonhttp.NewClient(sendTimeout),
		queryClient: commonhttp.NewClient(queryTimeout),
		logger:      log,
	}
}

// SendText delivers a text message to one recipient. delayMs is a pacing hint
// executed by the gateway itself, not a local sleep.
func (c *Client) SendText(ctx context.Context, instance, apiKey, number, text string, delayMs int, linkPreview bool) (*SendResult, error) {
	body := map[string]interface{}{
		"number":      number,
		"text":        text,
		"delay":       delayMs,
		"linkPreview": linkPreview,
	}
	return c.send(ctx, "sendText", fmt.Sprintf("%s/message/sendText/%s", c.baseURL, instance), apiKey, body)
}

// SendMedia delivers a media message to one recipient.
func (c *Client) SendMedia(ctx context.Context, instance, apiKey, number string, media models.MediaContent, delayMs int) (*SendResult, error) {
	body := map[string]interface{}{
		"number":    number,
		"mediatype": media.MediaType,
		"mimetype":  media.MimeType,
		"media":     media.Base64,
		"fileName":  media.FileName,
		"delay":     delayMs,
	}
	if media.Caption != "" {
		body["caption"] = media.Caption
	}
	return c.send(ctx, "sendMedia", fmt.Sprintf("%s/message/sendMedia/%s", c.baseURL, instance), apiKey, body)
}

func (c *Client) send(ctx context.Context, endpoint, url, apiKey string, body map[string]interface{}) (*SendResult, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", apiKey)

	start := time.Now()
	resp, err := c.sendClient.Do(req)
	metrics.GatewayRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GatewayRequests.WithLabelValues(endpoint, "transport_error").Inc()
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	metrics.GatewayRequests.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &SendResult{HTTPCode: resp.StatusCode}, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &SendResult{HTTPCode: resp.StatusCode},
			fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, extractErrorMessage(raw))
	}

	result := &SendResult{Status: models.DeliveryStatusUnknown, HTTPCode: resp.StatusCode}

	// Malformed or unexpected JSON is not an error for a 2xx response; the
	// recipient's status just stays UNKNOWN.
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return result, nil
	}

	if status, ok := payload["status"].(string); ok && strings.TrimSpace(status) != "" {
		result.Status = strings.ToUpper(strings.TrimSpace(status))
	}
	result.MessageID = extractMessageID(payload)

	return result, nil
}

// ConnectionState queries the gateway for an instance's connection state and
// returns the raw payload.
func (c *Client) ConnectionState(ctx context.Context, instance, apiKey string) (*QueryResult, error) {
	url := fmt.Sprintf("%s/instance/connectionState/%s", c.baseURL, instance)
	return c.query(ctx, "connectionState", http.MethodGet, url, apiKey, nil)
}

// Connect asks the gateway for a QR/pairing payload for an instance.
func (c *Client) Connect(ctx context.Context, instance, apiKey string) (*QueryResult, error) {
	url := fmt.Sprintf("%s/instance/connect/%s", c.baseURL, instance)
	return c.query(ctx, "connect", http.MethodGet, url, apiKey, nil)
}

// FindContacts lists the contacts known to an instance.
func (c *Client) FindContacts(ctx context.Context, instance, apiKey string) (*QueryResult, error) {
	return c.query(ctx, "findContacts", http.MethodPost,
		fmt.Sprintf("%s/chat/findContacts/%s", c.baseURL, instance), apiKey,
		map[string]interface{}{"where": map[string]interface{}{}})
}

func (c *Client) query(ctx context.Context, endpoint, method, url, apiKey string, body map[string]interface{}) (*QueryResult, error) {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal query request: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("apikey", apiKey)

	start := time.Now()
	resp, err := c.queryClient.Do(req)
	metrics.GatewayRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GatewayRequests.WithLabelValues(endpoint, "transport_error").Inc()
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	metrics.GatewayRequests.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	result := &QueryResult{HTTPCode: resp.StatusCode}
	var payload interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		result.Payload = strings.TrimSpace(string(raw))
	} else {
		result.Payload = payload
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result, fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, extractErrorMessage(raw))
	}

	return result, nil
}

// extractMessageID digs the message identifier out of the gateway's send
// response, which nests it under key.id on current versions.
func extractMessageID(payload map[string]interface{}) string {
	if key, ok := payload["key"].(map[string]interface{}); ok {
		if id, ok := key["id"].(string); ok {
			return id
		}
	}
	if id, ok := payload["messageId"].(string); ok {
		return id
	}
	return ""
}

// extractErrorMessage pulls a human-readable message out of an upstream error
// body, falling back to the raw text.
func extractErrorMessage(raw []byte) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err == nil {
		switch msg := payload["message"].(type) {
		case string:
			if strings.TrimSpace(msg) != "" {
				return msg
			}
		case []interface{}:
			parts := make([]string, 0, len(msg))
			for _, m := range msg {
				if s, ok := m.(string); ok {
					parts = append(parts, s)
				}
			}
			if len(parts) > 0 {
				return strings.Join(parts, "; ")
			}
		}
		if errMsg, ok := payload["error"].(string); ok && strings.TrimSpace(errMsg) != "" {
			return errMsg
		}
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "no response body"
	}
	return text
}
