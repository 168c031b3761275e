// Package push delivers mobile push notifications through FCM.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Gateway sends one notification to a batch of device tokens. It returns the
// tokens the provider reported as invalid (unregistered devices) so the
// caller can prune them; a non-nil error means the batch itself failed.
type Gateway interface {
	Send(ctx context.Context, tokens []string, title, body string, data map[string]string) (invalid []string, err error)
}

// NoopGateway is used when no FCM credentials are configured. It reports
// every delivery as successful.
type NoopGateway struct{}

func (NoopGateway) Send(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]string, error) {
	return nil, nil
}

const fcmEndpoint = "https://fcm.googleapis.com/fcm/send"

// FCMGateway talks to the FCM HTTP API with a server key.
type FCMGateway struct {
	serverKey string
	client    *http.Client
	endpoint  string
}

// NewFCMGateway creates a gateway authenticated with the given server key.
func NewFCMGateway(serverKey string) *FCMGateway {
	return &FCMGateway{
		serverKey: serverKey,
		client:    &http.Client{Timeout: 10 * time.Second},
		endpoint:  fcmEndpoint,
	}
}

type fcmRequest struct {
	RegistrationIDs []string          `json:"registration_ids"`
	Notification    fcmNotification   `json:"notification"`
	Data            map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		MessageID string `json:"message_id"`
		Error     string `json:"error"`
	} `json:"results"`
}

// Send delivers a single batch to all tokens. Tokens that FCM reports as
// NotRegistered or InvalidRegistration are returned for pruning.
func (g *FCMGateway) Send(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]string, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(fcmRequest{
		RegistrationIDs: tokens,
		Notification:    fcmNotification{Title: title, Body: body},
		Data:            data,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode fcm request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build fcm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+g.serverKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fcm request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fcm returned status %d", resp.StatusCode)
	}

	var result fcmResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode fcm response: %w", err)
	}

	var invalid []string
	for i, r := range result.Results {
		if i >= len(tokens) {
			break
		}
		if r.Error == "NotRegistered" || r.Error == "InvalidRegistration" {
			invalid = append(invalid, tokens[i])
		}
	}
	return invalid, nil
}
