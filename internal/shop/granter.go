package shop

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookRoleGranter delivers role grants to the chat integration over HTTP.
// The integration applies the role on its platform and answers 2xx.
type WebhookRoleGranter struct {
	URL    string
	Client *http.Client
}

func NewWebhookRoleGranter(url string) *WebhookRoleGranter {
	return &WebhookRoleGranter{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *WebhookRoleGranter) Grant(ctx context.Context, guildID, userID, roleID string) error {
	payload, err := json.Marshal(map[string]string{
		"guild_id": guildID,
		"user_id":  userID,
		"role_id":  roleID,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver role grant: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("role grant webhook answered %s", resp.Status)
	}
	return nil
}

// NopRoleGranter accepts every grant. Used when no webhook is configured;
// the chat integration is then expected to poll receipts instead.
type NopRoleGranter struct{}

func (NopRoleGranter) Grant(context.Context, string, string, string) error { return nil }
