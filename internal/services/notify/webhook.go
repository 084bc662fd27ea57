package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mcoot/drawphone/internal/model"
)

// WebhookBot hands messages to a chat adapter over HTTP. The adapter owns the
// platform protocol; this side only speaks JSON.
type WebhookBot struct {
	platform model.Platform
	baseURL  string
	client   *http.Client
}

// Ensure WebhookBot implements Bot
var _ Bot = (*WebhookBot)(nil)

// NewWebhookBot creates a WebhookBot posting to baseURL
func NewWebhookBot(platform model.Platform, baseURL string, timeout time.Duration) *WebhookBot {
	return &WebhookBot{
		platform: platform,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: timeout},
	}
}

type webhookChunk struct {
	Text  string `json:"text"`
	Style string `json:"style,omitempty"`
}

type webhookMessage struct {
	Platform   model.Platform `json:"platform"`
	ChannelID  string         `json:"channel_id,omitempty"`
	PlatformID string         `json:"platform_id,omitempty"`
	Chunks     []webhookChunk `json:"chunks"`
}

type webhookAvatar struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func chunks(msg model.Message) []webhookChunk {
	out := make([]webhookChunk, len(msg))
	for i, c := range msg {
		out[i] = webhookChunk{Text: c.Text}
		switch c.Style {
		case model.StyleBold:
			out[i].Style = "bold"
		case model.StyleCode:
			out[i].Style = "code"
		}
	}
	return out
}

func (b *WebhookBot) Platform() model.Platform {
	return b.platform
}

func (b *WebhookBot) SendChannelMessage(ctx context.Context, channel model.Channel, msg model.Message) error {
	return b.post(ctx, "/messages/channel", webhookMessage{
		Platform:  b.platform,
		ChannelID: channel.ID,
		Chunks:    chunks(msg),
	})
}

func (b *WebhookBot) SendDirectMessage(ctx context.Context, player *model.Player, msg model.Message) error {
	return b.post(ctx, "/messages/direct", webhookMessage{
		Platform:   b.platform,
		PlatformID: player.PlatformID,
		Chunks:     chunks(msg),
	})
}

func (b *WebhookBot) GetAvatar(ctx context.Context, player *model.Player) (*model.BotAvatar, error) {
	q := url.Values{"platform_id": {player.PlatformID}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/avatar?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("avatar lookup: unexpected status %d", resp.StatusCode)
	}

	var avatar webhookAvatar
	if err := json.NewDecoder(resp.Body).Decode(&avatar); err != nil {
		return nil, err
	}
	if avatar.URL == "" {
		return nil, nil
	}
	return &model.BotAvatar{URL: avatar.URL, Width: avatar.Width, Height: avatar.Height}, nil
}

func (b *WebhookBot) post(ctx context.Context, path string, body webhookMessage) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return errors.New("webhook rejected message: " + resp.Status)
	}
	return nil
}
