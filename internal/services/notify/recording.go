package notify

import (
	"context"
	"sync"

	"github.com/mcoot/drawphone/internal/model"
)

// Sent is one message captured by a RecordingBot
type Sent struct {
	Channel  *model.Channel
	PlayerID model.PlayerID
	Message  model.Message
}

// RecordingBot captures every message it is asked to send
type RecordingBot struct {
	platform model.Platform

	mu       sync.Mutex
	sent     []Sent
	avatars  map[model.PlayerID]*model.BotAvatar
	failSend error
}

// Ensure RecordingBot implements Bot
var _ Bot = (*RecordingBot)(nil)

// NewRecordingBot creates a RecordingBot for the given platform
func NewRecordingBot(platform model.Platform) *RecordingBot {
	return &RecordingBot{
		platform: platform,
		avatars:  make(map[model.PlayerID]*model.BotAvatar),
	}
}

func (b *RecordingBot) Platform() model.Platform {
	return b.platform
}

func (b *RecordingBot) SendChannelMessage(ctx context.Context, channel model.Channel, msg model.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failSend != nil {
		return b.failSend
	}
	c := channel
	b.sent = append(b.sent, Sent{Channel: &c, Message: msg})
	return nil
}

func (b *RecordingBot) SendDirectMessage(ctx context.Context, player *model.Player, msg model.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failSend != nil {
		return b.failSend
	}
	b.sent = append(b.sent, Sent{PlayerID: player.ID, Message: msg})
	return nil
}

func (b *RecordingBot) GetAvatar(ctx context.Context, player *model.Player) (*model.BotAvatar, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.avatars[player.ID], nil
}

// SetAvatar sets the avatar returned for a player
func (b *RecordingBot) SetAvatar(playerID model.PlayerID, avatar *model.BotAvatar) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.avatars[playerID] = avatar
}

// FailSends makes every send return err; nil restores delivery
func (b *RecordingBot) FailSends(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failSend = err
}

// Sent returns everything sent so far
func (b *RecordingBot) Sent() []Sent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Sent, len(b.sent))
	copy(out, b.sent)
	return out
}

// ChannelMessages returns the text of messages posted to channels
func (b *RecordingBot) ChannelMessages() []string {
	var out []string
	for _, s := range b.Sent() {
		if s.Channel != nil {
			out = append(out, s.Message.String())
		}
	}
	return out
}

// DirectMessages returns the text of direct messages sent to a player
func (b *RecordingBot) DirectMessages(playerID model.PlayerID) []string {
	var out []string
	for _, s := range b.Sent() {
		if s.Channel == nil && s.PlayerID == playerID {
			out = append(out, s.Message.String())
		}
	}
	return out
}

// DirectMessageCount returns the number of direct messages sent to anyone
func (b *RecordingBot) DirectMessageCount() int {
	n := 0
	for _, s := range b.Sent() {
		if s.Channel == nil {
			n++
		}
	}
	return n
}

// Reset forgets everything sent so far
func (b *RecordingBot) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = nil
}
