package notify

import (
	"context"
	"log/slog"

	"github.com/mcoot/drawphone/internal/model"
)

// Bot delivers messages on one chat platform
type Bot interface {
	Platform() model.Platform
	SendChannelMessage(ctx context.Context, channel model.Channel, msg model.Message) error
	SendDirectMessage(ctx context.Context, player *model.Player, msg model.Message) error
	// GetAvatar returns nil when the platform has no avatar for the player
	GetAvatar(ctx context.Context, player *model.Player) (*model.BotAvatar, error)
}

// LogBot writes outgoing messages to the log instead of a chat platform
type LogBot struct {
	platform model.Platform
	logger   *slog.Logger
}

// Ensure LogBot implements Bot
var _ Bot = (*LogBot)(nil)

// NewLogBot creates a LogBot for the given platform
func NewLogBot(platform model.Platform, logger *slog.Logger) *LogBot {
	return &LogBot{
		platform: platform,
		logger:   logger.With(slog.String("component", "logbot"), slog.String("platform", string(platform))),
	}
}

func (b *LogBot) Platform() model.Platform {
	return b.platform
}

func (b *LogBot) SendChannelMessage(ctx context.Context, channel model.Channel, msg model.Message) error {
	b.logger.Info("channel message",
		slog.String("channel_id", channel.ID),
		slog.String("channel", channel.Name),
		slog.String("text", msg.String()),
	)
	return nil
}

func (b *LogBot) SendDirectMessage(ctx context.Context, player *model.Player, msg model.Message) error {
	b.logger.Info("direct message",
		slog.String("player_id", string(player.ID)),
		slog.String("name", player.Name),
		slog.String("text", msg.String()),
	)
	return nil
}

func (b *LogBot) GetAvatar(ctx context.Context, player *model.Player) (*model.BotAvatar, error) {
	return nil, nil
}
