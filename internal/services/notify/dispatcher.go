package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/mcoot/drawphone/internal/model"
	"github.com/mcoot/drawphone/internal/services/resolver"
	"github.com/mcoot/drawphone/internal/storage"
)

// ErrNoBot is returned when no bot is registered for a platform
var ErrNoBot = errors.New("no bot registered for platform")

// Config holds outbound message pacing settings
type Config struct {
	// MessagesPerSecond caps sends per platform; zero disables pacing
	MessagesPerSecond float64
	Burst             int
}

// DefaultConfig returns default dispatcher configuration
func DefaultConfig() Config {
	return Config{
		MessagesPerSecond: 1,
		Burst:             5,
	}
}

// Dispatcher routes announcements and direct messages to the right bot
type Dispatcher struct {
	storage  storage.Storage
	resolver *resolver.Resolver
	bots     map[model.Platform]Bot
	limiters map[model.Platform]*rate.Limiter
	logger   *slog.Logger
}

// NewDispatcher creates a new Dispatcher over the given bots
func NewDispatcher(storage storage.Storage, resolver *resolver.Resolver, cfg Config, logger *slog.Logger, bots ...Bot) *Dispatcher {
	d := &Dispatcher{
		storage:  storage,
		resolver: resolver,
		bots:     make(map[model.Platform]Bot, len(bots)),
		limiters: make(map[model.Platform]*rate.Limiter, len(bots)),
		logger:   logger.With(slog.String("component", "dispatcher")),
	}
	for _, bot := range bots {
		d.bots[bot.Platform()] = bot
		if cfg.MessagesPerSecond > 0 {
			d.limiters[bot.Platform()] = rate.NewLimiter(rate.Limit(cfg.MessagesPerSecond), max(cfg.Burst, 1))
		}
	}
	return d
}

func (d *Dispatcher) bot(ctx context.Context, platform model.Platform) (Bot, error) {
	bot, ok := d.bots[platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoBot, platform)
	}
	if limiter, ok := d.limiters[platform]; ok {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return bot, nil
}

// Announce posts a message to a channel
func (d *Dispatcher) Announce(ctx context.Context, channel model.Channel, msg model.Message) error {
	bot, err := d.bot(ctx, channel.Platform)
	if err != nil {
		return err
	}
	if err := bot.SendChannelMessage(ctx, channel, msg); err != nil {
		return fmt.Errorf("announcing to %s: %w", channel.Key(), err)
	}
	return nil
}

// DirectMessage sends a message to a player, following their preferred-player redirect
func (d *Dispatcher) DirectMessage(ctx context.Context, playerID model.PlayerID, msg model.Message) error {
	player, err := d.storage.GetPlayer(ctx, playerID)
	if err != nil {
		return fmt.Errorf("loading player %s: %w", playerID, err)
	}

	target, err := d.resolver.Effective(ctx, player)
	if err != nil {
		return fmt.Errorf("resolving player %s: %w", playerID, err)
	}

	bot, err := d.bot(ctx, target.Platform)
	if err != nil {
		return err
	}
	if err := bot.SendDirectMessage(ctx, target, msg); err != nil {
		return fmt.Errorf("messaging player %s: %w", target.ID, err)
	}
	return nil
}

// Avatar asks the player's platform for their current avatar
func (d *Dispatcher) Avatar(ctx context.Context, player *model.Player) (*model.BotAvatar, error) {
	bot, ok := d.bots[player.Platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoBot, player.Platform)
	}
	return bot.GetAvatar(ctx, player)
}
