package avatar

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/drawphone/internal/dependencies/clock"
	"github.com/mcoot/drawphone/internal/dependencies/httpfetch"
	"github.com/mcoot/drawphone/internal/model"
	"github.com/mcoot/drawphone/internal/services/objectstore"
	"github.com/mcoot/drawphone/internal/storage"
)

// Source looks up a player's current avatar on their chat platform
type Source interface {
	Avatar(ctx context.Context, player *model.Player) (*model.BotAvatar, error)
}

// Config holds avatar cache settings
type Config struct {
	// Window is how long a cached avatar is trusted before checking the platform again
	Window time.Duration
	// MaxBytes caps the size of a downloaded avatar
	MaxBytes int64
}

// DefaultConfig returns default avatar cache configuration
func DefaultConfig() Config {
	return Config{
		Window:   30 * 24 * time.Hour,
		MaxBytes: 5 << 20,
	}
}

// Outcome reports what a refresh did
type Outcome string

const (
	OutcomeFresh     Outcome = "fresh"     // cached copy still inside the window
	OutcomeNone      Outcome = "none"      // platform has no avatar
	OutcomeUnchanged Outcome = "unchanged" // content matched the cached hash
	OutcomeUpdated   Outcome = "updated"   // new content uploaded
)

// Cache keeps a copy of each player's platform avatar in the object store
type Cache struct {
	storage storage.Storage
	source  Source
	fetcher httpfetch.Fetcher
	store   objectstore.Store
	clock   clock.Clock
	cfg     Config
	logger  *slog.Logger
}

// New creates a new avatar Cache
func New(
	storage storage.Storage,
	source Source,
	fetcher httpfetch.Fetcher,
	store objectstore.Store,
	clock clock.Clock,
	cfg Config,
	logger *slog.Logger,
) *Cache {
	return &Cache{
		storage: storage,
		source:  source,
		fetcher: fetcher,
		store:   store,
		clock:   clock,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "avatar")),
	}
}

// Key returns the object key for a player's avatar
func Key(playerID model.PlayerID) string {
	return fmt.Sprintf("avatars/%s.png", playerID)
}

// Refresh brings a player's cached avatar up to date. An unchanged avatar only
// restarts the freshness window; nothing is uploaded.
func (c *Cache) Refresh(ctx context.Context, playerID model.PlayerID) (Outcome, error) {
	player, err := c.storage.GetPlayer(ctx, playerID)
	if err != nil {
		return "", err
	}

	now := c.clock.Now()
	if player.Avatar != nil && now.Sub(player.Avatar.LastUpdated) < c.cfg.Window {
		return OutcomeFresh, nil
	}

	remote, err := c.source.Avatar(ctx, player)
	if err != nil {
		return "", fmt.Errorf("looking up avatar: %w", err)
	}
	if remote == nil {
		return OutcomeNone, nil
	}

	data, err := c.download(ctx, remote.URL)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	if player.Avatar != nil && player.Avatar.Hash == hash {
		_, err := c.storage.UpdatePlayer(ctx, playerID, func(p *model.Player) error {
			if p.Avatar != nil && p.Avatar.Hash == hash {
				p.Avatar.LastUpdated = now
			}
			return nil
		})
		if err != nil {
			return "", err
		}
		return OutcomeUnchanged, nil
	}

	obj, err := c.store.Upload(ctx, Key(playerID), bytes.NewReader(data), "image/png")
	if err != nil {
		return "", err
	}

	avatar := &model.Avatar{
		URL:         obj.FileURL,
		Width:       remote.Width,
		Height:      remote.Height,
		Hash:        hash,
		LastUpdated: now,
	}
	_, err = c.storage.UpdatePlayer(ctx, playerID, func(p *model.Player) error {
		p.Avatar = avatar
		p.UpdatedAt = now
		return nil
	})
	if err != nil {
		return "", err
	}

	c.logger.Info("avatar updated",
		slog.String("player_id", string(playerID)),
		slog.String("url", obj.FileURL),
	)
	return OutcomeUpdated, nil
}

func (c *Cache) download(ctx context.Context, url string) ([]byte, error) {
	body, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching avatar: %w", err)
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, c.cfg.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading avatar: %w", err)
	}
	if int64(len(data)) > c.cfg.MaxBytes {
		return nil, fmt.Errorf("avatar larger than %d bytes", c.cfg.MaxBytes)
	}
	return data, nil
}
