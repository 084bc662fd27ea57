package resolver

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mcoot/drawphone/internal/dependencies/clock"
	"github.com/mcoot/drawphone/internal/model"
	"github.com/mcoot/drawphone/internal/storage"
)

// MaxRedirects is how many preferred-player hops are followed before giving up
const MaxRedirects = 5

// Resolver maps platform identities to durable player records
type Resolver struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a new Resolver
func New(storage storage.Storage, clock clock.Clock, logger *slog.Logger) *Resolver {
	return &Resolver{
		storage: storage,
		clock:   clock,
		logger:  logger.With(slog.String("component", "resolver")),
	}
}

// Resolve finds the player for a platform reference, creating one on first
// contact and refreshing the display name when it has changed. Redirects are
// not followed.
func (r *Resolver) Resolve(ctx context.Context, ref model.PlayerRef) (*model.Player, error) {
	player, err := r.storage.GetPlayerByPlatformID(ctx, ref.Platform, ref.PlatformID)
	switch {
	case err == nil:
		if ref.Name != "" && ref.Name != player.Name {
			now := r.clock.Now()
			return r.storage.UpdatePlayer(ctx, player.ID, func(p *model.Player) error {
				p.Name = ref.Name
				p.UpdatedAt = now
				return nil
			})
		}
		return player, nil
	case errors.Is(err, model.ErrPlayerNotFound):
		return r.create(ctx, ref)
	default:
		return nil, err
	}
}

func (r *Resolver) create(ctx context.Context, ref model.PlayerRef) (*model.Player, error) {
	now := r.clock.Now()
	player := &model.Player{
		ID:         model.PlayerID(uuid.NewString()),
		PlatformID: ref.PlatformID,
		Platform:   ref.Platform,
		Name:       ref.Name,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := r.storage.SavePlayer(ctx, player); err != nil {
		return nil, err
	}

	r.logger.Info("player created",
		slog.String("player_id", string(player.ID)),
		slog.String("platform", string(player.Platform)),
		slog.String("name", player.Name),
	)
	return player, nil
}

// Lookup finds an existing player without creating one
func (r *Resolver) Lookup(ctx context.Context, ref model.PlayerRef) (*model.Player, error) {
	return r.storage.GetPlayerByPlatformID(ctx, ref.Platform, ref.PlatformID)
}

// ResolveEffective resolves a platform reference and follows its redirects
func (r *Resolver) ResolveEffective(ctx context.Context, ref model.PlayerRef) (*model.Player, error) {
	player, err := r.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	return r.Effective(ctx, player)
}

// Effective follows preferred-player redirects from player. A revisited player
// ends the walk at the last player reached; a dangling redirect is ignored.
func (r *Resolver) Effective(ctx context.Context, player *model.Player) (*model.Player, error) {
	visited := map[model.PlayerID]bool{player.ID: true}
	current := player

	for hops := 0; current.PreferredPlayerID != ""; hops++ {
		if hops == MaxRedirects {
			return nil, model.ErrRedirectTooDeep
		}

		next := current.PreferredPlayerID
		if visited[next] {
			r.logger.Warn("preferred player redirect cycle",
				slog.String("player_id", string(player.ID)),
				slog.String("revisited", string(next)),
			)
			return current, nil
		}

		target, err := r.storage.GetPlayer(ctx, next)
		if errors.Is(err, model.ErrPlayerNotFound) {
			r.logger.Warn("preferred player missing",
				slog.String("player_id", string(current.ID)),
				slog.String("preferred_player_id", string(next)),
			)
			return current, nil
		}
		if err != nil {
			return nil, err
		}

		visited[next] = true
		current = target
	}

	return current, nil
}

// SetPreferred points a player's turns and direct messages at target. An empty
// target clears the redirect. Redirects that would loop back to the player or
// exceed MaxRedirects are rejected.
func (r *Resolver) SetPreferred(ctx context.Context, playerID, target model.PlayerID) (*model.Player, error) {
	if target != "" {
		if err := r.checkChain(ctx, playerID, target); err != nil {
			return nil, err
		}
	}

	now := r.clock.Now()
	player, err := r.storage.UpdatePlayer(ctx, playerID, func(p *model.Player) error {
		p.PreferredPlayerID = target
		p.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("preferred player set",
		slog.String("player_id", string(playerID)),
		slog.String("preferred_player_id", string(target)),
	)
	return player, nil
}

func (r *Resolver) checkChain(ctx context.Context, origin, target model.PlayerID) error {
	next := target
	for hops := 1; next != ""; hops++ {
		if next == origin {
			return model.ErrRedirectCycle
		}
		if hops > MaxRedirects {
			return model.ErrRedirectTooDeep
		}
		p, err := r.storage.GetPlayer(ctx, next)
		if err != nil {
			return err
		}
		next = p.PreferredPlayerID
	}
	return nil
}
