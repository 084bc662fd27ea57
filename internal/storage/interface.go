package storage

import (
	"context"

	"github.com/mcoot/drawphone/internal/model"
)

// MaxUpdateAttempts bounds how often UpdateGame and UpdatePlayer retry after losing a race
const MaxUpdateAttempts = 5

// UpdateFunc mutates a game in place. Returning an error aborts the update.
type UpdateFunc func(game *model.Game) error

// PlayerUpdateFunc mutates a player in place. Returning an error aborts the update.
type PlayerUpdateFunc func(player *model.Player) error

// Storage defines the interface for data persistence
type Storage interface {
	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	GetPlayerByPlatformID(ctx context.Context, platform model.Platform, platformID string) (*model.Player, error)
	// UpdatePlayer is the player counterpart of UpdateGame: fn sees the latest
	// record and the write only lands if nothing changed it since the read
	UpdatePlayer(ctx context.Context, id model.PlayerID, fn PlayerUpdateFunc) (*model.Player, error)

	// Game operations
	CreateGame(ctx context.Context, game *model.Game) error
	GetGame(ctx context.Context, name model.GameName) (*model.Game, error)
	// UpdateGame applies fn to the latest copy of the game and replaces it only if
	// nobody else wrote it in the meantime. Lost races are retried and reported as
	// model.ErrConflict once attempts run out.
	UpdateGame(ctx context.Context, name model.GameName, fn UpdateFunc) (*model.Game, error)
	// ListGames returns matching games, newest first
	ListGames(ctx context.Context, query model.GameQuery) ([]*model.Game, error)

	// Interest operations
	SetInterest(ctx context.Context, interest model.Interest, interested bool) error
	GetInterestedPlayers(ctx context.Context, channel model.Channel) ([]model.PlayerID, error)

	// Channel link operations
	SaveChannelLink(ctx context.Context, link model.ChannelLink) error
	GetLinkedChannels(ctx context.Context, channel model.Channel) ([]model.Channel, error)
}

// Audience returns the channel plus every channel linked to it
func Audience(ctx context.Context, s Storage, channel model.Channel) ([]model.Channel, error) {
	linked, err := s.GetLinkedChannels(ctx, channel)
	if err != nil {
		return nil, err
	}
	channels := []model.Channel{channel}
	for _, c := range linked {
		if !containsChannel(channels, c) {
			channels = append(channels, c)
		}
	}
	return channels, nil
}

// MatchesQuery reports whether a game passes the completion and channel filters.
// channels is the expanded audience when the query filters on a channel.
func MatchesQuery(game *model.Game, query model.GameQuery, channels []model.Channel) bool {
	if query.Complete != nil && game.IsComplete != *query.Complete {
		return false
	}
	if query.Channel != nil && !containsChannel(channels, game.Channel) {
		return false
	}
	return true
}

func containsChannel(channels []model.Channel, c model.Channel) bool {
	for _, existing := range channels {
		if existing.Equal(c) {
			return true
		}
	}
	return false
}
