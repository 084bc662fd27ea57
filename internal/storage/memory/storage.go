package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/drawphone/internal/model"
	"github.com/mcoot/drawphone/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	players       map[model.PlayerID]*model.Player
	platformIndex map[platformKey]model.PlayerID
	games         map[model.GameName]*model.Game
	interests     map[model.ChannelKey]map[model.PlayerID]struct{}
	links         map[model.ChannelKey][]model.Channel

	// beforeCommit runs between reading and writing in UpdateGame and UpdatePlayer (tests only)
	beforeCommit func()
}

type platformKey struct {
	platform   model.Platform
	platformID string
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players:       make(map[model.PlayerID]*model.Player),
		platformIndex: make(map[platformKey]model.PlayerID),
		games:         make(map[model.GameName]*model.Game),
		interests:     make(map[model.ChannelKey]map[model.PlayerID]struct{}),
		links:         make(map[model.ChannelKey][]model.Channel),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := player.Clone()
	stored.Version = 1
	if existing, ok := s.players[player.ID]; ok {
		stored.Version = existing.Version + 1
	}
	s.players[player.ID] = stored
	s.platformIndex[platformKey{player.Platform, player.PlatformID}] = player.ID
	player.Version = stored.Version
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return player.Clone(), nil
}

func (s *Storage) GetPlayerByPlatformID(ctx context.Context, platform model.Platform, platformID string) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.platformIndex[platformKey{platform, platformID}]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return player.Clone(), nil
}

func (s *Storage) UpdatePlayer(ctx context.Context, id model.PlayerID, fn storage.PlayerUpdateFunc) (*model.Player, error) {
	for attempt := 0; attempt < storage.MaxUpdateAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		player, err := s.GetPlayer(ctx, id)
		if err != nil {
			return nil, err
		}
		readVersion := player.Version

		if err := fn(player); err != nil {
			return nil, err
		}

		if s.beforeCommit != nil {
			s.beforeCommit()
		}

		s.mu.Lock()
		current, ok := s.players[id]
		if !ok {
			s.mu.Unlock()
			return nil, model.ErrPlayerNotFound
		}
		if current.Version != readVersion {
			s.mu.Unlock()
			continue
		}
		player.ID = id
		player.Version = readVersion + 1
		s.players[id] = player.Clone()
		s.platformIndex[platformKey{player.Platform, player.PlatformID}] = id
		s.mu.Unlock()
		return player, nil
	}
	return nil, model.ErrConflict
}

// Game operations

func (s *Storage) CreateGame(ctx context.Context, game *model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.games[game.Name]; exists {
		return model.ErrGameExists
	}
	stored := game.Clone()
	stored.Version = 1
	s.games[game.Name] = stored
	game.Version = stored.Version
	return nil
}

func (s *Storage) GetGame(ctx context.Context, name model.GameName) (*model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[name]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return game.Clone(), nil
}

func (s *Storage) UpdateGame(ctx context.Context, name model.GameName, fn storage.UpdateFunc) (*model.Game, error) {
	for attempt := 0; attempt < storage.MaxUpdateAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		game, err := s.GetGame(ctx, name)
		if err != nil {
			return nil, err
		}
		readVersion := game.Version

		if err := fn(game); err != nil {
			return nil, err
		}

		if s.beforeCommit != nil {
			s.beforeCommit()
		}

		s.mu.Lock()
		current, ok := s.games[name]
		if !ok {
			s.mu.Unlock()
			return nil, model.ErrGameNotFound
		}
		if current.Version != readVersion {
			s.mu.Unlock()
			continue
		}
		game.Name = name
		game.Version = readVersion + 1
		s.games[name] = game.Clone()
		s.mu.Unlock()
		return game, nil
	}
	return nil, model.ErrConflict
}

func (s *Storage) ListGames(ctx context.Context, query model.GameQuery) ([]*model.Game, error) {
	var channels []model.Channel
	if query.Channel != nil {
		var err error
		channels, err = storage.Audience(ctx, s, *query.Channel)
		if err != nil {
			return nil, err
		}
	}

	s.mu.RLock()
	games := make([]*model.Game, 0, len(s.games))
	for _, game := range s.games {
		if storage.MatchesQuery(game, query, channels) {
			games = append(games, game.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(games, func(i, j int) bool {
		if games[i].CreatedAt.Equal(games[j].CreatedAt) {
			return games[i].Name < games[j].Name
		}
		return games[i].CreatedAt.After(games[j].CreatedAt)
	})
	if query.Limit > 0 && len(games) > query.Limit {
		games = games[:query.Limit]
	}
	return games, nil
}

// Interest operations

func (s *Storage) SetInterest(ctx context.Context, interest model.Interest, interested bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := interest.Channel.Key()
	players, ok := s.interests[key]
	if !interested {
		if ok {
			delete(players, interest.PlayerID)
		}
		return nil
	}
	if !ok {
		players = make(map[model.PlayerID]struct{})
		s.interests[key] = players
	}
	players[interest.PlayerID] = struct{}{}
	return nil
}

func (s *Storage) GetInterestedPlayers(ctx context.Context, channel model.Channel) ([]model.PlayerID, error) {
	channels, err := storage.Audience(ctx, s, channel)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[model.PlayerID]struct{})
	var ids []model.PlayerID
	for _, c := range channels {
		for id := range s.interests[c.Key()] {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Channel link operations

func (s *Storage) SaveChannelLink(ctx context.Context, link model.ChannelLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addLink(link.A, link.B)
	s.addLink(link.B, link.A)
	return nil
}

func (s *Storage) addLink(from, to model.Channel) {
	key := from.Key()
	for _, existing := range s.links[key] {
		if existing.Equal(to) {
			return
		}
	}
	s.links[key] = append(s.links[key], to)
}

func (s *Storage) GetLinkedChannels(ctx context.Context, channel model.Channel) ([]model.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	linked := s.links[channel.Key()]
	result := make([]model.Channel, len(linked))
	copy(result, linked)
	return result, nil
}
