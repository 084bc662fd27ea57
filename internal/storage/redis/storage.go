package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/drawphone/internal/model"
	"github.com/mcoot/drawphone/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, playerKey(player.ID), data, 0)
	pipe.Set(ctx, platformIndexKey(player.Platform, player.PlatformID), string(player.ID), 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	data, err := s.client.Get(ctx, playerKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

// UpdatePlayer watches the player key the same way UpdateGame watches a game
func (s *Storage) UpdatePlayer(ctx context.Context, id model.PlayerID, fn storage.PlayerUpdateFunc) (*model.Player, error) {
	key := playerKey(id)

	for attempt := 0; attempt < storage.MaxUpdateAttempts; attempt++ {
		var updated *model.Player

		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return model.ErrPlayerNotFound
				}
				return err
			}

			var player model.Player
			if err := json.Unmarshal(data, &player); err != nil {
				return err
			}

			if err := fn(&player); err != nil {
				return err
			}
			player.ID = id
			player.Version++

			out, err := json.Marshal(&player)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, out, 0)
				pipe.Set(ctx, platformIndexKey(player.Platform, player.PlatformID), string(id), 0)
				return nil
			})
			if err != nil {
				return err
			}
			updated = &player
			return nil
		}, key)

		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}

	return nil, model.ErrConflict
}

func (s *Storage) GetPlayerByPlatformID(ctx context.Context, platform model.Platform, platformID string) (*model.Player, error) {
	id, err := s.client.Get(ctx, platformIndexKey(platform, platformID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	return s.GetPlayer(ctx, model.PlayerID(id))
}

// Game operations

func (s *Storage) CreateGame(ctx context.Context, game *model.Game) error {
	stored := game.Clone()
	stored.Version = 1
	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}

	created, err := s.client.SetNX(ctx, gameKey(game.Name), data, 0).Result()
	if err != nil {
		return err
	}
	if !created {
		return model.ErrGameExists
	}

	score := float64(game.CreatedAt.UnixNano())
	member := redis.Z{Score: score, Member: string(game.Name)}
	pipe := s.client.Pipeline()
	pipe.ZAdd(ctx, gamesIndexKey(), member)
	pipe.ZAdd(ctx, channelGamesIndexKey(game.Channel.Key()), member)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("indexing game %s: %w", game.Name, err)
	}

	game.Version = stored.Version
	return nil
}

func (s *Storage) GetGame(ctx context.Context, name model.GameName) (*model.Game, error) {
	data, err := s.client.Get(ctx, gameKey(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrGameNotFound
		}
		return nil, err
	}

	var game model.Game
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, err
	}
	return &game, nil
}

// UpdateGame uses WATCH/MULTI so the write only lands if the key is unchanged
// since it was read
func (s *Storage) UpdateGame(ctx context.Context, name model.GameName, fn storage.UpdateFunc) (*model.Game, error) {
	key := gameKey(name)

	for attempt := 0; attempt < storage.MaxUpdateAttempts; attempt++ {
		var updated *model.Game

		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return model.ErrGameNotFound
				}
				return err
			}

			var game model.Game
			if err := json.Unmarshal(data, &game); err != nil {
				return err
			}

			if err := fn(&game); err != nil {
				return err
			}
			game.Name = name
			game.Version++

			out, err := json.Marshal(&game)
			if err != nil {
				return err
			}

			ttl := time.Duration(0)
			if game.IsComplete {
				ttl = s.cfg.GameTTL
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, out, ttl)
				return nil
			})
			if err != nil {
				return err
			}
			updated = &game
			return nil
		}, key)

		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}

	return nil, model.ErrConflict
}

func (s *Storage) ListGames(ctx context.Context, query model.GameQuery) ([]*model.Game, error) {
	indexKeys := []string{gamesIndexKey()}
	var channels []model.Channel
	if query.Channel != nil {
		var err error
		channels, err = storage.Audience(ctx, s, *query.Channel)
		if err != nil {
			return nil, err
		}
		indexKeys = indexKeys[:0]
		for _, c := range channels {
			indexKeys = append(indexKeys, channelGamesIndexKey(c.Key()))
		}
	}

	// Merge the per-index members, newest first
	var entries []redis.Z
	for _, indexKey := range indexKeys {
		members, err := s.client.ZRevRangeWithScores(ctx, indexKey, 0, -1).Result()
		if err != nil {
			return nil, err
		}
		entries = append(entries, members...)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})

	if len(entries) == 0 {
		return []*model.Game{}, nil
	}

	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = gameKey(model.GameName(e.Member.(string)))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	games := make([]*model.Game, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue // Game may have expired
		}
		var game model.Game
		if err := json.Unmarshal([]byte(val.(string)), &game); err != nil {
			continue // Skip invalid data
		}
		if !storage.MatchesQuery(&game, query, channels) {
			continue
		}
		games = append(games, &game)
		if query.Limit > 0 && len(games) == query.Limit {
			break
		}
	}

	return games, nil
}

// Interest operations

func (s *Storage) SetInterest(ctx context.Context, interest model.Interest, interested bool) error {
	key := interestKey(interest.Channel.Key())
	if interested {
		return s.client.SAdd(ctx, key, string(interest.PlayerID)).Err()
	}
	return s.client.SRem(ctx, key, string(interest.PlayerID)).Err()
}

func (s *Storage) GetInterestedPlayers(ctx context.Context, channel model.Channel) ([]model.PlayerID, error) {
	channels, err := storage.Audience(ctx, s, channel)
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(channels))
	for i, c := range channels {
		keys[i] = interestKey(c.Key())
	}

	members, err := s.client.SUnion(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	sort.Strings(members)
	ids := make([]model.PlayerID, len(members))
	for i, m := range members {
		ids[i] = model.PlayerID(m)
	}
	return ids, nil
}

// Channel link operations

func (s *Storage) SaveChannelLink(ctx context.Context, link model.ChannelLink) error {
	a, err := json.Marshal(link.A)
	if err != nil {
		return err
	}
	b, err := json.Marshal(link.B)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, channelLinksKey(link.A.Key()), link.B.Key().String(), b)
	pipe.HSet(ctx, channelLinksKey(link.B.Key()), link.A.Key().String(), a)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetLinkedChannels(ctx context.Context, channel model.Channel) ([]model.Channel, error) {
	fields, err := s.client.HGetAll(ctx, channelLinksKey(channel.Key())).Result()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(fields))
	for id := range fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	linked := make([]model.Channel, 0, len(ids))
	for _, id := range ids {
		var c model.Channel
		if err := json.Unmarshal([]byte(fields[id]), &c); err != nil {
			return nil, err
		}
		linked = append(linked, c)
	}
	return linked, nil
}
