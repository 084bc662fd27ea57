package redis

import (
	"fmt"

	"github.com/mcoot/drawphone/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "drawphone"

// Key generation functions for each entity type

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// platformIndexKey returns the Redis key for the (platform, platform id) -> player_id index
func platformIndexKey(platform model.Platform, platformID string) string {
	return fmt.Sprintf("%s:idx:platform:%s:%s", keyPrefix, platform, platformID)
}

// gameKey returns the Redis key for a Game
func gameKey(name model.GameName) string {
	return fmt.Sprintf("%s:game:%s", keyPrefix, name)
}

// gamesIndexKey returns the Redis key for the ZSET of all game names scored by creation time
func gamesIndexKey() string {
	return fmt.Sprintf("%s:idx:games", keyPrefix)
}

// channelGamesIndexKey returns the Redis key for the ZSET of games started in a channel
func channelGamesIndexKey(channel model.ChannelKey) string {
	return fmt.Sprintf("%s:idx:channel_games:%s", keyPrefix, channel)
}

// interestKey returns the Redis key for the SET of players interested in a channel
func interestKey(channel model.ChannelKey) string {
	return fmt.Sprintf("%s:interest:%s", keyPrefix, channel)
}

// channelLinksKey returns the Redis key for the HASH of channels linked to a channel
func channelLinksKey(channel model.ChannelKey) string {
	return fmt.Sprintf("%s:links:%s", keyPrefix, channel)
}
