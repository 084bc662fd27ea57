package model

import (
	"fmt"
	"time"
)

// PlayerID uniquely identifies a player across the system
type PlayerID string

// Platform identifies the chat platform a player or channel belongs to
type Platform string

const (
	PlatformDiscord Platform = "discord"
	PlatformSlack   Platform = "slack"
)

// ParsePlatform converts a string into a known Platform
func ParsePlatform(s string) (Platform, error) {
	switch Platform(s) {
	case PlatformDiscord, PlatformSlack:
		return Platform(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, s)
	}
}

// Role is a player's standing preference for which kind of turn they play
type Role string

const (
	RoleNone   Role = ""
	RoleAuthor Role = "author" // writes captions, lands on even turn indexes
	RoleArtist Role = "artist" // draws images, lands on odd turn indexes
)

// ParseRole converts user input into a Role; "none" clears the preference
func ParseRole(s string) (Role, error) {
	switch s {
	case "none", "":
		return RoleNone, nil
	case string(RoleAuthor):
		return RoleAuthor, nil
	case string(RoleArtist):
		return RoleArtist, nil
	default:
		return RoleNone, fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

// Parity returns the turn-index parity the role wants, or -1 for no preference
func (r Role) Parity() int {
	switch r {
	case RoleAuthor:
		return 0
	case RoleArtist:
		return 1
	default:
		return -1
	}
}

// Accepts reports whether a player with this role is happy at the given absolute turn index
func (r Role) Accepts(index int) bool {
	p := r.Parity()
	return p < 0 || index%2 == p
}

// PlayerRef is how a chat platform refers to a person before they are resolved
type PlayerRef struct {
	PlatformID string
	Platform   Platform
	Name       string
}

// Avatar is a cached copy of a player's platform avatar
type Avatar struct {
	URL         string
	Width       int
	Height      int
	Hash        string
	LastUpdated time.Time
}

// BotAvatar is the avatar a platform reports for a player
type BotAvatar struct {
	URL    string
	Width  int
	Height int
}

// Player is the durable record for a person on a chat platform
type Player struct {
	ID         PlayerID
	PlatformID string
	Platform   Platform
	Name       string
	Avatar     *Avatar

	PreferredRole Role

	// PreferredPlayerID redirects turn assignment and DMs to another player record
	PreferredPlayerID PlayerID

	CreatedAt time.Time
	UpdatedAt time.Time

	// Version increments on every stored write
	Version int64
}

// Ref returns the platform reference for this player
func (p *Player) Ref() PlayerRef {
	return PlayerRef{PlatformID: p.PlatformID, Platform: p.Platform, Name: p.Name}
}

// Clone returns a deep copy of the player
func (p *Player) Clone() *Player {
	c := *p
	if p.Avatar != nil {
		a := *p.Avatar
		c.Avatar = &a
	}
	return &c
}
