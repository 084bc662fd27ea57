package request

import (
	"fmt"

	"github.com/mcoot/drawphone/internal/model"
)

// CaptionRequest is the request body for playing a caption
type CaptionRequest struct {
	Text string `json:"text"`
}

// PlayerRef identifies a chat platform user
type PlayerRef struct {
	Platform   string `json:"platform"`
	PlatformID string `json:"platform_id"`
	Name       string `json:"name"`
}

// ToModel validates and converts the reference
func (p PlayerRef) ToModel() (model.PlayerRef, error) {
	platform, err := model.ParsePlatform(p.Platform)
	if err != nil {
		return model.PlayerRef{}, err
	}
	if p.PlatformID == "" {
		return model.PlayerRef{}, fmt.Errorf("player platform_id is required")
	}
	return model.PlayerRef{Platform: platform, PlatformID: p.PlatformID, Name: p.Name}, nil
}

// Channel identifies a chat channel
type Channel struct {
	Platform string `json:"platform"`
	ID       string `json:"id"`
	Name     string `json:"name"`
}

// ToModel validates and converts the channel
func (c Channel) ToModel() (model.Channel, error) {
	platform, err := model.ParsePlatform(c.Platform)
	if err != nil {
		return model.Channel{}, err
	}
	if c.ID == "" {
		return model.Channel{}, fmt.Errorf("channel id is required")
	}
	return model.Channel{Platform: platform, ID: c.ID, Name: c.Name}, nil
}

// ChatCommandRequest is a message addressed to the bot, forwarded by a platform adapter
type ChatCommandRequest struct {
	Channel  Channel     `json:"channel"`
	Sender   PlayerRef   `json:"sender"`
	Text     string      `json:"text"`
	Mentions []PlayerRef `json:"mentions,omitempty"`
}
