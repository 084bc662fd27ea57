package response

import (
	"time"

	"github.com/mcoot/drawphone/internal/model"
	"github.com/mcoot/drawphone/internal/services/game"
)

// Image describes a stored image
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ImageFromModel converts a model.FrameImage, returning nil for nil
func ImageFromModel(img *model.FrameImage) *Image {
	if img == nil {
		return nil
	}
	return &Image{URL: img.URL, Width: img.Width, Height: img.Height}
}

// Player represents a player in API responses
type Player struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	out := Player{ID: string(p.ID), Name: p.Name}
	if p.Avatar != nil {
		out.AvatarURL = p.Avatar.URL
	}
	return out
}

// Frame represents one turn of a game
type Frame struct {
	ID       string  `json:"id"`
	PlayerID string  `json:"player_id,omitempty"`
	Caption  string  `json:"caption,omitempty"`
	Image    *Image  `json:"image,omitempty"`
	Player   *Player `json:"player,omitempty"`
}

// FrameFromModel converts a model.Frame
func FrameFromModel(f model.Frame) Frame {
	return Frame{
		ID:       string(f.ID),
		PlayerID: string(f.PlayerID),
		Caption:  f.Caption,
		Image:    ImageFromModel(f.Image),
	}
}

// Game is a game with its frames
type Game struct {
	Name       string    `json:"name"`
	IsComplete bool      `json:"is_complete"`
	TitleImage *Image    `json:"title_image,omitempty"`
	Frames     []Frame   `json:"frames"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// GameFromModel converts a model.Game, attaching players where known
func GameFromModel(g *model.Game, players map[model.PlayerID]*model.Player) Game {
	frames := make([]Frame, len(g.Frames))
	for i, f := range g.Frames {
		frames[i] = FrameFromModel(f)
		if p, ok := players[f.PlayerID]; ok {
			player := PlayerFromModel(p)
			frames[i].Player = &player
		}
	}
	return Game{
		Name:       string(g.Name),
		IsComplete: g.IsComplete,
		TitleImage: ImageFromModel(g.TitleImage),
		Frames:     frames,
		CreatedAt:  g.CreatedAt,
		UpdatedAt:  g.UpdatedAt,
	}
}

// GameSummary is a game in a listing
type GameSummary struct {
	Name       string    `json:"name"`
	IsComplete bool      `json:"is_complete"`
	TitleImage *Image    `json:"title_image,omitempty"`
	FrameCount int       `json:"frame_count"`
	Completed  int       `json:"completed_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// GameSummaryFromModel converts a model.Game for listings
func GameSummaryFromModel(g *model.Game) GameSummary {
	return GameSummary{
		Name:       string(g.Name),
		IsComplete: g.IsComplete,
		TitleImage: ImageFromModel(g.TitleImage),
		FrameCount: len(g.Frames),
		Completed:  g.CompletedCount(),
		CreatedAt:  g.CreatedAt,
	}
}

// GameList is the response for game listings
type GameList struct {
	Games []GameSummary `json:"games"`
}

// TurnInput is what a player responds to on their turn
type TurnInput struct {
	Game     string `json:"game"`
	FrameID  string `json:"frame_id"`
	Expected string `json:"expected"`
	Previous *Frame `json:"previous,omitempty"`
}

// TurnInputFromModel converts a game.TurnInput
func TurnInputFromModel(in *game.TurnInput) TurnInput {
	out := TurnInput{
		Game:     string(in.Game),
		FrameID:  string(in.Frame.ID),
		Expected: string(in.Expected),
	}
	if in.Previous != nil {
		prev := FrameFromModel(*in.Previous)
		// The author of the previous turn stays hidden until the game is done
		prev.PlayerID = ""
		out.Previous = &prev
	}
	return out
}

// TurnPlayed is the response after a turn is submitted
type TurnPlayed struct {
	Game         string `json:"game"`
	FrameID      string `json:"frame_id"`
	GameComplete bool   `json:"game_complete"`
}

// ChatReply is the response to a chat command
type ChatReply struct {
	Reply string `json:"reply,omitempty"`
}
