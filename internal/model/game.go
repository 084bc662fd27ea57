package model

import "time"

// GameName is the generated, human-memorable primary key of a game
type GameName string

// FrameID uniquely identifies a frame (turn) within a game
type FrameID string

// FrameImage describes a stored image
type FrameImage struct {
	URL      string
	FileName string
	Width    int
	Height   int
}

// OutputKind is what a frame holds once it has been played
type OutputKind string

const (
	OutputNone    OutputKind = ""
	OutputCaption OutputKind = "caption"
	OutputImage   OutputKind = "image"
)

// Frame is one turn of a game, played by one player
type Frame struct {
	ID       FrameID
	PlayerID PlayerID
	Caption  string
	Image    *FrameImage

	// Warnings counts inactivity reminders sent for this frame
	Warnings int
}

// IsComplete returns true once the frame has a caption or an image
func (f *Frame) IsComplete() bool {
	return f.Caption != "" || f.Image != nil
}

// Output returns which kind of output the frame holds
func (f *Frame) Output() OutputKind {
	switch {
	case f.Image != nil:
		return OutputImage
	case f.Caption != "":
		return OutputCaption
	default:
		return OutputNone
	}
}

// Game is one play-through: an ordered sequence of frames
type Game struct {
	Name       GameName
	Channel    Channel
	IsComplete bool
	Frames     []Frame
	TitleImage *FrameImage

	// Version is bumped by storage on every successful write
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FrameIndex returns the index of the frame with the given id, or -1
func (g *Game) FrameIndex(id FrameID) int {
	for i := range g.Frames {
		if g.Frames[i].ID == id {
			return i
		}
	}
	return -1
}

// PlayerFrameIndex returns the index of the player's frame, or -1
func (g *Game) PlayerFrameIndex(playerID PlayerID) int {
	for i := range g.Frames {
		if g.Frames[i].PlayerID == playerID {
			return i
		}
	}
	return -1
}

// CurrentFrameIndex returns the index of the first pending frame, or -1 if none
func (g *Game) CurrentFrameIndex() int {
	for i := range g.Frames {
		if !g.Frames[i].IsComplete() {
			return i
		}
	}
	return -1
}

// CompletedCount returns how many frames have been played
func (g *Game) CompletedCount() int {
	n := 0
	for i := range g.Frames {
		if g.Frames[i].IsComplete() {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the game
func (g *Game) Clone() *Game {
	c := *g
	c.Frames = make([]Frame, len(g.Frames))
	for i, f := range g.Frames {
		if f.Image != nil {
			img := *f.Image
			f.Image = &img
		}
		c.Frames[i] = f
	}
	if g.TitleImage != nil {
		t := *g.TitleImage
		c.TitleImage = &t
	}
	return &c
}

// GameQuery filters game listings
type GameQuery struct {
	// Complete filters on completion when non-nil
	Complete *bool
	// Channel restricts results to a channel and the channels linked to it
	Channel *Channel
	// Limit caps the number of results; zero means no limit
	Limit int
}
