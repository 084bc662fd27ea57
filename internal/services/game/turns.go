package game

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mcoot/drawphone/internal/model"
	"github.com/mcoot/drawphone/internal/services/imaging"
	"github.com/mcoot/drawphone/internal/services/title"
)

// TurnInput is what the holder of a frame responds to
type TurnInput struct {
	Game  model.GameName
	Frame model.Frame
	// Previous is the preceding frame, nil for the first turn
	Previous *model.Frame
	// Expected is the kind of output this frame must hold
	Expected model.OutputKind
}

// GetTurnInput returns the preceding frame's output for a pending frame
func (c *Controller) GetTurnInput(ctx context.Context, name model.GameName, frameID model.FrameID) (*TurnInput, error) {
	game, err := c.loadGame(ctx, name)
	if err != nil {
		return nil, err
	}
	idx, err := locateFrame(game, frameID)
	if err != nil {
		return nil, err
	}
	if game.Frames[idx].IsComplete() {
		return nil, turnAlreadyComplete(name)
	}

	input := &TurnInput{Game: name, Frame: game.Frames[idx], Expected: model.OutputCaption}
	if idx > 0 {
		prev := game.Frames[idx-1]
		if !prev.IsComplete() {
			return nil, precedingIncomplete(name)
		}
		input.Previous = &prev
		input.Expected = opposite(prev.Output())
	}
	return input, nil
}

// SubmitCaption plays a caption into a pending frame
func (c *Controller) SubmitCaption(ctx context.Context, name model.GameName, frameID model.FrameID, text string) (*model.Game, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, model.NewGameLogicError(model.ErrEmptyCaption, model.Text("Captions can't be empty."))
	}

	var idx int
	game, err := c.storage.UpdateGame(ctx, name, func(g *model.Game) error {
		i, err := locateFrame(g, frameID)
		if err != nil {
			return err
		}
		if err := checkPlayable(g, i, model.OutputCaption); err != nil {
			return err
		}
		g.Frames[i].Caption = text
		c.touch(g)
		idx = i
		return nil
	})
	if err != nil {
		return nil, c.gameErr(name, err)
	}

	c.logger.Info("caption submitted",
		slog.String("game", string(name)),
		slog.String("frame_id", string(frameID)),
	)
	c.afterSubmit(ctx, game, idx)
	return game, nil
}

// SubmitImage plays a drawing into a pending frame. The image is validated and
// stored under its own key before the frame is updated; an upload whose frame
// update fails is removed again.
func (c *Controller) SubmitImage(ctx context.Context, name model.GameName, frameID model.FrameID, r io.Reader) (*model.Game, error) {
	data, err := io.ReadAll(io.LimitReader(r, c.cfg.MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	if int64(len(data)) > c.cfg.MaxImageBytes {
		return nil, model.NewGameLogicError(model.ErrInvalidImage, model.Text("That image is too large."))
	}

	// Reject early so nothing is uploaded for a turn that can't be played
	current, err := c.loadGame(ctx, name)
	if err != nil {
		return nil, err
	}
	i, err := locateFrame(current, frameID)
	if err != nil {
		return nil, err
	}
	if err := checkPlayable(current, i, model.OutputImage); err != nil {
		return nil, err
	}

	dims, err := c.images.Decode(bytes.NewReader(data))
	if errors.Is(err, imaging.ErrTooManyPixels) {
		return nil, model.NewGameLogicError(model.ErrInvalidImage, model.Text("That image has too many pixels."))
	}
	if err != nil {
		return nil, model.NewGameLogicError(model.ErrInvalidImage, model.Text("I couldn't read that image."))
	}

	obj, err := c.store.Upload(ctx, FrameKey(name, frameID, dims.Ext()), bytes.NewReader(data), dims.ContentType())
	if err != nil {
		return nil, fmt.Errorf("storing frame image: %w", err)
	}

	var idx int
	game, err := c.storage.UpdateGame(ctx, name, func(g *model.Game) error {
		i, err := locateFrame(g, frameID)
		if err != nil {
			return err
		}
		if err := checkPlayable(g, i, model.OutputImage); err != nil {
			return err
		}
		g.Frames[i].Image = &model.FrameImage{
			URL:      obj.FileURL,
			FileName: obj.FileName,
			Width:    dims.Width,
			Height:   dims.Height,
		}
		c.touch(g)
		idx = i
		return nil
	})
	if err != nil {
		c.discardUpload(ctx, obj.FileName)
		return nil, c.gameErr(name, err)
	}

	c.logger.Info("image submitted",
		slog.String("game", string(name)),
		slog.String("frame_id", string(frameID)),
		slog.Int("width", dims.Width),
		slog.Int("height", dims.Height),
		slog.String("format", dims.Format),
	)
	c.afterSubmit(ctx, game, idx)
	return game, nil
}

func (c *Controller) discardUpload(ctx context.Context, key string) {
	if err := c.store.Delete(ctx, key); err != nil {
		c.logger.Warn("failed to remove unused frame image",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

// touch stamps the update time and marks the game finished once no frame is pending
func (c *Controller) touch(g *model.Game) {
	g.UpdatedAt = c.clock.Now()
	if g.CurrentFrameIndex() < 0 {
		g.IsComplete = true
	}
}

func (c *Controller) afterSubmit(ctx context.Context, game *model.Game, idx int) {
	c.advance(ctx, game)

	playerID := game.Frames[idx].PlayerID
	c.queue.Submit("avatar-refresh", func(ctx context.Context) error {
		_, err := c.avatars.Refresh(ctx, playerID)
		return err
	})
}

// advance finishes a complete game, or hands the turn to the current frame's holder
func (c *Controller) advance(ctx context.Context, game *model.Game) {
	if game.IsComplete {
		c.finish(ctx, game)
		return
	}

	next := game.CurrentFrameIndex()
	if next < 0 {
		return
	}
	c.notifyTurn(ctx, game, next)
	c.announce(ctx, game.Channel, model.NewMessage(
		model.Text("It is now "), model.Bold(c.playerName(ctx, game.Frames[next].PlayerID)),
		model.Text("'s turn for game "), model.Bold(string(game.Name)), model.Text("."),
	))
}

func (c *Controller) finish(ctx context.Context, game *model.Game) {
	name := game.Name
	c.logger.Info("game complete",
		slog.String("game", string(name)),
		slog.Int("frame_count", len(game.Frames)),
	)

	c.queue.Submit("title-image", func(ctx context.Context) error {
		_, err := c.titles.Compose(ctx, name)
		if errors.Is(err, title.ErrNoImageFrames) {
			return nil
		}
		return err
	})

	c.announce(ctx, game.Channel, model.NewMessage(
		model.Text("Game "), model.Bold(string(name)), model.Text(" is done! "),
		model.Text(c.GameURL(name)),
	))
}

func locateFrame(game *model.Game, frameID model.FrameID) (int, error) {
	idx := game.FrameIndex(frameID)
	if idx < 0 {
		return -1, model.NewGameLogicError(model.ErrFrameNotFound,
			model.Text("That turn isn't part of game "), model.Bold(string(game.Name)), model.Text("."),
		)
	}
	return idx, nil
}

// checkPlayable validates that the frame at idx can take output of the given kind
func checkPlayable(game *model.Game, idx int, kind model.OutputKind) error {
	if game.Frames[idx].IsComplete() {
		return turnAlreadyComplete(game.Name)
	}

	if idx == 0 {
		if kind != model.OutputCaption {
			return inconsistentTurn(game.Name)
		}
		return nil
	}

	prev := &game.Frames[idx-1]
	if !prev.IsComplete() {
		return precedingIncomplete(game.Name)
	}
	if prev.Output() == kind {
		return inconsistentTurn(game.Name)
	}
	return nil
}

func opposite(kind model.OutputKind) model.OutputKind {
	if kind == model.OutputCaption {
		return model.OutputImage
	}
	return model.OutputCaption
}

func turnAlreadyComplete(name model.GameName) error {
	return model.NewGameLogicError(model.ErrTurnAlreadyComplete,
		model.Text("This turn in game "), model.Bold(string(name)), model.Text(" has already been played."),
	)
}

func precedingIncomplete(name model.GameName) error {
	return model.NewGameLogicError(model.ErrPrecedingTurnIncomplete,
		model.Text("The turn before yours in game "), model.Bold(string(name)), model.Text(" hasn't been played yet."),
	)
}

func inconsistentTurn(name model.GameName) error {
	return model.NewGameLogicError(model.ErrInconsistentTurnState,
		model.Text("That kind of turn doesn't follow the previous turn in game "), model.Bold(string(name)), model.Text("."),
	)
}
