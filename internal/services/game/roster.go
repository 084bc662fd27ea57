package game

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/mcoot/drawphone/internal/model"
)

// JoinGame appends a turn for the player. Only frames after the one currently
// being played are reordered to honour role preferences.
func (c *Controller) JoinGame(ctx context.Context, name model.GameName, ref model.PlayerRef) (*model.Game, error) {
	current, err := c.loadGame(ctx, name)
	if err != nil {
		return nil, err
	}
	player, err := c.resolver.ResolveEffective(ctx, ref)
	if err != nil {
		return nil, err
	}
	roles, err := c.rolesFor(ctx, current, player)
	if err != nil {
		return nil, err
	}

	game, err := c.storage.UpdateGame(ctx, name, func(g *model.Game) error {
		if g.IsComplete {
			return alreadyComplete(name)
		}
		if g.PlayerFrameIndex(player.ID) >= 0 {
			return model.NewGameLogicError(model.ErrAlreadyInGame,
				model.Text("You're already in game "), model.Bold(string(name)), model.Text("."),
			)
		}

		g.Frames = append(g.Frames, model.Frame{ID: newFrameID(), PlayerID: player.ID})
		c.resequence(g, g.CurrentFrameIndex()+1, roles)
		g.UpdatedAt = c.clock.Now()
		return nil
	})
	if err != nil {
		return nil, c.gameErr(name, err)
	}

	c.logger.Info("player joined",
		slog.String("game", string(name)),
		slog.String("player_id", string(player.ID)),
	)
	c.announce(ctx, game.Channel, model.NewMessage(
		model.Text("OK "), model.Bold(player.Name), model.Text(", you are now in game "), model.Bold(string(name)),
	))
	return game, nil
}

// LeaveGame removes the player's pending turn
func (c *Controller) LeaveGame(ctx context.Context, name model.GameName, ref model.PlayerRef) (*model.Game, error) {
	current, err := c.loadGame(ctx, name)
	if err != nil {
		return nil, err
	}
	if current.IsComplete {
		return nil, alreadyComplete(name)
	}

	player, err := c.resolver.Lookup(ctx, ref)
	if errors.Is(err, model.ErrPlayerNotFound) {
		return nil, notInGame(name)
	}
	if err != nil {
		return nil, err
	}
	effective, err := c.resolver.Effective(ctx, player)
	if err != nil {
		return nil, err
	}

	game, removed, err := c.removeTurn(ctx, name, func(g *model.Game) (int, error) {
		for _, id := range []model.PlayerID{player.ID, effective.ID} {
			if i := g.PlayerFrameIndex(id); i >= 0 {
				return i, nil
			}
		}
		return -1, notInGame(name)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("player left",
		slog.String("game", string(name)),
		slog.String("player_id", string(removed.Frame.PlayerID)),
		slog.Bool("was_current", removed.WasCurrent),
	)
	c.announce(ctx, game.Channel, model.NewMessage(
		model.Text("OK "), model.Bold(player.Name), model.Text(", you have left game "), model.Bold(string(name)),
	))
	c.afterRemoval(ctx, game, removed)
	return game, nil
}

// DropTurn removes a pending frame on behalf of the system, running the same
// resequence and advance steps as a player leaving
func (c *Controller) DropTurn(ctx context.Context, name model.GameName, frameID model.FrameID) (*model.Game, error) {
	game, removed, err := c.removeTurn(ctx, name, func(g *model.Game) (int, error) {
		return locateFrame(g, frameID)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("turn dropped",
		slog.String("game", string(name)),
		slog.String("frame_id", string(frameID)),
		slog.String("player_id", string(removed.Frame.PlayerID)),
	)
	c.afterRemoval(ctx, game, removed)
	return game, nil
}

// Removal describes a frame taken out of a game
type Removal struct {
	Frame      model.Frame
	Index      int
	WasCurrent bool
}

func (c *Controller) removeTurn(ctx context.Context, name model.GameName, locate func(*model.Game) (int, error)) (*model.Game, *Removal, error) {
	current, err := c.loadGame(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	roles, err := c.rolesFor(ctx, current)
	if err != nil {
		return nil, nil, err
	}

	var removed Removal
	game, err := c.storage.UpdateGame(ctx, name, func(g *model.Game) error {
		if g.IsComplete {
			return alreadyComplete(name)
		}
		idx, err := locate(g)
		if err != nil {
			return err
		}
		if g.Frames[idx].IsComplete() {
			return model.NewGameLogicError(model.ErrTurnAlreadyPlayed,
				model.Text("That turn in game "), model.Bold(string(name)),
				model.Text(" has already been played, so it stays in the game."),
			)
		}

		removed = Removal{
			Frame:      g.Frames[idx],
			Index:      idx,
			WasCurrent: idx == g.CurrentFrameIndex(),
		}
		g.Frames = slices.Delete(g.Frames, idx, idx+1)
		c.resequence(g, idx, roles)
		c.touch(g)
		return nil
	})
	if err != nil {
		return nil, nil, c.gameErr(name, err)
	}
	return game, &removed, nil
}

// afterRemoval runs the advance step when the removed frame was the one being played
func (c *Controller) afterRemoval(ctx context.Context, game *model.Game, removed *Removal) {
	if game.IsComplete {
		c.finish(ctx, game)
		return
	}
	if removed.WasCurrent {
		c.advance(ctx, game)
	}
}

func alreadyComplete(name model.GameName) error {
	return model.NewGameLogicError(model.ErrGameAlreadyComplete,
		model.Text("Game "), model.Bold(string(name)), model.Text(" is already finished."),
	)
}

func notInGame(name model.GameName) error {
	return model.NewGameLogicError(model.ErrNotInGame,
		model.Text("You aren't in game "), model.Bold(string(name)), model.Text("."),
	)
}
