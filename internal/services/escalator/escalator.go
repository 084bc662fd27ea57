// Package escalator reminds idle turn holders and eventually skips them.
package escalator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mcoot/drawphone/internal/model"
	"github.com/mcoot/drawphone/internal/storage"
)

// errStale aborts an update when the game moved on since it was listed
var errStale = errors.New("turn changed since listing")

// Config holds escalation settings
type Config struct {
	// MaxWarnings is how many reminders a turn gets before it is dropped
	MaxWarnings int
	// Concurrency bounds how many games are escalated at once
	Concurrency int
	// CommandPrefix is how players address the bot, used in rejoin instructions
	CommandPrefix string
}

// DefaultConfig returns default escalator configuration
func DefaultConfig() Config {
	return Config{
		MaxWarnings:   2,
		Concurrency:   8,
		CommandPrefix: "@drawphone",
	}
}

// Turns is the part of the game controller the escalator drives
type Turns interface {
	DropTurn(ctx context.Context, name model.GameName, frameID model.FrameID) (*model.Game, error)
	PlayURL(name model.GameName, frameID model.FrameID) string
}

// Messenger delivers direct messages to players
type Messenger interface {
	DirectMessage(ctx context.Context, playerID model.PlayerID, msg model.Message) error
}

// Result counts what a sweep did
type Result struct {
	Games    int
	Reminded int
	Dropped  int
}

type action int

const (
	actionNone action = iota
	actionRemind
	actionDrop
)

// Escalator sweeps active games for idle turns
type Escalator struct {
	storage   storage.Storage
	turns     Turns
	messenger Messenger
	cfg       Config
	logger    *slog.Logger
}

// New creates a new Escalator
func New(storage storage.Storage, turns Turns, messenger Messenger, cfg Config, logger *slog.Logger) *Escalator {
	defaults := DefaultConfig()
	if cfg.MaxWarnings <= 0 {
		cfg.MaxWarnings = defaults.MaxWarnings
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaults.Concurrency
	}
	if cfg.CommandPrefix == "" {
		cfg.CommandPrefix = defaults.CommandPrefix
	}
	return &Escalator{
		storage:   storage,
		turns:     turns,
		messenger: messenger,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "escalator")),
	}
}

// Sweep escalates the current turn of every active game. Failures in one game
// are logged and do not stop the others.
func (e *Escalator) Sweep(ctx context.Context) (Result, error) {
	active := false
	games, err := e.storage.ListGames(ctx, model.GameQuery{Complete: &active})
	if err != nil {
		return Result{}, fmt.Errorf("listing active games: %w", err)
	}

	var reminded, dropped atomic.Int64
	var g errgroup.Group
	g.SetLimit(e.cfg.Concurrency)
	for _, game := range games {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			act, err := e.escalate(ctx, game)
			if err != nil {
				e.logger.Warn("escalation failed",
					slog.String("game", string(game.Name)),
					slog.String("error", err.Error()),
				)
				return nil
			}
			switch act {
			case actionRemind:
				reminded.Add(1)
			case actionDrop:
				dropped.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	result := Result{Games: len(games), Reminded: int(reminded.Load()), Dropped: int(dropped.Load())}
	e.logger.Info("sweep complete",
		slog.Int("games", result.Games),
		slog.Int("reminded", result.Reminded),
		slog.Int("dropped", result.Dropped),
	)
	return result, ctx.Err()
}

// Run sweeps every interval until ctx is cancelled
func (e *Escalator) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := e.Sweep(ctx); err != nil && ctx.Err() == nil {
				e.logger.Error("sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}

func (e *Escalator) escalate(ctx context.Context, game *model.Game) (action, error) {
	idx := game.CurrentFrameIndex()
	if idx < 0 {
		return actionNone, nil
	}
	frame := game.Frames[idx]
	if frame.Warnings >= e.cfg.MaxWarnings {
		return e.drop(ctx, game.Name, frame)
	}
	return e.remind(ctx, game.Name, frame)
}

func (e *Escalator) remind(ctx context.Context, name model.GameName, frame model.Frame) (action, error) {
	_, err := e.storage.UpdateGame(ctx, name, func(g *model.Game) error {
		i := g.FrameIndex(frame.ID)
		if i < 0 || i != g.CurrentFrameIndex() || g.Frames[i].Warnings != frame.Warnings {
			return errStale
		}
		g.Frames[i].Warnings++
		return nil
	})
	if errors.Is(err, errStale) {
		return actionNone, nil
	}
	if err != nil {
		return actionNone, err
	}

	e.logger.Info("turn reminder",
		slog.String("game", string(name)),
		slog.String("player_id", string(frame.PlayerID)),
		slog.Int("warnings", frame.Warnings+1),
	)
	e.send(ctx, frame.PlayerID, model.NewMessage(
		model.Text("This is a reminder to play your turn on game "), model.Bold(string(name)),
		model.Text(" in the next day! You can go here to play: "),
		model.Text(e.turns.PlayURL(name, frame.ID)),
	))
	return actionRemind, nil
}

func (e *Escalator) drop(ctx context.Context, name model.GameName, frame model.Frame) (action, error) {
	if _, err := e.turns.DropTurn(ctx, name, frame.ID); err != nil {
		// The turn was played, or the game finished, since the listing
		if _, ok := model.AsGameLogicError(err); ok {
			return actionNone, nil
		}
		return actionNone, err
	}

	e.send(ctx, frame.PlayerID, model.NewMessage(
		model.Text("Oh no! You took too long to play your turn on game "), model.Bold(string(name)),
		model.Text(", so you've been skipped. If you'd like to rejoin, type "),
		model.Code(fmt.Sprintf("%s join %s", e.cfg.CommandPrefix, name)),
	))
	return actionDrop, nil
}

func (e *Escalator) send(ctx context.Context, playerID model.PlayerID, msg model.Message) {
	if err := e.messenger.DirectMessage(ctx, playerID, msg); err != nil {
		e.logger.Warn("escalation message failed",
			slog.String("player_id", string(playerID)),
			slog.String("error", err.Error()),
		)
	}
}

