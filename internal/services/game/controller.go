package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mcoot/drawphone/internal/dependencies/clock"
	"github.com/mcoot/drawphone/internal/dependencies/random"
	"github.com/mcoot/drawphone/internal/model"
	"github.com/mcoot/drawphone/internal/services/avatar"
	"github.com/mcoot/drawphone/internal/services/imaging"
	"github.com/mcoot/drawphone/internal/services/notify"
	"github.com/mcoot/drawphone/internal/services/objectstore"
	"github.com/mcoot/drawphone/internal/services/resolver"
	"github.com/mcoot/drawphone/internal/services/solver"
	"github.com/mcoot/drawphone/internal/services/tasks"
	"github.com/mcoot/drawphone/internal/services/title"
	"github.com/mcoot/drawphone/internal/storage"
)

// Config holds turn machine settings
type Config struct {
	// BaseURL prefixes the play and game links sent to players
	BaseURL       string
	MinPlayers    int
	MaxImageBytes int64
	// NameAttempts bounds retries when a generated game name is taken
	NameAttempts int
}

// DefaultConfig returns default game configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:       "http://localhost:8080",
		MinPlayers:    4,
		MaxImageBytes: 8 << 20,
		NameAttempts:  10,
	}
}

// Namer generates candidate game names
type Namer interface {
	Name() model.GameName
}

// Controller runs the turn state machine for every game
type Controller struct {
	storage    storage.Storage
	resolver   *resolver.Resolver
	dispatcher *notify.Dispatcher
	queue      *tasks.Queue
	images     *imaging.Processor
	store      objectstore.Store
	avatars    *avatar.Cache
	titles     *title.Composer
	namer      Namer
	clock      clock.Clock
	random     random.Random
	cfg        Config
	logger     *slog.Logger
}

// NewController creates a new game Controller
func NewController(
	storage storage.Storage,
	resolver *resolver.Resolver,
	dispatcher *notify.Dispatcher,
	queue *tasks.Queue,
	images *imaging.Processor,
	store objectstore.Store,
	avatars *avatar.Cache,
	titles *title.Composer,
	namer Namer,
	clock clock.Clock,
	random random.Random,
	cfg Config,
	logger *slog.Logger,
) *Controller {
	if cfg.MinPlayers <= 0 {
		cfg.MinPlayers = DefaultConfig().MinPlayers
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = DefaultConfig().MaxImageBytes
	}
	if cfg.NameAttempts <= 0 {
		cfg.NameAttempts = DefaultConfig().NameAttempts
	}
	return &Controller{
		storage:    storage,
		resolver:   resolver,
		dispatcher: dispatcher,
		queue:      queue,
		images:     images,
		store:      store,
		avatars:    avatars,
		titles:     titles,
		namer:      namer,
		clock:      clock,
		random:     random,
		cfg:        cfg,
		logger:     logger.With(slog.String("component", "game")),
	}
}

// PlayURL returns the link a player follows to play a frame
func (c *Controller) PlayURL(name model.GameName, frameID model.FrameID) string {
	return fmt.Sprintf("%s/play/%s/%s", strings.TrimSuffix(c.cfg.BaseURL, "/"), name, frameID)
}

// GameURL returns the link to a finished game
func (c *Controller) GameURL(name model.GameName) string {
	return fmt.Sprintf("%s/game/%s", strings.TrimSuffix(c.cfg.BaseURL, "/"), name)
}

// FrameKey returns a fresh object key for one upload of a frame's image, so
// competing submissions never write the same object
func FrameKey(name model.GameName, frameID model.FrameID, ext string) string {
	return fmt.Sprintf("%s/%s-%s.%s", name, frameID, uuid.NewString(), ext)
}

func newFrameID() model.FrameID {
	return model.FrameID(uuid.NewString())
}

// StartGame creates a game in channel for the referenced players, plus everyone
// available in the channel when includeInterested is set
func (c *Controller) StartGame(ctx context.Context, channel model.Channel, refs []model.PlayerRef, includeInterested bool) (*model.Game, error) {
	players, err := c.gatherPlayers(ctx, channel, refs, includeInterested)
	if err != nil {
		return nil, err
	}
	if len(players) < c.cfg.MinPlayers {
		return nil, model.NewGameLogicError(model.ErrInsufficientPlayers,
			model.Text(fmt.Sprintf("You need at least %d players to start a game, but I only found %d.", c.cfg.MinPlayers, len(players))),
		)
	}

	c.random.Shuffle(len(players), func(i, j int) { players[i], players[j] = players[j], players[i] })
	if unresolved := solver.Resolve(c.random, players, 0, func(p *model.Player) model.Role { return p.PreferredRole }); unresolved > 0 {
		c.logger.Debug("role preferences left unsatisfied", slog.Int("count", unresolved))
	}

	now := c.clock.Now()
	frames := make([]model.Frame, len(players))
	for i, p := range players {
		frames[i] = model.Frame{ID: newFrameID(), PlayerID: p.ID}
	}
	game := &model.Game{
		Channel:   channel,
		Frames:    frames,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.createWithFreshName(ctx, game); err != nil {
		c.logger.Error("failed to save game",
			slog.String("channel", channel.Key().String()),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	c.logger.Info("game started",
		slog.String("game", string(game.Name)),
		slog.String("channel", channel.Key().String()),
		slog.Int("player_count", len(players)),
	)

	c.announce(ctx, channel, model.NewMessage(
		model.Text("Game "), model.Bold(string(game.Name)),
		model.Text(" has begun! It is now "), model.Bold(players[0].Name), model.Text("'s turn."),
	))
	c.notifyTurn(ctx, game, 0)

	return game, nil
}

func (c *Controller) gatherPlayers(ctx context.Context, channel model.Channel, refs []model.PlayerRef, includeInterested bool) ([]*model.Player, error) {
	seen := make(map[model.PlayerID]bool)
	var players []*model.Player
	add := func(p *model.Player) {
		if !seen[p.ID] {
			seen[p.ID] = true
			players = append(players, p)
		}
	}

	for _, ref := range refs {
		p, err := c.resolver.ResolveEffective(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", ref.Name, err)
		}
		add(p)
	}

	if !includeInterested {
		return players, nil
	}

	ids, err := c.storage.GetInterestedPlayers(ctx, channel)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		p, err := c.storage.GetPlayer(ctx, id)
		if errors.Is(err, model.ErrPlayerNotFound) {
			c.logger.Warn("interested player missing", slog.String("player_id", string(id)))
			continue
		}
		if err != nil {
			return nil, err
		}
		effective, err := c.resolver.Effective(ctx, p)
		if err != nil {
			return nil, err
		}
		add(effective)
	}
	return players, nil
}

func (c *Controller) createWithFreshName(ctx context.Context, game *model.Game) error {
	for attempt := 0; attempt < c.cfg.NameAttempts; attempt++ {
		game.Name = c.namer.Name()
		err := c.storage.CreateGame(ctx, game)
		if errors.Is(err, model.ErrGameExists) {
			continue
		}
		return err
	}
	return fmt.Errorf("no free game name after %d attempts: %w", c.cfg.NameAttempts, model.ErrGameExists)
}

// GetGame retrieves a game by name
func (c *Controller) GetGame(ctx context.Context, name model.GameName) (*model.Game, error) {
	return c.loadGame(ctx, name)
}

// GetPlayers loads the players with the given ids, skipping unknown ones
func (c *Controller) GetPlayers(ctx context.Context, ids []model.PlayerID) (map[model.PlayerID]*model.Player, error) {
	players := make(map[model.PlayerID]*model.Player, len(ids))
	for _, id := range ids {
		if _, ok := players[id]; ok {
			continue
		}
		p, err := c.storage.GetPlayer(ctx, id)
		if errors.Is(err, model.ErrPlayerNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		players[id] = p
	}
	return players, nil
}

// ListOptions filters and orders game listings
type ListOptions struct {
	Completed *bool
	Channel   *model.Channel
	Limit     int
	// Sample returns a random selection instead of the most recent games
	Sample bool
}

// ListGames returns games matching opts
func (c *Controller) ListGames(ctx context.Context, opts ListOptions) ([]*model.Game, error) {
	query := model.GameQuery{Complete: opts.Completed, Channel: opts.Channel}
	if !opts.Sample {
		query.Limit = opts.Limit
	}

	games, err := c.storage.ListGames(ctx, query)
	if err != nil {
		return nil, err
	}

	if opts.Sample {
		c.random.Shuffle(len(games), func(i, j int) { games[i], games[j] = games[j], games[i] })
		if opts.Limit > 0 && len(games) > opts.Limit {
			games = games[:opts.Limit]
		}
	}
	return games, nil
}

func (c *Controller) loadGame(ctx context.Context, name model.GameName) (*model.Game, error) {
	game, err := c.storage.GetGame(ctx, name)
	if err != nil {
		return nil, c.gameErr(name, err)
	}
	return game, nil
}

// gameErr turns a missing game into a user-facing error
func (c *Controller) gameErr(name model.GameName, err error) error {
	if _, ok := model.AsGameLogicError(err); ok {
		return err
	}
	if errors.Is(err, model.ErrGameNotFound) {
		return model.NewGameLogicError(model.ErrGameNotFound,
			model.Text("I couldn't find a game called "), model.Bold(string(name)),
		)
	}
	return err
}

// rolesFor snapshots the role preference of every player in the game plus extra
func (c *Controller) rolesFor(ctx context.Context, game *model.Game, extra ...*model.Player) (map[model.PlayerID]model.Role, error) {
	ids := make([]model.PlayerID, 0, len(game.Frames))
	for _, f := range game.Frames {
		ids = append(ids, f.PlayerID)
	}
	players, err := c.GetPlayers(ctx, ids)
	if err != nil {
		return nil, err
	}

	roles := make(map[model.PlayerID]model.Role, len(players)+len(extra))
	for id, p := range players {
		roles[id] = p.PreferredRole
	}
	for _, p := range extra {
		roles[p.ID] = p.PreferredRole
	}
	return roles, nil
}

// resequence re-runs the role solver over the frames from start onwards
func (c *Controller) resequence(game *model.Game, start int, roles map[model.PlayerID]model.Role) {
	if start < 0 || start >= len(game.Frames) {
		return
	}
	unresolved := solver.Resolve(c.random, game.Frames[start:], start, func(f model.Frame) model.Role {
		return roles[f.PlayerID]
	})
	if unresolved > 0 {
		c.logger.Debug("role preferences left unsatisfied",
			slog.String("game", string(game.Name)),
			slog.Int("count", unresolved),
		)
	}
}

func (c *Controller) playerName(ctx context.Context, id model.PlayerID) string {
	p, err := c.storage.GetPlayer(ctx, id)
	if err != nil {
		return "someone"
	}
	return p.Name
}

// announce posts to a channel; delivery failures never fail the caller
func (c *Controller) announce(ctx context.Context, channel model.Channel, msg model.Message) {
	if err := c.dispatcher.Announce(ctx, channel, msg); err != nil {
		c.logger.Warn("channel message failed",
			slog.String("channel", channel.Key().String()),
			slog.String("error", err.Error()),
		)
	}
}

// directMessage DMs a player; delivery failures never fail the caller
func (c *Controller) directMessage(ctx context.Context, playerID model.PlayerID, msg model.Message) {
	if err := c.dispatcher.DirectMessage(ctx, playerID, msg); err != nil {
		c.logger.Warn("direct message failed",
			slog.String("player_id", string(playerID)),
			slog.String("error", err.Error()),
		)
	}
}

// notifyTurn tells the holder of the frame at idx that it is their turn
func (c *Controller) notifyTurn(ctx context.Context, game *model.Game, idx int) {
	frame := game.Frames[idx]
	c.directMessage(ctx, frame.PlayerID, model.NewMessage(
		model.Text("It's your turn to play on game "), model.Bold(string(game.Name)),
		model.Text("! You have two days to play your turn. You can go here to play: "),
		model.Text(c.PlayURL(game.Name, frame.ID)),
	))
}
