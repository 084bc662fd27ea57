// Package chat turns text commands addressed to the bot into game operations.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mcoot/drawphone/internal/model"
)

// Games is the part of the game controller chat commands drive
type Games interface {
	StartGame(ctx context.Context, channel model.Channel, refs []model.PlayerRef, includeInterested bool) (*model.Game, error)
	JoinGame(ctx context.Context, name model.GameName, ref model.PlayerRef) (*model.Game, error)
	LeaveGame(ctx context.Context, name model.GameName, ref model.PlayerRef) (*model.Game, error)
	SetAvailable(ctx context.Context, channel model.Channel, ref model.PlayerRef, available bool) (model.Message, error)
	SetRolePreference(ctx context.Context, ref model.PlayerRef, roleName string) (model.Message, error)
	SetPreferredPlayer(ctx context.Context, ref model.PlayerRef, target *model.PlayerRef) (model.Message, error)
	ReportStatus(ctx context.Context, channel model.Channel) (model.Message, error)
}

// Announcer posts replies to a channel
type Announcer interface {
	Announce(ctx context.Context, channel model.Channel, msg model.Message) error
}

// Command is one message addressed to the bot
type Command struct {
	Channel model.Channel
	Sender  model.PlayerRef
	Text    string
	// Mentions are the players referenced in Text, in order
	Mentions []model.PlayerRef
}

// Handler parses and runs chat commands
type Handler struct {
	games     Games
	announcer Announcer
	prefix    string
	logger    *slog.Logger
}

// New creates a new Handler. prefix is how players address the bot, e.g. "@drawphone".
func New(games Games, announcer Announcer, prefix string, logger *slog.Logger) *Handler {
	return &Handler{
		games:     games,
		announcer: announcer,
		prefix:    prefix,
		logger:    logger.With(slog.String("component", "chat")),
	}
}

// Handle runs a command and posts any reply to the command's channel. The
// returned message is the reply, nil when the operation announced for itself.
func (h *Handler) Handle(ctx context.Context, cmd Command) (model.Message, error) {
	reply, err := h.run(ctx, cmd)
	if err != nil {
		if gle, ok := model.AsGameLogicError(err); ok {
			reply = gle.Message
		} else {
			h.logger.Error("command failed",
				slog.String("channel", cmd.Channel.Key().String()),
				slog.String("text", cmd.Text),
				slog.String("error", err.Error()),
			)
			reply = model.NewMessage(model.Text("huh? try "), model.Code(h.prefix+" help"))
		}
	}

	if len(reply) == 0 {
		return nil, nil
	}
	if err := h.announcer.Announce(ctx, cmd.Channel, reply); err != nil {
		return reply, fmt.Errorf("sending reply: %w", err)
	}
	return reply, nil
}

func (h *Handler) run(ctx context.Context, cmd Command) (model.Message, error) {
	args := strings.Fields(strings.TrimPrefix(strings.TrimSpace(cmd.Text), h.prefix))
	if len(args) == 0 {
		return h.help(), nil
	}
	verb, args := strings.ToLower(args[0]), args[1:]

	switch verb {
	case "help":
		return h.help(), nil
	case "start":
		includeInterested := len(args) > 0 && strings.EqualFold(args[0], "all")
		// The sender always plays; mentioning yourself is collapsed by StartGame
		refs := append([]model.PlayerRef{cmd.Sender}, cmd.Mentions...)
		_, err := h.games.StartGame(ctx, cmd.Channel, refs, includeInterested)
		return nil, err
	case "status":
		return h.games.ReportStatus(ctx, cmd.Channel)
	case "join":
		if len(args) == 0 {
			return h.usage("join <game>"), nil
		}
		_, err := h.games.JoinGame(ctx, model.GameName(strings.ToLower(args[0])), cmd.Sender)
		return nil, err
	case "leave":
		if len(args) == 0 {
			return h.usage("leave <game>"), nil
		}
		_, err := h.games.LeaveGame(ctx, model.GameName(strings.ToLower(args[0])), cmd.Sender)
		return nil, err
	case "available":
		return h.games.SetAvailable(ctx, cmd.Channel, cmd.Sender, true)
	case "unavailable":
		return h.games.SetAvailable(ctx, cmd.Channel, cmd.Sender, false)
	case "role":
		if len(args) == 0 {
			return h.usage("role author|artist|none"), nil
		}
		return h.games.SetRolePreference(ctx, cmd.Sender, args[0])
	case "redirect":
		if len(args) > 0 && strings.EqualFold(args[0], "none") {
			return h.games.SetPreferredPlayer(ctx, cmd.Sender, nil)
		}
		if len(cmd.Mentions) == 0 {
			return h.usage("redirect @someone|none"), nil
		}
		target := cmd.Mentions[0]
		return h.games.SetPreferredPlayer(ctx, cmd.Sender, &target)
	default:
		return model.NewMessage(
			model.Text("I don't know how to "), model.Code(verb),
			model.Text(". Try "), model.Code(h.prefix+" help"), model.Text("."),
		), nil
	}
}

func (h *Handler) usage(form string) model.Message {
	return model.NewMessage(model.Text("Usage: "), model.Code(h.prefix+" "+form))
}

func (h *Handler) help() model.Message {
	line := func(form, what string) []model.Chunk {
		return []model.Chunk{model.Code(h.prefix + " " + form), model.Text(" " + what + "\n")}
	}
	msg := model.NewMessage(model.Bold("Drawphone commands"), model.Text("\n"))
	msg = msg.Append(line("start @a @b @c", "starts a game with you and the people you mention")...)
	msg = msg.Append(line("start all @a", "also adds everyone available in this channel")...)
	msg = msg.Append(line("status", "shows games in progress here")...)
	msg = msg.Append(line("join <game>", "adds you to a game in progress")...)
	msg = msg.Append(line("leave <game>", "removes you from a game if you haven't played yet")...)
	msg = msg.Append(line("available", "adds you to new games started with 'all' here")...)
	msg = msg.Append(line("unavailable", "stops adding you to new games here")...)
	msg = msg.Append(line("role author|artist|none", "prefers writing or drawing turns")...)
	msg = msg.Append(line("redirect @someone|none", "sends your turns to another account")...)
	return msg
}
