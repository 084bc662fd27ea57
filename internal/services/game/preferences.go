package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/mcoot/drawphone/internal/model"
)

// SetAvailable opts the player in or out of being added to new games in channel
func (c *Controller) SetAvailable(ctx context.Context, channel model.Channel, ref model.PlayerRef, available bool) (model.Message, error) {
	player, err := c.resolver.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	interest := model.Interest{PlayerID: player.ID, Channel: channel}
	if err := c.storage.SetInterest(ctx, interest, available); err != nil {
		return nil, err
	}

	c.logger.Info("availability set",
		slog.String("player_id", string(player.ID)),
		slog.String("channel", channel.Key().String()),
		slog.Bool("available", available),
	)

	if available {
		return model.NewMessage(
			model.Text("OK "), model.Bold(player.Name),
			model.Text(", you're now available for new games in "), model.Bold("#"+channel.Name),
		), nil
	}
	return model.NewMessage(
		model.Text("OK "), model.Bold(player.Name),
		model.Text(", you're no longer available for new games in "), model.Bold("#"+channel.Name),
	), nil
}

// SetRolePreference records whether the player would rather write or draw
func (c *Controller) SetRolePreference(ctx context.Context, ref model.PlayerRef, roleName string) (model.Message, error) {
	role, err := model.ParseRole(strings.ToLower(strings.TrimSpace(roleName)))
	if err != nil {
		return nil, model.NewGameLogicError(model.ErrInvalidRole,
			model.Text("I don't know the role "), model.Code(roleName),
			model.Text(". Try "), model.Code("author"), model.Text(", "), model.Code("artist"),
			model.Text(" or "), model.Code("none"), model.Text("."),
		)
	}

	player, err := c.resolver.ResolveEffective(ctx, ref)
	if err != nil {
		return nil, err
	}
	now := c.clock.Now()
	player, err = c.storage.UpdatePlayer(ctx, player.ID, func(p *model.Player) error {
		p.PreferredRole = role
		p.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("role preference set",
		slog.String("player_id", string(player.ID)),
		slog.String("role", string(role)),
	)

	switch role {
	case model.RoleAuthor:
		return model.NewMessage(model.Text("OK "), model.Bold(player.Name), model.Text(", you'll write captions where possible.")), nil
	case model.RoleArtist:
		return model.NewMessage(model.Text("OK "), model.Bold(player.Name), model.Text(", you'll draw pictures where possible.")), nil
	default:
		return model.NewMessage(model.Text("OK "), model.Bold(player.Name), model.Text(", you no longer have a role preference.")), nil
	}
}

// SetPreferredPlayer sends the player's future turns and messages to target,
// or back to themselves when target is nil
func (c *Controller) SetPreferredPlayer(ctx context.Context, ref model.PlayerRef, target *model.PlayerRef) (model.Message, error) {
	player, err := c.resolver.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	if target == nil {
		if _, err := c.resolver.SetPreferred(ctx, player.ID, ""); err != nil {
			return nil, err
		}
		return model.NewMessage(
			model.Text("OK "), model.Bold(player.Name), model.Text(", your turns will come to you directly again."),
		), nil
	}

	to, err := c.resolver.Resolve(ctx, *target)
	if err != nil {
		return nil, err
	}
	if _, err := c.resolver.SetPreferred(ctx, player.ID, to.ID); err != nil {
		switch {
		case errors.Is(err, model.ErrRedirectCycle):
			return nil, model.NewGameLogicError(model.ErrRedirectCycle,
				model.Text("That would send your turns around in a circle back to you."),
			)
		case errors.Is(err, model.ErrRedirectTooDeep):
			return nil, model.NewGameLogicError(model.ErrRedirectTooDeep,
				model.Text("That would pass your turns along too many people."),
			)
		default:
			return nil, err
		}
	}

	return model.NewMessage(
		model.Text("OK "), model.Bold(player.Name), model.Text(", your turns will now go to "), model.Bold(to.Name),
	), nil
}

// ReportStatus describes the games in progress in a channel and who is available
func (c *Controller) ReportStatus(ctx context.Context, channel model.Channel) (model.Message, error) {
	incomplete := false
	games, err := c.storage.ListGames(ctx, model.GameQuery{Complete: &incomplete, Channel: &channel})
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	var msg model.Message
	if len(games) == 0 {
		msg = msg.Append(model.Text("There are no games in progress here.\n"))
	}
	for _, g := range games {
		cur := g.CurrentFrameIndex()
		if cur < 0 {
			continue
		}
		completed := g.CompletedCount()
		msg = msg.Append(
			model.Text("Game "), model.Bold(string(g.Name)),
			model.Text(fmt.Sprintf(" (started %s): waiting on ", humanize.RelTime(g.CreatedAt, now, "ago", "from now"))),
			model.Bold(c.playerName(ctx, g.Frames[cur].PlayerID)),
			model.Text(fmt.Sprintf(". %d turns completed, %d remaining.\n", completed, len(g.Frames)-completed)),
		)
	}

	ids, err := c.storage.GetInterestedPlayers(ctx, channel)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return msg.Append(model.Text("Nobody has marked themselves available here.")), nil
	}

	players, err := c.GetPlayers(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if p, ok := players[id]; ok {
			names = append(names, p.Name)
		}
	}
	return msg.Append(model.Text("Available players: "), model.Bold(strings.Join(names, ", "))), nil
}
