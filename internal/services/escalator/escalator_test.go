package escalator_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/drawphone/internal/factory"
	"github.com/mcoot/drawphone/internal/model"
	"github.com/mcoot/drawphone/internal/services/escalator"
	"github.com/mcoot/drawphone/internal/testutil"
)

type EscalatorSuite struct {
	suite.Suite
	app     *factory.TestApp
	ctx     context.Context
	channel model.Channel
}

func TestEscalatorSuite(t *testing.T) {
	suite.Run(t, new(EscalatorSuite))
}

func (s *EscalatorSuite) SetupTest() {
	s.app = factory.NewTestApp("dozyplonk", "mumblefritz", "quibbletop")
	s.ctx = context.Background()
	s.channel = testutil.SlackChannel("C1", "drawing")
}

func (s *EscalatorSuite) start(prefix string, n int) *model.Game {
	refs := make([]model.PlayerRef, n)
	for i := range refs {
		refs[i] = testutil.SlackRef(fmt.Sprintf("%s%d", prefix, i), fmt.Sprintf("%s%d", prefix, i))
	}
	g, err := s.app.Games.StartGame(s.ctx, s.channel, refs, false)
	s.Require().NoError(err)
	s.app.Slack.Reset()
	return g
}

func (s *EscalatorSuite) sweep() escalator.Result {
	result, err := s.app.Escalator.Sweep(s.ctx)
	s.Require().NoError(err)
	return result
}

func (s *EscalatorSuite) game(name model.GameName) *model.Game {
	g, err := s.app.Storage.GetGame(s.ctx, name)
	s.Require().NoError(err)
	return g
}

func (s *EscalatorSuite) TestFirstSweepSendsReminder() {
	g := s.start("a", 4)

	result := s.sweep()

	s.Equal(escalator.Result{Games: 1, Reminded: 1}, result)
	s.Equal(1, s.game(g.Name).Frames[0].Warnings)
	s.Equal([]string{
		"This is a reminder to play your turn on game dozyplonk in the next day! " +
			"You can go here to play: " + factory.TestBaseURL + "/play/dozyplonk/" + string(g.Frames[0].ID),
	}, s.app.Slack.DirectMessages(g.Frames[0].PlayerID))
}

func (s *EscalatorSuite) TestDropsAfterMaxWarnings() {
	g := s.start("a", 5)
	idle := g.Frames[0].PlayerID

	s.sweep()
	s.sweep()
	result := s.sweep()

	s.Equal(1, result.Dropped)
	updated := s.game(g.Name)
	s.Len(updated.Frames, 4)
	s.Equal(-1, updated.PlayerFrameIndex(idle))
	s.Equal(g.Frames[1].PlayerID, updated.Frames[0].PlayerID)
	s.Zero(updated.Frames[0].Warnings)

	s.Len(s.app.Slack.DirectMessages(idle), 3)
	s.Len(s.app.Slack.DirectMessages(updated.Frames[0].PlayerID), 1)
	s.Contains(s.app.Slack.ChannelMessages(), "It is now a1's turn for game dozyplonk.")
}

func (s *EscalatorSuite) TestDroppingLastTurnFinishesGame() {
	g := s.start("a", 5)
	for i := range 4 {
		var err error
		if i%2 == 0 {
			_, err = s.app.Games.SubmitCaption(s.ctx, g.Name, g.Frames[i].ID, "caption")
		} else {
			_, err = s.app.Games.SubmitImage(s.ctx, g.Name, g.Frames[i].ID, bytes.NewReader(testutil.PNG(16, 8)))
		}
		s.Require().NoError(err)
	}
	s.app.Slack.Reset()

	s.sweep()
	s.sweep()
	s.sweep()

	finished := s.game(g.Name)
	s.True(finished.IsComplete)
	s.Len(finished.Frames, 4)
	s.Contains(s.app.Slack.ChannelMessages(), "Game dozyplonk is done! "+factory.TestBaseURL+"/game/dozyplonk")

	// Finished games are no longer swept
	s.Equal(escalator.Result{}, s.sweep())
}

func (s *EscalatorSuite) TestWarningsArePerTurn() {
	g := s.start("a", 4)
	s.sweep()

	_, err := s.app.Games.SubmitCaption(s.ctx, g.Name, g.Frames[0].ID, "a late caption")
	s.Require().NoError(err)
	s.sweep()

	updated := s.game(g.Name)
	s.Equal(1, updated.Frames[0].Warnings)
	s.Equal(1, updated.Frames[1].Warnings)
}

func (s *EscalatorSuite) TestSweepsEveryActiveGame() {
	first := s.start("a", 4)
	second := s.start("b", 4)
	third := s.start("c", 4)

	result := s.sweep()

	s.Equal(escalator.Result{Games: 3, Reminded: 3}, result)
	for _, g := range []*model.Game{first, second, third} {
		s.Equal(1, s.game(g.Name).Frames[0].Warnings)
	}
}

func (s *EscalatorSuite) TestMessageFailureStillCounts() {
	g := s.start("a", 4)
	s.app.Slack.FailSends(errors.New("slack is down"))

	result := s.sweep()

	s.Equal(1, result.Reminded)
	s.Equal(1, s.game(g.Name).Frames[0].Warnings)
}

func (s *EscalatorSuite) TestRunStopsWithContext() {
	s.start("a", 4)
	ctx, cancel := context.WithCancel(s.ctx)

	done := make(chan struct{})
	go func() {
		s.app.Escalator.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	s.Eventually(func() bool {
		return s.app.Slack.DirectMessageCount() > 0
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		s.Fail("Run did not stop after cancel")
	}
}
