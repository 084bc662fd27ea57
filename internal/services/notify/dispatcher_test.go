package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/drawphone/internal/dependencies/mocks"
	"github.com/mcoot/drawphone/internal/model"
	"github.com/mcoot/drawphone/internal/services/resolver"
	"github.com/mcoot/drawphone/internal/storage/memory"
	"github.com/mcoot/drawphone/internal/testutil"
)

type DispatcherSuite struct {
	suite.Suite
	storage    *memory.Storage
	resolver   *resolver.Resolver
	slack      *RecordingBot
	discord    *RecordingBot
	dispatcher *Dispatcher
	ctx        context.Context
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherSuite))
}

func (s *DispatcherSuite) SetupTest() {
	s.storage = memory.New()
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.resolver = resolver.New(s.storage, clk, testutil.NopLogger())
	s.slack = NewRecordingBot(model.PlatformSlack)
	s.discord = NewRecordingBot(model.PlatformDiscord)
	s.dispatcher = NewDispatcher(s.storage, s.resolver, Config{}, testutil.NopLogger(), s.slack, s.discord)
	s.ctx = context.Background()
}

func (s *DispatcherSuite) TestAnnounceRoutesByPlatform() {
	channel := model.Channel{ID: "D1", Platform: model.PlatformDiscord, Name: "drawing"}

	err := s.dispatcher.Announce(s.ctx, channel, model.NewMessage(model.Text("hello")))
	s.Require().NoError(err)

	s.Empty(s.slack.Sent())
	s.Equal([]string{"hello"}, s.discord.ChannelMessages())
}

func (s *DispatcherSuite) TestAnnounceUnknownPlatform() {
	d := NewDispatcher(s.storage, s.resolver, Config{}, testutil.NopLogger(), s.slack)
	channel := model.Channel{ID: "D1", Platform: model.PlatformDiscord}

	err := d.Announce(s.ctx, channel, model.NewMessage(model.Text("hello")))
	s.ErrorIs(err, ErrNoBot)
}

func (s *DispatcherSuite) TestDirectMessageFollowsRedirect() {
	alice, err := s.resolver.Resolve(s.ctx, model.PlayerRef{PlatformID: "U1", Platform: model.PlatformSlack, Name: "alice"})
	s.Require().NoError(err)
	bob, err := s.resolver.Resolve(s.ctx, model.PlayerRef{PlatformID: "B1", Platform: model.PlatformDiscord, Name: "bob"})
	s.Require().NoError(err)
	_, err = s.resolver.SetPreferred(s.ctx, alice.ID, bob.ID)
	s.Require().NoError(err)

	err = s.dispatcher.DirectMessage(s.ctx, alice.ID, model.NewMessage(model.Text("your turn")))
	s.Require().NoError(err)

	s.Empty(s.slack.Sent())
	s.Equal([]string{"your turn"}, s.discord.DirectMessages(bob.ID))
}

func (s *DispatcherSuite) TestDirectMessageUnknownPlayer() {
	err := s.dispatcher.DirectMessage(s.ctx, "ghost", model.NewMessage(model.Text("hi")))
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *DispatcherSuite) TestSendFailureIsReturned() {
	boom := errors.New("boom")
	s.slack.FailSends(boom)
	channel := model.Channel{ID: "C1", Platform: model.PlatformSlack}

	err := s.dispatcher.Announce(s.ctx, channel, model.NewMessage(model.Text("hello")))
	s.ErrorIs(err, boom)
}

func (s *DispatcherSuite) TestAvatar() {
	alice, err := s.resolver.Resolve(s.ctx, model.PlayerRef{PlatformID: "U1", Platform: model.PlatformSlack, Name: "alice"})
	s.Require().NoError(err)

	avatar, err := s.dispatcher.Avatar(s.ctx, alice)
	s.Require().NoError(err)
	s.Nil(avatar)

	s.slack.SetAvatar(alice.ID, &model.BotAvatar{URL: "http://a", Width: 32, Height: 32})
	avatar, err = s.dispatcher.Avatar(s.ctx, alice)
	s.Require().NoError(err)
	s.Equal("http://a", avatar.URL)
}

func (s *DispatcherSuite) TestPacingHonoursContext() {
	d := NewDispatcher(s.storage, s.resolver, Config{MessagesPerSecond: 0.001, Burst: 1}, testutil.NopLogger(), s.slack)
	channel := model.Channel{ID: "C1", Platform: model.PlatformSlack}

	s.Require().NoError(d.Announce(s.ctx, channel, model.NewMessage(model.Text("first"))))

	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Millisecond)
	defer cancel()
	err := d.Announce(ctx, channel, model.NewMessage(model.Text("second")))
	s.Error(err)
	s.Equal([]string{"first"}, s.slack.ChannelMessages())
}
