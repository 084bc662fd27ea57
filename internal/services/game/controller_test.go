package game

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/drawphone/internal/dependencies/mocks"
	"github.com/mcoot/drawphone/internal/model"
	"github.com/mcoot/drawphone/internal/services/avatar"
	"github.com/mcoot/drawphone/internal/services/imaging"
	"github.com/mcoot/drawphone/internal/services/notify"
	"github.com/mcoot/drawphone/internal/services/objectstore"
	"github.com/mcoot/drawphone/internal/services/resolver"
	"github.com/mcoot/drawphone/internal/services/tasks"
	"github.com/mcoot/drawphone/internal/services/title"
	"github.com/mcoot/drawphone/internal/storage/memory"
	"github.com/mcoot/drawphone/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	fetcher    *mocks.MockFetcher
	store      *objectstore.Memory
	bot        *notify.RecordingBot
	resolver   *resolver.Resolver
	namer      *testutil.NameSequence
	controller *Controller
	channel    model.Channel
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	logger := testutil.NopLogger()
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.fetcher = mocks.NewMockFetcher()
	s.store = objectstore.NewMemory("http://files.test")
	s.bot = notify.NewRecordingBot(model.PlatformSlack)
	s.resolver = resolver.New(s.storage, s.clock, logger)
	s.namer = testutil.NewNameSequence("blorptastic", "snorkwhistle", "frimbly")
	s.controller = s.newController(s.store)
	s.channel = testutil.SlackChannel("C1", "general")
	s.ctx = context.Background()
}

func (s *ControllerSuite) newController(store objectstore.Store) *Controller {
	logger := testutil.NopLogger()
	dispatcher := notify.NewDispatcher(s.storage, s.resolver, notify.Config{}, logger, s.bot)
	processor := imaging.New(imaging.DefaultConfig())
	avatars := avatar.New(s.storage, dispatcher, s.fetcher, store, s.clock, avatar.DefaultConfig(), logger)
	titles := title.New(s.storage, store, processor, s.clock, s.random, logger)

	cfg := DefaultConfig()
	cfg.BaseURL = "http://draw.test"
	return NewController(
		s.storage, s.resolver, dispatcher, tasks.NewSync(logger), processor, store,
		avatars, titles, s.namer, s.clock, s.random, cfg, logger,
	)
}

// hookStore runs afterUpload once, straight after the first upload lands
type hookStore struct {
	*objectstore.Memory
	afterUpload func()
}

func (h *hookStore) Upload(ctx context.Context, key string, body io.Reader, contentType string) (*objectstore.Object, error) {
	obj, err := h.Memory.Upload(ctx, key, body, contentType)
	if hook := h.afterUpload; hook != nil && err == nil {
		h.afterUpload = nil
		hook()
	}
	return obj, err
}

// frameObjects returns the stored keys belonging to one frame
func (s *ControllerSuite) frameObjects(name model.GameName, frameID model.FrameID) []string {
	var out []string
	for _, k := range s.store.Keys() {
		if strings.HasPrefix(k, string(name)+"/"+string(frameID)+"-") {
			out = append(out, k)
		}
	}
	return out
}

func (s *ControllerSuite) storedDimensions(key string) image.Config {
	rc, err := s.store.Open(s.ctx, key)
	s.Require().NoError(err)
	defer rc.Close()
	cfg, _, err := image.DecodeConfig(rc)
	s.Require().NoError(err)
	return cfg
}

func refs(n int) []model.PlayerRef {
	out := make([]model.PlayerRef, n)
	for i := range out {
		out[i] = testutil.SlackRef(fmt.Sprintf("U%d", i+1), fmt.Sprintf("p%d", i+1))
	}
	return out
}

func (s *ControllerSuite) playerID(platformID string) model.PlayerID {
	p, err := s.storage.GetPlayerByPlatformID(s.ctx, model.PlatformSlack, platformID)
	s.Require().NoError(err)
	return p.ID
}

func (s *ControllerSuite) start(n int) *model.Game {
	game, err := s.controller.StartGame(s.ctx, s.channel, refs(n), false)
	s.Require().NoError(err)
	return game
}

func (s *ControllerSuite) game(name model.GameName) *model.Game {
	g, err := s.storage.GetGame(s.ctx, name)
	s.Require().NoError(err)
	return g
}

func (s *ControllerSuite) frameOwners(g *model.Game) []model.PlayerID {
	out := make([]model.PlayerID, len(g.Frames))
	for i, f := range g.Frames {
		out[i] = f.PlayerID
	}
	return out
}

// play fills frames in order with alternating captions and images
func (s *ControllerSuite) play(name model.GameName, count int) {
	for i := 0; i < count; i++ {
		g := s.game(name)
		idx := g.CurrentFrameIndex()
		s.Require().GreaterOrEqual(idx, 0)
		frameID := g.Frames[idx].ID
		var err error
		if idx%2 == 0 {
			_, err = s.controller.SubmitCaption(s.ctx, name, frameID, fmt.Sprintf("caption %d", idx))
		} else {
			_, err = s.controller.SubmitImage(s.ctx, name, frameID, bytes.NewReader(testutil.PNG(20, 10)))
		}
		s.Require().NoError(err)
	}
}

func (s *ControllerSuite) requireLogicError(err error, kind error) {
	s.Require().Error(err)
	s.ErrorIs(err, kind)
	_, ok := model.AsGameLogicError(err)
	s.True(ok, "expected a game logic error, got %v", err)
}

// StartGame tests

func (s *ControllerSuite) TestStartGameWithFourPlayers() {
	game := s.start(4)

	s.Equal(model.GameName("blorptastic"), game.Name)
	s.Len(game.Frames, 4)
	for _, f := range game.Frames {
		s.False(f.IsComplete())
		s.NotEmpty(f.ID)
	}
	s.False(game.IsComplete)
	s.Equal(s.playerID("U1"), game.Frames[0].PlayerID)

	s.Equal([]string{"Game blorptastic has begun! It is now p1's turn."}, s.bot.ChannelMessages())
	s.Equal([]string{
		"It's your turn to play on game blorptastic! You have two days to play your turn. " +
			"You can go here to play: http://draw.test/play/blorptastic/" + string(game.Frames[0].ID),
	}, s.bot.DirectMessages(game.Frames[0].PlayerID))
	s.Equal(1, s.bot.DirectMessageCount())

	stored := s.game("blorptastic")
	s.Equal(game.Frames, stored.Frames)
}

func (s *ControllerSuite) TestStartGameCountsRepeatedPlayerOnce() {
	players := append([]model.PlayerRef{testutil.SlackRef("U1", "p1")}, refs(4)...)

	game, err := s.controller.StartGame(s.ctx, s.channel, players, false)
	s.Require().NoError(err)
	s.Len(game.Frames, 4)
	s.ElementsMatch(
		[]model.PlayerID{s.playerID("U1"), s.playerID("U2"), s.playerID("U3"), s.playerID("U4")},
		s.frameOwners(game),
	)
}

func (s *ControllerSuite) TestStartGameInsufficientPlayers() {
	_, err := s.controller.StartGame(s.ctx, s.channel, refs(3), false)
	s.requireLogicError(err, model.ErrInsufficientPlayers)
	s.Empty(s.bot.Sent())
}

func (s *ControllerSuite) TestStartGameDeduplicatesPlayers() {
	players := append(refs(3), testutil.SlackRef("U1", "p1"))

	_, err := s.controller.StartGame(s.ctx, s.channel, players, false)
	s.requireLogicError(err, model.ErrInsufficientPlayers)
}

func (s *ControllerSuite) TestStartGameIncludesInterestedPlayers() {
	_, err := s.controller.SetAvailable(s.ctx, s.channel, testutil.SlackRef("U1", "p1"), true)
	s.Require().NoError(err)
	_, err = s.controller.SetAvailable(s.ctx, s.channel, testutil.SlackRef("U9", "p9"), true)
	s.Require().NoError(err)
	_, err = s.controller.SetAvailable(s.ctx, testutil.SlackChannel("C2", "random"), testutil.SlackRef("U8", "p8"), true)
	s.Require().NoError(err)

	game, err := s.controller.StartGame(s.ctx, s.channel, refs(3), true)
	s.Require().NoError(err)

	s.Len(game.Frames, 4)
	s.Contains(s.frameOwners(game), s.playerID("U9"))
}

func (s *ControllerSuite) TestStartGameFollowsRedirects() {
	_, err := s.controller.SetPreferredPlayer(s.ctx, testutil.SlackRef("U1", "p1"), &model.PlayerRef{
		PlatformID: "U7", Platform: model.PlatformSlack, Name: "p7",
	})
	s.Require().NoError(err)

	game := s.start(4)

	owners := s.frameOwners(game)
	s.Contains(owners, s.playerID("U7"))
	s.NotContains(owners, s.playerID("U1"))
}

func (s *ControllerSuite) TestStartGameHonoursRolePreferences() {
	_, err := s.controller.SetRolePreference(s.ctx, testutil.SlackRef("U1", "p1"), "artist")
	s.Require().NoError(err)
	_, err = s.controller.SetRolePreference(s.ctx, testutil.SlackRef("U2", "p2"), "author")
	s.Require().NoError(err)

	game := s.start(4)

	s.Equal(s.playerID("U2"), game.Frames[0].PlayerID)
	s.Equal(s.playerID("U1"), game.Frames[1].PlayerID)
}

func (s *ControllerSuite) TestStartGameRetriesTakenName() {
	s.Require().NoError(s.storage.CreateGame(s.ctx, &model.Game{Name: "blorptastic"}))

	game := s.start(4)
	s.Equal(model.GameName("snorkwhistle"), game.Name)
}

func (s *ControllerSuite) TestStartGameSurvivesNotificationFailure() {
	s.bot.FailSends(errors.New("slack is down"))

	game := s.start(4)
	s.Len(game.Frames, 4)
}

// Turn tests

func (s *ControllerSuite) TestGetTurnInput() {
	game := s.start(4)

	input, err := s.controller.GetTurnInput(s.ctx, game.Name, game.Frames[0].ID)
	s.Require().NoError(err)
	s.Nil(input.Previous)
	s.Equal(model.OutputCaption, input.Expected)

	_, err = s.controller.GetTurnInput(s.ctx, game.Name, game.Frames[1].ID)
	s.requireLogicError(err, model.ErrPrecedingTurnIncomplete)

	s.play(game.Name, 1)

	input, err = s.controller.GetTurnInput(s.ctx, game.Name, game.Frames[1].ID)
	s.Require().NoError(err)
	s.Require().NotNil(input.Previous)
	s.Equal("caption 0", input.Previous.Caption)
	s.Equal(model.OutputImage, input.Expected)

	_, err = s.controller.GetTurnInput(s.ctx, game.Name, game.Frames[0].ID)
	s.requireLogicError(err, model.ErrTurnAlreadyComplete)
}

func (s *ControllerSuite) TestGetTurnInputUnknownGameAndFrame() {
	_, err := s.controller.GetTurnInput(s.ctx, "nope", "f1")
	s.requireLogicError(err, model.ErrGameNotFound)

	game := s.start(4)
	_, err = s.controller.GetTurnInput(s.ctx, game.Name, "nope")
	s.requireLogicError(err, model.ErrFrameNotFound)
}

func (s *ControllerSuite) TestSubmitCaptionAdvancesTurn() {
	game := s.start(4)
	s.bot.Reset()

	updated, err := s.controller.SubmitCaption(s.ctx, game.Name, game.Frames[0].ID, "  a cat in a hat  ")
	s.Require().NoError(err)

	s.Equal("a cat in a hat", updated.Frames[0].Caption)
	s.False(updated.IsComplete)
	s.Equal([]string{"It is now p2's turn for game blorptastic."}, s.bot.ChannelMessages())
	s.Len(s.bot.DirectMessages(game.Frames[1].PlayerID), 1)
	s.Equal(1, s.bot.DirectMessageCount())
}

func (s *ControllerSuite) TestSubmitTwiceIsRejected() {
	game := s.start(4)

	_, err := s.controller.SubmitCaption(s.ctx, game.Name, game.Frames[0].ID, "a cat")
	s.Require().NoError(err)

	_, err = s.controller.SubmitCaption(s.ctx, game.Name, game.Frames[0].ID, "a dog")
	s.requireLogicError(err, model.ErrTurnAlreadyComplete)
	s.Equal("a cat", s.game(game.Name).Frames[0].Caption)
}

func (s *ControllerSuite) TestSubmitImageTwiceIsRejected() {
	game := s.start(4)
	s.play(game.Name, 2)
	before := s.store.Keys()

	_, err := s.controller.SubmitImage(s.ctx, game.Name, game.Frames[1].ID, bytes.NewReader(testutil.PNG(5, 5)))
	s.requireLogicError(err, model.ErrTurnAlreadyComplete)
	s.ElementsMatch(before, s.store.Keys())
}

func (s *ControllerSuite) TestSubmitEmptyCaption() {
	game := s.start(4)

	_, err := s.controller.SubmitCaption(s.ctx, game.Name, game.Frames[0].ID, "   ")
	s.requireLogicError(err, model.ErrEmptyCaption)
}

func (s *ControllerSuite) TestSubmitWrongKindIsInconsistent() {
	game := s.start(4)

	_, err := s.controller.SubmitImage(s.ctx, game.Name, game.Frames[0].ID, bytes.NewReader(testutil.PNG(5, 5)))
	s.requireLogicError(err, model.ErrInconsistentTurnState)

	s.play(game.Name, 1)
	_, err = s.controller.SubmitCaption(s.ctx, game.Name, game.Frames[1].ID, "another caption")
	s.requireLogicError(err, model.ErrInconsistentTurnState)
}

func (s *ControllerSuite) TestSubmitBeforePrecedingTurn() {
	game := s.start(4)

	_, err := s.controller.SubmitImage(s.ctx, game.Name, game.Frames[1].ID, bytes.NewReader(testutil.PNG(5, 5)))
	s.requireLogicError(err, model.ErrPrecedingTurnIncomplete)
	s.Empty(s.store.Keys())
}

func (s *ControllerSuite) TestSubmitImageStoresFrame() {
	game := s.start(4)
	s.play(game.Name, 1)

	updated, err := s.controller.SubmitImage(s.ctx, game.Name, game.Frames[1].ID, bytes.NewReader(testutil.PNG(30, 15)))
	s.Require().NoError(err)

	img := updated.Frames[1].Image
	s.Require().NotNil(img)
	s.Equal(30, img.Width)
	s.Equal(15, img.Height)
	s.True(strings.HasPrefix(img.FileName, "blorptastic/"+string(game.Frames[1].ID)+"-"), img.FileName)
	s.True(strings.HasSuffix(img.FileName, ".png"), img.FileName)
	s.Equal("http://files.test/"+img.FileName, img.URL)
	s.Equal([]string{img.FileName}, s.frameObjects(game.Name, game.Frames[1].ID))
}

func (s *ControllerSuite) TestSubmitJPEGKeepsItsFormat() {
	game := s.start(4)
	s.play(game.Name, 1)

	var jpg bytes.Buffer
	s.Require().NoError(jpeg.Encode(&jpg, image.NewRGBA(image.Rect(0, 0, 16, 9)), nil))

	updated, err := s.controller.SubmitImage(s.ctx, game.Name, game.Frames[1].ID, &jpg)
	s.Require().NoError(err)

	img := updated.Frames[1].Image
	s.Require().NotNil(img)
	s.True(strings.HasSuffix(img.FileName, ".jpg"), img.FileName)
	s.Equal(16, img.Width)
	s.Equal(9, img.Height)
}

func (s *ControllerSuite) TestSubmitOversizedImageIsRejectedFromHeader() {
	game := s.start(4)
	s.play(game.Name, 1)

	_, err := s.controller.SubmitImage(s.ctx, game.Name, game.Frames[1].ID, bytes.NewReader(testutil.PNGHeader(50000, 50000)))
	s.requireLogicError(err, model.ErrInvalidImage)
	s.Nil(s.game(game.Name).Frames[1].Image)
	s.Empty(s.frameObjects(game.Name, game.Frames[1].ID))
}

func (s *ControllerSuite) TestLosingImageSubmissionLeavesWinnerIntact() {
	game := s.start(4)
	s.play(game.Name, 1)
	frameID := game.Frames[1].ID

	hooked := &hookStore{Memory: s.store}
	controller := s.newController(hooked)
	hooked.afterUpload = func() {
		// A second submission for the same frame commits while the first is between upload and update
		_, err := controller.SubmitImage(s.ctx, game.Name, frameID, bytes.NewReader(testutil.PNG(40, 20)))
		s.Require().NoError(err)
	}

	_, err := controller.SubmitImage(s.ctx, game.Name, frameID, bytes.NewReader(testutil.PNG(8, 8)))
	s.requireLogicError(err, model.ErrTurnAlreadyComplete)

	img := s.game(game.Name).Frames[1].Image
	s.Require().NotNil(img)
	s.Equal(40, img.Width)
	s.Equal([]string{img.FileName}, s.frameObjects(game.Name, frameID))

	stored := s.storedDimensions(img.FileName)
	s.Equal(40, stored.Width)
	s.Equal(20, stored.Height)
}

func (s *ControllerSuite) TestSubmitUnreadableImage() {
	game := s.start(4)
	s.play(game.Name, 1)

	_, err := s.controller.SubmitImage(s.ctx, game.Name, game.Frames[1].ID, bytes.NewReader([]byte("definitely not a png")))
	s.requireLogicError(err, model.ErrInvalidImage)
	s.Nil(s.game(game.Name).Frames[1].Image)
	s.Empty(s.store.Keys())
}

func (s *ControllerSuite) TestLastSubmissionCompletesGame() {
	game := s.start(4)
	s.play(game.Name, 3)
	s.bot.Reset()

	s.play(game.Name, 1)

	finished := s.game(game.Name)
	s.True(finished.IsComplete)
	s.Equal([]string{"Game blorptastic is done! http://draw.test/game/blorptastic"}, s.bot.ChannelMessages())
	s.Zero(s.bot.DirectMessageCount())

	// The synchronous queue has already composed the title image
	s.Require().NotNil(finished.TitleImage)
	s.Equal("blorptastic/title-image.png", finished.TitleImage.FileName)
	s.Equal(400, finished.TitleImage.Width)
	s.Equal(200, finished.TitleImage.Height)
}

func (s *ControllerSuite) TestSubmissionRefreshesAvatar() {
	game := s.start(4)
	playerID := game.Frames[0].PlayerID
	s.bot.SetAvatar(playerID, &model.BotAvatar{URL: "http://cdn/p1.png", Width: 48, Height: 48})
	s.fetcher.Set("http://cdn/p1.png", testutil.PNG(4, 4))

	s.play(game.Name, 1)

	p, err := s.storage.GetPlayer(s.ctx, playerID)
	s.Require().NoError(err)
	s.Require().NotNil(p.Avatar)
	s.Equal("http://files.test/avatars/"+string(playerID)+".png", p.Avatar.URL)
}

func (s *ControllerSuite) TestAvatarFailureDoesNotFailSubmission() {
	game := s.start(4)
	s.bot.SetAvatar(game.Frames[0].PlayerID, &model.BotAvatar{URL: "http://cdn/broken.png"})

	_, err := s.controller.SubmitCaption(s.ctx, game.Name, game.Frames[0].ID, "a cat")
	s.Require().NoError(err)
}

func (s *ControllerSuite) TestConcurrentSubmissionsOnlyOneWins() {
	game := s.start(4)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.controller.SubmitCaption(s.ctx, game.Name, game.Frames[0].ID, fmt.Sprintf("caption %d", i))
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		s.ErrorIs(err, model.ErrTurnAlreadyComplete)
	}
	s.Equal(1, wins)
}

func (s *ControllerSuite) TestConcurrentImageSubmissionsKeepWinnersBytes() {
	game := s.start(4)
	s.play(game.Name, 1)
	frameID := game.Frames[1].ID

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.controller.SubmitImage(s.ctx, game.Name, frameID, bytes.NewReader(testutil.PNG(10+i, 10)))
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		s.ErrorIs(err, model.ErrTurnAlreadyComplete)
	}
	s.Equal(1, wins)

	img := s.game(game.Name).Frames[1].Image
	s.Require().NotNil(img)
	s.Equal([]string{img.FileName}, s.frameObjects(game.Name, frameID))
	s.Equal(img.Width, s.storedDimensions(img.FileName).Width)
}

// Join tests

func (s *ControllerSuite) TestJoinGame() {
	game := s.start(4)
	s.bot.Reset()

	updated, err := s.controller.JoinGame(s.ctx, game.Name, testutil.SlackRef("U5", "p5"))
	s.Require().NoError(err)

	s.Len(updated.Frames, 5)
	s.Equal(s.playerID("U5"), updated.Frames[4].PlayerID)
	s.Equal([]string{"OK p5, you are now in game blorptastic"}, s.bot.ChannelMessages())
	s.Zero(s.bot.DirectMessageCount())
}

func (s *ControllerSuite) TestJoinGameErrors() {
	_, err := s.controller.JoinGame(s.ctx, "nope", testutil.SlackRef("U5", "p5"))
	s.requireLogicError(err, model.ErrGameNotFound)

	game := s.start(4)
	_, err = s.controller.JoinGame(s.ctx, game.Name, testutil.SlackRef("U2", "p2"))
	s.requireLogicError(err, model.ErrAlreadyInGame)

	s.play(game.Name, 4)
	_, err = s.controller.JoinGame(s.ctx, game.Name, testutil.SlackRef("U5", "p5"))
	s.requireLogicError(err, model.ErrGameAlreadyComplete)
}

func (s *ControllerSuite) TestJoinNeverMovesPlayedOrCurrentTurns() {
	game := s.start(4)
	s.play(game.Name, 1)
	_, err := s.controller.SetRolePreference(s.ctx, testutil.SlackRef("U5", "p5"), "artist")
	s.Require().NoError(err)
	before := s.game(game.Name).Frames[:2]

	updated, err := s.controller.JoinGame(s.ctx, game.Name, testutil.SlackRef("U5", "p5"))
	s.Require().NoError(err)

	s.Equal(before, updated.Frames[:2])
	// Turn 4 is even, so the artist swaps into the open odd slot at 3
	s.Equal(s.playerID("U5"), updated.Frames[3].PlayerID)
	s.Equal(game.Frames[3].PlayerID, updated.Frames[4].PlayerID)
}

func (s *ControllerSuite) TestJoinWithUnsatisfiablePreferenceStillJoins() {
	for _, id := range []string{"U3", "U4", "U5"} {
		_, err := s.controller.SetRolePreference(s.ctx, testutil.SlackRef(id, "p"+id[1:]), "author")
		s.Require().NoError(err)
	}
	game := s.start(4)
	s.play(game.Name, 1)
	_, err := s.controller.SetRolePreference(s.ctx, testutil.SlackRef("U6", "p6"), "author")
	s.Require().NoError(err)
	_, err = s.controller.JoinGame(s.ctx, game.Name, testutil.SlackRef("U5", "p5"))
	s.Require().NoError(err)

	updated, err := s.controller.JoinGame(s.ctx, game.Name, testutil.SlackRef("U6", "p6"))
	s.Require().NoError(err)
	s.Len(updated.Frames, 6)
	s.Contains(s.frameOwners(updated), s.playerID("U6"))
}

// Leave tests

func (s *ControllerSuite) TestLeavePendingTurnNotifiesNobody() {
	game := s.start(5)
	s.bot.Reset()

	updated, err := s.controller.LeaveGame(s.ctx, game.Name, testutil.SlackRef("U3", "p3"))
	s.Require().NoError(err)

	s.Len(updated.Frames, 4)
	s.NotContains(s.frameOwners(updated), s.playerID("U3"))
	s.Equal(game.Frames[0], updated.Frames[0])
	s.Equal([]string{"OK p3, you have left game blorptastic"}, s.bot.ChannelMessages())
	s.Zero(s.bot.DirectMessageCount())
}

func (s *ControllerSuite) TestLeaveCurrentTurnNotifiesNewHolderOnce() {
	game := s.start(5)
	s.play(game.Name, 1)
	before := s.game(game.Name).Frames[:1]
	s.bot.Reset()

	updated, err := s.controller.LeaveGame(s.ctx, game.Name, testutil.SlackRef("U2", "p2"))
	s.Require().NoError(err)

	s.Equal(before, updated.Frames[:1])
	s.Equal(1, s.bot.DirectMessageCount())
	s.Len(s.bot.DirectMessages(updated.Frames[1].PlayerID), 1)
	s.Equal([]string{
		"OK p2, you have left game blorptastic",
		"It is now p3's turn for game blorptastic.",
	}, s.bot.ChannelMessages())
}

func (s *ControllerSuite) TestLeavingLastPendingTurnFinishesGame() {
	game := s.start(5)
	s.play(game.Name, 4)
	s.bot.Reset()

	updated, err := s.controller.LeaveGame(s.ctx, game.Name, testutil.SlackRef("U5", "p5"))
	s.Require().NoError(err)

	s.True(updated.IsComplete)
	s.Len(updated.Frames, 4)
	s.Zero(s.bot.DirectMessageCount())
	s.Equal([]string{
		"OK p5, you have left game blorptastic",
		"Game blorptastic is done! http://draw.test/game/blorptastic",
	}, s.bot.ChannelMessages())
	s.NotNil(s.game(game.Name).TitleImage)
}

func (s *ControllerSuite) TestLeaveErrors() {
	_, err := s.controller.LeaveGame(s.ctx, "nope", testutil.SlackRef("U1", "p1"))
	s.requireLogicError(err, model.ErrGameNotFound)

	game := s.start(4)

	_, err = s.controller.LeaveGame(s.ctx, game.Name, testutil.SlackRef("U9", "stranger"))
	s.requireLogicError(err, model.ErrNotInGame)

	s.play(game.Name, 1)
	_, err = s.controller.LeaveGame(s.ctx, game.Name, testutil.SlackRef("U1", "p1"))
	s.requireLogicError(err, model.ErrTurnAlreadyPlayed)

	s.play(game.Name, 3)
	_, err = s.controller.LeaveGame(s.ctx, game.Name, testutil.SlackRef("U2", "p2"))
	s.requireLogicError(err, model.ErrGameAlreadyComplete)
}

func (s *ControllerSuite) TestLeaveResequencesRemainingTurns() {
	_, err := s.controller.SetRolePreference(s.ctx, testutil.SlackRef("U4", "p4"), "author")
	s.Require().NoError(err)
	s.random.QueueIntn(1)
	game := s.start(5)
	s.Equal(s.playerID("U4"), game.Frames[2].PlayerID)

	// p2 leaving shifts p4 to an odd slot, so it swaps back to an even one
	updated, err := s.controller.LeaveGame(s.ctx, game.Name, testutil.SlackRef("U2", "p2"))
	s.Require().NoError(err)

	idx := updated.PlayerFrameIndex(s.playerID("U4"))
	s.Equal(0, idx%2)
	s.Equal(game.Frames[0], updated.Frames[0])
}

func (s *ControllerSuite) TestDropTurnUsesLeavePath() {
	game := s.start(4)
	s.bot.Reset()

	updated, err := s.controller.DropTurn(s.ctx, game.Name, game.Frames[0].ID)
	s.Require().NoError(err)

	s.Len(updated.Frames, 3)
	s.Equal(game.Frames[1].PlayerID, updated.Frames[0].PlayerID)
	s.Equal(1, s.bot.DirectMessageCount())
	s.Len(s.bot.DirectMessages(game.Frames[1].PlayerID), 1)
}

// Preference and status tests

func (s *ControllerSuite) TestSetAvailable() {
	msg, err := s.controller.SetAvailable(s.ctx, s.channel, testutil.SlackRef("U1", "p1"), true)
	s.Require().NoError(err)
	s.Equal("OK p1, you're now available for new games in #general", msg.String())

	ids, err := s.storage.GetInterestedPlayers(s.ctx, s.channel)
	s.Require().NoError(err)
	s.Equal([]model.PlayerID{s.playerID("U1")}, ids)

	msg, err = s.controller.SetAvailable(s.ctx, s.channel, testutil.SlackRef("U1", "p1"), false)
	s.Require().NoError(err)
	s.Equal("OK p1, you're no longer available for new games in #general", msg.String())

	ids, err = s.storage.GetInterestedPlayers(s.ctx, s.channel)
	s.Require().NoError(err)
	s.Empty(ids)
}

func (s *ControllerSuite) TestSetRolePreference() {
	msg, err := s.controller.SetRolePreference(s.ctx, testutil.SlackRef("U1", "p1"), "Artist")
	s.Require().NoError(err)
	s.Equal("OK p1, you'll draw pictures where possible.", msg.String())

	p, err := s.storage.GetPlayer(s.ctx, s.playerID("U1"))
	s.Require().NoError(err)
	s.Equal(model.RoleArtist, p.PreferredRole)

	_, err = s.controller.SetRolePreference(s.ctx, testutil.SlackRef("U1", "p1"), "painter")
	s.requireLogicError(err, model.ErrInvalidRole)
}

func (s *ControllerSuite) TestSetPreferredPlayerRejectsCycle() {
	a := testutil.SlackRef("U1", "p1")
	b := testutil.SlackRef("U2", "p2")

	msg, err := s.controller.SetPreferredPlayer(s.ctx, a, &b)
	s.Require().NoError(err)
	s.Equal("OK p1, your turns will now go to p2", msg.String())

	_, err = s.controller.SetPreferredPlayer(s.ctx, b, &a)
	s.requireLogicError(err, model.ErrRedirectCycle)

	msg, err = s.controller.SetPreferredPlayer(s.ctx, a, nil)
	s.Require().NoError(err)
	s.Equal("OK p1, your turns will come to you directly again.", msg.String())
}

func (s *ControllerSuite) TestReportStatus() {
	game := s.start(4)
	s.play(game.Name, 1)
	_, err := s.controller.SetAvailable(s.ctx, s.channel, testutil.SlackRef("U1", "p1"), true)
	s.Require().NoError(err)
	s.clock.Advance(49 * time.Hour)

	msg, err := s.controller.ReportStatus(s.ctx, s.channel)
	s.Require().NoError(err)
	s.Equal(
		"Game blorptastic (started 2 days ago): waiting on p2. 1 turns completed, 3 remaining.\n"+
			"Available players: p1",
		msg.String(),
	)
}

func (s *ControllerSuite) TestReportStatusEmptyChannel() {
	msg, err := s.controller.ReportStatus(s.ctx, s.channel)
	s.Require().NoError(err)
	s.Equal("There are no games in progress here.\nNobody has marked themselves available here.", msg.String())
}

func (s *ControllerSuite) TestReportStatusIncludesLinkedChannels() {
	mirror := model.Channel{ID: "D1", Platform: model.PlatformDiscord, Name: "drawing"}
	s.Require().NoError(s.storage.SaveChannelLink(s.ctx, model.ChannelLink{A: s.channel, B: mirror}))
	s.start(4)

	msg, err := s.controller.ReportStatus(s.ctx, mirror)
	s.Require().NoError(err)
	s.Contains(msg.String(), "Game blorptastic")
}

// Query tests

func (s *ControllerSuite) TestListGames() {
	first := s.start(4)
	s.clock.Advance(time.Hour)
	second := s.start(4)
	s.play(first.Name, 4)

	recent, err := s.controller.ListGames(s.ctx, ListOptions{Limit: 1})
	s.Require().NoError(err)
	s.Require().Len(recent, 1)
	s.Equal(second.Name, recent[0].Name)

	shuffles := s.random.Shuffles
	completed := true
	done, err := s.controller.ListGames(s.ctx, ListOptions{Completed: &completed, Sample: true, Limit: 5})
	s.Require().NoError(err)
	s.Require().Len(done, 1)
	s.Equal(first.Name, done[0].Name)
	s.Equal(shuffles+1, s.random.Shuffles)
}

func (s *ControllerSuite) TestGetPlayers() {
	game := s.start(4)

	players, err := s.controller.GetPlayers(s.ctx, append(s.frameOwners(game), "ghost"))
	s.Require().NoError(err)
	s.Len(players, 4)
	s.Equal("p1", players[game.Frames[0].PlayerID].Name)
}
