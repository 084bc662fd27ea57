package factory

import (
	"time"

	"github.com/mcoot/drawphone/internal/dependencies/mocks"
	"github.com/mcoot/drawphone/internal/model"
	"github.com/mcoot/drawphone/internal/services/game"
	"github.com/mcoot/drawphone/internal/services/notify"
	"github.com/mcoot/drawphone/internal/services/objectstore"
	"github.com/mcoot/drawphone/internal/services/tasks"
	"github.com/mcoot/drawphone/internal/storage/memory"
	"github.com/mcoot/drawphone/internal/testutil"
)

// TestBaseURL prefixes play links in test apps
const TestBaseURL = "http://draw.test"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock   *mocks.MockClock
	MockRandom  *mocks.MockRandom
	MockFetcher *mocks.MockFetcher

	// Recorders for inspecting side effects
	Slack   *notify.RecordingBot
	Discord *notify.RecordingBot
	Memory  *objectstore.Memory
	Names   *testutil.NameSequence
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// Background tasks run inline and messages are recorded instead of sent.
func NewTestApp(names ...model.GameName) *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockFetcher := mocks.NewMockFetcher()
	slack := notify.NewRecordingBot(model.PlatformSlack)
	discord := notify.NewRecordingBot(model.PlatformDiscord)
	objects := objectstore.NewMemory("http://files.test")
	namer := testutil.NewNameSequence(names...)
	logger := testutil.NopLogger()

	app := newWithDependencies(dependencies{
		storage: memory.New(),
		objects: objects,
		clock:   mockClock,
		random:  mockRandom,
		queue:   tasks.NewSync(logger),
		fetcher: mockFetcher,
		namer:   namer,
		bots:    []notify.Bot{slack, discord},
	}, Config{Game: game.Config{BaseURL: TestBaseURL}}, logger)

	return &TestApp{
		App:         app,
		MockClock:   mockClock,
		MockRandom:  mockRandom,
		MockFetcher: mockFetcher,
		Slack:       slack,
		Discord:     discord,
		Memory:      objects,
		Names:       namer,
	}
}
