package title

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/drawphone/internal/dependencies/clock"
	"github.com/mcoot/drawphone/internal/dependencies/random"
	"github.com/mcoot/drawphone/internal/model"
	"github.com/mcoot/drawphone/internal/services/imaging"
	"github.com/mcoot/drawphone/internal/services/objectstore"
	"github.com/mcoot/drawphone/internal/storage"
)

// ErrNoImageFrames is returned when a game has no drawn frame to use
var ErrNoImageFrames = errors.New("game has no image frames")

// ImageProcessor renders a title image from a source frame
type ImageProcessor interface {
	MakeTitleImage(r io.Reader) (*imaging.TitleImage, error)
}

// Composer picks a frame from a finished game and stores it as the game's title image
type Composer struct {
	storage   storage.Storage
	store     objectstore.Store
	processor ImageProcessor
	clock     clock.Clock
	random    random.Random
	logger    *slog.Logger
}

// New creates a new Composer
func New(
	storage storage.Storage,
	store objectstore.Store,
	processor ImageProcessor,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Composer {
	return &Composer{
		storage:   storage,
		store:     store,
		processor: processor,
		clock:     clock,
		random:    random,
		logger:    logger.With(slog.String("component", "title")),
	}
}

// Key returns the object key for a game's title image
func Key(name model.GameName) string {
	return fmt.Sprintf("%s/title-image.png", name)
}

// Compose builds and attaches a title image for the named game
func (c *Composer) Compose(ctx context.Context, name model.GameName) (*model.Game, error) {
	game, err := c.storage.GetGame(ctx, name)
	if err != nil {
		return nil, err
	}

	var candidates []*model.FrameImage
	for i := range game.Frames {
		if img := game.Frames[i].Image; img != nil {
			candidates = append(candidates, img)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoImageFrames
	}
	source := candidates[c.random.Intn(len(candidates))]

	rc, err := c.store.Open(ctx, source.FileName)
	if err != nil {
		return nil, fmt.Errorf("opening frame %s: %w", source.FileName, err)
	}
	defer rc.Close()

	rendered, err := c.processor.MakeTitleImage(rc)
	if err != nil {
		return nil, err
	}

	obj, err := c.store.Upload(ctx, Key(name), bytes.NewReader(rendered.Data), "image/png")
	if err != nil {
		return nil, err
	}

	updated, err := c.storage.UpdateGame(ctx, name, func(g *model.Game) error {
		g.TitleImage = &model.FrameImage{
			URL:      obj.FileURL,
			FileName: obj.FileName,
			Width:    rendered.Width,
			Height:   rendered.Height,
		}
		g.UpdatedAt = c.clock.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("title image composed",
		slog.String("game", string(name)),
		slog.String("source", source.FileName),
	)
	return updated, nil
}
