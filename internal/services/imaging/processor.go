package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"

	"github.com/nfnt/resize"
)

var (
	// ErrEmptyImage is returned for images with no pixels
	ErrEmptyImage = errors.New("image has no pixels")
	// ErrTooManyPixels is returned when the header declares more than MaxPixels
	ErrTooManyPixels = errors.New("image has too many pixels")
)

// Dimensions is the pixel size and encoding of an image
type Dimensions struct {
	Width  int
	Height int
	// Format is the decoder name, e.g. "png", "jpeg" or "gif"
	Format string
}

// ContentType returns the MIME type for the decoded format
func (d Dimensions) ContentType() string {
	switch d.Format {
	case "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	default:
		return "image/png"
	}
}

// Ext returns the file extension for the decoded format, without a dot
func (d Dimensions) Ext() string {
	switch d.Format {
	case "jpeg":
		return "jpg"
	case "gif":
		return "gif"
	default:
		return "png"
	}
}

// TitleImage is an encoded PNG ready for upload
type TitleImage struct {
	Data   []byte
	Width  int
	Height int
}

// Config holds the title image target size and the decode limit
type Config struct {
	TitleWidth  int
	TitleHeight int
	// MaxPixels caps width*height of anything decoded
	MaxPixels int
}

// DefaultConfig returns default imaging configuration
func DefaultConfig() Config {
	return Config{
		TitleWidth:  400,
		TitleHeight: 200,
		MaxPixels:   4096 * 4096,
	}
}

// Processor decodes uploaded frames and renders title images
type Processor struct {
	cfg Config
}

// New creates a new Processor
func New(cfg Config) *Processor {
	if cfg.TitleWidth <= 0 || cfg.TitleHeight <= 0 {
		cfg.TitleWidth, cfg.TitleHeight = DefaultConfig().TitleWidth, DefaultConfig().TitleHeight
	}
	if cfg.MaxPixels <= 0 {
		cfg.MaxPixels = DefaultConfig().MaxPixels
	}
	return &Processor{cfg: cfg}
}

// Decode reads the image header and returns its size and format. Nothing past
// the header is decoded.
func (p *Processor) Decode(r io.Reader) (Dimensions, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return Dimensions{}, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Dimensions{}, ErrEmptyImage
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(p.cfg.MaxPixels) {
		return Dimensions{}, fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}
	return Dimensions{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

// MakeTitleImage center-crops the image to the title aspect ratio, scales it to
// the title size and encodes it as PNG
func (p *Processor) MakeTitleImage(r io.Reader) (*TitleImage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading title source: %w", err)
	}
	// The header check runs before image.Decode allocates the pixel buffer
	if _, err := p.Decode(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("checking title source: %w", err)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding title source: %w", err)
	}
	if src.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	cropped := crop(src, CenterCrop(src.Bounds(), p.cfg.TitleWidth, p.cfg.TitleHeight))
	scaled := resize.Resize(uint(p.cfg.TitleWidth), uint(p.cfg.TitleHeight), cropped, resize.Lanczos3)

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("encoding title image: %w", err)
	}

	b := scaled.Bounds()
	return &TitleImage{Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

// CenterCrop returns the largest rectangle of the given aspect ratio centred in bounds
func CenterCrop(bounds image.Rectangle, aspectW, aspectH int) image.Rectangle {
	w, h := bounds.Dx(), bounds.Dy()

	cropW, cropH := w, w*aspectH/aspectW
	if cropH > h {
		cropW, cropH = h*aspectW/aspectH, h
	}
	cropW = max(cropW, 1)
	cropH = max(cropH, 1)

	x0 := bounds.Min.X + (w-cropW)/2
	y0 := bounds.Min.Y + (h-cropH)/2
	return image.Rect(x0, y0, x0+cropW, y0+cropH)
}

func crop(src image.Image, rect image.Rectangle) image.Image {
	if sub, ok := src.(interface {
		SubImage(image.Rectangle) image.Image
	}); ok {
		return sub.SubImage(rect)
	}
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), src, rect.Min, draw.Src)
	return dst
}
