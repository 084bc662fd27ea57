package testutil

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"sync"

	"github.com/mcoot/drawphone/internal/model"
)

// NameSequence hands out game names in order, then numbered fallbacks
type NameSequence struct {
	mu    sync.Mutex
	names []model.GameName
	next  int
}

// NewNameSequence creates a NameSequence
func NewNameSequence(names ...model.GameName) *NameSequence {
	return &NameSequence{names: names}
}

// Name returns the next name
func (n *NameSequence) Name() model.GameName {
	n.mu.Lock()
	defer n.mu.Unlock()
	i := n.next
	n.next++
	if i < len(n.names) {
		return n.names[i]
	}
	return model.GameName("game" + string(rune('a'+i%26)) + string(rune('a'+i/26%26)))
}

// PNG returns an encoded solid-color PNG of the given size
func PNG(width, height int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// PNGHeader returns a PNG signature and IHDR chunk declaring width x height
// with no pixel data behind it
func PNGHeader(width, height uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], width)
	binary.BigEndian.PutUint32(ihdr[4:], height)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 6 // truecolor with alpha

	chunk := append([]byte("IHDR"), ihdr...)
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

// SlackRef builds a Slack player reference
func SlackRef(id, name string) model.PlayerRef {
	return model.PlayerRef{PlatformID: id, Platform: model.PlatformSlack, Name: name}
}

// SlackChannel builds a Slack channel
func SlackChannel(id, name string) model.Channel {
	return model.Channel{ID: id, Platform: model.PlatformSlack, Name: name}
}
