package model

import "strings"

// Style controls how a chunk of a message is rendered by a platform
type Style int

const (
	StylePlain Style = iota
	StyleBold
	StyleCode
)

// Chunk is a run of text with a single style
type Chunk struct {
	Text  string
	Style Style
}

// Text returns an unstyled chunk
func Text(s string) Chunk {
	return Chunk{Text: s, Style: StylePlain}
}

// Bold returns a bold chunk
func Bold(s string) Chunk {
	return Chunk{Text: s, Style: StyleBold}
}

// Code returns an inline-code chunk
func Code(s string) Chunk {
	return Chunk{Text: s, Style: StyleCode}
}

// Message is platform-agnostic rich content
type Message []Chunk

// NewMessage builds a message from chunks
func NewMessage(chunks ...Chunk) Message {
	return Message(chunks)
}

// Append returns a message with more chunks added
func (m Message) Append(chunks ...Chunk) Message {
	return append(m, chunks...)
}

// String renders the message without any styling
func (m Message) String() string {
	var b strings.Builder
	for _, c := range m {
		b.WriteString(c.Text)
	}
	return b.String()
}

// Render renders the message using per-style formatters
func (m Message) Render(bold, code func(string) string) string {
	var b strings.Builder
	for _, c := range m {
		switch c.Style {
		case StyleBold:
			b.WriteString(bold(c.Text))
		case StyleCode:
			b.WriteString(code(c.Text))
		default:
			b.WriteString(c.Text)
		}
	}
	return b.String()
}
