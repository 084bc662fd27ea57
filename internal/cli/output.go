package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/mcoot/drawphone/internal/api/response"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	if w == nil {
		w = os.Stdout
	}
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.GameList:
		o.printGameList(v)
	case response.Game:
		o.printGame(v)
	case response.TurnInput:
		o.printTurnInput(v)
	case response.TurnPlayed:
		o.printTurnPlayed(v)
	case response.ChatReply:
		o.printChatReply(v)
	case HealthResult:
		fmt.Fprintf(o.w, "Status: %s\n", v.Status)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printGameList(l response.GameList) {
	if len(l.Games) == 0 {
		fmt.Fprintln(o.w, "No games found")
		return
	}

	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTATE\tTURNS\tSTARTED")
	for _, g := range l.Games {
		state := "running"
		if g.IsComplete {
			state = "complete"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%s\n", g.Name, state, g.Completed, g.FrameCount, humanize.Time(g.CreatedAt))
	}
	_ = tw.Flush()
}

func (o *Output) printGame(g response.Game) {
	fmt.Fprintf(o.w, "Game: %s\n", g.Name)
	if g.TitleImage != nil {
		fmt.Fprintf(o.w, "Title: %s\n", g.TitleImage.URL)
	}
	for i, f := range g.Frames {
		by := "?"
		if f.Player != nil {
			by = f.Player.Name
		}
		fmt.Fprintf(o.w, "%d. %s: %s\n", i+1, by, frameContent(f))
	}
}

func (o *Output) printTurnInput(in response.TurnInput) {
	fmt.Fprintf(o.w, "Game: %s\n", in.Game)
	fmt.Fprintf(o.w, "Turn: %s\n", in.FrameID)
	if in.Previous == nil {
		fmt.Fprintf(o.w, "Play: %s (you go first)\n", in.Expected)
		return
	}
	fmt.Fprintf(o.w, "Play: %s\n", in.Expected)
	fmt.Fprintf(o.w, "Respond to: %s\n", frameContent(*in.Previous))
}

func (o *Output) printTurnPlayed(p response.TurnPlayed) {
	fmt.Fprintf(o.w, "Played turn %s on %s\n", p.FrameID, p.Game)
	if p.GameComplete {
		fmt.Fprintln(o.w, "The game is complete!")
	}
}

func (o *Output) printChatReply(r response.ChatReply) {
	if r.Reply == "" {
		fmt.Fprintln(o.w, "(no reply)")
		return
	}
	fmt.Fprintln(o.w, r.Reply)
}

func frameContent(f response.Frame) string {
	switch {
	case f.Image != nil:
		return fmt.Sprintf("[image %dx%d] %s", f.Image.Width, f.Image.Height, f.Image.URL)
	case f.Caption != "":
		return fmt.Sprintf("%q", f.Caption)
	default:
		return "(not played)"
	}
}
