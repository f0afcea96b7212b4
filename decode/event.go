package decode

import (
	"strings"
	"time"
)

type Kind int

const (
	KindNone Kind = iota
	KindStart
	KindChar
	KindEnd
)

// Event is one decoder emission. String renders the line protocol consumed
// by UI collaborators: "[STREAM_START]", "[STREAM]<c>", and
// "[STREAM_END][ <text>][ (timeout)]".
type Event struct {
	Kind    Kind
	Char    rune
	Text    string
	Timeout bool
	Time    time.Time
}

func (e Event) String() string {
	switch e.Kind {
	case KindStart:
		return "[STREAM_START]"
	case KindChar:
		return "[STREAM]" + string(e.Char)
	case KindEnd:
		var b strings.Builder
		b.WriteString("[STREAM_END]")
		if e.Text != "" {
			b.WriteString(" ")
			b.WriteString(e.Text)
		}
		if e.Timeout {
			b.WriteString(" (timeout)")
		}
		return b.String()
	}
	return ""
}
