// Package diag collects positional warnings and errors raised while decoding voice data
package diag

import (
	"fmt"
	"strings"
)

// Severity of a diagnostic event
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Severity) UnmarshalText(b []byte) error {
	switch string(b) {
	case "warning":
		*s = SeverityWarning
	case "error":
		*s = SeverityError
	default:
		return fmt.Errorf("unknown severity %q", b)
	}
	return nil
}

// Event is a single diagnostic. Binary decoders set Offset; text decoders set Line and Column.
type Event struct {
	Source   string   `json:"source"`
	Offset   int64    `json:"offset"`
	Line     int      `json:"line,omitempty"`
	Column   int      `json:"column,omitempty"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Cause    error    `json:"-"`
}

func (e Event) String() string {
	var b strings.Builder
	b.WriteString(e.Source)
	if e.Line > 0 {
		fmt.Fprintf(&b, ":%d:%d", e.Line, e.Column)
	} else {
		fmt.Fprintf(&b, "[0x%x]", e.Offset)
	}
	fmt.Fprintf(&b, ": %s: %s", e.Severity, e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, " (%v)", e.Cause)
	}
	return b.String()
}

// Listener receives diagnostic events
type Listener interface {
	Receive(e Event)
}

// ListenerFunc adapts a function to Listener
type ListenerFunc func(e Event)

// Receive calls f(e)
func (f ListenerFunc) Receive(e Event) {
	f(e)
}

// Discard drops every event
var Discard Listener = ListenerFunc(func(Event) {})

// Multi fans events out to several listeners
func Multi(listeners ...Listener) Listener {
	return ListenerFunc(func(e Event) {
		for _, l := range listeners {
			l.Receive(e)
		}
	})
}

// Log is a Listener that keeps every event. It is not safe for concurrent use.
type Log struct {
	events []Event
}

// Receive appends e
func (l *Log) Receive(e Event) {
	l.events = append(l.events, e)
}

// Events returns all events in arrival order
func (l *Log) Events() []Event {
	return l.events
}

// Errors returns the error events
func (l *Log) Errors() []Event {
	return l.filter(SeverityError)
}

// Warnings returns the warning events
func (l *Log) Warnings() []Event {
	return l.filter(SeverityWarning)
}

// HasErrors reports whether any error was received
func (l *Log) HasErrors() bool {
	return len(l.Errors()) > 0
}

func (l *Log) filter(s Severity) []Event {
	var out []Event
	for _, e := range l.events {
		if e.Severity == s {
			out = append(out, e)
		}
	}
	return out
}
