package diag

import (
	"fmt"
)

// Tracker stamps events with a source name, forwards them to a Listener
// and counts errors so callers can tell whether a unit decoded cleanly.
//
//	mark := t.Errors()
//	... decode fields ...
//	ok := t.Errors() == mark
type Tracker struct {
	source   string
	listener Listener
	errors   int
	warnings int
}

// NewTracker creates a tracker. A nil listener discards events.
func NewTracker(source string, l Listener) *Tracker {
	if l == nil {
		l = Discard
	}
	return &Tracker{source: source, listener: l}
}

// Source returns the source name stamped on events
func (t *Tracker) Source() string {
	return t.source
}

// Errors returns the number of errors reported so far
func (t *Tracker) Errors() int {
	return t.errors
}

// Warnings returns the number of warnings reported so far
func (t *Tracker) Warnings() int {
	return t.warnings
}

// Errorf reports an error at a byte offset
func (t *Tracker) Errorf(offset int64, cause error, format string, args ...interface{}) {
	t.emit(Event{Offset: offset, Severity: SeverityError, Message: fmt.Sprintf(format, args...), Cause: cause})
}

// Warnf reports a warning at a byte offset
func (t *Tracker) Warnf(offset int64, cause error, format string, args ...interface{}) {
	t.emit(Event{Offset: offset, Severity: SeverityWarning, Message: fmt.Sprintf(format, args...), Cause: cause})
}

// ErrorAt reports an error at a text position
func (t *Tracker) ErrorAt(line, column int, cause error, format string, args ...interface{}) {
	t.emit(Event{Line: line, Column: column, Severity: SeverityError, Message: fmt.Sprintf(format, args...), Cause: cause})
}

// WarnAt reports a warning at a text position
func (t *Tracker) WarnAt(line, column int, cause error, format string, args ...interface{}) {
	t.emit(Event{Line: line, Column: column, Severity: SeverityWarning, Message: fmt.Sprintf(format, args...), Cause: cause})
}

func (t *Tracker) emit(e Event) {
	e.Source = t.source
	switch e.Severity {
	case SeverityError:
		t.errors++
	case SeverityWarning:
		t.warnings++
	}
	t.listener.Receive(e)
}
