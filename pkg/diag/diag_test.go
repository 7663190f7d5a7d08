package diag

import (
	"errors"
	"strings"
	"testing"
)

func TestTrackerCounts(t *testing.T) {
	var log Log
	tr := NewTracker("bank.syx", &log)

	mark := tr.Errors()
	tr.Warnf(4, nil, "odd size %d", 130)
	if tr.Errors() != mark {
		t.Error("a warning should not change the error count")
	}
	tr.Errorf(0x10, errors.New("boom"), "bad byte")
	tr.ErrorAt(3, 7, nil, "bad attribute")

	if tr.Errors() != 2 || tr.Warnings() != 1 {
		t.Errorf("counts = %d errors, %d warnings, want 2, 1", tr.Errors(), tr.Warnings())
	}
	if len(log.Events()) != 3 || len(log.Errors()) != 2 || len(log.Warnings()) != 1 {
		t.Fatalf("log = %+v", log.Events())
	}
	if !log.HasErrors() {
		t.Error("HasErrors() = false")
	}
	for _, e := range log.Events() {
		if e.Source != "bank.syx" {
			t.Errorf("Source = %q, want bank.syx", e.Source)
		}
	}
}

func TestEventString(t *testing.T) {
	tests := []struct {
		name     string
		event    Event
		expected string
	}{
		{
			"binary offset",
			Event{Source: "a.syx", Offset: 0x86, Severity: SeverityError, Message: "bad"},
			"a.syx[0x86]: error: bad",
		},
		{
			"text position with cause",
			Event{Source: "a.xml", Line: 2, Column: 5, Severity: SeverityWarning, Message: "odd", Cause: errors.New("why")},
			"a.xml:2:5: warning: odd (why)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.String(); got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestMultiAndNilListener(t *testing.T) {
	var a, b Log
	tr := NewTracker("x", Multi(&a, &b))
	tr.Errorf(0, nil, "e")
	if len(a.Events()) != 1 || len(b.Events()) != 1 {
		t.Error("Multi did not deliver to every listener")
	}

	quiet := NewTracker("x", nil)
	quiet.Errorf(0, nil, "dropped")
	if quiet.Errors() != 1 {
		t.Error("a nil listener should still count errors")
	}
	if !strings.Contains(SeverityError.String(), "error") {
		t.Error("unexpected severity name")
	}
}
