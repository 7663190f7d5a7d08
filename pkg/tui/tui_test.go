package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/james-see/dx7syx/pkg/converter"
	"github.com/james-see/dx7syx/pkg/converter/devices"
	"github.com/james-see/dx7syx/pkg/transform"
	"github.com/james-see/dx7syx/pkg/voice"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestMenuNavigation(t *testing.T) {
	m := New(Options{})
	next, _ := m.Update(key("k"))
	if next.(Model).menuIndex != 0 {
		t.Error("menu moved above the first item")
	}

	for i := 0; i < len(menuItems)+2; i++ {
		next, _ = next.Update(key("j"))
	}
	if got := next.(Model).menuIndex; got != len(menuItems)-1 {
		t.Errorf("menuIndex = %d, want %d", got, len(menuItems)-1)
	}

	next, _ = next.Update(key("k"))
	next, _ = next.Update(key("enter"))
	got := next.(Model)
	if got.state != StateFilePicker {
		t.Fatalf("state = %d, want file picker", got.state)
	}
	if !got.conversion.Staccato {
		t.Errorf("selected %q, want Staccato", got.conversion.Title)
	}

	next, _ = next.Update(key("esc"))
	if next.(Model).state != StateMenu {
		t.Error("esc did not return to the menu")
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input string
		item  MenuItem
		want  string
	}{
		{"/banks/rom1a.syx", menuItems[0], "/banks/rom1a.xml"},
		{"/banks/rom1a.xml", menuItems[1], "/banks/rom1a.syx"},
		{"/banks/rom1a.syx", menuItems[2], "/banks/rom1a.xml.gz"},
		{"/banks/rom1a.syx", menuItems[3], "/banks/rom1a.mid"},
		{"/banks/rom1a.syx", menuItems[5], "/banks/rom1a-staccato.syx"},
	}
	for _, tt := range tests {
		t.Run(tt.item.Title, func(t *testing.T) {
			if got := outputPath(tt.input, tt.item); got != tt.want {
				t.Errorf("outputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConvertStaccato(t *testing.T) {
	v := voice.DefaultVoice()
	op := v.Operator(1)
	op.Envelope[0].Rate = 10
	v = v.WithOperator(op)
	nv, err := voice.NewNamedVoice("PLUCK     ", v)
	if err != nil {
		t.Fatal(err)
	}
	data, err := devices.NewDX7().GenerateSyx([]voice.NamedVoice{nv})
	if err != nil {
		t.Fatal(err)
	}
	input := filepath.Join(t.TempDir(), "bank.syx")
	if err := os.WriteFile(input, data, 0644); err != nil {
		t.Fatal(err)
	}

	opts := Options{Staccato: transform.StaccatoParameters{Affect: transform.AffectAll, ModifyAttack: true}}
	msg := convert(input, menuItems[5], opts)
	if msg.err != nil {
		t.Fatalf("convert() error = %v", msg.err)
	}
	if len(msg.voices) != 1 || msg.voices[0] != "PLUCK     " {
		t.Errorf("voices = %q", msg.voices)
	}

	voices, err := converter.New(devices.NewDX7()).ReadFile(msg.outputFile)
	if err != nil {
		t.Fatal(err)
	}
	if got := voices[0].Voice.Operator(1).Envelope[0].Rate; got != 99 {
		t.Errorf("attack rate = %d, want 99", got)
	}

	m := New(opts)
	m.state = StateConverting
	next, _ := m.Update(msg)
	view := next.(Model).View()
	if !strings.Contains(view, "1 voices written") {
		t.Errorf("result view missing summary:\n%s", view)
	}
}

func TestConvertMissingFile(t *testing.T) {
	msg := convert(filepath.Join(t.TempDir(), "missing.syx"), menuItems[0], Options{})
	if msg.err == nil {
		t.Error("convert() of a missing file should fail")
	}
}
