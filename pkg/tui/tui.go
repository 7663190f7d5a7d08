// Package tui provides a terminal user interface for dx7syx
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/james-see/dx7syx/pkg/converter"
	"github.com/james-see/dx7syx/pkg/converter/devices"
	"github.com/james-see/dx7syx/pkg/diag"
	"github.com/james-see/dx7syx/pkg/transform"
)

// Front panel color scheme (maroon case, teal membrane keys, LCD green)
var (
	lcdGreen   = lipgloss.Color("#9ACD32")
	keyTeal    = lipgloss.Color("#2FA4A9")
	panelGray  = lipgloss.Color("#C0C0C0")
	caseMaroon = lipgloss.Color("#4A1C24")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lcdGreen).
			Background(caseMaroon).
			Padding(0, 2).
			MarginBottom(1)

	menuStyle = lipgloss.NewStyle().
			Foreground(panelGray).
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lcdGreen).
			Bold(true).
			PaddingLeft(2)

	statusStyle = lipgloss.NewStyle().
			Foreground(keyTeal).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500"))

	successStyle = lipgloss.NewStyle().
			Foreground(lcdGreen).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(keyTeal).
			Padding(1, 2)
)

// maxListed caps the voice names and diagnostics shown on the result screen
const maxListed = 8

// State represents the current TUI state
type State int

const (
	StateMenu State = iota
	StateFilePicker
	StateConverting
	StateResult
)

// MenuItem represents a menu option
type MenuItem struct {
	Title       string
	Description string
	FromFormat  converter.Format
	ToFormat    converter.Format
	Staccato    bool
}

var menuItems = []MenuItem{
	{Title: "SYX → XML", Description: "Convert a 32-voice SysEx bank to an XML voice document", FromFormat: converter.FormatSysex32, ToFormat: converter.FormatXML},
	{Title: "XML → SYX", Description: "Convert an XML voice document to a SysEx bank", FromFormat: converter.FormatXML, ToFormat: converter.FormatSysex32},
	{Title: "SYX → XML.GZ", Description: "Convert a SysEx bank to a compressed XML document", FromFormat: converter.FormatSysex32, ToFormat: converter.FormatXMLGz},
	{Title: "SYX → MIDI", Description: "Wrap a SysEx bank in a Standard MIDI File", FromFormat: converter.FormatSysex32, ToFormat: converter.FormatMIDI},
	{Title: "MIDI → SYX", Description: "Extract a SysEx bank from a Standard MIDI File", FromFormat: converter.FormatMIDI, ToFormat: converter.FormatSysex32},
	{Title: "Staccato", Description: "Set attack and release rates of the carriers to 99", FromFormat: converter.FormatSysex32, ToFormat: converter.FormatSysex32, Staccato: true},
	{Title: "Exit", Description: "Exit the application"},
}

// Options configures decoding and the staccato transform
type Options struct {
	Limit           int
	LenientChecksum bool
	Staccato        transform.StaccatoParameters
	Logger          *log.Logger
}

// Model represents the TUI model
type Model struct {
	opts         Options
	state        State
	menuIndex    int
	filePicker   filepicker.Model
	spinner      spinner.Model
	selectedFile string
	conversion   MenuItem
	result       conversionDoneMsg
	width        int
	height       int
}

// conversionDoneMsg signals conversion completion
type conversionDoneMsg struct {
	outputFile string
	voices     []string
	events     []diag.Event
	err        error
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick)
}

// New creates a new TUI model
func New(opts Options) Model {
	// Initialize file picker
	fp := filepicker.New()
	fp.AllowedTypes = allowedTypes(converter.FormatSysex32)
	fp.CurrentDirectory, _ = os.Getwd()

	// Initialize spinner
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lcdGreen)

	return Model{
		opts:       opts,
		state:      StateMenu,
		menuIndex:  0,
		filePicker: fp,
		spinner:    s,
	}
}

func allowedTypes(f converter.Format) []string {
	switch f {
	case converter.FormatMIDI:
		return []string{".mid", ".midi"}
	case converter.FormatXML:
		return []string{".xml"}
	case converter.FormatXMLGz:
		return []string{".gz"}
	default:
		return []string{".syx", ".sysx", ".dx7"}
	}
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle file picker state first - it needs to receive all messages
	if m.state == StateFilePicker {
		// Check for escape/quit keys first
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc":
				m.state = StateMenu
				return m, nil
			case "q", "ctrl+c":
				return m, tea.Quit
			}
		}

		// Pass all other messages to the file picker
		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)

		// Check if file was selected
		if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
			m.selectedFile = path
			m.state = StateConverting
			return m, tea.Batch(m.spinner.Tick, m.performConversion())
		}

		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filePicker.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case StateMenu:
			return m.updateMenu(msg)
		case StateResult:
			return m.updateResult(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case conversionDoneMsg:
		m.state = StateResult
		m.result = msg
		return m, nil
	}

	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.menuIndex > 0 {
			m.menuIndex--
		}
	case "down", "j":
		if m.menuIndex < len(menuItems)-1 {
			m.menuIndex++
		}
	case "enter":
		if m.menuIndex == len(menuItems)-1 {
			return m, tea.Quit
		}
		m.conversion = menuItems[m.menuIndex]
		m.state = StateFilePicker
		m.filePicker.AllowedTypes = allowedTypes(m.conversion.FromFormat)
		return m, m.filePicker.Init()
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.state = StateMenu
		m.result = conversionDoneMsg{}
		m.selectedFile = ""
		return m, nil
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

// outputPath names the converted file next to the input. Staccato output
// gets a suffix so the input is never overwritten.
func outputPath(input string, item MenuItem) string {
	base := converter.TrimExtension(input)
	if item.Staccato {
		base += "-staccato"
	}
	return base + item.ToFormat.Extension()
}

func (m Model) performConversion() tea.Cmd {
	item, input, opts := m.conversion, m.selectedFile, m.opts
	return func() tea.Msg {
		return convert(input, item, opts)
	}
}

func convert(input string, item MenuItem, opts Options) conversionDoneMsg {
	var events diag.Log
	conv := converter.New(&devices.DX7{
		Limit:           opts.Limit,
		LenientChecksum: opts.LenientChecksum,
		Logger:          opts.Logger,
	})
	conv.SetListener(&events)

	voices, err := conv.ReadFile(input)
	if err != nil {
		return conversionDoneMsg{err: err, events: events.Events()}
	}
	if item.Staccato {
		voices = transform.Apply(voices, transform.Staccato(opts.Staccato))
	}

	outputFile := outputPath(input, item)
	if err := conv.WriteFileAs(outputFile, voices, item.ToFormat); err != nil {
		return conversionDoneMsg{err: err, events: events.Events()}
	}

	names := make([]string, len(voices))
	for i, nv := range voices {
		names[i] = nv.Name
	}
	return conversionDoneMsg{outputFile: outputFile, voices: names, events: events.Events()}
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	// Header
	header := asciiLogo()
	s.WriteString(header)
	s.WriteString("\n")

	switch m.state {
	case StateMenu:
		s.WriteString(m.viewMenu())
	case StateFilePicker:
		s.WriteString(m.viewFilePicker())
	case StateConverting:
		s.WriteString(m.viewConverting())
	case StateResult:
		s.WriteString(m.viewResult())
	}

	// Footer help
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/↓: navigate • enter: select • q: quit"))

	return s.String()
}

func (m Model) viewMenu() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" SELECT OPERATION "))
	s.WriteString("\n\n")

	for i, item := range menuItems {
		if i == m.menuIndex {
			s.WriteString(selectedStyle.Render(fmt.Sprintf("▸ %s", item.Title)))
			s.WriteString("\n")
			s.WriteString(lipgloss.NewStyle().Foreground(keyTeal).PaddingLeft(4).Render(item.Description))
		} else {
			s.WriteString(menuStyle.Render(fmt.Sprintf("  %s", item.Title)))
		}
		s.WriteString("\n")
	}

	return boxStyle.Render(s.String())
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf(" SELECT %s FILE ", strings.ToUpper(string(m.conversion.FromFormat)))))
	s.WriteString("\n\n")
	s.WriteString(m.filePicker.View())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("esc: back to menu"))

	return s.String()
}

func (m Model) viewConverting() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" CONVERTING "))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("%s Converting %s...\n", m.spinner.View(), filepath.Base(m.selectedFile)))
	s.WriteString(statusStyle.Render(fmt.Sprintf("  %s → %s", m.conversion.FromFormat, m.conversion.ToFormat)))

	return boxStyle.Render(s.String())
}

func (m Model) viewResult() string {
	var s strings.Builder
	r := m.result

	if r.err != nil {
		s.WriteString(titleStyle.Render(" ERROR "))
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ Conversion failed: %s", r.err.Error())))
	} else {
		s.WriteString(titleStyle.Render(" SUCCESS "))
		s.WriteString("\n\n")
		s.WriteString(successStyle.Render(fmt.Sprintf("✓ %d voices written", len(r.voices))))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("Input:  %s\n", filepath.Base(m.selectedFile)))
		s.WriteString(fmt.Sprintf("Output: %s\n", filepath.Base(r.outputFile)))
		for i, name := range r.voices {
			if i == maxListed {
				s.WriteString(menuStyle.Render(fmt.Sprintf("… and %d more", len(r.voices)-maxListed)))
				s.WriteString("\n")
				break
			}
			s.WriteString(menuStyle.Render(fmt.Sprintf("%2d %s", i+1, name)))
			s.WriteString("\n")
		}
	}

	for i, e := range r.events {
		if i == maxListed {
			s.WriteString(fmt.Sprintf("\n… %d more diagnostics", len(r.events)-maxListed))
			break
		}
		s.WriteString("\n")
		if e.Severity == diag.SeverityError {
			s.WriteString(errorStyle.Render(e.String()))
		} else {
			s.WriteString(warningStyle.Render(e.String()))
		}
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Press enter to continue"))

	return boxStyle.Render(s.String())
}

func asciiLogo() string {
	logo := `
   ____  __  __ _____ ______   ____  __
  |  _ \ \ \/ /|___  / ___\ \ / /\ \/ /
  | | | | \  /    / /\___ \\ V /  \  /
  | |_| | /  \   / /  ___) || |   /  \
  |____/ /_/\_\ /_/  |____/ |_|  /_/\_\
`
	return lipgloss.NewStyle().Foreground(lcdGreen).Render(logo)
}

// Run starts the TUI application
func Run(opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
