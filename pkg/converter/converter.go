package converter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/james-see/dx7syx/pkg/diag"
	"github.com/james-see/dx7syx/pkg/voice"
	"github.com/james-see/dx7syx/pkg/xmlvoice"
	"github.com/pkg/errors"
)

// Format represents a file format
type Format string

const (
	FormatSysex32 Format = "sysex-32"
	FormatXML     Format = "xml"
	FormatXMLGz   Format = "xml.gz"
	FormatMIDI    Format = "midi"
	FormatUnknown Format = "unknown"
)

// Formats lists the supported formats
func Formats() []Format {
	return []Format{FormatSysex32, FormatXML, FormatXMLGz, FormatMIDI}
}

// ParseFormat parses a format name
func ParseFormat(name string) (Format, error) {
	for _, f := range Formats() {
		if strings.EqualFold(name, string(f)) {
			return f, nil
		}
	}
	return FormatUnknown, errors.Errorf("unknown format %q (want one of sysex-32, xml, xml.gz, midi)", name)
}

// Extension returns the file extension written for f
func (f Format) Extension() string {
	switch f {
	case FormatSysex32:
		return ".syx"
	case FormatXML:
		return ".xml"
	case FormatXMLGz:
		return ".xml.gz"
	case FormatMIDI:
		return ".mid"
	default:
		return ""
	}
}

// DetectFormat detects the format of a file based on extension
func DetectFormat(filename string) Format {
	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, ".xml.gz") {
		return FormatXMLGz
	}
	switch filepath.Ext(lower) {
	case ".syx", ".sysx", ".dx7":
		return FormatSysex32
	case ".xml":
		return FormatXML
	case ".mid", ".midi":
		return FormatMIDI
	default:
		return FormatUnknown
	}
}

// DetectFormatFromContent detects format from file content
func DetectFormatFromContent(data []byte) Format {
	if len(data) < 4 {
		return FormatUnknown
	}

	// Check for MIDI file signature "MThd"
	if string(data[:4]) == "MThd" {
		return FormatMIDI
	}

	if data[0] == SysExStart {
		return FormatSysex32
	}

	// gzip magic
	if data[0] == 0x1F && data[1] == 0x8B {
		return FormatXMLGz
	}

	trimmed := bytes.TrimLeft(bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF")), " \t\r\n")
	if bytes.HasPrefix(trimmed, []byte("<")) {
		return FormatXML
	}

	return FormatUnknown
}

// Read decodes voices held in data
func (c *Converter) Read(data []byte, format Format, source string) ([]voice.NamedVoice, error) {
	return c.read(data, format, source, c.listener)
}

func (c *Converter) read(data []byte, format Format, source string, l diag.Listener) ([]voice.NamedVoice, error) {
	switch format {
	case FormatSysex32:
		if c.device == nil {
			return nil, errors.New("no device configured")
		}
		return c.device.ParseSyx(data, source, l)
	case FormatMIDI:
		if c.device == nil {
			return nil, errors.New("no device configured")
		}
		dump, err := c.midi.UnwrapSysEx(data)
		if err != nil {
			return nil, err
		}
		return c.device.ParseSyx(dump, source, l)
	case FormatXML:
		return xmlvoice.Decode(bytes.NewReader(data), source, l)
	case FormatXMLGz:
		return xmlvoice.DecodeGzip(bytes.NewReader(data), source, l)
	default:
		return nil, errors.Errorf("unsupported input format: %s", format)
	}
}

// Write encodes voices in format
func (c *Converter) Write(voices []voice.NamedVoice, format Format) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatSysex32, FormatMIDI:
		if c.device == nil {
			return nil, errors.New("no device configured")
		}
		dump, err := c.device.GenerateSyx(voices)
		if err != nil {
			return nil, err
		}
		if format == FormatSysex32 {
			return dump, nil
		}
		return c.midi.WrapSysEx(dump, c.device.Name())
	case FormatXML:
		if err := xmlvoice.Encode(&buf, voices); err != nil {
			return nil, err
		}
	case FormatXMLGz:
		if err := xmlvoice.EncodeGzip(&buf, voices); err != nil {
			return nil, err
		}
	default:
		return nil, errors.Errorf("unsupported output format: %s", format)
	}
	return buf.Bytes(), nil
}

// Convert decodes data in one format and re-encodes it in another. The
// result carries the diagnostics raised while decoding.
func (c *Converter) Convert(data []byte, from, to Format, source string) (*ConversionResult, error) {
	var events diag.Log
	voices, err := c.read(data, from, source, diag.Multi(c.listener, &events))
	if err != nil {
		return nil, errors.Wrap(err, "conversion failed")
	}
	out, err := c.Write(voices, to)
	if err != nil {
		return nil, errors.Wrap(err, "conversion failed")
	}
	return &ConversionResult{
		Data:        out,
		Filename:    OutputName(source, to),
		Format:      to,
		Voices:      len(voices),
		Diagnostics: events.Events(),
	}, nil
}

// ReadFile decodes a file, inferring its format from the name and then the
// content, and attaches provenance metadata to every voice
func (c *Converter) ReadFile(path string) ([]voice.NamedVoice, error) {
	return c.readFile(path, c.listener)
}

func (c *Converter) readFile(path string, l diag.Listener) ([]voice.NamedVoice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read input file")
	}
	format := DetectFormat(path)
	if format == FormatUnknown {
		format = DetectFormatFromContent(data)
	}
	if format == FormatUnknown {
		return nil, errors.Errorf("cannot determine format of %s", path)
	}
	voices, err := c.read(data, format, path, l)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return AttachMetadata(voices, FileURI(path)), nil
}

// WriteFile encodes voices into path, choosing the format from the extension
func (c *Converter) WriteFile(path string, voices []voice.NamedVoice) error {
	format := DetectFormat(path)
	if format == FormatUnknown {
		return errors.New("cannot determine output format from filename")
	}
	return c.WriteFileAs(path, voices, format)
}

// WriteFileAs encodes voices into path using format
func (c *Converter) WriteFileAs(path string, voices []voice.NamedVoice, format Format) error {
	data, err := c.Write(voices, format)
	if err != nil {
		return err
	}
	return errors.Wrap(os.WriteFile(path, data, 0644), "failed to write output file")
}

// ConvertFile converts inputPath into outputPath. FormatUnknown takes the
// output format from the extension of outputPath.
func (c *Converter) ConvertFile(inputPath, outputPath string, to Format) (*ConversionResult, error) {
	if to == FormatUnknown {
		to = DetectFormat(outputPath)
	}
	if to == FormatUnknown {
		return nil, errors.New("cannot determine output format from filename")
	}

	var events diag.Log
	voices, err := c.readFile(inputPath, diag.Multi(c.listener, &events))
	if err != nil {
		return nil, err
	}
	data, err := c.Write(voices, to)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return nil, errors.Wrap(err, "failed to write output file")
	}
	return &ConversionResult{
		Data:        data,
		Filename:    outputPath,
		Format:      to,
		Voices:      len(voices),
		Diagnostics: events.Events(),
	}, nil
}

// TrimExtension strips the format extension from path, treating .xml.gz as one
func TrimExtension(path string) string {
	if DetectFormat(path) == FormatXMLGz {
		return path[:len(path)-len(".xml.gz")]
	}
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// OutputName swaps the extension of input for the one of format
func OutputName(input string, format Format) string {
	base := TrimExtension(input)
	if base == "" {
		base = "converted"
	}
	return base + format.Extension()
}

// GetSupportedConversions returns the list of supported conversions
func GetSupportedConversions() []string {
	var out []string
	for _, from := range Formats() {
		for _, to := range Formats() {
			if from != to {
				out = append(out, string(from)+" -> "+string(to))
			}
		}
	}
	return out
}
