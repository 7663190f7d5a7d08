package sysex

import (
	"bufio"
	"bytes"
	"io"
	"math"

	"github.com/charmbracelet/log"
	"github.com/james-see/dx7syx/pkg/diag"
	"github.com/james-see/dx7syx/pkg/voice"
	"github.com/pkg/errors"
)

// Option configures a Decoder
type Option func(*Decoder)

// WithLenientChecksum reports a checksum mismatch as a warning instead of an error
func WithLenientChecksum() Option {
	return func(d *Decoder) {
		d.lenient = true
	}
}

// WithLogger sets the logger used for debug output
func WithLogger(l *log.Logger) Option {
	return func(d *Decoder) {
		if l != nil {
			d.logger = l
		}
	}
}

// Decoder reads DX7 SysEx dumps from a byte stream. Problems in the data are
// reported to the listener; returned errors are reserved for failures of the
// underlying reader and invalid arguments.
type Decoder struct {
	r       *countingReader
	tr      *diag.Tracker
	logger  *log.Logger
	lenient bool
}

// NewDecoder creates a decoder reading from r. source names the stream in diagnostics.
func NewDecoder(r io.Reader, source string, l diag.Listener, opts ...Option) *Decoder {
	d := &Decoder{
		r:      &countingReader{r: bufio.NewReader(r)},
		tr:     diag.NewTracker(source, l),
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode reads every voice of the dump
func (d *Decoder) Decode() ([]voice.NamedVoice, error) {
	return d.DecodeAtMost(math.MaxInt)
}

// DecodeAtMost reads at most limit voice records. When the limit cuts the
// dump short the checksum and terminator are not read.
func (d *Decoder) DecodeAtMost(limit int) ([]voice.NamedVoice, error) {
	if limit < 0 {
		return nil, errors.Errorf("limit must be non-negative, got %d", limit)
	}
	d.logger.Debug("parsing sysex", "source", d.tr.Source(), "limit", limit)

	for _, want := range []byte{SysExStart, Manufacturer, SubStatus} {
		off := d.r.n
		b, err := d.r.ReadByte()
		if err != nil {
			return nil, d.eof(off, err, "reading header")
		}
		if b != want {
			d.tr.Errorf(off, nil, "Unrecognized header byte: expected 0x%02X, received 0x%02X", want, b)
		}
	}

	off := d.r.n
	format, err := d.r.ReadByte()
	if err != nil {
		return nil, d.eof(off, err, "reading format")
	}
	if d.tr.Errors() > 0 {
		return nil, nil
	}

	switch format {
	case FormatBulk32:
		return d.decodeBulk(limit)
	case FormatSingleVoice:
		d.tr.Errorf(off, nil, "Single voice dumps are not supported")
		return nil, nil
	default:
		d.tr.Errorf(off, nil, "Unrecognized format byte 0x%02X", format)
		return nil, nil
	}
}

func (d *Decoder) decodeBulk(limit int) ([]voice.NamedVoice, error) {
	off := d.r.n
	var sz [2]byte
	if _, err := io.ReadFull(d.r, sz[:]); err != nil {
		return nil, d.eof(off, err, "reading size")
	}
	size := int(sz[0])<<7 | int(sz[1])
	if size%RecordSize != 0 {
		d.tr.Warnf(off, nil, "Size %d is not a multiple of %d", size, RecordSize)
	}
	count := size / RecordSize
	n := count
	if limit < n {
		n = limit
	}
	d.logger.Debug("bulk dump", "size", size, "voices", count, "reading", n)

	voices := make([]voice.NamedVoice, 0, n)
	var rec [RecordSize]byte
	var sum byte
	for i := 0; i < n; i++ {
		start := d.r.n
		if _, err := io.ReadFull(d.r, rec[:]); err != nil {
			return voices, d.eof(start, err, "reading voice %d", i)
		}
		for _, b := range rec {
			sum -= b
		}
		if nv, ok := decodeVoice(&rec, cursor{base: start}, i, d.tr); ok {
			voices = append(voices, nv)
		} else {
			d.logger.Debug("dropped voice", "index", i, "name", nv.Name)
		}
	}
	if n < count {
		return voices, nil
	}

	// Trailing bytes of a partial record still count toward the checksum
	if rest := size % RecordSize; rest > 0 {
		off = d.r.n
		if _, err := io.ReadFull(d.r, rec[:rest]); err != nil {
			return voices, d.eof(off, err, "reading %d trailing bytes", rest)
		}
		for _, b := range rec[:rest] {
			sum -= b
		}
	}

	off = d.r.n
	received, err := d.r.ReadByte()
	if err != nil {
		return voices, d.eof(off, err, "reading checksum")
	}
	expected := sum & 0x7F
	d.logger.Debug("checksum", "expected", expected, "received", received)
	if received != expected {
		if d.lenient {
			d.tr.Warnf(off, nil, "Checksum mismatch: expected 0x%02X, received 0x%02X", expected, received)
		} else {
			d.tr.Errorf(off, nil, "Checksum mismatch: expected 0x%02X, received 0x%02X", expected, received)
		}
	}

	off = d.r.n
	end, err := d.r.ReadByte()
	if err != nil {
		return voices, d.eof(off, err, "reading terminator")
	}
	if end != SysExEnd {
		d.tr.Errorf(off, nil, "Missing terminator: expected 0x%02X, received 0x%02X", SysExEnd, end)
	}
	return voices, nil
}

// eof reports a premature end of stream as a diagnostic and passes any
// other read failure back to the caller
func (d *Decoder) eof(off int64, err error, format string, args ...interface{}) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		d.tr.Errorf(off, err, "Unexpected end of stream while "+format, args...)
		return nil
	}
	return errors.Wrapf(err, format, args...)
}

type countingReader struct {
	r *bufio.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (c *countingReader) ReadByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err == nil {
		c.n++
	}
	return b, err
}

// Encoder writes DX7 32 voice bulk dumps
type Encoder struct {
	w io.Writer
}

// NewEncoder creates an encoder writing to w
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode validates voices and writes them as one bulk dump. Nothing is
// written if any voice is invalid.
func (e *Encoder) Encode(voices []voice.NamedVoice) error {
	if len(voices) > MaxVoices {
		return errors.Errorf("too many voices: %d (max %d)", len(voices), MaxVoices)
	}
	for i, nv := range voices {
		if err := nv.Validate(); err != nil {
			return errors.Wrapf(err, "voice %d (%q)", i, nv.Name)
		}
	}

	size := len(voices) * RecordSize
	buf := make([]byte, 0, headerSize+size+2)
	buf = append(buf, SysExStart, Manufacturer, SubStatus, FormatBulk32, byte(size>>7)&0x7F, byte(size)&0x7F)

	var rec [RecordSize]byte
	for _, nv := range voices {
		encodeVoice(nv, &rec)
		buf = append(buf, rec[:]...)
	}
	buf = append(buf, Checksum(buf[headerSize:]), SysExEnd)

	_, err := e.w.Write(buf)
	return errors.Wrap(err, "writing sysex")
}

// Checksum returns the DX7 checksum of a record payload
func Checksum(payload []byte) byte {
	var sum byte
	for _, b := range payload {
		sum -= b
	}
	return sum & 0x7F
}

// DecodeBytes decodes a complete dump held in memory
func DecodeBytes(data []byte, source string, l diag.Listener, opts ...Option) ([]voice.NamedVoice, error) {
	return NewDecoder(bytes.NewReader(data), source, l, opts...).Decode()
}

// EncodeBytes encodes voices into a new byte slice
func EncodeBytes(voices []voice.NamedVoice) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(voices); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
