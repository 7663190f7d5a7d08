package xmlvoice

import (
	"compress/gzip"
	"io"

	"github.com/james-see/dx7syx/pkg/diag"
	"github.com/james-see/dx7syx/pkg/voice"
	"github.com/pkg/errors"
)

// DecodeGzip reads a gzip compressed document
func DecodeGzip(r io.Reader, source string, l diag.Listener) ([]voice.NamedVoice, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "opening gzip stream")
	}
	defer func() { _ = zr.Close() }()
	return Decode(zr, source, l)
}

// EncodeGzip writes a gzip compressed document
func EncodeGzip(w io.Writer, voices []voice.NamedVoice) error {
	zw := gzip.NewWriter(w)
	if err := Encode(zw, voices); err != nil {
		_ = zw.Close()
		return err
	}
	return errors.Wrap(zw.Close(), "closing gzip stream")
}
