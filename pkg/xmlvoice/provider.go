// Package xmlvoice reads and writes DX7 voices as XML. Each schema version is
// served by a Provider registered under its namespace.
package xmlvoice

import (
	"bytes"
	"encoding/xml"
	"io"
	"sort"
	"sync"

	"github.com/james-see/dx7syx/pkg/diag"
	"github.com/james-see/dx7syx/pkg/voice"
	"github.com/pkg/errors"
)

// ErrInvalidDocument is returned when a document produced error diagnostics
var ErrInvalidDocument = errors.New("invalid voice document")

// Provider implements one schema version
type Provider interface {
	Namespace() string
	Decode(r io.Reader, source string, l diag.Listener) ([]voice.NamedVoice, error)
	Encode(w io.Writer, voices []voice.NamedVoice) error
}

var (
	mu        sync.RWMutex
	providers = map[string]Provider{}
)

// Register makes p available under its namespace
func Register(p Provider) {
	mu.Lock()
	defer mu.Unlock()
	providers[p.Namespace()] = p
}

// Lookup returns the provider for namespace
func Lookup(namespace string) (Provider, bool) {
	mu.RLock()
	defer mu.RUnlock()
	p, ok := providers[namespace]
	return p, ok
}

// Namespaces lists the registered schema namespaces
func Namespaces() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(providers))
	for ns := range providers {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

func init() {
	Register(V1{})
}

// Decode reads a document, choosing the provider from the namespace of its root element
func Decode(r io.Reader, source string, l diag.Listener) ([]voice.NamedVoice, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading xml")
	}
	tr := diag.NewTracker(source, l)

	dec := xml.NewDecoder(bytes.NewReader(data))
	ns, err := rootNamespace(dec)
	if err != nil {
		line, col := dec.InputPos()
		tr.ErrorAt(line, col, err, "Malformed document")
		return nil, ErrInvalidDocument
	}
	p, ok := Lookup(ns)
	if !ok {
		tr.ErrorAt(1, 1, nil, "Unsupported schema namespace %q", ns)
		return nil, ErrInvalidDocument
	}
	return p.Decode(bytes.NewReader(data), source, l)
}

// Encode writes voices with the newest schema
func Encode(w io.Writer, voices []voice.NamedVoice) error {
	return V1{}.Encode(w, voices)
}

func rootNamespace(dec *xml.Decoder) (string, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return "", errors.New("no root element")
			}
			return "", err
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se.Name.Space, nil
		}
	}
}
