package converter

import (
	"net/url"
	"path/filepath"

	"github.com/james-see/dx7syx/pkg/voice"
)

// FileURI returns the file: URI for path, made absolute when possible
func FileURI(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

// VoiceID returns the identifier of a voice named name read from source
func VoiceID(source, name string) string {
	return source + "/" + url.PathEscape(name)
}

// AttachMetadata returns copies of voices carrying source and a per-voice id
func AttachMetadata(voices []voice.NamedVoice, source string) []voice.NamedVoice {
	out := make([]voice.NamedVoice, len(voices))
	for i, nv := range voices {
		out[i] = nv.WithMetadata(voice.Metadata{
			Source: source,
			ID:     VoiceID(source, nv.Name),
		})
	}
	return out
}
