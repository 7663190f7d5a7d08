package converter

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/james-see/dx7syx/pkg/voice"
	"github.com/kennygrant/sanitize"
	"github.com/pkg/errors"
)

// BankSize is the number of voices in one bulk dump written by PickRandom32
const BankSize = 32

// ReadBatchList reads one path per line, skipping blank lines and # comments
func ReadBatchList(r io.Reader) ([]string, error) {
	var paths []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading batch list")
	}
	return paths, nil
}

// ReadBatchListFile reads a batch list from path
func ReadBatchListFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening batch list")
	}
	defer f.Close()
	return ReadBatchList(f)
}

// IsDefaultVoice reports whether nv is an untouched initial voice
func IsDefaultVoice(nv voice.NamedVoice) bool {
	return strings.TrimSpace(nv.Name) == voice.InitVoiceName || nv.Voice == voice.DefaultVoice()
}

// PickRandom32 shuffles voices with rng and returns up to BankSize of them,
// leaving out initial voices
func PickRandom32(voices []voice.NamedVoice, rng *rand.Rand) []voice.NamedVoice {
	candidates := make([]voice.NamedVoice, 0, len(voices))
	for _, nv := range voices {
		if !IsDefaultVoice(nv) {
			candidates = append(candidates, nv)
		}
	}
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > BankSize {
		candidates = candidates[:BankSize]
	}
	return candidates
}

// SplitFilename returns the file name used for the index-th voice when
// writing one file per voice
func SplitFilename(index int, nv voice.NamedVoice, format Format) string {
	name := sanitize.BaseName(strings.TrimSpace(nv.Name))
	if name == "" {
		name = "voice"
	}
	return fmt.Sprintf("%03d-%s%s", index+1, name, format.Extension())
}

// WriteSplit writes every voice to its own file in dir and returns the paths
func (c *Converter) WriteSplit(dir string, voices []voice.NamedVoice, format Format) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "creating split directory")
	}
	paths := make([]string, 0, len(voices))
	for i, nv := range voices {
		path := filepath.Join(dir, SplitFilename(i, nv, format))
		if err := c.WriteFileAs(path, []voice.NamedVoice{nv}, format); err != nil {
			return paths, errors.Wrapf(err, "writing %s", path)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
