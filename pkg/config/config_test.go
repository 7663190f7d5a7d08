package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/james-see/dx7syx/pkg/transform"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dx7syx.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if c.Server.Port != 8080 || c.OutputFormat != "xml" || c.Limit != 0 {
		t.Errorf("defaults = %+v", c)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
limit: 8
lenient_checksum: true
server:
  port: 9090
staccato:
  affect: modulators
  attack: false
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Limit != 8 || !c.LenientChecksum || c.Server.Port != 9090 {
		t.Errorf("loaded %+v", c)
	}
	if c.OutputFormat != "xml" {
		t.Errorf("OutputFormat = %q, want default xml", c.OutputFormat)
	}
	p, err := c.StaccatoParameters()
	if err != nil {
		t.Fatal(err)
	}
	want := transform.StaccatoParameters{Affect: transform.AffectModulators, ModifyAttack: false, ModifyRelease: true}
	if p != want {
		t.Errorf("StaccatoParameters() = %+v, want %+v", p, want)
	}
}

func TestLoadRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown key", "colour: blue\n"},
		{"negative limit", "limit: -1\n"},
		{"bad affect", "staccato:\n  affect: some\n"},
		{"not yaml", "limit: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Error("Load() should fail")
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of a missing file should fail")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	data, err := Default().Marshal()
	if err != nil {
		t.Fatal(err)
	}
	c, err := Load(writeConfig(t, string(data)))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c != Default() {
		t.Errorf("round trip = %+v", c)
	}
}
