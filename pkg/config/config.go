// Package config loads dx7syx settings from a YAML file
package config

import (
	"os"

	"github.com/james-see/dx7syx/pkg/transform"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config holds settings shared by the CLI, server and TUI
type Config struct {
	// Limit caps the number of voices read from each SysEx dump; 0 means no limit
	Limit           int    `yaml:"limit"`
	LenientChecksum bool   `yaml:"lenient_checksum"`
	OutputFormat    string `yaml:"output_format"`
	Verbose         bool   `yaml:"verbose"`

	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Staccato struct {
		Affect  string `yaml:"affect"`
		Attack  bool   `yaml:"attack"`
		Release bool   `yaml:"release"`
	} `yaml:"staccato"`
}

// Default returns the built-in settings
func Default() Config {
	var c Config
	c.OutputFormat = "xml"
	c.Server.Port = 8080
	c.Staccato.Affect = "carriers"
	c.Staccato.Attack = true
	c.Staccato.Release = true
	return c
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return c, errors.Wrap(err, "reading config")
	}
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return c, errors.Wrapf(err, "parsing config %s", path)
	}
	if c.Limit < 0 {
		return c, errors.Errorf("config %s: limit must be non-negative, got %d", path, c.Limit)
	}
	if _, err := c.StaccatoParameters(); err != nil {
		return c, errors.Wrapf(err, "config %s", path)
	}
	return c, nil
}

// StaccatoParameters converts the staccato section
func (c Config) StaccatoParameters() (transform.StaccatoParameters, error) {
	affect, err := transform.ParseAffect(c.Staccato.Affect)
	if err != nil {
		return transform.StaccatoParameters{}, err
	}
	return transform.StaccatoParameters{
		Affect:        affect,
		ModifyAttack:  c.Staccato.Attack,
		ModifyRelease: c.Staccato.Release,
	}, nil
}

// Marshal renders c as YAML
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
