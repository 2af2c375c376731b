// Package tuning loads the optional YAML file that adjusts recognition
// without a rebuild: ID prefix strictness, the fuzzy place threshold, extra
// place aliases and extra nationality names.
package tuning

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"cardscan/internal/scan/gazetteer"
	"cardscan/internal/scan/sequencer"
)

// File mirrors the YAML document.
type File struct {
	StrictIDPrefix *bool             `yaml:"strict_id_prefix"`
	FuzzyThreshold float64           `yaml:"fuzzy_threshold"`
	Aliases        map[string]string `yaml:"aliases"`
	Nationalities  []string          `yaml:"nationalities"`
}

// Load reads and validates the tuning file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tuning file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a tuning document.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode tuning file: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	if f.FuzzyThreshold < 0 || f.FuzzyThreshold > 1 {
		return fmt.Errorf("fuzzy_threshold must be within (0, 1], got %v", f.FuzzyThreshold)
	}
	for alias, canonical := range f.Aliases {
		if strings.TrimSpace(alias) == "" {
			return fmt.Errorf("alias for %q is empty", canonical)
		}
		if !gazetteer.IsCanonical(canonical) {
			return fmt.Errorf("alias %q maps to unknown place %q", alias, canonical)
		}
	}
	return nil
}

// ExtraAliases returns the configured aliases sorted by alias, so the
// gazetteer search order does not depend on map iteration.
func (f *File) ExtraAliases() []gazetteer.Alias {
	keys := make([]string, 0, len(f.Aliases))
	for k := range f.Aliases {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]gazetteer.Alias, 0, len(keys))
	for _, k := range keys {
		out = append(out, gazetteer.Alias{Name: k, Canonical: f.Aliases[k]})
	}
	return out
}

// Apply overlays the file on base and returns the engine configuration.
// strict_id_prefix only overrides base when it is present in the file.
func (f *File) Apply(base sequencer.Config) sequencer.Config {
	cfg := base
	if f == nil {
		return cfg
	}
	if f.StrictIDPrefix != nil {
		cfg.StrictIDPrefix = *f.StrictIDPrefix
	}
	var opts []gazetteer.Option
	if len(f.Aliases) > 0 {
		opts = append(opts, gazetteer.WithAliases(f.ExtraAliases()...))
	}
	if f.FuzzyThreshold > 0 {
		opts = append(opts, gazetteer.WithThreshold(f.FuzzyThreshold))
	}
	if len(opts) > 0 {
		cfg.Gazetteer = gazetteer.New(opts...)
	}
	cfg.Nationalities = append(slices.Clone(base.Nationalities), f.Nationalities...)
	return cfg
}

// EngineConfig loads path when set and overlays it on base. An empty path
// returns base unchanged.
func EngineConfig(path string, base sequencer.Config) (sequencer.Config, error) {
	if path == "" {
		return base, nil
	}
	f, err := Load(path)
	if err != nil {
		return base, err
	}
	return f.Apply(base), nil
}
