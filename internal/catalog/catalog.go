// Package catalog loads the hero pool the rolls draw from.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/leedalei/lol-random-hero-selector/internal/engine"
	"gopkg.in/yaml.v3"
)

//go:embed heroes.yaml
var defaultCatalog []byte

var ErrEmptyCatalog = errors.New("hero catalog is empty")

type file struct {
	Heroes []engine.Hero `yaml:"heroes"`
}

// Default returns the embedded pool.
func Default() ([]engine.Hero, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file, or the embedded pool when path is empty.
func Load(path string) ([]engine.Hero, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read hero catalog: %w", err)
	}
	heroes, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return heroes, nil
}

func Parse(data []byte) ([]engine.Hero, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse hero catalog: %w", err)
	}
	if len(f.Heroes) == 0 {
		return nil, ErrEmptyCatalog
	}

	seen := make(map[string]bool, len(f.Heroes))
	for i, h := range f.Heroes {
		if h.ID == "" || h.Name == "" {
			return nil, fmt.Errorf("hero #%d: missing heroId or name", i)
		}
		if seen[h.ID] {
			return nil, fmt.Errorf("hero %s: duplicate heroId", h.ID)
		}
		seen[h.ID] = true

		if len(h.Roles) == 0 {
			return nil, fmt.Errorf("hero %s: no roles", h.ID)
		}
		for _, r := range h.Roles {
			if _, ok := engine.ParseRole(string(r)); !ok {
				return nil, fmt.Errorf("hero %s: unknown role %q", h.ID, r)
			}
		}
	}
	return f.Heroes, nil
}
