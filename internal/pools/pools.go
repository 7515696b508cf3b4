// Package pools reads question pool sets from YAML.
package pools

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"quiz-battle/internal/domain"
)

// DefaultSet is the name of the set bundled with the binary.
const DefaultSet = "default"

//go:embed default.yaml
var defaultYAML []byte

// Parse decodes a YAML document mapping set names to pools and validates
// every set.
func Parse(data []byte) (map[string]domain.Pools, error) {
	var sets map[string]domain.Pools
	if err := yaml.Unmarshal(data, &sets); err != nil {
		return nil, fmt.Errorf("parse pools: %w", err)
	}
	for name, set := range sets {
		if err := set.Validate(); err != nil {
			return nil, fmt.Errorf("pool set %q: %w", name, err)
		}
	}
	return sets, nil
}

// Default returns the bundled sets.
func Default() map[string]domain.Pools {
	sets, err := Parse(defaultYAML)
	if err != nil {
		panic(err)
	}
	return sets
}

// FileLoader serves pool sets from a YAML file, or from the bundled sets
// when no path is given. The file is read on every load; callers cache.
type FileLoader struct {
	path string
}

func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

func (l *FileLoader) LoadPools(_ context.Context, set string) (domain.Pools, error) {
	sets, err := l.read()
	if err != nil {
		return domain.Pools{}, err
	}
	pools, ok := sets[set]
	if !ok {
		return domain.Pools{}, fmt.Errorf("pool set %q: %w", set, domain.ErrPoolNotFound)
	}
	return pools, nil
}

func (l *FileLoader) read() (map[string]domain.Pools, error) {
	if l.path == "" {
		return Default(), nil
	}
	return ReadFile(l.path)
}

// ReadFile parses every set of a pool file.
func ReadFile(path string) (map[string]domain.Pools, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pools %s: %w", path, err)
	}
	return Parse(data)
}
