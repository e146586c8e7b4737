// Package seed writes default sources and options into an empty store.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"sactech-events/internal/domain/entity"
	"sactech-events/internal/repository"
	"sactech-events/internal/usecase/settings"
)

//go:embed default.yaml
var defaultSeed []byte

// SourceSeed is one source entry of a seed file.
type SourceSeed struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
	URL  string `yaml:"url"`
}

// File is the parsed seed document.
type File struct {
	Sources     []SourceSeed       `yaml:"sources"`
	Options     map[string]string  `yaml:"options"`
	CategoryMap entity.CategoryMap `yaml:"category_map"`
}

// Result counts what Apply wrote.
type Result struct {
	SourcesCreated int
	OptionsSet     int
}

// Load parses the seed at path, or the embedded default when path is empty.
// The path comes from SEED_FILE.
func Load(path string) (*File, error) {
	data := defaultSeed
	if path != "" {
		// #nosec G304 -- path is provided by the operator environment, not user input
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read seed file: %w", err)
		}
		data = b
	}
	return Parse(data)
}

// Parse decodes and validates a seed document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}
	if err := validate(&f); err != nil {
		return nil, fmt.Errorf("seed validation failed: %w", err)
	}
	return &f, nil
}

func validate(f *File) error {
	for i, s := range f.Sources {
		if s.Name == "" {
			return fmt.Errorf("sources[%d]: name is required", i)
		}
		if s.Kind == "" {
			return fmt.Errorf("sources[%d]: kind is required", i)
		}
		if s.URL == "" {
			return fmt.Errorf("sources[%d]: url is required", i)
		}
	}
	for name, kws := range f.CategoryMap {
		if len(kws) == 0 {
			return fmt.Errorf("category %q has no keywords", name)
		}
	}
	return nil
}

// Apply creates the seed sources when no source exists yet, and writes each
// option (category map included) that is not already stored. Existing data is
// never overwritten, so Apply is safe to call on every start.
func Apply(ctx context.Context, f *File, sources repository.SourceRepository, store *settings.Store) (Result, error) {
	var res Result

	existing, err := sources.List(ctx)
	if err != nil {
		return res, fmt.Errorf("Apply: list sources: %w", err)
	}
	if len(existing) == 0 {
		for _, s := range f.Sources {
			src := &entity.Source{Name: s.Name, Kind: s.Kind, URL: s.URL, Status: entity.SourceStatusActive}
			if err := sources.Create(ctx, src); err != nil {
				return res, fmt.Errorf("Apply: create source %q: %w", s.Name, err)
			}
			res.SourcesCreated++
		}
	}

	for _, key := range slices.Sorted(maps.Keys(f.Options)) {
		set, err := setIfAbsent(ctx, store, key, func() error {
			return store.Set(ctx, key, f.Options[key])
		})
		if err != nil {
			return res, err
		}
		if set {
			res.OptionsSet++
		}
	}

	if len(f.CategoryMap) > 0 {
		set, err := setIfAbsent(ctx, store, settings.KeyCategoryMap, func() error {
			return store.SetCategoryMap(ctx, f.CategoryMap)
		})
		if err != nil {
			return res, err
		}
		if set {
			res.OptionsSet++
		}
	}

	slog.Info("seed applied",
		slog.Int("sources_created", res.SourcesCreated),
		slog.Int("options_set", res.OptionsSet))
	return res, nil
}

func setIfAbsent(ctx context.Context, store *settings.Store, key string, write func() error) (bool, error) {
	_, found, err := store.Repo.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("Apply: read option %s: %w", key, err)
	}
	if found {
		return false, nil
	}
	if err := write(); err != nil {
		return false, fmt.Errorf("Apply: %w", err)
	}
	return true, nil
}
