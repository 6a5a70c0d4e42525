// Package plugins assembles the platform registry from the built-in plugins
// and any profile files configured on disk.
package plugins

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"github.com/jonesrussell/north-cloud/permit-scraper/internal/config"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/logger"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/platform"
	"github.com/jonesrussell/north-cloud/permit-scraper/internal/platform/fasttrack"
)

// BuiltIn returns the compiled-in plugins in registration order.
func BuiltIn(log logger.Logger) ([]platform.Plugin, error) {
	ft, err := fasttrack.New(platform.WithLogger(log.With(logger.Platform(fasttrack.Name))))
	if err != nil {
		return nil, err
	}
	return []platform.Plugin{ft}, nil
}

// LoadDir compiles every *.yaml and *.yml profile in dir, sorted by file name.
func LoadDir(dir string, log logger.Logger) ([]platform.Plugin, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	out := make([]platform.Plugin, 0, len(files))
	for _, path := range files {
		profile, loadErr := platform.LoadProfileFile(path)
		if loadErr != nil {
			return nil, loadErr
		}
		p, buildErr := platform.NewProfilePlugin(profile,
			platform.WithLogger(log.With(logger.Platform(profile.Name))))
		if buildErr != nil {
			return nil, fmt.Errorf("%s: %w", path, buildErr)
		}
		out = append(out, p)
	}

	return out, nil
}

// NewRegistry registers the built-in plugins followed by the profiles in
// cfg.ProfileDir, skipping any name listed in cfg.Disabled.
func NewRegistry(cfg config.PlatformsConfig, log logger.Logger) (*platform.Registry, error) {
	log = logger.OrNop(log)

	all, err := BuiltIn(log)
	if err != nil {
		return nil, err
	}

	if cfg.ProfileDir != "" {
		extra, loadErr := LoadDir(cfg.ProfileDir, log)
		if loadErr != nil {
			return nil, loadErr
		}
		all = append(all, extra...)
	}

	registry := platform.NewRegistry(log.With(logger.Component("registry")))
	for _, p := range all {
		if slices.Contains(cfg.Disabled, p.Name()) {
			log.Info("Platform plugin disabled", logger.Platform(p.Name()))
			continue
		}
		if regErr := registry.Register(p); regErr != nil {
			return nil, regErr
		}
	}

	log.Info("Platform registry ready", logger.Strings("platforms", registry.Names()))
	return registry, nil
}
