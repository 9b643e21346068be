package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alexanderramin/dftlog/internal/domain"
	"gopkg.in/yaml.v3"
)

// DemoSiteID names the built-in site backed by the demo route.
const DemoSiteID = "demo"

// ErrUnknownSite is returned for a site id missing from the registry.
var ErrUnknownSite = errors.New("unknown site")

// Site is one entry of the site registry.
type Site struct {
	ID         string                               `yaml:"id"`
	Name       string                               `yaml:"name"`
	File       string                               `yaml:"file"`
	Thresholds map[domain.Category]domain.Threshold `yaml:"thresholds"`
}

// Registry lists the sites an operator can choose from.
type Registry struct {
	Sites []Site `yaml:"sites"`

	// baseDir resolves relative route files.
	baseDir string
}

// DemoRegistry holds only the built-in demo site.
func DemoRegistry() *Registry {
	return &Registry{Sites: []Site{{ID: DemoSiteID, Name: "Demo bridge"}}}
}

// LoadRegistry reads a YAML site registry. Route file paths are resolved
// relative to the registry file.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading site registry: %w", err)
	}
	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parsing site registry %s: %w", path, err)
	}
	seen := make(map[string]bool, len(reg.Sites))
	for i, s := range reg.Sites {
		if s.ID == "" {
			return nil, fmt.Errorf("site registry %s: site %d has no id", path, i+1)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("site registry %s: duplicate site id %q", path, s.ID)
		}
		seen[s.ID] = true
		if s.File == "" && s.ID != DemoSiteID {
			return nil, fmt.Errorf("site registry %s: site %q has no route file", path, s.ID)
		}
		if reg.Sites[i].Name == "" {
			reg.Sites[i].Name = s.ID
		}
	}
	reg.baseDir = filepath.Dir(path)
	return &reg, nil
}

// Site looks up a site by id.
func (r *Registry) Site(id string) (Site, error) {
	for _, s := range r.Sites {
		if s.ID == id {
			return s, nil
		}
	}
	return Site{}, fmt.Errorf("%w: %s", ErrUnknownSite, id)
}

// LoadPoints reads the route of the given site. The demo site without a
// file yields the built-in demo route.
func (r *Registry) LoadPoints(id string) ([]domain.PointDefinition, error) {
	s, err := r.Site(id)
	if err != nil {
		return nil, err
	}
	if s.File == "" {
		return domain.DefaultPoints(), nil
	}
	path := s.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, path)
	}
	points, err := LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading site %q: %w", s.Name, err)
	}
	return points, nil
}

// Thresholds returns the default bands with the site's overrides applied.
// Unknown sites get the defaults.
func (r *Registry) Thresholds(id string) domain.ThresholdTable {
	base := domain.DefaultThresholds()
	s, err := r.Site(id)
	if err != nil {
		return base
	}
	return base.Merge(s.Thresholds)
}

// LoadFile parses a route CSV from disk.
func LoadFile(path string) ([]domain.PointDefinition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening route file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}
