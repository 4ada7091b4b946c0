package profile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultName is the profile every other profile is layered on.
const DefaultName = "default"

var (
	// ErrProfileNotFound is returned when a named profile has no file.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrInvalidName is returned for names that are not plain file stems.
	ErrInvalidName = errors.New("invalid profile name")

	validName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// Paths helper for default/profile files.
type Paths struct {
	BaseDir string // base directory, e.g., /opt/app/config
}

func (p Paths) Dir() string {
	return filepath.Join(p.BaseDir, "profiles")
}
func (p Paths) DefaultPath() string {
	return p.ProfilePath(DefaultName)
}
func (p Paths) ProfilePath(name string) string {
	return filepath.Join(p.Dir(), name+".yaml")
}

// Loader reads YAML profiles and merges default -> named profile.
type Loader struct {
	paths Paths
	log   *logrus.Entry

	mu    sync.RWMutex
	cache map[string]RawProfile // key: profile name
}

// NewLoader creates a profile loader rooted at baseDir.
func NewLoader(baseDir string, log *logrus.Entry) *Loader {
	if log == nil {
		log = logrus.WithField("module", "profile")
	}
	return &Loader{
		paths: Paths{BaseDir: baseDir},
		log:   log,
		cache: make(map[string]RawProfile),
	}
}

// Paths returns the loader's file layout.
func (l *Loader) Paths() Paths { return l.paths }

// LoadMerged loads default.yaml and merges the named profile over it.
// An empty name or DefaultName loads default.yaml alone.
// The result is not validated or normalized.
func (l *Loader) LoadMerged(name string) (RawProfile, error) {
	if name == "" {
		name = DefaultName
	}
	if !validName.MatchString(name) {
		return RawProfile{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	l.mu.RLock()
	if cfg, ok := l.cache[name]; ok {
		l.mu.RUnlock()
		return cfg, nil
	}
	l.mu.RUnlock()

	defCfg, _, err := readYAML(l.paths.DefaultPath())
	if err != nil {
		return RawProfile{}, fmt.Errorf("read default: %w", err)
	}
	merged := defCfg
	if name != DefaultName {
		named, found, err := readYAML(l.paths.ProfilePath(name))
		if err != nil {
			return RawProfile{}, fmt.Errorf("read profile %s: %w", name, err)
		}
		if !found {
			return RawProfile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
		}
		merged = mergeRaw(defCfg, named)
	}

	l.mu.Lock()
	l.cache[name] = merged
	l.mu.Unlock()
	l.log.WithField("profile", name).Debug("profile loaded")

	return merged, nil
}

// Invalidate clears loader's cache. Call after hot-reload detects changes.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]RawProfile)
}

// readYAML loads a YAML file into RawProfile. Missing files return a zero profile and found=false.
func readYAML(path string) (cfg RawProfile, found bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return RawProfile{}, false, nil
		}
		return RawProfile{}, false, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return RawProfile{}, true, err
	}
	return cfg, true, nil
}

// mergeRaw performs a deep merge: 'b' overrides 'a' where set.
// Slices (table, grade order) are replaced wholesale; rates merge per grade.
func mergeRaw(a, b RawProfile) RawProfile {
	out := a

	// top-level scalars
	if b.Version != "" {
		out.Version = b.Version
	}
	if b.Notes != "" {
		out.Notes = b.Notes
	}
	if len(b.Table) > 0 {
		out.Table = append(out.Table[:0:0], b.Table...)
	}

	// draw
	if b.Draw.TopTier != "" {
		out.Draw.TopTier = b.Draw.TopTier
	}
	if b.Draw.Count != nil {
		out.Draw.Count = b.Draw.Count
	}
	if b.Draw.PityLimit != nil {
		out.Draw.PityLimit = b.Draw.PityLimit
	}

	// cost
	switch {
	case out.Cost == nil && b.Cost != nil:
		c := *b.Cost
		out.Cost = &c
	case out.Cost != nil && b.Cost != nil:
		c := *out.Cost
		if b.Cost.BundleSize != nil {
			c.BundleSize = b.Cost.BundleSize
		}
		if b.Cost.BundleCost != nil {
			c.BundleCost = b.Cost.BundleCost
		}
		if b.Cost.Currency != "" {
			c.Currency = b.Cost.Currency
		}
		out.Cost = &c
	}

	// synthesis
	switch {
	case out.Synthesis == nil && b.Synthesis != nil:
		c := *b.Synthesis
		out.Synthesis = &c
	case out.Synthesis != nil && b.Synthesis != nil:
		c := *out.Synthesis
		if len(b.Synthesis.GradeOrder) > 0 {
			c.GradeOrder = append([]string(nil), b.Synthesis.GradeOrder...)
		}
		if len(b.Synthesis.Rates) > 0 {
			rates := make(map[string]int, len(c.Rates)+len(b.Synthesis.Rates))
			for g, r := range c.Rates {
				rates[g] = r
			}
			for g, r := range b.Synthesis.Rates {
				rates[g] = r
			}
			c.Rates = rates
		}
		if b.Synthesis.Pity != nil {
			c.Pity = b.Synthesis.Pity
		}
		if b.Synthesis.Count != nil {
			c.Count = b.Synthesis.Count
		}
		if b.Synthesis.StartGrade != "" {
			c.StartGrade = b.Synthesis.StartGrade
		}
		out.Synthesis = &c
	}

	return out
}
