package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig indicates a catalog that cannot drive an assembly.
var ErrInvalidConfig = errors.New("config: invalid catalog")

// DefaultBundles is the tract bundle catalog.
var DefaultBundles = []string{
	"CG_left",
	"CG_right",
	"ILF_left",
	"ILF_right",
	"UF_left",
	"UF_right",
}

// DefaultMetrics is the diffusion metric order: fractional anisotropy,
// mean, axial and radial diffusivity.
var DefaultMetrics = []string{"fa", "md", "ad", "rd"}

const (
	DefaultLength      = 128
	DefaultDelimiter   = ";"
	DefaultComment     = "#"
	DefaultFilePattern = "%s_profiles.csv"
)

// Catalog describes which profile columns make up a feature vector.
type Catalog struct {
	// Bundles is a set; SortedBundles gives the extraction order.
	Bundles []string `yaml:"bundles"`
	// Metrics is extracted in the order listed.
	Metrics     []string `yaml:"metrics"`
	Length      int      `yaml:"length"`
	Delimiter   string   `yaml:"delimiter"`
	Comment     string   `yaml:"comment"`
	FilePattern string   `yaml:"file_pattern"`
	Workers     int      `yaml:"workers"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return &Catalog{
		Bundles:     append([]string(nil), DefaultBundles...),
		Metrics:     append([]string(nil), DefaultMetrics...),
		Length:      DefaultLength,
		Delimiter:   DefaultDelimiter,
		Comment:     DefaultComment,
		FilePattern: DefaultFilePattern,
		Workers:     runtime.NumCPU(),
	}
}

// Load reads a YAML file over the defaults. Keys absent from the file keep
// their default values.
func Load(path string) (*Catalog, error) {
	cat := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cat); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

// Validate checks that the catalog is usable.
func (c *Catalog) Validate() error {
	switch {
	case len(c.Bundles) == 0:
		return fmt.Errorf("%w: no bundles", ErrInvalidConfig)
	case len(c.Metrics) == 0:
		return fmt.Errorf("%w: no metrics", ErrInvalidConfig)
	case c.Length <= 0:
		return fmt.Errorf("%w: length must be positive, got %d", ErrInvalidConfig, c.Length)
	case utf8.RuneCountInString(c.Delimiter) != 1:
		return fmt.Errorf("%w: delimiter must be a single character, got %q", ErrInvalidConfig, c.Delimiter)
	case strings.Count(c.FilePattern, "%s") != 1:
		return fmt.Errorf("%w: file pattern %q needs exactly one %%s", ErrInvalidConfig, c.FilePattern)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfig, c.Workers)
	}

	delim := c.DelimiterRune()
	switch delim {
	case '"', '\r', '\n', utf8.RuneError:
		return fmt.Errorf("%w: delimiter %q cannot separate fields", ErrInvalidConfig, c.Delimiter)
	}
	if utf8.RuneCountInString(c.Comment) == 1 {
		r := c.CommentRune()
		switch {
		case r == delim:
			return fmt.Errorf("%w: comment marker %q equals the delimiter", ErrInvalidConfig, c.Comment)
		case r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError:
			return fmt.Errorf("%w: comment marker %q is not usable", ErrInvalidConfig, c.Comment)
		}
	}

	seen := make(map[string]bool, len(c.Metrics))
	for _, m := range c.Metrics {
		if m == "" {
			return fmt.Errorf("%w: empty metric name", ErrInvalidConfig)
		}
		if seen[m] {
			return fmt.Errorf("%w: duplicate metric %q", ErrInvalidConfig, m)
		}
		seen[m] = true
	}
	return nil
}

// SortedBundles returns the bundle set deduplicated and in lexicographic order.
func (c *Catalog) SortedBundles() []string {
	set := make(map[string]struct{}, len(c.Bundles))
	out := make([]string, 0, len(c.Bundles))
	for _, b := range c.Bundles {
		if _, ok := set[b]; ok {
			continue
		}
		set[b] = struct{}{}
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// DelimiterRune returns the column delimiter.
func (c *Catalog) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}

// CommentRune returns the first rune of the comment marker, or 0 when unset.
func (c *Catalog) CommentRune() rune {
	if c.Comment == "" {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(c.Comment)
	return r
}

// ProfilePath returns the profile file for metric inside dir.
func (c *Catalog) ProfilePath(dir, metric string) string {
	return filepath.Join(dir, fmt.Sprintf(c.FilePattern, metric))
}
