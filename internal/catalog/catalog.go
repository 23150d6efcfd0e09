package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ScraperTypes lists the scraper implementations a source may declare.
// "css" extracts purely via the configured selectors; "genie" adds the
// GENIE page's labelled-row fallbacks.
var ScraperTypes = []string{"css", "genie"}

// DefaultScraper is assumed when a source does not declare one.
const DefaultScraper = "css"

// Catalog is the parsed target catalog.
type Catalog struct {
	Sources map[string]Source `yaml:"sources"`
}

// Source describes one platform to collect from.
type Source struct {
	// Enabled defaults to true when omitted.
	Enabled *bool `yaml:"enabled"`
	// Scraper selects the extraction strategy; see ScraperTypes.
	Scraper string `yaml:"scraper"`
	// URL is the detail page template; "{id}" is replaced per item.
	URL string `yaml:"url"`
	// Selectors maps field names (counters and descriptive fields) to CSS
	// selectors on the detail page.
	Selectors map[string]string `yaml:"selectors"`
	Items     []Item            `yaml:"items"`
}

// Item is one collection target within a source.
type Item struct {
	ID string `yaml:"id"`
	// Name is an optional alias used when the page yields no item name.
	Name string `yaml:"name"`
}

// IsEnabled reports whether the source takes part in collection runs.
func (s Source) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// ScraperType returns the declared scraper, defaulting to "css".
func (s Source) ScraperType() string {
	if s.Scraper == "" {
		return DefaultScraper
	}
	return s.Scraper
}

// EnabledSources returns the names of enabled sources that have at least
// one item, sorted for deterministic run order.
func (c *Catalog) EnabledSources() []string {
	var names []string
	for name, source := range c.Sources {
		if source.IsEnabled() && len(source.Items) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Load reads and validates the catalog at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	catalog, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return catalog, nil
}

// Parse decodes and validates catalog YAML. Unknown fields are rejected so
// typos surface instead of silently disabling selectors.
func Parse(data []byte) (*Catalog, error) {
	var catalog Catalog
	decoder := yaml.NewDecoder(strings.NewReader(string(data)))
	decoder.KnownFields(true)
	if err := decoder.Decode(&catalog); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return &catalog, nil
}

// Validate checks the catalog for the defects that would otherwise surface
// mid-run: unknown scraper types, missing URLs, and blank or duplicate item
// ids. All failures are reported together.
func (c *Catalog) Validate() error {
	if len(c.Sources) == 0 {
		return errors.New("validate: no sources defined")
	}

	var errs []error
	for _, name := range c.sourceNames() {
		source := c.Sources[name]

		if !knownScraper(source.ScraperType()) {
			errs = append(errs, fmt.Errorf("source %s: unknown scraper type %q", name, source.Scraper))
		}
		if strings.TrimSpace(source.URL) == "" {
			errs = append(errs, fmt.Errorf("source %s: url is required", name))
		} else if !strings.Contains(source.URL, "{id}") {
			errs = append(errs, fmt.Errorf("source %s: url must contain the {id} placeholder", name))
		}

		seen := make(map[string]struct{}, len(source.Items))
		for i, item := range source.Items {
			id := strings.TrimSpace(item.ID)
			if id == "" {
				errs = append(errs, fmt.Errorf("source %s: item %d has an empty id", name, i))
				continue
			}
			if _, dup := seen[id]; dup {
				errs = append(errs, fmt.Errorf("source %s: duplicate item id %q", name, id))
			}
			seen[id] = struct{}{}
		}
	}
	return errors.Join(errs...)
}

func (c *Catalog) sourceNames() []string {
	names := make([]string, 0, len(c.Sources))
	for name := range c.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func knownScraper(name string) bool {
	for _, known := range ScraperTypes {
		if name == known {
			return true
		}
	}
	return false
}
