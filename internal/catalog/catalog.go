// Package catalog supplies the read-only weekly reference schedule and the
// motivational quote pool. The content is display data for the rest of the
// tracker; nothing here is ever mutated at runtime.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"gopkg.in/yaml.v3"

	terrors "git.home.luguber.info/inful/hardtrack/internal/errors"
)

// TemplateExercise is one suggested exercise with its combined sets/reps
// text, e.g. "3 x 45 sec".
type TemplateExercise struct {
	Exercise string `yaml:"exercise" json:"exercise"`
	SetsReps string `yaml:"setsReps" json:"setsReps"`
}

// DayPlan is the suggested session for one weekday.
type DayPlan struct {
	Focus     string             `yaml:"focus" json:"focus"`
	Exercises []TemplateExercise `yaml:"exercises" json:"exercises"`
}

// Catalog holds a week of reference sessions keyed by weekday name plus a
// quote pool cycled through by challenge day.
type Catalog struct {
	Week   map[string]DayPlan `yaml:"week" json:"week"`
	Quotes []string           `yaml:"quotes" json:"quotes"`
}

// WeekOrder lists the weekdays in presentation order, Monday first.
var WeekOrder = []time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
	time.Sunday,
}

//go:embed default.yaml
var defaultCatalog []byte

// Default returns the built-in reference schedule used when no catalog file
// is configured. Panics only if the embedded default is broken, which is a
// programmer error, never a user one.
func Default() *Catalog {
	c, err := decode(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded default catalog is invalid: %v", err))
	}
	return c
}

// LoadFile reads a catalog from a YAML file. Environment references in the
// file are expanded and unknown fields are rejected.
func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, terrors.CatalogError(path, err)
	}

	c, err := decode([]byte(os.ExpandEnv(string(raw))))
	if err != nil {
		return nil, terrors.CatalogError(path, err)
	}
	return c, nil
}

func decode(raw []byte) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	known := make(map[string]bool, len(WeekOrder))
	for _, wd := range WeekOrder {
		known[wd.String()] = true
	}
	for name := range c.Week {
		if !known[name] {
			return fmt.Errorf("unknown weekday %q", name)
		}
	}
	for i, q := range c.Quotes {
		if strings.TrimSpace(q) == "" {
			return fmt.Errorf("quote %d is blank", i+1)
		}
	}
	return nil
}

// ForWeekday returns the plan for the given weekday, if the catalog has one.
func (c *Catalog) ForWeekday(wd time.Weekday) (DayPlan, bool) {
	plan, ok := c.Week[wd.String()]
	return plan, ok
}

// QuoteForDay cycles through the quote pool by challenge day, so the whole
// pool is seen before any quote repeats. Days below 1 read as day 1.
func (c *Catalog) QuoteForDay(day int) string {
	if len(c.Quotes) == 0 {
		return ""
	}
	if day < 1 {
		day = 1
	}
	return c.Quotes[(day-1)%len(c.Quotes)]
}

// FindExercise locates a template exercise by name, tolerating small typos.
// Exact matches (ignoring case) win; otherwise the closest name within an
// edit distance of 3 is returned. The week is scanned Monday first so the
// result is deterministic.
func (c *Catalog) FindExercise(name string) (TemplateExercise, time.Weekday, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return TemplateExercise{}, 0, false
	}

	const maxDistance = 3
	var (
		best     TemplateExercise
		bestDay  time.Weekday
		bestDist = maxDistance + 1
	)
	for _, wd := range WeekOrder {
		plan, ok := c.Week[wd.String()]
		if !ok {
			continue
		}
		for _, te := range plan.Exercises {
			candidate := strings.ToLower(te.Exercise)
			if candidate == needle {
				return te, wd, true
			}
			if d := levenshtein.ComputeDistance(needle, candidate); d < bestDist {
				best, bestDay, bestDist = te, wd, d
			}
		}
	}
	if bestDist > maxDistance {
		return TemplateExercise{}, 0, false
	}
	return best, bestDay, true
}
