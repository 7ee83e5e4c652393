// Package parks resolves park codes and park type abbreviations to the
// human-readable names used in plot titles.
package parks

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownPark is returned for park codes missing from the registry.
var ErrUnknownPark = errors.New("unknown park code")

// Synthetic park types for names without a standard abbreviation.
const (
	TypePark     = "PK"
	TypeMemorial = "MEM"
	TypeSporadic = "SPORADIC"
)

// Registry maps park codes (e.g. "ACAD") to NPS names (e.g. "Acadia NP")
// and park type abbreviations (e.g. "NP") to long forms. A Registry is
// immutable after construction.
type Registry struct {
	names map[string]string
	types map[string]string
}

// New builds a registry from copies of names and types.
func New(names, types map[string]string) *Registry {
	return &Registry{
		names: maps.Clone(names),
		types: maps.Clone(types),
	}
}

// Load reads the park name and park type tables from YAML mappings.
func Load(namesPath, typesPath string) (*Registry, error) {
	names, err := readTable(namesPath)
	if err != nil {
		return nil, err
	}
	types, err := readTable(typesPath)
	if err != nil {
		return nil, err
	}
	return &Registry{names: names, types: types}, nil
}

func readTable(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read park table: %w", err)
	}
	table := make(map[string]string)
	if err := yaml.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("parse park table %s: %w", path, err)
	}
	return table, nil
}

// Len returns the number of known parks.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.names)
}

// ParkType extracts the abbreviated park type(s) from an NPS name, joined
// with " & " when a park has several (e.g. "NM & NPRES").
func (r *Registry) ParkType(npsName string) string {
	var found []string
	for _, w := range strings.Fields(npsName) {
		switch {
		case r.hasType(w):
			found = append(found, w)
		// The second of a pair of types sometimes lacks its leading "N".
		case r.hasType("N" + w):
			found = append(found, "N"+w)
		case w == "Park" || w == "Parks":
			found = append(found, TypePark)
		case w == "Memorial":
			found = append(found, TypeMemorial)
		}
	}
	if len(found) == 0 {
		return TypeSporadic
	}
	return strings.Join(found, " & ")
}

func (r *Registry) hasType(code string) bool {
	if r == nil {
		return false
	}
	_, ok := r.types[code]
	return ok
}

// FullParkName returns the expanded name of a park, e.g. "Acadia National
// Park" for "ACAD".
func (r *Registry) FullParkName(code string) (string, error) {
	if r == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownPark, code)
	}
	npsName, ok := r.names[code]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownPark, code)
	}
	parkType := r.ParkType(npsName)

	if strings.Contains(npsName, parkType) {
		return strings.Replace(npsName, parkType, r.expand(parkType), 1), nil
	}

	switch parkType {
	case TypeMemorial, TypePark, TypeSporadic:
		return npsName, nil
	}

	// A leading "N" was added to the second type while matching.
	long := "National " + strings.ReplaceAll(r.expand(parkType), "National ", "")
	parts := strings.Split(parkType, " ")
	last := parts[len(parts)-1]
	parts[len(parts)-1] = last[1:]
	return strings.Replace(npsName, strings.Join(parts, " "), long, 1), nil
}

func (r *Registry) expand(parkType string) string {
	var words []string
	for _, pt := range strings.Fields(parkType) {
		if long, ok := r.types[pt]; ok {
			words = append(words, long)
		} else {
			words = append(words, "&")
		}
	}
	return strings.Join(words, " ")
}

// LongParkType returns the unabbreviated form of a park type code, e.g.
// "National Park" for "NP".
func (r *Registry) LongParkType(code string) string {
	if r != nil {
		if long, ok := r.types[code]; ok {
			return long
		}
		parts := strings.Fields(code)
		if len(parts) > 1 {
			first, ok1 := r.types[parts[0]]
			second, ok2 := r.types["N"+parts[len(parts)-1]]
			if ok1 && ok2 {
				return first + " & " + strings.Replace(second, "National ", "", 1)
			}
		}
	}
	return titleCase(code)
}

// SeriesTitle names a series for display: park codes resolve to full park
// names, anything else is treated as a park type.
func (r *Registry) SeriesTitle(name string) string {
	if full, err := r.FullParkName(name); err == nil {
		return full
	}
	return r.LongParkType(name)
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Ordinal formats n with its English suffix: 1st, 2nd, 3rd, 11th.
func Ordinal(n int) string {
	suffix := "th"
	if mod := n % 100; mod < 11 || mod > 13 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}
