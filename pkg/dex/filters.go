package dex

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/dex/internal/constants"
)

// Query keys shared by filter serialization and URL view state.
const (
	KeyName       = "name"
	KeyType       = "type"
	KeyGeneration = "generation"
	KeyMinHeight  = "minHeight"
	KeyMaxHeight  = "maxHeight"
	KeyMinWeight  = "minWeight"
	KeyMaxWeight  = "maxWeight"
)

// Filters is the optional predicate set applied to list fetches. Heights are
// in metres and weights in kilograms.
type Filters struct {
	Name       string   `json:"name,omitempty"       yaml:"name,omitempty"`
	Type       string   `json:"type,omitempty"       yaml:"type,omitempty"`
	Generation string   `json:"generation,omitempty" yaml:"generation,omitempty"`
	MinHeight  *float64 `json:"minHeight,omitempty"  yaml:"minHeight,omitempty"`
	MaxHeight  *float64 `json:"maxHeight,omitempty"  yaml:"maxHeight,omitempty"`
	MinWeight  *float64 `json:"minWeight,omitempty"  yaml:"minWeight,omitempty"`
	MaxWeight  *float64 `json:"maxWeight,omitempty"  yaml:"maxWeight,omitempty"`
}

// Float returns a pointer to v, for building Filters literals.
func Float(v float64) *float64 {
	return &v
}

// IsZero reports whether no predicate is set.
func (f Filters) IsZero() bool {
	return f.Name == "" && f.Type == "" && f.Generation == "" &&
		f.MinHeight == nil && f.MaxHeight == nil && f.MinWeight == nil && f.MaxWeight == nil
}

// Normalize trims text predicates and clamps numeric bounds to their domain.
// When both bounds of a range are present and min exceeds max, min is clamped
// down to max.
func (f Filters) Normalize() Filters {
	out := Filters{
		Name:       strings.TrimSpace(f.Name),
		Type:       strings.ToLower(strings.TrimSpace(f.Type)),
		Generation: strings.TrimSpace(f.Generation),
		MinHeight:  clampBound(f.MinHeight, constants.MaxHeightMeters),
		MaxHeight:  clampBound(f.MaxHeight, constants.MaxHeightMeters),
		MinWeight:  clampBound(f.MinWeight, constants.MaxWeightKilograms),
		MaxWeight:  clampBound(f.MaxWeight, constants.MaxWeightKilograms),
	}

	if out.MinHeight != nil && out.MaxHeight != nil && *out.MinHeight > *out.MaxHeight {
		out.MinHeight = Float(*out.MaxHeight)
	}

	if out.MinWeight != nil && out.MaxWeight != nil && *out.MinWeight > *out.MaxWeight {
		out.MinWeight = Float(*out.MaxWeight)
	}

	return out
}

func clampBound(v *float64, limit float64) *float64 {
	if v == nil {
		return nil
	}

	switch {
	case *v < 0:
		return Float(0)
	case *v > limit:
		return Float(limit)
	default:
		return Float(*v)
	}
}

// Values serializes the set predicates.
func (f Filters) Values() url.Values {
	values := url.Values{}

	setString := func(key, value string) {
		if value != "" {
			values.Set(key, value)
		}
	}

	setFloat := func(key string, value *float64) {
		if value != nil {
			values.Set(key, strconv.FormatFloat(*value, 'f', -1, 64))
		}
	}

	setString(KeyName, f.Name)
	setString(KeyType, f.Type)
	setString(KeyGeneration, f.Generation)
	setFloat(KeyMinHeight, f.MinHeight)
	setFloat(KeyMaxHeight, f.MaxHeight)
	setFloat(KeyMinWeight, f.MinWeight)
	setFloat(KeyMaxWeight, f.MaxWeight)

	return values
}

// Canonical returns a deterministic serialization with keys in sorted order.
func (f Filters) Canonical() string {
	return f.Values().Encode()
}

// PageCacheKey derives the composite page-cache key for (page, filters).
func PageCacheKey(page int, filters Filters) string {
	return fmt.Sprintf("page-%d-%s", page, filters.Canonical())
}

// FiltersFromValues parses filters from query values. Malformed numbers are
// ignored.
func FiltersFromValues(values url.Values) Filters {
	filters := Filters{
		Name:       values.Get(KeyName),
		Type:       values.Get(KeyType),
		Generation: values.Get(KeyGeneration),
		MinHeight:  parseFloatValue(values.Get(KeyMinHeight)),
		MaxHeight:  parseFloatValue(values.Get(KeyMaxHeight)),
		MinWeight:  parseFloatValue(values.Get(KeyMinWeight)),
		MaxWeight:  parseFloatValue(values.Get(KeyMaxWeight)),
	}

	if filters.Name == "" {
		filters.Name = values.Get("q")
	}

	return filters
}

// FiltersFromMap builds filters from a flat key-value map.
func FiltersFromMap(entries map[string]string) Filters {
	values := url.Values{}
	for key, value := range entries {
		values.Set(key, value)
	}

	return FiltersFromValues(values)
}

func parseFloatValue(raw string) *float64 {
	if raw == "" {
		return nil
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil
	}

	return Float(v)
}

// MatchesLocal applies the predicates that are evaluated after records are
// resolved: name substring and height/weight bounds.
func (f Filters) MatchesLocal(r Resource) bool {
	if f.Name != "" && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(f.Name)) {
		return false
	}

	height := r.HeightMeters()
	if f.MinHeight != nil && height < *f.MinHeight {
		return false
	}

	if f.MaxHeight != nil && height > *f.MaxHeight {
		return false
	}

	weight := r.WeightKilograms()
	if f.MinWeight != nil && weight < *f.MinWeight {
		return false
	}

	if f.MaxWeight != nil && weight > *f.MaxWeight {
		return false
	}

	return true
}

// Matches applies every predicate that can be checked on a resolved record.
// Generation membership is not part of Resource and is not checked.
func (f Filters) Matches(r Resource) bool {
	if f.Type != "" && !r.HasType(f.Type) {
		return false
	}

	return f.MatchesLocal(r)
}
