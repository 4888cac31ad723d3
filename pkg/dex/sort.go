package dex

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortField is the attribute a list is ordered by.
type SortField string

// SortDirection is ascending or descending.
type SortDirection string

const (
	SortByName   SortField = "name"
	SortByID     SortField = "id"
	SortByHeight SortField = "height"
	SortByWeight SortField = "weight"

	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortConfig pairs a field with a direction.
type SortConfig struct {
	Field     SortField     `json:"field"     yaml:"field"`
	Direction SortDirection `json:"direction" yaml:"direction"`
}

// DefaultSortConfig returns name ascending.
func DefaultSortConfig() SortConfig {
	return SortConfig{Field: SortByName, Direction: SortAsc}
}

// ParseSortConfig parses "field-direction" (for example "height-desc"). A bare
// field sorts ascending.
func ParseSortConfig(raw string) (SortConfig, error) {
	field, direction, found := strings.Cut(strings.ToLower(strings.TrimSpace(raw)), "-")
	if !found {
		direction = string(SortAsc)
	}

	cfg := SortConfig{Field: SortField(field), Direction: SortDirection(direction)}

	err := cfg.Validate()
	if err != nil {
		return DefaultSortConfig(), err
	}

	return cfg, nil
}

// Validate checks the field and direction.
func (s SortConfig) Validate() error {
	switch s.Field {
	case SortByName, SortByID, SortByHeight, SortByWeight:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSortField, s.Field)
	}

	switch s.Direction {
	case SortAsc, SortDesc:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSortOrder, s.Direction)
	}

	return nil
}

// String renders the config as "field-direction".
func (s SortConfig) String() string {
	return string(s.Field) + "-" + string(s.Direction)
}

// IsDefault reports whether s equals DefaultSortConfig.
func (s SortConfig) IsDefault() bool {
	return s == DefaultSortConfig()
}

// SortResources returns a sorted copy of resources. Names compare with English
// collation and numbers numerically. The sort is stable, so equal keys keep
// their input order in both directions.
func SortResources(resources []Resource, cfg SortConfig) []Resource {
	out := slices.Clone(resources)
	collator := collate.New(language.English)

	compare := func(a, b Resource) int {
		switch cfg.Field {
		case SortByID:
			return cmp.Compare(a.ID, b.ID)
		case SortByHeight:
			return cmp.Compare(a.Height, b.Height)
		case SortByWeight:
			return cmp.Compare(a.Weight, b.Weight)
		default:
			return collator.CompareString(a.Name, b.Name)
		}
	}

	slices.SortStableFunc(out, func(a, b Resource) int {
		if cfg.Direction == SortDesc {
			return -compare(a, b)
		}

		return compare(a, b)
	})

	return out
}
