package dex

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrNoIDInURL is returned when a resource reference URL has no numeric tail.
var ErrNoIDInURL = errors.New("no resource ID in URL")

// NamedAPIResource is a reference to another catalog resource.
type NamedAPIResource struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url"  yaml:"url"`
}

// ID extracts the numeric identifier from the last path segment of URL.
func (r NamedAPIResource) ID() (int, error) {
	trimmed := strings.TrimRight(r.URL, "/")

	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return 0, fmt.Errorf("%w: %q", ErrNoIDInURL, r.URL)
	}

	id, err := strconv.Atoi(trimmed[idx+1:])
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrNoIDInURL, r.URL)
	}

	return id, nil
}

// TypeSlot is a category tag attached to a resource.
type TypeSlot struct {
	Slot int              `json:"slot" yaml:"slot"`
	Type NamedAPIResource `json:"type" yaml:"type"`
}

// AbilitySlot is a named trait of a resource.
type AbilitySlot struct {
	Ability  NamedAPIResource `json:"ability"   yaml:"ability"`
	IsHidden bool             `json:"is_hidden" yaml:"is_hidden"`
	Slot     int              `json:"slot"      yaml:"slot"`
}

// StatValue is a named numeric attribute of a resource.
type StatValue struct {
	BaseStat int              `json:"base_stat" yaml:"base_stat"`
	Effort   int              `json:"effort"    yaml:"effort"`
	Stat     NamedAPIResource `json:"stat"      yaml:"stat"`
}

// SpriteImage is a single image reference.
type SpriteImage struct {
	FrontDefault string `json:"front_default" yaml:"front_default"`
}

// SpriteVariants holds the alternative artwork sets.
type SpriteVariants struct {
	OfficialArtwork SpriteImage `json:"official-artwork" yaml:"official-artwork"`
	DreamWorld      SpriteImage `json:"dream_world"      yaml:"dream_world"`
}

// Sprites holds the image references of a resource.
type Sprites struct {
	FrontDefault string         `json:"front_default" yaml:"front_default"`
	FrontShiny   string         `json:"front_shiny"   yaml:"front_shiny"`
	Other        SpriteVariants `json:"other"         yaml:"other"`
}

// Resource is a single catalog entry. It is immutable once fetched and its
// identity is ID.
type Resource struct {
	ID             int              `json:"id"              yaml:"id"`
	Name           string           `json:"name"            yaml:"name"`
	Height         int              `json:"height"          yaml:"height"`
	Weight         int              `json:"weight"          yaml:"weight"`
	BaseExperience int              `json:"base_experience" yaml:"base_experience"`
	Types          []TypeSlot       `json:"types"           yaml:"types"`
	Abilities      []AbilitySlot    `json:"abilities"       yaml:"abilities"`
	Stats          []StatValue      `json:"stats"           yaml:"stats"`
	Sprites        Sprites          `json:"sprites"         yaml:"sprites"`
	Species        NamedAPIResource `json:"species"         yaml:"species"`
}

// HeightMeters converts the catalog height (decimetres) to metres.
func (r Resource) HeightMeters() float64 {
	return float64(r.Height) / 10
}

// WeightKilograms converts the catalog weight (hectograms) to kilograms.
func (r Resource) WeightKilograms() float64 {
	return float64(r.Weight) / 10
}

// TypeNames returns the category tag names in slot order.
func (r Resource) TypeNames() []string {
	names := make([]string, 0, len(r.Types))
	for _, slot := range r.Types {
		names = append(names, slot.Type.Name)
	}

	return names
}

// HasType reports whether the resource carries the given category tag.
func (r Resource) HasType(name string) bool {
	for _, slot := range r.Types {
		if strings.EqualFold(slot.Type.Name, name) {
			return true
		}
	}

	return false
}

// DisplayID formats the ID as "#001".
func (r Resource) DisplayID() string {
	return fmt.Sprintf("#%03d", r.ID)
}

// DisplayName returns the name in title case.
func (r Resource) DisplayName() string {
	return cases.Title(language.English).String(r.Name)
}

// Artwork returns the best available image reference.
func (r Resource) Artwork() string {
	if r.Sprites.Other.OfficialArtwork.FrontDefault != "" {
		return r.Sprites.Other.OfficialArtwork.FrontDefault
	}

	return r.Sprites.FrontDefault
}

// ListResponse is the raw paginated list returned by the catalog.
type ListResponse struct {
	Count    int                `json:"count"    yaml:"count"`
	Next     *string            `json:"next"     yaml:"next"`
	Previous *string            `json:"previous" yaml:"previous"`
	Results  []NamedAPIResource `json:"results"  yaml:"results"`
}

// TypeMember references a resource that carries a category tag.
type TypeMember struct {
	Pokemon NamedAPIResource `json:"pokemon" yaml:"pokemon"`
	Slot    int              `json:"slot"    yaml:"slot"`
}

// TypeDetail is a category tag with its member list.
type TypeDetail struct {
	ID      int          `json:"id"      yaml:"id"`
	Name    string       `json:"name"    yaml:"name"`
	Pokemon []TypeMember `json:"pokemon" yaml:"pokemon"`
}

// Generation groups species introduced in the same release.
type Generation struct {
	ID             int                `json:"id"              yaml:"id"`
	Name           string             `json:"name"            yaml:"name"`
	PokemonSpecies []NamedAPIResource `json:"pokemon_species" yaml:"pokemon_species"`
}

// ResourcePage is a page of fully resolved resources.
type ResourcePage struct {
	Results  []Resource `json:"results"  yaml:"results"`
	Count    int        `json:"count"    yaml:"count"`
	Next     *string    `json:"next"     yaml:"next"`
	Previous *string    `json:"previous" yaml:"previous"`
}
