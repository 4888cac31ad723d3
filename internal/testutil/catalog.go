// Package testutil provides an in-process fake of the catalog REST API for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/fivetwenty-io/dex/pkg/dex"
)

// Catalog serves a deterministic catalog of Size resources:
//
//   - resource i is named "mon<i>", is i decimetres tall and weighs 10*i hectograms
//   - i%3==0 is "fire", i%3==1 is "grass"+"poison", otherwise "water"
//   - generation 1 holds the first half of the ids, generation 2 the rest
type Catalog struct {
	Server *httptest.Server
	Size   int

	mu       sync.Mutex
	requests map[string]int
	failing  map[string]int
}

// NewCatalog starts a fake catalog that is closed when the test ends.
func NewCatalog(t *testing.T, size int) *Catalog {
	t.Helper()

	catalog := &Catalog{
		Size:     size,
		requests: make(map[string]int),
		failing:  make(map[string]int),
	}
	catalog.Server = httptest.NewServer(http.HandlerFunc(catalog.serve))
	t.Cleanup(catalog.Server.Close)

	return catalog
}

// URL returns the base URL.
func (c *Catalog) URL() string {
	return c.Server.URL
}

// FailPath makes requests whose path equals path answer with status.
func (c *Catalog) FailPath(path string, status int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.failing[path] = status
}

// Requests counts requests whose path starts with prefix.
func (c *Catalog) Requests(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0

	for path, n := range c.requests {
		if strings.HasPrefix(path, prefix) {
			total += n
		}
	}

	return total
}

// Resource returns the record served for id.
func (c *Catalog) Resource(id int) dex.Resource {
	var typeNames []string

	switch id % 3 {
	case 0:
		typeNames = []string{"fire"}
	case 1:
		typeNames = []string{"grass", "poison"}
	default:
		typeNames = []string{"water"}
	}

	types := make([]dex.TypeSlot, 0, len(typeNames))
	for i, name := range typeNames {
		types = append(types, dex.TypeSlot{Slot: i + 1, Type: dex.NamedAPIResource{Name: name, URL: c.URL() + "/type/" + name + "/"}})
	}

	name := "mon" + strconv.Itoa(id)

	return dex.Resource{
		ID:             id,
		Name:           name,
		Height:         id,
		Weight:         id * 10,
		BaseExperience: 50 + id,
		Types:          types,
		Abilities: []dex.AbilitySlot{
			{Ability: dex.NamedAPIResource{Name: "blaze"}, Slot: 1},
			{Ability: dex.NamedAPIResource{Name: "solar-power"}, IsHidden: true, Slot: 3},
		},
		Stats: []dex.StatValue{
			{BaseStat: 40 + id, Stat: dex.NamedAPIResource{Name: "hp"}},
			{BaseStat: 50 + id, Stat: dex.NamedAPIResource{Name: "attack"}},
		},
		Species: dex.NamedAPIResource{Name: name, URL: c.ref("pokemon-species", id).URL},
	}
}

func (c *Catalog) ref(kind string, id int) dex.NamedAPIResource {
	return dex.NamedAPIResource{
		Name: "mon" + strconv.Itoa(id),
		URL:  fmt.Sprintf("%s/%s/%d/", c.URL(), kind, id),
	}
}

func (c *Catalog) serve(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	c.requests[r.URL.Path]++
	status, failing := c.failing[r.URL.Path]
	c.mu.Unlock()

	if failing {
		w.WriteHeader(status)

		return
	}

	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case len(segments) == 1 && segments[0] == "pokemon":
		c.servePokemonList(w, r)
	case len(segments) == 2 && segments[0] == "pokemon":
		c.servePokemon(w, segments[1])
	case len(segments) == 1 && segments[0] == "type":
		writeJSON(w, dex.ListResponse{
			Count: 3,
			Results: []dex.NamedAPIResource{
				{Name: "fire", URL: c.URL() + "/type/10/"},
				{Name: "grass", URL: c.URL() + "/type/12/"},
				{Name: "water", URL: c.URL() + "/type/11/"},
			},
		})
	case len(segments) == 2 && segments[0] == "type":
		c.serveType(w, segments[1])
	case len(segments) == 2 && segments[0] == "generation":
		c.serveGeneration(w, segments[1])
	default:
		http.NotFound(w, r)
	}
}

func (c *Catalog) servePokemonList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	results := []dex.NamedAPIResource{}
	for id := offset + 1; id <= min(offset+limit, c.Size); id++ {
		results = append(results, c.ref("pokemon", id))
	}

	writeJSON(w, dex.ListResponse{Count: c.Size, Results: results})
}

func (c *Catalog) servePokemon(w http.ResponseWriter, key string) {
	id, err := strconv.Atoi(key)
	if err != nil {
		id, err = strconv.Atoi(strings.TrimPrefix(key, "mon"))
	}

	if err != nil || id < 1 || id > c.Size {
		w.WriteHeader(http.StatusNotFound)

		return
	}

	writeJSON(w, c.Resource(id))
}

func (c *Catalog) serveType(w http.ResponseWriter, name string) {
	detail := dex.TypeDetail{Name: name}

	for id := 1; id <= c.Size; id++ {
		if c.Resource(id).HasType(name) {
			detail.Pokemon = append(detail.Pokemon, dex.TypeMember{Pokemon: c.ref("pokemon", id), Slot: 1})
		}
	}

	if len(detail.Pokemon) == 0 {
		w.WriteHeader(http.StatusNotFound)

		return
	}

	writeJSON(w, detail)
}

func (c *Catalog) serveGeneration(w http.ResponseWriter, key string) {
	half := c.Size / 2

	var first, last int

	switch key {
	case "1", "generation-i":
		first, last = 1, half
	case "2", "generation-ii":
		first, last = half+1, c.Size
	default:
		w.WriteHeader(http.StatusNotFound)

		return
	}

	generation := dex.Generation{Name: key}
	// Species are listed newest first so callers must order them.
	for id := last; id >= first; id-- {
		generation.PokemonSpecies = append(generation.PokemonSpecies, c.ref("pokemon-species", id))
	}

	writeJSON(w, generation)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
