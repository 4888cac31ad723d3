package client

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/fivetwenty-io/dex/internal/constants"
	"github.com/fivetwenty-io/dex/pkg/dex"
)

// ListResources implements dex.CatalogClient.ListResources.
//
// A type or generation filter selects candidates from /type/{name} or
// /generation/{id}; otherwise the plain /pokemon listing is paged on the
// server. Every reference on the page is then resolved through
// /pokemon/{id}, and the name and height/weight filters are applied to the
// resolved records. Count is the size of the candidate set before those
// filters.
func (c *Client) ListResources(ctx context.Context, limit, offset int, filters dex.Filters) (*dex.ResourcePage, error) {
	if limit <= 0 {
		limit = constants.DefaultPageSize
	}

	offset = max(offset, 0)

	var (
		refs  []dex.NamedAPIResource
		count int
	)

	if filters.Type != "" || filters.Generation != "" {
		candidates, err := c.candidates(ctx, filters)
		if err != nil {
			return nil, err
		}

		count = len(candidates)
		refs = window(candidates, offset, limit)
	} else {
		list, err := c.pokemon.List(ctx, limit, offset)
		if err != nil {
			return nil, err
		}

		count = list.Count
		refs = list.Results
	}

	resources, err := c.resolve(ctx, refs)
	if err != nil {
		return nil, err
	}

	results := slices.DeleteFunc(resources, func(r dex.Resource) bool {
		return !filters.MatchesLocal(r)
	})

	page := &dex.ResourcePage{
		Results: results,
		Count:   count,
	}

	if offset+limit < count {
		page.Next = pageMarker(limit, offset+limit)
	}

	if offset > 0 {
		page.Previous = pageMarker(limit, max(offset-limit, 0))
	}

	c.logger.Debug("Listed resources", map[string]interface{}{
		"limit":    limit,
		"offset":   offset,
		"count":    count,
		"returned": len(results),
	})

	return page, nil
}

// GetResource implements dex.CatalogClient.GetResource.
func (c *Client) GetResource(ctx context.Context, id int) (*dex.Resource, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: %d", dex.ErrInvalidResourceID, id)
	}

	return c.pokemon.Get(ctx, strconv.Itoa(id))
}

// ListCategories implements dex.CatalogClient.ListCategories.
func (c *Client) ListCategories(ctx context.Context) ([]string, error) {
	list, err := c.types.List(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(list.Results))
	for _, ref := range list.Results {
		names = append(names, ref.Name)
	}

	return names, nil
}

// candidates returns the ordered references selected by the type and
// generation filters. With both set, type member order is kept and members
// outside the generation are dropped.
func (c *Client) candidates(ctx context.Context, filters dex.Filters) ([]dex.NamedAPIResource, error) {
	var generationRefs []dex.NamedAPIResource

	if filters.Generation != "" {
		generation, err := c.generations.Get(ctx, filters.Generation)
		if err != nil {
			return nil, err
		}

		generationRefs = speciesByID(generation.PokemonSpecies)
	}

	if filters.Type == "" {
		return generationRefs, nil
	}

	detail, err := c.types.Get(ctx, filters.Type)
	if err != nil {
		return nil, err
	}

	members := make([]dex.NamedAPIResource, 0, len(detail.Pokemon))
	for _, member := range detail.Pokemon {
		members = append(members, member.Pokemon)
	}

	if filters.Generation == "" {
		return members, nil
	}

	inGeneration := make(map[int]bool, len(generationRefs))
	for _, ref := range generationRefs {
		id, _ := ref.ID()
		inGeneration[id] = true
	}

	return slices.DeleteFunc(members, func(ref dex.NamedAPIResource) bool {
		id, err := ref.ID()

		return err != nil || !inGeneration[id]
	}), nil
}

// speciesByID orders species references by id. Species share ids with their
// default form, so the result addresses /pokemon/{id} directly.
func speciesByID(species []dex.NamedAPIResource) []dex.NamedAPIResource {
	type ranked struct {
		id  int
		ref dex.NamedAPIResource
	}

	sorted := make([]ranked, 0, len(species))

	for _, ref := range species {
		id, err := ref.ID()
		if err != nil {
			continue
		}

		sorted = append(sorted, ranked{id: id, ref: ref})
	}

	slices.SortFunc(sorted, func(a, b ranked) int {
		return a.id - b.id
	})

	out := make([]dex.NamedAPIResource, 0, len(sorted))
	for _, r := range sorted {
		out = append(out, r.ref)
	}

	return out
}

// resolve fetches the full record of every reference concurrently, keeping
// input order. The first failure cancels the rest and fails the batch.
func (c *Client) resolve(ctx context.Context, refs []dex.NamedAPIResource) ([]dex.Resource, error) {
	resources := make([]dex.Resource, len(refs))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.concurrency)

	for i, ref := range refs {
		group.Go(func() error {
			key := ref.Name
			if id, err := ref.ID(); err == nil {
				key = strconv.Itoa(id)
			}

			resource, err := c.pokemon.Get(groupCtx, key)
			if err != nil {
				return err
			}

			resources[i] = *resource

			return nil
		})
	}

	err := group.Wait()
	if err != nil {
		return nil, fmt.Errorf("resolving resources: %w", err)
	}

	return resources, nil
}

func window(refs []dex.NamedAPIResource, offset, limit int) []dex.NamedAPIResource {
	if offset >= len(refs) {
		return nil
	}

	return refs[offset:min(offset+limit, len(refs))]
}

func pageMarker(limit, offset int) *string {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))
	marker := query.Encode()

	return &marker
}
