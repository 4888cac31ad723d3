package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/fivetwenty-io/dex/internal/http"
	"github.com/fivetwenty-io/dex/pkg/dex"
)

// PokemonClient implements dex.PokemonClient.
type PokemonClient struct {
	httpClient *http.Client
}

// NewPokemonClient creates a new pokemon client.
func NewPokemonClient(httpClient *http.Client) *PokemonClient {
	return &PokemonClient{
		httpClient: httpClient,
	}
}

// Get implements dex.PokemonClient.Get.
func (c *PokemonClient) Get(ctx context.Context, idOrName string) (*dex.Resource, error) {
	path := "/pokemon/" + url.PathEscape(idOrName)

	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("getting pokemon %s: %w", idOrName, err)
	}

	var resource dex.Resource

	err = json.Unmarshal(resp.Body, &resource)
	if err != nil {
		return nil, fmt.Errorf("parsing pokemon: %w", err)
	}

	return &resource, nil
}

// List implements dex.PokemonClient.List.
func (c *PokemonClient) List(ctx context.Context, limit, offset int) (*dex.ListResponse, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	resp, err := c.httpClient.Get(ctx, "/pokemon", query)
	if err != nil {
		return nil, fmt.Errorf("listing pokemon: %w", err)
	}

	var list dex.ListResponse

	err = json.Unmarshal(resp.Body, &list)
	if err != nil {
		return nil, fmt.Errorf("parsing pokemon list: %w", err)
	}

	return &list, nil
}
