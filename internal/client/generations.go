package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/fivetwenty-io/dex/internal/http"
	"github.com/fivetwenty-io/dex/pkg/dex"
)

// GenerationsClient implements dex.GenerationsClient.
type GenerationsClient struct {
	httpClient *http.Client
}

// NewGenerationsClient creates a new generations client.
func NewGenerationsClient(httpClient *http.Client) *GenerationsClient {
	return &GenerationsClient{
		httpClient: httpClient,
	}
}

// Get implements dex.GenerationsClient.Get.
func (c *GenerationsClient) Get(ctx context.Context, idOrName string) (*dex.Generation, error) {
	path := "/generation/" + url.PathEscape(idOrName)

	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("getting generation %s: %w", idOrName, err)
	}

	var generation dex.Generation

	err = json.Unmarshal(resp.Body, &generation)
	if err != nil {
		return nil, fmt.Errorf("parsing generation: %w", err)
	}

	return &generation, nil
}
