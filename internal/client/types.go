package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/fivetwenty-io/dex/internal/http"
	"github.com/fivetwenty-io/dex/pkg/dex"
)

// TypesClient implements dex.TypesClient.
type TypesClient struct {
	httpClient *http.Client
}

// NewTypesClient creates a new types client.
func NewTypesClient(httpClient *http.Client) *TypesClient {
	return &TypesClient{
		httpClient: httpClient,
	}
}

// List implements dex.TypesClient.List.
func (c *TypesClient) List(ctx context.Context) (*dex.ListResponse, error) {
	resp, err := c.httpClient.Get(ctx, "/type", nil)
	if err != nil {
		return nil, fmt.Errorf("listing types: %w", err)
	}

	var list dex.ListResponse

	err = json.Unmarshal(resp.Body, &list)
	if err != nil {
		return nil, fmt.Errorf("parsing types list: %w", err)
	}

	return &list, nil
}

// Get implements dex.TypesClient.Get.
func (c *TypesClient) Get(ctx context.Context, name string) (*dex.TypeDetail, error) {
	path := "/type/" + url.PathEscape(strings.ToLower(name))

	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("getting type %s: %w", name, err)
	}

	var detail dex.TypeDetail

	err = json.Unmarshal(resp.Body, &detail)
	if err != nil {
		return nil, fmt.Errorf("parsing type: %w", err)
	}

	return &detail, nil
}
