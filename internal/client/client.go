package client

import (
	"context"
	"errors"

	"github.com/fivetwenty-io/dex/internal/constants"
	"github.com/fivetwenty-io/dex/internal/http"
	"github.com/fivetwenty-io/dex/pkg/dex"
)

// Static errors for err113 compliance.
var (
	ErrAPIEndpointRequired = errors.New("API endpoint is required")
)

// Client implements the dex.Client interface.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	logger      dex.Logger
	concurrency int

	// Resource clients
	pokemon     *PokemonClient
	types       *TypesClient
	generations *GenerationsClient
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *dex.Config) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.HTTPTimeout))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	if config.Interceptors != nil {
		httpOpts = append(httpOpts, http.WithInterceptors(config.Interceptors))
	}

	return httpOpts
}

// New creates a new catalog client.
func New(ctx context.Context, config *dex.Config) (*Client, error) {
	if config == nil {
		return nil, dex.ErrConfigRequired
	}

	if config.APIEndpoint == "" {
		return nil, ErrAPIEndpointRequired
	}

	httpClient := http.NewClient(config.APIEndpoint, createHTTPClientOptions(config)...)

	concurrency := config.Concurrency
	if concurrency <= 0 {
		concurrency = constants.DefaultConcurrencyLimit
	}

	logger := config.Logger
	if logger == nil {
		logger = dex.NoopLogger{}
	}

	client := &Client{
		httpClient:  httpClient,
		baseURL:     httpClient.BaseURL(),
		logger:      logger,
		concurrency: concurrency,
		pokemon:     NewPokemonClient(httpClient),
		types:       NewTypesClient(httpClient),
		generations: NewGenerationsClient(httpClient),
	}

	return client, nil
}

// BaseURL returns the catalog endpoint.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Pokemon implements dex.Client.Pokemon.
func (c *Client) Pokemon() dex.PokemonClient {
	return c.pokemon
}

// Types implements dex.Client.Types.
func (c *Client) Types() dex.TypesClient {
	return c.types
}

// Generations implements dex.Client.Generations.
func (c *Client) Generations() dex.GenerationsClient {
	return c.generations
}
