package dex

import (
	"context"
	"time"
)

// CatalogClient is the capability the Store needs from the remote catalog.
type CatalogClient interface {
	// ListResources returns one page of fully resolved resources. Type and
	// generation filters select the candidate set on the server; the name
	// and height/weight filters are applied to the resolved page, so Count
	// reflects the unfiltered candidate set.
	ListResources(ctx context.Context, limit, offset int, filters Filters) (*ResourcePage, error)
	// GetResource returns one resource by id.
	GetResource(ctx context.Context, id int) (*Resource, error)
	// ListCategories returns the names of every type category.
	ListCategories(ctx context.Context) ([]string, error)
}

// PokemonClient reads individual resources and the plain listing.
type PokemonClient interface {
	Get(ctx context.Context, idOrName string) (*Resource, error)
	List(ctx context.Context, limit, offset int) (*ListResponse, error)
}

// TypesClient reads type categories and their members.
type TypesClient interface {
	List(ctx context.Context) (*ListResponse, error)
	Get(ctx context.Context, name string) (*TypeDetail, error)
}

// GenerationsClient reads generations and the species they introduce.
type GenerationsClient interface {
	Get(ctx context.Context, idOrName string) (*Generation, error)
}

// Client is the full catalog client.
type Client interface {
	CatalogClient

	Pokemon() PokemonClient
	Types() TypesClient
	Generations() GenerationsClient
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// NoopLogger discards every entry.
type NoopLogger struct{}

func (NoopLogger) Debug(string, map[string]interface{}) {}
func (NoopLogger) Info(string, map[string]interface{})  {}
func (NoopLogger) Warn(string, map[string]interface{})  {}
func (NoopLogger) Error(string, map[string]interface{}) {}

// Config holds client configuration.
type Config struct {
	// APIEndpoint: base URL of the catalog (e.g., "https://pokeapi.co/api/v2").
	// dexclient.New trims a trailing slash and adds "https://" when no scheme
	// is present.
	APIEndpoint string

	// HTTPTimeout: per-request timeout. Defaults to 10s.
	HTTPTimeout time.Duration
	// RetryMax: retries for transient failures. 0 disables retries, which is
	// the default; failures surface to the caller, who may retry explicitly.
	RetryMax int
	// RetryWaitMin: minimum backoff between retries. Applied when RetryMax > 0.
	RetryWaitMin time.Duration
	// RetryWaitMax: maximum backoff between retries. Applied when RetryMax > 0.
	RetryWaitMax time.Duration
	// Concurrency: maximum records resolved in parallel per page.
	Concurrency int
	// Debug: enables verbose HTTP request/response logging when a Logger is provided.
	Debug bool
	// Logger: optional structured logger used by the HTTP layer and helpers.
	Logger Logger
	// UserAgent: sent with every request.
	UserAgent string
	// Interceptors: extra request/response hooks appended after the defaults.
	Interceptors *InterceptorChain
}
