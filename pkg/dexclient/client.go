package dexclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/dex/internal/client"
	"github.com/fivetwenty-io/dex/internal/constants"
	"github.com/fivetwenty-io/dex/pkg/dex"
)

// New creates a catalog client. An empty APIEndpoint selects the public
// catalog. The config is copied, not modified.
func New(ctx context.Context, config *dex.Config) (dex.Client, error) {
	if config == nil {
		return nil, dex.ErrConfigRequired
	}

	cfg := *config
	cfg.APIEndpoint = NormalizeEndpoint(cfg.APIEndpoint)

	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = constants.DefaultHTTPTimeout
	}

	cfg.Interceptors = buildInterceptors(&cfg)

	c, err := client.New(ctx, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// NormalizeEndpoint trims a trailing slash and adds "https://" when no
// scheme is present.
func NormalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSuffix(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return constants.DefaultAPIEndpoint
	}

	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	return endpoint
}

// buildInterceptors stamps request IDs, logs when a logger is configured and
// then runs the caller's interceptors.
func buildInterceptors(config *dex.Config) *dex.InterceptorChain {
	chain := dex.NewInterceptorChain()
	chain.AddRequestInterceptor(dex.RequestIDInterceptor())

	if config.Logger != nil {
		chain.AddRequestInterceptor(dex.LoggingInterceptor(config.Logger))
		chain.AddResponseInterceptor(dex.LoggingResponseInterceptor(config.Logger))
	}

	chain.Merge(config.Interceptors)

	return chain
}
