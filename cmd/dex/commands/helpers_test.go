package commands

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/dex/internal/testutil"
	"github.com/fivetwenty-io/dex/pkg/dex"
	"github.com/fivetwenty-io/dex/pkg/dexclient"
)

// useViper replaces the global configuration for one test. Tests calling it
// must not run in parallel.
func useViper(t *testing.T, settings map[string]interface{}) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	for key, value := range settings {
		viper.Set(key, value)
	}
}

// execute runs cmd with args and returns its standard output.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)

	err := cmd.Execute()

	return out.String(), err
}

// newTestStore builds a store over a fake catalog with in-memory favorites.
func newTestStore(t *testing.T, size int) *dex.Store {
	t.Helper()

	ctx := context.Background()
	catalog := testutil.NewCatalog(t, size)

	client, err := dexclient.New(ctx, &dex.Config{APIEndpoint: catalog.URL()})
	require.NoError(t, err)

	favorites := dex.NewFavoritesStore(dex.NewMemoryStorage(), nil)

	store, err := dex.NewStore(ctx, client, dex.WithFavorites(favorites))
	require.NoError(t, err)

	return store
}

// findSubcommand finds a subcommand by name within a cobra command.
func findSubcommand(cmd *cobra.Command, name string) *cobra.Command {
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return c
		}
	}

	return nil
}
