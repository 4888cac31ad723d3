package commands

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/dex/internal/constants"
	"github.com/fivetwenty-io/dex/internal/testutil"
	"github.com/fivetwenty-io/dex/pkg/dex"
)

func TestCommandStructure(t *testing.T) {
	t.Parallel()

	list := NewListCommand()
	assert.Equal(t, "list", list.Use)
	assert.Equal(t, []string{"ls"}, list.Aliases)

	for _, flagName := range []string{"query", "page", "pages", "name", "type", "generation",
		"min-height", "max-height", "min-weight", "max-weight", "sort", "favorites", "print-query", "preload", "retry"} {
		assert.NotNil(t, list.Flags().Lookup(flagName), "Flag %s should exist", flagName)
	}

	browse := NewBrowseCommand()
	assert.NotNil(t, browse.Flags().Lookup("type"))
	assert.Nil(t, browse.Flags().Lookup("print-query"))

	favorites := NewFavoritesCommand()
	for _, name := range []string{"list", "add", "remove", "toggle", "clear"} {
		assert.NotNil(t, findSubcommand(favorites, name), "subcommand %s should exist", name)
	}

	config := NewConfigCommand()
	for _, name := range []string{"show", "set", "unset"} {
		assert.NotNil(t, findSubcommand(config, name), "subcommand %s should exist", name)
	}

	types := NewTypesCommand()
	assert.Len(t, types.Commands(), 2)

	get := NewGetCommand()
	assert.Equal(t, "get ID_OR_NAME", get.Use)
	assert.NotNil(t, get.Args)
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestListOptionsViewState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr error
	}{
		{name: "defaults", args: nil, want: ""},
		{name: "query only", args: []string{"--query", "?type=fire&page=2"}, want: "page=2&type=fire"},
		{
			name: "flags override query",
			args: []string{"--query", "type=fire&page=2", "--type", "water", "--page", "3"},
			want: "page=3&type=water",
		},
		{
			name: "bounds are normalized",
			args: []string{"--min-height", "5", "--max-height", "2"},
			want: "maxHeight=2&minHeight=2",
		},
		{name: "sort flag", args: []string{"--sort", "weight-desc"}, want: "sort=weight-desc"},
		{name: "bad sort", args: []string{"--sort", "color"}, wantErr: dex.ErrInvalidSortField},
		{name: "bad page", args: []string{"--page", "0"}, wantErr: constants.ErrInvalidPage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := &listOptions{}
			flags := pflag.NewFlagSet("view", pflag.ContinueOnError)
			addViewFlags(flags, opts)
			require.NoError(t, flags.Parse(tt.args))

			view, err := opts.viewState(flags)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, view.Encode())
		})
	}
}

func TestParseResourceID(t *testing.T) {
	t.Parallel()

	id, err := parseResourceID("#025")
	require.NoError(t, err)
	assert.Equal(t, 25, id)

	for _, arg := range []string{"pikachu", "0", "-4", ""} {
		_, err = parseResourceID(arg)
		require.ErrorIs(t, err, constants.ErrInvalidResourceID, arg)
	}
}

func TestListCommand_PrintQuery(t *testing.T) {
	useViper(t, nil)

	out, err := execute(t, NewListCommand(), "--query", "q=char&page=2", "--sort", "height-desc", "--print-query")
	require.NoError(t, err)
	assert.Equal(t, "name=char&page=2&sort=height-desc\n", out)
}

func TestListCommand_JSON(t *testing.T) {
	catalog := testutil.NewCatalog(t, 30)
	useViper(t, map[string]interface{}{
		"api":          catalog.URL(),
		"output":       constants.FormatJSON,
		"storage.type": string(dex.StorageTypeMemory),
	})

	out, err := execute(t, NewListCommand(), "--type", "fire", "--sort", "id-desc")
	require.NoError(t, err)

	var result listResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))

	assert.Equal(t, 10, result.TotalCount)
	assert.Equal(t, 1, result.TotalPages)
	assert.False(t, result.HasMore)
	assert.Equal(t, "sort=id-desc&type=fire", result.Query)
	require.Len(t, result.Results, 10)
	assert.Equal(t, 30, result.Results[0].ID)
	assert.Equal(t, 3, result.Results[9].ID)
}

func TestListCommand_TableAndPages(t *testing.T) {
	catalog := testutil.NewCatalog(t, 45)
	useViper(t, map[string]interface{}{
		"api":          catalog.URL(),
		"storage.type": string(dex.StorageTypeMemory),
		"page_size":    10,
	})

	out, err := execute(t, NewListCommand(), "--pages", "2", "--sort", "id-asc")
	require.NoError(t, err)

	assert.Contains(t, out, "#001")
	assert.Contains(t, out, "#020")
	assert.NotContains(t, out, "#021")
	assert.Contains(t, out, "Page 2 of 5 (45 total)")
	assert.Contains(t, out, `Next: dex list --query "page=3&sort=id-asc"`)
}

func TestListCommand_Error(t *testing.T) {
	catalog := testutil.NewCatalog(t, 30)
	catalog.FailPath("/type/fire", 500)
	useViper(t, map[string]interface{}{
		"api":          catalog.URL(),
		"storage.type": string(dex.StorageTypeMemory),
	})

	_, err := execute(t, NewListCommand(), "--type", "fire", "--retry")
	require.Error(t, err)
	assert.True(t, dex.IsServerError(err))
	assert.Contains(t, err.Error(), dex.MessageServer)
	assert.Equal(t, 2, catalog.Requests("/type/fire"))
}

func TestGetCommand(t *testing.T) {
	catalog := testutil.NewCatalog(t, 10)
	useViper(t, map[string]interface{}{
		"api":          catalog.URL(),
		"storage.type": string(dex.StorageTypeMemory),
	})

	out, err := execute(t, NewGetCommand(), "6")
	require.NoError(t, err)
	assert.Contains(t, out, "#006")
	assert.Contains(t, out, "Mon6")
	assert.Contains(t, out, "solar-power (hidden)")

	viper.Set("output", constants.FormatYAML)

	out, err = execute(t, NewGetCommand(), "mon7")
	require.NoError(t, err)

	var detail map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &detail))
	assert.Equal(t, 7, detail["id"])
	assert.Equal(t, false, detail["favorite"])

	_, err = execute(t, NewGetCommand(), "99")
	require.Error(t, err)
	assert.True(t, dex.IsNotFound(err))
}

func TestFavoritesCommands(t *testing.T) {
	catalog := testutil.NewCatalog(t, 10)
	useViper(t, map[string]interface{}{
		"api":          catalog.URL(),
		"storage.type": string(dex.StorageTypeFile),
		"storage.path": t.TempDir(),
	})

	out, err := execute(t, NewFavoritesCommand(), "add", "3")
	require.NoError(t, err)
	assert.Equal(t, "#003 Mon3 added to favorites\n", out)

	_, err = execute(t, NewFavoritesCommand(), "toggle", "mon5")
	require.NoError(t, err)

	viper.Set("output", constants.FormatJSON)

	out, err = execute(t, NewFavoritesCommand(), "list", "--sort", "id-desc")
	require.NoError(t, err)

	var favorites []dex.Resource
	require.NoError(t, json.Unmarshal([]byte(out), &favorites))
	require.Len(t, favorites, 2)
	assert.Equal(t, 5, favorites[0].ID)
	assert.Equal(t, 3, favorites[1].ID)

	catalog.FailPath("/pokemon/3", 500)

	out, err = execute(t, NewFavoritesCommand(), "remove", "3")
	require.NoError(t, err, "removing by ID does not need the catalog")
	assert.Contains(t, out, `"favorite": false`)

	_, err = execute(t, NewFavoritesCommand(), "remove", "4")
	require.ErrorIs(t, err, ErrResourceNotFavorite)

	_, err = execute(t, NewFavoritesCommand(), "clear")
	require.NoError(t, err)

	out, err = execute(t, NewFavoritesCommand(), "list")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestTypesCommands(t *testing.T) {
	catalog := testutil.NewCatalog(t, 12)
	useViper(t, map[string]interface{}{"api": catalog.URL(), "output": constants.FormatJSON})

	out, err := execute(t, NewTypesCommand(), "list")
	require.NoError(t, err)

	var names []string
	require.NoError(t, json.Unmarshal([]byte(out), &names))
	assert.Equal(t, []string{"fire", "grass", "water"}, names)

	viper.Set("output", constants.FormatTable)

	out, err = execute(t, NewTypesCommand(), "get", "Fire")
	require.NoError(t, err)
	assert.Contains(t, out, "mon12")
	assert.Contains(t, out, "4 members")

	out, err = execute(t, NewGenerationsCommand(), "2")
	require.NoError(t, err)
	assert.Contains(t, out, "mon7")
	assert.NotContains(t, out, "mon6 ")
}

func TestVersionCommand(t *testing.T) {
	useViper(t, map[string]interface{}{"output": constants.FormatJSON})

	out, err := execute(t, NewVersionCommand("1.2.3", "abc", "today"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"1.2.3","commit":"abc","built":"today"}`, out)
}

func TestCLILogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := newCLILogger(&buf, false)
	logger.Debug("hidden", nil)
	logger.Warn("shown", map[string]interface{}{"b": 2, "a": 1})

	line := buf.String()
	assert.NotContains(t, line, "hidden")
	assert.Contains(t, line, "msg=shown")
	assert.Less(t, strings.Index(line, "a=1"), strings.Index(line, "b=2"))

	buf.Reset()
	newCLILogger(&buf, true).Debug("visible", map[string]interface{}{"page": 2})
	assert.Contains(t, buf.String(), "page=2")
}
