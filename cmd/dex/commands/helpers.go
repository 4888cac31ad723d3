package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/dex/internal/constants"
	"github.com/fivetwenty-io/dex/pkg/dex"
	"github.com/fivetwenty-io/dex/pkg/dexclient"
)

// Common string constants used throughout the commands package.
const (
	NotAvailable = "N/A"
	Yes          = "yes"
	FavoriteMark = "*"

	// JSON formatting.
	defaultJSONIndent = 2
)

// Common static errors used throughout the commands package.
var (
	ErrResourceNotFavorite = errors.New("resource is not a favorite")
	ErrNameOrIDRequired    = errors.New("resource name or ID is required")
)

// session bundles what a command needs to talk to the catalog.
type session struct {
	client    dex.Client
	store     *dex.Store
	favorites *dex.FavoritesStore
	storage   dex.Storage
	logger    dex.Logger
}

// Close releases the storage backend.
func (s *session) Close() {
	err := dex.CloseStorage(s.storage)
	if err != nil {
		s.logger.Warn("Failed to close storage", map[string]interface{}{"error": err.Error()})
	}
}

// clientConfigFromViper builds the catalog client configuration from flags,
// environment and the config file.
func clientConfigFromViper(logger dex.Logger) *dex.Config {
	config := &dex.Config{
		APIEndpoint:  viper.GetString("api"),
		HTTPTimeout:  viper.GetDuration("timeout"),
		RetryMax:     viper.GetInt("retry_max"),
		RetryWaitMin: constants.DefaultRetryWaitMin,
		RetryWaitMax: constants.DefaultRetryWaitMax,
		Concurrency:  viper.GetInt("concurrency"),
		Debug:        viper.GetBool("verbose"),
		UserAgent:    constants.DefaultUserAgent,
	}

	if config.Debug {
		config.Logger = logger
	}

	return config
}

// storageConfigFromViper reads the favorites backend settings.
func storageConfigFromViper() *dex.StorageConfig {
	config := &dex.StorageConfig{
		Type: dex.StorageType(viper.GetString("storage.type")),
		Path: viper.GetString("storage.path"),
	}

	if config.Type == dex.StorageTypeNATS {
		bucket := viper.GetString("storage.bucket")
		if bucket == "" {
			bucket = constants.DefaultNATSBucket
		}

		config.NATS = &dex.NATSKVConfig{
			URL:     viper.GetString("storage.nats_url"),
			Bucket:  bucket,
			Timeout: constants.ShortHTTPTimeout,
		}
	}

	return config
}

// createClient creates a catalog client from the current configuration.
func createClient(ctx context.Context, logger dex.Logger) (dex.Client, error) {
	client, err := dexclient.New(ctx, clientConfigFromViper(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}

// commandLogger writes to the command's stderr, at debug level when verbose.
func commandLogger(cmd *cobra.Command) *cliLogger {
	return newCLILogger(cmd.ErrOrStderr(), viper.GetBool("verbose"))
}

// newSession wires client, storage, favorites and store from configuration.
func newSession(ctx context.Context, errOut io.Writer) (*session, error) {
	logger := newCLILogger(errOut, viper.GetBool("verbose"))

	client, err := createClient(ctx, logger)
	if err != nil {
		return nil, err
	}

	storage, err := dex.NewStorageFromConfig(ctx, storageConfigFromViper())
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	favorites := dex.NewFavoritesStore(storage, logger)

	opts := []dex.StoreOption{
		dex.WithFavorites(favorites),
		dex.WithStoreLogger(logger),
	}

	if pageSize := viper.GetInt("page_size"); pageSize > 0 {
		opts = append(opts, dex.WithPageSize(pageSize))
	}

	store, err := dex.NewStore(ctx, client, opts...)
	if err != nil {
		_ = dex.CloseStorage(storage)

		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	return &session{
		client:    client,
		store:     store,
		favorites: favorites,
		storage:   storage,
		logger:    logger,
	}, nil
}

// outputFormat returns the configured output format, defaulting to table.
func outputFormat() string {
	format := strings.ToLower(viper.GetString("output"))
	if format == "" {
		return constants.FormatTable
	}

	return format
}

func validateOutputFormat(format string) error {
	switch format {
	case constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
		return nil
	default:
		return fmt.Errorf("%w: %s (use table, json or yaml)", constants.ErrInvalidOutputFormat, format)
	}
}

// renderStructured writes data as JSON or YAML. It reports false for the
// table format so the caller renders its own table.
func renderStructured(w io.Writer, format string, data interface{}) (bool, error) {
	switch format {
	case constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", strings.Repeat(" ", defaultJSONIndent))

		err := encoder.Encode(data)
		if err != nil {
			return true, fmt.Errorf("failed to encode JSON: %w", err)
		}

		return true, nil
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(w)

		err := encoder.Encode(data)
		if err != nil {
			return true, fmt.Errorf("failed to encode YAML: %w", err)
		}

		return true, encoder.Close()
	default:
		return false, nil
	}
}

func renderTable(table *tablewriter.Table) error {
	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// renderResourceTable writes one row per resource.
func renderResourceTable(w io.Writer, resources []dex.Resource, state dex.State) error {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Name", "Types", "Height (m)", "Weight (kg)", "Fav")

	for _, r := range resources {
		favorite := ""
		if state.IsFavorite(r.ID) {
			favorite = FavoriteMark
		}

		_ = table.Append([]string{
			r.DisplayID(),
			r.DisplayName(),
			formatTypes(r),
			formatMeasure(r.HeightMeters()),
			formatMeasure(r.WeightKilograms()),
			favorite,
		})
	}

	return renderTable(table)
}

func formatTypes(r dex.Resource) string {
	names := r.TypeNames()
	if len(names) == 0 {
		return NotAvailable
	}

	return strings.Join(names, ", ")
}

func formatMeasure(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// parseResourceID parses a positive numeric resource ID.
func parseResourceID(arg string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(arg), "#"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", constants.ErrInvalidResourceID, arg)
	}

	return id, nil
}

// resolveResource finds a resource by ID through the store, or by name
// through the catalog.
func resolveResource(ctx context.Context, s *session, arg string) (*dex.Resource, error) {
	if strings.TrimSpace(arg) == "" {
		return nil, ErrNameOrIDRequired
	}

	id, err := parseResourceID(arg)
	if err == nil {
		return s.store.FetchDetail(ctx, id)
	}

	resource, err := s.client.Pokemon().Get(ctx, strings.ToLower(strings.TrimSpace(arg)))
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", arg, err)
	}

	s.store.Dispatch(dex.CacheResource{Resource: *resource})

	return resource, nil
}
