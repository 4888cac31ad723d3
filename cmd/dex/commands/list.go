package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fivetwenty-io/dex/internal/constants"
	"github.com/fivetwenty-io/dex/pkg/dex"
)

// listOptions holds the flags of the list command.
type listOptions struct {
	query      string
	page       int
	pages      int
	name       string
	category   string
	generation string
	minHeight  float64
	maxHeight  float64
	minWeight  float64
	maxWeight  float64
	sort       string
	favorites  bool
	printQuery bool
	preload    bool
	retry      bool
}

// listResult is the structured output of the list command.
type listResult struct {
	Query      string         `json:"query"       yaml:"query"`
	Page       int            `json:"page"        yaml:"page"`
	TotalPages int            `json:"total_pages" yaml:"total_pages"`
	TotalCount int            `json:"total_count" yaml:"total_count"`
	HasMore    bool           `json:"has_more"    yaml:"has_more"`
	Results    []dex.Resource `json:"results"     yaml:"results"`
}

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List catalog resources",
		Long: `List one page of the catalog, optionally filtered and sorted.

Filters can be given as flags or as a shareable query string
(for example --query "type=fire&sort=height-desc&page=2"). Flags win over
the query string.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := opts.viewState(cmd.Flags())
			if err != nil {
				return err
			}

			if opts.printQuery {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), view.Encode())

				return err
			}

			return runList(commandContext(cmd), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts, view)
		},
	}

	flags := cmd.Flags()
	addViewFlags(flags, opts)
	flags.IntVar(&opts.pages, "pages", 1, "number of consecutive pages to load")
	flags.BoolVar(&opts.printQuery, "print-query", false, "print the view as a query string and exit")
	flags.BoolVar(&opts.preload, "preload", false, "prefetch the following page into the cache")
	flags.BoolVar(&opts.retry, "retry", false, "retry once when the fetch fails")

	return cmd
}

// addViewFlags registers the flags that describe page, filters and sort.
func addViewFlags(flags *pflag.FlagSet, opts *listOptions) {
	flags.StringVarP(&opts.query, "query", "q", "", "view state as a URL query string")
	flags.IntVar(&opts.page, "page", 1, "page to show")
	flags.StringVar(&opts.name, "name", "", "case-insensitive name substring")
	flags.StringVar(&opts.category, "type", "", "category tag (e.g. fire)")
	flags.StringVar(&opts.generation, "generation", "", "generation ID or name")
	flags.Float64Var(&opts.minHeight, "min-height", 0, "minimum height in metres")
	flags.Float64Var(&opts.maxHeight, "max-height", 0, "maximum height in metres")
	flags.Float64Var(&opts.minWeight, "min-weight", 0, "minimum weight in kilograms")
	flags.Float64Var(&opts.maxWeight, "max-weight", 0, "maximum weight in kilograms")
	flags.StringVar(&opts.sort, "sort", "", "sort as field-direction (name, id, height, weight; asc or desc)")
	flags.BoolVar(&opts.favorites, "favorites", false, "show favorites instead of the catalog")
}

// viewState merges the query string with explicitly set flags.
//
//nolint:cyclop // one branch per flag
func (o *listOptions) viewState(flags *pflag.FlagSet) (dex.ViewState, error) {
	view := dex.ParseViewQuery(o.query)

	if flags.Changed("page") {
		if o.page < 1 {
			return view, fmt.Errorf("%w: %d", constants.ErrInvalidPage, o.page)
		}

		view.Page = o.page
	}

	if flags.Changed("name") {
		view.Filters.Name = o.name
	}

	if flags.Changed("type") {
		view.Filters.Type = o.category
	}

	if flags.Changed("generation") {
		view.Filters.Generation = o.generation
	}

	if flags.Changed("min-height") {
		view.Filters.MinHeight = dex.Float(o.minHeight)
	}

	if flags.Changed("max-height") {
		view.Filters.MaxHeight = dex.Float(o.maxHeight)
	}

	if flags.Changed("min-weight") {
		view.Filters.MinWeight = dex.Float(o.minWeight)
	}

	if flags.Changed("max-weight") {
		view.Filters.MaxWeight = dex.Float(o.maxWeight)
	}

	if flags.Changed("sort") {
		sort, err := dex.ParseSortConfig(o.sort)
		if err != nil {
			return view, fmt.Errorf("%w: %s", err, o.sort)
		}

		view.Sort = sort
	}

	view.Filters = view.Filters.Normalize()

	return view, nil
}

func runList(ctx context.Context, out, errOut io.Writer, opts *listOptions, view dex.ViewState) error {
	s, err := newSession(ctx, errOut)
	if err != nil {
		return err
	}
	defer s.Close()

	s.store.SetFilters(view.Filters)

	err = s.store.SetSort(view.Sort)
	if err != nil {
		return err
	}

	if opts.favorites {
		return renderList(out, s.store, s.store.DisplayList(true), view)
	}

	err = s.store.FetchList(ctx, view.Page, view.Filters, false)
	if err != nil && opts.retry {
		s.logger.Warn("Retrying list fetch", map[string]interface{}{"error": err.Error()})
		err = s.store.Retry(ctx)
	}

	if err != nil {
		return fmt.Errorf("failed to list resources: %w", err)
	}

	for range opts.pages - 1 {
		if !s.store.State().HasMore {
			break
		}

		err = s.store.LoadNextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to load next page: %w", err)
		}
	}

	if opts.preload {
		_, err = s.store.PreloadNextPage(ctx)
		if err != nil {
			s.logger.Warn("Preload failed", map[string]interface{}{"error": err.Error()})
		}

		stats := s.store.CacheStats()
		s.logger.Info("Cache", map[string]interface{}{"resources": stats.Resources, "pages": stats.Pages})
	}

	return renderList(out, s.store, s.store.SortedList(), view)
}

func renderList(out io.Writer, store *dex.Store, resources []dex.Resource, view dex.ViewState) error {
	state := store.State()
	view.Page = state.CurrentPage

	result := listResult{
		Query:      view.Encode(),
		Page:       state.CurrentPage,
		TotalPages: state.TotalPages,
		TotalCount: state.TotalCount,
		HasMore:    state.HasMore,
		Results:    resources,
	}

	handled, err := renderStructured(out, outputFormat(), result)
	if handled {
		return err
	}

	err = renderResourceTable(out, resources, state)
	if err != nil {
		return err
	}

	if state.TotalCount > 0 {
		_, _ = fmt.Fprintf(out, "Page %d of %d (%d total)\n", state.CurrentPage, state.TotalPages, state.TotalCount)
	}

	if state.HasMore && state.TotalCount > 0 {
		_, _ = fmt.Fprintf(out, "Next: dex list --query %q\n", nextQuery(view))
	}

	return nil
}

func nextQuery(view dex.ViewState) string {
	view.Page++

	return view.Encode()
}
