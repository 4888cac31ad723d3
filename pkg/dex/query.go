package dex

import (
	"net/url"
	"strconv"
	"strings"
)

// Query keys for view state that are not filters.
const (
	KeyPage  = "page"
	KeySort  = "sort"
	KeyOrder = "order"
)

// ViewState is the shareable part of a browsing session: page, filters and sort.
type ViewState struct {
	Page    int        `json:"page"    yaml:"page"`
	Filters Filters    `json:"filters" yaml:"filters"`
	Sort    SortConfig `json:"sort"    yaml:"sort"`
}

// DefaultViewState is page 1, no filters, default sort.
func DefaultViewState() ViewState {
	return ViewState{Page: 1, Sort: DefaultSortConfig()}
}

// ParseViewQuery reads view state from a URL query string, with or without a
// leading "?". Parsing is best-effort: malformed values fall back to their
// defaults and never produce an error.
func ParseViewQuery(raw string) ViewState {
	// ParseQuery keeps every pair it could decode alongside the error.
	values, _ := url.ParseQuery(strings.TrimPrefix(strings.TrimSpace(raw), "?"))

	return ViewStateFromValues(values)
}

// ViewStateFromValues is ParseViewQuery for already decoded values.
func ViewStateFromValues(values url.Values) ViewState {
	view := DefaultViewState()

	if page, err := strconv.Atoi(values.Get(KeyPage)); err == nil && page >= 1 {
		view.Page = page
	}

	view.Filters = FiltersFromValues(values).Normalize()

	rawSort := values.Get(KeySort)
	if order := values.Get(KeyOrder); order != "" && rawSort != "" && !strings.Contains(rawSort, "-") {
		rawSort += "-" + order
	}

	if rawSort != "" {
		if sort, err := ParseSortConfig(rawSort); err == nil {
			view.Sort = sort
		}
	}

	return view
}

// Values serializes the view, omitting the first page and the default sort.
func (v ViewState) Values() url.Values {
	values := v.Filters.Values()

	if v.Page > 1 {
		values.Set(KeyPage, strconv.Itoa(v.Page))
	}

	if v.Sort != (SortConfig{}) && !v.Sort.IsDefault() {
		values.Set(KeySort, v.Sort.String())
	}

	return values
}

// Encode returns the query string without a leading "?".
func (v ViewState) Encode() string {
	return v.Values().Encode()
}
