package dex

import (
	"maps"
	"slices"
)

// State is an immutable snapshot of the list/detail store. Reduce never
// mutates the maps or slices of an existing State, so snapshots may be shared
// but must be treated as read-only.
type State struct {
	List          []Resource            `json:"list"           yaml:"list"`
	Favorites     []Resource            `json:"favorites"      yaml:"favorites"`
	Details       map[int]Resource      `json:"-"              yaml:"-"`
	Pages         map[string][]Resource `json:"-"              yaml:"-"`
	PageCounts    map[string]int        `json:"-"              yaml:"-"`
	Loading       bool                  `json:"loading"        yaml:"loading"`
	DetailLoading bool                  `json:"detail_loading" yaml:"detail_loading"`
	Error         string                `json:"error,omitempty" yaml:"error,omitempty"`
	Filters       Filters               `json:"filters"        yaml:"filters"`
	Sort          SortConfig            `json:"sort"           yaml:"sort"`
	CurrentPage   int                   `json:"current_page"   yaml:"current_page"`
	TotalPages    int                   `json:"total_pages"    yaml:"total_pages"`
	TotalCount    int                   `json:"total_count"    yaml:"total_count"`
	HasMore       bool                  `json:"has_more"       yaml:"has_more"`
}

// InitialState returns the state of a fresh session.
func InitialState() State {
	return State{
		List:        []Resource{},
		Favorites:   []Resource{},
		Details:     map[int]Resource{},
		Pages:       map[string][]Resource{},
		PageCounts:  map[string]int{},
		Sort:        DefaultSortConfig(),
		CurrentPage: 1,
		HasMore:     true,
	}
}

// IsFavorite reports whether id is in the favorites set.
func (s State) IsFavorite(id int) bool {
	return containsID(s.Favorites, id)
}

// Action is a state transition handled by Reduce.
type Action interface {
	actionName() string
}

type (
	// SetLoading sets the list loading flag.
	SetLoading struct{ Loading bool }
	// SetDetailLoading sets the detail loading flag.
	SetDetailLoading struct{ Loading bool }
	// SetError replaces the active error message; empty clears it.
	SetError struct{ Message string }
	// SetList replaces the displayed list.
	SetList struct{ Resources []Resource }
	// AppendList appends to the displayed list.
	AppendList struct{ Resources []Resource }
	// CacheResource stores a resource in the detail cache, replacing any copy.
	CacheResource struct{ Resource Resource }
	// MergeResources adds resources to the detail cache, skipping cached ids.
	MergeResources struct{ Resources []Resource }
	// CachePage stores a page under its composite key together with the
	// result count reported for it.
	CachePage struct {
		Key       string
		Resources []Resource
		Count     int
	}
	// SetFavorites replaces the favorites set.
	SetFavorites struct{ Resources []Resource }
	// ToggleFavorite flips membership of a resource by id.
	ToggleFavorite struct{ Resource Resource }
	// SetFilters replaces the filters and resets pagination.
	SetFilters struct{ Filters Filters }
	// SetSort replaces the sort config and resets pagination.
	SetSort struct{ Sort SortConfig }
	// SetPage sets the current page.
	SetPage struct{ Page int }
	// SetTotalPages sets the page count.
	SetTotalPages struct{ TotalPages int }
	// SetHasMore sets the has-more flag.
	SetHasMore struct{ HasMore bool }
	// SetTotalCount sets the result count.
	SetTotalCount struct{ TotalCount int }
	// ClearCaches empties the list, the detail cache and the page cache.
	ClearCaches struct{}
)

func (SetLoading) actionName() string       { return "SetLoading" }
func (SetDetailLoading) actionName() string { return "SetDetailLoading" }
func (SetError) actionName() string         { return "SetError" }
func (SetList) actionName() string          { return "SetList" }
func (AppendList) actionName() string       { return "AppendList" }
func (CacheResource) actionName() string    { return "CacheResource" }
func (MergeResources) actionName() string   { return "MergeResources" }
func (CachePage) actionName() string        { return "CachePage" }
func (SetFavorites) actionName() string     { return "SetFavorites" }
func (ToggleFavorite) actionName() string   { return "ToggleFavorite" }
func (SetFilters) actionName() string       { return "SetFilters" }
func (SetSort) actionName() string          { return "SetSort" }
func (SetPage) actionName() string          { return "SetPage" }
func (SetTotalPages) actionName() string    { return "SetTotalPages" }
func (SetHasMore) actionName() string       { return "SetHasMore" }
func (SetTotalCount) actionName() string    { return "SetTotalCount" }
func (ClearCaches) actionName() string      { return "ClearCaches" }

// ActionName returns a stable name for logging.
func ActionName(action Action) string {
	if action == nil {
		return ""
	}

	return action.actionName()
}

// Reduce is the pure transition function. Unknown actions return state unchanged.
func Reduce(state State, action Action) State {
	switch a := action.(type) {
	case SetLoading:
		state.Loading = a.Loading
	case SetDetailLoading:
		state.DetailLoading = a.Loading
	case SetError:
		state.Error = a.Message
	case SetList:
		state.List = slices.Clone(a.Resources)
		if state.List == nil {
			state.List = []Resource{}
		}
	case AppendList:
		state.List = slices.Concat(state.List, a.Resources)
	case CacheResource:
		state.Details = cloneMap(state.Details)
		state.Details[a.Resource.ID] = a.Resource
	case MergeResources:
		state.Details = mergeDetails(state.Details, a.Resources)
	case CachePage:
		state.Pages = clonePages(state.Pages)
		state.Pages[a.Key] = slices.Clone(a.Resources)
		state.PageCounts = cloneCounts(state.PageCounts)
		state.PageCounts[a.Key] = a.Count
	case SetFavorites:
		state.Favorites = slices.Clone(a.Resources)
		if state.Favorites == nil {
			state.Favorites = []Resource{}
		}
	case ToggleFavorite:
		if containsID(state.Favorites, a.Resource.ID) {
			state.Favorites = slices.DeleteFunc(slices.Clone(state.Favorites), func(r Resource) bool {
				return r.ID == a.Resource.ID
			})
		} else {
			state.Favorites = slices.Concat(state.Favorites, []Resource{a.Resource})
		}
	case SetFilters:
		state.Filters = a.Filters
		state.CurrentPage = 1
		state.HasMore = true
	case SetSort:
		state.Sort = a.Sort
		state.CurrentPage = 1
		state.HasMore = true
	case SetPage:
		state.CurrentPage = a.Page
	case SetTotalPages:
		state.TotalPages = a.TotalPages
	case SetHasMore:
		state.HasMore = a.HasMore
	case SetTotalCount:
		state.TotalCount = a.TotalCount
	case ClearCaches:
		state.List = []Resource{}
		state.Details = map[int]Resource{}
		state.Pages = map[string][]Resource{}
		state.PageCounts = map[string]int{}
	}

	return state
}

func cloneCounts(counts map[string]int) map[string]int {
	if counts == nil {
		return map[string]int{}
	}

	return maps.Clone(counts)
}

func cloneMap(details map[int]Resource) map[int]Resource {
	if details == nil {
		return map[int]Resource{}
	}

	return maps.Clone(details)
}

func clonePages(pages map[string][]Resource) map[string][]Resource {
	if pages == nil {
		return map[string][]Resource{}
	}

	return maps.Clone(pages)
}

func mergeDetails(details map[int]Resource, resources []Resource) map[int]Resource {
	var merged map[int]Resource

	for _, r := range resources {
		if _, ok := details[r.ID]; ok {
			continue
		}

		if merged == nil {
			merged = cloneMap(details)
		}

		if _, ok := merged[r.ID]; !ok {
			merged[r.ID] = r
		}
	}

	if merged == nil {
		return details
	}

	return merged
}
