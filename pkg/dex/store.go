package dex

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fivetwenty-io/dex/internal/constants"
)

// CacheStats counts cached entries.
type CacheStats struct {
	Resources int `json:"resources" yaml:"resources"`
	Pages     int `json:"pages"     yaml:"pages"`
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithInitialState seeds the store instead of InitialState().
func WithInitialState(state State) StoreOption {
	return func(s *Store) {
		s.state = state
	}
}

// WithStoreLogger sets the logger.
func WithStoreLogger(logger Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPageSize overrides the page size used for list fetches.
func WithPageSize(size int) StoreOption {
	return func(s *Store) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// WithFavorites persists favorites through favorites and loads the saved set
// at construction.
func WithFavorites(favorites *FavoritesStore) StoreOption {
	return func(s *Store) {
		s.favorites = favorites
	}
}

// Store orchestrates list and detail fetches over a CatalogClient. All state
// changes go through Reduce under one mutex; network calls run outside it.
//
// Each list fetch that may change the displayed list takes a new generation.
// A response is applied to the list, pagination and loading state only while
// its generation is the latest one; pages and details from older responses
// are still cached.
type Store struct {
	mu         sync.Mutex
	state      State
	client     CatalogClient
	favorites  *FavoritesStore
	logger     Logger
	pageSize   int
	generation uint64
	lastOp     func(ctx context.Context) error

	subscribers map[int]func(State)
	nextSubID   int
}

// NewStore creates a store. It loads the saved favorites when a favorites
// store is configured.
func NewStore(ctx context.Context, client CatalogClient, opts ...StoreOption) (*Store, error) {
	if client == nil {
		return nil, ErrNoClient
	}

	s := &Store{
		state:       InitialState(),
		client:      client,
		logger:      NoopLogger{},
		pageSize:    constants.DefaultPageSize,
		subscribers: make(map[int]func(State)),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.state = fillState(s.state)

	if s.favorites != nil {
		s.state = Reduce(s.state, SetFavorites{Resources: s.favorites.All(ctx)})
	}

	return s, nil
}

func fillState(state State) State {
	if state.List == nil {
		state.List = []Resource{}
	}

	if state.Favorites == nil {
		state.Favorites = []Resource{}
	}

	if state.Details == nil {
		state.Details = map[int]Resource{}
	}

	if state.Pages == nil {
		state.Pages = map[string][]Resource{}
	}

	if state.PageCounts == nil {
		state.PageCounts = map[string]int{}
	}

	if state.Sort == (SortConfig{}) {
		state.Sort = DefaultSortConfig()
	}

	if state.CurrentPage < 1 {
		state.CurrentPage = 1
	}

	return state
}

// PageSize returns the configured page size.
func (s *Store) PageSize() int {
	return s.pageSize
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Subscribe registers fn to receive every new snapshot. The returned func
// removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		delete(s.subscribers, id)
	}
}

// Dispatch applies actions atomically and notifies subscribers.
func (s *Store) Dispatch(actions ...Action) {
	s.mu.Lock()
	s.applyLocked(actions...)
	s.unlockAndNotify()
}

func (s *Store) applyLocked(actions ...Action) {
	for _, action := range actions {
		s.state = Reduce(s.state, action)
	}
}

func (s *Store) unlockAndNotify() {
	snapshot := s.state
	subscribers := make([]func(State), 0, len(s.subscribers))

	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}

	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}
}

// FetchList loads page under filters. A cached (page, filters) combination is
// served without a network call unless appending. On failure the user-facing
// message is recorded and the displayed list is left untouched.
func (s *Store) FetchList(ctx context.Context, page int, filters Filters, appendList bool) error {
	if page < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPage, page)
	}

	filters = filters.Normalize()
	key := PageCacheKey(page, filters)

	s.mu.Lock()
	s.lastOp = func(ctx context.Context) error {
		return s.FetchList(ctx, page, filters, appendList)
	}

	if cached, ok := s.state.Pages[key]; ok && !appendList {
		s.generation++
		s.applyLocked(SetList{Resources: cached}, SetPage{Page: page}, SetLoading{Loading: false}, SetError{})

		if count, ok := s.state.PageCounts[key]; ok {
			s.applyLocked(s.paginationActions(page, count)...)
		}

		s.unlockAndNotify()

		s.logger.Debug("Using cached page", map[string]interface{}{"page": page, "key": key})

		return nil
	}

	gen := s.beginFetchLocked()
	s.unlockAndNotify()

	return s.runFetch(ctx, gen, page, filters, appendList)
}

// LoadNextPage appends the page after the current one. It does nothing when
// there is nothing more to load or a list fetch is in flight.
func (s *Store) LoadNextPage(ctx context.Context) error {
	s.mu.Lock()
	if !s.state.HasMore || s.state.Loading {
		s.mu.Unlock()

		return nil
	}

	page := s.state.CurrentPage + 1
	filters := s.state.Filters
	s.lastOp = func(ctx context.Context) error {
		return s.FetchList(ctx, page, filters, true)
	}

	gen := s.beginFetchLocked()
	s.unlockAndNotify()

	return s.runFetch(ctx, gen, page, filters, true)
}

func (s *Store) beginFetchLocked() uint64 {
	s.generation++
	s.applyLocked(SetLoading{Loading: true}, SetError{})

	return s.generation
}

func (s *Store) paginationActions(page, count int) []Action {
	totalPages := 0
	if s.pageSize > 0 {
		totalPages = (count + s.pageSize - 1) / s.pageSize
	}

	return []Action{
		SetTotalPages{TotalPages: totalPages},
		SetTotalCount{TotalCount: count},
		SetHasMore{HasMore: page*s.pageSize < count},
	}
}

func (s *Store) runFetch(ctx context.Context, gen uint64, page int, filters Filters, appendList bool) error {
	offset := (page - 1) * s.pageSize

	result, err := s.client.ListResources(ctx, s.pageSize, offset, filters)

	s.mu.Lock()
	current := gen == s.generation

	if err != nil {
		if current {
			s.applyLocked(SetError{Message: UserMessage(err)}, SetLoading{Loading: false})
		}

		s.unlockAndNotify()

		s.logger.Error("Failed to fetch page", map[string]interface{}{
			"page":  page,
			"error": errorDetail(err),
		})

		return fmt.Errorf("fetching page %d: %w", page, err)
	}

	key := PageCacheKey(page, filters)
	s.applyLocked(
		CachePage{Key: key, Resources: result.Results, Count: result.Count},
		MergeResources{Resources: result.Results},
	)

	if current {
		if appendList {
			s.applyLocked(AppendList{Resources: result.Results})
		} else {
			s.applyLocked(SetList{Resources: result.Results})
		}

		s.applyLocked(s.paginationActions(page, result.Count)...)
		s.applyLocked(SetPage{Page: page}, SetLoading{Loading: false})
	}

	s.unlockAndNotify()

	if !current {
		s.logger.Debug("Discarded stale list response", map[string]interface{}{"page": page, "generation": gen})
	}

	return nil
}

// FetchDetail returns the resource from the detail cache or the network.
func (s *Store) FetchDetail(ctx context.Context, id int) (*Resource, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidResourceID, id)
	}

	s.mu.Lock()
	if cached, ok := s.state.Details[id]; ok {
		s.mu.Unlock()

		return &cached, nil
	}

	s.lastOp = func(ctx context.Context) error {
		_, err := s.FetchDetail(ctx, id)

		return err
	}

	s.applyLocked(SetDetailLoading{Loading: true}, SetError{})
	s.unlockAndNotify()

	resource, err := s.client.GetResource(ctx, id)

	s.mu.Lock()
	if err != nil {
		s.applyLocked(SetError{Message: UserMessage(err)}, SetDetailLoading{Loading: false})
		s.unlockAndNotify()

		s.logger.Error("Failed to fetch resource", map[string]interface{}{"id": id, "error": errorDetail(err)})

		return nil, fmt.Errorf("fetching resource %d: %w", id, err)
	}

	s.applyLocked(CacheResource{Resource: *resource}, SetDetailLoading{Loading: false})
	s.unlockAndNotify()

	return resource, nil
}

// ToggleFavorite flips membership of resource and persists the new set. It
// reports whether resource is a favorite afterwards. State is unchanged when
// persisting fails.
func (s *Store) ToggleFavorite(ctx context.Context, resource Resource) (bool, error) {
	if s.favorites == nil {
		s.Dispatch(ToggleFavorite{Resource: resource})

		return s.State().IsFavorite(resource.ID), nil
	}

	favorites, isFavorite, err := s.favorites.Toggle(ctx, resource)
	if err != nil {
		s.logger.Error("Failed to persist favorites", map[string]interface{}{"id": resource.ID, "error": err.Error()})

		return s.State().IsFavorite(resource.ID), err
	}

	s.Dispatch(SetFavorites{Resources: favorites})

	return isFavorite, nil
}

// SetFilters replaces the active filters and resets pagination. Cached pages
// for other filters stay addressable.
func (s *Store) SetFilters(filters Filters) {
	s.Dispatch(SetFilters{Filters: filters.Normalize()})
}

// SetSort replaces the active sort and resets pagination.
func (s *Store) SetSort(sort SortConfig) error {
	err := sort.Validate()
	if err != nil {
		return err
	}

	s.Dispatch(SetSort{Sort: sort})

	return nil
}

// SetPage sets the current page without fetching.
func (s *Store) SetPage(page int) error {
	if page < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPage, page)
	}

	s.Dispatch(SetPage{Page: page})

	return nil
}

// ClearList empties the displayed list; caches are kept.
func (s *Store) ClearList() {
	s.Dispatch(SetList{})
}

// ClearCache empties the displayed list, the detail cache and the page cache.
func (s *Store) ClearCache() {
	s.Dispatch(ClearCaches{})
}

// CachedResource looks id up in the detail cache.
func (s *Store) CachedResource(id int) (Resource, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.state.Details[id]

	return r, ok
}

// CachedPage looks (page, filters) up in the page cache.
func (s *Store) CachedPage(page int, filters Filters) ([]Resource, bool) {
	key := PageCacheKey(page, filters.Normalize())

	s.mu.Lock()
	defer s.mu.Unlock()

	resources, ok := s.state.Pages[key]

	return resources, ok
}

// CacheStats counts cached resources and pages.
func (s *Store) CacheStats() CacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return CacheStats{Resources: len(s.state.Details), Pages: len(s.state.Pages)}
}

// PreloadNextPage fills the page cache for the page after the current one
// without touching the list or the loading flag. It reports whether a fetch
// was issued; pages past the last one and cached pages are skipped.
func (s *Store) PreloadNextPage(ctx context.Context) (bool, error) {
	s.mu.Lock()
	page := s.state.CurrentPage + 1
	filters := s.state.Filters
	key := PageCacheKey(page, filters)
	_, cached := s.state.Pages[key]
	skip := page > s.state.TotalPages || cached
	s.mu.Unlock()

	if skip {
		return false, nil
	}

	s.logger.Debug("Preloading page", map[string]interface{}{"page": page})

	result, err := s.client.ListResources(ctx, s.pageSize, (page-1)*s.pageSize, filters)
	if err != nil {
		s.logger.Warn("Failed to preload page", map[string]interface{}{"page": page, "error": errorDetail(err)})

		return true, fmt.Errorf("preloading page %d: %w", page, err)
	}

	s.Dispatch(
		CachePage{Key: key, Resources: result.Results, Count: result.Count},
		MergeResources{Resources: result.Results},
	)

	return true, nil
}

// Retry re-invokes the most recent list or detail fetch with the same arguments.
func (s *Store) Retry(ctx context.Context) error {
	s.mu.Lock()
	op := s.lastOp
	s.mu.Unlock()

	if op == nil {
		return ErrNothingToRetry
	}

	return op(ctx)
}

// SortedList returns the displayed list ordered by the active sort.
func (s *Store) SortedList() []Resource {
	state := s.State()

	return SortResources(state.List, state.Sort)
}

// DisplayList returns the favorites or the displayed list, ordered by the
// active sort.
func (s *Store) DisplayList(showFavorites bool) []Resource {
	state := s.State()
	if showFavorites {
		return SortResources(state.Favorites, state.Sort)
	}

	return SortResources(state.List, state.Sort)
}

// ScrollStatus reports the flags the infinite scroll coordinator reads.
func (s *Store) ScrollStatus() ScrollStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return ScrollStatus{Loading: s.state.Loading, HasMore: s.state.HasMore}
}

func errorDetail(err error) string {
	apiErr := &Error{}
	if errors.As(err, &apiErr) {
		return apiErr.Detail()
	}

	return err.Error()
}
