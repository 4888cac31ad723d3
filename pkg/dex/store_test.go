package dex_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/dex/internal/testutil"
	"github.com/fivetwenty-io/dex/pkg/dex"
	"github.com/fivetwenty-io/dex/pkg/dexclient"
)

var errTestWrite = errors.New("disk full")

func newStore(t *testing.T, catalog dex.CatalogClient, opts ...dex.StoreOption) *dex.Store {
	t.Helper()

	store, err := dex.NewStore(context.Background(), catalog, opts...)
	require.NoError(t, err)

	return store
}

func TestNewStore(t *testing.T) {
	t.Parallel()

	_, err := dex.NewStore(context.Background(), nil)
	require.ErrorIs(t, err, dex.ErrNoClient)

	initial := dex.InitialState()
	initial.CurrentPage = 4
	initial.Filters = dex.Filters{Type: "fire"}

	store := newStore(t, newFakeCatalog(10), dex.WithInitialState(initial), dex.WithPageSize(5))
	state := store.State()
	assert.Equal(t, 4, state.CurrentPage)
	assert.Equal(t, "fire", state.Filters.Type)
	assert.Equal(t, 5, store.PageSize())
	assert.Equal(t, dex.DefaultSortConfig(), state.Sort)
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestStore_FetchList(t *testing.T) {
	t.Parallel()
	t.Run("first page and pagination", func(t *testing.T) {
		t.Parallel()

		catalog := newFakeCatalog(45)
		store := newStore(t, catalog)

		require.NoError(t, store.FetchList(context.Background(), 1, dex.Filters{}, false))

		state := store.State()
		assert.Equal(t, idRange(1, 20), ids(state.List))
		assert.True(t, state.HasMore)
		assert.Equal(t, 45, state.TotalCount)
		assert.Equal(t, 3, state.TotalPages)
		assert.Equal(t, 1, state.CurrentPage)
		assert.False(t, state.Loading)
		assert.Empty(t, state.Error)
		assert.Equal(t, dex.CacheStats{Resources: 20, Pages: 1}, store.CacheStats())
	})

	t.Run("second identical fetch is served from cache", func(t *testing.T) {
		t.Parallel()

		catalog := newFakeCatalog(45)
		store := newStore(t, catalog)

		first := dex.FiltersFromValues(url.Values{"name": {"mon"}, "minHeight": {"1"}})
		second := dex.FiltersFromValues(url.Values{"minHeight": {"1.0"}, "name": {"mon"}})

		require.NoError(t, store.FetchList(context.Background(), 2, first, false))
		require.NoError(t, store.FetchList(context.Background(), 2, second, false))

		assert.Equal(t, int32(1), catalog.listCalls.Load())
		assert.Equal(t, idRange(21, 40), ids(store.State().List))
	})

	t.Run("cache hit restores pagination of the cached page", func(t *testing.T) {
		t.Parallel()

		catalog := newFakeCatalog(45)
		store := newStore(t, catalog)
		ctx := context.Background()

		require.NoError(t, store.FetchList(ctx, 3, dex.Filters{}, false))
		assert.False(t, store.State().HasMore)

		store.SetFilters(dex.Filters{})
		assert.True(t, store.State().HasMore)

		require.NoError(t, store.FetchList(ctx, 3, dex.Filters{}, false))

		state := store.State()
		assert.Equal(t, int32(1), catalog.listCalls.Load())
		assert.False(t, state.HasMore)
		assert.Equal(t, 3, state.CurrentPage)
	})

	t.Run("failure keeps the list and records the message", func(t *testing.T) {
		t.Parallel()

		catalog := newFakeCatalog(45)
		store := newStore(t, catalog)
		ctx := context.Background()

		require.NoError(t, store.FetchList(ctx, 1, dex.Filters{}, false))

		catalog.failList(dex.NewStatusError(503, "/pokemon"))

		err := store.FetchList(ctx, 2, dex.Filters{}, false)
		require.Error(t, err)
		assert.True(t, dex.IsServerError(err))

		state := store.State()
		assert.Equal(t, dex.MessageServer, state.Error)
		assert.Equal(t, idRange(1, 20), ids(state.List))
		assert.Equal(t, 1, state.CurrentPage)
		assert.False(t, state.Loading)
	})

	t.Run("rejects page zero", func(t *testing.T) {
		t.Parallel()

		store := newStore(t, newFakeCatalog(5))
		require.ErrorIs(t, store.FetchList(context.Background(), 0, dex.Filters{}, false), dex.ErrInvalidPage)
	})
}

func TestStore_FetchListScenarios(t *testing.T) {
	t.Parallel()

	catalog := testutil.NewCatalog(t, 45)
	cli, err := dexclient.New(context.Background(), &dex.Config{APIEndpoint: catalog.URL()})
	require.NoError(t, err)

	store := newStore(t, cli)
	ctx := context.Background()

	require.NoError(t, store.FetchList(ctx, 1, dex.Filters{}, false))
	assert.Equal(t, idRange(1, 20), ids(store.State().List))
	assert.True(t, store.State().HasMore)

	store.SetFilters(dex.Filters{Type: "fire"})
	require.NoError(t, store.FetchList(ctx, 1, store.State().Filters, false))

	state := store.State()
	require.NotEmpty(t, state.List)

	for _, r := range state.List {
		assert.Contains(t, r.TypeNames(), "fire")
	}

	assert.Equal(t, 15, state.TotalCount)
	assert.False(t, state.HasMore)
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestStore_LoadNextPage(t *testing.T) {
	t.Parallel()
	t.Run("appends until exhausted", func(t *testing.T) {
		t.Parallel()

		catalog := newFakeCatalog(45)
		store := newStore(t, catalog)
		ctx := context.Background()

		require.NoError(t, store.FetchList(ctx, 1, dex.Filters{}, false))
		require.NoError(t, store.LoadNextPage(ctx))
		assert.Equal(t, idRange(1, 40), ids(store.State().List))
		assert.Equal(t, 2, store.State().CurrentPage)

		require.NoError(t, store.LoadNextPage(ctx))
		assert.Equal(t, idRange(1, 45), ids(store.State().List))
		assert.False(t, store.State().HasMore)

		before := store.State()
		require.NoError(t, store.LoadNextPage(ctx))
		assert.Equal(t, int32(3), catalog.listCalls.Load())
		assert.Equal(t, before.List, store.State().List)
	})

	t.Run("no-op while a fetch is in flight", func(t *testing.T) {
		t.Parallel()

		catalog := newFakeCatalog(45)
		store := newStore(t, catalog)
		ctx := context.Background()

		require.NoError(t, store.FetchList(ctx, 1, dex.Filters{}, false))

		gate := catalog.gate(20)

		var wg sync.WaitGroup

		wg.Add(1)

		go func() {
			defer wg.Done()

			assert.NoError(t, store.LoadNextPage(ctx))
		}()

		require.Eventually(t, func() bool { return catalog.listCalls.Load() == 2 }, time.Second, time.Millisecond)
		assert.True(t, store.State().Loading)

		require.NoError(t, store.LoadNextPage(ctx))
		assert.Equal(t, int32(2), catalog.listCalls.Load())

		close(gate)
		wg.Wait()

		assert.Equal(t, idRange(1, 40), ids(store.State().List))
		assert.False(t, store.State().Loading)
	})
}

func TestStore_StaleResponsesAreNotApplied(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog(45)
	store := newStore(t, catalog)
	ctx := context.Background()

	gate := catalog.gate(20)

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()

		assert.NoError(t, store.FetchList(ctx, 2, dex.Filters{}, false))
	}()

	require.Eventually(t, func() bool { return catalog.listCalls.Load() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, store.FetchList(ctx, 3, dex.Filters{}, false))

	close(gate)
	wg.Wait()

	state := store.State()
	assert.Equal(t, idRange(41, 45), ids(state.List))
	assert.Equal(t, 3, state.CurrentPage)
	assert.False(t, state.Loading)

	cached, ok := store.CachedPage(2, dex.Filters{})
	require.True(t, ok, "stale page is still cached")
	assert.Equal(t, idRange(21, 40), ids(cached))
}

func TestStore_PreloadNextPage(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog(45)
	store := newStore(t, catalog)
	ctx := context.Background()

	fired, err := store.PreloadNextPage(ctx)
	require.NoError(t, err)
	assert.False(t, fired, "total pages unknown before the first fetch")

	require.NoError(t, store.FetchList(ctx, 1, dex.Filters{}, false))

	var sawLoading bool

	unsubscribe := store.Subscribe(func(s dex.State) {
		if s.Loading {
			sawLoading = true
		}
	})
	defer unsubscribe()

	fired, err = store.PreloadNextPage(ctx)
	require.NoError(t, err)
	assert.True(t, fired)
	assert.False(t, sawLoading)
	assert.Equal(t, idRange(1, 20), ids(store.State().List))

	_, ok := store.CachedPage(2, dex.Filters{})
	assert.True(t, ok)

	fired, err = store.PreloadNextPage(ctx)
	require.NoError(t, err)
	assert.False(t, fired, "already cached")
	assert.Equal(t, int32(2), catalog.listCalls.Load())

	require.NoError(t, store.FetchList(ctx, 2, dex.Filters{}, false))
	assert.Equal(t, int32(2), catalog.listCalls.Load(), "preloaded page is a cache hit")

	require.NoError(t, store.SetPage(3))

	fired, err = store.PreloadNextPage(ctx)
	require.NoError(t, err)
	assert.False(t, fired, "past the last page")
}

func TestStore_Retry(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog(45)
	store := newStore(t, catalog)
	ctx := context.Background()

	require.ErrorIs(t, store.Retry(ctx), dex.ErrNothingToRetry)

	catalog.failList(dex.NewTransportError(context.DeadlineExceeded, "/pokemon"))
	require.Error(t, store.FetchList(ctx, 2, dex.Filters{}, false))
	assert.Equal(t, dex.MessageTimeout, store.State().Error)

	catalog.failList(nil)
	require.NoError(t, store.Retry(ctx))

	state := store.State()
	assert.Empty(t, state.Error)
	assert.Equal(t, idRange(21, 40), ids(state.List))
	assert.Equal(t, 2, state.CurrentPage)
	assert.Equal(t, int32(2), catalog.listCalls.Load())
}

func TestStore_CachedPageClearsError(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog(45)
	store := newStore(t, catalog)
	ctx := context.Background()

	require.NoError(t, store.FetchList(ctx, 1, dex.Filters{}, false))

	catalog.failList(dex.NewStatusError(http.StatusInternalServerError, "/pokemon"))
	require.Error(t, store.FetchList(ctx, 2, dex.Filters{}, false))
	assert.Equal(t, dex.MessageServer, store.State().Error)

	require.NoError(t, store.FetchList(ctx, 1, dex.Filters{}, false))

	state := store.State()
	assert.Empty(t, state.Error)
	assert.Equal(t, idRange(1, 20), ids(state.List))
	assert.Equal(t, int32(2), catalog.listCalls.Load(), "page 1 came from the cache")
}

func TestStore_FetchDetail(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog(45)
	store := newStore(t, catalog)
	ctx := context.Background()

	require.NoError(t, store.FetchList(ctx, 1, dex.Filters{}, false))

	r, err := store.FetchDetail(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "mon7", r.Name)
	assert.Zero(t, catalog.getCalls.Load(), "list fetch populated the detail cache")

	r, err = store.FetchDetail(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, 30, r.ID)
	assert.Equal(t, int32(1), catalog.getCalls.Load())

	cached, ok := store.CachedResource(30)
	require.True(t, ok)
	assert.Equal(t, "mon30", cached.Name)

	_, err = store.FetchDetail(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int32(1), catalog.getCalls.Load())

	_, err = store.FetchDetail(ctx, 99)
	require.Error(t, err)
	assert.True(t, dex.IsNotFound(err))
	assert.Equal(t, dex.MessageNotFound, store.State().Error)
	assert.False(t, store.State().DetailLoading)

	_, err = store.FetchDetail(ctx, -1)
	require.ErrorIs(t, err, dex.ErrInvalidResourceID)
}

func TestStore_ToggleFavorite(t *testing.T) {
	t.Parallel()
	t.Run("twice restores membership with two writes", func(t *testing.T) {
		t.Parallel()

		storage := newCountingStorage()
		store := newStore(t, newFakeCatalog(5), dex.WithFavorites(dex.NewFavoritesStore(storage, nil)))
		ctx := context.Background()

		isFavorite, err := store.ToggleFavorite(ctx, resource(3))
		require.NoError(t, err)
		assert.True(t, isFavorite)
		assert.True(t, store.State().IsFavorite(3))

		isFavorite, err = store.ToggleFavorite(ctx, resource(3))
		require.NoError(t, err)
		assert.False(t, isFavorite)

		assert.Empty(t, store.State().Favorites)
		assert.Equal(t, int32(2), storage.sets.Load())
	})

	t.Run("loads saved favorites", func(t *testing.T) {
		t.Parallel()

		storage := newCountingStorage()
		favorites := dex.NewFavoritesStore(storage, nil)
		_, err := favorites.Add(context.Background(), resource(2))
		require.NoError(t, err)

		store := newStore(t, newFakeCatalog(5), dex.WithFavorites(favorites))
		assert.Equal(t, []int{2}, ids(store.State().Favorites))
	})

	t.Run("failed write leaves state unchanged", func(t *testing.T) {
		t.Parallel()

		storage := newCountingStorage()
		storage.failSet = errTestWrite
		store := newStore(t, newFakeCatalog(5), dex.WithFavorites(dex.NewFavoritesStore(storage, nil)))

		isFavorite, err := store.ToggleFavorite(context.Background(), resource(1))
		require.ErrorIs(t, err, errTestWrite)
		assert.False(t, isFavorite)
		assert.Empty(t, store.State().Favorites)
	})

	t.Run("without persistence", func(t *testing.T) {
		t.Parallel()

		store := newStore(t, newFakeCatalog(5))

		isFavorite, err := store.ToggleFavorite(context.Background(), resource(1))
		require.NoError(t, err)
		assert.True(t, isFavorite)
	})
}

func TestStore_FiltersSortAndPage(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog(45)
	store := newStore(t, catalog)
	ctx := context.Background()

	require.NoError(t, store.FetchList(ctx, 3, dex.Filters{}, false))
	assert.False(t, store.State().HasMore)

	store.SetFilters(dex.Filters{Name: "  Mon ", MinHeight: dex.Float(5), MaxHeight: dex.Float(2)})

	state := store.State()
	assert.Equal(t, 1, state.CurrentPage)
	assert.True(t, state.HasMore)
	assert.Equal(t, "Mon", state.Filters.Name)
	assert.InDelta(t, 2.0, *state.Filters.MinHeight, 0.0001)
	assert.Equal(t, 1, store.CacheStats().Pages, "page cache survives a filter change")

	require.NoError(t, store.SetPage(3))
	require.NoError(t, store.SetSort(dex.SortConfig{Field: dex.SortByHeight, Direction: dex.SortDesc}))
	assert.Equal(t, 1, store.State().CurrentPage)

	require.ErrorIs(t, store.SetSort(dex.SortConfig{Field: "color", Direction: dex.SortAsc}), dex.ErrInvalidSortField)
	require.ErrorIs(t, store.SetPage(0), dex.ErrInvalidPage)
}

func TestStore_ClearListAndCache(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog(45)
	store := newStore(t, catalog)
	ctx := context.Background()

	require.NoError(t, store.FetchList(ctx, 1, dex.Filters{}, false))

	store.ClearList()
	assert.Empty(t, store.State().List)
	assert.Equal(t, dex.CacheStats{Resources: 20, Pages: 1}, store.CacheStats())

	store.ClearCache()
	assert.Equal(t, dex.CacheStats{}, store.CacheStats())

	require.NoError(t, store.FetchList(ctx, 1, dex.Filters{}, false))
	assert.Equal(t, int32(2), catalog.listCalls.Load())
}

func TestStore_SortedAndDisplayList(t *testing.T) {
	t.Parallel()

	store := newStore(t, newFakeCatalog(45))
	ctx := context.Background()

	require.NoError(t, store.FetchList(ctx, 1, dex.Filters{}, false))
	require.NoError(t, store.SetSort(dex.SortConfig{Field: dex.SortByWeight, Direction: dex.SortDesc}))

	assert.Equal(t, 20, store.SortedList()[0].ID)

	_, err := store.ToggleFavorite(ctx, resource(4))
	require.NoError(t, err)
	_, err = store.ToggleFavorite(ctx, resource(9))
	require.NoError(t, err)

	assert.Equal(t, []int{9, 4}, ids(store.DisplayList(true)))
	assert.Len(t, store.DisplayList(false), 20)
}

func TestStore_Subscribe(t *testing.T) {
	t.Parallel()

	store := newStore(t, newFakeCatalog(45))

	var (
		mu    sync.Mutex
		pages []int
	)

	unsubscribe := store.Subscribe(func(s dex.State) {
		mu.Lock()
		defer mu.Unlock()

		pages = append(pages, s.CurrentPage)
	})

	require.NoError(t, store.SetPage(2))
	require.NoError(t, store.SetPage(3))
	unsubscribe()
	require.NoError(t, store.SetPage(4))

	mu.Lock()
	defer mu.Unlock()

	assert.Equal(t, []int{2, 3}, pages)
}

func TestStore_ScrollStatus(t *testing.T) {
	t.Parallel()

	store := newStore(t, newFakeCatalog(10))
	assert.Equal(t, dex.ScrollStatus{HasMore: true}, store.ScrollStatus())

	require.NoError(t, store.FetchList(context.Background(), 1, dex.Filters{}, false))
	assert.Equal(t, dex.ScrollStatus{}, store.ScrollStatus())
}
