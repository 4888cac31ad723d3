// Package dex provides types, interfaces, and the client-side state core for
// browsing the Pokémon REST catalog.
//
// # Overview
//
// The dex package defines the domain types (Resource, Filters, SortConfig),
// the interfaces for catalog clients (Client, CatalogClient) and the state
// layer that sits between a presentation surface and the network:
//
//   - Store holds the displayed list, a per-id detail cache, a per-(page,
//     filters) page cache, filter/sort/pagination state and derived flags.
//     Transitions go through the pure Reduce function; Store performs the
//     network and storage side effects and dispatches the resulting actions.
//   - FavoritesStore persists the favorited resources through a Storage
//     backend (file, memory, NATS key-value, SQLite or no-op).
//   - Scroller coordinates infinite scroll: it fires a load-more callback at
//     most once per visibility entry of a sentinel element.
//
// A concrete Client is provided by the dexclient package:
//
//	cli, err := dexclient.New(ctx, &dex.Config{APIEndpoint: "https://pokeapi.co/api/v2"})
//	if err != nil { log.Fatal(err) }
//
//	favorites := dex.NewFavoritesStore(dex.NewMemoryStorage(), nil)
//	store, err := dex.NewStore(ctx, cli, dex.WithFavorites(favorites))
//	if err != nil { log.Fatal(err) }
//
//	if err := store.FetchList(ctx, 1, dex.Filters{Type: "fire"}, false); err != nil {
//	  log.Println(store.State().Error)
//	}
//
// # Errors
//
// Transport failures are normalized into *Error values carrying an
// ErrorKind. Helpers such as IsNotFound, IsServerError and IsTimeout make it
// easy to branch on them, and UserMessage returns the text shown to users.
package dex
