// Package dexclient is the entry point for constructing a catalog client
// that implements dex.Client.
//
// It layers endpoint normalization, default timeouts and the request
// interceptor chain (request IDs, logging) on top of the transport, then
// returns a client whose ListResources, GetResource and ListCategories
// methods satisfy dex.CatalogClient for use with dex.Store.
//
// Quick start
//
//	ctx := context.Background()
//
//	cli, err := dexclient.New(ctx, &dex.Config{})
//	if err != nil { log.Fatal(err) }
//
//	page, err := cli.ListResources(ctx, 20, 0, dex.Filters{Type: "fire"})
//	if err != nil {
//	  fmt.Println(dex.UserMessage(err))
//	}
//
// Retries are disabled unless Config.RetryMax is set; failures are returned
// to the caller, who decides whether to try again.
package dexclient
