package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/dex/pkg/dex"
)

// NewFavoritesCommand creates the favorites command group.
func NewFavoritesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav", "favs"},
		Short:   "Manage favorites",
		Long:    "List, add, remove and toggle favorite resources. Favorites persist in the configured storage backend.",
	}

	cmd.AddCommand(newFavoritesListCommand())
	cmd.AddCommand(newFavoritesAddCommand())
	cmd.AddCommand(newFavoritesRemoveCommand())
	cmd.AddCommand(newFavoritesToggleCommand())
	cmd.AddCommand(newFavoritesClearCommand())

	return cmd
}

func newFavoritesListCommand() *cobra.Command {
	var sortFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List favorites",
		Long:  "List favorite resources in the requested order",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			sort, err := dex.ParseSortConfig(sortFlag)
			if err != nil {
				return fmt.Errorf("%w: %s", err, sortFlag)
			}

			s, err := newSession(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			err = s.store.SetSort(sort)
			if err != nil {
				return err
			}

			favorites := s.store.DisplayList(true)
			out := cmd.OutOrStdout()

			handled, err := renderStructured(out, outputFormat(), favorites)
			if handled {
				return err
			}

			err = renderResourceTable(out, favorites, s.store.State())
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(out, "%d favorites\n", len(favorites))

			return nil
		},
	}

	cmd.Flags().StringVar(&sortFlag, "sort", dex.DefaultSortConfig().String(), "sort as field-direction")

	return cmd
}

// favoriteAction changes membership of one resource and reports the result.
type favoriteAction func(ctx context.Context, s *session, resource dex.Resource) (bool, error)

func newFavoriteMutationCommand(use, short, long string, action favoriteAction) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID_OR_NAME",
		Short: short,
		Long:  long,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			s, err := newSession(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			resource, err := favoriteTarget(ctx, s, args[0])
			if err != nil {
				return err
			}

			isFavorite, err := action(ctx, s, *resource)
			if err != nil {
				return fmt.Errorf("failed to update favorites: %w", err)
			}

			return reportFavorite(cmd.OutOrStdout(), *resource, isFavorite)
		},
	}
}

func newFavoritesAddCommand() *cobra.Command {
	return newFavoriteMutationCommand("add", "Add a favorite", "Add a resource to the favorites",
		func(ctx context.Context, s *session, resource dex.Resource) (bool, error) {
			if s.store.State().IsFavorite(resource.ID) {
				return true, nil
			}

			return s.store.ToggleFavorite(ctx, resource)
		})
}

func newFavoritesRemoveCommand() *cobra.Command {
	return newFavoriteMutationCommand("remove", "Remove a favorite", "Remove a resource from the favorites",
		func(ctx context.Context, s *session, resource dex.Resource) (bool, error) {
			if !s.store.State().IsFavorite(resource.ID) {
				return false, fmt.Errorf("%w: %s", ErrResourceNotFavorite, resource.DisplayID())
			}

			return s.store.ToggleFavorite(ctx, resource)
		})
}

func newFavoritesToggleCommand() *cobra.Command {
	return newFavoriteMutationCommand("toggle", "Toggle a favorite", "Add the resource when absent, remove it otherwise",
		func(ctx context.Context, s *session, resource dex.Resource) (bool, error) {
			return s.store.ToggleFavorite(ctx, resource)
		})
}

func newFavoritesClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear favorites",
		Long:  "Remove every favorite",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			s, err := newSession(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			err = s.favorites.Clear(ctx)
			if err != nil {
				return fmt.Errorf("failed to clear favorites: %w", err)
			}

			s.store.Dispatch(dex.SetFavorites{})

			_, err = fmt.Fprintln(cmd.OutOrStdout(), "Favorites cleared")

			return err
		},
	}
}

// favoriteTarget resolves the resource to change. Favorites removed by ID do
// not need the catalog.
func favoriteTarget(ctx context.Context, s *session, arg string) (*dex.Resource, error) {
	if id, err := parseResourceID(arg); err == nil {
		for _, favorite := range s.store.State().Favorites {
			if favorite.ID == id {
				return &favorite, nil
			}
		}
	}

	resource, err := resolveResource(ctx, s, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to get resource: %w", err)
	}

	return resource, nil
}

func reportFavorite(out io.Writer, resource dex.Resource, isFavorite bool) error {
	result := map[string]interface{}{
		"id":       resource.ID,
		"name":     resource.Name,
		"favorite": isFavorite,
	}

	handled, err := renderStructured(out, outputFormat(), result)
	if handled {
		return err
	}

	state := "removed from"
	if isFavorite {
		state = "added to"
	}

	_, err = fmt.Fprintf(out, "%s %s %s favorites\n", resource.DisplayID(), resource.DisplayName(), state)

	return err
}
