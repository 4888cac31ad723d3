package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/dex/pkg/dex"
)

// NewTypesCommand creates the category tag command group.
func NewTypesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "types",
		Aliases: []string{"type", "categories"},
		Short:   "Browse category tags",
		Long:    "List the category tags the catalog can be filtered by",
	}

	cmd.AddCommand(newTypesListCommand())
	cmd.AddCommand(newTypesGetCommand())

	return cmd
}

func newTypesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List category tags",
		Long:  "List every category tag name",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			logger := commandLogger(cmd)

			client, err := createClient(ctx, logger)
			if err != nil {
				return err
			}

			names, err := client.ListCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to list types: %w", err)
			}

			out := cmd.OutOrStdout()

			handled, err := renderStructured(out, outputFormat(), names)
			if handled {
				return err
			}

			table := tablewriter.NewWriter(out)
			table.Header("Type")

			for _, name := range names {
				_ = table.Append(name)
			}

			return renderTable(table)
		},
	}
}

func newTypesGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get NAME",
		Short: "Show a category tag",
		Long:  "Display a category tag with its member resources",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			logger := commandLogger(cmd)

			client, err := createClient(ctx, logger)
			if err != nil {
				return err
			}

			detail, err := client.Types().Get(ctx, strings.ToLower(args[0]))
			if err != nil {
				return fmt.Errorf("failed to get type %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()

			handled, err := renderStructured(out, outputFormat(), detail)
			if handled {
				return err
			}

			table := tablewriter.NewWriter(out)
			table.Header("ID", "Name", "Slot")

			for _, member := range detail.Pokemon {
				_ = table.Append(memberID(member.Pokemon), member.Pokemon.Name, strconv.Itoa(member.Slot))
			}

			err = renderTable(table)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(out, "%d members\n", len(detail.Pokemon))

			return nil
		},
	}
}

// NewGenerationsCommand creates the generations command.
func NewGenerationsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "generation ID_OR_NAME",
		Aliases: []string{"gen"},
		Short:   "Show a generation",
		Long:    "Display the species introduced in a generation, ordered by ID",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			logger := commandLogger(cmd)

			client, err := createClient(ctx, logger)
			if err != nil {
				return err
			}

			generation, err := client.Generations().Get(ctx, strings.ToLower(args[0]))
			if err != nil {
				return fmt.Errorf("failed to get generation %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()

			handled, err := renderStructured(out, outputFormat(), generation)
			if handled {
				return err
			}

			table := tablewriter.NewWriter(out)
			table.Header("ID", "Species")

			for _, species := range generation.PokemonSpecies {
				_ = table.Append(memberID(species), species.Name)
			}

			return renderTable(table)
		},
	}
}

func memberID(ref dex.NamedAPIResource) string {
	id, err := ref.ID()
	if err != nil {
		return NotAvailable
	}

	return strconv.Itoa(id)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}
