package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/dex/pkg/dex"
)

// resourceDetail is the structured output of the get command.
type resourceDetail struct {
	dex.Resource `yaml:",inline"`

	Favorite bool `json:"favorite" yaml:"favorite"`
}

// NewGetCommand creates the get command.
func NewGetCommand() *cobra.Command {
	var retry bool

	cmd := &cobra.Command{
		Use:   "get ID_OR_NAME",
		Short: "Show resource details",
		Long:  "Display the full record of a resource by numeric ID or by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			s, err := newSession(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			resource, err := resolveResource(ctx, s, args[0])
			if err != nil && retry {
				resource, err = resolveResource(ctx, s, args[0])
			}

			if err != nil {
				return fmt.Errorf("failed to get resource: %w", err)
			}

			return renderDetail(cmd.OutOrStdout(), *resource, s.store.State().IsFavorite(resource.ID))
		},
	}

	cmd.Flags().BoolVar(&retry, "retry", false, "retry once when the fetch fails")

	return cmd
}

func renderDetail(out io.Writer, resource dex.Resource, favorite bool) error {
	handled, err := renderStructured(out, outputFormat(), resourceDetail{Resource: resource, Favorite: favorite})
	if handled {
		return err
	}

	table := tablewriter.NewWriter(out)
	table.Header("Property", "Value")

	_ = table.Append("ID", resource.DisplayID())
	_ = table.Append("Name", resource.DisplayName())
	_ = table.Append("Types", formatTypes(resource))
	_ = table.Append("Height", formatMeasure(resource.HeightMeters())+" m")
	_ = table.Append("Weight", formatMeasure(resource.WeightKilograms())+" kg")
	_ = table.Append("Base Experience", strconv.Itoa(resource.BaseExperience))
	_ = table.Append("Abilities", formatAbilities(resource))

	for _, stat := range resource.Stats {
		_ = table.Append("Stat: "+stat.Stat.Name, strconv.Itoa(stat.BaseStat))
	}

	_ = table.Append("Artwork", valueOrDefault(resource.Artwork(), NotAvailable))

	favoriteValue := "no"
	if favorite {
		favoriteValue = Yes
	}

	_ = table.Append("Favorite", favoriteValue)

	return renderTable(table)
}

func formatAbilities(resource dex.Resource) string {
	if len(resource.Abilities) == 0 {
		return NotAvailable
	}

	names := make([]string, 0, len(resource.Abilities))
	for _, ability := range resource.Abilities {
		name := ability.Ability.Name
		if ability.IsHidden {
			name += " (hidden)"
		}

		names = append(names, name)
	}

	return strings.Join(names, ", ")
}
