// SPDX-License-Identifier: Apache-2.0

package migrate

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/hashgraph/regsync/cmd/regsync/commands/common"
	"github.com/hashgraph/regsync/internal/config"
	"github.com/hashgraph/regsync/internal/registry"
	"github.com/hashgraph/regsync/internal/version"
	"github.com/spf13/cobra"
)

const formatTable = "table"

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	missingStyle = cellStyle.Foreground(lipgloss.Color("9"))

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "Show which migration units are registered",
		Long: "Compare the registry file with the unit directories. A unit is registered when it is imported, " +
			"enumerated and present on disk. The registry is only read.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := common.FlagOutput.Value(cmd, nil)
			if err != nil {
				return err
			}

			cfg := config.Get().Migrate
			units, err := registry.Inspect(cfg.Dir, cfg.RegistryOptions(nil))
			if err != nil {
				return err
			}

			out, err := renderUnits(units, format)
			if err != nil {
				return err
			}
			cmd.Print(out)
			return nil
		},
	}
)

// renderUnits formats units as a table, or encodes them when format names one of the structured formats.
func renderUnits(units []registry.UnitStatus, format string) (string, error) {
	if format != "" && !strings.EqualFold(format, formatTable) {
		return version.Encode(units, format)
	}

	rows := make([][]string, 0, len(units))
	for _, u := range units {
		rows = append(rows, []string{u.Identifier.String(), mark(u.Declared), mark(u.Enumerated), mark(u.OnDisk)})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("MIGRATION", "IMPORTED", "ENUMERATED", "ON DISK").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col > 0 && rows[row][col] == "no":
				return missingStyle
			}
			return cellStyle
		})

	return t.Render() + "\n", nil
}

func mark(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}
