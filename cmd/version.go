package cmd

import (
	"fmt"
	"runtime"

	"jshunter/pkg/patterns"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and built-in catalog information",
	// no banner
	PersistentPreRun: func(cmd *cobra.Command, args []string) {},
	Run: func(cmd *cobra.Command, args []string) {
		pterm.DefaultHeader.
			WithBackgroundStyle(pterm.NewStyle(pterm.BgDarkGray)).
			Printf(" jshunter v%s ", version)
		pterm.Println()

		tableData := pterm.TableData{
			{"Property", "Value"},
			{"Version", version},
			{"Go Version", runtime.Version()},
			{"OS/Arch", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)},
		}
		if catalog, err := patterns.Default(); err == nil {
			tableData = append(tableData,
				[]string{"JS tiers", fmt.Sprintf("%d", len(catalog.JS))},
				[]string{"Secret categories", fmt.Sprintf("%d", len(catalog.Secrets))},
			)
		}

		pterm.DefaultTable.WithHasHeader().WithData(tableData).Render()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
