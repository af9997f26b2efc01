package cmd

import (
	"fmt"
	"os"

	"jshunter/pkg/utils"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "configs/default.yaml"

var (
	cfgFile string
	debug   bool
	version = "1.0.0"
)

var rootCmd = &cobra.Command{
	Use:   "jshunter",
	Short: "JavaScript and endpoint discovery crawler",
	Long: `jshunter - recursive crawler that mines pages and scripts for JavaScript files,
links, API endpoints and leaked secrets.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if crawlOpts.countOnly {
			utils.PrintCompactBanner(version)
		} else {
			utils.PrintBanner(version)
		}
		utils.InitLogger(debug)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/default.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output")
}

// loadConfig reads --config, then the default path, then falls back to
// built-in defaults. A broken file is reported and ignored.
func loadConfig() *utils.Config {
	path := cfgFile
	if path == "" {
		if !utils.FileExists(defaultConfigPath) {
			return utils.DefaultConfig()
		}
		path = defaultConfigPath
	}

	cfg, err := utils.LoadConfig(path)
	if err != nil {
		utils.Warning.Printf("Config %s not usable (%v), using defaults\n", path, err)
		return utils.DefaultConfig()
	}
	utils.Debug.Printf("Loaded config from %s\n", path)
	return cfg
}
