package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/dex/cmd/dex/commands"
	"github.com/fivetwenty-io/dex/internal/constants"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "dex",
	Short: "Pokédex catalog browser",
	Long: `A command-line client for the public Pokémon REST API.

Lists, filters and sorts catalog entries page by page, shows full records,
keeps a persistent favorites list and offers an interactive infinite-scroll
browser.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is $HOME/.dex/config.yml)")
	flags.StringP("api", "a", "", "catalog endpoint URL (default "+constants.DefaultAPIEndpoint+")")
	flags.StringP("output", "o", constants.FormatTable, "output format (table, json, yaml)")
	flags.BoolP("verbose", "v", false, "verbose output")
	flags.Duration("timeout", constants.DefaultHTTPTimeout, "per-request timeout")
	flags.Int("retry-max", constants.DefaultRetryMax, "automatic retries for transient failures")
	flags.Int("page-size", constants.DefaultPageSize, "resources per page")
	flags.Int("concurrency", constants.DefaultConcurrencyLimit, "records resolved in parallel")
	flags.String("storage", "", "favorites backend (file, memory, sqlite, nats, none)")
	flags.String("storage-path", "", "favorites directory or SQLite database file")

	// Bind flags to viper
	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag("api", flags.Lookup("api"))
	_ = viper.BindPFlag("output", flags.Lookup("output"))
	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("timeout", flags.Lookup("timeout"))
	_ = viper.BindPFlag("retry_max", flags.Lookup("retry-max"))
	_ = viper.BindPFlag("page_size", flags.Lookup("page-size"))
	_ = viper.BindPFlag("concurrency", flags.Lookup("concurrency"))
	_ = viper.BindPFlag("storage.type", flags.Lookup("storage"))
	_ = viper.BindPFlag("storage.path", flags.Lookup("storage-path"))

	// Add commands
	rootCmd.AddCommand(commands.NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewListCommand())
	rootCmd.AddCommand(commands.NewGetCommand())
	rootCmd.AddCommand(commands.NewBrowseCommand())
	rootCmd.AddCommand(commands.NewFavoritesCommand())
	rootCmd.AddCommand(commands.NewTypesCommand())
	rootCmd.AddCommand(commands.NewGenerationsCommand())
}

func initConfig() {
	cfgFile := viper.GetString("config")

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		// Search config in ~/.dex/config.yml
		viper.AddConfigPath(filepath.Join(home, constants.DefaultStorageDir))
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match, e.g. DEX_STORAGE_TYPE
	viper.SetEnvPrefix("DEX")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
