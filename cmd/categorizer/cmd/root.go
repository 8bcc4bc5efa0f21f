package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"statement-categorizer/cmd/categorizer/config"
	"statement-categorizer/pkg/errors"
)

var (
	cfgFile   string
	verbose   bool
	storePath string
	version   = "dev"
	commit    = "unknown"
	date      = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "categorizer",
	Short: "Bank statement normalizer and categorizer",
	Long: `Categorizer reads Chilean bank and credit card statements (PDF exports
or CSV files), normalizes dates, amounts and merchant names, and assigns
each transaction a spending category. Corrections taught with 'learn' are
stored locally and take priority over the built-in keyword patterns.

Examples:
  categorizer ingest cartola-julio.pdf
  categorizer ingest movimientos.csv --output-format csv --output-file julio.csv
  categorizer categorize "COMPRA JUMBO COSTANERA"
  categorizer learn "Farmacia Del Barrio" salud
  categorizer overrides export > respaldo.json`,
	Version:       getVersionString(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "learned categories database (default "+config.DefaultStorePath()+")")

	// Bind flags to viper
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("store"))
}

// initConfig reads in config file and ENV variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)

		if err := viper.ReadInConfig(); err != nil {
			os.Exit(NewCLIErrorHandler().HandleError(
				errors.ConfigurationError(errors.CodeInvalidConfig, "config", cfgFile, err)))
		}

		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	}

	config.BindEnv(viper.GetViper())
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
