package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"statement-categorizer/internal/reporter"
	"statement-categorizer/pkg/errors"
)

var (
	overridesFormat string
	exportFile      string
	confirmReset    bool
)

var overridesCmd = &cobra.Command{
	Use:   "overrides",
	Short: "Manage learned merchant categories",
	Long: `Inspect, back up, restore and clear the merchant corrections taught with
'learn'.

Examples:
  categorizer overrides list
  categorizer overrides stats --output-format json
  categorizer overrides export --output-file respaldo.json
  categorizer overrides import respaldo.json
  categorizer overrides reset --yes`,
}

var overridesListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List learned merchants in the order they were taught",
	Args:    cobra.NoArgs,
	PreRunE: validateOverridesFormat,
	RunE:    runOverridesList,
}

var overridesStatsCmd = &cobra.Command{
	Use:     "stats",
	Short:   "Show how many merchants were learned and the most common categories",
	Args:    cobra.NoArgs,
	PreRunE: validateOverridesFormat,
	RunE:    runOverridesStats,
}

var overridesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the learned merchants as a JSON object",
	Args:  cobra.NoArgs,
	RunE:  runOverridesExport,
}

var overridesImportCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "Replace the learned merchants with a JSON export",
	Long: `Replace every learned merchant with the contents of a JSON object mapping
merchant names to category ids. Use - to read from stdin. Nothing changes
unless the whole file is valid and every category exists.`,
	Args: cobra.ExactArgs(1),
	RunE: runOverridesImport,
}

var overridesResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget every learned merchant",
	Args:  cobra.NoArgs,
	RunE:  runOverridesReset,
}

func init() {
	rootCmd.AddCommand(overridesCmd)
	overridesCmd.AddCommand(overridesListCmd, overridesStatsCmd, overridesExportCmd,
		overridesImportCmd, overridesResetCmd)

	for _, c := range []*cobra.Command{overridesListCmd, overridesStatsCmd} {
		c.Flags().StringVarP(&overridesFormat, "output-format", "f", string(reporter.FormatConsole), "output format: console, json, csv")
	}
	overridesExportCmd.Flags().StringVarP(&exportFile, "output-file", "o", "", "output file path (default: stdout)")
	overridesResetCmd.Flags().BoolVar(&confirmReset, "yes", false, "confirm that every learned merchant should be removed")
}

func validateOverridesFormat(cmd *cobra.Command, args []string) error {
	overridesFormat = strings.ToLower(overridesFormat)
	if !reporter.OutputFormat(overridesFormat).IsValid() {
		return errors.ValidationError(errors.CodeInvalidValue, "output-format", overridesFormat,
			fmt.Errorf("valid formats: console, json, csv"))
	}
	return nil
}

func runOverridesList(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	generator, err := s.reportGenerator(overridesFormat, true)
	if err != nil {
		return err
	}
	return generator.GenerateOverridesReport(s.engine.Learned(), cmd.OutOrStdout())
}

func runOverridesStats(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	generator, err := s.reportGenerator(overridesFormat, true)
	if err != nil {
		return err
	}
	return generator.GenerateStatsReport(s.engine.Stats(), cmd.OutOrStdout())
}

func runOverridesExport(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	payload, err := s.engine.Export()
	if err != nil {
		return err
	}

	output, err := reporter.OpenOutput(exportFile, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer output.Close()

	if _, err := fmt.Fprintln(output, payload); err != nil {
		return errors.FileError(errors.CodeFilePermission, exportFile, err)
	}
	return nil
}

func runOverridesImport(cmd *cobra.Command, args []string) error {
	source := args[0]

	var (
		data []byte
		err  error
	)
	if source == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return errors.FileError(errors.CodeFileCorrupted, "stdin", err)
		}
	} else {
		if err := validateFileExists(source); err != nil {
			return err
		}
		data, err = os.ReadFile(source)
		if err != nil {
			return errors.FileError(errors.CodeFileCorrupted, source, err)
		}
	}

	s, err := openSession()
	if errors.HasCode(err, errors.CodeInvalidPayload) {
		count, err := overwriteStore(string(data))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d learned merchants\n", count)
		return nil
	}
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.engine.Import(string(data)); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d learned merchants\n", len(s.engine.Learned()))
	return nil
}

func runOverridesReset(cmd *cobra.Command, args []string) error {
	if !confirmReset {
		return errors.ValidationError(errors.CodeMissingField, "yes", false,
			fmt.Errorf("reset removes every learned merchant"))
	}

	s, err := openSession()
	if errors.HasCode(err, errors.CodeInvalidPayload) {
		if _, err := overwriteStore("{}"); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Removed unreadable learned merchants")
		return nil
	}
	if err != nil {
		return err
	}
	defer s.Close()

	count := len(s.engine.Learned())
	if err := s.engine.Reset(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d learned merchants\n", count)
	return nil
}
