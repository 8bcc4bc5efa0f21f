package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"statement-categorizer/internal/normalize"
	"statement-categorizer/internal/reporter"
	"statement-categorizer/pkg/errors"
)

var (
	suggestLimit  int
	suggestFormat string
)

var categorizeCmd = &cobra.Command{
	Use:   "categorize <description> [merchant]",
	Short: "Categorize a single transaction description",
	Long: `Categorize a single transaction. When no merchant is given it is derived
from the description with the merchant alias table. Learned corrections for
the merchant take priority over keyword patterns.

Examples:
  categorizer categorize "COMPRA LIDER EXPRESS PROVIDENCIA"
  categorizer categorize "PAGO POS 4432" "Farmacia Del Barrio"`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runCategorize,
}

var suggestCmd = &cobra.Command{
	Use:   "suggest <text>",
	Short: "Rank the categories whose keywords appear in a text",
	Long: `Rank candidate categories for a text by the share of each category's
keywords it contains. Learned corrections are not consulted.

Examples:
  categorizer suggest "UBER EATS SUSHI"
  categorizer suggest "copec pronto" --limit 1 --output-format json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: validateSuggestFlags,
	RunE:    runSuggest,
}

func init() {
	rootCmd.AddCommand(categorizeCmd)
	rootCmd.AddCommand(suggestCmd)

	suggestCmd.Flags().IntVarP(&suggestLimit, "limit", "n", 3, "maximum number of suggestions")
	suggestCmd.Flags().StringVarP(&suggestFormat, "output-format", "f", string(reporter.FormatConsole), "output format: console, json, csv")
}

func runCategorize(cmd *cobra.Command, args []string) error {
	description := strings.TrimSpace(args[0])
	if description == "" {
		return errors.ValidationError(errors.CodeMissingField, "description", args[0], nil)
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	merchant := normalize.NewMerchantNormalizer(s.config.MerchantAliases()).Normalize(description)
	if len(args) == 2 && strings.TrimSpace(args[1]) != "" {
		merchant = args[1]
	}

	id := s.engine.Categorize(description, merchant)
	name := id.String()
	if category, ok := s.engine.Catalog().Get(id); ok {
		name = category.Name
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Merchant: %s\n", merchant)
	fmt.Fprintf(out, "Category: %s (%s)\n", id, name)
	return nil
}

func validateSuggestFlags(cmd *cobra.Command, args []string) error {
	if suggestLimit < 1 {
		return errors.ValidationError(errors.CodeInvalidValue, "limit", suggestLimit,
			fmt.Errorf("limit must be at least 1"))
	}
	if !reporter.OutputFormat(strings.ToLower(suggestFormat)).IsValid() {
		return errors.ValidationError(errors.CodeInvalidValue, "output-format", suggestFormat,
			fmt.Errorf("valid formats: console, json, csv"))
	}
	return nil
}

func runSuggest(cmd *cobra.Command, args []string) error {
	s, err := memorySession()
	if err != nil {
		return err
	}

	generator, err := s.reportGenerator(strings.ToLower(suggestFormat), true)
	if err != nil {
		return err
	}

	suggestions := s.engine.Suggest(args[0], suggestLimit)
	return generator.GenerateSuggestionReport(suggestions, cmd.OutOrStdout())
}
