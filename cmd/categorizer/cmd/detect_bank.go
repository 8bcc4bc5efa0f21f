package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"statement-categorizer/internal/bank"
	"statement-categorizer/internal/parsers"
	"statement-categorizer/pkg/errors"
)

var listBanks bool

var detectBankCmd = &cobra.Command{
	Use:   "detect-bank [statement]",
	Short: "Identify the bank that issued a statement",
	Long: `Identify the issuing bank from the text of a statement. PDF files are
read through their text layer; any other file is read as plain text.

Examples:
  categorizer detect-bank cartola.pdf
  categorizer detect-bank --list`,
	Args: func(cmd *cobra.Command, args []string) error {
		if listBanks {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: runDetectBank,
}

func init() {
	rootCmd.AddCommand(detectBankCmd)

	detectBankCmd.Flags().BoolVar(&listBanks, "list", false, "list the supported banks")
}

func runDetectBank(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if listBanks {
		for _, id := range bank.IDs() {
			fmt.Fprintln(out, id)
		}
		return nil
	}

	if _, err := loadConfig(); err != nil {
		return err
	}

	path := args[0]
	if err := validateFileExists(path); err != nil {
		return err
	}

	var text string
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		extracted, err := parsers.NewPDFTextExtractor().ExtractText(cmd.Context(), path)
		if err != nil {
			return err
		}
		text = extracted
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.FileError(errors.CodeFileCorrupted, path, err)
		}
		text = string(data)
	}

	id, ok := bank.Detect(text)
	if !ok {
		fmt.Fprintln(out, "unrecognized")
		return nil
	}
	fmt.Fprintln(out, id)
	return nil
}
