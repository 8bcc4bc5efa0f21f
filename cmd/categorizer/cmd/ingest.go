package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"statement-categorizer/internal/bank"
	"statement-categorizer/internal/ingest"
	"statement-categorizer/internal/models"
	"statement-categorizer/internal/reporter"
	"statement-categorizer/pkg/errors"
)

// Source formats accepted by --format
const (
	formatAuto = "auto"
	formatPDF  = "pdf"
	formatCSV  = "csv"
	formatText = "text"
)

var (
	sourceFormat string
	bankName     string
	year         int
	outputFormat string
	outputFile   string
	noColor      bool

	statementFile string
	forcedBank    models.BankID
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest <statement>",
	Short: "Import a statement and categorize its transactions",
	Long: `Import a bank or credit card statement, normalize every transaction and
assign it a category.

PDF statements are read through their text layer; scanned PDFs are rejected.
The issuing bank is detected from the statement text unless --bank is given.
Lines that do not look like transactions are ignored, and transaction lines
without a valid calendar date are reported as skipped.

Supported banks: ` + bankList() + `

Examples:
  categorizer ingest cartola-julio.pdf
  categorizer ingest cartola.pdf --bank santander --year 2024
  categorizer ingest movimientos.csv --output-format json
  categorizer ingest extracto.txt --format text --output-file julio.csv --output-format csv`,
	Args:    cobra.ExactArgs(1),
	PreRunE: validateIngestFlags,
	RunE:    runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&sourceFormat, "format", formatAuto, "statement format: auto, pdf, csv, text")
	ingestCmd.Flags().StringVarP(&bankName, "bank", "b", "", "force the bank layout instead of detecting it")
	ingestCmd.Flags().IntVarP(&year, "year", "y", 0, "year for dates printed without one (default: from the statement header)")
	ingestCmd.Flags().StringVarP(&outputFormat, "output-format", "f", string(reporter.FormatConsole), "output format: console, json, csv")
	ingestCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")
	ingestCmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored console output")

	viper.BindPFlag("format", ingestCmd.Flags().Lookup("format"))
	viper.BindPFlag("bank", ingestCmd.Flags().Lookup("bank"))
	viper.BindPFlag("year", ingestCmd.Flags().Lookup("year"))
	viper.BindPFlag("output-format", ingestCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", ingestCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("no-color", ingestCmd.Flags().Lookup("no-color"))
}

func validateIngestFlags(cmd *cobra.Command, args []string) error {
	sourceFormat = strings.ToLower(viper.GetString("format"))
	bankName = viper.GetString("bank")
	year = viper.GetInt("year")
	outputFormat = strings.ToLower(viper.GetString("output-format"))
	outputFile = viper.GetString("output-file")
	noColor = viper.GetBool("no-color")

	if len(args) != 1 {
		return errors.ValidationError(errors.CodeMissingField, "statement", "", nil)
	}
	statementFile = args[0]

	if err := validateFileExists(statementFile); err != nil {
		return err
	}

	format, err := resolveSourceFormat(sourceFormat, statementFile)
	if err != nil {
		return err
	}
	sourceFormat = format

	forcedBank = ""
	if bankName != "" {
		id, err := bank.ParseBankID(bankName)
		if err != nil {
			return err
		}
		forcedBank = id
	}

	if year != 0 && (year < 1900 || year > 2100) {
		return errors.ValidationError(errors.CodeInvalidValue, "year", year,
			fmt.Errorf("year must be between 1900 and 2100"))
	}

	if !reporter.OutputFormat(outputFormat).IsValid() {
		return errors.ValidationError(errors.CodeInvalidValue, "output-format", outputFormat,
			fmt.Errorf("valid formats: console, json, csv"))
	}

	if outputFile != "" && outputFile != "-" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return errors.FileError(errors.CodeFileNotFound, dir, err)
			}
		}
	}

	return nil
}

// resolveSourceFormat maps --format to a concrete source kind. auto uses
// the file extension and treats unknown extensions as extracted text.
func resolveSourceFormat(format, path string) (string, error) {
	switch format {
	case formatPDF, formatCSV, formatText:
		return format, nil
	case formatAuto, "":
		switch strings.ToLower(filepath.Ext(path)) {
		case ".pdf":
			return formatPDF, nil
		case ".csv", ".tsv":
			return formatCSV, nil
		default:
			return formatText, nil
		}
	default:
		return "", errors.ValidationError(errors.CodeInvalidValue, "format", format,
			fmt.Errorf("valid formats: auto, pdf, csv, text"))
	}
}

func validateFileExists(path string) error {
	if path == "" {
		return errors.ValidationError(errors.CodeMissingField, "statement", path, nil)
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return errors.FileError(errors.CodeFileNotFound, path, err)
	}
	if os.IsPermission(err) {
		return errors.FileError(errors.CodeFilePermission, path, err)
	}
	if err != nil {
		return errors.FileError(errors.CodeFileCorrupted, path, err)
	}

	if info.IsDir() {
		return errors.FileError(errors.CodeFileCorrupted, path, fmt.Errorf("%s is a directory, expected a file", path))
	}

	return nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	log := s.logger.WithField("statement", statementFile)
	log.WithField("format", sourceFormat).Debug("Starting ingestion")

	rowConfig, err := s.config.RowConfig()
	if err != nil {
		return err
	}

	service, err := ingest.NewService(s.engine,
		ingest.WithDefaultYear(s.config.Ingest.DefaultYear),
		ingest.WithRowConfig(rowConfig),
		ingest.WithMerchantAliases(s.config.MerchantAliases()),
	)
	if err != nil {
		return errors.InternalError(errors.CodeUnexpectedError, "ingest setup", err)
	}

	opts := ingest.Options{Bank: forcedBank, Year: year}

	var result *ingest.Result
	switch sourceFormat {
	case formatPDF:
		result, err = service.IngestPDF(ctx, statementFile, opts)
	case formatCSV:
		result, err = service.IngestCSV(ctx, statementFile, opts)
	default:
		var data []byte
		data, err = os.ReadFile(statementFile)
		if err != nil {
			return errors.FileError(errors.CodeFileCorrupted, statementFile, err)
		}
		result, err = service.IngestText(ctx, string(data), opts)
	}
	if err != nil {
		return err
	}

	generator, err := s.reportGenerator(outputFormat, !noColor && (outputFile == "" || outputFile == "-"))
	if err != nil {
		return err
	}

	output, err := reporter.OpenOutput(outputFile, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer output.Close()

	if err := generator.GenerateIngestReport(result, output); err != nil {
		return errors.InternalError(errors.CodeUnexpectedError, "report generation", err)
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(cmd.ErrOrStderr(), "Ingestion completed: %s\n", result.Summary())
	}
	return nil
}

func bankList() string {
	ids := bank.IDs()
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, id.String())
	}
	return strings.Join(names, ", ")
}
