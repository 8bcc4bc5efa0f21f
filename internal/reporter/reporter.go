// Package reporter renders ingestion results, suggestions and learned
// override statistics.
//
// Supported output formats:
//   - Console: aligned, optionally colored text for the terminal
//   - JSON: indented documents for programmatic consumption
//   - CSV: one row per item for spreadsheet applications
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"

	"statement-categorizer/internal/categorizer"
	"statement-categorizer/internal/ingest"
	"statement-categorizer/internal/models"
	"statement-categorizer/internal/normalize"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// Console options
	UseColors      bool `json:"use_colors"`
	IncludeSkipped bool `json:"include_skipped"`
	IncludeTotals  bool `json:"include_totals"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`

	// Catalog supplies display names and ordering of categories
	Catalog models.Catalog `json:"-"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:         FormatConsole,
		UseColors:      true,
		IncludeSkipped: true,
		IncludeTotals:  true,
		CSVDelimiter:   ',',
		CSVHeaders:     true,
		Catalog:        models.DefaultCatalog(),
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}

	if c.Format == FormatCSV {
		switch c.CSVDelimiter {
		case ',', ';', '\t':
		default:
			return fmt.Errorf("unsupported CSV delimiter %q", c.CSVDelimiter)
		}
	}

	return nil
}

// ReportGenerator renders reports in the configured format
type ReportGenerator struct {
	config *ReportConfig

	heading *color.Color
	good    *color.Color
	warn    *color.Color
	muted   *color.Color
}

// NewReportGenerator creates a new report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	rg := &ReportGenerator{
		config:  config,
		heading: color.New(color.Bold, color.FgCyan),
		good:    color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		muted:   color.New(color.Faint),
	}
	if !config.UseColors {
		for _, c := range []*color.Color{rg.heading, rg.good, rg.warn, rg.muted} {
			c.DisableColor()
		}
	}
	return rg, nil
}

// GenerateIngestReport writes an ingestion result
func (rg *ReportGenerator) GenerateIngestReport(result *ingest.Result, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("ingestion result cannot be nil")
	}

	switch rg.config.Format {
	case FormatJSON:
		return writeJSON(writer, result)
	case FormatCSV:
		return rg.writeCSV(writer, []string{"date", "description", "merchant", "amount", "category"},
			func(write func([]string) error) error {
				for _, tx := range result.Transactions {
					record := []string{tx.Date, tx.Description, tx.Merchant, tx.Amount.String(), tx.Category.String()}
					if err := write(record); err != nil {
						return err
					}
				}
				return nil
			})
	default:
		return rg.consoleIngest(result, writer)
	}
}

func (rg *ReportGenerator) consoleIngest(result *ingest.Result, writer io.Writer) error {
	bankName := "unrecognized (generic layout)"
	if result.BankKnown {
		bankName = result.Bank.String()
	}

	rg.heading.Fprintf(writer, "STATEMENT IMPORT\n")
	fmt.Fprintf(writer, "Batch:  %s\n", result.BatchID)
	fmt.Fprintf(writer, "Source: %s\n", result.Source)
	fmt.Fprintf(writer, "Bank:   %s\n\n", bankName)

	if len(result.Transactions) > 0 {
		rg.heading.Fprintf(writer, "=== TRANSACTIONS ===\n")
		fmt.Fprintf(writer, "%-10s  %-16s  %14s  %s\n", "Date", "Category", "Amount", "Description")
		for _, tx := range result.Transactions {
			fmt.Fprintf(writer, "%-10s  %-16s  %14s  %s\n",
				tx.Date, rg.categoryLabel(tx.Category), normalize.FormatAmount(tx.Amount), tx.Description)
		}
		fmt.Fprintln(writer)
	}

	if rg.config.IncludeTotals && len(result.Transactions) > 0 {
		rg.heading.Fprintf(writer, "=== TOTALS BY CATEGORY ===\n")
		for _, total := range rg.categoryTotals(result.Transactions) {
			fmt.Fprintf(writer, "%-16s  %14s  (%d)\n",
				rg.categoryLabel(total.category), normalize.FormatAmount(total.amount), total.count)
		}
		fmt.Fprintln(writer)
	}

	if rg.config.IncludeSkipped && len(result.SkippedLines) > 0 {
		rg.heading.Fprintf(writer, "=== SKIPPED LINES ===\n")
		for _, skipped := range result.SkippedLines {
			rg.muted.Fprintf(writer, "#%d %s | %s | %s: %s\n", skipped.Index+1,
				skipped.Line.RawDate, skipped.Line.RawDescription, skipped.Line.RawAmount, skipped.Reason)
		}
		fmt.Fprintln(writer)
	}

	rg.good.Fprintf(writer, "%d processed", result.Processed)
	fmt.Fprint(writer, ", ")
	if result.Skipped > 0 {
		rg.warn.Fprintf(writer, "%d skipped", result.Skipped)
	} else {
		fmt.Fprintf(writer, "%d skipped", result.Skipped)
	}
	fmt.Fprintln(writer)
	return nil
}

type categoryTotal struct {
	category models.CategoryID
	amount   decimal.Decimal
	count    int
}

// categoryTotals sums amounts per category in catalog order. Categories
// unknown to the catalog follow in order of appearance.
func (rg *ReportGenerator) categoryTotals(transactions []models.NormalizedTransaction) []categoryTotal {
	index := make(map[models.CategoryID]int)
	var totals []categoryTotal
	for _, id := range rg.config.Catalog.IDs() {
		index[id] = len(totals)
		totals = append(totals, categoryTotal{category: id, amount: decimal.Zero})
	}

	for _, tx := range transactions {
		i, ok := index[tx.Category]
		if !ok {
			i = len(totals)
			index[tx.Category] = i
			totals = append(totals, categoryTotal{category: tx.Category, amount: decimal.Zero})
		}
		totals[i].amount = totals[i].amount.Add(tx.Amount)
		totals[i].count++
	}

	used := totals[:0]
	for _, total := range totals {
		if total.count > 0 {
			used = append(used, total)
		}
	}
	return used
}

// GenerateStatsReport writes learned override statistics
func (rg *ReportGenerator) GenerateStatsReport(stats categorizer.Stats, writer io.Writer) error {
	switch rg.config.Format {
	case FormatJSON:
		return writeJSON(writer, stats)
	case FormatCSV:
		return rg.writeCSV(writer, []string{"category", "count"}, func(write func([]string) error) error {
			for _, entry := range stats.Top {
				if err := write([]string{entry.Category.String(), strconv.Itoa(entry.Count)}); err != nil {
					return err
				}
			}
			return nil
		})
	default:
		rg.heading.Fprintf(writer, "LEARNED CATEGORIES\n")
		fmt.Fprintf(writer, "Total learned: %d\n", stats.TotalLearned)
		if len(stats.Top) == 0 {
			rg.muted.Fprintf(writer, "No corrections learned yet\n")
			return nil
		}
		fmt.Fprintf(writer, "\n=== TOP %d ===\n", len(stats.Top))
		for i, entry := range stats.Top {
			fmt.Fprintf(writer, "%d. %-16s %d\n", i+1, rg.categoryLabel(entry.Category), entry.Count)
		}
		return nil
	}
}

// GenerateSuggestionReport writes ranked category suggestions
func (rg *ReportGenerator) GenerateSuggestionReport(suggestions []categorizer.Suggestion, writer io.Writer) error {
	switch rg.config.Format {
	case FormatJSON:
		return writeJSON(writer, suggestions)
	case FormatCSV:
		return rg.writeCSV(writer, []string{"category", "confidence"}, func(write func([]string) error) error {
			for _, s := range suggestions {
				if err := write([]string{s.Category.String(), strconv.FormatFloat(s.Confidence, 'f', 2, 64)}); err != nil {
					return err
				}
			}
			return nil
		})
	default:
		if len(suggestions) == 0 {
			rg.muted.Fprintf(writer, "No matching categories\n")
			return nil
		}
		for _, s := range suggestions {
			fmt.Fprintf(writer, "%-16s %6.1f%%\n", rg.categoryLabel(s.Category), s.Confidence)
		}
		return nil
	}
}

// GenerateOverridesReport writes the learned merchant table
func (rg *ReportGenerator) GenerateOverridesReport(overrides []categorizer.Override, writer io.Writer) error {
	switch rg.config.Format {
	case FormatJSON:
		return writeJSON(writer, overrides)
	case FormatCSV:
		return rg.writeCSV(writer, []string{"merchant", "category"}, func(write func([]string) error) error {
			for _, o := range overrides {
				if err := write([]string{o.Merchant, o.Category.String()}); err != nil {
					return err
				}
			}
			return nil
		})
	default:
		if len(overrides) == 0 {
			rg.muted.Fprintf(writer, "No corrections learned yet\n")
			return nil
		}
		for _, o := range overrides {
			fmt.Fprintf(writer, "%-30s -> %s\n", o.Merchant, rg.categoryLabel(o.Category))
		}
		return nil
	}
}

// categoryLabel returns the catalog display name, or the raw id
func (rg *ReportGenerator) categoryLabel(id models.CategoryID) string {
	if category, ok := rg.config.Catalog.Get(id); ok && category.Name != "" {
		return category.Name
	}
	return id.String()
}

func (rg *ReportGenerator) writeCSV(writer io.Writer, headers []string, rows func(write func([]string) error) error) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter

	if rg.config.CSVHeaders {
		if err := csvWriter.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}
	if err := rows(csvWriter.Write); err != nil {
		return fmt.Errorf("failed to write CSV record: %w", err)
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

func writeJSON(writer io.Writer, v interface{}) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
