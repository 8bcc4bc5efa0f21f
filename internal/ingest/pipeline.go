// Package ingest turns a statement source into categorized transactions.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"statement-categorizer/internal/bank"
	"statement-categorizer/internal/models"
	"statement-categorizer/internal/normalize"
	"statement-categorizer/internal/parsers"
	"statement-categorizer/pkg/logger"
)

// Source kinds
const (
	SourcePDF  = "pdf"
	SourceText = "text"
	SourceCSV  = "csv"
	SourceRows = "rows"
)

// Categorizer assigns categories to normalized transactions
type Categorizer interface {
	CategorizeBatch(transactions []models.NormalizedTransaction) []models.NormalizedTransaction
}

// Options adjusts how a statement is read
type Options struct {
	// Bank forces a bank layout instead of detecting it
	Bank models.BankID
	// Year is used for dates without a year. Zero infers it from the
	// statement header, then falls back to the service default.
	Year int
}

// SkippedLine is a line that could not become a transaction
type SkippedLine struct {
	Index  int                       `json:"index"`
	Line   models.RawTransactionLine `json:"line"`
	Reason string                    `json:"reason"`
}

// Result is the outcome of one ingestion
type Result struct {
	BatchID      uuid.UUID                      `json:"batch_id"`
	Source       string                         `json:"source"`
	Bank         models.BankID                  `json:"bank,omitempty"`
	BankKnown    bool                           `json:"bank_known"`
	Year         int                            `json:"year"`
	Transactions []models.NormalizedTransaction `json:"transactions"`
	Processed    int                            `json:"processed"`
	Skipped      int                            `json:"skipped"`
	SkippedLines []SkippedLine                  `json:"skipped_lines,omitempty"`
}

// Summary returns the user-facing count line
func (r *Result) Summary() string {
	return fmt.Sprintf("%d processed, %d skipped", r.Processed, r.Skipped)
}

// Service runs the ingestion pipeline
type Service struct {
	extractor   parsers.TextExtractor
	statements  *parsers.StatementParser
	rows        *parsers.RowParser
	rowConfig   *parsers.RowConfig
	merchants   *normalize.MerchantNormalizer
	categorizer Categorizer
	defaultYear int
	logger      logger.Logger
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithExtractor replaces the PDF text extractor
func WithExtractor(extractor parsers.TextExtractor) ServiceOption {
	return func(s *Service) {
		s.extractor = extractor
	}
}

// WithDefaultYear sets the year used when neither options nor the statement
// header provide one
func WithDefaultYear(year int) ServiceOption {
	return func(s *Service) {
		if year > 0 {
			s.defaultYear = year
		}
	}
}

// WithRowConfig sets how CSV rows are read
func WithRowConfig(config *parsers.RowConfig) ServiceOption {
	return func(s *Service) {
		s.rowConfig = config
	}
}

// WithMerchantAliases replaces the merchant alias table
func WithMerchantAliases(aliases []normalize.MerchantAlias) ServiceOption {
	return func(s *Service) {
		s.merchants = normalize.NewMerchantNormalizer(aliases)
	}
}

// NewService creates an ingestion service around categorizer
func NewService(categorizer Categorizer, opts ...ServiceOption) (*Service, error) {
	if categorizer == nil {
		return nil, fmt.Errorf("categorizer is required")
	}

	s := &Service{
		extractor:   parsers.NewPDFTextExtractor(),
		statements:  parsers.NewStatementParser(),
		rowConfig:   parsers.DefaultRowConfig(),
		merchants:   normalize.NewMerchantNormalizer(normalize.DefaultMerchantAliases),
		categorizer: categorizer,
		defaultYear: time.Now().Year(),
		logger:      logger.WithComponent("ingest"),
	}
	for _, opt := range opts {
		opt(s)
	}

	rows, err := parsers.NewRowParser(s.rowConfig)
	if err != nil {
		return nil, err
	}
	s.rows = rows

	return s, nil
}

// IngestPDF extracts the text of a PDF statement and ingests it
func (s *Service) IngestPDF(ctx context.Context, path string, opts Options) (*Result, error) {
	text, err := s.extractor.ExtractText(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.ingestText(ctx, text, SourcePDF, opts)
}

// IngestText ingests already extracted statement text
func (s *Service) IngestText(ctx context.Context, text string, opts Options) (*Result, error) {
	return s.ingestText(ctx, text, SourceText, opts)
}

func (s *Service) ingestText(ctx context.Context, text, source string, opts Options) (*Result, error) {
	bankID, known := opts.Bank, opts.Bank != ""
	if !known {
		bankID, known = bank.Detect(text)
	}

	year := opts.Year
	if year == 0 {
		year = parsers.StatementYear(text, s.defaultYear)
	}

	s.logger.WithFields(logger.Fields{
		"source": source,
		"bank":   bankID,
		"known":  known,
		"year":   year,
	}).Debug("Ingesting statement text")

	lines := s.statements.ParseText(text, bankID, known)
	result, err := s.build(ctx, lines, source, year)
	if err != nil {
		return nil, err
	}
	result.Bank, result.BankKnown = bankID, known
	return result, nil
}

// IngestCSV reads a CSV export and ingests its rows
func (s *Service) IngestCSV(ctx context.Context, path string, opts Options) (*Result, error) {
	file, err := parsers.OpenStatement(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	rows, err := parsers.ReadCSV(file, s.rowConfig)
	if err != nil {
		return nil, err
	}
	return s.ingestRows(ctx, rows, SourceCSV, opts)
}

// IngestRows ingests rows that were already read from a tabular source
func (s *Service) IngestRows(ctx context.Context, rows [][]string, opts Options) (*Result, error) {
	return s.ingestRows(ctx, rows, SourceRows, opts)
}

func (s *Service) ingestRows(ctx context.Context, rows [][]string, source string, opts Options) (*Result, error) {
	year := opts.Year
	if year == 0 {
		year = s.defaultYear
	}

	result, err := s.build(ctx, s.rows.ParseRows(rows), source, year)
	if err != nil {
		return nil, err
	}
	result.Bank, result.BankKnown = opts.Bank, opts.Bank != ""
	return result, nil
}

// build normalizes and categorizes raw lines. A line without a calendar
// date or a description is skipped; an unreadable amount becomes zero.
func (s *Service) build(ctx context.Context, lines []models.RawTransactionLine, source string, year int) (*Result, error) {
	result := &Result{
		BatchID:      uuid.New(),
		Source:       source,
		Year:         year,
		Transactions: make([]models.NormalizedTransaction, 0, len(lines)),
	}
	log := s.logger.WithField("batch_id", result.BatchID.String())

	for i, line := range lines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tx, reason := s.normalizeLine(line, year)
		if reason != "" {
			result.SkippedLines = append(result.SkippedLines, SkippedLine{Index: i, Line: line, Reason: reason})
			log.WithFields(logger.Fields{"index": i, "reason": reason}).Debug("Skipped line")
			continue
		}
		result.Transactions = append(result.Transactions, tx)
	}

	result.Transactions = s.categorizer.CategorizeBatch(result.Transactions)
	result.Processed = len(result.Transactions)
	result.Skipped = len(result.SkippedLines)

	if result.Skipped > 0 {
		log.WithField("skipped", result.Skipped).Warn("Some statement lines were skipped")
	}
	log.WithFields(logger.Fields{
		"source":    source,
		"processed": result.Processed,
	}).Info("Ingested statement")

	return result, nil
}

func (s *Service) normalizeLine(line models.RawTransactionLine, year int) (models.NormalizedTransaction, string) {
	date, ok := normalize.ParseDate(line.RawDate, year)
	if !ok {
		return models.NormalizedTransaction{}, fmt.Sprintf("unreadable date %q", line.RawDate)
	}

	description := strings.Join(strings.Fields(line.RawDescription), " ")
	if description == "" {
		return models.NormalizedTransaction{}, "empty description"
	}

	return models.NormalizedTransaction{
		Date:        date.Format(models.DateLayout),
		Description: description,
		Merchant:    s.merchants.Normalize(description),
		Amount:      normalize.NormalizeAmount(line.RawAmount),
		Category:    models.FallbackCategory,
	}, ""
}
