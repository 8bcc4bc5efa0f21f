package parsers

import (
	"fmt"
	"strings"

	"statement-categorizer/internal/models"
	"statement-categorizer/internal/normalize"
	"statement-categorizer/pkg/logger"
)

// RowParser maps tabular statement rows to raw transaction lines
type RowParser struct {
	config *RowConfig
	logger logger.Logger
}

// NewRowParser creates a RowParser. A nil config uses DefaultRowConfig.
func NewRowParser(config *RowConfig) (*RowParser, error) {
	if config == nil {
		config = DefaultRowConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid row configuration: %w", err)
	}

	return &RowParser{
		config: config,
		logger: logger.WithComponent("row_parser"),
	}, nil
}

// columnLayout holds the resolved positions of the standard fields
type columnLayout struct {
	date, description, amount int
}

func (l columnLayout) max() int {
	max := l.date
	if l.description > max {
		max = l.description
	}
	if l.amount > max {
		max = l.amount
	}
	return max
}

// ParseRows returns one raw line per data row, in row order. When the first
// non-blank row is a recognized header its columns are used, otherwise the
// configured fixed positions apply. Blank rows and rows too short to hold
// every field are skipped.
func (rp *RowParser) ParseRows(rows [][]string) []models.RawTransactionLine {
	layout := columnLayout{
		date:        rp.config.DateColumn,
		description: rp.config.DescriptionColumn,
		amount:      rp.config.AmountColumn,
	}

	data := rows
	for i, row := range rows {
		if isEmptyRecord(row) {
			continue
		}
		if header, ok := rp.headerLayout(row); ok {
			layout = header
			data = rows[i+1:]
			rp.logger.WithField("header", row).Debug("Using header row")
		}
		break
	}

	var lines []models.RawTransactionLine
	short := 0
	for _, row := range data {
		if isEmptyRecord(row) {
			continue
		}
		if len(row) <= layout.max() {
			short++
			continue
		}
		lines = append(lines, models.RawTransactionLine{
			RawDate:        strings.TrimSpace(row[layout.date]),
			RawDescription: strings.TrimSpace(row[layout.description]),
			RawAmount:      strings.TrimSpace(row[layout.amount]),
		})
	}

	if short > 0 {
		rp.logger.WithField("rows", short).Warn("Skipped rows with missing columns")
	}
	return lines
}

// headerLayout resolves the standard fields from a header row. It fails
// unless all three are found.
func (rp *RowParser) headerLayout(row []string) (columnLayout, bool) {
	found := make(map[string]int, len(standardFields))
	for i, cell := range row {
		name := normalize.Key(cell)
		for _, field := range standardFields {
			if _, done := found[field]; done {
				continue
			}
			if matchesAlias(name, rp.config.ColumnAliases[field]) {
				found[field] = i
				break
			}
		}
	}

	date, okDate := found[FieldDate]
	description, okDescription := found[FieldDescription]
	amount, okAmount := found[FieldAmount]
	if !okDate || !okDescription || !okAmount {
		return columnLayout{}, false
	}
	return columnLayout{date: date, description: description, amount: amount}, true
}

func matchesAlias(name string, aliases []string) bool {
	for _, alias := range aliases {
		if name == normalize.Key(alias) {
			return true
		}
	}
	return false
}
