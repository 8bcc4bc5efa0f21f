// Package parsers turns statement sources into raw transaction lines.
//
// Two kinds of source are supported:
//   - free text extracted from PDF statements, matched line by line against
//     per-bank line shapes (StatementParser)
//   - tabular rows from CSV exports, mapped through a header alias table or
//     fixed column positions (RowParser)
//
// Lines or rows that do not look like transactions are skipped, never
// reported as errors. Output order always follows statement order.
package parsers

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"statement-categorizer/pkg/errors"
	"statement-categorizer/pkg/logger"
)

const (
	utf8BOM          = "\ufeff"
	encodingScanRows = 100
)

// OpenStatement opens a statement file for reading
func OpenStatement(filePath string) (*os.File, error) {
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, filePath, err)
		}
		if os.IsPermission(err) {
			return nil, errors.FileError(errors.CodeFilePermission, filePath, err)
		}
		return nil, errors.FileError(errors.CodeFileCorrupted, filePath, err)
	}
	return file, nil
}

// ReadCSV reads every row of a CSV export. Blank rows are dropped. A nil
// config uses DefaultRowConfig.
func ReadCSV(r io.Reader, config *RowConfig) ([][]string, error) {
	if config == nil {
		config = DefaultRowConfig()
	}
	log := logger.WithComponent("csv_reader")

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidFormat, "csv", 0, err)
	}
	data = bytes.TrimPrefix(data, []byte(utf8BOM))

	if config.ValidateEncoding {
		if err := validateEncoding(data); err != nil {
			return nil, err
		}
	}

	delimiter := config.Delimiter
	if delimiter == 0 {
		delimiter = sniffDelimiter(data)
	}
	log.WithField("delimiter", string(delimiter)).Debug("Reading CSV rows")

	reader := csv.NewReader(bytes.NewReader(data))
	configureReader(reader, delimiter)

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line := 0
			if parseErr, ok := err.(*csv.ParseError); ok {
				line = parseErr.Line
			}
			return nil, errors.ParseError(errors.CodeInvalidFormat, "csv", line, err)
		}
		if isEmptyRecord(record) {
			continue
		}
		rows = append(rows, record)
	}

	log.WithField("rows", len(rows)).Debug("Read CSV rows")
	return rows, nil
}

// configureReader sets up the CSV reader for bank exports
func configureReader(reader *csv.Reader, delimiter rune) {
	reader.Comma = delimiter
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // Variable number of fields
}

// validateEncoding checks that the first rows are valid UTF-8
func validateEncoding(data []byte) error {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNum := 0

	for scanner.Scan() && lineNum < encodingScanRows {
		lineNum++
		if !utf8.Valid(scanner.Bytes()) {
			return errors.ParseError(
				errors.CodeEncodingError,
				"csv",
				lineNum,
				fmt.Errorf("invalid UTF-8 encoding detected"),
			).WithSuggestion("Save the file in UTF-8 encoding and try again")
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.ParseError(errors.CodeInvalidFormat, "csv", lineNum, err)
	}
	return nil
}

// sniffDelimiter picks ';' when the first non-blank line has more
// semicolons than commas. Chilean exports often use ';' because ',' is the
// decimal separator.
func sniffDelimiter(data []byte) rune {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.Count(line, ";") > strings.Count(line, ",") {
			return ';'
		}
		return ','
	}
	return ','
}

// isEmptyRecord checks if all fields in a record are empty or whitespace
func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
