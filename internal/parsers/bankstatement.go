package parsers

import (
	"regexp"
	"strconv"
	"strings"

	"statement-categorizer/internal/models"
	"statement-categorizer/pkg/logger"
)

// LineShape is one transaction line layout. Its pattern must define the
// named groups date, description and amount.
type LineShape struct {
	Name    string
	Bank    models.BankID
	Pattern *regexp.Regexp
}

const (
	amountToken = `-?(?:US\$|\$)?\s?-?\d+(?:\.\d{3})*(?:,\d{1,2})?`
	priceToken  = `-?\$\s?-?\d+(?:\.\d{3})*(?:,\d{1,2})?`
	commaCents  = `-?\d{1,3}(?:\.\d{3})*,\d{2}`
)

func shape(name string, bank models.BankID, pattern string) LineShape {
	return LineShape{Name: name, Bank: bank, Pattern: regexp.MustCompile(pattern)}
}

// BankLineShapes holds the known layouts of each bank, in the order they
// are tried
var BankLineShapes = []LineShape{
	shape("santander", models.BankSantander,
		`^(?P<date>\d{2}/\d{2}/\d{4})\s+(?P<description>.+?)\s+(?P<amount>`+priceToken+`)\s*$`),
	shape("bancochile", models.BankChile,
		`^(?P<date>\d{2}/\d{2}/\d{2})\s+(?P<description>.+?)\s+(?P<amount>`+amountToken+`)\s*$`),
	shape("bci", models.BankBCI,
		`^(?P<date>\d{2}-\d{2}-\d{4})\s+(?P<description>.+?)\s+(?P<amount>`+amountToken+`)\s*$`),
	shape("bancoestado", models.BankEstado,
		`^(?P<date>\d{2}\.\d{2}\.\d{4})\s*\|\s*(?P<description>[^|]+?)\s*\|\s*(?P<amount>`+amountToken+`)\s*\|?\s*$`),
	shape("falabella", models.BankFalabella,
		`^(?P<date>\d{2}/\d{2})\s+(?P<description>.+?)\s+(?P<amount>`+amountToken+`)\s*$`),
	shape("ripley", models.BankRipley,
		`^(?P<date>\d{2}/\d{2}/\d{2})\s+(?P<description>.+?)\s+(?P<amount>`+priceToken+`)\s*$`),
	shape("scotiabank", models.BankScotiabank,
		`^(?P<date>\d{4}-\d{2}-\d{2})\s+(?P<description>.+?)\s+(?P<amount>`+commaCents+`)\s*$`),
	shape("itau", models.BankItau,
		`^(?P<date>\d{4}-\d{2}-\d{2})\s+(?P<description>.+?)\s+(?P<amount>`+commaCents+`)\s*$`),
}

// GenericLineShape is used when the bank is unrecognized: a date token, a
// description and an amount token on the same line
var GenericLineShape = shape("generic", "",
	`^(?P<date>\d{4}-\d{2}-\d{2}|\d{1,2}[/.-]\d{1,2}(?:[/.-]\d{2,4})?)\s+(?P<description>.+?)\s+(?P<amount>`+amountToken+`)\s*$`)

// StatementParser extracts raw transaction lines from statement text
type StatementParser struct {
	shapes  []LineShape
	generic LineShape
	logger  logger.Logger
}

// NewStatementParser creates a parser over the built-in line shapes
func NewStatementParser() *StatementParser {
	return &StatementParser{
		shapes:  BankLineShapes,
		generic: GenericLineShape,
		logger:  logger.WithComponent("statement_parser"),
	}
}

// ShapesFor returns the line shapes used for bank. An unknown bank gets the
// generic shape only.
func (sp *StatementParser) ShapesFor(bank models.BankID, known bool) []LineShape {
	if !known {
		return []LineShape{sp.generic}
	}

	var shapes []LineShape
	for _, s := range sp.shapes {
		if s.Bank == bank {
			shapes = append(shapes, s)
		}
	}
	if len(shapes) == 0 {
		return []LineShape{sp.generic}
	}
	return shapes
}

// ParseText returns the transaction-like lines of text in statement order.
// Lines matching no shape are skipped. An empty result is not an error.
func (sp *StatementParser) ParseText(text string, bank models.BankID, known bool) []models.RawTransactionLine {
	shapes := sp.ShapesFor(bank, known)
	log := sp.logger.WithFields(logger.Fields{"bank": bank, "known": known})

	var lines []models.RawTransactionLine
	skipped := 0

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(strings.TrimRight(rawLine, "\r"))
		if line == "" {
			continue
		}

		parsed, ok := matchLine(line, shapes)
		if !ok {
			skipped++
			continue
		}
		lines = append(lines, parsed)
	}

	log.WithFields(logger.Fields{
		"matched": len(lines),
		"ignored": skipped,
	}).Debug("Parsed statement text")

	return lines
}

func matchLine(line string, shapes []LineShape) (models.RawTransactionLine, bool) {
	for _, s := range shapes {
		m := s.Pattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		return models.RawTransactionLine{
			RawDate:        m[s.Pattern.SubexpIndex("date")],
			RawDescription: strings.TrimSpace(m[s.Pattern.SubexpIndex("description")]),
			RawAmount:      m[s.Pattern.SubexpIndex("amount")],
		}, true
	}
	return models.RawTransactionLine{}, false
}

var statementYearPattern = regexp.MustCompile(`(?i)(?:per[ií]odo|fecha)[^\n]*?\b((?:19|20)\d{2})\b`)

// StatementYear infers the billing year from a "periodo" or "fecha" header.
// It returns fallback when no header carries a year.
func StatementYear(text string, fallback int) int {
	m := statementYearPattern.FindStringSubmatch(text)
	if m == nil {
		return fallback
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return fallback
	}
	return year
}
