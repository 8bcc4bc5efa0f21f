package parsers

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dslipak/pdf"

	"statement-categorizer/pkg/errors"
	"statement-categorizer/pkg/logger"
)

// TextExtractor produces the plain text of a document, one line per text
// row and pages in order
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// PDFTextExtractor reads the text layer of PDF statements. Scanned PDFs
// without a text layer are rejected; there is no OCR.
type PDFTextExtractor struct {
	logger logger.Logger
}

// NewPDFTextExtractor creates a PDF text extractor
func NewPDFTextExtractor() *PDFTextExtractor {
	return &PDFTextExtractor{logger: logger.WithComponent("pdf_extractor")}
}

// ExtractText returns the plain text of every page of the PDF at path
func (e *PDFTextExtractor) ExtractText(ctx context.Context, path string) (text string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	file, err := OpenStatement(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", errors.FileError(errors.CodeFileCorrupted, path, err)
	}

	// The PDF reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = errors.ExtractionError(errors.CodeUnreadableDocument, path, fmt.Errorf("%v", r))
		}
	}()

	reader, err := pdf.NewReader(file, info.Size())
	if err != nil {
		return "", errors.ExtractionError(errors.CodeUnreadableDocument, path, err)
	}

	var lines []string
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		lines = append(lines, textLines(page.Content().Text)...)
	}

	text = strings.Join(lines, "\n")
	if strings.TrimSpace(text) == "" {
		return "", errors.ExtractionError(errors.CodeNoTextLayer, path, nil)
	}

	e.logger.WithFields(logger.Fields{
		"file_path": path,
		"pages":     reader.NumPage(),
		"bytes":     len(text),
	}).Debug("Extracted statement text")

	return text, nil
}

// textRow collects the fragments drawn on one baseline
type textRow struct {
	y         float64
	fragments []*textFragment
}

// textFragment is a run of glyphs drawn next to each other
type textFragment struct {
	x    float64
	text strings.Builder
}

// textLines rebuilds the lines of a page from positioned glyphs. Glyphs on
// the same baseline form a row; rows run top to bottom and the fragments of
// a row left to right, joined by a space.
func textLines(glyphs []pdf.Text) []string {
	var rows []*textRow
	byBaseline := make(map[float64]*textRow)

	var (
		current *textFragment
		prev    pdf.Text
	)
	for i, glyph := range glyphs {
		y := math.Round(glyph.Y)
		if i == 0 || y != math.Round(prev.Y) || !adjacent(prev, glyph) {
			row, ok := byBaseline[y]
			if !ok {
				row = &textRow{y: y}
				byBaseline[y] = row
				rows = append(rows, row)
			}
			current = &textFragment{x: glyph.X}
			row.fragments = append(row.fragments, current)
		}
		current.text.WriteString(glyph.S)
		prev = glyph
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		sort.SliceStable(row.fragments, func(i, j int) bool {
			return row.fragments[i].x < row.fragments[j].x
		})

		parts := make([]string, 0, len(row.fragments))
		for _, fragment := range row.fragments {
			if part := strings.TrimSpace(fragment.text.String()); part != "" {
				parts = append(parts, part)
			}
		}
		if len(parts) > 0 {
			lines = append(lines, strings.Join(parts, " "))
		}
	}
	return lines
}

// adjacent reports whether next starts where prev ends. Fonts without a
// widths table report zero advance, so their glyphs share one x.
func adjacent(prev, next pdf.Text) bool {
	tolerance := math.Max(math.Abs(prev.FontSize)*0.2, 0.5)
	return math.Abs(next.X-(prev.X+prev.W)) <= tolerance
}
