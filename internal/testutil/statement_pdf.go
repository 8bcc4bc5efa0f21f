// Package testutil builds statement fixtures for tests.
package testutil

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

const (
	pageTop     = 750
	leftMargin  = 50
	lineHeight  = 14
	columnWidth = 250
)

// StatementPDF generates a text-layer PDF statement. Each page is a list of
// lines; a tab in a line starts a new column drawn columnWidth points to the
// right. Every row is positioned with Td, the way statement generators lay
// out tables.
type StatementPDF struct {
	Pages [][]string
}

// Bytes renders the document with a hand-built cross-reference table
func (g StatementPDF) Bytes() []byte {
	// 1 catalog, 2 page tree, 3 font, then a page and its content per page.
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"", // page tree, filled once the kids are known
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var kids []string
	for _, lines := range g.Pages {
		pageNum := len(objects) + 1
		contentNum := pageNum + 1
		kids = append(kids, fmt.Sprintf("%d 0 R", pageNum))

		content := pageContent(lines)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
				"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", contentNum),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(g.Pages))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, object := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, object)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, offset := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offset)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return buf.Bytes()
}

// WriteFile writes the document to path
func (g StatementPDF) WriteFile(path string) error {
	return os.WriteFile(path, g.Bytes(), 0644)
}

func pageContent(lines []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "BT\n/F1 10 Tf\n%d %d Td\n", leftMargin, pageTop)

	for i, line := range lines {
		if i > 0 {
			fmt.Fprintf(&b, "0 %d Td\n", -lineHeight)
		}

		cells := strings.Split(line, "\t")
		for j, cell := range cells {
			if j > 0 {
				fmt.Fprintf(&b, "%d 0 Td\n", columnWidth)
			}
			fmt.Fprintf(&b, "(%s) Tj\n", escapeString(cell))
		}
		if len(cells) > 1 {
			fmt.Fprintf(&b, "%d 0 Td\n", -columnWidth*(len(cells)-1))
		}
	}

	b.WriteString("ET")
	return b.String()
}

func escapeString(s string) string {
	return strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(s)
}
