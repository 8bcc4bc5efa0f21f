package parsers

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/dslipak/pdf"

	"statement-categorizer/internal/models"
	"statement-categorizer/internal/testutil"
	"statement-categorizer/pkg/errors"
)

func TestRowConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *RowConfig)
		wantError bool
	}{
		{"default", func(c *RowConfig) {}, false},
		{"semicolon", func(c *RowConfig) { c.Delimiter = ';' }, false},
		{"negative column", func(c *RowConfig) { c.AmountColumn = -1 }, true},
		{"shared column", func(c *RowConfig) { c.AmountColumn = c.DateColumn }, true},
		{"bad delimiter", func(c *RowConfig) { c.Delimiter = '#' }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultRowConfig()
			tt.mutate(config)
			err := config.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  [][]string
	}{
		{
			name:  "semicolon sniffed",
			input: "Fecha;Descripción;Monto\n12/07/2024;COMPRA LIDER;1.234,50\n",
			want:  [][]string{{"Fecha", "Descripción", "Monto"}, {"12/07/2024", "COMPRA LIDER", "1.234,50"}},
		},
		{
			name:  "comma with quotes",
			input: "date,description,amount\n2024-07-12,NETFLIX,\"8.990\"\n",
			want:  [][]string{{"date", "description", "amount"}, {"2024-07-12", "NETFLIX", "8.990"}},
		},
		{
			name:  "bom and blank rows",
			input: "\ufefffecha;glosa;cargo\n\n;;\n01/02/2024;UBER;3.500\n",
			want:  [][]string{{"fecha", "glosa", "cargo"}, {"01/02/2024", "UBER", "3.500"}},
		},
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := ReadCSV(strings.NewReader(tt.input), nil)
			if err != nil {
				t.Fatalf("ReadCSV() error = %v", err)
			}
			if !reflect.DeepEqual(rows, tt.want) {
				t.Errorf("ReadCSV() = %q, want %q", rows, tt.want)
			}
		})
	}
}

func TestReadCSV_InvalidEncoding(t *testing.T) {
	input := "fecha;glosa;monto\n01/02/2024;CAF\xe9;3.500\n"

	_, err := ReadCSV(strings.NewReader(input), nil)
	if !errors.HasCode(err, errors.CodeEncodingError) {
		t.Fatalf("expected encoding error, got %v", err)
	}

	catErr, _ := errors.AsCategorizerError(err)
	if catErr.Context["line"] != 2 {
		t.Errorf("expected line 2 in context, got %v", catErr.Context["line"])
	}
}

func TestReadCSV_ExplicitDelimiter(t *testing.T) {
	config := DefaultRowConfig()
	config.Delimiter = '|'

	rows, err := ReadCSV(strings.NewReader("a|b|c\n"), config)
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if len(rows) != 1 || len(rows[0]) != 3 {
		t.Errorf("expected one row of three fields, got %q", rows)
	}
}

func TestRowParser_ParseRows(t *testing.T) {
	parser, err := NewRowParser(nil)
	if err != nil {
		t.Fatalf("NewRowParser() error = %v", err)
	}

	t.Run("header in any order", func(t *testing.T) {
		rows := [][]string{
			{"Monto", "Fecha Operación", "Detalle", "Cuotas"},
			{"$45.000", "12/07/2024", " COMPRA LIDER ", "1/1"},
			{"8.990", "13/07/2024", "NETFLIX", ""},
		}

		got := parser.ParseRows(rows)
		want := []models.RawTransactionLine{
			{RawDate: "12/07/2024", RawDescription: "COMPRA LIDER", RawAmount: "$45.000"},
			{RawDate: "13/07/2024", RawDescription: "NETFLIX", RawAmount: "8.990"},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("ParseRows() = %+v, want %+v", got, want)
		}
	})

	t.Run("fixed positions without header", func(t *testing.T) {
		rows := [][]string{
			{"12/07/2024", "COMPRA LIDER", "45.000"},
			{"13/07/2024", "SIN MONTO"},
			{"", "", ""},
			{"14/07/2024", "UBER", "3.500"},
		}

		got := parser.ParseRows(rows)
		if len(got) != 2 {
			t.Fatalf("expected 2 lines, got %d: %+v", len(got), got)
		}
		if got[0].RawDescription != "COMPRA LIDER" || got[1].RawDescription != "UBER" {
			t.Errorf("expected statement order to be kept, got %+v", got)
		}
	})

	t.Run("shared alias goes to the earlier field", func(t *testing.T) {
		config := DefaultRowConfig()
		config.ColumnAliases = map[string][]string{
			FieldDate:        {"fecha"},
			FieldDescription: {"detalle"},
			FieldAmount:      {"detalle", "cargo"},
		}
		shared, err := NewRowParser(config)
		if err != nil {
			t.Fatalf("NewRowParser() error = %v", err)
		}

		rows := [][]string{
			{"Fecha", "Detalle", "Detalle"},
			{"12/07/2024", "NETFLIX", "8.990"},
		}
		want := []models.RawTransactionLine{
			{RawDate: "12/07/2024", RawDescription: "NETFLIX", RawAmount: "8.990"},
		}
		for i := 0; i < 20; i++ {
			if got := shared.ParseRows(rows); !reflect.DeepEqual(got, want) {
				t.Fatalf("ParseRows() = %+v, want %+v", got, want)
			}
		}
	})

	t.Run("partial header is data", func(t *testing.T) {
		rows := [][]string{{"fecha", "algo", "otro"}}
		got := parser.ParseRows(rows)
		if len(got) != 1 || got[0].RawDate != "fecha" {
			t.Errorf("expected unrecognized header to be parsed as data, got %+v", got)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if got := parser.ParseRows(nil); len(got) != 0 {
			t.Errorf("expected no lines, got %+v", got)
		}
	})
}

func TestNewRowParser_InvalidConfig(t *testing.T) {
	config := DefaultRowConfig()
	config.DateColumn = -2

	if _, err := NewRowParser(config); err == nil {
		t.Error("expected invalid configuration to be rejected")
	}
}

func TestStatementParser_ParseText(t *testing.T) {
	parser := NewStatementParser()

	tests := []struct {
		name  string
		text  string
		bank  models.BankID
		known bool
		want  []models.RawTransactionLine
	}{
		{
			name: "generic line",
			text: "CARTOLA\n12/07/2024 COMPRA LIDER EXPRESS $45.000\nTotal del periodo",
			want: []models.RawTransactionLine{
				{RawDate: "12/07/2024", RawDescription: "COMPRA LIDER EXPRESS", RawAmount: "$45.000"},
			},
		},
		{
			name:  "santander",
			text:  "BANCO SANTANDER\r\n05/03/2024 UBER TRIP 123 $ 3.500\r\n06/03/2024 PAGO SIN SIGNO 1.000\r\n",
			bank:  models.BankSantander,
			known: true,
			want: []models.RawTransactionLine{
				{RawDate: "05/03/2024", RawDescription: "UBER TRIP 123", RawAmount: "$ 3.500"},
			},
		},
		{
			name:  "bancoestado pipes",
			text:  "01.02.2024 | CUENTARUT GIRO | 20.000 |\n02.02.2024 | PAGO FARMACIA CRUZ VERDE | 7.990",
			bank:  models.BankEstado,
			known: true,
			want: []models.RawTransactionLine{
				{RawDate: "01.02.2024", RawDescription: "CUENTARUT GIRO", RawAmount: "20.000"},
				{RawDate: "02.02.2024", RawDescription: "PAGO FARMACIA CRUZ VERDE", RawAmount: "7.990"},
			},
		},
		{
			name:  "falabella without year",
			text:  "15/06 CMR JUMBO COSTANERA 01/03 52.300",
			bank:  models.BankFalabella,
			known: true,
			want: []models.RawTransactionLine{
				{RawDate: "15/06", RawDescription: "CMR JUMBO COSTANERA 01/03", RawAmount: "52.300"},
			},
		},
		{
			name:  "itau cents",
			text:  "2024-07-01 SPOTIFY P0123 6.490,00",
			bank:  models.BankItau,
			known: true,
			want: []models.RawTransactionLine{
				{RawDate: "2024-07-01", RawDescription: "SPOTIFY P0123", RawAmount: "6.490,00"},
			},
		},
		{
			name:  "known bank ignores generic lines",
			text:  "12-07-2024 COMPRA 1.000",
			bank:  models.BankSantander,
			known: true,
			want:  nil,
		},
		{
			name: "no transactions",
			text: "Estimado cliente, su estado de cuenta no registra movimientos.",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parser.ParseText(tt.text, tt.bank, tt.known)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseText() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestStatementParser_ShapesFor(t *testing.T) {
	parser := NewStatementParser()

	for _, shape := range parser.ShapesFor(models.BankChile, true) {
		if shape.Bank != models.BankChile {
			t.Errorf("expected only bancochile shapes, got %s", shape.Name)
		}
	}

	generic := parser.ShapesFor("", false)
	if len(generic) != 1 || generic[0].Name != "generic" {
		t.Errorf("expected generic shape for unknown bank, got %+v", generic)
	}

	for _, shape := range append(BankLineShapes, GenericLineShape) {
		for _, group := range []string{"date", "description", "amount"} {
			if shape.Pattern.SubexpIndex(group) < 0 {
				t.Errorf("shape %s is missing group %s", shape.Name, group)
			}
		}
	}
}

func TestStatementYear(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"periodo header", "CMR FALABELLA\nPeriodo facturado: 01/06/2023 al 30/06/2023\n15/06 JUMBO 1.000", 2023},
		{"accented", "PERÍODO DE FACTURACIÓN JUNIO 2022", 2022},
		{"fecha header", "FECHA DE EMISION 05-01-2021", 2021},
		{"column header without year", "FECHA DESCRIPCION MONTO\n15/06 JUMBO 1.000", 2024},
		{"nothing", "15/06 JUMBO 1.000", 2024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatementYear(tt.text, 2024); got != tt.want {
				t.Errorf("StatementYear() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPDFTextExtractor_Errors(t *testing.T) {
	extractor := NewPDFTextExtractor()
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := extractor.ExtractText(context.Background(), filepath.Join(dir, "nope.pdf"))
		if !errors.HasCode(err, errors.CodeFileNotFound) {
			t.Errorf("expected file not found, got %v", err)
		}
	})

	t.Run("not a pdf", func(t *testing.T) {
		path := filepath.Join(dir, "fake.pdf")
		if err := os.WriteFile(path, []byte("fecha;glosa;monto\n"), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := extractor.ExtractText(context.Background(), path)
		if !errors.HasCode(err, errors.CodeUnreadableDocument) {
			t.Errorf("expected unreadable document, got %v", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := extractor.ExtractText(ctx, filepath.Join(dir, "any.pdf")); err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestPDFTextExtractor_ExtractText(t *testing.T) {
	extractor := NewPDFTextExtractor()
	dir := t.TempDir()

	t.Run("rows and pages", func(t *testing.T) {
		path := filepath.Join(dir, "cartola.pdf")
		statement := testutil.StatementPDF{Pages: [][]string{
			{
				"12/07/2024 COMPRA LIDER EXPRESS $45.000",
				"13/07/2024 NETFLIX $9.990",
				"14/07/2024 FARMACIA CRUZ VERDE\t$12.500",
			},
			{
				"Resumen del periodo",
				"15/07/2024 UBER TRIP $6.200",
			},
		}}
		if err := statement.WriteFile(path); err != nil {
			t.Fatal(err)
		}

		text, err := extractor.ExtractText(context.Background(), path)
		if err != nil {
			t.Fatalf("ExtractText() error = %v", err)
		}

		expected := []string{
			"12/07/2024 COMPRA LIDER EXPRESS $45.000",
			"13/07/2024 NETFLIX $9.990",
			"14/07/2024 FARMACIA CRUZ VERDE $12.500",
			"Resumen del periodo",
			"15/07/2024 UBER TRIP $6.200",
		}
		if got := strings.Split(text, "\n"); !reflect.DeepEqual(got, expected) {
			t.Errorf("ExtractText() lines = %q, want %q", got, expected)
		}

		lines := NewStatementParser().ParseText(text, "", false)
		if len(lines) != 4 {
			t.Fatalf("expected 4 transaction lines, got %d: %+v", len(lines), lines)
		}
		if lines[1].RawDescription != "NETFLIX" || lines[1].RawAmount != "$9.990" {
			t.Errorf("unexpected second line: %+v", lines[1])
		}
	})

	t.Run("empty page", func(t *testing.T) {
		path := filepath.Join(dir, "blank.pdf")
		if err := (testutil.StatementPDF{Pages: [][]string{{}}}).WriteFile(path); err != nil {
			t.Fatal(err)
		}

		_, err := extractor.ExtractText(context.Background(), path)
		if !errors.HasCode(err, errors.CodeNoTextLayer) {
			t.Errorf("expected no text layer, got %v", err)
		}
	})
}

func TestTextLines(t *testing.T) {
	glyph := func(s string, x, y, w float64) pdf.Text {
		return pdf.Text{S: s, X: x, Y: y, W: w, FontSize: 10}
	}

	tests := []struct {
		name     string
		glyphs   []pdf.Text
		expected []string
	}{
		{
			name:     "no glyphs",
			glyphs:   nil,
			expected: []string{},
		},
		{
			name: "advancing glyphs stay in one word",
			glyphs: []pdf.Text{
				glyph("A", 50, 700, 6), glyph("B", 56, 700, 6), glyph("C", 62, 700, 6),
			},
			expected: []string{"ABC"},
		},
		{
			name: "gap starts a new fragment",
			glyphs: []pdf.Text{
				glyph("0", 50, 700, 5), glyph("1", 55, 700, 5),
				glyph("$", 300, 700, 5), glyph("9", 305, 700, 5),
			},
			expected: []string{"01 $9"},
		},
		{
			name: "rows are ordered top to bottom",
			glyphs: []pdf.Text{
				glyph("b", 50, 686, 0), glyph("a", 50, 700, 0),
			},
			expected: []string{"a", "b"},
		},
		{
			name: "fragments are ordered left to right",
			glyphs: []pdf.Text{
				glyph("$", 300, 700, 0), glyph("1", 300, 700, 0),
				glyph("x", 50, 700, 0),
			},
			expected: []string{"x $1"},
		},
		{
			name: "baseline jitter is rounded",
			glyphs: []pdf.Text{
				glyph("a", 50, 700.2, 5), glyph("b", 55, 699.9, 5),
			},
			expected: []string{"ab"},
		},
		{
			name: "blank fragments are dropped",
			glyphs: []pdf.Text{
				glyph(" ", 50, 700, 0), glyph("z", 300, 700, 0),
			},
			expected: []string{"z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := textLines(tt.glyphs); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("textLines() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestOpenStatement(t *testing.T) {
	_, err := OpenStatement(filepath.Join(t.TempDir(), "missing.csv"))
	if !errors.HasCode(err, errors.CodeFileNotFound) {
		t.Errorf("expected file not found, got %v", err)
	}
}
