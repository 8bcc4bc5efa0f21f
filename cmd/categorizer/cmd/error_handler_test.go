package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"testing"

	"statement-categorizer/pkg/errors"
	"statement-categorizer/pkg/logger"
)

func newTestHandler(verbose bool) (*CLIErrorHandler, *bytes.Buffer) {
	var buf bytes.Buffer
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger(),
		verbose: verbose,
		out:     &buf,
	}, &buf
}

func TestCLIErrorHandler_CategorizerError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		contains     []string
	}{
		{
			name:         "file not found",
			err:          errors.FileError(errors.CodeFileNotFound, "/tmp/cartola.pdf", os.ErrNotExist),
			expectedCode: 2,
			contains:     []string{"Error: file not found: /tmp/cartola.pdf", "file_path: /tmp/cartola.pdf", "File error help:"},
		},
		{
			name:         "scanned pdf",
			err:          fmt.Errorf("ingest: %w", errors.ExtractionError(errors.CodeNoTextLayer, "scan.pdf", nil)),
			expectedCode: 5,
			contains:     []string{"no extractable text", "Suggestion: the PDF looks scanned", "PDF error help:"},
		},
		{
			name:         "unknown category shows cause",
			err:          errors.ValidationError(errors.CodeUnknownCategory, "category", "mascotas", fmt.Errorf("expected one of [hogar]")),
			expectedCode: 3,
			contains:     []string{"unknown category", "Underlying error: expected one of [hogar]"},
		},
		{
			name:         "store locked",
			err:          errors.StorageError(errors.CodeStoreUnavailable, "/tmp/learned.db", fmt.Errorf("timeout")),
			expectedCode: 6,
			contains:     []string{"Storage error help:", "location: /tmp/learned.db"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, buf := newTestHandler(false)

			code := handler.HandleError(tt.err)
			if code != tt.expectedCode {
				t.Errorf("expected exit code %d, got %d", tt.expectedCode, code)
			}
			for _, expected := range tt.contains {
				if !strings.Contains(buf.String(), expected) {
					t.Errorf("expected output to contain %q, got:\n%s", expected, buf.String())
				}
			}
		})
	}
}

func TestCLIErrorHandler_ContextIsSorted(t *testing.T) {
	handler, buf := newTestHandler(false)
	handler.HandleError(errors.New(errors.CategoryParse, errors.CodeInvalidFormat, "bad row").
		WithContext("source", "movimientos.csv").
		WithContext("line", 4))

	output := buf.String()
	if strings.Index(output, "line: 4") > strings.Index(output, "source: movimientos.csv") {
		t.Errorf("expected context keys in sorted order, got:\n%s", output)
	}
}

func TestCLIErrorHandler_VerboseCause(t *testing.T) {
	err := errors.StorageError(errors.CodeStoreWrite, "learned.db", fmt.Errorf("disk quota exceeded"))

	quiet, quietBuf := newTestHandler(false)
	quiet.HandleError(err)
	if strings.Contains(quietBuf.String(), "Underlying error") {
		t.Error("expected the cause to be hidden without --verbose")
	}

	loud, loudBuf := newTestHandler(true)
	loud.HandleError(err)
	if !strings.Contains(loudBuf.String(), "Underlying error: disk quota exceeded") {
		t.Errorf("expected the cause with --verbose, got:\n%s", loudBuf.String())
	}
}

func TestCLIErrorHandler_GenericError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		contains     string
	}{
		{"nil", nil, 0, ""},
		{"not exist", &os.PathError{Op: "open", Path: "x", Err: os.ErrNotExist}, 2, "File not found"},
		{"permission", fmt.Errorf("open x: permission denied"), 2, "Permission denied"},
		{"disk full", fmt.Errorf("write x: no space left on device"), 6, "Insufficient disk space"},
		{"usage", fmt.Errorf(`unknown command "frobnicate" for "categorizer"`), 1, "categorizer --help"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, buf := newTestHandler(false)
			if code := handler.HandleError(tt.err); code != tt.expectedCode {
				t.Errorf("expected exit code %d, got %d", tt.expectedCode, code)
			}
			if !strings.Contains(buf.String(), tt.contains) {
				t.Errorf("expected output to contain %q, got %q", tt.contains, buf.String())
			}
		})
	}
}
