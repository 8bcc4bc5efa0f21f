package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/viper"

	"statement-categorizer/pkg/errors"
	"statement-categorizer/pkg/logger"
)

// CLIErrorHandler provides user-friendly error handling for CLI operations
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
	out     io.Writer
}

// NewCLIErrorHandler creates a new CLI error handler writing to stderr
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
		out:     os.Stderr,
	}
}

// HandleError prints err for the user and returns the process exit code
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Debug("Command failed")

	if categorizerErr, ok := errors.AsCategorizerError(err); ok {
		return h.handleCategorizerError(categorizerErr)
	}

	return h.handleGenericError(err)
}

// handleCategorizerError prints the message, context and category help
func (h *CLIErrorHandler) handleCategorizerError(err *errors.CategorizerError) int {
	fmt.Fprintf(h.out, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		keys := make([]string, 0, len(err.Context))
		for key := range err.Context {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		fmt.Fprintf(h.out, "\nContext:\n")
		for _, key := range keys {
			fmt.Fprintf(h.out, "  %s: %v\n", key, err.Context[key])
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(h.out, "\nSuggestion: %s\n", err.Suggestion)
	}

	fmt.Fprintf(h.out, "\n%s\n", h.getCategoryHelp(err.Category))

	if err.Cause != nil && (h.verbose || err.Category == errors.CategoryValidation) {
		fmt.Fprintf(h.out, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

// handleGenericError handles errors that carry no category, mostly cobra
// usage errors and raw system errors
func (h *CLIErrorHandler) handleGenericError(err error) int {
	if h.isFileNotFoundError(err) {
		fmt.Fprintf(h.out, "Error: File not found\n")
		fmt.Fprintf(h.out, "Suggestion: Check if the file path is correct and the file exists\n")
		return 2
	}

	if h.isPermissionError(err) {
		fmt.Fprintf(h.out, "Error: Permission denied\n")
		fmt.Fprintf(h.out, "Suggestion: Check file permissions and ensure you have read access\n")
		return 2
	}

	if h.isDiskFullError(err) {
		fmt.Fprintf(h.out, "Error: Insufficient disk space\n")
		fmt.Fprintf(h.out, "Suggestion: Free up disk space and try again\n")
		return 6
	}

	fmt.Fprintf(h.out, "Error: %v\n", err)
	fmt.Fprintf(h.out, "Run 'categorizer --help' for usage.\n")
	return 1
}

// getCategoryHelp returns category-specific help text
func (h *CLIErrorHandler) getCategoryHelp(category errors.ErrorCategory) string {
	switch category {
	case errors.CategoryFile:
		return `File error help:
• Check that the statement file exists and is readable
• Verify the file path is correct (use absolute paths if needed)
• Ensure you have permission to write the output file, if one was given`

	case errors.CategoryParse:
		return `Parse error help:
• CSV exports must be UTF-8 encoded; re-export from your bank if unsure
• Check that the file uses commas or semicolons as delimiters
• Backups for 'overrides import' must be a JSON object of merchant to category id`

	case errors.CategoryValidation:
		return `Validation error help:
• Use 'categorizer detect-bank --list' to see the supported banks
• Category ids are lower case, for example alimentacion or transporte
• Check that all required arguments have values`

	case errors.CategoryConfiguration:
		return `Configuration error help:
• Verify configuration file syntax if using --config
• Check CATEGORIZER_* environment variables
• Every pattern must reference a category of the catalog
• Try running with default settings first`

	case errors.CategoryExtraction:
		return `PDF error help:
• Only PDFs with a text layer can be read; scanned statements are not supported
• Download the statement again from your bank's website
• Most banks also offer a CSV or Excel export of the same movements`

	case errors.CategoryStorage:
		return `Storage error help:
• Another categorizer process may be holding the store; wait and retry
• Check the --store path or CATEGORIZER_STORE_PATH
• Use 'categorizer overrides export' regularly to keep a backup`

	default:
		return `For more help:
• Use 'categorizer --help' for general help
• Use 'categorizer <command> --help' for command-specific help
• Run with --verbose for more detail`
	}
}

// Error detection helpers

func (h *CLIErrorHandler) isFileNotFoundError(err error) bool {
	return os.IsNotExist(err) || strings.Contains(err.Error(), "no such file or directory")
}

func (h *CLIErrorHandler) isPermissionError(err error) bool {
	return os.IsPermission(err) ||
		strings.Contains(err.Error(), "permission denied") ||
		strings.Contains(err.Error(), "access denied")
}

func (h *CLIErrorHandler) isDiskFullError(err error) bool {
	if err == syscall.ENOSPC {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "no space left") ||
		strings.Contains(errStr, "disk full") ||
		strings.Contains(errStr, "device full")
}
