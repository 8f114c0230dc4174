package errors

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
)

// Process exit codes by error category. Usage problems share code 2 with
// kong's own parse failures; the operational categories get distinct codes
// so scripts can tell a broken store from a broken catalog.
var exitCodes = map[ErrorCategory]int{
	CategoryValidation:      2,
	CategoryConfig:          7,
	CategoryStorage:         8,
	CategorySerialization:   9,
	CategoryDeserialization: 9,
	CategoryInternal:        10,
	CategoryCatalog:         11,
	CategoryDaemon:          12,
}

// CLIErrorAdapter turns an error escaping a command into terminal output
// and a process exit code.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger}
}

// ExitCodeFor maps an error to the code the process should exit with.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if te, ok := err.(*TrackerError); ok {
		if code, known := exitCodes[te.Category]; known {
			return code
		}
	}
	return 1
}

// FormatError renders an error for the terminal. The short form hides the
// category plumbing for user-input problems; verbose mode shows the full
// chain and any context fields.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	te, ok := err.(*TrackerError)
	if !ok {
		return fmt.Sprintf("Error: %v", err)
	}

	if !a.verbose {
		switch te.Category {
		case CategoryConfig, CategoryValidation:
			return te.Message
		default:
			return fmt.Sprintf("%s: %s", te.Category, te.Message)
		}
	}

	var b strings.Builder
	b.WriteString(te.Error())
	for _, k := range sortedContextKeys(te.Context) {
		fmt.Fprintf(&b, "\n  %s: %v", k, te.Context[k])
	}
	return b.String()
}

// HandleError reports err and exits. It never returns for a non-nil error.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	if a.shouldLog(err) {
		a.logError(err)
	}
	fmt.Fprintln(os.Stderr, a.FormatError(err))
	os.Exit(a.ExitCodeFor(err))
}

// shouldLog keeps expected user-facing failures out of the log unless the
// run is verbose; fatal and infrastructure problems always land there.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}
	te, ok := err.(*TrackerError)
	if !ok {
		return true
	}
	if te.Category == CategoryInternal || te.Category == CategoryDaemon {
		return true
	}
	return te.Severity == SeverityFatal
}

func (a *CLIErrorAdapter) logError(err error) {
	te, ok := err.(*TrackerError)
	if !ok {
		a.logger.Error("unclassified error", "error", err)
		return
	}

	attrs := []slog.Attr{slog.String("category", string(te.Category))}
	if te.Retryable {
		attrs = append(attrs, slog.Bool("retryable", true))
	}
	a.logger.LogAttrs(context.Background(), te.Severity.slogLevel(), te.Message, attrs...)
}

// slogLevel maps a severity onto the closest slog level. Fatal stays an
// error at the log layer; the exit code carries the difference.
func (s ErrorSeverity) slogLevel() slog.Level {
	switch s {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

func sortedContextKeys(c ContextFields) []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
