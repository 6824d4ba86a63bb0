package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/roach88/upsql/internal/dialect"
	"github.com/roach88/upsql/internal/execute"
	"github.com/roach88/upsql/internal/expr"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Execution failure (driver error, missing parameters)
	ExitCommandError = 2 // Command error (bad file, invalid command spec, unknown dialect)
)

// Error codes for failures that are not command-spec errors. Spec errors
// are reported under their own codes (EMPTY_LIST, UNKNOWN_FIELD, ...).
const (
	ErrCodeGeneric         = "E001" // Generic/unknown error
	ErrCodeLoadFailed      = "E004" // Command file could not be read or parsed
	ErrCodeNotFound        = "E005" // Command not found in file
	ErrCodeWriteFailed     = "E007" // Output file write error
	ErrCodeUnknownProvider = "E008" // No generator registered for provider
	ErrCodeExecFailed      = "E009" // Database rejected the statement
	ErrCodeMissingParam    = "E010" // Placeholder without a value
	ErrCodeUnsupported     = "UNSUPPORTED_EXPRESSION"
)

var (
	okMark   = color.New(color.FgGreen).SprintFunc()
	failMark = color.New(color.FgRed, color.Bold).SprintFunc()
	codeFmt  = color.New(color.FgYellow).SprintFunc()
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// ErrorCode classifies err for CLI output.
func ErrorCode(err error) string {
	if code, ok := expr.SpecErrorCodeOf(err); ok {
		return string(code)
	}
	var missing *execute.MissingParameterError
	switch {
	case expr.IsUnsupported(err):
		return ErrCodeUnsupported
	case errors.As(err, &missing):
		return ErrCodeMissingParam
	case errors.Is(err, dialect.ErrUnknownProvider):
		return ErrCodeUnknownProvider
	default:
		return ErrCodeGeneric
	}
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "EMPTY_LIST", "E001", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "%s [%s]: %s\n", failMark("Error"), codeFmt(code), message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Errors outputs several errors at once. JSON output carries the first
// error in "error" and all of them in "data".
func (f *OutputFormatter) Errors(heading string, errs []CLIError) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{
			Status: "error",
			Error:  &errs[0],
			Data:   errs,
		})
	}

	fmt.Fprintf(f.Writer, "%s %s\n\n", failMark("✗"), heading)
	for _, e := range errs {
		fmt.Fprintf(f.Writer, "  %s: %s\n", codeFmt(e.Code), e.Message)
	}
	fmt.Fprintln(f.Writer)
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
