package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/upsql/internal/dialect"
	"github.com/roach88/upsql/internal/execute"
	"github.com/roach88/upsql/internal/expr"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"result": "success"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("EMPTY_LIST", "insert record has no bindings", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "EMPTY_LIST", resp.Error.Code)
	assert.Equal(t, "insert record has no bindings", resp.Error.Message)
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: false,
	}

	err := formatter.Error("E001", "compilation failed", map[string]string{"file": "x.yaml"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E001]")
	assert.Contains(t, buf.String(), "compilation failed")
	assert.NotContains(t, buf.String(), "Details:")
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	err := formatter.Error("E001", "compilation failed", map[string]string{"file": "x.yaml"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_Errors(t *testing.T) {
	errs := []CLIError{
		{Code: "UNKNOWN_FIELD", Message: "no column for Missing"},
		{Code: "EMPTY_LIST", Message: "conflict columns reference no parameters"},
	}

	buf := &bytes.Buffer{}
	require.NoError(t, (&OutputFormatter{Format: "text", Writer: buf}).Errors("Compilation failed", errs))
	assert.Contains(t, buf.String(), "✗ Compilation failed")
	assert.Contains(t, buf.String(), "UNKNOWN_FIELD: no column for Missing")
	assert.Contains(t, buf.String(), "EMPTY_LIST: conflict columns")

	buf.Reset()
	require.NoError(t, (&OutputFormatter{Format: "json", Writer: buf}).Errors("Compilation failed", errs))
	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "UNKNOWN_FIELD", resp.Error.Code)
	assert.Len(t, resp.Data, 2)
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, diag := &bytes.Buffer{}, &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    out,
				ErrWriter: diag,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("Processing %s", "entities.yaml")

			assert.Empty(t, out.String())
			if tt.wantLog {
				assert.Contains(t, diag.String(), "Processing entities.yaml")
			} else {
				assert.Empty(t, diag.String())
			}
		})
	}
}

func TestExitCodes(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad file")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitSuccess, GetExitCode(nil))

	inner := errors.New("disk full")
	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitFailure, "write", inner))
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
	assert.ErrorIs(t, wrapped, inner)
	assert.Equal(t, "write: disk full", WrapExitError(ExitFailure, "write", inner).Error())
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{expr.NewSpecError(expr.ErrCodeEmptyList, "insert", "empty"), "EMPTY_LIST"},
		{fmt.Errorf("wrapped: %w", expr.NewSpecError(expr.ErrCodeUnknownField, "x", "unknown")), "UNKNOWN_FIELD"},
		{expr.Unsupported(expr.Const(1), "nope"), ErrCodeUnsupported},
		{&execute.MissingParameterError{Names: []string{"Name"}}, ErrCodeMissingParam},
		{fmt.Errorf("x: %w", dialect.ErrUnknownProvider), ErrCodeUnknownProvider},
		{errors.New("other"), ErrCodeGeneric},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorCode(tt.err), tt.err.Error())
	}
}
