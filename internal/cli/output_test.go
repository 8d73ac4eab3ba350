package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitErrorCodes(t *testing.T) {
	assert.Equal(t, ExitFailure, GetExitCode(NewExitError(ExitFailure, "failed")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad input")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain error")))

	wrapped := fmt.Errorf("outer: %w", NewExitError(ExitCommandError, "inner"))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
}

func TestExitErrorMessage(t *testing.T) {
	err := WrapExitError(ExitCommandError, "failed to open database", errors.New("no such file"))
	assert.Contains(t, err.Error(), "failed to open database")
	assert.Contains(t, err.Error(), "no such file")
	assert.Equal(t, "bare", NewExitError(ExitFailure, "bare").Error())
}

func TestFormatterSuccessJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, f.Success(map[string]int{"total": 3}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestFormatterErrorText(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf, Verbose: true}

	require.NoError(t, f.Error(ErrCodeBadSuite, "suite failed", "details here"))
	out := buf.String()
	assert.Contains(t, out, "Error [E002]: suite failed")
	assert.Contains(t, out, "details here")
}

func TestFormatterVerboseLogRouting(t *testing.T) {
	outBuf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: outBuf, ErrWriter: errBuf, Verbose: true}

	f.VerboseLog("loaded %d scenarios", 5)
	assert.Empty(t, outBuf.String(), "verbose output must not corrupt JSON")
	assert.Contains(t, errBuf.String(), "loaded 5 scenarios")

	quiet := &OutputFormatter{Format: "text", Writer: outBuf}
	quiet.VerboseLog("hidden")
	assert.Empty(t, outBuf.String())
}
