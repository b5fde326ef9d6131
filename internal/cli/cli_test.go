package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/dptools869/dp-tools-server/internal/registry"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/dptools869/dp-tools-server/internal/tools/calculator"
)

func newTestRunner(t *testing.T, format OutputFormat) (*Runner, *bytes.Buffer) {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	registry.Init(logger)

	var buf bytes.Buffer
	return NewRunner(logger, format, &buf), &buf
}

func TestParseArgsFlags(t *testing.T) {
	params, err := parseArgs([]string{"--rotation=90", "--filename=scan.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "90", params["rotation"])
	assert.Equal(t, "scan.pdf", params["filename"])
}

func TestParseArgsJSON(t *testing.T) {
	params, err := parseArgs([]string{`{"expression": "1+1"}`})
	require.NoError(t, err)
	assert.Equal(t, "1+1", params["expression"])
}

func TestParseArgsFlagsTakePrecedence(t *testing.T) {
	params, err := parseArgs([]string{"--filename=keep.pdf", `{"filename": "lose.pdf", "other": "x"}`})
	require.NoError(t, err)
	assert.Equal(t, "keep.pdf", params["filename"])
	assert.Equal(t, "x", params["other"])
}

func TestParseArgsRejectsBareValue(t *testing.T) {
	_, err := parseArgs([]string{"loose"})
	assert.Error(t, err)
}

func TestParseArgsRejectsFlagWithoutValue(t *testing.T) {
	_, err := parseArgs([]string{"--flag"})
	assert.Error(t, err)
}

func TestListToolsText(t *testing.T) {
	runner, buf := newTestRunner(t, OutputText)

	require.NoError(t, runner.ListTools())
	assert.Contains(t, buf.String(), "calculator")
}

func TestHelpToolUnknown(t *testing.T) {
	runner, _ := newTestRunner(t, OutputText)

	err := runner.HelpTool("no-such-tool")
	assert.Error(t, err)
}

func TestRunToolCalculator(t *testing.T) {
	runner, buf := newTestRunner(t, OutputJSON)

	require.NoError(t, runner.RunTool(context.Background(), "calculator", []string{`{"expression": "6 * 7"}`}))

	var content map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &content))
	assert.Equal(t, float64(42), content["result"])
}
