package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestInitializeWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	InitializeWriter(&buf, "debug", "json")
	defer Initialize("info", "text")

	ExitMethodWithError("PlaceOffer", errors.New("offer is too low"), "asset", "x/1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "PlaceOffer", line["method"])
	assert.Equal(t, "offer is too low", line["error"])
	assert.Equal(t, "x/1", line["asset"])
}

func TestInitializeWriter_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	InitializeWriter(&buf, "info", "text")
	defer Initialize("info", "text")

	EnterMethod("AcceptOffer")
	assert.Empty(t, buf.String())
	Info("visible")
	assert.Contains(t, buf.String(), "visible")
}
