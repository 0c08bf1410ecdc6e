package logging

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"

	"github.com/rpgo/drawdown/internal/calculation"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		format      string
		expectLevel logrus.Level
		expectJSON  bool
	}{
		{name: "debug level with text format", level: "debug", format: "text", expectLevel: logrus.DebugLevel},
		{name: "info level with json format", level: "info", format: "json", expectLevel: logrus.InfoLevel, expectJSON: true},
		{name: "warn level with default format", level: "warn", format: "", expectLevel: logrus.WarnLevel},
		{name: "error level with padded json", level: " error ", format: " JSON ", expectLevel: logrus.ErrorLevel, expectJSON: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.level, tt.format, io.Discard)
			require.NoError(t, err)
			assert.Equal(t, tt.expectLevel, logger.Level)
			_, isJSON := logger.Formatter.(*logrus.JSONFormatter)
			assert.Equal(t, tt.expectJSON, isJSON)
		})
	}
}

func TestNew_RejectsBadInput(t *testing.T) {
	_, err := New("verbose", "text", io.Discard)
	assert.ErrorContains(t, err, "invalid log level")

	_, err = New("info", "xml", io.Discard)
	assert.ErrorContains(t, err, "invalid log format")
}

func TestWithComponent_SatisfiesEngineLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("debug", "json", &buf)
	require.NoError(t, err)

	var engineLogger calculation.Logger = WithComponent(logger, "engine")
	engineLogger.Warnf("year %d: shortfall", 2040)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "engine", entry["component"])
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "year 2040: shortfall", entry["msg"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("warn", "text", &buf)
	require.NoError(t, err)

	logger.Infof("hidden")
	assert.Zero(t, buf.Len())
	logger.Errorf("shown")
	assert.Contains(t, buf.String(), "shown")
}
