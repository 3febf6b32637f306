package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_JSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New("warn", "json", &buf)

	logger.Info("hidden")
	logger.Warn("shown", "iterations", 12)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record), "expected exactly one JSON record, got %q", buf.String())
	require.Equal(t, "shown", record["msg"])
	require.Equal(t, "WARN", record["level"])
	require.EqualValues(t, 12, record["iterations"])
}

func TestNew_TextIsDefault(t *testing.T) {
	var buf bytes.Buffer
	New("debug", "", &buf).Debug("solve", "stage", "projection")
	require.Contains(t, buf.String(), "msg=solve")
	require.Contains(t, buf.String(), "stage=projection")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	require.Error(t, err)
}
