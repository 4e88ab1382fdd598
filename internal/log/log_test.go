package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetJSON(true)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetJSON(false)
		SetLevel(LevelInfo)
	})
	return &buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestInfoFields(t *testing.T) {
	buf := capture(t)
	Info("tick", "count", 3, "filter", "all")

	line := decode(t, buf)
	require.Equal(t, "tick", line["msg"])
	require.Equal(t, "info", line["level"])
	require.EqualValues(t, 3, line["count"])
	require.Equal(t, "all", line["filter"])
}

func TestErrorCarriesErr(t *testing.T) {
	buf := capture(t)
	Error("tick failed", errors.New("boom"), "tick", 2)

	line := decode(t, buf)
	require.Equal(t, "error", line["level"])
	require.Equal(t, "boom", line["err"])
	require.EqualValues(t, 2, line["tick"])
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t)
	Debug("hidden")
	require.Zero(t, buf.Len())

	SetLevel(LevelDebug)
	Debug("shown")
	require.Equal(t, "shown", decode(t, buf)["msg"])

	buf.Reset()
	SetLevel(LevelError)
	Info("hidden")
	require.Zero(t, buf.Len())
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, LevelDebug, ParseLevel(" debug "))
	require.Equal(t, LevelError, ParseLevel("ERROR"))
	require.Equal(t, LevelInfo, ParseLevel("verbose"))
}

func TestOddKeyValues(t *testing.T) {
	f := fields("a", 1, "dangling")
	require.Len(t, f, 1)
	require.Equal(t, 1, f["a"])
}

func TestCronLogger(t *testing.T) {
	buf := capture(t)
	l := CronLogger()

	l.Info("start")
	require.Zero(t, buf.Len(), "cron info is debug")

	l.Error(errors.New("panic"), "job")
	line := decode(t, buf)
	require.Equal(t, "cron: job", line["msg"])
	require.Equal(t, "panic", line["err"])
}
