package logging

import (
	"bytes"
	"encoding/json"
	"log"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func restoreLoggers(t *testing.T) {
	t.Helper()
	prevDefault := slog.Default()
	prevOut, prevFlags, prevPrefix := log.Writer(), log.Flags(), log.Prefix()
	t.Cleanup(func() {
		slog.SetDefault(prevDefault)
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
		log.SetPrefix(prevPrefix)
	})
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		records = append(records, rec)
	}
	return records
}

func TestSetupStructuredFields(t *testing.T) {
	restoreLoggers(t)
	var buf bytes.Buffer

	logger, closer, err := Setup(Options{Service: "handicap-race", RunID: "run-1", Level: "info", Output: &buf})
	require.NoError(t, err)
	defer closer.Close()

	logger.Info("race loaded", "runners", 3)
	logger.Debug("hidden")
	log.Printf("bridged %d", 7)

	records := decodeLines(t, &buf)
	require.Len(t, records, 2)
	require.Equal(t, "race loaded", records[0]["message"])
	require.Equal(t, "INFO", records[0]["severity"])
	require.Equal(t, "handicap-race", records[0]["service"])
	require.Equal(t, "run-1", records[0]["run_id"])
	require.EqualValues(t, 3, records[0]["runners"])
	require.Contains(t, records[0], "timestamp")
	require.Equal(t, "bridged 7", records[1]["message"])
	require.Equal(t, "run-1", records[1]["run_id"])
}

func TestSetupDebugLevel(t *testing.T) {
	restoreLoggers(t)
	var buf bytes.Buffer
	logger, _, err := Setup(Options{Service: "svc", Level: "debug", Output: &buf})
	require.NoError(t, err)
	logger.Debug("visible")
	records := decodeLines(t, &buf)
	require.Len(t, records, 1)
	require.Equal(t, "DEBUG", records[0]["severity"])
	require.NotContains(t, records[0], "run_id")
}

func TestSetupLogFile(t *testing.T) {
	restoreLoggers(t)
	path := filepath.Join(t.TempDir(), "race.log")
	logger, closer, err := Setup(Options{Service: "svc", LogFile: path})
	require.NoError(t, err)
	logger.Warn("written to file")
	require.NoError(t, closer.Close())
	require.FileExists(t, path)
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("WARNING")
	require.NoError(t, err)
	require.Equal(t, slog.LevelWarn, level)

	_, err = ParseLevel("loud")
	require.Error(t, err)

	_, _, err = Setup(Options{Level: "loud"})
	require.Error(t, err)
}
