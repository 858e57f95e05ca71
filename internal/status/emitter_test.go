package status

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitter_OneJSONObjectPerLine(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf)

	e.Log("info", "Monitoring print jobs...")
	e.Status(StatsSnapshot{ReceiptsProcessed: 2, APISuccess: 3}, ConfigSummary{
		TerminalID: "T-0A1B2C3D",
		Registered: true,
		Healthy:    true,
	})
	e.Error("boom")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	var log map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &log))
	assert.Equal(t, "log", log["type"])
	assert.Equal(t, "info", log["level"])
	assert.Equal(t, "Monitoring print jobs...", log["message"])

	var st map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &st))
	assert.Equal(t, "status", st["type"])
	stats := st["stats"].(map[string]any)
	assert.Equal(t, float64(2), stats["receiptsProcessed"])
	cfg := st["config"].(map[string]any)
	assert.Equal(t, "T-0A1B2C3D", cfg["terminalId"])
	assert.Equal(t, true, cfg["healthy"])

	var ev map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &ev))
	assert.Equal(t, "error", ev["type"])
	assert.Equal(t, "boom", ev["message"])
}

func TestEmitter_NilWriterIsNoop(t *testing.T) {
	e := NewEmitter(nil)
	// must not panic
	e.Log("info", "x")
	e.Status(StatsSnapshot{}, ConfigSummary{})
	e.Error("x")
}

func TestEmitter_NilEmitterIsNoop(t *testing.T) {
	var e *Emitter
	e.Error("x")
}

func TestEmitter_EachLineScans(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf)
	for i := 0; i < 10; i++ {
		e.Log("info", "line")
	}
	sc := bufio.NewScanner(&buf)
	n := 0
	for sc.Scan() {
		var v map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &v))
		n++
	}
	assert.Equal(t, 10, n)
}
