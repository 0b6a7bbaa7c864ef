package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T, verboseMode bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verboseMode)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name    string
		log     func()
		verbose string
		quiet   string
	}{
		{"debug", func() { Debug("fetch %s", "a") }, "[DEBUG] fetch a\n", ""},
		{"info", func() { Info("stored %d", 3) }, "[INFO] stored 3\n", ""},
		{"warn", func() { Warn("retry %d", 2) }, "[WARN] retry 2\n", ""},
		{"section", func() { Section("Answer") }, "\n=== Answer ===\n", ""},
		{"error", func() { Error("skip %s", "u") }, "[ERROR] skip u\n", "[ERROR] skip u\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/verbose", func(t *testing.T) {
			buf := capture(t, true)
			tt.log()
			assert.Equal(t, tt.verbose, buf.String())
		})
		t.Run(tt.name+"/quiet", func(t *testing.T) {
			buf := capture(t, false)
			tt.log()
			assert.Equal(t, tt.quiet, buf.String())
		})
	}
}

func TestEnabled(t *testing.T) {
	capture(t, false)
	assert.False(t, Enabled(LevelDebug))
	assert.False(t, Enabled(LevelWarn))
	assert.True(t, Enabled(LevelError))

	SetVerbose(true)
	assert.True(t, Enabled(LevelDebug))
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "LEVEL(9)", Level(9).String())
}
