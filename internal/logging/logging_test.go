package logging

import (
	"bytes"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelWarn, ParseLevel(" WARN "))
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelInfo, ParseLevel(""))
	assert.Equal(t, LevelInfo, ParseLevel("TRACE"))
}

func TestLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	flags := log.Flags()
	log.SetFlags(0)
	defer func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(flags)
	}()

	l := New("CLI", LevelInfo)
	l.Debug("hidden %d", 1)
	l.Info("saved %s", "record")
	l.Error("failed")

	assert.Equal(t, "[CLI] saved record\n[CLI] ERROR: failed\n", buf.String())
	assert.False(t, l.Enabled(LevelDebug))
}

func TestFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	assert.True(t, FromEnv("Seed").Enabled(LevelDebug))

	t.Setenv("LOG_LEVEL", "error")
	assert.False(t, FromEnv("Seed").Enabled(LevelWarn))
}
