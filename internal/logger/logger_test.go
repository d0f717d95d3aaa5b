package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, InfoLevel)
	t.Cleanup(func() { SetOutput(os.Stderr, WarnLevel) })

	Debug("hidden %d", 1)
	Info("fetched %s", "steak.csv")
	Warn("dropped %d rows", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[INFO] fetched steak.csv")
	assert.Contains(t, out, "[WARN] dropped 3 rows")
	assert.Equal(t, InfoLevel, CurrentLevel())
}

func TestOffSilencesErrors(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, OffLevel)
	t.Cleanup(func() { SetOutput(os.Stderr, WarnLevel) })
	Error("boom")
	assert.Empty(t, buf.String())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, WarnLevel, ParseLevel("warning"))
	assert.Equal(t, OffLevel, ParseLevel("quiet"))
	assert.Equal(t, WarnLevel, ParseLevel("chatty"))
	assert.Equal(t, "error", ErrorLevel.String())
}
