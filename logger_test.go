package libobs

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
}

func TestWriterLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf).(*writerLogger)
	logger.now = fixedClock

	logger.Infof("hello %s", "world")
	logger.WithField("channel", "prices").WithField("key", OwnerKey(3)).Warnln("owner gone")

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"[2024-03-01 12:30:00] INFO: hello world",
		"[2024-03-01 12:30:00] WARN [channel=prices, key=owner#3]: owner gone",
	}, lines)
}

func TestWriterLogger_WithFieldReplacesKey(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf).(*writerLogger)
	logger.now = fixedClock

	base := logger.WithField("channel", "a")
	base.WithField("channel", "b").Error("boom")
	base.Debug("still a")

	assert.Equal(t,
		"[2024-03-01 12:30:00] ERROR [channel=b]: boom\n"+
			"[2024-03-01 12:30:00] DEBUG [channel=a]: still a\n",
		buf.String())
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger := NewSlogLogger(slog.New(handler)).WithField("channel", "prices")

	logger.Debugf("hidden %d", 1)
	logger.Warnln("owner", "gone")
	logger.Errorf("callback panicked: %s", "boom")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `level=WARN msg="owner gone" channel=prices`)
	assert.Contains(t, out, `level=ERROR msg="callback panicked: boom" channel=prices`)
}

func TestSlogLogger_NilFallsBackToDefault(t *testing.T) {
	assert.NotPanics(t, func() {
		NewSlogLogger(nil).WithField("k", "v").Debug("nothing to see")
	})
}

func TestNoopLogger(t *testing.T) {
	logger := NoopLogger()
	assert.Equal(t, logger, logger.WithField("k", "v"))
	assert.NotPanics(t, func() { logger.Errorf("%d", 1) })
}
