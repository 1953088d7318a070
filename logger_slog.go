package libobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

type slogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger adapts a *slog.Logger to Logger. Fields added with WithField
// become slog attributes. A nil logger falls back to slog.Default().
func NewSlogLogger(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return slogLogger{logger: l}
}

func (l slogLogger) WithField(key string, value any) Logger {
	return slogLogger{logger: l.logger.With(key, value)}
}

func (l slogLogger) log(level slog.Level, msg string) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}
	l.logger.Log(ctx, level, strings.TrimRight(msg, "\n"))
}

func (l slogLogger) Debug(args ...any) { l.log(slog.LevelDebug, fmt.Sprint(args...)) }
func (l slogLogger) Debugf(format string, args ...any) {
	l.log(slog.LevelDebug, fmt.Sprintf(format, args...))
}
func (l slogLogger) Debugln(args ...any) { l.log(slog.LevelDebug, fmt.Sprintln(args...)) }

func (l slogLogger) Info(args ...any) { l.log(slog.LevelInfo, fmt.Sprint(args...)) }
func (l slogLogger) Infof(format string, args ...any) {
	l.log(slog.LevelInfo, fmt.Sprintf(format, args...))
}
func (l slogLogger) Infoln(args ...any) { l.log(slog.LevelInfo, fmt.Sprintln(args...)) }

func (l slogLogger) Warn(args ...any) { l.log(slog.LevelWarn, fmt.Sprint(args...)) }
func (l slogLogger) Warnf(format string, args ...any) {
	l.log(slog.LevelWarn, fmt.Sprintf(format, args...))
}
func (l slogLogger) Warnln(args ...any) { l.log(slog.LevelWarn, fmt.Sprintln(args...)) }

func (l slogLogger) Error(args ...any) { l.log(slog.LevelError, fmt.Sprint(args...)) }
func (l slogLogger) Errorf(format string, args ...any) {
	l.log(slog.LevelError, fmt.Sprintf(format, args...))
}
func (l slogLogger) Errorln(args ...any) { l.log(slog.LevelError, fmt.Sprintln(args...)) }
