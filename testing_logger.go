package libobs

import (
	"fmt"

	"github.com/stretchr/testify/mock"
)

// mockLogger records leveled calls as "<Level>" with the formatted message as
// the single argument; fields are folded into the message so expectations can
// match on them.
type mockLogger struct {
	mock.Mock
}

func newMockLogger() *mockLogger {
	return &mockLogger{}
}

func (m *mockLogger) WithField(key string, value any) Logger {
	return &mockLoggerView{parent: m, fields: fmt.Sprintf(" %s=%v", key, value)}
}

func (m *mockLogger) record(level, msg string) {
	m.Called(level, msg)
}

func (m *mockLogger) Debug(args ...any)                 { m.record("debug", fmt.Sprint(args...)) }
func (m *mockLogger) Debugf(format string, args ...any) { m.record("debug", fmt.Sprintf(format, args...)) }
func (m *mockLogger) Debugln(args ...any)               { m.record("debug", fmt.Sprint(args...)) }
func (m *mockLogger) Info(args ...any)                  { m.record("info", fmt.Sprint(args...)) }
func (m *mockLogger) Infof(format string, args ...any)  { m.record("info", fmt.Sprintf(format, args...)) }
func (m *mockLogger) Infoln(args ...any)                { m.record("info", fmt.Sprint(args...)) }
func (m *mockLogger) Warn(args ...any)                  { m.record("warn", fmt.Sprint(args...)) }
func (m *mockLogger) Warnf(format string, args ...any)  { m.record("warn", fmt.Sprintf(format, args...)) }
func (m *mockLogger) Warnln(args ...any)                { m.record("warn", fmt.Sprint(args...)) }
func (m *mockLogger) Error(args ...any)                 { m.record("error", fmt.Sprint(args...)) }
func (m *mockLogger) Errorf(format string, args ...any) { m.record("error", fmt.Sprintf(format, args...)) }
func (m *mockLogger) Errorln(args ...any)               { m.record("error", fmt.Sprint(args...)) }

// mockLoggerView is what WithField hands out: it prefixes messages with the
// accumulated fields and reports to the parent mock.
type mockLoggerView struct {
	parent *mockLogger
	fields string
}

func (v *mockLoggerView) WithField(key string, value any) Logger {
	return &mockLoggerView{parent: v.parent, fields: fmt.Sprintf("%s %s=%v", v.fields, key, value)}
}

func (v *mockLoggerView) record(level, msg string) {
	v.parent.record(level, "["+v.fields[1:]+"] "+msg)
}

func (v *mockLoggerView) Debug(args ...any) { v.record("debug", fmt.Sprint(args...)) }
func (v *mockLoggerView) Debugf(format string, args ...any) {
	v.record("debug", fmt.Sprintf(format, args...))
}
func (v *mockLoggerView) Debugln(args ...any) { v.record("debug", fmt.Sprint(args...)) }
func (v *mockLoggerView) Info(args ...any)    { v.record("info", fmt.Sprint(args...)) }
func (v *mockLoggerView) Infof(format string, args ...any) {
	v.record("info", fmt.Sprintf(format, args...))
}
func (v *mockLoggerView) Infoln(args ...any) { v.record("info", fmt.Sprint(args...)) }
func (v *mockLoggerView) Warn(args ...any)   { v.record("warn", fmt.Sprint(args...)) }
func (v *mockLoggerView) Warnf(format string, args ...any) {
	v.record("warn", fmt.Sprintf(format, args...))
}
func (v *mockLoggerView) Warnln(args ...any) { v.record("warn", fmt.Sprint(args...)) }
func (v *mockLoggerView) Error(args ...any)  { v.record("error", fmt.Sprint(args...)) }
func (v *mockLoggerView) Errorf(format string, args ...any) {
	v.record("error", fmt.Sprintf(format, args...))
}
func (v *mockLoggerView) Errorln(args ...any) { v.record("error", fmt.Sprint(args...)) }
