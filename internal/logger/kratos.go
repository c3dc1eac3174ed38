package logger

import (
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/sirupsen/logrus"
)

// kratosLogger 将 kratos 的 key/value 日志转发到 logrus
type kratosLogger struct {
	l *logrus.Logger
}

var _ log.Logger = (*kratosLogger)(nil)

// NewKratosLogger 把 logrus 实例包装成 kratos log.Logger
func NewKratosLogger(l *logrus.Logger) log.Logger {
	if l == nil {
		l = Log
	}
	return &kratosLogger{l: l}
}

// Log 实现 log.Logger
func (k *kratosLogger) Log(level log.Level, keyvals ...any) error {
	if len(keyvals) == 0 {
		return nil
	}
	if len(keyvals)%2 != 0 {
		keyvals = append(keyvals, "KEYVALS UNPAIRED")
	}

	var msg string
	fields := make(logrus.Fields, len(keyvals)/2)
	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		if key == log.DefaultMessageKey {
			msg = fmt.Sprint(keyvals[i+1])
			continue
		}
		fields[key] = keyvals[i+1]
	}

	entry := k.l.WithFields(fields)
	switch level {
	case log.LevelDebug:
		entry.Debug(msg)
	case log.LevelWarn:
		entry.Warn(msg)
	case log.LevelError, log.LevelFatal:
		entry.Error(msg)
	default:
		entry.Info(msg)
	}
	return nil
}
