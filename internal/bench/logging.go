package bench

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// logrusLogger 使用 logrus 实现 Logger 接口。
type logrusLogger struct {
	entry *logrus.Entry
}

// NewLogger 构造写入 w 的日志器；程序结果走 stdout，因此 w 通常是 stderr。
func NewLogger(w io.Writer, level string) (Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(lvl)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return logrusLogger{entry: logrus.NewEntry(l)}, nil
}

// WithField 返回附带固定字段的日志器；非 logrus 实现原样返回。
func WithField(l Logger, key string, value any) Logger {
	if ll, ok := l.(logrusLogger); ok {
		return logrusLogger{entry: ll.entry.WithField(key, value)}
	}
	return l
}

// Infof 输出普通信息。
func (l logrusLogger) Infof(format string, args ...any) {
	l.entry.Infof(format, args...)
}

// Warnf 输出警告信息。
func (l logrusLogger) Warnf(format string, args ...any) {
	l.entry.Warnf(format, args...)
}

// Errorf 输出错误信息。
func (l logrusLogger) Errorf(format string, args ...any) {
	l.entry.Errorf(format, args...)
}

// DefaultLogger 在未传入 Logger 时返回基于 logrus 标准实例的实现。
func DefaultLogger(l Logger) Logger {
	if l != nil {
		return l
	}
	return logrusLogger{entry: logrus.NewEntry(logrus.StandardLogger())}
}
