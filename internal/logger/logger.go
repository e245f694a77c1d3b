package logger

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// New создаёт logrus-логгер с JSON (по умолчанию) или текстовым форматом
func New(level, format string) (*logrus.Logger, error) {
	return NewWithOutput(os.Stderr, level, format)
}

// NewWithOutput то же, что New, но с заданным выводом
func NewWithOutput(out io.Writer, level, format string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "parse log level")
	}

	l := logrus.New()
	l.Out = out
	l.Level = lvl

	switch format {
	case "", "json":
		l.Formatter = &logrus.JSONFormatter{}
	case "text":
		l.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	default:
		return nil, errors.Errorf("unknown log format %q", format)
	}

	return l, nil
}

// Discard логгер для тестов
func Discard() *logrus.Logger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}
