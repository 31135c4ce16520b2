// Package logger wraps go-logging with a single leveled stderr backend shared
// by the whole service.
package logger

import (
	"os"
	"strings"

	"github.com/op/go-logging"
)

const (
	module     = "parking"
	timeFormat = "2006/01/02 15:04:05"
)

var logger *logging.Logger

func init() {
	InitLogger("info")
}

// InitLogger replaces the backend and sets the minimum level. Unknown level
// names fall back to INFO.
func InitLogger(level string) {
	lvl, err := logging.LogLevel(strings.ToUpper(strings.TrimSpace(level)))
	if err != nil {
		lvl = logging.INFO
	}

	backend := logging.NewLogBackend(os.Stderr, "", 0)
	formatted := logging.NewBackendFormatter(backend, logging.MustStringFormatter(
		`%{time:`+timeFormat+`} %{level:.4s} - %{message}`,
	))
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(lvl, module)

	l := logging.MustGetLogger(module)
	l.SetBackend(leveled)
	logger = l
}

// Enabled reports whether messages at the given level are emitted.
func Enabled(level logging.Level) bool {
	return logger.IsEnabledFor(level)
}

func Debug(args ...any) {
	logger.Debug(args...)
}

func Debugf(format string, args ...any) {
	logger.Debugf(format, args...)
}

func Info(args ...any) {
	logger.Info(args...)
}

func Infof(format string, args ...any) {
	logger.Infof(format, args...)
}

func Warning(args ...any) {
	logger.Warning(args...)
}

func Warningf(format string, args ...any) {
	logger.Warningf(format, args...)
}

func Error(args ...any) {
	logger.Error(args...)
}

func Errorf(format string, args ...any) {
	logger.Errorf(format, args...)
}

// Fatalf logs and exits with status 1.
func Fatalf(format string, args ...any) {
	logger.Fatalf(format, args...)
}
