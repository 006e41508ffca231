package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// InfoLogger logs informational messages
	InfoLogger = newStderrLogger()
	// ErrorLogger logs error messages
	ErrorLogger = newStderrLogger()
	// DebugLogger logs debug messages
	DebugLogger = newStderrLogger()
)

func newStderrLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.DebugLevel)
	return l
}

// InitLogger points the loggers at daily files under dir. Files are rotated by size.
func InitLogger(dir, level string) error {
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %v", err)
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}

	timestamp := time.Now().Format("2006-01-02")
	InfoLogger = newFileLogger(filepath.Join(dir, fmt.Sprintf("info-%s.log", timestamp)), "INFO", lvl)
	ErrorLogger = newFileLogger(filepath.Join(dir, fmt.Sprintf("error-%s.log", timestamp)), "ERROR", lvl)
	DebugLogger = newFileLogger(filepath.Join(dir, fmt.Sprintf("debug-%s.log", timestamp)), "DEBUG", lvl)

	return nil
}

func newFileLogger(path, prefix string, lvl logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    50, // megabytes
		MaxBackups: 7,
		MaxAge:     30, // days
	})
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006/01/02 15:04:05",
	})
	l.SetLevel(lvl)
	l.AddHook(prefixHook{prefix: prefix})
	return l
}

// prefixHook tags every entry with the file it belongs to so merged logs stay readable.
type prefixHook struct {
	prefix string
}

func (h prefixHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h prefixHook) Fire(e *logrus.Entry) error {
	e.Data["log"] = h.prefix
	return nil
}

// LogInfo logs an informational message
func LogInfo(format string, v ...interface{}) {
	InfoLogger.Infof(format, v...)
}

// LogError logs an error message
func LogError(format string, v ...interface{}) {
	ErrorLogger.Errorf(format, v...)
}

// LogDebug logs a debug message
func LogDebug(format string, v ...interface{}) {
	DebugLogger.Debugf(format, v...)
}

// LogWarn logs a recoverable problem to the error log
func LogWarn(format string, v ...interface{}) {
	ErrorLogger.Warnf(format, v...)
}

// LogRequest logs HTTP request details
func LogRequest(method, path, ip, requestID string, status int, duration time.Duration) {
	InfoLogger.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"ip":         ip,
		"status":     status,
		"duration":   duration.String(),
		"request_id": requestID,
	}).Info("Request")
}

// LogErrorWithStack logs an error with stack trace
func LogErrorWithStack(err error, stack []byte) {
	ErrorLogger.Errorf("Error: %v\nStack Trace:\n%s", err, stack)
}
