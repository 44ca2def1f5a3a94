// Package log wraps a process-wide zap logger for the commands and the
// orchestration packages. Library code that runs before Init logs nothing.
package log

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu    sync.RWMutex
	base  = zap.NewNop()
	sugar = base.Sugar()
)

// Init installs a production logger, or a development logger when debug is set
func Init(debug bool) error {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment(zap.AddCallerSkip(1))
	} else {
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		l, err = cfg.Build(zap.AddCallerSkip(1))
	}
	if err != nil {
		return fmt.Errorf("failed to initialize zap logger: %w", err)
	}
	Set(l)
	return nil
}

// Set replaces the package logger, e.g. with zaptest in tests
func Set(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	base = l
	sugar = l.Sugar()
}

func logger() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// Zap returns the underlying structured logger
func Zap() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Named returns a child logger for one component, e.g. "worker"
func Named(component string) *zap.SugaredLogger {
	return logger().Named(component)
}

// Sync flushes any buffered log entries
func Sync() {
	_ = logger().Sync()
}

func Debugf(template string, args ...interface{}) {
	logger().Debugf(template, args...)
}

func Debugw(msg string, keysAndValues ...interface{}) {
	logger().Debugw(msg, keysAndValues...)
}

func Infof(template string, args ...interface{}) {
	logger().Infof(template, args...)
}

func Infow(msg string, keysAndValues ...interface{}) {
	logger().Infow(msg, keysAndValues...)
}

func Warnf(template string, args ...interface{}) {
	logger().Warnf(template, args...)
}

func Warnw(msg string, keysAndValues ...interface{}) {
	logger().Warnw(msg, keysAndValues...)
}

func Errorf(template string, args ...interface{}) {
	logger().Errorf(template, args...)
}

func Errorw(msg string, keysAndValues ...interface{}) {
	logger().Errorw(msg, keysAndValues...)
}

func Fatalf(template string, args ...interface{}) {
	logger().Errorf(template, args...)
	Sync()
	os.Exit(1)
}
