// Copyright 2026 The Polypheny Authors. All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package rlog is the router's structured logging facade: a small
// Logger interface plus a logrus-backed StandardLogger implementation,
// grounded on the teacher's logging/logging.go (public Logger/
// StandardLogger facade) and internal/logging/logging.go (level
// parsing, formatter selection).
package rlog

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Level is a logging severity, ordered least to most verbose.
type Level int

const (
	Error Level = iota
	Warn
	Info
	Debug
)

// ParseLevel maps a config string to a Level, defaulting to Info for an
// empty string, matching internal/logging.GetLevel's behavior.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return Debug, nil
	case "", "info":
		return Info, nil
	case "warn":
		return Warn, nil
	case "error":
		return Error, nil
	default:
		return Debug, fmt.Errorf("rlog: invalid log level: %v", s)
	}
}

func (l Level) logrusLevel() logrus.Level {
	switch l {
	case Error:
		return logrus.ErrorLevel
	case Warn:
		return logrus.WarnLevel
	case Debug:
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}

// Logger is the interface the router core depends on. Implementations
// must be safe for concurrent use, since Route calls may run on many
// goroutines in the hosting process even though a single Route call is
// not internally parallel (spec.md §5).
type Logger interface {
	Debug(fmt string, args ...interface{})
	Info(fmt string, args ...interface{})
	Warn(fmt string, args ...interface{})
	Error(fmt string, args ...interface{})
	WithFields(fields map[string]interface{}) Logger
	SetLevel(Level)
	GetLevel() Level
}

// StandardLogger is the default Logger, backed by logrus.
type StandardLogger struct {
	entry *logrus.Entry
	level Level
}

// NewStandardLogger returns a StandardLogger writing JSON-formatted
// entries at Info level, matching the teacher's default formatter
// selection (internal/logging.GetFormatter's default branch).
func NewStandardLogger() *StandardLogger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(logrus.InfoLevel)
	return &StandardLogger{entry: logrus.NewEntry(l), level: Info}
}

func (s *StandardLogger) Debug(format string, args ...interface{}) { s.entry.Debugf(format, args...) }
func (s *StandardLogger) Info(format string, args ...interface{})  { s.entry.Infof(format, args...) }
func (s *StandardLogger) Warn(format string, args ...interface{})  { s.entry.Warnf(format, args...) }
func (s *StandardLogger) Error(format string, args ...interface{}) { s.entry.Errorf(format, args...) }

func (s *StandardLogger) WithFields(fields map[string]interface{}) Logger {
	return &StandardLogger{entry: s.entry.WithFields(fields), level: s.level}
}

func (s *StandardLogger) SetLevel(l Level) {
	s.level = l
	s.entry.Logger.SetLevel(l.logrusLevel())
}

func (s *StandardLogger) GetLevel() Level { return s.level }

// NoOpLogger discards everything. Useful for tests and library callers
// that don't want router-internal logs.
type NoOpLogger struct{}

func NewNoOpLogger() *NoOpLogger { return &NoOpLogger{} }

func (*NoOpLogger) Debug(string, ...interface{}) {}
func (*NoOpLogger) Info(string, ...interface{})  {}
func (*NoOpLogger) Warn(string, ...interface{})  {}
func (*NoOpLogger) Error(string, ...interface{}) {}
func (n *NoOpLogger) WithFields(map[string]interface{}) Logger { return n }
func (*NoOpLogger) SetLevel(Level)                              {}
func (*NoOpLogger) GetLevel() Level                             { return Info }
