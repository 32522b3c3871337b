// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package log

import (
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap/zapcore"
)

// Severity identifies the importance of a log entry.
type Severity int32

const (
	SeverityUnknown Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
	SeverityFatal
)

var severityNames = [...]string{
	SeverityUnknown: "UNKNOWN",
	SeverityInfo:    "INFO",
	SeverityWarning: "WARNING",
	SeverityError:   "ERROR",
	SeverityFatal:   "FATAL",
}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return severityNames[SeverityUnknown]
	}
	return severityNames[s]
}

// ParseSeverity parses a severity name, case insensitively.
func ParseSeverity(s string) (Severity, error) {
	for i, name := range severityNames {
		if i != int(SeverityUnknown) && strings.EqualFold(name, s) {
			return Severity(i), nil
		}
	}
	return SeverityUnknown, errors.Newf("unknown severity %q", s)
}

// zapLevel maps a severity onto the level used by the sink. FATAL is carried
// as DPanic so that zap itself never terminates the process; exiting is left
// to Fatalf.
func (s Severity) zapLevel() zapcore.Level {
	switch s {
	case SeverityWarning:
		return zapcore.WarnLevel
	case SeverityError:
		return zapcore.ErrorLevel
	case SeverityFatal:
		return zapcore.DPanicLevel
	default:
		return zapcore.InfoLevel
	}
}

func severityFromZap(l zapcore.Level) Severity {
	switch l {
	case zapcore.DebugLevel, zapcore.InfoLevel:
		return SeverityInfo
	case zapcore.WarnLevel:
		return SeverityWarning
	case zapcore.ErrorLevel:
		return SeverityError
	default:
		return SeverityFatal
	}
}

func encodeSeverity(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(severityFromZap(l).String())
}
