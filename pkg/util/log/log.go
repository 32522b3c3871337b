// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package log

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/redact"
	"github.com/cockroachdb/redoapply/pkg/util/syncutil"
	"go.uber.org/zap"
)

var logging struct {
	verbosity atomic.Int32
	mu        struct {
		syncutil.Mutex
		logger       *zap.Logger
		redactable   bool
		exitOverride func(int)
	}
}

// V returns true if the configured verbosity is at least level.
func V(level int32) bool {
	return logging.verbosity.Load() >= level
}

// SetVerbosity changes the verbosity and returns the previous value.
func SetVerbosity(level int32) int32 {
	return logging.verbosity.Swap(level)
}

// Infof logs to the INFO severity.
func Infof(ctx context.Context, format string, args ...interface{}) {
	logfDepth(ctx, 1, SeverityInfo, format, args...)
}

// Warningf logs to the WARNING severity.
func Warningf(ctx context.Context, format string, args ...interface{}) {
	logfDepth(ctx, 1, SeverityWarning, format, args...)
}

// Errorf logs to the ERROR severity.
func Errorf(ctx context.Context, format string, args ...interface{}) {
	logfDepth(ctx, 1, SeverityError, format, args...)
}

// Fatalf logs to the FATAL severity and then exits the process (or calls
// the function installed with SetExitFunc).
func Fatalf(ctx context.Context, format string, args ...interface{}) {
	logfDepth(ctx, 1, SeverityFatal, format, args...)
	exit(255)
}

// VEventf logs to the INFO severity if the verbosity is at least level.
func VEventf(ctx context.Context, level int32, format string, args ...interface{}) {
	if V(level) {
		logfDepth(ctx, 1, SeverityInfo, format, args...)
	}
}

func formatTags(ctx context.Context, buf *strings.Builder) {
	tags := logtags.FromContext(ctx)
	if tags == nil || len(tags.Get()) == 0 {
		return
	}
	buf.WriteByte('[')
	tags.FormatToString(buf)
	buf.WriteString("] ")
}

func logfDepth(
	ctx context.Context, depth int, sev Severity, format string, args ...interface{},
) {
	logging.mu.Lock()
	logger, redactable := logging.mu.logger, logging.mu.redactable
	logging.mu.Unlock()

	var buf strings.Builder
	formatTags(ctx, &buf)
	msg := redact.Sprintf(format, args...)
	if redactable {
		buf.WriteString(string(msg))
	} else {
		buf.WriteString(msg.StripMarkers())
	}

	if ce := logger.WithOptions(zap.AddCallerSkip(depth+1)).Check(sev.zapLevel(), buf.String()); ce != nil {
		ce.Write()
	}
}
