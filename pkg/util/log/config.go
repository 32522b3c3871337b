// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package log

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config describes the log sink.
type Config struct {
	// Format is either "text" (the default) or "json".
	Format string
	// Output receives the log entries. Defaults to os.Stderr.
	Output io.Writer
	// Threshold is the minimum severity written. Defaults to INFO.
	Threshold Severity
	// Verbosity enables V(level) and VEventf calls up to that level.
	Verbosity int32
	// Redactable keeps redaction markers around unsafe arguments.
	Redactable bool
}

// Configure replaces the process-wide log sink.
func Configure(cfg Config) error {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	if cfg.Threshold == SeverityUnknown {
		cfg.Threshold = SeverityInfo
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.LevelKey = "severity"
	encCfg.MessageKey = "message"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = encodeSeverity

	var enc zapcore.Encoder
	switch cfg.Format {
	case "", "text":
		enc = zapcore.NewConsoleEncoder(encCfg)
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	default:
		return errors.Newf("unknown log format %q", cfg.Format)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(cfg.Output), cfg.Threshold.zapLevel())
	logger := zap.New(core, zap.AddCaller())

	logging.mu.Lock()
	defer logging.mu.Unlock()
	if logging.mu.logger != nil {
		_ = logging.mu.logger.Sync()
	}
	logging.mu.logger = logger
	logging.mu.redactable = cfg.Redactable
	logging.verbosity.Store(cfg.Verbosity)
	return nil
}

func init() {
	if err := Configure(Config{}); err != nil {
		panic(err)
	}
}

// Flush syncs the sink.
func Flush() {
	logging.mu.Lock()
	defer logging.mu.Unlock()
	_ = logging.mu.logger.Sync()
}
