// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/redact"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T, cfg Config) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	cfg.Output = &buf
	require.NoError(t, Configure(cfg))
	t.Cleanup(func() {
		require.NoError(t, Configure(Config{}))
	})
	return &buf
}

func TestContextTags(t *testing.T) {
	buf := captureLogs(t, Config{})
	ctx := logtags.AddTag(context.Background(), "n", 1)
	ctx = logtags.AddTag(ctx, "redo-worker", 3)

	Infof(ctx, "hello %s", "world")
	Flush()
	out := buf.String()
	require.Contains(t, out, "INFO")
	require.Contains(t, out, "[n1,redo-worker=3] hello world")

	buf.Reset()
	Infof(context.Background(), "plain")
	Flush()
	require.NotContains(t, buf.String(), "[")
	require.Contains(t, buf.String(), "plain")
}

func TestRedactable(t *testing.T) {
	buf := captureLogs(t, Config{Redactable: true})
	Warningf(context.Background(), "safe %s unsafe %s", redact.Safe("visible"), "secret")
	Flush()
	out := buf.String()
	require.Contains(t, out, "WARNING")
	require.Contains(t, out, "safe visible unsafe ‹secret›")
}

func TestThresholdAndJSON(t *testing.T) {
	buf := captureLogs(t, Config{Format: "json", Threshold: SeverityWarning})
	Infof(context.Background(), "dropped")
	Errorf(context.Background(), "kept %d", 1)
	Flush()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	require.Equal(t, "ERROR", entry["severity"])
	require.Equal(t, "kept 1", entry["message"])

	require.Error(t, Configure(Config{Format: "xml"}))
}

func TestVerbosity(t *testing.T) {
	buf := captureLogs(t, Config{Verbosity: 1})
	ctx := context.Background()
	require.True(t, V(1))
	require.False(t, V(2))
	VEventf(ctx, 1, "shown")
	VEventf(ctx, 2, "hidden")
	prev := SetVerbosity(2)
	require.Equal(t, int32(1), prev)
	VEventf(ctx, 2, "now shown")
	SetVerbosity(prev)
	Flush()

	out := buf.String()
	require.Contains(t, out, "shown")
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "now shown")
}

func TestFatalf(t *testing.T) {
	buf := captureLogs(t, Config{})
	var code int
	SetExitFunc(func(c int) { code = c })
	defer ResetExitFunc()

	Fatalf(context.Background(), "boom")
	require.Equal(t, 255, code)
	require.Contains(t, buf.String(), "FATAL")
	require.Contains(t, buf.String(), "boom")
}

func TestEveryN(t *testing.T) {
	e := Every(time.Minute)
	start := time.Now()
	require.True(t, e.shouldLog(start))
	require.False(t, e.shouldLog(start.Add(time.Second)))
	require.True(t, e.shouldLog(start.Add(time.Minute)))

	// High verbosity bypasses the rate limit.
	prev := SetVerbosity(2)
	defer SetVerbosity(prev)
	require.True(t, e.shouldLog(start.Add(time.Minute+time.Second)))
}

func TestParseSeverity(t *testing.T) {
	s, err := ParseSeverity("warning")
	require.NoError(t, err)
	require.Equal(t, SeverityWarning, s)
	_, err = ParseSeverity("unknown")
	require.Error(t, err)
	require.Equal(t, "FATAL", SeverityFatal.String())
	require.Equal(t, "UNKNOWN", Severity(42).String())
}
