// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package log implements leveled, context-aware logging.
//
// Every logging call takes a context.Context as its first argument. Tags
// attached to the context with logtags.AddTag are rendered in front of the
// message:
//
//	ctx = logtags.AddTag(ctx, "redo-worker", 3)
//	log.Infof(ctx, "reading %s", path)
//	// I... [redo-worker=3] reading ‹/data/redo.log›
//
// Messages are rendered through the redact package. Arguments implementing
// redact.SafeFormatter or redact.SafeValue are considered safe; everything else
// is enclosed in redaction markers when redactable output is requested via
// Config.Redactable, and printed verbatim otherwise.
//
// Entries are written through a zap core. Configure replaces the sink and may
// be called at any time; tests usually point Config.Output at a buffer.
package log
