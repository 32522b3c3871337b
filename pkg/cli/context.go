// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package cli

import (
	"time"

	"github.com/cockroachdb/redoapply/pkg/redo/workload"
	"github.com/cockroachdb/redoapply/pkg/storage/pagestore"
)

// cliContext captures the command-line parameters common to every command.
type cliContext struct {
	logFormat    string
	logThreshold string
	verbosity    int
	redactable   bool
}

var cliCtx cliContext

// genCtx captures the parameters of the 'generate' command.
var genCtx struct {
	out string
	workload.Config
}

// replayCtx captures the parameters of the 'replay' and 'verify' commands.
var replayCtx struct {
	logPath         string
	storePath       string
	pageSize        int
	workers         int
	backoff         time.Duration
	checkpointEvery int
	sync            bool
	metricsAddr     string
}

// setCLIContextDefaults resets the contexts to their default values. It is
// called before flags are parsed, and by tests so that a command does not
// observe the flags of the previous one.
func setCLIContextDefaults() {
	cliCtx = cliContext{logFormat: "text", logThreshold: "INFO"}
	genCtx.out = ""
	genCtx.Config = workload.DefaultConfig
	replayCtx.logPath = ""
	replayCtx.storePath = ""
	replayCtx.pageSize = pagestore.DefaultPageSize
	replayCtx.workers = 0
	replayCtx.backoff = 0
	replayCtx.checkpointEvery = 0
	replayCtx.sync = false
	replayCtx.metricsAddr = ""
}
