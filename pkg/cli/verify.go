// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package cli

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/cockroachdb/redoapply/pkg/cli/clierror"
	"github.com/cockroachdb/redoapply/pkg/cli/exit"
	"github.com/cockroachdb/redoapply/pkg/recovery"
	"github.com/cockroachdb/redoapply/pkg/storage/pagestore"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify --log <file> [flags]",
	Short: "check that a parallel replay matches a serial one",
	Long: `
Replay a redo log twice into in-memory page stores, once with the parallel
redo workers and once serially in log order, and compare the resulting pages.
`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

func openMemStore(ctx context.Context) (*pagestore.Store, error) {
	return pagestore.Open(ctx, pagestore.Options{
		Dir:      "pages",
		FS:       vfs.NewMem(),
		PageSize: replayCtx.pageSize,
	})
}

// replayFingerprint replays the log into a fresh in-memory store and returns
// the store's fingerprint.
func replayFingerprint(
	ctx context.Context,
	replay func(context.Context, recovery.Options) (recovery.Stats, error),
	opts recovery.Options,
) (_ recovery.Stats, _ uint64, retErr error) {
	store, err := openMemStore(ctx)
	if err != nil {
		return recovery.Stats{}, 0, err
	}
	defer func() { retErr = errors.CombineErrors(retErr, store.Close()) }()
	opts.Store = store
	stats, err := replay(ctx, opts)
	if err != nil {
		return recovery.Stats{}, 0, err
	}
	fp, err := store.Fingerprint()
	return stats, fp, err
}

func runVerify(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logFile, err := openLog()
	if err != nil {
		return err
	}
	defer logFile.Close()

	opts := recovery.Options{
		Log:             logFile,
		Redo:            redoConfig(),
		CheckpointEvery: replayCtx.checkpointEvery,
	}
	serialStats, serialFP, err := replayFingerprint(ctx, recovery.ReplaySerial, opts)
	if err != nil {
		return errors.Wrap(err, "serial replay")
	}
	parallelStats, parallelFP, err := replayFingerprint(ctx, recovery.Replay, opts)
	if err != nil {
		return errors.Wrap(err, "parallel replay")
	}

	out := cmd.OutOrStdout()
	printStats(out, "serial", serialStats)
	printStats(out, "parallel", parallelStats)
	if serialFP != parallelFP || serialStats.Stats != parallelStats.Stats {
		return clierror.NewErrorf(exit.VerifyFailed(),
			"parallel replay diverged: fingerprint %016x, expected %016x", parallelFP, serialFP)
	}
	fmt.Fprintf(out, "ok: fingerprint %016x\n", parallelFP)
	return nil
}
