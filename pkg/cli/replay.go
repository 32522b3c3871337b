// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package cli

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/cockroachdb/redoapply/pkg/recovery"
	"github.com/cockroachdb/redoapply/pkg/redo"
	"github.com/cockroachdb/redoapply/pkg/storage/pagestore"
	"github.com/cockroachdb/redoapply/pkg/util/log"
	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay --log <file> --store <dir> [flags]",
	Short: "replay a redo log into a page store",
	Long: `
Replay a redo log into the page store in --store, creating it if needed. Pages
already carrying a record's LSA or a later one are skipped, so a log can be
replayed again into the same store.
`,
	Args: cobra.NoArgs,
	RunE: runReplay,
}

func redoConfig() redo.Config {
	return redo.Config{
		Workers:      replayCtx.workers,
		RetryBackoff: replayCtx.backoff,
	}
}

func openLog() (*os.File, error) {
	f, err := os.Open(replayCtx.logPath)
	if err != nil {
		return nil, errors.Wrap(err, "opening redo log")
	}
	return f, nil
}

func runReplay(cmd *cobra.Command, _ []string) (retErr error) {
	ctx := cmd.Context()
	logFile, err := openLog()
	if err != nil {
		return err
	}
	defer logFile.Close()

	store, err := pagestore.Open(ctx, pagestore.Options{
		Dir:      replayCtx.storePath,
		FS:       vfs.Default,
		PageSize: replayCtx.pageSize,
		Sync:     replayCtx.sync,
	})
	if err != nil {
		return err
	}
	defer func() { retErr = errors.CombineErrors(retErr, store.Close()) }()

	cfg := redoConfig()
	if replayCtx.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		stop, err := serveMetrics(ctx, replayCtx.metricsAddr, reg)
		if err != nil {
			return err
		}
		defer stop()
		cfg.Registerer = reg
	}

	stats, err := recovery.Replay(ctx, recovery.Options{
		Log:             logFile,
		Store:           store,
		Redo:            cfg,
		CheckpointEvery: replayCtx.checkpointEvery,
	})
	if err != nil {
		return err
	}
	fp, err := store.Fingerprint()
	if err != nil {
		return err
	}
	printStats(cmd.OutOrStdout(), "replay", stats)
	fmt.Fprintf(cmd.OutOrStdout(), "fingerprint: %016x\n", fp)
	return nil
}

func printStats(w io.Writer, name string, stats recovery.Stats) {
	rate := float64(stats.Records) / max(stats.Elapsed.Seconds(), 1e-9)
	fmt.Fprintf(w, "%s: %s records (%d barriers) up to %s in %s (%s records/s), %d applied, %d skipped\n",
		name, humanize.Comma(int64(stats.Records)), stats.Barriers, stats.LastLSA,
		stats.Elapsed.Round(time.Millisecond), humanize.SIWithDigits(rate, 1, ""), stats.Applied, stats.Skipped)
}

// serveMetrics serves reg on addr until the returned function is called.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) (stop func(), _ error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listening on %s", addr)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warningf(ctx, "metrics endpoint: %v", err)
		}
	}()
	log.Infof(ctx, "serving metrics on http://%s/metrics", ln.Addr())
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		<-done
	}, nil
}
