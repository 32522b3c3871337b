// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package cli

import (
	"bufio"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redoapply/pkg/redo/redolog"
	"github.com/cockroachdb/redoapply/pkg/redo/workload"
	"github.com/cockroachdb/redoapply/pkg/util/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate --out <file> [flags]",
	Short: "write a synthetic redo log",
	Long: `
Write a deterministic redo log of random page writes. Every volume is
allocated by a volume extension record before the first page write, and one
volume is extended again every --barrier-every records.
`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, _ []string) (retErr error) {
	ctx := cmd.Context()
	f, err := os.Create(genCtx.out)
	if err != nil {
		return errors.Wrap(err, "creating redo log")
	}
	defer func() {
		if err := f.Close(); err != nil && retErr == nil {
			retErr = errors.Wrap(err, "closing redo log")
		}
	}()

	bw := bufio.NewWriterSize(f, 256<<10)
	w, err := redolog.NewWriter(bw)
	if err != nil {
		return err
	}
	sum, err := workload.Generate(genCtx.Config, w)
	if err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, "writing redo log")
	}
	if err := f.Sync(); err != nil {
		return errors.Wrap(err, "syncing redo log")
	}
	log.Infof(ctx, "generated %d records with seed %d", sum.Records, genCtx.Seed)

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records (%d page writes, %d volume extensions, %s) to %s\n",
		sum.Records, sum.PageWrites, sum.Extends, humanize.IBytes(uint64(sum.Bytes)), genCtx.out)
	return nil
}
