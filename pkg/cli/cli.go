// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package cli implements the redo-replay command.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redoapply/pkg/cli/clierror"
	"github.com/cockroachdb/redoapply/pkg/cli/exit"
	"github.com/cockroachdb/redoapply/pkg/util/log"
	"github.com/spf13/cobra"
)

// Proxy to allow overrides in tests.
var stderr io.Writer = os.Stderr

var redoReplayCmd = &cobra.Command{
	Use:   "redo-replay [command] (flags)",
	Short: "generate and replay page redo logs",
	Long: `
Generate synthetic page redo logs and replay them against a page store with a
pool of parallel redo workers.
`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: configureLogging,
}

func init() {
	cobra.EnableCommandSorting = false

	redoReplayCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return clierror.NewError(err, exit.CommandLineFlagError())
	})
	redoReplayCmd.AddCommand(
		generateCmd,
		replayCmd,
		verifyCmd,
	)
}

func configureLogging(cmd *cobra.Command, _ []string) error {
	threshold, err := log.ParseSeverity(cliCtx.logThreshold)
	if err != nil {
		return clierror.NewError(err, exit.CommandLineFlagError())
	}
	if err := log.Configure(log.Config{
		Format:     cliCtx.logFormat,
		Output:     stderr,
		Threshold:  threshold,
		Verbosity:  int32(cliCtx.verbosity),
		Redactable: cliCtx.redactable,
	}); err != nil {
		return clierror.NewError(err, exit.CommandLineFlagError())
	}
	return nil
}

// Main is the entry point of the redo-replay binary.
func Main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := RunContext(ctx, os.Args[1:])
	stop()
	log.Flush()
	if err != nil {
		code := clierror.ExitCode(err)
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		if log.V(1) {
			fmt.Fprintf(stderr, "%+v\n", err)
		}
		exit.WithCode(code)
	}
}

// RunContext executes the command line in args. Cancelling ctx interrupts
// the running command.
func RunContext(ctx context.Context, args []string) error {
	redoReplayCmd.SetArgs(args)
	return errors.WithStack(redoReplayCmd.ExecuteContext(ctx))
}
