// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package cli

import (
	"time"

	"github.com/cockroachdb/redoapply/pkg/cli/cliflags"
	"github.com/cockroachdb/redoapply/pkg/util/envutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func setFlagFromEnv(f *pflag.FlagSet, flagInfo cliflags.FlagInfo) {
	if flagInfo.EnvVar != "" {
		if value, set := envutil.EnvString(flagInfo.EnvVar); set {
			if err := f.Set(flagInfo.Name, value); err != nil {
				panic(err)
			}
		}
	}
}

// StringFlag creates a string flag and registers it with the FlagSet.
func StringFlag(f *pflag.FlagSet, valPtr *string, flagInfo cliflags.FlagInfo) {
	f.StringVarP(valPtr, flagInfo.Name, flagInfo.Shorthand, *valPtr, flagInfo.Usage())

	setFlagFromEnv(f, flagInfo)
}

// IntFlag creates an int flag and registers it with the FlagSet.
func IntFlag(f *pflag.FlagSet, valPtr *int, flagInfo cliflags.FlagInfo) {
	f.IntVarP(valPtr, flagInfo.Name, flagInfo.Shorthand, *valPtr, flagInfo.Usage())

	setFlagFromEnv(f, flagInfo)
}

// Int32Flag creates an int32 flag and registers it with the FlagSet.
func Int32Flag(f *pflag.FlagSet, valPtr *int32, flagInfo cliflags.FlagInfo) {
	f.Int32VarP(valPtr, flagInfo.Name, flagInfo.Shorthand, *valPtr, flagInfo.Usage())

	setFlagFromEnv(f, flagInfo)
}

// Int64Flag creates an int64 flag and registers it with the FlagSet.
func Int64Flag(f *pflag.FlagSet, valPtr *int64, flagInfo cliflags.FlagInfo) {
	f.Int64VarP(valPtr, flagInfo.Name, flagInfo.Shorthand, *valPtr, flagInfo.Usage())

	setFlagFromEnv(f, flagInfo)
}

// BoolFlag creates a bool flag and registers it with the FlagSet.
func BoolFlag(f *pflag.FlagSet, valPtr *bool, flagInfo cliflags.FlagInfo) {
	f.BoolVarP(valPtr, flagInfo.Name, flagInfo.Shorthand, *valPtr, flagInfo.Usage())

	setFlagFromEnv(f, flagInfo)
}

// DurationFlag creates a duration flag and registers it with the FlagSet.
func DurationFlag(f *pflag.FlagSet, valPtr *time.Duration, flagInfo cliflags.FlagInfo) {
	f.DurationVarP(valPtr, flagInfo.Name, flagInfo.Shorthand, *valPtr, flagInfo.Usage())

	setFlagFromEnv(f, flagInfo)
}

func init() {
	setCLIContextDefaults()

	{
		pf := redoReplayCmd.PersistentFlags()
		StringFlag(pf, &cliCtx.logFormat, cliflags.LogFormat)
		StringFlag(pf, &cliCtx.logThreshold, cliflags.LogThreshold)
		IntFlag(pf, &cliCtx.verbosity, cliflags.Verbosity)
		BoolFlag(pf, &cliCtx.redactable, cliflags.Redactable)
	}

	{
		f := generateCmd.Flags()
		StringFlag(f, &genCtx.out, cliflags.OutPath)
		IntFlag(f, &genCtx.Records, cliflags.Records)
		IntFlag(f, &genCtx.Volumes, cliflags.Volumes)
		Int32Flag(f, &genCtx.PagesPerVolume, cliflags.Pages)
		Int64Flag(f, &genCtx.Seed, cliflags.Seed)
		IntFlag(f, &genCtx.BarrierEvery, cliflags.BarrierEvery)
		IntFlag(f, &genCtx.MaxWriteBytes, cliflags.MaxWriteBytes)
		IntFlag(f, &genCtx.PageSize, cliflags.PageSize)
		_ = generateCmd.MarkFlagRequired(cliflags.OutPath.Name)
	}

	// Flags common to the commands replaying a log.
	for _, cmd := range []*cobra.Command{replayCmd, verifyCmd} {
		f := cmd.Flags()
		StringFlag(f, &replayCtx.logPath, cliflags.LogPath)
		IntFlag(f, &replayCtx.pageSize, cliflags.PageSize)
		IntFlag(f, &replayCtx.workers, cliflags.Workers)
		DurationFlag(f, &replayCtx.backoff, cliflags.RetryBackoff)
		IntFlag(f, &replayCtx.checkpointEvery, cliflags.CheckpointEvery)
		_ = cmd.MarkFlagRequired(cliflags.LogPath.Name)
	}

	{
		f := replayCmd.Flags()
		StringFlag(f, &replayCtx.storePath, cliflags.StorePath)
		BoolFlag(f, &replayCtx.sync, cliflags.SyncWrites)
		StringFlag(f, &replayCtx.metricsAddr, cliflags.MetricsAddr)
		_ = replayCmd.MarkFlagRequired(cliflags.StorePath.Name)
	}
}
