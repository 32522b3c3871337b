// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// redo-replay generates redo logs and replays them with parallel redo
// workers.
package main

import "github.com/cockroachdb/redoapply/pkg/cli"

func main() {
	cli.Main()
}
