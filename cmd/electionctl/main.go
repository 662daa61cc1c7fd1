// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Command electionctl inspects and repairs elections from the operator's
// shell: per-role results, tally reconciliation and development tokens.
package main

import (
	"fmt"
	"os"

	"github.com/danielhkuo/campus-vote/cliparse"
)

func main() {
	// Env file first: flag defaults are read from the environment at parse time
	if err := cliparse.LoadEnv(os.Getenv("ELECTIONCTL_ENV_FILE")); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
