// Copyright 2026 The Gitmount Authors
// SPDX-License-Identifier: Apache-2.0

// The gitmount binary mounts a branch of a version-controlled content
// store as a FUSE filesystem.
package main

import (
	"fmt"
	"os"

	"github.com/gitmount/gitmount/cmd/gitmount/commands"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return commands.Root().Execute(os.Args[1:])
}
