// DesktopDye - Ambient lighting from your screen
//
// DesktopDye samples the colours on your display and pushes them to
// Home Assistant so smart lights can follow what you are looking at.
//
// Copyright (c) 2025 The DesktopDye Authors
// Licensed under the MIT License
package main

import (
	"os"

	"github.com/desktopdye/desktopdye/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
