// Copyright (c) 2026 Vecinity Team
// Vecinity - community reporting API
// This source code is licensed under the MIT license found in the LICENSE file.

// Command vecinity runs the Vecinity API server.
//
// Usage:
//
//	vecinity [serve] [flags]
//	vecinity db sync|seed|maintain
//	vecinity config dump
//
// See --help for options.
package main

import (
	"os"

	"github.com/vecinity/vecinity-api/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
