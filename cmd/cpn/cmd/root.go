/*
Copyright © 2025 q13agupta

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/q13agupta/cpn"
	"github.com/q13agupta/cpn/env"
	"github.com/q13agupta/cpn/examples/mond"
	"github.com/q13agupta/cpn/netfile"
)

var inputFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cpn",
	Short: "simulate and analyse coloured Petri nets",
	Long: `Simulate and analyse coloured Petri nets whose tokens carry physical
attributes such as mass, temperature and purity.

Nets are read from a YAML net file (--input). When no file is given the
built-in Mond process refinery model is used.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadNet builds the net selected by the flags and environment, falling
// back to the Mond process example when no net file is configured.
func loadNet(e *env.Environment, logger *zap.Logger) *cpn.Net {
	if inputFile != "" {
		e.NetFile = inputFile
	}
	if e.NetFile != "" {
		n, err := netfile.LoadFile(e.NetFile)
		if err != nil {
			logger.Fatal("failed to load net",
				zap.String("file", e.NetFile),
				zap.Error(err))
		}
		return n.WithSeed(e.Seed).WithLogger(logger)
	}
	if len(e.Priority) == 0 {
		e.Priority = mond.Priority()
	}
	return mond.Build().WithSeed(e.Seed).WithLogger(logger)
}
