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
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/q13agupta/cpn/env"
	"github.com/q13agupta/cpn/examples/mond"
)

var (
	steps   int
	policy  string
	seed    int64
	verbose bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "simulate a net under a firing policy",
	Long: `Simulate a net under a firing policy until the step budget runs out or
the net deadlocks, then report what fired and where the tokens ended up.
Flags override the SIM_* environment variables.`,
	Run: func(cmd *cobra.Command, args []string) {
		logger, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		e := env.LoadEnv(logger)
		if cmd.Flags().Changed("steps") {
			e.Steps = steps
		}
		if cmd.Flags().Changed("policy") {
			e.Policy = policy
		}
		if cmd.Flags().Changed("seed") {
			e.Seed = seed
		}
		if cmd.Flags().Changed("verbose") {
			e.Verbose = verbose
		}
		n := loadNet(e, logger)
		n.PrintStatus()
		report, err := n.AutoRun(e.Steps, e.RunPolicy(), e.Verbose)
		if err != nil {
			logger.Fatal("run aborted", zap.Error(err))
		}
		n.PrintStatus()
		fired := report.StepsTaken - report.Rejections
		fmt.Printf("fired %d of %d steps (%d rejected)\n",
			fired, report.StepsTaken, report.Rejections)
		if report.Deadlocked {
			fmt.Println("the net deadlocked before the step budget ran out")
		}
		for _, name := range sortedCounts(report.Fired) {
			fmt.Printf("  %-20s %d\n", name, report.Fired[name])
		}
		if stats := n.Stats(); len(stats) > 0 {
			fmt.Println("stats:")
			for _, key := range sortedCounts(stats) {
				fmt.Printf("  %-20s %d\n", key, stats[key])
			}
		}
		fmt.Printf("total mass: %s\n", n.TotalMass())
		if e.NetFile == "" {
			fmt.Printf("reward: %g\n", mond.Reward(n.Snapshot()))
		}
	},
}

func sortedCounts(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.PersistentFlags().StringVarP(&inputFile, "input", "i", "", "input net file")
	runCmd.PersistentFlags().IntVarP(&steps, "steps", "n", 50, "step budget")
	runCmd.PersistentFlags().StringVarP(&policy, "policy", "p", "random", "firing policy (random or prioritise)")
	runCmd.PersistentFlags().Int64VarP(&seed, "seed", "s", 1, "random seed")
	runCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every firing attempt")
}
