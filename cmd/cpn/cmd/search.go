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
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/q13agupta/cpn/analysis"
	"github.com/q13agupta/cpn/env"
)

var (
	goalPlace string
	goalCount int
	maxDepth  int
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search for a firing sequence that reaches a goal marking",
	Long: `Search breadth-first for the shortest firing sequence that leaves at
least the requested number of tokens in the goal place. The search gives up
on sequences longer than the depth bound, so a miss only proves the goal is
out of reach within that many steps.`,
	Run: func(cmd *cobra.Command, args []string) {
		logger, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		e := env.LoadEnv(logger)
		if cmd.Flags().Changed("depth") {
			e.MaxDepth = maxDepth
		}
		if goalPlace == "" {
			logger.Fatal("a goal place is required")
		}
		n := loadNet(e, logger)
		if n.Place(goalPlace) == nil {
			logger.Fatal("no such place", zap.String("place", goalPlace))
		}
		seq, found := analysis.FindSequence(n, analysis.TokensAt(goalPlace, goalCount), e.MaxDepth)
		if !found {
			fmt.Printf("no sequence reaches %d token(s) in %s within %d steps\n",
				goalCount, goalPlace, e.MaxDepth)
			return
		}
		if len(seq) == 0 {
			fmt.Println("the goal already holds")
			return
		}
		fmt.Println(strings.Join(seq, " "))
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.PersistentFlags().StringVarP(&inputFile, "input", "i", "", "input net file")
	searchCmd.PersistentFlags().StringVarP(&goalPlace, "place", "p", "", "goal place")
	searchCmd.PersistentFlags().IntVarP(&goalCount, "count", "c", 1, "tokens required in the goal place")
	searchCmd.PersistentFlags().IntVarP(&maxDepth, "depth", "d", 6, "maximum sequence length")
}
