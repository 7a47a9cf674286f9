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
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/q13agupta/cpn/env"
	"github.com/q13agupta/cpn/graphviz"
)

var (
	outputDir string
	format    string
)

// vizCmd represents the viz command
var vizCmd = &cobra.Command{
	Use:   "viz",
	Short: "Create a graphviz figure from a net",
	Long: `Create a graphviz figure from a net, drawing places as circles and
transitions as boxes.`,
	Run: func(cmd *cobra.Command, args []string) {
		logger, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		e := env.LoadEnv(logger)
		net := loadNet(e, logger)
		outName := net.Name() + "." + format
		cfg := &graphviz.Config{
			Name:    net.Name(),
			Font:    graphviz.Helvetica,
			RankDir: graphviz.LeftToRight,
			Format:  graphviz.Format(format),
		}
		outPath := outputDir + "/" + outName
		fmt.Printf("writing figure for %s to %s...", net.Name(), outPath)
		err = os.MkdirAll(outputDir, os.ModePerm)
		if err != nil {
			panic(err)
		}
		df, err := os.Create(outPath)
		if err != nil {
			panic(err)
		}
		defer func() {
			_ = df.Close()
		}()
		w := graphviz.New(cfg)
		err = w.Flush(df, net)
		if err != nil {
			panic(err)
		}
		fmt.Println("done")
	},
}

func init() {
	rootCmd.AddCommand(vizCmd)
	vizCmd.PersistentFlags().StringVarP(&inputFile, "input", "i", "", "input net file")
	vizCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", ".", "output directory")
	vizCmd.PersistentFlags().StringVarP(&format, "format", "f", "svg", "output format")
}
