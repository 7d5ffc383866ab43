package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fiberline/fiberline/tubes/graphdump"
)

var graphCmd = &cobra.Command{
	Use:   "graph <topology-file>",
	Short: "Render a tubeline topology as a tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGraph(args[0], cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}

func runGraph(path string, out io.Writer) error {
	topo, err := graphdump.Load(path)
	if err != nil {
		return err
	}
	fmt.Fprint(out, graphdump.Render(topo))
	return nil
}
