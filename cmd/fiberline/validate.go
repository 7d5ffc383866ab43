package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fiberline/fiberline/pkg/tube"
	"github.com/fiberline/fiberline/tubes/graphdump"
)

var validateCmd = &cobra.Command{
	Use:   "validate <topology-file>",
	Short: "Validate a tubeline topology file without running it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(args[0], cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(path string, out io.Writer) error {
	topo, err := graphdump.Load(path)
	if err != nil {
		return err
	}
	root, err := buildTubeline(topo)
	if err != nil {
		return err
	}
	if err := tube.Validate[string](root); err != nil {
		return fmt.Errorf("fiberline: %s: %w", path, err)
	}
	fmt.Fprintf(out, "VALID: %s — tubeline rooted at %q can be cloned for concurrent use\n", path, topo.Root.Name)
	return nil
}
