// Command fiberline is a small demonstration CLI around the engine: it
// loads a tubeline topology from a YAML file, drives it against a fixture
// packet, validates it, or renders it as a tree — in place of the
// teacher's otus command tree (start/stop/validate/reload).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:     "fiberline",
	Short:   "fiberline drives tubeline topologies through the fiber scheduler",
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"engine configuration file (defaults applied when omitted)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
