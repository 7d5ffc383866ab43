package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fiberline/fiberline/internal/engineconfig"
	"github.com/fiberline/fiberline/internal/obslog"
	"github.com/fiberline/fiberline/interceptors/audit"
	"github.com/fiberline/fiberline/pkg/engine"
	"github.com/fiberline/fiberline/pkg/interceptor"
	"github.com/fiberline/fiberline/tubes/graphdump"
)

var runPacket string

var runCmd = &cobra.Command{
	Use:   "run <topology-file>",
	Short: "Build a tubeline and drive one fiber through it synchronously",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRun(cmd.Context(), args[0], runPacket, cmd.OutOrStdout())
	},
}

func init() {
	runCmd.Flags().StringVarP(&runPacket, "packet", "p", "hello", "fixture packet to drive through the tubeline")
	rootCmd.AddCommand(runCmd)
}

func loadEngineConfig() (*engineconfig.EngineConfig, error) {
	if configFile == "" {
		return engineconfig.Default(), nil
	}
	return engineconfig.Load(configFile)
}

func runRun(ctx context.Context, topologyPath, packet string, out io.Writer) error {
	cfg, err := loadEngineConfig()
	if err != nil {
		return err
	}
	if err := obslog.Init(cfg.Log); err != nil {
		return err
	}

	topo, err := graphdump.Load(topologyPath)
	if err != nil {
		return err
	}
	root, err := buildTubeline(topo)
	if err != nil {
		return err
	}

	eng := engine.New[string](cfg.EngineID)
	if cfg.Scheduler.SerializeExecution {
		engine.SetSerializeExecution(true)
	}

	var interceptors []interceptor.Interceptor
	if cfg.Interceptors.Audit {
		interceptors = append(interceptors, audit.NewInterceptor())
	}

	fib := eng.CreateFiber(interceptors...)
	response, err := fib.RunSync(ctx, root, packet)
	if err != nil {
		fmt.Fprintf(out, "THROW: %v\n", err)
		return err
	}
	fmt.Fprintf(out, "RETURN: %s\n", response)
	return nil
}
