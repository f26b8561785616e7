package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"listalloc/config"
	"listalloc/stats"
)

var runOps int

func init() {
	cmd := newRunCmd()
	cmd.Flags().IntVar(&runOps, "ops", 1000, "number of allocate operations to run")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run a randomized allocation workload against a fresh List",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun()
		},
	}
}

func runRun() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	d, err := newDemo(cfg)
	if err != nil {
		return err
	}
	defer d.list.Close()

	if err := runWorkload(d, runOps); err != nil {
		return err
	}

	if d.reg == nil {
		fmt.Printf("ran %d operations (backend=%s, stats disabled)\n", runOps, cfg.Backend)
		return nil
	}
	fmt.Printf("ran %d operations against %d children (backend=%s)\n", runOps, d.reg.Len(), cfg.Backend)
	d.reg.Each(func(c *stats.Child) {
		s := c.Snapshot()
		fmt.Printf("  %s: allocations=%d deallocations=%d bytesLive=%d\n", c.ID, s.Allocations, s.Deallocations, s.BytesLive)
	})
	return nil
}
