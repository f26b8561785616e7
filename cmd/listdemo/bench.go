package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"listalloc/config"
)

var benchOps int

func init() {
	cmd := newBenchCmd()
	cmd.Flags().IntVar(&benchOps, "ops", 100000, "number of allocate operations to time")
	rootCmd.AddCommand(cmd)
}

func newBenchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bench",
		Short: "Time a larger allocation workload against a fresh List",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench()
		},
	}
}

func runBench() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	d, err := newDemo(cfg)
	if err != nil {
		return err
	}
	defer d.list.Close()

	start := time.Now()
	if err := runWorkload(d, benchOps); err != nil {
		return err
	}
	elapsed := time.Since(start)

	children := 0
	if d.reg != nil {
		children = d.reg.Len()
	}
	fmt.Printf("%d ops in %s (%.0f ops/sec), %d children, backend=%s\n",
		benchOps, elapsed, float64(benchOps)/elapsed.Seconds(), children, cfg.Backend)
	return nil
}
