package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "listdemo",
	Short: "Exercise the listalloc composite allocator from the command line",
	Long: `listdemo drives a listalloc.List through a randomized sequence of
allocate/deallocate operations against one of the reference child
allocators (bump, region, freelist), and prints per-child statistics
on exit.`,
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print each operation as it runs")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}
