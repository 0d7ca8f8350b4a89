package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quantify/internal/engine"
)

var (
	sumStart string
	sumEnd   string
	sumStat  string
)

var sumCmd = &cobra.Command{
	Use:   "sum",
	Short: "Total a statistic over a date range",
	Long: `Sum one statistic (added, removed, net, or commits) across every
discovered repository. Without --start the whole history is counted and
the cache is bypassed.`,
	Run: runSum,
}

func init() {
	sumCmd.Flags().StringVar(&sumStart, "start", "", "Start date (YYYY-MM-DD, inclusive)")
	sumCmd.Flags().StringVar(&sumEnd, "end", "", "End date (YYYY-MM-DD, inclusive; default today)")
	sumCmd.Flags().StringVar(&sumStat, "stat", "net", "Statistic: added, removed, net, or commits")
	rootCmd.AddCommand(sumCmd)
}

func runSum(cmd *cobra.Command, args []string) {
	stat, ok := engine.ParseStat(sumStat)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown stat %q (want added, removed, net, or commits)\n", sumStat)
		os.Exit(1)
	}
	start, end, err := resolveRange(sumStart, sumEnd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg := mustLoadConfig()
	logger := newLoggerFromConfig(cfg)
	eng, cleanup := buildEngine(cfg, logger)
	defer cleanup()

	total, err := eng.Sum(newContext(), start, end,
		stat, newProgress("Scanning repositories", len(eng.Repos())))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	headline.Printf("%s %s: ", stat, rangeLabel(start, end))
	switch {
	case stat == engine.StatNet && total > 0:
		plusStyle.Printf("+%d\n", total)
	case stat == engine.StatNet && total < 0:
		minusStyle.Printf("%d\n", total)
	default:
		fmt.Printf("%d\n", total)
	}
}
