package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quantify/internal/engine"
)

var (
	topStart string
	topEnd   string
	topN     int
	topBy    string
)

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Rank repositories by activity",
	Long: `Rank repositories over a date range. --by net orders by net line
change and includes quiet repositories; --by commits orders by commit
count and omits repositories with no commits in the range.`,
	Run: runTop,
}

func init() {
	topCmd.Flags().StringVar(&topStart, "start", "", "Start date (YYYY-MM-DD, inclusive)")
	topCmd.Flags().StringVar(&topEnd, "end", "", "End date (YYYY-MM-DD, inclusive; default today)")
	topCmd.Flags().IntVarP(&topN, "count", "n", 10, "Number of repositories to show (0 for all)")
	topCmd.Flags().StringVar(&topBy, "by", "net", "Ranking key: net or commits")
	rootCmd.AddCommand(topCmd)
}

func runTop(cmd *cobra.Command, args []string) {
	if topBy != "net" && topBy != "commits" {
		fmt.Fprintf(os.Stderr, "Error: unknown ranking key %q (want net or commits)\n", topBy)
		os.Exit(1)
	}
	start, end, err := resolveRange(topStart, topEnd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg := mustLoadConfig()
	logger := newLoggerFromConfig(cfg)
	eng, cleanup := buildEngine(cfg, logger)
	defer cleanup()

	ctx := newContext()
	progress := newProgress("Scanning repositories", len(eng.Repos()))

	var ranked []engine.RepoResult
	if topBy == "commits" {
		ranked, err = eng.CommitsByRepo(ctx, start, end, progress)
		if topN > 0 && topN < len(ranked) {
			ranked = ranked[:topN]
		}
	} else {
		ranked, err = eng.TopRepos(ctx, start, end, topN, progress)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	headline.Printf("top repositories by %s, %s\n", topBy, rangeLabel(start, end))
	for i, r := range ranked {
		if topBy == "commits" {
			fmt.Printf("%3d. %-50s %6d commits\n", i+1, r.RepoPath, r.Stats.Commits)
			continue
		}
		net := r.Stats.Net()
		fmt.Printf("%3d. %-50s %+7d  (+%d/-%d, %d commits)\n",
			i+1, r.RepoPath, net, r.Stats.Added, r.Stats.Removed, r.Stats.Commits)
	}
}
