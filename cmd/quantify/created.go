package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quantify/internal/gitlog"
)

var (
	createdStart string
	createdEnd   string
	createdList  bool
)

var createdCmd = &cobra.Command{
	Use:   "created",
	Short: "Count projects created in a date range",
	Long: `Count the repositories whose first commit falls within the given
date range. With --list each repository is printed with its first-commit
date, oldest first.`,
	Run: runCreated,
}

func init() {
	createdCmd.Flags().StringVar(&createdStart, "start", "", "Start date (YYYY-MM-DD, inclusive)")
	createdCmd.Flags().StringVar(&createdEnd, "end", "", "End date (YYYY-MM-DD, inclusive; default today)")
	createdCmd.Flags().BoolVar(&createdList, "list", false, "List each project with its first-commit date")
	rootCmd.AddCommand(createdCmd)
}

func runCreated(cmd *cobra.Command, args []string) {
	start, end, err := resolveRange(createdStart, createdEnd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg := mustLoadConfig()
	logger := newLoggerFromConfig(cfg)
	eng, cleanup := buildEngine(cfg, logger)
	defer cleanup()

	created, err := eng.ProjectsCreated(newContext(), start, end)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	headline.Printf("projects created %s: ", rangeLabel(start, end))
	fmt.Printf("%d\n", len(created))
	if createdList {
		for _, c := range created {
			fmt.Printf("  %s  %s\n", c.FirstCommit.Format(gitlog.DateFormat), c.RepoPath)
		}
	}
}
