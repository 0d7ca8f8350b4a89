package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cacheClearRepo string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the daily-stats cache",
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show cache location and size",
	Run:   runCacheInfo,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete cached daily stats",
	Long: `Delete cached daily stats. With --repo only that repository's rows
are removed; otherwise the whole cache is emptied. Pinned project types
are kept either way.`,
	Run: runCacheClear,
}

func init() {
	cacheClearCmd.Flags().StringVar(&cacheClearRepo, "repo", "", "Clear only this repository's cached stats")
	cacheCmd.AddCommand(cacheInfoCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheInfo(cmd *cobra.Command, args []string) {
	store := mustOpenStore(newLoggerFromConfig(mustLoadConfig()))
	defer store.Close()

	n, err := store.EntryCount()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("path:    %s\n", store.Path())
	fmt.Printf("entries: %d repo-day rows\n", n)
}

func runCacheClear(cmd *cobra.Command, args []string) {
	store := mustOpenStore(newLoggerFromConfig(mustLoadConfig()))
	defer store.Close()

	if cacheClearRepo != "" {
		repo := normalizeRepoArg(cacheClearRepo)
		if err := store.ClearRepo(repo); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("cleared cached stats for %s\n", repo)
		return
	}
	if err := store.ClearAll(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("cache cleared")
}
