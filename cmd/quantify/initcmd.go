package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quantify/internal/config"
	"quantify/internal/paths"
)

var (
	initAuthor string
	initRoots  []string
	initForce  bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the configuration file",
	Long: `Write a configuration file with the given author and root paths.
Refuses to overwrite an existing configuration unless --force is set.`,
	Run: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initAuthor, "author", "", "Author name matched against commit authors (required)")
	initCmd.Flags().StringArrayVar(&initRoots, "root", nil, "Directory to scan for repositories (repeatable, required)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing configuration")
	initCmd.MarkFlagRequired("author")
	initCmd.MarkFlagRequired("root")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) {
	dir, err := paths.EnsureDataDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfgPath, err := paths.ConfigPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if _, err := os.Stat(cfgPath); err == nil && !initForce {
		fmt.Fprintf(os.Stderr, "Error: %s already exists (use --force to overwrite)\n", cfgPath)
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	cfg.Author = initAuthor
	cfg.RootPaths = initRoots
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Save(dir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s\n", cfgPath)
}
