package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"quantify/internal/gitlog"
	"quantify/internal/projecttype"
)

var exclusionsVerbose bool

var exclusionsCmd = &cobra.Command{
	Use:   "exclusions <repo-path>",
	Short: "Show which tracked files the exclusion rules drop",
	Long: `Run every file git tracks in the repository through the active
classification rules and report, per rule, how many files it excludes.
Useful for checking what a project type or a configured override actually
does before trusting the numbers.`,
	Args: cobra.ExactArgs(1),
	Run:  runExclusions,
}

func init() {
	exclusionsCmd.Flags().BoolVarP(&exclusionsVerbose, "verbose", "v", false,
		"List every excluded file, not just counts")
	rootCmd.AddCommand(exclusionsCmd)
}

func runExclusions(cmd *cobra.Command, args []string) {
	repo := normalizeRepoArg(args[0])
	cfg := mustLoadConfig()
	logger := newLoggerFromConfig(cfg)

	// Pinned type wins over detection, same as during stats collection.
	t := projecttype.Detect(repo)
	store := mustOpenStore(logger)
	meta, err := store.GetProjectType(repo)
	store.Close()
	if err == nil && meta != nil {
		if parsed, ok := projecttype.Parse(meta.ProjectType); ok {
			t = parsed
		}
	}

	cls := projecttype.NewClassifier(t, projecttype.Overrides{
		ExcludeDirs:       cfg.ExcludeDirs,
		ExcludeExtensions: cfg.ExcludeExtensions,
		ExcludeFilenames:  cfg.ExcludeFilenames,
		IncludePatterns:   cfg.IncludePatterns,
	})

	extractor := gitlog.NewExtractor(cfg.Author,
		time.Duration(cfg.GitTimeoutSeconds)*time.Second, logger)
	files, err := extractor.TrackedFiles(newContext(), repo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing tracked files: %v\n", err)
		os.Exit(1)
	}

	included := 0
	byRule := make(map[string]int)   // "reason: match" -> count
	byRuleFiles := make(map[string][]string)
	for _, f := range files {
		d := cls.Classify(f)
		if d.Included {
			included++
			continue
		}
		key := string(d.Reason)
		if d.Match != "" {
			key = fmt.Sprintf("%s: %s", d.Reason, d.Match)
		}
		byRule[key]++
		if exclusionsVerbose {
			byRuleFiles[key] = append(byRuleFiles[key], f)
		}
	}

	headline.Printf("%s (%s)\n", repo, t)
	fmt.Printf("tracked: %d   included: %d   excluded: %d\n",
		len(files), included, len(files)-included)

	rules := make([]string, 0, len(byRule))
	for rule := range byRule {
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(a, b int) bool {
		if byRule[rules[a]] != byRule[rules[b]] {
			return byRule[rules[a]] > byRule[rules[b]]
		}
		return rules[a] < rules[b]
	})
	for _, rule := range rules {
		fmt.Printf("  %5d  %s\n", byRule[rule], rule)
		if exclusionsVerbose {
			for _, f := range byRuleFiles[rule] {
				fmt.Printf("         %s\n", f)
			}
		}
	}
}
