package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"quantify/internal/discovery"
	"quantify/internal/logging"
	"quantify/internal/paths"
	"quantify/internal/projecttype"
	"quantify/internal/storage"
)

var reposCmd = &cobra.Command{
	Use:   "repos",
	Short: "Inspect and manage discovered repositories",
}

var reposListCmd = &cobra.Command{
	Use:   "list",
	Short: "List discovered repositories and their project types",
	Run:   runReposList,
}

var reposSetTypeCmd = &cobra.Command{
	Use:   "set-type <repo-path> <type>",
	Short: "Pin a repository's project type",
	Long: `Pin a repository to a project type, overriding filesystem detection.
Changing the type invalidates that repository's cached daily stats, since
the exclusion rules that produced them no longer apply.`,
	Args: cobra.ExactArgs(2),
	Run:  runReposSetType,
}

var reposClearTypeCmd = &cobra.Command{
	Use:   "clear-type <repo-path>",
	Short: "Remove a pinned project type, returning to detection",
	Long: `Remove a pinned project type so the repository is classified by
filesystem detection again. Like pinning, this changes the active exclusion
rules, so the repository's cached daily stats are invalidated.`,
	Args: cobra.ExactArgs(1),
	Run:  runReposClearType,
}

var reposDetectCmd = &cobra.Command{
	Use:   "detect <repo-path>",
	Short: "Show what project type detection yields for a repository",
	Args:  cobra.ExactArgs(1),
	Run:   runReposDetect,
}

func init() {
	reposCmd.AddCommand(reposListCmd)
	reposCmd.AddCommand(reposSetTypeCmd)
	reposCmd.AddCommand(reposClearTypeCmd)
	reposCmd.AddCommand(reposDetectCmd)
	rootCmd.AddCommand(reposCmd)
}

// mustOpenStore opens the cache database or exits. Type management always
// needs the store, independent of --no-cache. The logger comes from the
// caller's already-loaded config so the config file is read exactly once.
func mustOpenStore(logger *logging.Logger) *storage.DB {
	dbPath, err := paths.CacheDBPath()
	if err == nil {
		var store *storage.DB
		store, err = storage.Open(dbPath, logger)
		if err == nil {
			return store
		}
	}
	fmt.Fprintf(os.Stderr, "Error opening cache database: %v\n", err)
	os.Exit(1)
	return nil
}

func normalizeRepoArg(arg string) string {
	abs, err := filepath.Abs(arg)
	if err != nil {
		return arg
	}
	return abs
}

func runReposList(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newLoggerFromConfig(cfg)
	repos := discovery.NewScanner(cfg.RootPaths, logger).Find()

	store := mustOpenStore(logger)
	defer store.Close()

	pinned := make(map[string]string)
	metas, err := store.AllProjectTypes()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	for _, m := range metas {
		pinned[m.RepoPath] = m.ProjectType
	}

	headline.Printf("%d repositories\n", len(repos))
	for _, repo := range repos {
		if t, ok := pinned[repo]; ok {
			fmt.Printf("  %-60s %s (pinned)\n", repo, t)
			continue
		}
		fmt.Printf("  %-60s %s\n", repo, projecttype.Detect(repo))
	}
}

func runReposSetType(cmd *cobra.Command, args []string) {
	repo := normalizeRepoArg(args[0])
	t, ok := projecttype.Parse(args[1])
	if !ok {
		names := make([]string, len(projecttype.All))
		for i, pt := range projecttype.All {
			names[i] = string(pt)
		}
		fmt.Fprintf(os.Stderr, "Error: unknown project type %q (want one of %s)\n",
			args[1], strings.Join(names, ", "))
		os.Exit(1)
	}

	store := mustOpenStore(newLoggerFromConfig(mustLoadConfig()))
	defer store.Close()

	if err := store.SetProjectType(repo, string(t), storage.TypeSourceUser); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s pinned to %s; cached stats for it were invalidated\n", repo, t)
}

func runReposClearType(cmd *cobra.Command, args []string) {
	repo := normalizeRepoArg(args[0])

	store := mustOpenStore(newLoggerFromConfig(mustLoadConfig()))
	defer store.Close()

	if err := store.DeleteProjectType(repo); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s now uses detection (%s); cached stats for it were invalidated\n",
		repo, projecttype.Detect(repo))
}

func runReposDetect(cmd *cobra.Command, args []string) {
	repo := normalizeRepoArg(args[0])
	fmt.Println(projecttype.Detect(repo))
}
