// Package engine aggregates per-repository git activity into the metrics
// the CLI reports: line totals, commit counts, project creation counts,
// and rankings. It fans work out across repositories with a bounded
// worker pool and consults the daily-stats cache for bounded date ranges.
package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"quantify/internal/gitlog"
	"quantify/internal/logging"
	"quantify/internal/projecttype"
	"quantify/internal/storage"
)

// Stat selects which component of a Stats total an aggregation reports.
type Stat string

const (
	StatAdded   Stat = "added"
	StatRemoved Stat = "removed"
	StatNet     Stat = "net"
	StatCommits Stat = "commits"
)

// ParseStat recognizes a stat selector by name.
func ParseStat(s string) (Stat, bool) {
	switch Stat(s) {
	case StatAdded, StatRemoved, StatNet, StatCommits:
		return Stat(s), true
	}
	return "", false
}

// Of extracts the selected component from a stats total.
func (s Stat) Of(st gitlog.Stats) int {
	switch s {
	case StatAdded:
		return st.Added
	case StatRemoved:
		return st.Removed
	case StatCommits:
		return st.Commits
	default:
		return st.Net()
	}
}

// StatsSource is the slice of the git log extractor the engine needs.
type StatsSource interface {
	Stats(ctx context.Context, repoPath string, start *time.Time, end time.Time, cls *projecttype.Classifier) gitlog.Stats
	DailyStats(ctx context.Context, repoPath string, day time.Time, cls *projecttype.Classifier) gitlog.Stats
	FirstCommitDate(ctx context.Context, repoPath string) (time.Time, bool)
	HasFailed(repoPath string) bool
}

// ProgressFunc is invoked once per finished repository, from a single
// goroutine. done counts finished repositories out of total.
type ProgressFunc func(done, total int, repoPath string)

// RepoResult pairs a repository with its stats for one date range.
type RepoResult struct {
	RepoPath string
	Stats    gitlog.Stats
}

// CreatedProject records a repository and the date of its first commit.
type CreatedProject struct {
	RepoPath    string
	FirstCommit time.Time
}

// Engine computes activity metrics over a fixed set of repositories.
// The repository order is preserved from discovery and breaks ties in
// rankings.
type Engine struct {
	repos     []string
	source    StatsSource
	store     *storage.DB
	overrides projecttype.Overrides
	workers   int
	logger    *logging.Logger
	now       func() time.Time

	mu          sync.Mutex
	classifiers map[string]*projecttype.Classifier
}

// New creates an engine. store may be nil, in which case every query goes
// straight to git with no caching.
func New(repos []string, source StatsSource, store *storage.DB, ov projecttype.Overrides, workers int, logger *logging.Logger) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		repos:       repos,
		source:      source,
		store:       store,
		overrides:   ov,
		workers:     workers,
		logger:      logger,
		now:         time.Now,
		classifiers: make(map[string]*projecttype.Classifier),
	}
}

// Repos returns the repositories the engine operates on, in discovery order.
func (e *Engine) Repos() []string {
	return e.repos
}

// classifierFor resolves the classifier for a repository: a user-assigned
// project type from the metadata store wins over filesystem detection.
// Resolutions are cached for the lifetime of the engine.
func (e *Engine) classifierFor(repoPath string) *projecttype.Classifier {
	e.mu.Lock()
	if cls, ok := e.classifiers[repoPath]; ok {
		e.mu.Unlock()
		return cls
	}
	e.mu.Unlock()

	t := projecttype.Type("")
	if e.store != nil {
		meta, err := e.store.GetProjectType(repoPath)
		if err != nil {
			e.logger.Warn("project type lookup failed", map[string]interface{}{
				"repo":  repoPath,
				"error": err.Error(),
			})
		} else if meta != nil {
			if parsed, ok := projecttype.Parse(meta.ProjectType); ok {
				t = parsed
			}
		}
	}
	if t == "" {
		t = projecttype.Detect(repoPath)
	}
	cls := projecttype.NewClassifier(t, e.overrides)

	e.mu.Lock()
	e.classifiers[repoPath] = cls
	e.mu.Unlock()
	return cls
}

// today returns the current date truncated to midnight local time.
func (e *Engine) today() time.Time {
	n := e.now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, n.Location())
}

// repoStats computes the stats for one repository over [start, end]. With
// a lower bound and a cache available, completed days are served from the
// cache and only missing days hit git; fresh days (except today) are
// written back. An unbounded query always goes straight to git.
func (e *Engine) repoStats(ctx context.Context, repoPath string, start *time.Time, end time.Time) gitlog.Stats {
	cls := e.classifierFor(repoPath)

	if start == nil || e.store == nil {
		return e.source.Stats(ctx, repoPath, start, end, cls)
	}

	today := e.today()
	cached, err := e.store.CachedSum(repoPath, *start, end, today)
	if err != nil {
		e.logger.Warn("cache read failed, querying git directly", map[string]interface{}{
			"repo":  repoPath,
			"error": err.Error(),
		})
		return e.source.Stats(ctx, repoPath, start, end, cls)
	}
	missing, err := e.store.MissingDates(repoPath, *start, end, today)
	if err != nil {
		e.logger.Warn("cache read failed, querying git directly", map[string]interface{}{
			"repo":  repoPath,
			"error": err.Error(),
		})
		return e.source.Stats(ctx, repoPath, start, end, cls)
	}

	total := cached
	fresh := make(map[time.Time]gitlog.Stats, len(missing))
	for _, day := range missing {
		s := e.source.DailyStats(ctx, repoPath, day, cls)
		fresh[day] = s
		total = total.Add(s)
	}

	// A failed repository yields zeros that must not be mistaken for
	// genuine quiet days on later runs.
	if len(fresh) > 0 && !e.source.HasFailed(repoPath) {
		if err := e.store.SaveDailyStats(repoPath, fresh, today); err != nil {
			e.logger.Warn("cache write failed", map[string]interface{}{
				"repo":  repoPath,
				"error": err.Error(),
			})
		}
	}
	return total
}

// Collect computes per-repository stats for [start, end] across all
// repositories, at most workers at a time. A nil start means "since the
// beginning". Results come back in discovery order. Repositories that
// fail contribute zero stats rather than an error.
func (e *Engine) Collect(ctx context.Context, start *time.Time, end time.Time, progress ProgressFunc) ([]RepoResult, error) {
	runID := uuid.NewString()
	e.logger.Debug("collection started", map[string]interface{}{
		"run":     runID,
		"repos":   len(e.repos),
		"workers": e.workers,
	})

	results := make([]RepoResult, len(e.repos))
	progressCh := make(chan string, len(e.repos))

	var progressWG sync.WaitGroup
	progressWG.Add(1)
	go func() {
		defer progressWG.Done()
		done := 0
		for repo := range progressCh {
			done++
			if progress != nil {
				progress(done, len(e.repos), repo)
			}
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, repo := range e.repos {
		i, repo := i, repo
		g.Go(func() error {
			results[i] = RepoResult{RepoPath: repo, Stats: e.repoStats(ctx, repo, start, end)}
			progressCh <- repo
			return nil
		})
	}
	err := g.Wait()
	close(progressCh)
	progressWG.Wait()

	e.logger.Debug("collection finished", map[string]interface{}{"run": runID})
	return results, err
}

// Sum totals one stat over [start, end] across all repositories.
func (e *Engine) Sum(ctx context.Context, start *time.Time, end time.Time, stat Stat, progress ProgressFunc) (int, error) {
	results, err := e.Collect(ctx, start, end, progress)
	if err != nil {
		return 0, err
	}
	var total gitlog.Stats
	for _, r := range results {
		total = total.Add(r.Stats)
	}
	return stat.Of(total), nil
}

// Totals returns the combined stats over [start, end] across all
// repositories.
func (e *Engine) Totals(ctx context.Context, start *time.Time, end time.Time, progress ProgressFunc) (gitlog.Stats, error) {
	results, err := e.Collect(ctx, start, end, progress)
	if err != nil {
		return gitlog.Stats{}, err
	}
	var total gitlog.Stats
	for _, r := range results {
		total = total.Add(r.Stats)
	}
	return total, nil
}

// ProjectsCreated lists the repositories whose first commit falls within
// [start, end], sorted by first-commit date ascending. A nil start means
// no lower bound. Repositories with no commits or unreadable history are
// skipped.
func (e *Engine) ProjectsCreated(ctx context.Context, start *time.Time, end time.Time) ([]CreatedProject, error) {
	found := make([]*CreatedProject, len(e.repos))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, repo := range e.repos {
		i, repo := i, repo
		g.Go(func() error {
			first, ok := e.source.FirstCommitDate(ctx, repo)
			if !ok {
				return nil
			}
			if start != nil && first.Before(*start) {
				return nil
			}
			if first.After(end) {
				return nil
			}
			found[i] = &CreatedProject{RepoPath: repo, FirstCommit: first}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var created []CreatedProject
	for _, c := range found {
		if c != nil {
			created = append(created, *c)
		}
	}
	sort.SliceStable(created, func(a, b int) bool {
		return created[a].FirstCommit.Before(created[b].FirstCommit)
	})
	return created, nil
}

// CountCreated counts the repositories whose first commit falls within
// [start, end].
func (e *Engine) CountCreated(ctx context.Context, start *time.Time, end time.Time) (int, error) {
	created, err := e.ProjectsCreated(ctx, start, end)
	if err != nil {
		return 0, err
	}
	return len(created), nil
}

// TopRepos ranks repositories by net line change over [start, end],
// descending, discovery order breaking ties. Zero-activity repositories
// are included. n <= 0 returns the full ranking.
func (e *Engine) TopRepos(ctx context.Context, start *time.Time, end time.Time, n int, progress ProgressFunc) ([]RepoResult, error) {
	results, err := e.Collect(ctx, start, end, progress)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Stats.Net() > results[b].Stats.Net()
	})
	if n > 0 && n < len(results) {
		results = results[:n]
	}
	return results, nil
}

// CommitsByRepo ranks repositories by commit count over [start, end],
// descending, discovery order breaking ties. Repositories with no commits
// in the range are omitted.
func (e *Engine) CommitsByRepo(ctx context.Context, start *time.Time, end time.Time, progress ProgressFunc) ([]RepoResult, error) {
	results, err := e.Collect(ctx, start, end, progress)
	if err != nil {
		return nil, err
	}
	active := results[:0]
	for _, r := range results {
		if r.Stats.Commits > 0 {
			active = append(active, r)
		}
	}
	sort.SliceStable(active, func(a, b int) bool {
		return active[a].Stats.Commits > active[b].Stats.Commits
	})
	return active, nil
}
