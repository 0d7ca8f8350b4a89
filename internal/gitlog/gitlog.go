// Package gitlog extracts per-day line statistics from repositories by
// invoking git's log facility and parsing its numstat output. It never
// walks commit graphs or diffs itself; git does all version-control work.
package gitlog

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"
	"time"

	"quantify/internal/logging"
	"quantify/internal/projecttype"
	"quantify/internal/qerrors"
)

// DateFormat is the day-granular format used for git bounds and cache keys
const DateFormat = "2006-01-02"

// DefaultTimeout bounds a single git invocation
const DefaultTimeout = 60 * time.Second

// commitMarker delimits commit blocks in log output
const commitMarker = "---COMMIT---"

// Stats holds line statistics for one repository over one day or range.
// Added and Removed are never negative; Net may be.
type Stats struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
	Commits int `json:"commits"`
}

// Net returns added minus removed lines
func (s Stats) Net() int {
	return s.Added - s.Removed
}

// Add accumulates another Stats value
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Added:   s.Added + o.Added,
		Removed: s.Removed + o.Removed,
		Commits: s.Commits + o.Commits,
	}
}

// runFunc executes git in a directory and returns stdout. Injectable so
// tests can supply canned output without a git binary.
type runFunc func(ctx context.Context, dir string, args ...string) (string, error)

// Extractor invokes git log for single repositories and parses the output.
//
// Repositories whose invocation fails irrecoverably are remembered for the
// lifetime of the extractor and contribute zero stats afterwards without
// re-invoking git. First-commit dates are cached in-process per repository.
// Safe for concurrent use.
type Extractor struct {
	author  string
	timeout time.Duration
	logger  *logging.Logger
	run     runFunc

	mu          sync.Mutex
	failed      map[string]struct{}
	firstCommit map[string]firstCommitEntry
}

type firstCommitEntry struct {
	date time.Time
	ok   bool
}

// NewExtractor creates an extractor scoped to one author
func NewExtractor(author string, timeout time.Duration, logger *logging.Logger) *Extractor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	e := &Extractor{
		author:      author,
		timeout:     timeout,
		logger:      logger,
		failed:      make(map[string]struct{}),
		firstCommit: make(map[string]firstCommitEntry),
	}
	e.run = e.execGit
	return e
}

// Stats returns line statistics for a repository between start and end,
// both inclusive at day granularity. A nil start means all history. Files
// are filtered through the classifier before counting.
//
// Invocation failures are absorbed: the repository is recorded as failed,
// a warning is logged, and zero stats are returned. Subsequent calls for a
// failed repository short-circuit without invoking git.
func (e *Extractor) Stats(ctx context.Context, repoPath string, start *time.Time, end time.Time, cls *projecttype.Classifier) Stats {
	if e.hasFailed(repoPath) {
		return Stats{}
	}

	args := []string{
		"log",
		"--author=" + e.author,
		"--pretty=tformat:" + commitMarker,
		"--numstat",
	}
	if start != nil {
		args = append(args, "--since="+start.Format(DateFormat)+" 00:00:00")
	}
	args = append(args, "--until="+end.Format(DateFormat)+" 23:59:59")

	output, err := e.run(ctx, repoPath, args...)
	if err != nil {
		e.recordFailure(repoPath, err)
		return Stats{}
	}

	return parseNumstat(output, cls)
}

// DailyStats returns statistics for a single day
func (e *Extractor) DailyStats(ctx context.Context, repoPath string, day time.Time, cls *projecttype.Classifier) Stats {
	start := day
	return e.Stats(ctx, repoPath, &start, day, cls)
}

// FirstCommitDate returns the date of the earliest commit by the author,
// or ok=false when the repository has none. Results are cached in-process
// for the lifetime of the extractor.
func (e *Extractor) FirstCommitDate(ctx context.Context, repoPath string) (time.Time, bool) {
	e.mu.Lock()
	if entry, cached := e.firstCommit[repoPath]; cached {
		e.mu.Unlock()
		return entry.date, entry.ok
	}
	if _, bad := e.failed[repoPath]; bad {
		e.mu.Unlock()
		return time.Time{}, false
	}
	e.mu.Unlock()

	// Cheaper than a full numstat run: one reverse-ordered commit with a
	// short date format.
	output, err := e.run(ctx, repoPath,
		"log",
		"--author="+e.author,
		"--reverse",
		"--format=%ad",
		"--date=short",
		"-1",
	)

	entry := firstCommitEntry{}
	if err != nil {
		e.recordFailure(repoPath, err)
	} else if line := firstLine(output); line != "" {
		if d, perr := time.Parse(DateFormat, line); perr == nil {
			entry = firstCommitEntry{date: d, ok: true}
		}
	}

	e.mu.Lock()
	e.firstCommit[repoPath] = entry
	e.mu.Unlock()
	return entry.date, entry.ok
}

// TrackedFiles lists all files tracked by the repository, for exclusion
// analysis.
func (e *Extractor) TrackedFiles(ctx context.Context, repoPath string) ([]string, error) {
	output, err := e.run(ctx, repoPath, "ls-files")
	if err != nil {
		return nil, err
	}

	var files []string
	for _, line := range strings.Split(output, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

// HasFailed reports whether the repository is in the failed set
func (e *Extractor) HasFailed(repoPath string) bool {
	return e.hasFailed(repoPath)
}

func (e *Extractor) hasFailed(repoPath string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.failed[repoPath]
	return ok
}

func (e *Extractor) recordFailure(repoPath string, err error) {
	// A missing git binary is an environment problem, not a property of
	// the repository; don't poison the failed set with it.
	if errors.Is(err, exec.ErrNotFound) {
		e.logger.Warn("git is not installed or not in PATH", nil)
		return
	}

	e.mu.Lock()
	e.failed[repoPath] = struct{}{}
	e.mu.Unlock()

	e.logger.Warn("git invocation failed, repository skipped for this run", map[string]interface{}{
		"repo":  repoPath,
		"error": err.Error(),
	})
}

// execGit runs a git command with a timeout and returns trimmed stdout
func (e *Extractor) execGit(ctx context.Context, dir string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	e.logger.Debug("executing git command", map[string]interface{}{
		"dir":  dir,
		"args": strings.Join(args, " "),
	})

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", qerrors.New(qerrors.Timeout, "git command timed out", err).
				WithDetails(map[string]interface{}{"dir": dir})
		}
		if errors.Is(err, exec.ErrNotFound) {
			return "", err
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", qerrors.New(qerrors.RepoUnreadable, "git command failed", err).
				WithDetails(map[string]interface{}{
					"dir":    dir,
					"stderr": strings.TrimSpace(string(exitErr.Stderr)),
				})
		}
		return "", qerrors.New(qerrors.InternalError, "failed to execute git", err)
	}

	return strings.TrimSpace(string(output)), nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
