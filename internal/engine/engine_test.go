package engine

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"quantify/internal/gitlog"
	"quantify/internal/logging"
	"quantify/internal/projecttype"
	"quantify/internal/storage"
)

// fakeSource implements StatsSource with canned data and call accounting.
type fakeSource struct {
	mu sync.Mutex

	stats  map[string]gitlog.Stats            // repo -> range stats
	daily  map[string]map[string]gitlog.Stats // repo -> date -> stats
	first  map[string]time.Time
	failed map[string]bool
	delays map[string]time.Duration // artificial per-repo latency

	statsCalls int
	dailyCalls int
	lastTypes  map[string]projecttype.Type
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		stats:     make(map[string]gitlog.Stats),
		daily:     make(map[string]map[string]gitlog.Stats),
		first:     make(map[string]time.Time),
		failed:    make(map[string]bool),
		delays:    make(map[string]time.Duration),
		lastTypes: make(map[string]projecttype.Type),
	}
}

func (f *fakeSource) Stats(_ context.Context, repoPath string, _ *time.Time, _ time.Time, cls *projecttype.Classifier) gitlog.Stats {
	f.mu.Lock()
	d := f.delays[repoPath]
	f.mu.Unlock()
	if d > 0 {
		time.Sleep(d)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.statsCalls++
	f.lastTypes[repoPath] = cls.ProjectType()
	return f.stats[repoPath]
}

func (f *fakeSource) DailyStats(_ context.Context, repoPath string, day time.Time, cls *projecttype.Classifier) gitlog.Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dailyCalls++
	f.lastTypes[repoPath] = cls.ProjectType()
	return f.daily[repoPath][day.Format(gitlog.DateFormat)]
}

func (f *fakeSource) FirstCommitDate(_ context.Context, repoPath string) (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.first[repoPath]
	return t, ok
}

func (f *fakeSource) HasFailed(repoPath string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failed[repoPath]
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func openTestStore(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "cache.db"), logging.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestEngine(repos []string, src StatsSource, store *storage.DB, today time.Time) *Engine {
	e := New(repos, src, store, projecttype.Overrides{}, 4, logging.NewNop())
	e.now = func() time.Time { return today }
	return e
}

func TestSum(t *testing.T) {
	src := newFakeSource()
	src.stats["/r/a"] = gitlog.Stats{Added: 100, Removed: 40, Commits: 3}
	src.stats["/r/b"] = gitlog.Stats{Added: 10, Removed: 5, Commits: 1}
	eng := newTestEngine([]string{"/r/a", "/r/b"}, src, nil, date(2026, 8, 26))

	tests := []struct {
		stat Stat
		want int
	}{
		{StatAdded, 110},
		{StatRemoved, 45},
		{StatNet, 65},
		{StatCommits, 4},
	}
	for _, tt := range tests {
		t.Run(string(tt.stat), func(t *testing.T) {
			got, err := eng.Sum(context.Background(), nil, date(2026, 8, 26), tt.stat, nil)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Sum(%s) = %d, want %d", tt.stat, got, tt.want)
			}
		})
	}
}

func TestParseStat(t *testing.T) {
	if _, ok := ParseStat("net"); !ok {
		t.Error("net should parse")
	}
	if _, ok := ParseStat("velocity"); ok {
		t.Error("unknown stat should not parse")
	}
}

func TestCollect(t *testing.T) {
	t.Run("preserves discovery order", func(t *testing.T) {
		src := newFakeSource()
		repos := []string{"/r/c", "/r/a", "/r/b"}
		for _, r := range repos {
			src.stats[r] = gitlog.Stats{Commits: 1}
		}
		eng := newTestEngine(repos, src, nil, date(2026, 8, 26))

		results, err := eng.Collect(context.Background(), nil, date(2026, 8, 26), nil)
		if err != nil {
			t.Fatal(err)
		}
		for i, r := range results {
			if r.RepoPath != repos[i] {
				t.Errorf("result %d = %s, want %s", i, r.RepoPath, repos[i])
			}
		}
	})

	t.Run("reports progress once per repo", func(t *testing.T) {
		src := newFakeSource()
		repos := []string{"/r/a", "/r/b", "/r/c"}
		eng := newTestEngine(repos, src, nil, date(2026, 8, 26))

		var calls []int
		progress := func(done, total int, _ string) {
			if total != 3 {
				t.Errorf("total = %d, want 3", total)
			}
			calls = append(calls, done)
		}
		if _, err := eng.Collect(context.Background(), nil, date(2026, 8, 26), progress); err != nil {
			t.Fatal(err)
		}
		if len(calls) != 3 {
			t.Fatalf("progress called %d times, want 3", len(calls))
		}
		for i, done := range calls {
			if done != i+1 {
				t.Errorf("call %d reported done=%d", i, done)
			}
		}
	})
}

func TestSumStableAcrossCompletionOrders(t *testing.T) {
	// Randomized per-repo latency permutes the order workers finish in;
	// the total and the per-slot results must not depend on it.
	src := newFakeSource()
	repos := make([]string, 12)
	want := 0
	for i := range repos {
		repos[i] = fmt.Sprintf("/r/%02d", i)
		src.stats[repos[i]] = gitlog.Stats{Added: (i + 1) * 10, Removed: i, Commits: i + 1}
		want += (i+1)*10 - i
	}
	eng := newTestEngine(repos, src, nil, date(2026, 8, 26))

	for run := 0; run < 5; run++ {
		src.mu.Lock()
		for _, r := range repos {
			src.delays[r] = time.Duration(rand.Intn(4)) * time.Millisecond
		}
		src.mu.Unlock()

		got, err := eng.Sum(context.Background(), nil, date(2026, 8, 26), StatNet, nil)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("run %d: Sum = %d, want %d", run, got, want)
		}

		results, err := eng.Collect(context.Background(), nil, date(2026, 8, 26), nil)
		if err != nil {
			t.Fatal(err)
		}
		for i, r := range results {
			if r.RepoPath != repos[i] {
				t.Errorf("run %d: slot %d holds %s, want %s", run, i, r.RepoPath, repos[i])
			}
			if r.Stats != src.stats[repos[i]] {
				t.Errorf("run %d: slot %d stats %+v", run, i, r.Stats)
			}
		}
	}
}

func TestCollectCaching(t *testing.T) {
	today := date(2026, 8, 26)
	start := date(2026, 8, 23)
	end := date(2026, 8, 25)

	t.Run("bounded range fills cache then reuses it", func(t *testing.T) {
		src := newFakeSource()
		src.daily["/r/a"] = map[string]gitlog.Stats{
			"2026-08-23": {Added: 10, Removed: 2, Commits: 1},
			"2026-08-25": {Added: 5, Removed: 1, Commits: 2},
		}
		store := openTestStore(t)
		eng := newTestEngine([]string{"/r/a"}, src, store, today)

		results, err := eng.Collect(context.Background(), &start, end, nil)
		if err != nil {
			t.Fatal(err)
		}
		want := gitlog.Stats{Added: 15, Removed: 3, Commits: 3}
		if results[0].Stats != want {
			t.Errorf("first run stats = %+v, want %+v", results[0].Stats, want)
		}
		if src.dailyCalls != 3 {
			t.Errorf("first run daily calls = %d, want 3", src.dailyCalls)
		}

		// Second run over the same past range is served from the cache.
		src.dailyCalls = 0
		results, err = eng.Collect(context.Background(), &start, end, nil)
		if err != nil {
			t.Fatal(err)
		}
		if results[0].Stats != want {
			t.Errorf("second run stats = %+v, want %+v", results[0].Stats, want)
		}
		if src.dailyCalls != 0 {
			t.Errorf("second run daily calls = %d, want 0", src.dailyCalls)
		}
	})

	t.Run("today is queried every run", func(t *testing.T) {
		src := newFakeSource()
		store := openTestStore(t)
		eng := newTestEngine([]string{"/r/a"}, src, store, today)

		for run := 0; run < 2; run++ {
			src.dailyCalls = 0
			if _, err := eng.Collect(context.Background(), &today, today, nil); err != nil {
				t.Fatal(err)
			}
			if src.dailyCalls != 1 {
				t.Errorf("run %d daily calls = %d, want 1", run, src.dailyCalls)
			}
		}
	})

	t.Run("unbounded range bypasses cache", func(t *testing.T) {
		src := newFakeSource()
		src.stats["/r/a"] = gitlog.Stats{Added: 7, Commits: 1}
		store := openTestStore(t)
		eng := newTestEngine([]string{"/r/a"}, src, store, today)

		results, err := eng.Collect(context.Background(), nil, today, nil)
		if err != nil {
			t.Fatal(err)
		}
		if results[0].Stats.Added != 7 {
			t.Errorf("stats = %+v", results[0].Stats)
		}
		if src.statsCalls != 1 || src.dailyCalls != 0 {
			t.Errorf("calls = %d range / %d daily, want 1/0", src.statsCalls, src.dailyCalls)
		}
		n, err := store.EntryCount()
		if err != nil {
			t.Fatal(err)
		}
		if n != 0 {
			t.Errorf("unbounded run wrote %d cache rows", n)
		}
	})

	t.Run("failed repo is not cached", func(t *testing.T) {
		src := newFakeSource()
		src.failed["/r/bad"] = true
		store := openTestStore(t)
		eng := newTestEngine([]string{"/r/bad"}, src, store, today)

		if _, err := eng.Collect(context.Background(), &start, end, nil); err != nil {
			t.Fatal(err)
		}
		n, err := store.EntryCount()
		if err != nil {
			t.Fatal(err)
		}
		if n != 0 {
			t.Errorf("failed repo wrote %d cache rows", n)
		}
	})
}

func TestClassifierResolution(t *testing.T) {
	src := newFakeSource()
	store := openTestStore(t)
	repo := "/r/game"
	if err := store.SetProjectType(repo, "unity", storage.TypeSourceUser); err != nil {
		t.Fatal(err)
	}
	eng := newTestEngine([]string{repo}, src, store, date(2026, 8, 26))

	if _, err := eng.Collect(context.Background(), nil, date(2026, 8, 26), nil); err != nil {
		t.Fatal(err)
	}
	if got := src.lastTypes[repo]; got != projecttype.Unity {
		t.Errorf("classifier type = %s, want unity", got)
	}
}

func TestProjectsCreated(t *testing.T) {
	src := newFakeSource()
	src.first["/r/old"] = date(2024, 1, 15)
	src.first["/r/mid"] = date(2026, 3, 2)
	src.first["/r/new"] = date(2026, 8, 1)
	eng := newTestEngine([]string{"/r/new", "/r/old", "/r/mid", "/r/empty"}, src, nil, date(2026, 8, 26))

	start := date(2026, 1, 1)
	created, err := eng.ProjectsCreated(context.Background(), &start, date(2026, 8, 26))
	if err != nil {
		t.Fatal(err)
	}
	if len(created) != 2 {
		t.Fatalf("created = %d projects, want 2", len(created))
	}
	if created[0].RepoPath != "/r/mid" || created[1].RepoPath != "/r/new" {
		t.Errorf("unexpected order: %+v", created)
	}

	n, err := eng.CountCreated(context.Background(), nil, date(2026, 8, 26))
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("CountCreated = %d, want 3", n)
	}
}

func TestTopRepos(t *testing.T) {
	src := newFakeSource()
	src.stats["/r/a"] = gitlog.Stats{Added: 50, Removed: 10, Commits: 2}  // net 40
	src.stats["/r/b"] = gitlog.Stats{Added: 200, Removed: 20, Commits: 5} // net 180
	src.stats["/r/c"] = gitlog.Stats{}                                    // net 0
	src.stats["/r/d"] = gitlog.Stats{Added: 40, Commits: 1}               // net 40, ties with a
	eng := newTestEngine([]string{"/r/a", "/r/b", "/r/c", "/r/d"}, src, nil, date(2026, 8, 26))

	t.Run("orders by net descending with stable ties", func(t *testing.T) {
		top, err := eng.TopRepos(context.Background(), nil, date(2026, 8, 26), 0, nil)
		if err != nil {
			t.Fatal(err)
		}
		wantOrder := []string{"/r/b", "/r/a", "/r/d", "/r/c"}
		if len(top) != len(wantOrder) {
			t.Fatalf("got %d results, want %d", len(top), len(wantOrder))
		}
		for i, want := range wantOrder {
			if top[i].RepoPath != want {
				t.Errorf("rank %d = %s, want %s", i, top[i].RepoPath, want)
			}
		}
	})

	t.Run("truncates to n", func(t *testing.T) {
		top, err := eng.TopRepos(context.Background(), nil, date(2026, 8, 26), 2, nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(top) != 2 {
			t.Fatalf("got %d results, want 2", len(top))
		}
		if top[0].RepoPath != "/r/b" {
			t.Errorf("rank 0 = %s", top[0].RepoPath)
		}
	})
}

func TestCommitsByRepo(t *testing.T) {
	src := newFakeSource()
	src.stats["/r/a"] = gitlog.Stats{Commits: 2}
	src.stats["/r/b"] = gitlog.Stats{Commits: 9}
	src.stats["/r/quiet"] = gitlog.Stats{}
	eng := newTestEngine([]string{"/r/a", "/r/b", "/r/quiet"}, src, nil, date(2026, 8, 26))

	ranked, err := eng.CommitsByRepo(context.Background(), nil, date(2026, 8, 26), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(ranked) != 2 {
		t.Fatalf("got %d results, want 2", len(ranked))
	}
	if ranked[0].RepoPath != "/r/b" || ranked[1].RepoPath != "/r/a" {
		t.Errorf("unexpected order: %+v", ranked)
	}
}
