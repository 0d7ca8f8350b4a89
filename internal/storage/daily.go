package storage

import (
	"database/sql"
	"fmt"
	"time"

	"quantify/internal/gitlog"
)

// dateKey formats a day for storage; all dates are stored as ISO-8601 text
func dateKey(d time.Time) string {
	return d.Format(gitlog.DateFormat)
}

// CachedSum returns the sum of all cached daily entries for the repository
// in [start, end]. The effective end is capped at the day before today,
// since today is never persisted.
func (db *DB) CachedSum(repoPath string, start, end, today time.Time) (gitlog.Stats, error) {
	effectiveEnd := end
	yesterday := today.AddDate(0, 0, -1)
	if effectiveEnd.After(yesterday) {
		effectiveEnd = yesterday
	}
	if effectiveEnd.Before(start) {
		return gitlog.Stats{}, nil
	}

	var s gitlog.Stats
	err := db.QueryRow(`
		SELECT COALESCE(SUM(added), 0),
		       COALESCE(SUM(removed), 0),
		       COALESCE(SUM(commits), 0)
		FROM daily_stats
		WHERE repo_path = ? AND date >= ? AND date <= ?
	`, repoPath, dateKey(start), dateKey(effectiveEnd)).Scan(&s.Added, &s.Removed, &s.Commits)
	if err != nil {
		return gitlog.Stats{}, fmt.Errorf("cached sum lookup failed: %w", err)
	}
	return s, nil
}

// CachedDates returns the set of days already cached for the repository in
// [start, end], keyed by the ISO date string.
func (db *DB) CachedDates(repoPath string, start, end time.Time) (map[string]struct{}, error) {
	rows, err := db.Query(`
		SELECT date FROM daily_stats
		WHERE repo_path = ? AND date >= ? AND date <= ?
	`, repoPath, dateKey(start), dateKey(end))
	if err != nil {
		return nil, fmt.Errorf("cached dates lookup failed: %w", err)
	}
	defer rows.Close()

	dates := make(map[string]struct{})
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates[d] = struct{}{}
	}
	return dates, rows.Err()
}

// MissingDates returns the days in [start, end] that must be recomputed:
// days with no cached entry, plus today (which is never served from cache).
// Days after today are excluded. The result is in ascending order.
func (db *DB) MissingDates(repoPath string, start, end, today time.Time) ([]time.Time, error) {
	effectiveEnd := end
	if effectiveEnd.After(today) {
		effectiveEnd = today
	}
	if effectiveEnd.Before(start) {
		return nil, nil
	}

	cached, err := db.CachedDates(repoPath, start, effectiveEnd)
	if err != nil {
		return nil, err
	}
	// Today is always recomputed, even if a stale row exists.
	delete(cached, dateKey(today))

	var missing []time.Time
	for d := start; !d.After(effectiveEnd); d = d.AddDate(0, 0, 1) {
		if _, ok := cached[dateKey(d)]; !ok {
			missing = append(missing, d)
		}
	}
	return missing, nil
}

// SaveDailyStats writes a batch of per-day entries in one transaction.
// Entries for today or later are dropped: commits may still land before
// day-end, so today is never persisted. Zero-valued days are written like
// any other, so empty periods are not re-queried.
func (db *DB) SaveDailyStats(repoPath string, days map[time.Time]gitlog.Stats, today time.Time) error {
	type row struct {
		date string
		s    gitlog.Stats
	}
	var rows []row
	for d, s := range days {
		if !d.Before(today) {
			continue
		}
		rows = append(rows, row{dateKey(d), s})
	}
	if len(rows) == 0 {
		return nil
	}

	return db.WithTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT OR REPLACE INTO daily_stats (repo_path, date, added, removed, commits)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, r := range rows {
			if _, err := stmt.Exec(repoPath, r.date, r.s.Added, r.s.Removed, r.s.Commits); err != nil {
				return fmt.Errorf("failed to save daily stats for %s: %w", r.date, err)
			}
		}
		return nil
	})
}

// ClearRepo removes all cached daily entries for a repository
func (db *DB) ClearRepo(repoPath string) error {
	_, err := db.Exec(`DELETE FROM daily_stats WHERE repo_path = ?`, repoPath)
	return err
}

// ClearAll removes all cached daily entries
func (db *DB) ClearAll() error {
	_, err := db.Exec(`DELETE FROM daily_stats`)
	return err
}

// EntryCount returns the number of cached daily entries
func (db *DB) EntryCount() (int64, error) {
	var n int64
	err := db.QueryRow(`SELECT COUNT(*) FROM daily_stats`).Scan(&n)
	return n, err
}
