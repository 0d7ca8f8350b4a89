package storage

// Schema: daily_stats holds one row per (repository, day); rows are written
// at most once per key except on explicit invalidation, and never for the
// current day. repo_metadata stores the active project type per repository.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS daily_stats (
		repo_path TEXT NOT NULL,
		date TEXT NOT NULL,
		added INTEGER NOT NULL,
		removed INTEGER NOT NULL,
		commits INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (repo_path, date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_daily_stats_date ON daily_stats(date)`,
	`CREATE TABLE IF NOT EXISTS repo_metadata (
		repo_path TEXT PRIMARY KEY,
		project_type TEXT NOT NULL,
		type_source TEXT NOT NULL,
		detected_at TEXT NOT NULL
	)`,
}

func (db *DB) initializeSchema() error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
