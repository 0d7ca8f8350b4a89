package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// Type sources recorded alongside a project type
const (
	TypeSourceAuto = "auto"
	TypeSourceUser = "user"
)

// RepoMetadata is the stored classification of one repository
type RepoMetadata struct {
	RepoPath    string
	ProjectType string
	TypeSource  string
	DetectedAt  time.Time
}

// GetProjectType returns the stored project type for a repository
func (db *DB) GetProjectType(repoPath string) (*RepoMetadata, error) {
	var m RepoMetadata
	var detectedAt string
	err := db.QueryRow(`
		SELECT repo_path, project_type, type_source, detected_at
		FROM repo_metadata WHERE repo_path = ?
	`, repoPath).Scan(&m.RepoPath, &m.ProjectType, &m.TypeSource, &detectedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("project type lookup failed: %w", err)
	}
	m.DetectedAt, _ = time.Parse(time.RFC3339, detectedAt)
	return &m, nil
}

// SetProjectType stores the project type for a repository and, in the same
// transaction, discards all its cached daily entries. Cached rows must
// always reflect the classification rules in effect when they were written.
func (db *DB) SetProjectType(repoPath, projectType, typeSource string) error {
	return db.WithTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT OR REPLACE INTO repo_metadata (repo_path, project_type, type_source, detected_at)
			VALUES (?, ?, ?, ?)
		`, repoPath, projectType, typeSource, time.Now().UTC().Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("failed to store project type: %w", err)
		}

		if _, err := tx.Exec(`DELETE FROM daily_stats WHERE repo_path = ?`, repoPath); err != nil {
			return fmt.Errorf("failed to invalidate cached stats: %w", err)
		}
		return nil
	})
}

// DeleteProjectType removes the stored project type for a repository and,
// in the same transaction, discards all its cached daily entries. Reverting
// to detection changes the active rule set just like pinning does, so rows
// written under the pinned type must not survive it.
func (db *DB) DeleteProjectType(repoPath string) error {
	return db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM repo_metadata WHERE repo_path = ?`, repoPath); err != nil {
			return fmt.Errorf("failed to delete project type: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM daily_stats WHERE repo_path = ?`, repoPath); err != nil {
			return fmt.Errorf("failed to invalidate cached stats: %w", err)
		}
		return nil
	})
}

// AllProjectTypes returns every stored project type, ordered by path
func (db *DB) AllProjectTypes() ([]RepoMetadata, error) {
	rows, err := db.Query(`
		SELECT repo_path, project_type, type_source, detected_at
		FROM repo_metadata ORDER BY repo_path
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RepoMetadata
	for rows.Next() {
		var m RepoMetadata
		var detectedAt string
		if err := rows.Scan(&m.RepoPath, &m.ProjectType, &m.TypeSource, &detectedAt); err != nil {
			return nil, err
		}
		m.DetectedAt, _ = time.Parse(time.RFC3339, detectedAt)
		out = append(out, m)
	}
	return out, rows.Err()
}
