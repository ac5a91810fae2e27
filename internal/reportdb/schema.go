package reportdb

import "database/sql"

// InitSchema ensures the DB has the report index and transcript cache tables.
func InitSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS reports (
            id TEXT PRIMARY KEY,
            kind TEXT NOT NULL,
            query TEXT NOT NULL,
            path TEXT NOT NULL,
            items INTEGER DEFAULT 0,
            created_at TEXT NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_kind ON reports(kind)`,
		`CREATE TABLE IF NOT EXISTS transcript_cache (
            video_id TEXT PRIMARY KEY,
            url TEXT NOT NULL,
            transcript TEXT NOT NULL,
            fetched_at TEXT NOT NULL
        )`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}
