package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Task counts - progress per user, activity and task
		`CREATE TABLE IF NOT EXISTS task_counts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL,
			game TEXT NOT NULL,
			task_name TEXT NOT NULL,
			count INTEGER NOT NULL DEFAULT 0 CHECK(count >= 0),
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(email, game, task_name)
		)`,

		// Sessions - one row per counting session
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			game TEXT NOT NULL,
			task_name TEXT NOT NULL,
			start_count INTEGER NOT NULL DEFAULT 0,
			final_count INTEGER NOT NULL DEFAULT 0,
			max_count INTEGER NOT NULL,
			status TEXT NOT NULL CHECK(status IN ('active', 'completed', 'stopped', 'failed')),
			reason TEXT NOT NULL DEFAULT '',
			started_at DATETIME NOT NULL,
			ended_at DATETIME
		)`,

		`CREATE INDEX IF NOT EXISTS idx_task_counts_email_game ON task_counts(email, game)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_email ON sessions(email, started_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
