package sqlite

import "github.com/steveyegge/quizdedup/internal/storage/migrations"

// historyMigrations builds the sampling history schema
func historyMigrations() *migrations.Manager {
	return migrations.NewManager(
		migrations.Migration{
			Version:     1,
			Description: "sampling runs",
			Up: `
-- One row per selection
CREATE TABLE IF NOT EXISTS sampling_runs (
    id TEXT PRIMARY KEY,
    mode TEXT NOT NULL CHECK(mode IN ('exam', 'practice')),
    domain TEXT NOT NULL DEFAULT '',
    lang TEXT NOT NULL DEFAULT '',
    requested INTEGER NOT NULL CHECK(requested > 0),
    returned INTEGER NOT NULL CHECK(returned >= 0),
    deduplicated INTEGER NOT NULL DEFAULT 1,
    check_choices INTEGER NOT NULL DEFAULT 1,
    initial_threshold REAL NOT NULL,
    final_threshold REAL NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sampling_runs_created_at ON sampling_runs(created_at);
CREATE INDEX IF NOT EXISTS idx_sampling_runs_domain ON sampling_runs(domain);

-- Selected question ids in acceptance order
CREATE TABLE IF NOT EXISTS run_questions (
    run_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    question_id TEXT NOT NULL,
    PRIMARY KEY (run_id, position),
    FOREIGN KEY (run_id) REFERENCES sampling_runs(id) ON DELETE CASCADE
);
`,
			Down: `
DROP TABLE IF EXISTS run_questions;
DROP TABLE IF EXISTS sampling_runs;
`,
		},
		migrations.Migration{
			Version:     2,
			Description: "threshold relaxations",
			Up: `
CREATE TABLE IF NOT EXISTS run_relaxations (
    run_id TEXT NOT NULL,
    attempt INTEGER NOT NULL,
    from_threshold REAL NOT NULL,
    to_threshold REAL NOT NULL,
    accepted INTEGER NOT NULL,
    PRIMARY KEY (run_id, attempt),
    FOREIGN KEY (run_id) REFERENCES sampling_runs(id) ON DELETE CASCADE
);
`,
			Down: `DROP TABLE IF EXISTS run_relaxations;`,
		},
		migrations.Migration{
			Version:     3,
			Description: "question lookup index",
			Up:          `CREATE INDEX IF NOT EXISTS idx_run_questions_question ON run_questions(question_id);`,
			Down:        `DROP INDEX IF EXISTS idx_run_questions_question;`,
		},
	)
}
