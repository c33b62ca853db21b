package store

type migration struct {
	name string
	sql  string
}

// migrations are applied in order. A catalog at schema version N has had
// the first N applied; append only.
var migrations = []migration{
	{"create jobs", `
		CREATE TABLE jobs (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL DEFAULT '',
			start_frame INTEGER,
			stop_frame  INTEGER,
			created_at  TEXT NOT NULL DEFAULT (datetime('now'))
		);
	`},
	{"create labels", `
		CREATE TABLE labels (
			id      TEXT PRIMARY KEY,
			job_id  TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
			name    TEXT NOT NULL
		);
		CREATE UNIQUE INDEX idx_labels_job_name ON labels (job_id, name);
	`},
}
