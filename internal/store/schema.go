package store

// schemaVersionV1 is the initial schema.
const schemaVersionV1 = 1

// schemaV1: one row per archived run, one row per record. Metric columns are
// nullable so an absent metric survives a round trip.
var schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);

CREATE TABLE IF NOT EXISTS runs (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	name         TEXT NOT NULL,
	source_path  TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	record_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS records (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id    INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	algorithm TEXT NOT NULL,
	jobsite   TEXT NOT NULL,
	subtag    TEXT NOT NULL,
	video     TEXT NOT NULL,
	plot_pdf  TEXT NOT NULL,
	rmse      REAL,
	mean      REAL,
	median    REAL,
	std       REAL,
	min       REAL,
	max       REAL
);

CREATE INDEX IF NOT EXISTS idx_records_run ON records(run_id);
`
