package store

// Statements run one at a time; both SQLite and PostgreSQL accept them.
var schemaSQL = []string{
	`CREATE TABLE IF NOT EXISTS plans (
    plan_id              TEXT PRIMARY KEY,
    nickname             TEXT NOT NULL,
    title                TEXT NOT NULL,
    start_date           TEXT,
    end_date             TEXT,
    document             TEXT NOT NULL,
    created_at           TEXT NOT NULL,
    updated_at           TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS exports (
    export_id            TEXT PRIMARY KEY,
    plan_id              TEXT NOT NULL REFERENCES plans(plan_id) ON DELETE CASCADE,
    filename             TEXT NOT NULL,
    total                DOUBLE PRECISION NOT NULL,
    size_bytes           BIGINT NOT NULL,
    created_at           TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_plans_nickname ON plans(nickname)`,
	`CREATE INDEX IF NOT EXISTS idx_exports_plan ON exports(plan_id, created_at)`,
}
