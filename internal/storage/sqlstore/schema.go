package sqlstore

// schema mirrors the dashboard's families and child_profiles tables.
// Columns the server never reads are left out.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS families (
		id TEXT PRIMARY KEY,
		parent_user_id TEXT NOT NULL UNIQUE,
		parent_code TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending'
	)`,
	`CREATE TABLE IF NOT EXISTS child_profiles (
		id TEXT PRIMARY KEY,
		family_id TEXT NOT NULL REFERENCES families(id),
		display_name TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		time_budget_day INTEGER NOT NULL DEFAULT 3600,
		time_left_day INTEGER NOT NULL DEFAULT 3600
	)`,
}
