package postgres

// schema creates the relevance tables. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS locations (
		id            BIGSERIAL PRIMARY KEY,
		country       TEXT NOT NULL DEFAULT '',
		state         TEXT NOT NULL DEFAULT '',
		county        TEXT NOT NULL DEFAULT '',
		city          TEXT NOT NULL DEFAULT '',
		location_type TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS locations_identity_idx ON locations
		(lower(country), lower(state), lower(county), lower(city), lower(location_type))`,
	`CREATE TABLE IF NOT EXISTS articles (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		content     TEXT NOT NULL DEFAULT '',
		html_hints  TEXT NOT NULL DEFAULT '',
		key_topics  TEXT[] NOT NULL DEFAULT '{}',
		location_id BIGINT REFERENCES locations(id) ON DELETE SET NULL,
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS flagged_content (
		article_id            TEXT PRIMARY KEY,
		run_id                TEXT NOT NULL,
		title                 TEXT NOT NULL,
		overall_score         DOUBLE PRECISION NOT NULL,
		location_relevance    DOUBLE PRECISION NOT NULL,
		real_estate_relevance DOUBLE PRECISION NOT NULL,
		geographic_scope      DOUBLE PRECISION NOT NULL,
		is_relevant           BOOLEAN NOT NULL,
		category              TEXT NOT NULL DEFAULT '',
		reasons_to_flag       TEXT[] NOT NULL DEFAULT '{}',
		reasons_to_keep       TEXT[] NOT NULL DEFAULT '{}',
		location_name         TEXT NOT NULL DEFAULT '',
		location_type         TEXT NOT NULL DEFAULT '',
		location_state        TEXT NOT NULL DEFAULT '',
		confidence            DOUBLE PRECISION,
		reasoning             TEXT NOT NULL DEFAULT '',
		flagged_at            TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}
