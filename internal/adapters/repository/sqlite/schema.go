package sqlite

const schema = `
CREATE TABLE IF NOT EXISTS orgs (
	org_key      TEXT PRIMARY KEY,
	nickname     TEXT NOT NULL,
	event_key    TEXT NOT NULL,
	team_number  INTEGER NOT NULL DEFAULT 0,
	team_numbers TEXT,
	config       TEXT
);

CREATE TABLE IF NOT EXISTS teams (
	key         TEXT PRIMARY KEY,
	team_number INTEGER NOT NULL,
	nickname    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS lightusers (
	id       INTEGER PRIMARY KEY,
	name     TEXT NOT NULL,
	org_key  TEXT NOT NULL,
	role_key TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_lightusers_org ON lightusers(org_key);

CREATE TABLE IF NOT EXISTS events (
	key        TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	year       INTEGER NOT NULL,
	start_date TEXT NOT NULL,
	end_date   TEXT NOT NULL,
	country    TEXT NOT NULL,
	state_prov TEXT NOT NULL,
	event_type TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS matchscouting (
	match_team_key  TEXT PRIMARY KEY,
	match_key       TEXT NOT NULL,
	event_key       TEXT NOT NULL,
	org_key         TEXT NOT NULL,
	year            INTEGER NOT NULL,
	match_number    INTEGER NOT NULL,
	time            INTEGER NOT NULL,
	alliance        TEXT NOT NULL,
	team_key        TEXT NOT NULL,
	assigned_scorer TEXT,
	actual_scorer   TEXT,
	data            TEXT,
	completed       INTEGER NOT NULL DEFAULT 0,
	synced          INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_matchscouting_scope ON matchscouting(org_key, event_key);

CREATE TABLE IF NOT EXISTS pitscouting (
	org_key        TEXT NOT NULL,
	event_key      TEXT NOT NULL,
	team_key       TEXT NOT NULL,
	primary_ref    TEXT,
	secondary_ref  TEXT,
	tertiary_ref   TEXT,
	actual_scouter TEXT,
	data           TEXT,
	completed      INTEGER NOT NULL DEFAULT 0,
	synced         INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (org_key, event_key, team_key)
);

CREATE TABLE IF NOT EXISTS matches (
	key          TEXT PRIMARY KEY,
	event_key    TEXT NOT NULL,
	comp_level   TEXT NOT NULL,
	match_number INTEGER NOT NULL,
	time         INTEGER NOT NULL,
	alliances    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_matches_event ON matches(event_key);

CREATE TABLE IF NOT EXISTS syncstatus (
	table_name TEXT NOT NULL,
	filter     TEXT NOT NULL,
	time       TEXT NOT NULL,
	PRIMARY KEY (table_name, filter)
);
`
