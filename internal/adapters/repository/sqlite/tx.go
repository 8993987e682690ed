package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/adapters/repository"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/model"
)

type tx struct {
	tx       *sql.Tx
	writable bool
}

func (t *tx) check() error {
	if !t.writable {
		return repository.ErrReadOnly
	}
	return nil
}

func (t *tx) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	return t.tx.ExecContext(ctx, query, args...)
}

// Orgs

func (t *tx) Org(ctx context.Context, orgKey string) (model.Org, error) {
	var o model.Org
	var nums, config sql.NullString
	err := t.tx.QueryRowContext(ctx,
		`SELECT org_key, nickname, event_key, team_number, team_numbers, config FROM orgs WHERE org_key = ?`, orgKey,
	).Scan(&o.OrgKey, &o.Nickname, &o.EventKey, &o.TeamNumber, &nums, &config)
	if err != nil {
		return model.Org{}, notFound(err, model.TableOrgs, orgKey)
	}
	if err := fromJSON(nums, &o.TeamNumbers); err != nil {
		return model.Org{}, err
	}
	if err := fromJSON(config, &o.Config); err != nil {
		return model.Org{}, err
	}
	return o, nil
}

func (t *tx) PutOrg(ctx context.Context, org model.Org) error {
	nums, err := toJSON(org.TeamNumbers)
	if err != nil {
		return err
	}
	config, err := toJSON(org.Config)
	if err != nil {
		return err
	}
	_, err = t.exec(ctx,
		`INSERT OR REPLACE INTO orgs (org_key, nickname, event_key, team_number, team_numbers, config) VALUES (?, ?, ?, ?, ?, ?)`,
		org.OrgKey, org.Nickname, org.EventKey, org.TeamNumber, nums, config)
	return wrap(err, "put org")
}

func (t *tx) UpdateOrgDisplay(ctx context.Context, org model.Org) error {
	nums, err := toJSON(org.TeamNumbers)
	if err != nil {
		return err
	}
	res, err := t.exec(ctx,
		`UPDATE orgs SET event_key = ?, nickname = ?, team_number = ?, team_numbers = ? WHERE org_key = ?`,
		org.EventKey, org.Nickname, org.TeamNumber, nums, org.OrgKey)
	return affected(res, err, model.TableOrgs, org.OrgKey)
}

// Teams

func (t *tx) Team(ctx context.Context, teamKey string) (model.TeamLocal, error) {
	var tm model.TeamLocal
	err := t.tx.QueryRowContext(ctx, `SELECT key, team_number, nickname FROM teams WHERE key = ?`, teamKey).
		Scan(&tm.Key, &tm.TeamNumber, &tm.Nickname)
	if err != nil {
		return model.TeamLocal{}, notFound(err, model.TableTeams, teamKey)
	}
	return tm, nil
}

func (t *tx) Teams(ctx context.Context) ([]model.TeamLocal, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT key, team_number, nickname FROM teams ORDER BY team_number`)
	if err != nil {
		return nil, wrap(err, "list teams")
	}
	defer rows.Close()
	var out []model.TeamLocal
	for rows.Next() {
		var tm model.TeamLocal
		if err := rows.Scan(&tm.Key, &tm.TeamNumber, &tm.Nickname); err != nil {
			return nil, wrap(err, "scan team")
		}
		out = append(out, tm)
	}
	return out, rows.Err()
}

func (t *tx) PutTeams(ctx context.Context, teams []model.TeamLocal) error {
	for _, tm := range teams {
		if _, err := t.exec(ctx, `INSERT OR REPLACE INTO teams (key, team_number, nickname) VALUES (?, ?, ?)`,
			tm.Key, tm.TeamNumber, tm.Nickname); err != nil {
			return wrap(err, "put team "+tm.Key)
		}
	}
	return nil
}

// Users

func (t *tx) User(ctx context.Context, id int) (model.LightUser, error) {
	var u model.LightUser
	err := t.tx.QueryRowContext(ctx, `SELECT id, name, org_key, role_key FROM lightusers WHERE id = ?`, id).
		Scan(&u.ID, &u.Name, &u.OrgKey, &u.RoleKey)
	if err != nil {
		return model.LightUser{}, notFound(err, model.TableUsers, id)
	}
	return u, nil
}

func (t *tx) Users(ctx context.Context, orgKey string) ([]model.LightUser, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT id, name, org_key, role_key FROM lightusers WHERE org_key = ? ORDER BY id`, orgKey)
	if err != nil {
		return nil, wrap(err, "list users")
	}
	defer rows.Close()
	var out []model.LightUser
	for rows.Next() {
		var u model.LightUser
		if err := rows.Scan(&u.ID, &u.Name, &u.OrgKey, &u.RoleKey); err != nil {
			return nil, wrap(err, "scan user")
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (t *tx) PutUsers(ctx context.Context, users []model.LightUser) error {
	for _, u := range users {
		if _, err := t.exec(ctx, `INSERT OR REPLACE INTO lightusers (id, name, org_key, role_key) VALUES (?, ?, ?, ?)`,
			u.ID, u.Name, u.OrgKey, u.RoleKey); err != nil {
			return wrap(err, fmt.Sprintf("put user %d", u.ID))
		}
	}
	return nil
}

// Events

func (t *tx) Event(ctx context.Context, eventKey string) (model.Event, error) {
	var e model.Event
	err := t.tx.QueryRowContext(ctx,
		`SELECT key, name, year, start_date, end_date, country, state_prov, event_type FROM events WHERE key = ?`, eventKey,
	).Scan(&e.Key, &e.Name, &e.Year, &e.StartDate, &e.EndDate, &e.Country, &e.StateProv, &e.EventType)
	if err != nil {
		return model.Event{}, notFound(err, model.TableEvents, eventKey)
	}
	return e, nil
}

func (t *tx) PutEvent(ctx context.Context, e model.Event) error {
	_, err := t.exec(ctx,
		`INSERT OR REPLACE INTO events (key, name, year, start_date, end_date, country, state_prov, event_type) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Key, e.Name, e.Year, e.StartDate, e.EndDate, e.Country, e.StateProv, e.EventType)
	return wrap(err, "put event")
}

// Match assignments

const matchColumns = `match_team_key, match_key, event_key, org_key, year, match_number, time, alliance, team_key,
	assigned_scorer, actual_scorer, data, completed, synced`

func scanMatchAssignment(sc interface{ Scan(...any) error }) (model.MatchAssignment, error) {
	var a model.MatchAssignment
	var assigned, actual, data sql.NullString
	err := sc.Scan(&a.MatchTeamKey, &a.MatchKey, &a.EventKey, &a.OrgKey, &a.Year, &a.MatchNumber, &a.Time,
		&a.Alliance, &a.TeamKey, &assigned, &actual, &data, &a.Completed, &a.Synced)
	if err != nil {
		return a, err
	}
	if err := fromJSON(assigned, &a.AssignedScorer); err != nil {
		return a, err
	}
	if err := fromJSON(actual, &a.ActualScorer); err != nil {
		return a, err
	}
	return a, fromJSON(data, &a.Data)
}

func (t *tx) MatchAssignment(ctx context.Context, key string) (model.MatchAssignment, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matchscouting WHERE match_team_key = ?`, key)
	a, err := scanMatchAssignment(row)
	if err != nil {
		return model.MatchAssignment{}, notFound(err, model.TableMatchScouting, key)
	}
	return a, nil
}

func (t *tx) MatchAssignments(ctx context.Context, orgKey, eventKey string) ([]model.MatchAssignment, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+matchColumns+` FROM matchscouting WHERE org_key = ? AND event_key = ?`, orgKey, eventKey)
	if err != nil {
		return nil, wrap(err, "list match assignments")
	}
	defer rows.Close()
	var out []model.MatchAssignment
	for rows.Next() {
		a, err := scanMatchAssignment(rows)
		if err != nil {
			return nil, wrap(err, "scan match assignment")
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	repository.SortMatchAssignments(out)
	return out, nil
}

func (t *tx) PutMatchAssignments(ctx context.Context, rows []model.MatchAssignment) error {
	if err := t.check(); err != nil {
		return err
	}
	stmt, err := t.tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO matchscouting (`+matchColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return wrap(err, "prepare match assignments")
	}
	defer stmt.Close()
	for i := range rows {
		a := &rows[i]
		assigned, err := toJSON(a.AssignedScorer)
		if err != nil {
			return err
		}
		actual, err := toJSON(a.ActualScorer)
		if err != nil {
			return err
		}
		data, err := toJSON(a.Data)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, a.MatchTeamKey, a.MatchKey, a.EventKey, a.OrgKey, a.Year, a.MatchNumber,
			a.Time, a.Alliance, a.TeamKey, assigned, actual, data, a.Completed, a.Synced); err != nil {
			return wrap(err, "put match assignment "+a.MatchTeamKey)
		}
	}
	return nil
}

func (t *tx) UpdateMatchResult(ctx context.Context, key string, r repository.Result) error {
	actual, err := toJSON(r.Actual)
	if err != nil {
		return err
	}
	data, err := toJSON(r.Data)
	if err != nil {
		return err
	}
	res, err := t.exec(ctx,
		`UPDATE matchscouting SET actual_scorer = ?, data = ?, completed = ?, synced = ? WHERE match_team_key = ?`,
		actual, data, r.Completed, r.Synced, key)
	return affected(res, err, model.TableMatchScouting, key)
}

// Pit assignments

const pitColumns = `org_key, event_key, team_key, primary_ref, secondary_ref, tertiary_ref, actual_scouter, data, completed, synced`

func scanPitAssignment(sc interface{ Scan(...any) error }) (model.PitAssignment, error) {
	var p model.PitAssignment
	var p1, p2, p3, actual, data sql.NullString
	if err := sc.Scan(&p.OrgKey, &p.EventKey, &p.TeamKey, &p1, &p2, &p3, &actual, &data, &p.Completed, &p.Synced); err != nil {
		return p, err
	}
	for _, f := range []struct {
		src sql.NullString
		dst **model.ScouterRef
	}{{p1, &p.Primary}, {p2, &p.Secondary}, {p3, &p.Tertiary}, {actual, &p.ActualScouter}} {
		if err := fromJSON(f.src, f.dst); err != nil {
			return p, err
		}
	}
	return p, fromJSON(data, &p.Data)
}

func (t *tx) PitAssignment(ctx context.Context, key model.PitKey) (model.PitAssignment, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT `+pitColumns+` FROM pitscouting WHERE org_key = ? AND event_key = ? AND team_key = ?`,
		key.OrgKey, key.EventKey, key.TeamKey)
	p, err := scanPitAssignment(row)
	if err != nil {
		return model.PitAssignment{}, notFound(err, model.TablePitScouting, key)
	}
	return p, nil
}

func (t *tx) PitAssignments(ctx context.Context, orgKey, eventKey string) ([]model.PitAssignment, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+pitColumns+` FROM pitscouting WHERE org_key = ? AND event_key = ? ORDER BY team_key`, orgKey, eventKey)
	if err != nil {
		return nil, wrap(err, "list pit assignments")
	}
	defer rows.Close()
	var out []model.PitAssignment
	for rows.Next() {
		p, err := scanPitAssignment(rows)
		if err != nil {
			return nil, wrap(err, "scan pit assignment")
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (t *tx) PutPitAssignments(ctx context.Context, rows []model.PitAssignment) error {
	if err := t.check(); err != nil {
		return err
	}
	stmt, err := t.tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO pitscouting (`+pitColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return wrap(err, "prepare pit assignments")
	}
	defer stmt.Close()
	for i := range rows {
		p := &rows[i]
		cols := make([]any, 0, 5)
		for _, v := range []any{p.Primary, p.Secondary, p.Tertiary, p.ActualScouter, p.Data} {
			ns, err := toJSON(v)
			if err != nil {
				return err
			}
			cols = append(cols, ns)
		}
		args := append([]any{p.OrgKey, p.EventKey, p.TeamKey}, cols...)
		args = append(args, p.Completed, p.Synced)
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return wrap(err, "put pit assignment "+p.TeamKey)
		}
	}
	return nil
}

func (t *tx) UpdatePitResult(ctx context.Context, key model.PitKey, r repository.Result) error {
	actual, err := toJSON(r.Actual)
	if err != nil {
		return err
	}
	data, err := toJSON(r.Data)
	if err != nil {
		return err
	}
	res, err := t.exec(ctx,
		`UPDATE pitscouting SET actual_scouter = ?, data = ?, completed = ?, synced = ?
		 WHERE org_key = ? AND event_key = ? AND team_key = ?`,
		actual, data, r.Completed, r.Synced, key.OrgKey, key.EventKey, key.TeamKey)
	return affected(res, err, model.TablePitScouting, key)
}

// Derived matches

func (t *tx) Matches(ctx context.Context, eventKey string) ([]model.Match, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT key, event_key, comp_level, match_number, time, alliances FROM matches WHERE event_key = ? ORDER BY match_number`, eventKey)
	if err != nil {
		return nil, wrap(err, "list matches")
	}
	defer rows.Close()
	var out []model.Match
	for rows.Next() {
		var (
			m         model.Match
			alliances sql.NullString
		)
		if err := rows.Scan(&m.Key, &m.EventKey, &m.CompLevel, &m.MatchNumber, &m.Time, &alliances); err != nil {
			return nil, wrap(err, "scan match")
		}
		if err := fromJSON(alliances, &m.Alliances); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (t *tx) DeleteMatches(ctx context.Context, eventKey string) error {
	_, err := t.exec(ctx, `DELETE FROM matches WHERE event_key = ?`, eventKey)
	return wrap(err, "delete matches")
}

func (t *tx) PutMatches(ctx context.Context, matches []model.Match) error {
	for _, m := range matches {
		alliances, err := toJSON(m.Alliances)
		if err != nil {
			return err
		}
		if _, err := t.exec(ctx,
			`INSERT OR REPLACE INTO matches (key, event_key, comp_level, match_number, time, alliances) VALUES (?, ?, ?, ?, ?, ?)`,
			m.Key, m.EventKey, m.CompLevel, m.MatchNumber, m.Time, alliances); err != nil {
			return wrap(err, "put match "+m.Key)
		}
	}
	return nil
}

// Sync status

func (t *tx) SyncStatus(ctx context.Context, table, filter string) (model.SyncStatus, error) {
	var (
		s  model.SyncStatus
		ts string
	)
	err := t.tx.QueryRowContext(ctx, `SELECT table_name, filter, time FROM syncstatus WHERE table_name = ? AND filter = ?`, table, filter).
		Scan(&s.Table, &s.Filter, &ts)
	if err != nil {
		return model.SyncStatus{}, notFound(err, model.TableSyncStatus, table+"/"+filter)
	}
	if s.Time, err = time.Parse(time.RFC3339Nano, ts); err != nil {
		return model.SyncStatus{}, fmt.Errorf("parse sync time %q: %w", ts, err)
	}
	return s, nil
}

func (t *tx) PutSyncStatus(ctx context.Context, s model.SyncStatus) error {
	_, err := t.exec(ctx, `INSERT OR REPLACE INTO syncstatus (table_name, filter, time) VALUES (?, ?, ?)`,
		s.Table, s.Filter, s.Time.UTC().Format(time.RFC3339Nano))
	return wrap(err, "put sync status")
}

func wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

func affected(res sql.Result, err error, table string, key any) error {
	if err != nil {
		return wrap(err, "update "+table)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap(err, "update "+table)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %v", repository.ErrNotFound, table, key)
	}
	return nil
}
