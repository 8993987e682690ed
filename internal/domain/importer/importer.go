// Package importer merges decoded messages into the Local Store.
//
// Schedules never clobber collected data: a local row with a non-empty
// payload keeps its payload, actual scorer and flags while the incoming
// row refreshes assignment metadata. Single results overwrite their
// target row and refuse to create one.
package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/adapters/repository"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/model"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/protocol"
	"github.com/FIRSTTeam102/scoutradioz-sub000/pkg/logger"
	"github.com/FIRSTTeam102/scoutradioz-sub000/pkg/metrics"
)

const compLevelQual = "qm"

// Stats counts what an import wrote.
type Stats struct {
	Rows      int
	Preserved int
}

// Importer applies decoded messages to a store.
type Importer struct {
	store  repository.Store
	logger logger.Logger
	now    func() time.Time
}

// New creates an importer writing to store.
func New(store repository.Store, opts ...Option) *Importer {
	im := &Importer{
		store:  store,
		logger: logger.Get().Named("importer"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Import dispatches on the message type.
func (im *Importer) Import(ctx context.Context, msg protocol.Message) (Stats, error) {
	start := time.Now()
	var (
		st  Stats
		err error
	)
	switch m := msg.(type) {
	case *protocol.Meta:
		st, err = im.Meta(ctx, m)
	case *protocol.MatchSchedule:
		st, err = im.MatchSchedule(ctx, m)
	case *protocol.PitSchedule:
		st, err = im.PitSchedule(ctx, m)
	case *protocol.MatchResult:
		st, err = im.MatchResult(ctx, m)
	case *protocol.PitResult:
		st, err = im.PitResult(ctx, m)
	default:
		err = fmt.Errorf("%w: %T", ErrUnsupported, msg)
	}
	if err != nil {
		metrics.RecordError("importer", errorKind(err))
		im.logger.Warn(ctx, "import failed", logger.Error(err))
		return Stats{}, err
	}
	metrics.RecordImportDuration(string(msg.Type()), float64(time.Since(start).Microseconds())/1000)
	return st, nil
}

// Meta upserts the org, its users, the teams and the event. An org that
// already exists only has its display fields refreshed.
func (im *Importer) Meta(ctx context.Context, m *protocol.Meta) (Stats, error) {
	now := im.now()
	err := im.store.Update(ctx, func(tx repository.Tx) error {
		_, err := tx.Org(ctx, m.Org.OrgKey)
		switch {
		case err == nil:
			if err := tx.UpdateOrgDisplay(ctx, m.Org); err != nil {
				return err
			}
		case errors.Is(err, repository.ErrNotFound):
			if err := tx.PutOrg(ctx, m.Org); err != nil {
				return err
			}
		default:
			return err
		}
		if err := tx.PutUsers(ctx, m.Users); err != nil {
			return err
		}
		if err := tx.PutTeams(ctx, m.Teams); err != nil {
			return err
		}
		if err := tx.PutEvent(ctx, m.Event); err != nil {
			return err
		}
		for _, s := range []model.SyncStatus{
			{Table: model.TableOrgs, Filter: m.Org.OrgKey, Time: now},
			{Table: model.TableUsers, Filter: m.Org.OrgKey, Time: now},
			{Table: model.TableTeams, Filter: m.Event.Key, Time: now},
			{Table: model.TableEvents, Filter: m.Event.Key, Time: now},
		} {
			if err := tx.PutSyncStatus(ctx, s); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Stats{}, err
	}
	metrics.RecordRowsWritten(model.TableOrgs, 1)
	metrics.RecordRowsWritten(model.TableUsers, len(m.Users))
	metrics.RecordRowsWritten(model.TableTeams, len(m.Teams))
	metrics.RecordRowsWritten(model.TableEvents, 1)
	im.logger.Info(ctx, "metadata imported",
		logger.String("org_key", m.Org.OrgKey),
		logger.String("event_key", m.Event.Key),
		logger.Int("teams", len(m.Teams)),
		logger.Int("users", len(m.Users)))
	return Stats{Rows: 2 + len(m.Users) + len(m.Teams)}, nil
}

// MatchSchedule merges match assignments and rebuilds the event's match view.
func (im *Importer) MatchSchedule(ctx context.Context, s *protocol.MatchSchedule) (Stats, error) {
	matches, err := BuildMatches(s.Assignments)
	if err != nil {
		return Stats{}, err
	}
	rows := make([]model.MatchAssignment, len(s.Assignments))
	copy(rows, s.Assignments)

	var preserved int
	now := im.now()
	err = im.store.Update(ctx, func(tx repository.Tx) error {
		local, err := tx.MatchAssignments(ctx, s.OrgKey, s.EventKey)
		if err != nil {
			return err
		}
		byKey := make(map[string]*model.MatchAssignment, len(local))
		for i := range local {
			byKey[local[i].MatchTeamKey] = &local[i]
		}
		for i := range rows {
			old, ok := byKey[rows[i].MatchTeamKey]
			if !ok || old.Data.IsEmpty() {
				continue
			}
			rows[i].Data = old.Data
			rows[i].ActualScorer = old.ActualScorer
			rows[i].Completed = old.Completed
			rows[i].Synced = old.Synced
			preserved++
		}
		if err := tx.PutMatchAssignments(ctx, rows); err != nil {
			return err
		}
		if err := tx.DeleteMatches(ctx, s.EventKey); err != nil {
			return err
		}
		if err := tx.PutMatches(ctx, matches); err != nil {
			return err
		}
		if err := tx.PutSyncStatus(ctx, model.SyncStatus{Table: model.TableMatchScouting, Filter: scope(s.OrgKey, s.EventKey), Time: now}); err != nil {
			return err
		}
		return tx.PutSyncStatus(ctx, model.SyncStatus{Table: model.TableMatches, Filter: s.EventKey, Time: now})
	})
	if err != nil {
		return Stats{}, err
	}
	metrics.RecordRowsWritten(model.TableMatchScouting, len(rows))
	metrics.RecordRowsWritten(model.TableMatches, len(matches))
	metrics.RecordRowsPreserved(preserved)
	im.logger.Info(ctx, "match schedule imported",
		logger.String("event_key", s.EventKey),
		logger.Int("rows", len(rows)),
		logger.Int("matches", len(matches)),
		logger.Int("preserved", preserved))
	return Stats{Rows: len(rows), Preserved: preserved}, nil
}

// PitSchedule merges pit assignments.
func (im *Importer) PitSchedule(ctx context.Context, s *protocol.PitSchedule) (Stats, error) {
	rows := make([]model.PitAssignment, len(s.Assignments))
	copy(rows, s.Assignments)

	var preserved int
	now := im.now()
	err := im.store.Update(ctx, func(tx repository.Tx) error {
		local, err := tx.PitAssignments(ctx, s.OrgKey, s.EventKey)
		if err != nil {
			return err
		}
		byKey := make(map[model.PitKey]*model.PitAssignment, len(local))
		for i := range local {
			byKey[local[i].Key()] = &local[i]
		}
		for i := range rows {
			old, ok := byKey[rows[i].Key()]
			if !ok || old.Data.IsEmpty() {
				continue
			}
			rows[i].Data = old.Data
			rows[i].ActualScouter = old.ActualScouter
			rows[i].Completed = old.Completed
			rows[i].Synced = old.Synced
			preserved++
		}
		if err := tx.PutPitAssignments(ctx, rows); err != nil {
			return err
		}
		return tx.PutSyncStatus(ctx, model.SyncStatus{Table: model.TablePitScouting, Filter: scope(s.OrgKey, s.EventKey), Time: now})
	})
	if err != nil {
		return Stats{}, err
	}
	metrics.RecordRowsWritten(model.TablePitScouting, len(rows))
	metrics.RecordRowsPreserved(preserved)
	im.logger.Info(ctx, "pit schedule imported",
		logger.String("event_key", s.EventKey),
		logger.Int("rows", len(rows)),
		logger.Int("preserved", preserved))
	return Stats{Rows: len(rows), Preserved: preserved}, nil
}

// MatchResult overwrites the result fields of an existing match assignment.
func (im *Importer) MatchResult(ctx context.Context, r *protocol.MatchResult) (Stats, error) {
	err := im.store.Update(ctx, func(tx repository.Tx) error {
		if _, err := tx.MatchAssignment(ctx, r.MatchTeamKey); err != nil {
			return targetErr(err, r.MatchTeamKey)
		}
		return tx.UpdateMatchResult(ctx, r.MatchTeamKey, repository.Result{
			Actual:    r.ActualScorer,
			Data:      r.Data,
			Completed: r.Completed,
			Synced:    r.Synced,
		})
	})
	if err != nil {
		return Stats{}, err
	}
	metrics.RecordRowsWritten(model.TableMatchScouting, 1)
	im.logger.Debug(ctx, "match result imported", logger.String("match_team_key", r.MatchTeamKey))
	return Stats{Rows: 1}, nil
}

// PitResult overwrites the result fields of an existing pit assignment.
func (im *Importer) PitResult(ctx context.Context, r *protocol.PitResult) (Stats, error) {
	err := im.store.Update(ctx, func(tx repository.Tx) error {
		if _, err := tx.PitAssignment(ctx, r.Key); err != nil {
			return targetErr(err, scope(r.Key.OrgKey, r.Key.EventKey)+"/"+r.Key.TeamKey)
		}
		return tx.UpdatePitResult(ctx, r.Key, repository.Result{
			Actual:    r.ActualScouter,
			Data:      r.Data,
			Completed: r.Completed,
			Synced:    r.Synced,
		})
	})
	if err != nil {
		return Stats{}, err
	}
	metrics.RecordRowsWritten(model.TablePitScouting, 1)
	im.logger.Debug(ctx, "pit result imported", logger.String("team_key", r.Key.TeamKey))
	return Stats{Rows: 1}, nil
}

// BuildMatches groups assignments by match key into the per-match view.
// Team keys keep their assignment order within each alliance.
func BuildMatches(rows []model.MatchAssignment) ([]model.Match, error) {
	var (
		out  []model.Match
		pos  = make(map[string]int)
		seen = make(map[string]struct{}, len(rows))
	)
	for i := range rows {
		a := &rows[i]
		if _, dup := seen[a.MatchTeamKey]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTeam, a.MatchTeamKey)
		}
		seen[a.MatchTeamKey] = struct{}{}
		p, ok := pos[a.MatchKey]
		if !ok {
			p = len(out)
			pos[a.MatchKey] = p
			out = append(out, model.Match{
				Key:         a.MatchKey,
				EventKey:    a.EventKey,
				CompLevel:   compLevelQual,
				MatchNumber: a.MatchNumber,
				Time:        a.Time,
				Alliances: model.Alliances{
					Blue: model.AllianceView{Score: model.ScorePlaceholder},
					Red:  model.AllianceView{Score: model.ScorePlaceholder},
				},
			})
		}
		m := &out[p]
		switch a.Alliance {
		case model.AllianceBlue:
			m.Alliances.Blue.TeamKeys = append(m.Alliances.Blue.TeamKeys, a.TeamKey)
		case model.AllianceRed:
			m.Alliances.Red.TeamKeys = append(m.Alliances.Red.TeamKeys, a.TeamKey)
		default:
			return nil, fmt.Errorf("%w: %s has alliance %q", ErrIncompleteAlliance, a.MatchTeamKey, a.Alliance)
		}
	}
	for i := range out {
		m := &out[i]
		if len(m.Alliances.Blue.TeamKeys) != protocol.SlotsPerAlliance || len(m.Alliances.Red.TeamKeys) != protocol.SlotsPerAlliance {
			return nil, fmt.Errorf("%w: %s has %d blue and %d red", ErrIncompleteAlliance,
				m.Key, len(m.Alliances.Blue.TeamKeys), len(m.Alliances.Red.TeamKeys))
		}
		teams := make(map[string]struct{}, protocol.SlotsPerMatch)
		for _, k := range append(append([]string(nil), m.Alliances.Blue.TeamKeys...), m.Alliances.Red.TeamKeys...) {
			if _, dup := teams[k]; dup {
				return nil, fmt.Errorf("%w: %s lists %s twice", ErrDuplicateTeam, m.Key, k)
			}
			teams[k] = struct{}{}
		}
	}
	return out, nil
}

func scope(orgKey, eventKey string) string {
	return orgKey + "/" + eventKey
}

func targetErr(err error, key string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrTargetNotFound, key)
	}
	return err
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrTargetNotFound):
		return "target_not_found"
	case errors.Is(err, ErrIncompleteAlliance):
		return "incomplete_alliance"
	case errors.Is(err, ErrUnsupported):
		return "unsupported"
	default:
		return "store"
	}
}
