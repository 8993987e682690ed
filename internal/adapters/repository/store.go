// Package repository defines the Local Store: the device's transactional
// copy of orgs, reference tables, schedules and sync status.
package repository

import (
	"context"
	"sort"

	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/model"
)

// Result holds the fields a single-result import overwrites.
type Result struct {
	Actual    *model.ScouterRef
	Data      model.Payload
	Completed bool
	Synced    bool
}

// Store runs transactions. Update commits every write made by fn
// atomically, or none of them when fn returns an error.
type Store interface {
	Update(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

// Tx is the table surface available inside a transaction. Getters return
// ErrNotFound for missing rows. Put* methods insert or replace by natural key.
type Tx interface {
	Org(ctx context.Context, orgKey string) (model.Org, error)
	PutOrg(ctx context.Context, org model.Org) error
	// UpdateOrgDisplay touches only event key, nickname and team numbers.
	UpdateOrgDisplay(ctx context.Context, org model.Org) error

	Team(ctx context.Context, teamKey string) (model.TeamLocal, error)
	Teams(ctx context.Context) ([]model.TeamLocal, error)
	PutTeams(ctx context.Context, teams []model.TeamLocal) error

	User(ctx context.Context, id int) (model.LightUser, error)
	Users(ctx context.Context, orgKey string) ([]model.LightUser, error)
	PutUsers(ctx context.Context, users []model.LightUser) error

	Event(ctx context.Context, eventKey string) (model.Event, error)
	PutEvent(ctx context.Context, event model.Event) error

	MatchAssignment(ctx context.Context, matchTeamKey string) (model.MatchAssignment, error)
	MatchAssignments(ctx context.Context, orgKey, eventKey string) ([]model.MatchAssignment, error)
	PutMatchAssignments(ctx context.Context, rows []model.MatchAssignment) error
	UpdateMatchResult(ctx context.Context, matchTeamKey string, r Result) error

	PitAssignment(ctx context.Context, key model.PitKey) (model.PitAssignment, error)
	PitAssignments(ctx context.Context, orgKey, eventKey string) ([]model.PitAssignment, error)
	PutPitAssignments(ctx context.Context, rows []model.PitAssignment) error
	UpdatePitResult(ctx context.Context, key model.PitKey, r Result) error

	Matches(ctx context.Context, eventKey string) ([]model.Match, error)
	DeleteMatches(ctx context.Context, eventKey string) error
	PutMatches(ctx context.Context, matches []model.Match) error

	SyncStatus(ctx context.Context, table, filter string) (model.SyncStatus, error)
	PutSyncStatus(ctx context.Context, s model.SyncStatus) error
}

// SortMatchAssignments orders rows by match, blue before red, then team.
func SortMatchAssignments(rows []model.MatchAssignment) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.MatchNumber != b.MatchNumber {
			return a.MatchNumber < b.MatchNumber
		}
		if a.Alliance != b.Alliance {
			return a.Alliance == model.AllianceBlue
		}
		return a.TeamKey < b.TeamKey
	})
}

// SortPitAssignments orders rows by team key.
func SortPitAssignments(rows []model.PitAssignment) {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].TeamKey < rows[j].TeamKey })
}
