package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/adapters/repository"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/adapters/repository/sqlite"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/model"
	"github.com/FIRSTTeam102/scoutradioz-sub000/pkg/logger"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "voyager.db"), sqlite.WithLogger(logger.Nop()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOrgAndReferenceTables(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	org := model.Org{OrgKey: "frc102", Nickname: "Gearheads", EventKey: "2023njfla", TeamNumber: 102, Config: model.Payload{"theme": "dark"}}
	require.NoError(t, s.Update(ctx, func(tx repository.Tx) error {
		if err := tx.PutOrg(ctx, org); err != nil {
			return err
		}
		if err := tx.PutTeams(ctx, []model.TeamLocal{{Key: "frc25", TeamNumber: 25, Nickname: "Raider Robotix"}, {Key: "frc102", TeamNumber: 102, Nickname: "Gearheads"}}); err != nil {
			return err
		}
		if err := tx.PutUsers(ctx, []model.LightUser{{ID: 7, Name: "Ada", OrgKey: "frc102", RoleKey: "scouter"}}); err != nil {
			return err
		}
		return tx.PutEvent(ctx, model.Event{Key: "2024njfla", Name: "Mount Olive", Year: 2024})
	}))

	require.NoError(t, s.Update(ctx, func(tx repository.Tx) error {
		return tx.UpdateOrgDisplay(ctx, model.Org{OrgKey: "frc102", Nickname: "GH", EventKey: "2024njfla", TeamNumbers: []int{102, 103}})
	}))

	require.NoError(t, s.View(ctx, func(tx repository.Tx) error {
		got, err := tx.Org(ctx, "frc102")
		require.NoError(t, err)
		assert.Equal(t, "2024njfla", got.EventKey)
		assert.Equal(t, []int{102, 103}, got.TeamNumbers)
		assert.Equal(t, "dark", got.Config["theme"])

		teams, err := tx.Teams(ctx)
		require.NoError(t, err)
		require.Len(t, teams, 2)
		assert.Equal(t, 25, teams[0].TeamNumber)

		users, err := tx.Users(ctx, "frc102")
		require.NoError(t, err)
		assert.Equal(t, "Ada", users[0].Name)

		ev, err := tx.Event(ctx, "2024njfla")
		require.NoError(t, err)
		assert.Equal(t, 2024, ev.Year)
		return nil
	}))

	err := s.Update(ctx, func(tx repository.Tx) error {
		return tx.UpdateOrgDisplay(ctx, model.Org{OrgKey: "frc9999"})
	})
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestMatchAssignments(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	ada := model.ScouterRef{ID: 7, Name: "Ada"}

	rows := []model.MatchAssignment{
		{MatchTeamKey: "2024njfla_qm1_frc25", MatchKey: "2024njfla_qm1", EventKey: "2024njfla", OrgKey: "frc102", Year: 2024, MatchNumber: 1, Time: 1709300000, Alliance: model.AllianceRed, TeamKey: "frc25"},
		{MatchTeamKey: "2024njfla_qm1_frc102", MatchKey: "2024njfla_qm1", EventKey: "2024njfla", OrgKey: "frc102", Year: 2024, MatchNumber: 1, Time: 1709300000, Alliance: model.AllianceBlue, TeamKey: "frc102", AssignedScorer: &ada},
	}
	require.NoError(t, s.Update(ctx, func(tx repository.Tx) error { return tx.PutMatchAssignments(ctx, rows) }))

	require.NoError(t, s.Update(ctx, func(tx repository.Tx) error {
		return tx.UpdateMatchResult(ctx, "2024njfla_qm1_frc25", repository.Result{Actual: &ada, Data: model.Payload{"shots": 5}, Completed: true})
	}))

	require.NoError(t, s.View(ctx, func(tx repository.Tx) error {
		got, err := tx.MatchAssignments(ctx, "frc102", "2024njfla")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, model.AllianceBlue, got[0].Alliance)
		assert.Equal(t, &ada, got[0].AssignedScorer)
		assert.Nil(t, got[0].ActualScorer)
		assert.False(t, got[0].Completed)

		red := got[1]
		assert.Equal(t, float64(5), red.Data["shots"])
		assert.True(t, red.Completed)
		assert.Equal(t, &ada, red.ActualScorer)
		assert.Nil(t, red.AssignedScorer)
		assert.Equal(t, int64(1709300000), red.Time)
		return nil
	}))

	err := s.Update(ctx, func(tx repository.Tx) error {
		return tx.UpdateMatchResult(ctx, "2024njfla_qm1_frc9999", repository.Result{})
	})
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestPitAssignments(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	ada := model.ScouterRef{ID: 7, Name: "Ada"}
	key := model.PitKey{OrgKey: "frc102", EventKey: "2024njfla", TeamKey: "frc25"}

	require.NoError(t, s.Update(ctx, func(tx repository.Tx) error {
		return tx.PutPitAssignments(ctx, []model.PitAssignment{{OrgKey: key.OrgKey, EventKey: key.EventKey, TeamKey: key.TeamKey, Primary: &ada}})
	}))
	require.NoError(t, s.Update(ctx, func(tx repository.Tx) error {
		return tx.UpdatePitResult(ctx, key, repository.Result{Actual: &ada, Data: model.Payload{"drivetrain": "swerve"}, Completed: true, Synced: true})
	}))

	require.NoError(t, s.View(ctx, func(tx repository.Tx) error {
		p, err := tx.PitAssignment(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, &ada, p.Primary)
		assert.Nil(t, p.Secondary)
		assert.Equal(t, "swerve", p.Data["drivetrain"])
		assert.True(t, p.Synced)

		all, err := tx.PitAssignments(ctx, "frc102", "2024njfla")
		require.NoError(t, err)
		assert.Len(t, all, 1)
		return nil
	}))
}

func TestRollbackAndReadOnly(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	boom := errors.New("boom")

	err := s.Update(ctx, func(tx repository.Tx) error {
		require.NoError(t, tx.PutSyncStatus(ctx, model.SyncStatus{Table: model.TableMatchScouting, Filter: "2024njfla", Time: time.Now()}))
		return boom
	})
	assert.Equal(t, boom, err)

	err = s.View(ctx, func(tx repository.Tx) error {
		_, err := tx.SyncStatus(ctx, model.TableMatchScouting, "2024njfla")
		return err
	})
	assert.True(t, errors.Is(err, repository.ErrNotFound))

	err = s.View(ctx, func(tx repository.Tx) error {
		return tx.PutTeams(ctx, []model.TeamLocal{{Key: "frc1"}})
	})
	assert.True(t, errors.Is(err, repository.ErrReadOnly))
}

func TestMatchesAndSyncStatus(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	m := model.Match{Key: "2024njfla_qm1", EventKey: "2024njfla", CompLevel: "qm", MatchNumber: 1,
		Alliances: model.Alliances{
			Blue: model.AllianceView{TeamKeys: []string{"frc1", "frc2", "frc3"}, Score: model.ScorePlaceholder},
			Red:  model.AllianceView{TeamKeys: []string{"frc4", "frc5", "frc6"}, Score: model.ScorePlaceholder},
		}}
	require.NoError(t, s.Update(ctx, func(tx repository.Tx) error {
		if err := tx.PutMatches(ctx, []model.Match{m}); err != nil {
			return err
		}
		return tx.PutSyncStatus(ctx, model.SyncStatus{Table: model.TableMatches, Filter: "2024njfla", Time: at})
	}))

	require.NoError(t, s.View(ctx, func(tx repository.Tx) error {
		got, err := tx.Matches(ctx, "2024njfla")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, m, got[0])

		st, err := tx.SyncStatus(ctx, model.TableMatches, "2024njfla")
		require.NoError(t, err)
		assert.True(t, at.Equal(st.Time))
		return nil
	}))

	require.NoError(t, s.Update(ctx, func(tx repository.Tx) error { return tx.DeleteMatches(ctx, "2024njfla") }))
	require.NoError(t, s.View(ctx, func(tx repository.Tx) error {
		got, err := tx.Matches(ctx, "2024njfla")
		require.NoError(t, err)
		assert.Empty(t, got)
		return nil
	}))
}
