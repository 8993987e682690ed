package importer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/adapters/repository"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/importer"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/model"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/protocol"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/fixtures"
	"github.com/FIRSTTeam102/scoutradioz-sub000/pkg/logger"
)

var fixedNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newImporter(store repository.Store) *importer.Importer {
	return importer.New(store,
		importer.WithLogger(logger.Nop()),
		importer.WithClock(func() time.Time { return fixedNow }))
}

func schedule(set *fixtures.Set) *protocol.MatchSchedule {
	rows := make([]model.MatchAssignment, len(set.Matches))
	copy(rows, set.Matches)
	return &protocol.MatchSchedule{OrgKey: set.Org.OrgKey, EventKey: set.Event.Key, Year: set.Event.Year, Assignments: rows}
}

func TestMetaImport(t *testing.T) {
	Convey("Given an empty store", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		im := newImporter(store)
		set, err := fixtures.Generate(fixtures.WithSize(3, 2, 0))
		So(err, ShouldBeNil)

		Convey("When metadata is imported", func() {
			st, err := im.Import(ctx, set.Meta())
			So(err, ShouldBeNil)
			So(st.Rows, ShouldEqual, 7)

			Convey("Then every table is filled and marked synced", func() {
				_ = store.View(ctx, func(tx repository.Tx) error {
					org, err := tx.Org(ctx, "frc102")
					So(err, ShouldBeNil)
					So(org.EventKey, ShouldEqual, set.Event.Key)
					teams, _ := tx.Teams(ctx)
					So(teams, ShouldHaveLength, 3)
					users, _ := tx.Users(ctx, "frc102")
					So(users, ShouldHaveLength, 2)
					ev, err := tx.Event(ctx, set.Event.Key)
					So(err, ShouldBeNil)
					So(ev.Year, ShouldEqual, 2024)
					sync, err := tx.SyncStatus(ctx, model.TableTeams, set.Event.Key)
					So(err, ShouldBeNil)
					So(sync.Time, ShouldEqual, fixedNow)
					return nil
				})
			})
		})

		Convey("When the org already exists with a rich configuration", func() {
			So(store.Update(ctx, func(tx repository.Tx) error {
				return tx.PutOrg(ctx, model.Org{OrgKey: "frc102", Nickname: "Old", EventKey: "2023njfla", TeamNumber: 102,
					Config: model.Payload{"members": map[string]any{"subteams": []any{"build"}}}})
			}), ShouldBeNil)

			_, err := im.Import(ctx, set.Meta())
			So(err, ShouldBeNil)

			Convey("Then only display fields change", func() {
				_ = store.View(ctx, func(tx repository.Tx) error {
					org, _ := tx.Org(ctx, "frc102")
					So(org.EventKey, ShouldEqual, set.Event.Key)
					So(org.Nickname, ShouldEqual, set.Org.Nickname)
					So(org.Config, ShouldContainKey, "members")
					return nil
				})
			})
		})
	})
}

func TestMatchScheduleImport(t *testing.T) {
	Convey("Given a store holding a scouted match row", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		im := newImporter(store)
		set, err := fixtures.Generate(fixtures.WithSize(12, 4, 4))
		So(err, ShouldBeNil)

		_, err = im.Import(ctx, schedule(set))
		So(err, ShouldBeNil)

		target := set.Matches[2].MatchTeamKey
		ada := model.ScouterRef{ID: 100, Name: "Scout 0"}
		So(store.Update(ctx, func(tx repository.Tx) error {
			return tx.UpdateMatchResult(ctx, target, repository.Result{Actual: &ada, Data: model.Payload{"shots": 5}, Completed: true})
		}), ShouldBeNil)

		Convey("When a freshly fetched schedule is imported again", func() {
			fresh := schedule(set)
			bob := model.ScouterRef{ID: 103, Name: "Scout 3"}
			fresh.Assignments[2].AssignedScorer = &bob
			st, err := im.Import(ctx, fresh)

			Convey("Then the local data survives and metadata refreshes", func() {
				So(err, ShouldBeNil)
				So(st.Rows, ShouldEqual, 24)
				So(st.Preserved, ShouldEqual, 1)
				_ = store.View(ctx, func(tx repository.Tx) error {
					row, err := tx.MatchAssignment(ctx, target)
					So(err, ShouldBeNil)
					So(row.Data, ShouldResemble, model.Payload{"shots": 5})
					So(row.Completed, ShouldBeTrue)
					So(*row.ActualScorer, ShouldResemble, ada)
					So(*row.AssignedScorer, ShouldResemble, bob)
					return nil
				})
			})
		})

		Convey("Then the match view is rebuilt with placeholder scores", func() {
			_ = store.View(ctx, func(tx repository.Tx) error {
				matches, err := tx.Matches(ctx, set.Event.Key)
				So(err, ShouldBeNil)
				So(matches, ShouldHaveLength, 4)
				m := matches[0]
				So(m.Key, ShouldEqual, set.Event.Key+"_qm1")
				So(m.CompLevel, ShouldEqual, "qm")
				So(m.Alliances.Blue.TeamKeys, ShouldHaveLength, 3)
				So(m.Alliances.Red.TeamKeys, ShouldHaveLength, 3)
				So(m.Alliances.Red.Score, ShouldEqual, model.ScorePlaceholder)
				return nil
			})
		})

		Convey("When an incoming match has an incomplete alliance", func() {
			bad := schedule(set)
			bad.Assignments[0].Alliance = model.AllianceRed
			bad.Assignments[2].Data = model.Payload{"x": 1}
			_, err := im.Import(ctx, bad)

			Convey("Then nothing is written", func() {
				So(errors.Is(err, importer.ErrIncompleteAlliance), ShouldBeTrue)
				_ = store.View(ctx, func(tx repository.Tx) error {
					row, _ := tx.MatchAssignment(ctx, set.Matches[0].MatchTeamKey)
					So(row.Alliance, ShouldEqual, model.AllianceBlue)
					return nil
				})
			})
		})
	})
}

func TestPitScheduleImport(t *testing.T) {
	Convey("Given a store holding a scouted pit row", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		im := newImporter(store)
		set, _ := fixtures.Generate(fixtures.WithSize(6, 3, 1))
		pits := &protocol.PitSchedule{OrgKey: set.Org.OrgKey, EventKey: set.Event.Key, Assignments: set.Pits}
		_, err := im.Import(ctx, pits)
		So(err, ShouldBeNil)

		key := set.Pits[1].Key()
		_, err = im.Import(ctx, &protocol.PitResult{Key: key, Data: model.Payload{"drivetrain": "swerve"}, Completed: true})
		So(err, ShouldBeNil)

		Convey("When the pit schedule is imported again", func() {
			st, err := im.Import(ctx, pits)

			Convey("Then the scouted row keeps its data", func() {
				So(err, ShouldBeNil)
				So(st.Preserved, ShouldEqual, 1)
				_ = store.View(ctx, func(tx repository.Tx) error {
					row, _ := tx.PitAssignment(ctx, key)
					So(row.Data["drivetrain"], ShouldEqual, "swerve")
					So(row.Completed, ShouldBeTrue)
					return nil
				})
			})
		})
	})
}

func TestSingleResultImport(t *testing.T) {
	Convey("Given a store with a match schedule", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		im := newImporter(store)
		set, _ := fixtures.Generate(fixtures.WithSize(6, 2, 1))
		_, err := im.Import(ctx, schedule(set))
		So(err, ShouldBeNil)

		Convey("When a result names a missing row", func() {
			_, err := im.Import(ctx, &protocol.MatchResult{MatchTeamKey: set.Event.Key + "_qm9_frc1", Data: model.Payload{"shots": 1}, Completed: true})

			Convey("Then it is rejected and nothing is created", func() {
				So(errors.Is(err, importer.ErrTargetNotFound), ShouldBeTrue)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				_ = store.View(ctx, func(tx repository.Tx) error {
					rows, _ := tx.MatchAssignments(ctx, set.Org.OrgKey, set.Event.Key)
					So(rows, ShouldHaveLength, 6)
					_, err := tx.MatchAssignment(ctx, set.Event.Key+"_qm9_frc1")
					So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
					return nil
				})
			})
		})

		Convey("When a result names an existing row", func() {
			target := set.Matches[0]
			ref := model.ScouterRef{ID: 101, Name: "Scout 1"}
			_, err := im.Import(ctx, &protocol.MatchResult{MatchTeamKey: target.MatchTeamKey, ActualScorer: &ref, Data: model.Payload{"shots": 3}, Completed: true, Synced: true})

			Convey("Then only the carried fields are overwritten", func() {
				So(err, ShouldBeNil)
				_ = store.View(ctx, func(tx repository.Tx) error {
					row, _ := tx.MatchAssignment(ctx, target.MatchTeamKey)
					So(row.Data, ShouldResemble, model.Payload{"shots": 3})
					So(row.Synced, ShouldBeTrue)
					So(*row.ActualScorer, ShouldResemble, ref)
					So(row.TeamKey, ShouldEqual, target.TeamKey)
					So(row.Time, ShouldEqual, target.Time)
					So(row.AssignedScorer, ShouldResemble, target.AssignedScorer)
					return nil
				})
			})
		})

		Convey("When a pit result has no pit schedule", func() {
			_, err := im.Import(ctx, &protocol.PitResult{Key: model.PitKey{OrgKey: "frc102", EventKey: set.Event.Key, TeamKey: "frc25"}})
			So(errors.Is(err, importer.ErrTargetNotFound), ShouldBeTrue)
		})
	})
}

func TestBuildMatches(t *testing.T) {
	Convey("Given assignments with an unknown alliance", t, func() {
		_, err := importer.BuildMatches([]model.MatchAssignment{{MatchKey: "k", Alliance: "green"}})
		So(errors.Is(err, importer.ErrIncompleteAlliance), ShouldBeTrue)
	})

	Convey("Given a match that lists one team twice", t, func() {
		set, err := fixtures.Generate(fixtures.WithSize(12, 2, 1))
		So(err, ShouldBeNil)

		Convey("When only the team key repeats", func() {
			rows := append([]model.MatchAssignment(nil), set.Matches...)
			rows[2].TeamKey = rows[1].TeamKey
			_, err := importer.BuildMatches(rows)
			So(errors.Is(err, importer.ErrDuplicateTeam), ShouldBeTrue)
		})

		Convey("When the match-team key repeats as well", func() {
			rows := append([]model.MatchAssignment(nil), set.Matches...)
			rows[2].TeamKey = rows[1].TeamKey
			rows[2].MatchTeamKey = rows[1].MatchTeamKey
			_, err := importer.BuildMatches(rows)
			So(errors.Is(err, importer.ErrDuplicateTeam), ShouldBeTrue)
		})
	})
}

func TestMatchScheduleImportRejectsRepeatedTeam(t *testing.T) {
	Convey("Given an empty store", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		im := newImporter(store)
		set, err := fixtures.Generate(fixtures.WithSize(12, 2, 3))
		So(err, ShouldBeNil)

		Convey("When a schedule repeats a team within a match", func() {
			bad := schedule(set)
			bad.Assignments[2].TeamKey = bad.Assignments[1].TeamKey
			bad.Assignments[2].MatchTeamKey = bad.Assignments[1].MatchTeamKey
			_, err := im.Import(ctx, bad)

			Convey("Then nothing is stored", func() {
				So(errors.Is(err, importer.ErrDuplicateTeam), ShouldBeTrue)
				_ = store.View(ctx, func(tx repository.Tx) error {
					rows, _ := tx.MatchAssignments(ctx, set.Org.OrgKey, set.Event.Key)
					So(rows, ShouldBeEmpty)
					matches, _ := tx.Matches(ctx, set.Event.Key)
					So(matches, ShouldBeEmpty)
					return nil
				})
			})
		})
	})
}
