// Package fixtures generates synthetic events for tests and demos: an org,
// its event, teams, users, and complete match and pit schedules.
package fixtures

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/model"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/protocol"
)

// Default generation parameters.
const (
	defaultOrgKey      = "frc102"
	defaultEventKey    = "2024njfla"
	defaultTeams       = 30
	defaultUsers       = 12
	defaultMatches     = 40
	defaultStart       = 1709300000
	defaultInterval    = 7 * 60
	unassignedEvery    = 7
	firstTeamNumber    = 25
	teamNumberStride   = 37
	scoutRoleKey       = "scouter"
	matchSlots         = protocol.SlotsPerMatch
	allianceSlots      = protocol.SlotsPerAlliance
	pitSecondaryEvery  = 3
	defaultMatchOffset = 1
)

// Config controls generation.
type Config struct {
	OrgKey     string
	EventKey   string
	Teams      int
	Users      int
	Matches    int
	FirstMatch int
	Start      int64
	Interval   int64
	Seed       uint64
}

// Option mutates a Config.
type Option func(*Config)

// WithSize sets team, user and match counts.
func WithSize(teams, users, matches int) Option {
	return func(c *Config) {
		c.Teams, c.Users, c.Matches = teams, users, matches
	}
}

// WithSeed makes generation reproducible per seed.
func WithSeed(seed uint64) Option {
	return func(c *Config) { c.Seed = seed }
}

// WithFirstMatch sets the first qualifying match number.
func WithFirstMatch(n int) Option {
	return func(c *Config) { c.FirstMatch = n }
}

// Set is one generated event.
type Set struct {
	Org     model.Org
	Event   model.Event
	Teams   []model.TeamLocal
	Users   []model.LightUser
	Matches []model.MatchAssignment
	Pits    []model.PitAssignment
}

// Generate builds a Set. Teams must be at least six for matches to fill.
func Generate(opts ...Option) (*Set, error) {
	cfg := Config{
		OrgKey:     defaultOrgKey,
		EventKey:   defaultEventKey,
		Teams:      defaultTeams,
		Users:      defaultUsers,
		Matches:    defaultMatches,
		FirstMatch: defaultMatchOffset,
		Start:      defaultStart,
		Interval:   defaultInterval,
		Seed:       1,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Matches > 0 && cfg.Teams < matchSlots {
		return nil, fmt.Errorf("fixtures: %d teams cannot fill a match", cfg.Teams)
	}
	year, _ := model.EventYear(cfg.EventKey)
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	s := &Set{
		Org: model.Org{OrgKey: cfg.OrgKey, Nickname: "Gearheads", EventKey: cfg.EventKey, TeamNumber: 102},
		Event: model.Event{
			Key: cfg.EventKey, Name: "FIRST Mid-Atlantic Event", Year: year,
			StartDate: "2024-03-01", EndDate: "2024-03-03",
			Country: "USA", StateProv: "NJ", EventType: "District",
		},
	}
	for i := 0; i < cfg.Teams; i++ {
		n := firstTeamNumber + i*teamNumberStride
		s.Teams = append(s.Teams, model.TeamLocal{Key: model.TeamKey(n), TeamNumber: n, Nickname: fmt.Sprintf("Team %d", n)})
	}
	for i := 0; i < cfg.Users; i++ {
		s.Users = append(s.Users, model.LightUser{ID: 100 + i, Name: fmt.Sprintf("Scout %d", i), OrgKey: cfg.OrgKey, RoleKey: scoutRoleKey})
	}

	// Walking a shuffled team order keeps each match distinct and covers
	// every team once matches*6 reaches the team count.
	order := rng.Perm(cfg.Teams)
	slot := 0
	for m := 0; m < cfg.Matches; m++ {
		number := cfg.FirstMatch + m
		matchKey := model.QualMatchKey(cfg.EventKey, number)
		for k := 0; k < matchSlots; k++ {
			p := order[(m*matchSlots+k)%cfg.Teams]
			alliance := model.AllianceBlue
			if k >= allianceSlots {
				alliance = model.AllianceRed
			}
			team := s.Teams[p].Key
			s.Matches = append(s.Matches, model.MatchAssignment{
				MatchTeamKey:   model.MatchTeamKey(matchKey, team),
				MatchKey:       matchKey,
				EventKey:       cfg.EventKey,
				OrgKey:         cfg.OrgKey,
				Year:           year,
				MatchNumber:    number,
				Time:           cfg.Start + int64(m)*cfg.Interval,
				Alliance:       alliance,
				TeamKey:        team,
				AssignedScorer: s.scouter(slot),
			})
			slot++
		}
	}

	for i, t := range s.Teams {
		pit := model.PitAssignment{OrgKey: cfg.OrgKey, EventKey: cfg.EventKey, TeamKey: t.Key, Primary: s.scouter(i)}
		if i%pitSecondaryEvery == 0 {
			pit.Secondary = s.scouter(i + 1)
		}
		s.Pits = append(s.Pits, pit)
	}
	return s, nil
}

// scouter returns the user for slot i, leaving every seventh slot empty.
func (s *Set) scouter(i int) *model.ScouterRef {
	if len(s.Users) == 0 || i%unassignedEvery == unassignedEvery-1 {
		return nil
	}
	ref := s.Users[i%len(s.Users)].Ref()
	return &ref
}

// Meta returns the metadata message for the set.
func (s *Set) Meta() *protocol.Meta {
	return &protocol.Meta{Org: s.Org, Teams: s.Teams, Users: s.Users, Event: s.Event}
}

// Refs serves the set's teams and users as local reference tables.
func (s *Set) Refs() *Refs {
	r := &Refs{teams: make(map[string]model.TeamLocal), users: make(map[int]model.LightUser)}
	for _, t := range s.Teams {
		r.teams[t.Key] = t
	}
	for _, u := range s.Users {
		r.users[u.ID] = u
	}
	return r
}

// Refs is an in-memory reference table.
type Refs struct {
	teams map[string]model.TeamLocal
	users map[int]model.LightUser
}

// Team implements index.References.
func (r *Refs) Team(_ context.Context, key string) (model.TeamLocal, bool, error) {
	t, ok := r.teams[key]
	return t, ok, nil
}

// User implements index.References.
func (r *Refs) User(_ context.Context, id int) (model.LightUser, bool, error) {
	u, ok := r.users[id]
	return u, ok, nil
}

// Forget drops a user so resolution falls back to the placeholder.
func (r *Refs) Forget(id int) {
	delete(r.users, id)
}
