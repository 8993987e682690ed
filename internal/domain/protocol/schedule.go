package protocol

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/checksum"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/index"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/model"
)

const (
	// SlotsPerMatch is the number of teams in a match.
	SlotsPerMatch = 6
	// SlotsPerAlliance is the number of teams on one alliance.
	SlotsPerAlliance = 3

	matchSep      = ";"
	secondsPerMin = 60
)

type schedWire struct {
	Type     Type     `json:"type"`
	Org      string   `json:"org"`
	Event    string   `json:"event"`
	Year     int      `json:"year"`
	Teams    []string `json:"teams"`
	Scouters []string `json:"scouters"`
	T0       int64    `json:"t0"`
	Start    int      `json:"ms"`
	End      int      `json:"me"`
	MT       string   `json:"mt"`
	AS       string   `json:"as"`
	AC       string   `json:"ac"`
	RT       string   `json:"rt"`
	CS       string   `json:"cs"`
}

// allianceAt returns the alliance of slot k: blue fills 0..2, red 3..5.
func allianceAt(k int) model.Alliance {
	if k < SlotsPerAlliance {
		return model.AllianceBlue
	}
	return model.AllianceRed
}

type matchGroup struct {
	number int
	time   int64
	rows   []model.MatchAssignment
}

// groupMatches validates and orders a schedule: six slots per match,
// blue before red, match numbers contiguous.
func groupMatches(as []model.MatchAssignment) ([]matchGroup, error) {
	byKey := make(map[string]*matchGroup)
	var order []string
	rowKeys := make(map[string]struct{}, len(as))
	teamKeys := make(map[string]struct{}, len(as))
	for i := range as {
		a := as[i]
		g, ok := byKey[a.MatchKey]
		if !ok {
			g = &matchGroup{number: a.MatchNumber, time: a.Time}
			byKey[a.MatchKey] = g
			order = append(order, a.MatchKey)
		}
		if a.MatchNumber != g.number {
			return nil, fmt.Errorf("%w: %s has match numbers %d and %d", ErrMalformedMatch, a.MatchKey, g.number, a.MatchNumber)
		}
		if _, dup := rowKeys[a.MatchTeamKey]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, a.MatchTeamKey)
		}
		rowKeys[a.MatchTeamKey] = struct{}{}
		if _, dup := teamKeys[a.MatchKey+"/"+a.TeamKey]; dup {
			return nil, fmt.Errorf("%w: %s lists %s twice", ErrDuplicateKey, a.MatchKey, a.TeamKey)
		}
		teamKeys[a.MatchKey+"/"+a.TeamKey] = struct{}{}
		g.rows = append(g.rows, a)
	}

	groups := make([]matchGroup, 0, len(order))
	for _, key := range order {
		g := byKey[key]
		var blue, red int
		for _, r := range g.rows {
			switch r.Alliance {
			case model.AllianceBlue:
				blue++
			case model.AllianceRed:
				red++
			}
		}
		if len(g.rows) != SlotsPerMatch || blue != SlotsPerAlliance || red != SlotsPerAlliance {
			return nil, fmt.Errorf("%w: %s has %d rows (%d blue, %d red)", ErrMalformedMatch, key, len(g.rows), blue, red)
		}
		sort.SliceStable(g.rows, func(i, j int) bool {
			return g.rows[i].Alliance == model.AllianceBlue && g.rows[j].Alliance != model.AllianceBlue
		})
		groups = append(groups, *g)
	}

	sort.SliceStable(groups, func(i, j int) bool { return groups[i].number < groups[j].number })
	for i, g := range groups {
		if want := groups[0].number + i; g.number != want {
			return nil, fmt.Errorf("%w: expected match %d, found %d", ErrNonContiguous, want, g.number)
		}
	}
	return groups, nil
}

func scouterKey(r *model.ScouterRef) string {
	if r == nil {
		return ""
	}
	return index.ScouterKey(r.ID)
}

func encodeMatchSchedule(as []model.MatchAssignment, prefixLen int) (*schedWire, error) {
	if len(as) == 0 {
		return nil, fmt.Errorf("%w: empty match schedule", ErrEmpty)
	}
	org, event, year := as[0].OrgKey, as[0].EventKey, as[0].Year

	teamKeys := make([]string, 0, len(as))
	scouterKeys := make([]string, 0, 2*len(as))
	for i := range as {
		a := &as[i]
		if a.OrgKey != org || a.EventKey != event {
			return nil, fmt.Errorf("%w: %s", ErrMixedScope, a.MatchTeamKey)
		}
		num, ok := model.TeamNumber(a.TeamKey)
		if !ok {
			return nil, fmt.Errorf("%w: team %q", index.ErrBadKey, a.TeamKey)
		}
		teamKeys = append(teamKeys, num)
		scouterKeys = append(scouterKeys, scouterKey(a.AssignedScorer), scouterKey(a.ActualScorer))
	}
	teams, err := index.Build(teamKeys)
	if err != nil {
		return nil, fmt.Errorf("teams: %w", err)
	}
	scouters, err := index.Build(scouterKeys)
	if err != nil {
		return nil, fmt.Errorf("scouters: %w", err)
	}

	groups, err := groupMatches(as)
	if err != nil {
		return nil, err
	}

	w := &schedWire{
		Type:     TypeMatchSchedule,
		Org:      org,
		Event:    event,
		Year:     year,
		Teams:    teams.Keys(),
		Scouters: scouters.Keys(),
		T0:       groups[0].time,
		Start:    groups[0].number,
		End:      groups[len(groups)-1].number,
	}

	mt := make([]string, len(groups))
	assigned := make([]string, len(groups))
	actual := make([]string, len(groups))
	rel := make([]string, len(groups))
	transmitted := make([]model.MatchAssignment, 0, len(as))
	for gi, g := range groups {
		idx := make([]index.Index, SlotsPerMatch)
		asl := make([]index.Slot, SlotsPerMatch)
		acl := make([]index.Slot, SlotsPerMatch)
		minutes := (g.time - w.T0) / secondsPerMin
		matchKey := model.QualMatchKey(event, g.number)
		for k, r := range g.rows {
			num, _ := model.TeamNumber(r.TeamKey)
			if idx[k], err = teams.Index(num); err != nil {
				return nil, err
			}
			if asl[k], err = scouters.Slot(scouterKey(r.AssignedScorer)); err != nil {
				return nil, err
			}
			if acl[k], err = scouters.Slot(scouterKey(r.ActualScorer)); err != nil {
				return nil, err
			}
			transmitted = append(transmitted, model.MatchAssignment{
				MatchTeamKey:   model.MatchTeamKey(matchKey, r.TeamKey),
				TeamKey:        r.TeamKey,
				MatchNumber:    g.number,
				Time:           w.T0 + minutes*secondsPerMin,
				Alliance:       allianceAt(k),
				AssignedScorer: r.AssignedScorer,
				ActualScorer:   r.ActualScorer,
			})
		}
		mt[gi] = index.WriteIndexes(idx)
		assigned[gi] = index.WriteSlots(asl)
		actual[gi] = index.WriteSlots(acl)
		rel[gi] = strconv.FormatInt(minutes, 10)
	}
	w.MT = strings.Join(mt, matchSep)
	w.AS = strings.Join(assigned, matchSep)
	w.AC = strings.Join(actual, matchSep)
	w.RT = strings.Join(rel, matchSep)

	sum, err := checksum.Match(matchRows(transmitted))
	if err != nil {
		return nil, err
	}
	w.CS = sum.Prefix(prefixLen)
	return w, nil
}

func decodeMatchSchedule(ctx context.Context, w *schedWire, r *index.Resolver) (*MatchSchedule, error) {
	teams, err := index.FromWire(w.Teams)
	if err != nil {
		return nil, fmt.Errorf("%w: teams: %w", ErrMalformed, err)
	}
	scouters, err := index.FromWire(w.Scouters)
	if err != nil {
		return nil, fmt.Errorf("%w: scouters: %w", ErrMalformed, err)
	}
	mt := splitMatches(w.MT)
	as := splitMatches(w.AS)
	ac := splitMatches(w.AC)
	rt := splitMatches(w.RT)
	if len(mt) == 0 || len(as) != len(mt) || len(ac) != len(mt) || len(rt) != len(mt) {
		return nil, fmt.Errorf("%w: per-match fields disagree (%d, %d, %d, %d)", ErrMalformed, len(mt), len(as), len(ac), len(rt))
	}

	b := r.Bind(teams, scouters)
	out := &MatchSchedule{OrgKey: w.Org, EventKey: w.Event, Year: w.Year}
	out.Assignments = make([]model.MatchAssignment, 0, len(mt)*SlotsPerMatch)
	last := w.Start - 1
	for i := range mt {
		idx, err := index.ReadIndexes(mt[i], SlotsPerMatch)
		if err != nil {
			return nil, fmt.Errorf("match %d teams: %w", i, err)
		}
		asl, err := index.ReadSlots(as[i], SlotsPerMatch)
		if err != nil {
			return nil, fmt.Errorf("match %d assigned: %w", i, err)
		}
		acl, err := index.ReadSlots(ac[i], SlotsPerMatch)
		if err != nil {
			return nil, fmt.Errorf("match %d actual: %w", i, err)
		}
		minutes, err := strconv.ParseInt(rt[i], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: relative time %q", ErrMalformed, rt[i])
		}

		for k := 1; k < SlotsPerMatch; k++ {
			for j := 0; j < k; j++ {
				if idx[j] == idx[k] {
					return nil, fmt.Errorf("%w: match %d lists team index %s twice", ErrStructure, w.Start+i, idx[k])
				}
			}
		}

		number := w.Start + i
		matchKey := model.QualMatchKey(w.Event, number)
		for k := 0; k < SlotsPerMatch; k++ {
			team, err := b.Team(ctx, idx[k])
			if err != nil {
				return nil, err
			}
			assigned, err := b.Scouter(ctx, asl[k])
			if err != nil {
				return nil, err
			}
			actual, err := b.Scouter(ctx, acl[k])
			if err != nil {
				return nil, err
			}
			out.Assignments = append(out.Assignments, model.MatchAssignment{
				MatchTeamKey:   model.MatchTeamKey(matchKey, team.TeamKey),
				MatchKey:       matchKey,
				EventKey:       w.Event,
				OrgKey:         w.Org,
				Year:           w.Year,
				MatchNumber:    number,
				Time:           w.T0 + minutes*secondsPerMin,
				Alliance:       allianceAt(k),
				TeamKey:        team.TeamKey,
				AssignedScorer: assigned,
				ActualScorer:   actual,
			})
		}
		last = number
	}
	if last != w.End {
		return nil, fmt.Errorf("%w: last match %d, declared end %d", ErrStructure, last, w.End)
	}

	sum, err := checksum.Match(matchRows(out.Assignments))
	if err != nil {
		return nil, err
	}
	if err := sum.Verify(w.CS); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrChecksumMismatch, err)
	}
	return out, nil
}

func splitMatches(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, matchSep)
}

func scouterID(r *model.ScouterRef) int {
	if r == nil {
		return checksum.NoScouter
	}
	return r.ID
}

func matchRows(as []model.MatchAssignment) []checksum.MatchRow {
	rows := make([]checksum.MatchRow, len(as))
	for i := range as {
		a := &as[i]
		rows[i] = checksum.MatchRow{
			MatchTeamKey: a.MatchTeamKey,
			TeamKey:      a.TeamKey,
			MatchNumber:  a.MatchNumber,
			Time:         a.Time,
			Alliance:     string(a.Alliance),
			Assigned:     scouterID(a.AssignedScorer),
			Actual:       scouterID(a.ActualScorer),
		}
	}
	return rows
}
