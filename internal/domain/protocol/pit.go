package protocol

import (
	"context"
	"fmt"

	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/checksum"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/index"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/model"
)

type pitSchedWire struct {
	Type     Type     `json:"type"`
	Org      string   `json:"org"`
	Event    string   `json:"event"`
	Teams    []string `json:"teams"`
	Scouters []string `json:"scouters"`
	PT       string   `json:"pt"`
	P1       string   `json:"p1"`
	P2       string   `json:"p2"`
	P3       string   `json:"p3"`
	PA       string   `json:"pa"`
	CS       string   `json:"cs"`
}

func encodePitSchedule(as []model.PitAssignment, prefixLen int) (*pitSchedWire, error) {
	if len(as) == 0 {
		return nil, fmt.Errorf("%w: empty pit schedule", ErrEmpty)
	}
	org, event := as[0].OrgKey, as[0].EventKey

	seen := make(map[string]struct{}, len(as))
	teamKeys := make([]string, 0, len(as))
	scouterKeys := make([]string, 0, 4*len(as))
	for i := range as {
		a := &as[i]
		if a.OrgKey != org || a.EventKey != event {
			return nil, fmt.Errorf("%w: %s", ErrMixedScope, a.TeamKey)
		}
		if _, dup := seen[a.TeamKey]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, a.TeamKey)
		}
		seen[a.TeamKey] = struct{}{}
		num, ok := model.TeamNumber(a.TeamKey)
		if !ok {
			return nil, fmt.Errorf("%w: team %q", index.ErrBadKey, a.TeamKey)
		}
		teamKeys = append(teamKeys, num)
		scouterKeys = append(scouterKeys,
			scouterKey(a.Primary), scouterKey(a.Secondary), scouterKey(a.Tertiary), scouterKey(a.ActualScouter))
	}
	teams, err := index.Build(teamKeys)
	if err != nil {
		return nil, fmt.Errorf("teams: %w", err)
	}
	scouters, err := index.Build(scouterKeys)
	if err != nil {
		return nil, fmt.Errorf("scouters: %w", err)
	}

	n := len(as)
	pt := make([]index.Index, n)
	roles := [4][]index.Slot{make([]index.Slot, n), make([]index.Slot, n), make([]index.Slot, n), make([]index.Slot, n)}
	for i := range as {
		a := &as[i]
		num, _ := model.TeamNumber(a.TeamKey)
		if pt[i], err = teams.Index(num); err != nil {
			return nil, err
		}
		for r, ref := range []*model.ScouterRef{a.Primary, a.Secondary, a.Tertiary, a.ActualScouter} {
			if roles[r][i], err = scouters.Slot(scouterKey(ref)); err != nil {
				return nil, err
			}
		}
	}

	sum, err := checksum.Pit(pitRows(as))
	if err != nil {
		return nil, err
	}
	return &pitSchedWire{
		Type:     TypePitSchedule,
		Org:      org,
		Event:    event,
		Teams:    teams.Keys(),
		Scouters: scouters.Keys(),
		PT:       index.WriteIndexes(pt),
		P1:       index.WriteSlots(roles[0]),
		P2:       index.WriteSlots(roles[1]),
		P3:       index.WriteSlots(roles[2]),
		PA:       index.WriteSlots(roles[3]),
		CS:       sum.Prefix(prefixLen),
	}, nil
}

func decodePitSchedule(ctx context.Context, w *pitSchedWire, r *index.Resolver) (*PitSchedule, error) {
	teams, err := index.FromWire(w.Teams)
	if err != nil {
		return nil, fmt.Errorf("%w: teams: %w", ErrMalformed, err)
	}
	scouters, err := index.FromWire(w.Scouters)
	if err != nil {
		return nil, fmt.Errorf("%w: scouters: %w", ErrMalformed, err)
	}
	if len(w.PT) == 0 || len(w.PT)%index.Width != 0 {
		return nil, fmt.Errorf("%w: pit team field has %d chars", ErrMalformed, len(w.PT))
	}
	n := len(w.PT) / index.Width
	pt, err := index.ReadIndexes(w.PT, n)
	if err != nil {
		return nil, err
	}
	var roles [4][]index.Slot
	for i, s := range []string{w.P1, w.P2, w.P3, w.PA} {
		if roles[i], err = index.ReadSlots(s, n); err != nil {
			return nil, fmt.Errorf("%w: role %d: %w", ErrStructure, i, err)
		}
	}

	b := r.Bind(teams, scouters)
	out := &PitSchedule{OrgKey: w.Org, EventKey: w.Event, Assignments: make([]model.PitAssignment, n)}
	for i := 0; i < n; i++ {
		team, err := b.Team(ctx, pt[i])
		if err != nil {
			return nil, err
		}
		var refs [4]*model.ScouterRef
		for role := range refs {
			if refs[role], err = b.Scouter(ctx, roles[role][i]); err != nil {
				return nil, err
			}
		}
		out.Assignments[i] = model.PitAssignment{
			OrgKey:        w.Org,
			EventKey:      w.Event,
			TeamKey:       team.TeamKey,
			Primary:       refs[0],
			Secondary:     refs[1],
			Tertiary:      refs[2],
			ActualScouter: refs[3],
		}
	}

	sum, err := checksum.Pit(pitRows(out.Assignments))
	if err != nil {
		return nil, err
	}
	if err := sum.Verify(w.CS); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrChecksumMismatch, err)
	}
	return out, nil
}

func pitRows(as []model.PitAssignment) []checksum.PitRow {
	rows := make([]checksum.PitRow, len(as))
	for i := range as {
		a := &as[i]
		rows[i] = checksum.PitRow{
			OrgKey:    a.OrgKey,
			EventKey:  a.EventKey,
			TeamKey:   a.TeamKey,
			Primary:   scouterID(a.Primary),
			Secondary: scouterID(a.Secondary),
			Tertiary:  scouterID(a.Tertiary),
			Actual:    scouterID(a.ActualScouter),
		}
	}
	return rows
}
