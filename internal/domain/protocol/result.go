package protocol

import (
	"fmt"

	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/model"
)

type matchResultWire struct {
	Type      Type              `json:"type"`
	Key       string            `json:"k"`
	Actual    *model.ScouterRef `json:"a,omitempty"`
	Data      model.Payload     `json:"d,omitempty"`
	Completed flag              `json:"c"`
	Synced    flag              `json:"s"`
}

type pitResultWire struct {
	Type      Type              `json:"type"`
	Org       string            `json:"o"`
	Event     string            `json:"e"`
	Team      string            `json:"t"`
	Actual    *model.ScouterRef `json:"a,omitempty"`
	Data      model.Payload     `json:"d,omitempty"`
	Completed flag              `json:"c"`
	Synced    flag              `json:"s"`
}

func encodeMatchResult(r *MatchResult) (*matchResultWire, error) {
	if r.MatchTeamKey == "" {
		return nil, fmt.Errorf("%w: result without match_team_key", ErrEmpty)
	}
	return &matchResultWire{
		Type:      TypeMatchResult,
		Key:       r.MatchTeamKey,
		Actual:    r.ActualScorer,
		Data:      r.Data,
		Completed: flag(r.Completed),
		Synced:    flag(r.Synced),
	}, nil
}

func decodeMatchResult(w *matchResultWire) (*MatchResult, error) {
	if w.Key == "" {
		return nil, fmt.Errorf("%w: result without key", ErrMalformed)
	}
	return &MatchResult{
		MatchTeamKey: w.Key,
		ActualScorer: w.Actual,
		Data:         w.Data,
		Completed:    bool(w.Completed),
		Synced:       bool(w.Synced),
	}, nil
}

func encodePitResult(r *PitResult) (*pitResultWire, error) {
	if r.Key.OrgKey == "" || r.Key.EventKey == "" || r.Key.TeamKey == "" {
		return nil, fmt.Errorf("%w: pit result key %+v incomplete", ErrEmpty, r.Key)
	}
	return &pitResultWire{
		Type:      TypePitResult,
		Org:       r.Key.OrgKey,
		Event:     r.Key.EventKey,
		Team:      r.Key.TeamKey,
		Actual:    r.ActualScouter,
		Data:      r.Data,
		Completed: flag(r.Completed),
		Synced:    flag(r.Synced),
	}, nil
}

func decodePitResult(w *pitResultWire) (*PitResult, error) {
	if w.Org == "" || w.Event == "" || w.Team == "" {
		return nil, fmt.Errorf("%w: pit result key incomplete", ErrMalformed)
	}
	return &PitResult{
		Key:           model.PitKey{OrgKey: w.Org, EventKey: w.Event, TeamKey: w.Team},
		ActualScouter: w.Actual,
		Data:          w.Data,
		Completed:     bool(w.Completed),
		Synced:        bool(w.Synced),
	}, nil
}
