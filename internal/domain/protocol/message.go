// Package protocol encodes and decodes the five QR exchange messages.
//
// Each message is a small JSON record tagged by "type". Records are
// compressed and rendered as base64 by Wire. Teams and scouters inside
// schedules travel as 2-digit positions into lists sent alongside them.
package protocol

import (
	"encoding/json"

	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/model"
)

// Type is a message tag.
type Type string

// Message tags.
const (
	TypeMeta          Type = "meta"
	TypeMatchSchedule Type = "sched"
	TypePitSchedule   Type = "pitsched"
	TypeMatchResult   Type = "1matchdata"
	TypePitResult     Type = "1pitdata"
)

// Message is a decoded message.
type Message interface {
	Type() Type
}

// Meta carries the org context a fresh device needs first.
type Meta struct {
	Org   model.Org         `json:"org"`
	Teams []model.TeamLocal `json:"teams"`
	Users []model.LightUser `json:"users"`
	Event model.Event       `json:"event"`
}

// MatchSchedule is an event's full match-scouting schedule.
type MatchSchedule struct {
	OrgKey      string                  `json:"org_key"`
	EventKey    string                  `json:"event_key"`
	Year        int                     `json:"year"`
	Assignments []model.MatchAssignment `json:"assignments"`
}

// PitSchedule is an event's full pit-scouting schedule.
type PitSchedule struct {
	OrgKey      string                `json:"org_key"`
	EventKey    string                `json:"event_key"`
	Assignments []model.PitAssignment `json:"assignments"`
}

// MatchResult is one completed match-scouting record.
type MatchResult struct {
	MatchTeamKey string            `json:"match_team_key"`
	ActualScorer *model.ScouterRef `json:"actual_scorer,omitempty"`
	Data         model.Payload     `json:"data,omitempty"`
	Completed    bool              `json:"completed"`
	Synced       bool              `json:"synced"`
}

// PitResult is one completed pit-scouting record.
type PitResult struct {
	Key           model.PitKey      `json:"key"`
	ActualScouter *model.ScouterRef `json:"actual_scouter,omitempty"`
	Data          model.Payload     `json:"data,omitempty"`
	Completed     bool              `json:"completed"`
	Synced        bool              `json:"synced"`
}

func (*Meta) Type() Type          { return TypeMeta }
func (*MatchSchedule) Type() Type { return TypeMatchSchedule }
func (*PitSchedule) Type() Type   { return TypePitSchedule }
func (*MatchResult) Type() Type   { return TypeMatchResult }
func (*PitResult) Type() Type     { return TypePitResult }

// MatchResultOf extracts the single-result view of a completed assignment.
func MatchResultOf(a *model.MatchAssignment) *MatchResult {
	return &MatchResult{
		MatchTeamKey: a.MatchTeamKey,
		ActualScorer: a.ActualScorer,
		Data:         a.Data,
		Completed:    a.Completed,
		Synced:       a.Synced,
	}
}

// PitResultOf extracts the single-result view of a completed pit assignment.
func PitResultOf(a *model.PitAssignment) *PitResult {
	return &PitResult{
		Key:           a.Key(),
		ActualScouter: a.ActualScouter,
		Data:          a.Data,
		Completed:     a.Completed,
		Synced:        a.Synced,
	}
}

// flag is a boolean sent as 0/1 and read back by truthiness.
type flag bool

func (f flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

func (f *flag) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*f = false
	case bool:
		*f = flag(t)
	case float64:
		*f = t != 0
	case string:
		*f = t != ""
	default:
		*f = true
	}
	return nil
}

// envelope reads only the tag of a record.
type envelope struct {
	Type Type `json:"type"`
}
