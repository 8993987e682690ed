package model

import "strconv"

// Alliance is the side of a match a team plays on.
type Alliance string

// Alliances. Blue always precedes red in encoded slot order.
const (
	AllianceBlue Alliance = "blue"
	AllianceRed  Alliance = "red"
)

// Payload is free-form collected scouting data.
type Payload map[string]any

// IsEmpty reports whether no data has been collected.
func (p Payload) IsEmpty() bool { return len(p) == 0 }

// ScouterRef identifies a person.
type ScouterRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// TeamRef identifies a team.
type TeamRef struct {
	TeamKey  string `json:"team_key"`
	TeamName string `json:"team_name"`
}

// MatchAssignment pairs one team in one match with its scorers. Exactly six
// assignments share a MatchKey.
type MatchAssignment struct {
	MatchTeamKey   string      `json:"match_team_key"`
	MatchKey       string      `json:"match_key"`
	EventKey       string      `json:"event_key"`
	OrgKey         string      `json:"org_key"`
	Year           int         `json:"year"`
	MatchNumber    int         `json:"match_number"`
	Time           int64       `json:"time"`
	Alliance       Alliance    `json:"alliance"`
	TeamKey        string      `json:"team_key"`
	AssignedScorer *ScouterRef `json:"assigned_scorer,omitempty"`
	ActualScorer   *ScouterRef `json:"actual_scorer,omitempty"`
	Data           Payload     `json:"data,omitempty"`
	Completed      bool        `json:"completed,omitempty"`
	Synced         bool        `json:"synced,omitempty"`
}

// PitKey is the natural key of a pit assignment.
type PitKey struct {
	OrgKey   string `json:"org_key"`
	EventKey string `json:"event_key"`
	TeamKey  string `json:"team_key"`
}

// PitAssignment pairs a team at an event with up to three pit scouters.
type PitAssignment struct {
	OrgKey        string      `json:"org_key"`
	EventKey      string      `json:"event_key"`
	TeamKey       string      `json:"team_key"`
	Primary       *ScouterRef `json:"primary,omitempty"`
	Secondary     *ScouterRef `json:"secondary,omitempty"`
	Tertiary      *ScouterRef `json:"tertiary,omitempty"`
	ActualScouter *ScouterRef `json:"actual_scouter,omitempty"`
	Data          Payload     `json:"data,omitempty"`
	Completed     bool        `json:"completed,omitempty"`
	Synced        bool        `json:"synced,omitempty"`
}

// Key returns the natural key of p.
func (p PitAssignment) Key() PitKey {
	return PitKey{OrgKey: p.OrgKey, EventKey: p.EventKey, TeamKey: p.TeamKey}
}

// QualMatchKey builds the key of a qualifying match, e.g. 2024njfla_qm12.
func QualMatchKey(eventKey string, matchNumber int) string {
	return eventKey + "_qm" + strconv.Itoa(matchNumber)
}

// MatchTeamKey builds the natural key of a match assignment.
func MatchTeamKey(matchKey, teamKey string) string {
	return matchKey + "_" + teamKey
}
