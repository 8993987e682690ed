package model

// ScorePlaceholder marks a score that has not been reported.
const ScorePlaceholder = -1

// AllianceView lists one alliance's teams in a match.
type AllianceView struct {
	TeamKeys []string `json:"team_keys"`
	Score    int      `json:"score"`
}

// Alliances groups both sides of a match.
type Alliances struct {
	Blue AllianceView `json:"blue"`
	Red  AllianceView `json:"red"`
}

// Match is the lightweight per-match view rebuilt from match assignments.
type Match struct {
	Key         string    `json:"key"`
	EventKey    string    `json:"event_key"`
	CompLevel   string    `json:"comp_level"`
	MatchNumber int       `json:"match_number"`
	Time        int64     `json:"time"`
	Alliances   Alliances `json:"alliances"`
}
