// Package model contains domain models passed between layers.
package model

import (
	"strconv"
	"strings"
	"time"
)

// Local Store table names.
const (
	TableEvents        = "events"
	TableTeams         = "teams"
	TableUsers         = "lightusers"
	TableOrgs          = "orgs"
	TableMatchScouting = "matchscouting"
	TablePitScouting   = "pitscouting"
	TableMatches       = "matches"
	TableSyncStatus    = "syncstatus"
)

const teamKeyPrefix = "frc"

// Org is an organization as known to this device. Config holds the rich
// org configuration, which only exists on devices that authenticated
// into the org; metadata imports never replace it.
type Org struct {
	OrgKey   string `json:"org_key"`
	Nickname string `json:"nickname"`
	EventKey string `json:"event_key"`
	// TeamNumber is set for single-team orgs, TeamNumbers for multi-team orgs.
	TeamNumber  int     `json:"team_number,omitempty"`
	TeamNumbers []int   `json:"team_numbers,omitempty"`
	Config      Payload `json:"config,omitempty"`
}

// Numbers returns the org's team numbers regardless of shape.
func (o Org) Numbers() []int {
	if len(o.TeamNumbers) > 0 {
		return o.TeamNumbers
	}
	if o.TeamNumber != 0 {
		return []int{o.TeamNumber}
	}
	return nil
}

// Event is a competition event.
type Event struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	Year      int    `json:"year"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Country   string `json:"country"`
	StateProv string `json:"state_prov"`
	EventType string `json:"event_type_string"`
}

// TeamLocal is the locally cached team reference row.
type TeamLocal struct {
	Key        string `json:"key"`
	TeamNumber int    `json:"team_number"`
	Nickname   string `json:"nickname"`
}

// LightUser is the locally cached user reference row.
type LightUser struct {
	ID      int    `json:"_id"`
	Name    string `json:"name"`
	OrgKey  string `json:"org_key"`
	RoleKey string `json:"role_key"`
}

// Ref returns the scouter reference for u.
func (u LightUser) Ref() ScouterRef {
	return ScouterRef{ID: u.ID, Name: u.Name}
}

// SyncStatus records when a table slice was last refreshed.
type SyncStatus struct {
	Table  string    `json:"table"`
	Filter string    `json:"filter"`
	Time   time.Time `json:"time"`
}

// TeamKey builds "frc<number>".
func TeamKey(number int) string {
	return teamKeyPrefix + strconv.Itoa(number)
}

// TeamKeyFromNumber builds "frc<number>" from an already rendered number.
func TeamKeyFromNumber(number string) string {
	return teamKeyPrefix + number
}

// TeamNumber extracts the numeric suffix of a team key. ok is false when
// the key is not of the form frc<digits>.
func TeamNumber(teamKey string) (string, bool) {
	num, found := strings.CutPrefix(teamKey, teamKeyPrefix)
	if !found || num == "" {
		return "", false
	}
	if _, err := strconv.Atoi(num); err != nil {
		return "", false
	}
	return num, true
}

// EventYear infers the season from the first four characters of an event key.
func EventYear(eventKey string) (int, bool) {
	if len(eventKey) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi(eventKey[:4])
	if err != nil {
		return 0, false
	}
	return year, true
}
