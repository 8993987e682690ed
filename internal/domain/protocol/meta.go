package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/model"
)

// Delimiters of the metadata message. Field values must not contain them.
const (
	recordSep = ";"
	fieldSep  = ":"
	numberSep = ","
)

const (
	orgFields   = 4
	teamFields  = 2
	userFields  = 3
	eventFields = 7
)

type metaWire struct {
	Type  Type   `json:"type"`
	Org   string `json:"o"`
	Teams string `json:"t"`
	Users string `json:"u"`
	Event string `json:"e"`
}

func encodeMeta(m *Meta) (*metaWire, error) {
	if m.Org.OrgKey == "" {
		return nil, fmt.Errorf("%w: meta without org key", ErrEmpty)
	}
	nums := make([]string, 0, len(m.Org.Numbers()))
	for _, n := range m.Org.Numbers() {
		nums = append(nums, strconv.Itoa(n))
	}
	org, err := joinFields(m.Org.OrgKey, m.Org.Nickname, m.Org.EventKey, strings.Join(nums, numberSep))
	if err != nil {
		return nil, fmt.Errorf("org: %w", err)
	}

	teams := make([]string, 0, len(m.Teams))
	for _, t := range m.Teams {
		rec, err := joinFields(strconv.Itoa(t.TeamNumber), t.Nickname)
		if err != nil {
			return nil, fmt.Errorf("team %d: %w", t.TeamNumber, err)
		}
		teams = append(teams, rec)
	}

	users := make([]string, 0, len(m.Users))
	for _, u := range m.Users {
		rec, err := joinFields(strconv.Itoa(u.ID), u.Name, u.RoleKey)
		if err != nil {
			return nil, fmt.Errorf("user %d: %w", u.ID, err)
		}
		users = append(users, rec)
	}

	e := m.Event
	event, err := joinFields(e.Key, e.Name, e.StartDate, e.EndDate, e.Country, e.StateProv, e.EventType)
	if err != nil {
		return nil, fmt.Errorf("event: %w", err)
	}

	return &metaWire{
		Type:  TypeMeta,
		Org:   org,
		Teams: strings.Join(teams, recordSep),
		Users: strings.Join(users, recordSep),
		Event: event,
	}, nil
}

func joinFields(fields ...string) (string, error) {
	for _, f := range fields {
		if strings.ContainsAny(f, recordSep+fieldSep) {
			return "", fmt.Errorf("%w: %q", ErrDelimiter, f)
		}
	}
	return strings.Join(fields, fieldSep), nil
}

func decodeMeta(w *metaWire) (*Meta, error) {
	org, err := splitFields(w.Org, orgFields)
	if err != nil {
		return nil, fmt.Errorf("org: %w", err)
	}
	m := &Meta{Org: model.Org{OrgKey: org[0], Nickname: org[1], EventKey: org[2]}}
	if org[0] == "" {
		return nil, fmt.Errorf("%w: org key missing", ErrMalformed)
	}

	var nums []int
	if org[3] != "" {
		for _, s := range strings.Split(org[3], numberSep) {
			n, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("%w: team number %q", ErrMalformed, s)
			}
			nums = append(nums, n)
		}
	}
	if len(nums) == 1 {
		m.Org.TeamNumber = nums[0]
	} else {
		m.Org.TeamNumbers = nums
	}

	for _, rec := range splitRecords(w.Teams) {
		f, err := splitFields(rec, teamFields)
		if err != nil {
			return nil, fmt.Errorf("team: %w", err)
		}
		n, err := strconv.Atoi(f[0])
		if err != nil {
			return nil, fmt.Errorf("%w: team number %q", ErrMalformed, f[0])
		}
		m.Teams = append(m.Teams, model.TeamLocal{Key: model.TeamKey(n), TeamNumber: n, Nickname: f[1]})
	}

	for _, rec := range splitRecords(w.Users) {
		f, err := splitFields(rec, userFields)
		if err != nil {
			return nil, fmt.Errorf("user: %w", err)
		}
		id, err := strconv.Atoi(f[0])
		if err != nil {
			return nil, fmt.Errorf("%w: user id %q", ErrMalformed, f[0])
		}
		m.Users = append(m.Users, model.LightUser{ID: id, Name: f[1], OrgKey: m.Org.OrgKey, RoleKey: f[2]})
	}

	ev, err := splitFields(w.Event, eventFields)
	if err != nil {
		return nil, fmt.Errorf("event: %w", err)
	}
	m.Event = model.Event{
		Key:       ev[0],
		Name:      ev[1],
		StartDate: ev[2],
		EndDate:   ev[3],
		Country:   ev[4],
		StateProv: ev[5],
		EventType: ev[6],
	}
	if ev[0] != "" {
		year, ok := model.EventYear(ev[0])
		if !ok {
			return nil, fmt.Errorf("%w: event key %q has no year", ErrMalformed, ev[0])
		}
		m.Event.Year = year
	}
	return m, nil
}

func splitRecords(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, recordSep)
}

func splitFields(rec string, n int) ([]string, error) {
	f := strings.Split(rec, fieldSep)
	if len(f) != n {
		return nil, fmt.Errorf("%w: want %d fields, got %d in %q", ErrMalformed, n, len(f), rec)
	}
	return f, nil
}
