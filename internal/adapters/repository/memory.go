package repository

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/mitchellh/copystructure"

	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/model"
	"github.com/FIRSTTeam102/scoutradioz-sub000/pkg/logger"
)

type syncKey struct{ table, filter string }

// state is one committed snapshot of every table.
type state struct {
	orgs    map[string]model.Org
	teams   map[string]model.TeamLocal
	users   map[int]model.LightUser
	events  map[string]model.Event
	match   map[string]model.MatchAssignment
	pit     map[model.PitKey]model.PitAssignment
	matches map[string]model.Match
	sync    map[syncKey]model.SyncStatus
}

func newState() *state {
	return &state{
		orgs:    make(map[string]model.Org),
		teams:   make(map[string]model.TeamLocal),
		users:   make(map[int]model.LightUser),
		events:  make(map[string]model.Event),
		match:   make(map[string]model.MatchAssignment),
		pit:     make(map[model.PitKey]model.PitAssignment),
		matches: make(map[string]model.Match),
		sync:    make(map[syncKey]model.SyncStatus),
	}
}

// clone copies the table maps. Rows are values and their payloads are
// deep-copied on their way in and out, so a committed snapshot shares no
// mutable data with callers.
func (s *state) clone() *state {
	return &state{
		orgs:    maps.Clone(s.orgs),
		teams:   maps.Clone(s.teams),
		users:   maps.Clone(s.users),
		events:  maps.Clone(s.events),
		match:   maps.Clone(s.match),
		pit:     maps.Clone(s.pit),
		matches: maps.Clone(s.matches),
		sync:    maps.Clone(s.sync),
	}
}

// MemoryStore is an in-process Local Store. Writers run on a private copy
// of the tables that replaces the committed copy only on success.
type MemoryStore struct {
	mu     sync.RWMutex
	cur    *state
	closed bool
	logger logger.Logger
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{cur: newState(), logger: logger.Get().Named("memstore")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Update implements Store.
func (s *MemoryStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	next := s.cur.clone()
	if err := fn(&memTx{st: next, writable: true}); err != nil {
		s.logger.Debug(ctx, "transaction rolled back", logger.Error(err))
		return err
	}
	s.cur = next
	return nil
}

// View implements Store.
func (s *MemoryStore) View(_ context.Context, fn func(tx Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return fn(&memTx{st: s.cur})
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type memTx struct {
	st       *state
	writable bool
}

func (t *memTx) check() error {
	if !t.writable {
		return ErrReadOnly
	}
	return nil
}

func notFound(table string, key any) error {
	return fmt.Errorf("%w: %s %v", ErrNotFound, table, key)
}

func (t *memTx) Org(_ context.Context, orgKey string) (model.Org, error) {
	o, ok := t.st.orgs[orgKey]
	if !ok {
		return model.Org{}, notFound(model.TableOrgs, orgKey)
	}
	return cloneOrg(o), nil
}

func (t *memTx) PutOrg(_ context.Context, org model.Org) error {
	if err := t.check(); err != nil {
		return err
	}
	t.st.orgs[org.OrgKey] = cloneOrg(org)
	return nil
}

func (t *memTx) UpdateOrgDisplay(_ context.Context, org model.Org) error {
	if err := t.check(); err != nil {
		return err
	}
	cur, ok := t.st.orgs[org.OrgKey]
	if !ok {
		return notFound(model.TableOrgs, org.OrgKey)
	}
	cur.EventKey = org.EventKey
	cur.Nickname = org.Nickname
	cur.TeamNumber = org.TeamNumber
	cur.TeamNumbers = append([]int(nil), org.TeamNumbers...)
	t.st.orgs[org.OrgKey] = cur
	return nil
}

func (t *memTx) Team(_ context.Context, teamKey string) (model.TeamLocal, error) {
	tm, ok := t.st.teams[teamKey]
	if !ok {
		return model.TeamLocal{}, notFound(model.TableTeams, teamKey)
	}
	return tm, nil
}

func (t *memTx) Teams(_ context.Context) ([]model.TeamLocal, error) {
	out := make([]model.TeamLocal, 0, len(t.st.teams))
	for _, tm := range t.st.teams {
		out = append(out, tm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamNumber < out[j].TeamNumber })
	return out, nil
}

func (t *memTx) PutTeams(_ context.Context, teams []model.TeamLocal) error {
	if err := t.check(); err != nil {
		return err
	}
	for _, tm := range teams {
		t.st.teams[tm.Key] = tm
	}
	return nil
}

func (t *memTx) User(_ context.Context, id int) (model.LightUser, error) {
	u, ok := t.st.users[id]
	if !ok {
		return model.LightUser{}, notFound(model.TableUsers, id)
	}
	return u, nil
}

func (t *memTx) Users(_ context.Context, orgKey string) ([]model.LightUser, error) {
	var out []model.LightUser
	for _, u := range t.st.users {
		if u.OrgKey == orgKey {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) PutUsers(_ context.Context, users []model.LightUser) error {
	if err := t.check(); err != nil {
		return err
	}
	for _, u := range users {
		t.st.users[u.ID] = u
	}
	return nil
}

func (t *memTx) Event(_ context.Context, eventKey string) (model.Event, error) {
	e, ok := t.st.events[eventKey]
	if !ok {
		return model.Event{}, notFound(model.TableEvents, eventKey)
	}
	return e, nil
}

func (t *memTx) PutEvent(_ context.Context, event model.Event) error {
	if err := t.check(); err != nil {
		return err
	}
	t.st.events[event.Key] = event
	return nil
}

func (t *memTx) MatchAssignment(_ context.Context, key string) (model.MatchAssignment, error) {
	a, ok := t.st.match[key]
	if !ok {
		return model.MatchAssignment{}, notFound(model.TableMatchScouting, key)
	}
	return cloneMatchAssignment(a), nil
}

func (t *memTx) MatchAssignments(_ context.Context, orgKey, eventKey string) ([]model.MatchAssignment, error) {
	var out []model.MatchAssignment
	for _, a := range t.st.match {
		if a.OrgKey == orgKey && a.EventKey == eventKey {
			out = append(out, cloneMatchAssignment(a))
		}
	}
	SortMatchAssignments(out)
	return out, nil
}

func (t *memTx) PutMatchAssignments(_ context.Context, rows []model.MatchAssignment) error {
	if err := t.check(); err != nil {
		return err
	}
	for i := range rows {
		t.st.match[rows[i].MatchTeamKey] = cloneMatchAssignment(rows[i])
	}
	return nil
}

func (t *memTx) UpdateMatchResult(_ context.Context, key string, r Result) error {
	if err := t.check(); err != nil {
		return err
	}
	a, ok := t.st.match[key]
	if !ok {
		return notFound(model.TableMatchScouting, key)
	}
	a.ActualScorer = cloneRef(r.Actual)
	a.Data = clonePayload(r.Data)
	a.Completed = r.Completed
	a.Synced = r.Synced
	t.st.match[key] = a
	return nil
}

func (t *memTx) PitAssignment(_ context.Context, key model.PitKey) (model.PitAssignment, error) {
	p, ok := t.st.pit[key]
	if !ok {
		return model.PitAssignment{}, notFound(model.TablePitScouting, key)
	}
	return clonePitAssignment(p), nil
}

func (t *memTx) PitAssignments(_ context.Context, orgKey, eventKey string) ([]model.PitAssignment, error) {
	var out []model.PitAssignment
	for _, p := range t.st.pit {
		if p.OrgKey == orgKey && p.EventKey == eventKey {
			out = append(out, clonePitAssignment(p))
		}
	}
	SortPitAssignments(out)
	return out, nil
}

func (t *memTx) PutPitAssignments(_ context.Context, rows []model.PitAssignment) error {
	if err := t.check(); err != nil {
		return err
	}
	for i := range rows {
		t.st.pit[rows[i].Key()] = clonePitAssignment(rows[i])
	}
	return nil
}

func (t *memTx) UpdatePitResult(_ context.Context, key model.PitKey, r Result) error {
	if err := t.check(); err != nil {
		return err
	}
	p, ok := t.st.pit[key]
	if !ok {
		return notFound(model.TablePitScouting, key)
	}
	p.ActualScouter = cloneRef(r.Actual)
	p.Data = clonePayload(r.Data)
	p.Completed = r.Completed
	p.Synced = r.Synced
	t.st.pit[key] = p
	return nil
}

func (t *memTx) Matches(_ context.Context, eventKey string) ([]model.Match, error) {
	var out []model.Match
	for _, m := range t.st.matches {
		if m.EventKey == eventKey {
			out = append(out, cloneMatch(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchNumber < out[j].MatchNumber })
	return out, nil
}

func (t *memTx) DeleteMatches(_ context.Context, eventKey string) error {
	if err := t.check(); err != nil {
		return err
	}
	for k, m := range t.st.matches {
		if m.EventKey == eventKey {
			delete(t.st.matches, k)
		}
	}
	return nil
}

func (t *memTx) PutMatches(_ context.Context, matches []model.Match) error {
	if err := t.check(); err != nil {
		return err
	}
	for _, m := range matches {
		t.st.matches[m.Key] = cloneMatch(m)
	}
	return nil
}

func (t *memTx) SyncStatus(_ context.Context, table, filter string) (model.SyncStatus, error) {
	s, ok := t.st.sync[syncKey{table, filter}]
	if !ok {
		return model.SyncStatus{}, notFound(model.TableSyncStatus, table+"/"+filter)
	}
	return s, nil
}

func (t *memTx) PutSyncStatus(_ context.Context, s model.SyncStatus) error {
	if err := t.check(); err != nil {
		return err
	}
	t.st.sync[syncKey{s.Table, s.Filter}] = s
	return nil
}

func cloneRef(r *model.ScouterRef) *model.ScouterRef {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// clonePayload deep-copies nested maps and slices.
func clonePayload(p model.Payload) model.Payload {
	if p == nil {
		return nil
	}
	c, err := copystructure.Copy(p)
	if err != nil {
		return maps.Clone(p)
	}
	out, ok := c.(model.Payload)
	if !ok {
		return maps.Clone(p)
	}
	return out
}

func cloneOrg(o model.Org) model.Org {
	o.TeamNumbers = append([]int(nil), o.TeamNumbers...)
	o.Config = clonePayload(o.Config)
	return o
}

func cloneMatchAssignment(a model.MatchAssignment) model.MatchAssignment {
	a.AssignedScorer = cloneRef(a.AssignedScorer)
	a.ActualScorer = cloneRef(a.ActualScorer)
	a.Data = clonePayload(a.Data)
	return a
}

func clonePitAssignment(p model.PitAssignment) model.PitAssignment {
	p.Primary = cloneRef(p.Primary)
	p.Secondary = cloneRef(p.Secondary)
	p.Tertiary = cloneRef(p.Tertiary)
	p.ActualScouter = cloneRef(p.ActualScouter)
	p.Data = clonePayload(p.Data)
	return p
}

func cloneMatch(m model.Match) model.Match {
	m.Alliances.Blue.TeamKeys = append([]string(nil), m.Alliances.Blue.TeamKeys...)
	m.Alliances.Red.TeamKeys = append([]string(nil), m.Alliances.Red.TeamKeys...)
	return m
}
