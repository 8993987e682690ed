package index

import (
	"context"
	"fmt"

	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/model"
	"github.com/FIRSTTeam102/scoutradioz-sub000/pkg/logger"
)

// PlaceholderName is given to scouters with no local user record.
const PlaceholderName = "Unknown scouter"

// References reads the local team and user tables.
type References interface {
	Team(ctx context.Context, teamKey string) (model.TeamLocal, bool, error)
	User(ctx context.Context, id int) (model.LightUser, bool, error)
}

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithLogger sets a custom logger for the resolver.
func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// Resolver hydrates transmitted indices into full references.
type Resolver struct {
	refs   References
	logger logger.Logger
}

// NewResolver creates a resolver over refs.
func NewResolver(refs References, opts ...Option) *Resolver {
	r := &Resolver{refs: refs, logger: logger.Get().Named("index")}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Bind pairs the resolver with the lists transmitted in one message.
// Lookups are memoized for the binding's lifetime.
func (r *Resolver) Bind(teams, scouters *List) *Binding {
	return &Binding{
		r:        r,
		teams:    teams,
		scouters: scouters,
		teamMemo: make(map[Index]model.TeamRef),
		userMemo: make(map[Index]model.ScouterRef),
	}
}

// Binding resolves indices of one message.
type Binding struct {
	r        *Resolver
	teams    *List
	scouters *List
	teamMemo map[Index]model.TeamRef
	userMemo map[Index]model.ScouterRef
}

// Team resolves a team index. A team with no local record is fatal.
func (b *Binding) Team(ctx context.Context, i Index) (model.TeamRef, error) {
	if ref, ok := b.teamMemo[i]; ok {
		return ref, nil
	}
	num, err := b.teams.Key(i)
	if err != nil {
		return model.TeamRef{}, fmt.Errorf("team index: %w", err)
	}
	key := model.TeamKeyFromNumber(num)
	team, found, err := b.r.refs.Team(ctx, key)
	if err != nil {
		return model.TeamRef{}, fmt.Errorf("lookup team %s: %w", key, err)
	}
	if !found {
		return model.TeamRef{}, fmt.Errorf("%w: %s", ErrUnknownTeam, key)
	}
	ref := model.TeamRef{TeamKey: team.Key, TeamName: team.Nickname}
	b.teamMemo[i] = ref
	return ref, nil
}

// Scouter resolves a scouter slot. Unassigned slots yield nil. A scouter
// with no local record degrades to PlaceholderName.
func (b *Binding) Scouter(ctx context.Context, s Slot) (*model.ScouterRef, error) {
	if !s.Assigned {
		return nil, nil
	}
	if ref, ok := b.userMemo[s.Index]; ok {
		return &ref, nil
	}
	key, err := b.scouters.Key(s.Index)
	if err != nil {
		return nil, fmt.Errorf("scouter index: %w", err)
	}
	id, err := ParseScouterKey(key)
	if err != nil {
		return nil, err
	}
	user, found, err := b.r.refs.User(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup user %d: %w", id, err)
	}
	ref := model.ScouterRef{ID: id, Name: user.Name}
	if !found {
		b.r.logger.Warn(ctx, "scouter not in local users; using placeholder", logger.Int("scouter_id", id))
		ref.Name = PlaceholderName
	}
	b.userMemo[s.Index] = ref
	return &ref, nil
}
