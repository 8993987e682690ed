package repository

import (
	"context"
	"errors"

	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/model"
)

// References reads the team and user tables in short read transactions.
type References struct {
	store Store
}

// NewReferences wraps s.
func NewReferences(s Store) *References {
	return &References{store: s}
}

// Team implements index.References.
func (r *References) Team(ctx context.Context, teamKey string) (model.TeamLocal, bool, error) {
	var t model.TeamLocal
	err := r.store.View(ctx, func(tx Tx) error {
		var err error
		t, err = tx.Team(ctx, teamKey)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return model.TeamLocal{}, false, nil
	}
	return t, err == nil, err
}

// User implements index.References.
func (r *References) User(ctx context.Context, id int) (model.LightUser, bool, error) {
	var u model.LightUser
	err := r.store.View(ctx, func(tx Tx) error {
		var err error
		u, err = tx.User(ctx, id)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return model.LightUser{}, false, nil
	}
	return u, err == nil, err
}
