package importer

import (
	"errors"
	"fmt"

	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/adapters/repository"
)

var (
	// ErrTargetNotFound is returned when a single result names a row that
	// does not exist locally. It matches repository.ErrNotFound as well.
	ErrTargetNotFound = fmt.Errorf("import target not found: %w", repository.ErrNotFound)
	// ErrIncompleteAlliance is returned when a rebuilt match lacks three
	// teams on either side.
	ErrIncompleteAlliance = errors.New("incomplete alliance")
	// ErrDuplicateTeam is returned when a match lists the same team or
	// match-team key more than once.
	ErrDuplicateTeam = errors.New("team listed twice in a match")
	// ErrUnsupported is returned for message types with no import rule.
	ErrUnsupported = errors.New("unsupported message")
)
