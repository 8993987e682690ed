package importer

import (
	"time"

	"github.com/FIRSTTeam102/scoutradioz-sub000/pkg/logger"
)

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(im *Importer) {
		if l != nil {
			im.logger = l
		}
	}
}

// WithClock sets the source of sync-status timestamps.
func WithClock(now func() time.Time) Option {
	return func(im *Importer) {
		if now != nil {
			im.now = now
		}
	}
}
