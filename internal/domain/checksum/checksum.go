// Package checksum computes the schedule digest carried by schedule
// messages. Rows are serialized with CBOR Core Deterministic Encoding so two
// devices holding the same schedule produce the same bytes, then hashed with
// keyed BLAKE3.
package checksum

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"
)

// ErrMismatch reports a reconstructed schedule whose digest differs from
// the transmitted prefix.
var ErrMismatch = errors.New("schedule checksum mismatch")

// Size is the digest length in bytes.
const Size = 32

// Digest is a BLAKE3 schedule digest.
type Digest [Size]byte

// NoScouter marks an absent scouter id in a row.
const NoScouter = -1

// domainKey separates schedule digests from any other BLAKE3 use.
var domainKey = [32]byte{
	'v', 'o', 'y', 'a', 'g', 'e', 'r', '.', 's', 'c', 'h', 'e', 'd', 'u', 'l', 'e',
}

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("checksum: CBOR encoder initialization failed: " + err.Error())
	}
}

// MatchRow is the transmitted view of one match assignment.
type MatchRow struct {
	_            struct{} `cbor:",toarray"`
	MatchTeamKey string
	TeamKey      string
	MatchNumber  int
	Time         int64
	Alliance     string
	Assigned     int
	Actual       int
}

// PitRow is the transmitted view of one pit assignment.
type PitRow struct {
	_         struct{} `cbor:",toarray"`
	OrgKey    string
	EventKey  string
	TeamKey   string
	Primary   int
	Secondary int
	Tertiary  int
	Actual    int
}

// String returns the full hex digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Prefix returns the first n hex characters, clamped to the digest length.
func (d Digest) Prefix(n int) string {
	s := d.String()
	if n <= 0 || n > len(s) {
		return s
	}
	return s[:n]
}

// Verify compares d against a transmitted prefix of any length.
func (d Digest) Verify(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("%w: empty checksum", ErrMismatch)
	}
	if d.Prefix(len(prefix)) != prefix {
		return fmt.Errorf("%w: got %s, want %s", ErrMismatch, d.Prefix(len(prefix)), prefix)
	}
	return nil
}

// Match digests rows independently of their order.
func Match(rows []MatchRow) (Digest, error) {
	sorted := append([]MatchRow(nil), rows...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MatchTeamKey < sorted[j].MatchTeamKey })
	return sum(sorted)
}

// Pit digests rows independently of their order.
func Pit(rows []PitRow) (Digest, error) {
	sorted := append([]PitRow(nil), rows...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.OrgKey != b.OrgKey {
			return a.OrgKey < b.OrgKey
		}
		if a.EventKey != b.EventKey {
			return a.EventKey < b.EventKey
		}
		return a.TeamKey < b.TeamKey
	})
	return sum(sorted)
}

func sum(v any) (Digest, error) {
	data, err := encMode.Marshal(v)
	if err != nil {
		return Digest{}, fmt.Errorf("checksum: canonical encoding: %w", err)
	}
	h, err := blake3.NewKeyed(domainKey[:])
	if err != nil {
		return Digest{}, fmt.Errorf("checksum: %w", err)
	}
	_, _ = h.Write(data)
	var d Digest
	copy(d[:], h.Sum(nil))
	return d, nil
}
