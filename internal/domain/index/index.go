// Package index maps team and scouter identities to the 2-digit positional
// codes carried inside encoded messages, and resolves them back against the
// local reference tables.
package index

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	// MaxEntries is the hard ceiling of a list: positions 00..98.
	MaxEntries = 99
	// Width is the number of decimal digits per index.
	Width = 2
	// UnassignedMark stands in for an index when a slot is intentionally empty.
	UnassignedMark = '|'
)

// Index is a bounded position in a List, rendered as two decimal digits.
type Index uint8

// New validates i against the 2-digit field.
func New(i int) (Index, error) {
	if i < 0 || i >= MaxEntries {
		return 0, fmt.Errorf("%w: %d", ErrOutOfRange, i)
	}
	return Index(i), nil
}

// Parse reads a two-digit index.
func Parse(s string) (Index, error) {
	if len(s) != Width || s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, fmt.Errorf("%w: %q", ErrMalformedSlot, s)
	}
	return New(int(s[0]-'0')*10 + int(s[1]-'0'))
}

// String renders the zero-padded form.
func (i Index) String() string {
	return fmt.Sprintf("%02d", uint8(i))
}

// Slot is an index that may be intentionally unassigned. The zero value is
// unassigned, distinct from an assigned slot at index 0.
type Slot struct {
	Index    Index
	Assigned bool
}

// Assigned returns an occupied slot.
func Assigned(i Index) Slot { return Slot{Index: i, Assigned: true} }

// String renders the slot as two digits or the unassigned mark.
func (s Slot) String() string {
	if !s.Assigned {
		return string(UnassignedMark)
	}
	return s.Index.String()
}

// List is an ordered, deduplicated key list whose positions are indices.
// It lives only for the duration of one encoded message.
type List struct {
	keys []string
	pos  map[string]Index
}

// Build deduplicates and sorts keys lexicographically. Empty keys are
// ignored. More than MaxEntries distinct keys is an error.
func Build(keys []string) (*List, error) {
	seen := make(map[string]struct{}, len(keys))
	uniq := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		uniq = append(uniq, k)
	}
	if len(uniq) > MaxEntries {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyEntries, len(uniq), MaxEntries)
	}
	sort.Strings(uniq)
	return newList(uniq), nil
}

// FromWire adopts a list transmitted alongside a message without reordering.
func FromWire(keys []string) (*List, error) {
	if len(keys) > MaxEntries {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyEntries, len(keys), MaxEntries)
	}
	return newList(append([]string(nil), keys...)), nil
}

func newList(keys []string) *List {
	l := &List{keys: keys, pos: make(map[string]Index, len(keys))}
	for i, k := range keys {
		l.pos[k] = Index(i)
	}
	return l
}

// Keys returns the transmitted key order.
func (l *List) Keys() []string { return append([]string(nil), l.keys...) }

// Len returns the number of entries.
func (l *List) Len() int { return len(l.keys) }

// Index returns the position of key.
func (l *List) Index(key string) (Index, error) {
	i, ok := l.pos[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNotInList, key)
	}
	return i, nil
}

// Slot returns an assigned slot for key, or an unassigned slot when key is empty.
func (l *List) Slot(key string) (Slot, error) {
	if key == "" {
		return Slot{}, nil
	}
	i, err := l.Index(key)
	if err != nil {
		return Slot{}, err
	}
	return Assigned(i), nil
}

// Key returns the key at position i.
func (l *List) Key(i Index) (string, error) {
	if int(i) >= len(l.keys) {
		return "", fmt.Errorf("%w: %s of %d", ErrOutOfRange, i, len(l.keys))
	}
	return l.keys[i], nil
}

// WriteIndexes concatenates fixed-width indices.
func WriteIndexes(idx []Index) string {
	var b strings.Builder
	b.Grow(len(idx) * Width)
	for _, i := range idx {
		b.WriteString(i.String())
	}
	return b.String()
}

// ReadIndexes parses exactly n fixed-width indices from s.
func ReadIndexes(s string, n int) ([]Index, error) {
	if len(s) != n*Width {
		return nil, fmt.Errorf("%w: want %d indices, got %d chars", ErrMalformedSlot, n, len(s))
	}
	out := make([]Index, n)
	for k := range out {
		i, err := Parse(s[k*Width : (k+1)*Width])
		if err != nil {
			return nil, err
		}
		out[k] = i
	}
	return out, nil
}

// WriteSlots concatenates slots; unassigned slots take one character.
func WriteSlots(slots []Slot) string {
	var b strings.Builder
	b.Grow(len(slots) * Width)
	for _, s := range slots {
		b.WriteString(s.String())
	}
	return b.String()
}

// ReadSlots parses exactly n slots from s.
func ReadSlots(s string, n int) ([]Slot, error) {
	out := make([]Slot, 0, n)
	pos := 0
	for len(out) < n {
		if pos >= len(s) {
			return nil, fmt.Errorf("%w: want %d slots, input ends after %d", ErrMalformedSlot, n, len(out))
		}
		if s[pos] == UnassignedMark {
			out = append(out, Slot{})
			pos++
			continue
		}
		if pos+Width > len(s) {
			return nil, fmt.Errorf("%w: truncated slot at %d", ErrMalformedSlot, pos)
		}
		i, err := Parse(s[pos : pos+Width])
		if err != nil {
			return nil, err
		}
		out = append(out, Assigned(i))
		pos += Width
	}
	if pos != len(s) {
		return nil, fmt.Errorf("%w: %d trailing chars", ErrMalformedSlot, len(s)-pos)
	}
	return out, nil
}

// ScouterKey renders a scouter id as a list key.
func ScouterKey(id int) string { return strconv.Itoa(id) }

// ParseScouterKey reads a scouter id list key.
func ParseScouterKey(key string) (int, error) {
	id, err := strconv.Atoi(key)
	if err != nil {
		return 0, fmt.Errorf("%w: scouter %q", ErrBadKey, key)
	}
	return id, nil
}
