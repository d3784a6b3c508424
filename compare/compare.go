// Package compare pairs canonical board records that share a deal but were
// played at different tables, producing head-to-head swing records.
package compare

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ureshvahalia/bridge-deals-ingest/engine"
	"github.com/ureshvahalia/bridge-deals-ingest/reconcile"
)

// ErrKeyCorruption is the one hard batch error: two boards carry the same
// deal key over genuinely different card holdings, which means key
// construction itself is broken.
var ErrKeyCorruption = errors.New("deal key corruption")

// DealCollision reports more than two boards claiming one deal, usually a
// double import. The colliding boards are named, kept, and excluded from
// pairing.
type DealCollision struct {
	Key    engine.DealKey
	Boards []string // board IDs, or sources when IDs are absent
}

func (c *DealCollision) Error() string {
	return fmt.Sprintf("deal %s claimed by %d boards: %v", c.Key, len(c.Boards), c.Boards)
}

// TableMapping fixes the swing sign convention: it returns 1 or 2 for a
// table identifier (the open/closed room assignment from the match
// configuration), or 0 when the table is unknown. Orientation is never
// inferred from the records themselves.
type TableMapping func(table string) int

// Comparison is one head-to-head record: the same deal played at both
// tables. Swing and IMPs are table-1 minus table-2 in the north-south sign
// convention; they are nil when either side's score is missing.
type Comparison struct {
	Key   engine.DealKey `json:"deal_key"`
	Board int            `json:"board,omitempty"`

	Table1 *reconcile.CanonicalBoard `json:"table1"`
	Table2 *reconcile.CanonicalBoard `json:"table2"`

	Swing *int `json:"swing,omitempty"`
	IMPs  *int `json:"imps,omitempty"`

	// Oriented is false when the table mapping could not place the two
	// records and lexical table order was used instead.
	Oriented bool `json:"oriented"`

	SameContract bool `json:"same_contract"`
	SameDeclarer bool `json:"same_declarer"`
	SameLead     bool `json:"same_lead"`
	SameOpening  bool `json:"same_opening"`
}

// Result is the outcome of pairing one batch. Nothing is silently dropped:
// boards without a counterpart stay in Unmatched, over-claimed deals are
// reported as Collisions.
type Result struct {
	Comparisons []*Comparison
	Unmatched   []*reconcile.CanonicalBoard
	Collisions  []*DealCollision
}

// Pair groups boards by deal key and emits a Comparison for every key held
// by exactly two records. Boards without a key (incomplete deals) go
// straight to Unmatched. The only error is ErrKeyCorruption.
func Pair(boards []*reconcile.CanonicalBoard, mapping TableMapping) (*Result, error) {
	if mapping == nil {
		mapping = func(string) int { return 0 }
	}
	res := &Result{}
	groups := map[engine.DealKey][]*reconcile.CanonicalBoard{}
	var keys []engine.DealKey
	for _, b := range boards {
		if b.DealKey == "" {
			res.Unmatched = append(res.Unmatched, b)
			continue
		}
		if _, seen := groups[b.DealKey]; !seen {
			keys = append(keys, b.DealKey)
		}
		groups[b.DealKey] = append(groups[b.DealKey], b)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, key := range keys {
		group := groups[key]
		if err := checkHoldings(key, group); err != nil {
			return nil, err
		}
		switch len(group) {
		case 1:
			res.Unmatched = append(res.Unmatched, group[0])
		case 2:
			res.Comparisons = append(res.Comparisons, compareBoards(key, group[0], group[1], mapping))
		default:
			res.Collisions = append(res.Collisions, &DealCollision{Key: key, Boards: boardNames(group)})
		}
	}
	return res, nil
}

// checkHoldings verifies that every board under one key really holds the
// same cards.
func checkHoldings(key engine.DealKey, group []*reconcile.CanonicalBoard) error {
	var want string
	for _, b := range group {
		if b.Deal == nil {
			continue
		}
		got := dealText(b.Deal)
		if want == "" {
			want = got
			continue
		}
		if got != want {
			return fmt.Errorf("key %s: %w", key, ErrKeyCorruption)
		}
	}
	return nil
}

func dealText(d *engine.Deal) string {
	s := ""
	for seat := engine.North; seat <= engine.West; seat++ {
		s += d.Hands[seat].String() + "/"
	}
	return s
}

func boardNames(group []*reconcile.CanonicalBoard) []string {
	names := make([]string, len(group))
	for i, b := range group {
		if b.ID != "" {
			names[i] = b.ID
		} else {
			names[i] = b.Source
		}
	}
	return names
}

func compareBoards(key engine.DealKey, a, b *reconcile.CanonicalBoard, mapping TableMapping) *Comparison {
	t1, t2 := a, b
	oriented := true
	ma, mb := mapping(a.Table), mapping(b.Table)
	switch {
	case ma == 1 && mb == 2:
	case ma == 2 && mb == 1:
		t1, t2 = b, a
	default:
		oriented = false
		if t2.Table < t1.Table {
			t1, t2 = t2, t1
		}
	}

	c := &Comparison{
		Key:      key,
		Board:    t1.Board,
		Table1:   t1,
		Table2:   t2,
		Oriented: oriented,
	}
	if s1, ok := t1.Score.Get(); ok {
		if s2, ok := t2.Score.Get(); ok {
			swing := s1 - s2
			imps := IMPs(swing)
			c.Swing = &swing
			c.IMPs = &imps
		}
	}

	c.SameContract = sameField(t1.Contract, t2.Contract, func(x, y engine.Contract) bool {
		return x.Level == y.Level && x.Strain == y.Strain && x.Doubling == y.Doubling
	})
	c.SameDeclarer = sameField(t1.Declarer, t2.Declarer, func(x, y engine.Seat) bool { return x == y })
	c.SameLead = sameField(t1.Lead, t2.Lead, func(x, y engine.Card) bool { return x == y })
	c.SameOpening = t1.Facts != nil && t2.Facts != nil &&
		t1.Facts.Opener != nil && t2.Facts.Opener != nil &&
		t1.Facts.Opening == t2.Facts.Opening
	return c
}

func sameField[T any](a, b reconcile.Field[T], eq func(x, y T) bool) bool {
	va, ok := a.Get()
	if !ok {
		return false
	}
	vb, ok := b.Get()
	if !ok {
		return false
	}
	return eq(va, vb)
}
