package engine

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// HandSize is the number of cards dealt to each seat.
const HandSize = 13

// ErrIncomplete marks a hand (or deal) whose cards cannot support feature
// derivation: wrong cardinality or a duplicated card.
var ErrIncomplete = errors.New("incomplete hand")

// Features are the derived attributes of one complete hand.
type Features struct {
	HCP        int         // A=4 K=3 Q=2 J=1, summed
	SuitHCP    [4]int      // per suit, hand-diagram order
	SuitLength [4]int      // per suit, sums to 13
	Controls   int         // A=2, K=1
	Pattern    string      // lengths in suit order, e.g. "5-4-3-1"
	Shape      string      // lengths sorted descending, e.g. "5.4.3.1"
	Balanced   bool        // no singleton or void, at most one doubleton
}

var hcpValue = map[Rank]int{Ace: 4, King: 3, Queen: 2, Jack: 1}

// DeriveFeatures computes the point and shape attributes of a hand. It fails
// with ErrIncomplete unless the hand holds exactly 13 distinct cards.
// Duplicates across two hands of the same deal are a deal-level fault and
// are reported by Deal.Validate instead.
func DeriveFeatures(h Hand) (Features, error) {
	if len(h) != HandSize {
		return Features{}, fmt.Errorf("%d cards: %w", len(h), ErrIncomplete)
	}
	var f Features
	seen := map[Card]bool{}
	for _, c := range h {
		if seen[c] {
			return Features{}, fmt.Errorf("duplicate card %s: %w", c, ErrIncomplete)
		}
		seen[c] = true
		f.SuitLength[c.Suit]++
		if pts, ok := hcpValue[c.Rank]; ok {
			f.SuitHCP[c.Suit] += pts
			f.HCP += pts
		}
		switch c.Rank {
		case Ace:
			f.Controls += 2
		case King:
			f.Controls++
		}
	}

	lengths := f.SuitLength
	parts := make([]string, 4)
	for i, n := range lengths {
		parts[i] = strconv.Itoa(n)
	}
	f.Pattern = strings.Join(parts, "-")

	sorted := lengths
	sort.Sort(sort.Reverse(sort.IntSlice(sorted[:])))
	for i, n := range sorted {
		parts[i] = strconv.Itoa(n)
	}
	f.Shape = strings.Join(parts, ".")

	doubletons := 0
	for _, n := range sorted {
		if n <= 1 {
			return f, nil // shortness: not balanced, but features stand
		}
		if n == 2 {
			doubletons++
		}
	}
	f.Balanced = doubletons <= 1
	return f, nil
}

// Holding returns the ranks held in one suit, ace first.
func (h Hand) Holding(s Suit) []Rank {
	var ranks []Rank
	for _, c := range h {
		if c.Suit == s {
			ranks = append(ranks, c.Rank)
		}
	}
	sort.Slice(ranks, func(i, j int) bool { return ranks[i] > ranks[j] })
	return ranks
}

// LeadType classifies an opening lead against the leader's holding in the
// led suit: conventional-lead buckets used when comparing tables.
type LeadType string

const (
	LeadSingleton  LeadType = "singleton"
	LeadTouching   LeadType = "touching"
	LeadBareHonor  LeadType = "unsupported-honor"
	LeadTopOfDblt  LeadType = "top-of-doubleton"
	LeadLowOfDblt  LeadType = "low-from-doubleton"
	LeadUnknown    LeadType = "unknown"
)

// ClassifyLead names the conventional category of a lead from a holding.
// Numeric nth-best leads come back as "1st-best", "2nd-best", etc.
func ClassifyLead(holding []Rank, lead Rank) LeadType {
	pos := -1
	for i, r := range holding {
		if r == lead {
			pos = i
		}
	}
	if pos < 0 {
		return LeadUnknown
	}
	if len(holding) == 1 {
		return LeadSingleton
	}
	has := func(r Rank) bool {
		for _, h := range holding {
			if h == r {
				return true
			}
		}
		return false
	}
	if lead >= Jack {
		if has(lead+1) || has(lead-1) {
			return LeadTouching
		}
		return LeadBareHonor
	}
	if lead == Ten && (has(Jack) || has(9)) {
		return LeadTouching
	}
	if lead == 9 && has(Ten) {
		return LeadTouching
	}
	if len(holding) == 2 {
		if pos == 0 {
			return LeadTopOfDblt
		}
		return LeadLowOfDblt
	}
	return LeadType(ordinal(pos+1) + "-best")
}

func ordinal(n int) string {
	switch n {
	case 1:
		return "1st"
	case 2:
		return "2nd"
	case 3:
		return "3rd"
	}
	return fmt.Sprintf("%dth", n)
}
