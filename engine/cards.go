package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Seat is a table direction. Rotation order is N, E, S, W.
type Seat int

const (
	North Seat = iota
	East
	South
	West
)

func (s Seat) Next() Seat    { return (s + 1) % 4 }
func (s Seat) Partner() Seat { return (s + 2) % 4 }
func (s Seat) Prev() Seat    { return (s + 3) % 4 }

func (s Seat) String() string { return "NESW"[s : s+1] }

func ParseSeat(str string) (Seat, error) {
	switch strings.ToUpper(strings.TrimSpace(str)) {
	case "N", "NORTH":
		return North, nil
	case "E", "EAST":
		return East, nil
	case "S", "SOUTH":
		return South, nil
	case "W", "WEST":
		return West, nil
	}
	return 0, fmt.Errorf("bad seat %q", str)
}

// Side is a partnership.
type Side int

const (
	NorthSouth Side = iota
	EastWest
)

func (s Side) String() string {
	if s == NorthSouth {
		return "NS"
	}
	return "EW"
}

func (s Side) Opponent() Side { return 1 - s }

func (s Seat) Side() Side {
	if s == North || s == South {
		return NorthSouth
	}
	return EastWest
}

// Suit in hand-diagram order: spades first, clubs last.
type Suit int

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

func (s Suit) String() string { return "SHDC"[s : s+1] }

func ParseSuit(b byte) (Suit, error) {
	switch b {
	case 'S', 's':
		return Spades, nil
	case 'H', 'h':
		return Hearts, nil
	case 'D', 'd':
		return Diamonds, nil
	case 'C', 'c':
		return Clubs, nil
	}
	return 0, fmt.Errorf("bad suit %q", b)
}

// Rank runs 2..14 with ace high.
type Rank int

const (
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
	Ace   Rank = 14
)

var rankChars = "  23456789TJQKA"

func (r Rank) String() string {
	if r < 2 || r > Ace {
		return "?"
	}
	return rankChars[r : r+1]
}

func ParseRank(b byte) (Rank, error) {
	switch {
	case b >= '2' && b <= '9':
		return Rank(b - '0'), nil
	case b == 'T' || b == 't':
		return Ten, nil
	case b == 'J' || b == 'j':
		return Jack, nil
	case b == 'Q' || b == 'q':
		return Queen, nil
	case b == 'K' || b == 'k':
		return King, nil
	case b == 'A' || b == 'a':
		return Ace, nil
	}
	return 0, fmt.Errorf("bad rank %q", b)
}

type Card struct {
	Suit Suit
	Rank Rank
}

func (c Card) String() string { return c.Suit.String() + c.Rank.String() }

// ParseCard reads the two-character suit-then-rank form, e.g. "S2" or "HA".
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return Card{}, fmt.Errorf("bad card %q", s)
	}
	su, err := ParseSuit(s[0])
	if err != nil {
		return Card{}, fmt.Errorf("bad card %q: %w", s, err)
	}
	rk, err := ParseRank(s[1])
	if err != nil {
		return Card{}, fmt.Errorf("bad card %q: %w", s, err)
	}
	return Card{Suit: su, Rank: rk}, nil
}

func (c Card) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Card) UnmarshalText(b []byte) error {
	parsed, err := ParseCard(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Hand is an unordered set of cards held by one seat. A playable hand has
// exactly 13 distinct cards; shorter or longer hands are carried as-is and
// rejected by feature derivation.
type Hand []Card

// ParseHand reads the dot-separated holdings form "AKJ62.K7.Q98.KT3"
// (spades.hearts.diamonds.clubs). Void suits are empty segments.
func ParseHand(s string) (Hand, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return nil, fmt.Errorf("hand %q has %d suits", s, len(parts))
	}
	h := make(Hand, 0, 13)
	for i, holding := range parts {
		for j := 0; j < len(holding); j++ {
			rk, err := ParseRank(holding[j])
			if err != nil {
				return nil, fmt.Errorf("hand %q: %w", s, err)
			}
			h = append(h, Card{Suit: Suit(i), Rank: rk})
		}
	}
	return h, nil
}

// String renders the dot-separated holdings form with each suit sorted
// ace-first, giving every equal hand one stable rendering.
func (h Hand) String() string {
	var holdings [4][]Rank
	for _, c := range h {
		holdings[c.Suit] = append(holdings[c.Suit], c.Rank)
	}
	parts := make([]string, 4)
	for i, ranks := range holdings {
		sort.Slice(ranks, func(a, b int) bool { return ranks[a] > ranks[b] })
		var b strings.Builder
		for _, r := range ranks {
			b.WriteString(r.String())
		}
		parts[i] = b.String()
	}
	return strings.Join(parts, ".")
}

func (h Hand) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *Hand) UnmarshalText(b []byte) error {
	parsed, err := ParseHand(string(b))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// DealKey identifies a Deal independent of which table played it.
type DealKey string

// Deal is the four hands, dealer, and vulnerability for one board, shared by
// every table that played it. Board is the deal number, 0 when unknown.
type Deal struct {
	Board  int
	Dealer Seat
	Vul    Vulnerability
	Hands  [4]Hand // indexed by Seat
}

// Key hashes the canonical hand renderings plus dealer and vulnerability.
// Boards reference deals by key; the deal table owns the Deal itself.
func (d *Deal) Key() DealKey {
	sum := sha256.New()
	for seat := North; seat <= West; seat++ {
		sum.Write([]byte(d.Hands[seat].String()))
		sum.Write([]byte{'/'})
	}
	fmt.Fprintf(sum, "%s/%s", d.Dealer, d.Vul)
	return DealKey(hex.EncodeToString(sum.Sum(nil)[:16]))
}

// Validate checks the deal as a whole: every hand complete and all 52 cards
// present exactly once. Per-hand faults come back wrapped in ErrIncomplete;
// a card held by two seats is a deal-level fault.
func (d *Deal) Validate() error {
	holder := map[Card]Seat{}
	for seat := North; seat <= West; seat++ {
		hand := d.Hands[seat]
		if len(hand) != HandSize {
			return fmt.Errorf("%s holds %d cards: %w", seat, len(hand), ErrIncomplete)
		}
		for _, c := range hand {
			if prev, dup := holder[c]; dup {
				return fmt.Errorf("card %s held by both %s and %s: %w", c, prev, seat, ErrIncomplete)
			}
			holder[c] = seat
		}
	}
	// 4×13 distinct cards is the whole pack; nothing further to check.
	return nil
}
