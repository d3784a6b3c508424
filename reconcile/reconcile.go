package reconcile

import (
	"fmt"
	"strings"

	"github.com/ureshvahalia/bridge-deals-ingest/engine"
	"github.com/ureshvahalia/bridge-deals-ingest/oracle"
)

// merge applies the five-state policy to one field. The recorded value wins
// a disagreement; the recomputed value is kept alongside for audit.
func mergeFunc[T any](primary, derived *T, eq func(a, b T) bool) Field[T] {
	switch {
	case primary != nil && derived != nil:
		if eq(*primary, *derived) {
			return Field[T]{Status: Match, Value: primary}
		}
		return Field[T]{Status: Mismatch, Value: primary, Derived: derived}
	case primary != nil:
		return Field[T]{Status: PrimaryOnly, Value: primary}
	case derived != nil:
		return Field[T]{Status: DerivedOnly, Value: derived}
	}
	return Field[T]{Status: Missing}
}

func merge[T comparable](primary, derived *T) Field[T] {
	return mergeFunc(primary, derived, func(a, b T) bool { return a == b })
}

func ptr[T any](v T) *T { return &v }

// Reconcile turns one raw table record into its canonical, trust-annotated
// form. It never fails: every fault degrades the affected field's status
// and leaves a diagnostic on the board.
func Reconcile(raw *RawBoard) *CanonicalBoard {
	b := &CanonicalBoard{
		Source: raw.Source,
		Event:  raw.Event,
		Match:  raw.Match,
		Table:  raw.Table,
		Board:  raw.Board,
		DD:     Field[oracle.Table]{Status: Missing},
	}

	b.Dealer = merge(parseSeat(b, "dealer", raw.Dealer), derivedDealer(raw.Board))
	b.Vul = merge(parseVul(b, raw.Vul), derivedVul(raw.Board))

	hands, complete := parseHands(b, raw.Hands)
	if complete {
		deal := buildDeal(b, raw.Board, hands)
		if deal != nil {
			b.Deal = deal
			b.DealKey = deal.Key()
		}
	}
	b.Features = deriveFeatures(b, hands)

	parsedCalls := parseCalls(b, raw.Calls)
	rep := repairAuction(b, parsedCalls)
	b.Auction = auctionField(raw.Calls, parsedCalls, rep)
	if rep != nil {
		b.Facts = &rep.Facts
	}

	var derivedContract *engine.Contract
	var derivedDeclarer *engine.Seat
	if rep != nil && rep.Complete() {
		derivedContract = rep.Contract
		if !rep.Contract.PassedOut() {
			derivedDeclarer = ptr(rep.Contract.Declarer)
		}
	}
	primaryContract := parseContract(b, raw.Contract)
	b.Contract = mergeFunc(primaryContract, derivedContract, sameContract)
	b.Declarer = merge(parseSeat(b, "declarer", raw.Declarer), derivedDeclarer)

	b.Tricks = merge(raw.Tricks, derivedTricks(b, raw.Score))
	b.Score = merge(raw.Score, derivedScore(b, raw.Tricks))

	b.Lead = merge(parseLead(b, raw.Lead), leadFromPlay(b, raw.Play))
	b.LeadType = classifyLead(b)

	b.summarize()
	return b
}

// sameContract compares level, strain, and doubling. Declarer is a field of
// its own and does not participate in contract equality.
func sameContract(a, b engine.Contract) bool {
	return a.Level == b.Level && a.Strain == b.Strain && a.Doubling == b.Doubling
}

func (b *CanonicalBoard) note(format string, args ...any) {
	b.Diagnostics = append(b.Diagnostics, fmt.Sprintf(format, args...))
}

func parseSeat(b *CanonicalBoard, field string, s *string) *engine.Seat {
	if s == nil {
		return nil
	}
	seat, err := engine.ParseSeat(*s)
	if err != nil {
		b.note("%s: %v", field, err)
		return nil
	}
	return &seat
}

func parseVul(b *CanonicalBoard, s *string) *engine.Vulnerability {
	if s == nil {
		return nil
	}
	v, err := engine.ParseVulnerability(*s)
	if err != nil {
		b.note("vul: %v", err)
		return nil
	}
	return &v
}

func derivedDealer(board int) *engine.Seat {
	if board <= 0 {
		return nil
	}
	return ptr(engine.DealerForBoard(board))
}

func derivedVul(board int) *engine.Vulnerability {
	if board <= 0 {
		return nil
	}
	return ptr(engine.VulnerabilityForBoard(board))
}

func parseHands(b *CanonicalBoard, raw [4]*string) ([4]engine.Hand, bool) {
	var hands [4]engine.Hand
	complete := true
	for seat := engine.North; seat <= engine.West; seat++ {
		s := raw[seat]
		if s == nil {
			complete = false
			continue
		}
		h, err := engine.ParseHand(*s)
		if err != nil {
			b.note("hand %s: %v", seat, err)
			complete = false
			continue
		}
		hands[seat] = h
	}
	return hands, complete
}

// buildDeal assembles the shared Deal when all four hands parsed and the
// dealer and vulnerability are known. Cross-hand card duplication is a
// deal-level fault: the board keeps its per-hand features but gets no key,
// so it can never be paired.
func buildDeal(b *CanonicalBoard, board int, hands [4]engine.Hand) *engine.Deal {
	dealer, ok := b.Dealer.Get()
	if !ok {
		b.note("deal: dealer unknown")
		return nil
	}
	vul, ok := b.Vul.Get()
	if !ok {
		b.note("deal: vulnerability unknown")
		return nil
	}
	d := &engine.Deal{Board: board, Dealer: dealer, Vul: vul, Hands: hands}
	if err := d.Validate(); err != nil {
		b.note("deal: %v", err)
		return nil
	}
	return d
}

func deriveFeatures(b *CanonicalBoard, hands [4]engine.Hand) map[string]engine.Features {
	out := map[string]engine.Features{}
	for seat := engine.North; seat <= engine.West; seat++ {
		if hands[seat] == nil {
			continue
		}
		f, err := engine.DeriveFeatures(hands[seat])
		if err != nil {
			b.note("features %s: %v", seat, err)
			continue
		}
		out[seat.String()] = f
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func parseCalls(b *CanonicalBoard, calls *string) []engine.Call {
	if calls == nil {
		return nil
	}
	parsed, err := engine.ParseCalls(*calls)
	if err != nil {
		b.note("auction: %v", err)
		return nil
	}
	return parsed
}

func repairAuction(b *CanonicalBoard, parsed []engine.Call) *engine.Repair {
	if parsed == nil {
		return nil
	}
	dealer, ok := b.Dealer.Get()
	if !ok {
		b.note("auction: dealer unknown, cannot replay calls")
		return nil
	}
	rep := engine.RepairAuction(dealer, parsed)
	if rep.Broken != nil {
		b.note("auction: %v", rep.Broken)
	}
	return &rep
}

// auctionField grades the recorded call sequence: fully legal and closed is
// a Match against its own replay; a sequence whose legal prefix falls short
// is a Mismatch with the recorded calls canonical and the prefix kept for
// audit; a sequence with no usable prefix is PrimaryOnly.
func auctionField(raw *string, parsed []engine.Call, rep *engine.Repair) Field[[]engine.Call] {
	if raw == nil {
		return Field[[]engine.Call]{Status: Missing}
	}
	if rep == nil || len(rep.Prefix) == 0 {
		f := Field[[]engine.Call]{Status: PrimaryOnly}
		if parsed != nil {
			f.Value = ptr(parsed)
		}
		return f
	}
	if rep.Complete() && rep.Broken == nil {
		return Field[[]engine.Call]{Status: Match, Value: ptr(parsed)}
	}
	return Field[[]engine.Call]{Status: Mismatch, Value: ptr(parsed), Derived: ptr(rep.Prefix)}
}

func parseContract(b *CanonicalBoard, s *string) *engine.Contract {
	if s == nil {
		return nil
	}
	c, err := engine.ParseContract(*s)
	if err != nil {
		b.note("contract: %v", err)
		return nil
	}
	return &c
}

func parseLead(b *CanonicalBoard, s *string) *engine.Card {
	if s == nil {
		return nil
	}
	c, err := engine.ParseCard(*s)
	if err != nil {
		b.note("lead: %v", err)
		return nil
	}
	return &c
}

// leadFromPlay derives the opening lead as the first card of the recorded
// play sequence.
func leadFromPlay(b *CanonicalBoard, play *string) *engine.Card {
	if play == nil {
		return nil
	}
	tokens := strings.FieldsFunc(*play, func(r rune) bool {
		return r == ' ' || r == '-' || r == ','
	})
	if len(tokens) == 0 {
		return nil
	}
	c, err := engine.ParseCard(tokens[0])
	if err != nil {
		b.note("play: %v", err)
		return nil
	}
	return &c
}

// canonicalContract is the contract used for score and trick derivation:
// the contract field's canonical value with the declarer field's canonical
// seat folded in.
func canonicalContract(b *CanonicalBoard) (engine.Contract, bool) {
	c, ok := b.Contract.Get()
	if !ok {
		return engine.Contract{}, false
	}
	if decl, ok := b.Declarer.Get(); ok {
		c.Declarer = decl
	} else if !c.PassedOut() {
		return engine.Contract{}, false
	}
	return c, true
}

func derivedTricks(b *CanonicalBoard, score *int) *int {
	if score == nil {
		return nil
	}
	c, ok := canonicalContract(b)
	if !ok {
		return nil
	}
	vul, ok := b.Vul.Get()
	if !ok {
		return nil
	}
	tricks, err := engine.TricksFromScore(c, *score, vul)
	if err != nil {
		b.note("tricks: %v", err)
		return nil
	}
	return &tricks
}

func derivedScore(b *CanonicalBoard, tricks *int) *int {
	if tricks == nil {
		return nil
	}
	c, ok := canonicalContract(b)
	if !ok {
		return nil
	}
	vul, ok := b.Vul.Get()
	if !ok {
		return nil
	}
	score, err := engine.ScoreNS(c, *tricks, vul)
	if err != nil {
		b.note("score: %v", err)
		return nil
	}
	return &score
}

// classifyLead names the lead against the opening leader's holding. The
// leader sits after the declarer.
func classifyLead(b *CanonicalBoard) engine.LeadType {
	lead, ok := b.Lead.Get()
	if !ok || b.Deal == nil {
		return ""
	}
	c, ok := canonicalContract(b)
	if !ok || c.PassedOut() {
		return ""
	}
	leader := c.Declarer.Next()
	return engine.ClassifyLead(b.Deal.Hands[leader].Holding(lead.Suit), lead.Rank)
}
