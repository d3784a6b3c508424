package engine

import (
	"errors"
	"fmt"
)

// ErrInvalidContract marks a contract/result combination outside the scoring
// table: tricks out of [0,13], a malformed level, or a score no legal result
// can produce.
var ErrInvalidContract = errors.New("invalid contract")

// trick values per strain; notrump adds 10 for the first trick.
var trickValue = [5]int{20, 20, 30, 30, 30}

func premiumMult(d Doubling) int {
	switch d {
	case Doubled:
		return 2
	case Redoubled:
		return 4
	}
	return 1
}

// basicTrickScore is the below-the-line score for the contracted tricks.
func basicTrickScore(c Contract) int {
	score := c.Level * trickValue[c.Strain]
	if c.Strain == NoTrump {
		score += 10
	}
	return score * premiumMult(c.Doubling)
}

// ContractType buckets a contract for reporting.
type ContractType string

const (
	TypePassedOut ContractType = "passed-out"
	TypePartScore ContractType = "part-score"
	TypeGame      ContractType = "game"
	TypeSlam      ContractType = "slam"
	TypeGrand     ContractType = "grand-slam"
)

func (c Contract) Type() ContractType {
	switch {
	case c.PassedOut():
		return TypePassedOut
	case c.Level == 7:
		return TypeGrand
	case c.Level == 6:
		return TypeSlam
	case basicTrickScore(c) >= 100:
		return TypeGame
	}
	return TypePartScore
}

// Score computes the duplicate-bridge score of a played contract from the
// declarer's perspective: positive when the contract made, negative when it
// went down. A passed-out deal scores exactly zero; any other contract with
// tricks outside [0,13] fails with ErrInvalidContract.
func Score(c Contract, tricks int, vulnerable bool) (int, error) {
	if c.PassedOut() {
		if tricks != 0 {
			return 0, fmt.Errorf("passed out with %d tricks: %w", tricks, ErrInvalidContract)
		}
		return 0, nil
	}
	if c.Level < 1 || c.Level > 7 {
		return 0, fmt.Errorf("level %d: %w", c.Level, ErrInvalidContract)
	}
	if tricks < 0 || tricks > 13 {
		return 0, fmt.Errorf("tricks %d: %w", tricks, ErrInvalidContract)
	}

	needed := c.Level + 6
	if tricks < needed {
		return -penalty(needed-tricks, c.Doubling, vulnerable), nil
	}

	basic := basicTrickScore(c)
	score := basic
	if basic >= 100 {
		if vulnerable {
			score += 500
		} else {
			score += 300
		}
	} else {
		score += 50
	}
	switch c.Level {
	case 6:
		if vulnerable {
			score += 750
		} else {
			score += 500
		}
	case 7:
		if vulnerable {
			score += 1500
		} else {
			score += 1000
		}
	}
	switch c.Doubling {
	case Doubled:
		score += 50
	case Redoubled:
		score += 100
	}
	return score + (tricks-needed)*overtrickValue(c, vulnerable), nil
}

func overtrickValue(c Contract, vulnerable bool) int {
	if c.Doubling == Undoubled {
		return trickValue[c.Strain]
	}
	v := 100
	if vulnerable {
		v = 200
	}
	if c.Doubling == Redoubled {
		v *= 2
	}
	return v
}

// penalty returns the positive penalty for going down the given number of
// tricks, following the standard progressive schedule.
func penalty(under int, d Doubling, vulnerable bool) int {
	if d == Undoubled {
		if vulnerable {
			return under * 100
		}
		return under * 50
	}
	var p int
	if vulnerable {
		// 200, 500, 800, ... (+300 each)
		p = under*300 - 100
	} else {
		// 100, 300, 500, then 800, 1100, ... (+300 each)
		switch under {
		case 1:
			p = 100
		case 2:
			p = 300
		case 3:
			p = 500
		default:
			p = under*300 - 400
		}
	}
	if d == Redoubled {
		p *= 2
	}
	return p
}

// ScoreNS converts the declarer-perspective score to the north-south sign
// convention used on scoresheets.
func ScoreNS(c Contract, tricks int, vul Vulnerability) (int, error) {
	if c.PassedOut() {
		return 0, nil
	}
	score, err := Score(c, tricks, vul.SideVulnerable(c.Declarer.Side()))
	if err != nil {
		return 0, err
	}
	if c.Declarer.Side() == EastWest {
		score = -score
	}
	return score, nil
}

// TricksFromScore inverts ScoreNS: given a recorded north-south score and
// the contract it was scored under, recover the tricks made. It fails with
// ErrInvalidContract when no trick count in [0,13] produces the score, so a
// corrupt recorded score degrades to "underivable" rather than a guess.
func TricksFromScore(c Contract, scoreNS int, vul Vulnerability) (int, error) {
	if c.PassedOut() {
		if scoreNS != 0 {
			return 0, fmt.Errorf("passed out scored %d: %w", scoreNS, ErrInvalidContract)
		}
		return 0, nil
	}
	for tricks := 0; tricks <= 13; tricks++ {
		got, err := ScoreNS(c, tricks, vul)
		if err != nil {
			return 0, err
		}
		if got == scoreNS {
			return tricks, nil
		}
	}
	return 0, fmt.Errorf("no result of %s scores %d: %w", c, scoreNS, ErrInvalidContract)
}
