package engine

import (
	"fmt"
	"strings"
)

// Vulnerability is the per-side scoring state of a board.
type Vulnerability int

const (
	VulNone Vulnerability = iota
	VulNS
	VulEW
	VulBoth
)

func (v Vulnerability) String() string {
	switch v {
	case VulNS:
		return "NS"
	case VulEW:
		return "EW"
	case VulBoth:
		return "Both"
	}
	return "None"
}

func ParseVulnerability(s string) (Vulnerability, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "Z", "NONE", "-", "0":
		return VulNone, nil
	case "N", "NS":
		return VulNS, nil
	case "E", "EW", "WE":
		return VulEW, nil
	case "B", "BOTH", "ALL":
		return VulBoth, nil
	}
	return 0, fmt.Errorf("bad vulnerability %q", s)
}

// SideVulnerable reports whether the given side is vulnerable.
func (v Vulnerability) SideVulnerable(s Side) bool {
	switch v {
	case VulBoth:
		return true
	case VulNS:
		return s == NorthSouth
	case VulEW:
		return s == EastWest
	}
	return false
}

// The standard 16-board vulnerability cycle. Index 0 carries board 16's
// value so the table indexes directly by board%16.
var boardVuls = [16]Vulnerability{
	VulEW, VulNone, VulNS, VulEW,
	VulBoth, VulNS, VulEW, VulBoth,
	VulNone, VulEW, VulBoth, VulNone,
	VulNS, VulBoth, VulNone, VulNS,
}

// VulnerabilityForBoard returns the scheduled vulnerability for a board
// number (1-based).
func VulnerabilityForBoard(board int) Vulnerability {
	return boardVuls[((board%16)+16)%16]
}

// DealerForBoard returns the scheduled dealer: boards rotate N, E, S, W
// starting from board 1.
func DealerForBoard(board int) Seat {
	return Seat(((board-1)%4 + 4) % 4)
}

// BoardForDealerVul is the reverse lookup: the lowest board number in the
// 16-board cycle with the given dealer and vulnerability. Every (dealer, vul)
// pair occurs exactly once per cycle.
func BoardForDealerVul(dealer Seat, vul Vulnerability) int {
	for board := 1; board <= 16; board++ {
		if DealerForBoard(board) == dealer && VulnerabilityForBoard(board) == vul {
			return board
		}
	}
	return 0 // unreachable: the cycle covers all 16 combinations
}
