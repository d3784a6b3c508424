// Package dedupe clusters near-duplicate event and tournament names so one
// tournament recorded as "Spring Nationals 2024", "SPRING NATIONALS  2024",
// and "Spring Nationals" counts as a single event identity.
package dedupe

import (
	"sort"
	"strings"
	"unicode"

	"github.com/xrash/smetrics"
)

// DefaultThreshold is the Jaro-Winkler similarity above which two normalized
// names are considered the same event. The single tunable knob.
const DefaultThreshold = 0.88

// Matcher clusters names at a fixed threshold. Clusters from one Matcher run
// are never merged with clusters from a run at a different threshold.
type Matcher struct {
	threshold float64
}

func New(threshold float64) *Matcher {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Matcher{threshold: threshold}
}

// normalize lowers case, drops digits, and collapses runs of whitespace, so
// spacing and year suffixes never split an event.
func normalize(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsSpace(r):
			space = true
		case unicode.IsDigit(r):
		default:
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		}
	}
	return b.String()
}

type cluster struct {
	rep     string // normalized representative, fixed at creation
	members []string
}

// Canonicalize maps every input name to its cluster's canonical display
// name. The canonical name is the cluster's most frequent variant, ties
// broken by longest then lexicographically smallest, so the result is
// deterministic regardless of input order.
func (m *Matcher) Canonicalize(names []string) map[string]string {
	counts := map[string]int{}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		counts[n]++
	}

	uniq := make([]string, 0, len(counts))
	for n := range counts {
		uniq = append(uniq, n)
	}
	// Process frequent names first so they seed the clusters.
	sort.Slice(uniq, func(i, j int) bool {
		if counts[uniq[i]] != counts[uniq[j]] {
			return counts[uniq[i]] > counts[uniq[j]]
		}
		return uniq[i] < uniq[j]
	})

	var clusters []*cluster
	assignment := map[string]*cluster{}
	for _, n := range uniq {
		norm := normalize(n)
		var home *cluster
		for _, c := range clusters {
			if smetrics.JaroWinkler(norm, c.rep, 0.7, 4) >= m.threshold {
				home = c
				break
			}
		}
		if home == nil {
			home = &cluster{rep: norm}
			clusters = append(clusters, home)
		}
		home.members = append(home.members, n)
		assignment[n] = home
	}

	out := make(map[string]string, len(counts))
	for n, c := range assignment {
		out[n] = canonicalName(c.members, counts)
	}
	return out
}

func canonicalName(members []string, counts map[string]int) string {
	best := members[0]
	for _, n := range members[1:] {
		switch {
		case counts[n] != counts[best]:
			if counts[n] > counts[best] {
				best = n
			}
		case len(n) != len(best):
			if len(n) > len(best) {
				best = n
			}
		case n < best:
			best = n
		}
	}
	return best
}
