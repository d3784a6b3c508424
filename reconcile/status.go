package reconcile

// Status is the per-field trust tag produced by merging a recorded value
// with a recomputed one.
type Status string

const (
	// Match: recorded and recomputed values agree.
	Match Status = "match"
	// Mismatch: both present, values disagree. The recorded value stays
	// canonical and the recomputed one is kept for audit.
	Mismatch Status = "mismatch"
	// PrimaryOnly: recorded value present, recomputation impossible.
	PrimaryOnly Status = "primary-only"
	// DerivedOnly: nothing recorded, recomputed value adopted.
	DerivedOnly Status = "derived-only"
	// Missing: neither recorded nor derivable.
	Missing Status = "missing"
)

// Severity orders statuses for board-level reporting. A disagreement
// outranks a hole; a hole outranks a one-sided fill.
func (s Status) Severity() int {
	switch s {
	case Mismatch:
		return 3
	case Missing:
		return 2
	case PrimaryOnly, DerivedOnly:
		return 1
	}
	return 0
}

// Worst returns the higher-severity of two statuses.
func Worst(a, b Status) Status {
	if b.Severity() > a.Severity() {
		return b
	}
	return a
}
