package searcher

// RecordKind tags which search wrote a record.
type RecordKind uint8

const (
	// ExactRecord values lie in [-1, 1] and are searched to the end of the game.
	ExactRecord RecordKind = iota + 1
	// HeuristicRecord values lie in [-EVAL_MAX, EVAL_MAX] and carry a search depth.
	HeuristicRecord
)

// Bound tells how a stored value relates to the true value at its depth.
type Bound uint8

const (
	BoundExact Bound = iota + 1
	// BoundLower comes from a beta cutoff: the true value is at least Value.
	BoundLower
	// BoundUpper comes from a node where no move beat alpha: the true value is at most Value.
	BoundUpper
)

// NoBest marks a record without a best child.
const NoBest = -1

// Record is an alpha-beta transposition entry. Values are from the point of view
// of the player to move on the stored board.
type Record struct {
	Kind  RecordKind
	Value int
	Bound Bound
	Depth int
	// Best is the canonical id of the best afterstate, which resolves to a legal
	// position under any symmetric orientation of the board.
	Best    int
	Eval    int
	HasEval bool
}

// Exact reports whether Value is the searched value rather than a bound.
func (r Record) Exact() bool {
	return r.Bound == BoundExact
}

// usable reports whether r settles a search of the given depth and window.
func (r Record) usable(depth, alpha, beta int, checkDepth bool) bool {
	if checkDepth && r.Depth < depth {
		return false
	}
	switch r.Bound {
	case BoundExact:
		return true
	case BoundLower:
		return r.Value >= beta
	case BoundUpper:
		return r.Value <= alpha
	}
	return false
}
