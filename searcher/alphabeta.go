package searcher

import (
	"sort"
	"time"

	"tictactoe/game"
	"tictactoe/meta"
	"tictactoe/store"
)

// AlphaBeta is the negamax alpha-beta family. Without a depth it searches to the end
// of the game with values in [-1, 1]. With a depth it scores the frontier with a static
// evaluation in [-EVAL_MAX, EVAL_MAX], optionally ordering moves by cached evaluation,
// deepening iteratively with principal variation reuse, and stopping at a deadline.
type AlphaBeta struct {
	table     *store.Table[Record]
	kind      RecordKind
	limit     int
	depth     int
	ordering  bool
	deepening bool
	duration  time.Duration
	evaluate  game.Evaluate
	metrics   MetricsCollector
	deadline  time.Time
	last      SearchMetrics
}

type Option func(a *AlphaBeta)

// WithDepth limits the search to depth plies, scoring the frontier heuristically.
func WithDepth(depth int) Option {
	return func(a *AlphaBeta) {
		if depth > 0 {
			a.depth = depth
		}
	}
}

// WithMoveOrdering expands children in ascending order of their cached evaluation.
func WithMoveOrdering() Option {
	return func(a *AlphaBeta) {
		a.ordering = true
	}
}

// WithIterativeDeepening searches depth 1, 2, ... replaying the stored best move first.
func WithIterativeDeepening() Option {
	return func(a *AlphaBeta) {
		a.ordering = true
		a.deepening = true
	}
}

// WithDuration stops deepening at a wall-clock deadline measured from the start of each search.
func WithDuration(duration time.Duration) Option {
	return func(a *AlphaBeta) {
		if duration > 0 {
			a.duration = duration
			a.ordering = true
			a.deepening = true
		}
	}
}

func WithEvaluationFn(evaluate game.Evaluate) Option {
	return func(a *AlphaBeta) {
		if evaluate != nil {
			a.evaluate = evaluate
		}
	}
}

func WithMetrics() Option {
	return func(a *AlphaBeta) {
		a.metrics = NewMetricsCollector()
	}
}

// WithRecords shares a transposition table between searches.
func WithRecords(table *store.Table[Record]) Option {
	return func(a *AlphaBeta) {
		a.table = table
	}
}

func NewAlphaBeta(tables *game.Tables, options ...Option) *AlphaBeta {
	a := &AlphaBeta{ // Default values
		evaluate: game.EvaluateLines,
		metrics:  NewNoMetricsCollector(),
	}
	for _, option := range options {
		option(a)
	}
	if (a.ordering || a.deepening) && a.depth == 0 {
		a.depth = meta.MAX_DEPTH
	}
	if a.depth > 0 {
		a.kind = HeuristicRecord
		a.limit = meta.EVAL_MAX
	} else {
		a.kind = ExactRecord
		a.limit = 1
	}
	if a.table == nil {
		a.table = store.NewTable[Record](tables)
	}
	return a
}

func (a *AlphaBeta) Table() *store.Table[Record] {
	return a.table
}

// Limit is the largest absolute value a search returns.
func (a *AlphaBeta) Limit() int {
	return a.limit
}

// Metrics returns the metrics of the last root search.
func (a *AlphaBeta) Metrics() SearchMetrics {
	return a.last
}

// Explore searches b with a full window and returns its value for the player to move.
func (a *AlphaBeta) Explore(b *game.Board) float64 {
	return float64(a.explore(b, a.rootDepth(), -a.limit, a.limit))
}

func (a *AlphaBeta) rootDepth() int {
	if a.kind == ExactRecord {
		return meta.MAX_DEPTH
	}
	return a.depth
}

func (a *AlphaBeta) explore(b *game.Board, depth, alpha, beta int) int {
	rec, hit := a.cutoffTest(b, depth, alpha, beta)
	if hit {
		return rec.Value
	}
	return a.expand(b, depth, alpha, beta, rec, 0, false)
}

// principal replays the stored best move before the remaining ordered moves.
func (a *AlphaBeta) principal(b *game.Board, depth, alpha, beta int) int {
	rec, hit := a.cutoffTest(b, depth, alpha, beta)
	if hit {
		return rec.Value
	}
	if depth > 1 && rec.Best != NoBest {
		if pos, ok := a.positionOf(b, rec.Best); ok {
			return a.expand(b, depth, alpha, beta, rec, pos, true)
		}
	}
	return a.expand(b, depth, alpha, beta, rec, 0, false)
}

func (a *AlphaBeta) expand(b *game.Board, depth, alpha, beta int, prev Record, principal game.Position, hasPrincipal bool) int {
	// Start below any reachable value so the first child always becomes best
	value, best := -a.limit-1, NoBest
	alphaOrig := alpha

	for i, pos := range a.order(b, principal, hasPrincipal) {
		if a.expired() {
			a.metrics.TimedOut()
			break
		}
		b.Push(pos)
		var child int
		if hasPrincipal && i == 0 {
			child = -a.principal(b, depth-1, -beta, -alpha)
		} else {
			child = -a.explore(b, depth-1, -beta, -alpha)
		}
		id := b.Hash()
		b.Pop()

		if value < child {
			value, best = child, id
		}
		if value >= beta {
			a.metrics.AddCutoff()
			a.store(b, a.record(value, BoundLower, depth, best, prev))
			return value
		}
		alpha = max(alpha, value)
	}

	if best == NoBest {
		return a.staticValue(b, prev)
	}
	bound := BoundExact
	if value <= alphaOrig {
		bound = BoundUpper
	}
	a.store(b, a.record(value, bound, depth, best, prev))
	return value
}

func (a *AlphaBeta) record(value int, bound Bound, depth, best int, prev Record) Record {
	return Record{
		Kind:    a.kind,
		Value:   value,
		Bound:   bound,
		Depth:   depth,
		Best:    best,
		Eval:    prev.Eval,
		HasEval: prev.HasEval,
	}
}

// store skips writes once the deadline passed, since partial values are not search results.
func (a *AlphaBeta) store(b *game.Board, rec Record) {
	if a.expired() {
		return
	}
	a.table.Set(b, rec)
}

// lookup returns the record of b if this search's kind wrote it. Records of the
// other kind hold values on a different scale and count as misses.
func (a *AlphaBeta) lookup(b *game.Board) (Record, bool) {
	rec, ok := a.table.Get(b)
	if !ok || rec.Kind != a.kind {
		return Record{}, false
	}
	return rec, true
}

// cutoffTest runs the table, terminal and depth tests in order. On a miss it returns
// the evicted record, if any, so its cached evaluation and best move can be reused.
func (a *AlphaBeta) cutoffTest(b *game.Board, depth, alpha, beta int) (Record, bool) {
	a.metrics.AddNode()
	rec, ok := a.lookup(b)
	if !ok {
		rec = Record{Best: NoBest}
	}

	if a.expired() {
		a.metrics.TimedOut()
		if ok {
			return rec, true
		}
		return Record{Value: a.staticValue(b, rec), Best: NoBest}, true
	}

	if ok {
		if rec.usable(depth, alpha, beta, a.kind == HeuristicRecord) {
			a.metrics.AddTableHit()
			return rec, true
		}
		a.table.Delete(b)
	}

	if b.IsTerminal() {
		terminal := a.terminalRecord(b)
		a.table.Set(b, terminal)
		return terminal, true
	}

	if a.kind == HeuristicRecord && depth <= 0 {
		frontier := a.frontierRecord(b, rec)
		a.table.Set(b, frontier)
		return frontier, true
	}

	return rec, false
}

// terminalRecord scores a finished game for the player to move, who never won it.
func (a *AlphaBeta) terminalRecord(b *game.Board) Record {
	u := b.Utility()
	if u < 0 {
		u = -u
	}
	return Record{
		Kind:  a.kind,
		Value: -a.limit * u,
		Bound: BoundExact,
		Depth: meta.TERMINAL_DEPTH,
		Best:  NoBest,
	}
}

func (a *AlphaBeta) frontierRecord(b *game.Board, prev Record) Record {
	eval := a.evaluation(b, prev)
	return Record{
		Kind:    a.kind,
		Value:   eval,
		Bound:   BoundExact,
		Depth:   0,
		Best:    NoBest,
		Eval:    eval,
		HasEval: true,
	}
}

func (a *AlphaBeta) evaluation(b *game.Board, prev Record) int {
	if prev.HasEval {
		return prev.Eval
	}
	return a.evaluate(b)
}

func (a *AlphaBeta) staticValue(b *game.Board, prev Record) int {
	if b.IsTerminal() {
		return a.terminalRecord(b).Value
	}
	if a.kind == ExactRecord {
		return 0
	}
	return a.evaluation(b, prev)
}

// order returns the moves to expand, the principal move first when given.
func (a *AlphaBeta) order(b *game.Board, principal game.Position, hasPrincipal bool) []game.Position {
	actions := b.Actions()
	moves := make([]game.Position, 0, len(actions))
	for _, pos := range actions {
		if !hasPrincipal || pos != principal {
			moves = append(moves, pos)
		}
	}

	if a.ordering {
		evals := make(map[game.Position]int, len(moves))
		for _, pos := range moves {
			evals[pos] = a.childEvaluation(b, pos)
		}
		sort.SliceStable(moves, func(i, j int) bool {
			return evals[moves[i]] < evals[moves[j]]
		})
	}

	if hasPrincipal {
		moves = append([]game.Position{principal}, moves...)
	}
	return moves
}

// childEvaluation returns the cached evaluation of the afterstate of pos, caching a
// frontier record when the afterstate is unseen. Lower is better for the player to move on b.
func (a *AlphaBeta) childEvaluation(b *game.Board, pos game.Position) int {
	b.Push(pos)
	defer b.Pop()

	if rec, ok := a.lookup(b); ok {
		if rec.HasEval {
			return rec.Eval
		}
		return rec.Value
	}
	var rec Record
	if b.IsTerminal() {
		rec = a.terminalRecord(b)
	} else {
		rec = a.frontierRecord(b, Record{})
	}
	a.table.Set(b, rec)
	return rec.Value
}

// positionOf resolves a canonical afterstate id to a legal position on b.
func (a *AlphaBeta) positionOf(b *game.Board, id int) (game.Position, bool) {
	for _, pos := range b.Actions() {
		b.Push(pos)
		match := b.Hash() == id
		b.Pop()
		if match {
			return pos, true
		}
	}
	return 0, false
}

func (a *AlphaBeta) expired() bool {
	return !a.deadline.IsZero() && time.Now().After(a.deadline)
}

// search runs a root search and returns the root record of the last completed iteration.
func (a *AlphaBeta) search(b *game.Board) (Record, bool) {
	a.metrics.Start()
	a.deadline = time.Time{}
	if a.duration > 0 {
		a.deadline = time.Now().Add(a.duration)
	}
	defer func() {
		a.deadline = time.Time{}
		a.last = a.metrics.Complete()
	}()

	if !a.deepening {
		a.explore(b, a.rootDepth(), -a.limit, a.limit)
		a.metrics.ReachedDepth(a.rootDepth())
		return a.lookup(b)
	}

	var completed Record
	found := false
	for depth := 1; depth <= a.depth; depth++ {
		a.principal(b, depth, -a.limit, a.limit)
		if a.expired() && found {
			break
		}
		if rec, ok := a.lookup(b); ok {
			completed, found = rec, true
			a.metrics.ReachedDepth(depth)
		}
		if a.expired() {
			break
		}
	}
	return completed, found
}

// BestActions returns the single best position found by a full-window root search.
func (a *AlphaBeta) BestActions(b *game.Board) []game.Position {
	if b.IsTerminal() {
		return nil
	}
	rec, ok := a.search(b)
	if ok && rec.Best != NoBest {
		if pos, ok := a.positionOf(b, rec.Best); ok {
			return []game.Position{pos}
		}
	}
	return a.order(b, 0, false)[:1]
}

// ActionValues searches each afterstate with a full window and negates its value
// to the point of view of the player to move on b.
func (a *AlphaBeta) ActionValues(b *game.Board) []ActionValue {
	actions := b.Actions()
	result := make([]ActionValue, 0, len(actions))
	for _, pos := range actions {
		b.Push(pos)
		value := -a.explore(b, a.rootDepth()-1, -a.limit, a.limit)
		b.Pop()
		result = append(result, ActionValue{Position: pos, Value: float64(value)})
	}
	return result
}

// NormalizedActionValues rescales action values linearly to [0, 1].
func (a *AlphaBeta) NormalizedActionValues(b *game.Board) []ActionValue {
	result := a.ActionValues(b)
	for i := range result {
		result[i].Value = a.Normalize(result[i].Value)
	}
	return result
}

func (a *AlphaBeta) Normalize(value float64) float64 {
	return 0.5 + value/float64(2*a.limit)
}
