package searcher

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"tictactoe/game"
	"tictactoe/meta"
	"tictactoe/store"
)

// Strategy selects how the exhaustive search backs child values up to a parent.
type Strategy int

const (
	// Uniform assumes a uniformly random opponent: the value is the mean of children.
	Uniform Strategy = iota
	// Discount is Uniform with values decaying by gamma per ply from the leaf.
	Discount
	// Minimax takes the max of children for player 1 and the min for player 2.
	Minimax
	// Negamin stores values from the point of view of the player that just moved,
	// taking the min of negated children.
	Negamin
)

var strategyNames = map[Strategy]string{
	Uniform:  "uniform",
	Discount: "discount",
	Minimax:  "minimax",
	Negamin:  "negamin",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// ParseStrategy returns the strategy named name.
func ParseStrategy(name string) (Strategy, bool) {
	for s, n := range strategyNames {
		if n == name {
			return s, true
		}
	}
	return 0, false
}

// DP holds exact values for every reachable canonical board.
type DP struct {
	strategy Strategy
	gamma    float64
	table    *store.Table[float64]
	metrics  MetricsCollector
	last     SearchMetrics
}

type DPOption func(d *DP)

func WithGamma(gamma float64) DPOption {
	return func(d *DP) {
		if gamma > 0 && gamma <= 1 {
			d.gamma = gamma
		}
	}
}

// WithTable reuses previously computed values instead of exploring.
func WithTable(table *store.Table[float64]) DPOption {
	return func(d *DP) {
		d.table = table
	}
}

func WithDPMetrics() DPOption {
	return func(d *DP) {
		d.metrics = NewMetricsCollector()
	}
}

// NewDP explores the complete game tree from the empty board unless a table is supplied.
func NewDP(strategy Strategy, tables *game.Tables, options ...DPOption) *DP {
	if _, ok := strategyNames[strategy]; !ok {
		panic(fmt.Sprintf("unknown strategy %d", strategy))
	}
	d := &DP{ // Default values
		strategy: strategy,
		gamma:    meta.DISCOUNT,
		metrics:  NewNoMetricsCollector(),
	}
	for _, option := range options {
		option(d)
	}
	if d.table != nil {
		return d
	}

	d.table = store.NewTable[float64](tables)
	d.metrics.Start()
	d.Explore(game.NewBoard(tables))
	d.last = d.metrics.Complete()
	log.Debug().Msgf("explored %s tree: %d states", d.strategy, d.table.Len())
	return d
}

func (d *DP) Strategy() Strategy {
	return d.strategy
}

func (d *DP) Table() *store.Table[float64] {
	return d.table
}

func (d *DP) Metrics() SearchMetrics {
	return d.last
}

// Explore adds b and its descendants to the table and returns the value backed up to its parent.
func (d *DP) Explore(b *game.Board) float64 {
	d.metrics.AddNode()
	if value, ok := d.cutoff(b); ok {
		return d.discount(value)
	}

	var value float64
	switch d.strategy {
	case Uniform, Discount:
		value = d.mean(b)
	case Minimax:
		value = d.minimax(b)
	case Negamin:
		value = d.negamin(b)
	}

	d.table.Set(b, value)
	return d.discount(value)
}

// cutoff ends recursion at transpositions, which are already stored, and at terminal boards.
func (d *DP) cutoff(b *game.Board) (float64, bool) {
	if value, ok := d.table.Get(b); ok {
		d.metrics.AddTableHit()
		return value, true
	}
	if b.IsTerminal() {
		value := d.utility(b)
		d.table.Set(b, value)
		return value, true
	}
	return 0, false
}

func (d *DP) utility(b *game.Board) float64 {
	u := float64(b.Utility())
	if d.strategy == Negamin {
		return math.Abs(u)
	}
	return u
}

func (d *DP) discount(value float64) float64 {
	if d.strategy == Discount {
		return d.gamma * value
	}
	return value
}

func (d *DP) mean(b *game.Board) float64 {
	num, mean := 0.0, 0.0
	for _, pos := range b.Actions() {
		b.Push(pos)
		value := d.Explore(b)
		b.Pop()
		num++
		mean += (value - mean) / num
	}
	return mean
}

func (d *DP) minimax(b *game.Board) float64 {
	if b.Turn() == game.Player1 {
		value := -2.0
		for _, pos := range b.Actions() {
			b.Push(pos)
			value = math.Max(d.Explore(b), value)
			b.Pop()
		}
		return value
	}
	value := 2.0
	for _, pos := range b.Actions() {
		b.Push(pos)
		value = math.Min(d.Explore(b), value)
		b.Pop()
	}
	return value
}

func (d *DP) negamin(b *game.Board) float64 {
	value := 1.0
	for _, pos := range b.Actions() {
		b.Push(pos)
		value = math.Min(-d.Explore(b), value)
		b.Pop()
	}
	return value
}

// ActionValues returns stored afterstate values. Every reachable board is stored,
// so a missing afterstate is a programmer error.
func (d *DP) ActionValues(b *game.Board) []ActionValue {
	actions := b.Actions()
	result := make([]ActionValue, 0, len(actions))
	for _, pos := range actions {
		b.Push(pos)
		value := d.table.MustGet(b)
		b.Pop()
		result = append(result, ActionValue{Position: pos, Value: value})
	}
	return result
}

func (d *DP) BestActions(b *game.Board) []game.Position {
	actionValues := d.ActionValues(b)
	switch d.strategy {
	case Minimax:
		return equalTo(actionValues, d.table.MustGet(b))
	case Negamin:
		return equalTo(actionValues, -d.table.MustGet(b))
	default:
		return extremal(b, actionValues)
	}
}

// NormalizedActionValues returns values in [-1, 1]. Negamin afterstates are
// already from the mover's view.
func (d *DP) NormalizedActionValues(b *game.Board) []ActionValue {
	return d.ActionValues(b)
}
