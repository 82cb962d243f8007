package searcher

import (
	"tictactoe/game"
	"tictactoe/store"
)

// Learned plays greedily on a table of self-play values. Values are from player 1's
// point of view and afterstates missing from the table count as neutral.
type Learned struct {
	table *store.Table[float64]
}

func NewLearned(table *store.Table[float64]) *Learned {
	if table == nil {
		panic("learned search needs a value table")
	}
	return &Learned{table: table}
}

func (l *Learned) Table() *store.Table[float64] {
	return l.table
}

func (l *Learned) ActionValues(b *game.Board) []ActionValue {
	actions := b.Actions()
	result := make([]ActionValue, 0, len(actions))
	for _, pos := range actions {
		b.Push(pos)
		value := l.table.GetOr(b, 0)
		b.Pop()
		result = append(result, ActionValue{Position: pos, Value: value})
	}
	return result
}

func (l *Learned) BestActions(b *game.Board) []game.Position {
	return extremal(b, l.ActionValues(b))
}

func (l *Learned) NormalizedActionValues(b *game.Board) []ActionValue {
	return l.ActionValues(b)
}

// Explore returns the stored value of b, or 0 when it was never learned.
func (l *Learned) Explore(b *game.Board) float64 {
	return l.table.GetOr(b, 0)
}
