package searcher

import "tictactoe/game"

// Random values every action at zero, so every legal position is best.
type Random struct{}

func NewRandom() Random {
	return Random{}
}

func (Random) BestActions(b *game.Board) []game.Position {
	return b.Actions()
}

func (Random) ActionValues(b *game.Board) []ActionValue {
	actions := b.Actions()
	result := make([]ActionValue, len(actions))
	for i, pos := range actions {
		result[i] = ActionValue{Position: pos}
	}
	return result
}

func (r Random) NormalizedActionValues(b *game.Board) []ActionValue {
	return r.ActionValues(b)
}
