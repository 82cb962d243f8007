package searcher

import (
	"github.com/samber/lo"

	"tictactoe/game"
	"tictactoe/utils"
)

// ActionValue pairs a legal position with its value from the acting player's point of view.
type ActionValue struct {
	Position game.Position
	Value    float64
}

// Search answers policy queries for a board. Boards are restored before returning.
type Search interface {
	// BestActions returns the most valued legal positions.
	BestActions(b *game.Board) []game.Position
	// ActionValues returns afterstate values in position order.
	ActionValues(b *game.Board) []ActionValue
	// NormalizedActionValues rescales values to a fixed display range.
	NormalizedActionValues(b *game.Board) []ActionValue
}

// Explorer backs a value up from the subtree below a board.
type Explorer interface {
	Explore(b *game.Board) float64
}

// Policy picks uniformly among the best actions of s.
func Policy(s Search, b *game.Board, r utils.Rand) game.Position {
	return utils.Choice(r, s.BestActions(b))
}

// extremal returns positions holding the max value for player 1, the min for player 2.
func extremal(b *game.Board, actionValues []ActionValue) []game.Position {
	if len(actionValues) == 0 {
		return nil
	}
	values := lo.Map(actionValues, func(av ActionValue, _ int) float64 { return av.Value })
	target := lo.Min(values)
	if b.Turn() == game.Player1 {
		target = lo.Max(values)
	}
	return equalTo(actionValues, target)
}

func equalTo(actionValues []ActionValue, target float64) []game.Position {
	return lo.FilterMap(actionValues, func(av ActionValue, _ int) (game.Position, bool) {
		return av.Position, av.Value == target
	})
}
