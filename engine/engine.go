package engine

import (
	"tictactoe/experiments/metrics"
	"tictactoe/game"
)

// MaxMoves is the length of the longest game.
const MaxMoves = game.Cells

type Engine interface {
	// Run plays until the board is terminal and updates both agents' records
	Run() (winner game.Outcome, gameMetric metrics.GameMetric, err error)
}
