package game

// Position is a cell index in row-major order:
//
//	0 1 2
//	3 4 5
//	6 7 8
type Position int

const Cells = 9

// Player is 1 for the first mover, 2 for the second.
type Player int

const (
	Player1 Player = 1
	Player2 Player = 2
)

// Opponent returns the other player.
func (p Player) Opponent() Player {
	return 3 - p
}

// Outcome is the terminal status of a board.
type Outcome uint8

const (
	Draw       Outcome = 0
	Player1Win Outcome = 1
	Player2Win Outcome = 2
	Ongoing    Outcome = 3
)

func (o Outcome) String() string {
	switch o {
	case Draw:
		return "draw"
	case Player1Win:
		return "player1"
	case Player2Win:
		return "player2"
	default:
		return "ongoing"
	}
}

// Utility scores an outcome from player 1's point of view.
func (o Outcome) Utility() int {
	switch o {
	case Player1Win:
		return 1
	case Player2Win:
		return -1
	default:
		return 0
	}
}

// Evaluates a non-terminal board to a score strictly inside (-EVAL_MAX, EVAL_MAX)
// indicating how favorable the position is for the player to move.
type Evaluate func(*Board) int
