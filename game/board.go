package game

import (
	"fmt"
	"strings"
)

// Board is the mutable playing area. It changes only through Push and Pop.
// Two boards are equal when they share a canonical id, which merges
// symmetric boards and transpositions.
type Board struct {
	tables    *Tables
	cells     [Cells]uint8
	played    []Position
	open      [Cells]bool
	openCount int
	winner    Outcome
	hash      int
}

// NewBoard returns an empty board backed by tables.
func NewBoard(tables *Tables) *Board {
	b := &Board{
		tables: tables,
		played: make([]Position, 0, Cells),
	}
	b.Reset()
	return b
}

// NewBoardFrom returns a board after playing positions in order.
func NewBoardFrom(tables *Tables, positions ...Position) *Board {
	b := NewBoard(tables)
	for _, pos := range positions {
		b.Push(pos)
	}
	return b
}

func (b *Board) Tables() *Tables {
	return b.tables
}

// Moves returns the number of positions played.
func (b *Board) Moves() int {
	return len(b.played)
}

// Turn returns the player to move: player 1 on an even move count.
func (b *Board) Turn() Player {
	return Player(1 + b.Moves()%2)
}

// Other returns the player that moved last.
func (b *Board) Other() Player {
	return Player(2 - b.Moves()%2)
}

// LastPosition returns the last played position, false on an empty board.
func (b *Board) LastPosition() (Position, bool) {
	if len(b.played) == 0 {
		return 0, false
	}
	return b.played[len(b.played)-1], true
}

// Played returns a copy of the positions played in order.
func (b *Board) Played() []Position {
	return append([]Position(nil), b.played...)
}

// Actions returns the open positions in ascending order.
func (b *Board) Actions() []Position {
	actions := make([]Position, 0, b.openCount)
	for pos, open := range b.open {
		if open {
			actions = append(actions, Position(pos))
		}
	}
	return actions
}

// IsOpen reports whether pos is empty.
func (b *Board) IsOpen(pos Position) bool {
	return pos >= 0 && pos < Cells && b.open[pos]
}

// Cell returns 0 for an empty cell, else the occupying player.
func (b *Board) Cell(pos Position) Player {
	return Player(b.cells[pos])
}

// Cells returns a copy of the cell values.
func (b *Board) Cells() [Cells]uint8 {
	return b.cells
}

func (b *Board) Winner() Outcome {
	return b.winner
}

// IsTerminal reports a win or a draw.
func (b *Board) IsTerminal() bool {
	return b.winner != Ongoing
}

// Utility returns +1 for a player 1 win, -1 for a player 2 win, 0 otherwise.
func (b *Board) Utility() int {
	return b.winner.Utility()
}

// Hash returns the canonical id.
func (b *Board) Hash() int {
	return b.tables.Canonical(b.hash)
}

// RawHash returns the additive hash of the exact cell layout.
func (b *Board) RawHash() int {
	return b.hash
}

// Equal compares canonical ids.
func (b *Board) Equal(other *Board) bool {
	return other != nil && b.Hash() == other.Hash()
}

// Push plays pos for the player to move.
func (b *Board) Push(pos Position) {
	if pos < 0 || pos >= Cells {
		panic(fmt.Sprintf("position %d out of range", pos))
	}
	if !b.open[pos] {
		panic(fmt.Sprintf("position %d already played\n%v", pos, b))
	}
	if b.IsTerminal() {
		panic(fmt.Sprintf("game is over, cannot play %d\n%v", pos, b))
	}
	player := b.Turn()
	b.cells[pos] = uint8(player)
	// Key depends on the mover, so it is added before the move count grows
	b.hash += b.tables.Key(player, pos)
	b.played = append(b.played, pos)
	b.open[pos] = false
	b.openCount--
	b.winner = b.tables.Outcome(b.Hash())
}

// Pop undoes the last move and returns its position.
func (b *Board) Pop() Position {
	if len(b.played) == 0 {
		panic("no moves to pop")
	}
	pos := b.played[len(b.played)-1]
	b.played = b.played[:len(b.played)-1]
	b.cells[pos] = 0
	b.open[pos] = true
	b.openCount++
	b.winner = Ongoing
	b.hash -= b.tables.Key(b.Turn(), pos)
	return pos
}

// Reset empties the board for a new game.
func (b *Board) Reset() {
	b.cells = [Cells]uint8{}
	b.played = b.played[:0]
	for pos := range b.open {
		b.open[pos] = true
	}
	b.openCount = Cells
	b.winner = Ongoing
	b.hash = 0
}

// Copy returns a deep copy sharing the same tables.
func (b *Board) Copy() *Board {
	c := *b
	c.played = make([]Position, len(b.played), Cells)
	copy(c.played, b.played)
	return &c
}

// String renders the board with x for player 1 and o for player 2:
//
//	///////////
//	// x o . //
//	// . x . //
//	// . . o //
//	///////////
func (b *Board) String() string {
	var sb strings.Builder
	sb.WriteString(strings.Repeat("/", 11))
	sb.WriteString("\n")
	for row := 0; row < Cells; row += 3 {
		sb.WriteString("// ")
		for pos := row; pos < row+3; pos++ {
			if pos > row {
				sb.WriteString(" ")
			}
			sb.WriteString(piece(b.cells[pos]))
		}
		sb.WriteString(" //\n")
	}
	sb.WriteString(strings.Repeat("/", 11))
	return sb.String()
}

func piece(owner uint8) string {
	switch owner {
	case 1:
		return "x"
	case 2:
		return "o"
	default:
		return "."
	}
}
