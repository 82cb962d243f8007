package game

import "tictactoe/meta"

// Features extracts binary characteristics of a board.
type Features struct{}

// Vector returns the first non-empty feature group in the order
// terminal (3), terminal next (3), trap (2), incomplete (2).
func (Features) Vector(b *Board) [10]int {
	var result [10]int
	f := Features{}
	groups := [][]int{}
	terminal := f.IsTerminal(b)
	next := f.IsTerminalNext(b)
	trap := f.IsTrap(b)
	incomplete := f.Incomplete(b)
	groups = append(groups, terminal[:], next[:], trap[:], incomplete[:])

	offset := 0
	for _, group := range groups {
		if anyNonZero(group) {
			copy(result[offset:], group)
			break
		}
		offset += len(group)
	}
	return result
}

// IsTerminal returns (draw, player 1 win, player 2 win) flags.
func (Features) IsTerminal(b *Board) [3]int {
	var result [3]int
	if b.IsTerminal() {
		result[b.Winner()] = 1
	}
	return result
}

// IsTerminalNext flags the winner if some next move wins, otherwise flags a draw
// when the single remaining move ends the game.
func (Features) IsTerminalNext(b *Board) [3]int {
	var result [3]int
	if b.IsTerminal() {
		return result
	}
	draw := b.Moves() == Cells-1
	for _, pos := range b.Actions() {
		b.Push(pos)
		winner := b.Winner()
		b.Pop()
		if winner == Player1Win || winner == Player2Win {
			result[winner] = 1
			return result
		}
		draw = draw && winner == Draw
	}
	if draw {
		result[0] = 1
	}
	return result
}

// IsTrap flags the player to move when one open cell would complete two lines
// each already holding one of that player's pieces and one empty cell.
func (Features) IsTrap(b *Board) [2]int {
	var result [2]int
	if b.Moves() < 4 || b.IsTerminal() {
		return result
	}
	turn := b.Turn()
	for _, pos := range b.Actions() {
		singles := 0
		for _, pair := range WinnerSlices[pos] {
			a, c := b.Cell(pair[0]), b.Cell(pair[1])
			if (a == turn && c == 0) || (a == 0 && c == turn) {
				singles++
			}
		}
		if singles >= 2 {
			result[turn-1] = 1
			return result
		}
	}
	return result
}

// Incomplete counts lines held by only one player, returning
// (singles, doubles) with player 1 counted positive and player 2 negative.
func (Features) Incomplete(b *Board) [2]int {
	var result [2]int
	for _, slice := range Slices {
		var counter [3]int
		for _, pos := range slice {
			counter[b.cells[pos]]++
		}
		switch {
		case counter[1] > 0 && counter[2] == 0 && counter[1] < 3:
			result[counter[1]-1]++
		case counter[2] > 0 && counter[1] == 0 && counter[2] < 3:
			result[counter[2]-1]--
		}
	}
	return result
}

func anyNonZero(values []int) bool {
	for _, v := range values {
		if v != 0 {
			return true
		}
	}
	return false
}

// EvaluateLines scores a non-terminal board from the point of view of the player to move.
func EvaluateLines(b *Board) int {
	f := Features{}
	next := f.IsTerminalNext(b)
	turn := b.Turn()
	if next[turn] == 1 {
		return 100
	}

	mine, theirs := openLines(b, turn)
	if theirs[1] >= 2 {
		return -90
	}
	score := 10*(mine[1]-theirs[1]) + (mine[0] - theirs[0])
	return clamp(score, -meta.EVAL_MAX+1, meta.EVAL_MAX-1)
}

// openLines counts (singles, doubles) of lines held only by turn and only by its opponent.
func openLines(b *Board, turn Player) (mine, theirs [2]int) {
	opponent := turn.Opponent()
	for _, slice := range Slices {
		var counter [3]int
		for _, pos := range slice {
			counter[b.cells[pos]]++
		}
		switch {
		case counter[turn] > 0 && counter[opponent] == 0 && counter[turn] < 3:
			mine[counter[turn]-1]++
		case counter[opponent] > 0 && counter[turn] == 0 && counter[opponent] < 3:
			theirs[counter[opponent]-1]++
		}
	}
	return mine, theirs
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
