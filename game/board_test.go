package game

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tictactoe/utils"
)

type snapshot struct {
	cells   [Cells]uint8
	played  []Position
	actions []Position
	raw     int
	winner  Outcome
}

func snap(b *Board) snapshot {
	return snapshot{
		cells:   b.Cells(),
		played:  b.Played(),
		actions: b.Actions(),
		raw:     b.RawHash(),
		winner:  b.Winner(),
	}
}

// randomBoards plays random games and returns a copy of every intermediate board.
func randomBoards(tables *Tables, games int, seed uint64) []*Board {
	r := utils.NewRand(seed)
	boards := []*Board{NewBoard(tables)}
	for i := 0; i < games; i++ {
		b := NewBoard(tables)
		for !b.IsTerminal() {
			b.Push(utils.Choice(r, b.Actions()))
			boards = append(boards, b.Copy())
		}
	}
	return boards
}

func TestBoardPlay(t *testing.T) {
	tables := DefaultTables()

	t.Run("playing a column win", func(t *testing.T) {
		b := NewBoard(tables)
		keys := []Position{0, 1, 3, 2, 6}
		turns := []Player{Player1, Player2, Player1, Player2, Player1}

		for i, key := range keys {
			require.Equal(t, turns[i], b.Turn(), "Turn should alternate starting with player 1")
			require.Equal(t, turns[i].Opponent(), b.Other(), "Other should be the player that moved last")
			require.False(t, b.IsTerminal(), "Board should not be terminal before the last move")
			b.Push(key)
			require.Equal(t, i+1, b.Moves(), "Move count should grow with each push")
			last, ok := b.LastPosition()
			require.True(t, ok)
			require.Equal(t, key, last, "Last position should be the pushed key")
		}

		require.Equal(t, Player1Win, b.Winner(), "Player 1 should complete the 0-3-6 column")
		require.True(t, b.IsTerminal())
		require.Equal(t, 1, b.Utility())
		require.Equal(t, [Cells]uint8{1, 2, 2, 1, 0, 0, 1, 0, 0}, b.Cells())
	})

	t.Run("playing a main diagonal win", func(t *testing.T) {
		b := NewBoardFrom(tables, 0, 1, 4, 2, 8)

		require.Equal(t, Player1Win, b.Winner(), "Player 1 should complete the 0-4-8 diagonal")
		require.True(t, b.IsTerminal())

		b.Pop()
		require.Equal(t, Ongoing, b.Winner(), "Popping the winning move should clear the winner")
		require.Equal(t, []Position{3, 5, 6, 7, 8}, b.Actions())
	})

	t.Run("playing 0,4,8,2,6 leaves the game open", func(t *testing.T) {
		b := NewBoardFrom(tables, 0, 4, 8, 2)
		require.Equal(t, []Position{1, 3, 5, 6, 7}, b.Actions(), "Open set after 4 pushes")

		b.Push(6)
		require.False(t, b.IsTerminal(), "Player 2 holds the centre so no diagonal is complete")
		require.Equal(t, []Position{1, 3, 5, 7}, b.Actions())

		b.Pop()
		require.Equal(t, []Position{1, 3, 5, 6, 7}, b.Actions(), "Pop should restore the open set")
	})

	t.Run("playing to a full board draw", func(t *testing.T) {
		b := NewBoardFrom(tables, 0, 4, 8, 2, 6, 3, 5, 7, 1)

		require.Equal(t, Draw, b.Winner())
		require.True(t, b.IsTerminal())
		require.Equal(t, 0, b.Utility())
		require.Empty(t, b.Actions())
	})
}

func TestBoardPushPop(t *testing.T) {
	tables := DefaultTables()

	t.Run("push then pop restores every field", func(t *testing.T) {
		for _, b := range randomBoards(tables, 20, 7) {
			if b.IsTerminal() {
				continue
			}
			before := snap(b)
			for _, pos := range b.Actions() {
				b.Push(pos)
				popped := b.Pop()
				require.Equal(t, pos, popped, "Pop should return the pushed position")
				require.Equal(t, before, snap(b), "Push then pop should be the identity")
			}
		}
	})

	t.Run("popping back to empty restores the empty hash", func(t *testing.T) {
		for _, b := range randomBoards(tables, 10, 11) {
			for b.Moves() > 0 {
				b.Pop()
			}
			require.Equal(t, 0, b.RawHash(), "Empty board should hash to zero")
			require.Equal(t, snap(NewBoard(tables)), snap(b))
		}
	})

	t.Run("raw hash matches the cells", func(t *testing.T) {
		for _, b := range randomBoards(tables, 10, 13) {
			require.Equal(t, tables.RawHash(b.Cells()), b.RawHash(), "Incremental hash should equal recomputed hash")
		}
	})

	t.Run("cell counts stay balanced", func(t *testing.T) {
		for _, b := range randomBoards(tables, 10, 17) {
			var counter [3]int
			for _, c := range b.Cells() {
				counter[c]++
			}
			require.Contains(t, []int{0, 1}, counter[1]-counter[2], "Player 1 leads by at most one piece")
		}
	})

	t.Run("pushing an occupied cell panics and leaves the board unchanged", func(t *testing.T) {
		b := NewBoardFrom(tables, 4, 0)
		before := snap(b)

		require.Panics(t, func() { b.Push(4) }, "Pushing an occupied cell should panic")
		require.Equal(t, before, snap(b), "Failed push should not change the board")
	})

	t.Run("pushing out of range panics", func(t *testing.T) {
		b := NewBoard(tables)
		require.Panics(t, func() { b.Push(9) })
		require.Panics(t, func() { b.Push(-1) })
		require.Equal(t, 0, b.Moves())
	})

	t.Run("pushing on a terminal board panics", func(t *testing.T) {
		b := NewBoardFrom(tables, 0, 1, 4, 2, 8)
		require.Panics(t, func() { b.Push(3) })
		require.Equal(t, 5, b.Moves())
	})

	t.Run("popping an empty board panics", func(t *testing.T) {
		b := NewBoard(tables)
		require.Panics(t, func() { b.Pop() })
	})
}

func TestBoardEquality(t *testing.T) {
	tables := DefaultTables()

	t.Run("symmetric boards are equal", func(t *testing.T) {
		corners := []Position{0, 2, 6, 8}
		first := NewBoardFrom(tables, corners[0])
		for _, pos := range corners[1:] {
			require.True(t, first.Equal(NewBoardFrom(tables, pos)), "Corner openings should be equal")
		}
		require.False(t, first.Equal(NewBoardFrom(tables, 4)), "Corner and centre openings differ")
		require.False(t, first.Equal(NewBoardFrom(tables, 1)), "Corner and edge openings differ")
	})

	t.Run("transpositions are equal", func(t *testing.T) {
		a := NewBoardFrom(tables, 0, 4, 8)
		b := NewBoardFrom(tables, 8, 4, 0)
		require.True(t, a.Equal(b), "Same cells reached in a different order should be equal")
		require.Equal(t, a.Hash(), b.Hash())
	})

	t.Run("copies are independent", func(t *testing.T) {
		a := NewBoardFrom(tables, 4)
		b := a.Copy()
		b.Push(0)
		require.Equal(t, 1, a.Moves(), "Original should not see moves on the copy")
		require.Equal(t, 2, b.Moves())
	})

	t.Run("reset empties the board", func(t *testing.T) {
		b := NewBoardFrom(tables, 4, 0, 8)
		b.Reset()
		require.Equal(t, snap(NewBoard(tables)), snap(b))
	})
}

func TestBoardString(t *testing.T) {
	b := NewBoardFrom(DefaultTables(), 0, 2, 4, 8)
	expected := "///////////\n" +
		"// x . o //\n" +
		"// . x . //\n" +
		"// . . o //\n" +
		"///////////"
	require.Equal(t, expected, b.String())
}
