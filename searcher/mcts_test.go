package searcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tictactoe/game"
	"tictactoe/utils"
)

func TestMCTS(t *testing.T) {
	tables := game.DefaultTables()

	t.Run("needs a budget", func(t *testing.T) {
		require.Panics(t, func() { NewMCTS() }, "Should panic without episodes or duration")
	})

	t.Run("takes an immediate win", func(t *testing.T) {
		for _, flat := range []bool{false, true} {
			options := []MCTSOption{WithEpisodes(900), WithMCTSRand(utils.NewRand(1))}
			if flat {
				options = append(options, WithFlat())
			}
			m := NewMCTS(options...)
			b := game.NewBoardFrom(tables, 0, 3, 1, 4)
			require.Equal(t, []game.Position{2}, m.BestActions(b), "flat=%v", flat)
			require.Equal(t, []game.Position{0, 3, 1, 4}, b.Played(), "The board should be restored")
		}
	})

	t.Run("values", func(t *testing.T) {
		m := NewMCTS(WithEpisodes(500), WithMCTSRand(utils.NewRand(2)))
		b := game.NewBoardFrom(tables, 0, 3, 1, 4)
		values := m.ActionValues(b)
		require.Len(t, values, len(b.Actions()))
		for _, av := range values {
			require.GreaterOrEqual(t, av.Value, LOSS)
			require.LessOrEqual(t, av.Value, WIN)
			if av.Position == 2 {
				require.Equal(t, WIN, av.Value, "A winning move always wins its playouts")
			}
		}
		for _, av := range m.NormalizedActionValues(b) {
			require.GreaterOrEqual(t, av.Value, 0.0)
			require.LessOrEqual(t, av.Value, 1.0)
		}
	})

	t.Run("terminal boards have no actions", func(t *testing.T) {
		m := NewMCTS(WithEpisodes(10))
		b := game.NewBoardFrom(tables, 0, 3, 1, 4, 2)
		require.Nil(t, m.BestActions(b))
		require.Nil(t, m.ActionValues(b))
	})

	t.Run("metrics", func(t *testing.T) {
		m := NewMCTS(WithEpisodes(500), WithMCTSMetrics(), WithMCTSRand(utils.NewRand(3)))
		m.Simulate(game.NewBoard(tables))
		metrics := m.Metrics()
		require.Equal(t, int64(500), metrics.Episodes)
		require.Greater(t, metrics.Nodes, int64(0))
		require.LessOrEqual(t, metrics.Nodes, int64(500), "A playout expands at most one node")
		require.Greater(t, metrics.Depth, 1, "The tree should grow below the root")
		require.Equal(t, 500, m.root.visits)
	})

	t.Run("flat search only expands the root", func(t *testing.T) {
		m := NewMCTS(WithEpisodes(90), WithFlat(), WithMCTSRand(utils.NewRand(4)))
		m.Simulate(game.NewBoard(tables))
		require.Len(t, m.root.children, game.Cells)
		for _, child := range m.root.children {
			require.True(t, child.isLeaf())
			require.Equal(t, 10, child.visits, "Playouts should be spread evenly")
		}
	})

	t.Run("duration", func(t *testing.T) {
		m := NewMCTS(WithMCTSDuration(5*time.Millisecond), WithMCTSMetrics())
		pos := Policy(m, game.NewBoard(tables), utils.NewRand(5))
		require.True(t, pos >= 0 && pos < game.Cells)
		require.Greater(t, m.Metrics().Episodes, int64(0))
	})
}
