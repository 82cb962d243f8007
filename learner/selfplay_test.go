package learner

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"tictactoe/game"
	"tictactoe/meta"
	"tictactoe/store"
	"tictactoe/utils"
)

// snapshotValues copies every slot of a table by canonical id.
func snapshotValues(t *store.Table[float64]) map[int]float64 {
	out := map[int]float64{}
	for id := 0; id < t.Cap(); id++ {
		if v, ok := t.GetAt(id); ok {
			out[id] = v
		}
	}
	return out
}

func TestMethods(t *testing.T) {
	tables := game.DefaultTables()

	for _, m := range Methods() {
		parsed, ok := ParseMethod(m.String())
		require.True(t, ok)
		require.Equal(t, m, parsed, "Method names should round trip")
	}
	_, ok := ParseMethod("sarsa")
	require.False(t, ok)

	t.Run("search methods explore more and look ahead", func(t *testing.T) {
		for _, m := range []Method{QSearch, TreeStrap} {
			params := New(m, tables).Params()
			require.Equal(t, meta.SEARCH_EPSILON, params["epsilon"])
			require.Equal(t, float64(meta.SEARCH_DEPTH), params["depth"])
		}
		params := New(TDLambda, tables).Params()
		require.Equal(t, meta.LAMBDA, params["lambda"])
		require.NotContains(t, params, "depth")
	})

	t.Run("invalid parameters panic", func(t *testing.T) {
		require.Panics(t, func() { New(Method(99), tables) })
		require.Panics(t, func() { New(MC, tables, WithAlpha(0)) })
		require.Panics(t, func() { New(MC, tables, WithGamma(1.5)) })
		require.Panics(t, func() { New(MC, tables, WithEpsilon(0)) })
		require.Panics(t, func() { New(QSearch, tables, WithDepth(0)) })
	})
}

func TestEpisode(t *testing.T) {
	tables := game.DefaultTables()

	t.Run("generation needs a reset board", func(t *testing.T) {
		s := New(MC, tables, WithRand(utils.NewRand(1)))
		s.Board().Push(4)
		require.Panics(t, func() { s.GenerateEpisode(false) })
	})

	t.Run("evaluation needs a finished game", func(t *testing.T) {
		s := New(TD, tables, WithRand(utils.NewRand(1)))
		s.Board().Push(4)
		require.Panics(t, func() { s.EvaluateEpisode() })
	})

	tests := []struct {
		method Method
		// decay is the fraction of the utility stored k plies above the leaf
		decay func(k int) float64
	}{
		{MC, func(k int) float64 { return 0.5 }},
		{TD, func(k int) float64 { return 1 / float64(uint(1)<<k) }},
	}
	for _, tt := range tests {
		t.Run(tt.method.String()+" backs up a first episode", func(t *testing.T) {
			s := New(tt.method, tables, WithRand(utils.NewRand(3)))
			s.GenerateEpisode(false)
			played := s.Board().Played()
			u := float64(s.Board().Utility())

			s.EvaluateEpisode()
			require.Equal(t, 0, s.Board().Moves(), "Evaluation should undo every move")

			leaf := game.NewBoardFrom(tables, played...)
			require.Equal(t, u, s.Values().MustGet(leaf), "Leaf should hold the utility")
			for k := 1; k <= len(played); k++ {
				b := game.NewBoardFrom(tables, played[:len(played)-k]...)
				require.InDelta(t, u*tt.decay(k), s.Values().MustGet(b), 1e-12, "Value %d plies above the leaf", k)
				require.Equal(t, 1.0, s.Visits().MustGet(b), "Each state is visited once")
			}
		})
	}

	t.Run("lambda mixes TD and MC", func(t *testing.T) {
		s := New(TDLambda, tables, WithRand(utils.NewRand(3)), WithLambda(1))
		m := New(MC, tables, WithRand(utils.NewRand(3)))
		s.Run(50)
		m.Run(50)
		require.Equal(t, snapshotValues(m.Values()), snapshotValues(s.Values()), "Lambda 1 should reproduce MC")
	})

	t.Run("search depth 1 reproduces Q", func(t *testing.T) {
		qs := New(QSearch, tables, WithRand(utils.NewRand(5)), WithEpsilon(meta.EPSILON), WithDepth(1))
		q := New(Q, tables, WithRand(utils.NewRand(5)))
		qs.Run(50)
		q.Run(50)
		require.Equal(t, snapshotValues(q.Values()), snapshotValues(qs.Values()))
	})

	t.Run("search keeps backed-up values of expanded boards", func(t *testing.T) {
		s := New(QSearch, tables, WithDepth(2))
		root := s.target()
		value, ok := s.searched.Get(s.Board())
		require.True(t, ok, "The searched root should be expanded")
		require.Equal(t, root, value)
		require.Greater(t, s.searched.Len(), 1)
	})

	t.Run("search target is a depth-bounded minimax", func(t *testing.T) {
		s := New(QSearch, tables, WithRand(utils.NewRand(4)), WithDepth(3))
		s.Run(300)
		r := utils.NewRand(9)
		for i := 0; i < 200; i++ {
			s.board.Reset()
			for n := r.Intn(8); n > 0 && !s.board.IsTerminal(); n-- {
				s.board.Push(utils.Choice(r, s.board.Actions()))
			}
			b := game.NewBoardFrom(tables, s.board.Played()...)
			want := boundedMinimax(s.Values(), b, 3)
			require.Equal(t, want, s.target(), "Target should not depend on move order on\n%v", b)
		}
		s.board.Reset()
	})
}

// boundedMinimax backs stored values up from depth plies below b, player 1 maximizing.
func boundedMinimax(values *store.Table[float64], b *game.Board, depth int) float64 {
	if depth == 0 || b.IsTerminal() {
		return values.GetOr(b, 0)
	}
	maximizing := b.Turn() == game.Player1
	value := math.Inf(1)
	if maximizing {
		value = math.Inf(-1)
	}
	for _, pos := range b.Actions() {
		b.Push(pos)
		child := boundedMinimax(values, b, depth-1)
		b.Pop()
		if maximizing {
			value = math.Max(value, child)
		} else {
			value = math.Min(value, child)
		}
	}
	return value
}

func TestProbeDelta(t *testing.T) {
	tables := game.DefaultTables()

	for _, m := range Methods() {
		t.Run(m.String()+" probes without learning", func(t *testing.T) {
			s := New(m, tables, WithRand(utils.NewRand(7)))
			s.Run(30)
			values := snapshotValues(s.Values())
			visits := snapshotValues(s.Visits())

			for i := 0; i < 5; i++ {
				delta := s.ProbeDelta()
				require.GreaterOrEqual(t, delta, 0.0)
				require.LessOrEqual(t, delta, 1.0)
				require.Equal(t, 0, s.Board().Moves(), "Probe should leave the board reset")
			}
			require.Equal(t, values, snapshotValues(s.Values()), "Probe should not change values")
			require.Equal(t, visits, snapshotValues(s.Visits()), "Probe should not change visits")
		})
	}

	t.Run("a fresh learner has something to learn", func(t *testing.T) {
		s := New(MC, tables, WithRand(utils.NewRand(1)))
		s.RunLeaves()
		largest := 0.0
		for i := 0; i < 20; i++ {
			largest = max(largest, s.ProbeDelta())
		}
		require.Greater(t, largest, 0.0, "Greedy games ending in a win should move unlearned values")
	})
}

func TestTreeStrap(t *testing.T) {
	tables := game.DefaultTables()
	s := New(TreeStrap, tables, WithRand(utils.NewRand(2)))
	s.Run(200)

	require.Greater(t, s.Values().Len(), 0, "Lookahead should update expanded nodes")
	require.Greater(t, s.Visits().MustGet(game.NewBoard(tables)), 200.0, "Played and expanded boards count as visits")
	require.Equal(t, 0, s.Board().Moves())

	// Terminal boards reached by the lookahead store their utility
	for id := 0; id < s.Values().Cap(); id++ {
		v, ok := s.Values().GetAt(id)
		if ok && tables.Outcome(id) != game.Ongoing {
			require.Equal(t, float64(tables.Outcome(id).Utility()), v)
		}
	}
}

func TestBestActions(t *testing.T) {
	tables := game.DefaultTables()
	s := New(MC, tables, WithRand(utils.NewRand(1)))

	s.Values().Set(game.NewBoardFrom(tables, 4), 0.5)
	s.Values().Set(game.NewBoardFrom(tables, 0), -0.5)
	require.Equal(t, []game.Position{4}, s.BestActions(), "Player 1 should maximize")
	require.Equal(t, 0.5, s.BestValue())

	s.Board().Push(4)
	s.Values().Set(game.NewBoardFrom(tables, 4, 1), -0.25)
	require.ElementsMatch(t, []game.Position{1, 3, 5, 7}, s.BestActions(), "Player 2 should minimize over symmetric edges")
	require.Equal(t, -0.25, s.BestValue())
}

func TestRunLeaves(t *testing.T) {
	tables := game.DefaultTables()
	s := New(MC, tables, WithRand(utils.NewRand(11)))
	s.RunLeaves()

	require.Equal(t, meta.LEAVES, s.Values().Len(), "Every terminal class should be stored")
	require.Equal(t, 0, s.Board().Moves())
	for id := 0; id < s.Values().Cap(); id++ {
		if v, ok := s.Values().GetAt(id); ok {
			require.NotEqual(t, game.Ongoing, tables.Outcome(id), "Only terminal classes should be stored")
			require.Equal(t, float64(tables.Outcome(id).Utility()), v)
		}
	}
}
