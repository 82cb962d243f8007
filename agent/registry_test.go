package agent

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"tictactoe/game"
	"tictactoe/searcher"
	"tictactoe/store"
	"tictactoe/utils"
)

func TestAgent(t *testing.T) {
	tables := game.DefaultTables()

	t.Run("records and win share", func(t *testing.T) {
		a := New("random", searcher.NewRandom(), utils.NewRand(1))
		for _, u := range []int{1, 1, 0, -1, 0} {
			a.UpdateRecord(u)
		}
		require.Equal(t, [3]int{2, 2, 1}, a.Record)
		require.Equal(t, 3.0, a.WinShare(), "A draw should count half a win")
		require.Equal(t, 5, a.Games())
		require.Equal(t, "random : [2 2 1]", a.String())

		a.ResetRecord()
		require.Equal(t, [3]int{}, a.Record)
	})

	t.Run("acts on the best action", func(t *testing.T) {
		a := New("minimax", searcher.NewDP(searcher.Minimax, tables), nil)
		b := game.NewBoardFrom(tables, 0, 3, 1, 4)
		require.Equal(t, game.Position(2), a.Act(b))
		require.Equal(t, 4, b.Moves(), "Acting should not play the move")
	})

	t.Run("random acts on legal positions", func(t *testing.T) {
		a := New("random", searcher.NewRandom(), utils.NewRand(3))
		b := game.NewBoardFrom(tables, 4, 0)
		for i := 0; i < 50; i++ {
			require.True(t, b.IsOpen(a.Act(b)))
		}
	})
}

func TestRegistry(t *testing.T) {
	tables := game.DefaultTables()

	t.Run("built-in names", func(t *testing.T) {
		r := NewRegistry(tables, t.TempDir())
		require.Equal(t, []string{
			"random", "uniform", "discount", "minimax", "negamin",
			"alphabeta", "heuristic", "iterative", "timed", "montecarlo", "confidence",
			"mc", "td", "tdl", "q", "qs", "ts",
		}, r.Names())
	})

	t.Run("dp tables are built once then loaded", func(t *testing.T) {
		dir := t.TempDir()
		r := NewRegistry(tables, dir)
		first, err := r.Search("minimax")
		require.NoError(t, err)
		_, err = os.Stat(filepath.Join(dir, "minimax_data_values.npy"))
		require.NoError(t, err, "A built table should be saved")

		again, err := r.Search("minimax")
		require.NoError(t, err)
		require.Same(t, first, again, "Searches should be shared by name")

		loaded, err := NewRegistry(tables, dir).Search("minimax")
		require.NoError(t, err)
		dp := loaded.(*searcher.DP)
		require.Equal(t, int64(0), dp.Metrics().Nodes, "A loaded table should not be explored")
		require.Equal(t, tables.Size(), dp.Table().Len())
	})

	t.Run("learned agents need a trained table", func(t *testing.T) {
		dir := t.TempDir()
		r := NewRegistry(tables, dir)
		_, err := r.Agent("mc")
		require.Error(t, err)
		require.True(t, errors.Is(err, store.ErrNotTrained), "Missing values should not become an empty table")

		values := store.NewTable[float64](tables)
		values.Set(game.NewBoardFrom(tables, 4), 1)
		require.NoError(t, store.SaveValues(dir, "mc", tables, values))

		a, err := NewRegistry(tables, dir).Agent("mc")
		require.NoError(t, err)
		require.Equal(t, game.Position(4), a.Act(game.NewBoard(tables)), "Learned agent should follow its values")
	})

	t.Run("monte carlo agents", func(t *testing.T) {
		r := NewRegistry(tables, t.TempDir(), WithRandSource(func() utils.Rand { return utils.NewRand(3) }))
		for _, name := range []string{"montecarlo", "confidence"} {
			a, err := r.Agent(name)
			require.NoError(t, err)
			require.Equal(t, game.Position(2), a.Act(game.NewBoardFrom(tables, 0, 3, 1, 4)), "%s should take the win", name)
		}
	})

	t.Run("unknown names", func(t *testing.T) {
		_, err := NewRegistry(tables, t.TempDir()).Agent("mcts")
		require.True(t, errors.Is(err, ErrUnknownAgent))
	})

	t.Run("custom agents", func(t *testing.T) {
		r := NewRegistry(tables, t.TempDir(), WithRandSource(func() utils.Rand { return utils.NewRand(1) }))
		r.Register("deep", func(r *Registry) (searcher.Search, error) {
			return searcher.NewAlphaBeta(r.Tables(), searcher.WithDepth(6)), nil
		})
		require.Equal(t, "deep", r.Names()[len(r.Names())-1])

		a, err := r.Agent("deep")
		require.NoError(t, err)
		require.Equal(t, "deep", a.Name)
		require.Equal(t, [3]int{}, a.Record)
	})
}

func TestRegistryWarm(t *testing.T) {
	tables := game.DefaultTables()

	t.Run("builds tables concurrently", func(t *testing.T) {
		dir := t.TempDir()
		r := NewRegistry(tables, dir)
		names := []string{"uniform", "discount", "minimax", "negamin"}
		require.NoError(t, r.Warm(context.Background(), names...))

		for _, name := range names {
			_, err := os.Stat(filepath.Join(dir, name+"_data_values.npy"))
			require.NoError(t, err, "%s table should be saved", name)
		}
	})

	t.Run("reports the first failure", func(t *testing.T) {
		r := NewRegistry(tables, t.TempDir())
		err := r.Warm(context.Background(), "minimax", "ts")
		require.True(t, errors.Is(err, store.ErrNotTrained))
	})

	t.Run("builds each search once", func(t *testing.T) {
		r := NewRegistry(tables, t.TempDir())
		var builds atomic.Int32
		r.Register("counted", func(r *Registry) (searcher.Search, error) {
			builds.Add(1)
			time.Sleep(10 * time.Millisecond)
			return searcher.NewDP(searcher.Minimax, r.Tables()), nil
		})

		var wg sync.WaitGroup
		searches := make([]searcher.Search, 4)
		errs := make([]error, 4)
		for i := range searches {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				searches[i], errs[i] = r.Search("counted")
			}()
		}
		require.NoError(t, r.Warm(context.Background(), "counted", "counted", "counted"))
		wg.Wait()
		for _, err := range errs {
			require.NoError(t, err)
		}

		require.Equal(t, int32(1), builds.Load(), "Concurrent first uses should share one build")
		for _, s := range searches {
			require.Same(t, searches[0], s)
		}
	})

	t.Run("stops on a cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := NewRegistry(tables, t.TempDir()).Warm(ctx, "uniform")
		require.ErrorIs(t, err, context.Canceled)
	})
}
