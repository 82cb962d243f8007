package metrics

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tictactoe/searcher"
)

func read(t *testing.T, path string) [][]string {
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCollector(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.AddGame(GameMetric{Agent1: "a", Agent2: "b", TotalMoves: 2}, []MoveMetric{{Step: 1}, {Step: 2}})
		}()
	}
	wg.Wait()

	games := c.Games()
	require.Len(t, games, 8)
	ids := map[int]bool{}
	for _, g := range games {
		ids[g.ID] = true
	}
	require.Len(t, ids, 8, "Game ids should be unique")
	require.Len(t, c.Moves(), 16)

	d := NewDummyCollector()
	d.AddGame(GameMetric{}, []MoveMetric{{}})
	require.Empty(t, d.Games())
	require.Empty(t, d.Moves())
}

func TestWriter(t *testing.T) {
	root := t.TempDir()
	w, err := NewWriter(root, "match")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(w.Dir(), filepath.Join(root, "match")))

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCollector()
	c.AddGame(GameMetric{
		Agent1:     "minimax",
		Agent2:     "random",
		Winner:     "player1",
		StartTime:  start,
		EndTime:    start.Add(time.Second),
		Duration:   time.Second,
		TotalMoves: 7,
	}, []MoveMetric{{
		Step:     1,
		Player:   1,
		Agent:    "minimax",
		Position: 4,
		Duration: time.Millisecond,
		Search:   searcher.SearchMetrics{Nodes: 12, Episodes: 3, Depth: 9},
	}})

	t.Run("game records", func(t *testing.T) {
		require.NoError(t, w.WriteGameRecords(c.Games()))
		rows := read(t, filepath.Join(w.Dir(), "game_records.csv"))
		require.Len(t, rows, 2)
		require.Equal(t, []string{"1", "minimax", "random", "player1", "2024-01-01T00:00:00Z", "2024-01-01T00:00:01Z", "1s", "7"}, rows[1])
	})

	t.Run("move records", func(t *testing.T) {
		require.NoError(t, w.WriteMoveRecords(c.Moves()))
		rows := read(t, filepath.Join(w.Dir(), "move_records.csv"))
		require.Len(t, rows, 2)
		require.Equal(t, len(rows[0]), len(rows[1]), "Rows should match the header")
		require.Equal(t, []string{"1", "1", "1", "minimax", "4", "1ms", "12", "3", "0", "0", "9", "false"}, rows[1])
	})

	t.Run("summaries and configs", func(t *testing.T) {
		deltas := []DeltaMetric{{Run: 0, Mean: 0.5, Std: 0.25}}
		require.NoError(t, w.WriteDeltas(deltas))
		require.NoError(t, w.WriteValueErrors(deltas))
		require.Equal(t, []string{"0", "0.5", "0.25"}, read(t, filepath.Join(w.Dir(), "delta.csv"))[1])
		require.Len(t, read(t, filepath.Join(w.Dir(), "value_error.csv")), 2)

		require.NoError(t, w.WriteRecords([]RecordMetric{{Run: 1, Opponent: "minimax", Draws: 4, WinShare: 2}}))
		require.Equal(t, []string{"1", "minimax", "0", "4", "0", "2"}, read(t, filepath.Join(w.Dir(), "record.csv"))[1])

		require.NoError(t, w.WriteAgentConfigs([]AgentConfig{{ID: 3, Depth: 2, Ordering: true}}))
		require.Equal(t, []string{"3", "ab3", "2", "true", "false", "0s"}, read(t, filepath.Join(w.Dir(), "agent_configs.csv"))[1])
	})

	t.Run("params", func(t *testing.T) {
		require.NoError(t, w.WriteParams(map[string]float64{"alpha": 0.5}))
		raw, err := os.ReadFile(filepath.Join(w.Dir(), "params.yaml"))
		require.NoError(t, err)
		require.Equal(t, "alpha: 0.5\n", string(raw))
	})
}
