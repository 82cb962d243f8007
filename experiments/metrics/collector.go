package metrics

import (
	"fmt"
	"sync"
	"time"

	"tictactoe/searcher"
)

// AgentConfig describes an alpha-beta agent in a search experiment.
type AgentConfig struct {
	ID        int
	Depth     int // 0 searches exactly
	Ordering  bool
	Deepening bool
	Duration  time.Duration
}

func (c AgentConfig) Name() string {
	return fmt.Sprintf("ab%d", c.ID)
}

type MoveMetric struct {
	Step     int
	Player   int // 1 or 2
	Agent    string
	Position int
	Duration time.Duration
	// Search is zero for searches that do not report metrics
	Search searcher.SearchMetrics
}

type GameMetric struct {
	Agent1     string // Starting agent
	Agent2     string
	Winner     string // game.Outcome name
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	TotalMoves int
}

type GameRecord struct {
	ID int
	GameMetric
}

type MoveRecord struct {
	Game int // GameRecord.ID
	MoveMetric
}

// DeltaMetric summarizes the greedy probe deltas measured after a training run.
type DeltaMetric struct {
	Run  int
	Mean float64
	Std  float64
}

// RecordMetric is a learner's record against one opponent after a training run.
type RecordMetric struct {
	Run      int
	Opponent string
	Wins     int
	Draws    int
	Losses   int
	WinShare float64
}

// Collector numbers finished games and keeps their records.
type Collector interface {
	AddGame(game GameMetric, moves []MoveMetric)
	Games() []GameRecord
	Moves() []MoveRecord
}

type collector struct {
	mu    sync.Mutex
	games []GameRecord
	moves []MoveRecord
}

func NewCollector() Collector {
	return &collector{}
}

func (c *collector) AddGame(game GameMetric, moves []MoveMetric) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := len(c.games) + 1
	c.games = append(c.games, GameRecord{ID: id, GameMetric: game})
	for _, m := range moves {
		c.moves = append(c.moves, MoveRecord{Game: id, MoveMetric: m})
	}
}

func (c *collector) Games() []GameRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]GameRecord(nil), c.games...)
}

func (c *collector) Moves() []MoveRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]MoveRecord(nil), c.moves...)
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (c *dummyCollector) AddGame(game GameMetric, moves []MoveMetric) {}
func (c *dummyCollector) Games() []GameRecord                         { return nil }
func (c *dummyCollector) Moves() []MoveRecord                         { return nil }
