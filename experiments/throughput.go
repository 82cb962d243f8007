package experiments

import (
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"tictactoe/agent"
	"tictactoe/experiments/metrics"
	"tictactoe/game"
	"tictactoe/searcher"
	"tictactoe/utils"
)

const TimeBudget = 10 * time.Millisecond

var searchConfigs = []metrics.AgentConfig{
	{ID: 1},
	{ID: 2, Depth: 2},
	{ID: 3, Depth: 2, Ordering: true},
	{ID: 4, Depth: 4},
	{ID: 5, Depth: 4, Ordering: true},
	{ID: 6, Deepening: true},
	{ID: 7, Duration: TimeBudget},
}

// Throughput summarizes the searches of one agent configuration.
type Throughput struct {
	Config       metrics.AgentConfig
	Moves        int
	NodesPerMove float64
	HitsPerMove  float64
	MoveDuration time.Duration
}

// RunThroughputExperiment plays each search configuration against itself and
// summarizes how many nodes its moves visit.
func RunThroughputExperiment(tables *game.Tables, games int, dir string, newRand func() utils.Rand) ([]Throughput, error) {
	var matchUps []matchUp
	for _, config := range searchConfigs {
		// Same config for both players for similar game length
		matchUps = append(matchUps, matchUp{
			agent1: createAgent(tables, config, newRand()),
			agent2: createAgent(tables, config, newRand()),
		})
	}

	collector, err := runExperiment("search_throughput", tables, matchUps, games, dir, searchConfigs)
	if err != nil {
		return nil, err
	}
	return summarize(collector.Moves()), nil
}

// RunStrengthExperiment pairs each depth-limited configuration against the exact search.
func RunStrengthExperiment(tables *game.Tables, games int, dir string, newRand func() utils.Rand) ([]*agent.Agent, error) {
	baseline := searchConfigs[0]
	var matchUps []matchUp
	var challengers []*agent.Agent
	for _, config := range searchConfigs[1:] {
		challenger := createAgent(tables, config, newRand())
		challengers = append(challengers, challenger)
		matchUps = append(matchUps, matchUp{
			agent1: createAgent(tables, baseline, newRand()),
			agent2: challenger,
		})
	}

	_, err := runExperiment("search_strength", tables, matchUps, games, dir, searchConfigs)
	if err != nil {
		return nil, err
	}
	return challengers, nil
}

func createAgent(tables *game.Tables, config metrics.AgentConfig, r utils.Rand) *agent.Agent {
	options := []searcher.Option{}

	if config.Depth > 0 {
		options = append(options, searcher.WithDepth(config.Depth))
	}
	if config.Ordering {
		options = append(options, searcher.WithMoveOrdering())
	}
	if config.Deepening {
		options = append(options, searcher.WithIterativeDeepening())
	}
	if config.Duration > 0 {
		options = append(options, searcher.WithDuration(config.Duration))
	}

	options = append(options, searcher.WithMetrics())
	return agent.New(config.Name(), searcher.NewAlphaBeta(tables, options...), r)
}

func summarize(moves []metrics.MoveRecord) []Throughput {
	var summary []Throughput
	for _, config := range searchConfigs {
		var nodes, hits, durations []float64
		for _, m := range moves {
			if m.Agent != config.Name() {
				continue
			}
			nodes = append(nodes, float64(m.Search.Nodes))
			hits = append(hits, float64(m.Search.TableHits))
			durations = append(durations, float64(m.Duration))
		}
		if len(nodes) == 0 {
			continue
		}
		t := Throughput{
			Config:       config,
			Moves:        len(nodes),
			NodesPerMove: stat.Mean(nodes, nil),
			HitsPerMove:  stat.Mean(hits, nil),
			MoveDuration: time.Duration(stat.Mean(durations, nil)),
		}
		log.Info().Msgf("%s: %d moves, %.1f nodes and %.1f table hits per move, %v per move", config.Name(), t.Moves, t.NodesPerMove, t.HitsPerMove, t.MoveDuration)
		summary = append(summary, t)
	}
	return summary
}
