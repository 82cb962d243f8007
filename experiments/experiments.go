package experiments

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"

	"tictactoe/agent"
	"tictactoe/engine"
	"tictactoe/experiments/metrics"
	"tictactoe/game"
)

const NumGames = 30 // Per match up

type matchUp struct {
	agent1 *agent.Agent
	agent2 *agent.Agent
}

// Tournament plays every pair of the named agents against each other, games per pair
// split evenly between who starts. The agents are returned by descending win share.
// Game and move records are written below dir unless it is empty.
func Tournament(reg *agent.Registry, names []string, games int, dir string) ([]*agent.Agent, metrics.Collector, error) {
	if len(names) < 2 {
		return nil, nil, fmt.Errorf("tournament needs at least two agents, got %d", len(names))
	}
	agents, err := Spawn(reg, names...)
	if err != nil {
		return nil, nil, err
	}

	var matchUps []matchUp
	for i := range agents {
		for j := i + 1; j < len(agents); j++ {
			matchUps = append(matchUps, matchUp{agents[i], agents[j]})
		}
	}

	collector, err := runExperiment("tournament", reg.Tables(), matchUps, games, dir, nil)
	if err != nil {
		return nil, nil, err
	}

	standings := slices.Clone(agents)
	slices.SortStableFunc(standings, func(a, b *agent.Agent) int {
		switch {
		case a.WinShare() > b.WinShare():
			return -1
		case a.WinShare() < b.WinShare():
			return 1
		}
		return 0
	})
	for i, a := range standings {
		log.Info().Msgf("%d. %v (win share %.3f)", i+1, a, a.WinShare())
	}
	return standings, collector, nil
}

func runExperiment(name string, tables *game.Tables, matchUps []matchUp, games int, dir string, configs []metrics.AgentConfig) (metrics.Collector, error) {
	collector := metrics.NewCollector()

	log.Info().Msgf("starting %s experiment...", name)

	for mi, m := range matchUps {
		log.Info().Msgf("starting matchup %d of %d between %s and %s...", mi+1, len(matchUps), m.agent1.Name, m.agent2.Name)

		g := engine.NewGame(tables, m.agent1, m.agent2, engine.WithCollector(collector))
		err := g.Compete(games)
		if err != nil {
			return nil, fmt.Errorf("matchup %s vs %s failed: %w", m.agent1.Name, m.agent2.Name, err)
		}

		log.Info().Msgf("completed matchup %d of %d: %v, %v", mi+1, len(matchUps), m.agent1, m.agent2)
	}

	log.Info().Msgf("completed %s experiment with %d games", name, len(collector.Games()))

	if dir == "" {
		return collector, nil
	}
	writer, err := metrics.NewWriter(dir, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create experiment writer: %w", err)
	}

	if len(configs) > 0 {
		err = writer.WriteAgentConfigs(configs)
		if err != nil {
			return nil, err
		}
		log.Info().Msg("stored agent configs")
	}

	err = writer.WriteGameRecords(collector.Games())
	if err != nil {
		return nil, err
	}
	log.Info().Msg("stored game records")

	err = writer.WriteMoveRecords(collector.Moves())
	if err != nil {
		return nil, err
	}
	log.Info().Msgf("stored move records in %s", writer.Dir())
	return collector, nil
}
