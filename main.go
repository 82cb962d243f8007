package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tictactoe/agent"
	"tictactoe/config"
	"tictactoe/experiments"
	"tictactoe/game"
	"tictactoe/learner"
	"tictactoe/meta"
	"tictactoe/searcher"
	"tictactoe/store"
	"tictactoe/utils"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid log level")
	}
	zerolog.SetGlobalLevel(level)

	err = run(cfg)
	if err != nil {
		log.Fatal().Err(err).Msgf("%s failed", cfg.Command)
	}
}

func run(cfg *config.Config) error {
	tables, err := game.LoadOrBuildTables(cfg.DataDir)
	if err != nil {
		return err
	}
	newRand := cfg.RandSource()
	reg := agent.NewRegistry(tables, cfg.DataDir, agent.WithRandSource(newRand))
	experimentsDir := filepath.Join(cfg.DataDir, "experiments")

	switch cfg.Command {
	case "tables":
		return reg.Warm(context.Background(), searcher.Uniform.String(), searcher.Discount.String(), searcher.Minimax.String(), searcher.Negamin.String())

	case "train":
		method, err := parseMethod(cfg.Name)
		if err != nil {
			return err
		}
		opponents, err := experiments.Spawn(reg, experiments.DefaultOpponents...)
		if err != nil {
			return err
		}
		l := learner.New(method, tables, learnerOptions(cfg, method, newRand)...)
		t := experiments.NewTrain(tables, l, cfg.Name, cfg.Episodes, cfg.Runs, cfg.CompeteRuns, opponents, newRand())
		err = t.Run()
		if err != nil {
			return err
		}
		_, err = t.Save(cfg.DataDir)
		return err

	case "tune":
		method, err := parseMethod(cfg.Name)
		if err != nil {
			return err
		}
		opponents, err := experiments.Spawn(reg, experiments.DefaultOpponents...)
		if err != nil {
			return err
		}
		tc := experiments.TuneConfig{
			Name:        cfg.Name,
			Episodes:    cfg.Episodes,
			Runs:        cfg.Runs,
			CompeteRuns: cfg.CompeteRuns,
			Dir:         cfg.DataDir,
		}
		_, err = experiments.Tune(tables, method, experiments.DefaultGrid(method), tc, opponents, newRand)
		return err

	case "converge":
		method, err := parseMethod(cfg.Name)
		if err != nil {
			return err
		}
		l := learner.New(method, tables, learnerOptions(cfg, method, newRand)...)
		converged, episodes, delta := learner.GreedyConvergence(l, learner.Config{
			Threshold:   cfg.Threshold,
			Interval:    cfg.Interval,
			Checks:      cfg.Checks,
			MaxEpisodes: cfg.MaxEpisodes,
		})
		if !converged {
			log.Warn().Msgf("%s stopped after %d episodes with delta %.4f", cfg.Name, episodes, delta)
		}
		return store.SaveValues(cfg.DataDir, cfg.Name, tables, l.Values())

	case "tournament":
		_, _, err := experiments.Tournament(reg, cfg.Agents, cfg.Games, experimentsDir)
		return err

	case "throughput":
		_, err := experiments.RunThroughputExperiment(tables, cfg.Games, experimentsDir, newRand)
		return err

	case "strength":
		_, err := experiments.RunStrengthExperiment(tables, cfg.Games, experimentsDir, newRand)
		return err

	case "value-error":
		method, err := parseMethod(cfg.Name)
		if err != nil {
			return err
		}
		s, err := reg.Search(searcher.Minimax.String())
		if err != nil {
			return err
		}
		dp, ok := s.(*searcher.DP)
		if !ok {
			return fmt.Errorf("minimax agent is not a DP search")
		}
		l := learner.New(method, tables, learnerOptions(cfg, method, newRand)...)
		errs := experiments.ValueError(l, dp.Table(), cfg.Episodes, cfg.Runs)
		_, err = experiments.SaveValueError(experimentsDir, cfg.Name, errs)
		return err
	}
	return fmt.Errorf("unknown command %q", cfg.Command)
}

func parseMethod(name string) (learner.Method, error) {
	method, ok := learner.ParseMethod(name)
	if !ok {
		return 0, fmt.Errorf("unknown learner %q", name)
	}
	return method, nil
}

func learnerOptions(cfg *config.Config, method learner.Method, newRand func() utils.Rand) []learner.Option {
	options := []learner.Option{
		learner.WithGamma(cfg.Gamma),
		learner.WithAlpha(cfg.Alpha),
		learner.WithLambda(cfg.Lambda),
		learner.WithRand(newRand()),
	}
	// Search methods keep their own exploration default unless it was changed
	if (method != learner.QSearch && method != learner.TreeStrap) || cfg.Epsilon != meta.EPSILON {
		options = append(options, learner.WithEpsilon(cfg.Epsilon))
	}
	if cfg.Depth > 0 {
		options = append(options, learner.WithDepth(cfg.Depth))
	}
	return options
}
