package experiments

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"tictactoe/agent"
	"tictactoe/game"
	"tictactoe/learner"
	"tictactoe/utils"
)

// StrongestFirst is the order win shares are compared in.
var StrongestFirst = []string{"minimax", "discount", "uniform", "random"}

// WinShareGreater compares win shares opponent by opponent in the given order.
// Missing opponents rank below any share.
func WinShareGreater(a, b map[string]float64, order []string) bool {
	for _, name := range order {
		x, ok := a[name]
		if !ok {
			x = math.Inf(-1)
		}
		y, ok := b[name]
		if !ok {
			y = math.Inf(-1)
		}
		if x != y {
			return x > y
		}
	}
	return false
}

// Grid lists the hyperparameter values to try. Empty fields keep the learner defaults.
type Grid struct {
	Gammas   []float64
	Alphas   []float64
	Epsilons []float64
	Lambdas  []float64 // TD(λ) only
	Depths   []int     // Search methods only
}

// DefaultGrid returns the values tried for a method.
func DefaultGrid(method learner.Method) Grid {
	g := Grid{
		Gammas:   []float64{1, 0.9},
		Alphas:   []float64{0.1, 0.3, 0.5, 0.7},
		Epsilons: []float64{1, 5, 25},
	}
	switch method {
	case learner.TDLambda:
		g.Lambdas = []float64{0, 0.2, 0.5}
	case learner.QSearch, learner.TreeStrap:
		g.Depths = []int{1, 2}
	}
	return g
}

// Options expands the grid into one option list per combination.
func (g Grid) Options() [][]learner.Option {
	combos := [][]learner.Option{nil}
	combos = expand(combos, g.Gammas, learner.WithGamma)
	combos = expand(combos, g.Alphas, learner.WithAlpha)
	combos = expand(combos, g.Epsilons, learner.WithEpsilon)
	combos = expand(combos, g.Lambdas, learner.WithLambda)
	combos = expand(combos, g.Depths, learner.WithDepth)
	return combos
}

func expand[T any](combos [][]learner.Option, values []T, option func(T) learner.Option) [][]learner.Option {
	if len(values) == 0 {
		return combos
	}
	out := make([][]learner.Option, 0, len(combos)*len(values))
	for _, combo := range combos {
		for _, v := range values {
			next := append(append([]learner.Option(nil), combo...), option(v))
			out = append(out, next)
		}
	}
	return out
}

// TuneConfig sizes each training of a tuning sweep.
type TuneConfig struct {
	Name        string
	Episodes    int
	Runs        int
	CompeteRuns int
	Dir         string // Best values and run data are saved here unless empty
}

// Tune trains one learner per grid combination and keeps the best: the earliest
// convergence, or the greatest final win share when none converged.
func Tune(tables *game.Tables, method learner.Method, grid Grid, cfg TuneConfig, opponents []*agent.Agent, newRand func() utils.Rand) (*Train, error) {
	combos := grid.Options()
	log.Info().Msgf("tuning %s over %d combinations", cfg.Name, len(combos))

	var best *Train
	for i, combo := range combos {
		options := append(combo, learner.WithRand(newRand()))
		l := learner.New(method, tables, options...)
		t := NewTrain(tables, l, cfg.Name, cfg.Episodes, cfg.Runs, cfg.CompeteRuns, opponents, newRand())
		err := t.Run()
		if err != nil {
			return nil, fmt.Errorf("tuning %s combination %d: %w", cfg.Name, i+1, err)
		}
		log.Info().Msgf("combination %d of %d %v: convergence %v", i+1, len(combos), l.Params(), t.Convergence)

		if best == nil || better(t, best) {
			best = t
		}
	}

	log.Info().Msgf("best %s parameters %v: convergence %v, win share %v", cfg.Name, best.Learner.Params(), best.Convergence, best.FinalWinShare)
	if cfg.Dir != "" {
		_, err := best.Save(cfg.Dir)
		if err != nil {
			return nil, err
		}
	}
	return best, nil
}

func better(t, best *Train) bool {
	if t.Convergence != best.Convergence {
		return t.Convergence < best.Convergence
	}
	if math.IsInf(t.Convergence, 1) {
		return WinShareGreater(t.FinalWinShares(), best.FinalWinShares(), StrongestFirst)
	}
	return false
}
