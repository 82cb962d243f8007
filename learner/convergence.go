package learner

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// Prober trains and measures how much a greedy episode would still change values.
type Prober interface {
	Run(episodes int)
	ProbeDelta() float64
}

type Config struct {
	Threshold float64
	// Interval is the number of episodes per round, probes included.
	Interval int
	// Checks is the number of consecutive probes below Threshold that ends training.
	Checks int
	// MaxEpisodes bounds training, 0 means unbounded.
	MaxEpisodes int
}

func DefaultConfig() Config {
	return Config{
		Threshold: 0.01,
		Interval:  100,
		Checks:    20,
	}
}

// GreedyConvergence trains in rounds of Interval-Checks episodes followed by up to
// Checks probes, stopping at the first probe at or above Threshold. Training has
// converged once a whole round of probes stays below Threshold. It returns whether
// training converged, the number of episodes including probes, and the last delta.
func GreedyConvergence(p Prober, cfg Config) (bool, int, float64) {
	if cfg.Checks <= 0 || cfg.Checks > cfg.Interval {
		panic(fmt.Sprintf("checks must be in [1, interval], got %d of %d", cfg.Checks, cfg.Interval))
	}

	total := 0
	delta := cfg.Threshold
	for cfg.MaxEpisodes == 0 || total < cfg.MaxEpisodes {
		p.Run(cfg.Interval - cfg.Checks)
		total += cfg.Interval - cfg.Checks

		converged := true
		for i := 0; i < cfg.Checks; i++ {
			delta = p.ProbeDelta()
			total++
			if delta >= cfg.Threshold {
				converged = false
				break
			}
		}
		if converged {
			log.Info().Msgf("converged: %.4f delta after %d episodes", delta, total)
			return true, total, delta
		}
	}

	log.Warn().Msgf("not converged: %.4f delta after %d episodes", delta, total)
	return false, total, delta
}
