package experiments

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"tictactoe/experiments/metrics"
	"tictactoe/learner"
	"tictactoe/store"
)

// ValueError trains the learner for runs of episodes and measures, before the first
// run and after each, the absolute error of its values over every state the reference
// table holds. States the learner has not seen count as 0.
func ValueError(l *learner.SelfPlay, reference *store.Table[float64], episodes, runs int) []metrics.DeltaMetric {
	errs := make([]metrics.DeltaMetric, 0, runs+1)
	for i := 0; i <= runs; i++ {
		if i > 0 {
			l.Run(episodes)
		}
		mean, std := valueError(l.Values(), reference)
		errs = append(errs, metrics.DeltaMetric{Run: i, Mean: mean, Std: std})
		log.Debug().Msgf("%s run %d: value error %.4f ± %.4f", l.Method(), i, mean, std)
	}
	return errs
}

func valueError(values, reference *store.Table[float64]) (float64, float64) {
	diffs := make([]float64, 0, reference.Len())
	for id := 0; id < reference.Cap(); id++ {
		want, ok := reference.GetAt(id)
		if !ok {
			continue
		}
		got, _ := values.GetAt(id)
		diffs = append(diffs, math.Abs(got-want))
	}
	if len(diffs) == 0 {
		return 0, 0
	}
	return stat.MeanStdDev(diffs, nil)
}

// SaveValueError writes the errors below dir.
func SaveValueError(dir, name string, errs []metrics.DeltaMetric) (string, error) {
	writer, err := metrics.NewWriter(dir, name+"_value_error")
	if err != nil {
		return "", fmt.Errorf("failed to create %s writer: %w", name, err)
	}
	err = writer.WriteValueErrors(errs)
	if err != nil {
		return "", err
	}
	return writer.Dir(), nil
}
