package experiments

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"tictactoe/agent"
	"tictactoe/engine"
	"tictactoe/experiments/metrics"
	"tictactoe/game"
	"tictactoe/learner"
	"tictactoe/searcher"
	"tictactoe/store"
	"tictactoe/utils"
)

// DefaultOpponents are the fixed agents a learner is measured against, weakest first.
var DefaultOpponents = []string{"random", "uniform", "discount", "minimax"}

// Probes is the number of greedy probes averaged per run.
const Probes = 10

// Train alternates self-play training with matches against fixed opponents.
type Train struct {
	Learner     *learner.SelfPlay
	Name        string
	Episodes    int // Per run
	Runs        int
	CompeteRuns int // Games per opponent per run
	Opponents   []*agent.Agent

	// Convergence is the first run from which the learner never lost, +Inf if it lost in the last run
	Convergence   float64
	StartWinShare []float64
	FinalWinShare []float64
	Deltas        []metrics.DeltaMetric
	// Records holds one row per run and one column per opponent
	Records [][]metrics.RecordMetric

	tables *game.Tables
	player *agent.Agent
	game   *engine.Game
}

// NewTrain plays the learner's values through a learned-value search that sees every update.
func NewTrain(tables *game.Tables, l *learner.SelfPlay, name string, episodes, runs, competeRuns int, opponents []*agent.Agent, r utils.Rand) *Train {
	if len(opponents) == 0 {
		panic("training needs at least one opponent")
	}
	if runs < 0 || episodes < 0 || competeRuns <= 0 {
		panic(fmt.Sprintf("invalid training size: %d runs of %d episodes, %d games", runs, episodes, competeRuns))
	}
	player := agent.New(name+"_play", searcher.NewLearned(l.Values()), r)
	return &Train{
		Learner:     l,
		Name:        name,
		Episodes:    episodes,
		Runs:        runs,
		CompeteRuns: competeRuns,
		Opponents:   opponents,
		Convergence: math.Inf(1),
		tables:      tables,
		player:      player,
		game:        engine.NewGame(tables, player, opponents[0]),
	}
}

// Spawn returns the named agents from the registry.
func Spawn(reg *agent.Registry, names ...string) ([]*agent.Agent, error) {
	agents := make([]*agent.Agent, 0, len(names))
	for _, name := range names {
		a, err := reg.Agent(name)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, nil
}

func (t *Train) Run() error {
	log.Info().Msgf("training %s: %d runs of %d episodes", t.Name, t.Runs, t.Episodes)
	t.Deltas = make([]metrics.DeltaMetric, 0, t.Runs+1)
	t.Records = make([][]metrics.RecordMetric, 0, t.Runs+1)

	for i := 0; i <= t.Runs; i++ {
		if i > 0 {
			t.Learner.Run(t.Episodes)
		}
		t.addDelta(i)
		err := t.addRecord(i)
		if err != nil {
			return err
		}
		log.Debug().Msgf("%s run %d of %d: delta %.4f, win share %v", t.Name, i, t.Runs, t.Deltas[i].Mean, t.winShares(i))
	}

	t.StartWinShare = t.winShares(0)
	t.FinalWinShare = t.winShares(t.Runs)
	t.setConvergence()
	log.Info().Msgf("trained %s: convergence %v, win share %v -> %v", t.Name, t.Convergence, t.StartWinShare, t.FinalWinShare)
	return nil
}

func (t *Train) addDelta(run int) {
	deltas := make([]float64, Probes)
	for i := range deltas {
		deltas[i] = t.Learner.ProbeDelta()
	}
	mean, std := stat.MeanStdDev(deltas, nil)
	t.Deltas = append(t.Deltas, metrics.DeltaMetric{Run: run, Mean: mean, Std: std})
}

func (t *Train) addRecord(run int) error {
	row := make([]metrics.RecordMetric, 0, len(t.Opponents))
	for _, opponent := range t.Opponents {
		t.player.ResetRecord()
		opponent.ResetRecord()
		t.game.ChangeAgents(t.player, opponent)
		err := t.game.Compete(t.CompeteRuns)
		if err != nil {
			return fmt.Errorf("failed to play %s against %s: %w", t.Name, opponent.Name, err)
		}
		row = append(row, metrics.RecordMetric{
			Run:      run,
			Opponent: opponent.Name,
			Wins:     t.player.Record[agent.Wins],
			Draws:    t.player.Record[agent.Draws],
			Losses:   t.player.Record[agent.Losses],
			WinShare: t.player.WinShare(),
		})
	}
	t.Records = append(t.Records, row)
	return nil
}

func (t *Train) winShares(run int) []float64 {
	shares := make([]float64, len(t.Records[run]))
	for i, r := range t.Records[run] {
		shares[i] = r.WinShare
	}
	return shares
}

// setConvergence walks back from the last run while no opponent won a game.
func (t *Train) setConvergence() {
	i := t.Runs
	for i >= 0 && !t.lost(i) {
		i--
	}
	i++
	if i > t.Runs {
		t.Convergence = math.Inf(1)
		return
	}
	t.Convergence = float64(i)
}

func (t *Train) lost(run int) bool {
	for _, r := range t.Records[run] {
		if r.Losses > 0 {
			return true
		}
	}
	return false
}

// FinalWinShares maps opponent names to the win share of the last run.
func (t *Train) FinalWinShares() map[string]float64 {
	shares := map[string]float64{}
	if len(t.Records) == 0 {
		return shares
	}
	for _, r := range t.Records[len(t.Records)-1] {
		shares[r.Opponent] = r.WinShare
	}
	return shares
}

type TrainParams struct {
	Name          string             `yaml:"name"`
	Method        string             `yaml:"method"`
	Episodes      int                `yaml:"episodes"`
	Runs          int                `yaml:"runs"`
	CompeteRuns   int                `yaml:"compete_runs"`
	Opponents     []string           `yaml:"opponents"`
	Convergence   float64            `yaml:"convergence"`
	StartWinShare []float64          `yaml:"start_win_share"`
	FinalWinShare []float64          `yaml:"final_win_share"`
	Learner       map[string]float64 `yaml:"learner"`
}

func (t *Train) Params() TrainParams {
	opponents := make([]string, len(t.Opponents))
	for i, o := range t.Opponents {
		opponents[i] = o.Name
	}
	return TrainParams{
		Name:          t.Name,
		Method:        t.Learner.Method().String(),
		Episodes:      t.Episodes,
		Runs:          t.Runs,
		CompeteRuns:   t.CompeteRuns,
		Opponents:     opponents,
		Convergence:   t.Convergence,
		StartWinShare: t.StartWinShare,
		FinalWinShare: t.FinalWinShare,
		Learner:       t.Learner.Params(),
	}
}

// Save stores the learned values under dir, where the registry loads them, and the
// run data in a timestamped directory below dir.
func (t *Train) Save(dir string) (string, error) {
	err := store.SaveValues(dir, t.Name, t.tables, t.Learner.Values())
	if err != nil {
		return "", err
	}

	writer, err := metrics.NewWriter(dir, t.Name)
	if err != nil {
		return "", fmt.Errorf("failed to create %s writer: %w", t.Name, err)
	}
	err = writer.WriteDeltas(t.Deltas)
	if err != nil {
		return "", err
	}
	var records []metrics.RecordMetric
	for _, row := range t.Records {
		records = append(records, row...)
	}
	err = writer.WriteRecords(records)
	if err != nil {
		return "", err
	}
	err = writer.WriteParams(t.Params())
	if err != nil {
		return "", err
	}
	log.Info().Msgf("saved %s data to %s", t.Name, writer.Dir())
	return writer.Dir(), nil
}
