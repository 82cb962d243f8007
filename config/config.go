package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"tictactoe/meta"
	"tictactoe/utils"
)

// Commands lists what the binary can run.
var Commands = []string{"tables", "train", "tune", "converge", "tournament", "throughput", "strength", "value-error"}

type Config struct {
	DataDir  string
	LogLevel string
	Seed     uint64 // 0 draws from the unseeded generator
	Command  string

	// Learner and training
	Name        string
	Episodes    int
	Runs        int
	CompeteRuns int
	Gamma       float64
	Alpha       float64
	Epsilon     float64
	Lambda      float64
	Depth       int // 0 uses the method default

	// Greedy convergence
	Threshold   float64
	Interval    int
	Checks      int
	MaxEpisodes int

	// Tournaments and search experiments
	Games  int
	Agents []string
}

func flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("tictactoe", pflag.ContinueOnError)
	fs.String("config", "", "YAML file read before the environment and flags")
	fs.String("data-dir", meta.DATA_DIR, "directory holding tables, values and experiment data")
	fs.String("log-level", "info", "zerolog level: debug, info, warn or error")
	fs.Uint64("seed", 0, "seed for reproducible runs, 0 for unseeded")
	fs.String("command", "", "command to run: "+strings.Join(Commands, ", "))

	fs.String("name", "mc", "learner method: mc, td, tdl, q, qs or ts")
	fs.Int("episodes", 1000, "self-play episodes per training run")
	fs.Int("runs", 20, "training runs")
	fs.Int("compete-runs", 10, "games against each opponent after every run")
	fs.Float64("gamma", meta.GAMMA, "discount factor")
	fs.Float64("alpha", meta.ALPHA, "learning rate")
	fs.Float64("epsilon", meta.EPSILON, "exploration constant")
	fs.Float64("lambda", meta.LAMBDA, "TD(lambda) trace decay")
	fs.Int("depth", 0, "lookahead of qs and ts, 0 for the default")

	fs.Float64("threshold", 0.01, "greedy delta below which a probe counts as converged")
	fs.Int("interval", 100, "episodes between convergence checks")
	fs.Int("checks", 20, "greedy probes per convergence check")
	fs.Int("max-episodes", 0, "episode cap for convergence, 0 for none")

	fs.Int("games", 30, "games per match up")
	fs.StringSlice("agents", []string{"random", "uniform", "discount", "minimax", "alphabeta", "heuristic"}, "tournament agents")
	return fs
}

// Load reads flags from args, then TTT_ prefixed environment variables and an optional
// YAML file for anything not given on the command line. A leading positional argument
// names the command.
func Load(args []string) (*Config, error) {
	fs := flags()
	err := fs.Parse(args)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix("TTT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	err = v.BindPFlags(fs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to bind flags")
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		err = v.ReadInConfig()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read config %s", path)
		}
	}

	c := &Config{
		DataDir:     v.GetString("data-dir"),
		LogLevel:    v.GetString("log-level"),
		Seed:        v.GetUint64("seed"),
		Command:     v.GetString("command"),
		Name:        v.GetString("name"),
		Episodes:    v.GetInt("episodes"),
		Runs:        v.GetInt("runs"),
		CompeteRuns: v.GetInt("compete-runs"),
		Gamma:       v.GetFloat64("gamma"),
		Alpha:       v.GetFloat64("alpha"),
		Epsilon:     v.GetFloat64("epsilon"),
		Lambda:      v.GetFloat64("lambda"),
		Depth:       v.GetInt("depth"),
		Threshold:   v.GetFloat64("threshold"),
		Interval:    v.GetInt("interval"),
		Checks:      v.GetInt("checks"),
		MaxEpisodes: v.GetInt("max-episodes"),
		Games:       v.GetInt("games"),
		Agents:      v.GetStringSlice("agents"),
	}
	if fs.NArg() > 0 {
		c.Command = fs.Arg(0)
	}
	return c, c.Validate()
}

func (c *Config) Validate() error {
	switch {
	case !slices.Contains(Commands, c.Command):
		return fmt.Errorf("unknown command %q, expected one of %v", c.Command, Commands)
	case c.Episodes < 0 || c.Runs < 0:
		return fmt.Errorf("episodes and runs must not be negative")
	case c.CompeteRuns <= 0 || c.Games <= 0:
		return fmt.Errorf("compete-runs and games must be positive")
	case c.Checks <= 0 || c.Checks > c.Interval:
		return fmt.Errorf("checks must be in [1, interval], got %d", c.Checks)
	}
	return nil
}

// RandSource returns a generator factory: consecutive seeds from Seed, or unseeded
// generators when Seed is 0.
func (c *Config) RandSource() func() utils.Rand {
	if c.Seed == 0 {
		return utils.DefaultRand
	}
	seed := c.Seed
	return func() utils.Rand {
		r := utils.NewRand(seed)
		seed++
		return r
	}
}
