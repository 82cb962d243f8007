package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"tictactoe/game"
	"tictactoe/learner"
	"tictactoe/searcher"
	"tictactoe/store"
	"tictactoe/utils"
)

var ErrUnknownAgent = errors.New("unknown agent")

// Factory builds the search behind a named agent.
type Factory func(r *Registry) (searcher.Search, error)

// Registry spawns agents by name. Searches are built once and shared by every agent
// spawned under the same name.
type Registry struct {
	tables  *game.Tables
	dir     string
	newRand func() utils.Rand

	mu        sync.Mutex
	names     []string
	factories map[string]Factory
	searches  map[string]searcher.Search
	builds    singleflight.Group
}

type RegistryOption func(r *Registry)

// WithRandSource sets how spawned agents get their randomness.
func WithRandSource(newRand func() utils.Rand) RegistryOption {
	return func(r *Registry) {
		r.newRand = newRand
	}
}

// NewRegistry returns a registry of the built-in agents. DP tables and learned values
// are loaded from and saved to dir.
func NewRegistry(tables *game.Tables, dir string, options ...RegistryOption) *Registry {
	r := &Registry{
		tables:    tables,
		dir:       dir,
		newRand:   utils.DefaultRand,
		factories: map[string]Factory{},
		searches:  map[string]searcher.Search{},
	}
	for _, option := range options {
		option(r)
	}

	r.Register("random", func(*Registry) (searcher.Search, error) {
		return searcher.NewRandom(), nil
	})
	for _, strategy := range []searcher.Strategy{searcher.Uniform, searcher.Discount, searcher.Minimax, searcher.Negamin} {
		r.Register(strategy.String(), dpFactory(strategy))
	}
	r.Register("alphabeta", func(r *Registry) (searcher.Search, error) {
		return searcher.NewAlphaBeta(r.tables), nil
	})
	r.Register("heuristic", func(r *Registry) (searcher.Search, error) {
		return searcher.NewAlphaBeta(r.tables, searcher.WithDepth(4), searcher.WithMoveOrdering()), nil
	})
	r.Register("iterative", func(r *Registry) (searcher.Search, error) {
		return searcher.NewAlphaBeta(r.tables, searcher.WithIterativeDeepening()), nil
	})
	r.Register("timed", func(r *Registry) (searcher.Search, error) {
		return searcher.NewAlphaBeta(r.tables, searcher.WithDuration(100*time.Millisecond)), nil
	})
	r.Register("montecarlo", func(r *Registry) (searcher.Search, error) {
		return searcher.NewMCTS(searcher.WithEpisodes(1000), searcher.WithFlat(), searcher.WithMCTSRand(r.newRand())), nil
	})
	r.Register("confidence", func(r *Registry) (searcher.Search, error) {
		return searcher.NewMCTS(searcher.WithEpisodes(1000), searcher.WithMCTSRand(r.newRand())), nil
	})
	for _, method := range learner.Methods() {
		r.Register(method.String(), learnedFactory(method.String()))
	}
	return r
}

// dpFactory loads a DP table, building and saving it when no snapshot exists.
func dpFactory(strategy searcher.Strategy) Factory {
	return func(r *Registry) (searcher.Search, error) {
		name := strategy.String()
		table, ok, err := store.LoadValues(r.dir, name, r.tables)
		if err != nil {
			return nil, err
		}
		if ok {
			return searcher.NewDP(strategy, r.tables, searcher.WithTable(table)), nil
		}

		d := searcher.NewDP(strategy, r.tables)
		err = store.SaveValues(r.dir, name, r.tables, d.Table())
		if err != nil {
			return nil, err
		}
		log.Info().Msgf("built %s table with %d states", name, d.Table().Len())
		return d, nil
	}
}

// learnedFactory requires trained values. It never falls back to an empty table.
func learnedFactory(name string) Factory {
	return func(r *Registry) (searcher.Search, error) {
		table, err := store.RequireValues(r.dir, name, r.tables)
		if err != nil {
			return nil, err
		}
		return searcher.NewLearned(table), nil
	}
}

// Register adds or replaces the factory behind name.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if utils.FindIndex(r.names, name) < 0 {
		r.names = append(r.names, name)
	}
	r.factories[name] = factory
	delete(r.searches, name)
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

func (r *Registry) Tables() *game.Tables {
	return r.tables
}

func (r *Registry) Dir() string {
	return r.dir
}

// Search returns the shared search behind name, building it on first use. Concurrent
// first uses share one build.
func (r *Registry) Search(name string) (searcher.Search, error) {
	r.mu.Lock()
	factory, ok := r.factories[name]
	s, built := r.searches[name]
	r.mu.Unlock()
	if !ok {
		return nil, errors.Wrap(ErrUnknownAgent, name)
	}
	if built {
		return s, nil
	}

	v, err, _ := r.builds.Do(name, func() (any, error) {
		r.mu.Lock()
		existing, ok := r.searches[name]
		r.mu.Unlock()
		if ok {
			return existing, nil
		}

		s, err := factory(r)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s search: %w", name, err)
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		r.searches[name] = s
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(searcher.Search), nil
}

// Agent spawns a new agent with a fresh record.
func (r *Registry) Agent(name string) (*Agent, error) {
	s, err := r.Search(name)
	if err != nil {
		return nil, err
	}
	return New(name, s, r.newRand()), nil
}

// Warm builds or loads the searches behind names concurrently.
func (r *Registry) Warm(ctx context.Context, names ...string) error {
	names = lo.Uniq(names)
	g, ctx := errgroup.WithContext(ctx)
	for _, name := range names {
		name := name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := r.Search(name)
			return err
		})
	}
	err := g.Wait()
	if err != nil {
		return err
	}
	log.Debug().Msgf("warmed %d searches", len(names))
	return nil
}
