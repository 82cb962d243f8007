package searcher

import (
	"time"

	"github.com/samber/lo"

	"tictactoe/game"
	"tictactoe/utils"
)

type MCTSOption func(m *MCTS)

// MCTS estimates action values from random playouts. By default it grows a UCT tree;
// a flat search only expands the root and spreads playouts evenly over its children.
type MCTS struct {
	duration time.Duration
	episodes int
	cSquared float64
	flat     bool
	rand     utils.Rand
	root     *node
	depth    int
	metrics  MetricsCollector
	last     SearchMetrics
}

func WithMCTSDuration(duration time.Duration) MCTSOption {
	return func(m *MCTS) {
		if duration > 0 {
			m.duration = duration
		}
	}
}

func WithEpisodes(episodes int) MCTSOption {
	return func(m *MCTS) {
		if episodes > 0 {
			m.episodes = episodes
		}
	}
}

// WithExploration sets the squared UCT exploration constant.
func WithExploration(cSquared float64) MCTSOption {
	return func(m *MCTS) {
		m.cSquared = cSquared
	}
}

func WithFlat() MCTSOption {
	return func(m *MCTS) {
		m.flat = true
	}
}

func WithMCTSRand(r utils.Rand) MCTSOption {
	return func(m *MCTS) {
		m.rand = r
	}
}

func WithMCTSMetrics() MCTSOption {
	return func(m *MCTS) {
		m.metrics = NewMetricsCollector()
	}
}

func NewMCTS(options ...MCTSOption) *MCTS {
	m := &MCTS{ // Default values
		cSquared: CSquared,
		metrics:  NewNoMetricsCollector(),
	}
	for _, option := range options {
		option(m)
	}
	if m.episodes <= 0 && m.duration <= 0 {
		panic("Must specify search episodes or duration")
	}
	if m.rand == nil {
		m.rand = utils.DefaultRand()
	}
	return m
}

func (m *MCTS) Metrics() SearchMetrics {
	return m.last
}

// Simulate grows a new tree from b. b is restored afterwards.
func (m *MCTS) Simulate(b *game.Board) {
	m.root = newNode(nil, 0, b, m.rand)
	m.depth = 0
	m.metrics.Start()
	if m.episodes > 0 {
		m.iterate(b)
	} else {
		m.countdown(b)
	}
	m.metrics.ReachedDepth(m.depth)
	m.last = m.metrics.Complete()
}

func (m *MCTS) iterate(b *game.Board) {
	for i := 0; i < m.episodes; i++ {
		m.simulate(b)
	}
}

func (m *MCTS) countdown(b *game.Board) {
	deadline := time.Now().Add(m.duration)
	for time.Now().Before(deadline) {
		m.simulate(b)
	}
}

func (m *MCTS) simulate(b *game.Board) {
	leaf, depth := m.selectThenExpand(b)
	m.depth = max(m.depth, depth)
	played := depth + m.rollout(b)
	leaf.backup(b.Utility())
	for i := 0; i < played; i++ {
		b.Pop()
	}
	m.metrics.AddEpisode()
}

// selectThenExpand descends to a node with untried positions and expands it. It
// returns the new node and the number of positions pushed on b.
func (m *MCTS) selectThenExpand(b *game.Board) (*node, int) {
	n := m.root
	depth := 0
	for !n.isExpandable() && !n.isLeaf() {
		if m.flat {
			n = n.leastVisited()
		} else {
			n = n.pickChild(m.cSquared)
		}
		b.Push(n.position)
		depth++
	}
	if n.isExpandable() && (!m.flat || n == m.root) {
		n = n.expand(b, m.rand)
		m.metrics.AddNode()
		depth++
	}
	return n, depth
}

// rollout plays uniformly random positions until the game ends.
func (m *MCTS) rollout(b *game.Board) int {
	played := 0
	for !b.IsTerminal() {
		b.Push(utils.Choice(m.rand, b.Actions()))
		played++
	}
	return played
}

// ActionValues returns the mean playout reward of each root child for the player to
// move. Positions the search never expanded are worth 0.
func (m *MCTS) ActionValues(b *game.Board) []ActionValue {
	if b.IsTerminal() {
		return nil
	}
	m.Simulate(b)
	values := lo.SliceToMap(m.root.children, func(child *node) (game.Position, float64) {
		return child.position, child.value()
	})
	return lo.Map(b.Actions(), func(pos game.Position, _ int) ActionValue {
		return ActionValue{Position: pos, Value: values[pos]}
	})
}

// BestActions returns the most visited root children, or the best valued ones
// for a flat search where visits are even.
func (m *MCTS) BestActions(b *game.Board) []game.Position {
	if b.IsTerminal() {
		return nil
	}
	m.Simulate(b)
	score := func(n *node) float64 { return float64(n.visits) }
	if m.flat {
		score = (*node).value
	}
	best := lo.Max(lo.Map(m.root.children, func(child *node, _ int) float64 { return score(child) }))
	return lo.FilterMap(m.root.children, func(child *node, _ int) (game.Position, bool) {
		return child.position, score(child) == best
	})
}

// NormalizedActionValues maps rewards in [LOSS, WIN] to [0, 1].
func (m *MCTS) NormalizedActionValues(b *game.Board) []ActionValue {
	return lo.Map(m.ActionValues(b), func(av ActionValue, _ int) ActionValue {
		return ActionValue{Position: av.Position, Value: 0.5 + av.Value/2}
	})
}
