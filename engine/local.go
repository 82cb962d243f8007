package engine

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"tictactoe/agent"
	"tictactoe/experiments/metrics"
	"tictactoe/game"
	"tictactoe/searcher"
)

// metered is implemented by searches that report metrics of their last search.
type metered interface {
	Metrics() searcher.SearchMetrics
}

var _ Engine = (*Game)(nil)

// Game alternates two in-process agents on a board. Agent1 moves first.
type Game struct {
	Board     *game.Board
	Agent1    *agent.Agent
	Agent2    *agent.Agent
	collector metrics.Collector
	moves     []metrics.MoveMetric
}

type Option func(g *Game)

// WithCollector records every finished game.
func WithCollector(c metrics.Collector) Option {
	return func(g *Game) {
		g.collector = c
	}
}

func NewGame(tables *game.Tables, agent1, agent2 *agent.Agent, options ...Option) *Game {
	if agent1 == nil || agent2 == nil {
		panic("game needs two agents")
	}
	g := &Game{
		Board:     game.NewBoard(tables),
		Agent1:    agent1,
		Agent2:    agent2,
		collector: metrics.NewDummyCollector(),
	}
	for _, option := range options {
		option(g)
	}
	return g
}

func (g *Game) Actions() []game.Position {
	return g.Board.Actions()
}

// CurrentAgent is the agent to move.
func (g *Game) CurrentAgent() *agent.Agent {
	if g.Board.Turn() == game.Player1 {
		return g.Agent1
	}
	return g.Agent2
}

// OtherAgent is the agent that moved last.
func (g *Game) OtherAgent() *agent.Agent {
	if g.Board.Other() == game.Player1 {
		return g.Agent1
	}
	return g.Agent2
}

// Step asks the current agent for a position and plays it.
func (g *Game) Step() error {
	if g.Board.IsTerminal() {
		return fmt.Errorf("game is over: %s", g.Board.Winner())
	}
	a := g.CurrentAgent()
	player := g.Board.Turn()

	start := time.Now()
	pos := a.Act(g.Board)
	if !g.Board.IsOpen(pos) {
		return fmt.Errorf("agent %s chose illegal position %d\n%v", a.Name, pos, g.Board)
	}

	move := metrics.MoveMetric{
		Step:     g.Board.Moves() + 1,
		Player:   int(player),
		Agent:    a.Name,
		Position: int(pos),
		Duration: time.Since(start),
	}
	if m, ok := a.Search.(metered); ok {
		move.Search = m.Metrics()
	}
	g.moves = append(g.moves, move)

	g.Board.Push(pos)
	return nil
}

// Run plays from the current board until the game ends.
func (g *Game) Run() (game.Outcome, metrics.GameMetric, error) {
	start := time.Now()
	g.moves = g.moves[:0]

	for !g.Board.IsTerminal() {
		err := g.Step()
		if err != nil {
			return game.Ongoing, metrics.GameMetric{}, err
		}
	}

	u := g.Board.Utility()
	g.Agent1.UpdateRecord(u)
	g.Agent2.UpdateRecord(-u)

	end := time.Now()
	gameMetric := metrics.GameMetric{
		Agent1:     g.Agent1.Name,
		Agent2:     g.Agent2.Name,
		Winner:     g.Board.Winner().String(),
		StartTime:  start,
		EndTime:    end,
		Duration:   end.Sub(start),
		TotalMoves: g.Board.Moves(),
	}
	g.collector.AddGame(gameMetric, g.moves)
	log.Debug().Msgf("%s vs %s: %s after %d moves", g.Agent1.Name, g.Agent2.Name, gameMetric.Winner, gameMetric.TotalMoves)
	return g.Board.Winner(), gameMetric, nil
}

// Moves returns the moves of the last game.
func (g *Game) Moves() []metrics.MoveMetric {
	return append([]metrics.MoveMetric(nil), g.moves...)
}

func (g *Game) Reset() {
	g.Board.Reset()
	g.moves = g.moves[:0]
}

func (g *Game) SwapAgents() {
	g.Agent1, g.Agent2 = g.Agent2, g.Agent1
}

// ChangeAgents replaces the agents that are not nil.
func (g *Game) ChangeAgents(agent1, agent2 *agent.Agent) {
	if agent1 != nil {
		g.Agent1 = agent1
	}
	if agent2 != nil {
		g.Agent2 = agent2
	}
}

// Runs plays n games from the empty board.
func (g *Game) Runs(n int) error {
	for i := 0; i < n; i++ {
		g.Reset()
		_, _, err := g.Run()
		if err != nil {
			return err
		}
	}
	return nil
}

// Compete plays n games, swapping who moves first halfway through. The agents
// are back in their original seats afterwards.
func (g *Game) Compete(n int) error {
	m := n / 2
	err := g.Runs(m)
	if err != nil {
		return err
	}
	g.SwapAgents()
	defer g.SwapAgents()
	return g.Runs(n - m)
}
