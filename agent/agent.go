package agent

import (
	"fmt"

	"tictactoe/game"
	"tictactoe/searcher"
	"tictactoe/utils"
)

const (
	Wins = iota
	Draws
	Losses
)

// Agent plays by choosing uniformly among the best actions of its search, keeping
// a (win, draw, loss) record of the games it played.
type Agent struct {
	Name   string
	Search searcher.Search
	Record [3]int
	rand   utils.Rand
}

func New(name string, search searcher.Search, r utils.Rand) *Agent {
	if r == nil {
		r = utils.DefaultRand()
	}
	return &Agent{Name: name, Search: search, rand: r}
}

// Act returns the position to play on b.
func (a *Agent) Act(b *game.Board) game.Position {
	return searcher.Policy(a.Search, b, a.rand)
}

// WinShare counts a win as 1 and a draw as 0.5.
func (a *Agent) WinShare() float64 {
	return float64(a.Record[Wins]) + 0.5*float64(a.Record[Draws])
}

// UpdateRecord scores a game from this agent's point of view: 1 win, 0 draw, -1 loss.
func (a *Agent) UpdateRecord(utility int) {
	switch {
	case utility == 0:
		a.Record[Draws]++
	case utility == 1:
		a.Record[Wins]++
	default:
		a.Record[Losses]++
	}
}

func (a *Agent) ResetRecord() {
	a.Record = [3]int{}
}

func (a *Agent) Games() int {
	return a.Record[Wins] + a.Record[Draws] + a.Record[Losses]
}

func (a *Agent) String() string {
	return fmt.Sprintf("%s : %v", a.Name, a.Record)
}
