package learner

import (
	"fmt"
	"math"

	"tictactoe/game"
)

// EvaluateEpisode backs the finished episode up from the leaf, undoing every move.
// TreeStrap learns during play, so its episodes only need the board reset.
func (s *SelfPlay) EvaluateEpisode() {
	if s.method == TreeStrap {
		s.board.Reset()
		return
	}
	s.backup(true)
}

// EpisodeDelta returns the largest absolute change EvaluateEpisode would make to
// the finished episode, undoing every move without changing any value.
func (s *SelfPlay) EpisodeDelta() float64 {
	if s.method == TreeStrap {
		s.board.Reset()
		return s.maxDelta
	}
	return s.backup(false)
}

func (s *SelfPlay) backup(update bool) float64 {
	if !s.board.IsTerminal() {
		panic(fmt.Sprintf("episode must end on a terminal board\n%v", s.board))
	}

	G := float64(s.board.Utility())
	maxDelta := math.Abs(G - s.values.GetOr(s.board, 0))
	if update {
		s.visit()
		s.values.Set(s.board, G)
	}

	for s.board.Moves() > 0 {
		s.board.Pop()
		if update {
			s.visit()
		}
		if s.method == Q || s.method == QSearch {
			G = s.target()
		}

		v := s.values.GetOr(s.board, 0)
		delta := s.alpha * (G - v)
		maxDelta = math.Max(maxDelta, math.Abs(delta))
		if update {
			s.values.Set(s.board, v+delta)
		}

		switch s.method {
		case MC:
			G *= s.gamma
		case TD:
			G = s.gamma * (v + delta)
		case TDLambda:
			G = s.gamma * ((1-s.lambda)*(v+delta) + s.lambda*G)
		}
	}
	return maxDelta
}

// target is the off-policy return of the Q methods on the current board.
func (s *SelfPlay) target() float64 {
	if s.method == Q {
		return s.BestValue()
	}
	s.searched.Clear()
	return s.search(s.depth)
}

// search is a minimax over stored values, cut off at depth and at terminal boards.
// A board's depth follows from its move count, so boards already searched from the
// same root, symmetric ones included, reuse their backed-up value.
func (s *SelfPlay) search(depth int) float64 {
	if value, ok := s.searched.Get(s.board); ok {
		return value
	}
	if depth == 0 || s.board.IsTerminal() {
		return s.values.GetOr(s.board, 0)
	}

	maximizing := s.board.Turn() == game.Player1
	value := 1.0
	if maximizing {
		value = -1.0
	}
	for _, pos := range s.board.Actions() {
		s.board.Push(pos)
		child := s.search(depth - 1)
		s.board.Pop()
		if maximizing {
			value = math.Max(value, child)
		} else {
			value = math.Min(value, child)
		}
	}
	s.searched.Set(s.board, value)
	return value
}

// lookahead is the TreeStrap search: every expanded node moves toward its backed-up
// value. In delta mode it only records the largest change.
func (s *SelfPlay) lookahead(depth int) float64 {
	if value, ok := s.lookaheadCutoff(depth); ok {
		return value
	}

	maximizing := s.board.Turn() == game.Player1
	value := 1.0
	if maximizing {
		value = -1.0
	}
	for _, pos := range s.board.Actions() {
		s.board.Push(pos)
		child := s.lookahead(depth - 1)
		s.board.Pop()
		if maximizing {
			value = math.Max(value, child)
		} else {
			value = math.Min(value, child)
		}
	}
	s.searched.Set(s.board, value)

	v := s.values.GetOr(s.board, 0)
	delta := s.alpha * (value - v)
	if s.mode == deltaMode {
		s.maxDelta = math.Max(s.maxDelta, math.Abs(delta))
	} else {
		s.visit()
		s.values.Set(s.board, v+delta)
	}
	return value
}

func (s *SelfPlay) lookaheadCutoff(depth int) (float64, bool) {
	if value, ok := s.searched.Get(s.board); ok {
		return value, true
	}
	if depth == 0 {
		return s.values.GetOr(s.board, 0), true
	}
	if s.board.IsTerminal() {
		u := float64(s.board.Utility())
		if s.mode == evaluateMode {
			s.values.Set(s.board, u)
		}
		return u, true
	}
	return 0, false
}
