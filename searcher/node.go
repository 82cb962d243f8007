package searcher

import (
	"math"

	"tictactoe/game"
	"tictactoe/utils"
)

// node is a board reached in a Monte Carlo tree. Rewards are from the point of
// view of the player who moved into it.
type node struct {
	parent   *node
	position game.Position // Move from the parent
	mover    game.Player
	untried  []game.Position
	children []*node
	rewards  float64
	visits   int
}

// newNode expects b to hold the node's board.
func newNode(parent *node, position game.Position, b *game.Board, r utils.Rand) *node {
	n := &node{
		parent:   parent,
		position: position,
		mover:    b.Other(),
	}
	if !b.IsTerminal() {
		n.untried = b.Actions()
		// Expanded from the back in random order
		for i := len(n.untried) - 1; i > 0; i-- {
			j := r.Intn(i + 1)
			n.untried[i], n.untried[j] = n.untried[j], n.untried[i]
		}
	}
	return n
}

func (n *node) isExpandable() bool {
	return len(n.untried) > 0
}

func (n *node) isLeaf() bool {
	return len(n.children) == 0
}

// expand plays an untried position on b and adds its child.
func (n *node) expand(b *game.Board, r utils.Rand) *node {
	last := len(n.untried) - 1
	pos := n.untried[last]
	n.untried = n.untried[:last]
	b.Push(pos)
	child := newNode(n, pos, b, r)
	n.children = append(n.children, child)
	return child
}

// pickChild returns the child with the highest UCT score.
func (n *node) pickChild(cSquared float64) *node {
	if n.visits == 0 {
		panic("node has children but no visits")
	}
	policy := newUCT(cSquared, float64(n.visits))

	var best *node
	maxScore := math.Inf(-1)
	for _, child := range n.children {
		if child.visits == 0 {
			return child
		}
		score := policy.evaluate(child.rewards, float64(child.visits))
		if score > maxScore {
			maxScore = score
			best = child
		}
	}
	return best
}

// leastVisited returns the first child with the fewest visits.
func (n *node) leastVisited() *node {
	best := n.children[0]
	for _, child := range n.children[1:] {
		if child.visits < best.visits {
			best = child
		}
	}
	return best
}

func (n *node) backup(utility int) {
	for node := n; node != nil; node = node.parent {
		node.rewards += reward(utility, node.mover)
		node.visits++
	}
}

// value is the mean reward, 0 before the first visit.
func (n *node) value() float64 {
	if n.visits == 0 {
		return 0
	}
	return n.rewards / float64(n.visits)
}
