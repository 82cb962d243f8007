package learner

import (
	"fmt"

	"github.com/samber/lo"

	"tictactoe/game"
	"tictactoe/meta"
	"tictactoe/store"
	"tictactoe/utils"
)

// Method selects how an episode is backed up into the value table.
type Method int

const (
	// MC moves values toward the actual discounted return.
	MC Method = iota
	// TD moves values toward the discounted value of the next state.
	TD
	// TDLambda moves values toward a lambda-weighted mix of TD and MC targets.
	TDLambda
	// Q moves values toward the best afterstate value.
	Q
	// QSearch moves values toward a depth-bounded minimax over stored values.
	QSearch
	// TreeStrap updates every node of a bounded lookahead run at each move.
	TreeStrap
)

var methodNames = map[Method]string{
	MC:        "mc",
	TD:        "td",
	TDLambda:  "tdl",
	Q:         "q",
	QSearch:   "qs",
	TreeStrap: "ts",
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("method(%d)", int(m))
}

func ParseMethod(name string) (Method, bool) {
	for m, n := range methodNames {
		if n == name {
			return m, true
		}
	}
	return 0, false
}

// Methods lists every method in declaration order.
func Methods() []Method {
	return []Method{MC, TD, TDLambda, Q, QSearch, TreeStrap}
}

type mode int

const (
	evaluateMode mode = iota
	deltaMode
)

// SelfPlay learns board values by playing against itself. Values are from player 1's
// point of view: player 1 picks the max afterstate and player 2 the min.
type SelfPlay struct {
	method  Method
	gamma   float64
	alpha   float64
	epsilon float64
	lambda  float64
	depth   int

	values *store.DefaultTable[float64]
	visits *store.DefaultTable[float64]
	board  *game.Board
	rand   utils.Rand

	// Scratch state of the lookahead searches
	searched *store.Table[float64]
	mode     mode
	maxDelta float64
}

type Option func(s *SelfPlay)

func WithGamma(gamma float64) Option {
	return func(s *SelfPlay) {
		s.gamma = gamma
	}
}

func WithAlpha(alpha float64) Option {
	return func(s *SelfPlay) {
		s.alpha = alpha
	}
}

func WithEpsilon(epsilon float64) Option {
	return func(s *SelfPlay) {
		s.epsilon = epsilon
	}
}

func WithLambda(lambda float64) Option {
	return func(s *SelfPlay) {
		s.lambda = lambda
	}
}

// WithDepth sets the lookahead of QSearch and TreeStrap.
func WithDepth(depth int) Option {
	return func(s *SelfPlay) {
		s.depth = depth
	}
}

func WithRand(r utils.Rand) Option {
	return func(s *SelfPlay) {
		s.rand = r
	}
}

// WithValues continues learning from an existing value table.
func WithValues(values *store.Table[float64]) Option {
	return func(s *SelfPlay) {
		s.values = store.WrapDefault(values, store.Zero)
	}
}

func WithVisits(visits *store.Table[float64]) Option {
	return func(s *SelfPlay) {
		s.visits = store.WrapDefault(visits, store.Zero)
	}
}

func New(method Method, tables *game.Tables, options ...Option) *SelfPlay {
	if _, ok := methodNames[method]; !ok {
		panic(fmt.Sprintf("unknown method %d", method))
	}
	s := &SelfPlay{ // Default values
		method:   method,
		gamma:    meta.GAMMA,
		alpha:    meta.ALPHA,
		epsilon:  meta.EPSILON,
		lambda:   meta.LAMBDA,
		depth:    1,
		board:    game.NewBoard(tables),
		searched: store.NewTable[float64](tables),
	}
	if method == QSearch || method == TreeStrap {
		s.epsilon = meta.SEARCH_EPSILON
		s.depth = meta.SEARCH_DEPTH
	}
	for _, option := range options {
		option(s)
	}

	if s.alpha <= 0 || s.alpha > 1 {
		panic(fmt.Sprintf("alpha must be in (0, 1], got %v", s.alpha))
	}
	if s.gamma <= 0 || s.gamma > 1 {
		panic(fmt.Sprintf("gamma must be in (0, 1], got %v", s.gamma))
	}
	if s.epsilon <= 0 {
		panic(fmt.Sprintf("epsilon must be positive, got %v", s.epsilon))
	}
	if s.depth < 1 {
		panic(fmt.Sprintf("depth must be at least 1, got %d", s.depth))
	}
	if s.values == nil {
		s.values = store.NewDefaultTable(tables, store.Zero)
	}
	if s.visits == nil {
		s.visits = store.NewDefaultTable(tables, store.Zero)
	}
	if s.rand == nil {
		s.rand = utils.DefaultRand()
	}
	return s
}

func (s *SelfPlay) Method() Method {
	return s.method
}

// Params returns the hyperparameters that apply to the method.
func (s *SelfPlay) Params() map[string]float64 {
	params := map[string]float64{
		"gamma":   s.gamma,
		"alpha":   s.alpha,
		"epsilon": s.epsilon,
	}
	switch s.method {
	case TDLambda:
		params["lambda"] = s.lambda
	case QSearch, TreeStrap:
		params["depth"] = float64(s.depth)
	}
	return params
}

func (s *SelfPlay) Values() *store.Table[float64] {
	return s.values.Table
}

func (s *SelfPlay) Visits() *store.Table[float64] {
	return s.visits.Table
}

func (s *SelfPlay) Board() *game.Board {
	return s.board
}

// Run trains for the given number of episodes.
func (s *SelfPlay) Run(episodes int) {
	for i := 0; i < episodes; i++ {
		s.RunEpisode()
	}
}

// RunEpisode plays one epsilon-greedy episode and backs it up.
func (s *SelfPlay) RunEpisode() {
	s.board.Reset()
	s.mode = evaluateMode
	s.GenerateEpisode(false)
	s.EvaluateEpisode()
}

// ProbeDelta plays one greedy episode and returns the largest change an update
// would make, without changing any value.
func (s *SelfPlay) ProbeDelta() float64 {
	s.board.Reset()
	s.mode = deltaMode
	s.maxDelta = 0
	defer func() {
		s.mode = evaluateMode
	}()

	s.GenerateEpisode(true)
	return s.EpisodeDelta()
}

// GenerateEpisode plays until the game ends. The board must be reset.
func (s *SelfPlay) GenerateEpisode(greedy bool) {
	if s.board.Moves() != 0 {
		panic(fmt.Sprintf("episode must start from an empty board\n%v", s.board))
	}
	for !s.board.IsTerminal() {
		// TreeStrap has no backup pass, so boards count as visited when played
		if s.method == TreeStrap && s.mode == evaluateMode {
			s.visit()
		}
		s.board.Push(s.policy(greedy))
	}
}

func (s *SelfPlay) policy(greedy bool) game.Position {
	if !greedy && !s.exploit() {
		return utils.Choice(s.rand, s.board.Actions())
	}
	if s.method == TreeStrap {
		s.searched.Clear()
		s.lookahead(s.depth)
	}
	return utils.Choice(s.rand, s.BestActions())
}

// exploit returns true with probability 1 - epsilon/(epsilon + visits), which decays
// exploration as the current board is visited more often.
func (s *SelfPlay) exploit() bool {
	e := s.epsilon / (s.epsilon + s.visits.GetOr(s.board, 0))
	return s.rand.Float64() >= e
}

type item struct {
	pos   game.Position
	value float64
}

func (s *SelfPlay) bestItems() ([]game.Position, float64) {
	actions := s.board.Actions()
	if len(actions) == 0 {
		panic(fmt.Sprintf("no actions on terminal board\n%v", s.board))
	}
	items := make([]item, 0, len(actions))
	for _, pos := range actions {
		s.board.Push(pos)
		items = append(items, item{pos: pos, value: s.values.GetOr(s.board, 0)})
		s.board.Pop()
	}

	values := lo.Map(items, func(it item, _ int) float64 { return it.value })
	best := lo.Min(values)
	if s.board.Turn() == game.Player1 {
		best = lo.Max(values)
	}
	positions := lo.FilterMap(items, func(it item, _ int) (game.Position, bool) {
		return it.pos, it.value == best
	})
	return positions, best
}

// BestActions returns the positions with the extremal afterstate value on the
// learner's board. Unseen afterstates count as 0.
func (s *SelfPlay) BestActions() []game.Position {
	positions, _ := s.bestItems()
	return positions
}

func (s *SelfPlay) BestValue() float64 {
	_, value := s.bestItems()
	return value
}

// RunLeaves plays random games until the utility of every terminal class is stored.
func (s *SelfPlay) RunLeaves() {
	leaves := store.NewSet(s.board.Tables())
	for leaves.Len() < meta.LEAVES {
		s.board.Reset()
		for !s.board.IsTerminal() {
			s.board.Push(utils.Choice(s.rand, s.board.Actions()))
		}
		s.values.Set(s.board, float64(s.board.Utility()))
		leaves.Add(s.board)
	}
	s.board.Reset()
}

func (s *SelfPlay) visit() {
	s.visits.Set(s.board, s.visits.At(s.board)+1)
}
