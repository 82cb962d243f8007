package meta

// RAW_HASHES is the number of raw additive hashes, 3^9.
const RAW_HASHES = 19683

// CANONICAL_STATES is the number of symmetry/transposition classes reachable from the empty board.
const CANONICAL_STATES = 765

// UNSEEN_HASH marks a raw hash that has not been assigned a canonical id.
const UNSEEN_HASH = 1024

// UNSET_VALUE marks an empty slot in a persisted value table.
const UNSET_VALUE = 3.14159265

// EVAL_MAX bounds heuristic scores to [-EVAL_MAX, EVAL_MAX].
const EVAL_MAX = 130

// TERMINAL_DEPTH is the depth stamped on terminal records so no search depth supersedes them.
const TERMINAL_DEPTH = 10

// MAX_DEPTH is the longest possible game.
const MAX_DEPTH = 9

// DISCOUNT is the per-ply decay of the discounted DP search.
const DISCOUNT = 0.9

// RL defaults
const (
	GAMMA          = 1.0
	ALPHA          = 0.5
	EPSILON        = 1.0
	LAMBDA         = 0.5
	SEARCH_EPSILON = 15.0
	SEARCH_DEPTH   = 3
)

// LEAVES is the number of terminal canonical classes: 91 player 1 wins, 44 player 2 wins, 3 draws.
const LEAVES = 138

// DATA_DIR is where tables and snapshots are persisted.
const DATA_DIR = "data"
