package game

import (
	"encoding/binary"
	"sync"

	"github.com/cespare/xxhash"
	"github.com/rs/zerolog/log"

	"tictactoe/meta"
)

// symmetries maps each transformed cell to the source cell it reads from:
// identity, three rotations, two flips and the two diagonal reflections.
var symmetries = [8][Cells]int{}

func init() {
	transforms := []func(r, c int) (int, int){
		func(r, c int) (int, int) { return r, c },
		func(r, c int) (int, int) { return c, 2 - r },
		func(r, c int) (int, int) { return 2 - r, 2 - c },
		func(r, c int) (int, int) { return 2 - c, r },
		func(r, c int) (int, int) { return 2 - r, c },
		func(r, c int) (int, int) { return r, 2 - c },
		func(r, c int) (int, int) { return c, r },
		func(r, c int) (int, int) { return 2 - c, 2 - r },
	}
	for s, transform := range transforms {
		for i := 0; i < Cells; i++ {
			r, c := transform(i/3, i%3)
			symmetries[s][i] = 3*r + c
		}
	}
}

// Tables maps raw board hashes to canonical ids and canonical ids to outcomes.
// A Tables value is immutable once constructed and safe to share.
type Tables struct {
	hashValues []uint16
	winValues  []uint16
	hashKeys   [3][Cells]uint16
	size       int
}

// NewTables enumerates every reachable board depth first and assigns canonical ids.
func NewTables() *Tables {
	t := newEmptyTables()
	e := &explorer{tables: t}
	e.explore()
	t.size = e.hashstop
	log.Debug().Msgf("built canonical tables with %d classes", t.size)
	return t
}

func newEmptyTables() *Tables {
	t := &Tables{
		hashValues: make([]uint16, meta.RAW_HASHES),
		winValues:  make([]uint16, meta.CANONICAL_STATES),
	}
	for i := range t.hashValues {
		t.hashValues[i] = meta.UNSEEN_HASH
	}
	for i := range t.winValues {
		t.winValues[i] = uint16(Ongoing)
	}
	power := uint16(1)
	for pos := 0; pos < Cells; pos++ {
		t.hashKeys[Player1][pos] = power
		t.hashKeys[Player2][pos] = 2 * power
		power *= 3
	}
	return t
}

var (
	defaultTables *Tables
	once          sync.Once
)

// DefaultTables returns a process-wide Tables, built on first use.
func DefaultTables() *Tables {
	once.Do(func() {
		defaultTables = NewTables()
	})
	return defaultTables
}

// Key returns the additive hash contribution of player occupying pos.
func (t *Tables) Key(player Player, pos Position) int {
	return int(t.hashKeys[player][pos])
}

// Canonical returns the canonical id of a raw hash. Panics on an unreachable hash.
func (t *Tables) Canonical(raw int) int {
	id := t.hashValues[raw]
	if id == meta.UNSEEN_HASH {
		panic("unreachable board hash")
	}
	return int(id)
}

// Outcome returns the terminal status of a canonical id.
func (t *Tables) Outcome(canonical int) Outcome {
	return Outcome(t.winValues[canonical])
}

// Size returns the number of canonical classes.
func (t *Tables) Size() int {
	return t.size
}

// RawHash returns the raw additive hash of cells.
func (t *Tables) RawHash(cells [Cells]uint8) int {
	hash := 0
	for pos, owner := range cells {
		if owner != 0 {
			hash += int(t.hashKeys[owner][pos])
		}
	}
	return hash
}

// Symmetries returns the raw hashes of the 8 symmetric variants of cells.
func (t *Tables) Symmetries(cells [Cells]uint8) [8]int {
	var hashes [8]int
	for s, perm := range symmetries {
		var variant [Cells]uint8
		for i, src := range perm {
			variant[i] = cells[src]
		}
		hashes[s] = t.RawHash(variant)
	}
	return hashes
}

// Fingerprint identifies the canonical numbering, so snapshots keyed on it can be checked.
func (t *Tables) Fingerprint() uint64 {
	buf := make([]byte, 0, 2*len(t.hashValues))
	for _, v := range t.hashValues {
		buf = binary.LittleEndian.AppendUint16(buf, v)
	}
	return xxhash.Sum64(buf)
}

// explorer walks the game graph from the empty board, assigning canonical ids.
type explorer struct {
	tables   *Tables
	cells    [Cells]uint8
	moves    int
	hashstop int
}

func (e *explorer) explore() {
	if e.cutoff() {
		return
	}
	for pos := 0; pos < Cells; pos++ {
		if e.cells[pos] != 0 {
			continue
		}
		e.cells[pos] = uint8(1 + e.moves%2)
		e.moves++
		e.explore()
		e.moves--
		e.cells[pos] = 0
	}
}

func (e *explorer) cutoff() bool {
	return e.cutoffTransposition() || e.cutoffWinner() || e.cutoffDraw()
}

func (e *explorer) cutoffTransposition() bool {
	symm := e.tables.Symmetries(e.cells)
	for _, s := range symm {
		if e.tables.hashValues[s] != meta.UNSEEN_HASH {
			return true
		}
	}
	for _, s := range symm {
		e.tables.hashValues[s] = uint16(e.hashstop)
	}
	e.hashstop++
	return false
}

func (e *explorer) cutoffWinner() bool {
	if e.moves < 5 {
		return false
	}
	if winner := lineWinner(e.cells); winner != 0 {
		e.tables.winValues[e.hashstop-1] = uint16(winner)
		return true
	}
	return false
}

func (e *explorer) cutoffDraw() bool {
	if e.moves == Cells {
		e.tables.winValues[e.hashstop-1] = uint16(Draw)
		return true
	}
	return false
}

// lineWinner returns the owner of a completed line, or 0.
func lineWinner(cells [Cells]uint8) uint8 {
	for _, slice := range Slices {
		owner := cells[slice[0]]
		if owner != 0 && owner == cells[slice[1]] && owner == cells[slice[2]] {
			return owner
		}
	}
	return 0
}
