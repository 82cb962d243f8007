package store

import (
	"fmt"

	"tictactoe/game"
)

// Table is a dense transposition store keyed by canonical board id.
// It holds no reference to any board; symmetric boards and transpositions share a slot.
// Capacity is fixed at construction, there is no resizing or eviction.
type Table[T any] struct {
	values []T
	set    []bool
	count  int
}

// NewTable returns an empty table with one slot per canonical class.
func NewTable[T any](tables *game.Tables) *Table[T] {
	return &Table[T]{
		values: make([]T, tables.Size()),
		set:    make([]bool, tables.Size()),
	}
}

// Get returns the stored item and whether the slot is set.
func (t *Table[T]) Get(b *game.Board) (T, bool) {
	return t.GetAt(b.Hash())
}

// MustGet returns the stored item, panicking when the slot is unset.
func (t *Table[T]) MustGet(b *game.Board) T {
	item, ok := t.Get(b)
	if !ok {
		panic(fmt.Sprintf("board %d not in table\n%v", b.Hash(), b))
	}
	return item
}

// GetOr returns the stored item or def when the slot is unset.
func (t *Table[T]) GetOr(b *game.Board, def T) T {
	if item, ok := t.Get(b); ok {
		return item
	}
	return def
}

func (t *Table[T]) Set(b *game.Board, item T) {
	t.SetAt(b.Hash(), item)
}

func (t *Table[T]) Delete(b *game.Board) {
	t.DeleteAt(b.Hash())
}

func (t *Table[T]) Contains(b *game.Board) bool {
	return t.set[b.Hash()]
}

// GetAt reads a slot by canonical id.
func (t *Table[T]) GetAt(id int) (T, bool) {
	return t.values[id], t.set[id]
}

// SetAt writes a slot by canonical id.
func (t *Table[T]) SetAt(id int, item T) {
	if !t.set[id] {
		t.set[id] = true
		t.count++
	}
	t.values[id] = item
}

// DeleteAt clears a slot by canonical id.
func (t *Table[T]) DeleteAt(id int) {
	if t.set[id] {
		t.set[id] = false
		t.count--
	}
	var zero T
	t.values[id] = zero
}

// Clear unsets every slot.
func (t *Table[T]) Clear() {
	for id := range t.values {
		t.DeleteAt(id)
	}
}

// Len returns the number of set slots.
func (t *Table[T]) Len() int {
	return t.count
}

// Cap returns the number of slots.
func (t *Table[T]) Cap() int {
	return len(t.values)
}

// DefaultTable inserts defaultFn() into unset slots on first access through At.
type DefaultTable[T any] struct {
	*Table[T]
	defaultFn func() T
}

func NewDefaultTable[T any](tables *game.Tables, defaultFn func() T) *DefaultTable[T] {
	return &DefaultTable[T]{Table: NewTable[T](tables), defaultFn: defaultFn}
}

// WrapDefault adds default insertion to an existing table.
func WrapDefault[T any](table *Table[T], defaultFn func() T) *DefaultTable[T] {
	return &DefaultTable[T]{Table: table, defaultFn: defaultFn}
}

// At returns the stored item, inserting the default when the slot is unset.
func (t *DefaultTable[T]) At(b *game.Board) T {
	if item, ok := t.Get(b); ok {
		return item
	}
	item := t.defaultFn()
	t.Set(b, item)
	return item
}

// Zero is the default function for counters and neutral values.
func Zero() float64 {
	return 0
}

// Set records canonical ids of boards visited during a search.
type Set struct {
	seen  []bool
	count int
}

func NewSet(tables *game.Tables) *Set {
	return &Set{seen: make([]bool, tables.Size())}
}

func (s *Set) Add(b *game.Board) {
	id := b.Hash()
	if !s.seen[id] {
		s.seen[id] = true
		s.count++
	}
}

func (s *Set) Contains(b *game.Board) bool {
	return s.seen[b.Hash()]
}

func (s *Set) Clear() {
	for id := range s.seen {
		s.seen[id] = false
	}
	s.count = 0
}

func (s *Set) Len() int {
	return s.count
}
