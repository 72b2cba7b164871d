// Package ring implements the placement engine: a concurrency-safe,
// balanced-tree-backed ordered map from ring position to node identity,
// answering the successor/predecessor queries the coordinator uses to pick
// a primary and replica node for every key.
package ring

import (
	"sync"

	"github.com/google/btree"
)

// Element is a single occupied ring position.
type Element struct {
	Position int
	Identity string
}

type item struct {
	position int
	identity string
}

func (a item) Less(b btree.Item) bool {
	return a.position < b.(item).position
}

// Ring is an ordered map over ring positions in [0, R), safe for concurrent
// use. The zero value is not usable; call New.
type Ring struct {
	mu   sync.RWMutex
	tree *btree.BTree
}

// New returns an empty ring.
func New() *Ring {
	return &Ring{tree: btree.New(4)}
}

// Insert adds identity at position. No-op if the position is already
// occupied, matching the spec's dedup-by-position rule.
func (r *Ring) Insert(position int, identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := item{position: position}
	if r.tree.Has(key) {
		return
	}
	r.tree.ReplaceOrInsert(item{position: position, identity: identity})
}

// Remove drops the element at position, if present.
func (r *Ring) Remove(position int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tree.Delete(item{position: position})
}

// Successor returns the least position >= h, wrapping to the minimum
// position if none qualifies. ok is false only when the ring is empty.
func (r *Ring) Successor(h int) (elem Element, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.tree.Len() == 0 {
		return Element{}, false
	}
	var found *item
	r.tree.AscendGreaterOrEqual(item{position: h}, func(i btree.Item) bool {
		it := i.(item)
		found = &it
		return false
	})
	if found == nil {
		min := r.tree.Min().(item)
		found = &min
	}
	return Element{Position: found.position, Identity: found.identity}, true
}

// Predecessor returns the greatest position <= h, wrapping to the maximum
// position if none qualifies. ok is false only when the ring is empty.
func (r *Ring) Predecessor(h int) (elem Element, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.tree.Len() == 0 {
		return Element{}, false
	}
	var found *item
	r.tree.DescendLessOrEqual(item{position: h}, func(i btree.Item) bool {
		it := i.(item)
		found = &it
		return false
	})
	if found == nil {
		max := r.tree.Max().(item)
		found = &max
	}
	return Element{Position: found.position, Identity: found.identity}, true
}

// Size returns the number of occupied positions.
func (r *Ring) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tree.Len()
}

// Empty reports whether the ring holds no elements.
func (r *Ring) Empty() bool {
	return r.Size() == 0
}

// Elements returns all occupied positions in ascending order. Intended for
// diagnostics and tests, not the hot path.
func (r *Ring) Elements() []Element {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Element, 0, r.tree.Len())
	r.tree.Ascend(func(i btree.Item) bool {
		it := i.(item)
		out = append(out, Element{Position: it.position, Identity: it.identity})
		return true
	})
	return out
}
