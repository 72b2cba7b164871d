// Package ring is the placement engine: it assigns a ring position to every
// registered node and answers successor/predecessor queries so the
// coordinator can pick a primary and replica for any key.
//
// Backed by github.com/google/btree rather than a hand-rolled AVL tree; a
// single sync.RWMutex makes every operation appear atomic to concurrent
// callers, matching the mutual-exclusion requirement over insert, remove,
// successor, and predecessor.
package ring
