// See store.go for the Table/NodeStore API. This file intentionally
// carries no additional documentation; the exported doc comments there
// are the complete reference.
package store
