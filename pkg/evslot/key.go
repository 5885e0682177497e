package evslot

import "github.com/calvinalkan/evslot/pkg/evslot/internal/slotmap"

// Key identifies a value in a map created by [New].
//
// A key is only meaningful for the map that issued it. It becomes stale once
// its value is removed; a later insert that reuses the slot gets a key with a
// greater Generation.
type Key = slotmap.Key

// ParseKey parses the "index:generation" form produced by Key.String.
func ParseKey(s string) (Key, error) {
	return slotmap.ParseKey(s)
}
