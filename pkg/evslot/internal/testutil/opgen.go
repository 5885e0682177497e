package testutil

import (
	"strconv"

	"github.com/calvinalkan/evslot/pkg/evslot"
)

// OpGenerator derives a sequence of operations from fuzz input.
//
// Keys for Update, Remove and reads are mostly picked from keys the map
// issued earlier, which includes keys that have since gone stale. The rest
// are arbitrary keys that were probably never issued. Callers feed issued
// keys back with [OpGenerator.Remember].
type OpGenerator struct {
	stream *ByteStream
	keys   []evslot.Key
	values int
}

// NewOpGenerator creates a generator over the given fuzz input.
func NewOpGenerator(data []byte) *OpGenerator {
	return &OpGenerator{stream: NewByteStream(data)}
}

// HasMore reports whether more operations can be derived.
func (g *OpGenerator) HasMore() bool {
	return g.stream.HasMore()
}

// Remember records a key returned by Insert.
func (g *OpGenerator) Remember(key evslot.Key) {
	g.keys = append(g.keys, key)
}

// Keys returns every key remembered so far.
func (g *OpGenerator) Keys() []evslot.Key {
	return g.keys
}

// Next returns the next operation.
//
// Inserts are weighted highest so maps grow enough for slot reuse to happen.
func (g *OpGenerator) Next() Operation {
	switch choice := g.stream.NextIntn(100); {
	case choice < 30:
		return OpInsert{Value: g.nextValue()}
	case choice < 45:
		return OpUpdate{Key: g.nextKey(), Value: g.nextValue()}
	case choice < 65:
		return OpRemove{Key: g.nextKey()}
	case choice < 67:
		return OpClear{}
	case choice < 82:
		return OpGet{Key: g.nextKey()}
	case choice < 90:
		return OpContainsKey{Key: g.nextKey()}
	case choice < 97:
		return OpLen{}
	default:
		return OpSnapshot{}
	}
}

func (g *OpGenerator) nextValue() string {
	g.values++

	return "v" + strconv.Itoa(g.values)
}

func (g *OpGenerator) nextKey() evslot.Key {
	if len(g.keys) > 0 && g.stream.NextIntn(8) != 0 {
		return g.keys[int(g.stream.NextUint32()%uint32(len(g.keys)))]
	}

	return evslot.Key{
		Index:      uint32(g.stream.NextIntn(16)),
		Generation: uint32(g.stream.NextIntn(4)),
	}
}
