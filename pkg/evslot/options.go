package evslot

// DefaultSpinsBeforeYield is the number of registry scans a draining writer
// performs before it starts yielding the processor between scans.
const DefaultSpinsBeforeYield = 20

// Options configure a new map.
//
// The zero value is usable: values are copied with [CopyValues] and the
// writer spins [DefaultSpinsBeforeYield] times before yielding.
type Options[V any] struct {
	// Copier duplicates and releases stored values. Nil means CopyValues.
	Copier ShallowCopier[V]

	// Capacity preallocates room for this many values in each copy.
	Capacity int

	// SpinsBeforeYield is the number of tight registry scans a write
	// performs while waiting for readers, before it yields between scans.
	// Zero means DefaultSpinsBeforeYield. Negative means yield on every
	// scan after the first.
	SpinsBeforeYield int
}

func (o Options[V]) copier() ShallowCopier[V] {
	if o.Copier == nil {
		return CopyValues[V]{}
	}

	return o.Copier
}

func (o Options[V]) spins() int {
	switch {
	case o.SpinsBeforeYield == 0:
		return DefaultSpinsBeforeYield
	case o.SpinsBeforeYield < 0:
		return 0
	default:
		return o.SpinsBeforeYield
	}
}
