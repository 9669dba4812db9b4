package pickle

// denseMemoLimit is the default dense/sparse crossover: memo indices below
// it are kept in the dense array, indices at or above it in the sparse map. Real pickle streams memoize in the low
// thousands at most; production streams produced by CPython rarely exceed a
// few hundred slots.
const denseMemoLimit = 4096

// memo is the per-decode table mapping memo slot -> Value.
//
// It stores small indices in a dense, growable slice (amortized O(1),
// cache-friendly for the common case of monotonically increasing PUT
// indices) and large indices in a sparse map, matching spec §4.3's
// "dense array... falling back to or supplemented by a sparse map" note.
// Semantics are last-write-wins regardless of which backing store an index
// lands in.
type memo struct {
	dense    []*Value // nil entry means unset
	sparse   map[int]Value
	denseCap int
}

func newMemo() *memo {
	return newMemoWithDenseLimit(denseMemoLimit)
}

// newMemoWithDenseLimit is like newMemo but allows the caller (via
// DecoderConfig.MemoDenseLimit) to tune the dense/sparse crossover; n <= 0
// means "use the package default".
func newMemoWithDenseLimit(n int) *memo {
	if n <= 0 {
		n = denseMemoLimit
	}
	return &memo{denseCap: n}
}

func (m *memo) set(i int, v Value) {
	if i < 0 {
		return
	}
	if i < m.denseCap {
		if i >= len(m.dense) {
			grown := make([]*Value, i+1)
			copy(grown, m.dense)
			m.dense = grown
		}
		vv := v
		m.dense[i] = &vv
		return
	}
	if m.sparse == nil {
		m.sparse = make(map[int]Value)
	}
	m.sparse[i] = v
}

func (m *memo) get(i int) (Value, bool) {
	if i < 0 {
		return nil, false
	}
	if i < len(m.dense) {
		if p := m.dense[i]; p != nil {
			return *p, true
		}
		return nil, false
	}
	if m.sparse != nil {
		v, ok := m.sparse[i]
		return v, ok
	}
	return nil, false
}
