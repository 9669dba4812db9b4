package pickle

import (
	"encoding/binary"
	"fmt"
	"hash/maphash"
	"math"
	"math/big"

	"github.com/aristanetworks/gomap"
)

// PyDict is a Dict view with Python equality semantics: int(1), float64(1.0)
// and Long(1) all hash and compare equal as keys, the way they would as
// Python dict keys, and Tuple is usable as a key by structural equality.
// Go's own map type cannot do this (it compares interface values with ==,
// which treats 1 and 1.0 as distinct, compares Tuple keys by handle rather
// than by contents, and panics on an unhashable key such as Bytes), so
// PyDict is its own type layered on top of
// Dict rather than a method the builtin map could already provide.
//
// A PyDict is built from a Dict's entries; it does not observe later
// mutation of the Dict's handle, and unlike Dict it deduplicates by
// Python-equal keys, last write wins, matching what the wire format's
// producer actually intended by emitting SETITEM/SETITEMS against a real
// Python dict in the first place.
type PyDict struct {
	m *gomap.Map[Value, Value]
}

// NewPyDict builds a PyDict from a Dict's entries, applied in order so a
// later duplicate key overwrites an earlier one.
func NewPyDict(d Dict) PyDict {
	pd := PyDict{m: gomap.NewHint[Value, Value](d.Len(), pyEqual, pyHash)}
	d.Each(func(k, v Value) bool {
		pd.m.Set(k, v)
		return true
	})
	return pd
}

// Pythonic returns a PyDict view of d.
func (d Dict) Pythonic() PyDict {
	return NewPyDict(d)
}

// Get returns the value associated with a Python-equal key, and whether one
// was found.
func (pd PyDict) Get(key Value) (Value, bool) {
	return pd.m.Get(key)
}

// Len returns the number of distinct Python-equal keys.
func (pd PyDict) Len() int {
	return pd.m.Len()
}

// Each calls fn for every (key, value) pair, in arbitrary order. It stops
// early if fn returns false.
func (pd PyDict) Each(fn func(key, value Value) bool) {
	it := pd.m.Iter()
	for it.Next() {
		if !fn(it.Key(), it.Elem()) {
			return
		}
	}
}

// pyEqual implements the subset of Python's == this decoder's Value model
// needs to support as Dict keys: numeric cross-type equality (bool, Int,
// Long, float64 all compare against each other the way Python compares
// True, 1, and 1.0), exact equality for Text and Bytes against their own
// kind only (Python 3 never equates str and bytes), and structural
// equality for Tuple/List so they can nest as keys or values. Grounded on
// the teacher's equal() in dict.go, trimmed to this package's closed Value
// sum (no ByteString, no complex, no arbitrary struct/map types).
func pyEqual(xa, xb Value) bool {
	switch a := xa.(type) {
	case Text:
		b, ok := xb.(Text)
		return ok && a == b
	case Bytes:
		b, ok := xb.(Bytes)
		return ok && string(a) == string(b)
	case None:
		_, ok := xb.(None)
		return ok
	}

	an, aok := asNumber(xa)
	bn, bok := asNumber(xb)
	if aok && bok {
		return an.Cmp(bn) == 0
	}
	if aok != bok {
		return false
	}

	switch a := xa.(type) {
	case Tuple:
		b, ok := xb.(Tuple)
		return ok && pyEqualSeq(a.Items(), b.Items())
	case List:
		b, ok := xb.(List)
		return ok && pyEqualSeq(a.Items(), b.Items())
	case Dict:
		b, ok := xb.(Dict)
		return ok && pyEqualDict(a, b)
	}

	return xa == xb
}

func pyEqualSeq(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !pyEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func pyEqualDict(a, b Dict) bool {
	if a.Len() != b.Len() {
		return false
	}
	pa, pb := NewPyDict(a), NewPyDict(b)
	eq := true
	pa.Each(func(k, va Value) bool {
		vb, ok := pb.Get(k)
		if !ok || !pyEqual(va, vb) {
			eq = false
			return false
		}
		return true
	})
	return eq
}

// asNumber returns x as a *big.Rat-free rational via big.Float for the
// purposes of cross-type numeric comparison, covering bool, Int and
// float64 in addition to Long itself. ok is false for anything else.
//
// A big.Float is used instead of big.Int so that e.g. Long(1) still
// compares equal to float64(1.0) without losing precision on the integer
// side; Python's own int/float comparison is exact in the same way.
func asNumber(x Value) (*big.Float, bool) {
	switch v := x.(type) {
	case bool:
		if v {
			return big.NewFloat(1), true
		}
		return big.NewFloat(0), true
	case Int:
		return new(big.Float).SetInt64(int64(v)), true
	case *big.Int:
		return new(big.Float).SetInt(v), true
	case float64:
		return big.NewFloat(v), true
	}
	return nil, false
}

// pyHash is pyEqual's matching hash function: equal(a,b) implies
// hash(a) == hash(b). Tuple/List hash their elements recursively; Dict is
// unhashable, matching Python, where using a dict as a dict key is a
// TypeError.
func pyHash(seed maphash.Seed, x Value) uint64 {
	switch v := x.(type) {
	case Text:
		return maphash.String(seed, string(v))
	case Bytes:
		return maphash.Bytes(seed, v)
	}

	var h maphash.Hash
	h.SetSeed(seed)

	writeUint := func(u uint64) {
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], u)
		h.Write(b[:])
	}
	writeFloat := func(f float64) {
		if i := int64(f); float64(i) == f {
			writeUint(uint64(i))
			return
		}
		writeUint(math.Float64bits(f))
	}

	if n, ok := asNumber(x); ok {
		f, _ := n.Float64()
		writeFloat(f)
		return h.Sum64()
	}

	switch v := x.(type) {
	case None:
		h.WriteString("none")
		return h.Sum64()
	case Tuple:
		h.WriteString("tuple")
		for _, item := range v.Items() {
			writeUint(pyHash(seed, item))
		}
		return h.Sum64()
	case List:
		panic("unhashable type: List")
	case Dict:
		panic("unhashable type: Dict")
	}

	panic(fmt.Sprintf("unhashable type: %T", x))
}
