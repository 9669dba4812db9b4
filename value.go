package pickle

import "math/big"

// None is the decoded representation of Python's None.
type None struct{}

// Bytes is an untyped byte string (the result of STRING/BINSTRING/
// SHORT_BINSTRING). It carries no encoding; Text is UTF-8 text.
type Bytes []byte

// Text is a Unicode string (the result of UNICODE/BINUNICODE). It is
// always valid UTF-8.
type Text string

// listHandle is the shared, mutable payload behind a List value.
//
// Value variants for composites hold a pointer to a handle rather than the
// payload itself, so that copying a Value (every stack push, every memo
// read) copies the handle and not the backing slice: APPEND/APPENDS seen
// through one reference must be visible through every other reference to
// the same List, which is what PUT-then-GET-then-mutate relies on.
type listHandle struct {
	items []Value
}

// List is a shared, mutable ordered sequence of Value, built by EMPTY_LIST/
// APPEND/APPENDS/LIST.
type List struct {
	h *listHandle
}

// NewList returns a new empty List.
func NewList() List {
	return List{h: &listHandle{}}
}

// Len returns the number of elements in the list.
func (l List) Len() int {
	if l.h == nil {
		return 0
	}
	return len(l.h.items)
}

// At returns the element at index i.
func (l List) At(i int) Value {
	return l.h.items[i]
}

// Items returns the list's elements. The returned slice aliases the list's
// backing storage and must not be mutated by the caller.
func (l List) Items() []Value {
	if l.h == nil {
		return nil
	}
	return l.h.items
}

// Append appends v to the list in place; the mutation is visible through
// every other List value sharing the same handle.
func (l List) Append(v Value) {
	l.h.items = append(l.h.items, v)
}

// AppendAll appends every element of vs to the list in place.
func (l List) AppendAll(vs []Value) {
	l.h.items = append(l.h.items, vs...)
}

// tupleHandle is the shared, mutable payload behind a Tuple value.
//
// Python tuples are immutable, but pickle streams build them incrementally
// on the decode stack (MARK ... TUPLE) the same way lists are built, and a
// memoized, not-yet-fully-built tuple can in principle be referenced before
// later opcodes finish filling it in; sharing semantics mirror List for that
// reason even though ordinary application code never mutates a Tuple.
type tupleHandle struct {
	items []Value
}

// Tuple is a shared ordered sequence of Value, built by EMPTY_TUPLE/TUPLE/
// TUPLE1/TUPLE2/TUPLE3.
type Tuple struct {
	h *tupleHandle
}

// NewTuple returns a new Tuple containing items. The slice is taken over by
// the Tuple and must not be mutated by the caller afterward.
func NewTuple(items []Value) Tuple {
	return Tuple{h: &tupleHandle{items: items}}
}

// Len returns the number of elements in the tuple.
func (t Tuple) Len() int {
	if t.h == nil {
		return 0
	}
	return len(t.h.items)
}

// At returns the element at index i.
func (t Tuple) At(i int) Value {
	return t.h.items[i]
}

// Items returns the tuple's elements. The returned slice aliases the
// tuple's backing storage and must not be mutated by the caller.
func (t Tuple) Items() []Value {
	if t.h == nil {
		return nil
	}
	return t.h.items
}

// entry is one key/value pair retained by a Dict in insertion order.
type entry struct {
	key, value Value
}

// dictHandle is the shared, mutable payload behind a Dict value.
type dictHandle struct {
	entries []entry
}

// Dict is a shared, mutable, insertion-ordered sequence of (key, value)
// pairs, built by EMPTY_DICT/DICT/SETITEM/SETITEMS.
//
// Unlike a Go map or Python's actual dict, Dict does not deduplicate keys:
// the wire format never requires it of a decoder, and a decoder that
// silently drops a duplicate key corrupts data a faithful re-encoding would
// have preserved. Entries are visited in the order SETITEM/SETITEMS/DICT
// appended them.
type Dict struct {
	h *dictHandle
}

// NewDict returns a new empty Dict.
func NewDict() Dict {
	return Dict{h: &dictHandle{}}
}

// Len returns the number of entries in the dict, counting duplicate keys
// separately.
func (d Dict) Len() int {
	if d.h == nil {
		return 0
	}
	return len(d.h.entries)
}

// Set appends a (key, value) pair in place. It does not remove or update
// any existing entry with an equal key: see the Dict doc comment.
func (d Dict) Set(key, value Value) {
	d.h.entries = append(d.h.entries, entry{key, value})
}

// SetAll appends every (key, value) pair in kvs in place, in order. len(kvs)
// must be even.
func (d Dict) SetAll(kvs []Value) {
	for i := 0; i+1 < len(kvs); i += 2 {
		d.Set(kvs[i], kvs[i+1])
	}
}

// Each calls fn for every (key, value) pair, in insertion order. It stops
// early if fn returns false.
func (d Dict) Each(fn func(key, value Value) bool) {
	if d.h == nil {
		return
	}
	for _, e := range d.h.entries {
		if !fn(e.key, e.value) {
			return
		}
	}
}

// Get returns the value of the first entry whose key is == to key (using Go
// equality, not Python equality; see Pythonic for cross-type lookup), and
// whether such an entry was found.
func (d Dict) Get(key Value) (Value, bool) {
	if d.h == nil {
		return nil, false
	}
	for _, e := range d.h.entries {
		if valueEqual(e.key, key) {
			return e.value, true
		}
	}
	return nil, false
}

// valueEqual compares two decoded values for Go-level equality. Bytes is a
// []byte and not comparable with ==, so it gets its own case; every other
// variant in the closed Value sum (None, bool, Int, Long, float64, Text,
// List, Tuple, Dict) is comparable.
func valueEqual(a, b Value) bool {
	ab, aIsBytes := a.(Bytes)
	bb, bIsBytes := b.(Bytes)
	if aIsBytes || bIsBytes {
		if !aIsBytes || !bIsBytes {
			return false
		}
		return string(ab) == string(bb)
	}
	return a == b
}

// Value is the decoded representation of one object on the pickle stack.
//
// It is a closed sum over: None, bool, Int (int32), Long (*big.Int),
// float64, Bytes, Text, List, Tuple, Dict. Scalars are plain Go value types
// and are copied by ordinary assignment; List/Tuple/Dict are handle types
// and are shared by ordinary assignment (see their doc comments).
type Value = any

// Int is a signed machine integer, used for the binary small-integer
// opcodes (BININT/BININT1/BININT2). Decimal/long-encoded integers (INT,
// LONG, LONG1, LONG4) decode to Long instead, since their wire width is not
// bounded to 32 bits.
type Int int32

// Long is an arbitrary-precision signed integer.
type Long = *big.Int
