// Package pickle decodes Python's pickle wire format into plain Go values.
//
// Use Decoder to decode a single object from an input stream:
//
//	d := pickle.NewDecoder(r)
//	obj, err := d.Decode() // obj is pickle.Value representing the decoded object
//
// The following table summarizes the mapping from Python types to Go types:
//
//	Python	   Go
//	------	   --
//
//	None	↔  pickle.None
//	bool	↔  bool
//	int	↔  pickle.Int (machine-width) or pickle.Long (*big.Int), depending on encoding
//	long	↔  pickle.Long (*big.Int)
//	float	↔  float64
//	list	↔  pickle.List
//	tuple	↔  pickle.Tuple
//	dict	↔  pickle.Dict
//
//	str        ↔  pickle.Text
//	bytes      ↔  pickle.Bytes
//
// There is no Python-class/instance support: GLOBAL, REDUCE, BUILD, INST,
// OBJ, NEWOBJ, PERSID, BINPERSID and EXT1/2/4 all fail decoding with a
// NotImplemented error rather than silently producing a placeholder or, as
// in a real Python unpickler, executing arbitrary code. Decoding an
// untrusted pickle with this package can therefore not be used to run code,
// only (in the worst case) to exhaust memory or fail with an error.
//
// # Pickle protocol versions
//
// Over time the pickle stream format evolved. The original protocol
// version 0 is human-readable; versions 1 and 2 extend it backward-
// compatibly with binary encodings for efficiency; protocol 3 added a way
// to represent Python 3 bytes objects; protocol 4 further extends 3 and
// adds framing. See
// https://docs.python.org/3/library/pickle.html#data-stream-format for
// details.
//
// Decode auto-detects which opcodes are in play; a PROTO opcode naming a
// version below 2 is rejected (this package does not support the fully
// human-readable protocol 0/1 text grammar quirks some very old producers
// relied on beyond what §4 of the format actually requires).
//
// # Shared object identity
//
// A pickle stream can memoize an object with PUT and later retrieve the
// same object with GET; mutations to a List/Dict retrieved this way are
// visible through every other reference to it, mirroring Python's own
// object-identity semantics for mutable containers. See the List, Tuple
// and Dict doc comments for the mechanism.
//
// # Python-equality dict view
//
// Dict preserves the wire format's actual entries, including any
// duplicate keys a producer happened to write (it does not perform Python
// dict semantics on access). Call Dict.Pythonic to get a PyDict view with
// Python's own cross-type key equality (e.g. int(1), float64(1.0) and a
// big int 1 all address the same entry), deduplicated last-write-wins the
// way an actual Python dict would have been before it was pickled.
package pickle
