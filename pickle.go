package pickle

import "io"

// Decode reads a single pickled object from r and returns its decoded
// value. It is a convenience wrapper around NewDecoder(r).Decode for
// callers who only need to decode one stream and have no need to tune
// DecoderConfig.
func Decode(r io.Reader) (Value, error) {
	return NewDecoder(r).Decode()
}
