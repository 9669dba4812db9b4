package pickle

import (
	"math/big"
	"strconv"
)

// parseFloat parses a FLOAT operand: a decimal floating-point literal in
// the format Python's repr() produces for a float (e.g. "3.14", "-0.0",
// "1e100", "inf", "nan").
func parseFloat(line []byte) (float64, error) {
	return strconv.ParseFloat(string(line), 64)
}

// readDecimalIntOrBool reads a decimal-int operand (INT opcode only) and
// recognizes the two legacy boolean sentinels. Per spec.md §4.4/§9, this
// mapping applies only to the exact two-byte literals "00"/"01"; anything
// else (including a string with leading zeros like "007") parses as a
// plain integer. Returns either a bool or a *big.Int.
func readDecimalIntOrBool(r byteReader) (Value, error) {
	line, err := r.readUntil('\n')
	if err != nil {
		return nil, err
	}
	switch string(line) {
	case decimalFalse:
		return false, nil
	case decimalTrue:
		return true, nil
	}
	return parseDecimalBigInt(line)
}

// readDecimalNonnegIndex reads a decimal integer operand for GET/PUT. Unlike
// readDecimalIntOrBool it never treats "00"/"01" as booleans (spec.md §9)
// and it rejects negative values outright rather than silently wrapping.
func readDecimalNonnegIndex(r byteReader) (int, error) {
	line, err := r.readUntil('\n')
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(string(line), 10, 64)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errNegativeLength
	}
	return int(n), nil
}

// readDecimalBigInt reads a LONG operand: decimal digits with an optional
// trailing 'L', arbitrary precision.
func readDecimalBigInt(r byteReader) (*big.Int, error) {
	line, err := r.readUntil('\n')
	if err != nil {
		return nil, err
	}
	if n := len(line); n > 0 && line[n-1] == 'L' {
		line = line[:n-1]
	}
	return parseDecimalBigInt(line)
}

func parseDecimalBigInt(digits []byte) (*big.Int, error) {
	if len(digits) == 0 {
		return nil, errInvalidLongNoDigits
	}
	v := new(big.Int)
	_, ok := v.SetString(string(digits), 10)
	if !ok {
		return nil, errInvalidLongNoDigits
	}
	return v, nil
}

// readSignedLEBigInt decodes the sign-extended little-endian two's
// complement payload used by LONG1/LONG4: n bytes, unsigned little-endian
// magnitude, negated by subtracting 2^(8n) when the most significant byte
// (the last one) has its top bit set. Grounded on
// original_source/src/machine.rs's read_long.
func readSignedLEBigInt(payload []byte) (*big.Int, error) {
	if len(payload) == 0 {
		return nil, errInvalidLongZeroBytes
	}
	v := new(big.Int).SetBytes(reversed(payload))
	if payload[len(payload)-1]&0x80 != 0 {
		shift := uint(8 * len(payload))
		pow := new(big.Int).Lsh(big.NewInt(1), shift)
		v.Sub(v, pow)
	}
	return v, nil
}

// reversed returns a reversed copy of b (SetBytes wants big-endian, the
// wire format gives us little-endian).
func reversed(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return out
}
