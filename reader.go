package pickle

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
)

// byteReader is the abstract byte source the decoder consumes. It is the
// "external collaborator" spec.md §1/§6 leaves out of scope beyond this
// interface: callers never implement it themselves in this package, but the
// contract is kept explicit so the decoder's dependency on it is visible
// and swappable (tests build one directly over a string).
type byteReader interface {
	ReadByte() (byte, error)
	readU16LE() (uint16, error)
	readI32LE() (int32, error)
	readF64BE() (float64, error)
	// readUntil reads up to and including delim, returning the bytes
	// without the delimiter. EOF before delim is an error.
	readUntil(delim byte) ([]byte, error)
	// readExact reads exactly len(buf) bytes into buf, retrying on short
	// reads the way io.ReadFull does.
	readExact(buf []byte) error
}

// bufioReader adapts a bufio.Reader to byteReader, following the teacher's
// choice (NewDecoder wraps its io.Reader in bufio.NewReader) to buffer the
// small, frequent reads an opcode-at-a-time decoder performs.
type bufioReader struct {
	r *bufio.Reader
}

func newBufioReader(r io.Reader) *bufioReader {
	if br, ok := r.(*bufio.Reader); ok {
		return &bufioReader{r: br}
	}
	return &bufioReader{r: bufio.NewReader(r)}
}

func (b *bufioReader) ReadByte() (byte, error) {
	return b.r.ReadByte()
}

func (b *bufioReader) readU16LE() (uint16, error) {
	var buf [2]byte
	if err := b.readExact(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

func (b *bufioReader) readI32LE() (int32, error) {
	var buf [4]byte
	if err := b.readExact(buf[:]); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(buf[:])), nil
}

func (b *bufioReader) readF64BE() (float64, error) {
	var buf [8]byte
	if err := b.readExact(buf[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(buf[:])), nil
}

func (b *bufioReader) readUntil(delim byte) ([]byte, error) {
	line, err := b.r.ReadBytes(delim)
	if err != nil {
		return nil, err
	}
	return line[:len(line)-1], nil
}

func (b *bufioReader) readExact(buf []byte) error {
	_, err := io.ReadFull(b.r, buf)
	return err
}
