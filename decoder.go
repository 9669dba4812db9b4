package pickle

import (
	"io"
	"unicode/utf8"
)

// DecoderConfig tunes a Decoder. The zero value is the default
// configuration.
type DecoderConfig struct {
	// MaxProto, if nonzero, rejects a PROTO opcode naming a version above
	// this value. The decoder otherwise accepts any PROTO version >= 2
	// (spec.md §4.1/§7) and does not itself require a PROTO opcode to be
	// present at all.
	MaxProto int

	// MemoDenseLimit, if nonzero, overrides the memo's dense-array/
	// sparse-map crossover (see memo.go); most callers never need this.
	MemoDenseLimit int
}

// Decoder decodes a single pickle-format object from a byte stream.
//
// A Decoder is single-use and not safe for concurrent use: construct a new
// one per stream. Composite values (List, Tuple, Dict) returned by Decode
// share backing storage by design (see their doc comments in value.go) and
// are likewise not safe to mutate concurrently from multiple goroutines
// without external synchronization.
type Decoder struct {
	r      byteReader
	config DecoderConfig

	stack []Value
	memo  *memo

	markerSet bool
	markerPos int

	// memoCount is the next implicit index MEMOIZE (protocol 4) assigns.
	// It is independent of whatever index an explicit PUT/BINPUT/LONG_BINPUT
	// might also be using in the same stream, mirroring CPython's
	// memoize_stack which is just "append, len(memo) before the append".
	memoCount int
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return NewDecoderWithConfig(r, DecoderConfig{})
}

// NewDecoderWithConfig is like NewDecoder but allows tuning the decoder.
func NewDecoderWithConfig(r io.Reader, config DecoderConfig) *Decoder {
	return &Decoder{
		r:      newBufioReader(r),
		config: config,
		memo:   newMemoWithDenseLimit(config.MemoDenseLimit),
	}
}

// Decode drives the machine to completion and returns the single decoded
// value, or the first error encountered. A Decoder must not be reused after
// an error: its internal state is left as-is, mid-decode.
func (d *Decoder) Decode() (Value, error) {
	insn := 0
	for {
		halt, err := d.step(insn)
		if err != nil {
			return nil, err
		}
		if halt {
			break
		}
		insn++
	}

	if len(d.stack) != 1 {
		return nil, wrap(KindInvalidValueOnStack, 0, insn, nil)
	}
	return d.stack[0], nil
}

// step executes exactly one opcode. It returns true when STOP was seen.
func (d *Decoder) step(insn int) (bool, error) {
	key, err := d.r.ReadByte()
	if err != nil {
		if err == io.EOF && insn != 0 {
			err = io.ErrUnexpectedEOF
		}
		return false, classifyTopLevel(err, insn)
	}

	switch key {
	case opProto:
		err = d.doProto()
	case opStop:
		return true, nil

	case opMark:
		d.pushMark()
	case opPop:
		_, err = d.pop()
	case opPopMark:
		err = d.doPopMark()
	case opDup:
		err = d.doDup()

	case opInt:
		err = d.doInt()
	case opBinint:
		err = d.doBinint()
	case opBinint1:
		err = d.doBinint1()
	case opBinint2:
		err = d.doBinint2()
	case opLong:
		err = d.doLong()
	case opLong1:
		err = d.doLong1()
	case opLong4:
		err = d.doLong4()

	case opString:
		err = d.doString()
	case opBinstring:
		err = d.doBinstring()
	case opShortBinstring:
		err = d.doShortBinstring()
	case opUnicode:
		err = d.doUnicode()
	case opBinunicode:
		err = d.doBinunicode()

	case opFloat:
		err = d.doFloat()
	case opBinfloat:
		err = d.doBinfloat()

	case opNone:
		d.push(None{})
	case opNewtrue:
		d.push(true)
	case opNewfalse:
		d.push(false)

	case opEmptyList:
		d.push(NewList())
	case opAppend:
		err = d.doAppend()
	case opAppends:
		err = d.doAppends()
	case opList:
		err = d.doList()

	case opEmptyTuple:
		d.push(NewTuple(nil))
	case opTuple:
		err = d.doTuple()
	case opTuple1:
		err = d.doTupleN(1)
	case opTuple2:
		err = d.doTupleN(2)
	case opTuple3:
		err = d.doTupleN(3)

	case opEmptyDict:
		d.push(NewDict())
	case opDict:
		err = d.doDict()
	case opSetitem:
		err = d.doSetitem()
	case opSetitems:
		err = d.doSetitems()

	case opGet:
		err = d.doGet()
	case opBinget:
		err = d.doBinget()
	case opLongBinget:
		err = d.doLongBinget()
	case opPut:
		err = d.doPut()
	case opBinput:
		err = d.doBinput()
	case opLongBinput:
		err = d.doLongBinput()

	case opMemoize:
		err = d.doMemoize()
	case opFrame:
		err = d.doFrame()

	case opGlobal, opReduce, opBuild, opInst, opObj, opNewobj,
		opPersid, opBinpersid, opExt1, opExt2, opExt4:
		err = wrap(KindNotImplemented, key, insn, errNotImplemented)

	default:
		return false, wrap(KindUnknownOpcode, key, insn, nil)
	}

	if err != nil {
		return false, annotate(err, key, insn)
	}
	return false, nil
}

// annotate stamps the current instruction position and opcode onto err,
// classifying it into a Kind first if it is one of the package's bare
// sentinel errors rather than an already-classified *Error.
func annotate(err error, op byte, pos int) error {
	if de, ok := err.(*Error); ok {
		de.Pos = pos
		if de.Op == 0 {
			de.Op = op
		}
		return de
	}
	return wrap(classifySentinel(err), op, pos, err)
}

// classifySentinel maps the package's bare sentinel errors (returned by
// pop/top/splitAtMarker and a handful of opcode handlers) to the Kind
// annotate should tag them with. Anything not recognized, including a
// foreign error from the byteReader, is reported as KindIO unless it looks
// like a short read, which surfaces as KindInvalidString.
func classifySentinel(err error) Kind {
	switch err {
	case errEmptyStack:
		return KindEmptyStack
	case errEmptyMarker:
		return KindEmptyMarker
	case errStackTooSmall:
		return KindStackTooSmall
	case errNegativeLength:
		return KindNegativeLength
	case errInvalidValueOnStack, errOddDictItems:
		return KindInvalidValueOnStack
	case errInvalidGetValue:
		return KindInvalidGetValue
	case errNotImplemented:
		return KindNotImplemented
	case errInvalidUTF8:
		return KindInvalidString
	}
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return KindInvalidString
	}
	return KindIO
}

func classifyTopLevel(err error, pos int) error {
	return wrap(KindIO, 0, pos, err)
}

// ---- stack primitives ----

func (d *Decoder) push(v Value) {
	d.stack = append(d.stack, v)
}

func (d *Decoder) pop() (Value, error) {
	n := len(d.stack) - 1
	if n < 0 {
		return nil, errEmptyStack
	}
	v := d.stack[n]
	d.stack = d.stack[:n]
	return v, nil
}

func (d *Decoder) top() (Value, error) {
	if len(d.stack) == 0 {
		return nil, errEmptyStack
	}
	return d.stack[len(d.stack)-1], nil
}

func (d *Decoder) pushMark() {
	d.markerSet = true
	d.markerPos = len(d.stack)
}

// splitAtMarker returns the suffix of the stack from the most recent MARK
// onward, and truncates the stack to the prefix before it. marker is left
// at its old value afterward (spec.md §4.2): re-using a stale marker
// without an intervening MARK is on the encoder, not this decoder, to avoid.
func (d *Decoder) splitAtMarker() ([]Value, error) {
	if !d.markerSet {
		return nil, errEmptyMarker
	}
	if d.markerPos > len(d.stack) {
		return nil, errStackTooSmall
	}
	items := d.stack[d.markerPos:]
	d.stack = d.stack[:d.markerPos]
	return items, nil
}

// ---- opcode implementations ----

func (d *Decoder) doProto() error {
	v, err := d.r.ReadByte()
	if err != nil {
		return classifyReadErr(err, KindRead)
	}
	if v < 2 {
		return wrap(KindInvalidProto, opProto, 0, nil)
	}
	if d.config.MaxProto != 0 && int(v) > d.config.MaxProto {
		return wrap(KindInvalidProto, opProto, 0, nil)
	}
	return nil
}

func (d *Decoder) doPopMark() error {
	_, err := d.splitAtMarker()
	return err
}

func (d *Decoder) doDup() error {
	v, err := d.top()
	if err != nil {
		return err
	}
	d.push(v)
	return nil
}

func (d *Decoder) doInt() error {
	v, err := readDecimalIntOrBool(d.r)
	if err != nil {
		return classifyDecimal(err, KindInvalidInt)
	}
	d.push(v)
	return nil
}

func (d *Decoder) doBinint() error {
	v, err := d.r.readI32LE()
	if err != nil {
		return classifyReadErr(err, KindRead)
	}
	d.push(Int(v))
	return nil
}

func (d *Decoder) doBinint1() error {
	b, err := d.r.ReadByte()
	if err != nil {
		return classifyReadErr(err, KindRead)
	}
	d.push(Int(b))
	return nil
}

func (d *Decoder) doBinint2() error {
	v, err := d.r.readU16LE()
	if err != nil {
		return classifyReadErr(err, KindRead)
	}
	d.push(Int(v))
	return nil
}

func (d *Decoder) doLong() error {
	v, err := readDecimalBigInt(d.r)
	if err != nil {
		return classifyDecimal(err, KindInvalidLong)
	}
	d.push(v)
	return nil
}

func (d *Decoder) doLong1() error {
	n, err := d.r.ReadByte()
	if err != nil {
		return classifyReadErr(err, KindRead)
	}
	return d.readLongPayload(int(n))
}

func (d *Decoder) doLong4() error {
	n, err := d.r.readI32LE()
	if err != nil {
		return classifyReadErr(err, KindRead)
	}
	if n < 0 {
		return errNegativeLength
	}
	return d.readLongPayload(int(n))
}

func (d *Decoder) readLongPayload(n int) error {
	buf := make([]byte, n)
	if n > 0 {
		if err := d.r.readExact(buf); err != nil {
			return classifyReadErr(err, KindInvalidString)
		}
	}
	v, err := readSignedLEBigInt(buf)
	if err != nil {
		return wrap(KindInvalidLong, 0, 0, err)
	}
	d.push(v)
	return nil
}

func (d *Decoder) doString() error {
	line, err := d.r.readUntil('\n')
	if err != nil {
		return classifyReadErr(err, KindInvalidString)
	}
	quoted, err := unquoteDelimited(line)
	if err != nil {
		return wrap(KindInvalidString, 0, 0, err)
	}
	decoded, err := unescape(quoted, false)
	if err != nil {
		return wrap(KindUnescape, 0, 0, err)
	}
	d.push(Bytes(decoded))
	return nil
}

// unquoteDelimited strips the ' or " quoting STRING's legacy repr() syntax
// uses, mirroring the teacher's loadString.
func unquoteDelimited(line []byte) ([]byte, error) {
	if len(line) < 2 {
		return nil, errInvalidStringQuoting
	}
	delim := line[0]
	if delim != '\'' && delim != '"' {
		return nil, errInvalidStringQuoting
	}
	if line[len(line)-1] != delim {
		return nil, errInvalidStringQuoting
	}
	return line[1 : len(line)-1], nil
}

func (d *Decoder) doBinstring() error {
	n, err := d.r.readI32LE()
	if err != nil {
		return classifyReadErr(err, KindRead)
	}
	if n < 0 {
		return errNegativeLength
	}
	buf := make([]byte, n)
	if err := d.r.readExact(buf); err != nil {
		return classifyReadErr(err, KindInvalidString)
	}
	d.push(Bytes(buf))
	return nil
}

func (d *Decoder) doShortBinstring() error {
	n, err := d.r.ReadByte()
	if err != nil {
		return classifyReadErr(err, KindRead)
	}
	buf := make([]byte, n)
	if err := d.r.readExact(buf); err != nil {
		return classifyReadErr(err, KindInvalidString)
	}
	d.push(Bytes(buf))
	return nil
}

func (d *Decoder) doUnicode() error {
	line, err := d.r.readUntil('\n')
	if err != nil {
		return classifyReadErr(err, KindInvalidString)
	}
	decoded, err := unescape(line, true)
	if err != nil {
		return wrap(KindUnescape, 0, 0, err)
	}
	if !utf8.Valid(decoded) {
		return errInvalidUTF8
	}
	d.push(Text(decoded))
	return nil
}

func (d *Decoder) doBinunicode() error {
	n, err := d.r.readI32LE()
	if err != nil {
		return classifyReadErr(err, KindRead)
	}
	if n < 0 {
		return errNegativeLength
	}
	buf := make([]byte, n)
	if err := d.r.readExact(buf); err != nil {
		return classifyReadErr(err, KindInvalidString)
	}
	if !utf8.Valid(buf) {
		return errInvalidUTF8
	}
	d.push(Text(buf))
	return nil
}

func (d *Decoder) doFloat() error {
	line, err := d.r.readUntil('\n')
	if err != nil {
		return classifyReadErr(err, KindInvalidString)
	}
	f, err := parseFloat(line)
	if err != nil {
		return wrap(KindInvalidFloat, 0, 0, err)
	}
	d.push(f)
	return nil
}

func (d *Decoder) doBinfloat() error {
	f, err := d.r.readF64BE()
	if err != nil {
		return classifyReadErr(err, KindRead)
	}
	d.push(f)
	return nil
}

func (d *Decoder) doAppend() error {
	v, err := d.pop()
	if err != nil {
		return err
	}
	t, err := d.top()
	if err != nil {
		return err
	}
	l, ok := t.(List)
	if !ok {
		return errInvalidValueOnStack
	}
	l.Append(v)
	return nil
}

func (d *Decoder) doAppends() error {
	items, err := d.splitAtMarker()
	if err != nil {
		return err
	}
	t, err := d.top()
	if err != nil {
		return err
	}
	l, ok := t.(List)
	if !ok {
		return errInvalidValueOnStack
	}
	l.AppendAll(items)
	return nil
}

func (d *Decoder) doList() error {
	items, err := d.splitAtMarker()
	if err != nil {
		return err
	}
	l := NewList()
	l.AppendAll(items)
	d.push(l)
	return nil
}

func (d *Decoder) doTuple() error {
	items, err := d.splitAtMarker()
	if err != nil {
		return err
	}
	cp := make([]Value, len(items))
	copy(cp, items)
	d.push(NewTuple(cp))
	return nil
}

func (d *Decoder) doTupleN(n int) error {
	if len(d.stack) < n {
		return errEmptyStack
	}
	at := len(d.stack) - n
	items := make([]Value, n)
	copy(items, d.stack[at:])
	d.stack = d.stack[:at]
	d.push(NewTuple(items))
	return nil
}

func (d *Decoder) doDict() error {
	items, err := d.splitAtMarker()
	if err != nil {
		return err
	}
	if len(items)%2 != 0 {
		return errOddDictItems
	}
	dd := NewDict()
	dd.SetAll(items)
	d.push(dd)
	return nil
}

func (d *Decoder) doSetitem() error {
	v, err := d.pop()
	if err != nil {
		return err
	}
	k, err := d.pop()
	if err != nil {
		return err
	}
	t, err := d.top()
	if err != nil {
		return err
	}
	dd, ok := t.(Dict)
	if !ok {
		return errInvalidValueOnStack
	}
	dd.Set(k, v)
	return nil
}

func (d *Decoder) doSetitems() error {
	items, err := d.splitAtMarker()
	if err != nil {
		return err
	}
	if len(items)%2 != 0 {
		return errOddDictItems
	}
	t, err := d.top()
	if err != nil {
		return err
	}
	dd, ok := t.(Dict)
	if !ok {
		return errInvalidValueOnStack
	}
	dd.SetAll(items)
	return nil
}

func (d *Decoder) doGet() error {
	n, err := readDecimalNonnegIndex(d.r)
	if err != nil {
		return classifyDecimal(err, KindInvalidInt)
	}
	return d.handleGet(n)
}

func (d *Decoder) doBinget() error {
	b, err := d.r.ReadByte()
	if err != nil {
		return classifyReadErr(err, KindRead)
	}
	return d.handleGet(int(b))
}

func (d *Decoder) doLongBinget() error {
	n, err := d.r.readI32LE()
	if err != nil {
		return classifyReadErr(err, KindRead)
	}
	if n < 0 {
		return errNegativeLength
	}
	return d.handleGet(int(n))
}

func (d *Decoder) handleGet(n int) error {
	v, ok := d.memo.get(n)
	if !ok {
		return errInvalidGetValue
	}
	d.push(v)
	return nil
}

func (d *Decoder) doPut() error {
	n, err := readDecimalNonnegIndex(d.r)
	if err != nil {
		return classifyDecimal(err, KindInvalidInt)
	}
	return d.handlePut(n)
}

func (d *Decoder) doBinput() error {
	b, err := d.r.ReadByte()
	if err != nil {
		return classifyReadErr(err, KindRead)
	}
	return d.handlePut(int(b))
}

func (d *Decoder) doLongBinput() error {
	n, err := d.r.readI32LE()
	if err != nil {
		return classifyReadErr(err, KindRead)
	}
	if n < 0 {
		return errNegativeLength
	}
	return d.handlePut(int(n))
}

func (d *Decoder) doMemoize() error {
	v, err := d.top()
	if err != nil {
		return err
	}
	d.memo.set(d.memoCount, v)
	d.memoCount++
	return nil
}

func (d *Decoder) handlePut(n int) error {
	v, err := d.top()
	if err != nil {
		return err
	}
	d.memo.set(n, v)
	return nil
}

func (d *Decoder) doFrame() error {
	var buf [8]byte
	return d.r.readExact(buf[:])
}

// classifyReadErr maps an I/O failure from a fixed-width or exact-length
// read to onShort when it looks like a short read (EOF/UnexpectedEOF), and
// to a generic I/O error otherwise.
func classifyReadErr(err error, onShort Kind) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return wrap(onShort, 0, 0, err)
	}
	return wrap(KindIO, 0, 0, err)
}

// classifyDecimal maps a failure from one of the decimal operand parsers:
// an already-classified *Error passes through, a short read becomes
// InvalidString, the index parser's errNegativeLength becomes
// NegativeLength, and anything else (a strconv or big.Int parse failure)
// becomes onParseFail.
func classifyDecimal(err error, onParseFail Kind) error {
	if de, ok := err.(*Error); ok {
		return de
	}
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return wrap(KindInvalidString, 0, 0, err)
	}
	if err == errNegativeLength {
		return wrap(KindNegativeLength, 0, 0, err)
	}
	if err == errInvalidLongNoDigits {
		return wrap(onParseFail, 0, 0, err)
	}
	return wrap(onParseFail, 0, 0, err)
}
