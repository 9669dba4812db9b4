package pickle

import (
	"bytes"
	"errors"
	"math/big"
	"strings"
	"testing"
)

func decodeString(t *testing.T, s string) (Value, error) {
	t.Helper()
	return Decode(strings.NewReader(s))
}

func TestDecodeDecimalLong(t *testing.T) {
	v, err := decodeString(t, "I3\n.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := v.(*big.Int)
	if !ok || got.Cmp(big.NewInt(3)) != 0 {
		t.Fatalf("got %v, want Long(3)", v)
	}
}

func TestDecodeBinint1(t *testing.T) {
	v, err := decodeString(t, "K\x03.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != Int(3) {
		t.Fatalf("got %v, want Int(3)", v)
	}
}

func TestDecodeWithProtoHeader(t *testing.T) {
	v, err := decodeString(t, "\x80\x02K\x03.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != Int(3) {
		t.Fatalf("got %v, want Int(3)", v)
	}
}

func TestDecodeListViaMarkAppend(t *testing.T) {
	v, err := decodeString(t, "(lp0\nI1\naI2\naI3\naI4\na.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l, ok := v.(List)
	if !ok {
		t.Fatalf("got %T, want List", v)
	}
	if l.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", l.Len())
	}
	for i, want := range []int64{1, 2, 3, 4} {
		got, ok := l.At(i).(*big.Int)
		if !ok || got.Cmp(big.NewInt(want)) != 0 {
			t.Fatalf("At(%d) = %v, want Long(%d)", i, l.At(i), want)
		}
	}
}

func TestDecodeShortBinstringAndMemoize(t *testing.T) {
	v, err := decodeString(t, "U\x03foo"+"q\x01.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal([]byte(v.(Bytes)), []byte("foo")) {
		t.Fatalf("got %v, want Bytes(foo)", v)
	}
}

func TestDecodeBinunicode(t *testing.T) {
	v, err := decodeString(t, "X\x03\x00\x00\x00foo"+"q\x01.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != Text("foo") {
		t.Fatalf("got %v, want Text(foo)", v)
	}
}

func TestDecodeLong1Negative(t *testing.T) {
	v, err := decodeString(t, "\x8a\x02.\xfb.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := v.(*big.Int)
	if !ok || got.Cmp(big.NewInt(-1234)) != 0 {
		t.Fatalf("got %v, want Long(-1234)", v)
	}
}

func TestDecodeLong4NegativeLength(t *testing.T) {
	_, err := decodeString(t, "\x8b\xff\xff\xff\xff.")
	assertKind(t, err, KindNegativeLength)
}

func TestDecodeIntBooleanSentinels(t *testing.T) {
	v, err := decodeString(t, "I00\n.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != false {
		t.Fatalf("got %v, want false", v)
	}

	v, err = decodeString(t, "I01\n.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != true {
		t.Fatalf("got %v, want true", v)
	}
}

func TestDecodeUnknownOpcode(t *testing.T) {
	_, err := decodeString(t, "\xff")
	assertKind(t, err, KindUnknownOpcode)
	var de *Error
	if errors.As(err, &de) {
		if de.Op != 0xff {
			t.Fatalf("Op = %#x, want 0xff", de.Op)
		}
	} else {
		t.Fatalf("expected *Error, got %T", err)
	}
}

func TestDecodeUnicodeInvalidUTF8(t *testing.T) {
	_, err := decodeString(t, "V\xe2(\xa1\n.")
	assertKind(t, err, KindInvalidString)
}

func TestDecodeNotImplementedOpcode(t *testing.T) {
	_, err := decodeString(t, "c.")
	assertKind(t, err, KindNotImplemented)
}

func TestDecodeEmptyStream(t *testing.T) {
	_, err := decodeString(t, "")
	if err == nil {
		t.Fatal("expected an error on empty input")
	}
}

func TestDecodeStackNotSizeOneAtStop(t *testing.T) {
	// Two objects pushed, never combined: stack has size 2 at STOP.
	_, err := decodeString(t, "K\x01K\x02.")
	if err == nil {
		t.Fatal("expected an error when the stack doesn't end at size 1")
	}
}

func TestDecodeProtoBelow2IsRejected(t *testing.T) {
	_, err := decodeString(t, "\x80\x01K\x03.")
	assertKind(t, err, KindInvalidProto)
}

func TestDecoderMemoSharesCompositeIdentity(t *testing.T) {
	d := NewDecoder(strings.NewReader(""))
	l := NewList()
	d.memo.set(0, l)
	got, ok := d.memo.get(0)
	if !ok {
		t.Fatal("expected memo entry")
	}
	gotList := got.(List)
	gotList.Append(Int(1))
	if l.Len() != 1 {
		t.Fatalf("mutating the GET'd list should be visible through the original handle; l.Len() = %d", l.Len())
	}
}

func TestDecodeDict(t *testing.T) {
	v, err := decodeString(t, "(dp0\nS'a'\np1\nI1\nsS'b'\np2\nI2\ns.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d, ok := v.(Dict)
	if !ok {
		t.Fatalf("got %T, want Dict", v)
	}
	if d.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", d.Len())
	}
}

func TestDecodeEmptyTupleAndTuple1(t *testing.T) {
	v, err := decodeString(t, ").")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tup, ok := v.(Tuple)
	if !ok || tup.Len() != 0 {
		t.Fatalf("got %v, want empty Tuple", v)
	}

	v, err = decodeString(t, "K\x01\x85.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tup, ok = v.(Tuple)
	if !ok || tup.Len() != 1 || tup.At(0) != Int(1) {
		t.Fatalf("got %v, want Tuple(Int(1))", v)
	}
}

func TestDecodeTuple2OrderPreserved(t *testing.T) {
	v, err := decodeString(t, "K\x01K\x02\x86.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tup := v.(Tuple)
	if tup.At(0) != Int(1) || tup.At(1) != Int(2) {
		t.Fatalf("got (%v, %v), want (Int(1), Int(2)) in push order", tup.At(0), tup.At(1))
	}
}

func TestDecodeNoneAndBools(t *testing.T) {
	v, err := decodeString(t, "N.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := v.(None); !ok {
		t.Fatalf("got %T, want None", v)
	}

	v, err = decodeString(t, "\x88.")
	if err != nil || v != true {
		t.Fatalf("got (%v, %v), want (true, nil)", v, err)
	}

	v, err = decodeString(t, "\x89.")
	if err != nil || v != false {
		t.Fatalf("got (%v, %v), want (false, nil)", v, err)
	}
}

func TestDecodeBinfloat(t *testing.T) {
	// 3.5 as big-endian IEEE-754 double.
	buf := []byte{'G', 0x40, 0x0c, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, '.'}
	v, err := decodeString(t, string(buf))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 3.5 {
		t.Fatalf("got %v, want 3.5", v)
	}
}

func TestDecodeEmptyMarkerError(t *testing.T) {
	_, err := decodeString(t, "l.")
	assertKind(t, err, KindEmptyMarker)
}

func TestDecodePopMark(t *testing.T) {
	v, err := decodeString(t, "(K\x01K\x021K\x03.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != Int(3) {
		t.Fatalf("got %v, want Int(3) (POP_MARK should discard everything above the mark)", v)
	}
}

func assertKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected an error of kind %s, got nil", kind)
	}
	var de *Error
	if !errors.As(err, &de) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if de.Kind != kind {
		t.Fatalf("Kind = %s, want %s", de.Kind, kind)
	}
}
