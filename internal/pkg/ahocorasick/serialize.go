package ahocorasick

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"reflect"
	"time"
)

// Wire layout, little-endian throughout. Lengths and array elements use the
// 7-bit continuation varint (MSB = more, 7 payload bits per byte); signed
// values encode their two's-complement bits, so -1 is a valid array-length
// sentinel meaning "absent".
//
//	u8 propCount
//	propCount x (varint-length UTF-8 name, typed value)
//	intArray l, base, check, fail
//	varint outerLen, outerLen x intArray   (output table)
//	if saveValues: varint count, count x (type code byte, payload)

// Value type codes, matching the CLR TypeCode numbering so streams
// interoperate with foreign writers.
const (
	typeBool    byte = 3
	typeChar    byte = 4
	typeInt8    byte = 5
	typeUint8   byte = 6
	typeInt16   byte = 7
	typeUint16  byte = 8
	typeInt32   byte = 9
	typeUint32  byte = 10
	typeInt64   byte = 11
	typeUint64  byte = 12
	typeFloat32 byte = 13
	typeFloat64 byte = 14
	typeDecimal byte = 15
	typeTime    byte = 16
	typeString  byte = 18
)

const (
	propSaveValues = "saveValues"
	propSize       = "size"
	propIgnoreCase = "ignoreCase"
)

// maxStringLen bounds length prefixes read from a stream before any
// allocation happens, so a flipped bit cannot ask for gigabytes.
const maxStringLen = 1 << 20

// Save writes the packed automaton to w. With saveValues, dictionary values
// are written too; values outside the primitive type table fail with
// ErrUnsupportedValueType. Saving an automaton that was never built or
// loaded fails with ErrNotBuilt.
func (t *Trie[V]) Save(w io.Writer, saveValues bool) error {
	if !t.built {
		return ErrNotBuilt
	}
	saveValues = saveValues && t.hasValues

	bw := bufio.NewWriter(w)
	if err := bw.WriteByte(3); err != nil {
		return err
	}
	writeString(bw, propSaveValues)
	writeBool(bw, saveValues)
	writeString(bw, propSize)
	var sizeBuf [4]byte
	binary.LittleEndian.PutUint32(sizeBuf[:], uint32(t.size))
	bw.Write(sizeBuf[:])
	writeString(bw, propIgnoreCase)
	writeBool(bw, t.ignoreCase)

	writeIntArray(bw, t.l)
	writeIntArray(bw, t.base[:t.size])
	writeIntArray(bw, t.check[:t.size])
	writeIntArray(bw, t.fail)

	writeVarint(bw, int32(len(t.output)))
	for _, row := range t.output {
		writeIntArray(bw, row)
	}

	if saveValues {
		writeVarint(bw, int32(len(t.v)))
		for _, v := range t.v {
			if err := writeValue(bw, any(v)); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// Load replaces the automaton with one read from r. Streams written without
// values leave the value table absent; hits then carry the zero value.
func (t *Trie[V]) Load(r io.Reader) error {
	return t.LoadWithValues(r, nil)
}

// LoadWithValues is Load with a fallback: when the stream was written
// without values and values is non-nil, the value table is rebuilt by
// calling values for every keyword index.
func (t *Trie[V]) LoadWithValues(r io.Reader, values func(index int) V) error {
	br := bufio.NewReader(r)

	loaded := Trie[V]{}
	saveValues := true

	propCount, err := br.ReadByte()
	if err != nil {
		return corrupt(err)
	}
	for i := 0; i < int(propCount); i++ {
		name, err := readString(br)
		if err != nil {
			return err
		}
		switch name {
		case propSaveValues:
			if saveValues, err = readBool(br); err != nil {
				return err
			}
		case propIgnoreCase:
			if loaded.ignoreCase, err = readBool(br); err != nil {
				return err
			}
		case propSize:
			var sizeBuf [4]byte
			if _, err := io.ReadFull(br, sizeBuf[:]); err != nil {
				return corrupt(err)
			}
			loaded.size = int(int32(binary.LittleEndian.Uint32(sizeBuf[:])))
		default:
			// Unknown flags are one boolean byte; skip for forward
			// compatibility.
			if _, err := br.ReadByte(); err != nil {
				return corrupt(err)
			}
		}
	}
	if loaded.size < 0 {
		return fmt.Errorf("%w: negative size", ErrCorruptStream)
	}

	if loaded.l, err = readIntArray(br); err != nil {
		return err
	}
	if loaded.base, err = readIntArray(br); err != nil {
		return err
	}
	if loaded.check, err = readIntArray(br); err != nil {
		return err
	}
	if loaded.fail, err = readIntArray(br); err != nil {
		return err
	}
	if len(loaded.base) != loaded.size || len(loaded.check) != loaded.size {
		return fmt.Errorf("%w: array length does not match size", ErrCorruptStream)
	}
	if loaded.size > 0 && len(loaded.fail) <= loaded.size {
		return fmt.Errorf("%w: failure table too short", ErrCorruptStream)
	}

	outerLen, err := readVarint(br)
	if err != nil {
		return err
	}
	if outerLen < 0 || outerLen > int32(maxStringLen) {
		return fmt.Errorf("%w: output table length %d", ErrCorruptStream, outerLen)
	}
	loaded.output = make([][]int32, outerLen)
	for i := range loaded.output {
		if loaded.output[i], err = readIntArray(br); err != nil {
			return err
		}
	}
	if loaded.size > 0 && len(loaded.output) <= loaded.size {
		return fmt.Errorf("%w: output table too short", ErrCorruptStream)
	}
	for _, f := range loaded.fail {
		if f < 0 || int(f) > loaded.size {
			return fmt.Errorf("%w: failure link %d out of range", ErrCorruptStream, f)
		}
	}
	for _, row := range loaded.output {
		for _, k := range row {
			if k < 0 || int(k) >= len(loaded.l) {
				return fmt.Errorf("%w: keyword index %d out of range", ErrCorruptStream, k)
			}
		}
	}

	if saveValues {
		count, err := readVarint(br)
		if err != nil {
			return err
		}
		if int(count) != len(loaded.l) {
			return fmt.Errorf("%w: value count %d for %d keywords", ErrCorruptStream, count, len(loaded.l))
		}
		loaded.v = make([]V, count)
		for i := range loaded.v {
			raw, err := readValue(br)
			if err != nil {
				return err
			}
			if loaded.v[i], err = assignValue[V](raw); err != nil {
				return err
			}
		}
		loaded.hasValues = true
	} else if values != nil {
		loaded.v = make([]V, len(loaded.l))
		for i := range loaded.v {
			loaded.v[i] = values(i)
		}
		loaded.hasValues = true
	}

	// Restore the scan headroom dropped on save.
	base := make([]int32, loaded.size+headroom)
	check := make([]int32, loaded.size+headroom)
	copy(base, loaded.base)
	copy(check, loaded.check)
	loaded.base = base
	loaded.check = check

	loaded.built = true
	*t = loaded
	return nil
}

func corrupt(err error) error {
	return fmt.Errorf("%w: %v", ErrCorruptStream, err)
}

func writeVarint(bw *bufio.Writer, v int32) {
	u := uint32(v)
	for u >= 0x80 {
		bw.WriteByte(byte(u) | 0x80)
		u >>= 7
	}
	bw.WriteByte(byte(u))
}

func readVarint(br *bufio.Reader) (int32, error) {
	var u uint32
	for shift := 0; shift < 35; shift += 7 {
		b, err := br.ReadByte()
		if err != nil {
			return 0, corrupt(err)
		}
		u |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return int32(u), nil
		}
	}
	return 0, fmt.Errorf("%w: varint too long", ErrCorruptStream)
}

func writeBool(bw *bufio.Writer, v bool) {
	if v {
		bw.WriteByte(1)
	} else {
		bw.WriteByte(0)
	}
}

func readBool(br *bufio.Reader) (bool, error) {
	b, err := br.ReadByte()
	if err != nil {
		return false, corrupt(err)
	}
	return b != 0, nil
}

func writeString(bw *bufio.Writer, s string) {
	writeVarint(bw, int32(len(s)))
	bw.WriteString(s)
}

func readString(br *bufio.Reader) (string, error) {
	n, err := readVarint(br)
	if err != nil {
		return "", err
	}
	if n < 0 || n > maxStringLen {
		return "", fmt.Errorf("%w: string length %d", ErrCorruptStream, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(br, buf); err != nil {
		return "", corrupt(err)
	}
	return string(buf), nil
}

// writeIntArray writes a length-prefixed varint sequence; nil encodes as
// length -1.
func writeIntArray(bw *bufio.Writer, a []int32) {
	if a == nil {
		writeVarint(bw, -1)
		return
	}
	writeVarint(bw, int32(len(a)))
	for _, v := range a {
		writeVarint(bw, v)
	}
}

func readIntArray(br *bufio.Reader) ([]int32, error) {
	n, err := readVarint(br)
	if err != nil {
		return nil, err
	}
	if n == -1 {
		return nil, nil
	}
	if n < 0 || n > int32(maxAllocSize) {
		return nil, fmt.Errorf("%w: array length %d", ErrCorruptStream, n)
	}
	a := make([]int32, n)
	for i := range a {
		if a[i], err = readVarint(br); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func writeValue(bw *bufio.Writer, v any) error {
	var scratch [8]byte
	switch x := v.(type) {
	case bool:
		bw.WriteByte(typeBool)
		writeBool(bw, x)
	case int32:
		// rune aliases int32, so chars from Go land here and travel as
		// int32; typeChar is decoded for foreign streams only.
		bw.WriteByte(typeInt32)
		binary.LittleEndian.PutUint32(scratch[:4], uint32(x))
		bw.Write(scratch[:4])
	case int8:
		bw.WriteByte(typeInt8)
		bw.WriteByte(byte(x))
	case uint8:
		bw.WriteByte(typeUint8)
		bw.WriteByte(x)
	case int16:
		bw.WriteByte(typeInt16)
		binary.LittleEndian.PutUint16(scratch[:2], uint16(x))
		bw.Write(scratch[:2])
	case uint16:
		bw.WriteByte(typeUint16)
		binary.LittleEndian.PutUint16(scratch[:2], x)
		bw.Write(scratch[:2])
	case int:
		bw.WriteByte(typeInt64)
		binary.LittleEndian.PutUint64(scratch[:], uint64(int64(x)))
		bw.Write(scratch[:])
	case uint:
		bw.WriteByte(typeUint64)
		binary.LittleEndian.PutUint64(scratch[:], uint64(x))
		bw.Write(scratch[:])
	case uint32:
		bw.WriteByte(typeUint32)
		binary.LittleEndian.PutUint32(scratch[:4], x)
		bw.Write(scratch[:4])
	case int64:
		bw.WriteByte(typeInt64)
		binary.LittleEndian.PutUint64(scratch[:], uint64(x))
		bw.Write(scratch[:])
	case uint64:
		bw.WriteByte(typeUint64)
		binary.LittleEndian.PutUint64(scratch[:], x)
		bw.Write(scratch[:])
	case float32:
		bw.WriteByte(typeFloat32)
		binary.LittleEndian.PutUint32(scratch[:4], math.Float32bits(x))
		bw.Write(scratch[:4])
	case float64:
		bw.WriteByte(typeFloat64)
		binary.LittleEndian.PutUint64(scratch[:], math.Float64bits(x))
		bw.Write(scratch[:])
	case time.Time:
		bw.WriteByte(typeTime)
		binary.LittleEndian.PutUint64(scratch[:], uint64(x.UnixNano()))
		bw.Write(scratch[:])
	case string:
		bw.WriteByte(typeString)
		writeString(bw, x)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedValueType, v)
	}
	return nil
}

func readValue(br *bufio.Reader) (any, error) {
	code, err := br.ReadByte()
	if err != nil {
		return nil, corrupt(err)
	}
	var scratch [16]byte
	read := func(n int) ([]byte, error) {
		if _, err := io.ReadFull(br, scratch[:n]); err != nil {
			return nil, corrupt(err)
		}
		return scratch[:n], nil
	}
	switch code {
	case typeBool:
		return readBool(br)
	case typeChar:
		b, err := read(2)
		if err != nil {
			return nil, err
		}
		return rune(binary.LittleEndian.Uint16(b)), nil
	case typeInt8:
		b, err := read(1)
		if err != nil {
			return nil, err
		}
		return int8(b[0]), nil
	case typeUint8:
		b, err := read(1)
		if err != nil {
			return nil, err
		}
		return b[0], nil
	case typeInt16:
		b, err := read(2)
		if err != nil {
			return nil, err
		}
		return int16(binary.LittleEndian.Uint16(b)), nil
	case typeUint16:
		b, err := read(2)
		if err != nil {
			return nil, err
		}
		return binary.LittleEndian.Uint16(b), nil
	case typeInt32:
		b, err := read(4)
		if err != nil {
			return nil, err
		}
		return int32(binary.LittleEndian.Uint32(b)), nil
	case typeUint32:
		b, err := read(4)
		if err != nil {
			return nil, err
		}
		return binary.LittleEndian.Uint32(b), nil
	case typeInt64:
		b, err := read(8)
		if err != nil {
			return nil, err
		}
		return int64(binary.LittleEndian.Uint64(b)), nil
	case typeUint64:
		b, err := read(8)
		if err != nil {
			return nil, err
		}
		return binary.LittleEndian.Uint64(b), nil
	case typeFloat32:
		b, err := read(4)
		if err != nil {
			return nil, err
		}
		return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
	case typeFloat64:
		b, err := read(8)
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
	case typeTime:
		b, err := read(8)
		if err != nil {
			return nil, err
		}
		return time.Unix(0, int64(binary.LittleEndian.Uint64(b))), nil
	case typeString:
		return readString(br)
	case typeDecimal:
		// 16-byte decimals come only from foreign writers; Go has no
		// matching primitive.
		if _, err := read(16); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: decimal", ErrUnsupportedValueType)
	default:
		return nil, fmt.Errorf("%w: value type code %d", ErrCorruptStream, code)
	}
}

// assignValue converts a decoded wire value to the dictionary value type.
func assignValue[V any](raw any) (V, error) {
	var zero V
	if v, ok := raw.(V); ok {
		return v, nil
	}
	vt := reflect.TypeFor[V]()
	if raw != nil {
		rv := reflect.ValueOf(raw)
		// Go would happily convert an integer to a one-rune string; for a
		// dictionary that is always a decode mismatch, not a conversion.
		if vt.Kind() != reflect.String && rv.Kind() != reflect.String &&
			rv.Type().ConvertibleTo(vt) {
			return rv.Convert(vt).Interface().(V), nil
		}
	}
	return zero, fmt.Errorf("%w: cannot decode %T as %v", ErrCorruptStream, raw, vt)
}
