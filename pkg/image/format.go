// Package image implements smog's compiled bytecode image format
// (the .sgc file the `compile`/`disasm` CLI verbs read and write).
//
// It keeps the teacher bytecode package's overall shape, a fixed
// magic-number-and-version header followed by a tagged constant pool
// and a flat instruction stream, but the constant pool now nests:
// a Function constant embeds its own chunk recursively, since CLOSURE
// needs a function constant to exist before the outer chunk can even
// finish compiling. Closures, classes, and instances are runtime-only
// values and never appear in a constant pool; only Nil, Bool, Number,
// String, and Function need an encoding.
//
// Binary layout:
//
//	[Header]
//	  Magic (4 bytes):   "SMOG" (0x534D4F47)
//	  Version (4 bytes): format version, currently 1
//
//	[Chunk] (recursive)
//	  Arity (1 byte), UpvalueCount (1 byte)
//	  NameLen (4 bytes) + name bytes (0 length means the top-level script)
//	  ConstantCount (4 bytes), then that many tagged constants
//	  CodeLen (4 bytes), then that many (opcode-byte, line u32) pairs
//
// Constant tags: 0x01 Nil, 0x02 Bool (1 byte), 0x03 Number (8-byte
// IEEE-754), 0x04 String (4-byte length + UTF-8 bytes), 0x05 Function
// (a nested Chunk, per the layout above).
package image

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/kristofer/smog/pkg/value"
)

const (
	magicNumber   uint32 = 0x534D4F47 // "SMOG"
	formatVersion uint32 = 1
)

const (
	tagNil byte = iota + 1
	tagBool
	tagNumber
	tagString
	tagFunction
)

// Encode writes fn, and every function its constant pool nests, as a
// .sgc image.
func Encode(fn *value.ObjFunction, w io.Writer) error {
	if err := binary.Write(w, binary.BigEndian, magicNumber); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}
	if err := binary.Write(w, binary.BigEndian, formatVersion); err != nil {
		return fmt.Errorf("write version: %w", err)
	}
	return encodeFunction(w, fn)
}

// Decode reads a .sgc image back into the top-level function it
// encodes. The VM's allocator owns every object Decode creates, so
// the interned strings and nested functions it produces behave
// exactly like ones the compiler just emitted.
func Decode(r io.Reader, intern func(string) *value.ObjString) (*value.ObjFunction, error) {
	var magic, version uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if magic != magicNumber {
		return nil, fmt.Errorf("not a smog bytecode image (bad magic %08x)", magic)
	}
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}
	if version != formatVersion {
		return nil, fmt.Errorf("unsupported image version %d (expected %d)", version, formatVersion)
	}
	return decodeFunction(r, intern)
}

func encodeFunction(w io.Writer, fn *value.ObjFunction) error {
	if err := writeU8(w, byte(fn.Arity)); err != nil {
		return err
	}
	if err := writeU8(w, byte(fn.UpvalueCount)); err != nil {
		return err
	}

	name := ""
	if fn.Name != nil {
		name = fn.Name.Chars
	}
	if err := writeString(w, name); err != nil {
		return err
	}

	if err := binary.Write(w, binary.BigEndian, uint32(len(fn.Chunk.Constants))); err != nil {
		return err
	}
	for _, c := range fn.Chunk.Constants {
		if err := encodeConstant(w, c); err != nil {
			return err
		}
	}

	if err := binary.Write(w, binary.BigEndian, uint32(len(fn.Chunk.Code))); err != nil {
		return err
	}
	for i, b := range fn.Chunk.Code {
		if err := writeU8(w, b); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, uint32(fn.Chunk.Lines[i])); err != nil {
			return err
		}
	}
	return nil
}

func decodeFunction(r io.Reader, intern func(string) *value.ObjString) (*value.ObjFunction, error) {
	arity, err := readU8(r)
	if err != nil {
		return nil, err
	}
	upvalueCount, err := readU8(r)
	if err != nil {
		return nil, err
	}
	name, err := readString(r)
	if err != nil {
		return nil, err
	}

	fn := value.NewFunction()
	fn.Arity = int(arity)
	fn.UpvalueCount = int(upvalueCount)
	if name != "" {
		fn.Name = intern(name)
	}

	var constantCount uint32
	if err := binary.Read(r, binary.BigEndian, &constantCount); err != nil {
		return nil, err
	}
	for i := uint32(0); i < constantCount; i++ {
		c, err := decodeConstant(r, intern)
		if err != nil {
			return nil, err
		}
		fn.Chunk.Constants = append(fn.Chunk.Constants, c)
	}

	var codeLen uint32
	if err := binary.Read(r, binary.BigEndian, &codeLen); err != nil {
		return nil, err
	}
	for i := uint32(0); i < codeLen; i++ {
		b, err := readU8(r)
		if err != nil {
			return nil, err
		}
		var line uint32
		if err := binary.Read(r, binary.BigEndian, &line); err != nil {
			return nil, err
		}
		fn.Chunk.Code = append(fn.Chunk.Code, b)
		fn.Chunk.Lines = append(fn.Chunk.Lines, int(line))
	}

	return fn, nil
}

func encodeConstant(w io.Writer, v value.Value) error {
	switch {
	case v.IsNil():
		return writeU8(w, tagNil)
	case v.IsBool():
		if err := writeU8(w, tagBool); err != nil {
			return err
		}
		b := byte(0)
		if v.AsBool() {
			b = 1
		}
		return writeU8(w, b)
	case v.IsNumber():
		if err := writeU8(w, tagNumber); err != nil {
			return err
		}
		return binary.Write(w, binary.BigEndian, v.AsNumber())
	default:
		if s, ok := value.AsString(v); ok {
			if err := writeU8(w, tagString); err != nil {
				return err
			}
			return writeString(w, s.Chars)
		}
		if fn, ok := value.AsFunction(v); ok {
			if err := writeU8(w, tagFunction); err != nil {
				return err
			}
			return encodeFunction(w, fn)
		}
		return fmt.Errorf("image: constant pool may only hold nil, bool, number, string, or function, got %T", v)
	}
}

func decodeConstant(r io.Reader, intern func(string) *value.ObjString) (value.Value, error) {
	tag, err := readU8(r)
	if err != nil {
		return value.Nil, err
	}
	switch tag {
	case tagNil:
		return value.Nil, nil
	case tagBool:
		b, err := readU8(r)
		if err != nil {
			return value.Nil, err
		}
		return value.Bool(b != 0), nil
	case tagNumber:
		var n float64
		if err := binary.Read(r, binary.BigEndian, &n); err != nil {
			return value.Nil, err
		}
		return value.Number(n), nil
	case tagString:
		s, err := readString(r)
		if err != nil {
			return value.Nil, err
		}
		return value.Obj(intern(s)), nil
	case tagFunction:
		fn, err := decodeFunction(r, intern)
		if err != nil {
			return value.Nil, err
		}
		return value.Obj(fn), nil
	default:
		return value.Nil, fmt.Errorf("image: unknown constant tag 0x%02x", tag)
	}
}

func writeU8(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	return err
}

func readU8(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return "", err
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
