package stubcodec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"jabi/internal/classfile"
)

type scopeKind int

const (
	scopeClass scopeKind = iota
	scopeField
	scopeMethod
	scopeAnnotation
	scopeArray
)

// frame is one open scope during decoding. The visitor slot matching kind is
// set; the rest are nil.
type frame struct {
	kind   scopeKind
	field  classfile.FieldVisitor
	method classfile.MethodVisitor
	ann    classfile.AnnotationVisitor
}

// decode replays the stub in data into v. It validates the event grammar
// (magic, nesting, tag set) but attaches no meaning to the content beyond
// that.
func decode(data []byte, v classfile.ClassVisitor) error {
	r := &reader{data: data}

	head, err := r.take(len(magic) + 1)
	if err != nil {
		return fmt.Errorf("not a class stub: %w", err)
	}
	if !bytes.Equal(head[:len(magic)], magic[:]) {
		return fmt.Errorf("not a class stub: bad magic %q", head[:len(magic)])
	}
	if head[len(magic)] != formatVersion {
		return fmt.Errorf("unsupported stub format version %d", head[len(magic)])
	}

	stack := []frame{{kind: scopeClass}}
	headerSeen := false

	for {
		at := r.pos
		tag, err := r.byteVal()
		if err != nil {
			return fmt.Errorf("stub ends inside class scope at offset %d", at)
		}
		top := &stack[len(stack)-1]

		switch tag {
		case evHeader:
			if top.kind != scopeClass {
				return fmt.Errorf("header event inside member scope at offset %d", at)
			}
			if headerSeen {
				return fmt.Errorf("second header event at offset %d", at)
			}
			version, access, err := r.accessPair()
			if err != nil {
				return err
			}
			name, err := r.str()
			if err != nil {
				return err
			}
			signature, err := r.str()
			if err != nil {
				return err
			}
			superName, err := r.str()
			if err != nil {
				return err
			}
			interfaces, err := r.strs()
			if err != nil {
				return err
			}
			v.VisitHeader(version, access, name, signature, superName, interfaces)
			headerSeen = true

		case evAnnotation:
			desc, err := r.str()
			if err != nil {
				return err
			}
			visible, err := r.boolByte()
			if err != nil {
				return err
			}
			var av classfile.AnnotationVisitor
			switch top.kind {
			case scopeClass:
				if !headerSeen {
					return fmt.Errorf("annotation before class header at offset %d", at)
				}
				av = v.VisitAnnotation(desc, visible)
			case scopeField:
				av = top.field.VisitAnnotation(desc, visible)
			case scopeMethod:
				av = top.method.VisitAnnotation(desc, visible)
			default:
				return fmt.Errorf("annotation event inside annotation scope at offset %d", at)
			}
			if av == nil {
				av = classfile.NullAnnotation()
			}
			stack = append(stack, frame{kind: scopeAnnotation, ann: av})

		case evField:
			if top.kind != scopeClass {
				return fmt.Errorf("field event inside member scope at offset %d", at)
			}
			if !headerSeen {
				return fmt.Errorf("field before class header at offset %d", at)
			}
			access, name, desc, signature, err := r.memberHead()
			if err != nil {
				return err
			}
			value, err := r.value()
			if err != nil {
				return err
			}
			fv := v.VisitField(access, name, desc, signature, value)
			if fv == nil {
				fv = classfile.NullField()
			}
			stack = append(stack, frame{kind: scopeField, field: fv})

		case evMethod:
			if top.kind != scopeClass {
				return fmt.Errorf("method event inside member scope at offset %d", at)
			}
			if !headerSeen {
				return fmt.Errorf("method before class header at offset %d", at)
			}
			access, name, desc, signature, err := r.memberHead()
			if err != nil {
				return err
			}
			exceptions, err := r.strs()
			if err != nil {
				return err
			}
			mv := v.VisitMethod(access, name, desc, signature, exceptions)
			if mv == nil {
				mv = classfile.NullMethod()
			}
			stack = append(stack, frame{kind: scopeMethod, method: mv})

		case evElemValue:
			if top.ann == nil {
				return fmt.Errorf("value element outside annotation scope at offset %d", at)
			}
			name, err := r.str()
			if err != nil {
				return err
			}
			value, err := r.value()
			if err != nil {
				return err
			}
			top.ann.VisitValue(name, value)

		case evElemEnum:
			if top.ann == nil {
				return fmt.Errorf("enum element outside annotation scope at offset %d", at)
			}
			name, err := r.str()
			if err != nil {
				return err
			}
			desc, err := r.str()
			if err != nil {
				return err
			}
			value, err := r.str()
			if err != nil {
				return err
			}
			top.ann.VisitEnum(name, desc, value)

		case evElemNested:
			if top.ann == nil {
				return fmt.Errorf("nested annotation outside annotation scope at offset %d", at)
			}
			name, err := r.str()
			if err != nil {
				return err
			}
			desc, err := r.str()
			if err != nil {
				return err
			}
			nested := top.ann.VisitAnnotation(name, desc)
			if nested == nil {
				nested = classfile.NullAnnotation()
			}
			stack = append(stack, frame{kind: scopeAnnotation, ann: nested})

		case evElemArray:
			if top.ann == nil {
				return fmt.Errorf("array element outside annotation scope at offset %d", at)
			}
			name, err := r.str()
			if err != nil {
				return err
			}
			arr := top.ann.VisitArray(name)
			if arr == nil {
				arr = classfile.NullAnnotation()
			}
			stack = append(stack, frame{kind: scopeArray, ann: arr})

		case evEnd:
			switch top.kind {
			case scopeAnnotation, scopeArray:
				top.ann.VisitEnd()
			case scopeField:
				top.field.VisitEnd()
			case scopeMethod:
				top.method.VisitEnd()
			case scopeClass:
				if !headerSeen {
					return fmt.Errorf("stub ends before class header")
				}
				v.VisitEnd()
				if r.remaining() != 0 {
					return fmt.Errorf("%d trailing byte(s) after class end", r.remaining())
				}
				return nil
			}
			stack = stack[:len(stack)-1]

		default:
			return fmt.Errorf("unknown event tag %#x at offset %d", tag, at)
		}
	}
}

// reader walks stub bytes with bounds checking.
type reader struct {
	data []byte
	pos  int
}

func (r *reader) remaining() int {
	return len(r.data) - r.pos
}

func (r *reader) take(n int) ([]byte, error) {
	if r.remaining() < n {
		return nil, fmt.Errorf("truncated stub at offset %d (want %d bytes, have %d)", r.pos, n, r.remaining())
	}
	out := r.data[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *reader) byteVal() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) boolByte() (bool, error) {
	b, err := r.byteVal()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("bad bool byte %#x at offset %d", b, r.pos-1)
	}
}

func (r *reader) uvarint() (uint64, error) {
	u, n := binary.Uvarint(r.data[r.pos:])
	if n <= 0 {
		return 0, fmt.Errorf("bad varint at offset %d", r.pos)
	}
	r.pos += n
	return u, nil
}

func (r *reader) varint() (int64, error) {
	i, n := binary.Varint(r.data[r.pos:])
	if n <= 0 {
		return 0, fmt.Errorf("bad varint at offset %d", r.pos)
	}
	r.pos += n
	return i, nil
}

func (r *reader) str() (string, error) {
	n, err := r.uvarint()
	if err != nil {
		return "", err
	}
	if n > uint64(r.remaining()) {
		return "", fmt.Errorf("string length %d exceeds remaining %d bytes at offset %d", n, r.remaining(), r.pos)
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) strs() ([]string, error) {
	n, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	if n > uint64(r.remaining()) {
		return nil, fmt.Errorf("list length %d exceeds remaining %d bytes at offset %d", n, r.remaining(), r.pos)
	}
	out := make([]string, 0, n)
	for i := uint64(0); i < n; i++ {
		s, err := r.str()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// accessPair reads the version and access words of a header event.
func (r *reader) accessPair() (version, access uint32, err error) {
	ver, err := r.uvarint()
	if err != nil {
		return 0, 0, err
	}
	acc, err := r.uvarint()
	if err != nil {
		return 0, 0, err
	}
	if ver > math.MaxUint32 || acc > math.MaxUint32 {
		return 0, 0, fmt.Errorf("header word out of range at offset %d", r.pos)
	}
	return uint32(ver), uint32(acc), nil
}

// memberHead reads the shared leading words of field and method events.
func (r *reader) memberHead() (access uint32, name, desc, signature string, err error) {
	acc, err := r.uvarint()
	if err != nil {
		return 0, "", "", "", err
	}
	if acc > math.MaxUint32 {
		return 0, "", "", "", fmt.Errorf("access flags out of range at offset %d", r.pos)
	}
	if name, err = r.str(); err != nil {
		return 0, "", "", "", err
	}
	if desc, err = r.str(); err != nil {
		return 0, "", "", "", err
	}
	if signature, err = r.str(); err != nil {
		return 0, "", "", "", err
	}
	return uint32(acc), name, desc, signature, nil
}

func (r *reader) value() (interface{}, error) {
	tag, err := r.byteVal()
	if err != nil {
		return nil, err
	}
	switch tag {
	case valNil:
		return nil, nil
	case valBool:
		return r.boolByte()
	case valByte:
		i, err := r.varint()
		if err != nil {
			return nil, err
		}
		if i < math.MinInt8 || i > math.MaxInt8 {
			return nil, fmt.Errorf("byte value %d out of range at offset %d", i, r.pos)
		}
		return int8(i), nil
	case valShort:
		i, err := r.varint()
		if err != nil {
			return nil, err
		}
		if i < math.MinInt16 || i > math.MaxInt16 {
			return nil, fmt.Errorf("short value %d out of range at offset %d", i, r.pos)
		}
		return int16(i), nil
	case valChar:
		u, err := r.uvarint()
		if err != nil {
			return nil, err
		}
		if u > math.MaxUint16 {
			return nil, fmt.Errorf("char value %d out of range at offset %d", u, r.pos)
		}
		return uint16(u), nil
	case valInt:
		i, err := r.varint()
		if err != nil {
			return nil, err
		}
		if i < math.MinInt32 || i > math.MaxInt32 {
			return nil, fmt.Errorf("int value %d out of range at offset %d", i, r.pos)
		}
		return int32(i), nil
	case valLong:
		return r.varint()
	case valFloat:
		b, err := r.take(4)
		if err != nil {
			return nil, err
		}
		return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
	case valDouble:
		b, err := r.take(8)
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
	case valString:
		return r.str()
	default:
		return nil, fmt.Errorf("unknown value tag %#x at offset %d", tag, r.pos-1)
	}
}
