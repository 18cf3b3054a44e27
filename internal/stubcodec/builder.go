package stubcodec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"jabi/internal/classfile"
)

// builder accumulates visitor events into stub bytes. Traversal of one class
// is single-threaded and strictly nested, so every sub-visitor appends to the
// same buffer in call order.
type builder struct {
	buf     bytes.Buffer
	scratch [binary.MaxVarintLen64]byte

	headerSeen bool
	done       bool
	open       int // member, annotation, and array scopes not yet ended
	err        error
}

func newBuilder() *builder {
	b := &builder{}
	b.buf.Write(magic[:])
	b.buf.WriteByte(formatVersion)
	return b
}

func (b *builder) VisitHeader(version, access uint32, name, signature, superName string, interfaces []string) {
	b.event(evHeader)
	b.uvarint(uint64(version))
	b.uvarint(uint64(access))
	b.str(name)
	b.str(signature)
	b.str(superName)
	b.strs(interfaces)
	b.headerSeen = true
}

func (b *builder) VisitAnnotation(desc string, visible bool) classfile.AnnotationVisitor {
	b.event(evAnnotation)
	b.str(desc)
	b.boolByte(visible)
	b.open++
	return annotationWriter{b}
}

func (b *builder) VisitField(access uint32, name, desc, signature string, value interface{}) classfile.FieldVisitor {
	b.event(evField)
	b.uvarint(uint64(access))
	b.str(name)
	b.str(desc)
	b.str(signature)
	b.value(value)
	b.open++
	return fieldWriter{b}
}

func (b *builder) VisitMethod(access uint32, name, desc, signature string, exceptions []string) classfile.MethodVisitor {
	b.event(evMethod)
	b.uvarint(uint64(access))
	b.str(name)
	b.str(desc)
	b.str(signature)
	b.strs(exceptions)
	b.open++
	return methodWriter{b}
}

func (b *builder) VisitEnd() {
	b.event(evEnd)
	b.done = true
}

// Bytes returns the finished stub. The returned slice is a copy; the builder
// can be discarded or read again.
func (b *builder) Bytes() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	if !b.headerSeen {
		return nil, fmt.Errorf("incomplete class: header never visited")
	}
	if !b.done || b.open != 0 {
		return nil, fmt.Errorf("incomplete class: %d scope(s) still open", b.open+1)
	}
	out := make([]byte, b.buf.Len())
	copy(out, b.buf.Bytes())
	return out, nil
}

// annotationWriter encodes annotation element events. Arrays use the same
// writer: they accept the same element set, with empty names.
type annotationWriter struct {
	b *builder
}

func (w annotationWriter) VisitValue(name string, value interface{}) {
	w.b.event(evElemValue)
	w.b.str(name)
	w.b.value(value)
}

func (w annotationWriter) VisitEnum(name, desc, value string) {
	w.b.event(evElemEnum)
	w.b.str(name)
	w.b.str(desc)
	w.b.str(value)
}

func (w annotationWriter) VisitAnnotation(name, desc string) classfile.AnnotationVisitor {
	w.b.event(evElemNested)
	w.b.str(name)
	w.b.str(desc)
	w.b.open++
	return annotationWriter{w.b}
}

func (w annotationWriter) VisitArray(name string) classfile.AnnotationVisitor {
	w.b.event(evElemArray)
	w.b.str(name)
	w.b.open++
	return annotationWriter{w.b}
}

func (w annotationWriter) VisitEnd() {
	w.b.event(evEnd)
	w.b.open--
}

type fieldWriter struct {
	b *builder
}

func (w fieldWriter) VisitAnnotation(desc string, visible bool) classfile.AnnotationVisitor {
	w.b.event(evAnnotation)
	w.b.str(desc)
	w.b.boolByte(visible)
	w.b.open++
	return annotationWriter{w.b}
}

func (w fieldWriter) VisitEnd() {
	w.b.event(evEnd)
	w.b.open--
}

type methodWriter struct {
	b *builder
}

func (w methodWriter) VisitAnnotation(desc string, visible bool) classfile.AnnotationVisitor {
	w.b.event(evAnnotation)
	w.b.str(desc)
	w.b.boolByte(visible)
	w.b.open++
	return annotationWriter{w.b}
}

func (w methodWriter) VisitEnd() {
	w.b.event(evEnd)
	w.b.open--
}

func (b *builder) event(tag byte) {
	b.buf.WriteByte(tag)
}

func (b *builder) uvarint(u uint64) {
	n := binary.PutUvarint(b.scratch[:], u)
	b.buf.Write(b.scratch[:n])
}

func (b *builder) varint(i int64) {
	n := binary.PutVarint(b.scratch[:], i)
	b.buf.Write(b.scratch[:n])
}

func (b *builder) str(s string) {
	b.uvarint(uint64(len(s)))
	b.buf.WriteString(s)
}

func (b *builder) strs(ss []string) {
	b.uvarint(uint64(len(ss)))
	for _, s := range ss {
		b.str(s)
	}
}

func (b *builder) boolByte(v bool) {
	if v {
		b.buf.WriteByte(1)
	} else {
		b.buf.WriteByte(0)
	}
}

func (b *builder) value(v interface{}) {
	switch val := v.(type) {
	case nil:
		b.buf.WriteByte(valNil)
	case bool:
		b.buf.WriteByte(valBool)
		b.boolByte(val)
	case int8:
		b.buf.WriteByte(valByte)
		b.varint(int64(val))
	case int16:
		b.buf.WriteByte(valShort)
		b.varint(int64(val))
	case uint16:
		b.buf.WriteByte(valChar)
		b.uvarint(uint64(val))
	case int32:
		b.buf.WriteByte(valInt)
		b.varint(int64(val))
	case int64:
		b.buf.WriteByte(valLong)
		b.varint(val)
	case float32:
		b.buf.WriteByte(valFloat)
		binary.LittleEndian.PutUint32(b.scratch[:4], math.Float32bits(val))
		b.buf.Write(b.scratch[:4])
	case float64:
		b.buf.WriteByte(valDouble)
		binary.LittleEndian.PutUint64(b.scratch[:8], math.Float64bits(val))
		b.buf.Write(b.scratch[:8])
	case string:
		b.buf.WriteByte(valString)
		b.str(val)
	default:
		b.fail(fmt.Errorf("unsupported constant value type %T", v))
	}
}

func (b *builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}
