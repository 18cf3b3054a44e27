package mirror

import (
	"fmt"

	"jabi/internal/classfile"
)

// memberKey is the canonical ordering key for fields and methods.
type memberKey struct {
	name string
	desc string
}

// ClassMirror accumulates the publicly visible surface of one class and
// replays it in canonical order.
//
// A mirror is populated by exactly one single-threaded traversal pass;
// distinct mirrors are independent. Once populated it only reads, so replay
// and serialization can happen from any goroutine.
type ClassMirror struct {
	entryName   string
	version     uint32
	access      uint32
	name        string
	signature   string
	superName   string
	interfaces  []string
	annotations annotationSet
	fields      map[memberKey]*FieldMirror
	methods     map[memberKey]*MethodMirror
}

// NewClassMirror returns an empty mirror that serializes under entryName.
func NewClassMirror(entryName string) *ClassMirror {
	return &ClassMirror{
		entryName:   entryName,
		annotations: make(annotationSet),
		fields:      make(map[memberKey]*FieldMirror),
		methods:     make(map[memberKey]*MethodMirror),
	}
}

// EntryName returns the archive entry name the class serializes under.
func (c *ClassMirror) EntryName() string {
	return c.entryName
}

// ClassName returns the binary class name from the header, empty before
// population.
func (c *ClassMirror) ClassName() string {
	return c.name
}

// VisitHeader records the class declaration.
func (c *ClassMirror) VisitHeader(version, access uint32, name, signature, superName string, interfaces []string) {
	c.version = version
	c.access = access
	c.name = name
	c.signature = signature
	c.superName = superName
	c.interfaces = interfaces
}

// VisitAnnotation records a class annotation. Annotations are always part
// of the visible surface, runtime-invisible ones included.
func (c *ClassMirror) VisitAnnotation(desc string, visible bool) classfile.AnnotationVisitor {
	a := newAnnotationMirror(desc, visible)
	c.annotations.add(a)
	return a
}

// VisitField records a field. Private fields are invisible to other classes
// and go to a discard sink.
func (c *ClassMirror) VisitField(access uint32, name, desc, signature string, value interface{}) classfile.FieldVisitor {
	if classfile.IsPrivate(access) {
		return classfile.NullField()
	}
	f := newFieldMirror(access, name, desc, signature, value)
	if _, ok := c.fields[f.key()]; !ok {
		c.fields[f.key()] = f
	}
	return f
}

// VisitMethod records a method. Private and bridge methods go to a discard
// sink: bridge methods are compiler artifacts that never appear in source.
// Synthetic methods stay. The ones that survive compilation, constructors
// and the enum valueOf/values pair, are callable surface.
func (c *ClassMirror) VisitMethod(access uint32, name, desc, signature string, exceptions []string) classfile.MethodVisitor {
	if classfile.IsPrivate(access) || classfile.IsBridge(access) {
		return classfile.NullMethod()
	}
	m := newMethodMirror(access, name, desc, signature, exceptions)
	if _, ok := c.methods[m.key()]; !ok {
		c.methods[m.key()] = m
	}
	return m
}

// VisitEnd marks the end of population.
func (c *ClassMirror) VisitEnd() {}

// Replay drives v with the class in canonical order: header, annotations,
// fields, methods, each group sorted by its ordering key. The emitted order
// is a function of content alone, never of arrival order.
func (c *ClassMirror) Replay(v classfile.ClassVisitor) {
	v.VisitHeader(c.version, c.access, c.name, c.signature, c.superName, c.interfaces)
	for _, a := range c.annotations.sorted() {
		a.appendTo(v)
	}
	for _, f := range sortFields(c.fields) {
		f.appendTo(v)
	}
	for _, m := range sortMethods(c.methods) {
		m.appendTo(v)
	}
	v.VisitEnd()
}

// Bytes serializes the class through codec. Serialization is idempotent:
// repeated calls yield identical bytes.
func (c *ClassMirror) Bytes(codec classfile.Codec) ([]byte, error) {
	b := codec.NewBuilder()
	c.Replay(b)
	data, err := b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("serialize %s: %w", c.entryName, err)
	}
	return data, nil
}

// EntryWriter accepts finished class bytes as named archive entries.
type EntryWriter interface {
	WriteEntry(name string, data []byte) error
}

// WriteTo serializes the class through codec into w under the mirror's
// entry name.
func (c *ClassMirror) WriteTo(w EntryWriter, codec classfile.Codec) error {
	data, err := c.Bytes(codec)
	if err != nil {
		return err
	}
	return w.WriteEntry(c.entryName, data)
}
