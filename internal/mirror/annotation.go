// Package mirror holds the canonical structural model of a class's publicly
// visible surface. Mirrors are populated from one classfile traversal pass,
// drop members that are not part of the surface, and replay what remains in
// a content-derived order, so the same class bytes always come back out of a
// mirror byte for byte, no matter how its members were ordered going in.
package mirror

import (
	"jabi/internal/classfile"
)

// AnnotationMirror captures one annotation: descriptor, runtime visibility,
// and element values in declaration order. Element order is part of the
// annotation's content and is preserved as delivered; only the order of
// annotations relative to each other is canonicalized.
type AnnotationMirror struct {
	desc    string
	visible bool
	elementList
}

func newAnnotationMirror(desc string, visible bool) *AnnotationMirror {
	return &AnnotationMirror{desc: desc, visible: visible}
}

func (a *AnnotationMirror) key() annotationKey {
	return annotationKey{desc: a.desc, visible: a.visible}
}

// annotationHost is the surface an annotation replays into. ClassVisitor,
// FieldVisitor, and MethodVisitor all provide it.
type annotationHost interface {
	VisitAnnotation(desc string, visible bool) classfile.AnnotationVisitor
}

// appendTo replays the annotation and its elements onto the host.
func (a *AnnotationMirror) appendTo(host annotationHost) {
	target := host.VisitAnnotation(a.desc, a.visible)
	a.replayInto(target)
	target.VisitEnd()
}

// annotationKey is the canonical ordering key for annotations.
type annotationKey struct {
	desc    string
	visible bool
}

// annotationSet keys annotations by ordering key. The first annotation seen
// for a key wins; later duplicates collapse silently.
type annotationSet map[annotationKey]*AnnotationMirror

func (s annotationSet) add(a *AnnotationMirror) {
	k := a.key()
	if _, ok := s[k]; !ok {
		s[k] = a
	}
}

// element is one annotation element value, replayable onto any visitor.
type element interface {
	replay(v classfile.AnnotationVisitor)
}

// elementList accumulates elements in arrival order. It is the receiving
// half of every annotation-valued scope: annotations, nested annotations,
// and arrays all collect through it.
type elementList struct {
	elements []element
}

func (l *elementList) VisitValue(name string, value interface{}) {
	l.elements = append(l.elements, valueElement{name: name, value: value})
}

func (l *elementList) VisitEnum(name, desc, value string) {
	l.elements = append(l.elements, enumElement{name: name, desc: desc, value: value})
}

func (l *elementList) VisitAnnotation(name, desc string) classfile.AnnotationVisitor {
	nested := &nestedElement{name: name, desc: desc}
	l.elements = append(l.elements, nested)
	return &nested.elementList
}

func (l *elementList) VisitArray(name string) classfile.AnnotationVisitor {
	arr := &arrayElement{name: name}
	l.elements = append(l.elements, arr)
	return &arr.elementList
}

func (l *elementList) VisitEnd() {}

func (l *elementList) replayInto(v classfile.AnnotationVisitor) {
	for _, e := range l.elements {
		e.replay(v)
	}
}

type valueElement struct {
	name  string
	value interface{}
}

func (e valueElement) replay(v classfile.AnnotationVisitor) {
	v.VisitValue(e.name, e.value)
}

type enumElement struct {
	name  string
	desc  string
	value string
}

func (e enumElement) replay(v classfile.AnnotationVisitor) {
	v.VisitEnum(e.name, e.desc, e.value)
}

type nestedElement struct {
	name string
	desc string
	elementList
}

func (e *nestedElement) replay(v classfile.AnnotationVisitor) {
	target := v.VisitAnnotation(e.name, e.desc)
	e.replayInto(target)
	target.VisitEnd()
}

type arrayElement struct {
	name string
	elementList
}

func (e *arrayElement) replay(v classfile.AnnotationVisitor) {
	target := v.VisitArray(e.name)
	e.replayInto(target)
	target.VisitEnd()
}
