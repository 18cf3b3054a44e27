package mirror

import (
	"jabi/internal/classfile"
)

// MethodMirror captures one method's visible content: access flags, name,
// descriptor, optional signature, declared checked exceptions, and
// annotations. Parameter names and code attributes never reach the mirror;
// the codec does not deliver them.
type MethodMirror struct {
	access      uint32
	name        string
	desc        string
	signature   string
	exceptions  []string
	annotations annotationSet
}

func newMethodMirror(access uint32, name, desc, signature string, exceptions []string) *MethodMirror {
	return &MethodMirror{
		access:      access,
		name:        name,
		desc:        desc,
		signature:   signature,
		exceptions:  exceptions,
		annotations: make(annotationSet),
	}
}

func (m *MethodMirror) key() memberKey {
	return memberKey{name: m.name, desc: m.desc}
}

// VisitAnnotation records a method annotation.
func (m *MethodMirror) VisitAnnotation(desc string, visible bool) classfile.AnnotationVisitor {
	a := newAnnotationMirror(desc, visible)
	m.annotations.add(a)
	return a
}

// VisitEnd marks the end of the method's events.
func (m *MethodMirror) VisitEnd() {}

// appendTo replays the method and its annotations onto v.
func (m *MethodMirror) appendTo(v classfile.ClassVisitor) {
	mv := v.VisitMethod(m.access, m.name, m.desc, m.signature, m.exceptions)
	for _, a := range m.annotations.sorted() {
		a.appendTo(mv)
	}
	mv.VisitEnd()
}
