package mirror

import (
	"jabi/internal/classfile"
)

// FieldMirror captures one field's visible content: access flags, name,
// descriptor, optional signature, optional constant value, and annotations.
type FieldMirror struct {
	access      uint32
	name        string
	desc        string
	signature   string
	value       interface{}
	annotations annotationSet
}

func newFieldMirror(access uint32, name, desc, signature string, value interface{}) *FieldMirror {
	return &FieldMirror{
		access:      access,
		name:        name,
		desc:        desc,
		signature:   signature,
		value:       value,
		annotations: make(annotationSet),
	}
}

func (f *FieldMirror) key() memberKey {
	return memberKey{name: f.name, desc: f.desc}
}

// VisitAnnotation records a field annotation.
func (f *FieldMirror) VisitAnnotation(desc string, visible bool) classfile.AnnotationVisitor {
	a := newAnnotationMirror(desc, visible)
	f.annotations.add(a)
	return a
}

// VisitEnd marks the end of the field's events.
func (f *FieldMirror) VisitEnd() {}

// appendTo replays the field and its annotations onto v.
func (f *FieldMirror) appendTo(v classfile.ClassVisitor) {
	fv := v.VisitField(f.access, f.name, f.desc, f.signature, f.value)
	for _, a := range f.annotations.sorted() {
		a.appendTo(fv)
	}
	fv.VisitEnd()
}
