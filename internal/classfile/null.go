package classfile

// Null visitors are valid event sinks that record nothing. They let a
// visitor discard a member while still satisfying the protocol: the caller
// keeps delivering the member's events, and they vanish. Nested events
// return further null sinks.

type nullClass struct{}

type nullField struct{}

type nullMethod struct{}

type nullAnnotation struct{}

// NullClass returns a ClassVisitor that discards everything.
func NullClass() ClassVisitor { return nullClass{} }

// NullField returns a FieldVisitor that discards everything.
func NullField() FieldVisitor { return nullField{} }

// NullMethod returns a MethodVisitor that discards everything.
func NullMethod() MethodVisitor { return nullMethod{} }

// NullAnnotation returns an AnnotationVisitor that discards everything.
func NullAnnotation() AnnotationVisitor { return nullAnnotation{} }

func (nullClass) VisitHeader(version, access uint32, name, signature, superName string, interfaces []string) {
}

func (nullClass) VisitAnnotation(desc string, visible bool) AnnotationVisitor {
	return nullAnnotation{}
}

func (nullClass) VisitField(access uint32, name, desc, signature string, value interface{}) FieldVisitor {
	return nullField{}
}

func (nullClass) VisitMethod(access uint32, name, desc, signature string, exceptions []string) MethodVisitor {
	return nullMethod{}
}

func (nullClass) VisitEnd() {}

func (nullField) VisitAnnotation(desc string, visible bool) AnnotationVisitor {
	return nullAnnotation{}
}

func (nullField) VisitEnd() {}

func (nullMethod) VisitAnnotation(desc string, visible bool) AnnotationVisitor {
	return nullAnnotation{}
}

func (nullMethod) VisitEnd() {}

func (nullAnnotation) VisitValue(name string, value interface{}) {}

func (nullAnnotation) VisitEnum(name, desc, value string) {}

func (nullAnnotation) VisitAnnotation(name, desc string) AnnotationVisitor {
	return nullAnnotation{}
}

func (nullAnnotation) VisitArray(name string) AnnotationVisitor {
	return nullAnnotation{}
}

func (nullAnnotation) VisitEnd() {}
