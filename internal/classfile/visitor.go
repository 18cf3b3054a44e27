// Package classfile defines the event protocol through which compiled class
// content flows through jabi. A codec drives a ClassVisitor with one strictly
// nested pass over a class (header, then annotations, fields, and methods),
// and a Builder accepts the same calls and assembles class bytes. The package
// carries no knowledge of the class-file binary grammar itself; codecs are
// pluggable and register themselves by name.
package classfile

// ClassVisitor receives the traversal events for one class.
//
// Events arrive in a single-threaded pass: VisitHeader exactly once, then
// any number of VisitAnnotation/VisitField/VisitMethod calls, then VisitEnd.
// Events for a returned member visitor are delivered before the next
// class-level event. Implementations must accept members in any order; no
// ordering is promised beyond strict nesting.
type ClassVisitor interface {
	// VisitHeader delivers the class declaration. version packs the
	// class-file minor and major words (see PackVersion). signature and
	// superName may be empty; interfaces may be nil.
	VisitHeader(version, access uint32, name, signature, superName string, interfaces []string)

	// VisitAnnotation delivers a class-level annotation. visible reports
	// runtime visibility. The returned visitor receives the annotation's
	// element values and must not be nil.
	VisitAnnotation(desc string, visible bool) AnnotationVisitor

	// VisitField delivers a field declaration. value is the field's
	// constant initializer (nil, int32, int64, float32, float64, or
	// string) and is nil when absent. The returned visitor receives the
	// field's annotations and must not be nil.
	VisitField(access uint32, name, desc, signature string, value interface{}) FieldVisitor

	// VisitMethod delivers a method declaration. exceptions lists the
	// declared checked exceptions and may be nil. The returned visitor
	// receives the method's annotations and must not be nil.
	VisitMethod(access uint32, name, desc, signature string, exceptions []string) MethodVisitor

	// VisitEnd marks the end of the class. No further events follow.
	VisitEnd()
}

// AnnotationVisitor receives the element values of one annotation in
// declaration order.
//
// value in VisitValue is one of: bool, int8, int16, uint16 (char), int32,
// int64, float32, float64, string. Arrays are never delivered as a single
// value; they always arrive element-wise through VisitArray.
type AnnotationVisitor interface {
	// VisitValue delivers a primitive or string element value.
	VisitValue(name string, value interface{})

	// VisitEnum delivers an enum constant element value.
	VisitEnum(name, desc, value string)

	// VisitAnnotation delivers a nested annotation element. The returned
	// visitor receives the nested annotation's elements.
	VisitAnnotation(name, desc string) AnnotationVisitor

	// VisitArray delivers an array element. The returned visitor receives
	// the array's elements in order, each with an empty name.
	VisitArray(name string) AnnotationVisitor

	// VisitEnd marks the end of this annotation's elements.
	VisitEnd()
}

// FieldVisitor receives the remaining events for one field.
type FieldVisitor interface {
	// VisitAnnotation delivers a field annotation.
	VisitAnnotation(desc string, visible bool) AnnotationVisitor

	// VisitEnd marks the end of the field.
	VisitEnd()
}

// MethodVisitor receives the remaining events for one method.
type MethodVisitor interface {
	// VisitAnnotation delivers a method annotation.
	VisitAnnotation(desc string, visible bool) AnnotationVisitor

	// VisitEnd marks the end of the method.
	VisitEnd()
}

// Builder assembles class bytes from visitor events. Bytes reports an error
// until the class is complete (VisitEnd on the class has been called).
type Builder interface {
	ClassVisitor

	// Bytes returns the finished class bytes. Calling it again returns
	// identical bytes.
	Bytes() ([]byte, error)
}

// Codec converts between class bytes and visitor events. Implementations
// must be safe for concurrent use: Decode may run for distinct classes in
// parallel, each driving its own visitor.
type Codec interface {
	// Name returns the registry name of the codec.
	Name() string

	// Decode replays the class encoded in data into v as one traversal
	// pass. The visitor's state is undefined after an error.
	Decode(data []byte, v ClassVisitor) error

	// NewBuilder returns a fresh builder producing this codec's encoding.
	NewBuilder() Builder
}
