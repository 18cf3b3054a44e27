package dump

import (
	"fmt"

	"jabi/internal/classfile"
)

// ClassSummary is the machine-readable form of one class's surface.
type ClassSummary struct {
	Name        string              `json:"name" yaml:"name"`
	Version     string              `json:"version" yaml:"version"`
	Flags       []string            `json:"flags,omitempty" yaml:"flags,omitempty"`
	Signature   string              `json:"signature,omitempty" yaml:"signature,omitempty"`
	Super       string              `json:"super,omitempty" yaml:"super,omitempty"`
	Interfaces  []string            `json:"interfaces,omitempty" yaml:"interfaces,omitempty"`
	Annotations []AnnotationSummary `json:"annotations,omitempty" yaml:"annotations,omitempty"`
	Fields      []FieldSummary      `json:"fields,omitempty" yaml:"fields,omitempty"`
	Methods     []MethodSummary     `json:"methods,omitempty" yaml:"methods,omitempty"`
}

type FieldSummary struct {
	Name        string              `json:"name" yaml:"name"`
	Descriptor  string              `json:"descriptor" yaml:"descriptor"`
	Flags       []string            `json:"flags,omitempty" yaml:"flags,omitempty"`
	Signature   string              `json:"signature,omitempty" yaml:"signature,omitempty"`
	Value       string              `json:"value,omitempty" yaml:"value,omitempty"`
	Annotations []AnnotationSummary `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

type MethodSummary struct {
	Name        string              `json:"name" yaml:"name"`
	Descriptor  string              `json:"descriptor" yaml:"descriptor"`
	Flags       []string            `json:"flags,omitempty" yaml:"flags,omitempty"`
	Signature   string              `json:"signature,omitempty" yaml:"signature,omitempty"`
	Exceptions  []string            `json:"exceptions,omitempty" yaml:"exceptions,omitempty"`
	Annotations []AnnotationSummary `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

type AnnotationSummary struct {
	Descriptor string           `json:"descriptor" yaml:"descriptor"`
	Visible    bool             `json:"visible" yaml:"visible"`
	Elements   []ElementSummary `json:"elements,omitempty" yaml:"elements,omitempty"`
}

// ElementSummary is one annotation element. Kind is value, enum, annotation
// or array; Value holds the literal, the enum constant, or the nested
// annotation's descriptor depending on Kind.
type ElementSummary struct {
	Name     string           `json:"name,omitempty" yaml:"name,omitempty"`
	Kind     string           `json:"kind" yaml:"kind"`
	Value    string           `json:"value,omitempty" yaml:"value,omitempty"`
	Elements []ElementSummary `json:"elements,omitempty" yaml:"elements,omitempty"`
}

// Collector is a ClassVisitor that accumulates a ClassSummary.
type Collector struct {
	summary ClassSummary
}

func NewCollector() *Collector {
	return &Collector{}
}

// Summary returns the collected class. Valid after the replay's VisitEnd.
func (c *Collector) Summary() *ClassSummary {
	return &c.summary
}

func (c *Collector) VisitHeader(version, access uint32, name, signature, superName string, interfaces []string) {
	c.summary = ClassSummary{
		Name:       name,
		Version:    fmt.Sprintf("%d.%d", classfile.MajorVersion(version), classfile.MinorVersion(version)),
		Flags:      ClassFlagNames(access),
		Signature:  signature,
		Super:      superName,
		Interfaces: interfaces,
	}
}

func (c *Collector) VisitAnnotation(desc string, visible bool) classfile.AnnotationVisitor {
	return &elementCollector{finish: func(elems []ElementSummary) {
		c.summary.Annotations = append(c.summary.Annotations, AnnotationSummary{
			Descriptor: desc,
			Visible:    visible,
			Elements:   elems,
		})
	}}
}

func (c *Collector) VisitField(access uint32, name, desc, signature string, value interface{}) classfile.FieldVisitor {
	f := FieldSummary{
		Name:       name,
		Descriptor: desc,
		Flags:      FieldFlagNames(access),
		Signature:  signature,
	}
	if value != nil {
		f.Value = formatValue(value)
	}
	return &memberCollector{finish: func(annos []AnnotationSummary) {
		f.Annotations = annos
		c.summary.Fields = append(c.summary.Fields, f)
	}}
}

func (c *Collector) VisitMethod(access uint32, name, desc, signature string, exceptions []string) classfile.MethodVisitor {
	m := MethodSummary{
		Name:       name,
		Descriptor: desc,
		Flags:      MethodFlagNames(access),
		Signature:  signature,
		Exceptions: exceptions,
	}
	return &memberCollector{finish: func(annos []AnnotationSummary) {
		m.Annotations = annos
		c.summary.Methods = append(c.summary.Methods, m)
	}}
}

func (c *Collector) VisitEnd() {}

// memberCollector gathers one member's annotations and commits the member on
// VisitEnd, so a member only appears in the summary once it is complete.
type memberCollector struct {
	annotations []AnnotationSummary
	finish      func([]AnnotationSummary)
}

func (m *memberCollector) VisitAnnotation(desc string, visible bool) classfile.AnnotationVisitor {
	return &elementCollector{finish: func(elems []ElementSummary) {
		m.annotations = append(m.annotations, AnnotationSummary{
			Descriptor: desc,
			Visible:    visible,
			Elements:   elems,
		})
	}}
}

func (m *memberCollector) VisitEnd() {
	if m.finish != nil {
		m.finish(m.annotations)
	}
}

type elementCollector struct {
	elements []ElementSummary
	finish   func([]ElementSummary)
}

func (e *elementCollector) VisitValue(name string, value interface{}) {
	e.elements = append(e.elements, ElementSummary{Name: name, Kind: "value", Value: formatValue(value)})
}

func (e *elementCollector) VisitEnum(name, desc, value string) {
	e.elements = append(e.elements, ElementSummary{Name: name, Kind: "enum", Value: desc + "." + value})
}

func (e *elementCollector) VisitAnnotation(name, desc string) classfile.AnnotationVisitor {
	return &elementCollector{finish: func(elems []ElementSummary) {
		e.elements = append(e.elements, ElementSummary{Name: name, Kind: "annotation", Value: desc, Elements: elems})
	}}
}

func (e *elementCollector) VisitArray(name string) classfile.AnnotationVisitor {
	return &elementCollector{finish: func(elems []ElementSummary) {
		e.elements = append(e.elements, ElementSummary{Name: name, Kind: "array", Elements: elems})
	}}
}

func (e *elementCollector) VisitEnd() {
	if e.finish != nil {
		e.finish(e.elements)
	}
}
