// Package dump renders a class's extracted surface for people and tools:
// Printer produces stable indented text, Collector produces summary values
// for JSON or YAML output. Both are plain visitors; drive them from a mirror
// replay to get canonical ordering.
package dump

import (
	"fmt"
	"strconv"
	"strings"

	"jabi/internal/classfile"
)

// Printer is a ClassVisitor that renders the class as indented text. The
// output is line oriented and stable, so two dumps can be diffed directly.
type Printer struct {
	b strings.Builder
}

func NewPrinter() *Printer {
	return &Printer{}
}

// String returns the text rendered so far.
func (p *Printer) String() string {
	return p.b.String()
}

func (p *Printer) linef(depth int, format string, args ...interface{}) {
	p.b.WriteString(strings.Repeat("  ", depth))
	fmt.Fprintf(&p.b, format, args...)
	p.b.WriteByte('\n')
}

func (p *Printer) VisitHeader(version, access uint32, name, signature, superName string, interfaces []string) {
	p.linef(0, "class %s", name)
	p.linef(1, "version: %d.%d", classfile.MajorVersion(version), classfile.MinorVersion(version))
	if flags := ClassFlagNames(access); len(flags) > 0 {
		p.linef(1, "flags: %s", strings.Join(flags, " "))
	}
	if signature != "" {
		p.linef(1, "signature: %s", signature)
	}
	if superName != "" {
		p.linef(1, "extends: %s", superName)
	}
	if len(interfaces) > 0 {
		p.linef(1, "implements: %s", strings.Join(interfaces, ", "))
	}
}

func (p *Printer) VisitAnnotation(desc string, visible bool) classfile.AnnotationVisitor {
	p.linef(1, "annotation %s %s", desc, visibility(visible))
	return annPrinter{p: p, depth: 2}
}

func (p *Printer) VisitField(access uint32, name, desc, signature string, value interface{}) classfile.FieldVisitor {
	p.linef(1, "field %s %s", name, desc)
	if flags := FieldFlagNames(access); len(flags) > 0 {
		p.linef(2, "flags: %s", strings.Join(flags, " "))
	}
	if signature != "" {
		p.linef(2, "signature: %s", signature)
	}
	if value != nil {
		p.linef(2, "value: %s", formatValue(value))
	}
	return memberPrinter{p: p}
}

func (p *Printer) VisitMethod(access uint32, name, desc, signature string, exceptions []string) classfile.MethodVisitor {
	p.linef(1, "method %s %s", name, desc)
	if flags := MethodFlagNames(access); len(flags) > 0 {
		p.linef(2, "flags: %s", strings.Join(flags, " "))
	}
	if signature != "" {
		p.linef(2, "signature: %s", signature)
	}
	if len(exceptions) > 0 {
		p.linef(2, "throws: %s", strings.Join(exceptions, ", "))
	}
	return memberPrinter{p: p}
}

func (p *Printer) VisitEnd() {}

func visibility(visible bool) string {
	if visible {
		return "(visible)"
	}
	return "(invisible)"
}

type memberPrinter struct {
	p *Printer
}

func (m memberPrinter) VisitAnnotation(desc string, visible bool) classfile.AnnotationVisitor {
	m.p.linef(2, "annotation %s %s", desc, visibility(visible))
	return annPrinter{p: m.p, depth: 3}
}

func (m memberPrinter) VisitEnd() {}

type annPrinter struct {
	p     *Printer
	depth int
}

// entry renders one element line; array items arrive with an empty name.
func (a annPrinter) entry(name, text string) {
	if name == "" {
		a.p.linef(a.depth, "- %s", text)
	} else {
		a.p.linef(a.depth, "%s = %s", name, text)
	}
}

func (a annPrinter) VisitValue(name string, value interface{}) {
	a.entry(name, formatValue(value))
}

func (a annPrinter) VisitEnum(name, desc, value string) {
	a.entry(name, fmt.Sprintf("enum %s.%s", desc, value))
}

func (a annPrinter) VisitAnnotation(name, desc string) classfile.AnnotationVisitor {
	a.entry(name, "@"+desc)
	return annPrinter{p: a.p, depth: a.depth + 1}
}

func (a annPrinter) VisitArray(name string) classfile.AnnotationVisitor {
	a.entry(name, "array")
	return annPrinter{p: a.p, depth: a.depth + 1}
}

func (a annPrinter) VisitEnd() {}

// formatValue renders a constant value; strings are quoted so lines stay
// unambiguous.
func formatValue(v interface{}) string {
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
