package mirror

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"jabi/internal/classfile"
	"jabi/internal/stubcodec"
)

// replayLog flattens a replay into event strings for order assertions.
type replayLog struct {
	events []string
}

func (l *replayLog) add(s string) {
	l.events = append(l.events, s)
}

func (l *replayLog) withPrefix(prefix string) []string {
	var out []string
	for _, e := range l.events {
		if strings.HasPrefix(e, prefix) {
			out = append(out, e)
		}
	}
	return out
}

type logClass struct {
	l *replayLog
}

func (v logClass) VisitHeader(version, access uint32, name, signature, superName string, interfaces []string) {
	v.l.add(fmt.Sprintf("class %s version=%d access=%#x super=%s ifaces=%v", name, version, access, superName, interfaces))
}

func (v logClass) VisitAnnotation(desc string, visible bool) classfile.AnnotationVisitor {
	v.l.add(fmt.Sprintf("annotation %s visible=%v", desc, visible))
	return logAnnotation{v.l}
}

func (v logClass) VisitField(access uint32, name, desc, signature string, value interface{}) classfile.FieldVisitor {
	v.l.add(fmt.Sprintf("field %s %s access=%#x value=%v", name, desc, access, value))
	return logMember{v.l}
}

func (v logClass) VisitMethod(access uint32, name, desc, signature string, exceptions []string) classfile.MethodVisitor {
	v.l.add(fmt.Sprintf("method %s %s access=%#x throws=%v", name, desc, access, exceptions))
	return logMember{v.l}
}

func (v logClass) VisitEnd() {
	v.l.add("end")
}

type logMember struct {
	l *replayLog
}

func (v logMember) VisitAnnotation(desc string, visible bool) classfile.AnnotationVisitor {
	v.l.add(fmt.Sprintf("member-annotation %s visible=%v", desc, visible))
	return logAnnotation{v.l}
}

func (v logMember) VisitEnd() {}

type logAnnotation struct {
	l *replayLog
}

func (v logAnnotation) VisitValue(name string, value interface{}) {
	v.l.add(fmt.Sprintf("value %s=%v", name, value))
}

func (v logAnnotation) VisitEnum(name, desc, value string) {
	v.l.add(fmt.Sprintf("enum %s=%s.%s", name, desc, value))
}

func (v logAnnotation) VisitAnnotation(name, desc string) classfile.AnnotationVisitor {
	v.l.add(fmt.Sprintf("nested %s %s", name, desc))
	return logAnnotation{v.l}
}

func (v logAnnotation) VisitArray(name string) classfile.AnnotationVisitor {
	v.l.add(fmt.Sprintf("array %q", name))
	return logAnnotation{v.l}
}

func (v logAnnotation) VisitEnd() {}

func replayEvents(c *ClassMirror) []string {
	l := &replayLog{}
	c.Replay(logClass{l})
	return l.events
}

func newPopulatedMirror(entry string) *ClassMirror {
	c := NewClassMirror(entry)
	c.VisitHeader(52, classfile.AccPublic|classfile.AccSuper, strings.TrimSuffix(entry, ".class"), "", "java/lang/Object", nil)
	return c
}

func TestFieldPrivacyFiltering(t *testing.T) {
	c := newPopulatedMirror("com/example/A.class")
	c.VisitField(classfile.AccPublic, "a", "I", "", nil).VisitEnd()
	c.VisitField(classfile.AccPrivate, "b", "I", "", nil).VisitEnd()
	c.VisitField(classfile.AccProtected, "c", "I", "", nil).VisitEnd()
	c.VisitEnd()

	l := &replayLog{}
	c.Replay(logClass{l})
	fields := l.withPrefix("field ")

	if len(fields) != 2 {
		t.Fatalf("replay emitted %d fields, want 2: %v", len(fields), fields)
	}
	if !strings.HasPrefix(fields[0], "field a ") || !strings.HasPrefix(fields[1], "field c ") {
		t.Errorf("replay should keep a and c only, got %v", fields)
	}
}

func TestMethodFiltering(t *testing.T) {
	tests := []struct {
		name   string
		access uint32
		kept   bool
	}{
		{name: "public", access: classfile.AccPublic, kept: true},
		{name: "package private", access: 0, kept: true},
		{name: "protected", access: classfile.AccProtected, kept: true},
		{name: "private", access: classfile.AccPrivate, kept: false},
		{name: "bridge", access: classfile.AccPublic | classfile.AccBridge, kept: false},
		{name: "private bridge", access: classfile.AccPrivate | classfile.AccBridge, kept: false},
		{name: "synthetic", access: classfile.AccPublic | classfile.AccSynthetic, kept: true},
		{name: "synthetic bridge", access: classfile.AccPublic | classfile.AccSynthetic | classfile.AccBridge, kept: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newPopulatedMirror("com/example/M.class")
			mv := c.VisitMethod(tc.access, "m", "()V", "", nil)
			if mv == nil {
				t.Fatal("VisitMethod must return a usable visitor even for dropped methods")
			}
			mv.VisitEnd()
			c.VisitEnd()

			l := &replayLog{}
			c.Replay(logClass{l})
			methods := l.withPrefix("method ")

			if tc.kept && len(methods) != 1 {
				t.Errorf("method with access %#x should be kept, replay had %v", tc.access, methods)
			}
			if !tc.kept && len(methods) != 0 {
				t.Errorf("method with access %#x should be dropped, replay had %v", tc.access, methods)
			}
		})
	}
}

func TestDiscardedMemberEventsVanish(t *testing.T) {
	c := newPopulatedMirror("com/example/P.class")

	fv := c.VisitField(classfile.AccPrivate, "secret", "J", "", int64(1))
	fa := fv.VisitAnnotation("Lcom/example/Hidden;", true)
	fa.VisitValue("x", int32(1))
	fa.VisitEnd()
	fv.VisitEnd()

	mv := c.VisitMethod(classfile.AccPrivate, "helper", "()V", "", nil)
	mv.VisitAnnotation("Lcom/example/Hidden;", true).VisitEnd()
	mv.VisitEnd()

	c.VisitEnd()

	events := replayEvents(c)
	for _, e := range events {
		if strings.Contains(e, "Hidden") || strings.Contains(e, "secret") || strings.Contains(e, "helper") {
			t.Errorf("event from a discarded member leaked into replay: %s", e)
		}
	}
}

func TestMemberOrderIndependence(t *testing.T) {
	build := func(reversed bool) *ClassMirror {
		c := newPopulatedMirror("com/example/Perm.class")

		add := []func(){
			func() {
				a := c.VisitAnnotation("Lcom/example/Zeta;", true)
				a.VisitValue("n", int32(1))
				a.VisitEnd()
			},
			func() { c.VisitAnnotation("Lcom/example/Alpha;", false).VisitEnd() },
			func() { c.VisitField(classfile.AccPublic, "b", "I", "", nil).VisitEnd() },
			func() { c.VisitField(classfile.AccPublic, "a", "Ljava/lang/String;", "", "x").VisitEnd() },
			func() { c.VisitMethod(classfile.AccPublic, "n", "(J)V", "", nil).VisitEnd() },
			func() { c.VisitMethod(classfile.AccPublic, "n", "(I)V", "", nil).VisitEnd() },
			func() {
				c.VisitMethod(classfile.AccPublic, "m", "()V", "", []string{"java/io/IOException"}).VisitEnd()
			},
		}
		if reversed {
			for i := len(add) - 1; i >= 0; i-- {
				add[i]()
			}
		} else {
			for _, f := range add {
				f()
			}
		}
		c.VisitEnd()
		return c
	}

	codec := stubcodec.New()
	forward, err := build(false).Bytes(codec)
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	backward, err := build(true).Bytes(codec)
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}

	if !bytes.Equal(forward, backward) {
		t.Error("serialized bytes should not depend on member arrival order")
	}

	events := replayEvents(build(true))
	var members []string
	for _, e := range events {
		switch {
		case strings.HasPrefix(e, "annotation "):
			members = append(members, "@"+strings.Fields(e)[1])
		case strings.HasPrefix(e, "field "):
			members = append(members, "f:"+strings.Fields(e)[1]+strings.Fields(e)[2])
		case strings.HasPrefix(e, "method "):
			members = append(members, "m:"+strings.Fields(e)[1]+strings.Fields(e)[2])
		}
	}
	want := []string{
		"@Lcom/example/Alpha;",
		"@Lcom/example/Zeta;",
		"f:aLjava/lang/String;",
		"f:bI",
		"m:m()V",
		"m:n(I)V",
		"m:n(J)V",
	}
	if len(members) != len(want) {
		t.Fatalf("replay members = %v, want %v", members, want)
	}
	for i := range want {
		if members[i] != want[i] {
			t.Errorf("replay position %d = %s, want %s", i, members[i], want[i])
		}
	}
}

func TestDuplicateOrderingKeyFirstWins(t *testing.T) {
	c := newPopulatedMirror("com/example/D.class")

	c.VisitField(classfile.AccPublic, "x", "I", "", int32(1)).VisitEnd()
	second := c.VisitField(classfile.AccProtected, "x", "I", "", int32(2))
	second.VisitAnnotation("Lcom/example/Late;", true).VisitEnd()
	second.VisitEnd()

	c.VisitMethod(classfile.AccPublic, "m", "()V", "", nil).VisitEnd()
	c.VisitMethod(classfile.AccProtected|classfile.AccFinal, "m", "()V", "", nil).VisitEnd()

	first := c.VisitAnnotation("Lcom/example/Anno;", true)
	first.VisitValue("v", int32(1))
	first.VisitEnd()
	dup := c.VisitAnnotation("Lcom/example/Anno;", true)
	dup.VisitValue("v", int32(2))
	dup.VisitEnd()

	c.VisitEnd()

	events := replayEvents(c)

	var fields, methods, values []string
	for _, e := range events {
		switch {
		case strings.HasPrefix(e, "field "):
			fields = append(fields, e)
		case strings.HasPrefix(e, "method "):
			methods = append(methods, e)
		case strings.HasPrefix(e, "value "):
			values = append(values, e)
		}
	}

	if len(fields) != 1 || !strings.Contains(fields[0], fmt.Sprintf("access=%#x", classfile.AccPublic)) || !strings.Contains(fields[0], "value=1") {
		t.Errorf("first field for key (x, I) should win, got %v", fields)
	}
	if len(methods) != 1 || !strings.Contains(methods[0], fmt.Sprintf("access=%#x", classfile.AccPublic)) {
		t.Errorf("first method for key (m, ()V) should win, got %v", methods)
	}
	if len(values) != 1 || values[0] != "value v=1" {
		t.Errorf("first annotation for key should win, got %v", values)
	}
	for _, e := range events {
		if strings.Contains(e, "Late") {
			t.Errorf("annotation delivered to a collapsed duplicate leaked into replay: %s", e)
		}
	}
}

func TestSerializationIdempotent(t *testing.T) {
	c := newPopulatedMirror("com/example/I.class")
	c.VisitField(classfile.AccPublic, "a", "I", "", int32(7)).VisitEnd()
	c.VisitMethod(classfile.AccPublic, "m", "()I", "", nil).VisitEnd()
	c.VisitEnd()

	codec := stubcodec.New()
	first, err := c.Bytes(codec)
	if err != nil {
		t.Fatalf("first Bytes failed: %v", err)
	}
	second, err := c.Bytes(codec)
	if err != nil {
		t.Fatalf("second Bytes failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("serialization should be idempotent")
	}
}

func TestRoundTripThroughCodec(t *testing.T) {
	codec := stubcodec.New()

	src := NewClassMirror("com/example/R.class")
	src.VisitHeader(classfile.PackVersion(0, 61), classfile.AccPublic|classfile.AccEnum,
		"com/example/R", "Ljava/lang/Enum<Lcom/example/R;>;", "java/lang/Enum", []string{"java/io/Serializable"})
	a := src.VisitAnnotation("Lcom/example/Anno;", true)
	a.VisitEnum("kind", "Lcom/example/Kind;", "LEFT")
	arr := a.VisitArray("tags")
	arr.VisitValue("", "one")
	arr.VisitValue("", "two")
	arr.VisitEnd()
	a.VisitEnd()
	src.VisitField(classfile.AccPublic|classfile.AccStatic|classfile.AccFinal|classfile.AccEnum,
		"LEFT", "Lcom/example/R;", "", nil).VisitEnd()
	src.VisitMethod(classfile.AccPublic|classfile.AccStatic|classfile.AccSynthetic,
		"values", "()[Lcom/example/R;", "", nil).VisitEnd()
	src.VisitEnd()

	data, err := src.Bytes(codec)
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}

	dst := NewClassMirror(src.EntryName())
	if err := codec.Decode(data, dst); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	again, err := dst.Bytes(codec)
	if err != nil {
		t.Fatalf("Bytes after round trip failed: %v", err)
	}
	if !bytes.Equal(data, again) {
		t.Error("mirror -> codec -> mirror round trip should be byte stable")
	}

	srcEvents := replayEvents(src)
	dstEvents := replayEvents(dst)
	if len(srcEvents) == 0 || len(dstEvents) == 0 || srcEvents[0] != dstEvents[0] {
		t.Errorf("header should survive the round trip\nsrc: %v\ndst: %v", srcEvents[0], dstEvents[0])
	}
}

type captureWriter struct {
	names []string
	data  [][]byte
	err   error
}

func (w *captureWriter) WriteEntry(name string, data []byte) error {
	if w.err != nil {
		return w.err
	}
	w.names = append(w.names, name)
	w.data = append(w.data, data)
	return nil
}

func TestWriteTo(t *testing.T) {
	c := newPopulatedMirror("com/example/W.class")
	c.VisitEnd()

	w := &captureWriter{}
	if err := c.WriteTo(w, stubcodec.New()); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if len(w.names) != 1 || w.names[0] != "com/example/W.class" {
		t.Errorf("WriteTo wrote entries %v, want the mirror's entry name", w.names)
	}
	if len(w.data[0]) == 0 {
		t.Error("WriteTo wrote empty class bytes")
	}

	failing := &captureWriter{err: fmt.Errorf("disk full")}
	if err := c.WriteTo(failing, stubcodec.New()); err == nil {
		t.Error("WriteTo should propagate writer errors")
	}
}

func TestSortClasses(t *testing.T) {
	classes := []*ClassMirror{
		NewClassMirror("b/B.class"),
		NewClassMirror("a/A.class"),
		NewClassMirror("a/A$Inner.class"),
	}
	SortClasses(classes)

	got := []string{classes[0].EntryName(), classes[1].EntryName(), classes[2].EntryName()}
	want := []string{"a/A$Inner.class", "a/A.class", "b/B.class"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SortClasses order = %v, want %v", got, want)
		}
	}
}
