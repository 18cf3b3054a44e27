package mirror

import (
	"strings"
	"testing"

	"jabi/internal/classfile"
)

func TestAnnotationElementsKeepArrivalOrder(t *testing.T) {
	c := newPopulatedMirror("com/example/E.class")
	a := c.VisitAnnotation("Lcom/example/Anno;", true)
	a.VisitValue("z", int32(1))
	a.VisitValue("a", int32(2))
	a.VisitEnum("m", "Lcom/example/Kind;", "LEFT")
	a.VisitEnd()
	c.VisitEnd()

	events := replayEvents(c)
	var elems []string
	for _, e := range events {
		if strings.HasPrefix(e, "value ") || strings.HasPrefix(e, "enum ") {
			elems = append(elems, e)
		}
	}

	want := []string{"value z=1", "value a=2", "enum m=Lcom/example/Kind;.LEFT"}
	if len(elems) != len(want) {
		t.Fatalf("replay elements = %v, want %v", elems, want)
	}
	for i := range want {
		if elems[i] != want[i] {
			t.Errorf("element position %d = %s, want %s", i, elems[i], want[i])
		}
	}
}

func TestAnnotationNestedShapes(t *testing.T) {
	c := newPopulatedMirror("com/example/N.class")
	a := c.VisitAnnotation("Lcom/example/Outer;", true)

	nested := a.VisitAnnotation("inner", "Lcom/example/Inner;")
	nested.VisitValue("v", "deep")
	nested.VisitEnd()

	arr := a.VisitArray("tags")
	arr.VisitValue("", "one")
	inner := arr.VisitAnnotation("", "Lcom/example/Tag;")
	inner.VisitValue("n", int32(3))
	inner.VisitEnd()
	arr.VisitEnd()

	a.VisitEnd()
	c.VisitEnd()

	events := replayEvents(c)
	want := []string{
		"annotation Lcom/example/Outer; visible=true",
		"nested inner Lcom/example/Inner;",
		"value v=deep",
		`array "tags"`,
		"value =one",
		"nested  Lcom/example/Tag;",
		"value n=3",
	}
	var got []string
	for _, e := range events {
		for _, w := range want {
			if e == w {
				got = append(got, e)
				break
			}
		}
	}
	if len(got) != len(want) {
		t.Fatalf("replay events = %v, want to contain %v in order", events, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event position %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestAnnotationCanonicalOrder(t *testing.T) {
	c := newPopulatedMirror("com/example/O.class")
	c.VisitAnnotation("Lcom/example/Beta;", false).VisitEnd()
	c.VisitAnnotation("Lcom/example/Beta;", true).VisitEnd()
	c.VisitAnnotation("Lcom/example/Alpha;", false).VisitEnd()
	c.VisitEnd()

	l := &replayLog{}
	c.Replay(logClass{l})
	annos := l.withPrefix("annotation ")

	want := []string{
		"annotation Lcom/example/Alpha; visible=false",
		"annotation Lcom/example/Beta; visible=true",
		"annotation Lcom/example/Beta; visible=false",
	}
	if len(annos) != len(want) {
		t.Fatalf("replay annotations = %v, want %v", annos, want)
	}
	for i := range want {
		if annos[i] != want[i] {
			t.Errorf("annotation position %d = %s, want %s", i, annos[i], want[i])
		}
	}
}

func TestInvisibleAnnotationsRetained(t *testing.T) {
	c := newPopulatedMirror("com/example/V.class")
	c.VisitAnnotation("Lcom/example/SourceOnly;", false).VisitEnd()

	fv := c.VisitField(classfile.AccPublic, "f", "I", "", nil)
	fv.VisitAnnotation("Lcom/example/SourceOnly;", false).VisitEnd()
	fv.VisitEnd()

	mv := c.VisitMethod(classfile.AccPublic, "m", "()V", "", nil)
	mv.VisitAnnotation("Lcom/example/SourceOnly;", false).VisitEnd()
	mv.VisitEnd()

	c.VisitEnd()

	events := replayEvents(c)
	var count int
	for _, e := range events {
		if strings.Contains(e, "Lcom/example/SourceOnly; visible=false") {
			count++
		}
	}
	if count != 3 {
		t.Errorf("invisible annotations should be retained on class, field and method, found %d of 3:\n%s",
			count, strings.Join(events, "\n"))
	}
}

func TestMemberAnnotationsSorted(t *testing.T) {
	c := newPopulatedMirror("com/example/S.class")
	fv := c.VisitField(classfile.AccPublic, "f", "I", "", nil)
	fv.VisitAnnotation("Lcom/example/Zeta;", true).VisitEnd()
	fv.VisitAnnotation("Lcom/example/Alpha;", true).VisitEnd()
	fv.VisitEnd()
	c.VisitEnd()

	l := &replayLog{}
	c.Replay(logClass{l})
	annos := l.withPrefix("member-annotation ")

	want := []string{
		"member-annotation Lcom/example/Alpha; visible=true",
		"member-annotation Lcom/example/Zeta; visible=true",
	}
	if len(annos) != len(want) {
		t.Fatalf("member annotations = %v, want %v", annos, want)
	}
	for i := range want {
		if annos[i] != want[i] {
			t.Errorf("member annotation position %d = %s, want %s", i, annos[i], want[i])
		}
	}
}
