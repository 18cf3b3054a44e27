package mirror

import (
	"sort"
)

// SortClasses sorts class mirrors by archive entry name ASC. Entry name is
// the natural order between classes; the archive writer expects entries in
// exactly this order.
func SortClasses(classes []*ClassMirror) {
	sort.SliceStable(classes, func(i, j int) bool {
		return classes[i].entryName < classes[j].entryName
	})
}

// sorted returns the set's annotations in canonical order.
func (s annotationSet) sorted() []*AnnotationMirror {
	out := make([]*AnnotationMirror, 0, len(s))
	for _, a := range s {
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		// Primary: descriptor ASC
		if out[i].desc != out[j].desc {
			return out[i].desc < out[j].desc
		}
		// Secondary: runtime-visible before invisible
		return out[i].visible && !out[j].visible
	})
	return out
}

// sortFields returns the fields in canonical order.
func sortFields(fields map[memberKey]*FieldMirror) []*FieldMirror {
	out := make([]*FieldMirror, 0, len(fields))
	for _, f := range fields {
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool {
		// Primary: name ASC
		if out[i].name != out[j].name {
			return out[i].name < out[j].name
		}
		// Secondary: descriptor ASC
		return out[i].desc < out[j].desc
	})
	return out
}

// sortMethods returns the methods in canonical order.
func sortMethods(methods map[memberKey]*MethodMirror) []*MethodMirror {
	out := make([]*MethodMirror, 0, len(methods))
	for _, m := range methods {
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		// Primary: name ASC
		if out[i].name != out[j].name {
			return out[i].name < out[j].name
		}
		// Secondary: descriptor ASC
		return out[i].desc < out[j].desc
	})
	return out
}
