package dump

import "jabi/internal/classfile"

type flagName struct {
	bit  uint32
	name string
}

// Flag names are context dependent: the same bit reads super on a class,
// synchronized on a method.
var classFlags = []flagName{
	{classfile.AccPublic, "public"},
	{classfile.AccFinal, "final"},
	{classfile.AccSuper, "super"},
	{classfile.AccInterface, "interface"},
	{classfile.AccAbstract, "abstract"},
	{classfile.AccSynthetic, "synthetic"},
	{classfile.AccAnnotation, "annotation"},
	{classfile.AccEnum, "enum"},
}

var fieldFlags = []flagName{
	{classfile.AccPublic, "public"},
	{classfile.AccPrivate, "private"},
	{classfile.AccProtected, "protected"},
	{classfile.AccStatic, "static"},
	{classfile.AccFinal, "final"},
	{classfile.AccVolatile, "volatile"},
	{classfile.AccTransient, "transient"},
	{classfile.AccSynthetic, "synthetic"},
	{classfile.AccEnum, "enum"},
}

var methodFlags = []flagName{
	{classfile.AccPublic, "public"},
	{classfile.AccPrivate, "private"},
	{classfile.AccProtected, "protected"},
	{classfile.AccStatic, "static"},
	{classfile.AccFinal, "final"},
	{classfile.AccSynchronized, "synchronized"},
	{classfile.AccBridge, "bridge"},
	{classfile.AccVarargs, "varargs"},
	{classfile.AccNative, "native"},
	{classfile.AccAbstract, "abstract"},
	{classfile.AccStrict, "strict"},
	{classfile.AccSynthetic, "synthetic"},
}

// ClassFlagNames expands a class access mask into flag names in bit order.
func ClassFlagNames(access uint32) []string {
	return names(classFlags, access)
}

// FieldFlagNames expands a field access mask into flag names in bit order.
func FieldFlagNames(access uint32) []string {
	return names(fieldFlags, access)
}

// MethodFlagNames expands a method access mask into flag names in bit order.
func MethodFlagNames(access uint32) []string {
	return names(methodFlags, access)
}

func names(table []flagName, access uint32) []string {
	var out []string
	for _, f := range table {
		if access&f.bit != 0 {
			out = append(out, f.name)
		}
	}
	return out
}
