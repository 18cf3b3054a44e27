// Package stubcodec implements the default classfile codec: a compact,
// deterministic binary encoding of the class traversal events themselves.
//
// A class stub is the event stream written down in order:
//
//	magic "JABS", format version byte
//	header   0x01  version access name signature superName interfaces
//	annot    0x02  desc visible        (opens an annotation scope)
//	field    0x03  access name desc signature value   (opens a field scope)
//	method   0x04  access name desc signature exceptions  (opens a method scope)
//	end      0x05  closes the innermost open scope; at class level it ends the stub
//	value    0x06  name value          (inside annotation or array scopes)
//	enum     0x07  name desc value
//	nested   0x08  name desc           (opens a nested annotation scope)
//	array    0x09  name                (opens an array scope)
//
// Strings carry a uvarint length; integers use varints; floats are stored as
// their IEEE bit patterns. Identical event sequences always encode to
// identical bytes: there are no maps, no timestamps, and no padding.
//
// The format says nothing about the class-file grammar. It exists so the
// tool is usable end to end without a real bytecode codec; an embedding
// build system installs one through the classfile registry.
package stubcodec

import (
	"jabi/internal/classfile"
)

// Name is the codec's name in the classfile registry.
const Name = "stub"

var (
	magic = [4]byte{'J', 'A', 'B', 'S'}
)

// formatVersion is bumped on incompatible changes to the stub encoding.
const formatVersion byte = 1

// Event tags. end closes whichever scope is innermost.
const (
	evHeader     byte = 0x01
	evAnnotation byte = 0x02
	evField      byte = 0x03
	evMethod     byte = 0x04
	evEnd        byte = 0x05
	evElemValue  byte = 0x06
	evElemEnum   byte = 0x07
	evElemNested byte = 0x08
	evElemArray  byte = 0x09
)

// Value tags.
const (
	valNil    byte = 0x00
	valBool   byte = 0x01
	valByte   byte = 0x02
	valShort  byte = 0x03
	valChar   byte = 0x04
	valInt    byte = 0x05
	valLong   byte = 0x06
	valFloat  byte = 0x07
	valDouble byte = 0x08
	valString byte = 0x09
)

type codec struct{}

// New returns the stub codec. The package also registers it under Name at
// init, so most callers reach it through classfile.Lookup.
func New() classfile.Codec {
	return codec{}
}

func init() {
	classfile.Register(codec{})
}

func (codec) Name() string {
	return Name
}

func (codec) Decode(data []byte, v classfile.ClassVisitor) error {
	return decode(data, v)
}

func (codec) NewBuilder() classfile.Builder {
	return newBuilder()
}
