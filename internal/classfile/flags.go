package classfile

// Access flags as defined by the class-file format. Flags sharing a bit are
// distinguished by context: AccSuper/AccSynchronized, AccVolatile/AccBridge,
// AccTransient/AccVarargs.
const (
	AccPublic       uint32 = 0x0001
	AccPrivate      uint32 = 0x0002
	AccProtected    uint32 = 0x0004
	AccStatic       uint32 = 0x0008
	AccFinal        uint32 = 0x0010
	AccSuper        uint32 = 0x0020
	AccSynchronized uint32 = 0x0020
	AccVolatile     uint32 = 0x0040
	AccBridge       uint32 = 0x0040
	AccTransient    uint32 = 0x0080
	AccVarargs      uint32 = 0x0080
	AccNative       uint32 = 0x0100
	AccInterface    uint32 = 0x0200
	AccAbstract     uint32 = 0x0400
	AccStrict       uint32 = 0x0800
	AccSynthetic    uint32 = 0x1000
	AccAnnotation   uint32 = 0x2000
	AccEnum         uint32 = 0x4000
)

// IsPrivate reports whether access carries the private flag.
func IsPrivate(access uint32) bool {
	return access&AccPrivate != 0
}

// IsBridge reports whether access carries the bridge flag. Only meaningful
// for method access values.
func IsBridge(access uint32) bool {
	return access&AccBridge != 0
}

// IsSynthetic reports whether access carries the synthetic flag.
func IsSynthetic(access uint32) bool {
	return access&AccSynthetic != 0
}

// PackVersion combines the class-file minor and major version words into the
// single version value carried by VisitHeader.
func PackVersion(minor, major uint16) uint32 {
	return uint32(minor)<<16 | uint32(major)
}

// MajorVersion extracts the major version word from a packed version.
func MajorVersion(version uint32) uint16 {
	return uint16(version)
}

// MinorVersion extracts the minor version word from a packed version.
func MinorVersion(version uint32) uint16 {
	return uint16(version >> 16)
}
