// Package zversion centralizes the per-version constants (max memory,
// object-entry size, attribute count, property range, feature flags,
// packed-address divisor) that the encoder, memlayout, and vm packages
// all need to stay consistent with each other.
package zversion

// Version identifies a Z-Machine story file format revision, 3 through 8.
type Version uint8

const (
	V3 Version = 3
	V4 Version = 4
	V5 Version = 5
	V6 Version = 6
	V7 Version = 7
	V8 Version = 8
)

// Valid reports whether v is a supported story file version.
func (v Version) Valid() bool {
	return v >= V3 && v <= V8
}

// MaxMemorySize returns the maximum story-file size, in bytes, allowed
// for v: 128 KiB for v3, 256 KiB for v4/v5, 512 KiB for v6/v7/v8.
func MaxMemorySize(v Version) int {
	switch {
	case v <= V3:
		return 128 * 1024
	case v <= V5:
		return 256 * 1024
	default:
		return 512 * 1024
	}
}

// ObjectEntrySize returns the number of bytes in one object-table entry:
// 9 on v3, 14 on v4+.
func (v Version) ObjectEntrySize() int {
	if v <= V3 {
		return 9
	}
	return 14
}

// PropertyDefaultsCount returns the number of property-default words
// preceding the object entries: 31 on v3, 63 on v4+.
func (v Version) PropertyDefaultsCount() int {
	if v <= V3 {
		return 31
	}
	return 63
}

// AttributeCount returns the number of object attribute flags: 32 on v3,
// 48 on v4+.
func (v Version) AttributeCount() int {
	if v <= V3 {
		return 32
	}
	return 48
}

// MaxPropertyNumber returns the highest legal property number: 31 on v3,
// 63 on v4+.
func (v Version) MaxPropertyNumber() int {
	if v <= V3 {
		return 31
	}
	return 63
}

// PackedAddressDivisor returns the divisor used to pack/unpack a byte
// address for this version: 2 for v3, 4 for v4/v5/v7/v8, 8 for v6.
func (v Version) PackedAddressDivisor() uint32 {
	switch v {
	case V3:
		return 2
	case V6:
		return 8
	default:
		return 4
	}
}

// FileLengthDivisor returns the divisor applied to the header's file
// length field: x2 for v3, x4 for v4/v5, x8 for v6+.
func (v Version) FileLengthDivisor() uint32 {
	switch {
	case v <= V3:
		return 2
	case v <= V5:
		return 4
	default:
		return 8
	}
}

// HasSound reports whether v supports the SOUND_EFFECT opcode family (v4+).
func (v Version) HasSound() bool { return v >= V4 }

// HasColor reports whether v supports foreground/background color (v5+).
func (v Version) HasColor() bool { return v >= V5 }

// HasGraphics reports whether v supports the picture opcodes (v6 only).
func (v Version) HasGraphics() bool { return v == V6 }

// HasUnicode reports whether v supports the Unicode extension opcodes (v5+).
func (v Version) HasUnicode() bool { return v >= V5 }

// HasExtendedInstructions reports whether v supports extended-form opcodes (v5+).
func (v Version) HasExtendedInstructions() bool { return v >= V5 }

// Address is a memory address that may be stored packed (divided by the
// version's packed-address divisor) or raw.
type Address struct {
	Raw    uint32
	Packed bool
}

// Pack divides raw by v's packed-address divisor.
func Pack(v Version, raw uint32) Address {
	return Address{Raw: raw / v.PackedAddressDivisor(), Packed: true}
}

// Unpack multiplies a packed address back to a byte address.
func Unpack(v Version, packed uint32) Address {
	return Address{Raw: packed * v.PackedAddressDivisor(), Packed: false}
}

// Value returns the address's raw numeric form, whatever its Packed state.
func (a Address) Value() uint32 { return a.Raw }
