package vm

import (
	"encoding/binary"
	"strings"
)

// PrintTable renders a fixed-width/height table of ZSCII bytes starting
// at baddr as text, skip extra bytes between rows (Z-Machine's
// PRINT_TABLE opcode). height of 0 means "print every full row the
// table holds". Returns "" if baddr is out of range.
func (v *VM) PrintTable(baddr uint32, width uint16, height uint16, skip uint16) string {
	if baddr >= uint32(len(v.storyData)) {
		return ""
	}
	numBytes := v.storyData[baddr]
	if width == 0 {
		return ""
	}

	var s strings.Builder
	for i := uint16(0); i < uint16(numBytes); i++ {
		row := i / width
		col := i % width

		if col == 0 && row != 0 {
			s.WriteByte('\n')
			if height != 0 && row == height {
				break
			}
		}

		offset := baddr + uint32(i) + uint32(skip*row)
		if offset >= uint32(len(v.storyData)) {
			break
		}
		s.WriteByte(v.storyData[offset])
	}
	return s.String()
}

// ScanTable searches length entries of the given field size starting
// at baddr for one equal to test, returning the address of the first
// match or 0 if none is found (Z-Machine's SCAN_TABLE opcode). form's
// low 7 bits are the field size in bytes; its high bit selects
// word-sized (2-byte) comparison over the field's leading bytes.
func (v *VM) ScanTable(test uint16, baddr uint32, length uint16, form uint16) uint32 {
	fieldSize := form & 0b0111_1111
	checkWord := form&0b1000_0000 != 0
	if fieldSize == 0 {
		return 0
	}

	ptr := baddr
	for i := uint16(0); i < length; i++ {
		if checkWord {
			if ptr+2 > uint32(len(v.storyData)) {
				return 0
			}
			if binary.BigEndian.Uint16(v.storyData[ptr:ptr+2]) == test {
				return ptr
			}
		} else {
			if ptr >= uint32(len(v.storyData)) {
				return 0
			}
			if uint16(v.storyData[ptr]) == test {
				return ptr
			}
		}
		ptr += uint32(fieldSize)
	}
	return 0
}

// CopyTable copies size bytes from first to second (Z-Machine's
// COPY_TABLE opcode). second == 0 zeroes the first table instead of
// copying. A positive size copies through a temporary buffer so an
// overlapping destination can't corrupt the source mid-copy; a
// negative size (abs value used as the length) copies byte-by-byte in
// ascending order, permitting that corruption deliberately, matching
// the opcode's documented semantics for overlapping regions. Out-of-range
// accesses are silently clamped to the available memory instead of
// panicking, consistent with GetVariable's zero-on-out-of-range stance.
func (v *VM) CopyTable(first uint16, second uint16, size int16) {
	sizeAbs := uint16(size)
	if size < 0 {
		sizeAbs = uint16(-size)
	}
	clamp := func(addr uint16) uint16 {
		if uint32(addr) > uint32(len(v.storyData)) {
			return uint16(len(v.storyData))
		}
		return addr
	}

	switch {
	case second == 0:
		end := clamp(first + sizeAbs)
		for i := first; i < end; i++ {
			v.storyData[i] = 0
		}
	case size >= 0:
		srcEnd := clamp(first + sizeAbs)
		tmp := make([]byte, srcEnd-first)
		copy(tmp, v.storyData[first:srcEnd])
		dstEnd := clamp(second + uint16(len(tmp)))
		copy(v.storyData[second:dstEnd], tmp)
	default:
		end := clamp(first + sizeAbs)
		for i := uint16(0); first+i < end; i++ {
			dst := second + i
			if uint32(dst) >= uint32(len(v.storyData)) {
				break
			}
			v.storyData[dst] = v.storyData[first+i]
		}
	}
}
