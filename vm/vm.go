// Package vm is the read/write memory surface over a loaded story
// file: header parsing, object/property/table/dictionary access, and
// the memory management invariants a loader needs to check before
// handing a story off to execution.
package vm

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/zengine-project/zengine/zversion"
)

// ErrCorruptedStoryFile is returned by NewVM/LoadStoryFile when the
// input is too short to contain a header or carries an out-of-range
// version byte.
type ErrCorruptedStoryFile struct {
	Reason string
}

func (e ErrCorruptedStoryFile) Error() string {
	return fmt.Sprintf("corrupted story file: %s", e.Reason)
}

const headerSize = 64

// Header is a parsed view over the 64-byte story-file header.
type Header struct {
	Version                zversion.Version
	FlagByte1              uint8
	ReleaseNumber          uint16
	HighMemoryBase         uint16
	InitialPC              uint16
	DictionaryBase         uint16
	ObjectTableBase        uint16
	GlobalVariableBase     uint16
	StaticMemoryBase       uint16
	AbbreviationTableBase  uint16
	FileChecksum           uint16
	RoutinesOffset         uint16
	StringOffset           uint16
	StandardRevisionNumber uint16
	ScreenHeightLines      uint8
	ScreenWidthChars       uint8
}

func parseHeader(storyData []byte) Header {
	return Header{
		Version:                zversion.Version(storyData[0x00]),
		FlagByte1:              storyData[0x01],
		ReleaseNumber:          binary.BigEndian.Uint16(storyData[0x02:0x04]),
		HighMemoryBase:         binary.BigEndian.Uint16(storyData[0x04:0x06]),
		InitialPC:              binary.BigEndian.Uint16(storyData[0x06:0x08]),
		DictionaryBase:         binary.BigEndian.Uint16(storyData[0x08:0x0a]),
		ObjectTableBase:        binary.BigEndian.Uint16(storyData[0x0a:0x0c]),
		GlobalVariableBase:     binary.BigEndian.Uint16(storyData[0x0c:0x0e]),
		StaticMemoryBase:       binary.BigEndian.Uint16(storyData[0x0e:0x10]),
		AbbreviationTableBase:  binary.BigEndian.Uint16(storyData[0x18:0x1a]),
		FileChecksum:           binary.BigEndian.Uint16(storyData[0x1c:0x1e]),
		RoutinesOffset:         binary.BigEndian.Uint16(storyData[0x28:0x2a]),
		StringOffset:           binary.BigEndian.Uint16(storyData[0x2a:0x2c]),
		StandardRevisionNumber: binary.BigEndian.Uint16(storyData[0x32:0x34]),
		ScreenHeightLines:      storyData[0x20],
		ScreenWidthChars:       storyData[0x21],
	}
}

// VM is a loaded story file's memory surface: its parsed header, the
// raw byte image, and the current routine-call state needed to resolve
// variable indices. The zero value is a usable, empty VM whose every
// variable reads 0.
type VM struct {
	header    Header
	storyData []byte

	stack  []uint16
	locals []uint16
}

// LoadStoryFile reads path and calls NewVM on its contents.
func LoadStoryFile(path string) (*VM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("vm: reading story file: %w", err)
	}
	return NewVM(data)
}

// NewVM parses storyData's header and wraps it for variable access.
func NewVM(storyData []byte) (*VM, error) {
	if len(storyData) < headerSize {
		return nil, ErrCorruptedStoryFile{Reason: fmt.Sprintf("file is %d bytes, shorter than the %d-byte header", len(storyData), headerSize)}
	}
	version := zversion.Version(storyData[0])
	if !version.Valid() {
		return nil, ErrCorruptedStoryFile{Reason: fmt.Sprintf("version byte %d is out of the supported 3..8 range", storyData[0])}
	}

	return &VM{
		header:    parseHeader(storyData),
		storyData: storyData,
	}, nil
}

// Header returns the parsed story-file header.
func (v *VM) Header() Header {
	return v.header
}

// StoryData returns the raw byte image backing this VM.
func (v *VM) StoryData() []byte {
	return v.storyData
}

// PushStack pushes a value onto the current routine's evaluation stack.
func (v *VM) PushStack(value uint16) {
	v.stack = append(v.stack, value)
}

// SetLocals replaces the current routine's local-variable slots.
func (v *VM) SetLocals(locals []uint16) {
	v.locals = locals
}

// GetVariable resolves a Z-Machine variable index: 0 pops the current
// routine's evaluation stack (returning 0 without panicking if it is
// empty), 1..15 reads the current routine's local (0 if there is no
// call frame or the index is out of range), and 16..255 reads the
// global variable table. An unloaded (zero-value) VM reads 0 for every
// index.
func (v *VM) GetVariable(index uint8) uint16 {
	switch {
	case index == 0:
		if len(v.stack) == 0 {
			return 0
		}
		top := v.stack[len(v.stack)-1]
		v.stack = v.stack[:len(v.stack)-1]
		return top
	case index < 16:
		slot := int(index) - 1
		if slot < 0 || slot >= len(v.locals) {
			return 0
		}
		return v.locals[slot]
	default:
		if len(v.storyData) == 0 {
			return 0
		}
		offset := uint32(v.header.GlobalVariableBase) + 2*uint32(index-16)
		if offset+2 > uint32(len(v.storyData)) {
			return 0
		}
		return binary.BigEndian.Uint16(v.storyData[offset : offset+2])
	}
}

// ValidateMemoryManagement cross-checks the header's region pointers
// against the story data's length, returning false if any region
// starts beyond the file or the regions are ordered wrong. On a
// zero-value VM the return value is implementation-defined; callers
// must not depend on a specific result in that case.
func (v *VM) ValidateMemoryManagement() bool {
	length := uint32(len(v.storyData))
	if length == 0 {
		return false
	}
	h := v.header
	for _, base := range []uint16{h.DictionaryBase, h.ObjectTableBase, h.GlobalVariableBase, h.StaticMemoryBase} {
		if uint32(base) >= length {
			return false
		}
	}
	if h.GlobalVariableBase > h.StaticMemoryBase {
		return false
	}
	if h.ObjectTableBase > h.StaticMemoryBase {
		return false
	}
	return true
}

// MaxMemorySize returns the maximum story-file size, in bytes, for v.
func MaxMemorySize(v zversion.Version) int {
	return zversion.MaxMemorySize(v)
}
