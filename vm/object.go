package vm

import "encoding/binary"

// Object is one entry from the loaded story's object table: its
// attribute flags, tree links, and the address of its property table.
// Adapted from zobject.Object, dropping the short-name field - this
// package has no way to ZSCII-decode it (see the zstring gap noted in
// the VM memory surface section of the design notes), so an Object here
// carries only the structural fields every opcode that walks the object
// tree actually needs.
type Object struct {
	BaseAddress     uint32
	Id              uint16
	Attributes      uint64
	Parent          uint16
	Sibling         uint16
	Child           uint16
	PropertyPointer uint16
}

// GetObject reads object id out of the story's object table. Returns
// ok=false for id 0 (never a valid object) or an id past the table's
// bounds, rather than panicking on bad input the way the teacher's
// zobject.GetObject does.
func (v *VM) GetObject(id uint16) (Object, bool) {
	if id == 0 || len(v.storyData) == 0 {
		return Object{}, false
	}
	version := v.header.Version
	entrySize := uint32(version.ObjectEntrySize())
	defaultsSize := uint32(version.PropertyDefaultsCount()) * 2
	base := uint32(v.header.ObjectTableBase) + defaultsSize + uint32(id-1)*entrySize
	if base+entrySize > uint32(len(v.storyData)) {
		return Object{}, false
	}

	if version >= 4 {
		propertyPtr := binary.BigEndian.Uint16(v.storyData[base+12 : base+14])
		return Object{
			Id:              id,
			Attributes:      (binary.BigEndian.Uint64(v.storyData[base:base+8]) >> 16) << 16,
			Parent:          binary.BigEndian.Uint16(v.storyData[base+6 : base+8]),
			Sibling:         binary.BigEndian.Uint16(v.storyData[base+8 : base+10]),
			Child:           binary.BigEndian.Uint16(v.storyData[base+10 : base+12]),
			PropertyPointer: propertyPtr,
			BaseAddress:     base,
		}, true
	}

	propertyPtr := binary.BigEndian.Uint16(v.storyData[base+7 : base+9])
	return Object{
		Id:              id,
		Attributes:      (binary.BigEndian.Uint64(v.storyData[base:base+8]) >> 32) << 32,
		Parent:          uint16(v.storyData[base+4]),
		Sibling:         uint16(v.storyData[base+5]),
		Child:           uint16(v.storyData[base+6]),
		PropertyPointer: propertyPtr,
		BaseAddress:     base,
	}, true
}

// TestAttribute reports whether attribute is set, numbered from 0 as
// the Z-Machine spec numbers attributes (0 is the most significant bit
// of the flag block).
func (o Object) TestAttribute(attribute uint16) bool {
	mask := uint64(1) << (63 - attribute)
	return o.Attributes&mask == mask
}

// SetAttribute sets attribute on o, both in memory and on the returned
// copy of o, so a caller holding o sees the update reflected.
func (v *VM) SetAttribute(o Object, attribute uint16) Object {
	mask := uint64(1) << (63 - attribute)
	o.Attributes |= mask
	v.writeObjectAttributes(o)
	return o
}

// ClearAttribute clears attribute on o the same way SetAttribute sets one.
func (v *VM) ClearAttribute(o Object, attribute uint16) Object {
	mask := uint64(1) << (63 - attribute)
	o.Attributes &^= mask
	v.writeObjectAttributes(o)
	return o
}

func (v *VM) writeObjectAttributes(o Object) {
	binary.BigEndian.PutUint32(v.storyData[o.BaseAddress:o.BaseAddress+4], uint32(o.Attributes>>32))
	if v.header.Version >= 4 {
		binary.BigEndian.PutUint16(v.storyData[o.BaseAddress+4:o.BaseAddress+6], uint16(o.Attributes>>16))
	}
}

// SetParent rewrites o's parent link in memory and returns the updated Object.
func (v *VM) SetParent(o Object, parent uint16) Object {
	if v.header.Version >= 4 {
		binary.BigEndian.PutUint16(v.storyData[o.BaseAddress+6:o.BaseAddress+8], parent)
	} else {
		v.storyData[o.BaseAddress+4] = uint8(parent)
	}
	o.Parent = parent
	return o
}

// SetSibling rewrites o's sibling link in memory and returns the updated Object.
func (v *VM) SetSibling(o Object, sibling uint16) Object {
	if v.header.Version >= 4 {
		binary.BigEndian.PutUint16(v.storyData[o.BaseAddress+8:o.BaseAddress+10], sibling)
	} else {
		v.storyData[o.BaseAddress+5] = uint8(sibling)
	}
	o.Sibling = sibling
	return o
}

// SetChild rewrites o's child link in memory and returns the updated Object.
func (v *VM) SetChild(o Object, child uint16) Object {
	if v.header.Version >= 4 {
		binary.BigEndian.PutUint16(v.storyData[o.BaseAddress+10:o.BaseAddress+12], child)
	} else {
		v.storyData[o.BaseAddress+6] = uint8(child)
	}
	o.Child = child
	return o
}
