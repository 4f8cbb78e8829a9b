package vm

import "encoding/binary"

// Property is one decoded entry from an object's property table.
// Adapted from zobject.Property verbatim - it has no ZSCII-decoding
// dependency, so unlike Object it carries exactly the fields the
// teacher's version did.
type Property struct {
	Id                   uint8
	Length               uint8
	Data                 []uint8
	PropertyHeaderLength uint8
	Address              uint32
	DataAddress          uint32
}

// GetPropertyByAddress decodes the property whose size byte(s) sit at
// propertyAddr, returning its id, length, and the address of its data.
func (v *VM) GetPropertyByAddress(propertyAddr uint32) Property {
	sizeByte := v.storyData[propertyAddr]
	version := v.header.Version

	var length uint16
	var id uint8
	headerLength := uint8(1)

	if version >= 4 {
		if sizeByte>>7 == 1 {
			length = uint16(v.storyData[propertyAddr+1] & 0b11_1111)
			if length == 0 {
				length = 64
			}
			id = sizeByte & 0b11_1111
			headerLength = 2
		} else {
			length = uint16((sizeByte>>6)&1) + 1
			id = sizeByte & 0b11_1111
		}
	} else {
		length = uint16(sizeByte>>5) + 1
		id = sizeByte & 0b1_1111
	}

	dataAddr := propertyAddr + uint32(headerLength)
	return Property{
		Id:                   id,
		Length:               uint8(length),
		Data:                 v.storyData[dataAddr : dataAddr+uint32(length)],
		PropertyHeaderLength: headerLength,
		Address:              propertyAddr,
		DataAddress:          dataAddr,
	}
}

// GetProperty returns o's propertyId entry, or - if o has no such
// property - the table-wide default for that property number (a
// synthetic Property whose Data points at the two-byte default slot).
// ok is false if propertyId is out of range for the defaults table.
func (v *VM) GetProperty(o Object, propertyId uint8) (Property, bool) {
	ptr := firstPropertyAddress(v, o)
	for v.storyData[ptr] != 0 {
		p := v.GetPropertyByAddress(ptr)
		if p.Id == propertyId {
			return p, true
		}
		ptr += uint32(p.Length) + uint32(p.PropertyHeaderLength)
	}

	if propertyId == 0 || int(propertyId) > v.header.Version.MaxPropertyNumber() {
		return Property{}, false
	}
	defaultAddr := uint32(v.header.ObjectTableBase) + 2*uint32(propertyId-1)
	return Property{Id: propertyId, Data: v.storyData[defaultAddr : defaultAddr+2]}, true
}

// SetProperty overwrites o's propertyId entry with value (a 1 or 2 byte
// property only - the only widths the Z-Machine's STORE-to-property
// opcodes support). Returns false if o has no such property or its
// width isn't 1 or 2 bytes, instead of panicking on a malformed request.
func (v *VM) SetProperty(o Object, propertyId uint8, value uint16) bool {
	ptr := firstPropertyAddress(v, o)
	for v.storyData[ptr] != 0 {
		p := v.GetPropertyByAddress(ptr)
		if p.Id == propertyId {
			switch p.Length {
			case 1:
				v.storyData[ptr+uint32(p.PropertyHeaderLength)] = uint8(value)
				return true
			case 2:
				off := ptr + uint32(p.PropertyHeaderLength)
				binary.BigEndian.PutUint16(v.storyData[off:off+2], value)
				return true
			default:
				return false
			}
		}
		ptr += uint32(p.Length) + uint32(p.PropertyHeaderLength)
	}
	return false
}

// GetNextProperty returns the property id following propertyId in o's
// table (0 means "the first property"), or 0 if there is none.
func (v *VM) GetNextProperty(o Object, propertyId uint8) uint8 {
	if propertyId == 0 {
		ptr := firstPropertyAddress(v, o)
		if v.storyData[ptr] == 0 {
			return 0
		}
		return v.GetPropertyByAddress(ptr).Id
	}

	p, ok := v.GetProperty(o, propertyId)
	if !ok || p.DataAddress == 0 {
		return 0
	}
	return v.GetPropertyByAddress(p.DataAddress + uint32(p.Length)).Id
}

func firstPropertyAddress(v *VM, o Object) uint32 {
	nameLength := v.storyData[o.PropertyPointer]
	return uint32(o.PropertyPointer) + 1 + uint32(nameLength)*2
}
