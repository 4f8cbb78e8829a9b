// Package memlayout allocates every region of a Z-Machine story file —
// header, globals, objects, property tables, strings, dictionary, and
// high memory — and assembles the final byte image, patching header
// fields once every region's address is known.
package memlayout

import (
	"fmt"
	"sort"

	"github.com/zengine-project/zengine/bytestream"
	"github.com/zengine-project/zengine/zversion"
)

const (
	headerSize      = 64
	globalTableBase = 0x40
	globalSlotCount = 240
)

// ErrMemoryLayout reports a region overlap or size overflow detected
// while generating the story file.
type ErrMemoryLayout struct{ Message string }

func (e ErrMemoryLayout) Error() string { return e.Message }

// objectRecord accumulates one OBJECT's allocation state: its object
// number and the properties added to it between StartObject/EndObject.
type objectRecord struct {
	id         uint16
	properties []propertyValue
}

type propertyValue struct {
	number uint8
	data   []byte
}

// routineRecord is a block of already-encoded instruction bytes
// destined for high memory.
type routineRecord struct {
	name string
	data []byte
}

// Layout is the memory-layout engine. The zero value is not usable;
// construct with New.
type Layout struct {
	version zversion.Version

	globalOrder []string
	globalSlot  map[string]uint16

	objectOrder   []string
	objects       map[string]*objectRecord
	currentObject string

	propertyOrder  []string
	propertyNumber map[string]uint8
	nextProperty   uint8

	abbreviations [][]uint16

	stringOrder []string
	stringWords map[string][]uint16
	stringAddr  map[string]uint32

	dictionaryWords []string

	routines    []routineRecord
	routineAddr map[string]uint32
	startAt     string
}

// New returns an empty Layout targeting version.
func New(version zversion.Version) *Layout {
	return &Layout{
		version:        version,
		globalSlot:     make(map[string]uint16),
		objects:        make(map[string]*objectRecord),
		propertyNumber: make(map[string]uint8),
		nextProperty:   1,
		stringWords:    make(map[string][]uint16),
		stringAddr:     make(map[string]uint32),
		routineAddr:    make(map[string]uint32),
	}
}

// AllocateGlobal assigns name the next sequential 2-byte global slot.
// Re-allocating an already-assigned name returns its existing address.
func (l *Layout) AllocateGlobal(name string) uint16 {
	if slot, ok := l.globalSlot[name]; ok {
		return globalTableBase + slot*2
	}
	slot := uint16(len(l.globalOrder))
	l.globalOrder = append(l.globalOrder, name)
	l.globalSlot[name] = slot
	return globalTableBase + slot*2
}

// AllocateObject assigns name the next sequential object-table entry.
// Re-allocation returns the existing object number.
func (l *Layout) AllocateObject(name string) uint16 {
	if obj, ok := l.objects[name]; ok {
		return obj.id
	}
	id := uint16(len(l.objectOrder) + 1)
	l.objectOrder = append(l.objectOrder, name)
	l.objects[name] = &objectRecord{id: id}
	return id
}

// StartObject opens name for property accumulation.
func (l *Layout) StartObject(name string) {
	l.AllocateObject(name)
	l.currentObject = name
}

// EndObject closes property accumulation for the currently open object.
func (l *Layout) EndObject() {
	l.currentObject = ""
}

// registerProperty assigns name the next sequential property number
// (1-based), or returns its existing number.
func (l *Layout) registerProperty(name string) uint8 {
	if n, ok := l.propertyNumber[name]; ok {
		return n
	}
	n := l.nextProperty
	l.nextProperty++
	l.propertyOrder = append(l.propertyOrder, name)
	l.propertyNumber[name] = n
	return n
}

// AddProperty records data for property name on the currently open
// object. Panics if no object is open, mirroring the teacher's
// invariant-violation-is-a-programmer-error style elsewhere in the
// opcode dispatch and object accessors.
func (l *Layout) AddProperty(name string, data []byte) {
	if l.currentObject == "" {
		panic("memlayout: AddProperty called with no object open")
	}
	num := l.registerProperty(name)
	obj := l.objects[l.currentObject]
	obj.properties = append(obj.properties, propertyValue{number: num, data: data})
}

// AddAbbreviation appends one abbreviation-table entry (already encoded
// as ZSCII words) and returns its index.
func (l *Layout) AddAbbreviation(words []uint16) int {
	l.abbreviations = append(l.abbreviations, words)
	return len(l.abbreviations) - 1
}

// AddString encodes content and appends it to the static-memory string
// table under label. It returns nothing: the string's address is only
// known once GenerateStoryFile lays out static memory, and is read back
// with StringAddress. Adding a label that is already present keeps its
// first content and adds nothing.
func (l *Layout) AddString(label, content string) {
	if _, ok := l.stringWords[label]; ok {
		return
	}
	l.stringOrder = append(l.stringOrder, label)
	l.stringWords[label] = EncodeZSCII(content)
}

// StringAddress returns the byte address assigned to label by the most
// recent GenerateStoryFile call.
func (l *Layout) StringAddress(label string) (uint32, bool) {
	addr, ok := l.stringAddr[label]
	return addr, ok
}

// AddDictionaryWord registers word for the dictionary table. Entries
// are sorted lexicographically at generation time.
func (l *Layout) AddDictionaryWord(word string) {
	l.dictionaryWords = append(l.dictionaryWords, word)
}

// AddRoutine appends an already-encoded routine's bytes to high memory.
func (l *Layout) AddRoutine(name string, data []byte) {
	l.routines = append(l.routines, routineRecord{name: name, data: data})
}

// RoutineAddress returns the byte address assigned to name by the most
// recent GenerateStoryFile call.
func (l *Layout) RoutineAddress(name string) (uint32, bool) {
	addr, ok := l.routineAddr[name]
	return addr, ok
}

// SetStart records the routine entered at program start.
func (l *Layout) SetStart(routineName string) {
	l.startAt = routineName
}

func (l *Layout) propertyDefaultsCount() int {
	return l.version.PropertyDefaultsCount()
}

func (l *Layout) objectEntrySize() int {
	return l.version.ObjectEntrySize()
}

// emitPropertyTable writes one object's property block: a short-name
// header followed by each property descending by number, terminated by
// a zero byte.
func (l *Layout) emitPropertyTable(b *bytestream.ByteStream, objName string) {
	obj := l.objects[objName]
	sorted := append([]propertyValue{}, obj.properties...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].number > sorted[j].number })

	// Short name header: length-in-words then the encoded short name.
	nameWords := EncodeZSCII(objName)
	b.WriteByte(uint8(len(nameWords)))
	for _, w := range nameWords {
		b.WriteWord(w)
	}

	for _, p := range sorted {
		l.emitPropertyHeader(b, p)
		for _, by := range p.data {
			b.WriteByte(by)
		}
	}
	b.WriteByte(0)
}

func (l *Layout) emitPropertyHeader(b *bytestream.ByteStream, p propertyValue) {
	length := len(p.data)
	if l.version <= zversion.V3 {
		b.WriteByte(uint8(length-1)<<5 | p.number&0x1F)
		return
	}
	if length <= 2 {
		lenBit := uint8(0)
		if length == 2 {
			lenBit = 1
		}
		b.WriteByte(lenBit<<6 | p.number&0x3F)
		return
	}
	b.WriteByte(0x80 | p.number&0x3F)
	lengthByte := uint8(length & 0x3F)
	if lengthByte == 0 {
		lengthByte = 64
	}
	b.WriteByte(0x80 | lengthByte)
}

// GenerateStoryFile writes header, dynamic memory, static memory, and
// high memory in order, patches header fields once every address is
// known, and returns the complete byte buffer.
func (l *Layout) GenerateStoryFile() ([]byte, error) {
	maxSize := zversion.MaxMemorySize(l.version)

	buf := bytestream.New()
	for i := 0; i < headerSize; i++ { // header is patched once every address is known
		buf.WriteByte(0)
	}

	// Globals: fixed-size table regardless of how many were allocated.
	globalsBase := uint16(buf.CurrentPosition())
	for i := 0; i < globalSlotCount; i++ {
		buf.WriteWord(0)
	}

	// Abbreviations table (optional): one word per entry pointing at
	// packed abbreviation string addresses, resolved in a second pass
	// since the strings themselves are emitted later in static memory.
	var abbrevTableBase uint16
	if len(l.abbreviations) > 0 {
		abbrevTableBase = uint16(buf.CurrentPosition())
		for range l.abbreviations {
			buf.WriteWord(0) // patched below
		}
	}

	// Object table: property defaults, then fixed-size entries.
	objectTableBase := uint16(buf.CurrentPosition())
	for i := 0; i < l.propertyDefaultsCount(); i++ {
		buf.WriteWord(0)
	}
	entrySize := l.objectEntrySize()
	objectEntryBase := buf.CurrentPosition()
	for range l.objectOrder {
		for i := 0; i < entrySize; i++ {
			buf.WriteByte(0)
		}
	}

	// Property tables follow the object entries, one per object in
	// allocation order; patch each object's property-pointer field once
	// its table address is known.
	propertyTableStart := make([]uint32, len(l.objectOrder))
	for i, name := range l.objectOrder {
		propertyTableStart[i] = uint32(buf.CurrentPosition())
		l.emitPropertyTable(buf, name)
	}
	for i := range l.objectOrder {
		entryOffset := uint32(objectEntryBase) + uint32(i)*uint32(entrySize)
		propPtrOffset := entryOffset + uint32(entrySize) - 2
		if err := buf.PatchWord(int(propPtrOffset), uint16(propertyTableStart[i])); err != nil {
			return nil, ErrMemoryLayout{Message: err.Error()}
		}
	}

	staticMemoryBase := uint16(buf.CurrentPosition())

	// Dictionary, sorted lexicographically for binary-search lookup.
	dictionaryBase := uint16(buf.CurrentPosition())
	sortedWords := append([]string{}, l.dictionaryWords...)
	sort.Strings(sortedWords)
	buf.WriteByte(0) // n input codes (none supported here)
	entryLen := uint8(4)
	if l.version > zversion.V3 {
		entryLen = 6
	}
	buf.WriteByte(entryLen)
	buf.WriteWord(uint16(len(sortedWords)))
	wordsPerEntry := int(entryLen) / 2
	for _, w := range sortedWords {
		words := EncodeZSCII(w)
		for i := 0; i < wordsPerEntry && i < len(words); i++ {
			buf.WriteWord(words[i])
		}
		for i := len(words); i < wordsPerEntry; i++ {
			buf.WriteWord(0x8000)
		}
	}

	// Strings: each label's encoded words, addresses recorded as we go.
	for _, label := range l.stringOrder {
		l.stringAddr[label] = uint32(buf.CurrentPosition())
		for _, w := range l.stringWords[label] {
			buf.WriteWord(w)
		}
	}

	// Abbreviation strings, if any, follow the dictionary/string region
	// and their packed addresses patch the abbreviation table.
	abbrevAddr := make([]uint32, len(l.abbreviations))
	for i, words := range l.abbreviations {
		abbrevAddr[i] = uint32(buf.CurrentPosition())
		for _, w := range words {
			buf.WriteWord(w)
		}
	}
	for i, addr := range abbrevAddr {
		packed := zversion.Pack(l.version, addr).Value()
		if err := buf.PatchWord(int(abbrevTableBase)+i*2, uint16(packed)); err != nil {
			return nil, ErrMemoryLayout{Message: err.Error()}
		}
	}

	// High memory: routines, aligned to the version's packed-address
	// boundary.
	alignment := int(l.version.PackedAddressDivisor())
	buf.PadTo(alignment, 0)
	highMemoryBase := uint16(buf.CurrentPosition())
	for _, r := range l.routines {
		buf.PadTo(alignment, 0)
		l.routineAddr[r.name] = uint32(buf.CurrentPosition())
		for _, by := range r.data {
			buf.WriteByte(by)
		}
	}

	if buf.Length() > maxSize {
		return nil, ErrMemoryLayout{Message: fmt.Sprintf("story file size %d exceeds version %d maximum %d", buf.Length(), l.version, maxSize)}
	}

	// Patch the header now that every region's address is known.
	buf.PatchByte(0, uint8(l.version))
	buf.PatchWord(4, highMemoryBase)

	if startAddr, ok := l.routineAddr[l.startAt]; ok {
		if l.version <= zversion.V3 {
			buf.PatchWord(6, uint16(startAddr))
		} else {
			buf.PatchWord(6, uint16(zversion.Pack(l.version, startAddr).Value()))
		}
	}

	buf.PatchWord(8, dictionaryBase)
	buf.PatchWord(10, objectTableBase)
	buf.PatchWord(12, globalsBase)
	buf.PatchWord(14, staticMemoryBase)
	if len(l.abbreviations) > 0 {
		buf.PatchWord(24, abbrevTableBase)
	}

	fileLength := uint16(buf.Length()) / uint16(l.version.FileLengthDivisor())
	buf.PatchWord(26, fileLength)

	checksum := bytestream.SumRange(buf.Bytes(), headerSize, buf.Length())
	buf.PatchWord(28, checksum)

	return buf.Bytes(), nil
}

// ValidateStoryFile returns a list of warning strings describing
// anything wrong with an assembled (or loaded) story file image.
func ValidateStoryFile(data []byte, expectedVersion zversion.Version) []string {
	var warnings []string

	if len(data) < headerSize {
		warnings = append(warnings, "file too small: shorter than the 64-byte header")
		return warnings
	}

	if zversion.Version(data[0]) != expectedVersion {
		warnings = append(warnings, fmt.Sprintf("version byte mismatch: header says %d, expected %d", data[0], expectedVersion))
	}

	highMemoryBase := uint16(data[4])<<8 | uint16(data[5])
	pc := uint16(data[6])<<8 | uint16(data[7])
	if expectedVersion <= zversion.V3 && pc < highMemoryBase {
		warnings = append(warnings, fmt.Sprintf("initial PC 0x%x falls below high-memory base 0x%x", pc, highMemoryBase))
	}

	storedChecksum := uint16(data[28])<<8 | uint16(data[29])
	actualChecksum := bytestream.SumRange(data, headerSize, len(data))
	if storedChecksum != 0 && storedChecksum != actualChecksum {
		warnings = append(warnings, fmt.Sprintf("checksum mismatch: header says 0x%04x, computed 0x%04x", storedChecksum, actualChecksum))
	}

	globalsBase := uint16(data[12])<<8 | uint16(data[13])
	objectTableBase := uint16(data[10])<<8 | uint16(data[11])
	if objectTableBase != 0 && globalsBase != 0 && objectTableBase < globalsBase {
		warnings = append(warnings, "region overlap: object table begins before the global variable table")
	}

	return warnings
}
