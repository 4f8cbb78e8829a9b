package memlayout

import (
	"testing"

	"github.com/zengine-project/zengine/zversion"
)

func TestAllocateGlobalIsSequentialAndIdempotent(t *testing.T) {
	l := New(zversion.V3)
	first := l.AllocateGlobal("SCORE")
	second := l.AllocateGlobal("MOVES")
	again := l.AllocateGlobal("SCORE")

	if first != globalTableBase {
		t.Fatalf("expected first global at table base 0x%x, got 0x%x", globalTableBase, first)
	}
	if second != first+2 {
		t.Fatalf("expected second global 2 bytes after the first, got 0x%x vs 0x%x", second, first)
	}
	if again != first {
		t.Fatalf("re-allocating SCORE should return its existing slot, got 0x%x want 0x%x", again, first)
	}
}

func TestAllocateObjectIsSequentialAndIdempotent(t *testing.T) {
	l := New(zversion.V3)
	first := l.AllocateObject("ROOMS")
	second := l.AllocateObject("PLAYER")
	again := l.AllocateObject("ROOMS")

	if first != 1 || second != 2 {
		t.Fatalf("expected object ids 1 and 2, got %d and %d", first, second)
	}
	if again != first {
		t.Fatalf("re-allocating ROOMS should return object id %d, got %d", first, again)
	}
}

func TestAddPropertyPanicsWithoutOpenObject(t *testing.T) {
	l := New(zversion.V3)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic when adding a property with no object open")
		}
	}()
	l.AddProperty("DESC", []byte{1})
}

func TestAddPropertyAccumulatesOnCurrentObject(t *testing.T) {
	l := New(zversion.V3)
	l.StartObject("LANTERN")
	l.AddProperty("SIZE", []byte{5})
	l.AddProperty("DESC", []byte{'a', 'b'})
	l.EndObject()

	obj := l.objects["LANTERN"]
	if len(obj.properties) != 2 {
		t.Fatalf("expected 2 properties on LANTERN, got %d", len(obj.properties))
	}
}

func TestGenerateStoryFileHeaderVersionByte(t *testing.T) {
	l := New(zversion.V3)
	l.AllocateObject("ROOMS")
	data, err := l.GenerateStoryFile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data[0] != 3 {
		t.Fatalf("expected version byte 3, got %d", data[0])
	}
	if len(data) < headerSize {
		t.Fatalf("story file shorter than header: %d bytes", len(data))
	}
}

func TestGenerateStoryFileObjectTableBeforeStaticMemory(t *testing.T) {
	l := New(zversion.V3)
	l.StartObject("ROOMS")
	l.AddProperty("DESC", []byte("a room"))
	l.EndObject()
	l.AddDictionaryWord("look")

	data, err := l.GenerateStoryFile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	objectTableBase := uint16(data[10])<<8 | uint16(data[11])
	globalsBase := uint16(data[12])<<8 | uint16(data[13])
	staticMemoryBase := uint16(data[14])<<8 | uint16(data[15])

	if !(globalsBase < objectTableBase && objectTableBase < staticMemoryBase) {
		t.Fatalf("expected globals < objects < static memory, got %d, %d, %d", globalsBase, objectTableBase, staticMemoryBase)
	}
}

func TestGenerateStoryFileRoutineAddressRecorded(t *testing.T) {
	l := New(zversion.V3)
	l.AddRoutine("GO", []byte{0xB0, 0xB0}) // two RTRUEs, arbitrary bytes
	l.SetStart("GO")

	data, err := l.GenerateStoryFile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	addr, ok := l.RoutineAddress("GO")
	if !ok {
		t.Fatalf("expected GO's address to be recorded")
	}
	pc := uint32(data[6])<<8 | uint32(data[7])
	if pc != addr {
		t.Fatalf("expected header PC to equal GO's address %d, got %d", addr, pc)
	}
}

func TestGenerateStoryFileChecksumIsVerifiable(t *testing.T) {
	l := New(zversion.V3)
	l.AllocateGlobal("SCORE")
	l.AddRoutine("GO", []byte{0xB0})
	l.SetStart("GO")
	data, err := l.GenerateStoryFile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if warnings := ValidateStoryFile(data, zversion.V3); len(warnings) != 0 {
		t.Fatalf("expected no warnings for a freshly generated file, got %v", warnings)
	}
}

func TestGenerateStoryFileExceedsMaxSizeFails(t *testing.T) {
	l := New(zversion.V3)
	l.AddRoutine("BIG", make([]byte, 200*1024))
	_, err := l.GenerateStoryFile()
	if err == nil {
		t.Fatalf("expected an error when the story file exceeds the version's maximum size")
	}
	if _, ok := err.(ErrMemoryLayout); !ok {
		t.Fatalf("expected ErrMemoryLayout, got %T", err)
	}
}

func TestValidateStoryFileTooSmall(t *testing.T) {
	warnings := ValidateStoryFile([]byte{1, 2, 3}, zversion.V3)
	if len(warnings) != 1 {
		t.Fatalf("expected one warning for a too-small file, got %v", warnings)
	}
}

func TestValidateStoryFileVersionMismatch(t *testing.T) {
	l := New(zversion.V3)
	data, err := l.GenerateStoryFile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	warnings := ValidateStoryFile(data, zversion.V5)
	if len(warnings) == 0 {
		t.Fatalf("expected a version mismatch warning")
	}
}

func TestEncodeZSCIIRoundTripsThroughDictionary(t *testing.T) {
	l := New(zversion.V3)
	l.AddDictionaryWord("north")
	l.AddDictionaryWord("go")
	data, err := l.GenerateStoryFile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dictionaryBase := uint16(data[8])<<8 | uint16(data[9])
	numSeparators := data[dictionaryBase]
	if numSeparators != 0 {
		t.Fatalf("expected zero input-code separators, got %d", numSeparators)
	}
	numEntries := uint16(data[dictionaryBase+2])<<8 | uint16(data[dictionaryBase+3])
	if numEntries != 2 {
		t.Fatalf("expected 2 dictionary entries, got %d", numEntries)
	}
	entryLen := int(data[dictionaryBase+1])
	for i, word := range []string{"go", "north"} {
		at := int(dictionaryBase) + 4 + i*entryLen
		got := uint16(data[at])<<8 | uint16(data[at+1])
		if want := EncodeZSCII(word)[0]; got != want {
			t.Fatalf("entry %d: expected first encoded word of %q 0x%04x, got 0x%04x", i, word, want, got)
		}
	}
}
