package vm

import "testing"

func dictionaryTestStoryFile() []byte {
	data := minimalStoryFile(3)
	const base = 0x10 // matches minimalStoryFile's dictionary base
	data[base] = 0    // no custom input codes
	data[base+1] = 6  // entry length: 4-byte encoded word + 2 data bytes
	data[base+2], data[base+3] = 0x00, 0x02

	copy(data[base+4:], []byte{1, 2, 3, 4, 0xAA, 0xBB})
	copy(data[base+10:], []byte{5, 6, 7, 8, 0xCC, 0xDD})
	return data
}

func TestParseDictionaryReadsHeaderAndEntries(t *testing.T) {
	v, err := NewVM(dictionaryTestStoryFile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d := v.ParseDictionary()
	if d.Header.EntryLength != 6 || d.Header.Count != 2 {
		t.Fatalf("expected entry length 6, count 2, got %d/%d", d.Header.EntryLength, d.Header.Count)
	}
	if len(d.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(d.Entries))
	}
	if d.Entries[0].Address != 0x14 {
		t.Fatalf("expected first entry at 0x14, got 0x%x", d.Entries[0].Address)
	}
	if d.Entries[1].Data[0] != 0xCC || d.Entries[1].Data[1] != 0xDD {
		t.Fatalf("expected second entry's data 0xCC,0xDD, got %x", d.Entries[1].Data)
	}
}

func TestDictionaryFindMatchesEncodedWord(t *testing.T) {
	v, err := NewVM(dictionaryTestStoryFile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d := v.ParseDictionary()
	if got := d.Find([]byte{1, 2, 3, 4}); got != 0x14 {
		t.Fatalf("expected match at 0x14, got 0x%x", got)
	}
	if got := d.Find([]byte{9, 9, 9, 9}); got != 0 {
		t.Fatalf("expected no match, got 0x%x", got)
	}
}
