package vm

import "testing"

// PrintTable reads its own entry count from the byte at baddr (the same
// byte the loop then includes as its first printed value), mirroring
// ztable.PrintTable's behavior exactly rather than an idealized
// prefix-free table read.
func TestPrintTableWrapsRowsBySkipAndWidth(t *testing.T) {
	data := minimalStoryFile(3)
	baddr := uint32(0x70)
	data[baddr], data[baddr+1] = 4, 5 // row 0, plus the entry count read as its own first value
	data[baddr+2] = 99                // skipped padding byte
	data[baddr+3], data[baddr+4] = 6, 7

	v, err := NewVM(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := v.PrintTable(baddr, 2, 0, 1)
	want := string([]byte{4, 5, '\n', 6, 7})
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestScanTableFindsByteEntry(t *testing.T) {
	data := minimalStoryFile(3)
	baddr := uint32(0x70)
	copy(data[baddr:], []byte{1, 2, 3, 4})
	v, err := NewVM(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := v.ScanTable(3, baddr, 4, 1); got != baddr+2 {
		t.Fatalf("expected match at %d, got %d", baddr+2, got)
	}
	if got := v.ScanTable(9, baddr, 4, 1); got != 0 {
		t.Fatalf("expected no match to return 0, got %d", got)
	}
}

func TestScanTableFindsWordEntry(t *testing.T) {
	data := minimalStoryFile(3)
	baddr := uint32(0x70)
	data[baddr], data[baddr+1] = 0x01, 0x02
	data[baddr+2], data[baddr+3] = 0x03, 0x04
	v, err := NewVM(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := v.ScanTable(0x0304, baddr, 2, 0b1000_0010); got != baddr+2 {
		t.Fatalf("expected word match at %d, got %d", baddr+2, got)
	}
}

func TestCopyTableCopiesThroughTemporaryBuffer(t *testing.T) {
	data := minimalStoryFile(3)
	first, second := uint16(0x70), uint16(0x78)
	copy(data[first:], []byte{1, 2, 3, 4})
	v, err := NewVM(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v.CopyTable(first, second, 4)
	for i, want := range []byte{1, 2, 3, 4} {
		if got := v.storyData[int(second)+i]; got != want {
			t.Fatalf("byte %d: expected %d, got %d", i, want, got)
		}
	}
}

func TestCopyTableZeroesWhenSecondIsZero(t *testing.T) {
	data := minimalStoryFile(3)
	first := uint16(0x70)
	copy(data[first:], []byte{1, 2, 3, 4})
	v, err := NewVM(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v.CopyTable(first, 0, 4)
	for i := 0; i < 4; i++ {
		if got := v.storyData[int(first)+i]; got != 0 {
			t.Fatalf("byte %d: expected zeroed, got %d", i, got)
		}
	}
}
