package bytestream

import "testing"

func TestWriteReadRoundTrip(t *testing.T) {
	b := New()
	b.WriteByte(0xAB)
	b.WriteWord(0x1234)
	b.WriteDWord(0xDEADBEEF)
	b.WriteSignedWord(-1)
	b.WriteString("hi", true)

	b.Rewind()
	byteVal, err := b.ReadByte()
	if err != nil || byteVal != 0xAB {
		t.Fatalf("ReadByte: got %v, %v", byteVal, err)
	}
	word, err := b.ReadWord()
	if err != nil || word != 0x1234 {
		t.Fatalf("ReadWord: got %v, %v", word, err)
	}
	dword, err := b.ReadDWord()
	if err != nil || dword != 0xDEADBEEF {
		t.Fatalf("ReadDWord: got %x, %v", dword, err)
	}
	sword, err := b.ReadSignedWord()
	if err != nil || sword != -1 {
		t.Fatalf("ReadSignedWord: got %v, %v", sword, err)
	}
	s, err := b.ReadNullTerminatedString()
	if err != nil || s != "hi" {
		t.Fatalf("ReadNullTerminatedString: got %q, %v", s, err)
	}
}

func TestReadPastEndReturnsErrEndOfStream(t *testing.T) {
	b := New()
	b.WriteByte(1)
	b.Rewind()
	if _, err := b.ReadByte(); err != nil {
		t.Fatalf("unexpected error on first read: %v", err)
	}
	_, err := b.ReadByte()
	if _, ok := err.(ErrEndOfStream); !ok {
		t.Fatalf("expected ErrEndOfStream, got %v", err)
	}
}

func TestPeekDoesNotMoveCursor(t *testing.T) {
	b := New()
	b.WriteWord(0xBEEF)
	b.Rewind()
	v, err := b.PeekByte()
	if err != nil || v != 0xBE {
		t.Fatalf("PeekByte: got %v, %v", v, err)
	}
	if b.CurrentPosition() != 0 {
		t.Fatalf("expected cursor unchanged, got %d", b.CurrentPosition())
	}
	w, err := b.ReadWord()
	if err != nil || w != 0xBEEF {
		t.Fatalf("ReadWord after peek: got %x, %v", w, err)
	}
}

func TestPatchByteAndWord(t *testing.T) {
	b := New()
	b.WriteDWord(0)
	if err := b.PatchByte(1, 0xFF); err != nil {
		t.Fatalf("PatchByte: %v", err)
	}
	if err := b.PatchWord(2, 0xABCD); err != nil {
		t.Fatalf("PatchWord: %v", err)
	}
	data, err := b.GetData(0, 4)
	if err != nil {
		t.Fatalf("GetData: %v", err)
	}
	want := []byte{0x00, 0xFF, 0xAB, 0xCD}
	for i := range want {
		if data[i] != want[i] {
			t.Fatalf("byte %d: expected %x, got %x", i, want[i], data[i])
		}
	}
}

func TestPatchOutOfRangeFails(t *testing.T) {
	b := New()
	b.WriteByte(1)
	if err := b.PatchByte(5, 0); err == nil {
		t.Fatalf("expected error patching out of range")
	}
	if _, err := b.GetData(0, 10); err == nil {
		t.Fatalf("expected error on out-of-range GetData")
	}
}

var varIntTests = []uint32{0, 1, 127, 128, 300, 16384, 1 << 20}

func TestVarIntRoundTrip(t *testing.T) {
	for _, v := range varIntTests {
		b := New()
		b.WriteVarInt(v)
		b.Rewind()
		got, err := b.ReadVarInt()
		if err != nil {
			t.Fatalf("value %d: unexpected error %v", v, err)
		}
		if got != v {
			t.Fatalf("value %d: round-tripped to %d", v, got)
		}
	}
}

func TestSumAndXorChecksum(t *testing.T) {
	b := New()
	b.WriteByte(1)
	b.WriteByte(2)
	b.WriteByte(3)
	if b.Sum() != 6 {
		t.Fatalf("expected sum 6, got %d", b.Sum())
	}
	if b.XorChecksum() != 0 {
		t.Fatalf("expected xor checksum 0, got %d", b.XorChecksum())
	}
}

func TestAlignToAndPadTo(t *testing.T) {
	b := New()
	b.WriteByte(1)
	b.AlignTo(4)
	if b.CurrentPosition() != 4 {
		t.Fatalf("expected cursor at 4, got %d", b.CurrentPosition())
	}
	if b.Length() != 1 {
		t.Fatalf("expected no bytes written by AlignTo, got length %d", b.Length())
	}

	b2 := New()
	b2.WriteByte(1)
	b2.PadTo(4, 0xFF)
	if b2.CurrentPosition() != 4 || b2.Length() != 4 {
		t.Fatalf("expected PadTo to grow to length 4, got pos=%d len=%d", b2.CurrentPosition(), b2.Length())
	}
	data, _ := b2.GetData(1, 3)
	for _, by := range data {
		if by != 0xFF {
			t.Fatalf("expected pad fill 0xFF, got %x", by)
		}
	}
}
