package vm

import "testing"

// objectTestStoryFile builds a v3 story with one object (id 1) at the
// object table base, its short name elided (zero-length), and a single
// property (id 5, 2 bytes, value 0x1234) in its property table.
func objectTestStoryFile() []byte {
	data := make([]byte, 256)
	data[0] = 3
	data[0x0a], data[0x0b] = 0x00, 0x20 // object table base

	const objBase = 0x20 + 31*2 // property-defaults table (31 words) precedes entry 1
	data[objBase] = 0x80        // attribute 0 set
	data[objBase+4] = 2         // parent
	data[objBase+5] = 3         // sibling
	data[objBase+6] = 4         // child
	data[objBase+7], data[objBase+8] = 0x00, 0x90

	const propTable = 0x90
	data[propTable] = 0      // short name length (words)
	data[propTable+1] = 0x25 // size byte: length 2, id 5
	data[propTable+2] = 0x12
	data[propTable+3] = 0x34
	data[propTable+4] = 0 // terminator

	return data
}

func TestGetObjectReadsAttributesAndTreeLinks(t *testing.T) {
	v, err := NewVM(objectTestStoryFile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	o, ok := v.GetObject(1)
	if !ok {
		t.Fatalf("expected object 1 to be found")
	}
	if !o.TestAttribute(0) {
		t.Fatalf("expected attribute 0 to be set")
	}
	if o.TestAttribute(1) {
		t.Fatalf("expected attribute 1 to be clear")
	}
	if o.Parent != 2 || o.Sibling != 3 || o.Child != 4 {
		t.Fatalf("expected parent/sibling/child 2/3/4, got %d/%d/%d", o.Parent, o.Sibling, o.Child)
	}
}

func TestGetObjectRejectsIdZero(t *testing.T) {
	v, err := NewVM(objectTestStoryFile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := v.GetObject(0); ok {
		t.Fatalf("expected object 0 to be rejected")
	}
}

func TestSetAttributeAndClearAttributeRoundTrip(t *testing.T) {
	v, err := NewVM(objectTestStoryFile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	o, _ := v.GetObject(1)
	o = v.SetAttribute(o, 5)
	if !o.TestAttribute(5) {
		t.Fatalf("expected attribute 5 to be set after SetAttribute")
	}
	o = v.ClearAttribute(o, 0)
	if o.TestAttribute(0) {
		t.Fatalf("expected attribute 0 to be clear after ClearAttribute")
	}

	reread, _ := v.GetObject(1)
	if !reread.TestAttribute(5) || reread.TestAttribute(0) {
		t.Fatalf("expected attribute changes to persist in memory")
	}
}

func TestSetParentSiblingChild(t *testing.T) {
	v, err := NewVM(objectTestStoryFile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	o, _ := v.GetObject(1)
	o = v.SetParent(o, 9)
	o = v.SetSibling(o, 10)
	o = v.SetChild(o, 11)
	if o.Parent != 9 || o.Sibling != 10 || o.Child != 11 {
		t.Fatalf("expected updated links 9/10/11, got %d/%d/%d", o.Parent, o.Sibling, o.Child)
	}

	reread, _ := v.GetObject(1)
	if reread.Parent != 9 || reread.Sibling != 10 || reread.Child != 11 {
		t.Fatalf("expected link changes to persist in memory")
	}
}

func TestGetPropertyFindsEntryAndSetPropertyOverwritesIt(t *testing.T) {
	v, err := NewVM(objectTestStoryFile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	o, _ := v.GetObject(1)

	p, ok := v.GetProperty(o, 5)
	if !ok {
		t.Fatalf("expected property 5 to be found")
	}
	if p.Length != 2 || p.Data[0] != 0x12 || p.Data[1] != 0x34 {
		t.Fatalf("expected property 5 to read 0x1234, got %x", p.Data)
	}

	if !v.SetProperty(o, 5, 0xABCD) {
		t.Fatalf("expected SetProperty to succeed")
	}
	p, _ = v.GetProperty(o, 5)
	if p.Data[0] != 0xAB || p.Data[1] != 0xCD {
		t.Fatalf("expected property 5 to read 0xABCD after SetProperty, got %x", p.Data)
	}
}

func TestGetPropertyFallsBackToDefaultWhenMissing(t *testing.T) {
	v, err := NewVM(objectTestStoryFile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	o, _ := v.GetObject(1)

	defaultAddr := uint32(0x20) + 2*uint32(9-1)
	v.storyData[defaultAddr], v.storyData[defaultAddr+1] = 0x11, 0x22

	p, ok := v.GetProperty(o, 9)
	if !ok {
		t.Fatalf("expected property 9's default to be returned")
	}
	if p.Data[0] != 0x11 || p.Data[1] != 0x22 {
		t.Fatalf("expected default 0x1122, got %x", p.Data)
	}
}

func TestGetNextPropertyWalksTableInOrder(t *testing.T) {
	v, err := NewVM(objectTestStoryFile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	o, _ := v.GetObject(1)

	if got := v.GetNextProperty(o, 0); got != 5 {
		t.Fatalf("expected first property to be 5, got %d", got)
	}
	if got := v.GetNextProperty(o, 5); got != 0 {
		t.Fatalf("expected no property after 5, got %d", got)
	}
}
