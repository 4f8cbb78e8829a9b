package vm

import (
	"testing"

	"github.com/zengine-project/zengine/zversion"
)

func minimalStoryFile(version uint8) []byte {
	data := make([]byte, 128)
	data[0] = version
	data[0x0c] = 0x00 // global variable table base
	data[0x0d] = 0x40
	data[0x0e] = 0x00 // static memory base
	data[0x0f] = 0x60
	data[0x0a] = 0x00 // object table base
	data[0x0b] = 0x20
	data[0x08] = 0x00 // dictionary base
	data[0x09] = 0x10
	return data
}

func TestNewVMRejectsUndersizedData(t *testing.T) {
	_, err := NewVM(make([]byte, 10))
	if err == nil {
		t.Fatalf("expected an error for undersized story data")
	}
	if _, ok := err.(ErrCorruptedStoryFile); !ok {
		t.Fatalf("expected ErrCorruptedStoryFile, got %T", err)
	}
}

func TestNewVMRejectsInvalidVersion(t *testing.T) {
	data := minimalStoryFile(99)
	_, err := NewVM(data)
	if err == nil {
		t.Fatalf("expected an error for an out-of-range version byte")
	}
}

func TestNewVMParsesHeader(t *testing.T) {
	data := minimalStoryFile(3)
	v, err := NewVM(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Header().Version != zversion.V3 {
		t.Fatalf("expected version 3, got %d", v.Header().Version)
	}
	if v.Header().GlobalVariableBase != 0x40 {
		t.Fatalf("expected global base 0x40, got 0x%x", v.Header().GlobalVariableBase)
	}
}

func TestGetVariableGlobal(t *testing.T) {
	data := minimalStoryFile(3)
	data[0x40] = 0x01 // global 16 = 0x0102
	data[0x41] = 0x02
	v, err := NewVM(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := v.GetVariable(16); got != 0x0102 {
		t.Fatalf("expected global 16 to read 0x0102, got 0x%x", got)
	}
}

func TestGetVariableLocal(t *testing.T) {
	data := minimalStoryFile(3)
	v, err := NewVM(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v.SetLocals([]uint16{10, 20, 30})
	if got := v.GetVariable(1); got != 10 {
		t.Fatalf("expected local 1 to read 10, got %d", got)
	}
	if got := v.GetVariable(4); got != 0 {
		t.Fatalf("expected out-of-range local to read 0, got %d", got)
	}
}

func TestGetVariableStackPopsAndDrainsToZero(t *testing.T) {
	data := minimalStoryFile(3)
	v, err := NewVM(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v.PushStack(5)
	v.PushStack(6)
	if got := v.GetVariable(0); got != 6 {
		t.Fatalf("expected first pop to be 6, got %d", got)
	}
	if got := v.GetVariable(0); got != 5 {
		t.Fatalf("expected second pop to be 5, got %d", got)
	}
	if got := v.GetVariable(0); got != 0 {
		t.Fatalf("expected pop on empty stack to return 0, got %d", got)
	}
}

func TestZeroValueVMReadsZero(t *testing.T) {
	var v VM
	if got := v.GetVariable(0); got != 0 {
		t.Fatalf("expected zero-value VM to read 0, got %d", got)
	}
	if got := v.GetVariable(16); got != 0 {
		t.Fatalf("expected zero-value VM to read 0 for a global, got %d", got)
	}
}

func TestValidateMemoryManagementAcceptsWellFormedRegions(t *testing.T) {
	data := minimalStoryFile(3)
	v, err := NewVM(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.ValidateMemoryManagement() {
		t.Fatalf("expected well-formed regions to validate")
	}
}

func TestValidateMemoryManagementRejectsOutOfOrderRegions(t *testing.T) {
	data := minimalStoryFile(3)
	// Global table base placed after the static memory base.
	data[0x0c], data[0x0d] = 0x00, 0x70
	v, err := NewVM(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.ValidateMemoryManagement() {
		t.Fatalf("expected out-of-order regions to fail validation")
	}
}

func TestMaxMemorySizeByVersion(t *testing.T) {
	if MaxMemorySize(zversion.V3) != 128*1024 {
		t.Fatalf("expected 128 KiB for v3")
	}
	if MaxMemorySize(zversion.V5) != 256*1024 {
		t.Fatalf("expected 256 KiB for v5")
	}
}
