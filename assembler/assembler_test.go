package assembler

import (
	"strings"
	"testing"

	"github.com/zengine-project/zengine/vm"
)

const minimalSource = `
.ZVERSION 3
.GLOBAL SCORE
.OBJECT PLAYER
DESC "you"
.ENDOBJECT
.WORD "look"
.WORD "north"
.FUNCT GO
	RTRUE
.END
.START GO
`

func TestAssembleZAPMinimalProgramRoundTripsThroughVM(t *testing.T) {
	result, err := AssembleZAP(minimalSource, "minimal.zap")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.StoryData) == 0 {
		t.Fatalf("expected non-empty story data")
	}

	machine, err := vm.NewVM(result.StoryData)
	if err != nil {
		t.Fatalf("loading assembled story file: %v", err)
	}
	if machine.Header().Version != 3 {
		t.Fatalf("expected version 3, got %d", machine.Header().Version)
	}
	if !machine.ValidateMemoryManagement() {
		t.Fatalf("expected valid memory layout, warnings: %v", result.Warnings)
	}
}

func TestAssembleZAPForwardBranchToRoutineEndConverges(t *testing.T) {
	src := `
.ZVERSION 3
.FUNCT TEST,X
	JZ X /DONE
	INC X
DONE:
	RTRUE
.END
.START TEST
`
	result, err := AssembleZAP(src, "forward.zap")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, w := range result.Warnings {
		if strings.Contains(w, "did not converge") {
			t.Fatalf("expected convergence, got warning: %s", w)
		}
	}
}

func TestAssembleZAPCallToForwardRoutine(t *testing.T) {
	src := `
.FUNCT MAIN
	CALL HELPER >STACK
	RTRUE
.END
.FUNCT HELPER
	RTRUE
.END
.START MAIN
`
	result, err := AssembleZAP(src, "call.zap")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	machine, err := vm.NewVM(result.StoryData)
	if err != nil {
		t.Fatalf("loading assembled story file: %v", err)
	}
	if !machine.ValidateMemoryManagement() {
		t.Fatalf("expected valid memory layout")
	}
}

func TestAssembleZAPUndefinedGlobalFails(t *testing.T) {
	src := `
.FUNCT GO
	INC ,MISSING
	RTRUE
.END
.START GO
`
	if _, err := AssembleZAP(src, "bad.zap"); err == nil {
		t.Fatalf("expected an error for an undeclared global")
	}
}

func TestAssembleZAPDefaultsToVersion3(t *testing.T) {
	src := `
.FUNCT GO
	RTRUE
.END
.START GO
`
	result, err := AssembleZAP(src, "noversion.zap")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.StoryData[0] != 3 {
		t.Fatalf("expected default version 3, got %d", result.StoryData[0])
	}
}
