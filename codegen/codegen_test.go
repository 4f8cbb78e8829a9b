package codegen

import (
	"strings"
	"testing"

	"github.com/zengine-project/zengine/assembler"
	"github.com/zengine-project/zengine/ast"
	"github.com/zengine-project/zengine/diag"
	"github.com/zengine-project/zengine/vm"
)

func parse(t *testing.T, src string) []ast.Declaration {
	t.Helper()
	decls, err := ast.NewParser(src, "test.zil").ParseProgram()
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return decls
}

func TestCompileRendersGlobalsObjectsAndRoutinesToAssemblableZAP(t *testing.T) {
	src := `
<VERSION ZIP>
<GLOBAL SCORE 0>
<OBJECT PLAYER (DESC "you")>
<ROUTINE GO ()
	<RTRUE>>
`
	decls := parse(t, src)
	result := Compile(decls)
	if len(result.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", result.Diagnostics)
	}
	if !strings.Contains(result.ZAP, ".GLOBAL SCORE") {
		t.Fatalf("expected a rendered global, got:\n%s", result.ZAP)
	}
	if !strings.Contains(result.ZAP, ".OBJECT PLAYER") {
		t.Fatalf("expected a rendered object, got:\n%s", result.ZAP)
	}

	asm, err := assembler.AssembleZAP(result.ZAP, "generated.zap")
	if err != nil {
		t.Fatalf("assembling generated ZAP: %v\n%s", err, result.ZAP)
	}
	machine, err := vm.NewVM(asm.StoryData)
	if err != nil {
		t.Fatalf("loading assembled story file: %v", err)
	}
	if !machine.ValidateMemoryManagement() {
		t.Fatalf("expected a valid memory layout, warnings: %v", asm.Warnings)
	}
}

func TestCompileTranslatesIncSetgAndCallsBetweenRoutines(t *testing.T) {
	src := `
<GLOBAL SCORE 0>
<ROUTINE AWARD-POINT ()
	<SETG SCORE 1>
	<INC SCORE>
	<RTRUE>>
<ROUTINE GO ()
	<AWARD-POINT>
	<RTRUE>>
`
	decls := parse(t, src)
	result := Compile(decls)
	if len(result.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", result.Diagnostics)
	}
	if !strings.Contains(result.ZAP, "STORE ,SCORE,1") {
		t.Fatalf("expected a rendered SETG, got:\n%s", result.ZAP)
	}
	if !strings.Contains(result.ZAP, "INC ,SCORE") {
		t.Fatalf("expected a rendered INC, got:\n%s", result.ZAP)
	}
	if !strings.Contains(result.ZAP, "CALL AWARD-POINT") {
		t.Fatalf("expected a rendered call, got:\n%s", result.ZAP)
	}

	asm, err := assembler.AssembleZAP(result.ZAP, "generated.zap")
	if err != nil {
		t.Fatalf("assembling generated ZAP: %v\n%s", err, result.ZAP)
	}
	if _, err := vm.NewVM(asm.StoryData); err != nil {
		t.Fatalf("loading assembled story file: %v", err)
	}
}

func TestCompileSkipsUnsupportedFormWithDiagnosticInsteadOfFailing(t *testing.T) {
	src := `
<ROUTINE GO ()
	<TELL "hello">
	<RTRUE>>
`
	decls := parse(t, src)
	result := Compile(decls)
	if len(result.Diagnostics) == 0 {
		t.Fatalf("expected a diagnostic for the unsupported TELL form")
	}
	found := false
	for _, d := range result.Diagnostics {
		if d.Severity == diag.Warning {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a warning-severity diagnostic, got: %+v", result.Diagnostics)
	}
	if !strings.Contains(result.ZAP, ".FUNCT GO") || !strings.Contains(result.ZAP, "RTRUE") {
		t.Fatalf("expected the routine to still assemble around the unsupported form, got:\n%s", result.ZAP)
	}

	if _, err := assembler.AssembleZAP(result.ZAP, "generated.zap"); err != nil {
		t.Fatalf("assembling generated ZAP: %v\n%s", err, result.ZAP)
	}
}

func TestCompileFoldsConstantsAtPointOfUse(t *testing.T) {
	src := `
<CONSTANT MAX-SCORE 100>
<GLOBAL SCORE 0>
<ROUTINE GO ()
	<SETG SCORE MAX-SCORE>
	<RTRUE>>
`
	decls := parse(t, src)
	result := Compile(decls)
	if len(result.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", result.Diagnostics)
	}
	if !strings.Contains(result.ZAP, "STORE ,SCORE,100") {
		t.Fatalf("expected the constant to be folded into the STORE, got:\n%s", result.ZAP)
	}
}
