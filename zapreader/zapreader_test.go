package zapreader

import "testing"

func TestParseDirectiveLine(t *testing.T) {
	lines, err := Read(".ZVERSION 3\n", "test.zap")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 1 || lines[0].Directive == nil {
		t.Fatalf("expected one directive line, got %+v", lines)
	}
	d := lines[0].Directive
	if d.Kind != DirZVersion || len(d.Args) != 1 || d.Args[0] != "3" {
		t.Fatalf("unexpected directive: %+v", d)
	}
}

func TestParseInstructionWithResultAndBranch(t *testing.T) {
	lines, err := Read("ADD 1,2 >STACK /TARGET\n", "test.zap")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	instr := lines[0].Instruction
	if instr == nil {
		t.Fatalf("expected instruction line")
	}
	if instr.Mnemonic != "ADD" {
		t.Fatalf("expected mnemonic ADD, got %s", instr.Mnemonic)
	}
	if len(instr.Operands) != 2 || instr.Operands[0] != "1" || instr.Operands[1] != "2" {
		t.Fatalf("unexpected operands: %v", instr.Operands)
	}
	if instr.Result != "STACK" {
		t.Fatalf("expected result STACK, got %q", instr.Result)
	}
	if instr.Branch != BranchOnTrue || instr.BranchLabel != "TARGET" {
		t.Fatalf("expected branch-on-true to TARGET, got %v %q", instr.Branch, instr.BranchLabel)
	}
}

func TestLabelDefinitionLine(t *testing.T) {
	lines, err := Read("LOOP: INC 1\n", "test.zap")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lines[0].Label != "LOOP" {
		t.Fatalf("expected label LOOP, got %q", lines[0].Label)
	}
	if lines[0].Instruction == nil || lines[0].Instruction.Mnemonic != "INC" {
		t.Fatalf("expected INC instruction after label, got %+v", lines[0].Instruction)
	}
}

func TestCommentsAndBlankLinesSkipped(t *testing.T) {
	lines, err := Read("; a comment\n\nRTRUE ; trailing\n", "test.zap")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 1 || lines[0].Instruction == nil || lines[0].Instruction.Mnemonic != "RTRUE" {
		t.Fatalf("expected single RTRUE instruction line, got %+v", lines)
	}
}

func TestUnknownDirectiveFails(t *testing.T) {
	_, err := Read(".BOGUS\n", "test.zap")
	if err == nil {
		t.Fatalf("expected error for unknown directive")
	}
	if pe, ok := err.(ParseError); !ok || pe.Code != ErrUnexpectedToken {
		t.Fatalf("expected ErrUnexpectedToken ParseError, got %v", err)
	}
}

func TestBranchOnFalse(t *testing.T) {
	lines, err := Read(`JZ 0 \FAIL`, "test.zap")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	instr := lines[0].Instruction
	if instr.Branch != BranchOnFalse || instr.BranchLabel != "FAIL" {
		t.Fatalf("expected branch-on-false to FAIL, got %v %q", instr.Branch, instr.BranchLabel)
	}
}
