// Package zapreader turns line-oriented ZAP assembly text into the
// instruction/directive tuples package encoder and memlayout expect,
// closing the gap between the ZAP textual syntax and the encoder's
// pre-parsed tuple input.
package zapreader

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/zengine-project/zengine/diag"
)

// DirectiveKind tags a ZAP directive line.
type DirectiveKind int

const (
	DirZVersion DirectiveKind = iota
	DirStart
	DirFunct
	DirObject
	DirEndObject
	DirGlobal
	DirString
	DirWord
	DirEnd
)

var directiveNames = map[string]DirectiveKind{
	".ZVERSION":  DirZVersion,
	".START":     DirStart,
	".FUNCT":     DirFunct,
	".OBJECT":    DirObject,
	".ENDOBJECT": DirEndObject,
	".GLOBAL":    DirGlobal,
	".STRING":    DirString,
	".WORD":      DirWord,
	".END":       DirEnd,
}

// Directive is one parsed ".XXX ..." line.
type Directive struct {
	Kind     DirectiveKind
	Args     []string
	Location diag.Location
}

// BranchSense is the polarity of an instruction line's optional branch.
type BranchSense int

const (
	BranchNone BranchSense = iota
	BranchOnTrue
	BranchOnFalse
)

// InstructionLine is one parsed "MNEMONIC op1[,op2]* [>result]
// [/target|\target]" statement line.
type InstructionLine struct {
	Label       string // non-empty if this line also defined a label
	Mnemonic    string
	Operands    []string
	Result      string
	Branch      BranchSense
	BranchLabel string
	Location    diag.Location
}

// Line is one parsed source line: exactly one of Directive or
// Instruction is populated, unless the line was label-only.
type Line struct {
	Label       string
	Directive   *Directive
	Instruction *InstructionLine
}

// ErrorCode mirrors package ast's parser error taxonomy so cmd/zasm can
// format ZAP errors identically to ZIL front-end errors.
type ErrorCode int

const (
	ErrUnexpectedToken ErrorCode = iota
	ErrInvalidSyntax
)

// ParseError is the error type returned by Read.
type ParseError struct {
	Code     ErrorCode
	Location diag.Location
	Message  string
}

func (e ParseError) Error() string {
	return e.Location.String() + ": error: " + e.Message
}

func (e ParseError) Diagnostic() diag.Diagnostic {
	code := "unexpectedToken"
	if e.Code == ErrInvalidSyntax {
		code = "invalidSyntax"
	}
	return diag.Diagnostic{Severity: diag.Error, Code: code, Message: e.Message, Location: e.Location}
}

// Read parses every line of src (attributing locations to file) into a
// slice of Line. Parsing stops at the first malformed line.
func Read(src, file string) ([]Line, error) {
	var lines []Line
	scanner := bufio.NewScanner(strings.NewReader(src))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		text := stripComment(raw)
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		loc := diag.Location{File: file, Line: lineNo, Column: 1}

		label := ""
		if idx := labelPrefixEnd(text); idx > 0 {
			label = text[:idx-1]
			text = strings.TrimSpace(text[idx:])
		}

		if text == "" {
			lines = append(lines, Line{Label: label})
			continue
		}

		if strings.HasPrefix(text, ".") {
			dir, err := parseDirective(text, loc)
			if err != nil {
				return lines, err
			}
			lines = append(lines, Line{Label: label, Directive: &dir})
			continue
		}

		instr, err := parseInstruction(text, loc)
		if err != nil {
			return lines, err
		}
		instr.Label = label
		lines = append(lines, Line{Label: label, Instruction: &instr})
	}
	return lines, nil
}

// stripComment removes a trailing ";"-to-end-of-line comment.
func stripComment(line string) string {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		return line[:i]
	}
	return line
}

// labelPrefixEnd returns the index just past a leading "NAME:" label
// definition, or 0 if the line has none.
func labelPrefixEnd(text string) int {
	i := strings.IndexByte(text, ':')
	if i <= 0 {
		return 0
	}
	name := text[:i]
	for _, r := range name {
		if !isIdentRune(r) {
			return 0
		}
	}
	return i + 1
}

func isIdentRune(r rune) bool {
	return r == '-' || r == '?' || r == '!' || r == '*' ||
		(r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

func parseDirective(text string, loc diag.Location) (Directive, error) {
	fields := strings.Fields(text)
	kind, ok := directiveNames[strings.ToUpper(fields[0])]
	if !ok {
		return Directive{}, ParseError{Code: ErrUnexpectedToken, Location: loc, Message: "unknown directive " + fields[0]}
	}
	return Directive{Kind: kind, Args: fields[1:], Location: loc}, nil
}

// parseInstruction parses "MNEMONIC op1[,op2]* [>result] [/target|\target]".
func parseInstruction(text string, loc diag.Location) (InstructionLine, error) {
	branch := BranchNone
	branchLabel := ""
	if i := strings.IndexAny(text, "/\\"); i >= 0 {
		if text[i] == '/' {
			branch = BranchOnTrue
		} else {
			branch = BranchOnFalse
		}
		branchLabel = strings.TrimSpace(text[i+1:])
		text = strings.TrimSpace(text[:i])
	}

	result := ""
	if i := strings.IndexByte(text, '>'); i >= 0 {
		result = strings.TrimSpace(text[i+1:])
		text = strings.TrimSpace(text[:i])
	}

	fields := strings.Fields(text)
	if len(fields) == 0 {
		return InstructionLine{}, ParseError{Code: ErrInvalidSyntax, Location: loc, Message: "expected instruction mnemonic"}
	}
	mnemonic := strings.ToUpper(fields[0])

	var operands []string
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), fields[0]))
	for rest != "" {
		// A comma opening an operand is the ",NAME" global prefix; the
		// next comma after it separates operands.
		end := strings.IndexByte(rest[1:], ',') + 1
		if end == 0 {
			end = len(rest)
		}
		if op := strings.TrimSpace(rest[:end]); op != "" {
			operands = append(operands, op)
		}
		rest = rest[end:]
		if rest != "" {
			rest = strings.TrimSpace(rest[1:])
		}
	}

	return InstructionLine{
		Mnemonic:    mnemonic,
		Operands:    operands,
		Result:      result,
		Branch:      branch,
		BranchLabel: branchLabel,
		Location:    loc,
	}, nil
}

// ParseOperandValue interprets one operand token: a decimal/hex number
// literal, a stack-variable name "STACK", a local "LNN", a global
// ",NAME" or a bare label/constant reference.
func ParseOperandValue(tok string) (isNumber bool, value int64, err error) {
	if tok == "" {
		return false, 0, nil
	}
	if strings.HasPrefix(tok, "0x") || strings.HasPrefix(tok, "0X") {
		v, convErr := strconv.ParseInt(tok[2:], 16, 32)
		return convErr == nil, v, convErr
	}
	v, convErr := strconv.ParseInt(tok, 10, 32)
	if convErr != nil {
		return false, 0, nil
	}
	return true, v, nil
}
