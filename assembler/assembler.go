// Package assembler ties zapreader, encoder and memlayout together into
// a complete two-pass ZAP assembler: source text in, a finished story
// file out. Forward-referenced labels (a CALL to a routine defined
// later in the file, a branch that jumps ahead) make a single
// left-to-right pass impossible, since an instruction's own encoded
// length can depend on the numeric value of a label it hasn't reached
// yet. This package resolves that with a bounded fixed-point loop:
// assemble the whole program using the previous round's best address
// guesses, recompute every label's real address from the result, and
// repeat until nothing moves.
package assembler

import (
	"fmt"
	"strings"

	"github.com/zengine-project/zengine/diag"
	"github.com/zengine-project/zengine/encoder"
	"github.com/zengine-project/zengine/memlayout"
	"github.com/zengine-project/zengine/zapreader"
	"github.com/zengine-project/zengine/zversion"
)

// maxRelaxationPasses bounds the fixed-point loop in assemble. Real ZIL
// routines converge in two or three rounds; this is a backstop against a
// pathological program that never settles.
const maxRelaxationPasses = 6

// Result is the output of assembling one ZAP source file.
type Result struct {
	StoryData []byte
	Warnings  []string
}

// AssembleZAP parses src as ZAP assembly text and assembles it into a
// story file image.
func AssembleZAP(src, filename string) (*Result, error) {
	lines, err := zapreader.Read(src, filename)
	if err != nil {
		return nil, err
	}

	version := zversion.V3
	for _, ln := range lines {
		if ln.Directive != nil && ln.Directive.Kind == zapreader.DirZVersion && len(ln.Directive.Args) > 0 {
			version = parseVersionArg(ln.Directive.Args[0], version)
		}
	}
	if !version.Valid() {
		return nil, fmt.Errorf("assembler: unsupported .ZVERSION %d", version)
	}

	prog, err := parseProgram(lines, version)
	if err != nil {
		return nil, err
	}
	return prog.assemble()
}

func parseVersionArg(tok string, fallback zversion.Version) zversion.Version {
	isNumber, value, err := zapreader.ParseOperandValue(tok)
	if err != nil || !isNumber {
		return fallback
	}
	return zversion.Version(value)
}

// objectDecl is one .OBJECT/.ENDOBJECT block.
type objectDecl struct {
	name       string
	properties []propertyDecl
}

// propertyDecl is one property line inside an object block; operand
// resolution is deferred to assembly time since a property value may
// reference a routine or label address.
type propertyDecl struct {
	name     string
	operands []string
	location diag.Location
}

type stringDecl struct {
	label, text string
}

// routineDecl is the body of one .FUNCT, as written - not yet encoded.
type routineDecl struct {
	name   string
	locals []string
	body   []bodyLine
}

// bodyLine is one line inside a .FUNCT block. instr is nil for a
// label-only line.
type bodyLine struct {
	label string
	instr *zapreader.InstructionLine
}

// program is the fully parsed, not-yet-assembled form of a ZAP file.
type program struct {
	version   zversion.Version
	globals   []string
	objects   []objectDecl
	strings   []stringDecl
	dictWords []string
	routines  []routineDecl
	start     string
}

func parseProgram(lines []zapreader.Line, version zversion.Version) (*program, error) {
	p := &program{version: version}
	var curObject *objectDecl
	var curRoutine *routineDecl

	closeRoutine := func() {
		if curRoutine != nil {
			p.routines = append(p.routines, *curRoutine)
			curRoutine = nil
		}
	}
	closeObject := func() {
		if curObject != nil {
			p.objects = append(p.objects, *curObject)
			curObject = nil
		}
	}

	for _, ln := range lines {
		if ln.Directive != nil {
			d := ln.Directive
			switch d.Kind {
			case zapreader.DirZVersion:
				// consumed by AssembleZAP before parseProgram runs.
			case zapreader.DirStart:
				closeRoutine()
				if len(d.Args) > 0 {
					p.start = d.Args[0]
				}
			case zapreader.DirFunct:
				closeRoutine()
				name, locals := splitFunctArgs(d.Args)
				if name == "" {
					return nil, diag.New("invalidSyntax", d.Location, ".FUNCT needs a routine name")
				}
				curRoutine = &routineDecl{name: name, locals: locals}
			case zapreader.DirObject:
				closeRoutine()
				closeObject()
				if len(d.Args) == 0 {
					return nil, diag.New("invalidSyntax", d.Location, ".OBJECT needs a name")
				}
				curObject = &objectDecl{name: d.Args[0]}
			case zapreader.DirEndObject:
				closeObject()
			case zapreader.DirGlobal:
				closeRoutine()
				p.globals = append(p.globals, d.Args...)
			case zapreader.DirString:
				closeRoutine()
				if len(d.Args) < 1 {
					return nil, diag.New("invalidSyntax", d.Location, ".STRING needs a label")
				}
				text := ""
				if len(d.Args) > 1 {
					text = stripQuotes(strings.Join(d.Args[1:], " "))
				}
				p.strings = append(p.strings, stringDecl{label: d.Args[0], text: text})
			case zapreader.DirWord:
				closeRoutine()
				if len(d.Args) < 1 {
					return nil, diag.New("invalidSyntax", d.Location, ".WORD needs an entry")
				}
				p.dictWords = append(p.dictWords, stripQuotes(d.Args[0]))
			case zapreader.DirEnd:
				closeRoutine()
				closeObject()
			}
			continue
		}

		switch {
		case curObject != nil:
			if ln.Instruction != nil {
				curObject.properties = append(curObject.properties, propertyDecl{
					name:     ln.Instruction.Mnemonic,
					operands: ln.Instruction.Operands,
					location: ln.Instruction.Location,
				})
			}
		case curRoutine != nil:
			curRoutine.body = append(curRoutine.body, bodyLine{label: ln.Label, instr: ln.Instruction})
		}
	}
	closeRoutine()
	closeObject()
	return p, nil
}

func splitFunctArgs(args []string) (name string, locals []string) {
	parts := strings.Split(strings.Join(args, " "), ",")
	for i, raw := range parts {
		tok := strings.TrimSpace(raw)
		if tok == "" {
			continue
		}
		if i == 0 {
			name = tok
			continue
		}
		locals = append(locals, tok)
	}
	return name, locals
}

func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// resolveCtx bundles the name tables an operand or branch target
// resolves against: declared globals/objects/routines and the current
// round's best-known label addresses.
type resolveCtx struct {
	globalIndex  map[string]uint8
	objectNumber map[string]uint16
	routineNames map[string]bool
	labelAddr    map[string]uint32
	version      zversion.Version
}

// assemble runs the fixed-point relaxation loop: each round re-encodes
// every object property and routine body against the previous round's
// label addresses, then recomputes real addresses from the generated
// story file, until the addresses stop changing.
func (p *program) assemble() (*Result, error) {
	ctx := resolveCtx{
		globalIndex:  map[string]uint8{},
		objectNumber: map[string]uint16{},
		routineNames: map[string]bool{},
		labelAddr:    map[string]uint32{},
		version:      p.version,
	}
	for i, name := range p.globals {
		ctx.globalIndex[name] = uint8(16 + i)
	}
	for i, obj := range p.objects {
		ctx.objectNumber[obj.name] = uint16(i + 1)
	}
	for _, r := range p.routines {
		ctx.routineNames[r.name] = true
		// Seed every routine and in-routine label with a representative
		// placeholder so round 0's forward references resolve to
		// something instead of failing outright.
		ctx.labelAddr[r.name] = 0x4000
		for _, bl := range r.body {
			if bl.label != "" {
				ctx.labelAddr[bl.label] = 0x4000
			}
		}
	}

	var story []byte
	var warnings []string
	converged := false

	for round := 0; round < maxRelaxationPasses; round++ {
		layout := memlayout.New(p.version)
		for _, name := range p.globals {
			layout.AllocateGlobal(name)
		}

		for _, obj := range p.objects {
			layout.StartObject(obj.name)
			for _, pr := range obj.properties {
				data, err := encodePropertyData(pr.operands, ctx)
				if err != nil {
					return nil, err
				}
				layout.AddProperty(pr.name, data)
			}
			layout.EndObject()
		}

		for _, word := range p.dictWords {
			layout.AddDictionaryWord(word)
		}
		for _, s := range p.strings {
			layout.AddString(s.label, s.text)
		}

		routineOffsets := make([]map[string]int, len(p.routines))
		for ri, r := range p.routines {
			bytes, offsets, err := encodeRoutineBody(r, ctx)
			if err != nil {
				return nil, fmt.Errorf("assembler: routine %s: %w", r.name, err)
			}
			routineOffsets[ri] = offsets
			layout.AddRoutine(r.name, bytes)
		}
		if p.start != "" {
			layout.SetStart(p.start)
		}

		generated, err := layout.GenerateStoryFile()
		if err != nil {
			return nil, err
		}
		story = generated

		newLabelAddr := make(map[string]uint32, len(ctx.labelAddr))
		for ri, r := range p.routines {
			base, _ := layout.RoutineAddress(r.name)
			newLabelAddr[r.name] = base
			for label, off := range routineOffsets[ri] {
				newLabelAddr[label] = base + uint32(off)
			}
		}

		if labelsEqual(ctx.labelAddr, newLabelAddr) {
			ctx.labelAddr = newLabelAddr
			converged = true
			break
		}
		ctx.labelAddr = newLabelAddr
	}

	if !converged {
		warnings = append(warnings, fmt.Sprintf("label addresses did not converge after %d passes; branch/call targets may be stale", maxRelaxationPasses))
	}
	warnings = append(warnings, memlayout.ValidateStoryFile(story, p.version)...)

	return &Result{StoryData: story, Warnings: warnings}, nil
}

func labelsEqual(a, b map[string]uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// routineHeader returns a routine's leading bytes: a locals count, plus
// one zero word per local on v4 and below (v5+ locals always start at
// zero with no stored initial values).
func routineHeader(version zversion.Version, numLocals int) []byte {
	header := []byte{uint8(numLocals)}
	if version <= zversion.V4 {
		for i := 0; i < numLocals; i++ {
			header = append(header, 0, 0)
		}
	}
	return header
}

func encodeRoutineBody(r routineDecl, ctx resolveCtx) ([]byte, map[string]int, error) {
	localIndex := make(map[string]int, len(r.locals))
	for i, name := range r.locals {
		localIndex[name] = i + 1
	}

	out := routineHeader(ctx.version, len(r.locals))
	offsets := map[string]int{}

	for _, bl := range r.body {
		if bl.label != "" {
			offsets[bl.label] = len(out)
		}
		if bl.instr == nil {
			continue
		}
		instrStart := ctx.labelAddr[r.name] + uint32(len(out))
		instrBytes, err := encodeOneInstruction(*bl.instr, localIndex, ctx, instrStart)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, instrBytes...)
	}
	return out, offsets, nil
}

func encodeOneInstruction(line zapreader.InstructionLine, localIndex map[string]int, ctx resolveCtx, instrStart uint32) ([]byte, error) {
	varNumberOperand := variableNumberOperandIndex(line.Mnemonic)
	operands := make([]encoder.Value, 0, len(line.Operands))
	for i, tok := range line.Operands {
		var v encoder.Value
		var err error
		if i == varNumberOperand {
			v, err = resolveVariableNumber(tok, localIndex, ctx)
		} else {
			v, err = resolveOperand(tok, localIndex, ctx)
		}
		if err != nil {
			return nil, locatedErr(err, line.Location)
		}
		operands = append(operands, v)
	}

	instr := encoder.Instruction{
		Mnemonic: line.Mnemonic,
		Operands: operands,
		Version:  ctx.version,
	}

	if line.Result != "" {
		rv, err := resolveOperand(line.Result, localIndex, ctx)
		if err != nil {
			return nil, locatedErr(err, line.Location)
		}
		instr.Result = &rv
	}

	if line.Branch == zapreader.BranchNone {
		bytes, err := encoder.Encode(instr, nil)
		if err != nil {
			return nil, locatedErr(err, line.Location)
		}
		return bytes, nil
	}

	cond := encoder.BranchOnTrue
	if line.Branch == zapreader.BranchOnFalse {
		cond = encoder.BranchOnFalse
	}
	target := strings.TrimPrefix(line.BranchLabel, "?")
	instr.Branch = &encoder.Branch{Condition: cond, Target: target}

	if target == "RTRUE" || target == "RFALSE" {
		bytes, err := encoder.Encode(instr, nil)
		if err != nil {
			return nil, locatedErr(err, line.Location)
		}
		return bytes, nil
	}

	// Measure the non-branch body first so the branch offset's own
	// address arithmetic (which depends on the whole instruction's final
	// length) doesn't have to guess at it.
	bodyOnly := instr
	bodyOnly.Branch = nil
	bodyBytes, err := encoder.Encode(bodyOnly, nil)
	if err != nil {
		return nil, locatedErr(err, line.Location)
	}
	bodyLen := len(bodyBytes)

	targetAddr, ok := ctx.labelAddr[target]
	if !ok {
		return nil, locatedErr(fmt.Errorf("assembler: undefined branch target %q", target), line.Location)
	}

	computeOffset := func(branchLen int) int32 {
		endAddr := instrStart + uint32(bodyLen) + uint32(branchLen)
		return int32(targetAddr) - int32(endAddr) + 2
	}

	offset := computeOffset(2)
	if offset >= 0 && offset <= 63 {
		if short := computeOffset(1); short >= 0 && short <= 63 {
			offset = short
		}
	}

	resolver := func(name string) (uint32, bool) {
		if name == target {
			return uint32(offset), true
		}
		return 0, false
	}
	bytes, err := encoder.Encode(instr, resolver)
	if err != nil {
		return nil, locatedErr(err, line.Location)
	}
	return bytes, nil
}

func locatedErr(err error, loc diag.Location) error {
	return fmt.Errorf("%s: %w", loc.String(), err)
}

// variableNumberOperandIndex returns the index of the operand that names a
// variable by number rather than by value, or -1 if the mnemonic has none.
// INC, DEC, INC_CHK, DEC_CHK, STORE, PULL and LOAD all take "(variable)" operands
// in the Z-Machine spec's own sense: the operand's encoded value IS the
// target variable's number, not a value read out of some other variable.
// Encoding a bare local/global reference here the same way an ordinary
// value-reading operand is encoded would make the instruction increment,
// store to, or pull into whatever variable the named one currently holds -
// one level of indirection too many.
func variableNumberOperandIndex(mnemonic string) int {
	switch mnemonic {
	case "INC", "DEC", "STORE", "INC_CHK", "DEC_CHK", "PULL", "LOAD":
		return 0
	default:
		return -1
	}
}

// resolveVariableNumber resolves tok the same way resolveOperand does, then
// rewrites the result to a constant equal to the variable's number - STACK
// becomes variable 0, a local becomes its 1-based index, a global becomes
// 16+declaration-index - instead of a read of that variable's value.
func resolveVariableNumber(tok string, localIndex map[string]int, ctx resolveCtx) (encoder.Value, error) {
	v, err := resolveOperand(tok, localIndex, ctx)
	if err != nil {
		return encoder.Value{}, err
	}
	if v.Kind == encoder.ValueVariable {
		return encoder.Value{Kind: encoder.ValueConstant, Const: v.Const}, nil
	}
	return v, nil
}

// resolveOperand classifies one operand token: STACK, a ",GLOBAL"
// reference, a routine-local name, a numeric literal, an object name, or
// a label/routine name resolved through the current round's address
// table. Routine names resolve to their packed address, since the only
// operand position a routine name legally appears in is a CALL target.
func resolveOperand(tok string, localIndex map[string]int, ctx resolveCtx) (encoder.Value, error) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return encoder.Value{}, fmt.Errorf("assembler: empty operand")
	}
	if strings.EqualFold(tok, "STACK") {
		return encoder.Value{Kind: encoder.ValueVariable, Const: 0}, nil
	}
	if strings.HasPrefix(tok, ",") {
		name := tok[1:]
		idx, ok := ctx.globalIndex[name]
		if !ok {
			return encoder.Value{}, fmt.Errorf("assembler: undeclared global %q", name)
		}
		return encoder.Value{Kind: encoder.ValueVariable, Const: uint16(idx)}, nil
	}
	if idx, ok := localIndex[tok]; ok {
		return encoder.Value{Kind: encoder.ValueVariable, Const: uint16(idx)}, nil
	}
	if isNumber, value, err := zapreader.ParseOperandValue(tok); err == nil && isNumber {
		return encoder.Value{Kind: encoder.ValueConstant, Const: uint16(value)}, nil
	}
	if num, ok := ctx.objectNumber[tok]; ok {
		return encoder.Value{Kind: encoder.ValueConstant, Const: num}, nil
	}
	if addr, ok := ctx.labelAddr[tok]; ok {
		resolved := uint32(addr)
		if ctx.routineNames[tok] {
			resolved = zversion.Pack(ctx.version, addr).Value()
		}
		if resolved > 0xFFFF {
			return encoder.Value{}, fmt.Errorf("assembler: address 0x%x out of range for %q", resolved, tok)
		}
		return encoder.Value{Kind: encoder.ValueConstant, Const: uint16(resolved)}, nil
	}
	return encoder.Value{}, fmt.Errorf("assembler: undefined symbol %q", tok)
}

// encodePropertyData renders an object property's operand tokens to raw
// bytes: a quoted operand is ZSCII-encoded inline, everything else goes
// through the same resolution as an instruction operand, packed into a
// single byte when it fits and two otherwise.
func encodePropertyData(operands []string, ctx resolveCtx) ([]byte, error) {
	var data []byte
	for _, tok := range operands {
		tok = strings.TrimSpace(tok)
		if strings.HasPrefix(tok, `"`) {
			for _, w := range memlayout.EncodeZSCII(stripQuotes(tok)) {
				data = append(data, byte(w>>8), byte(w))
			}
			continue
		}
		v, err := resolveOperand(tok, nil, ctx)
		if err != nil {
			return nil, err
		}
		if v.Const > 0xFF {
			data = append(data, byte(v.Const>>8), byte(v.Const))
			continue
		}
		data = append(data, byte(v.Const))
	}
	return data, nil
}
