// Package encoder turns one assembly instruction (mnemonic, operands,
// optional branch/result/label) into its Z-Machine byte encoding, per
// form selection, operand packing and version-gating rules.
package encoder

import (
	"fmt"

	"github.com/zengine-project/zengine/zversion"
)

// ValueKind tags the variant of a ZValue operand.
type ValueKind int

const (
	ValueConstant ValueKind = iota
	ValueVariable           // 0 = stack, 1..15 = local, 16..255 = global
	ValueLabelRef           // resolved via the symbol table at encode time
)

// Value is one operand or branch target value, resolved against the
// current address and symbol table before encoding.
type Value struct {
	Kind  ValueKind
	Const uint16
	Label string
}

// BranchCondition is the polarity a branch fires on.
type BranchCondition int

const (
	BranchOnTrue BranchCondition = iota
	BranchOnFalse
)

// Branch describes an instruction's optional conditional branch.
type Branch struct {
	Condition BranchCondition
	// Target is either a label name (resolved via SymbolResolver) or one
	// of the two reserved returns: "RTRUE"/"RFALSE" encode as offset 0/1.
	Target string
}

// Instruction is everything the encoder needs to produce bytes for one
// assembly statement.
type Instruction struct {
	Mnemonic string
	Operands []Value
	Label    string
	Branch   *Branch
	Result   *Value // where to store the produced value, if any
	Address  uint32
	Version  zversion.Version
}

// SymbolResolver resolves a label name to its absolute address. It is
// satisfied by package symtab's lookup, adapted to return plain
// addresses instead of *Symbol.
type SymbolResolver func(name string) (uint32, bool)

// Errors returned by Encode. Each embeds the detail the diagnostic
// needs; callers convert to diag.Diagnostic at the call site since this
// package has no dependency on package ast/diag beyond what's needed
// here.
type (
	ErrInvalidInstruction struct{ Mnemonic string }
	ErrInvalidOperand     struct {
		Instruction string
		Operand     Value
	}
	ErrUndefinedLabel    struct{ Name string }
	ErrAddressOutOfRange struct{ Address uint32 }
	ErrVersionMismatch   struct {
		Instruction string
		Version     zversion.Version
	}
)

func (e ErrInvalidInstruction) Error() string {
	return fmt.Sprintf("invalid instruction %q", e.Mnemonic)
}
func (e ErrInvalidOperand) Error() string {
	return fmt.Sprintf("invalid operand for %s: %+v", e.Instruction, e.Operand)
}
func (e ErrUndefinedLabel) Error() string {
	return fmt.Sprintf("undefined label %q", e.Name)
}
func (e ErrAddressOutOfRange) Error() string {
	return fmt.Sprintf("address 0x%x out of range", e.Address)
}
func (e ErrVersionMismatch) Error() string {
	return fmt.Sprintf("instruction %s not available in version %d", e.Instruction, e.Version)
}

// resolve turns a Value into its runtime-encodable 16-bit payload.
func resolve(v Value, resolver SymbolResolver) (uint16, error) {
	switch v.Kind {
	case ValueConstant, ValueVariable:
		return v.Const, nil
	case ValueLabelRef:
		addr, ok := resolver(v.Label)
		if !ok {
			return 0, ErrUndefinedLabel{Name: v.Label}
		}
		if addr > 0xFFFF {
			return 0, ErrAddressOutOfRange{Address: addr}
		}
		return uint16(addr), nil
	}
	return 0, fmt.Errorf("unknown value kind %v", v.Kind)
}

func isSmallConstant(v uint16) bool {
	return v <= 0xFF
}

// operandByteType classifies a resolved operand for variable-form
// encoding: 0b00 large constant, 0b01 small constant, 0b10 variable.
func operandByteType(v Value, resolved uint16) uint8 {
	if v.Kind == ValueVariable {
		return 0b10
	}
	if isSmallConstant(resolved) {
		return 0b01
	}
	return 0b00
}

// Encode produces the byte sequence for instr, or an error from the
// taxonomy above.
func Encode(instr Instruction, resolver SymbolResolver) ([]byte, error) {
	info, ok := mnemonics[instr.Mnemonic]
	if !ok {
		return nil, ErrInvalidInstruction{Mnemonic: instr.Mnemonic}
	}

	// SAVE/RESTORE: pick the v3 0OP form below this version threshold;
	// above it they use extended form starting at v4, ahead of the
	// general v5+ gate on extended opcodes below.
	hasVersionedForm := info.v3Form != nil
	if hasVersionedForm && instr.Version < zversion.V4 {
		info = *info.v3Form
	}

	if info.minVersion != 0 && instr.Version < info.minVersion {
		return nil, ErrVersionMismatch{Instruction: instr.Mnemonic, Version: instr.Version}
	}
	if info.arity == arityExt && !hasVersionedForm && instr.Version < zversion.V5 {
		return nil, ErrVersionMismatch{Instruction: instr.Mnemonic, Version: instr.Version}
	}

	resolved := make([]uint16, len(instr.Operands))
	for i, op := range instr.Operands {
		v, err := resolve(op, resolver)
		if err != nil {
			return nil, err
		}
		resolved[i] = v
	}

	var out []byte
	var err error

	switch {
	case info.arity == arityExt:
		out, err = encodeExtended(info, resolved)
	case info.arity == arity0:
		out = []byte{0xB0 | info.opcodeNum&0x0F}
	case info.arity == arity1:
		out, err = encode1OP(info, instr.Operands, resolved)
	case info.arity == arity2 && len(instr.Operands) == 2:
		out, err = encode2OPOrPromoted(info, instr.Operands, resolved)
	default: // arityVar, or a 2OP mnemonic called with != 2 operands
		out, err = encodeVar(info, instr.Operands, resolved)
	}
	if err != nil {
		return nil, err
	}

	if info.hasResult && instr.Result != nil {
		rv, err := resolve(*instr.Result, resolver)
		if err != nil {
			return nil, err
		}
		if rv > 0xFF {
			return nil, ErrInvalidOperand{Instruction: instr.Mnemonic, Operand: *instr.Result}
		}
		out = append(out, uint8(rv))
	} else if info.hasResult {
		// Result storage omitted entirely is only valid for CALL_*n
		// variants and mnemonics without hasResult; a hasResult mnemonic
		// with no Result is a caller error surfaced as invalidOperand.
		return nil, ErrInvalidOperand{Instruction: instr.Mnemonic}
	}

	if info.hasBranch && instr.Branch != nil {
		branchBytes, err := encodeBranch(*instr.Branch, resolver)
		if err != nil {
			return nil, err
		}
		out = append(out, branchBytes...)
	}

	return out, nil
}

func encode1OP(info mnemonicInfo, operands []Value, resolved []uint16) ([]byte, error) {
	if len(resolved) != 1 {
		return nil, ErrInvalidOperand{Instruction: "1OP"}
	}
	opType := operandByteType(operands[0], resolved[0])
	out := []byte{0x80 | opType<<4 | info.opcodeNum&0x0F}
	out = append(out, encodeOperandBytes(opType, resolved[0])...)
	return out, nil
}

// encode2OPOrPromoted emits long form unless any operand exceeds one
// byte, in which case it promotes to variable form per spec.
func encode2OPOrPromoted(info mnemonicInfo, operands []Value, resolved []uint16) ([]byte, error) {
	type1 := operandByteType(operands[0], resolved[0])
	type2 := operandByteType(operands[1], resolved[1])

	if type1 == 0b00 || type2 == 0b00 {
		// An operand doesn't fit in one byte: promote to variable form,
		// both operand types forced to large constant unless they're
		// actual variable references.
		types := []uint8{type1, type2}
		for i := range types {
			if types[i] == 0b01 {
				types[i] = 0b00
			}
		}
		out := []byte{0xC0 | info.opcodeNum&0x3F, packTypeByte(types, 0)}
		for i, t := range types {
			out = append(out, encodeOperandBytes(t, resolved[i])...)
		}
		return out, nil
	}

	bit1 := uint8(0)
	if type1 == 0b10 {
		bit1 = 1
	}
	bit2 := uint8(0)
	if type2 == 0b10 {
		bit2 = 1
	}

	out := []byte{bit1<<6 | bit2<<5 | info.opcodeNum&0x1F}
	out = append(out, uint8(resolved[0]), uint8(resolved[1]))
	return out, nil
}

func encodeVar(info mnemonicInfo, operands []Value, resolved []uint16) ([]byte, error) {
	if len(resolved) > 8 {
		return nil, ErrInvalidOperand{Instruction: "VAR"}
	}

	opcodeByte := uint8(0xC0 | info.opcodeNum&0x3F)
	out := []byte{opcodeByte}

	types := make([]uint8, len(operands))
	for i, op := range operands {
		types[i] = operandByteType(op, resolved[i])
	}

	// Pack up to 4 types per type byte; a second type byte is emitted
	// for CALL_VS2/CALL_VN2-style 8-operand variable instructions.
	out = append(out, packTypeByte(types, 0))
	if len(types) > 4 {
		out = append(out, packTypeByte(types, 4))
	}

	for i, t := range types {
		out = append(out, encodeOperandBytes(t, resolved[i])...)
	}

	return out, nil
}

func packTypeByte(types []uint8, offset int) uint8 {
	var b uint8
	for i := 0; i < 4; i++ {
		t := uint8(0b11) // omitted
		if offset+i < len(types) {
			t = types[offset+i]
		}
		b |= t << uint(2*(3-i))
	}
	return b
}

func encodeOperandBytes(opType uint8, value uint16) []byte {
	switch opType {
	case 0b00: // large constant
		return []byte{uint8(value >> 8), uint8(value)}
	case 0b01, 0b10: // small constant or variable
		return []byte{uint8(value)}
	default:
		return nil
	}
}

func encodeExtended(info mnemonicInfo, resolved []uint16) ([]byte, error) {
	out := []byte{0xBE, info.opcodeNum}

	typeByte := uint8(0xFF)
	n := len(resolved)
	if n > 4 {
		return nil, ErrInvalidOperand{Instruction: "EXT"}
	}
	for i := 0; i < n; i++ {
		t := uint8(0b00) // small constant when the value fits one byte, large otherwise
		if isSmallConstant(resolved[i]) {
			t = 0b01
		}
		shift := uint(2 * (3 - i))
		typeByte &^= 0b11 << shift
		typeByte |= t << shift
	}
	out = append(out, typeByte)
	for i := 0; i < n; i++ {
		t := uint8(0b00)
		if isSmallConstant(resolved[i]) {
			t = 0b01
		}
		out = append(out, encodeOperandBytes(t, resolved[i])...)
	}
	return out, nil
}

// encodeBranch produces the 1- or 2-byte branch encoding: short form
// for offsets in [0,63], long form (14-bit signed) otherwise. Offsets 0
// and 1 are reserved for RFALSE/RTRUE shortcut returns.
func encodeBranch(b Branch, resolver SymbolResolver) ([]byte, error) {
	senseBit := uint8(0x80)
	if b.Condition == BranchOnFalse {
		senseBit = 0
	}

	var offset int32
	switch b.Target {
	case "RTRUE":
		offset = 1
	case "RFALSE":
		offset = 0
	default:
		addr, ok := resolver(b.Target)
		if !ok {
			return nil, ErrUndefinedLabel{Name: b.Target}
		}
		offset = int32(addr)
	}

	if offset >= 0 && offset <= 63 {
		return []byte{senseBit | 0x40 | uint8(offset)}, nil
	}

	if offset < -8192 || offset > 8191 {
		return nil, ErrAddressOutOfRange{Address: uint32(offset)}
	}
	word := uint16(offset) & 0x3FFF
	return []byte{senseBit | uint8(word>>8), uint8(word)}, nil
}
