package encoder

import "github.com/zengine-project/zengine/zversion"

// operandArity is the instruction shape a mnemonic belongs to before
// operand promotion is considered (OP0/OP1/OP2/VAR/EXT).
type operandArity int

const (
	arity0 operandArity = iota
	arity1
	arity2
	arityVar
	arityExt
)

// mnemonicInfo is one entry in the encoder's opcode table: the shape
// the mnemonic naturally belongs to, its opcode number within that
// shape, whether it stores a result, whether it branches, and the
// lowest Z-Machine version in which it is legal.
type mnemonicInfo struct {
	arity      operandArity
	opcodeNum  uint8
	hasResult  bool
	hasBranch  bool
	minVersion zversion.Version
	v3Form     *mnemonicInfo // SAVE/RESTORE: 0OP in v3, extended in v4+
}

// mnemonics is grounded directly in the interpreter's opcode dispatch
// table (decode direction), inverted here into an encode-direction
// lookup keyed by assembler mnemonic.
var mnemonics = map[string]mnemonicInfo{
	// 0OP
	"RTRUE":      {arity: arity0, opcodeNum: 0},
	"RFALSE":     {arity: arity0, opcodeNum: 1},
	"PRINT":      {arity: arity0, opcodeNum: 2},
	"PRINT_RET":  {arity: arity0, opcodeNum: 3},
	"NOP":        {arity: arity0, opcodeNum: 4},
	"RET_POPPED": {arity: arity0, opcodeNum: 8},
	"QUIT":       {arity: arity0, opcodeNum: 10},
	"NEWLINE":    {arity: arity0, opcodeNum: 11},
	"VERIFY":     {arity: arity0, opcodeNum: 13, hasBranch: true, minVersion: zversion.V3},
	"PIRACY":     {arity: arity0, opcodeNum: 15, hasBranch: true, minVersion: zversion.V5},

	// SAVE/RESTORE: 0OP form in v3 (with a trailing result byte),
	// extended form (0xBE 0x00 / 0xBE 0x01) in v4+.
	"SAVE": {
		arity: arityExt, opcodeNum: 0x00, hasResult: true, minVersion: zversion.V4,
		v3Form: &mnemonicInfo{arity: arity0, opcodeNum: 5, hasResult: true, minVersion: zversion.V3},
	},
	"RESTORE": {
		arity: arityExt, opcodeNum: 0x01, hasResult: true, minVersion: zversion.V4,
		v3Form: &mnemonicInfo{arity: arity0, opcodeNum: 6, hasResult: true, minVersion: zversion.V3},
	},

	// 1OP
	"JZ":           {arity: arity1, opcodeNum: 0, hasBranch: true},
	"GET_SIBLING":  {arity: arity1, opcodeNum: 1, hasResult: true, hasBranch: true},
	"GET_CHILD":    {arity: arity1, opcodeNum: 2, hasResult: true, hasBranch: true},
	"GET_PARENT":   {arity: arity1, opcodeNum: 3, hasResult: true},
	"GET_PROP_LEN": {arity: arity1, opcodeNum: 4, hasResult: true},
	"INC":          {arity: arity1, opcodeNum: 5},
	"DEC":          {arity: arity1, opcodeNum: 6},
	"PRINT_ADDR":   {arity: arity1, opcodeNum: 7},
	"CALL_1S":      {arity: arity1, opcodeNum: 8, hasResult: true, minVersion: zversion.V4},
	"REMOVE_OBJ":   {arity: arity1, opcodeNum: 9},
	"PRINT_OBJ":    {arity: arity1, opcodeNum: 10},
	"RET":          {arity: arity1, opcodeNum: 11},
	"JUMP":         {arity: arity1, opcodeNum: 12},
	"PRINT_PADDR":  {arity: arity1, opcodeNum: 13},
	"LOAD":         {arity: arity1, opcodeNum: 14, hasResult: true},
	"NOT":          {arity: arity1, opcodeNum: 15, hasResult: true},
	"CALL_1N":      {arity: arity1, opcodeNum: 15, minVersion: zversion.V5},

	// 2OP
	"JE":            {arity: arity2, opcodeNum: 1, hasBranch: true},
	"JL":            {arity: arity2, opcodeNum: 2, hasBranch: true},
	"JG":            {arity: arity2, opcodeNum: 3, hasBranch: true},
	"DEC_CHK":       {arity: arity2, opcodeNum: 4, hasBranch: true},
	"INC_CHK":       {arity: arity2, opcodeNum: 5, hasBranch: true},
	"JIN":           {arity: arity2, opcodeNum: 6, hasBranch: true},
	"TEST":          {arity: arity2, opcodeNum: 7, hasBranch: true},
	"OR":            {arity: arity2, opcodeNum: 8, hasResult: true},
	"AND":           {arity: arity2, opcodeNum: 9, hasResult: true},
	"TEST_ATTR":     {arity: arity2, opcodeNum: 10, hasBranch: true},
	"SET_ATTR":      {arity: arity2, opcodeNum: 11},
	"CLEAR_ATTR":    {arity: arity2, opcodeNum: 12},
	"STORE":         {arity: arity2, opcodeNum: 13},
	"INSERT_OBJ":    {arity: arity2, opcodeNum: 14},
	"LOADW":         {arity: arity2, opcodeNum: 15, hasResult: true},
	"LOADB":         {arity: arity2, opcodeNum: 16, hasResult: true},
	"GET_PROP":      {arity: arity2, opcodeNum: 17, hasResult: true},
	"GET_PROP_ADDR": {arity: arity2, opcodeNum: 18, hasResult: true},
	"GET_NEXT_PROP": {arity: arity2, opcodeNum: 19, hasResult: true},
	"ADD":           {arity: arity2, opcodeNum: 20, hasResult: true},
	"SUB":           {arity: arity2, opcodeNum: 21, hasResult: true},
	"MUL":           {arity: arity2, opcodeNum: 22, hasResult: true},
	"DIV":           {arity: arity2, opcodeNum: 23, hasResult: true},
	"MOD":           {arity: arity2, opcodeNum: 24, hasResult: true},
	"CALL_2S":       {arity: arity2, opcodeNum: 25, hasResult: true, minVersion: zversion.V4},
	"CALL_2N":       {arity: arity2, opcodeNum: 26, minVersion: zversion.V5},
	"SET_COLOUR":    {arity: arity2, opcodeNum: 27, minVersion: zversion.V5},
	"THROW":         {arity: arity2, opcodeNum: 28, minVersion: zversion.V5},

	// VAR
	"CALL":            {arity: arityVar, opcodeNum: 0, hasResult: true},
	"CALL_VS":         {arity: arityVar, opcodeNum: 0, hasResult: true},
	"STOREW":          {arity: arityVar, opcodeNum: 1},
	"STOREB":          {arity: arityVar, opcodeNum: 2},
	"PUT_PROP":        {arity: arityVar, opcodeNum: 3},
	"SREAD":           {arity: arityVar, opcodeNum: 4},
	"AREAD":           {arity: arityVar, opcodeNum: 4, hasResult: true, minVersion: zversion.V5},
	"PRINT_CHAR":      {arity: arityVar, opcodeNum: 5},
	"PRINT_NUM":       {arity: arityVar, opcodeNum: 6},
	"RANDOM":          {arity: arityVar, opcodeNum: 7, hasResult: true},
	"PUSH":            {arity: arityVar, opcodeNum: 8},
	"PULL":            {arity: arityVar, opcodeNum: 9},
	"SPLIT_WINDOW":    {arity: arityVar, opcodeNum: 10, minVersion: zversion.V3},
	"SET_WINDOW":      {arity: arityVar, opcodeNum: 11, minVersion: zversion.V3},
	"CALL_VS2":        {arity: arityVar, opcodeNum: 12, hasResult: true, minVersion: zversion.V4},
	"ERASE_WINDOW":    {arity: arityVar, opcodeNum: 13, minVersion: zversion.V4},
	"ERASE_LINE":      {arity: arityVar, opcodeNum: 14, minVersion: zversion.V4},
	"SET_CURSOR":      {arity: arityVar, opcodeNum: 15, minVersion: zversion.V4},
	"SET_TEXT_STYLE":  {arity: arityVar, opcodeNum: 17, minVersion: zversion.V4},
	"BUFFER_MODE":     {arity: arityVar, opcodeNum: 18, minVersion: zversion.V4},
	"SOUND_EFFECT":    {arity: arityVar, opcodeNum: 19, minVersion: zversion.V4},
	"READ_CHAR":       {arity: arityVar, opcodeNum: 20, hasResult: true, minVersion: zversion.V4},
	"SCAN_TABLE":      {arity: arityVar, opcodeNum: 21, hasResult: true, hasBranch: true, minVersion: zversion.V4},
	"NOT_V5":          {arity: arityVar, opcodeNum: 24, hasResult: true, minVersion: zversion.V5},
	"CALL_VN":         {arity: arityVar, opcodeNum: 25, minVersion: zversion.V5},
	"CALL_VN2":        {arity: arityVar, opcodeNum: 26, minVersion: zversion.V5},
	"TOKENISE":        {arity: arityVar, opcodeNum: 27, minVersion: zversion.V5},
	"ENCODE_TEXT":     {arity: arityVar, opcodeNum: 28, minVersion: zversion.V5},
	"COPY_TABLE":      {arity: arityVar, opcodeNum: 29, minVersion: zversion.V5},
	"PRINT_TABLE":     {arity: arityVar, opcodeNum: 30, minVersion: zversion.V5},
	"CHECK_ARG_COUNT": {arity: arityVar, opcodeNum: 31, hasBranch: true, minVersion: zversion.V5},

	// EXT (v5+), excluding SAVE/RESTORE which are special-cased above.
	"LOG_SHIFT":       {arity: arityExt, opcodeNum: 0x02, hasResult: true, minVersion: zversion.V5},
	"ART_SHIFT":       {arity: arityExt, opcodeNum: 0x03, hasResult: true, minVersion: zversion.V5},
	"SAVE_UNDO":       {arity: arityExt, opcodeNum: 0x09, hasResult: true, minVersion: zversion.V5},
	"RESTORE_UNDO":    {arity: arityExt, opcodeNum: 0x0a, hasResult: true, minVersion: zversion.V5},
	"PRINT_UNICODE":   {arity: arityExt, opcodeNum: 0x0b, minVersion: zversion.V5},
	"CHECK_UNICODE":   {arity: arityExt, opcodeNum: 0x0c, hasResult: true, minVersion: zversion.V5},
	"SET_TRUE_COLOUR": {arity: arityExt, opcodeNum: 0x0d, minVersion: zversion.V5},
	"SOUND":           {arity: arityVar, opcodeNum: 19, minVersion: zversion.V4},
}
