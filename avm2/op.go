package avm2

import "fmt"

// Opcode identifies an AVM2 instruction. Values match the byte codes of the
// ABC format so decoded method bodies map one to one.
type Opcode uint8

const (
	OpNop            Opcode = 0x02
	OpThrow          Opcode = 0x03
	OpGetSuper       Opcode = 0x04
	OpSetSuper       Opcode = 0x05
	OpKill           Opcode = 0x08
	OpLabel          Opcode = 0x09
	OpIfNLt          Opcode = 0x0C
	OpIfNLe          Opcode = 0x0D
	OpIfNGt          Opcode = 0x0E
	OpIfNGe          Opcode = 0x0F
	OpJump           Opcode = 0x10
	OpIfTrue         Opcode = 0x11
	OpIfFalse        Opcode = 0x12
	OpIfEq           Opcode = 0x13
	OpIfNe           Opcode = 0x14
	OpIfLt           Opcode = 0x15
	OpIfLe           Opcode = 0x16
	OpIfGt           Opcode = 0x17
	OpIfGe           Opcode = 0x18
	OpIfStrictEq     Opcode = 0x19
	OpIfStrictNe     Opcode = 0x1A
	OpLookupSwitch   Opcode = 0x1B
	OpPushWith       Opcode = 0x1C
	OpPopScope       Opcode = 0x1D
	OpNextName       Opcode = 0x1E
	OpPushNull       Opcode = 0x20
	OpPushUndefined  Opcode = 0x21
	OpNextValue      Opcode = 0x23
	OpPushByte       Opcode = 0x24
	OpPushShort      Opcode = 0x25
	OpPushTrue       Opcode = 0x26
	OpPushFalse      Opcode = 0x27
	OpPushNaN        Opcode = 0x28
	OpPop            Opcode = 0x29
	OpDup            Opcode = 0x2A
	OpSwap           Opcode = 0x2B
	OpPushString     Opcode = 0x2C
	OpPushInt        Opcode = 0x2D
	OpPushUint       Opcode = 0x2E
	OpPushDouble     Opcode = 0x2F
	OpPushScope      Opcode = 0x30
	OpHasNext2       Opcode = 0x32
	OpNewFunction    Opcode = 0x40
	OpCall           Opcode = 0x41
	OpConstruct      Opcode = 0x42
	OpCallMethod     Opcode = 0x43
	OpCallSuper      Opcode = 0x45
	OpCallProperty   Opcode = 0x46
	OpReturnVoid     Opcode = 0x47
	OpReturnValue    Opcode = 0x48
	OpConstructSuper Opcode = 0x49
	OpConstructProp  Opcode = 0x4A
	OpCallPropLex    Opcode = 0x4C
	OpCallSuperVoid  Opcode = 0x4E
	OpCallPropVoid   Opcode = 0x4F
	OpNewObject      Opcode = 0x55
	OpNewArray       Opcode = 0x56
	OpNewActivation  Opcode = 0x57
	OpNewClass       Opcode = 0x58
	OpFindPropStrict Opcode = 0x5D
	OpFindProperty   Opcode = 0x5E
	OpGetLex         Opcode = 0x60
	OpSetProperty    Opcode = 0x61
	OpGetLocal       Opcode = 0x62
	OpSetLocal       Opcode = 0x63
	OpGetGlobalScope Opcode = 0x64
	OpGetScopeObject Opcode = 0x65
	OpGetProperty    Opcode = 0x66
	OpInitProperty   Opcode = 0x68
	OpDeleteProperty Opcode = 0x6A
	OpGetSlot        Opcode = 0x6C
	OpSetSlot        Opcode = 0x6D
	OpGetGlobalSlot  Opcode = 0x6E
	OpSetGlobalSlot  Opcode = 0x6F
	OpConvertS       Opcode = 0x70
	OpConvertI       Opcode = 0x73
	OpConvertU       Opcode = 0x74
	OpConvertD       Opcode = 0x75
	OpConvertB       Opcode = 0x76
	OpCoerceA        Opcode = 0x82
	OpCoerceS        Opcode = 0x85
	OpAsType         Opcode = 0x86
	OpNegate         Opcode = 0x90
	OpIncrement      Opcode = 0x91
	OpIncLocal       Opcode = 0x92
	OpDecrement      Opcode = 0x93
	OpDecLocal       Opcode = 0x94
	OpTypeOf         Opcode = 0x95
	OpNot            Opcode = 0x96
	OpBitNot         Opcode = 0x97
	OpAdd            Opcode = 0xA0
	OpSubtract       Opcode = 0xA1
	OpMultiply       Opcode = 0xA2
	OpDivide         Opcode = 0xA3
	OpModulo         Opcode = 0xA4
	OpLShift         Opcode = 0xA5
	OpRShift         Opcode = 0xA6
	OpURShift        Opcode = 0xA7
	OpBitAnd         Opcode = 0xA8
	OpBitOr          Opcode = 0xA9
	OpBitXor         Opcode = 0xAA
	OpEquals         Opcode = 0xAB
	OpStrictEquals   Opcode = 0xAC
	OpLessThan       Opcode = 0xAD
	OpLessEquals     Opcode = 0xAE
	OpGreaterThan    Opcode = 0xAF
	OpGreaterEquals  Opcode = 0xB0
	OpInstanceOf     Opcode = 0xB1
	OpIsType         Opcode = 0xB2
	OpDebug          Opcode = 0xEF
)

// Op is one decoded instruction. Which operand fields are meaningful
// depends on the opcode:
//
//	Int     PushByte, PushShort, PushInt
//	Uint    PushUint; argument count of call and construct ops; the index
//	        register of HasNext2
//	Num     PushDouble
//	Str     PushString; the property or type name of name ops
//	Runtime the name is popped from the stack instead of read from Str
//	Index   local register, slot id, dispatch id, scope index, method or
//	        class index, or the absolute jump target of branches
//	Targets LookupSwitch: default target followed by the case targets
type Op struct {
	Code    Opcode
	Int     int32
	Uint    uint32
	Num     float64
	Str     string
	Runtime bool
	Index   int
	Targets []int
}

func (op Op) String() string {
	switch {
	case op.Str != "":
		return fmt.Sprintf("%s %q", op.Code, op.Str)
	case op.Code.isBranch():
		return fmt.Sprintf("%s ->%d", op.Code, op.Index)
	}
	return op.Code.String()
}

// variableEffect marks opcodes whose stack effect depends on operands.
const variableEffect = -128

// OpcodeInfo holds metadata about an opcode.
type OpcodeInfo struct {
	Name        string
	StackEffect int
}

var opcodeTable = map[Opcode]OpcodeInfo{
	// Control
	OpNop:          {"nop", 0},
	OpLabel:        {"label", 0},
	OpDebug:        {"debug", 0},
	OpThrow:        {"throw", -1},
	OpJump:         {"jump", 0},
	OpIfTrue:       {"iftrue", -1},
	OpIfFalse:      {"iffalse", -1},
	OpIfEq:         {"ifeq", -2},
	OpIfNe:         {"ifne", -2},
	OpIfLt:         {"iflt", -2},
	OpIfLe:         {"ifle", -2},
	OpIfGt:         {"ifgt", -2},
	OpIfGe:         {"ifge", -2},
	OpIfNLt:        {"ifnlt", -2},
	OpIfNLe:        {"ifnle", -2},
	OpIfNGt:        {"ifngt", -2},
	OpIfNGe:        {"ifnge", -2},
	OpIfStrictEq:   {"ifstricteq", -2},
	OpIfStrictNe:   {"ifstrictne", -2},
	OpLookupSwitch: {"lookupswitch", -1},
	OpReturnVoid:   {"returnvoid", 0},
	OpReturnValue:  {"returnvalue", -1},

	// Constants
	OpPushUndefined: {"pushundefined", 1},
	OpPushNull:      {"pushnull", 1},
	OpPushTrue:      {"pushtrue", 1},
	OpPushFalse:     {"pushfalse", 1},
	OpPushNaN:       {"pushnan", 1},
	OpPushByte:      {"pushbyte", 1},
	OpPushShort:     {"pushshort", 1},
	OpPushInt:       {"pushint", 1},
	OpPushUint:      {"pushuint", 1},
	OpPushDouble:    {"pushdouble", 1},
	OpPushString:    {"pushstring", 1},

	// Stack
	OpPop:  {"pop", -1},
	OpDup:  {"dup", 1},
	OpSwap: {"swap", 0},

	// Locals and slots
	OpGetLocal:      {"getlocal", 1},
	OpSetLocal:      {"setlocal", -1},
	OpKill:          {"kill", 0},
	OpIncLocal:      {"inclocal", 0},
	OpDecLocal:      {"declocal", 0},
	OpGetSlot:       {"getslot", 0},
	OpSetSlot:       {"setslot", -2},
	OpGetGlobalSlot: {"getglobalslot", 1},
	OpSetGlobalSlot: {"setglobalslot", -1},

	// Properties
	OpGetProperty:    {"getproperty", variableEffect},
	OpSetProperty:    {"setproperty", variableEffect},
	OpInitProperty:   {"initproperty", variableEffect},
	OpDeleteProperty: {"deleteproperty", variableEffect},
	OpFindProperty:   {"findproperty", variableEffect},
	OpFindPropStrict: {"findpropstrict", variableEffect},
	OpGetLex:         {"getlex", 1},
	OpGetSuper:       {"getsuper", variableEffect},
	OpSetSuper:       {"setsuper", variableEffect},

	// Scopes
	OpPushScope:      {"pushscope", -1},
	OpPushWith:       {"pushwith", -1},
	OpPopScope:       {"popscope", 0},
	OpGetScopeObject: {"getscopeobject", 1},
	OpGetGlobalScope: {"getglobalscope", 1},

	// Construction
	OpNewObject:     {"newobject", variableEffect},
	OpNewArray:      {"newarray", variableEffect},
	OpNewFunction:   {"newfunction", 1},
	OpNewClass:      {"newclass", 0},
	OpNewActivation: {"newactivation", 1},

	// Calls
	OpCallProperty:   {"callproperty", variableEffect},
	OpCallPropVoid:   {"callpropvoid", variableEffect},
	OpCallPropLex:    {"callproplex", variableEffect},
	OpCallMethod:     {"callmethod", variableEffect},
	OpCallSuper:      {"callsuper", variableEffect},
	OpCallSuperVoid:  {"callsupervoid", variableEffect},
	OpCall:           {"call", variableEffect},
	OpConstruct:      {"construct", variableEffect},
	OpConstructProp:  {"constructprop", variableEffect},
	OpConstructSuper: {"constructsuper", variableEffect},

	// Arithmetic and logic
	OpAdd:           {"add", -1},
	OpSubtract:      {"subtract", -1},
	OpMultiply:      {"multiply", -1},
	OpDivide:        {"divide", -1},
	OpModulo:        {"modulo", -1},
	OpNegate:        {"negate", 0},
	OpIncrement:     {"increment", 0},
	OpDecrement:     {"decrement", 0},
	OpNot:           {"not", 0},
	OpBitNot:        {"bitnot", 0},
	OpBitAnd:        {"bitand", -1},
	OpBitOr:         {"bitor", -1},
	OpBitXor:        {"bitxor", -1},
	OpLShift:        {"lshift", -1},
	OpRShift:        {"rshift", -1},
	OpURShift:       {"urshift", -1},
	OpEquals:        {"equals", -1},
	OpStrictEquals:  {"strictequals", -1},
	OpLessThan:      {"lessthan", -1},
	OpLessEquals:    {"lessequals", -1},
	OpGreaterThan:   {"greaterthan", -1},
	OpGreaterEquals: {"greaterequals", -1},

	// Types
	OpTypeOf:     {"typeof", 0},
	OpInstanceOf: {"instanceof", -1},
	OpIsType:     {"istype", 0},
	OpAsType:     {"astype", 0},
	OpCoerceA:    {"coerce_a", 0},
	OpCoerceS:    {"coerce_s", 0},
	OpConvertI:   {"convert_i", 0},
	OpConvertU:   {"convert_u", 0},
	OpConvertD:   {"convert_d", 0},
	OpConvertB:   {"convert_b", 0},
	OpConvertS:   {"convert_s", 0},

	// Enumeration
	OpHasNext2:  {"hasnext2", 1},
	OpNextName:  {"nextname", -1},
	OpNextValue: {"nextvalue", -1},
}

// Info returns the metadata of op.
func (op Opcode) Info() OpcodeInfo {
	if info, ok := opcodeTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("unknown_%02x", byte(op)), StackEffect: 0}
}

// Known reports whether the interpreter implements op.
func (op Opcode) Known() bool {
	_, ok := opcodeTable[op]
	return ok
}

func (op Opcode) String() string {
	return op.Info().Name
}

func (op Opcode) isBranch() bool {
	return op >= OpIfNLt && op <= OpIfStrictNe
}
