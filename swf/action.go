package swf

import (
	"fmt"
)

// ---------------------------------------------------------------------------
// AVM1 action codes
// ---------------------------------------------------------------------------

// ActionCode identifies a single AVM1 action record. Codes at or above 0x80
// carry a 16-bit little-endian payload length after the code byte.
type ActionCode byte

// Timeline control
const (
	ActionEnd           ActionCode = 0x00
	ActionNextFrame     ActionCode = 0x04
	ActionPrevFrame     ActionCode = 0x05
	ActionPlay          ActionCode = 0x06
	ActionStop          ActionCode = 0x07
	ActionToggleQuality ActionCode = 0x08
	ActionStopSounds    ActionCode = 0x09
	ActionGotoFrame     ActionCode = 0x81
	ActionGetUrl        ActionCode = 0x83
	ActionWaitForFrame  ActionCode = 0x8A
	ActionSetTarget     ActionCode = 0x8B
	ActionGotoLabel     ActionCode = 0x8C
	ActionWaitForFrame2 ActionCode = 0x8D
	ActionGetUrl2       ActionCode = 0x9A
	ActionGotoFrame2    ActionCode = 0x9F
	ActionCall          ActionCode = 0x9E
)

// Arithmetic, logic and strings (SWF 4)
const (
	ActionAdd             ActionCode = 0x0A
	ActionSubtract        ActionCode = 0x0B
	ActionMultiply        ActionCode = 0x0C
	ActionDivide          ActionCode = 0x0D
	ActionEquals          ActionCode = 0x0E
	ActionLess            ActionCode = 0x0F
	ActionAnd             ActionCode = 0x10
	ActionOr              ActionCode = 0x11
	ActionNot             ActionCode = 0x12
	ActionStringEquals    ActionCode = 0x13
	ActionStringLength    ActionCode = 0x14
	ActionStringExtract   ActionCode = 0x15
	ActionPop             ActionCode = 0x17
	ActionToInteger       ActionCode = 0x18
	ActionGetVariable     ActionCode = 0x1C
	ActionSetVariable     ActionCode = 0x1D
	ActionSetTarget2      ActionCode = 0x20
	ActionStringAdd       ActionCode = 0x21
	ActionGetProperty     ActionCode = 0x22
	ActionSetProperty     ActionCode = 0x23
	ActionCloneSprite     ActionCode = 0x24
	ActionRemoveSprite    ActionCode = 0x25
	ActionTrace           ActionCode = 0x26
	ActionStartDrag       ActionCode = 0x27
	ActionEndDrag         ActionCode = 0x28
	ActionStringLess      ActionCode = 0x29
	ActionThrow           ActionCode = 0x2A
	ActionCastOp          ActionCode = 0x2B
	ActionImplementsOp    ActionCode = 0x2C
	ActionRandomNumber    ActionCode = 0x30
	ActionMBStringLength  ActionCode = 0x31
	ActionCharToAscii     ActionCode = 0x32
	ActionAsciiToChar     ActionCode = 0x33
	ActionGetTime         ActionCode = 0x34
	ActionMBStringExtract ActionCode = 0x35
	ActionMBCharToAscii   ActionCode = 0x36
	ActionMBAsciiToChar   ActionCode = 0x37
)

// Object model (SWF 5+)
const (
	ActionDelete        ActionCode = 0x3A
	ActionDelete2       ActionCode = 0x3B
	ActionDefineLocal   ActionCode = 0x3C
	ActionCallFunction  ActionCode = 0x3D
	ActionReturn        ActionCode = 0x3E
	ActionModulo        ActionCode = 0x3F
	ActionNewObject     ActionCode = 0x40
	ActionDefineLocal2  ActionCode = 0x41
	ActionInitArray     ActionCode = 0x42
	ActionInitObject    ActionCode = 0x43
	ActionTypeOf        ActionCode = 0x44
	ActionTargetPath    ActionCode = 0x45
	ActionEnumerate     ActionCode = 0x46
	ActionAdd2          ActionCode = 0x47
	ActionLess2         ActionCode = 0x48
	ActionEquals2       ActionCode = 0x49
	ActionToNumber      ActionCode = 0x4A
	ActionToString      ActionCode = 0x4B
	ActionPushDuplicate ActionCode = 0x4C
	ActionStackSwap     ActionCode = 0x4D
	ActionGetMember     ActionCode = 0x4E
	ActionSetMember     ActionCode = 0x4F
	ActionIncrement     ActionCode = 0x50
	ActionDecrement     ActionCode = 0x51
	ActionCallMethod    ActionCode = 0x52
	ActionNewMethod     ActionCode = 0x53
	ActionInstanceOf    ActionCode = 0x54
	ActionEnumerate2    ActionCode = 0x55
	ActionBitAnd        ActionCode = 0x60
	ActionBitOr         ActionCode = 0x61
	ActionBitXor        ActionCode = 0x62
	ActionBitLShift     ActionCode = 0x63
	ActionBitRShift     ActionCode = 0x64
	ActionBitURShift    ActionCode = 0x65
	ActionStrictEquals  ActionCode = 0x66
	ActionGreater       ActionCode = 0x67
	ActionStringGreater ActionCode = 0x68
	ActionExtends       ActionCode = 0x69
)

// Actions carrying a payload
const (
	ActionStoreRegister   ActionCode = 0x87
	ActionConstantPool    ActionCode = 0x88
	ActionDefineFunction2 ActionCode = 0x8E
	ActionTry             ActionCode = 0x8F
	ActionWith            ActionCode = 0x94
	ActionPush            ActionCode = 0x96
	ActionJump            ActionCode = 0x99
	ActionDefineFunction  ActionCode = 0x9B
	ActionIf              ActionCode = 0x9D
)

var actionNames = map[ActionCode]string{
	ActionEnd: "End", ActionNextFrame: "NextFrame", ActionPrevFrame: "PrevFrame",
	ActionPlay: "Play", ActionStop: "Stop", ActionToggleQuality: "ToggleQuality",
	ActionStopSounds: "StopSounds", ActionGotoFrame: "GotoFrame", ActionGetUrl: "GetUrl",
	ActionWaitForFrame: "WaitForFrame", ActionSetTarget: "SetTarget", ActionGotoLabel: "GotoLabel",
	ActionWaitForFrame2: "WaitForFrame2", ActionGetUrl2: "GetUrl2", ActionGotoFrame2: "GotoFrame2",
	ActionCall: "Call",

	ActionAdd: "Add", ActionSubtract: "Subtract", ActionMultiply: "Multiply",
	ActionDivide: "Divide", ActionEquals: "Equals", ActionLess: "Less", ActionAnd: "And",
	ActionOr: "Or", ActionNot: "Not", ActionStringEquals: "StringEquals",
	ActionStringLength: "StringLength", ActionStringExtract: "StringExtract", ActionPop: "Pop",
	ActionToInteger: "ToInteger", ActionGetVariable: "GetVariable", ActionSetVariable: "SetVariable",
	ActionSetTarget2: "SetTarget2", ActionStringAdd: "StringAdd", ActionGetProperty: "GetProperty",
	ActionSetProperty: "SetProperty", ActionCloneSprite: "CloneSprite", ActionRemoveSprite: "RemoveSprite",
	ActionTrace: "Trace", ActionStartDrag: "StartDrag", ActionEndDrag: "EndDrag",
	ActionStringLess: "StringLess", ActionThrow: "Throw", ActionCastOp: "CastOp",
	ActionImplementsOp: "ImplementsOp", ActionRandomNumber: "RandomNumber",
	ActionMBStringLength: "MBStringLength", ActionCharToAscii: "CharToAscii",
	ActionAsciiToChar: "AsciiToChar", ActionGetTime: "GetTime", ActionMBStringExtract: "MBStringExtract",
	ActionMBCharToAscii: "MBCharToAscii", ActionMBAsciiToChar: "MBAsciiToChar",

	ActionDelete: "Delete", ActionDelete2: "Delete2", ActionDefineLocal: "DefineLocal",
	ActionCallFunction: "CallFunction", ActionReturn: "Return", ActionModulo: "Modulo",
	ActionNewObject: "NewObject", ActionDefineLocal2: "DefineLocal2", ActionInitArray: "InitArray",
	ActionInitObject: "InitObject", ActionTypeOf: "TypeOf", ActionTargetPath: "TargetPath",
	ActionEnumerate: "Enumerate", ActionAdd2: "Add2", ActionLess2: "Less2", ActionEquals2: "Equals2",
	ActionToNumber: "ToNumber", ActionToString: "ToString", ActionPushDuplicate: "PushDuplicate",
	ActionStackSwap: "StackSwap", ActionGetMember: "GetMember", ActionSetMember: "SetMember",
	ActionIncrement: "Increment", ActionDecrement: "Decrement", ActionCallMethod: "CallMethod",
	ActionNewMethod: "NewMethod", ActionInstanceOf: "InstanceOf", ActionEnumerate2: "Enumerate2",
	ActionBitAnd: "BitAnd", ActionBitOr: "BitOr", ActionBitXor: "BitXor", ActionBitLShift: "BitLShift",
	ActionBitRShift: "BitRShift", ActionBitURShift: "BitURShift", ActionStrictEquals: "StrictEquals",
	ActionGreater: "Greater", ActionStringGreater: "StringGreater", ActionExtends: "Extends",

	ActionStoreRegister: "StoreRegister", ActionConstantPool: "ConstantPool",
	ActionDefineFunction2: "DefineFunction2", ActionTry: "Try", ActionWith: "With", ActionPush: "Push",
	ActionJump: "Jump", ActionDefineFunction: "DefineFunction", ActionIf: "If",
}

// String returns the action's mnemonic.
func (c ActionCode) String() string {
	if name, ok := actionNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Unknown_%02X", byte(c))
}

// HasPayload reports whether the record carries a length-prefixed payload.
func (c ActionCode) HasPayload() bool {
	return c >= 0x80
}

// ---------------------------------------------------------------------------
// Decoded actions
// ---------------------------------------------------------------------------

// PushKind is the type tag of a single Push operand.
type PushKind uint8

const (
	PushString    PushKind = 0
	PushFloat     PushKind = 1
	PushNull      PushKind = 2
	PushUndefined PushKind = 3
	PushRegister  PushKind = 4
	PushBool      PushKind = 5
	PushDouble    PushKind = 6
	PushInt       PushKind = 7
	PushConstant8 PushKind = 8
	PushConstant  PushKind = 9
)

// PushValue is one operand of a Push action.
type PushValue struct {
	Kind  PushKind
	Str   string
	Num   float64
	Int   int32
	Bool  bool
	Index uint16 // register number or constant pool index
}

// Str returns a string Push operand.
func Str(s string) PushValue { return PushValue{Kind: PushString, Str: s} }

// Double returns a double Push operand.
func Double(f float64) PushValue { return PushValue{Kind: PushDouble, Num: f} }

// Int returns an integer Push operand.
func Int(i int32) PushValue { return PushValue{Kind: PushInt, Int: i} }

// Bool returns a boolean Push operand.
func Bool(b bool) PushValue { return PushValue{Kind: PushBool, Bool: b} }

// Null returns a null Push operand.
func Null() PushValue { return PushValue{Kind: PushNull} }

// Undefined returns an undefined Push operand.
func Undefined() PushValue { return PushValue{Kind: PushUndefined} }

// Register returns a register-read Push operand.
func Register(r uint8) PushValue { return PushValue{Kind: PushRegister, Index: uint16(r)} }

// Constant returns a constant-pool Push operand.
func Constant(i uint16) PushValue {
	if i < 256 {
		return PushValue{Kind: PushConstant8, Index: i}
	}
	return PushValue{Kind: PushConstant, Index: i}
}

// DefineFunction2 flags.
const (
	FuncPreloadThis       uint16 = 0x0001
	FuncSuppressThis      uint16 = 0x0002
	FuncPreloadArguments  uint16 = 0x0004
	FuncSuppressArguments uint16 = 0x0008
	FuncPreloadSuper      uint16 = 0x0010
	FuncSuppressSuper     uint16 = 0x0020
	FuncPreloadRoot       uint16 = 0x0040
	FuncPreloadParent     uint16 = 0x0080
	FuncPreloadGlobal     uint16 = 0x0100
)

// FunctionParam is a DefineFunction2 parameter. Register 0 means the
// parameter lives in the local scope under Name.
type FunctionParam struct {
	Register uint8
	Name     string
}

// Function describes a DefineFunction or DefineFunction2 header. The body is
// the CodeSize bytes immediately following the action record.
type Function struct {
	Name          string
	Params        []FunctionParam
	RegisterCount uint8
	Flags         uint16
	CodeSize      uint16
	Version2      bool
}

// TryBlock describes a Try header. The try, catch and finally bodies follow
// the record back to back.
type TryBlock struct {
	TrySize       uint16
	CatchSize     uint16
	FinallySize   uint16
	HasCatch      bool
	HasFinally    bool
	CatchInReg    bool
	CatchRegister uint8
	CatchName     string
}

// GetUrl2 flag bits.
const (
	GetUrlLoadTarget    uint8 = 0x40
	GetUrlLoadVariables uint8 = 0x80
	GetUrlMethodMask    uint8 = 0x03
)

// Action is one decoded action record. Which operand fields are meaningful
// depends on Code.
type Action struct {
	Code   ActionCode
	Length int // bytes consumed, header included

	Frame     uint16      // GotoFrame, WaitForFrame
	SkipCount uint8       // WaitForFrame, WaitForFrame2
	Label     string      // GotoLabel, SetTarget
	URL       string      // GetUrl
	Target    string      // GetUrl
	Offset    int16       // Jump, If
	Register  uint8       // StoreRegister
	Flags     uint8       // GetUrl2, GotoFrame2
	SceneBias uint16      // GotoFrame2
	BlockSize uint16      // With
	Constants []string    // ConstantPool
	Values    []PushValue // Push
	Function  *Function   // DefineFunction, DefineFunction2
	Try       *TryBlock   // Try
}

// String renders the action for logs.
func (a Action) String() string {
	return a.Code.String()
}
