package swf

import (
	"encoding/binary"
	"math"
)

// ---------------------------------------------------------------------------
// ActionWriter: assembles AVM1 action records
// ---------------------------------------------------------------------------

// ActionWriter builds AVM1 code. It is used by hosts that synthesize code
// (event handler stubs, test fixtures) rather than loading it from a movie.
type ActionWriter struct {
	bytes []byte
}

// NewActionWriter creates an empty writer.
func NewActionWriter() *ActionWriter {
	return &ActionWriter{bytes: make([]byte, 0, 64)}
}

// Bytes returns the assembled code.
func (w *ActionWriter) Bytes() []byte {
	return w.bytes
}

// Len returns the current length.
func (w *ActionWriter) Len() int {
	return len(w.bytes)
}

// Slice wraps the assembled code in a standalone movie of the given version.
func (w *ActionWriter) Slice(version uint8) Slice {
	return SliceOf(version, w.bytes)
}

// Emit appends a record with no payload.
func (w *ActionWriter) Emit(code ActionCode) *ActionWriter {
	w.bytes = append(w.bytes, byte(code))
	return w
}

func (w *ActionWriter) record(code ActionCode, payload []byte) {
	w.bytes = append(w.bytes, byte(code), byte(len(payload)), byte(len(payload)>>8))
	w.bytes = append(w.bytes, payload...)
}

func appendStr(b []byte, s string) []byte {
	b = append(b, s...)
	return append(b, 0)
}

func appendU16(b []byte, v uint16) []byte {
	return append(b, byte(v), byte(v>>8))
}

// Push appends a Push record carrying values.
func (w *ActionWriter) Push(values ...PushValue) *ActionWriter {
	var p []byte
	for _, v := range values {
		p = append(p, byte(v.Kind))
		switch v.Kind {
		case PushString:
			p = appendStr(p, v.Str)
		case PushFloat:
			p = binary.LittleEndian.AppendUint32(p, math.Float32bits(float32(v.Num)))
		case PushRegister, PushConstant8:
			p = append(p, byte(v.Index))
		case PushBool:
			if v.Bool {
				p = append(p, 1)
			} else {
				p = append(p, 0)
			}
		case PushDouble:
			bits := math.Float64bits(v.Num)
			p = binary.LittleEndian.AppendUint32(p, uint32(bits>>32))
			p = binary.LittleEndian.AppendUint32(p, uint32(bits))
		case PushInt:
			p = binary.LittleEndian.AppendUint32(p, uint32(v.Int))
		case PushConstant:
			p = appendU16(p, v.Index)
		}
	}
	w.record(ActionPush, p)
	return w
}

// ConstantPool appends a ConstantPool record.
func (w *ActionWriter) ConstantPool(strs ...string) *ActionWriter {
	p := appendU16(nil, uint16(len(strs)))
	for _, s := range strs {
		p = appendStr(p, s)
	}
	w.record(ActionConstantPool, p)
	return w
}

// GotoFrame appends a GotoFrame record; frame is zero-based.
func (w *ActionWriter) GotoFrame(frame uint16) *ActionWriter {
	w.record(ActionGotoFrame, appendU16(nil, frame))
	return w
}

// GotoLabel appends a GotoLabel record.
func (w *ActionWriter) GotoLabel(label string) *ActionWriter {
	w.record(ActionGotoLabel, appendStr(nil, label))
	return w
}

// SetTarget appends a SetTarget record.
func (w *ActionWriter) SetTarget(path string) *ActionWriter {
	w.record(ActionSetTarget, appendStr(nil, path))
	return w
}

// GetUrl appends a GetUrl record.
func (w *ActionWriter) GetUrl(url, target string) *ActionWriter {
	w.record(ActionGetUrl, appendStr(appendStr(nil, url), target))
	return w
}

// WaitForFrame appends a WaitForFrame record.
func (w *ActionWriter) WaitForFrame(frame uint16, skip uint8) *ActionWriter {
	w.record(ActionWaitForFrame, append(appendU16(nil, frame), skip))
	return w
}

// StoreRegister appends a StoreRegister record.
func (w *ActionWriter) StoreRegister(r uint8) *ActionWriter {
	w.record(ActionStoreRegister, []byte{r})
	return w
}

// GotoFrame2 appends a GotoFrame2 record.
func (w *ActionWriter) GotoFrame2(play bool) *ActionWriter {
	var flags byte
	if play {
		flags = 1
	}
	w.record(ActionGotoFrame2, []byte{flags})
	return w
}

// ---------------------------------------------------------------------------
// Branches
// ---------------------------------------------------------------------------

// Label is a branch target inside one writer.
type Label struct {
	resolved bool
	position int
	refs     []int
}

// NewLabel creates an unresolved label.
func (w *ActionWriter) NewLabel() *Label {
	return &Label{}
}

// Mark resolves label to the current position and patches forward branches.
func (w *ActionWriter) Mark(label *Label) {
	if label.resolved {
		panic("label already resolved")
	}
	label.resolved = true
	label.position = len(w.bytes)
	for _, ref := range label.refs {
		offset := label.position - (ref + 2)
		w.bytes[ref] = byte(offset)
		w.bytes[ref+1] = byte(offset >> 8)
	}
	label.refs = nil
}

// Jump appends a Jump to label.
func (w *ActionWriter) Jump(label *Label) *ActionWriter {
	return w.branch(ActionJump, label)
}

// If appends a conditional branch to label, taken when the popped value is true.
func (w *ActionWriter) If(label *Label) *ActionWriter {
	return w.branch(ActionIf, label)
}

func (w *ActionWriter) branch(code ActionCode, label *Label) *ActionWriter {
	w.bytes = append(w.bytes, byte(code), 2, 0)
	if label.resolved {
		offset := label.position - (len(w.bytes) + 2)
		w.bytes = append(w.bytes, byte(offset), byte(offset>>8))
	} else {
		label.refs = append(label.refs, len(w.bytes))
		w.bytes = append(w.bytes, 0, 0)
	}
	return w
}

// ---------------------------------------------------------------------------
// Blocks with inline bodies
// ---------------------------------------------------------------------------

func assemble(body func(*ActionWriter)) []byte {
	if body == nil {
		return nil
	}
	sub := NewActionWriter()
	body(sub)
	return sub.bytes
}

// DefineFunction appends a legacy function definition followed by its body.
func (w *ActionWriter) DefineFunction(name string, params []string, body func(*ActionWriter)) *ActionWriter {
	code := assemble(body)
	p := appendStr(nil, name)
	p = appendU16(p, uint16(len(params)))
	for _, param := range params {
		p = appendStr(p, param)
	}
	p = appendU16(p, uint16(len(code)))
	w.record(ActionDefineFunction, p)
	w.bytes = append(w.bytes, code...)
	return w
}

// DefineFunction2 appends a register-based function definition followed by its body.
func (w *ActionWriter) DefineFunction2(name string, registerCount uint8, flags uint16, params []FunctionParam, body func(*ActionWriter)) *ActionWriter {
	code := assemble(body)
	p := appendStr(nil, name)
	p = appendU16(p, uint16(len(params)))
	p = append(p, registerCount)
	p = appendU16(p, flags)
	for _, param := range params {
		p = append(p, param.Register)
		p = appendStr(p, param.Name)
	}
	p = appendU16(p, uint16(len(code)))
	w.record(ActionDefineFunction2, p)
	w.bytes = append(w.bytes, code...)
	return w
}

// With appends a with-block whose body runs with the popped object in scope.
func (w *ActionWriter) With(body func(*ActionWriter)) *ActionWriter {
	code := assemble(body)
	w.record(ActionWith, appendU16(nil, uint16(len(code))))
	w.bytes = append(w.bytes, code...)
	return w
}

// Try appends a try block. An empty catchName with catchBody set catches into
// register catchReg instead of a variable.
func (w *ActionWriter) Try(catchName string, catchReg uint8, tryBody, catchBody, finallyBody func(*ActionWriter)) *ActionWriter {
	tryCode := assemble(tryBody)
	catchCode := assemble(catchBody)
	finallyCode := assemble(finallyBody)

	var flags byte
	if catchBody != nil {
		flags |= 0x01
	}
	if finallyBody != nil {
		flags |= 0x02
	}
	if catchName == "" {
		flags |= 0x04
	}
	p := []byte{flags}
	p = appendU16(p, uint16(len(tryCode)))
	p = appendU16(p, uint16(len(catchCode)))
	p = appendU16(p, uint16(len(finallyCode)))
	if catchName == "" {
		p = append(p, catchReg)
	} else {
		p = appendStr(p, catchName)
	}
	w.record(ActionTry, p)
	w.bytes = append(w.bytes, tryCode...)
	w.bytes = append(w.bytes, catchCode...)
	w.bytes = append(w.bytes, finallyCode...)
	return w
}
