package swf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrTruncated is returned when an action record runs past the end of its slice.
var ErrTruncated = errors.New("swf: truncated action record")

// Reader decodes AVM1 action records one at a time from a code slice.
type Reader struct {
	data    []byte
	pos     int
	version uint8
}

// NewReader creates a reader over the bytes addressed by code.
func NewReader(code Slice) *Reader {
	return &Reader{data: code.Data(), version: code.Version()}
}

// Pos returns the byte offset of the next record.
func (r *Reader) Pos() int {
	return r.pos
}

// Len returns the size of the underlying code.
func (r *Reader) Len() int {
	return len(r.data)
}

// Done reports whether all records have been consumed.
func (r *Reader) Done() bool {
	return r.pos >= len(r.data)
}

// Seek moves to an absolute offset inside the code.
func (r *Reader) Seek(pos int) error {
	if pos < 0 || pos > len(r.data) {
		return fmt.Errorf("swf: seek to %d outside code of length %d", pos, len(r.data))
	}
	r.pos = pos
	return nil
}

// Jump moves by a relative offset from the current position.
func (r *Reader) Jump(offset int) error {
	return r.Seek(r.pos + offset)
}

// ReadAction decodes the next record. A zero code byte decodes as ActionEnd.
func (r *Reader) ReadAction() (Action, error) {
	if r.pos >= len(r.data) {
		return Action{Code: ActionEnd}, nil
	}
	start := r.pos
	code := ActionCode(r.data[r.pos])
	r.pos++
	if !code.HasPayload() {
		return Action{Code: code, Length: 1}, nil
	}
	if r.pos+2 > len(r.data) {
		return Action{}, ErrTruncated
	}
	length := int(binary.LittleEndian.Uint16(r.data[r.pos:]))
	r.pos += 2
	if r.pos+length > len(r.data) {
		return Action{}, fmt.Errorf("%w: %s needs %d bytes at %d", ErrTruncated, code, length, start)
	}
	payload := r.data[r.pos : r.pos+length]
	r.pos += length

	act := Action{Code: code, Length: r.pos - start}
	if err := decodePayload(&act, payload); err != nil {
		return Action{}, fmt.Errorf("swf: decoding %s at %d: %w", code, start, err)
	}
	return act, nil
}

// SkipActions consumes n records without interpreting them.
func (r *Reader) SkipActions(n int) error {
	for i := 0; i < n; i++ {
		if _, err := r.ReadAction(); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Payload decoding
// ---------------------------------------------------------------------------

type payload struct {
	b   []byte
	pos int
}

func (p *payload) u8() (uint8, error) {
	if p.pos+1 > len(p.b) {
		return 0, ErrTruncated
	}
	v := p.b[p.pos]
	p.pos++
	return v, nil
}

func (p *payload) u16() (uint16, error) {
	if p.pos+2 > len(p.b) {
		return 0, ErrTruncated
	}
	v := binary.LittleEndian.Uint16(p.b[p.pos:])
	p.pos += 2
	return v, nil
}

func (p *payload) u32() (uint32, error) {
	if p.pos+4 > len(p.b) {
		return 0, ErrTruncated
	}
	v := binary.LittleEndian.Uint32(p.b[p.pos:])
	p.pos += 4
	return v, nil
}

// str reads a NUL-terminated string.
func (p *payload) str() (string, error) {
	for i := p.pos; i < len(p.b); i++ {
		if p.b[i] == 0 {
			s := string(p.b[p.pos:i])
			p.pos = i + 1
			return s, nil
		}
	}
	return "", ErrTruncated
}

func (p *payload) more() bool {
	return p.pos < len(p.b)
}

func decodePayload(act *Action, raw []byte) error {
	p := &payload{b: raw}
	var err error
	switch act.Code {
	case ActionGotoFrame:
		act.Frame, err = p.u16()
	case ActionGetUrl:
		if act.URL, err = p.str(); err == nil {
			act.Target, err = p.str()
		}
	case ActionWaitForFrame:
		if act.Frame, err = p.u16(); err == nil {
			act.SkipCount, err = p.u8()
		}
	case ActionWaitForFrame2:
		act.SkipCount, err = p.u8()
	case ActionSetTarget, ActionGotoLabel:
		act.Label, err = p.str()
	case ActionGetUrl2:
		act.Flags, err = p.u8()
	case ActionGotoFrame2:
		if act.Flags, err = p.u8(); err == nil && act.Flags&0x02 != 0 {
			act.SceneBias, err = p.u16()
		}
	case ActionStoreRegister:
		act.Register, err = p.u8()
	case ActionJump, ActionIf:
		var off uint16
		off, err = p.u16()
		act.Offset = int16(off)
	case ActionWith:
		act.BlockSize, err = p.u16()
	case ActionConstantPool:
		act.Constants, err = decodeConstantPool(p)
	case ActionPush:
		act.Values, err = decodePush(p)
	case ActionDefineFunction:
		act.Function, err = decodeFunction(p)
	case ActionDefineFunction2:
		act.Function, err = decodeFunction2(p)
	case ActionTry:
		act.Try, err = decodeTry(p)
	}
	return err
}

func decodeConstantPool(p *payload) ([]string, error) {
	n, err := p.u16()
	if err != nil {
		return nil, err
	}
	pool := make([]string, 0, n)
	for i := 0; i < int(n); i++ {
		s, err := p.str()
		if err != nil {
			return nil, err
		}
		pool = append(pool, s)
	}
	return pool, nil
}

func decodePush(p *payload) ([]PushValue, error) {
	var values []PushValue
	for p.more() {
		kind, err := p.u8()
		if err != nil {
			return nil, err
		}
		v := PushValue{Kind: PushKind(kind)}
		switch v.Kind {
		case PushString:
			v.Str, err = p.str()
		case PushFloat:
			var bits uint32
			bits, err = p.u32()
			v.Num = float64(math.Float32frombits(bits))
		case PushNull, PushUndefined:
		case PushRegister:
			var r uint8
			r, err = p.u8()
			v.Index = uint16(r)
		case PushBool:
			var b uint8
			b, err = p.u8()
			v.Bool = b != 0
		case PushDouble:
			// Doubles are stored as two little-endian words, high word first.
			var hi, lo uint32
			if hi, err = p.u32(); err == nil {
				lo, err = p.u32()
			}
			v.Num = math.Float64frombits(uint64(hi)<<32 | uint64(lo))
		case PushInt:
			var i uint32
			i, err = p.u32()
			v.Int = int32(i)
		case PushConstant8:
			var i uint8
			i, err = p.u8()
			v.Index = uint16(i)
		case PushConstant:
			v.Index, err = p.u16()
		default:
			return nil, fmt.Errorf("unknown push type %d", kind)
		}
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func decodeFunction(p *payload) (*Function, error) {
	name, err := p.str()
	if err != nil {
		return nil, err
	}
	n, err := p.u16()
	if err != nil {
		return nil, err
	}
	fn := &Function{Name: name}
	for i := 0; i < int(n); i++ {
		param, err := p.str()
		if err != nil {
			return nil, err
		}
		fn.Params = append(fn.Params, FunctionParam{Name: param})
	}
	fn.CodeSize, err = p.u16()
	return fn, err
}

func decodeFunction2(p *payload) (*Function, error) {
	name, err := p.str()
	if err != nil {
		return nil, err
	}
	n, err := p.u16()
	if err != nil {
		return nil, err
	}
	fn := &Function{Name: name, Version2: true}
	if fn.RegisterCount, err = p.u8(); err != nil {
		return nil, err
	}
	if fn.Flags, err = p.u16(); err != nil {
		return nil, err
	}
	for i := 0; i < int(n); i++ {
		reg, err := p.u8()
		if err != nil {
			return nil, err
		}
		param, err := p.str()
		if err != nil {
			return nil, err
		}
		fn.Params = append(fn.Params, FunctionParam{Register: reg, Name: param})
	}
	fn.CodeSize, err = p.u16()
	return fn, err
}

func decodeTry(p *payload) (*TryBlock, error) {
	flags, err := p.u8()
	if err != nil {
		return nil, err
	}
	t := &TryBlock{
		HasCatch:   flags&0x01 != 0,
		HasFinally: flags&0x02 != 0,
		CatchInReg: flags&0x04 != 0,
	}
	if t.TrySize, err = p.u16(); err != nil {
		return nil, err
	}
	if t.CatchSize, err = p.u16(); err != nil {
		return nil, err
	}
	if t.FinallySize, err = p.u16(); err != nil {
		return nil, err
	}
	if t.CatchInReg {
		t.CatchRegister, err = p.u8()
	} else {
		t.CatchName, err = p.str()
	}
	return t, err
}
