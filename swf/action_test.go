package swf

import (
	"errors"
	"testing"
)

// ---------------------------------------------------------------------------
// Reader
// ---------------------------------------------------------------------------

func TestReaderDecodesPushValues(t *testing.T) {
	w := NewActionWriter()
	w.Push(Str("hello"), Double(1.5), Int(-7), Bool(true), Null(), Undefined(), Register(2), Constant(3), Constant(300))
	w.Emit(ActionPop)

	r := NewReader(w.Slice(8))
	act, err := r.ReadAction()
	if err != nil {
		t.Fatalf("ReadAction: %v", err)
	}
	if act.Code != ActionPush {
		t.Fatalf("Code = %v, want Push", act.Code)
	}
	if len(act.Values) != 9 {
		t.Fatalf("len(Values) = %d, want 9", len(act.Values))
	}
	if act.Values[0].Str != "hello" {
		t.Errorf("Values[0] = %q, want hello", act.Values[0].Str)
	}
	if act.Values[1].Num != 1.5 {
		t.Errorf("Values[1] = %v, want 1.5", act.Values[1].Num)
	}
	if act.Values[2].Int != -7 {
		t.Errorf("Values[2] = %v, want -7", act.Values[2].Int)
	}
	if !act.Values[3].Bool {
		t.Errorf("Values[3] = false, want true")
	}
	if act.Values[6].Kind != PushRegister || act.Values[6].Index != 2 {
		t.Errorf("Values[6] = %+v, want register 2", act.Values[6])
	}
	if act.Values[7].Kind != PushConstant8 || act.Values[8].Kind != PushConstant || act.Values[8].Index != 300 {
		t.Errorf("constant operands decoded as %+v, %+v", act.Values[7], act.Values[8])
	}

	next, err := r.ReadAction()
	if err != nil || next.Code != ActionPop || next.Length != 1 {
		t.Errorf("second action = %+v, %v; want Pop of length 1", next, err)
	}
	if !r.Done() {
		t.Errorf("Done() = false after last record")
	}
	end, _ := r.ReadAction()
	if end.Code != ActionEnd {
		t.Errorf("read past end = %v, want End", end.Code)
	}
}

func TestReaderTruncatedRecord(t *testing.T) {
	code := []byte{byte(ActionPush), 10, 0, byte(PushString), 'a'}
	r := NewReader(SliceOf(6, code))
	if _, err := r.ReadAction(); !errors.Is(err, ErrTruncated) {
		t.Errorf("ReadAction error = %v, want ErrTruncated", err)
	}
}

func TestReaderFunctionHeaders(t *testing.T) {
	w := NewActionWriter()
	w.DefineFunction("f", []string{"a", "b"}, func(b *ActionWriter) {
		b.Push(Int(1)).Emit(ActionReturn)
	})
	w.DefineFunction2("g", 4, FuncPreloadThis|FuncSuppressArguments,
		[]FunctionParam{{Register: 2, Name: "x"}}, func(b *ActionWriter) {
			b.Emit(ActionReturn)
		})

	r := NewReader(w.Slice(7))
	f, err := r.ReadAction()
	if err != nil {
		t.Fatal(err)
	}
	if f.Function == nil || f.Function.Name != "f" || len(f.Function.Params) != 2 {
		t.Fatalf("DefineFunction = %+v", f.Function)
	}
	if int(f.Function.CodeSize) != 9 {
		t.Errorf("CodeSize = %d, want 9", f.Function.CodeSize)
	}
	if err := r.Jump(int(f.Function.CodeSize)); err != nil {
		t.Fatal(err)
	}
	g, err := r.ReadAction()
	if err != nil {
		t.Fatal(err)
	}
	fn := g.Function
	if !fn.Version2 || fn.RegisterCount != 4 || fn.Flags != FuncPreloadThis|FuncSuppressArguments {
		t.Errorf("DefineFunction2 header = %+v", fn)
	}
	if fn.Params[0].Register != 2 || fn.Params[0].Name != "x" {
		t.Errorf("param = %+v, want register 2 named x", fn.Params[0])
	}
}

// ---------------------------------------------------------------------------
// Writer branches
// ---------------------------------------------------------------------------

func TestWriterForwardAndBackwardJumps(t *testing.T) {
	w := NewActionWriter()
	top := w.NewLabel()
	end := w.NewLabel()
	w.Mark(top)
	w.Push(Bool(true))
	w.If(end)
	w.Jump(top)
	w.Mark(end)

	r := NewReader(w.Slice(6))
	if _, err := r.ReadAction(); err != nil {
		t.Fatal(err)
	}
	branch, _ := r.ReadAction()
	if branch.Code != ActionIf || int(branch.Offset) != 5 {
		t.Errorf("If offset = %d, want 5", branch.Offset)
	}
	back, _ := r.ReadAction()
	if back.Code != ActionJump || r.Pos()+int(back.Offset) != 0 {
		t.Errorf("Jump lands at %d, want 0", r.Pos()+int(back.Offset))
	}
}

func TestSliceSub(t *testing.T) {
	s := SliceOf(5, []byte{1, 2, 3, 4, 5})
	sub, ok := s.Sub(1, 3)
	if !ok {
		t.Fatal("Sub(1, 3) failed")
	}
	if got := sub.Data(); len(got) != 3 || got[0] != 2 {
		t.Errorf("Sub data = %v, want [2 3 4]", got)
	}
	if _, ok := s.Sub(3, 5); ok {
		t.Errorf("Sub(3, 5) succeeded past the end")
	}
}

func TestTwipsConversion(t *testing.T) {
	if got := TwipsFromPixels(1.5); got != 30 {
		t.Errorf("TwipsFromPixels(1.5) = %d, want 30", got)
	}
	if got := Twips(-40).Pixels(); got != -2 {
		t.Errorf("Pixels() = %v, want -2", got)
	}
}
