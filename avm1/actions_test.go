package avm1

import (
	"testing"

	"github.com/chazu/avm/display"
	"github.com/chazu/avm/swf"
)

// ---------------------------------------------------------------------------
// Arithmetic and strings
// ---------------------------------------------------------------------------

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name    string
		version uint8
		build   func(w *swf.ActionWriter)
		want    string
	}{
		{"add2 numbers", 8, func(w *swf.ActionWriter) {
			w.Push(swf.Int(2), swf.Int(3)).Emit(swf.ActionAdd2)
		}, "5"},
		{"add2 concatenates strings", 8, func(w *swf.ActionWriter) {
			w.Push(swf.Str("a"), swf.Int(1)).Emit(swf.ActionAdd2)
		}, "a1"},
		{"subtract operand order", 8, func(w *swf.ActionWriter) {
			w.Push(swf.Int(10), swf.Int(4)).Emit(swf.ActionSubtract)
		}, "6"},
		{"modulo", 8, func(w *swf.ActionWriter) {
			w.Push(swf.Int(7), swf.Int(3)).Emit(swf.ActionModulo)
		}, "1"},
		{"divide by zero", 8, func(w *swf.ActionWriter) {
			w.Push(swf.Int(1), swf.Int(0)).Emit(swf.ActionDivide)
		}, "Infinity"},
		{"divide by zero in version 4", 4, func(w *swf.ActionWriter) {
			w.Push(swf.Int(1), swf.Int(0)).Emit(swf.ActionDivide)
		}, "#ERROR#"},
		{"version 4 comparisons push numbers", 4, func(w *swf.ActionWriter) {
			w.Push(swf.Int(1), swf.Int(2)).Emit(swf.ActionLess)
		}, "1"},
		{"less2 pushes booleans", 8, func(w *swf.ActionWriter) {
			w.Push(swf.Int(1), swf.Int(2)).Emit(swf.ActionLess2)
		}, "true"},
		{"fractions", 8, func(w *swf.ActionWriter) {
			w.Push(swf.Double(0.1), swf.Double(0.2)).Emit(swf.ActionAdd2)
		}, "0.3"},
		{"bit shift", 8, func(w *swf.ActionWriter) {
			w.Push(swf.Int(1), swf.Int(4)).Emit(swf.ActionBitLShift)
		}, "16"},
		{"unsigned shift", 8, func(w *swf.ActionWriter) {
			w.Push(swf.Int(-1), swf.Int(28)).Emit(swf.ActionBitURShift)
		}, "15"},
		{"to integer truncates", 8, func(w *swf.ActionWriter) {
			w.Push(swf.Double(-2.7)).Emit(swf.ActionToInteger)
		}, "-2"},
		{"string extract is 1-based", 8, func(w *swf.ActionWriter) {
			w.Push(swf.Str("hello"), swf.Int(2), swf.Int(3)).Emit(swf.ActionStringExtract)
		}, "ell"},
		{"string length", 8, func(w *swf.ActionWriter) {
			w.Push(swf.Str("héllo")).Emit(swf.ActionStringLength)
		}, "5"},
		{"char to ascii", 8, func(w *swf.ActionWriter) {
			w.Push(swf.Str("A")).Emit(swf.ActionCharToAscii)
		}, "65"},
		{"typeof", 8, func(w *swf.ActionWriter) {
			w.Push(swf.Str("x")).Emit(swf.ActionTypeOf)
		}, "string"},
		{"strict equals", 8, func(w *swf.ActionWriter) {
			w.Push(swf.Str("1"), swf.Int(1)).Emit(swf.ActionStrictEquals)
		}, "false"},
		{"abstract equals", 8, func(w *swf.ActionWriter) {
			w.Push(swf.Str("1"), swf.Int(1)).Emit(swf.ActionEquals2)
		}, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.version)
			w := swf.NewActionWriter()
			tt.build(w)
			w.Emit(swf.ActionTrace)
			h.run(w)
			h.expectTraces(tt.want)
		})
	}
}

func TestTraceUndefined(t *testing.T) {
	h := newHarness(t, 6)
	w := swf.NewActionWriter()
	w.Push(swf.Undefined()).Emit(swf.ActionTrace)
	h.run(w)
	h.expectTraces("undefined")
}

func TestConstantPool(t *testing.T) {
	h := newHarness(t, 8)
	w := swf.NewActionWriter()
	w.ConstantPool("hello", "world")
	w.Push(swf.Constant(1)).Emit(swf.ActionTrace)
	w.Push(swf.Constant(0)).Emit(swf.ActionTrace)
	h.run(w)
	h.expectTraces("world", "hello")
}

func TestRegisters(t *testing.T) {
	h := newHarness(t, 8)
	w := swf.NewActionWriter()
	w.Push(swf.Str("kept")).StoreRegister(2).Emit(swf.ActionPop)
	w.Push(swf.Register(2)).Emit(swf.ActionTrace)
	h.run(w)
	h.expectTraces("kept")
}

// ---------------------------------------------------------------------------
// Variables and control flow
// ---------------------------------------------------------------------------

func TestVariableNamesFollowFileVersion(t *testing.T) {
	for _, tt := range []struct {
		version uint8
		want    string
	}{
		{6, "1"},
		{7, "undefined"},
	} {
		h := newHarness(t, tt.version)
		w := swf.NewActionWriter()
		w.Push(swf.Str("Foo"), swf.Int(1)).Emit(swf.ActionSetVariable)
		w.Push(swf.Str("foo")).Emit(swf.ActionGetVariable).Emit(swf.ActionTrace)
		h.run(w)
		h.expectTraces(tt.want)
	}
}

func TestLoop(t *testing.T) {
	h := newHarness(t, 8)
	w := swf.NewActionWriter()
	top, end := w.NewLabel(), w.NewLabel()
	w.Push(swf.Str("i"), swf.Int(0)).Emit(swf.ActionSetVariable)
	w.Mark(top)
	w.Push(swf.Str("i")).Emit(swf.ActionGetVariable)
	w.Push(swf.Int(3)).Emit(swf.ActionLess2).Emit(swf.ActionNot)
	w.If(end)
	w.Push(swf.Str("i")).Emit(swf.ActionGetVariable).Emit(swf.ActionTrace)
	w.Push(swf.Str("i"), swf.Str("i")).Emit(swf.ActionGetVariable).Emit(swf.ActionIncrement).Emit(swf.ActionSetVariable)
	w.Jump(top)
	w.Mark(end)
	h.run(w)
	h.expectTraces("0", "1", "2")
}

func TestSlashPathVariables(t *testing.T) {
	h := newHarness(t, 8)
	w := swf.NewActionWriter()
	w.Push(swf.Str("/:score"), swf.Int(42)).Emit(swf.ActionSetVariable)
	w.Push(swf.Str("_root.score")).Emit(swf.ActionGetVariable).Emit(swf.ActionTrace)
	h.run(w)
	h.expectTraces("42")
}

func TestWithBlock(t *testing.T) {
	h := newHarness(t, 8)
	w := swf.NewActionWriter()
	w.Push(swf.Str("x"), swf.Str("inner"), swf.Int(1)).Emit(swf.ActionInitObject)
	w.With(func(b *swf.ActionWriter) {
		b.Push(swf.Str("x")).Emit(swf.ActionGetVariable).Emit(swf.ActionTrace)
	})
	w.Push(swf.Str("x")).Emit(swf.ActionGetVariable).Emit(swf.ActionTrace)
	h.run(w)
	h.expectTraces("inner", "undefined")
}

func TestSetTargetInWithOutlivesBlock(t *testing.T) {
	h := newHarness(t, 8)
	kid := display.NewEmptyMovieClip()
	kid.Base().SetName("kid")
	h.ctx.Stage.AddChild(1, kid)

	w := swf.NewActionWriter()
	w.Push(swf.Str("x"), swf.Int(1), swf.Int(1)).Emit(swf.ActionInitObject)
	w.With(func(b *swf.ActionWriter) {
		b.SetTarget("kid")
	})
	w.Push(swf.Str("marker"), swf.Str("on kid")).Emit(swf.ActionSetVariable)
	w.SetTarget("")
	w.Push(swf.Str("_root.kid.marker")).Emit(swf.ActionGetVariable).Emit(swf.ActionTrace)
	w.Push(swf.Str("marker")).Emit(swf.ActionGetVariable).Emit(swf.ActionTrace)
	h.run(w)
	h.expectTraces("on kid", "undefined")
}

func TestClosureInWithSkipsWithTarget(t *testing.T) {
	h := newHarness(t, 8)
	w := swf.NewActionWriter()
	w.Push(swf.Str("x"), swf.Str("inner"), swf.Int(1)).Emit(swf.ActionInitObject)
	w.With(func(b *swf.ActionWriter) {
		b.Push(swf.Str("f"))
		b.DefineFunction("", nil, func(fn *swf.ActionWriter) {
			fn.Push(swf.Str("x")).Emit(swf.ActionGetVariable).Emit(swf.ActionReturn)
		})
		b.Emit(swf.ActionSetVariable)
	})
	call(w, "f")
	w.Emit(swf.ActionTrace)
	h.run(w)
	h.expectTraces("undefined")
}

func TestTryCatchFinally(t *testing.T) {
	h := newHarness(t, 8)
	w := swf.NewActionWriter()
	w.Try("e", 0,
		func(b *swf.ActionWriter) {
			b.Push(swf.Str("oops")).Emit(swf.ActionThrow)
			b.Push(swf.Str("skipped")).Emit(swf.ActionTrace)
		},
		func(b *swf.ActionWriter) {
			b.Push(swf.Str("e")).Emit(swf.ActionGetVariable).Emit(swf.ActionTrace)
		},
		func(b *swf.ActionWriter) {
			b.Push(swf.Str("finally")).Emit(swf.ActionTrace)
		})
	w.Push(swf.Str("after")).Emit(swf.ActionTrace)
	h.run(w)
	h.expectTraces("oops", "finally", "after")
}

func TestCatchIntoRegister(t *testing.T) {
	h := newHarness(t, 8)
	w := swf.NewActionWriter()
	w.Try("", 1,
		func(b *swf.ActionWriter) {
			b.Push(swf.Int(7)).Emit(swf.ActionThrow)
		},
		func(b *swf.ActionWriter) {
			b.Push(swf.Register(1)).Emit(swf.ActionTrace)
		}, nil)
	h.run(w)
	h.expectTraces("7")
}

func TestFinallyRunsWithoutCatch(t *testing.T) {
	h := newHarness(t, 8)
	w := swf.NewActionWriter()
	w.Try("e", 0,
		func(b *swf.ActionWriter) {
			b.Push(swf.Str("escaping")).Emit(swf.ActionThrow)
		}, nil,
		func(b *swf.ActionWriter) {
			b.Push(swf.Str("cleanup")).Emit(swf.ActionTrace)
		})
	h.run(w)
	h.expectTraces("cleanup", "escaping")
}

// ---------------------------------------------------------------------------
// Functions
// ---------------------------------------------------------------------------

func TestDefineAndCallFunction(t *testing.T) {
	h := newHarness(t, 8)
	w := swf.NewActionWriter()
	w.DefineFunction("add", []string{"a", "b"}, func(b *swf.ActionWriter) {
		b.Push(swf.Str("a")).Emit(swf.ActionGetVariable)
		b.Push(swf.Str("b")).Emit(swf.ActionGetVariable)
		b.Emit(swf.ActionAdd2).Emit(swf.ActionReturn)
	})
	call(w, "add", swf.Int(2), swf.Int(3))
	w.Emit(swf.ActionTrace)
	h.run(w)
	h.expectTraces("5")
}

func TestDefineFunction2Registers(t *testing.T) {
	h := newHarness(t, 8)
	w := swf.NewActionWriter()
	params := []swf.FunctionParam{{Register: 1, Name: "a"}, {Register: 2, Name: "b"}}
	w.DefineFunction2("mul", 3, swf.FuncSuppressArguments|swf.FuncSuppressSuper, params, func(b *swf.ActionWriter) {
		b.Push(swf.Register(1), swf.Register(2)).Emit(swf.ActionMultiply).Emit(swf.ActionReturn)
	})
	call(w, "mul", swf.Int(6), swf.Int(7))
	w.Emit(swf.ActionTrace)
	h.run(w)
	h.expectTraces("42")
}

func TestClosuresCaptureLocals(t *testing.T) {
	h := newHarness(t, 8)
	w := swf.NewActionWriter()
	w.DefineFunction("outer", nil, func(b *swf.ActionWriter) {
		b.Push(swf.Str("x"), swf.Str("captured")).Emit(swf.ActionDefineLocal)
		b.DefineFunction("", nil, func(inner *swf.ActionWriter) {
			inner.Push(swf.Str("x")).Emit(swf.ActionGetVariable).Emit(swf.ActionReturn)
		})
		b.Emit(swf.ActionReturn)
	})
	w.Push(swf.Str("f"))
	call(w, "outer")
	w.Emit(swf.ActionSetVariable)
	call(w, "f")
	w.Emit(swf.ActionTrace)
	w.Push(swf.Str("x")).Emit(swf.ActionGetVariable).Emit(swf.ActionTrace)
	h.run(w)
	h.expectTraces("captured", "undefined")
}

func TestArgumentsObject(t *testing.T) {
	h := newHarness(t, 8)
	w := swf.NewActionWriter()
	w.DefineFunction("count", nil, func(b *swf.ActionWriter) {
		b.Push(swf.Str("arguments")).Emit(swf.ActionGetVariable)
		b.Push(swf.Str("length")).Emit(swf.ActionGetMember).Emit(swf.ActionReturn)
	})
	call(w, "count", swf.Int(1), swf.Str("two"), swf.Null())
	w.Emit(swf.ActionTrace)
	h.run(w)
	h.expectTraces("3")
}

func TestCallMethodAndConstruct(t *testing.T) {
	h := newHarness(t, 8)
	w := swf.NewActionWriter()
	w.Push(swf.Str("arr"))
	w.Push(swf.Int(3), swf.Int(2), swf.Int(1), swf.Int(3), swf.Str("Array")).Emit(swf.ActionNewObject)
	w.Emit(swf.ActionSetVariable)

	w.Push(swf.Str("-"), swf.Int(1), swf.Str("arr")).Emit(swf.ActionGetVariable)
	w.Push(swf.Str("join")).Emit(swf.ActionCallMethod).Emit(swf.ActionTrace)

	w.Push(swf.Str("arr")).Emit(swf.ActionGetVariable)
	w.Push(swf.Str("Array")).Emit(swf.ActionGetVariable).Emit(swf.ActionInstanceOf).Emit(swf.ActionTrace)
	h.run(w)
	h.expectTraces("1-2-3", "true")
}

func TestExtendsAndSuper(t *testing.T) {
	h := newHarness(t, 8)
	w := swf.NewActionWriter()
	// function Base() {}; Base.prototype.greet = function() { return "base" }
	w.DefineFunction("Base", nil, func(b *swf.ActionWriter) {})
	w.Push(swf.Str("Base")).Emit(swf.ActionGetVariable)
	w.Push(swf.Str("prototype")).Emit(swf.ActionGetMember)
	w.Push(swf.Str("greet"))
	w.DefineFunction("", nil, func(b *swf.ActionWriter) {
		b.Push(swf.Str("base")).Emit(swf.ActionReturn)
	})
	w.Emit(swf.ActionSetMember)
	// function Child() {}; Child extends Base
	w.DefineFunction("Child", nil, func(b *swf.ActionWriter) {})
	w.Push(swf.Str("Child")).Emit(swf.ActionGetVariable)
	w.Push(swf.Str("Base")).Emit(swf.ActionGetVariable)
	w.Emit(swf.ActionExtends)

	w.Push(swf.Str("c"), swf.Int(0), swf.Str("Child")).Emit(swf.ActionNewObject).Emit(swf.ActionSetVariable)
	w.Push(swf.Int(0), swf.Str("c")).Emit(swf.ActionGetVariable)
	w.Push(swf.Str("greet")).Emit(swf.ActionCallMethod).Emit(swf.ActionTrace)
	w.Push(swf.Str("c")).Emit(swf.ActionGetVariable)
	w.Push(swf.Str("Base")).Emit(swf.ActionGetVariable).Emit(swf.ActionInstanceOf).Emit(swf.ActionTrace)
	h.run(w)
	h.expectTraces("base", "true")
}

// ---------------------------------------------------------------------------
// Display properties
// ---------------------------------------------------------------------------

func TestGetSetProperty(t *testing.T) {
	h := newHarness(t, 8)
	w := swf.NewActionWriter()
	w.Push(swf.Str(""), swf.Int(0), swf.Int(100)).Emit(swf.ActionSetProperty)
	w.Push(swf.Str(""), swf.Int(0)).Emit(swf.ActionGetProperty).Emit(swf.ActionTrace)
	w.Push(swf.Str("this")).Emit(swf.ActionGetVariable)
	w.Push(swf.Str("_X")).Emit(swf.ActionGetMember).Emit(swf.ActionTrace)
	h.run(w)
	h.expectTraces("100", "100")
	if got := h.ctx.Stage.Base().X(); got != 100 {
		t.Errorf("stage x = %v, want 100", got)
	}
}

func TestCreateEmptyMovieClipByName(t *testing.T) {
	h := newHarness(t, 8)
	w := swf.NewActionWriter()
	w.Push(swf.Int(5), swf.Str("box"), swf.Int(2), swf.Str("this")).Emit(swf.ActionGetVariable)
	w.Push(swf.Str("createEmptyMovieClip")).Emit(swf.ActionCallMethod).Emit(swf.ActionPop)
	w.Push(swf.Str("box")).Emit(swf.ActionGetVariable).Emit(swf.ActionTargetPath).Emit(swf.ActionTrace)
	w.Push(swf.Str("box")).Emit(swf.ActionGetVariable).Emit(swf.ActionTypeOf).Emit(swf.ActionTrace)
	h.run(w)
	if len(h.traces) != 2 || h.traces[1] != "movieclip" {
		t.Fatalf("traces = %q", h.traces)
	}
	if h.ctx.Stage.ChildAtDepth(5) == nil {
		t.Error("no child placed at depth 5")
	}
}
