package display

import (
	"github.com/chazu/avm/backend"
	"github.com/chazu/avm/swf"
)

// RenderContext carries the renderer and the transform stack through a
// render pass.
type RenderContext struct {
	Renderer backend.RenderBackend
	stack    []backend.Transform
}

// NewRenderContext starts a pass with an identity transform.
func NewRenderContext(r backend.RenderBackend) *RenderContext {
	return &RenderContext{
		Renderer: r,
		stack: []backend.Transform{{
			Matrix:         swf.IdentityMatrix(),
			ColorTransform: swf.IdentityColorTransform(),
		}},
	}
}

// Transform returns the current concatenated transform.
func (rc *RenderContext) Transform() backend.Transform {
	return rc.stack[len(rc.stack)-1]
}

// Push concatenates b's transform onto the stack.
func (rc *RenderContext) Push(b *Base) {
	top := rc.Transform()
	rc.stack = append(rc.stack, backend.Transform{
		Matrix:         Concat(top.Matrix, b.Matrix()),
		ColorTransform: ConcatColor(top.ColorTransform, b.ColorTransform()),
	})
}

// Pop drops the innermost transform.
func (rc *RenderContext) Pop() {
	if len(rc.stack) > 1 {
		rc.stack = rc.stack[:len(rc.stack)-1]
	}
}

// Concat returns the matrix that applies inner and then outer.
func Concat(outer, inner swf.Matrix) swf.Matrix {
	return swf.Matrix{
		A:  outer.A*inner.A + outer.C*inner.B,
		B:  outer.B*inner.A + outer.D*inner.B,
		C:  outer.A*inner.C + outer.C*inner.D,
		D:  outer.B*inner.C + outer.D*inner.D,
		TX: swf.Twips(outer.A*float64(inner.TX)+outer.C*float64(inner.TY)) + outer.TX,
		TY: swf.Twips(outer.B*float64(inner.TX)+outer.D*float64(inner.TY)) + outer.TY,
	}
}

// ConcatColor returns the color transform that applies inner and then outer.
func ConcatColor(outer, inner swf.ColorTransform) swf.ColorTransform {
	return swf.ColorTransform{
		RMult: outer.RMult * inner.RMult,
		GMult: outer.GMult * inner.GMult,
		BMult: outer.BMult * inner.BMult,
		AMult: outer.AMult * inner.AMult,
		RAdd:  int16(outer.RMult*float64(inner.RAdd)) + outer.RAdd,
		GAdd:  int16(outer.GMult*float64(inner.GAdd)) + outer.GAdd,
		BAdd:  int16(outer.BMult*float64(inner.BAdd)) + outer.BAdd,
		AAdd:  int16(outer.AMult*float64(inner.AAdd)) + outer.AAdd,
	}
}
