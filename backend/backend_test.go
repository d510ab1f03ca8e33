package backend

import "testing"

func TestNullAudioDuration(t *testing.T) {
	a := NewNullAudio()
	h, err := a.RegisterSound(Sound{SampleRate: 44100, Samples: 22050})
	if err != nil {
		t.Fatal(err)
	}
	d, ok := a.GetSoundDuration(h)
	if !ok || d != 500 {
		t.Errorf("GetSoundDuration = %v, %v; want 500, true", d, ok)
	}
	if _, ok := a.GetSoundDuration(h + 1); ok {
		t.Errorf("unknown handle reported a duration")
	}
}

func TestNullInputKeys(t *testing.T) {
	in := NewNullInput()
	in.Press(KeyLeft, 0)
	if !in.IsKeyDown(KeyLeft) || in.LastKeyCode() != KeyLeft {
		t.Errorf("left not reported as down")
	}
	if _, ok := in.LastKeyChar(); ok {
		t.Errorf("LastKeyChar ok for a non-printing key")
	}
	in.Release(KeyLeft)
	if in.IsKeyDown(KeyLeft) {
		t.Errorf("left still down after release")
	}
	in.HideMouse()
	if in.MouseVisible() {
		t.Errorf("mouse visible after HideMouse")
	}
}

func TestFuncExternal(t *testing.T) {
	ext := &FuncExternal{Funcs: map[string]func([]ExternalValue) ExternalValue{
		"double": func(args []ExternalValue) ExternalValue { return args[0].(float64) * 2 },
	}}
	if got := ext.Call("double", []ExternalValue{2.0}); got != 4.0 {
		t.Errorf("Call(double) = %v, want 4", got)
	}
	if got := ext.Call("missing", nil); got != nil {
		t.Errorf("Call(missing) = %v, want nil", got)
	}
}
