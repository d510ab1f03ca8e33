package backend

// KeyCode is a virtual key code as reported by Key.getCode.
type KeyCode uint8

const (
	KeyBackspace KeyCode = 8
	KeyTab       KeyCode = 9
	KeyEnter     KeyCode = 13
	KeyShift     KeyCode = 16
	KeyControl   KeyCode = 17
	KeyCapsLock  KeyCode = 20
	KeyEscape    KeyCode = 27
	KeySpace     KeyCode = 32
	KeyPageUp    KeyCode = 33
	KeyPageDown  KeyCode = 34
	KeyEnd       KeyCode = 35
	KeyHome      KeyCode = 36
	KeyLeft      KeyCode = 37
	KeyUp        KeyCode = 38
	KeyRight     KeyCode = 39
	KeyDown      KeyCode = 40
	KeyInsert    KeyCode = 45
	KeyDelete    KeyCode = 46
)

// MouseCursor selects the pointer shape.
type MouseCursor uint8

const (
	CursorArrow MouseCursor = iota
	CursorHand
	CursorIBeam
	CursorGrab
)

// InputBackend reports keyboard state and controls the pointer.
type InputBackend interface {
	IsKeyDown(key KeyCode) bool
	LastKeyCode() KeyCode
	LastKeyChar() (rune, bool)
	MouseVisible() bool
	HideMouse()
	ShowMouse()
	SetMouseCursor(cursor MouseCursor)
	SetClipboardContent(content string)
}

// NullInput has no keyboard. Tests drive it through Press and Release.
type NullInput struct {
	down      map[KeyCode]bool
	last      KeyCode
	lastChar  rune
	hidden    bool
	Cursor    MouseCursor
	Clipboard string
}

// NewNullInput creates an input backend with nothing pressed.
func NewNullInput() *NullInput {
	return &NullInput{down: make(map[KeyCode]bool)}
}

// Press marks key as held and records it as the last key.
func (in *NullInput) Press(key KeyCode, char rune) {
	in.down[key] = true
	in.last = key
	in.lastChar = char
}

// Release marks key as up.
func (in *NullInput) Release(key KeyCode) {
	delete(in.down, key)
}

func (in *NullInput) IsKeyDown(key KeyCode) bool { return in.down[key] }
func (in *NullInput) LastKeyCode() KeyCode       { return in.last }

func (in *NullInput) LastKeyChar() (rune, bool) {
	return in.lastChar, in.lastChar != 0
}

func (in *NullInput) MouseVisible() bool                 { return !in.hidden }
func (in *NullInput) HideMouse()                         { in.hidden = true }
func (in *NullInput) ShowMouse()                         { in.hidden = false }
func (in *NullInput) SetMouseCursor(cursor MouseCursor)  { in.Cursor = cursor }
func (in *NullInput) SetClipboardContent(content string) { in.Clipboard = content }
