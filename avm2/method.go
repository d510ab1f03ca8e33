package avm2

// NativeMethod is a method implemented by the host.
type NativeMethod func(act *Activation, this Object, args []Value) (Value, error)

// Method is either a native function or a bytecode body. Methods are
// shared by every closure created from them.
type Method struct {
	Name   string
	Native NativeMethod
	Body   *MethodBody

	// ParamCount is the number of declared parameters. Defaults supplies
	// values for the trailing optional ones.
	ParamCount int
	Defaults   []Value

	NeedsArguments  bool
	NeedsRest       bool
	NeedsActivation bool

	abc *AbcFile
}

// MethodBody is the decoded code of a bytecode method.
type MethodBody struct {
	MaxStack   int
	LocalCount int
	Code       []Op
	Exceptions []Exception
	// Traits describe the activation object created by NewActivation.
	Traits []*Trait
}

// Exception is one entry of a method's exception table. From and To bound
// the covered ops, half open; Target is where the handler starts. An empty
// or "*" TypeName catches everything.
type Exception struct {
	From, To int
	Target   int
	TypeName string
	VarName  string
}

// NewNativeMethod wraps fn as a method.
func NewNativeMethod(name string, fn NativeMethod) *Method {
	return &Method{Name: name, Native: fn}
}

// IsNative reports whether the method runs host code.
func (m *Method) IsNative() bool {
	return m.Native != nil
}

func (m *Method) String() string {
	if m.Name == "" {
		return "<anonymous>"
	}
	return m.Name
}

// covers reports whether the entry guards the op at pc.
func (e *Exception) covers(pc int) bool {
	return pc >= e.From && pc < e.To
}

// bindArgs fills the declared parameters of m from args, applying defaults
// for missing optional parameters. Extra arguments are returned as the
// rest list.
func (m *Method) bindArgs(args []Value) (params []Value, rest []Value) {
	params = make([]Value, m.ParamCount)
	firstDefault := m.ParamCount - len(m.Defaults)
	for i := range params {
		switch {
		case i < len(args):
			params[i] = args[i]
		case i >= firstDefault && firstDefault >= 0:
			params[i] = m.Defaults[i-firstDefault]
		}
	}
	if len(args) > m.ParamCount {
		rest = args[m.ParamCount:]
	}
	return params, rest
}
