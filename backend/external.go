package backend

// ExternalValue is a value crossing the external interface boundary. It is
// one of nil, bool, float64, string, []ExternalValue or
// map[string]ExternalValue.
type ExternalValue any

// ExternalInterfaceProvider connects the movie to its embedding page.
type ExternalInterfaceProvider interface {
	// Available reports whether a container is present.
	Available() bool
	// Call invokes a container function by name.
	Call(name string, args []ExternalValue) ExternalValue
	// OnCallbackAvailable tells the container that the movie exposed name.
	OnCallbackAvailable(name string)
}

// NullExternal is a provider with no container.
type NullExternal struct{}

func (NullExternal) Available() bool                            { return false }
func (NullExternal) Call(string, []ExternalValue) ExternalValue { return nil }
func (NullExternal) OnCallbackAvailable(string)                 {}

// FuncExternal is a provider backed by a map of Go functions. Callbacks
// records every name the movie registered.
type FuncExternal struct {
	Funcs     map[string]func(args []ExternalValue) ExternalValue
	Callbacks []string
}

func (f *FuncExternal) Available() bool { return true }

func (f *FuncExternal) Call(name string, args []ExternalValue) ExternalValue {
	if fn, ok := f.Funcs[name]; ok {
		return fn(args)
	}
	log.Warningf("external function %q is not defined", name)
	return nil
}

func (f *FuncExternal) OnCallbackAvailable(name string) {
	f.Callbacks = append(f.Callbacks, name)
}
