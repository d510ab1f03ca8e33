package avm2

// VTable holds the method dispatch table for a class.
//
// Methods are stored in a slice indexed by dispatch id, so CallMethod is a
// direct index. Inheritance is handled by walking the parent chain when a
// method is not found locally. Overrides reuse the id of the method they
// replace.
type VTable struct {
	class   *ClassObject
	parent  *VTable
	methods []*Method
	ids     map[string]int
}

// NewVTable creates a vtable for class inheriting from parent.
func NewVTable(class *ClassObject, parent *VTable) *VTable {
	return &VTable{class: class, parent: parent, ids: make(map[string]int)}
}

// Lookup finds the method with dispatch id disp and the class that defines
// it, walking the inheritance chain.
func (vt *VTable) Lookup(disp int) (*Method, *ClassObject) {
	for v := vt; v != nil; v = v.parent {
		if m := v.LookupLocal(disp); m != nil {
			return m, v.class
		}
	}
	return nil, nil
}

// LookupLocal finds a method in this vtable only.
func (vt *VTable) LookupLocal(disp int) *Method {
	if disp >= 0 && disp < len(vt.methods) {
		return vt.methods[disp]
	}
	return nil
}

// AddMethod adds or replaces the method at disp. The table grows as
// needed.
func (vt *VTable) AddMethod(disp int, m *Method) {
	if disp >= len(vt.methods) {
		grown := make([]*Method, disp+1)
		copy(grown, vt.methods)
		vt.methods = grown
	}
	vt.methods[disp] = m
}

// DispID returns the dispatch id bound to name, searching parents.
func (vt *VTable) DispID(name string) (int, bool) {
	for v := vt; v != nil; v = v.parent {
		if id, ok := v.ids[name]; ok {
			return id, true
		}
	}
	return 0, false
}

// Define binds m under name. A zero disp reuses an inherited id for an
// override or assigns the next free one.
func (vt *VTable) Define(name string, disp int, m *Method) int {
	if disp == 0 {
		if id, ok := vt.DispID(name); ok {
			disp = id
		} else {
			disp = max(vt.MethodCount(), 1)
		}
	}
	vt.ids[name] = disp
	vt.AddMethod(disp, m)
	return disp
}

// MethodCount returns the number of ids in use including inherited ones.
func (vt *VTable) MethodCount() int {
	n := len(vt.methods)
	if vt.parent != nil {
		n = max(n, vt.parent.MethodCount())
	}
	return n
}

func (vt *VTable) Parent() *VTable     { return vt.parent }
func (vt *VTable) Class() *ClassObject { return vt.class }
