package avm1

import (
	"math"
	"slices"
)

// maxElementWalk bounds index-by-index walks over array-likes. Longer ones
// visit only the indices actually stored.
const maxElementWalk = 1 << 20

// ArrayObject keeps its elements as index-named properties and maintains
// a DontEnum|DontDelete length property.
type ArrayObject struct {
	*ScriptObject
}

// NewArrayObject creates an array holding values.
func NewArrayObject(proto Object, values []Value) *ArrayObject {
	a := &ArrayObject{ScriptObject: NewScriptObject(proto)}
	for i, v := range values {
		a.DefineValue(indexName(int32(i)), v, 0)
	}
	a.DefineValue("length", Number(float64(len(values))), DontEnum|DontDelete)
	return a
}

// NewArray creates an array with the system Array prototype.
func NewArray(act *Activation, values []Value) *ArrayObject {
	return NewArrayObject(act.avm.prototypes.Array, values)
}

func (a *ArrayObject) storedLength() int32 {
	p, ok := a.values.Get("length", true)
	if !ok {
		return 0
	}
	return toInt32(p.value.primitiveNumber(7))
}

// isLength reports whether name addresses the length property under the
// activation's case rule.
func isLength(act *Activation, name string) bool {
	if caseSensitive(act) {
		return name == "length"
	}
	return fold(name) == "length"
}

func (a *ArrayObject) SetLocal(act *Activation, name string, value Value, this Object, baseProto Object) error {
	if isLength(act, name) {
		n, err := value.ToInt32(act)
		if err != nil {
			return err
		}
		return a.SetLength(act, n)
	}
	if i, ok := parseIndex(name); ok && i >= a.storedLength() {
		a.writeLength(i + 1)
	}
	return a.ScriptObject.SetLocal(act, name, value, this, baseProto)
}

func (a *ArrayObject) writeLength(n int32) {
	p, ok := a.values.Get("length", true)
	if !ok {
		a.DefineValue("length", Number(float64(n)), DontEnum|DontDelete)
		return
	}
	p.value = Number(float64(n))
}

func (a *ArrayObject) Length(act *Activation) (int32, error) {
	return a.storedLength(), nil
}

// SetLength truncates or pads the array. Negative lengths become 0.
func (a *ArrayObject) SetLength(act *Activation, n int32) error {
	if n < 0 {
		n = 0
	}
	var drop []string
	a.values.Each(func(name string, _ *Property) bool {
		if i, ok := parseIndex(name); ok && i >= n {
			drop = append(drop, name)
		}
		return true
	})
	for _, name := range drop {
		a.values.Remove(name, true)
	}
	a.writeLength(n)
	return nil
}

func (a *ArrayObject) HasElement(act *Activation, i int32) bool {
	return a.values.Contains(indexName(i), true)
}

func (a *ArrayObject) GetElement(act *Activation, i int32) (Value, error) {
	return Get(act, a, indexName(i))
}

func (a *ArrayObject) SetElement(act *Activation, i int32, v Value) error {
	if i < 0 || i == math.MaxInt32 {
		return a.ScriptObject.SetLocal(act, indexName(i), v, a, nil)
	}
	if i >= a.storedLength() {
		a.writeLength(i + 1)
	}
	a.values.Insert(indexName(i), StoredProperty(v, 0), true)
	return nil
}

func (a *ArrayObject) Delete(act *Activation, name string) bool {
	if isLength(act, name) {
		return false
	}
	return a.ScriptObject.Delete(act, name)
}

func (a *ArrayObject) DeleteElement(act *Activation, i int32) bool {
	return a.ScriptObject.Delete(act, indexName(i))
}

func (a *ArrayObject) CreateBareObject(act *Activation, this Object) (Object, error) {
	return NewArrayObject(this, nil), nil
}

// Values returns the elements from 0 to length-1, or only the stored
// ones past maxElementWalk.
func (a *ArrayObject) Values(act *Activation) ([]Value, error) {
	return elements(act, a)
}

// eachElement calls fn for indices 0 through length-1 of obj. When length
// exceeds maxElementWalk only the own index properties below length are
// visited, in ascending order.
func eachElement(act *Activation, obj Object, fn func(i int32, v Value) error) error {
	n, err := obj.Length(act)
	if err != nil || n <= 0 {
		return err
	}
	if n <= maxElementWalk {
		for i := int32(0); i < n; i++ {
			v, err := obj.GetElement(act, i)
			if err != nil {
				return err
			}
			if err := fn(i, v); err != nil {
				return err
			}
		}
		return nil
	}
	log.Warningf("array length %d exceeds %d, visiting stored elements only", n, maxElementWalk)
	for _, i := range storedIndices(obj, n) {
		v, err := obj.GetElement(act, i)
		if err != nil {
			return err
		}
		if err := fn(i, v); err != nil {
			return err
		}
	}
	return nil
}

// storedIndices lists the own index properties of obj below n.
func storedIndices(obj Object, n int32) []int32 {
	var out []int32
	obj.Base().values.Each(func(name string, _ *Property) bool {
		if i, ok := parseIndex(name); ok && i < n {
			out = append(out, i)
		}
		return true
	})
	slices.Sort(out)
	return out
}
