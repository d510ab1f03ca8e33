package avm2

import (
	"maps"
	"slices"
	"strconv"
)

// maxDenseGap bounds how far past the dense prefix a write may land and
// still extend it; writes further out go to the sparse map.
const maxDenseGap = 64

// maxMaterializedLength bounds the length of arrays native methods will
// copy into a flat slice.
const maxMaterializedLength = 1 << 24

// ArrayObject is an Array instance. Indices below len(dense) are stored
// densely and holes there read as Undefined; anything beyond lives in
// sparse. length is tracked on its own and never drives allocation.
type ArrayObject struct {
	*ScriptObject
	dense  []Value
	sparse map[uint32]Value
	length uint32
}

func arrayAllocator(class *ClassObject) Object {
	return &ArrayObject{ScriptObject: class.newBase()}
}

func (avm *Avm2) newArray(values []Value) *ArrayObject {
	arr := avm.classes.Array.NewInstance(avm).AsArray()
	arr.reset(values)
	return arr
}

// NewArray creates an Array holding values.
func NewArray(act *Activation, values []Value) *ArrayObject {
	return act.avm.newArray(values)
}

func (arr *ArrayObject) AsArray() *ArrayObject { return arr }
func (arr *ArrayObject) Len() int              { return int(arr.length) }

func (arr *ArrayObject) reset(values []Value) {
	arr.dense = slices.Clone(values)
	arr.sparse = nil
	arr.length = uint32(len(values))
}

// Values copies elements 0 through length-1 with holes as Undefined. Arrays
// longer than maxMaterializedLength raise Error #1000.
func (arr *ArrayObject) Values(act *Activation) ([]Value, error) {
	if arr.length > maxMaterializedLength {
		return nil, outOfMemory(act)
	}
	out := make([]Value, arr.length)
	copy(out, arr.dense)
	for k, v := range arr.sparse {
		out[k] = v
	}
	return out, nil
}

// Get returns element i, or Undefined for a hole or out of range.
func (arr *ArrayObject) Get(i int) Value {
	v, _ := arr.lookup(i)
	return v
}

func (arr *ArrayObject) lookup(i int) (Value, bool) {
	if i < 0 || i >= int(arr.length) {
		return Undefined, false
	}
	if i < len(arr.dense) {
		return arr.dense[i], true
	}
	v, ok := arr.sparse[uint32(i)]
	return v, ok
}

// Set writes element i, extending length to i+1 when needed.
func (arr *ArrayObject) Set(i int, v Value) {
	if i < 0 || i >= 1<<32-1 {
		return
	}
	switch {
	case i < len(arr.dense):
		arr.dense[i] = v
	case i-len(arr.dense) <= maxDenseGap:
		arr.grow(i)
		arr.dense = append(arr.dense, v)
		delete(arr.sparse, uint32(i))
		arr.absorb()
	default:
		if arr.sparse == nil {
			arr.sparse = make(map[uint32]Value)
		}
		arr.sparse[uint32(i)] = v
	}
	if uint32(i) >= arr.length {
		arr.length = uint32(i) + 1
	}
}

// grow extends the dense prefix to n entries, pulling in sparse ones.
func (arr *ArrayObject) grow(n int) {
	for j := len(arr.dense); j < n; j++ {
		v := arr.sparse[uint32(j)]
		delete(arr.sparse, uint32(j))
		arr.dense = append(arr.dense, v)
	}
}

// absorb moves sparse entries adjacent to the dense prefix into it.
func (arr *ArrayObject) absorb() {
	for {
		v, ok := arr.sparse[uint32(len(arr.dense))]
		if !ok {
			return
		}
		delete(arr.sparse, uint32(len(arr.dense)))
		arr.dense = append(arr.dense, v)
	}
}

// moveSparse renumbers every sparse index by delta.
func (arr *ArrayObject) moveSparse(delta int) {
	if len(arr.sparse) == 0 {
		return
	}
	moved := make(map[uint32]Value, len(arr.sparse))
	for k, v := range arr.sparse {
		moved[uint32(int(k)+delta)] = v
	}
	arr.sparse = moved
}

// SetLength truncates stored elements at n. Growing only moves length.
func (arr *ArrayObject) SetLength(n uint32) {
	if n < uint32(len(arr.dense)) {
		clear(arr.dense[n:])
		arr.dense = arr.dense[:n]
	}
	if n < arr.length {
		for k := range arr.sparse {
			if k >= n {
				delete(arr.sparse, k)
			}
		}
	}
	arr.length = n
}

func (arr *ArrayObject) Push(vs ...Value) {
	for _, v := range vs {
		arr.Set(int(arr.length), v)
	}
}

// shift removes element 0 and renumbers the rest down by one.
func (arr *ArrayObject) shift() Value {
	v := arr.Get(0)
	if len(arr.dense) > 0 {
		arr.dense = slices.Delete(arr.dense, 0, 1)
	}
	arr.moveSparse(-1)
	arr.absorb()
	arr.length--
	return v
}

// unshift inserts vs at the front and renumbers the rest up.
func (arr *ArrayObject) unshift(vs []Value) {
	arr.moveSparse(len(vs))
	arr.dense = slices.Insert(arr.dense, 0, vs...)
	arr.length += uint32(len(vs))
	arr.absorb()
}

// indices lists the stored element indices in ascending order.
func (arr *ArrayObject) indices() []uint32 {
	out := make([]uint32, 0, len(arr.dense)+len(arr.sparse))
	for i := range arr.dense {
		out = append(out, uint32(i))
	}
	return append(out, slices.Sorted(maps.Keys(arr.sparse))...)
}

func (arr *ArrayObject) hasIndex(name string) bool {
	i, ok := arrayIndex(name)
	if !ok {
		return false
	}
	_, ok = arr.lookup(i)
	return ok
}

// arrayIndex parses a canonical array index.
func arrayIndex(name string) (int, bool) {
	if name == "" || (len(name) > 1 && name[0] == '0') {
		return 0, false
	}
	i, err := strconv.ParseUint(name, 10, 32)
	if err != nil || i == 1<<32-1 {
		return 0, false
	}
	return int(i), true
}

func (arr *ArrayObject) GetLocal(act *Activation, name string, this Object) (ReturnValue, bool, error) {
	if name == "length" {
		return Immediate(Uint(arr.length)), true, nil
	}
	if i, ok := arrayIndex(name); ok {
		v, ok := arr.lookup(i)
		return Immediate(v), ok, nil
	}
	return arr.ScriptObject.GetLocal(act, name, this)
}

func (arr *ArrayObject) SetLocal(act *Activation, name string, v Value, this Object) (ReturnValue, error) {
	if name == "length" {
		n, err := v.ToUint32(act)
		if err != nil {
			return Immediate(Undefined), err
		}
		arr.SetLength(n)
		return Immediate(Undefined), nil
	}
	if i, ok := arrayIndex(name); ok {
		arr.Set(i, v)
		return Immediate(Undefined), nil
	}
	return arr.ScriptObject.SetLocal(act, name, v, this)
}

func (arr *ArrayObject) InitLocal(act *Activation, name string, v Value, this Object) (ReturnValue, error) {
	return arr.SetLocal(act, name, v, this)
}

// DeleteLocal leaves a hole for an index.
func (arr *ArrayObject) DeleteLocal(act *Activation, name string) bool {
	if name == "length" {
		return false
	}
	if i, ok := arrayIndex(name); ok {
		if i < len(arr.dense) {
			arr.dense[i] = Undefined
		} else {
			delete(arr.sparse, uint32(i))
		}
		return true
	}
	return arr.ScriptObject.DeleteLocal(act, name)
}

func (arr *ArrayObject) HasOwnProperty(name string) bool {
	return name == "length" || arr.hasIndex(name) || arr.ScriptObject.HasOwnProperty(name)
}

// Keys lists the stored indices followed by dynamic properties.
func (arr *ArrayObject) Keys() []string {
	idx := arr.indices()
	keys := make([]string, 0, len(idx))
	for _, i := range idx {
		keys = append(keys, strconv.FormatUint(uint64(i), 10))
	}
	return append(keys, arr.ScriptObject.Keys()...)
}
