package lso

import (
	"errors"
	"strconv"

	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned by ParseJSON for text that is not a JSON object.
var ErrInvalidJSON = errors.New("lso: invalid legacy JSON")

// ParseJSON reads the legacy JSON layout: a top-level object whose members
// become the body. Objects whose __proto__ member is "Array" are arrays;
// their length member gives the array length. Key order is preserved.
func ParseJSON(name string, data []byte) (*Lso, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, ErrInvalidJSON
	}
	return &Lso{Name: name, Body: jsonMembers(root, false)}, nil
}

func jsonMembers(obj gjson.Result, array bool) []Element {
	var elems []Element
	obj.ForEach(func(key, value gjson.Result) bool {
		if array && (key.Str == "length" || key.Str == "__proto__") {
			return true
		}
		elems = append(elems, Element{Name: key.Str, Value: jsonValue(value)})
		return true
	})
	return elems
}

func jsonValue(r gjson.Result) Value {
	switch r.Type {
	case gjson.Null:
		return Null()
	case gjson.False:
		return Bool(false)
	case gjson.True:
		return Bool(true)
	case gjson.Number:
		return Number(r.Num)
	case gjson.String:
		return String(r.Str)
	}
	if !r.IsObject() {
		// Bare JSON arrays have no legacy meaning.
		return Undefined()
	}
	if r.Get("__proto__").String() == "Array" {
		length := r.Get("length").Int()
		if length < 0 {
			length = 0
		}
		return ECMAArray(jsonMembers(r, true), uint32(length))
	}
	return Object(jsonMembers(r, false))
}

// IsIndex reports whether name is a canonical non-negative array index.
func IsIndex(name string) (int, bool) {
	i, err := strconv.Atoi(name)
	if err != nil || i < 0 || strconv.Itoa(i) != name {
		return 0, false
	}
	return i, true
}
