package lso

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Magic prefixes every encoded body so readers can tell it from legacy JSON.
var Magic = []byte{'A', 'V', 'M', 'S', 'O', 1}

// ErrNotLso is returned by Decode for data without the magic prefix.
var ErrNotLso = errors.New("lso: missing header")

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("lso: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

// wireValue is the CBOR shape of a Value. Integer keys keep the encoding
// compact; omitempty drops payloads the kind does not use.
type wireValue struct {
	Kind     Kind          `cbor:"1,keyasint"`
	Bool     bool          `cbor:"2,keyasint,omitempty"`
	Number   float64       `cbor:"3,keyasint,omitempty"`
	String   string        `cbor:"4,keyasint,omitempty"`
	Elements []wireElement `cbor:"5,keyasint,omitempty"`
	Length   uint32        `cbor:"6,keyasint,omitempty"`
}

type wireElement struct {
	Name  string    `cbor:"1,keyasint"`
	Value wireValue `cbor:"2,keyasint"`
}

type wireLso struct {
	Name string        `cbor:"1,keyasint"`
	Body []wireElement `cbor:"2,keyasint"`
}

func toWire(v Value) wireValue {
	w := wireValue{Kind: v.Kind, Bool: v.Bool, Number: v.Number, String: v.String, Length: v.Length}
	if len(v.Elements) > 0 {
		w.Elements = toWireElements(v.Elements)
	}
	return w
}

func toWireElements(elems []Element) []wireElement {
	out := make([]wireElement, len(elems))
	for i, e := range elems {
		out[i] = wireElement{Name: e.Name, Value: toWire(e.Value)}
	}
	return out
}

func fromWire(w wireValue) Value {
	v := Value{Kind: w.Kind, Bool: w.Bool, Number: w.Number, String: w.String, Length: w.Length}
	if len(w.Elements) > 0 {
		v.Elements = fromWireElements(w.Elements)
	}
	return v
}

func fromWireElements(elems []wireElement) []Element {
	out := make([]Element, len(elems))
	for i, e := range elems {
		out[i] = Element{Name: e.Name, Value: fromWire(e.Value)}
	}
	return out
}

// Encode serializes l with the magic header.
func Encode(l *Lso) ([]byte, error) {
	body, err := encMode.Marshal(wireLso{Name: l.Name, Body: toWireElements(l.Body)})
	if err != nil {
		return nil, fmt.Errorf("lso: marshal: %w", err)
	}
	out := make([]byte, 0, len(Magic)+len(body))
	out = append(out, Magic...)
	return append(out, body...), nil
}

// Decode parses data produced by Encode.
func Decode(data []byte) (*Lso, error) {
	if !bytes.HasPrefix(data, Magic) {
		return nil, ErrNotLso
	}
	var w wireLso
	if err := cbor.Unmarshal(data[len(Magic):], &w); err != nil {
		return nil, fmt.Errorf("lso: unmarshal: %w", err)
	}
	for _, e := range w.Body {
		if err := checkKinds(e.Value); err != nil {
			return nil, err
		}
	}
	return &Lso{Name: w.Name, Body: fromWireElements(w.Body)}, nil
}

func checkKinds(w wireValue) error {
	if w.Kind > KindXML {
		return fmt.Errorf("lso: unknown value kind %d", w.Kind)
	}
	for _, e := range w.Elements {
		if err := checkKinds(e.Value); err != nil {
			return err
		}
	}
	return nil
}
