package avm1

// ---------------------------------------------------------------------------
// Error
// ---------------------------------------------------------------------------

func defineErrorPrototype(proto *ScriptObject, fnProto Object) {
	proto.DefineValue("message", String("Error"), DontEnum)
	proto.DefineValue("name", String("Error"), DontEnum)
	defineMethods(proto, fnProto, DontEnum|DontDelete, map[string]NativeFunction{
		"toString": errorToString,
	})
}

// errorConstruct sets message unless the argument is undefined, in which
// case the prototype's message shows through.
func errorConstruct(act *Activation, this Object, args []Value) (Value, error) {
	if this == nil {
		return Undefined, nil
	}
	if msg := arg(args, 0); !msg.IsUndefined() {
		if err := Set(act, this, "message", msg); err != nil {
			return Undefined, err
		}
	}
	return ObjectValue(this), nil
}

func errorToString(act *Activation, this Object, args []Value) (Value, error) {
	msg, err := Get(act, this, "message")
	if err != nil {
		return Undefined, err
	}
	s, err := msg.ToString(act)
	return String(s), err
}

// ---------------------------------------------------------------------------
// XML
// ---------------------------------------------------------------------------

// XMLObject keeps the source text of an XML document. Parsing into a node
// tree is not supported; the text round-trips through toString and
// SharedObject persistence.
type XMLObject struct {
	*ScriptObject
	source string
}

// Source returns the XML text.
func (x *XMLObject) Source() string { return x.source }

func (x *XMLObject) CreateBareObject(act *Activation, this Object) (Object, error) {
	return &XMLObject{ScriptObject: NewScriptObject(this)}, nil
}

// NewXMLObject creates an XML object with the system prototype.
func NewXMLObject(act *Activation, source string) *XMLObject {
	return &XMLObject{ScriptObject: NewScriptObject(act.avm.prototypes.XML), source: source}
}

func xmlConstruct(act *Activation, this Object, args []Value) (Value, error) {
	x, ok := this.(*XMLObject)
	if !ok {
		return Undefined, nil
	}
	if src := arg(args, 0); !src.IsNullOrUndefined() {
		s, err := src.ToString(act)
		if err != nil {
			return Undefined, err
		}
		x.source = s
	}
	return ObjectValue(this), nil
}

func defineXMLMethods(proto *ScriptObject, fnProto Object) {
	defineMethods(proto, fnProto, DontEnum|DontDelete, map[string]NativeFunction{
		"toString": xmlToString,
		"parseXML": xmlParse,
	})
}

func xmlToString(act *Activation, this Object, args []Value) (Value, error) {
	if x, ok := this.(*XMLObject); ok {
		return String(x.source), nil
	}
	return String(defaultObjectString(this)), nil
}

func xmlParse(act *Activation, this Object, args []Value) (Value, error) {
	x, ok := this.(*XMLObject)
	if !ok {
		return Undefined, nil
	}
	s, err := arg(args, 0).ToString(act)
	if err != nil {
		return Undefined, err
	}
	x.source = s
	return Undefined, nil
}
