package avm2

import "github.com/chazu/avm/display"

// StageObject is the script face of a display node: an instance of
// flash.display.DisplayObject or MovieClip bound to the node.
type StageObject struct {
	*ScriptObject
	node display.DisplayObject
}

func stageAllocator(class *ClassObject) Object {
	return &StageObject{ScriptObject: class.newBase()}
}

// StageObject returns the object bound to node, creating it on first use.
func (avm *Avm2) StageObject(node display.DisplayObject) *StageObject {
	if so, ok := node.Base().AVM2Object().(*StageObject); ok {
		return so
	}
	class := avm.classes.DisplayObject
	if _, ok := node.(*display.MovieClip); ok {
		class = avm.classes.MovieClip
	}
	so := class.NewInstance(avm).(*StageObject)
	so.bind(node)
	return so
}

func (so *StageObject) bind(node display.DisplayObject) {
	so.node = node
	node.Base().SetAVM2Object(so)
}

// DisplayObject returns the bound node.
func (so *StageObject) DisplayObject() display.DisplayObject { return so.node }

func (so *StageObject) AsDisplayObject() display.DisplayObject {
	if so.node == nil {
		return nil
	}
	return so.node
}

func (so *StageObject) movieClip() (*display.MovieClip, bool) {
	mc, ok := so.node.(*display.MovieClip)
	return mc, ok
}
