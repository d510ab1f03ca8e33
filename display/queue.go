package display

import "github.com/chazu/avm/swf"

// QueuedActions is a block of frame code waiting to run on Clip.
type QueuedActions struct {
	Clip DisplayObject
	Code swf.Slice
	Init bool
}

// ActionQueue collects the code produced while frames run. Init actions are
// drained before ordinary frame actions.
type ActionQueue struct {
	init    []QueuedActions
	actions []QueuedActions
}

// NewActionQueue creates an empty queue.
func NewActionQueue() *ActionQueue {
	return &ActionQueue{}
}

// QueueActions appends a DoAction block.
func (q *ActionQueue) QueueActions(clip DisplayObject, code swf.Slice) {
	q.actions = append(q.actions, QueuedActions{Clip: clip, Code: code})
}

// QueueInitActions appends a DoInitAction block.
func (q *ActionQueue) QueueInitActions(clip DisplayObject, code swf.Slice) {
	q.init = append(q.init, QueuedActions{Clip: clip, Code: code, Init: true})
}

// Pop removes the next block to run.
func (q *ActionQueue) Pop() (QueuedActions, bool) {
	if len(q.init) > 0 {
		a := q.init[0]
		q.init = q.init[1:]
		return a, true
	}
	if len(q.actions) > 0 {
		a := q.actions[0]
		q.actions = q.actions[1:]
		return a, true
	}
	return QueuedActions{}, false
}

// Len returns the number of pending blocks.
func (q *ActionQueue) Len() int {
	return len(q.init) + len(q.actions)
}
