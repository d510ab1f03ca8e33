package display

import "github.com/chazu/avm/backend"

// Context is the slice of host state the scene graph needs while running
// frames. The host's update context embeds it.
type Context struct {
	Library    *Library
	Queue      *ActionQueue
	Audio      backend.AudioBackend
	Background [3]uint8
}
