package backend

import "github.com/tliron/commonlog"

var log = commonlog.GetLogger("avm.backend")

// NavigationMethod selects how variables are sent with a request.
type NavigationMethod uint8

const (
	NavigateNone NavigationMethod = iota
	NavigateGet
	NavigatePost
)

// NavigatorBackend opens URLs on behalf of getURL.
type NavigatorBackend interface {
	NavigateToURL(url, window string, vars map[string]string, method NavigationMethod)
}

// NullNavigator logs navigation requests and records the last one.
type NullNavigator struct {
	LastURL    string
	LastWindow string
}

func (n *NullNavigator) NavigateToURL(url, window string, vars map[string]string, method NavigationMethod) {
	n.LastURL, n.LastWindow = url, window
	log.Infof("navigate to %q in %q (%d vars)", url, window, len(vars))
}
