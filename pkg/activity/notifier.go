package activity

// Notifier is the user-notification port (toast/alert presentation is
// out of scope). Messages are non-blocking.
type Notifier interface {
	Success(msg string)
	Info(msg string)
	Warning(msg string)
	Error(msg string)
}

// Navigator is the routing port used to send the user back to the login
// entry point after expiry or logout.
type Navigator interface {
	NavigateToLogin()
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Success(string) {}
func (NopNotifier) Info(string)    {}
func (NopNotifier) Warning(string) {}
func (NopNotifier) Error(string)   {}

// NopNavigator ignores navigation requests.
type NopNavigator struct{}

func (NopNavigator) NavigateToLogin() {}

// Event classifies a tracked user interaction. Tracking is global and
// passive; the tracker does not care which UI element was touched.
type Event string

const (
	EventPointerDown Event = "pointerdown"
	EventPointerMove Event = "pointermove"
	EventKeyPress    Event = "keypress"
	EventScroll      Event = "scroll"
	EventTouchStart  Event = "touchstart"
	EventClick       Event = "click"
)
