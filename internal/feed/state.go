package feed

// State is the connection state of the supervised subscription.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnected    State = "connected"
)

// Connected reports whether s is StateConnected.
func (s State) Connected() bool {
	return s == StateConnected
}
