package websocket

// InboundMessage is the only thing clients are expected to send: an
// authenticate request binding the connection to a username. Anything else
// is logged and ignored; the connection stays open.
type InboundMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

const TypeAuthenticate = "authenticate"

// AuthResult acknowledges an authenticate attempt. Event envelopes pushed
// after binding are produced by the notify package, not here.
type AuthResult struct {
	Type          string `json:"type"`
	Authenticated bool   `json:"authenticated"`
	Message       string `json:"message,omitempty"`
}
