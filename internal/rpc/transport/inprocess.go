// Package transport implements the two required Barrister transports: an
// in-process transport that calls straight into a server, and an HTTP
// transport that POSTs JSON to a fixed URL. Both share the same shape:
// submit one JSON value, receive one JSON value.
package transport

// Transport submits one already-decoded JSON-RPC value (a request object
// or a batch array) and returns the decoded response.
type Transport interface {
	Submit(msg any) (any, error)
}

// dispatcher is satisfied by *server.Server without importing it here,
// avoiding a transport -> server -> model -> transport import cycle risk
// and keeping InProcess usable against anything shaped like a server.
type dispatcher interface {
	HandleMessage(msg any) any
}

// InProcess calls directly into a server's message handler, with no
// serialization beyond what the server already performs.
type InProcess struct {
	server dispatcher
}

// NewInProcess wraps a server for in-process use.
func NewInProcess(s dispatcher) *InProcess {
	return &InProcess{server: s}
}

func (t *InProcess) Submit(msg any) (any, error) {
	return t.server.HandleMessage(msg), nil
}
