package core

// Client is one connected room participant as seen by the relay.
type Client struct {
	ID   string
	Name string
	// Events carries pre-encoded frames to the connection write loop.
	Events chan []byte
}

// NewClient constructs a client with a buffered event queue.
func NewClient(id, name string) *Client {
	if name == "" {
		name = id
	}
	return &Client{
		ID:     id,
		Name:   name,
		Events: make(chan []byte, 32),
	}
}

// TrySend queues a frame without blocking.
func (c *Client) TrySend(frame []byte) bool {
	select {
	case c.Events <- frame:
		return true
	default:
		// Drop if slow consumer.
		return false
	}
}
