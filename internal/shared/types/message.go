package types

// Message is the unit of IPC. The payload is copied out of the sender's
// address space at send time and into the receiver's at receive time; no two
// address spaces ever alias the same bytes.
type Message struct {
	Sender   PID    `json:"sender"`
	Receiver PID    `json:"receiver"`
	Payload  []byte `json:"payload"`
}

// Clone returns a deep copy with its own payload storage
func (m *Message) Clone() *Message {
	cp := *m
	cp.Payload = append([]byte(nil), m.Payload...)
	return &cp
}
