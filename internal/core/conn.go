package core

// Frame is one encoded wire message.
type Frame []byte

// SignalConnection abstracts the messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Closed() bool
	Close()
}
