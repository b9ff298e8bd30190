// Package radiolink defines the RadioLink capability the frame and mailbox
// layers depend on, and ships two implementations: an in-process simulator
// for tests, and a real SX1276-class SPI transceiver driver.
package radiolink

// Link is the synchronous, polling contract the core protocol consumes. It
// abstracts the physical transceiver register protocol, which is outside
// the core.
type Link interface {
	// Init places the link in a ready state.
	Init() error
	// SetRxMode enables receive and resets any internal read cursor.
	SetRxMode() error
	// PollRx returns all bytes accumulated since the last call, possibly
	// spanning multiple frames, in order. It never blocks waiting for data.
	PollRx() ([]byte, error)
	// Send transmits buf atomically, blocking until the transceiver
	// reports done, then returns the link to rx mode.
	Send(buf []byte) error
}

// LogPrintf matches the logging hook convention used throughout this
// codebase: nil disables logging.
type LogPrintf func(format string, v ...interface{})

func noopLog(format string, v ...interface{}) {}
