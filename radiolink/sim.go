package radiolink

import "sync"

// Sim is an in-process RadioLink: Send appends to a peer's queue directly,
// PollRx drains whatever has been queued for this node. It exists so tests
// (and the round-robin liveness property) can run several mailbox engines
// against each other without any hardware.
type Sim struct {
	mu    sync.Mutex
	queue []byte
	log   LogPrintf
}

// NewSim builds a ready-to-use simulated link.
func NewSim(log LogPrintf) *Sim {
	if log == nil {
		log = noopLog
	}
	return &Sim{log: log}
}

func (s *Sim) Init() error { return nil }

func (s *Sim) SetRxMode() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = nil
	return nil
}

// PollRx returns and clears everything queued since the last call.
func (s *Sim) PollRx() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return nil, nil
	}
	out := s.queue
	s.queue = nil
	return out, nil
}

// Send is a no-op on the sending side; wire the frame into a peer's queue
// with Deliver to simulate the air interface.
func (s *Sim) Send(buf []byte) error {
	s.log("sim: send %d bytes (not delivered, wire via Deliver)", len(buf))
	return nil
}

// Deliver injects bytes as if received over the air, the way
// util/msgAPI_sim.py's rx_data_fill feeds a canned response queue.
func (s *Sim) Deliver(buf []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, buf...)
}

// SimPair returns two simulated links wired to each other: bytes handed to
// one side's Send land directly in the other side's PollRx queue.
func SimPair(log LogPrintf) (a, b *pairedSim) {
	sa := NewSim(log)
	sb := NewSim(log)
	pa := &pairedSim{Sim: sa}
	pb := &pairedSim{Sim: sb}
	pa.peer = pb
	pb.peer = pa
	return pa, pb
}

// pairedSim is a Sim whose Send delivers straight into its peer's queue.
type pairedSim struct {
	*Sim
	peer *pairedSim
}

func (p *pairedSim) Send(buf []byte) error {
	p.peer.Deliver(buf)
	return nil
}
