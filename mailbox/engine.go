package mailbox

import (
	"fmt"

	"github.com/NateTHEgreatest33/STF/frame"
	"github.com/NateTHEgreatest33/STF/radiolink"
)

const (
	ackID       = 0xFF
	roundUpdate = 0xFE
)

type tokenKind int

const (
	tokData tokenKind = iota
	tokAck
	tokRoundUpdate
)

type token struct {
	kind tokenKind
	idx  int
}

// Engine is the session-layer state machine on top of the frame protocol:
// it owns the mailbox table, the round schedule, the ack tracker, and the
// tx-queue packer. Per spec §5 it is single-threaded cooperative by design
// ("not currently thread safe" is preserved as an invariant, not a bug) —
// the caller must serialize Tick() and Set() itself.
type Engine struct {
	table     Table
	selfID    Module
	moduleAll Module
	peerCount int
	key       byte
	link      radiolink.Link
	log       LogPrintf
	tracer    *Tracer

	currentRound int
	roundCounter int
	ackTracker   map[int]bool
	txQueue      []token
	txTurns      int // count of tx phases run, exposed for tests
}

// TxTurns returns how many times this engine has run its tx phase.
func (e *Engine) TxTurns() int { return e.txTurns }

// Options customizes an Engine beyond its required table/id/peers/link.
type Options struct {
	Key    byte
	Log    LogPrintf
	Tracer *Tracer
}

// New builds an Engine over table, owned by selfID among peerCount legal
// peers (ids 0..peerCount-1); MODULE_ALL is derived as peerCount+1 per
// spec §3.
func New(table Table, selfID Module, peerCount int, link radiolink.Link, opts Options) *Engine {
	log := opts.Log
	if log == nil {
		log = func(format string, v ...interface{}) {}
	}
	return &Engine{
		table:     table,
		selfID:    selfID,
		moduleAll: Module(peerCount + 1),
		peerCount: peerCount,
		key:       opts.Key,
		link:      link,
		log:       log,
		tracer:    opts.Tracer,

		ackTracker: make(map[int]bool),
	}
}

// UpdateKey changes the session key used on future frames; both peers must
// change in lockstep (the mechanism for that is out of scope, per spec §6).
func (e *Engine) UpdateKey(key byte) { e.key = key }

// Set stores value into the entry at index, refusing the write if the
// entry is not owned by this node or value's kind does not match.
func (e *Engine) Set(index int, value Value) error {
	return e.table.Set(index, e.selfID, value)
}

// Get returns the current value stored at index.
func (e *Engine) Get(index int) (Value, error) {
	return e.table.Get(index)
}

// Snapshot exposes round state for tests; it does not copy the table.
type Snapshot struct {
	CurrentRound int
	RoundCounter int
	AckOutstanding map[int]bool
}

func (e *Engine) Snapshot() Snapshot {
	cp := make(map[int]bool, len(e.ackTracker))
	for k, v := range e.ackTracker {
		cp[k] = v
	}
	return Snapshot{CurrentRound: e.currentRound, RoundCounter: e.roundCounter, AckOutstanding: cp}
}

func (e *Engine) legalDest(b byte) bool {
	return Module(b) < Module(e.peerCount) || Module(b) == e.moduleAll
}

// Tick runs one cycle: rx phase strictly precedes tx phase, so acks
// generated from data received this cycle go out in the same cycle's tx
// pass (spec §5).
func (e *Engine) Tick() error {
	if err := e.rxPhase(); err != nil {
		return err
	}
	if e.currentRound == int(e.selfID) {
		e.txPhase()
	}
	return nil
}

// --- rx phase (§4.4.2) ---

func (e *Engine) rxPhase() error {
	raw, err := e.link.PollRx()
	if err != nil {
		return fmt.Errorf("mailbox: poll_rx: %w", err)
	}
	if len(raw) == 0 {
		return nil
	}

	frames := frame.DecodeStream(raw, byte(e.selfID), byte(e.moduleAll), e.key)
	for _, f := range frames {
		if !f.Valid {
			e.log("mailbox: invalid frame from %d, discarded", f.Source)
			e.tracer.tracef("rx invalid frame from %d", f.Source)
			continue
		}
		e.parseRx(f.Payload)
	}
	return nil
}

func (e *Engine) parseRx(data []byte) {
	idx := 0
	for idx < len(data) {
		switch data[idx] {
		case ackID:
			if idx+1 >= len(data) {
				return
			}
			ackIdx := int(data[idx+1])
			e.ackTracker[ackIdx] = false
			e.tracer.tracef("rx ack idx=%d", ackIdx)
			idx += 2

		case roundUpdate:
			if idx+1 >= len(data) {
				return
			}
			proposed := int(data[idx+1])
			e.advanceRound()
			if proposed != e.currentRound {
				e.log("mailbox: out of order round update, want %d got %d", e.currentRound, proposed)
				e.tracer.tracef("rx round update out of order, want=%d got=%d", e.currentRound, proposed)
				e.currentRound = proposed
			} else {
				e.tracer.tracef("rx round update -> %d", e.currentRound)
			}
			idx += 2

		default:
			entryIdx := int(data[idx])
			if entryIdx < 0 || entryIdx >= len(e.table) {
				e.log("mailbox: data token for unknown entry %d, discarding rest of frame", entryIdx)
				return
			}
			value, n, err := decodeValue(e.table[entryIdx].Value.Kind, data[idx+1:])
			if err != nil {
				e.log("mailbox: %v, discarding rest of frame", err)
				return
			}
			e.table[entryIdx].Value = value
			e.table[entryIdx].Flag = true
			e.tracer.tracef("rx data idx=%d", entryIdx)
			e.txQueue = append(e.txQueue, token{kind: tokAck, idx: entryIdx})
			idx += 1 + n
		}
	}
}

// --- tx phase (§4.4.1) ---

func (e *Engine) txPhase() {
	e.txTurns++
	// 1. ack audit
	for idx, outstanding := range e.ackTracker {
		if outstanding {
			e.log("mailbox: missing ack for idx %d", idx)
			e.tracer.tracef("missing ack idx=%d", idx)
			e.ackTracker[idx] = false
		}
	}

	// 2. entry scan
	for idx, entry := range e.table {
		if entry.Source != e.selfID {
			continue
		}
		due := (entry.Rate == Async && entry.Flag) ||
			(entry.Rate != Async && e.roundCounter%int(entry.Rate) == 0)
		if due {
			e.txQueue = append(e.txQueue, token{kind: tokData, idx: idx})
			e.ackTracker[idx] = true
		}
	}

	// 3. round update enqueue
	e.txQueue = append(e.txQueue, token{kind: tokRoundUpdate})

	// 4. pack and emit
	e.pack(e.txQueue)
	e.txQueue = nil

	// 5. local counter tick
	e.roundCounter = (e.roundCounter + 1) % 100
}

func (e *Engine) advanceRound() {
	e.currentRound = (e.currentRound + 1) % e.peerCount
}

// pack drains tokens into one or more <=10-byte frames, per §4.4.3.
// Destination coercion to MODULE_ALL is sticky within a frame but resets
// when a new frame starts (spec §9, "Destination coercion ambiguity").
func (e *Engine) pack(tokens []token) {
	var msgBuf []byte
	var msgDest Module
	destSet := false

	for _, tok := range tokens {
		var formatted []byte
		var dest Module

		switch tok.kind {
		case tokData:
			entry := e.table[tok.idx]
			formatted = encodeValue(byte(tok.idx), entry.Value)
			dest = entry.Dest
		case tokAck:
			entry := e.table[tok.idx]
			formatted = []byte{ackID, byte(tok.idx)}
			dest = entry.Source
		case tokRoundUpdate:
			e.advanceRound()
			formatted = []byte{roundUpdate, byte(e.currentRound)}
			dest = e.moduleAll
		}

		if !destSet {
			msgDest = dest
			destSet = true
		} else if msgDest != dest {
			msgDest = e.moduleAll
		}

		if len(msgBuf)+len(formatted) > frame.MaxPayload {
			e.emit(msgBuf, msgDest)
			msgBuf = nil
			msgDest = dest
		}
		msgBuf = append(msgBuf, formatted...)
	}

	if len(msgBuf) > 0 {
		e.emit(msgBuf, msgDest)
	}
}

func (e *Engine) emit(payload []byte, dest Module) {
	buf, err := frame.Encode(payload, byte(dest), byte(e.selfID), e.key, e.legalDest)
	if err != nil {
		e.log("mailbox: cannot encode frame: %v", err)
		return
	}
	e.tracer.tracef("tx frame dest=%d payload=% x", dest, payload)
	if err := e.link.Send(buf); err != nil {
		e.log("mailbox: send failed: %v", err)
	}
}
