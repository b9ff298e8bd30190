package radiolink

import (
	"fmt"
	"sync"

	"periph.io/x/periph/conn/spi"
)

// register addresses, named the way sx1276/registers.go names them; this is
// the same chip family but driven by direct register polling rather than
// sx1276.Radio's interrupt-driven packet worker, because the protocol this
// link serves owns its own framing and FIFO bookkeeping (spec §6).
const (
	regFIFO       = 0x00
	regOpMode     = 0x01
	regPAConfig   = 0x09
	regFIFOPtr    = 0x0D
	regFIFORxBase = 0x0F
	regFIFORxCurr = 0x10
	regIRQFlags   = 0x12
	regRxBytes    = 0x13
	regPayLength  = 0x22
	regDIOMap1    = 0x40
)

const (
	opSleep   = 0x80 // LoRa + low-freq + sleep
	opStandby = 0x81
	opTx      = 0x83
	opRxCont  = 0x85
)

const (
	irqRxDone  = 0x40
	irqValid   = 0x10
	irqTimeout = 0x80
	irqCRCErr  = 0x20
	irqTxDone  = 0x08
)

// fifoSize is the chip's physical FIFO: the wrap arithmetic below is
// load-bearing and specified bit-exact in spec §6.
const fifoSize = 0x80

// maxFrameBytes is the largest single LoRa payload the mailbox protocol
// ever produces: a 6-byte header plus a 10-byte payload.
const maxFrameBytes = 16

// SPI drives a Semtech SX1276-class transceiver in raw polling mode: no
// interrupts, no packet framing of its own, just the register protocol a
// RadioLink needs.
type SPI struct {
	mu  sync.Mutex
	dev spi.Conn
	log LogPrintf

	lastFifoIdx byte // read pointer remembered across PollRx calls
}

// NewSPI wraps an already-opened SPI connection. The caller owns bus setup
// (speed, mode, chip select) exactly as sx1276.New expects of its caller.
func NewSPI(dev spi.Conn, log LogPrintf) *SPI {
	if log == nil {
		log = noopLog
	}
	return &SPI{dev: dev, log: log}
}

func (s *SPI) writeReg(addr, data byte) {
	var rbuf [2]byte
	s.dev.Tx([]byte{addr | 0x80, data}, rbuf[:])
}

func (s *SPI) readReg(addr byte) byte {
	var rbuf [2]byte
	s.dev.Tx([]byte{addr &^ 0x80, 0x00}, rbuf[:])
	return rbuf[1]
}

// Init brings the chip up in LoRa/sleep mode, matching
// original_source/msgAPI.py's __LoraInit (OpMode sleep, max PA, no DIO
// remap).
func (s *SPI) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeReg(regOpMode, opSleep)
	s.writeReg(regPAConfig, 0xFF)
	s.writeReg(regDIOMap1, 0x00)
	return nil
}

// SetRxMode switches to continuous rx and resets the remembered FIFO read
// pointer, mirroring __LoraSetRxMode.
func (s *SPI) SetRxMode() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeReg(regOpMode, opStandby)
	s.writeReg(regFIFOPtr, 0x00)
	s.writeReg(regOpMode, opRxCont)
	s.lastFifoIdx = 0
	return nil
}

// PollRx checks for a completed rx, then reads out whatever has landed in
// the FIFO since the last call, linearizing any wraparound. This is a
// direct port of __LoraCheckMessage + __LoraReadMessageMulti.
func (s *SPI) PollRx() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	irq := s.readReg(regIRQFlags)
	switch {
	case irq&irqRxDone == irqRxDone && irq&irqValid == irqValid:
		// fall through to read the FIFO below
	case irq&irqTimeout == irqTimeout || irq&irqCRCErr == irqCRCErr:
		s.writeReg(regIRQFlags, 0xFF)
		return nil, nil
	default:
		return nil, nil
	}

	numBytes := s.readReg(regRxBytes)
	if numBytes > maxFrameBytes {
		s.log("radiolink: %d bytes rx'ed exceeds max %d, discarding", numBytes, maxFrameBytes)
		s.writeReg(regIRQFlags, 0xFF)
		return nil, nil
	}

	currentPtr := s.readReg(regFIFORxCurr)
	baseAddr := s.readReg(regFIFORxBase)

	readIdx := currentPtr
	total := int(numBytes)
	if s.lastFifoIdx != currentPtr {
		if currentPtr < s.lastFifoIdx {
			total += int(fifoSize-s.lastFifoIdx) + int(currentPtr-baseAddr)
		} else {
			total += int(currentPtr - s.lastFifoIdx)
		}
		readIdx = s.lastFifoIdx
	}
	s.lastFifoIdx = byte((int(readIdx) + total) % fifoSize)

	s.writeReg(regFIFOPtr, readIdx)
	out := make([]byte, total)
	for i := range out {
		out[i] = s.readReg(regFIFO)
	}
	s.writeReg(regIRQFlags, 0xFF)
	return out, nil
}

// Send fills the FIFO, switches to tx, polls for tx-done, then returns to
// rx mode, mirroring __LoraSendMessage + the TXMessage caller's
// SetRxMode().
func (s *SPI) Send(buf []byte) error {
	if len(buf) > maxFrameBytes {
		return fmt.Errorf("radiolink: frame of %d bytes exceeds max %d", len(buf), maxFrameBytes)
	}
	s.mu.Lock()
	s.writeReg(regOpMode, 0x81)
	s.writeReg(regFIFOPtr, 0x80)
	for _, b := range buf {
		s.writeReg(regFIFO, b)
	}
	s.writeReg(regPayLength, byte(len(buf)))
	s.writeReg(regOpMode, opTx)
	for s.readReg(regIRQFlags)&irqTxDone != irqTxDone {
	}
	s.writeReg(regIRQFlags, irqTxDone)
	s.mu.Unlock()

	return s.SetRxMode()
}
