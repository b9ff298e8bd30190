// Package frame implements the link-layer codec: it packs application
// payloads into fixed-header frames for the radio FIFO, and splits a raw
// byte stream that may hold several concatenated frames back into payloads.
package frame

import (
	"fmt"

	"github.com/NateTHEgreatest33/STF/crc8"
)

const (
	// MaxPayload is the largest payload one frame carries.
	MaxPayload   = 10
	headerSize   = 5 // dest, source, pad, version/size, key
	minFrameSize = headerSize + 1 // header + crc, zero-length payload
	version      = 2
)

// Frame is one decoded unit handed up from the wire.
type Frame struct {
	Source  byte
	Payload []byte
	Valid   bool
}

// Encode builds one outbound frame: dest/src/pad/version+size/key/payload/crc.
// It refuses payloads over MaxPayload bytes and destinations that are
// neither a legal peer id nor moduleAll.
func Encode(payload []byte, dest, source, key byte, legalDest func(byte) bool) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, fmt.Errorf("frame: payload of %d bytes exceeds max %d", len(payload), MaxPayload)
	}
	if !legalDest(dest) {
		return nil, fmt.Errorf("frame: destination %d is not a legal peer or broadcast", dest)
	}

	buf := make([]byte, 0, headerSize+len(payload)+1)
	buf = append(buf, dest, source, 0x00, byte(version<<4)|byte(len(payload)), key)
	buf = append(buf, payload...)
	buf = append(buf, crc8.Checksum(buf))
	return buf, nil
}

// DecodeStream consumes a byte sequence that may contain zero or more
// concatenated frames. A frame addressed to neither selfID nor moduleAll is
// skipped silently (the cursor still advances past it); a frame that
// parses but fails key/version/CRC is returned with Valid=false. Parsing
// stops once fewer than minFrameSize bytes remain.
func DecodeStream(buf []byte, selfID, moduleAll, expectedKey byte) []Frame {
	var frames []Frame
	cursor := 0
	for len(buf)-cursor >= minFrameSize {
		remaining := buf[cursor:]
		size := int(remaining[3] & 0x0F)
		frameLen := headerSize + size + 1
		if frameLen > len(remaining) {
			break
		}
		raw := remaining[:frameLen]
		cursor += frameLen

		dest := raw[0]
		if dest != selfID && dest != moduleAll {
			continue
		}

		source := raw[1]
		ver := (raw[3] & 0xF0) >> 4
		key := raw[4]
		payload := raw[headerSize : headerSize+size]
		crc := raw[frameLen-1]

		valid := key == expectedKey && ver == version && crc == crc8.Checksum(raw[:frameLen-1])
		frames = append(frames, Frame{Source: source, Payload: payload, Valid: valid})
	}
	return frames
}
