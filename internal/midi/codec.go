// Package midi encodes MIDI Control Change events into BLE-MIDI packets.
//
// A BLE-MIDI packet for a single event is five bytes:
//
//	[header] [timestamp] [status] [data1] [data2]
//
// The header carries the high 6 bits of a 13-bit millisecond timestamp, the timestamp byte the
// low 7 bits. Both have their top bit set. The last three bytes are a plain MIDI Control Change
// message built by gomidi.
package midi

import (
	"errors"
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
)

const (
	// PacketSize is the length of a single-event BLE-MIDI packet
	PacketSize = 5

	// TimestampModulus is the size of the 13-bit BLE-MIDI timestamp space
	TimestampModulus = 1 << 13

	MaxChannel = 15
	MaxData    = 127

	headerBit = 0x80
)

var (
	ErrPacketSize   = errors.New("invalid packet size")
	ErrPacketHeader = errors.New("missing header or timestamp bit")
	ErrNotCC        = errors.New("not a control change message")
)

// Packet is an encoded BLE-MIDI Control Change packet.
type Packet [PacketSize]byte

// Bytes returns a copy of the packet as a slice.
func (p Packet) Bytes() []byte {
	b := make([]byte, PacketSize)
	copy(b, p[:])
	return b
}

func (p Packet) String() string {
	return fmt.Sprintf("% X", p[:])
}

// ControlChange is a single MIDI Control Change event in wire ranges.
type ControlChange struct {
	Channel    int // 0-15
	Controller int // 0-127
	Value      int // 0-127
	Timestamp  int64
}

// Encode packs the event into a BLE-MIDI packet.
func (cc ControlChange) Encode() Packet {
	return Encode(cc.Channel, cc.Controller, cc.Value, cc.Timestamp)
}

// Encode builds a BLE-MIDI packet for a Control Change event.
// Channel is masked to its low nibble, controller and value are clamped to 0..127.
// The timestamp is reduced modulo 8192.
func Encode(channel, controller, value int, timestampMillis int64) Packet {
	ts := Timestamp(timestampMillis)
	msg := gomidi.ControlChange(uint8(channel&MaxChannel), clampData(controller), clampData(value))

	return Packet{
		headerBit | byte((ts>>7)&0x3F),
		headerBit | byte(ts&0x7F),
		msg[0],
		msg[1],
		msg[2],
	}
}

// Timestamp reduces a millisecond clock reading into the 13-bit timestamp space.
func Timestamp(millis int64) uint16 {
	ts := millis % TimestampModulus
	if ts < 0 {
		ts += TimestampModulus
	}
	return uint16(ts)
}

// Decode parses a single-event Control Change packet. It is the inverse of Encode for
// in-range values and is used for diagnostics.
func Decode(b []byte) (ControlChange, error) {
	if len(b) != PacketSize {
		return ControlChange{}, fmt.Errorf("%w: got %d bytes, want %d", ErrPacketSize, len(b), PacketSize)
	}
	if b[0]&headerBit == 0 || b[1]&headerBit == 0 {
		return ControlChange{}, ErrPacketHeader
	}

	var channel, controller, value uint8
	if !gomidi.Message(b[2:]).GetControlChange(&channel, &controller, &value) {
		return ControlChange{}, fmt.Errorf("%w: status 0x%02X", ErrNotCC, b[2])
	}

	return ControlChange{
		Channel:    int(channel),
		Controller: int(controller),
		Value:      int(value),
		Timestamp:  int64(b[0]&0x3F)<<7 | int64(b[1]&0x7F),
	}, nil
}

func clampData(v int) byte {
	switch {
	case v < 0:
		return 0
	case v > MaxData:
		return MaxData
	default:
		return byte(v)
	}
}
