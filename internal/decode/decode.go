// Package decode turns a framed UDP packet's bytes into the RawEvent
// records it carries.
package decode

import (
	"errors"
	"fmt"

	"github.com/dfreese/miilgo/internal/events"
	"github.com/dfreese/miilgo/internal/sysmodel"
)

// Decode errors mirror the original implementation's negative return
// codes so callers can discriminate malformed-wire conditions from
// transport failures.
var (
	ErrEmptyPacket    = errors.New("decode: empty packet")
	ErrFraming        = errors.New("decode: missing 0x80/0x81 start/stop bytes")
	ErrNoTrigger      = errors.New("decode: trigger code is zero")
	ErrBadPacketSize  = errors.New("decode: packet size does not match header")
	ErrUnknownAddress = errors.New("decode: backend address not configured")
)

// maxADCValues bounds the scratch slots a single packet's ADC section
// can fill: up to 24 values per module (corners + uv pairs + commons),
// four modules per rena, plus one sentinel slot for unread channels.
const maxADCValues = 24*4 + 1

// Scratch is caller-owned decode working storage. Reusing one Scratch
// across calls on the same goroutine avoids an allocation per packet;
// the original implementation achieved the same by making its ADC
// storage array thread-local.
type Scratch struct {
	adc [maxADCValues]int16
}

// PacketDecoder turns framed packet bytes into RawEvents using a
// SystemModel's packet-size and ADC-location tables.
type PacketDecoder struct {
	Model *sysmodel.SystemModel
}

// New returns a PacketDecoder bound to model.
func New(model *sysmodel.SystemModel) PacketDecoder {
	return PacketDecoder{Model: model}
}

// Decode parses one complete packet (inclusive of its 0x80 start byte
// and 0x81 stop byte) and appends the RawEvents it carries to out,
// returning the extended slice. scratch is working storage owned by
// the caller; a single Scratch should not be used from more than one
// goroutine concurrently.
func (d PacketDecoder) Decode(packet []byte, scratch *Scratch, out []events.RawEvent) ([]events.RawEvent, error) {
	if len(packet) < 3 {
		return out, ErrEmptyPacket
	}
	if packet[0] != 0x80 || packet[len(packet)-1] != 0x81 {
		return out, ErrFraming
	}

	backendAddress := int((packet[1] & 0x7C) >> 2)
	daqBoard := int((packet[1] & 0x03) >> 0)
	fpga := int((packet[2] & 0x30) >> 4)
	rena := 2*fpga + int((packet[2]&0x40)>>6)
	triggerCode := int(packet[2] & 0x0F)

	if triggerCode == 0 {
		return out, ErrNoTrigger
	}

	panel, cartridge, err := d.Model.LookupPanelCartridge(backendAddress)
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrUnknownAddress, err)
	}

	expectedSize := d.Model.PacketSize(panel, cartridge, daqBoard, rena, triggerCode)
	if len(packet) != expectedSize {
		return out, fmt.Errorf("%w: got %d want %d", ErrBadPacketSize, len(packet), expectedSize)
	}

	var timestamp int64
	for ii := 3; ii < 9; ii++ {
		timestamp <<= 7
		timestamp += int64(packet[ii] & 0x7F)
	}

	storeIdx := 0
	for ii := 9; ii < expectedSize-1; ii += 2 {
		value := int16(packet[ii]&0x3F)<<6 + int16(packet[ii+1]&0x3F)
		scratch.adc[storeIdx] = value
		storeIdx++
	}
	// The trailing scratch slot is the decoder's not-read sentinel
	// target and must stay DefaultNoReadADCValue.
	scratch.adc[d.Model.NotReadSentinel()] = int16(events.DefaultNoReadADCValue)

	locs := d.Model.ADCLocations(panel, cartridge, daqBoard, rena, triggerCode)
	for module := range locs {
		loc := &locs[module]
		if !loc.Triggered {
			continue
		}
		out = append(out, events.RawEvent{
			CoarseTimestamp: timestamp,
			A:               scratch.adc[loc.A],
			B:               scratch.adc[loc.B],
			C:               scratch.adc[loc.C],
			D:               scratch.adc[loc.D],
			Com0:            scratch.adc[loc.Com0],
			Com1:            scratch.adc[loc.Com1],
			Com0h:           scratch.adc[loc.Com0h],
			Com1h:           scratch.adc[loc.Com1h],
			U0:              scratch.adc[loc.U0],
			V0:              scratch.adc[loc.V0],
			U1:              scratch.adc[loc.U1],
			V1:              scratch.adc[loc.V1],
			U0h:             scratch.adc[loc.U0h],
			V0h:             scratch.adc[loc.V0h],
			U1h:             scratch.adc[loc.U1h],
			V1h:             scratch.adc[loc.V1h],
			Panel:           int8(panel),
			Cartridge:       int8(cartridge),
			Daq:             int8(daqBoard),
			Chip:            int8(rena),
			Module:          int8(module),
		})
	}

	return out, nil
}
