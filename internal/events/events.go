// Package events defines the two fixed-width event records that flow
// through an acquisition pipeline: RawEvent, as decoded straight off the
// wire, and CalEvent, after pedestal/energy/time calibration and crystal
// identification.
//
// Both types have a hard on-disk size requirement (48 and 40 bytes
// respectively) so they are (de)serialized explicitly with
// encoding/binary rather than relying on Go struct layout, which is not
// guaranteed to match the packed C layout the rest of the system assumes.
package events

import (
	"encoding/binary"
	"math"
)

// RawEventSize is the fixed on-disk size of a RawEvent record.
const RawEventSize = 48

// CalEventSize is the fixed on-disk size of a CalEvent record.
const CalEventSize = 40

// DefaultNoReadADCValue is substituted for any channel that a packet's
// trigger code did not actually read out.
const DefaultNoReadADCValue = 0

// RawEvent is one module's worth of ADC readings off a single Rena chip,
// as produced by the packet decoder.
type RawEvent struct {
	CoarseTimestamp int64

	A, B, C, D         int16
	Com0, Com1         int16
	Com0h, Com1h       int16
	U0, V0, U1, V1     int16
	U0h, V0h, U1h, V1h int16

	Panel     int8
	Cartridge int8
	Daq       int8
	Chip      int8
	Module    int8
}

// MarshalBinary packs the event into its 48-byte wire/disk layout,
// field order as documented in RawEvent.
func (e RawEvent) MarshalBinary() []byte {
	buf := make([]byte, RawEventSize)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(e.CoarseTimestamp))

	vals := [16]int16{
		e.A, e.B, e.C, e.D,
		e.Com0, e.Com1, e.Com0h, e.Com1h,
		e.U0, e.V0, e.U1, e.V1,
		e.U0h, e.V0h, e.U1h, e.V1h,
	}
	for i, v := range vals {
		off := 8 + i*2
		binary.LittleEndian.PutUint16(buf[off:off+2], uint16(v))
	}

	buf[40] = uint8(e.Panel)
	buf[41] = uint8(e.Cartridge)
	buf[42] = uint8(e.Daq)
	buf[43] = uint8(e.Chip)
	buf[44] = uint8(e.Module)
	// buf[45:48] reserved, left zero.
	return buf
}

// UnmarshalRawEvent reads a RawEvent out of a 48-byte slice produced by
// MarshalBinary.
func UnmarshalRawEvent(buf []byte) RawEvent {
	var e RawEvent
	e.CoarseTimestamp = int64(binary.LittleEndian.Uint64(buf[0:8]))

	var vals [16]int16
	for i := range vals {
		off := 8 + i*2
		vals[i] = int16(binary.LittleEndian.Uint16(buf[off : off+2]))
	}
	e.A, e.B, e.C, e.D = vals[0], vals[1], vals[2], vals[3]
	e.Com0, e.Com1, e.Com0h, e.Com1h = vals[4], vals[5], vals[6], vals[7]
	e.U0, e.V0, e.U1, e.V1 = vals[8], vals[9], vals[10], vals[11]
	e.U0h, e.V0h, e.U1h, e.V1h = vals[12], vals[13], vals[14], vals[15]

	e.Panel = int8(buf[40])
	e.Cartridge = int8(buf[41])
	e.Daq = int8(buf[42])
	e.Chip = int8(buf[43])
	e.Module = int8(buf[44])
	return e
}

// CalEvent is a RawEvent after pedestal subtraction, anger-logic position,
// fine-time, crystal identification and energy calibration.
type CalEvent struct {
	CoarseTimestamp int64

	FineTime     float32
	Energy       float32
	SpatialTotal float32
	X, Y         float32

	Panel     int8
	Cartridge int8
	Fin       int8
	Module    int8
	Apd       int8
	Crystal   int8
	Daq       int8
	Chip      int8
}

// MarshalBinary packs the event into its 40-byte wire/disk layout.
func (e CalEvent) MarshalBinary() []byte {
	buf := make([]byte, CalEventSize)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(e.CoarseTimestamp))

	floats := [5]float32{e.FineTime, e.Energy, e.SpatialTotal, e.X, e.Y}
	for i, f := range floats {
		off := 8 + i*4
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(f))
	}

	buf[28] = uint8(e.Panel)
	buf[29] = uint8(e.Cartridge)
	buf[30] = uint8(e.Fin)
	buf[31] = uint8(e.Module)
	buf[32] = uint8(e.Apd)
	buf[33] = uint8(e.Crystal)
	buf[34] = uint8(e.Daq)
	buf[35] = uint8(e.Chip)
	// buf[36:40] reserved, left zero.
	return buf
}

// UnmarshalCalEvent reads a CalEvent out of a 40-byte slice produced by
// MarshalBinary.
func UnmarshalCalEvent(buf []byte) CalEvent {
	var e CalEvent
	e.CoarseTimestamp = int64(binary.LittleEndian.Uint64(buf[0:8]))

	var floats [5]float32
	for i := range floats {
		off := 8 + i*4
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[off : off+4]))
	}
	e.FineTime, e.Energy, e.SpatialTotal, e.X, e.Y =
		floats[0], floats[1], floats[2], floats[3], floats[4]

	e.Panel = int8(buf[28])
	e.Cartridge = int8(buf[29])
	e.Fin = int8(buf[30])
	e.Module = int8(buf[31])
	e.Apd = int8(buf[32])
	e.Crystal = int8(buf[33])
	e.Daq = int8(buf[34])
	e.Chip = int8(buf[35])
	return e
}
