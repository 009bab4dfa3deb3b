// Package procinfo tracks the running counters a pipeline stream
// exposes for monitoring: bytes and packets seen, and why each dropped
// event was dropped at every stage of decode and calibration.
package procinfo

import (
	"fmt"
	"sync"
)

// ProcessInfo is a set of monotonically increasing counters, safe for
// one goroutine to increment concurrently with any number of other
// goroutines calling Snapshot. String reads the fields without taking
// the lock, so it is called on a Snapshot copy.
type ProcessInfo struct {
	mu sync.Mutex

	BytesReceived    int64
	BytesTransferred int64
	BytesProcessed   int64

	DecodedEventsProcessed int64
	AcceptedDecode         int64
	AcceptedCalibrate      int64

	DroppedEmpty          int64
	DroppedStartStop      int64
	DroppedTriggerCode    int64
	DroppedPacketSize     int64
	DroppedAddressByte    int64
	DroppedThreshold      int64
	DroppedDoubleTrigger  int64
	DroppedCrystalID      int64
	DroppedCrystalInvalid int64
	DroppedEnergyGate     int64

	WrittenRawBytes         int64
	WrittenDecodedEvents    int64
	WrittenCalibratedEvents int64

	RecvCallsNormal int64
	RecvCallsZero   int64
	RecvCallsError  int64
}

// Reset zeroes every counter.
func (p *ProcessInfo) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.BytesReceived, p.BytesTransferred, p.BytesProcessed = 0, 0, 0
	p.DecodedEventsProcessed, p.AcceptedDecode, p.AcceptedCalibrate = 0, 0, 0
	p.DroppedEmpty, p.DroppedStartStop, p.DroppedTriggerCode = 0, 0, 0
	p.DroppedPacketSize, p.DroppedAddressByte = 0, 0
	p.DroppedThreshold, p.DroppedDoubleTrigger = 0, 0
	p.DroppedCrystalID, p.DroppedCrystalInvalid, p.DroppedEnergyGate = 0, 0, 0
	p.WrittenRawBytes, p.WrittenDecodedEvents, p.WrittenCalibratedEvents = 0, 0, 0
	p.RecvCallsNormal, p.RecvCallsZero, p.RecvCallsError = 0, 0, 0
}

// Snapshot returns a copy of the counters' current values, safe to
// read without further locking.
func (p *ProcessInfo) Snapshot() ProcessInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ProcessInfo{
		BytesReceived:    p.BytesReceived,
		BytesTransferred: p.BytesTransferred,
		BytesProcessed:   p.BytesProcessed,

		DecodedEventsProcessed: p.DecodedEventsProcessed,
		AcceptedDecode:         p.AcceptedDecode,
		AcceptedCalibrate:      p.AcceptedCalibrate,

		DroppedEmpty:          p.DroppedEmpty,
		DroppedStartStop:      p.DroppedStartStop,
		DroppedTriggerCode:    p.DroppedTriggerCode,
		DroppedPacketSize:     p.DroppedPacketSize,
		DroppedAddressByte:    p.DroppedAddressByte,
		DroppedThreshold:      p.DroppedThreshold,
		DroppedDoubleTrigger:  p.DroppedDoubleTrigger,
		DroppedCrystalID:      p.DroppedCrystalID,
		DroppedCrystalInvalid: p.DroppedCrystalInvalid,
		DroppedEnergyGate:     p.DroppedEnergyGate,

		WrittenRawBytes:         p.WrittenRawBytes,
		WrittenDecodedEvents:    p.WrittenDecodedEvents,
		WrittenCalibratedEvents: p.WrittenCalibratedEvents,

		RecvCallsNormal: p.RecvCallsNormal,
		RecvCallsZero:   p.RecvCallsZero,
		RecvCallsError:  p.RecvCallsError,
	}
}

// Add* helpers increment one counter by delta under the shared lock, so
// callers never need to take the lock themselves.
func (p *ProcessInfo) AddBytesReceived(delta int64)    { p.add(&p.BytesReceived, delta) }
func (p *ProcessInfo) AddBytesTransferred(delta int64) { p.add(&p.BytesTransferred, delta) }
func (p *ProcessInfo) AddBytesProcessed(delta int64)   { p.add(&p.BytesProcessed, delta) }

func (p *ProcessInfo) AddDecodedEventsProcessed(delta int64) {
	p.add(&p.DecodedEventsProcessed, delta)
}
func (p *ProcessInfo) AddAcceptedDecode(delta int64)    { p.add(&p.AcceptedDecode, delta) }
func (p *ProcessInfo) AddAcceptedCalibrate(delta int64) { p.add(&p.AcceptedCalibrate, delta) }

func (p *ProcessInfo) AddDroppedEmpty(delta int64)         { p.add(&p.DroppedEmpty, delta) }
func (p *ProcessInfo) AddDroppedStartStop(delta int64)     { p.add(&p.DroppedStartStop, delta) }
func (p *ProcessInfo) AddDroppedTriggerCode(delta int64)   { p.add(&p.DroppedTriggerCode, delta) }
func (p *ProcessInfo) AddDroppedPacketSize(delta int64)    { p.add(&p.DroppedPacketSize, delta) }
func (p *ProcessInfo) AddDroppedAddressByte(delta int64)   { p.add(&p.DroppedAddressByte, delta) }
func (p *ProcessInfo) AddDroppedThreshold(delta int64)     { p.add(&p.DroppedThreshold, delta) }
func (p *ProcessInfo) AddDroppedDoubleTrigger(delta int64) { p.add(&p.DroppedDoubleTrigger, delta) }
func (p *ProcessInfo) AddDroppedCrystalID(delta int64)     { p.add(&p.DroppedCrystalID, delta) }
func (p *ProcessInfo) AddDroppedCrystalInvalid(delta int64) {
	p.add(&p.DroppedCrystalInvalid, delta)
}
func (p *ProcessInfo) AddDroppedEnergyGate(delta int64) { p.add(&p.DroppedEnergyGate, delta) }

func (p *ProcessInfo) AddWrittenRawBytes(delta int64)      { p.add(&p.WrittenRawBytes, delta) }
func (p *ProcessInfo) AddWrittenDecodedEvents(delta int64) { p.add(&p.WrittenDecodedEvents, delta) }
func (p *ProcessInfo) AddWrittenCalibratedEvents(delta int64) {
	p.add(&p.WrittenCalibratedEvents, delta)
}

func (p *ProcessInfo) AddRecvCallsNormal(delta int64) { p.add(&p.RecvCallsNormal, delta) }
func (p *ProcessInfo) AddRecvCallsZero(delta int64)   { p.add(&p.RecvCallsZero, delta) }
func (p *ProcessInfo) AddRecvCallsError(delta int64)  { p.add(&p.RecvCallsError, delta) }

func (p *ProcessInfo) add(counter *int64, delta int64) {
	p.mu.Lock()
	*counter += delta
	p.mu.Unlock()
}

// String renders the counters in the same section layout (packet
// stage, event stage, write stage, receive-call stage) the original
// stream operator used.
func (p ProcessInfo) String() string {
	return fmt.Sprintf(
		"bytes received: %d\n"+
			"bytes processed: %d\n"+
			"Accepted Packets: %d\n"+
			"Dropped (Empty) : %d\n"+
			"Dropped (Start) : %d\n"+
			"Dropped (Trigg) : %d\n"+
			"Dropped (Size)  : %d\n"+
			"Dropped (Addr)  : %d\n"+
			"\n"+
			"Events Processed: %d\n"+
			"Accepted Events        : %d\n"+
			"Dropped (Threshold)    : %d\n"+
			"Dropped (Dbl Trigger)  : %d\n"+
			"Dropped (Crystal Ident): %d\n"+
			"Dropped (Crystal Valid): %d\n"+
			"Dropped (Energy Gate)  : %d\n"+
			"\n"+
			"Wrote (raw bytes)        : %d\n"+
			"Wrote (decoded events)   : %d\n"+
			"Wrote (calibrated events): %d\n"+
			"\n"+
			"Receive Calls (Data)   : %d\n"+
			"Receive Calls (Zero)   : %d\n"+
			"Receive Calls (Error)  : %d\n",
		p.BytesReceived, p.BytesProcessed, p.AcceptedDecode,
		p.DroppedEmpty, p.DroppedStartStop, p.DroppedTriggerCode,
		p.DroppedPacketSize, p.DroppedAddressByte,
		p.DecodedEventsProcessed, p.AcceptedCalibrate,
		p.DroppedThreshold, p.DroppedDoubleTrigger, p.DroppedCrystalID,
		p.DroppedCrystalInvalid, p.DroppedEnergyGate,
		p.WrittenRawBytes, p.WrittenDecodedEvents, p.WrittenCalibratedEvents,
		p.RecvCallsNormal, p.RecvCallsZero, p.RecvCallsError,
	)
}
