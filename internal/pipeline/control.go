package pipeline

import "sync/atomic"

// Control holds the cooperative cancellation flags shared by every
// stream in a controller. No goroutine is ever killed asynchronously;
// loops poll these flags and a receive socket's own read timeout keeps
// the receiver responsive to them.
type Control struct {
	readSockets      atomic.Bool
	processData      atomic.Bool
	endOfAcquisition atomic.Bool

	// splitPending is the shared "increment_filename" signal: any
	// stream crossing its own FileSizeMax sets it, and the processOnce of
	// every stream with SplitFiles enabled checks it each round, so one fast
	// stream forces every sibling to rotate in lockstep even though
	// the siblings never independently cross their own threshold.
	splitPending atomic.Bool
}

// NewControl returns a Control with both loops enabled.
func NewControl() *Control {
	c := &Control{}
	c.readSockets.Store(true)
	c.processData.Store(true)
	return c
}

func (c *Control) ReadSockets() bool      { return c.readSockets.Load() }
func (c *Control) ProcessData() bool      { return c.processData.Load() }
func (c *Control) EndOfAcquisition() bool { return c.endOfAcquisition.Load() }

func (c *Control) StopReceiving()          { c.readSockets.Store(false) }
func (c *Control) StopProcessing(eoa bool) { c.endOfAcquisition.Store(eoa); c.processData.Store(false) }
func (c *Control) Reset() {
	c.readSockets.Store(true)
	c.processData.Store(true)
	c.endOfAcquisition.Store(false)
	c.splitPending.Store(false)
}

// RequestSplit raises the shared split signal. Any number of streams
// may call this concurrently; it is idempotent until ClearSplit runs.
func (c *Control) RequestSplit() { c.splitPending.Store(true) }

// SplitPending reports whether some stream has requested a split that
// the whole controller has not yet rotated for.
func (c *Control) SplitPending() bool { return c.splitPending.Load() }

// ClearSplit lowers the shared split signal once every stream has
// rotated for it, so a later independent crossing can raise it again.
func (c *Control) ClearSplit() { c.splitPending.Store(false) }
