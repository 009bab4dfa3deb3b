// Package pipeline implements the per-stream acquisition loop: a
// receive goroutine that drains a socket into a transfer buffer, and a
// process goroutine that decodes, calibrates, near-sorts and writes the
// result, plus the controller and file-rotation barrier that coordinate
// many streams sharing one acquisition.
package pipeline

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dfreese/miilgo/internal/boundedbuffer"
	"github.com/dfreese/miilgo/internal/calibrate"
	"github.com/dfreese/miilgo/internal/decode"
	"github.com/dfreese/miilgo/internal/events"
	"github.com/dfreese/miilgo/internal/netio"
	"github.com/dfreese/miilgo/internal/procinfo"
	"github.com/dfreese/miilgo/internal/sorting"
	"github.com/dfreese/miilgo/internal/sysmodel"
)

// StreamConfig configures one PipelineStream.
type StreamConfig struct {
	Socket     netio.Socket
	Model      *sysmodel.SystemModel
	Decoder    decode.PacketDecoder
	Calibrator calibrate.EventCalibrator

	RawFilename        string
	DecodedFilename    string
	CalibratedFilename string
	WriteRaw           bool
	WriteDecoded       bool
	WriteCalibrated    bool

	EnergyGateEnabled bool
	EnergyGateLow     float32
	EnergyGateHigh    float32

	SortCalibratedEvents bool
	// AssumedMaxDelayTicks bounds how far behind the newest event a
	// retained event is allowed to sit before it is forced out, in
	// coarse-timestamp ticks.
	AssumedMaxDelayTicks int64

	SplitFiles  bool
	FileSizeMax int64

	RecvBufferSize         int
	TransferBufferCapacity int
	MonitorBufferCapacity  int
}

// PipelineStream owns one socket's receive and process loop pair: one
// producer goroutine, one consumer goroutine, bridged by a bounded
// transfer buffer.
type PipelineStream struct {
	cfg     StreamConfig
	control *Control
	barrier *FileRotationBarrier

	transfer          *boundedbuffer.BoundedBuffer[byte]
	rawStorage        *boundedbuffer.BoundedBuffer[byte]
	decodedStorage    *boundedbuffer.BoundedBuffer[events.RawEvent]
	calibratedStorage *boundedbuffer.BoundedBuffer[events.CalEvent]

	info       procinfo.ProcessInfo
	lockedInfo procinfo.ProcessInfo
	infoMu     sync.Mutex

	// mu serializes one iteration of the process loop against an
	// in-flight SetFilenames call, giving set_*_filename's "temporarily
	// halts processing" semantics without a second control flag.
	mu sync.Mutex

	processDeque      []byte
	pendingCalibrated []events.CalEvent

	rawBase, decodedBase, calibratedBase       string
	rawFile, decodedFile, calibratedFile       *os.File
	rawFilename, decodedFilename, calFilename  string
	splitIndex                                 int
	rawBytesWritten                            int64

	wg sync.WaitGroup
}

// NewStream constructs a PipelineStream sharing control and barrier with
// its sibling streams in one PipelineController.
func NewStream(cfg StreamConfig, control *Control, barrier *FileRotationBarrier) (*PipelineStream, error) {
	if cfg.RecvBufferSize <= 0 {
		cfg.RecvBufferSize = 65536
	}
	if cfg.TransferBufferCapacity <= 0 {
		cfg.TransferBufferCapacity = 1 << 20
	}
	if cfg.MonitorBufferCapacity <= 0 {
		cfg.MonitorBufferCapacity = 1 << 16
	}

	s := &PipelineStream{
		cfg:             cfg,
		control:         control,
		barrier:         barrier,
		transfer:        boundedbuffer.New[byte](cfg.TransferBufferCapacity),
		rawStorage:      boundedbuffer.New[byte](cfg.MonitorBufferCapacity),
		decodedStorage:  boundedbuffer.New[events.RawEvent](cfg.MonitorBufferCapacity),
		calibratedStorage: boundedbuffer.New[events.CalEvent](cfg.MonitorBufferCapacity),
		rawBase:         cfg.RawFilename,
		decodedBase:     cfg.DecodedFilename,
		calibratedBase:  cfg.CalibratedFilename,
	}
	if err := s.openFiles(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PipelineStream) openFiles() error {
	s.rawFilename = splitFilename(s.rawBase, s.splitIndex)
	s.decodedFilename = splitFilename(s.decodedBase, s.splitIndex)
	s.calFilename = splitFilename(s.calibratedBase, s.splitIndex)

	var err error
	if s.cfg.WriteRaw && s.rawFilename != "" {
		if s.rawFile, err = os.OpenFile(s.rawFilename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644); err != nil {
			return fmt.Errorf("pipeline: opening raw file %q: %w", s.rawFilename, err)
		}
	}
	if s.cfg.WriteDecoded && s.decodedFilename != "" {
		if s.decodedFile, err = os.OpenFile(s.decodedFilename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644); err != nil {
			return fmt.Errorf("pipeline: opening decoded file %q: %w", s.decodedFilename, err)
		}
	}
	if s.cfg.WriteCalibrated && s.calFilename != "" {
		if s.calibratedFile, err = os.OpenFile(s.calFilename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644); err != nil {
			return fmt.Errorf("pipeline: opening calibrated file %q: %w", s.calFilename, err)
		}
	}
	return nil
}

func (s *PipelineStream) closeFiles() {
	for _, f := range []*os.File{s.rawFile, s.decodedFile, s.calibratedFile} {
		if f != nil {
			f.Close()
		}
	}
	s.rawFile, s.decodedFile, s.calibratedFile = nil, nil, nil
}

// Start launches the receive and process goroutines.
func (s *PipelineStream) Start() {
	s.wg.Add(2)
	go s.runReceiver()
	go s.runProcessor()
}

// Wait blocks until both goroutines have returned.
func (s *PipelineStream) Wait() { s.wg.Wait() }

// Snapshot returns the stream's published counters.
func (s *PipelineStream) Snapshot() procinfo.ProcessInfo {
	s.infoMu.Lock()
	defer s.infoMu.Unlock()
	return s.lockedInfo
}

func (s *PipelineStream) publish() {
	snap := s.info.Snapshot()
	s.infoMu.Lock()
	s.lockedInfo = snap
	s.infoMu.Unlock()
}

func (s *PipelineStream) runReceiver() {
	defer s.wg.Done()
	buf := make([]byte, s.cfg.RecvBufferSize)
	netio.RecvLoop(s.control.ReadSockets, s.cfg.Socket, buf,
		func(n int) {
			s.info.AddRecvCallsNormal(1)
			s.info.AddBytesReceived(int64(n))
			s.transfer.TryInsert(buf[:n])
		},
		func(err error) {
			if err != nil {
				s.info.AddRecvCallsError(1)
			} else {
				s.info.AddRecvCallsZero(1)
			}
		})
}

func (s *PipelineStream) runProcessor() {
	defer s.wg.Done()
	for s.control.ProcessData() {
		s.processOnce(false)
		s.publish()
	}
	// final drain: one more round; at end of acquisition it also flushes
	// every retained calibrated event, ignoring the release horizon. A
	// partial packet stays in the process deque.
	s.processOnce(s.control.EndOfAcquisition())
	s.publish()
	s.closeFiles()
}

func (s *PipelineStream) processOnce(endOfAcquisition bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pulled, ok := s.transfer.WaitForPullAll(500 * time.Millisecond)
	if ok && len(pulled) > 0 {
		s.info.AddBytesTransferred(int64(len(pulled)))
		s.rawStorage.TryInsert(pulled)
		s.processDeque = append(s.processDeque, pulled...)
	}

	frames, consumed := scanFrames(s.processDeque)
	if consumed > 0 {
		remaining := len(s.processDeque) - consumed
		copy(s.processDeque, s.processDeque[consumed:])
		s.processDeque = s.processDeque[:remaining]
	}

	var decoded []events.RawEvent
	var scratch decode.Scratch
	for _, frame := range frames {
		var err error
		decoded, err = s.cfg.Decoder.Decode(frame, &scratch, decoded)
		if err != nil {
			s.countDecodeDrop(err)
			continue
		}
		s.info.AddAcceptedDecode(1)
	}
	if len(decoded) > 0 {
		s.info.AddDecodedEventsProcessed(int64(len(decoded)))
		s.decodedStorage.TryInsert(decoded)
	}

	for _, raw := range decoded {
		cal, err := s.cfg.Calibrator.RawToCal(raw)
		if err != nil {
			s.countCalibrateDrop(err)
			continue
		}
		if s.cfg.EnergyGateEnabled && (cal.Energy < s.cfg.EnergyGateLow || cal.Energy > s.cfg.EnergyGateHigh) {
			s.info.AddDroppedEnergyGate(1)
			continue
		}
		s.info.AddAcceptedCalibrate(1)
		s.pendingCalibrated = append(s.pendingCalibrated, cal)
	}

	crossedOwnThreshold := s.cfg.SplitFiles && s.cfg.WriteRaw &&
		s.rawBytesWritten+int64(len(pulled)) > s.cfg.FileSizeMax
	if crossedOwnThreshold {
		s.control.RequestSplit()
	}
	// willSplit is driven by the controller-wide signal, not this
	// stream's own byte count: one stream crossing FileSizeMax must
	// force every sibling stream to rotate in the same round, even
	// ones that have not individually crossed their own threshold.
	willSplit := s.cfg.SplitFiles && s.control.SplitPending()

	release, retained := s.releaseCalibrated(endOfAcquisition || willSplit)
	if len(release) > 0 {
		s.calibratedStorage.TryInsert(release)
	}
	s.pendingCalibrated = retained

	s.writeOutputs(pulled, decoded, release, willSplit)
}

// releaseCalibrated near-sorts the pending calibrated events and splits
// them into what is safe to write now versus what must wait behind the
// release horizon. flushAll overrides the horizon, used at end of
// acquisition and on a file split so every split's calibrated file ends
// with a matching population of events.
func (s *PipelineStream) releaseCalibrated(flushAll bool) (release, retained []events.CalEvent) {
	if len(s.pendingCalibrated) == 0 {
		return nil, nil
	}
	if !s.cfg.SortCalibratedEvents {
		return s.pendingCalibrated, nil
	}

	uv := float32(s.cfg.Model.UVPeriodNs())
	ct := float32(s.cfg.Model.CTPeriodNs())
	sorting.InsertionSort(s.pendingCalibrated, func(a, b events.CalEvent) bool {
		return sorting.EventLessThan(a, b, uv, ct)
	})

	if flushAll {
		return s.pendingCalibrated, nil
	}

	last := s.pendingCalibrated[len(s.pendingCalibrated)-1]
	horizon := last.CoarseTimestamp - s.cfg.AssumedMaxDelayTicks
	cut := 0
	for cut < len(s.pendingCalibrated) && s.pendingCalibrated[cut].CoarseTimestamp <= horizon {
		cut++
	}
	release = s.pendingCalibrated[:cut]
	if cut < len(s.pendingCalibrated) {
		retained = append([]events.CalEvent(nil), s.pendingCalibrated[cut:]...)
	}
	return release, retained
}

func (s *PipelineStream) writeOutputs(raw []byte, decoded []events.RawEvent, calibrated []events.CalEvent, willSplit bool) {
	if !willSplit {
		s.appendRaw(raw)
		s.appendDecoded(decoded)
		s.appendCalibrated(calibrated)
		return
	}

	avail := s.cfg.FileSizeMax - s.rawBytesWritten
	if avail < 0 {
		avail = 0
	}
	if avail > int64(len(raw)) {
		avail = int64(len(raw))
	}
	s.appendRaw(raw[:avail])
	overflow := raw[avail:]

	s.barrier.ArriveAndWait(s.control.ClearSplit)
	s.splitIndex = s.barrier.Generation()
	s.closeFiles()
	if err := s.openFiles(); err != nil {
		// The file couldn't be reopened; drop this round's output
		// rather than crash the processing goroutine.
		return
	}
	s.rawBytesWritten = 0

	s.appendRaw(overflow)
	s.appendDecoded(decoded)
	s.appendCalibrated(calibrated)
}

func (s *PipelineStream) appendRaw(b []byte) {
	if !s.cfg.WriteRaw || s.rawFile == nil || len(b) == 0 {
		return
	}
	n, err := s.rawFile.Write(b)
	if err == nil {
		s.rawBytesWritten += int64(n)
		s.info.AddWrittenRawBytes(int64(n))
	}
}

func (s *PipelineStream) appendDecoded(evs []events.RawEvent) {
	if !s.cfg.WriteDecoded || s.decodedFile == nil || len(evs) == 0 {
		return
	}
	for _, e := range evs {
		if _, err := s.decodedFile.Write(e.MarshalBinary()); err == nil {
			s.info.AddWrittenDecodedEvents(1)
		}
	}
}

func (s *PipelineStream) appendCalibrated(cal []events.CalEvent) {
	if !s.cfg.WriteCalibrated || s.calibratedFile == nil || len(cal) == 0 {
		return
	}
	for _, e := range cal {
		if _, err := s.calibratedFile.Write(e.MarshalBinary()); err == nil {
			s.info.AddWrittenCalibratedEvents(1)
		}
	}
}

func (s *PipelineStream) countDecodeDrop(err error) {
	switch {
	case errors.Is(err, decode.ErrEmptyPacket):
		s.info.AddDroppedEmpty(1)
	case errors.Is(err, decode.ErrFraming):
		s.info.AddDroppedStartStop(1)
	case errors.Is(err, decode.ErrNoTrigger):
		s.info.AddDroppedTriggerCode(1)
	case errors.Is(err, decode.ErrBadPacketSize):
		s.info.AddDroppedPacketSize(1)
	case errors.Is(err, decode.ErrUnknownAddress):
		s.info.AddDroppedAddressByte(1)
	}
}

func (s *PipelineStream) countCalibrateDrop(err error) {
	switch {
	case errors.Is(err, calibrate.ErrBelowThreshold):
		s.info.AddDroppedThreshold(1)
	case errors.Is(err, calibrate.ErrDoubleTriggered):
		s.info.AddDroppedDoubleTrigger(1)
	case errors.Is(err, calibrate.ErrCrystalUnknown), errors.Is(err, calibrate.ErrBadWiring):
		s.info.AddDroppedCrystalID(1)
	case errors.Is(err, calibrate.ErrCrystalUnused):
		s.info.AddDroppedCrystalInvalid(1)
	}
}

// SetFilenames halts processing for the duration of the call, rotates
// the three base filenames, reopens all enabled output files and
// resumes. Pass an empty string to leave a given stream's filename
// unchanged.
func (s *PipelineStream) SetFilenames(raw, decoded, calibrated string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closeFiles()
	if raw != "" {
		s.rawBase = raw
	}
	if decoded != "" {
		s.decodedBase = decoded
	}
	if calibrated != "" {
		s.calibratedBase = calibrated
	}
	s.splitIndex = 0
	s.rawBytesWritten = 0
	return s.openFiles()
}
