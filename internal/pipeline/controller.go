package pipeline

import (
	"fmt"

	"github.com/dfreese/miilgo/internal/procinfo"
)

// PipelineController owns a set of PipelineStreams that share one
// Control flag block and one FileRotationBarrier, so their file splits
// stay synchronized across the whole acquisition.
type PipelineController struct {
	control *Control
	barrier *FileRotationBarrier
	streams []*PipelineStream
}

// NewController builds a controller over len(configs) streams, wiring
// them all to one shared Control and FileRotationBarrier.
func NewController(configs []StreamConfig) (*PipelineController, error) {
	control := NewControl()
	barrier := NewFileRotationBarrier(len(configs))

	streams := make([]*PipelineStream, len(configs))
	for i, cfg := range configs {
		s, err := NewStream(cfg, control, barrier)
		if err != nil {
			return nil, fmt.Errorf("pipeline: building stream %d: %w", i, err)
		}
		streams[i] = s
	}
	return &PipelineController{control: control, barrier: barrier, streams: streams}, nil
}

// Start spawns one receive and one process goroutine per stream.
func (c *PipelineController) Start() {
	c.control.Reset()
	for _, s := range c.streams {
		s.Start()
	}
}

// Stop first stops every receiver (joining receive goroutines via Wait
// semantics implicit in the process loop's own shutdown), then stops
// every processor, telling each to do one final drain. When
// endOfAcquisition is true that drain flushes every retained calibrated
// event regardless of the release horizon.
func (c *PipelineController) Stop(endOfAcquisition bool) {
	c.control.StopReceiving()
	c.control.StopProcessing(endOfAcquisition)
	for _, s := range c.streams {
		s.Wait()
	}
}

// Stream returns the idx-th stream, for direct filename rotation or
// counter inspection.
func (c *PipelineController) Stream(idx int) (*PipelineStream, error) {
	if idx < 0 || idx >= len(c.streams) {
		return nil, fmt.Errorf("pipeline: stream index %d out of range [0,%d)", idx, len(c.streams))
	}
	return c.streams[idx], nil
}

// SetRawFilename rotates one stream's raw output file.
func (c *PipelineController) SetRawFilename(idx int, path string) error {
	s, err := c.Stream(idx)
	if err != nil {
		return err
	}
	return s.SetFilenames(path, "", "")
}

// SetDecodedFilename rotates one stream's decoded output file.
func (c *PipelineController) SetDecodedFilename(idx int, path string) error {
	s, err := c.Stream(idx)
	if err != nil {
		return err
	}
	return s.SetFilenames("", path, "")
}

// SetCalibratedFilename rotates one stream's calibrated output file.
func (c *PipelineController) SetCalibratedFilename(idx int, path string) error {
	s, err := c.Stream(idx)
	if err != nil {
		return err
	}
	return s.SetFilenames("", "", path)
}

// ProcessInfo returns a snapshot of one stream's counters.
func (c *PipelineController) ProcessInfo(idx int) (procinfo.ProcessInfo, error) {
	s, err := c.Stream(idx)
	if err != nil {
		return procinfo.ProcessInfo{}, err
	}
	return s.Snapshot(), nil
}

// NumStreams reports how many streams the controller manages.
func (c *PipelineController) NumStreams() int { return len(c.streams) }
