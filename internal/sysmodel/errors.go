package sysmodel

import "errors"

// ErrInvalidTopology is returned by Load when the configured topology sizes
// disagree with each other (daqs*renas*modules_per_rena differs from
// fins*modules_per_fin, or channels_per_rena is not 8*modules_per_rena+4),
// or a configured daqboard_id falls outside [0, 32). Load does not run
// the PCDRM<->PCFM round trip over every address.
var ErrInvalidTopology = errors.New("sysmodel: INVALID_TOPOLOGY")

// ErrBadColumn is returned by the pedestal/calibration text-file loaders
// when a column cannot be parsed as the expected numeric type.
var ErrBadColumn = errors.New("sysmodel: bad column value")

// ErrLineCountMismatch is returned when a pedestal/calibration text file's
// line count does not match the topology's expected Cartesian product.
var ErrLineCountMismatch = errors.New("sysmodel: line count does not match topology")
