package sysmodel

// ModulePedestals holds the zero-signal baselines for one module's twelve
// readout channels: the four spatial corners, the low- and high-gain
// common channels for both APDs, and the high-gain uv-circle centers
// used for fine-time calculation.
type ModulePedestals struct {
	A, B, C, D     float32
	Com0, Com1     float32
	Com0h, Com1h   float32
	U0h, V0h       float32
	U1h, V1h       float32
}

// CrystalCalibration is the per-crystal calibration record used to
// convert an anger-logic position into an energy and a crystal ID, and
// to correct the fine timestamp.
type CrystalCalibration struct {
	Use           bool
	GainSpat      float32
	GainComm      float32
	EresSpat      float32
	EresComm      float32
	XLoc          float32
	YLoc          float32
	TimeOffset    float32
	// TimeOffsetEdep is an energy-dependent time correction carried by
	// some calibration files but never documented in the system's JSON
	// header; it is optional and defaults to zero when not present.
	TimeOffsetEdep float32
}
