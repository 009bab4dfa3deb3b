// Package calibrate converts pedestal-raw events into anger-logic
// calibrated events: APD selection, spatial position, energy, fine
// time and crystal identification.
package calibrate

import (
	"errors"
	"math"

	"github.com/dfreese/miilgo/internal/events"
	"github.com/dfreese/miilgo/internal/sysmodel"
)

// RawToCal errors mirror the original implementation's negative return
// codes.
var (
	ErrBelowThreshold  = errors.New("calibrate: event below hit threshold")
	ErrDoubleTriggered = errors.New("calibrate: other APD above double trigger threshold")
	ErrCrystalUnknown  = errors.New("calibrate: event out of anger-logic bounds")
	ErrCrystalUnused   = errors.New("calibrate: identified crystal marked unused")
	ErrBadWiring       = errors.New("calibrate: PCDRM to PCFM conversion failed")
)

// EventCalibrator converts RawEvents into CalEvents against one
// SystemModel's pedestals, channel settings and crystal calibration.
type EventCalibrator struct {
	Model *sysmodel.SystemModel
}

// New returns an EventCalibrator bound to model.
func New(model *sysmodel.SystemModel) EventCalibrator {
	return EventCalibrator{Model: model}
}

// RawToCal applies pedestal subtraction, APD selection, anger-logic
// position/energy, fine time and nearest-neighbor crystal
// identification to raw, returning the calibrated event.
func (c EventCalibrator) RawToCal(raw events.RawEvent) (events.CalEvent, error) {
	var cal events.CalEvent

	fin, module, err := c.Model.PCDRMToPCFM(int(raw.Panel), int(raw.Cartridge), int(raw.Daq), int(raw.Chip), int(raw.Module))
	if err != nil {
		return cal, ErrBadWiring
	}

	pedestals := c.Model.Pedestals(int(raw.Panel), int(raw.Cartridge), int(raw.Daq), int(raw.Chip), int(raw.Module))
	settings := c.Model.ModuleSettingsPCFM(int(raw.Panel), int(raw.Cartridge), fin, module)

	// Assume APD 0 unless the common-channel signal is greater on APD 1;
	// the common signals are negative-going, so "greater" here means a
	// smaller pedestal-subtracted value.
	apd := 0
	primaryCommon := int16(float32(raw.Com0h) - pedestals.Com0h)
	secondaryCommon := int16(float32(raw.Com1h) - pedestals.Com1h)
	if primaryCommon > secondaryCommon {
		apd = 1
		primaryCommon, secondaryCommon = secondaryCommon, primaryCommon
	}
	if int(primaryCommon) > settings.HitThreshold {
		return cal, ErrBelowThreshold
	}
	if int(secondaryCommon) < settings.DoubleTriggerThreshold {
		return cal, ErrDoubleTriggered
	}

	cal.CoarseTimestamp = raw.CoarseTimestamp

	a := float32(raw.A) - pedestals.A
	b := float32(raw.B) - pedestals.B
	cc := float32(raw.C) - pedestals.C
	d := float32(raw.D) - pedestals.D

	cal.SpatialTotal = a + b + cc + d
	cal.X = (cc + d - (b + a)) / cal.SpatialTotal
	cal.Y = (a + d - (b + cc)) / cal.SpatialTotal

	var u, v, uCenter, vCenter float32
	if apd == 1 {
		cal.Y *= -1
		u, v = float32(raw.U1h), float32(raw.V1h)
		uCenter, vCenter = pedestals.U1h, pedestals.V1h
	} else {
		u, v = float32(raw.U0h), float32(raw.V0h)
		uCenter, vCenter = pedestals.U0h, pedestals.V0h
	}
	uvPeriod := float32(c.Model.UVPeriodNs())
	cal.FineTime = fineCalc(u, v, uCenter, vCenter, uvPeriod)

	apdCals := c.Model.CrystalCalibrations(int(raw.Panel), int(raw.Cartridge), fin, module, apd)
	crystal := getCrystalID(cal.X, cal.Y, apdCals)
	if crystal < 0 {
		return cal, ErrCrystalUnknown
	}
	crystalCal := apdCals[crystal]
	if !crystalCal.Use {
		return cal, ErrCrystalUnused
	}

	cal.Panel = raw.Panel
	cal.Cartridge = raw.Cartridge
	cal.Fin = int8(fin)
	cal.Module = int8(module)
	cal.Apd = int8(apd)
	cal.Crystal = int8(crystal)
	cal.Daq = raw.Daq
	cal.Chip = raw.Chip

	cal.Energy = cal.SpatialTotal / crystalCal.GainSpat * 511

	// The sign convention here is inverted from the cal_offset
	// programs: both panels subtract time_offset, rather than one
	// panel adding it.
	cal.FineTime -= crystalCal.TimeOffset
	cal.FineTime -= (cal.Energy - 511.0) * crystalCal.TimeOffsetEdep
	for cal.FineTime < 0 {
		cal.FineTime += uvPeriod
	}
	for cal.FineTime >= uvPeriod {
		cal.FineTime -= uvPeriod
	}

	return cal, nil
}

// fineCalc derives the fine timestamp from the UV timing circle by
// subtracting the circle center and taking the arc tangent, normalized
// onto [0, uvPeriodNs).
func fineCalc(u, v, uCenter, vCenter, uvPeriodNs float32) float32 {
	tmp := math.Atan2(float64(u-uCenter), float64(v-vCenter))
	if tmp < 0 {
		tmp += 2 * math.Pi
	}
	tmp /= 2 * math.Pi
	tmp *= float64(uvPeriodNs)
	return float32(tmp)
}

// getCrystalID assigns a crystal by nearest neighbor in the anger-logic
// (x, y) flood plane, returning -1 if x or y is out of the [-1, 1]
// bounds anger logic can produce.
func getCrystalID(x, y float32, apdCals []sysmodel.CrystalCalibration) int {
	if math.Abs(float64(x)) > 1 || math.Abs(float64(y)) > 1 {
		return -1
	}
	crystalID := -1
	min := math.MaxFloat64
	for crystal, cc := range apdCals {
		dx := float64(cc.XLoc - x)
		dy := float64(cc.YLoc - y)
		dist := dx*dx + dy*dy
		if dist < min {
			crystalID = crystal
			min = dist
		}
	}
	return crystalID
}
