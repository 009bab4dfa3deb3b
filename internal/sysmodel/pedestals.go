package sysmodel

import (
	"bufio"
	"fmt"
	"os"
)

// LoadPedestals reads a pedestal baseline file and populates the
// PCDRM-indexed pedestal table. Each line is an id string of the form
// "P%dC%dR%dM%d" (panel, cartridge, chip, module) followed by an event
// count and eight (value, rms) pairs for a, b, c, d, com1, com1h, com2,
// com2h in that order. rms values are read and discarded; only the
// pedestal value itself is kept. The chip number packs daq and rena as
// chip = daq*renas_per_daq + rena.
func (m *SystemModel) LoadPedestals(path string) error {
	t := m.Topology
	m.pedestals = make([]ModulePedestals, t.Panels*t.CartridgesPerPanel*t.DaqsPerCartridge*t.RenasPerDaq*t.ModulesPerRena)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("sysmodel: opening pedestal file %q: %w", path, err)
	}
	defer f.Close()

	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines++
		var idString string
		var events int
		var panel, cartridge, chip, module int
		fields := splitFields(scanner.Text())
		if len(fields) < 2 {
			return fmt.Errorf("%w: pedestal line %d has too few fields", ErrBadColumn, lines)
		}
		idString = fields[0]
		if _, err := fmt.Sscanf(idString, "P%dC%dR%dM%d", &panel, &cartridge, &chip, &module); err != nil {
			return fmt.Errorf("%w: pedestal line %d id %q: %v", ErrBadColumn, lines, idString, err)
		}
		if err := scanInt(fields[1], &events); err != nil {
			return fmt.Errorf("%w: pedestal line %d event count: %v", ErrBadColumn, lines, err)
		}

		rena := chip % t.RenasPerDaq
		daq := (chip - rena) / t.RenasPerDaq

		if rena < 0 || rena >= t.RenasPerDaq ||
			daq < 0 || daq >= t.DaqsPerCartridge ||
			module < 0 || module >= t.ModulesPerRena ||
			cartridge < 0 || cartridge >= t.CartridgesPerPanel ||
			panel < 0 || panel >= t.Panels {
			return fmt.Errorf("%w: pedestal line %d id %q out of topology range", ErrBadColumn, lines, idString)
		}

		if len(fields) < 2+16 {
			return fmt.Errorf("%w: pedestal line %d missing value/rms columns", ErrBadColumn, lines)
		}

		var values [8]float32
		for i := 0; i < 8; i++ {
			if err := scanFloat(fields[2+2*i], &values[i]); err != nil {
				return fmt.Errorf("%w: pedestal line %d channel %d value: %v", ErrBadColumn, lines, i, err)
			}
			var rms float32
			if err := scanFloat(fields[2+2*i+1], &rms); err != nil {
				return fmt.Errorf("%w: pedestal line %d channel %d rms: %v", ErrBadColumn, lines, i, err)
			}
		}

		p := &m.pedestals[t.PCDRMIndex(panel, cartridge, daq, rena, module)]
		p.A, p.B, p.C, p.D = values[0], values[1], values[2], values[3]
		p.Com0, p.Com0h, p.Com1, p.Com1h = values[4], values[5], values[6], values[7]
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("sysmodel: reading pedestal file %q: %w", path, err)
	}

	expected := t.Panels * t.CartridgesPerPanel * t.DaqsPerCartridge * t.RenasPerDaq * t.ModulesPerRena
	if lines != expected {
		return fmt.Errorf("%w: pedestal file had %d lines, topology wants %d", ErrLineCountMismatch, lines, expected)
	}
	m.pedestalsLoaded = true
	return nil
}

// LoadUVCenters reads a UV-circle-center file and populates the high-gain
// u/v center fields of the PCDRM-indexed pedestal table. Each line holds
// a bare (u, v) pair; lines are swept in panel, cartridge, fin, module,
// apd order and resolved to PCDRM space via PCFMToPCDRM.
func (m *SystemModel) LoadUVCenters(path string) error {
	t := m.Topology
	if m.pedestals == nil {
		m.pedestals = make([]ModulePedestals, t.Panels*t.CartridgesPerPanel*t.DaqsPerCartridge*t.RenasPerDaq*t.ModulesPerRena)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("sysmodel: opening uv-centers file %q: %w", path, err)
	}
	defer f.Close()

	var us, vs []float32
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := splitFields(scanner.Text())
		if len(fields) < 2 {
			return fmt.Errorf("%w: uv-centers line %d has too few fields", ErrBadColumn, len(us)+1)
		}
		var u, v float32
		if err := scanFloat(fields[0], &u); err != nil {
			return fmt.Errorf("%w: uv-centers line %d u value: %v", ErrBadColumn, len(us)+1, err)
		}
		if err := scanFloat(fields[1], &v); err != nil {
			return fmt.Errorf("%w: uv-centers line %d v value: %v", ErrBadColumn, len(us)+1, err)
		}
		us = append(us, u)
		vs = append(vs, v)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("sysmodel: reading uv-centers file %q: %w", path, err)
	}

	expected := t.Panels * t.CartridgesPerPanel * t.FinsPerCartridge * t.ModulesPerFin * t.ApdsPerModule
	if len(us) != expected || len(vs) != expected {
		return fmt.Errorf("%w: uv-centers file had %d lines, topology wants %d", ErrLineCountMismatch, len(us), expected)
	}

	readIdx := 0
	for p := 0; p < t.Panels; p++ {
		for c := 0; c < t.CartridgesPerPanel; c++ {
			for fin := 0; fin < t.FinsPerCartridge; fin++ {
				for mod := 0; mod < t.ModulesPerFin; mod++ {
					daq, rena, renaModule, err := t.PCFMToPCDRM(p, c, fin, mod)
					if err != nil {
						return fmt.Errorf("sysmodel: uv-centers PCFMToPCDRM(%d,%d,%d,%d): %w", p, c, fin, mod, err)
					}
					pe := &m.pedestals[t.PCDRMIndex(p, c, daq, rena, renaModule)]
					for a := 0; a < t.ApdsPerModule; a++ {
						switch a {
						case 0:
							pe.U0h, pe.V0h = us[readIdx], vs[readIdx]
						case 1:
							pe.U1h, pe.V1h = us[readIdx], vs[readIdx]
						}
						readIdx++
					}
				}
			}
		}
	}
	m.uvCentersLoaded = true
	return nil
}

// LoadCalibration reads a crystal calibration file and populates the
// PCFMAC-indexed calibration table. Each line holds seven columns: a
// use flag, x location, y location, spatial photopeak gain, common
// photopeak gain, spatial energy resolution and common energy
// resolution, swept in panel, cartridge, fin, module, apd, crystal
// order.
func (m *SystemModel) LoadCalibration(path string) error {
	t := m.Topology
	expected := t.Panels * t.CartridgesPerPanel * t.FinsPerCartridge * t.ModulesPerFin * t.ApdsPerModule * t.CrystalsPerApd
	if m.calibration == nil {
		m.calibration = make([]CrystalCalibration, expected)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("sysmodel: opening calibration file %q: %w", path, err)
	}
	defer f.Close()

	use := make([]bool, 0, expected)
	x := make([]float32, 0, expected)
	y := make([]float32, 0, expected)
	gainSpat := make([]float32, 0, expected)
	gainComm := make([]float32, 0, expected)
	eresSpat := make([]float32, 0, expected)
	eresComm := make([]float32, 0, expected)

	scanner := bufio.NewScanner(f)
	lines := 0
	for scanner.Scan() {
		if lines >= expected {
			return fmt.Errorf("%w: calibration file has more than %d lines", ErrLineCountMismatch, expected)
		}
		fields := splitFields(scanner.Text())
		if len(fields) < 7 {
			return fmt.Errorf("%w: calibration line %d has too few fields", ErrBadColumn, lines+1)
		}
		var useVal bool
		if err := scanBool(fields[0], &useVal); err != nil {
			return fmt.Errorf("%w: calibration line %d use flag: %v", ErrBadColumn, lines+1, err)
		}
		var xv, yv, gs, gc, es, ec float32
		if err := scanFloat(fields[1], &xv); err != nil {
			return fmt.Errorf("%w: calibration line %d x location: %v", ErrBadColumn, lines+1, err)
		}
		if err := scanFloat(fields[2], &yv); err != nil {
			return fmt.Errorf("%w: calibration line %d y location: %v", ErrBadColumn, lines+1, err)
		}
		if err := scanFloat(fields[3], &gs); err != nil {
			return fmt.Errorf("%w: calibration line %d spatial gain: %v", ErrBadColumn, lines+1, err)
		}
		if err := scanFloat(fields[4], &gc); err != nil {
			return fmt.Errorf("%w: calibration line %d common gain: %v", ErrBadColumn, lines+1, err)
		}
		if err := scanFloat(fields[5], &es); err != nil {
			return fmt.Errorf("%w: calibration line %d spatial eres: %v", ErrBadColumn, lines+1, err)
		}
		if err := scanFloat(fields[6], &ec); err != nil {
			return fmt.Errorf("%w: calibration line %d common eres: %v", ErrBadColumn, lines+1, err)
		}
		use = append(use, useVal)
		x = append(x, xv)
		y = append(y, yv)
		gainSpat = append(gainSpat, gs)
		gainComm = append(gainComm, gc)
		eresSpat = append(eresSpat, es)
		eresComm = append(eresComm, ec)
		lines++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("sysmodel: reading calibration file %q: %w", path, err)
	}
	if lines != expected {
		return fmt.Errorf("%w: calibration file had %d lines, topology wants %d", ErrLineCountMismatch, lines, expected)
	}

	readIdx := 0
	for p := 0; p < t.Panels; p++ {
		for c := 0; c < t.CartridgesPerPanel; c++ {
			for fin := 0; fin < t.FinsPerCartridge; fin++ {
				for mod := 0; mod < t.ModulesPerFin; mod++ {
					for a := 0; a < t.ApdsPerModule; a++ {
						for x2 := 0; x2 < t.CrystalsPerApd; x2++ {
							idx := t.PCFMACIndex(p, c, fin, mod, a, x2)
							cal := &m.calibration[idx]
							cal.Use = use[readIdx]
							cal.GainSpat = gainSpat[readIdx]
							cal.GainComm = gainComm[readIdx]
							cal.EresSpat = eresSpat[readIdx]
							cal.EresComm = eresComm[readIdx]
							cal.XLoc = x[readIdx]
							cal.YLoc = y[readIdx]
							readIdx++
						}
					}
				}
			}
		}
	}
	m.calibrationLoaded = true
	return nil
}

// LoadTimeCalibration reads a per-crystal time offset file, one float
// value per line with an optional second float column, in the same
// panel, cartridge, fin, module, apd, crystal sweep order as
// LoadCalibration, and sets each crystal calibration record's
// TimeOffset from the first column and TimeOffsetEdep from the second
// (0 on lines without one).
func (m *SystemModel) LoadTimeCalibration(path string) error {
	t := m.Topology
	expected := t.Panels * t.CartridgesPerPanel * t.FinsPerCartridge * t.ModulesPerFin * t.ApdsPerModule * t.CrystalsPerApd
	if m.calibration == nil {
		m.calibration = make([]CrystalCalibration, expected)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("sysmodel: opening time calibration file %q: %w", path, err)
	}
	defer f.Close()

	offsets := make([]float32, 0, expected)
	edeps := make([]float32, 0, expected)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if len(offsets) >= expected {
			return fmt.Errorf("%w: time calibration file has more than %d lines", ErrLineCountMismatch, expected)
		}
		fields := splitFields(scanner.Text())
		if len(fields) < 1 {
			return fmt.Errorf("%w: time calibration line %d has no value", ErrBadColumn, len(offsets)+1)
		}
		var v float32
		if err := scanFloat(fields[0], &v); err != nil {
			return fmt.Errorf("%w: time calibration line %d: %v", ErrBadColumn, len(offsets)+1, err)
		}
		var edep float32
		if len(fields) > 1 {
			if err := scanFloat(fields[1], &edep); err != nil {
				return fmt.Errorf("%w: time calibration line %d edep column: %v", ErrBadColumn, len(offsets)+1, err)
			}
		}
		offsets = append(offsets, v)
		edeps = append(edeps, edep)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("sysmodel: reading time calibration file %q: %w", path, err)
	}
	if len(offsets) != expected {
		return fmt.Errorf("%w: time calibration file had %d lines, topology wants %d", ErrLineCountMismatch, len(offsets), expected)
	}

	readIdx := 0
	for p := 0; p < t.Panels; p++ {
		for c := 0; c < t.CartridgesPerPanel; c++ {
			for fin := 0; fin < t.FinsPerCartridge; fin++ {
				for mod := 0; mod < t.ModulesPerFin; mod++ {
					for a := 0; a < t.ApdsPerModule; a++ {
						for x2 := 0; x2 < t.CrystalsPerApd; x2++ {
							idx := t.PCFMACIndex(p, c, fin, mod, a, x2)
							m.calibration[idx].TimeOffset = offsets[readIdx]
							m.calibration[idx].TimeOffsetEdep = edeps[readIdx]
							readIdx++
						}
					}
				}
			}
		}
	}
	m.timeCalibrationLoaded = true
	return nil
}
