package sysmodel

import "fmt"

// Topology carries the Cartesian sizes that bound every index used
// throughout decoding and calibration. All other per-level tables are
// flat slices sized from these counts and addressed through the stride
// helpers below, rather than nested slices-of-slices -- a deeply nested
// array is how the original C++ source represents PCDRM/PCFM/PCFMAC, and
// it is replaced here with a single flat allocation per table plus a
// linear index function, which keeps the tables cache-local and removes
// the cascaded nil-slice failure modes a six-deep nested slice invites.
type Topology struct {
	Panels             int
	CartridgesPerPanel int
	DaqsPerCartridge   int
	RenasPerDaq        int
	ModulesPerRena     int
	FinsPerCartridge   int
	ModulesPerFin      int
	ApdsPerModule      int
	CrystalsPerApd     int
	ChannelsPerRena    int
}

// DefaultTopology returns the topology sizes a standard two-panel system
// uses, as documented in spec: apd=2, crystal=64, chip-channels=36.
func DefaultTopology() Topology {
	return Topology{
		Panels:             2,
		CartridgesPerPanel: 1,
		DaqsPerCartridge:   4,
		RenasPerDaq:        8,
		ModulesPerRena:     4,
		FinsPerCartridge:   8,
		ModulesPerFin:      16,
		ApdsPerModule:      2,
		CrystalsPerApd:     64,
		ChannelsPerRena:    36,
	}
}

// Validate checks that the topology sizes are internally consistent: a
// daq/rena/module enumeration of a cartridge must cover exactly the same
// number of modules as a fin/module enumeration does.
func (t Topology) Validate() error {
	modulesByDRM := t.DaqsPerCartridge * t.RenasPerDaq * t.ModulesPerRena
	modulesByFM := t.FinsPerCartridge * t.ModulesPerFin
	if modulesByDRM != modulesByFM {
		return fmt.Errorf("%w: daq*rena*module(%d) != fin*module(%d)",
			ErrInvalidTopology, modulesByDRM, modulesByFM)
	}
	if t.ChannelsPerRena != 8*t.ModulesPerRena+4 {
		return fmt.Errorf("%w: channels_per_rena(%d) != 8*modules_per_rena+4",
			ErrInvalidTopology, t.ChannelsPerRena)
	}
	return nil
}

// PCDRMIndex returns the linear offset of (panel, cartridge, daq, rena,
// module) within a flat table sized Panels*CartridgesPerPanel*
// DaqsPerCartridge*RenasPerDaq*ModulesPerRena.
func (t Topology) PCDRMIndex(panel, cartridge, daq, rena, module int) int {
	idx := panel
	idx = idx*t.CartridgesPerPanel + cartridge
	idx = idx*t.DaqsPerCartridge + daq
	idx = idx*t.RenasPerDaq + rena
	idx = idx*t.ModulesPerRena + module
	return idx
}

// PCDRIndex returns the linear offset of (panel, cartridge, daq, rena)
// within a flat table, used by the packet_size and adc_location tables
// which are additionally indexed by trigger code.
func (t Topology) PCDRIndex(panel, cartridge, daq, rena int) int {
	idx := panel
	idx = idx*t.CartridgesPerPanel + cartridge
	idx = idx*t.DaqsPerCartridge + daq
	idx = idx*t.RenasPerDaq + rena
	return idx
}

// PCFMIndex returns the linear offset of (panel, cartridge, fin, module)
// within a flat table sized Panels*CartridgesPerPanel*FinsPerCartridge*
// ModulesPerFin.
func (t Topology) PCFMIndex(panel, cartridge, fin, module int) int {
	idx := panel
	idx = idx*t.CartridgesPerPanel + cartridge
	idx = idx*t.FinsPerCartridge + fin
	idx = idx*t.ModulesPerFin + module
	return idx
}

// PCFMACIndex returns the linear offset of (panel, cartridge, fin,
// module, apd, crystal) within the per-crystal calibration table.
func (t Topology) PCFMACIndex(panel, cartridge, fin, module, apd, crystal int) int {
	idx := t.PCFMIndex(panel, cartridge, fin, module)
	idx = idx*t.ApdsPerModule + apd
	idx = idx*t.CrystalsPerApd + crystal
	return idx
}

const triggerCodes = 16

// TriggerIndex returns the linear offset of (panel, cartridge, daq, rena,
// triggerCode) within the packet_size table.
func (t Topology) TriggerIndex(panel, cartridge, daq, rena, trigger int) int {
	return t.PCDRIndex(panel, cartridge, daq, rena)*triggerCodes + trigger
}

func (t Topology) validPanel(p int) bool     { return p >= 0 && p < t.Panels }
func (t Topology) validCartridge(c int) bool { return c >= 0 && c < t.CartridgesPerPanel }
func (t Topology) validDaq(d int) bool       { return d >= 0 && d < t.DaqsPerCartridge }
func (t Topology) validRena(r int) bool      { return r >= 0 && r < t.RenasPerDaq }
func (t Topology) validRenaModule(m int) bool {
	return m >= 0 && m < t.ModulesPerRena
}
func (t Topology) validFin(f int) bool      { return f >= 0 && f < t.FinsPerCartridge }
func (t Topology) validFinModule(m int) bool { return m >= 0 && m < t.ModulesPerFin }

// PCDRMToPCFM converts hardware-wiring indexing (panel, cartridge, daq,
// rena, module-local-to-rena) into physical indexing (panel, cartridge,
// fin, module-local-to-fin). The formula is the hardwired cabling of the
// detector crate and must not be "simplified" -- it is asymmetric between
// panel 0 and panel 1 because the two panels are built as mirror images
// of each other.
func (t Topology) PCDRMToPCFM(panel, cartridge, daq, rena, renaModule int) (fin, module int, err error) {
	switch {
	case !t.validPanel(panel):
		return 0, 0, fmt.Errorf("%w: panel %d", ErrInvalidTopology, panel)
	case !t.validCartridge(cartridge):
		return 0, 0, fmt.Errorf("%w: cartridge %d", ErrInvalidTopology, cartridge)
	case !t.validDaq(daq):
		return 0, 0, fmt.Errorf("%w: daq %d", ErrInvalidTopology, daq)
	case !t.validRena(rena):
		return 0, 0, fmt.Errorf("%w: rena %d", ErrInvalidTopology, rena)
	case !t.validRenaModule(renaModule):
		return 0, 0, fmt.Errorf("%w: rena module %d", ErrInvalidTopology, renaModule)
	}

	fin = t.FinsPerCartridge - 1 - 2*(rena/2)
	module = renaModule
	if rena%2 != 0 {
		module += t.ModulesPerRena
	}
	if daq%2 != 0 {
		module += t.ModulesPerFin / 2
	}

	switch panel {
	case 0:
		if daq < 2 && t.RenasPerDaq > 2 {
			fin--
		}
	case 1:
		if daq >= 2 && t.RenasPerDaq > 2 {
			fin--
		}
		module = t.ModulesPerFin - 1 - module
	}
	return fin, module, nil
}

// PCFMToPCDRM is the inverse of PCDRMToPCFM.
func (t Topology) PCFMToPCDRM(panel, cartridge, fin, module int) (daq, rena, renaModule int, err error) {
	switch {
	case !t.validPanel(panel):
		return 0, 0, 0, fmt.Errorf("%w: panel %d", ErrInvalidTopology, panel)
	case !t.validCartridge(cartridge):
		return 0, 0, 0, fmt.Errorf("%w: cartridge %d", ErrInvalidTopology, cartridge)
	case !t.validFin(fin):
		return 0, 0, 0, fmt.Errorf("%w: fin %d", ErrInvalidTopology, fin)
	case !t.validFinModule(module):
		return 0, 0, 0, fmt.Errorf("%w: module %d", ErrInvalidTopology, module)
	}

	rena = 2 * ((t.FinsPerCartridge - 1 - fin) / 2)
	daq = 0
	switch panel {
	case 0:
		if fin%2 != 0 && t.RenasPerDaq > 2 {
			daq += 2
		}
		if module >= t.ModulesPerFin/2 {
			daq++
		}
		if module%(t.ModulesPerFin/2) >= t.ModulesPerRena {
			rena++
		}
		renaModule = module % t.ModulesPerRena
	case 1:
		if fin%2 == 0 && t.RenasPerDaq > 2 {
			daq += 2
		}
		if module < t.ModulesPerFin/2 {
			daq++
		}
		if module%(t.ModulesPerFin/2) < t.ModulesPerRena {
			rena++
		}
		renaModule = t.ModulesPerRena - 1 - (module % t.ModulesPerRena)
	}
	return daq, rena, renaModule, nil
}
