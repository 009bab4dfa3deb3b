// Package sysmodel loads and precomputes the immutable topology and
// per-channel calibration tables that drive packet decoding and event
// calibration: the SystemModel described in the design as the leaf
// dependency every other pipeline component reads concurrently without
// locking, because once Load and the optional LoadPedestals,
// LoadCalibration, LoadTimeCalibration and LoadUVCenters calls are done
// it is never mutated again.
package sysmodel

import "fmt"

const backendAddressSlots = 32

type backendEntry struct {
	Panel, Cartridge int
	Valid            bool
}

// SystemModel is the fully-loaded, immutable topology, wiring and
// calibration state for one detector. All lookup methods are safe to
// call concurrently from any number of goroutines once loading is done;
// after Load, only the LoadPedestals, LoadCalibration,
// LoadTimeCalibration and LoadUVCenters methods mutate a SystemModel.
type SystemModel struct {
	Topology Topology

	backendAddressTable [backendAddressSlots]backendEntry

	cartridgeConfig []CartridgeConfig    // PC index
	finConfig       []FinConfig          // PCF index
	moduleConfig    []ModuleConfig       // PCFM index

	pedestals   []ModulePedestals     // PCDRM index
	calibration []CrystalCalibration  // PCFMAC index

	packetSize   []int
	adcLocation  []AdcLocationTable
	channelMap   []ChannelRef

	uvPeriodNs float64
	ctPeriodNs float64

	pedestalsLoaded        bool
	uvCentersLoaded        bool
	calibrationLoaded      bool
	timeCalibrationLoaded  bool
}

// Load reads the JSON configuration tree at configPath, resolves the
// inside-out channel_settings inheritance (module overrides fin
// overrides cartridge overrides panel overrides system default), and
// precomputes the backend address table, packet-size table, ADC
// location table and channel map. Pedestal and calibration files are
// loaded separately with LoadPedestals/LoadUVCenters/LoadCalibration/
// LoadTimeCalibration once Load has succeeded.
func Load(configPath string) (*SystemModel, error) {
	cf, err := parseConfigFile(configPath)
	if err != nil {
		return nil, err
	}

	topo := cf.Topology.toTopology()
	if err := topo.Validate(); err != nil {
		return nil, err
	}

	uvPeriodNs, ctPeriodNs := cf.Timing.resolve()
	m := &SystemModel{Topology: topo, uvPeriodNs: uvPeriodNs, ctPeriodNs: ctPeriodNs}
	if err := m.resolveTree(cf); err != nil {
		return nil, err
	}
	if err := m.buildBackendAddressTable(); err != nil {
		return nil, err
	}

	packetSize, adcLocation, err := buildAdcLocationAndPacketSize(topo, m.moduleSettings)
	if err != nil {
		return nil, err
	}
	m.packetSize = packetSize
	m.adcLocation = adcLocation

	channelMap, err := buildChannelMap(topo, func(p, c, d, r, rm int) (int, int, error) {
		fin, mod, err := topo.PCDRMToPCFM(p, c, d, r, rm)
		return fin, mod, err
	})
	if err != nil {
		return nil, err
	}
	m.channelMap = channelMap

	m.pedestals = make([]ModulePedestals, topo.Panels*topo.CartridgesPerPanel*topo.DaqsPerCartridge*topo.RenasPerDaq*topo.ModulesPerRena)
	m.calibration = make([]CrystalCalibration, topo.Panels*topo.CartridgesPerPanel*topo.FinsPerCartridge*topo.ModulesPerFin*topo.ApdsPerModule*topo.CrystalsPerApd)

	return m, nil
}

func (m *SystemModel) moduleSettings(panel, cartridge, daq, rena, renaModule int) (ModuleChannelConfig, error) {
	fin, module, err := m.Topology.PCDRMToPCFM(panel, cartridge, daq, rena, renaModule)
	if err != nil {
		return ModuleChannelConfig{}, err
	}
	idx := m.Topology.PCFMIndex(panel, cartridge, fin, module)
	return m.moduleConfig[idx].ChannelSettings, nil
}

func (m *SystemModel) buildBackendAddressTable() error {
	t := m.Topology
	for p := 0; p < t.Panels; p++ {
		for c := 0; c < t.CartridgesPerPanel; c++ {
			cfg := m.cartridgeConfig[p*t.CartridgesPerPanel+c]
			id := cfg.BackendBoard.DaqboardID
			if id < 0 || id >= backendAddressSlots {
				return fmt.Errorf("%w: daqboard_id %d out of [0,%d) for panel %d cartridge %d",
					ErrInvalidTopology, id, backendAddressSlots, p, c)
			}
			m.backendAddressTable[id] = backendEntry{Panel: p, Cartridge: c, Valid: true}
		}
	}
	return nil
}

// LookupPanelCartridge resolves a packet's 5-bit backend address byte to
// the (panel, cartridge) that sent it.
func (m *SystemModel) LookupPanelCartridge(backendAddress int) (panel, cartridge int, err error) {
	if backendAddress < 0 || backendAddress >= backendAddressSlots {
		return 0, 0, fmt.Errorf("sysmodel: backend address %d out of range", backendAddress)
	}
	e := m.backendAddressTable[backendAddress]
	if !e.Valid {
		return 0, 0, fmt.Errorf("sysmodel: backend address %d not configured", backendAddress)
	}
	return e.Panel, e.Cartridge, nil
}

// PCDRMToPCFM converts hardware-wiring indexing into physical indexing.
func (m *SystemModel) PCDRMToPCFM(panel, cartridge, daq, rena, renaModule int) (fin, module int, err error) {
	return m.Topology.PCDRMToPCFM(panel, cartridge, daq, rena, renaModule)
}

// PCFMToPCDRM is the inverse of PCDRMToPCFM.
func (m *SystemModel) PCFMToPCDRM(panel, cartridge, fin, module int) (daq, rena, renaModule int, err error) {
	return m.Topology.PCFMToPCDRM(panel, cartridge, fin, module)
}

// PacketSize returns the exact byte count a valid packet with this
// header must have.
func (m *SystemModel) PacketSize(panel, cartridge, daq, rena, triggerCode int) int {
	return m.packetSize[m.Topology.TriggerIndex(panel, cartridge, daq, rena, triggerCode)]
}

// ADCLocations returns the per-module ADC slot layout for one
// (panel, cartridge, daq, rena, triggerCode) combination.
func (m *SystemModel) ADCLocations(panel, cartridge, daq, rena, triggerCode int) []AdcLocationTable {
	base := m.Topology.TriggerIndex(panel, cartridge, daq, rena, triggerCode) * m.Topology.ModulesPerRena
	return m.adcLocation[base : base+m.Topology.ModulesPerRena]
}

// NotReadSentinel is the ADC slot index a channel resolves to when it
// was not read out in a given trigger code.
func (m *SystemModel) NotReadSentinel() int {
	return notReadSentinel(m.Topology)
}

// Pedestals returns the pedestal baselines for one module, addressed in
// PCDRM space.
func (m *SystemModel) Pedestals(panel, cartridge, daq, rena, module int) ModulePedestals {
	return m.pedestals[m.Topology.PCDRMIndex(panel, cartridge, daq, rena, module)]
}

// ModuleSettings returns the fully-resolved channel settings for a
// module addressed in PCDRM space.
func (m *SystemModel) ModuleSettings(panel, cartridge, daq, rena, renaModule int) (ModuleChannelConfig, error) {
	return m.moduleSettings(panel, cartridge, daq, rena, renaModule)
}

// ModuleSettingsPCFM returns the fully-resolved channel settings for a
// module addressed in PCFM space.
func (m *SystemModel) ModuleSettingsPCFM(panel, cartridge, fin, module int) ModuleChannelConfig {
	idx := m.Topology.PCFMIndex(panel, cartridge, fin, module)
	return m.moduleConfig[idx].ChannelSettings
}

// Calibration returns the crystal calibration record for one crystal on
// one APD of one module.
func (m *SystemModel) Calibration(panel, cartridge, fin, module, apd, crystal int) CrystalCalibration {
	idx := m.Topology.PCFMACIndex(panel, cartridge, fin, module, apd, crystal)
	return m.calibration[idx]
}

// CrystalCalibrations returns the full set of CrystalsPerApd calibration
// records for one (panel, cartridge, fin, module, apd).
func (m *SystemModel) CrystalCalibrations(panel, cartridge, fin, module, apd int) []CrystalCalibration {
	start := m.Topology.PCFMACIndex(panel, cartridge, fin, module, apd, 0)
	return m.calibration[start : start+m.Topology.CrystalsPerApd]
}

// ChannelMap returns the static wiring reference for one physical Rena
// channel.
func (m *SystemModel) ChannelMap(panel, cartridge, daq, rena, channel int) ChannelRef {
	idx := m.Topology.PCDRIndex(panel, cartridge, daq, rena)*m.Topology.ChannelsPerRena + channel
	return m.channelMap[idx]
}

// UVPeriodNs is the period, in nanoseconds, of the UV timing circle
// fine time is computed against.
func (m *SystemModel) UVPeriodNs() float64 { return m.uvPeriodNs }

// CTPeriodNs is the duration, in nanoseconds, of one coarse timestamp
// tick.
func (m *SystemModel) CTPeriodNs() float64 { return m.ctPeriodNs }

func (m *SystemModel) PedestalsLoaded() bool       { return m.pedestalsLoaded }
func (m *SystemModel) UVCentersLoaded() bool       { return m.uvCentersLoaded }
func (m *SystemModel) CalibrationLoaded() bool     { return m.calibrationLoaded }
func (m *SystemModel) TimeCalibrationLoaded() bool { return m.timeCalibrationLoaded }
