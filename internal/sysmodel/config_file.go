package sysmodel

import (
	"encoding/json"
	"fmt"
	"os"
)

// configFile mirrors the JSON-like configuration tree described in the
// wire-format section: topology sizes at the root, then an
// inside-out-resolved channel_settings override at every level from
// system default down to an individual module. The syntax grammar for
// this file is explicitly out of scope; this is the thinnest schema that
// SystemModel.Load can compile against.
type configFile struct {
	Topology        topologyJSON            `json:"topology"`
	Timing          *timingJSON             `json:"timing,omitempty"`
	ChannelSettings *channelConfigOverride   `json:"channel_settings,omitempty"`
	Panels          []panelJSON              `json:"panels"`
}

// timingJSON carries the two clock constants the original system
// configuration stored as plain float members rather than anything
// derived from the topology: the period of the UV timing oscillator
// that fine time is phase-locked to, and the duration in nanoseconds of
// one coarse timestamp tick. Neither value is documented anywhere in
// the wire-format schema the spec distills, so a config file that omits
// "timing" gets the values observed in the reference electronics.
type timingJSON struct {
	UVPeriodNs float64 `json:"uv_period_ns"`
	CTPeriodNs float64 `json:"ct_period_ns"`
}

const (
	defaultUVPeriodNs = 167.0
	defaultCTPeriodNs = 10.0
)

func (t *timingJSON) resolve() (uvPeriodNs, ctPeriodNs float64) {
	if t == nil {
		return defaultUVPeriodNs, defaultCTPeriodNs
	}
	uvPeriodNs, ctPeriodNs = t.UVPeriodNs, t.CTPeriodNs
	if uvPeriodNs == 0 {
		uvPeriodNs = defaultUVPeriodNs
	}
	if ctPeriodNs == 0 {
		ctPeriodNs = defaultCTPeriodNs
	}
	return uvPeriodNs, ctPeriodNs
}

type topologyJSON struct {
	Panels             int `json:"panels"`
	CartridgesPerPanel int `json:"cartridges_per_panel"`
	DaqsPerCartridge   int `json:"daqs_per_cartridge"`
	RenasPerDaq        int `json:"renas_per_daq"`
	ModulesPerRena     int `json:"modules_per_rena"`
	FinsPerCartridge   int `json:"fins_per_cartridge"`
	ModulesPerFin      int `json:"modules_per_fin"`
	ApdsPerModule      int `json:"apds_per_module"`
	CrystalsPerApd     int `json:"crystals_per_apd"`
	ChannelsPerRena    int `json:"channels_per_rena"`
}

func (t topologyJSON) toTopology() Topology {
	return Topology{
		Panels:             t.Panels,
		CartridgesPerPanel: t.CartridgesPerPanel,
		DaqsPerCartridge:   t.DaqsPerCartridge,
		RenasPerDaq:        t.RenasPerDaq,
		ModulesPerRena:     t.ModulesPerRena,
		FinsPerCartridge:   t.FinsPerCartridge,
		ModulesPerFin:      t.ModulesPerFin,
		ApdsPerModule:      t.ApdsPerModule,
		CrystalsPerApd:     t.CrystalsPerApd,
		ChannelsPerRena:    t.ChannelsPerRena,
	}
}

type panelJSON struct {
	ChannelSettings *channelConfigOverride `json:"channel_settings,omitempty"`
	Cartridges      []cartridgeJSON        `json:"cartridges"`
}

type cartridgeJSON struct {
	ChannelSettings *channelConfigOverride `json:"channel_settings,omitempty"`
	BackendBoard    BackendBoardConfig     `json:"backend_board"`
	Fins            []finJSON              `json:"fins"`
}

type finJSON struct {
	ExcludeThermistor bool                   `json:"exclude_thermistor"`
	ChannelSettings   *channelConfigOverride `json:"channel_settings,omitempty"`
	Modules           []moduleJSON           `json:"modules"`
}

type moduleJSON struct {
	Name              string                 `json:"name"`
	BiasVoltage       float64                `json:"bias_voltage"`
	LeakageCurrent    float64                `json:"leakage_current"`
	SystemTemperature float64                `json:"system_temperature"`
	ChannelSettings   *channelConfigOverride `json:"channel_settings,omitempty"`
}

func parseConfigFile(path string) (*configFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sysmodel: reading config %q: %w", path, err)
	}
	var cf configFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("sysmodel: parsing config %q: %w", path, err)
	}
	return &cf, nil
}
