package sysmodel

// RenaChannelConfig holds the programmable settings of one Rena channel
// relevant to decoding: whether its energy ("slow") and timing ("fast")
// values are read out into the packet. Only these two readout flags are
// modelled; the other Rena analog-front-end settings (gain, shaping
// time, polarity, ...) are not part of this struct, and the module's hit
// thresholds live in ModuleChannelConfig.
type RenaChannelConfig struct {
	SlowHitReadout bool `json:"slow_hit_readout"`
	FastHitReadout bool `json:"fast_hit_readout"`
}

// ModuleChannelConfig gathers the six Rena channels belonging to one
// module (two common-channel gains, four spatial corners) plus the
// module's hit thresholds.
type ModuleChannelConfig struct {
	HitThreshold          int               `json:"hit_threshold"`
	DoubleTriggerThreshold int              `json:"double_trigger_threshold"`
	ComL                  RenaChannelConfig `json:"com_l"`
	ComH                  RenaChannelConfig `json:"com_h"`
	SpatA                 RenaChannelConfig `json:"spat_a"`
	SpatB                 RenaChannelConfig `json:"spat_b"`
	SpatC                 RenaChannelConfig `json:"spat_c"`
	SpatD                 RenaChannelConfig `json:"spat_d"`
}

// channelConfigOverride is the wire representation of channel_settings
// at any level of the tree; every field is a pointer so that "not
// present at this level" is distinguishable from "present and false/0",
// which is what makes inside-out inheritance (module overrides fin
// overrides cartridge overrides panel overrides system) possible.
type channelConfigOverride struct {
	HitThreshold           *int                     `json:"hit_threshold,omitempty"`
	DoubleTriggerThreshold *int                     `json:"double_trigger_threshold,omitempty"`
	ComL                   *renaChannelOverride     `json:"com_l,omitempty"`
	ComH                   *renaChannelOverride     `json:"com_h,omitempty"`
	SpatA                  *renaChannelOverride     `json:"spat_a,omitempty"`
	SpatB                  *renaChannelOverride     `json:"spat_b,omitempty"`
	SpatC                  *renaChannelOverride     `json:"spat_c,omitempty"`
	SpatD                  *renaChannelOverride     `json:"spat_d,omitempty"`
}

type renaChannelOverride struct {
	SlowHitReadout *bool `json:"slow_hit_readout,omitempty"`
	FastHitReadout *bool `json:"fast_hit_readout,omitempty"`
}

func (c *ModuleChannelConfig) applyOverride(o *channelConfigOverride) {
	if o == nil {
		return
	}
	if o.HitThreshold != nil {
		c.HitThreshold = *o.HitThreshold
	}
	if o.DoubleTriggerThreshold != nil {
		c.DoubleTriggerThreshold = *o.DoubleTriggerThreshold
	}
	applyRenaOverride(&c.ComL, o.ComL)
	applyRenaOverride(&c.ComH, o.ComH)
	applyRenaOverride(&c.SpatA, o.SpatA)
	applyRenaOverride(&c.SpatB, o.SpatB)
	applyRenaOverride(&c.SpatC, o.SpatC)
	applyRenaOverride(&c.SpatD, o.SpatD)
}

func applyRenaOverride(dst *RenaChannelConfig, o *renaChannelOverride) {
	if o == nil {
		return
	}
	if o.SlowHitReadout != nil {
		dst.SlowHitReadout = *o.SlowHitReadout
	}
	if o.FastHitReadout != nil {
		dst.FastHitReadout = *o.FastHitReadout
	}
}

// ModuleConfig is the fully-resolved, per-module configuration used by
// the decoder and calibrator.
type ModuleConfig struct {
	Name              string
	BiasVoltage       float64
	LeakageCurrent    float64
	SystemTemperature float64
	ChannelSettings   ModuleChannelConfig
}

// FinConfig carries fin-level settings that are not part of the channel
// inheritance tree.
type FinConfig struct {
	ExcludeThermistor bool
}

// BackendBoardConfig describes the backend board that reads out a
// cartridge's four DAQ boards over Ethernet.
type BackendBoardConfig struct {
	DaqboardID       int    `json:"daqboard_id"`
	InputDelay       int    `json:"input_delay"`
	OutputDelay      int    `json:"output_delay"`
	CoincWindow      int    `json:"coinc_window"`
	EthernetReadout  bool   `json:"ethernet_readout"`
	PortName         string `json:"port_name"`
}

// CartridgeConfig carries the per-cartridge settings outside the channel
// inheritance tree.
type CartridgeConfig struct {
	BackendBoard BackendBoardConfig
}
