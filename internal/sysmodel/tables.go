package sysmodel

// AdcLocationTable records, for one (panel, cartridge, daq, rena,
// triggerCode, module), which slot of the packet's ADC section holds
// each of a module's sixteen channel values. A field set to the
// sentinel index (notReadSentinel(t)) means that channel was not read
// out for this trigger code; the decoder resolves it by reading a
// pre-zeroed tail cell of its scratch buffer, yielding
// events.DefaultNoReadADCValue.
type AdcLocationTable struct {
	Triggered bool

	A, B, C, D             int
	AU, AV, BU, BV         int
	CU, CV, DU, DV         int
	Com0, Com1             int
	Com0h, Com1h           int
	U0, V0, U1, V1         int
	U0h, V0h, U1h, V1h     int
}

// notReadSentinel is the index past the last ADC slot a packet could
// possibly carry: 32 usable Rena channels (of 36; channels 0,1,34,35 are
// unwired) times up to 3 values each (value, u, v).
func notReadSentinel(t Topology) int {
	return (t.ChannelsPerRena - 4) * 3
}

func newAdcLocationTable(sentinel int) AdcLocationTable {
	return AdcLocationTable{
		A: sentinel, B: sentinel, C: sentinel, D: sentinel,
		AU: sentinel, AV: sentinel, BU: sentinel, BV: sentinel,
		CU: sentinel, CV: sentinel, DU: sentinel, DV: sentinel,
		Com0: sentinel, Com1: sentinel, Com0h: sentinel, Com1h: sentinel,
		U0: sentinel, V0: sentinel, U1: sentinel, V1: sentinel,
		U0h: sentinel, V0h: sentinel, U1h: sentinel, V1h: sentinel,
	}
}

// moduleSettingsFunc resolves the fully-inherited channel settings for a
// module addressed in PCDRM (daq/rena) space.
type moduleSettingsFunc func(panel, cartridge, daq, rena, renaModule int) (ModuleChannelConfig, error)

// walkSpatials advances currentValue over a rena's four modules' spatial
// channels, in the wire order the hardware actually emits them: A,B,C,D
// on an even rena, reversed D,C,B,A on an odd one. It mutates loc for
// every module that triggered.
func walkSpatials(t Topology, rena int, settings [4]ModuleChannelConfig, triggerCode int, loc []AdcLocationTable, currentValue *int) {
	for m := 0; m < 4 && m < len(loc); m++ {
		if triggerCode&(1<<uint(m)) == 0 {
			continue
		}
		l := &loc[m]
		l.Triggered = true
		cfg := settings[m]
		channels := [4]struct {
			cfg       RenaChannelConfig
			val, u, v *int
		}{
			{cfg.SpatA, &l.A, &l.AU, &l.AV},
			{cfg.SpatB, &l.B, &l.BU, &l.BV},
			{cfg.SpatC, &l.C, &l.CU, &l.CV},
			{cfg.SpatD, &l.D, &l.DU, &l.DV},
		}
		walkOrder := [4]int{0, 1, 2, 3}
		if rena%2 != 0 {
			// Odd renas read their four corners back to front: D,C,B,A.
			walkOrder = [4]int{3, 2, 1, 0}
		}
		for _, ci := range walkOrder {
			ch := channels[ci]
			if ch.cfg.SlowHitReadout {
				*ch.val = *currentValue
				*currentValue++
			}
			if ch.cfg.FastHitReadout {
				*ch.u = *currentValue
				*currentValue++
				*ch.v = *currentValue
				*currentValue++
			}
		}
	}
}

// walkCommons advances currentValue over a rena's four modules' common
// channels, always in module order 0..3, each module emitting high gain
// then low gain for APD0 then the same pair for APD1.
func walkCommons(triggerCode int, settings [4]ModuleChannelConfig, loc []AdcLocationTable, currentValue *int) {
	for m := 0; m < 4 && m < len(loc); m++ {
		if triggerCode&(1<<uint(m)) == 0 {
			continue
		}
		l := &loc[m]
		l.Triggered = true
		cfg := settings[m]

		type apdSlots struct {
			val, u, v *int
		}
		apds := [2]apdSlots{
			{&l.Com0h, &l.U0h, &l.V0h},
			{&l.Com1h, &l.U1h, &l.V1h},
		}
		lowApds := [2]apdSlots{
			{&l.Com0, &l.U0, &l.V0},
			{&l.Com1, &l.U1, &l.V1},
		}
		for i := 0; i < 2; i++ {
			if cfg.ComH.SlowHitReadout {
				*apds[i].val = *currentValue
				*currentValue++
			}
			if cfg.ComH.FastHitReadout {
				*apds[i].u = *currentValue
				*currentValue++
				*apds[i].v = *currentValue
				*currentValue++
			}
			if cfg.ComL.SlowHitReadout {
				*lowApds[i].val = *currentValue
				*currentValue++
			}
			if cfg.ComL.FastHitReadout {
				*lowApds[i].u = *currentValue
				*currentValue++
				*lowApds[i].v = *currentValue
				*currentValue++
			}
		}
	}
}

// buildAdcLocationAndPacketSize computes, for every (panel, cartridge,
// daq, rena, triggerCode), the packet size and the per-module ADC slot
// layout. Trigger code 0 is left at the 10-byte header-only size and an
// all-sentinel, untriggered location table; the decoder rejects trigger
// code 0 before ever consulting these tables.
func buildAdcLocationAndPacketSize(t Topology, settingsOf moduleSettingsFunc) ([]int, []AdcLocationTable, error) {
	sentinel := notReadSentinel(t)
	nPCDR := t.Panels * t.CartridgesPerPanel * t.DaqsPerCartridge * t.RenasPerDaq

	packetSize := make([]int, nPCDR*triggerCodes)
	for i := range packetSize {
		packetSize[i] = 10
	}
	adcLocation := make([]AdcLocationTable, nPCDR*triggerCodes*t.ModulesPerRena)
	for i := range adcLocation {
		adcLocation[i] = newAdcLocationTable(sentinel)
	}

	for p := 0; p < t.Panels; p++ {
		for c := 0; c < t.CartridgesPerPanel; c++ {
			for d := 0; d < t.DaqsPerCartridge; d++ {
				for r := 0; r < t.RenasPerDaq; r++ {
					var settings [4]ModuleChannelConfig
					for m := 0; m < t.ModulesPerRena && m < 4; m++ {
						cfg, err := settingsOf(p, c, d, r, m)
						if err != nil {
							return nil, nil, err
						}
						settings[m] = cfg
					}
					for trig := 1; trig < triggerCodes; trig++ {
						base := t.TriggerIndex(p, c, d, r, trig)
						locBase := base * t.ModulesPerRena
						loc := adcLocation[locBase : locBase+t.ModulesPerRena]

						currentValue := 0
						if r%2 != 0 {
							walkSpatials(t, r, settings, trig, loc, &currentValue)
							walkCommons(trig, settings, loc, &currentValue)
						} else {
							walkCommons(trig, settings, loc, &currentValue)
							walkSpatials(t, r, settings, trig, loc, &currentValue)
						}
						packetSize[base] = 10 + currentValue*2
					}
				}
			}
		}
	}
	return packetSize, adcLocation, nil
}

// ChannelKind names which abstract channel a physical Rena channel
// serves.
type ChannelKind int

const (
	ChannelUnused ChannelKind = iota
	ChannelSpatA
	ChannelSpatB
	ChannelSpatC
	ChannelSpatD
	ChannelComH
	ChannelComL
)

// ChannelRef is the single-rooted replacement for the original source's
// raw-pointer channel_map: instead of aliasing a RenaChannelConfig owned
// by the PCFM-indexed module table, each physical channel stores the
// (fin, moduleOnFin, kind) triple needed to resolve the live config
// through the SystemModel at use-sites.
type ChannelRef struct {
	Fin          int
	ModuleOnFin  int
	Kind         ChannelKind
}

// buildChannelMap computes the static (trigger-independent) wiring of
// every physical Rena channel: channels 0, 1, 34 and 35 are never
// connected; the rest carry four modules' worth of spatial or common
// channels, ordered the same way walkSpatials/walkCommons order them for
// a triggered read, but unconditional on any hit_readout flag -- this is
// the chip's physical wiring, not a function of what the firmware chose
// to read out.
func buildChannelMap(t Topology, pcdrmToPCFM func(p, c, d, r, m int) (fin, module int, err error)) ([]ChannelRef, error) {
	nPCDR := t.Panels * t.CartridgesPerPanel * t.DaqsPerCartridge * t.RenasPerDaq
	refs := make([]ChannelRef, nPCDR*t.ChannelsPerRena)

	for p := 0; p < t.Panels; p++ {
		for c := 0; c < t.CartridgesPerPanel; c++ {
			for d := 0; d < t.DaqsPerCartridge; d++ {
				for r := 0; r < t.RenasPerDaq; r++ {
					base := t.PCDRIndex(p, c, d, r) * t.ChannelsPerRena
					ch := base
					refs[ch] = ChannelRef{Kind: ChannelUnused}
					ch++
					refs[ch] = ChannelRef{Kind: ChannelUnused}
					ch++

					spatialOrder := [4]ChannelKind{ChannelSpatA, ChannelSpatB, ChannelSpatC, ChannelSpatD}
					if r%2 != 0 {
						spatialOrder = [4]ChannelKind{ChannelSpatD, ChannelSpatC, ChannelSpatB, ChannelSpatA}
					}

					writeBlock := func(kinds [4]ChannelKind) error {
						for m := 0; m < t.ModulesPerRena; m++ {
							fin, module, err := pcdrmToPCFM(p, c, d, r, m)
							if err != nil {
								return err
							}
							for _, kind := range kinds {
								refs[ch] = ChannelRef{Fin: fin, ModuleOnFin: module, Kind: kind}
								ch++
							}
						}
						return nil
					}

					if r%2 != 0 {
						if err := writeBlock(spatialOrder); err != nil {
							return nil, err
						}
						if err := writeBlock([4]ChannelKind{ChannelComH, ChannelComL, ChannelComH, ChannelComL}); err != nil {
							return nil, err
						}
					} else {
						if err := writeBlock([4]ChannelKind{ChannelComH, ChannelComL, ChannelComH, ChannelComL}); err != nil {
							return nil, err
						}
						if err := writeBlock(spatialOrder); err != nil {
							return nil, err
						}
					}

					refs[ch] = ChannelRef{Kind: ChannelUnused}
					ch++
					refs[ch] = ChannelRef{Kind: ChannelUnused}
					ch++
				}
			}
		}
	}
	return refs, nil
}
