package sysmodel

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func rapidTopology(rt *rapid.T) Topology {
	renasPerDaq := rapid.SampledFrom([]int{2, 4, 8}).Draw(rt, "renas_per_daq")
	daqsPerCartridge := rapid.SampledFrom([]int{2, 4}).Draw(rt, "daqs_per_cartridge")
	modulesPerRena := rapid.IntRange(1, 6).Draw(rt, "modules_per_rena")

	finsPerCartridge := rapid.SampledFrom([]int{2, 4, 8}).Draw(rt, "fins_per_cartridge")
	modulesPerFin := daqsPerCartridge * renasPerDaq * modulesPerRena / finsPerCartridge
	if modulesPerFin == 0 || daqsPerCartridge*renasPerDaq*modulesPerRena%finsPerCartridge != 0 {
		rt.Skip("fins_per_cartridge does not evenly divide daq*rena*module")
	}
	if modulesPerFin%2 != 0 {
		rt.Skip("modules_per_fin must be even for the panel-1 module flip")
	}

	return Topology{
		Panels:             2,
		CartridgesPerPanel: rapid.IntRange(1, 2).Draw(rt, "cartridges_per_panel"),
		DaqsPerCartridge:   daqsPerCartridge,
		RenasPerDaq:        renasPerDaq,
		ModulesPerRena:     modulesPerRena,
		FinsPerCartridge:   finsPerCartridge,
		ModulesPerFin:      modulesPerFin,
		ApdsPerModule:      2,
		CrystalsPerApd:     64,
		ChannelsPerRena:    8*modulesPerRena + 4,
	}
}

// TestPCFMToPCDRMRoundTripsThroughPCDRMToPCFM exercises spec invariant
// #2: pcfm_to_pcdrm -> pcdrm_to_pcfm is the identity, for every valid
// (panel, cartridge, fin, module) address.
func TestPCFMToPCDRMRoundTripsThroughPCDRMToPCFM(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		topo := rapidTopology(rt)

		panel := rapid.IntRange(0, topo.Panels-1).Draw(rt, "panel")
		cartridge := rapid.IntRange(0, topo.CartridgesPerPanel-1).Draw(rt, "cartridge")
		fin := rapid.IntRange(0, topo.FinsPerCartridge-1).Draw(rt, "fin")
		module := rapid.IntRange(0, topo.ModulesPerFin-1).Draw(rt, "module")

		daq, rena, renaModule, err := topo.PCFMToPCDRM(panel, cartridge, fin, module)
		require.NoError(rt, err)

		gotFin, gotModule, err := topo.PCDRMToPCFM(panel, cartridge, daq, rena, renaModule)
		require.NoError(rt, err)

		require.Equal(rt, fin, gotFin)
		require.Equal(rt, module, gotModule)
	})
}

// TestPCDRMToPCFMRoundTripsThroughPCFMToPCDRM checks the inverse
// direction of the same bijection, starting from a wiring address.
func TestPCDRMToPCFMRoundTripsThroughPCFMToPCDRM(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		topo := rapidTopology(rt)

		panel := rapid.IntRange(0, topo.Panels-1).Draw(rt, "panel")
		cartridge := rapid.IntRange(0, topo.CartridgesPerPanel-1).Draw(rt, "cartridge")
		daq := rapid.IntRange(0, topo.DaqsPerCartridge-1).Draw(rt, "daq")
		rena := rapid.IntRange(0, topo.RenasPerDaq-1).Draw(rt, "rena")
		renaModule := rapid.IntRange(0, topo.ModulesPerRena-1).Draw(rt, "rena_module")

		fin, module, err := topo.PCDRMToPCFM(panel, cartridge, daq, rena, renaModule)
		require.NoError(rt, err)

		gotDaq, gotRena, gotRenaModule, err := topo.PCFMToPCDRM(panel, cartridge, fin, module)
		require.NoError(rt, err)

		require.Equal(rt, daq, gotDaq)
		require.Equal(rt, rena, gotRena)
		require.Equal(rt, renaModule, gotRenaModule)
	})
}
