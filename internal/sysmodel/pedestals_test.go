package sysmodel

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallTopology() Topology {
	return Topology{
		Panels:             2,
		CartridgesPerPanel: 1,
		DaqsPerCartridge:   1,
		RenasPerDaq:        1,
		ModulesPerRena:     4,
		FinsPerCartridge:   1,
		ModulesPerFin:      4,
		ApdsPerModule:      2,
		CrystalsPerApd:     2,
		ChannelsPerRena:    36,
	}
}

func writeTestFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(contents), 0o644))
	return p
}

func TestLoadPedestals(t *testing.T) {
	topo := smallTopology()
	m := &SystemModel{Topology: topo}

	var lines []string
	for p := 0; p < topo.Panels; p++ {
		for c := 0; c < topo.CartridgesPerPanel; c++ {
			for daq := 0; daq < topo.DaqsPerCartridge; daq++ {
				for rena := 0; rena < topo.RenasPerDaq; rena++ {
					chip := daq*topo.RenasPerDaq + rena
					for mod := 0; mod < topo.ModulesPerRena; mod++ {
						lines = append(lines, fmt.Sprintf("P%dC%dR%dM%d 100 1 1 2 1 3 1 4 1 5 1 6 1 7 1 8 1",
							p, c, chip, mod))
					}
				}
			}
		}
	}

	dir := t.TempDir()
	path := writeTestFile(t, dir, "pedestals.txt", strings.Join(lines, "\n")+"\n")

	require.NoError(t, m.LoadPedestals(path))
	assert.True(t, m.PedestalsLoaded())

	pe := m.Pedestals(0, 0, 0, 0, 0)
	assert.Equal(t, float32(1), pe.A)
	assert.Equal(t, float32(2), pe.B)
	assert.Equal(t, float32(3), pe.C)
	assert.Equal(t, float32(4), pe.D)
	assert.Equal(t, float32(5), pe.Com0)
	assert.Equal(t, float32(6), pe.Com0h)
	assert.Equal(t, float32(7), pe.Com1)
	assert.Equal(t, float32(8), pe.Com1h)
}

func TestLoadPedestalsBadLineCount(t *testing.T) {
	topo := smallTopology()
	m := &SystemModel{Topology: topo}

	dir := t.TempDir()
	path := writeTestFile(t, dir, "pedestals.txt", "P0C0R0M0 100 1 1 2 1 3 1 4 1 5 1 6 1 7 1 8 1\n")

	err := m.LoadPedestals(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLineCountMismatch)
}

func TestLoadCalibrationRoundTrip(t *testing.T) {
	topo := smallTopology()
	m := &SystemModel{Topology: topo}

	var lines []string
	expected := topo.Panels * topo.CartridgesPerPanel * topo.FinsPerCartridge * topo.ModulesPerFin * topo.ApdsPerModule * topo.CrystalsPerApd
	for i := 0; i < expected; i++ {
		lines = append(lines, fmt.Sprintf("1 %d.5 %d.25 100 200 1.5 2.5", i, i))
	}

	dir := t.TempDir()
	path := writeTestFile(t, dir, "calibration.txt", strings.Join(lines, "\n")+"\n")

	require.NoError(t, m.LoadCalibration(path))
	assert.True(t, m.CalibrationLoaded())

	cal := m.Calibration(0, 0, 0, 0, 0, 0)
	assert.True(t, cal.Use)
	assert.Equal(t, float32(0.5), cal.XLoc)
	assert.Equal(t, float32(0.25), cal.YLoc)
	assert.Equal(t, float32(100), cal.GainSpat)
	assert.Equal(t, float32(200), cal.GainComm)
}

func TestLoadTimeCalibration(t *testing.T) {
	topo := smallTopology()
	m := &SystemModel{Topology: topo}

	expected := topo.Panels * topo.CartridgesPerPanel * topo.FinsPerCartridge * topo.ModulesPerFin * topo.ApdsPerModule * topo.CrystalsPerApd
	var lines []string
	for i := 0; i < expected; i++ {
		lines = append(lines, fmt.Sprintf("%d.0", i))
	}

	dir := t.TempDir()
	path := writeTestFile(t, dir, "time_offsets.txt", strings.Join(lines, "\n")+"\n")

	require.NoError(t, m.LoadTimeCalibration(path))
	assert.True(t, m.TimeCalibrationLoaded())
	assert.Equal(t, float32(0), m.Calibration(0, 0, 0, 0, 0, 0).TimeOffset)
}
