package calibrate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dfreese/miilgo/internal/events"
	"github.com/dfreese/miilgo/internal/sysmodel"
)

const calibrateTestConfig = `{
  "topology": {
    "panels": 1,
    "cartridges_per_panel": 1,
    "daqs_per_cartridge": 1,
    "renas_per_daq": 1,
    "modules_per_rena": 4,
    "fins_per_cartridge": 1,
    "modules_per_fin": 4,
    "apds_per_module": 2,
    "crystals_per_apd": 2,
    "channels_per_rena": 36
  },
  "channel_settings": {
    "hit_threshold": 10000,
    "double_trigger_threshold": -10000
  },
  "panels": [
    {"cartridges": [{"backend_board": {"daqboard_id": 0}, "fins": [{"modules": [{}, {}, {}, {}]}]}]}
  ]
}`

func loadModel(t *testing.T) *sysmodel.SystemModel {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "system.json")
	require.NoError(t, os.WriteFile(path, []byte(calibrateTestConfig), 0o644))
	m, err := sysmodel.Load(path)
	require.NoError(t, err)

	calPath := filepath.Join(dir, "calibration.txt")
	require.NoError(t, os.WriteFile(calPath, []byte(renderCalibration()), 0o644))
	require.NoError(t, m.LoadCalibration(calPath))
	return m
}

// renderCalibration writes one calibration line per crystal for the 1
// panel / 1 cartridge / 1 fin / 4 module / 2 apd / 2 crystal topology
// above, placing one crystal at (0, 0) and the other at (0.9, 0.9) per
// apd so nearest-neighbor assignment is unambiguous.
func renderCalibration() string {
	var out string
	for p := 0; p < 1; p++ {
		for c := 0; c < 1; c++ {
			for fin := 0; fin < 1; fin++ {
				for mod := 0; mod < 4; mod++ {
					for a := 0; a < 2; a++ {
						out += "1 0.0 0.0 500 500 1.0 1.0\n"
						out += "1 0.9 0.9 500 500 1.0 1.0\n"
					}
				}
			}
		}
	}
	return out
}

func TestRawToCalSelectsAPD0(t *testing.T) {
	m := loadModel(t)
	c := New(m)

	raw := events.RawEvent{
		CoarseTimestamp: 12345,
		A: 100, B: 100, C: 100, D: 100,
		Com0: 200, Com1: 400,
		Com0h: 200, Com1h: 2000,
		U0h: 50, V0h: 50,
	}

	cal, err := c.RawToCal(raw)
	require.NoError(t, err)
	require.Equal(t, int8(0), cal.Apd)
	require.Equal(t, int8(0), cal.Crystal)
}

func TestRawToCalRejectsBelowHitThreshold(t *testing.T) {
	m := loadModel(t)
	c := New(m)

	raw := events.RawEvent{
		A: 100, B: 100, C: 100, D: 100,
		Com0h: 20000, Com1h: 30000,
	}

	_, err := c.RawToCal(raw)
	require.ErrorIs(t, err, ErrBelowThreshold)
}

// nonIntegerPedestalTestConfig uses a zero hit threshold so that the
// order pedestal subtraction happens in changes the outcome: promoting
// raw.Com0h to float32 before subtracting a non-integer pedestal gives
// primaryCommon = round-toward-zero(2801 - 2800.7) = 0, which passes
// (0 > 0 is false); truncating the pedestal to int16 first instead gives
// primaryCommon = 2801 - 2800 = 1, which is wrongly rejected (1 > 0).
const nonIntegerPedestalTestConfig = `{
  "topology": {
    "panels": 1,
    "cartridges_per_panel": 1,
    "daqs_per_cartridge": 1,
    "renas_per_daq": 1,
    "modules_per_rena": 1,
    "fins_per_cartridge": 1,
    "modules_per_fin": 1,
    "apds_per_module": 2,
    "crystals_per_apd": 2,
    "channels_per_rena": 12
  },
  "channel_settings": {
    "hit_threshold": 0,
    "double_trigger_threshold": -100000
  },
  "panels": [
    {"cartridges": [{"backend_board": {"daqboard_id": 0}, "fins": [{"modules": [{}]}]}]}
  ]
}`

func TestRawToCalUsesNonIntegerPedestalBeforeNarrowing(t *testing.T) {
	dir := t.TempDir()
	sysPath := filepath.Join(dir, "system.json")
	require.NoError(t, os.WriteFile(sysPath, []byte(nonIntegerPedestalTestConfig), 0o644))
	m, err := sysmodel.Load(sysPath)
	require.NoError(t, err)

	calPath := filepath.Join(dir, "calibration.txt")
	calLines := "1 0.0 0.0 500 500 1.0 1.0\n1 0.9 0.9 500 500 1.0 1.0\n" +
		"1 0.0 0.0 500 500 1.0 1.0\n1 0.9 0.9 500 500 1.0 1.0\n"
	require.NoError(t, os.WriteFile(calPath, []byte(calLines), 0o644))
	require.NoError(t, m.LoadCalibration(calPath))

	pedPath := filepath.Join(dir, "pedestals.txt")
	pedLine := "P0C0R0M0 1000" +
		" 0.0 1.0 0.0 1.0 0.0 1.0 0.0 1.0" +
		" 0.0 1.0 2800.7 1.0 0.0 1.0 0.0 1.0\n"
	require.NoError(t, os.WriteFile(pedPath, []byte(pedLine), 0o644))
	require.NoError(t, m.LoadPedestals(pedPath))

	c := New(m)
	raw := events.RawEvent{
		A: 100, B: 100, C: 100, D: 100,
		Com0h: 2801, Com1h: 5000,
	}

	cal, err := c.RawToCal(raw)
	require.NoError(t, err)
	require.Equal(t, int8(0), cal.Apd)
}
