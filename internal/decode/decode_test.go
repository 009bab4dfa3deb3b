package decode

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dfreese/miilgo/internal/sysmodel"
)

// smallSystemConfig is a 2-panel, 1-cartridge, 1-daq, 1-rena, 4-module
// system with every spatial and common channel's slow readout enabled,
// just large enough to exercise a full packet decode.
const smallSystemConfig = `{
  "topology": {
    "panels": 2,
    "cartridges_per_panel": 1,
    "daqs_per_cartridge": 1,
    "renas_per_daq": 1,
    "modules_per_rena": 4,
    "fins_per_cartridge": 1,
    "modules_per_fin": 4,
    "apds_per_module": 2,
    "crystals_per_apd": 8,
    "channels_per_rena": 36
  },
  "channel_settings": {
    "spat_a": {"slow_hit_readout": true},
    "spat_b": {"slow_hit_readout": true},
    "spat_c": {"slow_hit_readout": true},
    "spat_d": {"slow_hit_readout": true},
    "com_h": {"slow_hit_readout": true},
    "com_l": {"slow_hit_readout": true}
  },
  "panels": [
    {"cartridges": [{"backend_board": {"daqboard_id": %d}, "fins": [{"modules": [{}, {}, {}, {}]}]}]},
    {"cartridges": [{"backend_board": {"daqboard_id": %d}, "fins": [{"modules": [{}, {}, {}, {}]}]}]}
  ]
}`

func loadSmallModel(t *testing.T) *sysmodel.SystemModel {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "system.json")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(smallSystemConfig, 0, 1)), 0o644))
	model, err := sysmodel.Load(path)
	require.NoError(t, err)
	return model
}

// buildPacket assembles a framed packet for (panel=0, cartridge, daq=0,
// rena=0) with distinguishable ADC values per 12-bit slot. The payload
// is sized for trigger code 0b1111 (all four modules) under the
// channel_settings above: four spatial corners plus the high- and
// low-gain commons of both APDs, 8 slots per module, 32 slots and 64
// bytes of payload total.
func buildPacket(backendAddress, triggerCode int) []byte {
	header := []byte{
		0x80,
		byte((backendAddress << 2) & 0x7C),
		byte(triggerCode & 0x0F),
	}
	var ts [6]byte
	timestamp := int64(0x1A2B3C)
	for ii := 5; ii >= 0; ii-- {
		ts[ii] = byte(timestamp & 0x7F)
		timestamp >>= 7
	}

	payload := make([]byte, 0, 64)
	value := int16(100)
	for i := 0; i < 32; i++ {
		hi := byte((value>>6)&0x3F)
		lo := byte(value & 0x3F)
		payload = append(payload, hi, lo)
		value++
	}

	packet := append([]byte{}, header...)
	packet = append(packet, ts[:]...)
	packet = append(packet, payload...)
	packet = append(packet, 0x81)
	return packet
}

func TestDecodeProducesOneEventPerTriggeredModule(t *testing.T) {
	model := loadSmallModel(t)
	decoder := New(model)

	packet := buildPacket(0, 0x0F)
	var scratch Scratch
	rawEvents, err := decoder.Decode(packet, &scratch, nil)
	require.NoError(t, err)
	require.Len(t, rawEvents, 4)

	for i, ev := range rawEvents {
		require.Equal(t, int8(i), ev.Module)
		require.Equal(t, int8(0), ev.Panel)
		require.Equal(t, int8(0), ev.Cartridge)
	}
}

func TestDecodeRejectsBadFraming(t *testing.T) {
	model := loadSmallModel(t)
	decoder := New(model)
	packet := buildPacket(0, 0x0F)
	packet[0] = 0x00
	var scratch Scratch
	_, err := decoder.Decode(packet, &scratch, nil)
	require.ErrorIs(t, err, ErrFraming)
}

func TestDecodeRejectsZeroTrigger(t *testing.T) {
	model := loadSmallModel(t)
	decoder := New(model)
	packet := []byte{0x80, 0x00, 0x00, 0x81}
	var scratch Scratch
	_, err := decoder.Decode(packet, &scratch, nil)
	require.ErrorIs(t, err, ErrNoTrigger)
}

func TestDecodeRejectsBadPacketSize(t *testing.T) {
	model := loadSmallModel(t)
	decoder := New(model)
	packet := buildPacket(0, 0x0F)
	packet = append(packet[:len(packet)-1], 0x00, 0x00, 0x81)
	var scratch Scratch
	_, err := decoder.Decode(packet, &scratch, nil)
	require.ErrorIs(t, err, ErrBadPacketSize)
}
