package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// daemonConfig is the on-disk acquisition daemon configuration: one
// SystemModel description plus one entry per UDP stream to bind.
type daemonConfig struct {
	SystemConfig      string `yaml:"system_config"`
	PedestalsFile     string `yaml:"pedestals_file"`
	UVCentersFile     string `yaml:"uv_centers_file"`
	CalibrationFile   string `yaml:"calibration_file"`
	TimeCalibration   string `yaml:"time_calibration_file"`

	LogDir   string `yaml:"log_dir"`
	LogLevel string `yaml:"log_level"`

	Streams []streamConfig `yaml:"streams"`
}

type streamConfig struct {
	Name       string `yaml:"name"`
	ListenAddr string `yaml:"listen_addr"`

	RawFile        string `yaml:"raw_file"`
	DecodedFile    string `yaml:"decoded_file"`
	CalibratedFile string `yaml:"calibrated_file"`

	EnergyGateEnabled bool    `yaml:"energy_gate_enabled"`
	EnergyGateLowKeV  float32 `yaml:"energy_gate_low_kev"`
	EnergyGateHighKeV float32 `yaml:"energy_gate_high_kev"`

	SortCalibratedEvents bool  `yaml:"sort_calibrated_events"`
	AssumedMaxDelayTicks int64 `yaml:"assumed_max_delay_ticks"`

	SplitFiles  bool  `yaml:"split_files"`
	FileSizeMax int64 `yaml:"file_size_max_bytes"`

	RecvBufferBytes int `yaml:"recv_buffer_bytes"`
}

func loadDaemonConfig(path string) (*daemonConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("miil-acquire: reading config %q: %w", path, err)
	}
	var cfg daemonConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("miil-acquire: parsing config %q: %w", path, err)
	}
	if len(cfg.Streams) == 0 {
		return nil, fmt.Errorf("miil-acquire: config %q defines no streams", path)
	}
	return &cfg, nil
}
