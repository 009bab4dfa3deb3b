// Command miil-acquire runs the online acquisition daemon: it loads a
// SystemModel, binds one UDP socket per configured stream, and runs a
// PipelineController until it receives SIGINT or SIGTERM.
package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/dfreese/miilgo/internal/calibrate"
	"github.com/dfreese/miilgo/internal/daqlog"
	"github.com/dfreese/miilgo/internal/decode"
	"github.com/dfreese/miilgo/internal/discovery"
	"github.com/dfreese/miilgo/internal/netio"
	"github.com/dfreese/miilgo/internal/pipeline"
	"github.com/dfreese/miilgo/internal/sysmodel"
	"github.com/spf13/pflag"
)

func main() {
	var (
		configFile   = pflag.StringP("config-file", "c", "acquire.yaml", "Daemon configuration file name.")
		pedestals    = pflag.StringP("pedestals-file", "P", "", "Pedestals file, overriding the config file's pedestals_file.")
		uvCenters    = pflag.StringP("uv-centers-file", "u", "", "UV centers file, overriding the config file's uv_centers_file.")
		calFile      = pflag.StringP("calibration-file", "C", "", "Crystal calibration file, overriding the config file's calibration_file.")
		timeCalFile  = pflag.StringP("time-calibration-file", "T", "", "Time calibration file, overriding the config file's time_calibration_file.")
		logLevel     = pflag.StringP("log-level", "l", "", "Log level: debug, info, warn, error. Overrides the config file's log_level.")
		advertise    = pflag.BoolP("advertise", "m", false, "Advertise this daemon over mDNS as "+discovery.ServiceType+".")
		statusPeriod = pflag.DurationP("status-period", "s", 5*time.Second, "How often to log per-stream counters while running.")
		help         = pflag.BoolP("help", "h", false, "Display help text.")
	)

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: miil-acquire [options]\n\n")
		fmt.Fprintf(os.Stderr, "Runs the packet acquisition daemon described by --config-file until\n")
		fmt.Fprintf(os.Stderr, "interrupted (SIGINT/SIGTERM), at which point every stream is drained\n")
		fmt.Fprintf(os.Stderr, "and its retained calibrated events are flushed before exit.\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if *help {
		pflag.Usage()
		return
	}

	if err := run(runOptions{
		configFile:   *configFile,
		pedestals:    *pedestals,
		uvCenters:    *uvCenters,
		calFile:      *calFile,
		timeCalFile:  *timeCalFile,
		logLevel:     *logLevel,
		advertise:    *advertise,
		statusPeriod: *statusPeriod,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "miil-acquire: %v\n", err)
		os.Exit(1)
	}
}

type runOptions struct {
	configFile   string
	pedestals    string
	uvCenters    string
	calFile      string
	timeCalFile  string
	logLevel     string
	advertise    bool
	statusPeriod time.Duration
}

func run(opts runOptions) error {
	cfg, err := loadDaemonConfig(opts.configFile)
	if err != nil {
		return err
	}

	logLevel := cfg.LogLevel
	if opts.logLevel != "" {
		logLevel = opts.logLevel
	}
	logger := daqlog.New(os.Stderr, logLevel)

	model, err := loadModel(cfg, opts)
	if err != nil {
		return err
	}
	logger.Info("system model loaded", "config", cfg.SystemConfig, "streams", len(cfg.Streams))

	streamConfigs := make([]pipeline.StreamConfig, len(cfg.Streams))
	sockets := make([]*netio.UDPSocket, len(cfg.Streams))
	for i, sc := range cfg.Streams {
		sock, err := netio.Listen(netio.UDPSocketConfig{
			ListenAddr:      sc.ListenAddr,
			RecvBufferBytes: sc.RecvBufferBytes,
		})
		if err != nil {
			return fmt.Errorf("miil-acquire: binding stream %q: %w", sc.Name, err)
		}
		sockets[i] = sock

		streamConfigs[i] = pipeline.StreamConfig{
			Socket:               sock,
			Model:                model,
			Decoder:              decode.New(model),
			Calibrator:           calibrate.New(model),
			RawFilename:          sc.RawFile,
			DecodedFilename:      sc.DecodedFile,
			CalibratedFilename:   sc.CalibratedFile,
			WriteRaw:             sc.RawFile != "",
			WriteDecoded:         sc.DecodedFile != "",
			WriteCalibrated:      sc.CalibratedFile != "",
			EnergyGateEnabled:    sc.EnergyGateEnabled,
			EnergyGateLow:        sc.EnergyGateLowKeV,
			EnergyGateHigh:       sc.EnergyGateHighKeV,
			SortCalibratedEvents: sc.SortCalibratedEvents,
			AssumedMaxDelayTicks: sc.AssumedMaxDelayTicks,
			SplitFiles:           sc.SplitFiles,
			FileSizeMax:          sc.FileSizeMax,
			RecvBufferSize:       sc.RecvBufferBytes,
		}
	}
	defer func() {
		for _, s := range sockets {
			if s != nil {
				s.Close()
			}
		}
	}()

	controller, err := pipeline.NewController(streamConfigs)
	if err != nil {
		return fmt.Errorf("miil-acquire: building pipeline controller: %w", err)
	}

	var advertiser *discovery.Advertiser
	if opts.advertise {
		advertiser, err = discovery.Advertise("miil-acquire", firstPort(cfg.Streams), map[string]string{
			"streams": fmt.Sprintf("%d", len(cfg.Streams)),
		})
		if err != nil {
			logger.Warn("mDNS advertisement failed, continuing without it", "error", err)
		} else {
			defer advertiser.Shutdown()
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	controller.Start()
	logger.Info("acquisition started")

	ticker := time.NewTicker(opts.statusPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-sigCh:
			logger.Info("stop requested, draining streams")
			controller.Stop(true)
			logger.Info("acquisition stopped")
			return nil
		case <-ticker.C:
			logStatus(logger, cfg, controller)
		}
	}
}

func loadModel(cfg *daemonConfig, opts runOptions) (*sysmodel.SystemModel, error) {
	model, err := sysmodel.Load(cfg.SystemConfig)
	if err != nil {
		return nil, fmt.Errorf("loading system config %q: %w", cfg.SystemConfig, err)
	}

	pedestals := firstNonEmpty(opts.pedestals, cfg.PedestalsFile)
	if pedestals != "" {
		if err := model.LoadPedestals(pedestals); err != nil {
			return nil, fmt.Errorf("loading pedestals %q: %w", pedestals, err)
		}
	}
	uvCenters := firstNonEmpty(opts.uvCenters, cfg.UVCentersFile)
	if uvCenters != "" {
		if err := model.LoadUVCenters(uvCenters); err != nil {
			return nil, fmt.Errorf("loading UV centers %q: %w", uvCenters, err)
		}
	}
	calFile := firstNonEmpty(opts.calFile, cfg.CalibrationFile)
	if calFile != "" {
		if err := model.LoadCalibration(calFile); err != nil {
			return nil, fmt.Errorf("loading calibration %q: %w", calFile, err)
		}
	}
	timeCalFile := firstNonEmpty(opts.timeCalFile, cfg.TimeCalibration)
	if timeCalFile != "" {
		if err := model.LoadTimeCalibration(timeCalFile); err != nil {
			return nil, fmt.Errorf("loading time calibration %q: %w", timeCalFile, err)
		}
	}
	return model, nil
}

func logStatus(logger *charmlog.Logger, cfg *daemonConfig, controller *pipeline.PipelineController) {
	for i, sc := range cfg.Streams {
		info, err := controller.ProcessInfo(i)
		if err != nil {
			continue
		}
		logger.Info("stream status",
			"name", sc.Name,
			"bytes_received", info.BytesReceived,
			"accepted_calibrate", info.AcceptedCalibrate,
			"written_calibrated", info.WrittenCalibratedEvents,
		)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPort(streams []streamConfig) int {
	if len(streams) == 0 {
		return 0
	}
	_, portStr, err := net.SplitHostPort(streams[0].ListenAddr)
	if err != nil {
		return 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0
	}
	return port
}
