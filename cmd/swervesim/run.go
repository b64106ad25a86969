package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/san-kum/swervesim/internal/actuator"
	"github.com/san-kum/swervesim/internal/automation"
	"github.com/san-kum/swervesim/internal/config"
	"github.com/san-kum/swervesim/internal/experiment"
	"github.com/san-kum/swervesim/internal/logging"
	"github.com/san-kum/swervesim/internal/optim"
	"github.com/san-kum/swervesim/internal/sim"
	"github.com/san-kum/swervesim/internal/storage"
	"github.com/san-kum/swervesim/internal/telemetry"
	"github.com/san-kum/swervesim/internal/viz"
)

// loadConfig layers the config file, then the preset, then any flags the
// user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if preset != "" {
		apply, ok := config.Presets[preset]
		if !ok {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		apply(cfg)
	}

	flags := cmd.Flags()
	if flags.Changed("integrator") {
		cfg.Sim.Integrator = integrator
	}
	if flags.Changed("period") {
		cfg.Drive.UpdatePeriod = period
	}
	if flags.Changed("plant-period") {
		cfg.Sim.PlantPeriod = plantPeriod
	}
	if flags.Changed("alliance") {
		cfg.Match.Alliance = alliance
	}
	if flags.Changed("kp") {
		cfg.Heading.Kp = kp
	}
	if flags.Changed("ki") {
		cfg.Heading.Ki = ki
	}
	if flags.Changed("kd") {
		cfg.Heading.Kd = kd
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// session holds what a command opened and must close.
type session struct {
	cfg     *config.Config
	logger  zerolog.Logger
	opts    experiment.Options
	closers []io.Closer
}

func openSession(ctx context.Context, cmd *cobra.Command, console io.Writer) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg}

	var logFile io.Writer
	if cfg.Log.Dir != "" {
		f, err := logging.OpenFile(cfg.Log.Dir, time.Now())
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, f)
		logFile = f
	}
	s.logger, err = logging.New(cfg.Log.Level, console, logFile)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.opts.Logger = s.logger

	if cfg.Telemetry.Log {
		s.opts.Publishers = append(s.opts.Publishers, telemetry.NewLog(s.logger))
	}
	if cfg.Telemetry.Influx.Enabled {
		influx := telemetry.NewInflux(cfg.InfluxConfig(), s.logger)
		if err := influx.Connect(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("influx: %w", err)
		}
		s.opts.Publishers = append(s.opts.Publishers, influx)
		s.closers = append(s.closers, influx)
	}
	if cfg.CAN.Enabled {
		can, err := actuator.DialCAN(cfg.CAN.Interface, cfg.CAN.BaseID, s.logger)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.opts.Actuators = append(s.opts.Actuators, can)
		s.closers = append(s.closers, can)
	}
	return s, nil
}

func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Close failed")
		}
	}
}

func runScenario(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx, cmd, os.Stderr)
	if err != nil {
		return err
	}
	defer s.Close()

	sc, err := automation.Resolve(args[0])
	if err != nil {
		return err
	}
	if jitter > 0 || jitterHeading > 0 {
		sc = sc.Perturbed(rand.New(rand.NewSource(seed)), jitter, jitterHeading)
		s.logger.Debug().Int64("seed", seed).Str("start", sc.Start.Pose().String()).Msg("Perturbed start pose")
	}
	exp, err := experiment.New(s.cfg, sc, s.opts)
	if err != nil {
		return err
	}

	s.logger.Info().Str("scenario", sc.Name).Bool("realtime", realtime).Msg("Running scenario")
	start := time.Now()

	var result *sim.Result
	if realtime {
		result, err = exp.RunRealtime(ctx, forever)
	} else {
		result, err = exp.Run(ctx)
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	for _, e := range result.Errors {
		s.logger.Error().Err(e).Msg("Run stopped early")
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("cycles: %d\n", result.Cycles)
	if final, ok := result.Final(); ok {
		fmt.Printf("final pose: %s\n", final.Pose)
	}

	if !noSave {
		runID, err := saveRun(s.cfg, sc, exp.SimConfig(), result)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	fmt.Println("\nmetrics:")
	printMetrics(result.Metrics)
	return nil
}

func saveRun(cfg *config.Config, sc *automation.Scenario, simCfg sim.Config, result *sim.Result) (string, error) {
	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return "", err
	}
	errs := make([]string, len(result.Errors))
	for i, e := range result.Errors {
		errs[i] = e.Error()
	}
	return st.Save(storage.RunMetadata{
		Scenario:   sc.Name,
		Preset:     preset,
		Period:     simCfg.ControlPeriod,
		Duration:   simCfg.Duration,
		Integrator: cfg.Sim.Integrator,
		Gains: map[string]float64{
			"kp": cfg.Heading.Kp,
			"ki": cfg.Heading.Ki,
			"kd": cfg.Heading.Kd,
		},
		Errors: errs,
	}, result)
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	// the TUI owns the terminal, so logs only go to the log file
	s, err := openSession(cmd.Context(), cmd, io.Discard)
	if err != nil {
		return err
	}
	defer s.Close()

	sc, err := automation.Resolve(args[0])
	if err != nil {
		return err
	}
	exp, err := experiment.New(s.cfg, sc, s.opts)
	if err != nil {
		return err
	}
	return viz.RunLive(exp)
}

func runInteractive(cmd *cobra.Command) error {
	s, err := openSession(cmd.Context(), cmd, io.Discard)
	if err != nil {
		return err
	}
	defer s.Close()
	return viz.RunInteractive(s.cfg, s.logger)
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sc, err := automation.Resolve(args[0])
	if err != nil {
		return err
	}

	names := args[1:]
	builds := make([]sim.Builder, len(names))
	for i, name := range names {
		c := *cfg
		c.Sim.Integrator = name
		builds[i] = func() (*sim.Loop, error) {
			exp, err := experiment.New(&c, sc, experiment.Options{Logger: zerolog.Nop()})
			if err != nil {
				return nil, err
			}
			return exp.Loop, nil
		}
	}

	simCfg := cfg.SimConfig()
	simCfg.Duration = sc.EndTime()
	start := time.Now()
	results, err := sim.RunAll(cmd.Context(), simCfg, builds)
	if err != nil {
		return err
	}

	fmt.Printf("%s, %d integrators in %v\n\n", sc.Name, len(names), time.Since(start))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tFINAL POSE\tHEADING ERR\tSETTLING\tERRORS")
	for i, r := range results {
		pose := "-"
		if final, ok := r.Final(); ok {
			pose = final.Pose.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%.4f\t%.2fs\t%d\n",
			names[i], pose, r.Metrics["heading_error"], r.Metrics["settling_time"], len(r.Errors))
	}
	return w.Flush()
}

func tuneHeading(cmd *cobra.Command, args []string) error {
	if len(tuneKp) != 2 || len(tuneKd) != 2 {
		return fmt.Errorf("ranges take exactly two values: lo,hi")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sc, err := automation.Resolve(args[0])
	if err != nil {
		return err
	}

	ranges := [][]float64{
		optim.Linspace(tuneKp[0], tuneKp[1], tuneSteps),
		optim.Linspace(tuneKd[0], tuneKd[1], tuneSteps),
	}
	trials, err := optim.TuneHeading(cmd.Context(), cfg, sc, []string{"kp", "kd"}, ranges, tuneMetric)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "KP\tKD\t%s\n", tuneMetric)
	for i, t := range trials {
		if i == 10 {
			break
		}
		fmt.Fprintf(w, "%.3f\t%.3f\t%.6f\n", t.Params["kp"], t.Params["kd"], t.Score)
	}
	return w.Flush()
}
