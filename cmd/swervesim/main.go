package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/swervesim/internal/automation"
	"github.com/san-kum/swervesim/internal/config"
	"github.com/san-kum/swervesim/internal/metrics"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string

	integrator    string
	period        float64
	plantPeriod   float64
	alliance      string
	kp, ki, kd    float64
	realtime      bool
	forever       bool
	noSave        bool
	column        []string
	svgPath       string
	analyzeColumn string
	tuneMetric    string
	tuneKp        []float64
	tuneKd        []float64
	tuneSteps     int
	forceWrite    bool
	jitter        float64
	jitterHeading float64
	seed          int64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "swervesim",
		Short: "swerve drivetrain pointing simulator",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "run storage directory (default from config)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "apply a named preset")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run a scenario and store the cycles",
		Long:  "Runs a built-in scenario by name or a scenario YAML file by path.",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	addSimFlags(runCmd)
	runCmd.Flags().BoolVar(&realtime, "realtime", false, "pace the loop on wall-clock tickers")
	runCmd.Flags().BoolVar(&forever, "forever", false, "with --realtime, run until interrupted")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().Float64Var(&jitter, "jitter", 0, "randomize the start position by up to this many meters")
	runCmd.Flags().Float64Var(&jitterHeading, "jitter-heading", 0, "randomize the start heading by up to this many degrees")
	runCmd.Flags().Int64Var(&seed, "seed", 1, "random seed for --jitter")

	liveCmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "drive a scenario in the terminal field view",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	addSimFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot stored cycle columns",
		Long:  "Plots columns of a stored run. Use \"latest\" for the newest run.",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&column, "column", []string{"heading_deg", "heading_err", "rate"}, "cycle columns to plot")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as JSON, or its path as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&svgPath, "svg", "", "write the field trajectory to this SVG file instead")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a stored column",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&analyzeColumn, "column", "heading_err", "cycle column to analyze")

	compareCmd := &cobra.Command{
		Use:   "compare [scenario] [integrator]...",
		Short: "run one scenario under several integrators",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareIntegrators,
	}

	tuneCmd := &cobra.Command{
		Use:   "tune [scenario]",
		Short: "grid search heading gains on a scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  tuneHeading,
	}
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "heading_error", fmt.Sprintf("metric to minimize %v", metrics.Names()))
	tuneCmd.Flags().Float64SliceVar(&tuneKp, "kp-range", []float64{1, 10}, "kp range: lo,hi")
	tuneCmd.Flags().Float64SliceVar(&tuneKd, "kd-range", []float64{0, 0.5}, "kd range: lo,hi")
	tuneCmd.Flags().IntVar(&tuneSteps, "steps", 5, "grid points per gain")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list config presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
		},
	}

	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "list built-in scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range automation.BuiltinNames() {
				sc, err := automation.Builtin(name)
				if err != nil {
					return err
				}
				fmt.Printf("  %-16s %s\n", name, sc.Description)
			}
			return nil
		},
	}

	dumpCmd := &cobra.Command{
		Use:   "dump-scenario [name] [path]",
		Short: "write a built-in scenario to YAML as a starting point",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := automation.Builtin(args[0])
			if err != nil {
				return err
			}
			if err := refuseOverwrite(args[1]); err != nil {
				return err
			}
			return sc.Save(args[1])
		},
	}
	dumpCmd.Flags().BoolVar(&forceWrite, "force", false, "overwrite an existing file")

	initCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write the effective config to a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := refuseOverwrite(args[0]); err != nil {
				return err
			}
			return config.Save(args[0], cfg)
		},
	}
	initCmd.Flags().BoolVar(&forceWrite, "force", false, "overwrite an existing file")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, analyzeCmd, compareCmd, tuneCmd, presetsCmd, scenariosCmd, dumpCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "plant integrator")
	cmd.Flags().Float64Var(&period, "period", config.DefaultUpdatePeriod, "control period (s)")
	cmd.Flags().Float64Var(&plantPeriod, "plant-period", config.DefaultPlantPeriod, "plant step (s)")
	cmd.Flags().StringVar(&alliance, "alliance", "", "blue or red")
	cmd.Flags().Float64Var(&kp, "kp", 0, "heading kp")
	cmd.Flags().Float64Var(&ki, "ki", 0, "heading ki")
	cmd.Flags().Float64Var(&kd, "kd", 0, "heading kd")
}

func refuseOverwrite(path string) error {
	if forceWrite {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s exists, use --force to overwrite", path)
	}
	return nil
}
