package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/swervesim/internal/analysis"
	"github.com/san-kum/swervesim/internal/export"
	"github.com/san-kum/swervesim/internal/storage"
)

func openStore(cmd *cobra.Command) (*storage.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return storage.New(cfg.DataDir), nil
}

// resolveRun maps "latest" to the newest stored run.
func resolveRun(st *storage.Store, id string) (string, error) {
	if id != "latest" {
		return id, nil
	}
	return st.Latest()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tDURATION\tPERIOD\tINTEG\tKP\tERR RMS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.3fs\t%s\t%.2f\t%.4f\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Period,
			run.Integrator,
			run.Gains["kp"],
			run.Metrics["heading_error"],
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	runID, err := resolveRun(st, args[0])
	if err != nil {
		return err
	}

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	cycles, err := st.LoadCycles(runID)
	if err != nil {
		return err
	}
	if len(cycles) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("cycles: %d\n\n", len(cycles))

	for _, col := range column {
		data, err := storage.Series(cycles, col)
		if err != nil {
			return err
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(col),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	runID, err := resolveRun(st, args[0])
	if err != nil {
		return err
	}

	if svgPath == "" {
		return st.ExportJSON(os.Stdout, runID)
	}

	cycles, err := st.LoadCycles(runID)
	if err != nil {
		return err
	}
	if err := export.TrajectorySVGFile(svgPath, cycles, export.DefaultSVGOptions()); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", svgPath)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	runID, err := resolveRun(st, args[0])
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	cycles, err := st.LoadCycles(runID)
	if err != nil {
		return err
	}

	col := analyzeColumn
	data, err := storage.Series(cycles, col)
	if err != nil {
		return err
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n\n", meta.Scenario)

	ps := analysis.PowerSpectrum(data)
	if len(ps) < 2 {
		return fmt.Errorf("no data")
	}
	// above a quarter of the control rate is mostly quantization
	plotData := ps[:max(len(ps)/2, 2)]
	graph := asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("power spectrum (%s)", col)),
	)
	fmt.Println(graph)
	fmt.Println()

	hz, _, err := analysis.DominantFrequency(data, meta.Period)
	if err != nil {
		return err
	}
	fmt.Printf("dominant frequency: %.3f hz\n", hz)
	if hz > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/hz)
	}
	return nil
}
