package storage

import (
	"fmt"
	"strconv"

	"github.com/san-kum/swervesim/internal/kinematics"
	"github.com/san-kum/swervesim/internal/sim"
)

// Cycle is one flattened control cycle as stored in cycles.csv. Angles are
// in degrees.
type Cycle struct {
	T          float64 `json:"t"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	HeadingDeg float64 `json:"heading_deg"`

	CmdVx    float64 `json:"cmd_vx"`
	CmdVy    float64 `json:"cmd_vy"`
	CmdOmega float64 `json:"cmd_omega"`

	Mode        string  `json:"mode"`
	Rate        float64 `json:"rate"`
	TargetDeg   float64 `json:"target_deg"`
	HeadingErr  float64 `json:"heading_err"`
	Desaturated bool    `json:"desaturated"`

	// resolved, robot-relative
	Vx    float64 `json:"vx"`
	Vy    float64 `json:"vy"`
	Omega float64 `json:"omega"`

	MeasuredVx    float64 `json:"meas_vx"`
	MeasuredVy    float64 `json:"meas_vy"`
	MeasuredOmega float64 `json:"meas_omega"`

	ModuleSpeed [kinematics.NumModules]float64 `json:"module_speed"`
	ModuleAngle [kinematics.NumModules]float64 `json:"module_angle_deg"`
}

var Columns = func() []string {
	cols := []string{
		"t", "x", "y", "heading_deg",
		"cmd_vx", "cmd_vy", "cmd_omega",
		"mode", "rate", "target_deg", "heading_err", "desaturated",
		"vx", "vy", "omega",
		"meas_vx", "meas_vy", "meas_omega",
	}
	for _, n := range kinematics.ModuleNames {
		cols = append(cols, n+"_speed")
	}
	for _, n := range kinematics.ModuleNames {
		cols = append(cols, n+"_angle_deg")
	}
	return cols
}()

func FromSample(s sim.Sample) Cycle {
	c := Cycle{
		T:             s.T,
		X:             s.Pose.X(),
		Y:             s.Pose.Y(),
		HeadingDeg:    s.Pose.Rotation.Degrees(),
		CmdVx:         s.Request.VelocityX,
		CmdVy:         s.Request.VelocityY,
		CmdOmega:      s.Request.RotationalRate,
		Mode:          s.Output.Rotation.Mode.String(),
		Rate:          s.Output.Rotation.Rate,
		TargetDeg:     s.Output.Rotation.Target.Degrees(),
		HeadingErr:    s.HeadingError(),
		Desaturated:   s.Output.Desaturated,
		Vx:            s.Output.Speeds.Vx,
		Vy:            s.Output.Speeds.Vy,
		Omega:         s.Output.Speeds.Omega,
		MeasuredVx:    s.Measured.Vx,
		MeasuredVy:    s.Measured.Vy,
		MeasuredOmega: s.Measured.Omega,
	}
	for i, st := range s.Output.States {
		c.ModuleSpeed[i] = st.Speed
		c.ModuleAngle[i] = st.Angle.Degrees()
	}
	return c
}

func (c Cycle) record() []string {
	rec := []string{
		formatFloat(c.T), formatFloat(c.X), formatFloat(c.Y), formatFloat(c.HeadingDeg),
		formatFloat(c.CmdVx), formatFloat(c.CmdVy), formatFloat(c.CmdOmega),
		c.Mode, formatFloat(c.Rate), formatFloat(c.TargetDeg), formatFloat(c.HeadingErr),
		strconv.FormatBool(c.Desaturated),
		formatFloat(c.Vx), formatFloat(c.Vy), formatFloat(c.Omega),
		formatFloat(c.MeasuredVx), formatFloat(c.MeasuredVy), formatFloat(c.MeasuredOmega),
	}
	for _, v := range c.ModuleSpeed {
		rec = append(rec, formatFloat(v))
	}
	for _, v := range c.ModuleAngle {
		rec = append(rec, formatFloat(v))
	}
	return rec
}

func parseRecord(rec []string) (Cycle, error) {
	if len(rec) != len(Columns) {
		return Cycle{}, fmt.Errorf("expected %d fields, got %d", len(Columns), len(rec))
	}

	var c Cycle
	var err error
	floats := []*float64{
		&c.T, &c.X, &c.Y, &c.HeadingDeg,
		&c.CmdVx, &c.CmdVy, &c.CmdOmega,
		nil, &c.Rate, &c.TargetDeg, &c.HeadingErr, nil,
		&c.Vx, &c.Vy, &c.Omega,
		&c.MeasuredVx, &c.MeasuredVy, &c.MeasuredOmega,
	}
	for i := range c.ModuleSpeed {
		floats = append(floats, &c.ModuleSpeed[i])
	}
	for i := range c.ModuleAngle {
		floats = append(floats, &c.ModuleAngle[i])
	}

	for i, dst := range floats {
		if dst == nil {
			continue
		}
		if *dst, err = strconv.ParseFloat(rec[i], 64); err != nil {
			return Cycle{}, fmt.Errorf("column %s: %w", Columns[i], err)
		}
	}
	c.Mode = rec[7]
	if c.Desaturated, err = strconv.ParseBool(rec[11]); err != nil {
		return Cycle{}, fmt.Errorf("column %s: %w", Columns[11], err)
	}
	return c, nil
}

// Series extracts one float column by name for plotting.
func Series(cycles []Cycle, column string) ([]float64, error) {
	idx := -1
	for i, col := range Columns {
		if col == column {
			idx = i
			break
		}
	}
	if idx < 0 || column == "mode" || column == "desaturated" {
		return nil, fmt.Errorf("storage: no numeric column %q", column)
	}

	out := make([]float64, len(cycles))
	for i, c := range cycles {
		v, err := strconv.ParseFloat(c.record()[idx], 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
