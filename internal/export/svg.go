// Package export renders stored runs as images.
package export

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/golang/geo/r2"

	"github.com/san-kum/swervesim/internal/drivetrain"
	"github.com/san-kum/swervesim/internal/storage"
)

// SVGOptions sizes the drawing. Field dimensions are in meters.
type SVGOptions struct {
	Width       int // px
	FieldLength float64
	FieldWidth  float64
	Stroke      string
	// Draw a heading tick every this many cycles; zero disables ticks.
	TickEvery int
}

func DefaultSVGOptions() SVGOptions {
	return SVGOptions{
		Width:       960,
		FieldLength: 16.541,
		FieldWidth:  8.211,
		Stroke:      "#00ccff",
		TickEvery:   25,
	}
}

type projector struct {
	scale  float64
	height float64
}

func (p projector) point(pt r2.Point) (float64, float64) {
	return pt.X * p.scale, p.height - pt.Y*p.scale
}

// TrajectorySVG draws the field, both speakers and the robot's path with
// heading ticks.
func TrajectorySVG(w io.Writer, cycles []storage.Cycle, opts SVGOptions) error {
	if len(cycles) < 2 {
		return fmt.Errorf("export: need at least two cycles, got %d", len(cycles))
	}
	scale := float64(opts.Width) / opts.FieldLength
	height := opts.FieldWidth * scale
	p := projector{scale: scale, height: height}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%.0f" viewBox="0 0 %d %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<rect x="0" y="0" width="%d" height="%.0f" fill="none" stroke="#444466" stroke-width="2"/>
`, opts.Width, height, opts.Width, height, opts.Width, height)

	for _, a := range []struct {
		alliance drivetrain.Alliance
		color    string
	}{{drivetrain.Blue, "#0077be"}, {drivetrain.Red, "#ff4757"}} {
		x, y := p.point(a.alliance.SpeakerLocation())
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>
`, x, y, 0.3*scale, a.color)
	}

	sb.WriteString(`<path fill="none" stroke="` + opts.Stroke + `" stroke-width="1.5" d="`)
	for i, c := range cycles {
		x, y := p.point(r2.Point{X: c.X, Y: c.Y})
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		fmt.Fprintf(&sb, "%s%.1f,%.1f ", cmd, x, y)
	}
	sb.WriteString("\"/>\n")

	if opts.TickEvery > 0 {
		sb.WriteString(`<g stroke="#ffcc00" stroke-width="1">` + "\n")
		for i := 0; i < len(cycles); i += opts.TickEvery {
			c := cycles[i]
			rad := c.HeadingDeg * math.Pi / 180
			from := r2.Point{X: c.X, Y: c.Y}
			to := from.Add(r2.Point{X: math.Cos(rad), Y: math.Sin(rad)}.Mul(0.4))
			x0, y0 := p.point(from)
			x1, y1 := p.point(to)
			fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
`, x0, y0, x1, y1)
		}
		sb.WriteString("</g>\n")
	}
	sb.WriteString("</svg>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func TrajectorySVGFile(path string, cycles []storage.Cycle, opts SVGOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := TrajectorySVG(f, cycles, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
