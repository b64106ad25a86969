package viz

import (
	"math"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s1"

	"github.com/san-kum/swervesim/internal/geom"
)

const brailleBlank = 0x2800

// braille dot bits by sub-row and sub-column
var dotBits = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Canvas is a grid of braille cells, each holding 2x4 dots.
type Canvas struct {
	Width, Height int // cells
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, Grid: make([][]rune, h)}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Dots is the canvas size in dots.
func (c *Canvas) Dots() (int, int) { return c.Width * 2, c.Height * 4 }

func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 || x >= c.Width*2 || y >= c.Height*4 {
		return
	}
	c.Grid[y/4][x/2] |= dotBits[y%4][x%2]
}

func (c *Canvas) Clear() {
	for _, row := range c.Grid {
		for j := range row {
			row[j] = brailleBlank
		}
	}
}

// Line draws with Bresenham.
func (c *Canvas) Line(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), -absInt(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for i, row := range c.Grid {
		b.WriteString(string(row))
		if i < len(c.Grid)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Field maps field meters onto a canvas, +x right and +y up.
type Field struct {
	*Canvas
	Length, Width float64 // m
}

func NewField(c *Canvas, length, width float64) *Field {
	return &Field{Canvas: c, Length: length, Width: width}
}

// Project converts a field point to dot coordinates.
func (f *Field) Project(p r2.Point) (int, int) {
	w, h := f.Dots()
	x := p.X / f.Length * float64(w-1)
	y := (1 - p.Y/f.Width) * float64(h-1)
	return int(math.Round(x)), int(math.Round(y))
}

func (f *Field) Segment(a, b r2.Point) {
	x0, y0 := f.Project(a)
	x1, y1 := f.Project(b)
	f.Line(x0, y0, x1, y1)
}

func (f *Field) Point(p r2.Point) {
	f.Set(f.Project(p))
}

func (f *Field) Border() {
	corners := []r2.Point{{X: 0, Y: 0}, {X: f.Length, Y: 0}, {X: f.Length, Y: f.Width}, {X: 0, Y: f.Width}}
	for i := range corners {
		f.Segment(corners[i], corners[(i+1)%len(corners)])
	}
}

// Robot draws the frame outline through the module locations and a
// heading tick from the center.
func (f *Field) Robot(pose geom.Pose, modules [4]r2.Point) {
	// FL, FR, BR, BL around the frame
	order := []int{0, 1, 3, 2}
	for i := range order {
		a := pose.Translation.Add(geom.Rotate(modules[order[i]], pose.Rotation))
		b := pose.Translation.Add(geom.Rotate(modules[order[(i+1)%len(order)]], pose.Rotation))
		f.Segment(a, b)
	}
	f.Arrow(pose.Translation, pose.Rotation, 0.6)
}

func (f *Field) Arrow(from r2.Point, dir s1.Angle, length float64) {
	f.Segment(from, from.Add(geom.Rotate(r2.Point{X: length}, dir)))
}

// Dashed draws every other quarter meter of a segment.
func (f *Field) Dashed(a, b r2.Point) {
	d := b.Sub(a)
	n := int(d.Norm() / 0.25)
	for i := 0; i < n; i += 2 {
		t0 := float64(i) / float64(n)
		t1 := float64(i+1) / float64(n)
		f.Segment(a.Add(d.Mul(t0)), a.Add(d.Mul(t1)))
	}
}
