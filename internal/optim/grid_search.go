package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/swervesim/internal/sim"
)

var ErrNoTrials = errors.New("optim: no successful trials")

// Trial is one point of the grid and the metric it scored.
type Trial struct {
	Params map[string]float64
	Score  float64
	Failed bool
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d params but %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("optim: empty range for %s", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Points enumerates the grid, last parameter varying fastest.
func (g *GridSearch) Points() []map[string]float64 {
	points := []map[string]float64{{}}
	for depth, name := range g.paramNames {
		next := make([]map[string]float64, 0, len(points)*len(g.ranges[depth]))
		for _, p := range points {
			for _, val := range g.ranges[depth] {
				np := make(map[string]float64, len(p)+1)
				for k, v := range p {
					np[k] = v
				}
				np[name] = val
				next = append(next, np)
			}
		}
		points = next
	}
	return points
}

// Search runs one loop per grid point concurrently and minimizes metricName.
// Runs that diverge score +Inf; a build error aborts the search. Trials
// come back best first.
func (g *GridSearch) Search(
	ctx context.Context,
	cfg sim.Config,
	build func(params map[string]float64) (*sim.Loop, error),
	metricName string,
) ([]Trial, error) {
	points := g.Points()
	trials := make([]Trial, len(points))
	builds := make([]sim.Builder, len(points))

	for i, p := range points {
		trials[i] = Trial{Params: p}
		builds[i] = func() (*sim.Loop, error) { return build(p) }
	}

	results, err := sim.RunAll(ctx, cfg, builds)
	if err != nil {
		return nil, err
	}

	ok := 0
	for i, r := range results {
		val, has := r.Metrics[metricName]
		if len(r.Errors) > 0 || !has || math.IsNaN(val) {
			trials[i].Failed = true
			trials[i].Score = math.Inf(1)
			continue
		}
		trials[i].Score = val
		ok++
	}
	if ok == 0 {
		return trials, ErrNoTrials
	}

	sort.SliceStable(trials, func(a, b int) bool { return trials[a].Score < trials[b].Score })
	return trials, nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}
