package sim

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/san-kum/swervesim/internal/drivetrain"
)

// Loop couples a drivetrain with its simulated plant. The plant steps at
// PlantPeriod and feeds estimates to the drivetrain; the control cycle runs
// every ControlPeriod.
type Loop struct {
	dt        *drivetrain.Drivetrain
	plant     *Plant
	driver    Driver
	metrics   []Metric
	observers []Observer
	logger    zerolog.Logger

	mu     sync.Mutex
	cycles int
}

func NewLoop(dt *drivetrain.Drivetrain, plant *Plant, driver Driver, logger zerolog.Logger) *Loop {
	return &Loop{
		dt:     dt,
		plant:  plant,
		driver: driver,
		logger: logger.With().Str("component", "sim").Logger(),
	}
}

func (l *Loop) AddMetric(m Metric)     { l.metrics = append(l.metrics, m) }
func (l *Loop) AddObserver(o Observer) { l.observers = append(l.observers, o) }

// SetDriver swaps the request source. Not safe while RunRealtime is active.
func (l *Loop) SetDriver(d Driver) { l.driver = d }

func (l *Loop) Drivetrain() *drivetrain.Drivetrain { return l.dt }
func (l *Loop) Plant() *Plant                      { return l.plant }

// Cycle runs one control cycle at time t.
func (l *Loop) Cycle(t float64) Sample {
	req := l.driver.Command(t, l.dt)
	l.dt.Periodic()
	out := l.dt.Apply(req, t)

	s := Sample{
		T:        t,
		Pose:     l.dt.Pose(),
		Request:  req,
		Output:   out,
		Measured: l.dt.CurrentChassisSpeeds(),
	}
	for _, m := range l.metrics {
		m.Observe(s)
	}
	for _, obs := range l.observers {
		obs.OnCycle(s)
	}

	l.mu.Lock()
	l.cycles++
	l.mu.Unlock()
	return s
}

// Run simulates cfg.Duration seconds in virtual time, as fast as possible.
func (l *Loop) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg, true); err != nil {
		return nil, err
	}
	if l.driver == nil {
		return nil, ErrNoDriver
	}

	cycles := int(math.Round(cfg.Duration / cfg.ControlPeriod))
	substeps := plantSubsteps(cfg)
	result := &Result{
		Samples: make([]Sample, 0, cycles),
		Metrics: make(map[string]float64),
	}
	for _, m := range l.metrics {
		m.Reset()
	}

	l.logger.Debug().Float64("duration", cfg.Duration).Int("cycles", cycles).
		Int("substeps", substeps).Msg("Run started")

	l.plant.Publish()
	h := cfg.ControlPeriod / float64(substeps)
	t := 0.0

loop:
	for i := 0; i < cycles; i++ {
		select {
		case <-ctx.Done():
			l.collect(result)
			return result, ctx.Err()
		default:
		}

		s, err := l.step(t, substeps, h, cfg.ValidateState)
		result.Samples = append(result.Samples, s)
		result.Cycles++
		if err != nil {
			result.Errors = append(result.Errors, err)
			l.logger.Error().Err(err).Msg("Plant diverged")
			break loop
		}
		t = float64(i+1) * cfg.ControlPeriod
	}

	l.collect(result)
	return result, nil
}

// Step runs one control cycle at t and advances the plant by one control
// period. The caller owns the clock.
func (l *Loop) Step(t float64, cfg Config) (Sample, error) {
	if err := validateConfig(cfg, false); err != nil {
		return Sample{}, err
	}
	if l.driver == nil {
		return Sample{}, ErrNoDriver
	}
	substeps := plantSubsteps(cfg)
	return l.step(t, substeps, cfg.ControlPeriod/float64(substeps), cfg.ValidateState)
}

func (l *Loop) step(t float64, substeps int, h float64, validate bool) (Sample, error) {
	s := l.Cycle(t)
	for j := 0; j < substeps; j++ {
		if err := l.plant.Step(h, validate); err != nil {
			return s, err
		}
	}
	return s, nil
}

// RunRealtime runs the plant and the control cycle on their own tickers until
// ctx is done or cfg.Duration elapses. A zero Duration runs until canceled.
func (l *Loop) RunRealtime(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg, false); err != nil {
		return nil, err
	}
	if l.driver == nil {
		return nil, ErrNoDriver
	}
	if cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, seconds(cfg.Duration))
		defer cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	result := &Result{Metrics: make(map[string]float64)}
	for _, m := range l.metrics {
		m.Reset()
	}
	l.plant.Publish()

	var (
		wg       sync.WaitGroup
		resultMu sync.Mutex
		start    = time.Now()
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(seconds(cfg.PlantPeriod))
		defer ticker.Stop()
		last := time.Now()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				h := now.Sub(last).Seconds()
				last = now
				if err := l.plant.Step(h, cfg.ValidateState); err != nil {
					l.logger.Error().Err(err).Msg("Plant diverged")
					resultMu.Lock()
					result.Errors = append(result.Errors, err)
					resultMu.Unlock()
					cancel()
					return
				}
			}
		}
	}()

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(seconds(cfg.ControlPeriod))
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s := l.Cycle(now.Sub(start).Seconds())
				resultMu.Lock()
				result.Samples = append(result.Samples, s)
				result.Cycles++
				resultMu.Unlock()
			}
		}
	}()

	wg.Wait()
	l.collect(result)

	return result, nil
}

// Cycles is the number of control cycles run so far.
func (l *Loop) Cycles() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cycles
}

func (l *Loop) collect(r *Result) {
	for _, m := range l.metrics {
		r.Metrics[m.Name()] = m.Value()
	}
}

func validateConfig(cfg Config, needDuration bool) error {
	if cfg.ControlPeriod <= 0 {
		return fmt.Errorf("%w: control period must be positive, got %f", ErrInvalidConfig, cfg.ControlPeriod)
	}
	if cfg.PlantPeriod <= 0 {
		return fmt.Errorf("%w: plant period must be positive, got %f", ErrInvalidConfig, cfg.PlantPeriod)
	}
	if cfg.PlantPeriod > cfg.ControlPeriod {
		return fmt.Errorf("%w: plant period %f exceeds control period %f", ErrInvalidConfig, cfg.PlantPeriod, cfg.ControlPeriod)
	}
	if needDuration && cfg.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalidConfig, cfg.Duration)
	}
	if cfg.Duration < 0 {
		return fmt.Errorf("%w: duration must not be negative, got %f", ErrInvalidConfig, cfg.Duration)
	}
	return nil
}

func plantSubsteps(cfg Config) int {
	n := int(math.Round(cfg.ControlPeriod / cfg.PlantPeriod))
	if n < 1 {
		n = 1
	}
	return n
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
