package sim

import (
	"context"
	"fmt"
	"sync"
)

// Builder assembles an independent loop. Loops share nothing, so each
// build must construct its own drivetrain, plant and metrics.
type Builder func() (*Loop, error)

// RunAll runs one loop per builder concurrently in virtual time. Results
// keep the builders' order.
func RunAll(ctx context.Context, cfg Config, builds []Builder) ([]*Result, error) {
	results := make([]*Result, len(builds))
	errs := make([]error, len(builds))

	var wg sync.WaitGroup
	for i, build := range builds {
		wg.Add(1)
		go func(idx int, build Builder) {
			defer wg.Done()

			loop, err := build()
			if err != nil {
				errs[idx] = fmt.Errorf("building run %d: %w", idx, err)
				return
			}
			results[idx], errs[idx] = loop.Run(ctx, cfg)
		}(i, build)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
