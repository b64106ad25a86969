package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/swervesim/internal/dynamo"
)

var registry = map[string]func() dynamo.Integrator{
	"euler": func() dynamo.Integrator { return NewEuler() },
	"rk4":   func() dynamo.Integrator { return NewRK4() },
}

// New returns a fresh integrator by config name.
func New(name string) (dynamo.Integrator, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator %q (have %v)", name, Names())
	}
	return factory(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
