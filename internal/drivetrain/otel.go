package drivetrain

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/san-kum/swervesim/internal/drivetrain"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
