package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "auditbot"

func (c *Collector) registerPrometheus() error {
	counters := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "bot",
		Name:      "counter_total",
		Help:      "Bot counters by name (commands, guilds, failures).",
	}, []string{"name"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "command",
		Name:      "execution_seconds",
		Help:      "Command execution time.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"command", "outcome"})

	var err error
	if c.promCounters, err = register(c.registerer, counters); err != nil {
		return err
	}
	if c.promDuration, err = register(c.registerer, duration); err != nil {
		return err
	}
	return nil
}

// register returns the already registered collector when an identical one exists.
func register[T prometheus.Collector](r prometheus.Registerer, col T) (T, error) {
	if err := r.Register(col); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return col, err
	}
	return col, nil
}
