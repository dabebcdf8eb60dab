package richtext

import (
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

type serviceMetrics struct {
	conversions   *prometheus.CounterVec
	invalidValues prometheus.Counter
	rulesRuns     *prometheus.CounterVec
}

func newServiceMetrics(reg prometheus.Registerer) *serviceMetrics {
	return &serviceMetrics{
		conversions: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "richtext",
			Name:      "conversions_total",
			Help:      "Number of converted values by target format",
		}, []string{"target"})),
		invalidValues: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "richtext",
			Name:      "invalid_values_total",
			Help:      "Number of rejected malformed values",
		})),
		rulesRuns: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "richtext",
			Name:      "rules_runs_total",
			Help:      "Number of document rules script runs by result",
		}, []string{"result"})),
	}
}

// Повторная регистрация возвращает уже зарегистрированный коллектор
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		slog.Error("Register metric", "err", err)
	}
	return c
}
