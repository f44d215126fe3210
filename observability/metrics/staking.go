package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// StakingMetrics tracks the outcome of ledger operations and the size of the
// program token reserve.
type StakingMetrics struct {
	operations *prometheus.CounterVec
	reserve    prometheus.Gauge
}

var (
	stakingOnce     sync.Once
	stakingRegistry *StakingMetrics
)

// Staking returns the process-wide staking metric registry, registering the
// collectors on first use.
func Staking() *StakingMetrics {
	stakingOnce.Do(func() {
		stakingRegistry = &StakingMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "staking_operations_total",
				Help: "Count of staking ledger operations by type and outcome.",
			}, []string{"operation", "outcome"}),
			reserve: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "staking_program_reserve",
				Help: "Token balance currently held in program custody, smallest units.",
			}),
		}
		prometheus.MustRegister(
			stakingRegistry.operations,
			stakingRegistry.reserve,
		)
	})
	return stakingRegistry
}

// ObserveOperation records one completed operation with its outcome label.
func (m *StakingMetrics) ObserveOperation(operation string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
}

// SetReserve publishes the latest program reserve reading.
func (m *StakingMetrics) SetReserve(value float64) {
	if m == nil {
		return
	}
	m.reserve.Set(value)
}
