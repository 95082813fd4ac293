package bond

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	depositsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slashd_bond_deposits_total",
		Help: "Total number of accepted deposits.",
	})
	withdrawalsInitiatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slashd_bond_withdrawals_initiated_total",
		Help: "Total number of withdrawal requests recorded.",
	})
	withdrawalsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slashd_bond_withdrawals_completed_total",
		Help: "Total number of withdrawals paid out.",
	})
)
