package slasher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	slashesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slashd_slashes_total",
		Help: "Total number of commitments slashed.",
	})
	slashAttemptsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slashd_slash_attempts_failed_total",
		Help: "Total number of failed slash attempts by reason.",
	}, []string{"reason"})
)
