// Package metrics registers the engine's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TokensCredited counts RCN credited to customers by provenance.
	TokensCredited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rcn",
		Name:      "tokens_credited_total",
		Help:      "RCN credited to customers, labeled by source type.",
	}, []string{"source_type"})

	// TokensRedeemed counts RCN debited through completed redemptions.
	TokensRedeemed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rcn",
		Name:      "tokens_redeemed_total",
		Help:      "RCN debited through completed redemption sessions.",
	})

	// LimitRejections counts credits refused by the earning capacity guard.
	LimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rcn",
		Name:      "limit_rejections_total",
		Help:      "Credits rejected by the daily/monthly earning caps.",
	}, []string{"window"})

	// SessionsExpired counts sessions transitioned to expired by the sweep.
	SessionsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rcn",
		Name:      "sessions_expired_total",
		Help:      "Pending redemption sessions expired by the sweeper.",
	})

	// MintFailures counts settlement calls the external minter rejected.
	MintFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rcn",
		Name:      "mint_failures_total",
		Help:      "Failed mint calls against the external settlement layer.",
	})
)
