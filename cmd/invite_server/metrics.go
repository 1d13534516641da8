//nolint:gochecknoglobals
package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rpcCallsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "screeninvite",
		Name:      "rpc_calls",
		Help:      "The total number of RPC calls",
	}, []string{"function", "result"})

	invitationsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "screeninvite",
		Name:      "invitations_stored",
		Help:      "The total number of invitations accepted",
	}, []string{"appointment_type"})
)
