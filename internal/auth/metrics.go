// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vaidya Vault Contributors

package auth

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label for successful operations.
const OutcomeSuccess = "success"

// Operations is the counter for service operations by outcome.
// Use RegisterMetrics to register this with a Prometheus registry.
var Operations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "vault_auth_operations_total",
		Help: "Total number of authentication operations by outcome",
	},
	[]string{"operation", "outcome"},
)

// TokensIssued is the counter for single-use tokens issued by purpose.
var TokensIssued = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "vault_tokens_issued_total",
		Help: "Total number of single-use tokens issued by purpose",
	},
	[]string{"purpose"},
)

// TokensSwept is the counter for tokens removed by the sweeper.
var TokensSwept = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "vault_tokens_swept_total",
		Help: "Total number of consumed or expired single-use tokens deleted",
	},
)

// RegisterMetrics registers auth metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(Operations)
	reg.MustRegister(TokensIssued)
	reg.MustRegister(TokensSwept)
}

// recordOperation increments the operation counter. The outcome is the
// lower-cased error code, or "success".
func recordOperation(operation string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = strings.ToLower(ErrorCode(err))
		if outcome == "" {
			outcome = "error"
		}
	}
	Operations.WithLabelValues(operation, outcome).Inc()
}
