// Package metrics defines the custom Prometheus metrics of the marketplace
// API. Metrics register with the default registry on package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketplace"

// ChatEligibilityTotal counts chat eligibility decisions.
// Label:
//   - result: "allowed", "denied" or "undetermined" (directory failure)
var ChatEligibilityTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chat_eligibility_total",
		Help:      "Total number of chat eligibility checks, by result.",
	},
	[]string{"result"},
)

// LoginsTotal counts login attempts.
// Labels:
//   - kind: "user" or "admin"
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by kind and result.",
	},
	[]string{"kind", "result"},
)

// TokensRevokedTotal counts tokens revoked through logout.
var TokensRevokedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_revoked_total",
		Help:      "Total number of tokens revoked by logout.",
	},
)
