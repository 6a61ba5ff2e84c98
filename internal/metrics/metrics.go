// Package metrics holds prometheus collectors of the token lifecycle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tokenauth"

// Authentication results
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultExpired  = "expired"
	ResultError    = "error"
)

// Cache lookup results
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

var (
	TokensIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tokens",
		Name:      "issued_total",
		Help:      "The total number of issued tokens",
	})

	TokenConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tokens",
		Name:      "conflicts_total",
		Help:      "The total number of generated secrets that collided with stored ones",
	})

	IssuanceFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tokens",
		Name:      "issuance_failures_total",
		Help:      "The total number of failed token issues",
	})

	Authentications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tokens",
		Name:      "authentications_total",
		Help:      "The total number of token authentications by result",
	}, []string{"result"})

	TokensRevoked = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tokens",
		Name:      "revoked_total",
		Help:      "The total number of deleted tokens on logout",
	})

	TokensPurged = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tokens",
		Name:      "purged_total",
		Help:      "The total number of expired tokens removed by housekeeping",
	})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "The total number of token cache lookups by result",
	}, []string{"result"})
)
