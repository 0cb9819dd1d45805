package token

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	issuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "auth_tokens_issued_total",
		Help: "Number of issued tokens by service and kind.",
	}, []string{"service", "kind"})

	validationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "auth_token_validations_total",
		Help: "Number of token validations by service and outcome.",
	}, []string{"service", "outcome"})

	blacklistedTotal = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "auth_token_blacklist_insertions_total",
		Help: "Number of tokens invalidated by logout.",
	}, []string{"service"})
)
