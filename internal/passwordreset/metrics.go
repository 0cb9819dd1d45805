package passwordreset

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "password_reset_requests_total",
		Help: "Reset codes issued.",
	}, []string{"channel"})

	resetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "password_reset_attempts_total",
		Help: "Password reset attempts by outcome.",
	}, []string{"channel", "outcome"})
)
