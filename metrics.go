package loginapp

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	signups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loginapp_signups_total",
		Help: "Signup attempts by outcome",
	}, []string{"outcome"})

	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loginapp_logins_total",
		Help: "Login attempts by provider and outcome",
	}, []string{"provider", "outcome"})

	confirmations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loginapp_confirmations_total",
		Help: "Confirmation link visits by outcome",
	}, []string{"outcome"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loginapp_http_requests_total",
		Help: "HTTP requests by route and status code",
	}, []string{"route", "code"})
)
