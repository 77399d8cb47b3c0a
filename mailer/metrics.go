package mailer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var mailDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "loginapp_mail_deliveries_total",
	Help: "Mails by kind and outcome (sent, failed, dropped)",
}, []string{"kind", "outcome"})
