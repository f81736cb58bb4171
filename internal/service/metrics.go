package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var extractionFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "expenselens_extraction_failures_total",
	Help: "Ingestions where extraction failed and a blank record was created for review.",
})
