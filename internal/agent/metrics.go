package agent

import "github.com/prometheus/client_golang/prometheus"

// Interception outcomes.
const (
	OutcomeNetwork     = "network"
	OutcomeCache       = "cache"
	OutcomeShell       = "shell"
	OutcomeUnavailable = "unavailable"
	OutcomePassthrough = "passthrough"
)

var Requests = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "mediaqr_agent_requests_total",
	Help: "Intercepted requests by outcome.",
}, []string{"outcome"})

var CacheWriteFailures = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "mediaqr_agent_cache_write_failures_total",
	Help: "Responses that could not be stored in the static partition.",
})

var PartitionsDeleted = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "mediaqr_agent_partitions_deleted_total",
	Help: "Stale partitions deleted during activation.",
})

var LifecycleTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "mediaqr_agent_lifecycle_transitions_total",
	Help: "Agent lifecycle state changes.",
}, []string{"state"})

func init() {
	prometheus.MustRegister(Requests)
	prometheus.MustRegister(CacheWriteFailures)
	prometheus.MustRegister(PartitionsDeleted)
	prometheus.MustRegister(LifecycleTransitions)
}
