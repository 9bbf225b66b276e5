// Package metrics holds Prometheus instruments that are used across the
// service.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ServerConfigResolutions counts successful resolutions by the input
	// style that produced them: well_known, server_name, hs_url, or session.
	ServerConfigResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "server_config_resolutions_total",
			Help: "Homeserver configurations resolved at startup, by source.",
		}, []string{"source"})

	ServerConfigErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "server_config_errors_total",
			Help: "Homeserver configuration failures, by kind (shape, discovery, fallback).",
		}, []string{"kind"})

	DeprecatedOptions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deprecated_config_options_total",
			Help: "Deprecated client config options encountered, by option name.",
		}, []string{"option"})

	DiscoveryLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_lookups_total",
			Help: "Well-known lookups performed, by resulting homeserver state.",
		}, []string{"state"})

	DiscoveryCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "discovery_cache_hits_total",
			Help: "Well-known lookups served from the in-memory cache.",
		})

	ConfigLoadErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "client_config_load_errors_total",
			Help: "Client config.json load failures, by kind (syntax, load).",
		}, []string{"kind"})
)

func init() {
	prometheus.MustRegister(
		ServerConfigResolutions,
		ServerConfigErrors,
		DeprecatedOptions,
		DiscoveryLookups,
		DiscoveryCacheHits,
		ConfigLoadErrors,
	)
}
