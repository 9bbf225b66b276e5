package serverconf

import (
	"go.uber.org/zap"

	"github.com/yanizio/vector/internal/config"
	"github.com/yanizio/vector/internal/metrics"
)

// Diagnostics receives structured notices about the config being resolved.
// They never change the outcome.
type Diagnostics interface {
	Deprecated(option, replacement string)
	Ignored(option, reason string)
}

// logDiagnostics writes notices to zap and counts deprecations.
type logDiagnostics struct {
	log *zap.SugaredLogger
}

func (d logDiagnostics) Deprecated(option, replacement string) {
	metrics.DeprecatedOptions.WithLabelValues(option).Inc()
	d.log.Warnw("DEPRECATED CONFIG OPTION: will not be accepted in the future",
		"option", option,
		"replacement", replacement,
	)
}

func (d logDiagnostics) Ignored(option, reason string) {
	d.log.Warnw("config option ignored", "option", option, "reason", reason)
}

// checkIgnored reports options that are set but have no effect.
func checkIgnored(raw config.Raw, src Source, d Diagnostics) {
	if _, legacy := src.(LegacyHSURLSource); legacy {
		return
	}
	if truthy(raw[config.KeyDefaultISURL]) {
		d.Ignored(config.KeyDefaultISURL, "only used together with "+config.KeyDefaultHSURL)
	}
}
