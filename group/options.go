package group

import "log/slog"

// AnomalyPolicy decides what happens when a merge does not grow a set.
type AnomalyPolicy uint8

const (
	// AnomalyLog reports the anomaly and continues.
	AnomalyLog AnomalyPolicy = iota
	// AnomalyFail reports the anomaly and aborts with an *AnomalyError.
	AnomalyFail
)

func (p AnomalyPolicy) String() string {
	switch p {
	case AnomalyLog:
		return "log"
	case AnomalyFail:
		return "fail"
	default:
		return "unknown"
	}
}

// AnomalyHandler receives every detected anomaly, regardless of policy.
type AnomalyHandler func(a Anomaly)

type options struct {
	logger    *slog.Logger
	policy    AnomalyPolicy
	onAnomaly AnomalyHandler
}

// Option configures a Grouper.
type Option func(*options)

// WithLogger sets the logger anomalies are reported to.
// If nil is passed, logging is disabled.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = slog.New(slog.DiscardHandler)
		}
		o.logger = l
	}
}

// WithAnomalyPolicy selects how anomalous merges are treated.
func WithAnomalyPolicy(p AnomalyPolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithAnomalyHandler installs an additional diagnostic sink.
func WithAnomalyHandler(h AnomalyHandler) Option {
	return func(o *options) {
		o.onAnomaly = h
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger: slog.New(slog.DiscardHandler),
		policy: AnomalyLog,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}
