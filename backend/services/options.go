package services

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"eroz/backend/metrics"
)

// StatsMode selects how the recorder keeps UserStats current.
type StatsMode string

const (
	// StatsIncremental folds each submission into the running aggregates.
	StatsIncremental StatsMode = "incremental"
	// StatsRebuild recomputes the aggregates from the full session history.
	StatsRebuild StatsMode = "rebuild"
)

// ParseStatsMode accepts the configured value; empty means incremental.
func ParseStatsMode(s string) (StatsMode, error) {
	switch StatsMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", StatsIncremental:
		return StatsIncremental, nil
	case StatsRebuild:
		return StatsRebuild, nil
	}
	return "", fmt.Errorf("unknown stats mode %q", s)
}

type options struct {
	clock     Clock
	metrics   *metrics.Manager
	statsMode StatsMode
	log       *zap.SugaredLogger
}

// Option configures a service.
type Option func(*options)

func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

func WithMetrics(m *metrics.Manager) Option {
	return func(o *options) { o.metrics = m }
}

func WithStatsMode(mode StatsMode) Option {
	return func(o *options) { o.statsMode = mode }
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(o *options) { o.log = l }
}

func buildOptions(opts []Option) options {
	o := options{statsMode: StatsIncremental}
	for _, opt := range opts {
		opt(&o)
	}
	o.clock = orSystem(o.clock)
	if o.log == nil {
		o.log = zap.NewNop().Sugar()
	}
	if o.statsMode == "" {
		o.statsMode = StatsIncremental
	}
	return o
}
