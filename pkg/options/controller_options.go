package options

import (
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*ControllerOptions)(nil)

// ControllerOptions carries the core reconciler/optimizer tuning knobs.
type ControllerOptions struct {
	// FallbackSecs is the constant reconcile requeue backoff
	// (FALLBACK_SECS, default 30).
	FallbackSecs int `json:"fallback-secs" mapstructure:"fallback-secs"`

	// FieldManager is the field-manager string stamped on every merge
	// patch and create (FIELD_MANAGER).
	FieldManager string `json:"field-manager" mapstructure:"field-manager"`

	// ProbeTimeoutMS bounds a single capacity probe (PROBE_TIMEOUT_MS,
	// default 5000).
	ProbeTimeoutMS int `json:"probe-timeout-ms" mapstructure:"probe-timeout-ms"`

	// ProbeConcurrency bounds how many candidates the optimizer probes in
	// parallel (PROBE_CONCURRENCY, default 8).
	ProbeConcurrency int `json:"probe-concurrency" mapstructure:"probe-concurrency"`

	// TelemetryDiscoverWorkers sizes the telemetry intake's background
	// discovery worker pool (TELEMETRY_DISCOVER_WORKERS, default 4).
	TelemetryDiscoverWorkers int `json:"telemetry-discover-workers" mapstructure:"telemetry-discover-workers"`
}

// NewControllerOptions returns a ControllerOptions populated with defaults.
func NewControllerOptions() *ControllerOptions {
	return &ControllerOptions{
		FallbackSecs:             30,
		FieldManager:             "modelfabric-controller-manager",
		ProbeTimeoutMS:           5000,
		ProbeConcurrency:         8,
		TelemetryDiscoverWorkers: 4,
	}
}

// Fallback returns FallbackSecs as a time.Duration, the form the
// reconciler and optimizer actually consume.
func (o *ControllerOptions) Fallback() time.Duration {
	return time.Duration(o.FallbackSecs) * time.Second
}

// ProbeTimeout returns ProbeTimeoutMS as a time.Duration.
func (o *ControllerOptions) ProbeTimeout() time.Duration {
	return time.Duration(o.ProbeTimeoutMS) * time.Millisecond
}

func (o *ControllerOptions) Validate() []error {
	var errs []error
	if o.FallbackSecs <= 0 {
		errs = append(errs, errInvalid("fallback-secs must be positive"))
	}
	if o.FieldManager == "" {
		errs = append(errs, errInvalid("field-manager must not be empty"))
	}
	if o.ProbeTimeoutMS <= 0 {
		errs = append(errs, errInvalid("probe-timeout-ms must be positive"))
	}
	return errs
}

func (o *ControllerOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.IntVar(&o.FallbackSecs, "fallback-secs", o.FallbackSecs, "Constant reconcile requeue backoff, in seconds.")
	fs.StringVar(&o.FieldManager, "field-manager", o.FieldManager, "Field-manager string stamped on every merge patch and create.")
	fs.IntVar(&o.ProbeTimeoutMS, "probe-timeout-ms", o.ProbeTimeoutMS, "Capacity probe deadline, in milliseconds.")
	fs.IntVar(&o.ProbeConcurrency, "probe-concurrency", o.ProbeConcurrency, "Maximum candidates the optimizer probes in parallel.")
	fs.IntVar(&o.TelemetryDiscoverWorkers, "telemetry-discover-workers", o.TelemetryDiscoverWorkers, "Worker pool size for telemetry background discovery.")
}

type validationError string

func (e validationError) Error() string { return string(e) }

func errInvalid(msg string) error { return validationError(msg) }
