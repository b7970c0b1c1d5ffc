package options

import (
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/modelfabric/operator/pkg/log"
)

// EnvBinding feeds ControllerOptions and KubeOptions from the environment
// surface (FALLBACK_SECS, FIELD_MANAGER, PROBE_TIMEOUT_MS, NAMESPACE,
// PROBE_CONCURRENCY, TELEMETRY_DISCOVER_WORKERS), and from an optional
// config file, via viper.
type EnvBinding struct {
	v *viper.Viper
}

// NewEnvBinding builds an EnvBinding. configFile may be empty, in which
// case only the environment and flag defaults apply.
func NewEnvBinding(configFile string) *EnvBinding {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	bindEnv(v, "fallback-secs", "FALLBACK_SECS")
	bindEnv(v, "field-manager", "FIELD_MANAGER")
	bindEnv(v, "probe-timeout-ms", "PROBE_TIMEOUT_MS")
	bindEnv(v, "probe-concurrency", "PROBE_CONCURRENCY")
	bindEnv(v, "telemetry-discover-workers", "TELEMETRY_DISCOVER_WORKERS")
	bindEnv(v, "namespace", "NAMESPACE")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			log.Warn("failed to read config file, continuing with environment and flag defaults", "file", configFile, "error", err)
		}
	}

	return &EnvBinding{v: v}
}

func bindEnv(v *viper.Viper, key, env string) {
	if err := v.BindEnv(key, env); err != nil {
		log.Warn("failed to bind environment variable", "key", key, "env", env, "error", err)
	}
}

// Apply overlays any value viper resolved (from the config file or the
// environment) onto co and ko, so a flag left at its struct default can
// still be overridden by FALLBACK_SECS and friends without requiring the
// operator to pass a matching --flag.
func (b *EnvBinding) Apply(co *ControllerOptions, ko *KubeOptions) {
	if b.v.IsSet("fallback-secs") {
		co.FallbackSecs = b.v.GetInt("fallback-secs")
	}
	if b.v.IsSet("field-manager") {
		co.FieldManager = b.v.GetString("field-manager")
	}
	if b.v.IsSet("probe-timeout-ms") {
		co.ProbeTimeoutMS = b.v.GetInt("probe-timeout-ms")
	}
	if b.v.IsSet("probe-concurrency") {
		co.ProbeConcurrency = b.v.GetInt("probe-concurrency")
	}
	if b.v.IsSet("telemetry-discover-workers") {
		co.TelemetryDiscoverWorkers = b.v.GetInt("telemetry-discover-workers")
	}
	if b.v.IsSet("namespace") {
		ko.Namespace = b.v.GetString("namespace")
	}
}

// WatchConfig re-applies the config file's values to co/ko whenever it
// changes on disk, via viper's fsnotify-backed watch. onChange is invoked
// after the overlay, letting the caller log or react.
func (b *EnvBinding) WatchConfig(co *ControllerOptions, ko *KubeOptions, onChange func(fsnotify.Event)) {
	b.v.OnConfigChange(func(e fsnotify.Event) {
		b.Apply(co, ko)
		if onChange != nil {
			onChange(e)
		}
	})
	b.v.WatchConfig()
}
