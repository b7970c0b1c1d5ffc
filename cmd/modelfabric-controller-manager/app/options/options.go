// Package options composes the controller manager's option structs into
// cliflag.NamedFlagSets.
package options

import (
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/modelfabric/operator/pkg/log"
	fabricoptions "github.com/modelfabric/operator/pkg/options"
)

// ControllerManagerOptions is the full option set for the
// modelfabric-controller-manager binary.
type ControllerManagerOptions struct {
	ConcurrentReconciles    int
	HealthProbeBindAddress  string
	MetricsBindAddress      string
	ConfigFile              string
	FeatureGates            []string

	LogOptions        *log.Options
	KubeOptions       *fabricoptions.KubeOptions
	ControllerOptions *fabricoptions.ControllerOptions
	HttpOptions       *fabricoptions.HttpOptions
}

// NewControllerManagerOptions returns a ControllerManagerOptions populated
// with every sub-option struct's defaults.
func NewControllerManagerOptions() *ControllerManagerOptions {
	return &ControllerManagerOptions{
		ConcurrentReconciles:   5,
		HealthProbeBindAddress: ":9001",
		MetricsBindAddress:     "0",
		LogOptions:             log.NewOptions(),
		KubeOptions:            fabricoptions.NewKubeOptions(),
		ControllerOptions:      fabricoptions.NewControllerOptions(),
		HttpOptions:            fabricoptions.NewHttpOptions(),
	}
}

// Flags registers every sub-option struct's flags under its own named
// group.
func (o *ControllerManagerOptions) Flags() (fss cliflag.NamedFlagSets) {
	fs := fss.FlagSet("Controller Manager")
	fs.IntVar(&o.ConcurrentReconciles, "concurrent-reconciles", o.ConcurrentReconciles, "The number of concurrent reconciles. Not passed to any controller.")
	fs.StringVar(&o.HealthProbeBindAddress, "health-probe-bind-address", o.HealthProbeBindAddress, "The TCP address that the controller should bind to for serving health probes.")
	fs.StringVar(&o.MetricsBindAddress, "metrics-bind-address", o.MetricsBindAddress, "The TCP address the metrics endpoint binds to. \"0\" disables it.")
	fs.StringVar(&o.ConfigFile, "config", o.ConfigFile, "Path to an optional YAML/JSON config file, watched for changes.")
	fs.StringArrayVar(&o.FeatureGates, "feature-gates", o.FeatureGates, "Used to enable some features.")

	o.LogOptions.AddFlags(fss.FlagSet("Log"))
	o.KubeOptions.AddFlags(fss.FlagSet("Kube"))
	o.ControllerOptions.AddFlags(fss.FlagSet("Controller"))
	o.HttpOptions.AddFlags(fss.FlagSet("Optimizer RPC"))

	return fss
}

// Validate runs every sub-option struct's Validate, collecting all errors.
func (o *ControllerManagerOptions) Validate() []error {
	var errs []error
	errs = append(errs, o.KubeOptions.Validate()...)
	errs = append(errs, o.ControllerOptions.Validate()...)
	errs = append(errs, o.HttpOptions.Validate()...)
	return errs
}
