// Package app wires the modelfabric-controller-manager cobra command:
// parse flags, init logging, build a controller-runtime manager, run it.
package app

import (
	"context"
	"flag"
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/component-base/cli/globalflag"
	"k8s.io/component-base/featuregate"
	controllerruntime "sigs.k8s.io/controller-runtime"

	"github.com/modelfabric/operator/cmd/modelfabric-controller-manager/app/options"
	"github.com/modelfabric/operator/internal/controller"
	"github.com/modelfabric/operator/pkg/log"
	fabricoptions "github.com/modelfabric/operator/pkg/options"
)

// NewControllerManagerCommand builds the root cobra.Command for the
// modelfabric-controller-manager binary.
func NewControllerManagerCommand(ctx context.Context) *cobra.Command {
	opts := options.NewControllerManagerOptions()
	cmd := &cobra.Command{
		Use:  "modelfabric-controller-manager",
		Long: "modelfabric-controller-manager reconciles Model, ModelStorage, and ModelStorageBinding objects and runs the placement optimizer.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if errs := opts.Validate(); len(errs) > 0 {
				return fmt.Errorf("invalid options: %v", errs)
			}

			log.Init(opts.LogOptions)
			controllerruntime.SetLogger(log.Std().Logr())

			env := fabricoptions.NewEnvBinding(opts.ConfigFile)
			env.Apply(opts.ControllerOptions, opts.KubeOptions)

			gate := featuregate.NewFeatureGate()
			for _, fg := range opts.FeatureGates {
				if err := gate.Set(fmt.Sprintf("%s=true", fg)); err != nil {
					log.Error(err, "failed to set feature gate", "featureGate", fg)
				}
			}

			kubeconfig := controllerruntime.GetConfigOrDie()
			mgr, err := controller.NewControllerManager(ctx, kubeconfig, controller.Config{
				HealthProbeBindAddress:   opts.HealthProbeBindAddress,
				MetricsBindAddress:       opts.MetricsBindAddress,
				RPCBindAddress:           opts.HttpOptions.Addr,
				Namespace:                opts.KubeOptions.Namespace,
				FieldManager:             opts.ControllerOptions.FieldManager,
				FallbackBackoff:          opts.ControllerOptions.Fallback(),
				ProbeTimeout:             opts.ControllerOptions.ProbeTimeout(),
				ProbeConcurrency:         opts.ControllerOptions.ProbeConcurrency,
				TelemetryDiscoverWorkers: opts.ControllerOptions.TelemetryDiscoverWorkers,
			})
			if err != nil {
				log.Error(err, "failed to new controller manager")
				return err
			}

			if opts.ConfigFile != "" {
				env.WatchConfig(opts.ControllerOptions, opts.KubeOptions, func(e fsnotify.Event) {
					log.Info("config file changed, options reloaded", "file", e.Name)
				})
			}

			if err = mgr.Start(ctx); err != nil {
				log.Error(err, "failed to start controller manager")
				return err
			}

			return nil
		},
	}

	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
	fs := cmd.Flags()
	namedfs := opts.Flags()
	globalflag.AddGlobalFlags(namedfs.FlagSet("global"), cmd.Name())
	for _, f := range namedfs.FlagSets {
		fs.AddFlagSet(f)
	}

	return cmd
}
