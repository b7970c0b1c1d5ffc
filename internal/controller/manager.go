package controller

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/gorilla/mux"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	controllerruntime "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/manager"
	"sigs.k8s.io/controller-runtime/pkg/metrics/server"

	"github.com/modelfabric/operator/internal/adapter"
	"github.com/modelfabric/operator/internal/controller/model"
	"github.com/modelfabric/operator/internal/controller/modelstoragebinding"
	"github.com/modelfabric/operator/internal/controller/storage"
	"github.com/modelfabric/operator/internal/dispatcher"
	"github.com/modelfabric/operator/internal/optimizer"
	"github.com/modelfabric/operator/internal/prober"
	"github.com/modelfabric/operator/internal/secrets"
	"github.com/modelfabric/operator/internal/store"
	"github.com/modelfabric/operator/internal/telemetry"
	"github.com/modelfabric/operator/internal/validator"
	"github.com/modelfabric/operator/pkg/log"

	corev1alpha1 "github.com/modelfabric/operator/pkg/apis/core/v1alpha1"
)

var fabricScheme = runtime.NewScheme()

func init() {
	utilruntime.Must(scheme.AddToScheme(fabricScheme))
	utilruntime.Must(corev1alpha1.AddToScheme(fabricScheme))
	utilruntime.Must(apiextensionsv1.AddToScheme(fabricScheme))
}

// Controller is implemented by every reconciler this manager registers.
type Controller interface {
	SetupWithManager(ctx context.Context, mgr controllerruntime.Manager) error
}

// Config carries the tuning knobs NewControllerManager needs from
// pkg/options, kept as plain fields so this package never imports
// pkg/options itself (it stays a leaf, composed only by cmd/*).
type Config struct {
	HealthProbeBindAddress   string
	MetricsBindAddress       string
	RPCBindAddress           string
	Namespace                string
	FieldManager             string
	FallbackBackoff          time.Duration
	ProbeTimeout             time.Duration
	ProbeConcurrency         int
	TelemetryDiscoverWorkers int
}

// NewControllerManager builds the controller-runtime manager with every
// reconciler, the telemetry/optimizer subsystem, and the optimizer's RPC
// surface wired in.
func NewControllerManager(ctx context.Context, kubeconfig *rest.Config, cfg Config) (manager.Manager, error) {
	mgr, err := controllerruntime.NewManager(kubeconfig, controllerruntime.Options{
		Scheme:                 fabricScheme,
		Metrics:                server.Options{BindAddress: cfg.MetricsBindAddress},
		HealthProbeBindAddress: cfg.HealthProbeBindAddress,
	})
	if err != nil {
		log.Error(err, "failed to create controller manager")
		return nil, err
	}

	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		log.Error(err, "unable to set up health check")
		return nil, err
	}
	if err := mgr.AddReadyzCheck("readyz", healthz.Ping); err != nil {
		log.Error(err, "unable to set up ready check")
		return nil, err
	}

	if err := setupControllers(ctx, mgr, cfg); err != nil {
		return nil, err
	}

	return mgr, nil
}

func setupControllers(ctx context.Context, mgr manager.Manager, cfg Config) error {
	cli := mgr.GetClient()
	sche := mgr.GetScheme()

	models := store.New(cli, func() *corev1alpha1.Model { return &corev1alpha1.Model{} }, cfg.FieldManager)
	storages := store.New(cli, func() *corev1alpha1.ModelStorage { return &corev1alpha1.ModelStorage{} }, cfg.FieldManager)
	bindings := store.New(cli, func() *corev1alpha1.ModelStorageBinding { return &corev1alpha1.ModelStorageBinding{} }, cfg.FieldManager)

	resolver := secrets.New(cli)
	adapters := map[adapter.Kind]adapter.Adapter{
		adapter.KindDatabase: adapter.NewDatabaseAdapter(sql.Open, resolver, cfg.Namespace),
		adapter.KindNative:   adapter.NewNativeAdapter(cli),
		adapter.KindObject:   adapter.NewObjectAdapter(resolver, cfg.Namespace),
	}
	disp := dispatcher.New(adapters)
	val := validator.New(models, storages)

	registry := telemetry.NewRegistry()
	capProber := prober.New(disp, storages, cfg.ProbeTimeout)
	executor := telemetry.NewExecutor(registry, capProber, cfg.TelemetryDiscoverWorkers, log.Std())
	if err := mgr.Add(manager.RunnableFunc(executor.Run)); err != nil {
		return err
	}
	intake := telemetry.NewIntake(registry, executor)

	opt := optimizer.New(registry, capProber, storages, bindings, models, cfg.ProbeConcurrency, log.Std())

	modelReconciler, err := model.NewReconciler(cli, sche, mgr.GetConfig(), models)
	if err != nil {
		return err
	}

	controllers := []Controller{
		modelReconciler,
		storage.NewReconciler(cli, sche, storages, bindings, intake),
		modelstoragebinding.NewBindingReconciler(cli, sche, mgr.GetEventRecorderFor("modelstoragebinding"), bindings, val, disp, cfg.FallbackBackoff),
	}

	for _, ctl := range controllers {
		if err := ctl.SetupWithManager(ctx, mgr); err != nil {
			log.Error(err, "failed to setup controller", "controller", ctl)
			return err
		}
	}

	if cfg.RPCBindAddress != "" {
		router := mux.NewRouter()
		optimizer.NewRPCServer(opt).Routes(router)
		srv := &http.Server{Addr: cfg.RPCBindAddress, Handler: router}
		if err := mgr.Add(rpcRunnable{srv: srv}); err != nil {
			return err
		}
	}

	return nil
}

// rpcRunnable adapts a plain *http.Server to controller-runtime's
// manager.Runnable so the optimizer's RPC surface shares the manager's
// lifecycle and leader-election gating instead of needing its own goroutine
// management in cmd/modelfabric-controller-manager.
type rpcRunnable struct {
	srv *http.Server
}

func (r rpcRunnable) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := r.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return r.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
