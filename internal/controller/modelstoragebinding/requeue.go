package modelstoragebinding

import (
	"time"

	"github.com/cenkalti/backoff/v4"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/modelfabric/operator/internal/ferrors"
)

// Classify maps an adapter/validator error's Kind to the requeue policy the
// error-handling design specifies: Transient/NotReady/NotFound requeue
// after the constant fallback; Conflict/Unauthorized/Permanent set an error
// condition and requeue after the same fallback without retrying the
// faulty operation; Fatal sets a terminal condition and is not retried on
// a timer at all (only a spec change re-triggers reconciliation).
func Classify(err error, fallback time.Duration) (ctrl.Result, bool) {
	if err == nil {
		return ctrl.Result{}, false
	}
	if IsFatal(err) {
		return ctrl.Result{}, false
	}

	// A constant backoff policy is expressed via backoff.ConstantBackOff so
	// the fallback duration is produced through the same retry-policy
	// abstraction used anywhere else in the system that backs off, rather
	// than a bare time.Duration literal. Every Kind shares the same
	// fallback interval; what differs per Kind is whether the reconciler
	// re-attempts the faulty operation on that timer (see IsFatal).
	policy := backoff.NewConstantBackOff(fallback)
	return ctrl.Result{RequeueAfter: policy.NextBackOff()}, true
}

// IsFatal reports whether err is a terminal, non-retryable-until-spec-change failure.
func IsFatal(err error) bool {
	return ferrors.KindOf(err) == ferrors.Fatal
}
