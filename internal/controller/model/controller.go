// Package model reconciles Model objects: a structurally valid field schema
// or native-CRD reference flips a Model from Pending to Ready.
package model

import (
	"context"
	"fmt"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	apiextensionsclientset "k8s.io/apiextensions-apiserver/pkg/client/clientset/clientset"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/rest"
	"k8s.io/utils/ptr"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/modelfabric/operator/internal/ferrors"
	"github.com/modelfabric/operator/internal/store"
	corev1alpha1 "github.com/modelfabric/operator/pkg/apis/core/v1alpha1"
)

const (
	ConditionTypeReady = "Ready"
	ConditionTypeError = "Error"
)

// Reconciler drives Model objects from Pending to Ready.
type Reconciler struct {
	client.Client
	Scheme *runtime.Scheme

	Store *store.Store[*corev1alpha1.Model]
	crds  apiextensionsclientset.Interface
}

// NewReconciler builds a Model Reconciler. kubeconfig is used to build an
// apiextensions clientset for resolving NativeRef schemas; a nil kubeconfig
// disables NativeRef resolution (every NativeRef Model then stays Pending
// with a clear error), which keeps unit tests independent of a real API
// server discovery document.
func NewReconciler(cli client.Client, sche *runtime.Scheme, kubeconfig *rest.Config, st *store.Store[*corev1alpha1.Model]) (*Reconciler, error) {
	r := &Reconciler{Client: cli, Scheme: sche, Store: st}
	if kubeconfig != nil {
		crds, err := apiextensionsclientset.NewForConfig(kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("build apiextensions client: %w", err)
		}
		r.crds = crds
	}
	return r, nil
}

//+kubebuilder:rbac:groups=core.modelfabric.io,resources=models,verbs=get;list;watch;create;update;patch;delete
//+kubebuilder:rbac:groups=core.modelfabric.io,resources=models/status,verbs=get;update;patch
//+kubebuilder:rbac:groups=apiextensions.k8s.io,resources=customresourcedefinitions,verbs=get;list;watch

func (r *Reconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	logger := log.FromContext(ctx)

	var m corev1alpha1.Model
	if err := r.Get(ctx, req.NamespacedName, &m); err != nil {
		return ctrl.Result{}, client.IgnoreNotFound(err)
	}
	original := m.DeepCopy()

	fields, err := r.resolveFields(ctx, m.Spec.Schema)
	if err != nil {
		logger.Error(err, "model schema is not structurally valid")
		m.Status.State = corev1alpha1.ModelStatePending
		meta.SetStatusCondition(&m.Status.Conditions, metav1.Condition{
			Type:               ConditionTypeError,
			Status:             metav1.ConditionTrue,
			Reason:             string(ferrors.KindOf(err)),
			Message:            err.Error(),
			ObservedGeneration: m.Generation,
			LastTransitionTime: metav1.Now(),
		})
		if _, perr := r.Store.PatchStatus(ctx, &m, original); perr != nil {
			return ctrl.Result{}, perr
		}
		return ctrl.Result{}, nil
	}

	m.Status.State = corev1alpha1.ModelStateReady
	m.Status.Fields = fields
	m.Status.LastUpdated = ptr.To(metav1.Now())
	meta.SetStatusCondition(&m.Status.Conditions, metav1.Condition{
		Type:               ConditionTypeReady,
		Status:             metav1.ConditionTrue,
		Reason:             "SchemaValid",
		Message:            "model schema resolved",
		ObservedGeneration: m.Generation,
		LastTransitionTime: metav1.Now(),
	})
	meta.RemoveStatusCondition(&m.Status.Conditions, ConditionTypeError)

	if _, err := r.Store.PatchStatus(ctx, &m, original); err != nil {
		return ctrl.Result{}, err
	}
	return ctrl.Result{}, nil
}

// resolveFields validates schema and, for a NativeRef schema, discovers the
// field list from the referenced CRD's served OpenAPI v3 schema.
func (r *Reconciler) resolveFields(ctx context.Context, schema corev1alpha1.ModelSchema) ([]corev1alpha1.ModelField, error) {
	hasFields := len(schema.Fields) > 0
	hasNativeRef := schema.NativeRef != nil
	if hasFields == hasNativeRef {
		return nil, ferrors.New(ferrors.Permanent, "schema must set exactly one of fields or nativeRef")
	}
	if hasFields {
		return schema.Fields, nil
	}
	return r.discoverNativeFields(ctx, schema.NativeRef)
}

func (r *Reconciler) discoverNativeFields(ctx context.Context, ref *corev1alpha1.NativeSchemaRef) ([]corev1alpha1.ModelField, error) {
	if r.crds == nil {
		return nil, ferrors.New(ferrors.Permanent, "nativeRef resolution is unavailable without apiextensions access")
	}

	var crd *apiextensionsv1.CustomResourceDefinition
	crdList, err := r.crds.ApiextensionsV1().CustomResourceDefinitions().List(ctx, metav1.ListOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil, ferrors.New(ferrors.NotFound, "no CustomResourceDefinition matches nativeRef %s/%s %s", ref.APIGroup, ref.Version, ref.Kind)
		}
		return nil, ferrors.Wrap(ferrors.Transient, err, "list CustomResourceDefinitions")
	}

	for i := range crdList.Items {
		item := &crdList.Items[i]
		if item.Spec.Group != ref.APIGroup || item.Spec.Names.Kind != ref.Kind {
			continue
		}
		for _, v := range item.Spec.Versions {
			if v.Name == ref.Version {
				crd = item
				break
			}
		}
	}
	if crd == nil {
		return nil, ferrors.New(ferrors.NotFound, "no CustomResourceDefinition matches nativeRef %s/%s %s", ref.APIGroup, ref.Version, ref.Kind)
	}

	var versionSchema *apiextensionsv1.CustomResourceValidation
	for _, v := range crd.Spec.Versions {
		if v.Name == ref.Version {
			versionSchema = v.Schema
			break
		}
	}
	if versionSchema == nil || versionSchema.OpenAPIV3Schema == nil {
		return nil, ferrors.New(ferrors.Permanent, "nativeRef %s/%s %s has no structural schema", ref.APIGroup, ref.Version, ref.Kind)
	}

	specProps, ok := versionSchema.OpenAPIV3Schema.Properties["spec"]
	if !ok {
		return nil, ferrors.New(ferrors.Permanent, "nativeRef %s/%s %s schema has no spec", ref.APIGroup, ref.Version, ref.Kind)
	}
	return propsToFields(specProps.Properties), nil
}

func propsToFields(props map[string]apiextensionsv1.JSONSchemaProps) []corev1alpha1.ModelField {
	fields := make([]corev1alpha1.ModelField, 0, len(props))
	for name, prop := range props {
		fields = append(fields, corev1alpha1.ModelField{
			Name: name,
			Type: jsonSchemaTypeToFieldType(prop.Type),
		})
	}
	return fields
}

func jsonSchemaTypeToFieldType(t string) corev1alpha1.FieldType {
	switch t {
	case "string":
		return corev1alpha1.FieldTypeString
	case "integer":
		return corev1alpha1.FieldTypeInt
	case "number":
		return corev1alpha1.FieldTypeFloat
	case "boolean":
		return corev1alpha1.FieldTypeBool
	case "array":
		return corev1alpha1.FieldTypeArray
	case "object":
		return corev1alpha1.FieldTypeObject
	default:
		return corev1alpha1.FieldTypeString
	}
}

func (r *Reconciler) SetupWithManager(ctx context.Context, mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&corev1alpha1.Model{}).
		Complete(r)
}
