// Package secrets resolves the native Secret objects that
// adapter.DSNResolver and adapter.SecretResolver are narrowed to: a plain
// client.Client Get plus a documented key convention, no external
// secret-manager SDK.
package secrets

import (
	"context"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/modelfabric/operator/internal/ferrors"
	corev1alpha1 "github.com/modelfabric/operator/pkg/apis/core/v1alpha1"
)

const (
	keyDSN             = "dsn"
	keyAccessKeyID     = "accessKeyId"
	keySecretAccessKey = "secretAccessKey"
)

// Resolver reads DSNs and S3 credentials out of native Secret objects,
// implementing both adapter.DSNResolver and adapter.SecretResolver.
type Resolver struct {
	client client.Client
}

// New builds a Resolver over cli.
func New(cli client.Client) *Resolver {
	return &Resolver{client: cli}
}

// ResolveDSN implements adapter.DSNResolver, reading the "dsn" key of the
// secret named by ref in namespace.
func (r *Resolver) ResolveDSN(ctx context.Context, namespace string, ref corev1alpha1.SecretReference) (string, error) {
	data, err := r.get(ctx, namespace, ref.Name)
	if err != nil {
		return "", err
	}
	dsn, ok := data[keyDSN]
	if !ok {
		return "", ferrors.New(ferrors.Permanent, "secret %s/%s missing key %q", namespace, ref.Name, keyDSN)
	}
	return string(dsn), nil
}

// ResolveS3Credentials implements adapter.SecretResolver, reading the
// "accessKeyId"/"secretAccessKey" keys of the secret named by ref.
func (r *Resolver) ResolveS3Credentials(ctx context.Context, namespace string, ref corev1alpha1.SecretReference) (string, string, error) {
	data, err := r.get(ctx, namespace, ref.Name)
	if err != nil {
		return "", "", err
	}
	accessKeyID, ok := data[keyAccessKeyID]
	if !ok {
		return "", "", ferrors.New(ferrors.Permanent, "secret %s/%s missing key %q", namespace, ref.Name, keyAccessKeyID)
	}
	secretAccessKey, ok := data[keySecretAccessKey]
	if !ok {
		return "", "", ferrors.New(ferrors.Permanent, "secret %s/%s missing key %q", namespace, ref.Name, keySecretAccessKey)
	}
	return string(accessKeyID), string(secretAccessKey), nil
}

func (r *Resolver) get(ctx context.Context, namespace, name string) (map[string][]byte, error) {
	secret := &corev1.Secret{}
	if err := r.client.Get(ctx, types.NamespacedName{Namespace: namespace, Name: name}, secret); err != nil {
		if apierrors.IsNotFound(err) {
			return nil, ferrors.Wrap(ferrors.NotFound, err, "secret %s/%s", namespace, name)
		}
		return nil, ferrors.Wrap(ferrors.Transient, err, "secret %s/%s", namespace, name)
	}
	return secret.Data, nil
}
