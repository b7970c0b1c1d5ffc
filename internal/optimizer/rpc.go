package optimizer

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	corev1alpha1 "github.com/modelfabric/operator/pkg/apis/core/v1alpha1"
)

// RPCServer exposes the optimizer as synchronous HTTP/JSON endpoints over
// gorilla/mux, a thin wrapper with no business logic of its own — the
// Optimizer's Go methods remain the actual contract; nothing in this
// repository goes through HTTP to reach the optimizer.
type RPCServer struct {
	optimizer *Optimizer
}

// NewRPCServer builds an RPCServer over optimizer.
func NewRPCServer(optimizer *Optimizer) *RPCServer {
	return &RPCServer{optimizer: optimizer}
}

// Routes registers the two RPC endpoints onto router.
func (s *RPCServer) Routes(router *mux.Router) {
	router.HandleFunc("/v1/optimize/storage", s.handleOptimizeStorage).Methods(http.MethodPost)
	router.HandleFunc("/v1/optimize/model-storage-binding", s.handleOptimizeModelStorageBinding).Methods(http.MethodPost)
}

type optimizeStorageRequest struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
	Policy    string `json:"policy"`
}

type optimizeStorageResponse struct {
	StorageName string `json:"storageName,omitempty"`
	Found       bool   `json:"found"`
}

func (s *RPCServer) handleOptimizeStorage(w http.ResponseWriter, r *http.Request) {
	var req optimizeStorageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	name, ok, err := s.optimizer.OptimizeStorage(r.Context(), req.Namespace, req.Name, Policy(req.Policy))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, optimizeStorageResponse{StorageName: name, Found: ok})
}

type optimizeBindingRequest struct {
	Namespace      string  `json:"namespace"`
	ModelName      string  `json:"modelName"`
	StorageKind    *string `json:"storageKind,omitempty"`
	ResourceBytes  int64   `json:"resourceBytes,omitempty"`
	DeletionPolicy string  `json:"deletionPolicy,omitempty"`
	Policy         string  `json:"policy"`
}

type optimizeBindingResponse struct {
	BindingName string `json:"bindingName,omitempty"`
	Found       bool   `json:"found"`
}

func (s *RPCServer) handleOptimizeModelStorageBinding(w http.ResponseWriter, r *http.Request) {
	var req optimizeBindingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	opt := Request{
		Namespace:      req.Namespace,
		ModelName:      req.ModelName,
		ResourceBytes:  req.ResourceBytes,
		DeletionPolicy: corev1alpha1.DeletionPolicy(req.DeletionPolicy),
		Policy:         Policy(req.Policy),
	}
	if req.StorageKind != nil {
		kind := corev1alpha1.StorageKind(*req.StorageKind)
		opt.StorageKind = &kind
	}

	name, ok, err := s.optimizer.OptimizeModelStorageBinding(r.Context(), opt)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, optimizeBindingResponse{BindingName: name, Found: ok})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
