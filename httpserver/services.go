package httpserver

import (
	"net/http"

	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/api"
	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/interfaces"
)

// HandleCreateService registers a service under a node. An attached program
// is persisted to artifact storage and the ledger records its content ID.
// Signed by the node's manager.
//
// URL format: POST /api/v1/nodes/{node_id}/services
func (h *Handler) HandleCreateService(w http.ResponseWriter, r *http.Request) {
	defer timed(opServicesCreate)()

	body, reqErr := h.readBody(r)
	if reqErr != nil {
		h.writeError(w, opServicesCreate, reqErr.StatusCode, reqErr)
		return
	}
	caller, reqErr := h.authenticate(r, opServicesCreate, body)
	if reqErr != nil {
		h.writeError(w, opServicesCreate, reqErr.StatusCode, reqErr)
		return
	}

	var req api.CreateServiceRequest
	if reqErr := decodeJSON(body, &req); reqErr != nil {
		h.writeError(w, opServicesCreate, reqErr.StatusCode, reqErr)
		return
	}

	service := req.Service
	service.NodeID = interfaces.NodeID(r.PathValue("node_id"))

	if len(req.Program) > 0 {
		programID, err := h.storage.Store(r.Context(), req.Program, interfaces.ProgramArtifact)
		if err != nil {
			h.writeError(w, opServicesCreate, http.StatusBadGateway, err)
			return
		}
		service.ProgramID = programID
	}

	if err := h.ledger.CreateService(caller, service); err != nil {
		h.writeError(w, opServicesCreate, ledgerStatus(err), err)
		return
	}

	h.writeJSON(w, opServicesCreate, http.StatusCreated, api.CreateServiceResponse{Service: service})
}

// HandleRemoveService deletes a service. Signed by the node's manager.
//
// URL format: DELETE /api/v1/nodes/{node_id}/services/{service_id}
func (h *Handler) HandleRemoveService(w http.ResponseWriter, r *http.Request) {
	defer timed(opServicesRemove)()

	caller, reqErr := h.authenticate(r, opServicesRemove, nil)
	if reqErr != nil {
		h.writeError(w, opServicesRemove, reqErr.StatusCode, reqErr)
		return
	}

	nodeID := interfaces.NodeID(r.PathValue("node_id"))
	serviceID := r.PathValue("service_id")

	if err := h.ledger.RemoveService(caller, nodeID, serviceID); err != nil {
		h.writeError(w, opServicesRemove, ledgerStatus(err), err)
		return
	}

	h.writeJSON(w, opServicesRemove, http.StatusOK, nil)
}

// HandleGetService looks up a service.
//
// URL format: GET /api/v1/nodes/{node_id}/services/{service_id}
func (h *Handler) HandleGetService(w http.ResponseWriter, r *http.Request) {
	nodeID := interfaces.NodeID(r.PathValue("node_id"))
	serviceID := r.PathValue("service_id")

	service, err := h.ledger.Service(nodeID, serviceID)
	if err != nil {
		h.writeError(w, "services.get", ledgerStatus(err), err)
		return
	}

	h.writeJSON(w, "services.get", http.StatusOK, service)
}

// HandleGetServiceProgram fetches a service's program from artifact storage.
//
// URL format: GET /api/v1/nodes/{node_id}/services/{service_id}/program
func (h *Handler) HandleGetServiceProgram(w http.ResponseWriter, r *http.Request) {
	nodeID := interfaces.NodeID(r.PathValue("node_id"))
	serviceID := r.PathValue("service_id")

	service, err := h.ledger.Service(nodeID, serviceID)
	if err != nil {
		h.writeError(w, "services.program", ledgerStatus(err), err)
		return
	}
	if service.ProgramID.IsZero() {
		h.writeError(w, "services.program", http.StatusNotFound, interfaces.ErrArtifactNotFound)
		return
	}

	program, err := h.storage.Fetch(r.Context(), service.ProgramID, interfaces.ProgramArtifact)
	if err != nil {
		h.writeError(w, "services.program", ledgerStatus(err), err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	w.Write(program)
}

// HandleListServices enumerates all registered services.
//
// URL format: GET /api/v1/services
func (h *Handler) HandleListServices(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, "services.list", http.StatusOK, h.ledger.Services())
}
