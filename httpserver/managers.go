package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/api"
	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/interfaces"
)

// HandleAddManager binds a manager address to a node. Owner only.
//
// URL format: POST /api/v1/managers
func (h *Handler) HandleAddManager(w http.ResponseWriter, r *http.Request) {
	defer timed(opManagersAdd)()

	body, reqErr := h.readBody(r)
	if reqErr != nil {
		h.writeError(w, opManagersAdd, reqErr.StatusCode, reqErr)
		return
	}
	caller, reqErr := h.authenticate(r, opManagersAdd, body)
	if reqErr != nil {
		h.writeError(w, opManagersAdd, reqErr.StatusCode, reqErr)
		return
	}

	var req api.AddManagerRequest
	if reqErr := decodeJSON(body, &req); reqErr != nil {
		h.writeError(w, opManagersAdd, reqErr.StatusCode, reqErr)
		return
	}

	if err := h.ledger.AddNodeManager(caller, req.NodeID, req.Manager); err != nil {
		h.writeError(w, opManagersAdd, ledgerStatus(err), err)
		return
	}

	h.writeJSON(w, opManagersAdd, http.StatusCreated, api.ManagerBinding{NodeID: req.NodeID, Manager: req.Manager})
}

// HandleRemoveManager unbinds the manager of a node. Owner only.
//
// URL format: DELETE /api/v1/nodes/{node_id}/manager
func (h *Handler) HandleRemoveManager(w http.ResponseWriter, r *http.Request) {
	defer timed(opManagersRemove)()

	caller, reqErr := h.authenticate(r, opManagersRemove, nil)
	if reqErr != nil {
		h.writeError(w, opManagersRemove, reqErr.StatusCode, reqErr)
		return
	}

	nodeID := interfaces.NodeID(r.PathValue("node_id"))
	if err := h.ledger.RemoveNodeManager(caller, nodeID); err != nil {
		h.writeError(w, opManagersRemove, ledgerStatus(err), err)
		return
	}

	h.writeJSON(w, opManagersRemove, http.StatusOK, nil)
}

// HandleListManagers enumerates all node-to-manager bindings.
//
// URL format: GET /api/v1/managers
func (h *Handler) HandleListManagers(w http.ResponseWriter, r *http.Request) {
	nodeIDs := h.ledger.NodeIDs()
	bindings := make([]api.ManagerBinding, 0, len(nodeIDs))
	for _, nodeID := range nodeIDs {
		manager, err := h.ledger.NodeManager(nodeID)
		if err != nil {
			continue
		}
		bindings = append(bindings, api.ManagerBinding{NodeID: nodeID, Manager: manager})
	}

	h.writeJSON(w, "managers.list", http.StatusOK, bindings)
}

// HandleEvents returns the ordered event log suffix after the given
// sequence number.
//
// URL format: GET /api/v1/events?since=seq
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	var since uint64
	if sinceStr := r.URL.Query().Get("since"); sinceStr != "" {
		parsed, err := strconv.ParseUint(sinceStr, 10, 64)
		if err != nil {
			h.writeError(w, "events.list", http.StatusBadRequest, errors.New("malformed since parameter"))
			return
		}
		since = parsed
	}

	events := h.ledger.EventsSince(since)
	if events == nil {
		events = []interfaces.Event{}
	}
	h.writeJSON(w, "events.list", http.StatusOK, events)
}

// HandleStoreSnapshot serializes the full ledger state and persists it to
// artifact storage. Owner only.
//
// URL format: POST /api/v1/snapshot
func (h *Handler) HandleStoreSnapshot(w http.ResponseWriter, r *http.Request) {
	defer timed(opSnapshotStore)()

	caller, reqErr := h.authenticate(r, opSnapshotStore, nil)
	if reqErr != nil {
		h.writeError(w, opSnapshotStore, reqErr.StatusCode, reqErr)
		return
	}
	if !caller.Equal(h.ledger.Owner()) {
		h.writeError(w, opSnapshotStore, http.StatusForbidden, interfaces.ErrNotOwner)
		return
	}

	data, err := h.ledger.Snapshot()
	if err != nil {
		h.writeError(w, opSnapshotStore, http.StatusInternalServerError, err)
		return
	}

	id, err := h.storage.Store(r.Context(), data, interfaces.SnapshotArtifact)
	if err != nil {
		h.writeError(w, opSnapshotStore, http.StatusBadGateway, err)
		return
	}

	h.writeJSON(w, opSnapshotStore, http.StatusCreated, api.SnapshotResponse{ArtifactID: id})
}

// HandleRestoreSnapshot loads a snapshot from artifact storage and replaces
// the ledger state with it. Owner only.
//
// URL format: PUT /api/v1/snapshot
func (h *Handler) HandleRestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	defer timed(opSnapshotRestore)()

	body, reqErr := h.readBody(r)
	if reqErr != nil {
		h.writeError(w, opSnapshotRestore, reqErr.StatusCode, reqErr)
		return
	}
	caller, reqErr := h.authenticate(r, opSnapshotRestore, body)
	if reqErr != nil {
		h.writeError(w, opSnapshotRestore, reqErr.StatusCode, reqErr)
		return
	}

	var req api.RestoreRequest
	if reqErr := decodeJSON(body, &req); reqErr != nil {
		h.writeError(w, opSnapshotRestore, reqErr.StatusCode, reqErr)
		return
	}

	data, err := h.fetchSnapshot(r.Context(), req.ArtifactID)
	if err != nil {
		h.writeError(w, opSnapshotRestore, ledgerStatus(err), err)
		return
	}

	if err := h.ledger.Restore(caller, data); err != nil {
		h.writeError(w, opSnapshotRestore, ledgerStatus(err), err)
		return
	}

	h.writeJSON(w, opSnapshotRestore, http.StatusOK, nil)
}

func (h *Handler) fetchSnapshot(ctx context.Context, id interfaces.ArtifactID) ([]byte, error) {
	if id.IsZero() {
		return nil, errors.New("missing snapshot artifact id")
	}
	return h.storage.Fetch(ctx, id, interfaces.SnapshotArtifact)
}
