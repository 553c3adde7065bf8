package httpserver

import (
	"errors"
	"net/http"

	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/api"
	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/interfaces"
)

// HandleBindIdentity binds a device identity address to an ownership
// address under a node. Signed by the node's manager.
//
// URL format: POST /api/v1/nodes/{node_id}/identities
func (h *Handler) HandleBindIdentity(w http.ResponseWriter, r *http.Request) {
	defer timed(opIdentitiesBind)()

	body, reqErr := h.readBody(r)
	if reqErr != nil {
		h.writeError(w, opIdentitiesBind, reqErr.StatusCode, reqErr)
		return
	}
	caller, reqErr := h.authenticate(r, opIdentitiesBind, body)
	if reqErr != nil {
		h.writeError(w, opIdentitiesBind, reqErr.StatusCode, reqErr)
		return
	}

	var req api.BindIdentityRequest
	if reqErr := decodeJSON(body, &req); reqErr != nil {
		h.writeError(w, opIdentitiesBind, reqErr.StatusCode, reqErr)
		return
	}

	nodeID := interfaces.NodeID(r.PathValue("node_id"))
	if err := h.ledger.BindIdentity(caller, nodeID, req.Identity, req.Owner); err != nil {
		h.writeError(w, opIdentitiesBind, ledgerStatus(err), err)
		return
	}

	h.writeJSON(w, opIdentitiesBind, http.StatusCreated, nil)
}

// HandleUnbindIdentity removes an identity binding. Signed by the node's
// manager.
//
// URL format: DELETE /api/v1/nodes/{node_id}/identities/{identity}
func (h *Handler) HandleUnbindIdentity(w http.ResponseWriter, r *http.Request) {
	defer timed(opIdentitiesUnbind)()

	caller, reqErr := h.authenticate(r, opIdentitiesUnbind, nil)
	if reqErr != nil {
		h.writeError(w, opIdentitiesUnbind, reqErr.StatusCode, reqErr)
		return
	}

	identity, err := parseIdentity(r)
	if err != nil {
		h.writeError(w, opIdentitiesUnbind, http.StatusBadRequest, err)
		return
	}

	nodeID := interfaces.NodeID(r.PathValue("node_id"))
	if err := h.ledger.UnbindIdentity(caller, nodeID, identity); err != nil {
		h.writeError(w, opIdentitiesUnbind, ledgerStatus(err), err)
		return
	}

	h.writeJSON(w, opIdentitiesUnbind, http.StatusOK, nil)
}

// HandleGetIdentity returns the ownership address bound to an identity.
//
// URL format: GET /api/v1/nodes/{node_id}/identities/{identity}
func (h *Handler) HandleGetIdentity(w http.ResponseWriter, r *http.Request) {
	identity, err := parseIdentity(r)
	if err != nil {
		h.writeError(w, "identities.get", http.StatusBadRequest, err)
		return
	}

	nodeID := interfaces.NodeID(r.PathValue("node_id"))
	owner, err := h.ledger.IdentityOwner(nodeID, identity)
	if err != nil {
		h.writeError(w, "identities.get", ledgerStatus(err), err)
		return
	}

	h.writeJSON(w, "identities.get", http.StatusOK, api.IdentityOwnerResponse{Owner: owner})
}

// HandleListIdentities enumerates the identities bound to an ownership
// address under a node.
//
// URL format: GET /api/v1/nodes/{node_id}/identities?owner=0x...
func (h *Handler) HandleListIdentities(w http.ResponseWriter, r *http.Request) {
	ownerHex := r.URL.Query().Get("owner")
	if ownerHex == "" {
		h.writeError(w, "identities.list", http.StatusBadRequest, errors.New("missing owner parameter"))
		return
	}

	var owner interfaces.Address
	if err := owner.UnmarshalText([]byte(ownerHex)); err != nil {
		h.writeError(w, "identities.list", http.StatusBadRequest, errors.New("malformed owner address"))
		return
	}

	nodeID := interfaces.NodeID(r.PathValue("node_id"))
	identities := h.ledger.OwnerIdentities(nodeID, owner)
	if identities == nil {
		identities = []interfaces.Address{}
	}

	h.writeJSON(w, "identities.list", http.StatusOK, identities)
}

func parseIdentity(r *http.Request) (interfaces.Address, error) {
	var identity interfaces.Address
	if err := identity.UnmarshalText([]byte(r.PathValue("identity"))); err != nil {
		return interfaces.Address{}, errors.New("malformed identity address")
	}
	return identity, nil
}
