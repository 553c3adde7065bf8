package httpserver

import (
	"errors"
	"net/http"

	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/api"
	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/interfaces"
)

// HandleCreateDevice registers a device under a node. Signed by the node's
// manager.
//
// URL format: POST /api/v1/nodes/{node_id}/devices
func (h *Handler) HandleCreateDevice(w http.ResponseWriter, r *http.Request) {
	defer timed(opDevicesCreate)()

	body, reqErr := h.readBody(r)
	if reqErr != nil {
		h.writeError(w, opDevicesCreate, reqErr.StatusCode, reqErr)
		return
	}
	caller, reqErr := h.authenticate(r, opDevicesCreate, body)
	if reqErr != nil {
		h.writeError(w, opDevicesCreate, reqErr.StatusCode, reqErr)
		return
	}

	var device interfaces.Device
	if reqErr := decodeJSON(body, &device); reqErr != nil {
		h.writeError(w, opDevicesCreate, reqErr.StatusCode, reqErr)
		return
	}
	device.NodeID = interfaces.NodeID(r.PathValue("node_id"))

	if err := h.ledger.CreateDevice(caller, device); err != nil {
		h.writeError(w, opDevicesCreate, ledgerStatus(err), err)
		return
	}

	h.writeJSON(w, opDevicesCreate, http.StatusCreated, device)
}

// HandleRemoveDevice deletes a device. Signed by the node's manager. The
// device's token, if minted, is burned with it.
//
// URL format: DELETE /api/v1/nodes/{node_id}/devices/{device_id}
func (h *Handler) HandleRemoveDevice(w http.ResponseWriter, r *http.Request) {
	defer timed(opDevicesRemove)()

	caller, reqErr := h.authenticate(r, opDevicesRemove, nil)
	if reqErr != nil {
		h.writeError(w, opDevicesRemove, reqErr.StatusCode, reqErr)
		return
	}

	nodeID := interfaces.NodeID(r.PathValue("node_id"))
	deviceID := r.PathValue("device_id")

	if err := h.ledger.RemoveDevice(caller, nodeID, deviceID); err != nil {
		h.writeError(w, opDevicesRemove, ledgerStatus(err), err)
		return
	}

	h.writeJSON(w, opDevicesRemove, http.StatusOK, nil)
}

// HandleGetDevice looks up a device.
//
// URL format: GET /api/v1/nodes/{node_id}/devices/{device_id}
func (h *Handler) HandleGetDevice(w http.ResponseWriter, r *http.Request) {
	nodeID := interfaces.NodeID(r.PathValue("node_id"))
	deviceID := r.PathValue("device_id")

	device, err := h.ledger.Device(nodeID, deviceID)
	if err != nil {
		h.writeError(w, "devices.get", ledgerStatus(err), err)
		return
	}

	h.writeJSON(w, "devices.get", http.StatusOK, device)
}

// HandleListDevices enumerates all registered devices.
//
// URL format: GET /api/v1/devices
func (h *Handler) HandleListDevices(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, "devices.list", http.StatusOK, h.ledger.Devices())
}

// HandleMintToken mints the ownership token of a device. Signed by the
// node's manager.
//
// URL format: POST /api/v1/nodes/{node_id}/devices/{device_id}/token
func (h *Handler) HandleMintToken(w http.ResponseWriter, r *http.Request) {
	defer timed(opTokensMint)()

	body, reqErr := h.readBody(r)
	if reqErr != nil {
		h.writeError(w, opTokensMint, reqErr.StatusCode, reqErr)
		return
	}
	caller, reqErr := h.authenticate(r, opTokensMint, body)
	if reqErr != nil {
		h.writeError(w, opTokensMint, reqErr.StatusCode, reqErr)
		return
	}

	var req api.MintTokenRequest
	if reqErr := decodeJSON(body, &req); reqErr != nil {
		h.writeError(w, opTokensMint, reqErr.StatusCode, reqErr)
		return
	}

	nodeID := interfaces.NodeID(r.PathValue("node_id"))
	deviceID := r.PathValue("device_id")

	tokenID, err := h.ledger.MintDeviceToken(caller, nodeID, deviceID, req.To)
	if err != nil {
		h.writeError(w, opTokensMint, ledgerStatus(err), err)
		return
	}

	// Ledger stamps MintedAt; re-read so the response carries it.
	token, err := h.ledger.Token(tokenID)
	if err != nil {
		token = interfaces.DeviceToken{TokenID: tokenID, NodeID: nodeID, DeviceID: deviceID, Owner: req.To}
	}
	h.writeJSON(w, opTokensMint, http.StatusCreated, token)
}

// HandleTransferToken moves a token to a new holder. Signed by the current
// holder.
//
// URL format: POST /api/v1/tokens/{token_id}/transfer
func (h *Handler) HandleTransferToken(w http.ResponseWriter, r *http.Request) {
	defer timed(opTokensTransfer)()

	body, reqErr := h.readBody(r)
	if reqErr != nil {
		h.writeError(w, opTokensTransfer, reqErr.StatusCode, reqErr)
		return
	}
	caller, reqErr := h.authenticate(r, opTokensTransfer, body)
	if reqErr != nil {
		h.writeError(w, opTokensTransfer, reqErr.StatusCode, reqErr)
		return
	}

	tokenID, err := parseTokenID(r)
	if err != nil {
		h.writeError(w, opTokensTransfer, http.StatusBadRequest, err)
		return
	}

	var req api.TransferTokenRequest
	if reqErr := decodeJSON(body, &req); reqErr != nil {
		h.writeError(w, opTokensTransfer, reqErr.StatusCode, reqErr)
		return
	}

	if err := h.ledger.TransferDeviceToken(caller, tokenID, req.To); err != nil {
		h.writeError(w, opTokensTransfer, ledgerStatus(err), err)
		return
	}

	h.writeJSON(w, opTokensTransfer, http.StatusOK, nil)
}

// HandleBurnToken destroys a token. Signed by the manager of the token's
// node.
//
// URL format: DELETE /api/v1/tokens/{token_id}
func (h *Handler) HandleBurnToken(w http.ResponseWriter, r *http.Request) {
	defer timed(opTokensBurn)()

	caller, reqErr := h.authenticate(r, opTokensBurn, nil)
	if reqErr != nil {
		h.writeError(w, opTokensBurn, reqErr.StatusCode, reqErr)
		return
	}

	tokenID, err := parseTokenID(r)
	if err != nil {
		h.writeError(w, opTokensBurn, http.StatusBadRequest, err)
		return
	}

	if err := h.ledger.BurnDeviceToken(caller, tokenID); err != nil {
		h.writeError(w, opTokensBurn, ledgerStatus(err), err)
		return
	}

	h.writeJSON(w, opTokensBurn, http.StatusOK, nil)
}

// HandleGetToken returns a token by identifier.
//
// URL format: GET /api/v1/tokens/{token_id}
func (h *Handler) HandleGetToken(w http.ResponseWriter, r *http.Request) {
	tokenID, err := parseTokenID(r)
	if err != nil {
		h.writeError(w, "tokens.get", http.StatusBadRequest, err)
		return
	}

	token, err := h.ledger.Token(tokenID)
	if err != nil {
		h.writeError(w, "tokens.get", ledgerStatus(err), err)
		return
	}

	h.writeJSON(w, "tokens.get", http.StatusOK, token)
}

// HandleListTokens enumerates minted tokens, optionally filtered by holder.
//
// URL format: GET /api/v1/tokens[?owner=0x...]
func (h *Handler) HandleListTokens(w http.ResponseWriter, r *http.Request) {
	if ownerHex := r.URL.Query().Get("owner"); ownerHex != "" {
		var owner interfaces.Address
		if err := owner.UnmarshalText([]byte(ownerHex)); err != nil {
			h.writeError(w, "tokens.list", http.StatusBadRequest, errors.New("malformed owner address"))
			return
		}
		tokens := h.ledger.TokensOf(owner)
		if tokens == nil {
			tokens = []interfaces.DeviceToken{}
		}
		h.writeJSON(w, "tokens.list", http.StatusOK, tokens)
		return
	}

	h.writeJSON(w, "tokens.list", http.StatusOK, h.ledger.Tokens())
}

func parseTokenID(r *http.Request) (interfaces.Hash32, error) {
	var tokenID interfaces.Hash32
	if err := tokenID.UnmarshalText([]byte(r.PathValue("token_id"))); err != nil {
		return interfaces.Hash32{}, errors.New("malformed token id")
	}
	return tokenID, nil
}
