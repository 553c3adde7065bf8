package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/api"
	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/interfaces"
)

// HandleStoreCommitment stores a commitment record and its payload. The
// payload is persisted to artifact storage; the ledger records its content
// ID and keccak256 digest. Signed by the node's manager.
//
// URL format: POST /api/v1/nodes/{node_id}/commitments
func (h *Handler) HandleStoreCommitment(w http.ResponseWriter, r *http.Request) {
	defer timed(opCommitmentsStore)()

	body, reqErr := h.readBody(r)
	if reqErr != nil {
		h.writeError(w, opCommitmentsStore, reqErr.StatusCode, reqErr)
		return
	}
	caller, reqErr := h.authenticate(r, opCommitmentsStore, body)
	if reqErr != nil {
		h.writeError(w, opCommitmentsStore, reqErr.StatusCode, reqErr)
		return
	}

	var req api.StoreCommitmentRequest
	if reqErr := decodeJSON(body, &req); reqErr != nil {
		h.writeError(w, opCommitmentsStore, reqErr.StatusCode, reqErr)
		return
	}
	if len(req.Payload) == 0 {
		h.writeError(w, opCommitmentsStore, http.StatusBadRequest, errors.New("missing commitment payload"))
		return
	}

	commitment := req.Commitment
	commitment.NodeID = interfaces.NodeID(r.PathValue("node_id"))

	payloadID, err := h.storage.Store(r.Context(), req.Payload, interfaces.CommitmentArtifact)
	if err != nil {
		h.writeError(w, opCommitmentsStore, http.StatusBadGateway, err)
		return
	}
	commitment.PayloadID = payloadID
	copy(commitment.Digest[:], crypto.Keccak256(req.Payload))

	if err := h.ledger.StoreCommitment(caller, commitment); err != nil {
		h.writeError(w, opCommitmentsStore, ledgerStatus(err), err)
		return
	}

	// Ledger stamps StoredAt; re-read so the response carries it.
	if stored, err := h.ledger.Commitment(commitment.CommitmentID, commitment.NodeID); err == nil {
		commitment = stored
	}

	h.writeJSON(w, opCommitmentsStore, http.StatusCreated, api.StoreCommitmentResponse{Commitment: commitment})
}

// HandleRemoveCommitment deletes a commitment record. The payload stays in
// artifact storage; only the ledger entry is removed. Signed by the node's
// manager.
//
// URL format: DELETE /api/v1/nodes/{node_id}/commitments/{commitment_id}
func (h *Handler) HandleRemoveCommitment(w http.ResponseWriter, r *http.Request) {
	defer timed(opCommitmentsRemove)()

	caller, reqErr := h.authenticate(r, opCommitmentsRemove, nil)
	if reqErr != nil {
		h.writeError(w, opCommitmentsRemove, reqErr.StatusCode, reqErr)
		return
	}

	nodeID := interfaces.NodeID(r.PathValue("node_id"))
	commitmentID := r.PathValue("commitment_id")

	if err := h.ledger.RemoveCommitment(caller, commitmentID, nodeID); err != nil {
		h.writeError(w, opCommitmentsRemove, ledgerStatus(err), err)
		return
	}

	h.writeJSON(w, opCommitmentsRemove, http.StatusOK, nil)
}

// HandleGetCommitment looks up a commitment record.
//
// URL format: GET /api/v1/nodes/{node_id}/commitments/{commitment_id}
func (h *Handler) HandleGetCommitment(w http.ResponseWriter, r *http.Request) {
	nodeID := interfaces.NodeID(r.PathValue("node_id"))
	commitmentID := r.PathValue("commitment_id")

	commitment, err := h.ledger.Commitment(commitmentID, nodeID)
	if err != nil {
		h.writeError(w, "commitments.get", ledgerStatus(err), err)
		return
	}

	h.writeJSON(w, "commitments.get", http.StatusOK, commitment)
}

// HandleGetCommitmentPayload fetches a commitment's payload from artifact
// storage.
//
// URL format: GET /api/v1/nodes/{node_id}/commitments/{commitment_id}/payload
func (h *Handler) HandleGetCommitmentPayload(w http.ResponseWriter, r *http.Request) {
	nodeID := interfaces.NodeID(r.PathValue("node_id"))
	commitmentID := r.PathValue("commitment_id")

	commitment, err := h.ledger.Commitment(commitmentID, nodeID)
	if err != nil {
		h.writeError(w, "commitments.payload", ledgerStatus(err), err)
		return
	}

	payload, err := h.storage.Fetch(r.Context(), commitment.PayloadID, interfaces.CommitmentArtifact)
	if err != nil {
		h.writeError(w, "commitments.payload", ledgerStatus(err), err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

// HandleListCommitments enumerates all commitment records.
//
// URL format: GET /api/v1/commitments
func (h *Handler) HandleListCommitments(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, "commitments.list", http.StatusOK, h.ledger.Commitments())
}

// HandleSubmitProof appends a ZKP entry to the proof log. Proof payloads
// above the inline cap are offloaded to artifact storage and the entry
// records their content ID. Signed by the node's manager.
//
// URL format: POST /api/v1/nodes/{node_id}/proofs
func (h *Handler) HandleSubmitProof(w http.ResponseWriter, r *http.Request) {
	defer timed(opProofsSubmit)()

	body, reqErr := h.readBody(r)
	if reqErr != nil {
		h.writeError(w, opProofsSubmit, reqErr.StatusCode, reqErr)
		return
	}
	caller, reqErr := h.authenticate(r, opProofsSubmit, body)
	if reqErr != nil {
		h.writeError(w, opProofsSubmit, reqErr.StatusCode, reqErr)
		return
	}

	var entry interfaces.ZKPEntry
	if reqErr := decodeJSON(body, &entry); reqErr != nil {
		h.writeError(w, opProofsSubmit, reqErr.StatusCode, reqErr)
		return
	}
	entry.NodeID = interfaces.NodeID(r.PathValue("node_id"))

	if len(entry.Proof) > maxInlineProofSize {
		proofID, err := h.storage.Store(r.Context(), entry.Proof, interfaces.ProofArtifact)
		if err != nil {
			h.writeError(w, opProofsSubmit, http.StatusBadGateway, err)
			return
		}
		entry.ProofID = proofID
		entry.Proof = nil
	}

	index, err := h.ledger.SubmitProof(caller, entry)
	if err != nil {
		h.writeError(w, opProofsSubmit, ledgerStatus(err), err)
		return
	}

	h.writeJSON(w, opProofsSubmit, http.StatusCreated, api.SubmitProofResponse{Index: index, ProofID: entry.ProofID})
}

// HandleGetProof returns the proof log entry at an index.
//
// URL format: GET /api/v1/proofs/{index}
func (h *Handler) HandleGetProof(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.ParseUint(r.PathValue("index"), 10, 64)
	if err != nil {
		h.writeError(w, "proofs.get", http.StatusBadRequest, errors.New("malformed proof index"))
		return
	}

	entry, err := h.ledger.Proof(index)
	if err != nil {
		h.writeError(w, "proofs.get", ledgerStatus(err), err)
		return
	}

	h.writeJSON(w, "proofs.get", http.StatusOK, entry)
}

// HandleListProofs returns the full proof log in submission order.
//
// URL format: GET /api/v1/proofs
func (h *Handler) HandleListProofs(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, "proofs.list", http.StatusOK, h.ledger.Proofs())
}
