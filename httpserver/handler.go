// Package httpserver exposes the registry ledgers over a JSON HTTP API.
// Read endpoints are public; mutations carry a secp256k1 signature that is
// recovered to the caller address checked by the ledger.
package httpserver

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/api"
	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/cryptoutils"
	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/interfaces"
	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/metrics"
)

const (
	// maxBodySize is the maximum allowed request body size (1MB).
	maxBodySize = 1024 * 1024

	// maxInlineProofSize is the largest proof payload kept inline on the
	// ledger. Larger payloads are offloaded to artifact storage and the
	// entry records their content ID instead.
	maxInlineProofSize = 8 * 1024

	// defaultSignatureMaxAge bounds how far a request's signed-at timestamp
	// may drift from server time, in either direction.
	defaultSignatureMaxAge = 5 * time.Minute
)

// Operation names are shared with the client through the api package.
const (
	opManagersAdd       = api.OpManagersAdd
	opManagersRemove    = api.OpManagersRemove
	opDevicesCreate     = api.OpDevicesCreate
	opDevicesRemove     = api.OpDevicesRemove
	opServicesCreate    = api.OpServicesCreate
	opServicesRemove    = api.OpServicesRemove
	opCommitmentsStore  = api.OpCommitmentsStore
	opCommitmentsRemove = api.OpCommitmentsRemove
	opProofsSubmit      = api.OpProofsSubmit
	opIdentitiesBind    = api.OpIdentitiesBind
	opIdentitiesUnbind  = api.OpIdentitiesUnbind
	opTokensMint        = api.OpTokensMint
	opTokensTransfer    = api.OpTokensTransfer
	opTokensBurn        = api.OpTokensBurn
	opSnapshotStore     = api.OpSnapshotStore
	opSnapshotRestore   = api.OpSnapshotRestore
)

// RequestError carries an HTTP status code alongside the underlying error.
type RequestError struct {
	StatusCode int
	Err        error
}

// Error returns the message of the underlying error.
func (e *RequestError) Error() string {
	return e.Err.Error()
}

// Handler processes HTTP requests for the registry service.
type Handler struct {
	ledger    interfaces.RegistryLedger
	storage   interfaces.StorageBackend
	log       *slog.Logger
	sigMaxAge time.Duration
	now       func() time.Time
}

// NewHandler creates an HTTP request handler.
//
// Parameters:
//   - ledger: the registry ledgers backing the API
//   - storage: artifact storage for commitment payloads, offloaded proofs,
//     and snapshots
//   - log: structured logger
//   - sigMaxAge: accepted age of request signatures; zero selects the
//     default window
func NewHandler(ledger interfaces.RegistryLedger, storage interfaces.StorageBackend, log *slog.Logger, sigMaxAge time.Duration) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if sigMaxAge <= 0 {
		sigMaxAge = defaultSignatureMaxAge
	}
	return &Handler{
		ledger:    ledger,
		storage:   storage,
		log:       log,
		sigMaxAge: sigMaxAge,
		now:       time.Now,
	}
}

// readBody drains the request body with the size cap applied.
func (h *Handler) readBody(r *http.Request) ([]byte, *RequestError) {
	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxBodySize))
	if err != nil {
		return nil, &RequestError{StatusCode: http.StatusBadRequest, Err: errors.New("failed to read request body")}
	}
	return body, nil
}

// authenticate recovers the caller address from the request signature. The
// signed message is signedAt || 0x00 || path || 0x00 || body and the digest
// binds the operation name, so signatures cannot be replayed across
// operations, resources, or time.
func (h *Handler) authenticate(r *http.Request, operation string, body []byte) (interfaces.Address, *RequestError) {
	signatureHex := r.Header.Get(api.SignatureHeader)
	if signatureHex == "" {
		return interfaces.Address{}, &RequestError{StatusCode: http.StatusForbidden, Err: errors.New("missing signature header")}
	}
	signedAt := r.Header.Get(api.SignedAtHeader)
	if signedAt == "" {
		return interfaces.Address{}, &RequestError{StatusCode: http.StatusForbidden, Err: errors.New("missing signed-at header")}
	}

	signature, err := hex.DecodeString(signatureHex)
	if err != nil {
		return interfaces.Address{}, &RequestError{StatusCode: http.StatusBadRequest, Err: errors.New("malformed signature encoding")}
	}

	signedAtUnix, err := strconv.ParseInt(signedAt, 10, 64)
	if err != nil {
		return interfaces.Address{}, &RequestError{StatusCode: http.StatusBadRequest, Err: errors.New("malformed signed-at timestamp")}
	}
	if age := h.now().Sub(time.Unix(signedAtUnix, 0)); age > h.sigMaxAge || age < -h.sigMaxAge {
		return interfaces.Address{}, &RequestError{StatusCode: http.StatusForbidden, Err: errors.New("signature timestamp outside the accepted window")}
	}

	digest := cryptoutils.RequestDigest(operation, cryptoutils.RequestMessage(signedAt, r.URL.Path, body))
	caller, err := cryptoutils.RecoverSigner(digest, signature)
	if err != nil {
		h.log.Debug("Signature recovery failed", "err", err, slog.String("operation", operation))
		return interfaces.Address{}, &RequestError{StatusCode: http.StatusForbidden, Err: errors.New("signature verification failed")}
	}

	return caller, nil
}

// decodeJSON unmarshals a request body into out.
func decodeJSON(body []byte, out any) *RequestError {
	if err := json.Unmarshal(body, out); err != nil {
		return &RequestError{StatusCode: http.StatusBadRequest, Err: errors.New("malformed request body")}
	}
	return nil
}

// ledgerStatus maps ledger and storage errors to HTTP status codes.
func ledgerStatus(err error) int {
	switch {
	case errors.Is(err, interfaces.ErrDuplicateEntry):
		return http.StatusConflict
	case errors.Is(err, interfaces.ErrNotFound), errors.Is(err, interfaces.ErrArtifactNotFound):
		return http.StatusNotFound
	case errors.Is(err, interfaces.ErrNotOwner),
		errors.Is(err, interfaces.ErrNotNodeManager),
		errors.Is(err, interfaces.ErrNotTokenOwner):
		return http.StatusForbidden
	case errors.Is(err, interfaces.ErrBackendUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

// writeError emits a JSON error response and counts the failed request.
func (h *Handler) writeError(w http.ResponseWriter, operation string, status int, err error) {
	metrics.IncRequest(operation, status)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encodeErr := json.NewEncoder(w).Encode(api.ErrorResponse{Error: err.Error()}); encodeErr != nil {
		h.log.Error("Failed to encode error response", "err", encodeErr)
	}
}

// writeJSON emits a JSON response and counts the request.
func (h *Handler) writeJSON(w http.ResponseWriter, operation string, status int, v any) {
	metrics.IncRequest(operation, status)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

// timed records the handling latency for an operation.
func timed(operation string) func() {
	start := time.Now()
	return func() {
		metrics.ObserveRequestDuration(operation, time.Since(start))
	}
}
