package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/adapters/codec"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/adapters/mq/queue"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/importer"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/index"
	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/domain/protocol"
)

// maxScanBytes comfortably exceeds one version 40 QR code.
const maxScanBytes = 64 << 10

// ScanHandler accepts scanned strings.
type ScanHandler struct {
	deps Dependencies
}

// NewScanHandler creates a new scan handler.
func NewScanHandler(deps Dependencies) *ScanHandler {
	return &ScanHandler{deps: deps}
}

// HandleScan handles POST /scan. The body is the scanned text.
func (h *ScanHandler) HandleScan(w http.ResponseWriter, r *http.Request) {
	const op = "api.scan"
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(op, ErrBadRequest))
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxScanBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	scanned := strings.TrimSpace(string(body))
	if scanned == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("empty body")))
		return
	}

	summary, err := h.deps.Scan(r.Context(), scanned)
	if err != nil {
		status, code, kind := classify(err)
		writeError(w, status, code, WrapKind(op, kind, err))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// classify maps scan failures to a status, a stable code and a kind.
func classify(err error) (int, string, error) {
	switch {
	case errors.Is(err, queue.ErrFull):
		return http.StatusTooManyRequests, "backpressure", ErrBackpressure
	case errors.Is(err, importer.ErrTargetNotFound):
		return http.StatusNotFound, "target_not_found", ErrMissingRef
	case errors.Is(err, index.ErrUnknownTeam):
		return http.StatusUnprocessableEntity, "unknown_team", ErrMissingRef
	case errors.Is(err, protocol.ErrChecksumMismatch):
		return http.StatusUnprocessableEntity, "checksum_mismatch", ErrBadScan
	case errors.Is(err, protocol.ErrStructure),
		errors.Is(err, importer.ErrIncompleteAlliance),
		errors.Is(err, importer.ErrDuplicateTeam):
		return http.StatusUnprocessableEntity, "structure", ErrBadScan
	case errors.Is(err, protocol.ErrMalformed),
		errors.Is(err, protocol.ErrPayloadTooLarge),
		errors.Is(err, protocol.ErrUnknownType),
		errors.Is(err, index.ErrMalformedSlot),
		errors.Is(err, index.ErrOutOfRange),
		errors.Is(err, codec.ErrCodec):
		return http.StatusBadRequest, "bad_scan", ErrBadScan
	default:
		return http.StatusInternalServerError, "internal", ErrInternal
	}
}
