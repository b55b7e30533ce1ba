package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/fitmentworks/fitment-engine/engine/domain"
)

// maxBodyBytes bounds webhook payloads. Product payloads are small; the
// limit exists so a misbehaving sender cannot exhaust memory.
const maxBodyBytes = 1 << 20

// Result is the successful outcome of processing one webhook.
type Result struct {
	ProductID domain.ProductID
	Tags      []string
}

// Processor runs the full fitment pipeline over an authenticated payload.
type Processor interface {
	Process(ctx context.Context, body []byte, signature string) (Result, error)
}

// Handler is the HTTP endpoint for product webhooks.
type Handler struct {
	proc Processor
	log  *slog.Logger
}

// NewHandler wires a Processor behind the webhook endpoint.
func NewHandler(proc Processor, log *slog.Logger) *Handler {
	return &Handler{proc: proc, log: log}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mt != "application/json" {
		writeError(w, http.StatusUnsupportedMediaType, "expected application/json")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "body too large")
		return
	}

	res, err := h.proc.Process(r.Context(), body, r.Header.Get(SignatureHeader))
	if err != nil {
		status := statusFor(err)
		h.log.Warn("webhook rejected",
			"status", status,
			"error", err,
		)
		writeError(w, status, err.Error())
		return
	}

	// A no-op run has no tags; acknowledge with an empty list, not null.
	tags := res.Tags
	if tags == nil {
		tags = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"id":     res.ProductID,
		"tags":   tags,
	})
}

// statusFor maps pipeline sentinels onto HTTP statuses. Anything outside
// the taxonomy is a server fault.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrMalformedPayload):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDispatchFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"status": "error", "error": msg})
}
