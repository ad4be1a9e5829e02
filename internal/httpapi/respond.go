package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dohr-michael/agentbus/internal/core"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("httpapi: failed to encode response", "error", err)
	}
}

// writeErr maps a core.Error's Kind to the §7 status-code table and emits
// {kind, reason}. Anything that isn't a *core.Error is treated as Internal.
func writeErr(w http.ResponseWriter, err error) {
	var coreErr *core.Error
	if !errors.As(err, &coreErr) {
		slog.Error("httpapi: unmapped error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"kind": string(core.KindInternal), "reason": err.Error()})
		return
	}

	status := http.StatusInternalServerError
	switch coreErr.Kind {
	case core.KindNotFound:
		status = http.StatusNotFound
	case core.KindInvalidInput:
		status = http.StatusBadRequest
	case core.KindUnauthorized:
		status = http.StatusUnauthorized
	case core.KindConflict:
		status = http.StatusConflict
	case core.KindInternal:
		status = http.StatusInternalServerError
	}

	if status == http.StatusInternalServerError {
		slog.Error("httpapi: internal error", "error", coreErr)
	}
	writeJSON(w, status, map[string]string{"kind": string(coreErr.Kind), "reason": coreErr.Error()})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
