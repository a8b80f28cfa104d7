package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"wechat-cli/internal/envelope"
)

// writeEnvelope writes a JSON envelope with the given status code.
// Logs encoding failures internally using the provided context.
func writeEnvelope(ctx context.Context, w http.ResponseWriter, env envelope.Envelope, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.ErrorContext(ctx, "failed to encode JSON response", "error", err)
	}
}

// writeResult writes a success or failure envelope, picking the HTTP status
// from the mapped error code.
func writeResult(ctx context.Context, w http.ResponseWriter, data any, err error) {
	if err == nil {
		writeEnvelope(ctx, w, envelope.Success(data), http.StatusOK)
		return
	}

	env := envelope.Failure(err)
	writeEnvelope(ctx, w, env, statusFor(env.Error.Code))
}

// statusFor maps envelope error codes to HTTP status codes.
func statusFor(code string) int {
	switch code {
	case envelope.CodeMissingCredentials, envelope.CodeNotConfigured, envelope.CodeInvalidArgument:
		return http.StatusBadRequest
	case envelope.CodeNetwork, envelope.CodeRemoteAuth:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
