// Package httputil is the single place where errors become HTTP responses.
// Handlers decode requests through it and funnel every failure into
// ErrorWriter so the client always sees the same envelope shape.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"runtime/debug"
	"syscall"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"apibase/pkg/apierror"
	"apibase/pkg/requestcontext"
	"apibase/pkg/sentinel"
)

// maxBodyBytes caps JSON request bodies at 1 MiB.
const maxBodyBytes = 1 << 20

// ErrorBody is the error half of the response envelope.
type ErrorBody struct {
	Code      apierror.Code `json:"code"`
	Message   string        `json:"message"`
	Details   any           `json:"details,omitempty"`
	RequestID string        `json:"requestId,omitempty"`
	Stack     string        `json:"stack,omitempty"`
}

// Envelope is the uniform error response shape. Success responses are written
// as plain JSON payloads; only failures get wrapped.
type Envelope struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Decode reads a size-limited JSON body into T. Failures come back as typed
// API errors so the caller can pass them straight to ErrorWriter.
func Decode[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	var payload T
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return payload, err
	}
	return payload, nil
}

// Classify maps any failure to (status, code, message, details) following a
// fixed precedence. First match wins; the fallback is a 500.
func Classify(err error) (int, apierror.Code, string, any) {
	// Typed API errors carry their own classification, including validation
	// failures and upload shape violations raised at call sites.
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		return apiErr.Status(), apiErr.Code, apiErr.Message, apiErr.Details
	}

	// Malformed identifiers (document-store object IDs).
	if errors.Is(err, primitive.ErrInvalidHex) {
		return http.StatusBadRequest, apierror.CodeInvalidID, "Invalid ID format", nil
	}

	// Unique-constraint violations surfaced by a store driver or sentinel.
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return http.StatusConflict, apierror.CodeDuplicateEntry, "Duplicate value",
			map[string]string{"constraint": pqErr.Constraint}
	}
	if mongo.IsDuplicateKeyError(err) || errors.Is(err, sentinel.ErrConflict) {
		return http.StatusConflict, apierror.CodeDuplicateEntry, "Duplicate value", nil
	}

	// Token failures; expiry is distinguishable from a bad signature.
	if errors.Is(err, jwt.ErrTokenExpired) {
		return http.StatusUnauthorized, apierror.CodeTokenExpired, "Authentication token has expired", nil
	}
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrTokenMalformed) ||
		errors.Is(err, jwt.ErrTokenUnverifiable) {
		return http.StatusUnauthorized, apierror.CodeInvalidToken, "Invalid authentication token", nil
	}

	// Malformed request bodies.
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF) {
		return http.StatusBadRequest, apierror.CodeInvalidJSON, "Invalid JSON in request body", nil
	}

	// Upload size violations from multipart parsing.
	if errors.Is(err, multipart.ErrMessageTooLarge) {
		return http.StatusBadRequest, apierror.CodeFileTooLarge, "File size exceeds the maximum allowed limit", nil
	}

	// Oversized payloads rejected by MaxBytesReader.
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return http.StatusRequestEntityTooLarge, apierror.CodePayloadTooLarge, "Request payload too large", nil
	}

	// Upstream failures: refused connections and timeouts.
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, sentinel.ErrUnavailable) {
		return http.StatusServiceUnavailable, apierror.CodeUnavailable, "Upstream service unavailable", nil
	}
	if isTimeout(err) {
		return http.StatusGatewayTimeout, apierror.CodeGatewayTimeout, "Upstream service timed out", nil
	}

	if errors.Is(err, sentinel.ErrNotFound) {
		return http.StatusNotFound, apierror.CodeNotFound, "Resource not found", nil
	}

	return http.StatusInternalServerError, apierror.CodeInternal, "Internal server error", nil
}

func isTimeout(err error) bool {
	if errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}
	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		return true
	}
	return false
}

// ErrorWriter normalizes failures into the error envelope, logs them with the
// right severity, and suppresses internal detail in production.
type ErrorWriter struct {
	logger     *slog.Logger
	production bool
}

// NewErrorWriter constructs an ErrorWriter. When production is true, 5xx
// responses replace message and details with a generic message; full detail
// is still logged server-side.
func NewErrorWriter(logger *slog.Logger, production bool) *ErrorWriter {
	return &ErrorWriter{logger: logger, production: production}
}

// Write classifies err and sends the envelope. If the response has already
// been started the error is logged and nothing further is written, so a
// handler failing mid-stream can never corrupt the reply with a second body.
func (ew *ErrorWriter) Write(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	status, code, message, details := Classify(err)
	requestID := requestcontext.RequestID(ctx)

	logAttrs := []any{
		"error", err.Error(),
		"error_type", errorName(err),
		"code", code,
		"status", status,
		"request_id", requestID,
		"method", r.Method,
		"url", r.URL.String(),
		"client_ip", requestcontext.ClientIP(ctx),
		"user_agent", requestcontext.UserAgent(ctx),
	}
	if status >= http.StatusInternalServerError {
		ew.logger.ErrorContext(ctx, "server error", logAttrs...)
	} else {
		ew.logger.WarnContext(ctx, "client error", logAttrs...)
	}

	if ww, ok := w.(middleware.WrapResponseWriter); ok && ww.BytesWritten() > 0 {
		// Too late to change the response; the log above is all we can do.
		return
	}

	body := ErrorBody{Code: code, Message: message, Details: details, RequestID: requestID}
	if status >= http.StatusInternalServerError {
		if ew.production {
			body.Message = "An error occurred while processing your request"
			body.Details = nil
		} else {
			body.Stack = string(debug.Stack())
		}
	}
	WriteJSON(w, status, Envelope{Success: false, Error: body})
}

func errorName(err error) string {
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		return string(apiErr.Code)
	}
	return fmt.Sprintf("%T", err)
}
