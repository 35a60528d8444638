package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/adapter/http/middleware"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

const maxBodyBytes = 1 << 20

var errMissingActor = errors.New("missing actor")

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError writes err with the status of its class. Details of
// internal errors are not exposed.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status := mapDomainError(err)
	details := err.Error()
	if status == http.StatusInternalServerError {
		details = ""
	}
	writeError(w, status, message, details)
}

// mapDomainError maps domain error classes to HTTP status codes.
func mapDomainError(err error) int {
	if errors.Is(err, errMissingActor) {
		return http.StatusUnauthorized
	}

	switch domain.Classify(err) {
	case domain.ErrNotFound:
		return http.StatusNotFound
	case domain.ErrForbidden:
		return http.StatusForbidden
	case domain.ErrValidation:
		return http.StatusBadRequest
	case domain.ErrConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// actorID returns the acting user set by the actor middleware.
func actorID(r *http.Request) (string, error) {
	id, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return "", errMissingActor
	}
	return id, nil
}

// decode reads a JSON body into req and validates its tags.
func decode(w http.ResponseWriter, r *http.Request, req any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err)
	}
	return dto.Validate(req)
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// parseDateQuery parses an optional calendar day query parameter.
func parseDateQuery(r *http.Request, key string) (*time.Time, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil, nil
	}
	t, err := dto.ParseDate(val)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// retry runs op through the retrier when one is configured.
func retry(ctx context.Context, retrier usecase.Retrier, op func() error) error {
	if retrier == nil {
		return op()
	}
	return retrier.Retry(ctx, op)
}
