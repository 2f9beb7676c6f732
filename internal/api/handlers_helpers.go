// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/soundalike/internal/logging"
	"github.com/tomtom215/soundalike/internal/models"
	"github.com/tomtom215/soundalike/internal/recommend"
	"github.com/tomtom215/soundalike/internal/recommend/catalog"
	"github.com/tomtom215/soundalike/internal/recommend/embeddings"
	"github.com/tomtom215/soundalike/internal/validation"
)

// Error codes returned in APIError.Code.
const (
	CodeValidation         = validation.CodeValidation
	CodeNotReady           = "NOT_READY"
	CodeEncoderUnavailable = "ENCODER_UNAVAILABLE"
	CodeSyncInProgress     = "SYNC_IN_PROGRESS"
	CodeNotConfigured      = "NOT_CONFIGURED"
	CodeTimeout            = "TIMEOUT"
	CodeInternal           = "INTERNAL_ERROR"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// sanitizeLogValue removes control characters from strings to prevent log injection attacks.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a JSON response with proper headers
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Vary", "Accept-Encoding")
	if response.Status == "success" {
		w.Header().Set("Cache-Control", "public, max-age=60")
	} else {
		w.Header().Set("Cache-Control", "no-store")
	}

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("ETag", generateETag(data))

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondSuccess wraps data in the success envelope.
func respondSuccess(w http.ResponseWriter, data interface{}, start time.Time) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// generateETag creates a simple ETag from data using FNV-1a hash
func generateETag(data []byte) string {
	hash := uint32(2166136261)
	for _, b := range data {
		hash ^= uint32(b)
		hash *= 16777619
	}
	return `"` + strconv.FormatUint(uint64(hash), 16) + `"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", sanitizeLogValue(code)).Str("error", sanitizeLogValue(err.Error())).Msg("API Error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status: "error",
		Data:   nil,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
	})
}

// respondAPIError sends a prepared APIError, keeping its details.
func respondAPIError(w http.ResponseWriter, status int, apiErr *models.APIError) {
	respondJSON(w, status, &models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
		Error: apiErr,
	})
}

// respondEngineError maps engine and encoder errors to status codes.
func respondEngineError(w http.ResponseWriter, r *http.Request, err error) {
	logging.Ctx(r.Context()).Warn().Err(err).Str("path", sanitizeLogValue(r.URL.Path)).Msg("Request failed")

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, CodeTimeout, "Query timed out", nil)
	case errors.Is(err, embeddings.ErrSyncInProgress):
		respondError(w, http.StatusConflict, CodeSyncInProgress, "An embedding sync is already running", nil)
	case errors.Is(err, embeddings.ErrEncoderUnavailable):
		respondError(w, http.StatusServiceUnavailable, CodeEncoderUnavailable, "Text encoder unavailable", nil)
	case errors.Is(err, catalog.ErrLoadFailed):
		respondError(w, http.StatusServiceUnavailable, CodeNotReady, "Catalog snapshot unavailable", nil)
	case errors.Is(err, recommend.ErrNoMaintainer):
		respondError(w, http.StatusServiceUnavailable, CodeNotConfigured, "Embedding maintenance is not configured", nil)
	default:
		respondError(w, http.StatusInternalServerError, CodeInternal, "Internal server error", err)
	}
}

// validateRequest validates a struct using go-playground/validator.
// Returns nil if validation passes, or a models.APIError if validation fails.
//
//	req := SearchRequest{Title: q.Get("title"), Limit: limit}
//	if apiErr := validateRequest(&req); apiErr != nil {
//	    respondAPIError(w, http.StatusBadRequest, apiErr)
//	    return
//	}
func validateRequest(v interface{}) *models.APIError {
	return toAPIError(validation.ValidateStruct(v))
}

// validateVar validates one value against tag, naming it field in the error.
func validateVar(field string, value interface{}, tag string) *models.APIError {
	return toAPIError(validation.ValidateVar(field, value, tag))
}

func toAPIError(verr *validation.RequestValidationError) *models.APIError {
	if verr == nil {
		return nil
	}
	apiErr := verr.ToAPIError()
	return &models.APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}
}

// invalidParam builds a VALIDATION_ERROR for a value that failed to parse.
func invalidParam(field, value, message string) *models.APIError {
	return &models.APIError{
		Code:    CodeValidation,
		Message: message,
		Details: map[string]interface{}{
			"field": field,
			"value": value,
		},
	}
}

// parseID parses a positive int64 path or query value.
func parseID(field, raw string) (int64, *models.APIError) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, invalidParam(field, raw, field+" must be a positive integer")
	}
	return id, nil
}

// parseIDList parses a comma-separated list of positive ids. Empty elements
// are ignored so "1,,2," is accepted.
func parseIDList(field, raw string) ([]int64, *models.APIError) {
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		id, apiErr := parseID(field, part)
		if apiErr != nil {
			return nil, apiErr
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// getLimitParam reads the limit query parameter. Missing means def; a
// non-numeric value is a validation error rather than a silent default.
func getLimitParam(r *http.Request, def int) (int, *models.APIError) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	limit, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, invalidParam("limit", raw, "limit must be an integer")
	}
	return limit, nil
}

// decodeJSONBody decodes a bounded JSON body into dst.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) *models.APIError {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &models.APIError{
			Code:    CodeValidation,
			Message: "Invalid JSON body",
			Details: map[string]interface{}{"error": sanitizeLogValue(err.Error())},
		}
	}
	return nil
}

// withQueryTimeout derives the per-request query context.
func (h *Handler) withQueryTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.queryTimeout)
}
