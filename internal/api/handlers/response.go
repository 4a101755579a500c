package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/zatekoja/servicehub/internal/application/services"
	"github.com/zatekoja/servicehub/internal/auth"
	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

const (
	maxJSONBodyBytes      = 1 << 20
	maxUploadBytes        = 10 << 20
	maxMultipartFormBytes = maxUploadBytes + 1<<20
)

// errorResponse is the body of every failed request
type errorResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// statusFor maps an error type to its HTTP status
func statusFor(t apperrors.ErrorType) int {
	switch t {
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case apperrors.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrorTypeForbidden:
		return http.StatusForbidden
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case apperrors.ErrorTypeConflict:
		return http.StatusConflict
	case apperrors.ErrorTypeRateLimited:
		return http.StatusTooManyRequests
	case apperrors.ErrorTypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondWithError writes err as an error envelope. Causes of internal and
// external failures are logged, never returned.
func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.NewInternalError("unexpected error", err)
	}

	status := statusFor(appErr.Type)
	body := errorResponse{Success: false, Message: appErr.Message, Errors: appErr.Fields}

	if status >= http.StatusInternalServerError {
		observability.LoggerFromContext(r.Context()).Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Msg("request failed")
		if appErr.Type == apperrors.ErrorTypeInternal {
			body.Message = "Internal server error"
		}
	}

	respondWithJSON(w, status, body)
}

func respondWithMessage(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, errorResponse{Success: statusCode < http.StatusBadRequest, Message: message})
}

// decodeJSON reads a single JSON object into dst, refusing unknown fields
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperrors.NewValidationError("Request body is required")
		case errors.As(err, &syntaxErr):
			return apperrors.NewValidationError("Request body is not valid JSON")
		case errors.As(err, &typeErr):
			return apperrors.NewValidationError("Invalid request body").
				WithField(typeErr.Field, fmt.Sprintf("must be a %s", typeErr.Type))
		case errors.As(err, &maxErr):
			return apperrors.NewValidationError("Request body is too large")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
			return apperrors.NewValidationError("Invalid request body").WithField(field, "unknown field")
		default:
			return apperrors.NewValidationError("Invalid request body")
		}
	}
	if dec.More() {
		return apperrors.NewValidationError("Request body must contain a single JSON object")
	}
	return nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

func parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartFormBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperrors.NewValidationError("Upload is too large").WithField("file", "must be at most 10 MiB")
		}
		return apperrors.NewValidationError("Invalid multipart form")
	}
	return nil
}

// formImage returns the first file present under one of names. Missing or
// empty files yield nil.
func formImage(r *http.Request, names ...string) (*services.ImageFile, error) {
	for _, name := range names {
		file, header, err := r.FormFile(name)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return nil, apperrors.NewValidationError("Invalid upload").WithField(name, "could not be read")
		}
		image, err := readImage(file, header)
		if err != nil {
			return nil, err
		}
		if !image.Empty() {
			return image, nil
		}
	}
	return nil, nil
}

func readImage(file multipart.File, header *multipart.FileHeader) (*services.ImageFile, error) {
	defer file.Close()
	if header.Size > maxUploadBytes {
		return nil, apperrors.NewValidationError("Upload is too large").WithField("file", "must be at most 10 MiB")
	}
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to read upload", err)
	}
	if len(data) > maxUploadBytes {
		return nil, apperrors.NewValidationError("Upload is too large").WithField("file", "must be at most 10 MiB")
	}
	return &services.ImageFile{Data: data, Filename: header.Filename}, nil
}

// formList reads a multi-valued form field. A single value may also carry a
// comma separated list.
func formList(r *http.Request, name string) []string {
	var out []string
	for _, value := range r.MultipartForm.Value[name] {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// principal returns the identity the access gate attached to the request
func principal(r *http.Request) (entities.Principal, error) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return entities.Principal{}, apperrors.NewUnauthorizedError("Authentication required")
	}
	return claims.Principal(), nil
}

// clientIP is the address used to key login attempts. X-Forwarded-For is
// client controlled, so it is read only behind a trusted proxy.
func clientIP(r *http.Request, trustForwarded bool) string {
	if trustForwarded {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			if ip := strings.TrimSpace(strings.Split(forwarded, ",")[0]); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// queryInt parses an optional non-negative integer query parameter
func queryInt(q url.Values, name string) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperrors.NewValidationError("Invalid query parameter").WithField(name, "must be a non-negative integer")
	}
	return n, nil
}

func pagination(q url.Values) (limit, offset int, err error) {
	if limit, err = queryInt(q, "limit"); err != nil {
		return 0, 0, err
	}
	if offset, err = queryInt(q, "offset"); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

// queryBool parses an optional boolean query parameter
func queryBool(q url.Values, name string) (bool, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperrors.NewValidationError("Invalid query parameter").WithField(name, "must be true or false")
	}
	return b, nil
}
