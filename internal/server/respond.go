package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/KaramelBytes/regresslab/internal/quiz"
	"github.com/KaramelBytes/regresslab/internal/regression"
	"github.com/go-playground/validator/v10"
)

// APIResponse is the JSON envelope for every /api response.
type APIResponse struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo describes a failed request.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes returned by the API.
const (
	CodeValidation       = "validation_error"
	CodeUnknownVariable  = "unknown_variable"
	CodeInsufficientData = "insufficient_data"
	CodeNoQuestion       = "no_question"
	CodeInternal         = "internal_error"
)

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIResponse{Success: status >= 200 && status < 300, Data: data})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIResponse{Error: &ErrorInfo{Code: code, Message: message}})
}

// classify maps domain errors onto an HTTP status, an API code and a
// user-facing message.
func classify(err error) (int, string, string) {
	var ide *regression.InsufficientDataError
	switch {
	case errors.Is(err, regression.ErrSameVariable):
		return http.StatusBadRequest, CodeValidation, regression.ValidationMessage
	case errors.Is(err, regression.ErrUnknownColumn):
		return http.StatusBadRequest, CodeUnknownVariable, err.Error()
	case errors.As(err, &ide):
		return http.StatusUnprocessableEntity, CodeInsufficientData, err.Error()
	case errors.Is(err, quiz.ErrNoQuestion):
		return http.StatusConflict, CodeNoQuestion, err.Error()
	}
	return http.StatusInternalServerError, CodeInternal, "internal server error"
}

func respondDomainError(w http.ResponseWriter, err error) {
	status, code, msg := classify(err)
	respondError(w, status, code, msg)
}

var validate = validator.New()

// validateRequest checks struct tags and flattens the failures into one message.
func validateRequest(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Field())
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "nefield":
		return regression.ValidationMessage
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func decodeJSON(r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<16)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
