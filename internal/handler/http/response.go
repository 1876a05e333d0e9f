package http

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

const msgServerError = "Server error"

// Response is the envelope every endpoint writes.
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Result  interface{} `json:"result"`
}

func respond(w http.ResponseWriter, code int, message string, result interface{}) {
	respondWithJSON(w, code, Response{Status: code, Message: message, Result: result})
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respond(w, code, message, nil)
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status":500,"message":"Server error","result":null}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondWithServiceError writes message with the status mapped from err.
// Unmapped errors are logged and reported as a generic server error.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error, message string) {
	code := mapErrorToStatusCode(err)
	if code == http.StatusInternalServerError {
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("Request failed")
		message = msgServerError
	}
	respondWithError(w, code, message)
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func formatValidationErrors(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			details[fe.Field()] = "is required"
		case "email":
			details[fe.Field()] = "must be a valid email address"
		case "min":
			details[fe.Field()] = "must be at least " + fe.Param() + " characters long"
		case "gt":
			details[fe.Field()] = "must be greater than " + fe.Param()
		case "gte":
			details[fe.Field()] = "must be greater than or equal to " + fe.Param()
		case "oneof":
			details[fe.Field()] = "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
		default:
			details[fe.Field()] = "is invalid"
		}
	}
	return details
}

// decodeJSON reads the body into dst and validates it. It writes the error
// response itself and reports whether the handler may continue. An empty
// body is accepted when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst interface{}, allowEmpty bool) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil && !(allowEmpty && errors.Is(err, io.EOF)) {
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}

	return validate(w, v, dst)
}

func validate(w http.ResponseWriter, v *validator.Validate, dst interface{}) bool {
	err := v.Struct(dst)
	if err == nil {
		return true
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		respond(w, http.StatusBadRequest, "Validation failed", formatValidationErrors(validationErrors))
		return false
	}

	log.Error().Err(err).Type("validation_error_type", err).Msg("Unexpected error type during validation")
	respondWithError(w, http.StatusInternalServerError, msgServerError)
	return false
}

// roundMoney rounds to cents for presentation.
func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
