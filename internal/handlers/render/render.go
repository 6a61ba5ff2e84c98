// Package render writes JSON responses and binds JSON requests.
// Every error is written as ErrorResponse, so clients parse one shape.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
)

const (
	ValidationErrorType = "validation_failed"
	DecodingErrorType   = "decoding_failed"
	ServiceErrorType    = "service_error"
)

// Request bodies are tiny credentials, anything bigger is rejected
const MaxBodyBytes = 64 << 10

var validate = newValidator()

type Struct any

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func JSON(w http.ResponseWriter, data any) {
	write(w, http.StatusOK, data)
}

// Render ServiceError
func ServiceError(w http.ResponseWriter, message string, code int) {
	write(w, code, ErrorResponse{Error: ServiceErrorType, Message: message})
}

// Unauthorized is the only answer for a request with bad credentials
// Callers must not tell apart why credentials are bad
func Unauthorized(w http.ResponseWriter) {
	ServiceError(w, "Unauthorized", http.StatusUnauthorized)
}

func InternalError(w http.ResponseWriter) {
	ServiceError(w, "Internal server error", http.StatusInternalServerError)
}

// Render json DecodeError
func DecodeError(w http.ResponseWriter, err error) {
	code := http.StatusBadRequest
	var message string

	var typeErr *json.UnmarshalTypeError
	var sizeErr *http.MaxBytesError
	switch {
	case errors.As(err, &sizeErr):
		code = http.StatusRequestEntityTooLarge
		message = fmt.Sprintf("Request body is larger than %d bytes", sizeErr.Limit)
	case errors.Is(err, io.EOF):
		message = "Request body is empty"
	case errors.As(err, &typeErr):
		message = fmt.Sprintf("Invalid data type for field '%s'", typeErr.Field)
	default:
		message = fmt.Sprintf("Failed to parse JSON: %s", err.Error())
	}

	write(w, code, ErrorResponse{Error: DecodingErrorType, Message: message})
}

// Human readable message per validation tag
var tagMessages = map[string]func(fe validator.FieldError) string{
	"required": func(validator.FieldError) string { return "This field is required" },
	"min": func(fe validator.FieldError) string {
		return fmt.Sprintf("Value is too short (minimum %s)", fe.Param())
	},
	"max": func(fe validator.FieldError) string {
		return fmt.Sprintf("Value is too long (maximum %s)", fe.Param())
	},
	"username": func(validator.FieldError) string { return "Only letters, digits and '.', '_', '-', '@' allowed" },
}

// Render ValidationErrors
func ValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		message := "Invalid value"
		if msg, ok := tagMessages[fe.Tag()]; ok {
			message = msg(fe)
		}
		fields[fe.Field()] = message
	}

	write(w, http.StatusBadRequest, ErrorResponse{
		Error:   ValidationErrorType,
		Message: "Request validation failed",
		Fields:  fields,
	})
}

// BindAndValidate decodes JSON body (at most MaxBodyBytes) into T and validates it by struct tags
// On failure the error response is written already, caller only has to return
func BindAndValidate[T Struct](w http.ResponseWriter, r *http.Request) (T, error) {
	var value T

	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&value); err != nil {
		DecodeError(w, err)
		return value, err
	}

	if err := validate.Struct(value); err != nil {
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) {
			// T is not a struct: programming error, not a client one
			InternalError(w)
			return value, err
		}
		ValidationErrors(w, errs)
		return value, err
	}

	return value, nil
}

// Write data as json with the status code
// Nothing is written until data is encoded, so encoding failure still gets its own status
func write(w http.ResponseWriter, code int, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(append(raw, '\n'))
}
