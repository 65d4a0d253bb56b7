package service

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chassi-detect/predict-service/detections"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrPayloadTooLarge = errors.New("payload too large")
)

const (
	MsgNoFile          = "No file was sent."
	MsgInvalidImage    = "Could not open the image. Supported formats: JPEG, PNG, GIF, BMP, TIFF."
	MsgInvalidRequest  = "Malformed request body."
	MsgTooLarge        = "The uploaded file is too large."
	MsgBusy            = "The model is busy, try again later."
	MsgPredictionError = "Prediction failed."
	MsgNotFound        = "Not found."
	MsgMethod          = "Method not allowed."
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// inputError carries the client facing message for an ErrInvalidInput.
type inputError struct {
	code    string
	message string
	cause   error
}

func (e *inputError) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func (e *inputError) Is(target error) bool { return target == ErrInvalidInput }

func (e *inputError) Unwrap() error { return e.cause }

func invalidInput(code, message string, cause error) error {
	return &inputError{code: code, message: message, cause: cause}
}

// classify maps an error from the request path to a status, a stable code
// and a message safe to show to the client.
func classify(err error) (int, string, string) {
	var in *inputError
	switch {
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, "payload_too_large", MsgTooLarge
	case errors.As(err, &in):
		return http.StatusBadRequest, in.code, in.message
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest, "invalid_request", MsgInvalidRequest
	case errors.Is(err, detections.ErrPoolUnavailable), errors.Is(err, detections.ErrPoolClosed):
		return http.StatusServiceUnavailable, "model_busy", MsgBusy
	default:
		return http.StatusInternalServerError, "inference_error", MsgPredictionError
	}
}

func sendErrorResponse(w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Code:    code,
		Message: message,
	})
}
