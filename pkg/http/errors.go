package http

import (
	"fmt"
	"net/http"
)

// Codes carried in AppError.Code. Validation failures use ERR_<TAG>, e.g.
// ERR_REQUIRED or ERR_GT.
const (
	CodeBadRequest      = "ERR_BAD_REQUEST"
	CodeUnknownAsset    = "ERR_UNKNOWN_ASSET"
	CodeDataUnavailable = "ERR_DATA_UNAVAILABLE"
	CodeRateLimited     = "ERR_RATE_LIMITED"
	CodeInternal        = "ERR_INTERNAL"
)

// AppError is one entry of an error envelope. Status selects the HTTP code
// and is not serialized.
type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Field   string                 `json:"field,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Status  int                    `json:"-"`
	Err     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

func NewAppError(code, field, message string, status int) *AppError {
	return &AppError{Code: code, Field: field, Message: message, Status: status}
}

func (e *AppError) WithParam(key string, value interface{}) *AppError {
	if e.Params == nil {
		e.Params = map[string]interface{}{}
	}
	e.Params[key] = value
	return e
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

func BadRequestError(message string) *AppError {
	return NewAppError(CodeBadRequest, "", message, http.StatusBadRequest)
}

// UnknownAssetError reports a symbol missing from the asset registry.
func UnknownAssetError(symbol string) *AppError {
	return NewAppError(CodeUnknownAsset, "", fmt.Sprintf("unknown asset %q", symbol), http.StatusBadRequest).
		WithParam("symbol", symbol)
}

// DataUnavailableError is a 422: the request was valid but market data
// needed to answer it could not be obtained.
func DataUnavailableError(message string) *AppError {
	return NewAppError(CodeDataUnavailable, "", message, http.StatusUnprocessableEntity)
}

func TooManyRequestsError(message string) *AppError {
	return NewAppError(CodeRateLimited, "", message, http.StatusTooManyRequests)
}

func InternalError(message string) *AppError {
	return NewAppError(CodeInternal, "", message, http.StatusInternalServerError)
}
