package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// APIResponse is the envelope of every API answer. Errors travel in Data as
// a list of AppError.
type APIResponse struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeEnvelope(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, APIResponse{
		Status:  status,
		Message: http.StatusText(status),
		Data:    data,
	})
}

func SuccessResponse(c echo.Context, data interface{}) error {
	return writeEnvelope(c, http.StatusOK, data)
}

// BadRequestResponse answers 400 with the given validation errors.
func BadRequestResponse(c echo.Context, errs []*AppError) error {
	return writeEnvelope(c, http.StatusBadRequest, errs)
}

// AppErrorResponse writes err as a one-element error list. Anything that is
// not an AppError is reported as an opaque 500.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = InternalError(http.StatusText(http.StatusInternalServerError))
	}
	return writeEnvelope(c, appErr.Status, []*AppError{appErr})
}

// errorHandler renders errors that escape handlers (unknown routes, bad
// methods, recovered panics) in the same envelope as handler errors.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code < http.StatusInternalServerError {
		text := http.StatusText(he.Code)
		code := "ERR_" + strings.ToUpper(strings.ReplaceAll(text, " ", "_"))
		err = NewAppError(code, "", text, he.Code)
	}
	_ = AppErrorResponse(c, err)
}
