package http

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			if name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]; name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// BindRequest fills req from the request and validates it. Defaults are
// applied before binding so they only cover fields the client left out; an
// explicit zero survives and is validated as sent.
func BindRequest(c echo.Context, req interface{}) []*AppError {
	if err := defaults.Set(req); err != nil {
		return []*AppError{BadRequestError(err.Error())}
	}
	if err := c.Bind(req); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return []*AppError{BadRequestError(fmt.Sprint(he.Message))}
		}
		return []*AppError{BadRequestError(err.Error())}
	}

	err := validate.StructCtx(c.Request().Context(), req)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return []*AppError{BadRequestError(err.Error())}
	}
	out := make([]*AppError, 0, len(fields))
	for _, fe := range fields {
		out = append(out, fieldError(fe))
	}
	return out
}

// ruleText phrases each validation tag; %s is the tag parameter.
var ruleText = map[string]string{
	"required": "is required",
	"gt":       "must be greater than %s",
	"gte":      "must be at least %s",
	"lt":       "must be less than %s",
	"lte":      "must be at most %s",
	"max":      "must be at most %s",
	"alphanum": "must be alphanumeric",
	"oneof":    "must be one of [%s]",
}

func fieldError(fe validator.FieldError) *AppError {
	text, ok := ruleText[fe.Tag()]
	if !ok {
		text = "is invalid (" + fe.Tag() + ")"
	}
	if strings.Contains(text, "%s") {
		text = fmt.Sprintf(text, fe.Param())
	}
	e := NewAppError("ERR_"+strings.ToUpper(fe.Tag()), fe.Field(), fe.Field()+" "+text, http.StatusBadRequest)
	switch fe.Tag() {
	case "oneof":
		e.WithParam("options", strings.Fields(fe.Param()))
	case "gt", "gte", "lt", "lte", "max":
		e.WithParam("limit", fe.Param())
	}
	return e
}
