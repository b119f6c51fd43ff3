package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"rotuprinters/internal/apperr"
	"rotuprinters/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	// Report validation failures with the JSON field names clients send.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})
	}
}

// statusFor maps an error kind to its HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest, response.CodeValidation
	case errors.Is(err, apperr.ErrInvalidTransition):
		return http.StatusConflict, response.CodeInvalidTransition
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict, response.CodeConflict
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, response.CodeNotFound
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized, response.CodeUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden, response.CodeForbidden
	case errors.Is(err, apperr.ErrNetwork):
		return http.StatusBadGateway, response.CodeUpstream
	default:
		return http.StatusInternalServerError, response.CodeInternal
	}
}

// respondError writes the error envelope. Unexpected errors are attached to
// the context for the request logger and hidden from the client.
func respondError(c *gin.Context, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		msg = "Internal server error"
	}
	c.AbortWithStatusJSON(status, response.Fail(status, code, msg))
}

func describeValidation(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "min":
			parts = append(parts, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s", field, fe.Param()))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of [%s]", field, fe.Param()))
		case "email":
			parts = append(parts, field+" must be a valid email")
		case "uuid":
			parts = append(parts, field+" must be a valid UUID")
		case "datetime":
			parts = append(parts, fmt.Sprintf("%s must match %s", field, fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s validation", field, fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	msg := "Invalid request payload"
	switch {
	case errors.As(err, &verrs):
		msg = describeValidation(verrs)
	case errors.As(err, &syntaxErr):
		msg = "Invalid request payload: malformed JSON"
	case errors.As(err, &typeErr):
		msg = fmt.Sprintf("Invalid request payload: %s has the wrong type", typeErr.Field)
	case err.Error() == "EOF":
		msg = "Invalid request payload: empty body"
	default:
		msg = "Invalid request payload: " + err.Error()
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, msg))
}

// bindJSON decodes and validates the body, answering 400 on failure.
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		bindError(c, err)
		return false
	}
	return true
}

func bindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		bindError(c, err)
		return false
	}
	return true
}
