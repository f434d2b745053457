package middlewares

import (
	"net/http"

	"github.com/Luismorlan/eventmux/model"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

const (
	ErrorValidation           = "validation_error"
	ErrorAlreadyExists        = "already_exists"
	ErrorInvalidSelfReference = "invalid_self_reference"
	ErrorTokenAuthFail        = "token_auth_fail"
	ErrorForbidden            = "forbidden"
	ErrorNotFound             = "not_found"
	ErrorInternal             = "internal_error"
)

// StatusFor maps an error of the model taxonomy onto an HTTP status and an
// error code. Anything else is an internal error.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest, ErrorValidation
	case errors.Is(err, model.ErrAlreadyExists):
		return http.StatusBadRequest, ErrorAlreadyExists
	case errors.Is(err, model.ErrInvalidSelfReference):
		return http.StatusBadRequest, ErrorInvalidSelfReference
	case errors.Is(err, model.ErrUnauthenticated):
		return http.StatusUnauthorized, ErrorTokenAuthFail
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden, ErrorForbidden
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, ErrorNotFound
	}
	return http.StatusInternalServerError, ErrorInternal
}

// AbortWithError writes err as {"code", "msg", "field"} and aborts the chain.
// Internal errors are logged and their message is not exposed.
func AbortWithError(c *gin.Context, err error) {
	status, code := StatusFor(err)
	body := gin.H{"code": code, "msg": err.Error()}

	var verr *model.ValidationError
	if errors.As(err, &verr) {
		body["field"] = verr.Field
		body["msg"] = verr.Message
	}
	if status == http.StatusInternalServerError {
		RequestLogger(c).WithError(err).Error("request failed")
		body["msg"] = http.StatusText(status)
	} else {
		RequestLogger(c).WithError(err).Warn("request rejected")
	}
	c.AbortWithStatusJSON(status, body)
}
