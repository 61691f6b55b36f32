package handler

import (
	"errors"
	"net/http"

	"github.com/academie/admission-backend/internal/middleware"
	"github.com/academie/admission-backend/internal/model"
	"github.com/academie/admission-backend/internal/response"
	"github.com/academie/admission-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// statusOf maps a service error to its HTTP status and envelope code.
func statusOf(err error) (int, response.ErrCode) {
	kind := service.KindOf(err)
	code := response.ErrCode(service.CodeOf(err))

	switch kind {
	case service.KindAuthentication:
		return http.StatusUnauthorized, response.ErrUnauthorized
	case service.KindAuthorization:
		return http.StatusForbidden, response.ErrForbidden
	case service.KindGateDenied:
		return http.StatusForbidden, response.ErrGateDenied
	case service.KindValidation:
		if code == "" {
			code = response.ErrInvalidPayload
		}
		return http.StatusBadRequest, code
	case service.KindNotFound:
		if code == "" {
			code = response.ErrNotFound
		}
		return http.StatusNotFound, code
	case service.KindConflict:
		if errors.Is(err, service.ErrAlreadyCompleted) {
			return http.StatusBadRequest, response.ErrAlreadyCompleted
		}
		if code == "" {
			code = response.ErrConflict
		}
		return http.StatusConflict, code
	case service.KindInvalidTransition:
		return http.StatusConflict, response.ErrInvalidTransition
	}
	return http.StatusInternalServerError, response.ErrInternal
}

// failWithError renders err in the standard envelope. Unclassified errors are
// logged with the request id and hidden behind INTERNAL_ERROR.
func failWithError(c *gin.Context, err error) {
	status, code := statusOf(err)
	if status == http.StatusInternalServerError {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("Request failed")
		response.Fail(c, status, code)
		return
	}

	var se *service.Error
	if errors.As(err, &se) && se.Reason != "" {
		response.FailWithReason(c, status, code, se.Reason)
		return
	}
	response.Fail(c, status, code)
}

// principal returns the caller or writes 401.
func principal(c *gin.Context) (*model.Principal, bool) {
	p := middleware.GetPrincipal(c)
	if p == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, false
	}
	return p, true
}

// uuidParam parses a path parameter or writes 400 INVALID_ID.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
