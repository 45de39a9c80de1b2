package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/careerauth/errors"
	"github.com/kbukum/careerauth/logger"
)

// DataResponse is the standard success envelope.
type DataResponse struct {
	Data any `json:"data"`
}

// RespondWithError inspects err: if it is an *apperrors.AppError the status and
// structured body are derived automatically; otherwise a generic 500 is sent.
// Server-side failures are logged with their cause; the client only sees
// the generic message.
func RespondWithError(c *gin.Context, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.Internal(err)
	}

	if appErr.HTTPStatus >= http.StatusInternalServerError {
		log := logger.WithComponent("http").WithContext(c.Request.Context())
		if appErr.Cause != nil {
			log = log.WithError(appErr.Cause)
		}
		log.Error("Request failed", logger.Fields(
			"code", string(appErr.Code),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		))
	}

	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}

// RespondOK sends a 200 response wrapping data.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, DataResponse{Data: data})
}

// RespondCreated sends a 201 response wrapping data.
func RespondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, DataResponse{Data: data})
}
