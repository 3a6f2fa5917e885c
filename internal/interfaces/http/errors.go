package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainwf "github.com/garyjia/foundry-fichas/internal/domain/workflow"
)

const internalErrorMessage = "internal server error"

// statusFor maps a domain error to its HTTP status. Storage failures and
// unknown errors map to 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domainwf.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainwf.ErrValidation),
		errors.Is(err, domainwf.ErrInvalidTransition),
		errors.Is(err, domainwf.ErrInvalidReturnStage):
		return http.StatusBadRequest
	case errors.Is(err, domainwf.ErrAlreadyTerminal),
		errors.Is(err, domainwf.ErrConcurrentModification):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error envelope. 500 bodies never carry the cause.
func (h *Handlers) respondError(c *gin.Context, op string, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = internalErrorMessage
		h.logger.Error("Request failed", "op", op, "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, Response{Success: false, Error: message})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: message})
}
