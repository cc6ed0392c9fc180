package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/gymdesk/internal/core"
)

const msgInternal = "An unexpected internal server error occurred."

// mapCoreErrorToStatus maps a facade error to an HTTP status and message.
// Unrecognised errors become a generic 500; the facade has already logged
// them.
func mapCoreErrorToStatus(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, core.ErrMemberNotFound),
		errors.Is(err, core.ErrClassNotFound),
		errors.Is(err, core.ErrTourRequestNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, core.ErrMemberExists),
		errors.Is(err, core.ErrAlreadyBooked),
		errors.Is(err, core.ErrNotBooked),
		errors.Is(err, core.ErrClassFull):
		return http.StatusConflict, err.Error()
	}
	return http.StatusInternalServerError, msgInternal
}

// respond writes r with okStatus when it succeeded and a mapped
// ErrorResponse otherwise. It reports whether r succeeded.
func respond[T any](c *gin.Context, okStatus int, r core.Result[T]) bool {
	if r.Success {
		c.JSON(okStatus, r)
		return true
	}
	status, msg := mapCoreErrorToStatus(r.Err)
	c.JSON(status, ErrorResponse{Error: msg})
	return false
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
}
