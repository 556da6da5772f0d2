package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// APIResponse is the envelope every JSON endpoint writes.
type APIResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func DataResponse(c echo.Context, statusCode int, data any) error {
	return c.JSON(statusCode, APIResponse{
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

func SuccessResponse(c echo.Context, data any) error {
	return DataResponse(c, http.StatusOK, data)
}

// BadRequestResponse writes request validation failures.
func BadRequestResponse(c echo.Context, verrs []ValidationError) error {
	return DataResponse(c, http.StatusBadRequest, verrs)
}

// AppErrorResponse writes an application error, mapping domain errors to a status.
func AppErrorResponse(c echo.Context, err error) error {
	appErr := FromDomain(err)
	return DataResponse(c, appErr.Status, []*AppError{appErr})
}
