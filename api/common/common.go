package common

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anoixa/folio/internal/apperr"
)

type Response struct {
	Status string      `json:"status"`
	Msg    string      `json:"msg"`
	Code   string      `json:"code,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}

func Respond(c *gin.Context, httpStatus int, status string, message string, data interface{}) {
	c.JSON(httpStatus, Response{
		Status: status,
		Msg:    message,
		Data:   data,
	})
}

// RespondSuccess sends a success response with data.
func RespondSuccess(c *gin.Context, data interface{}) {
	Respond(c, http.StatusOK, "success", "", data)
}

// RespondCreated sends a 201 response with data.
func RespondCreated(c *gin.Context, data interface{}) {
	Respond(c, http.StatusCreated, "success", "", data)
}

// RespondSuccessMessage sends a success response with message and data.
func RespondSuccessMessage(c *gin.Context, message string, data interface{}) {
	Respond(c, http.StatusOK, "success", message, data)
}

// RespondError sends an error response with message.
func RespondError(c *gin.Context, httpStatus int, message string) {
	Respond(c, httpStatus, "error", message, nil)
}

// RespondErrorCode sends an error response carrying a machine readable code.
func RespondErrorCode(c *gin.Context, httpStatus int, code, message string) {
	c.JSON(httpStatus, Response{Status: "error", Msg: message, Code: code})
}

// RespondErrorAbort sends an error response and aborts the handler chain.
func RespondErrorAbort(c *gin.Context, httpStatus int, message string) {
	c.AbortWithStatusJSON(httpStatus, Response{Status: "error", Msg: message})
}

// RespondAppError 将 apperr 映射为 HTTP 状态码，500 不向客户端暴露内部错误
func RespondAppError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	code := apperr.CodeOf(err)

	var appErr *apperr.Error
	msg := http.StatusText(status)
	if status < http.StatusInternalServerError && errors.As(err, &appErr) && appErr.Msg != "" {
		msg = appErr.Msg
	}
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed",
			slog.String("path", c.FullPath()),
			slog.String("code", code),
			slog.Any("error", err))
		if code == "" {
			code = "internal_error"
		}
	}
	if code == "" {
		code = string(apperr.KindOf(err))
	}
	RespondErrorCode(c, status, code, msg)
}
