package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/fruity-slot/internal/errors"
)

// Response 统一成功响应
type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data, Timestamp: time.Now().Unix()})
}

// fail 输出错误，非 AppError 统一视为未知错误
func fail(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Wrap(err, apperrors.ErrUnknown)
	}
	c.JSON(appErr.HTTPStatus(), apperrors.NewErrorResponse(publicError(appErr), c.GetString("request_id")))
}

// publicError 去掉调用栈
func publicError(err *apperrors.AppError) *apperrors.AppError {
	out := *err
	out.Stack = nil
	return &out
}
