package response

import (
	"Fellowship/internal/api/dto"
	"Fellowship/internal/service"
	"encoding/json"
	"errors"
	"io"
	log "log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Success 200 返回封装
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, dto.Response{
		Success: true,
		Data:    data,
	})
}

// Created 201 返回封装
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, dto.Response{
		Success: true,
		Data:    data,
	})
}

// Fail 失败返回封装，status 即 HTTP 状态码
func Fail(c *gin.Context, status int, message string, fields map[string]string) {
	c.JSON(status, dto.Response{
		Success: false,
		Message: message,
		Errors:  fields,
	})
}

// Error 把错误翻译为统一的失败响应
func Error(c *gin.Context, err error) {
	var vErr *service.ValidationError
	if errors.As(err, &vErr) {
		Fail(c, service.Unprocessable, service.ErrParamInvalid.Error(), vErr.Fields)
		return
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		Fail(c, service.Unprocessable, service.ErrParamInvalid.Error(), FieldErrors(ve))
		return
	}

	// gin 的 binding 使用标准库 json 解码
	var unmarshalTypeError *json.UnmarshalTypeError
	if errors.As(err, &unmarshalTypeError) {
		field := unmarshalTypeError.Field
		if field == "" {
			field = "body"
		}
		Fail(c, service.Unprocessable, service.ErrParamInvalid.Error(), map[string]string{
			field: "must be of type " + unmarshalTypeError.Type.String(),
		})
		return
	}

	var syntaxError *json.SyntaxError
	if errors.As(err, &syntaxError) {
		Fail(c, service.Unprocessable, service.ErrParamInvalid.Error(), map[string]string{
			"body": "malformed json",
		})
		return
	}

	code, ok := service.StatusOf(err)
	if !ok {
		log.ErrorContext(c.Request.Context(), "unhandled error", "err", err)
		Fail(c, service.InternalServerError, service.UnExpectedError.Error(), nil)
		return
	}
	Fail(c, code, rootMessage(err), nil)
}

// BindError 请求绑定失败一律按参数错误返回
func BindError(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	var ute *json.UnmarshalTypeError
	var se *json.SyntaxError
	switch {
	case errors.As(err, &ve), errors.As(err, &ute), errors.As(err, &se):
		Error(c, err)
	case errors.Is(err, io.EOF):
		Fail(c, service.Unprocessable, service.ErrParamInvalid.Error(), map[string]string{"body": "is required"})
	default:
		Fail(c, service.Unprocessable, service.ErrParamInvalid.Error(), nil)
	}
}

// FieldErrors validator 错误转为字段名 -> 规则描述，字段名取 json/form tag
func FieldErrors(ve validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		name := fe.Field()
		if _, exists := fields[name]; exists {
			continue
		}
		msg := "failed on rule " + fe.Tag()
		switch fe.Tag() {
		case "required":
			msg = "is required"
		case "max":
			msg = "must not exceed " + fe.Param()
		case "min":
			msg = "must be at least " + fe.Param()
		case "oneof":
			msg = "must be one of: " + fe.Param()
		}
		fields[name] = msg
	}
	return fields
}

// rootMessage 取被包装错误中已登记的哨兵文案
func rootMessage(err error) string {
	for known := range service.ErrorMap {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return err.Error()
}
