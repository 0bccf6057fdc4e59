package response

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	apperrors "github.com/xiebiao/topupstore/pkg/errors"
)

// Response 统一响应结构
// 1. Success是前端判断请求成败的唯一依据
// 2. Code是业务错误码（0表示成功），方便客户端区分错误类型
// 3. Errors只在字段校验失败时出现（字段名 → 错误信息列表）
type Response struct {
	Success bool                `json:"success"`
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Data    interface{}         `json:"data,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// Success 成功响应（HTTP 200）
func Success(c *gin.Context, data interface{}) {
	SuccessWithMessage(c, "success", data)
}

// SuccessWithMessage 带提示信息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Created 创建成功响应（HTTP 201）
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error 错误响应（自动处理AppError，HTTP状态码由错误码决定）
// 用法：
//
//	order, err := uc.Execute(...)
//	if err != nil {
//	    response.Error(c, err)
//	    return
//	}
func Error(c *gin.Context, err error) {
	appErr := apperrors.GetAppError(err)
	status := appErr.HTTPStatus()

	// 5xx记录内部错误，不返回给客户端
	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("code", appErr.Code),
			zap.Error(err),
		)
	}

	c.JSON(status, Response{
		Success: false,
		Code:    appErr.Code,
		Message: appErr.Message,
		Errors:  appErr.Details,
	})
}

// ErrorWithCode 自定义错误码和消息
func ErrorWithCode(c *gin.Context, code int, message string) {
	c.JSON(apperrors.HTTPStatus(code), Response{
		Success: false,
		Code:    code,
		Message: message,
	})
}

// ErrorWithData 错误响应并附带数据（用于支付结果待确认时返回当前支付记录）
func ErrorWithData(c *gin.Context, err error, data interface{}) {
	appErr := apperrors.GetAppError(err)
	c.JSON(appErr.HTTPStatus(), Response{
		Success: false,
		Code:    appErr.Code,
		Message: appErr.Message,
		Data:    data,
	})
}

// BindError 参数绑定失败响应（HTTP 422）
// validator的校验错误会展开成字段级信息，其它错误（如JSON格式错误）归到body字段
func BindError(c *gin.Context, err error) {
	Error(c, apperrors.ErrValidationFailed.WithDetails(ValidationDetails(err)))
}

// ValidationDetails 将绑定错误转换为 字段名 → 错误信息 列表
func ValidationDetails(err error) map[string][]string {
	details := make(map[string][]string)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		details["body"] = []string{err.Error()}
		return details
	}

	for _, fe := range verrs {
		field := fe.Field()
		details[field] = append(details[field], ruleMessage(fe))
	}
	return details
}

var jsonNamesOnce sync.Once

// UseJSONFieldNames 校验错误中使用json/form标签名（transaction_id而不是TransactionID）
func UseJSONFieldNames() {
	jsonNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return ""
		})
	})
}

// ruleMessage 单条校验规则的提示文案
func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "不能为空"
	case "min":
		return fmt.Sprintf("不能小于%s", fe.Param())
	case "max":
		return fmt.Sprintf("不能大于%s", fe.Param())
	case "oneof":
		return fmt.Sprintf("必须是以下值之一: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return "邮箱格式不正确"
	default:
		return fmt.Sprintf("不满足校验规则%s", fe.Tag())
	}
}

// =========================================
// 分页响应结构
// =========================================

// PageData 分页数据封装
type PageData struct {
	List       interface{} `json:"list"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

// NewPageData 创建分页数据
func NewPageData(list interface{}, total int64, page, pageSize int) *PageData {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(total) / pageSize
		if int(total)%pageSize != 0 {
			totalPages++
		}
	}

	return &PageData{
		List:       list,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// SuccessWithPage 分页成功响应
func SuccessWithPage(c *gin.Context, list interface{}, total int64, page, pageSize int) {
	Success(c, NewPageData(list, total, page, pageSize))
}
