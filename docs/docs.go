// Package docs 注册Swagger文档，由 `swag init -g cmd/api/main.go` 重新生成
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {"get": {"tags": ["系统"], "summary": "健康检查", "responses": {"200": {"description": "OK"}}}},
        "/api/auth/register": {"post": {"tags": ["用户"], "summary": "用户注册", "responses": {"201": {"description": "注册成功"}}}},
        "/api/auth/login": {"post": {"tags": ["用户"], "summary": "用户登录", "responses": {"200": {"description": "登录成功"}}}},
        "/api/auth/logout": {"post": {"tags": ["用户"], "summary": "用户登出", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/api/auth/user": {"get": {"tags": ["用户"], "summary": "当前用户", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/api/products": {
            "get": {"tags": ["商品"], "summary": "商品列表", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["商品"], "summary": "商品上架", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/api/products/categories": {"get": {"tags": ["商品"], "summary": "商品分类", "responses": {"200": {"description": "OK"}}}},
        "/api/products/{id}": {"get": {"tags": ["商品"], "summary": "商品详情", "responses": {"200": {"description": "OK"}}}},
        "/api/orders": {
            "get": {"tags": ["订单"], "summary": "订单列表", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["订单"], "summary": "创建订单", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "下单成功"}}}
        },
        "/api/orders/{id}": {
            "get": {"tags": ["订单"], "summary": "订单详情", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["订单"], "summary": "修改订单", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["订单"], "summary": "删除订单", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/payments": {
            "get": {"tags": ["支付"], "summary": "支付列表", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["支付"], "summary": "发起支付", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "支付已结算"}, "202": {"description": "支付结果未知"}}}
        },
        "/api/payments/{id}": {
            "get": {"tags": ["支付"], "summary": "支付详情", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["支付"], "summary": "修改支付", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["支付"], "summary": "删除支付", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/payments/webhook": {"post": {"tags": ["支付"], "summary": "支付回调", "responses": {"200": {"description": "OK"}}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "TopupStore API",
	Description:      "数字商品充值商城：订单与支付一致性",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
