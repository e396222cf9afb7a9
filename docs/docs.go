// Package docs 注册 Swagger 文档，结构与 swag init 的输出一致。
// 修改 handler 上的注解后需同步更新这里，或用 swag init -g cmd/server/main.go 重新生成。
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["System"],
                "summary": "健康检查",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/shortUrl/post": {
            "post": {
                "description": "为一个长 URL 创建一个新的短链接",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["ShortLink"],
                "summary": "创建短链接",
                "parameters": [
                    {
                        "description": "长链接 URL",
                        "name": "url",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.CreateShortLinkRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.CreateShortLinkResponse"}},
                    "400": {"description": "链接不合法、指向本站或不安全", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/shortUrl/get": {
            "post": {
                "description": "接受短码或完整短链接，返回原始链接",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["ShortLink"],
                "summary": "查询原始链接",
                "parameters": [
                    {
                        "description": "短链接",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.ResolveShortLinkRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.ResolveShortLinkResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/{code}": {
            "get": {
                "tags": ["ShortLink"],
                "summary": "短链接跳转",
                "parameters": [
                    {"type": "string", "description": "短码", "name": "code", "in": "path", "required": true}
                ],
                "responses": {
                    "302": {"description": "Found"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "description": "使用用户名和密码获取 JWT 令牌",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "管理员登录",
                "parameters": [
                    {
                        "description": "登录凭据",
                        "name": "account",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.LoginRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "成功响应", "schema": {"$ref": "#/definitions/handler.AuthResponse"}},
                    "400": {"description": "请求无效", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "401": {"description": "认证失败", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/urls": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "获取全部短链接",
                "parameters": [
                    {"type": "integer", "description": "偏移量", "name": "offset", "in": "query"},
                    {"type": "integer", "description": "每页数量，最大 1000，省略时返回全部", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/handler.LinkResponse"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/api/stats": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "统计信息",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.StatsResponse"}}
                }
            }
        },
        "/api/urls/{code}": {
            "delete": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["Admin"],
                "summary": "删除短链接",
                "parameters": [
                    {"type": "string", "description": "短码", "name": "code", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handler.AuthResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string", "example": "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."}
            }
        },
        "handler.CreateShortLinkRequest": {
            "type": "object",
            "properties": {
                "original_url": {"type": "string", "example": "https://example.com/very/long/path"}
            }
        },
        "handler.CreateShortLinkResponse": {
            "type": "object",
            "properties": {
                "shortenUrl": {"type": "string", "example": "https://dev4url.cc/c7Xa2Q"},
                "short_code": {"type": "string", "example": "c7Xa2Q"}
            }
        },
        "handler.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "INVALID_URL"},
                "error": {"type": "string", "example": "URL validation failed"},
                "errors": {"type": "array", "items": {"type": "string"}, "example": ["URL must have a host"]}
            }
        },
        "handler.LinkResponse": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "original_url": {"type": "string"},
                "shortenUrl": {"type": "string"},
                "short_code": {"type": "string"}
            }
        },
        "handler.LoginRequest": {
            "type": "object",
            "required": ["password", "username"],
            "properties": {
                "password": {"type": "string", "example": "admin"},
                "username": {"type": "string", "example": "admin"}
            }
        },
        "handler.ResolveShortLinkRequest": {
            "type": "object",
            "properties": {
                "shortenUrl": {"type": "string", "example": "c7Xa2Q"}
            }
        },
        "handler.ResolveShortLinkResponse": {
            "type": "object",
            "properties": {
                "original_url": {"type": "string", "example": "https://example.com/very/long/path"}
            }
        },
        "handler.StatsResponse": {
            "type": "object",
            "properties": {
                "total_links": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "短链接服务 API",
	Description:      "短链接创建、解析与管理接口",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
