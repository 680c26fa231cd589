// Package docs 注册 swagger 文档。接口注释变更后运行
// `swag init` 重新生成 docTemplate 的完整内容。
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/register": {
            "post": {
                "tags": ["认证"],
                "summary": "注册新用户",
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controller.RegisterRequest"}}],
                "responses": {"201": {"description": "创建成功"}, "400": {"description": "请求参数错误"}, "409": {"description": "邮箱已被注册"}}
            }
        },
        "/login": {
            "post": {
                "tags": ["认证"],
                "summary": "用户登录",
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controller.LoginRequest"}}],
                "responses": {"200": {"description": "登录成功，返回 token"}, "401": {"description": "凭证错误"}}
            }
        },
        "/profile": {
            "get": {
                "tags": ["认证"],
                "summary": "当前用户信息",
                "security": [{"ApiKeyAuth": []}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/exams": {
            "get": {
                "tags": ["考试"],
                "summary": "考试列表",
                "security": [{"ApiKeyAuth": []}],
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "size", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/exams/{id}/questions": {
            "get": {
                "tags": ["考试"],
                "summary": "某场考试的主观题列表",
                "security": [{"ApiKeyAuth": []}],
                "parameters": [{"name": "id", "in": "path", "type": "integer", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "考试不存在"}}
            }
        },
        "/exams/{id}/answers/pending": {
            "get": {
                "tags": ["阅卷"],
                "summary": "待评阅答案列表（按考试）",
                "security": [{"ApiKeyAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "size", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/exams/{id}/answers/marked": {
            "get": {
                "tags": ["阅卷"],
                "summary": "已评阅答案列表（按考试）",
                "security": [{"ApiKeyAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "size", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/answers": {
            "post": {
                "tags": ["答案"],
                "summary": "提交主观题答案",
                "security": [{"ApiKeyAuth": []}],
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controller.CreateAnswerRequest"}}],
                "responses": {"201": {"description": "创建成功"}, "404": {"description": "题目不存在"}}
            }
        },
        "/answers/{id}": {
            "get": {
                "tags": ["阅卷"],
                "summary": "答案详情",
                "security": [{"ApiKeyAuth": []}],
                "parameters": [{"name": "id", "in": "path", "type": "integer", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "答案不存在"}}
            }
        },
        "/answers/{id}/attachments": {
            "post": {
                "tags": ["阅卷"],
                "summary": "上传答案附件（答题卡扫描件）",
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true},
                    {"name": "file", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {"201": {"description": "创建成功"}}
            }
        },
        "/answers/{id}/score": {
            "post": {
                "tags": ["阅卷"],
                "summary": "评阅人对答案评分",
                "security": [{"ApiKeyAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controller.SubmitScoreRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "分数越界"}, "404": {"description": "答案不存在"}, "409": {"description": "并发冲突，请重试"}}
            }
        },
        "/answers/{id}/dispute": {
            "post": {
                "tags": ["阅卷"],
                "summary": "对已评阅答案提出争议",
                "security": [{"ApiKeyAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controller.DisputeRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "理由为空或答案不在已评阅状态"}}
            }
        },
        "/answers/{id}/arbitration": {
            "post": {
                "tags": ["仲裁"],
                "summary": "将争议答案升级为仲裁单",
                "security": [{"ApiKeyAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controller.EscalateRequest"}}
                ],
                "responses": {"201": {"description": "创建成功"}, "400": {"description": "状态不允许"}, "409": {"description": "已存在未关闭的仲裁单"}}
            }
        },
        "/arbitrations": {
            "get": {
                "tags": ["仲裁"],
                "summary": "仲裁单列表",
                "security": [{"ApiKeyAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "size", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/arbitrations/{id}": {
            "get": {
                "tags": ["仲裁"],
                "summary": "仲裁单详情",
                "security": [{"ApiKeyAuth": []}],
                "parameters": [{"name": "id", "in": "path", "type": "integer", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "仲裁单不存在"}}
            }
        },
        "/arbitrations/{id}/claim": {
            "post": {
                "tags": ["仲裁"],
                "summary": "仲裁人认领仲裁单",
                "security": [{"ApiKeyAuth": []}],
                "parameters": [{"name": "id", "in": "path", "type": "integer", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "仲裁单已被认领或已关闭"}}
            }
        },
        "/arbitrations/{id}/resolve": {
            "post": {
                "tags": ["仲裁"],
                "summary": "仲裁人裁决仲裁单",
                "security": [{"ApiKeyAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "integer", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controller.ResolveRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "仲裁单已关闭或分数越界"}}
            }
        },
        "/ws/arbitration": {
            "get": {
                "tags": ["仲裁"],
                "summary": "仲裁事件推送（WebSocket）",
                "security": [{"ApiKeyAuth": []}],
                "responses": {"101": {"description": "协议升级"}}
            }
        },
        "/health": {
            "get": {
                "tags": ["系统"],
                "summary": "健康检查",
                "responses": {"200": {"description": "OK"}, "503": {"description": "数据库不可用"}}
            }
        }
    },
    "definitions": {
        "controller.RegisterRequest": {
            "type": "object",
            "required": ["name", "email", "password", "role"],
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 8},
                "role": {"type": "string", "enum": ["student", "marker", "arbitrator"]}
            }
        },
        "controller.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "controller.CreateAnswerRequest": {
            "type": "object",
            "required": ["questionId", "answerText"],
            "properties": {
                "questionId": {"type": "integer"},
                "answerText": {"type": "string"}
            }
        },
        "controller.SubmitScoreRequest": {
            "type": "object",
            "required": ["score"],
            "properties": {
                "score": {"type": "number"},
                "comments": {"type": "string"}
            }
        },
        "controller.DisputeRequest": {
            "type": "object",
            "required": ["reason"],
            "properties": {
                "reason": {"type": "string"}
            }
        },
        "controller.EscalateRequest": {
            "type": "object",
            "required": ["reason"],
            "properties": {
                "reason": {"type": "string"}
            }
        },
        "controller.ResolveRequest": {
            "type": "object",
            "required": ["resolution"],
            "properties": {
                "approve": {"type": "boolean"},
                "adjustedScore": {"type": "number"},
                "resolution": {"type": "string"}
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
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "阅卷中心后端 API",
	Description:      "主观题评分聚合与仲裁服务。",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
