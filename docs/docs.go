// Package docs registers the OpenAPI description served by gin-swagger.
// Keep it in step with the handler annotations when routes change.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/healthcheck": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Minimal health check",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "object", "additionalProperties": {"type": "string"}}
                    }
                }
            }
        },
        "/api/inn": {
            "post": {
                "description": "Unversioned route returning the bare record list",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["FSSP"],
                "summary": "Search by INN (unversioned)",
                "parameters": [
                    {"description": "INN", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.INNRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.CaseRecord"}}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/models.DetailResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/models.DetailResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/models.DetailResponse"}}
                }
            }
        },
        "/api/ip": {
            "post": {
                "description": "Unversioned route returning the bare record list",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["FSSP"],
                "summary": "Search by proceeding number (unversioned)",
                "parameters": [
                    {"description": "Proceeding number", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.LegacyIPRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.CaseRecord"}}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/models.DetailResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/models.DetailResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/models.DetailResponse"}}
                }
            }
        },
        "/api/person": {
            "post": {
                "description": "Unversioned route returning the bare record list",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["FSSP"],
                "summary": "Search by debtor (unversioned)",
                "parameters": [
                    {"description": "Debtor", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.PersonRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.CaseRecord"}}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/models.DetailResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/models.DetailResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/models.DetailResponse"}}
                }
            }
        },
        "/api/v1/admin/browser/stats": {
            "get": {
                "security": [{"AdminKey": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Get browser session statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/v1/admin/cache": {
            "delete": {
                "security": [{"AdminKey": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Clear cached search results",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/api/v1/admin/cache/stats": {
            "get": {
                "security": [{"AdminKey": []}],
                "description": "Get cache hit/miss counters and sizes",
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Get cache statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/api/v1/batch": {
            "post": {
                "description": "Run several searches concurrently. Each item reports its own outcome.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["FSSP"],
                "summary": "Batch search",
                "parameters": [
                    {"description": "Queries", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.BatchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.BatchResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/api/v1/inn": {
            "post": {
                "description": "Look up enforcement proceedings by INN",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["FSSP"],
                "summary": "Search by INN",
                "parameters": [
                    {"description": "INN", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.INNRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.SearchResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/api/v1/ip": {
            "post": {
                "description": "Look up an enforcement proceeding by its number",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["FSSP"],
                "summary": "Search by proceeding number",
                "parameters": [
                    {"description": "Proceeding number", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.IPRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.SearchResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/api/v1/person": {
            "post": {
                "description": "Look up enforcement proceedings by debtor full name and birth date",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["FSSP"],
                "summary": "Search by debtor",
                "parameters": [
                    {"description": "Debtor", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.PersonRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.SearchResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "description": "Get the health status of the API and its dependencies",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.HealthResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/models.HealthResponse"}}
                }
            }
        },
        "/health/live": {
            "get": {
                "description": "Check if the API is alive and responding",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Liveness check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/health/ready": {
            "get": {
                "description": "Check if the API is ready to run lookups",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        }
    },
    "definitions": {
        "models.BatchItemResult": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "CAPTCHA_ERROR"},
                "count": {"type": "integer"},
                "duration_ms": {"type": "integer"},
                "error": {"type": "string"},
                "index": {"type": "integer"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/models.CaseRecord"}},
                "query": {"type": "string"},
                "status": {"type": "string", "example": "success"}
            }
        },
        "models.BatchQuery": {
            "type": "object",
            "required": ["type"],
            "properties": {
                "birthday": {"type": "string", "example": "01.01.1980"},
                "first_name": {"type": "string", "example": "Иван"},
                "inn": {"type": "string", "example": "7707083893"},
                "ip_number": {"type": "string", "example": "342956/24/23060-ИП"},
                "last_name": {"type": "string", "example": "Иванов"},
                "patronymic": {"type": "string"},
                "type": {"type": "string", "example": "inn"}
            }
        },
        "models.BatchRequest": {
            "type": "object",
            "required": ["queries"],
            "properties": {
                "queries": {"type": "array", "minItems": 1, "items": {"$ref": "#/definitions/models.BatchQuery"}}
            }
        },
        "models.BatchResponse": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string"},
                "results": {"type": "array", "items": {"$ref": "#/definitions/models.BatchItemResult"}},
                "stats": {"$ref": "#/definitions/models.BatchStats"}
            }
        },
        "models.BatchStats": {
            "type": "object",
            "properties": {
                "cached": {"type": "integer"},
                "duration_ms": {"type": "integer"},
                "end_time": {"type": "string"},
                "errors": {"type": "integer"},
                "start_time": {"type": "string"},
                "success": {"type": "integer"},
                "total": {"type": "integer"}
            }
        },
        "models.CaseRecord": {
            "type": "object",
            "properties": {
                "region": {"type": "string", "example": "Москва"},
                "debtor": {"type": "string", "example": "Иванов Иван"},
                "ip": {"type": "string", "example": "342956/24/23060-ИП от 01.02.2024"},
                "doc": {"type": "string"},
                "end_reason": {"type": "string"},
                "debt": {"type": "string"},
                "office": {"type": "string"},
                "bailiff": {"type": "string"}
            }
        },
        "models.DetailResponse": {
            "type": "object",
            "properties": {
                "detail": {"type": "string", "example": "registry returned an empty response"},
                "error_code": {"type": "string", "example": "CAPTCHA_LIMIT_EXCEEDED"}
            }
        },
        "models.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "FSSP_UNAVAILABLE"},
                "error": {"type": "string", "example": "FSSP unavailable"},
                "message": {"type": "string", "example": "timeout while waiting for results"},
                "path": {"type": "string", "example": "/api/v1/ip"},
                "request_id": {"type": "string"},
                "timestamp": {"type": "string", "example": "2024-01-15T10:30:00Z"}
            }
        },
        "models.HealthResponse": {
            "type": "object",
            "properties": {
                "services": {"type": "object", "additionalProperties": {"$ref": "#/definitions/models.ServiceInfo"}},
                "status": {"type": "string", "example": "healthy"},
                "timestamp": {"type": "string", "example": "2024-01-15T10:30:00Z"},
                "uptime": {"type": "string", "example": "2h30m45s"},
                "version": {"type": "string", "example": "1.0.0"}
            }
        },
        "models.INNRequest": {
            "type": "object",
            "required": ["inn"],
            "properties": {
                "inn": {"type": "string", "example": "7707083893"}
            }
        },
        "models.IPRequest": {
            "type": "object",
            "required": ["ip_number"],
            "properties": {
                "ip_number": {"description": "Proceeding number, e.g. 123/45/67890-ИП", "type": "string", "example": "342956/24/23060-ИП"}
            }
        },
        "models.LegacyIPRequest": {
            "type": "object",
            "required": ["ip"],
            "properties": {
                "ip": {"type": "string", "example": "342956/24/23060-ИП"}
            }
        },
        "models.PersonRequest": {
            "type": "object",
            "required": ["birthday", "first_name", "last_name"],
            "properties": {
                "birthday": {"description": "Birth date in DD.MM.YYYY", "type": "string", "example": "01.01.1980"},
                "first_name": {"type": "string", "example": "Иван"},
                "last_name": {"type": "string", "example": "Иванов"},
                "patronymic": {"type": "string", "example": "Иванович"}
            }
        },
        "models.SearchResponse": {
            "description": "Enforcement proceedings found for the query",
            "type": "object",
            "properties": {
                "cached": {"type": "boolean", "example": false},
                "count": {"type": "integer", "example": 1},
                "duration_ms": {"type": "integer", "example": 18450},
                "items": {"type": "array", "items": {"$ref": "#/definitions/models.CaseRecord"}},
                "queried_at": {"type": "string", "example": "2024-01-15T10:30:00Z"},
                "query": {"type": "string", "example": "ip"},
                "request_id": {"type": "string"},
                "success": {"type": "boolean", "example": true}
            }
        },
        "models.ServiceInfo": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "last_check": {"type": "string", "example": "2024-01-15T10:30:00Z"},
                "status": {"type": "string", "example": "healthy"}
            }
        }
    },
    "securityDefinitions": {
        "AdminKey": {
            "type": "apiKey",
            "name": "X-Admin-Key",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8000",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "FSSP Enforcement Proceedings API",
	Description:      "Searches the FSSP enforcement proceedings registry by proceeding number, debtor or INN",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
