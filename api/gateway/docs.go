// Package gateway holds the Swagger document served at /swagger/.
// Regenerate with: swag init -g internal/gateway/http/router.go -o api/gateway
package gateway

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "EvaMind Platform Team"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/oauth/token": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["OAuth2"],
                "summary": "OAuth2 Token Endpoint",
                "parameters": [
                    {"enum": ["client_credentials"], "type": "string", "name": "grant_type", "in": "formData", "required": true},
                    {"type": "string", "name": "client_id", "in": "formData"},
                    {"type": "string", "name": "client_secret", "in": "formData"},
                    {"type": "string", "name": "scope", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/gatewaysdk.TokenResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/gatewaysdk.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/gatewaysdk.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/gatewaysdk.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/gatewaysdk.ErrorResponse"}}
                }
            }
        },
        "/oauth/revoke": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["OAuth2"],
                "summary": "OAuth2 Token Revocation Endpoint",
                "parameters": [
                    {"type": "string", "name": "token", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/gatewaysdk.ErrorResponse"}}
                }
            }
        },
        "/api/v1/patients/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Resources"],
                "summary": "Serialized patient (read:patients)",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}, "429": {"description": "Too Many Requests"}, "502": {"description": "Bad Gateway"}, "503": {"description": "Service Unavailable"}}
            }
        },
        "/api/v1/assessments/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Resources"],
                "summary": "Serialized assessment (read:assessments)",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}, "429": {"description": "Too Many Requests"}, "502": {"description": "Bad Gateway"}, "503": {"description": "Service Unavailable"}}
            }
        },
        "/api/v1/fhir/patients/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/fhir+json"],
                "tags": ["Resources"],
                "summary": "FHIR Patient (read:patients or export:data)",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}, "429": {"description": "Too Many Requests"}, "502": {"description": "Bad Gateway"}, "503": {"description": "Service Unavailable"}}
            }
        },
        "/api/v1/fhir/bundle/{patient_id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/fhir+json"],
                "tags": ["Resources"],
                "summary": "FHIR Bundle (export:data)",
                "parameters": [{"type": "string", "name": "patient_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}, "429": {"description": "Too Many Requests"}, "502": {"description": "Bad Gateway"}, "503": {"description": "Service Unavailable"}}
            }
        },
        "/api/v1/export/lgpd/{patient_id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Resources"],
                "summary": "LGPD data export (export:data)",
                "parameters": [{"type": "string", "name": "patient_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}, "429": {"description": "Too Many Requests"}, "502": {"description": "Bad Gateway"}, "503": {"description": "Service Unavailable"}}
            }
        },
        "/v1/admin/clients": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "List API Clients",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/gatewaysdk.ClientResponse"}}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Create API Client",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/gatewaysdk.CreateClientRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/gatewaysdk.CreateClientResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/gatewaysdk.ErrorResponse"}}
                }
            }
        },
        "/v1/admin/clients/{id}": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Update API Client",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/gatewaysdk.UpdateClientRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/gatewaysdk.ClientResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/gatewaysdk.ErrorResponse"}}
                }
            }
        },
        "/v1/admin/clients/{id}/requests": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Client Request History",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/gatewaysdk.RequestLogResponse"}}}
                }
            }
        },
        "/v1/admin/tokens/{id}/revoke": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Revoke Token",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}}
            }
        },
        "/v1/bootstrap": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Bootstrap"],
                "summary": "Bootstrap the gateway",
                "parameters": [
                    {"type": "string", "name": "X-Bootstrap-Token", "in": "header", "required": true},
                    {"name": "request", "in": "body", "schema": {"$ref": "#/definitions/gatewaysdk.BootstrapRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/gatewaysdk.CreateClientResponse"}},
                    "401": {"description": "Unauthorized"},
                    "404": {"description": "Not Found"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Composite Health Check",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/gatewaysdk.HealthResponse"}}}
            }
        },
        "/livez": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Liveness Probe",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/gatewaysdk.ProbeResponse"}}}
            }
        },
        "/readyz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness Probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/gatewaysdk.ProbeResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/gatewaysdk.ProbeResponse"}}
                }
            }
        }
    },
    "definitions": {
        "gatewaysdk.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}, "error_description": {"type": "string"}}
        },
        "gatewaysdk.TokenResponse": {
            "type": "object",
            "properties": {"access_token": {"type": "string"}, "token_type": {"type": "string"}, "expires_in": {"type": "integer"}, "scope": {"type": "string"}}
        },
        "gatewaysdk.HealthResponse": {
            "type": "object",
            "properties": {"status": {"type": "string"}, "local": {"type": "string"}, "downstream": {"type": "string"}}
        },
        "gatewaysdk.ProbeResponse": {
            "type": "object",
            "properties": {"status": {"type": "string"}, "uptime": {"type": "string"}, "version": {"type": "string"}, "checks": {"type": "object", "additionalProperties": {"type": "string"}}}
        },
        "gatewaysdk.CreateClientRequest": {
            "type": "object",
            "required": ["name", "scopes"],
            "properties": {"name": {"type": "string", "maxLength": 128}, "scopes": {"type": "array", "items": {"type": "string"}}, "rate_limit_per_minute": {"type": "integer"}, "approved": {"type": "boolean"}}
        },
        "gatewaysdk.UpdateClientRequest": {
            "type": "object",
            "properties": {"active": {"type": "boolean"}, "approved": {"type": "boolean"}, "scopes": {"type": "array", "items": {"type": "string"}}, "rate_limit_per_minute": {"type": "integer"}}
        },
        "gatewaysdk.ClientResponse": {
            "type": "object",
            "properties": {"client_id": {"type": "string"}, "name": {"type": "string"}, "scopes": {"type": "array", "items": {"type": "string"}}, "rate_limit_per_minute": {"type": "integer"}, "active": {"type": "boolean"}, "approved": {"type": "boolean"}, "created_at": {"type": "string"}, "updated_at": {"type": "string"}}
        },
        "gatewaysdk.CreateClientResponse": {
            "type": "object",
            "properties": {"client_id": {"type": "string"}, "name": {"type": "string"}, "scopes": {"type": "array", "items": {"type": "string"}}, "rate_limit_per_minute": {"type": "integer"}, "active": {"type": "boolean"}, "approved": {"type": "boolean"}, "created_at": {"type": "string"}, "updated_at": {"type": "string"}, "client_secret": {"type": "string"}}
        },
        "gatewaysdk.RequestLogResponse": {
            "type": "object",
            "properties": {"id": {"type": "string"}, "method": {"type": "string"}, "endpoint": {"type": "string"}, "status_code": {"type": "integer"}, "admitted": {"type": "boolean"}, "latency_ms": {"type": "integer"}, "created_at": {"type": "string"}}
        },
        "gatewaysdk.BootstrapRequest": {
            "type": "object",
            "properties": {"name": {"type": "string"}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Access token from /oauth/token. Format: \"Bearer {token}\".",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "EvaMind API Gateway",
	Description:      "Authorization front door for the EvaMind resource service.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
